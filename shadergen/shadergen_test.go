// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadergen

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

// validateWGSL runs the generated source through the full naga front end.
func validateWGSL(t *testing.T, source string) {
	t.Helper()

	ast, err := naga.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, source)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		t.Fatalf("lowering error: %v\nsource:\n%s", err, source)
	}
	validationErrs, err := naga.Validate(module)
	if err != nil {
		t.Fatalf("validation error: %v\nsource:\n%s", err, source)
	}
	if len(validationErrs) > 0 {
		t.Fatalf("validation failed: %v\nsource:\n%s", validationErrs[0], source)
	}
}

func TestGeneratedProgramsValidate(t *testing.T) {
	cases := []struct {
		name   string
		inputs []Input
	}{
		{
			"single_position_vec4",
			[]Input{
				{Name: "a_position", Location: 0, Components: 4, Class: ClassFloat, Position: true},
			},
		},
		{
			"position_and_color",
			[]Input{
				{Name: "a_position", Location: 0, Components: 4, Class: ClassFloat, Position: true},
				{Name: "a_color0", Location: 1, Components: 4, Class: ClassFloat},
			},
		},
		{
			"integer_color_inputs",
			[]Input{
				{Name: "a_position", Location: 0, Components: 2, Class: ClassFloat, Position: true},
				{Name: "a_color0", Location: 1, Components: 3, Class: ClassInt},
				{Name: "a_color1", Location: 2, Components: 1, Class: ClassUint},
			},
		},
		{
			"multiple_positions",
			[]Input{
				{Name: "a_position", Location: 0, Components: 3, Class: ClassFloat, Position: true},
				{Name: "a_position1", Location: 1, Components: 1, Class: ClassFloat, Position: true},
				{Name: "a_color0", Location: 2, Components: 2, Class: ClassFloat},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog := Generate(tc.inputs)
			validateWGSL(t, prog.Vertex)
			validateWGSL(t, prog.Fragment)
		})
	}
}

func TestGenerateDeclaresEveryInput(t *testing.T) {
	prog := Generate([]Input{
		{Name: "a_position", Location: 0, Components: 4, Class: ClassFloat, Position: true},
		{Name: "a_color0", Location: 3, Components: 2, Class: ClassUint},
	})

	for _, want := range []string{
		"@location(0) a_position: vec4<f32>",
		"@location(3) a_color0: vec2<u32>",
		"coordScale",
		"colorScale",
	} {
		if !strings.Contains(prog.Vertex, want) {
			t.Errorf("vertex source missing %q:\n%s", want, prog.Vertex)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	inputs := []Input{
		{Name: "a_position", Location: 0, Components: 4, Class: ClassFloat, Position: true},
		{Name: "a_color0", Location: 1, Components: 4, Class: ClassFloat},
	}
	if a, b := Generate(inputs), Generate(inputs); a.Vertex != b.Vertex || a.Fragment != b.Fragment {
		t.Error("generation is not deterministic")
	}
}

func TestGenerateContractViolations(t *testing.T) {
	cases := []struct {
		name   string
		inputs []Input
	}{
		{"empty", nil},
		{
			"duplicate_location",
			[]Input{
				{Name: "a", Location: 0, Components: 4, Class: ClassFloat, Position: true},
				{Name: "b", Location: 0, Components: 4, Class: ClassFloat},
			},
		},
		{
			"bad_components",
			[]Input{
				{Name: "a", Location: 0, Components: 5, Class: ClassFloat, Position: true},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Generate did not panic")
				}
			}()
			Generate(tc.inputs)
		})
	}
}
