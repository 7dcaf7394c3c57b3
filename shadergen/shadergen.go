// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shadergen synthesizes the WGSL program pair a draw iteration
// executes on both backends. The program's semantics depend only on the
// attribute output types: position-role inputs are summed and folded to a
// 2D position, the remaining inputs are multiplied into a color, and two
// uniform scale factors keep the results in renderable range. Keeping the
// source a pure function of the output types lets the runner reuse one
// compiled program across shader-compatible iterations.
package shadergen

import (
	"fmt"
	"strings"
)

// Class is the coarse shader-facing type family of an attribute.
type Class uint8

const (
	// ClassFloat covers f32 scalars and vectors.
	ClassFloat Class = iota

	// ClassInt covers i32 scalars and vectors.
	ClassInt

	// ClassUint covers u32 scalars and vectors.
	ClassUint
)

// String returns the WGSL scalar type name of the class.
func (c Class) String() string {
	switch c {
	case ClassFloat:
		return "f32"
	case ClassInt:
		return "i32"
	case ClassUint:
		return "u32"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Input describes one vertex-shader input.
type Input struct {
	// Name is the WGSL identifier, unique within the program.
	Name string

	// Location is the @location index.
	Location int

	// Components is the vector width, 1 through 4.
	Components int

	// Class selects the scalar type family.
	Class Class

	// Position marks the input as contributing to the vertex position;
	// all other inputs contribute to the color.
	Position bool
}

// Program is a generated vertex/fragment source pair together with the
// structured input description it was generated from. The reference
// backend evaluates the structured form directly; the hardware backend
// compiles the WGSL, so both execute the same logic.
type Program struct {
	Inputs   []Input
	Vertex   string
	Fragment string
}

// Generate builds the program for the given inputs. It panics on
// contract violations (no inputs, duplicate names or locations, invalid
// component counts); the specification model filters those before a
// program is ever requested.
func Generate(inputs []Input) Program {
	if len(inputs) == 0 {
		panic("shadergen: no inputs")
	}
	names := make(map[string]bool, len(inputs))
	locations := make(map[int]bool, len(inputs))
	for _, in := range inputs {
		if in.Components < 1 || in.Components > 4 {
			panic(fmt.Sprintf("shadergen: input %q has %d components", in.Name, in.Components))
		}
		if names[in.Name] {
			panic(fmt.Sprintf("shadergen: duplicate input name %q", in.Name))
		}
		if locations[in.Location] {
			panic(fmt.Sprintf("shadergen: duplicate input location %d", in.Location))
		}
		names[in.Name] = true
		locations[in.Location] = true
	}

	return Program{
		Inputs:   inputs,
		Vertex:   vertexSource(inputs),
		Fragment: fragmentSource(),
	}
}

func vertexSource(inputs []Input) string {
	var b strings.Builder

	b.WriteString("struct Scales {\n")
	b.WriteString("    coordScale: f32,\n")
	b.WriteString("    colorScale: f32,\n")
	b.WriteString("}\n\n")
	b.WriteString("@group(0) @binding(0) var<uniform> u: Scales;\n\n")
	b.WriteString("struct VertexOutput {\n")
	b.WriteString("    @builtin(position) position: vec4<f32>,\n")
	b.WriteString("    @location(0) color: vec4<f32>,\n")
	b.WriteString("}\n\n")

	b.WriteString("@vertex\nfn vs_main(\n")
	for i, in := range inputs {
		fmt.Fprintf(&b, "    @location(%d) %s: %s", in.Location, in.Name, wgslType(in))
		if i != len(inputs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(") -> VertexOutput {\n")
	b.WriteString("    var pos = vec2<f32>(0.0, 0.0);\n")
	b.WriteString("    var color = vec3<f32>(1.0, 1.0, 1.0);\n")

	for _, in := range inputs {
		v := floatExpr(in)
		if in.Position {
			b.WriteString("    pos = pos + " + positionTerm(in, v) + ";\n")
		} else {
			b.WriteString("    color = color * " + colorTerm(in, v) + ";\n")
		}
	}

	b.WriteString("    var out: VertexOutput;\n")
	b.WriteString("    out.position = vec4<f32>(u.coordScale * pos, 1.0, 1.0);\n")
	b.WriteString("    out.color = vec4<f32>(0.5 * u.colorScale * color + vec3<f32>(0.5, 0.5, 0.5), 1.0);\n")
	b.WriteString("    return out;\n")
	b.WriteString("}\n")
	return b.String()
}

func fragmentSource() string {
	return "@fragment\n" +
		"fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {\n" +
		"    return color;\n" +
		"}\n"
}

// wgslType returns the declared type of an input.
func wgslType(in Input) string {
	if in.Components == 1 {
		return in.Class.String()
	}
	return fmt.Sprintf("vec%d<%s>", in.Components, in.Class)
}

// floatExpr converts the input to its f32 counterpart. Float inputs pass
// through unchanged.
func floatExpr(in Input) string {
	if in.Class == ClassFloat {
		return in.Name
	}
	if in.Components == 1 {
		return fmt.Sprintf("f32(%s)", in.Name)
	}
	return fmt.Sprintf("vec%d<f32>(%s)", in.Components, in.Name)
}

// positionTerm folds an input's components to the vec2 added into the
// position accumulator.
func positionTerm(in Input, v string) string {
	switch in.Components {
	case 1:
		return fmt.Sprintf("vec2<f32>(%s, %s)", v, v)
	case 2:
		return v
	case 3:
		return fmt.Sprintf("%s.xy + vec2<f32>(%s.z, 0.0)", v, v)
	default:
		return fmt.Sprintf("%s.xy + %s.zw", v, v)
	}
}

// colorTerm folds an input's components to the vec3 factor multiplied
// into the color accumulator.
func colorTerm(in Input, v string) string {
	switch in.Components {
	case 1:
		return v
	case 2:
		return fmt.Sprintf("vec3<f32>(%s, 1.0)", v)
	case 3:
		return v
	default:
		return fmt.Sprintf("%s.xyz * %s.w", v, v)
	}
}
