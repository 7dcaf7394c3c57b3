// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawconf

import (
	"strings"
	"testing"

	"github.com/gogpu/drawconf/scalar"
)

func validFloatAttrib() AttribSpec {
	return AttribSpec{
		InputType:      scalar.Float,
		OutputType:     OutVec2,
		Storage:        StorageBuffer,
		ComponentCount: 2,
	}
}

func TestAttribSpecValid(t *testing.T) {
	tests := []struct {
		name string
		spec AttribSpec
		want bool
	}{
		{
			name: "float to vec2",
			spec: AttribSpec{InputType: scalar.Float, OutputType: OutVec2, ComponentCount: 2},
			want: true,
		},
		{
			name: "zero components",
			spec: AttribSpec{InputType: scalar.Float, OutputType: OutVec2, ComponentCount: 0},
			want: false,
		},
		{
			name: "five components",
			spec: AttribSpec{InputType: scalar.Float, OutputType: OutVec2, ComponentCount: 5},
			want: false,
		},
		{
			name: "float to int output",
			spec: AttribSpec{InputType: scalar.Float, OutputType: OutIVec2, ComponentCount: 2},
			want: false,
		},
		{
			name: "half to int output",
			spec: AttribSpec{InputType: scalar.Half, OutputType: OutInt, ComponentCount: 1},
			want: false,
		},
		{
			name: "signed to int output",
			spec: AttribSpec{InputType: scalar.Short, OutputType: OutIVec3, ComponentCount: 3},
			want: true,
		},
		{
			name: "unsigned to int output",
			spec: AttribSpec{InputType: scalar.UnsignedShort, OutputType: OutIVec3, ComponentCount: 3},
			want: false,
		},
		{
			name: "unsigned to uint output",
			spec: AttribSpec{InputType: scalar.UnsignedByte, OutputType: OutUVec4, ComponentCount: 4},
			want: true,
		},
		{
			name: "signed to uint output",
			spec: AttribSpec{InputType: scalar.Int, OutputType: OutUint, ComponentCount: 1},
			want: false,
		},
		{
			name: "packed four components to float",
			spec: AttribSpec{InputType: scalar.Int2101010, OutputType: OutVec4, ComponentCount: 4},
			want: true,
		},
		{
			name: "packed three components",
			spec: AttribSpec{InputType: scalar.Int2101010, OutputType: OutVec4, ComponentCount: 3},
			want: false,
		},
		{
			name: "packed to int output",
			spec: AttribSpec{InputType: scalar.Uint2101010, OutputType: OutIVec4, ComponentCount: 4},
			want: false,
		},
		{
			name: "packed default attribute",
			spec: AttribSpec{InputType: scalar.Uint2101010, OutputType: OutVec4, ComponentCount: 4, UseDefaultAttribute: true},
			want: false,
		},
		{
			name: "normalized byte to float",
			spec: AttribSpec{InputType: scalar.Byte, OutputType: OutVec4, ComponentCount: 4, Normalize: true},
			want: true,
		},
		{
			name: "normalized to int output",
			spec: AttribSpec{InputType: scalar.Byte, OutputType: OutIVec4, ComponentCount: 4, Normalize: true},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawSpecValid(t *testing.T) {
	base := DrawSpec{
		Primitive:      Triangles,
		PrimitiveCount: 2,
		Method:         DrawArrays,
		Attribs:        []AttribSpec{validFloatAttrib()},
	}

	t.Run("base is valid", func(t *testing.T) {
		if !base.Valid() {
			t.Fatal("base spec should be valid")
		}
	})

	t.Run("zero primitives", func(t *testing.T) {
		s := base
		s.PrimitiveCount = 0
		if s.Valid() {
			t.Error("spec with zero primitives should be invalid")
		}
	})

	t.Run("no attributes", func(t *testing.T) {
		s := base
		s.Attribs = nil
		if s.Valid() {
			t.Error("spec without attributes should be invalid")
		}
	})

	t.Run("negative first", func(t *testing.T) {
		s := base
		s.First = -1
		if s.Valid() {
			t.Error("negative first vertex should be invalid")
		}
	})

	t.Run("indexed with bad index type", func(t *testing.T) {
		s := base
		s.Method = DrawElements
		s.IndexType = scalar.Float
		if s.Valid() {
			t.Error("float index type should be invalid")
		}
		s.IndexType = scalar.UnsignedShort
		if !s.Valid() {
			t.Error("unsigned short index type should be valid")
		}
	})

	t.Run("ranged with inverted range", func(t *testing.T) {
		s := base
		s.Method = DrawElementsRanged
		s.IndexType = scalar.UnsignedByte
		s.IndexMin = 5
		s.IndexMax = 3
		if s.Valid() {
			t.Error("inverted index range should be invalid")
		}
	})

	t.Run("ranged range narrower than element count", func(t *testing.T) {
		s := base // Triangles x2, 6 elements
		s.Method = DrawElementsRanged
		s.IndexType = scalar.UnsignedByte
		s.IndexMin = 0
		s.IndexMax = 3
		if s.Valid() {
			t.Error("4 distinct index values cannot feed 6 elements")
		}
		s.IndexMax = 5
		if !s.Valid() {
			t.Error("range exactly covering the element count should be valid")
		}
	})

	t.Run("ranged exceeding encoding", func(t *testing.T) {
		s := base
		s.Method = DrawElementsRanged
		s.IndexType = scalar.UnsignedByte
		s.IndexMin = 0
		s.IndexMax = 256
		if s.Valid() {
			t.Error("index max beyond byte range should be invalid")
		}
		s.IndexMax = 255
		if !s.Valid() {
			t.Error("index max at byte range should be valid")
		}
	})
}

func TestDrawSpecHashRelevance(t *testing.T) {
	base := DrawSpec{
		Primitive:      Triangles,
		PrimitiveCount: 2,
		Method:         DrawArrays,
		First:          3,
		Attribs:        []AttribSpec{validFloatAttrib()},
	}

	t.Run("irrelevant index fields do not contribute", func(t *testing.T) {
		a := base
		b := base
		b.IndexType = scalar.UnsignedInt
		b.IndexOffset = 64
		b.IndexMin = 1
		b.IndexMax = 9
		b.InstanceCount = 17
		if a.Hash() != b.Hash() {
			t.Error("fields outside the method's relevance set changed the hash")
		}
	})

	t.Run("relevant field contributes", func(t *testing.T) {
		a := base
		b := base
		b.First = 4
		if a.Hash() == b.Hash() {
			t.Error("changing the first vertex should change the hash")
		}
	})

	t.Run("index fields contribute when indexed", func(t *testing.T) {
		a := base
		a.Method = DrawElements
		a.IndexType = scalar.UnsignedShort
		b := a
		b.IndexOffset = 2
		if a.Hash() == b.Hash() {
			t.Error("changing the index offset of an indexed draw should change the hash")
		}
	})

	t.Run("attribute layout contributes", func(t *testing.T) {
		a := base
		b := base
		b.Attribs = []AttribSpec{validFloatAttrib()}
		b.Attribs[0].Stride = 12
		if a.Hash() == b.Hash() {
			t.Error("changing an attribute stride should change the hash")
		}
	})

	t.Run("hash is stable", func(t *testing.T) {
		if base.Hash() != base.Hash() {
			t.Error("hash of the same spec should be deterministic")
		}
	})
}

func TestCompatTestClassification(t *testing.T) {
	aligned := validFloatAttrib()

	unalignedOffset := aligned
	unalignedOffset.Offset = 2 // float size 4

	unalignedStride := aligned
	unalignedStride.Stride = 6

	tests := []struct {
		name string
		spec DrawSpec
		want CompatTest
	}{
		{
			name: "aligned",
			spec: DrawSpec{Primitive: Triangles, PrimitiveCount: 1, Method: DrawArrays, Attribs: []AttribSpec{aligned}},
			want: CompatNone,
		},
		{
			name: "unaligned offset",
			spec: DrawSpec{Primitive: Triangles, PrimitiveCount: 1, Method: DrawArrays, Attribs: []AttribSpec{unalignedOffset}},
			want: CompatUnalignedOffset,
		},
		{
			name: "unaligned stride",
			spec: DrawSpec{Primitive: Triangles, PrimitiveCount: 1, Method: DrawArrays, Attribs: []AttribSpec{unalignedStride}},
			want: CompatUnalignedStride,
		},
		{
			name: "offset takes precedence over stride",
			spec: DrawSpec{Primitive: Triangles, PrimitiveCount: 1, Method: DrawArrays, Attribs: []AttribSpec{unalignedOffset, unalignedStride}},
			want: CompatUnalignedOffset,
		},
		{
			name: "client memory layouts are not classified",
			spec: func() DrawSpec {
				a := unalignedOffset
				a.Storage = StorageUser
				return DrawSpec{Primitive: Triangles, PrimitiveCount: 1, Method: DrawArrays, Attribs: []AttribSpec{a}}
			}(),
			want: CompatNone,
		},
		{
			name: "unaligned index offset",
			spec: DrawSpec{
				Primitive: Triangles, PrimitiveCount: 1, Method: DrawElements,
				IndexType: scalar.UnsignedShort, IndexStorage: StorageBuffer, IndexOffset: 1,
				Attribs: []AttribSpec{aligned},
			},
			want: CompatUnalignedOffset,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.CompatTest(); got != tt.want {
				t.Errorf("CompatTest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestElementCount(t *testing.T) {
	tests := []struct {
		prim  Primitive
		count int
		want  int
	}{
		{Points, 5, 5},
		{Lines, 3, 6},
		{LineStrip, 3, 4},
		{LineLoop, 1, 2},
		{LineLoop, 4, 4},
		{Triangles, 2, 6},
		{TriangleStrip, 2, 4},
		{TriangleFan, 3, 5},
	}
	for _, tt := range tests {
		if got := ElementCount(tt.prim, tt.count); got != tt.want {
			t.Errorf("ElementCount(%v, %d) = %d, want %d", tt.prim, tt.count, got, tt.want)
		}
	}
}

func TestShaderCompatible(t *testing.T) {
	spec := func(attribs ...AttribSpec) *DrawSpec {
		return &DrawSpec{Primitive: Triangles, PrimitiveCount: 1, Method: DrawArrays, Attribs: attribs}
	}

	floatAttrib := validFloatAttrib()

	intAttrib := AttribSpec{
		InputType:      scalar.Short,
		OutputType:     OutIVec2,
		ComponentCount: 2,
	}

	t.Run("same layout", func(t *testing.T) {
		if !ShaderCompatible(spec(floatAttrib, floatAttrib), spec(floatAttrib, floatAttrib)) {
			t.Error("identical specs should share a program")
		}
	})

	t.Run("component counts may differ", func(t *testing.T) {
		wide := floatAttrib
		wide.OutputType = OutVec4
		wide.ComponentCount = 4
		if !ShaderCompatible(spec(floatAttrib), spec(wide)) {
			t.Error("component width differences should not force a rebuild")
		}
	})

	t.Run("class change forces rebuild", func(t *testing.T) {
		if ShaderCompatible(spec(floatAttrib, floatAttrib), spec(floatAttrib, intAttrib)) {
			t.Error("output class change should force a rebuild")
		}
	})

	t.Run("attribute count change forces rebuild", func(t *testing.T) {
		if ShaderCompatible(spec(floatAttrib), spec(floatAttrib, floatAttrib)) {
			t.Error("attribute count change should force a rebuild")
		}
	})

	t.Run("position role change forces rebuild", func(t *testing.T) {
		positional := floatAttrib
		positional.AdditionalPositionAttribute = true
		if ShaderCompatible(spec(floatAttrib, floatAttrib), spec(floatAttrib, positional)) {
			t.Error("position role change should force a rebuild")
		}
	})
}

func TestDrawSpecName(t *testing.T) {
	s := DrawSpec{
		Primitive:      TriangleStrip,
		PrimitiveCount: 4,
		Method:         DrawElementsInstanced,
		IndexType:      scalar.UnsignedShort,
		IndexStorage:   StorageBuffer,
		IndexOffset:    6,
		InstanceCount:  3,
		Attribs: []AttribSpec{
			validFloatAttrib(),
			{
				InputType:      scalar.Byte,
				OutputType:     OutVec4,
				ComponentCount: 4,
				Normalize:      true,
			},
		},
	}

	name := s.Name()
	for _, part := range []string{
		"draw_elements_instanced", "triangle_strip", "index_unsigned_short", "offset6",
		"instances3", "attrib0", "attrib1", "normalized",
	} {
		if !strings.Contains(name, part) {
			t.Errorf("Name() = %q, missing %q", name, part)
		}
	}
	if name != s.Name() {
		t.Error("Name() should be deterministic")
	}
}

func TestDrawSpecDesc(t *testing.T) {
	s := DrawSpec{
		Primitive:      Points,
		PrimitiveCount: 8,
		Method:         DrawArrays,
		Attribs: []AttribSpec{
			validFloatAttrib(),
			{InputType: scalar.Float, OutputType: OutFloat, ComponentCount: 1, UseDefaultAttribute: true},
		},
	}

	desc := s.Desc()
	for _, part := range []string{"draw_arrays of 8 points", "attribute 0 (position)", "attribute 1 (color)", "default"} {
		if !strings.Contains(desc, part) {
			t.Errorf("Desc() = %q, missing %q", desc, part)
		}
	}
}
