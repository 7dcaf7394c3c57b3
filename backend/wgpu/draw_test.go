//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawconf"
	"github.com/gogpu/drawconf/shadergen"
)

func TestRewriteElementsLineLoop(t *testing.T) {
	got := rewriteElements(drawconf.LineLoop, []int{4, 7, 9})
	want := []int{4, 7, 9, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rewriteElements(LineLoop) = %v, want %v", got, want)
	}
}

func TestRewriteElementsLineLoopTwoVertices(t *testing.T) {
	// Two vertices form a single segment; no closing edge is added.
	got := rewriteElements(drawconf.LineLoop, []int{1, 2})
	want := []int{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rewriteElements(LineLoop) = %v, want %v", got, want)
	}
}

func TestRewriteElementsTriangleFan(t *testing.T) {
	got := rewriteElements(drawconf.TriangleFan, []int{0, 1, 2, 3, 4})
	want := []int{0, 1, 2, 0, 2, 3, 0, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rewriteElements(TriangleFan) = %v, want %v", got, want)
	}
}

func TestRewriteElementsPassThrough(t *testing.T) {
	elems := []int{5, 6, 7}
	got := rewriteElements(drawconf.Triangles, elems)
	if !reflect.DeepEqual(got, elems) {
		t.Errorf("rewriteElements(Triangles) = %v, want %v", got, elems)
	}
}

func TestGPUTopology(t *testing.T) {
	tests := []struct {
		prim drawconf.Primitive
		want gputypes.PrimitiveTopology
	}{
		{drawconf.Points, gputypes.PrimitiveTopologyPointList},
		{drawconf.Lines, gputypes.PrimitiveTopologyLineList},
		{drawconf.LineStrip, gputypes.PrimitiveTopologyLineStrip},
		{drawconf.LineLoop, gputypes.PrimitiveTopologyLineStrip},
		{drawconf.Triangles, gputypes.PrimitiveTopologyTriangleList},
		{drawconf.TriangleStrip, gputypes.PrimitiveTopologyTriangleStrip},
		{drawconf.TriangleFan, gputypes.PrimitiveTopologyTriangleList},
	}
	for _, tt := range tests {
		if got := gpuTopology(tt.prim); got != tt.want {
			t.Errorf("gpuTopology(%v) = %v, want %v", tt.prim, got, tt.want)
		}
	}
}

func TestEncodeElementFloat(t *testing.T) {
	var dst [streamStride]byte
	encodeElement(dst[:], shadergen.ClassFloat, [4]float64{0.5, -2, 0, 1})

	want := []float32{0.5, -2, 0, 1}
	for lane, w := range want {
		bits := binary.LittleEndian.Uint32(dst[lane*4:])
		if got := math.Float32frombits(bits); got != w {
			t.Errorf("lane %d = %v, want %v", lane, got, w)
		}
	}
}

func TestEncodeElementInt(t *testing.T) {
	var dst [streamStride]byte
	encodeElement(dst[:], shadergen.ClassInt, [4]float64{-7, 42, 0, 1})

	want := []int32{-7, 42, 0, 1}
	for lane, w := range want {
		bits := binary.LittleEndian.Uint32(dst[lane*4:])
		if got := int32(bits); got != w {
			t.Errorf("lane %d = %d, want %d", lane, got, w)
		}
	}
}

func TestEncodeElementUint(t *testing.T) {
	var dst [streamStride]byte
	encodeElement(dst[:], shadergen.ClassUint, [4]float64{4294967295, 3, 0, 1})

	want := []uint32{4294967295, 3, 0, 1}
	for lane, w := range want {
		if got := binary.LittleEndian.Uint32(dst[lane*4:]); got != w {
			t.Errorf("lane %d = %d, want %d", lane, got, w)
		}
	}
}

func TestVertexFormatsDistinct(t *testing.T) {
	seen := map[gputypes.VertexFormat]bool{}
	for _, class := range []shadergen.Class{shadergen.ClassFloat, shadergen.ClassInt, shadergen.ClassUint} {
		for comps := 1; comps <= 4; comps++ {
			f := vertexFormats[class][comps-1]
			if seen[f] {
				t.Errorf("duplicate vertex format for class %v comps %d", class, comps)
			}
			seen[f] = true
		}
	}
}
