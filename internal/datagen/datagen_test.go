// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package datagen

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gogpu/drawconf/scalar"
)

var arrayTypes = []scalar.Type{
	scalar.Float, scalar.Byte, scalar.Short, scalar.Int,
	scalar.UnsignedByte, scalar.UnsignedShort, scalar.UnsignedInt,
	scalar.Half, scalar.Int2101010, scalar.Uint2101010,
}

func TestArrayDeterministic(t *testing.T) {
	for _, ty := range arrayTypes {
		t.Run(ty.String(), func(t *testing.T) {
			a := Array(0xdeadbeef, 64, 4, 5, 17, ty)
			b := Array(0xdeadbeef, 64, 4, 5, 17, ty)
			if !bytes.Equal(a, b) {
				t.Error("repeated generation with identical arguments differs")
			}
			c := Array(0xdeadbee0, 64, 4, 5, 17, ty)
			if bytes.Equal(a, c) {
				t.Error("different seeds produced identical buffers")
			}
		})
	}
}

func TestArraySizing(t *testing.T) {
	cases := []struct {
		name                               string
		count, comps, offset, stride, want int
		ty                                 scalar.Type
	}{
		{"packed_stride_zero", 3, 2, 0, 0, 3 * 2 * 4, scalar.Float},
		{"offset_and_stride", 3, 2, 7, 32, 7 + 3*32, scalar.Float},
		{"byte_compact", 5, 3, 0, 0, 5 * 3, scalar.Byte},
		{"packed_word", 4, 4, 2, 0, 2 + 4*4, scalar.Uint2101010},
		{"stride_below_element", 3, 2, 0, 2, 2*2 + 2*4, scalar.Float},
		{"packed_stride_below_word", 4, 4, 0, 1, 3 + 4, scalar.Uint2101010},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := Array(1, tc.count, tc.comps, tc.offset, tc.stride, tc.ty)
			if len(buf) != tc.want {
				t.Errorf("len = %d, want %d", len(buf), tc.want)
			}
		})
	}
}

func TestArrayOverlappingStride(t *testing.T) {
	// A stride smaller than the element size makes elements overlap;
	// generation still writes every component in element order, so the
	// last element's bytes survive intact at its own position.
	const count, comps, stride = 5, 2, 2
	buf := Array(6, count, comps, 0, stride, scalar.Float)

	elemSize := comps * scalar.Float.Size()
	if want := stride*(count-1) + elemSize; len(buf) != want {
		t.Fatalf("len = %d, want %d", len(buf), want)
	}

	a := Array(6, count, comps, 0, stride, scalar.Float)
	if !bytes.Equal(buf, a) {
		t.Error("overlapping generation is not deterministic")
	}
}

func TestArraySpacing(t *testing.T) {
	// With a single resample attempt the guarantee is probabilistic, but
	// adjacent equal components should be rare. Check we at least never
	// produce a run of identical components across many elements.
	buf := Array(42, 128, 1, 0, 0, scalar.UnsignedShort)
	identical := 0
	prev := binary.LittleEndian.Uint16(buf)
	for i := 1; i < 128; i++ {
		v := binary.LittleEndian.Uint16(buf[i*2:])
		if v == prev {
			identical++
		}
		prev = v
	}
	if identical > 4 {
		t.Errorf("%d adjacent identical components, spacing rule ineffective", identical)
	}
}

func TestPackedFieldLayout(t *testing.T) {
	buf := Array(9, 16, 4, 0, 0, scalar.Int2101010)
	for i := 0; i < 16; i++ {
		word := binary.LittleEndian.Uint32(buf[i*4:])
		// Every field must be within its bit budget by construction;
		// reassembling from the extracted fields must reproduce the word.
		x := word & 0x3ff
		y := (word >> 10) & 0x3ff
		z := (word >> 20) & 0x3ff
		w := (word >> 30) & 0x3
		if rebuilt := w<<30 | z<<20 | y<<10 | x; rebuilt != word {
			t.Fatalf("word %d: field layout mismatch: %#08x vs %#08x", i, rebuilt, word)
		}
	}
}

func TestIndicesArePermutation(t *testing.T) {
	for _, ty := range []scalar.Type{scalar.UnsignedByte, scalar.UnsignedShort, scalar.UnsignedInt} {
		t.Run(ty.String(), func(t *testing.T) {
			const count = 200
			max := count - 1
			if ty == scalar.UnsignedByte {
				// Keep within 8-bit range.
				max = 255
			}
			buf := Indices(3, count, ty, 0, 0, max)

			seen := make(map[int]bool, count)
			for i := 0; i < count; i++ {
				var v int
				switch ty {
				case scalar.UnsignedByte:
					v = int(buf[i])
				case scalar.UnsignedShort:
					v = int(binary.LittleEndian.Uint16(buf[i*2:]))
				case scalar.UnsignedInt:
					v = int(binary.LittleEndian.Uint32(buf[i*4:]))
				}
				if v < 0 || v >= count {
					t.Fatalf("index %d out of [0, %d)", v, count)
				}
				if seen[v] {
					t.Fatalf("duplicate index %d", v)
				}
				seen[v] = true
			}
			if len(seen) != count {
				t.Fatalf("%d distinct indices, want %d", len(seen), count)
			}
		})
	}
}

func TestIndicesMinBias(t *testing.T) {
	const count, min = 10, 5
	buf := Indices(11, count, scalar.UnsignedShort, 0, min, min+count-1)
	for i := 0; i < count; i++ {
		v := int(binary.LittleEndian.Uint16(buf[i*2:]))
		if v < min || v >= min+count {
			t.Fatalf("index %d outside [%d, %d)", v, min, min+count)
		}
	}
}

func TestIndicesRejectNonIndexTypes(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Indices with a float encoding did not panic")
		}
	}()
	Indices(1, 4, scalar.Float, 0, 0, 3)
}

func TestAttribValueDeterministic(t *testing.T) {
	a := AttribValue(77, scalar.Short)
	b := AttribValue(77, scalar.Short)
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("component %d differs between identical calls", i)
		}
	}
}
