// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawconf

import (
	"math"
	"testing"

	"github.com/gogpu/drawconf/scalar"
)

func TestConvertComponentNormalized(t *testing.T) {
	tests := []struct {
		name string
		ty   scalar.Type
		bits uint32
		want float64
	}{
		{"ubyte max", scalar.UnsignedByte, 255, 1},
		{"ubyte fifth", scalar.UnsignedByte, 51, 0.2},
		{"byte max", scalar.Byte, 127, 1},
		{"byte min clamps", scalar.Byte, 0x80, -1},
		{"ushort max", scalar.UnsignedShort, 65535, 1},
		{"short max", scalar.Short, 32767, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertComponent(tt.ty, tt.bits, true, false)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("convertComponent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertComponentIntegerPathSkipsNormalization(t *testing.T) {
	got := convertComponent(scalar.UnsignedByte, 200, true, true)
	if got != 200 {
		t.Errorf("integer fetch = %v, want 200", got)
	}
}

func TestDecodePackedSigned(t *testing.T) {
	// x = -512 (0x200), y = 511, z = 0, w = -2 (0b10).
	word := uint32(0x200) | uint32(511)<<10 | uint32(2)<<30

	var out [4]float64
	decodePacked(scalar.Int2101010, word, false, &out)
	if out[0] != -512 || out[1] != 511 || out[2] != 0 || out[3] != -2 {
		t.Errorf("raw decode = %v", out)
	}

	decodePacked(scalar.Int2101010, word, true, &out)
	if out[0] != -1 {
		t.Errorf("normalized x = %v, want clamped -1", out[0])
	}
	if out[1] != 1 {
		t.Errorf("normalized y = %v, want 1", out[1])
	}
	if out[3] != -1 {
		t.Errorf("normalized w = %v, want clamped -1", out[3])
	}
}

func TestDecodePackedUnsigned(t *testing.T) {
	word := uint32(1023) | uint32(3)<<30

	var out [4]float64
	decodePacked(scalar.Uint2101010, word, true, &out)
	if out[0] != 1 || out[3] != 1 {
		t.Errorf("normalized decode = %v", out)
	}
}

func TestFetchStrideAndOffset(t *testing.T) {
	// Two ubyte2 elements with stride 5 starting at offset 3.
	data := []byte{
		0xff, 0xff, 0xff,
		10, 20, 0xff, 0xff, 0xff,
		30, 40,
	}
	ptr := AttribPointer{
		Source:     DataSource{Offset: 3},
		Type:       scalar.UnsignedByte,
		Components: 2,
		Stride:     5,
	}

	v, err := ptr.Fetch(data, 1, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if v[0] != 30 || v[1] != 40 {
		t.Errorf("fetched = %v, want [30 40 0 1]", v)
	}
	if v[2] != 0 || v[3] != 1 {
		t.Errorf("fill components = %v, want 0 and 1", v[2:])
	}
}

func TestFetchDivisorUsesInstanceIndex(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	ptr := AttribPointer{
		Type:       scalar.UnsignedByte,
		Components: 1,
		Divisor:    2,
	}

	// Instances 0 and 1 read element 0, instances 2 and 3 read element 1.
	for inst, want := range map[int]float64{0: 1, 1: 1, 2: 2, 3: 2} {
		v, err := ptr.Fetch(data, 99, inst)
		if err != nil {
			t.Fatalf("Fetch(inst=%d): %v", inst, err)
		}
		if v[0] != want {
			t.Errorf("instance %d fetched %v, want %v", inst, v[0], want)
		}
	}
}

func TestFetchOutOfBounds(t *testing.T) {
	ptr := AttribPointer{
		Type:       scalar.Float,
		Components: 2,
	}
	if _, err := ptr.Fetch(make([]byte, 8), 1, 0); err == nil {
		t.Fatal("Fetch past end of data succeeded")
	}
}
