// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scalar

import (
	"math"
	"math/rand/v2"
	"testing"
)

// nonPackedTypes lists every encoding the value model covers.
var nonPackedTypes = []Type{
	Float, Byte, Short, Int, UnsignedByte, UnsignedShort, UnsignedInt, Half,
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		ty   Type
		in   float64
		want float64
	}{
		{"float_exact", Float, 12.5, 12.5},
		{"float_negative", Float, -127, -127},
		{"byte", Byte, -100, -100},
		{"byte_truncates", Byte, 12.9, 12},
		{"short", Short, 32760, 32760},
		{"int", Int, -2147483647, -2147483647},
		{"unsigned_byte", UnsignedByte, 255, 255},
		{"unsigned_short", UnsignedShort, 65530, 65530},
		{"unsigned_int", UnsignedInt, 4294967295, 4294967295},
		{"half_exact", Half, 0.5, 0.5},
		{"half_256", Half, 256, 256},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := New(tc.ty, tc.in).Float()
			if got != tc.want {
				t.Errorf("New(%v, %v).Float() = %v, want %v", tc.ty, tc.in, got, tc.want)
			}
		})
	}
}

func TestHalfDecode(t *testing.T) {
	cases := []struct {
		name string
		bits uint16
		want float32
	}{
		{"zero", 0x0000, 0},
		{"negative_zero", 0x8000, float32(math.Copysign(0, -1))},
		{"one", 0x3c00, 1},
		{"negative_two", 0xc000, -2},
		{"half", 0x3800, 0.5},
		{"denormal_flushes", 0x0001, 0},
		{"max_denormal_flushes", 0x03ff, 0},
		{"largest_normal", 0x7bff, 65504},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := halfToFloat(tc.bits)
			if got != tc.want {
				t.Errorf("halfToFloat(%#04x) = %v, want %v", tc.bits, got, tc.want)
			}
		})
	}

	if !math.IsInf(float64(halfToFloat(0x7c00)), 1) {
		t.Error("halfToFloat(0x7c00) is not +Inf")
	}
	if !math.IsNaN(float64(halfToFloat(0x7c01))) {
		t.Error("halfToFloat(0x7c01) is not NaN")
	}
}

func TestHalfEncodeNoDenormals(t *testing.T) {
	// The smallest normal half is 2^-14; anything smaller must encode to
	// a (signed) zero.
	if got := floatToHalf(1e-8); got != 0 {
		t.Errorf("floatToHalf(1e-8) = %#04x, want 0", got)
	}
	if got := floatToHalf(-1e-8); got != 0x8000 {
		t.Errorf("floatToHalf(-1e-8) = %#04x, want 0x8000", got)
	}
	if got := floatToHalf(float32(math.Exp2(-14))); got != 0x0400 {
		t.Errorf("floatToHalf(2^-14) = %#04x, want 0x0400", got)
	}
}

func TestRandomMaxBelowMinReturnsMin(t *testing.T) {
	// Documented quirk: when max < min the result is min, unchanged. The
	// generated data streams depend on it, so it is pinned here.
	r := newRand(1)
	for _, ty := range nonPackedTypes {
		min := Max(ty) // deliberately swapped
		max := Min(ty)
		got := Random(r, min, max)
		if !got.Equal(min) {
			t.Errorf("%v: Random with max < min = %v, want min %v", ty, got.Float(), min.Float())
		}
	}
}

func TestRandomInRange(t *testing.T) {
	r := newRand(7)
	for _, ty := range nonPackedTypes {
		min, max := Min(ty), Max(ty)
		for i := 0; i < 200; i++ {
			v := Random(r, min, max)
			if v.Type() != ty {
				t.Fatalf("%v: Random changed type to %v", ty, v.Type())
			}
			f := v.Float()
			if f < min.Float() || f > max.Float() {
				t.Fatalf("%v: Random produced %v outside [%v, %v]", ty, f, min.Float(), max.Float())
			}
		}
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name string
		ty   Type
		a, b float64
		op   func(a, b Value) Value
		want float64
	}{
		{"float_add", Float, 1.5, 2.25, Value.Add, 3.75},
		{"float_div", Float, 1, 4, Value.Div, 0.25},
		{"byte_add_wraps", Byte, 127, 1, Value.Add, -128},
		{"short_sub", Short, 10, 32, Value.Sub, -22},
		{"unsigned_byte_sub_wraps", UnsignedByte, 0, 1, Value.Sub, 255},
		{"int_mul", Int, -3, 7, Value.Mul, -21},
		{"unsigned_int_add", UnsignedInt, 4294967295, 1, Value.Add, 0},
		{"half_mul", Half, 2, 0.5, Value.Mul, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.op(New(tc.ty, tc.a), New(tc.ty, tc.b)).Float()
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMixedTypeArithmeticPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Add with mixed encodings did not panic")
		}
	}()
	New(Float, 1).Add(New(Byte, 1))
}

func TestEqualComparesBits(t *testing.T) {
	nan1 := FromBits(Float, math.Float32bits(float32(math.NaN())))
	nan2 := FromBits(Float, math.Float32bits(float32(math.NaN())))
	if !nan1.Equal(nan2) {
		t.Error("identical NaN bit patterns do not compare equal")
	}
	if New(Float, 1).Equal(New(Half, 1)) {
		t.Error("values of different encodings compare equal")
	}
}

func TestBoundsAreSafe(t *testing.T) {
	// The generator bounds are intentionally far narrower than the
	// representable range for the float encodings.
	if got := Max(Float).Float(); got != 127 {
		t.Errorf("Max(Float) = %v, want 127", got)
	}
	if got := Min(Half).Float(); got != -256 {
		t.Errorf("Min(Half) = %v, want -256", got)
	}
	for _, ty := range nonPackedTypes {
		if !Min(ty).Less(Max(ty)) {
			t.Errorf("%v: Min is not below Max", ty)
		}
		if MinSpacing(ty).Float() <= 0 {
			t.Errorf("%v: MinSpacing is not positive", ty)
		}
	}
}

func TestPackedTypesRejected(t *testing.T) {
	for _, ty := range []Type{Int2101010, Uint2101010} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%v, 0) did not panic", ty)
				}
			}()
			New(ty, 0)
		}()
	}
}
