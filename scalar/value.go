// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scalar

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Value is a number stored in one of the non-packed encodings. The raw bit
// pattern is kept in the low bits of a uint32 regardless of storage width.
//
// The packed 10-10-10-2 encodings are not representable as a single
// component Value; constructing one panics. Their words are assembled
// directly by the data generator.
type Value struct {
	ty   Type
	bits uint32
}

// New encodes v into the given encoding, truncating to the encoding's
// native storage width. The half encoding applies a lossy float-to-half
// conversion without denormal support.
func New(ty Type, v float64) Value {
	switch ty {
	case Float:
		return Value{ty, math.Float32bits(float32(v))}
	case Half:
		return Value{ty, uint32(floatToHalf(float32(v)))}
	case Byte, Short, Int, UnsignedByte, UnsignedShort, UnsignedInt:
		return newInt(ty, int64(v))
	default:
		panic(fmt.Sprintf("scalar: cannot construct value of type %v", ty))
	}
}

// fromBits rebuilds a Value from a raw encoded bit pattern.
func fromBits(ty Type, bits uint32) Value {
	if ty.Packed() || ty >= typeCount {
		panic(fmt.Sprintf("scalar: cannot construct value of type %v", ty))
	}
	return Value{ty, bits}
}

// FromBits rebuilds a Value from the raw bit pattern produced by Bits.
func FromBits(ty Type, bits uint32) Value { return fromBits(ty, bits) }

// Type returns the value's encoding.
func (v Value) Type() Type { return v.ty }

// Bits returns the raw encoded bit pattern in the low bits.
func (v Value) Bits() uint32 { return v.bits }

// Float interprets the stored bits as a logical number. Half decoding is
// the only non-identity conversion; denormal half bit patterns decode to
// zero.
func (v Value) Float() float64 {
	switch v.ty {
	case Float:
		return float64(math.Float32frombits(v.bits))
	case Half:
		return float64(halfToFloat(uint16(v.bits)))
	case Byte:
		return float64(int8(v.bits))
	case Short:
		return float64(int16(v.bits))
	case Int:
		return float64(int32(v.bits))
	case UnsignedByte:
		return float64(uint8(v.bits))
	case UnsignedShort:
		return float64(uint16(v.bits))
	case UnsignedInt:
		return float64(v.bits)
	default:
		panic(fmt.Sprintf("scalar: cannot interpret value of type %v", v.ty))
	}
}

// Equal reports whether both values have the same encoding and the same
// raw bit pattern. Unlike the ordering comparisons it does not interpret
// the bits, so two NaN floats with identical bits compare equal.
func (v Value) Equal(o Value) bool {
	return v.ty == o.ty && v.bits == o.bits
}

// Less reports whether the interpreted value of v is smaller than o's.
func (v Value) Less(o Value) bool {
	v.check(o)
	return v.Float() < o.Float()
}

// check panics when two operands have different encodings.
func (v Value) check(o Value) {
	if v.ty != o.ty {
		panic(fmt.Sprintf("scalar: mixed-type operation: %v vs %v", v.ty, o.ty))
	}
}

// newInt encodes an integer quantity, wrapping at the encoding's storage
// width. Works for both signednesses since the wrap is two's complement.
func newInt(ty Type, v int64) Value {
	switch ty {
	case Byte, UnsignedByte:
		return Value{ty, uint32(uint8(v))}
	case Short, UnsignedShort:
		return Value{ty, uint32(uint16(v))}
	case Int, UnsignedInt:
		return Value{ty, uint32(v)}
	default:
		panic(fmt.Sprintf("scalar: not an integer type: %v", ty))
	}
}

// i64 returns the interpreted value as a signed 64-bit integer. Unsigned
// encodings fit without loss.
func (v Value) i64() int64 { return int64(v.Float()) }

// Add returns v+o re-encoded in v's type. Integer encodings wrap around
// at their storage width.
func (v Value) Add(o Value) Value {
	v.check(o)
	if v.ty.FloatingPoint() {
		return New(v.ty, v.Float()+o.Float())
	}
	return newInt(v.ty, v.i64()+o.i64())
}

// Sub returns v-o re-encoded in v's type.
func (v Value) Sub(o Value) Value {
	v.check(o)
	if v.ty.FloatingPoint() {
		return New(v.ty, v.Float()-o.Float())
	}
	return newInt(v.ty, v.i64()-o.i64())
}

// Mul returns v*o re-encoded in v's type.
func (v Value) Mul(o Value) Value {
	v.check(o)
	if v.ty.FloatingPoint() {
		return New(v.ty, v.Float()*o.Float())
	}
	return newInt(v.ty, v.i64()*o.i64())
}

// Div returns v/o re-encoded in v's type. Integer division by zero
// panics, matching the contract-violation policy.
func (v Value) Div(o Value) Value {
	v.check(o)
	if v.ty.FloatingPoint() {
		return New(v.ty, v.Float()/o.Float())
	}
	if o.i64() == 0 {
		panic("scalar: integer division by zero")
	}
	return newInt(v.ty, v.i64()/o.i64())
}

// Max returns the largest value the generator may produce for an
// encoding. The bounds are deliberately narrower than the true
// representable range so that summed attribute contributions stay
// numerically well behaved.
func Max(ty Type) Value {
	switch ty {
	case Float:
		return New(Float, 127)
	case Half:
		return New(Half, 256)
	case Byte:
		return New(Byte, 127)
	case Short:
		return New(Short, 32760)
	case Int:
		return New(Int, 2147483647)
	case UnsignedByte:
		return New(UnsignedByte, 255)
	case UnsignedShort:
		return New(UnsignedShort, 65530)
	case UnsignedInt:
		return New(UnsignedInt, 4294967295)
	default:
		panic(fmt.Sprintf("scalar: no bounds for type %v", ty))
	}
}

// Min returns the smallest value the generator may produce for an
// encoding.
func Min(ty Type) Value {
	switch ty {
	case Float:
		return New(Float, -127)
	case Half:
		return New(Half, -256)
	case Byte:
		return New(Byte, -127)
	case Short:
		return New(Short, -32760)
	case Int:
		return New(Int, -2147483647)
	case UnsignedByte, UnsignedShort, UnsignedInt:
		return New(ty, 0)
	default:
		panic(fmt.Sprintf("scalar: no bounds for type %v", ty))
	}
}

// MinSpacing returns the minimum separation required between two adjacent
// randomly generated coordinates of the encoding, scaled with the
// encoding's width so that near-duplicate vertices are avoided at every
// precision.
func MinSpacing(ty Type) Value {
	switch ty {
	case Float:
		return New(Float, 4)
	case Half:
		return New(Half, 4)
	case Byte:
		return New(Byte, 4)
	case Short:
		return New(Short, 4*256)
	case Int:
		return New(Int, 4*16777216)
	case UnsignedByte:
		return New(UnsignedByte, 4*2)
	case UnsignedShort:
		return New(UnsignedShort, 4*512)
	case UnsignedInt:
		return New(UnsignedInt, 4*16777216)
	default:
		panic(fmt.Sprintf("scalar: no spacing for type %v", ty))
	}
}

// Random draws a uniform value in [min, max]. Float encodings use
// multiply interpolation, integer encodings modulo arithmetic over the
// span. When max < min the result is min, unchanged; callers of the
// deterministic generator rely on that exact behavior, so it must not be
// turned into an error.
func Random(r *rand.Rand, min, max Value) Value {
	min.check(max)
	ty := min.ty
	lo, hi := min.Float(), max.Float()
	if hi < lo {
		return min
	}
	if ty.FloatingPoint() {
		return New(ty, lo+r.Float64()*(hi-lo))
	}
	if ty.Signed() {
		span := int64(hi) - int64(lo)
		if span <= 0 {
			return min
		}
		return New(ty, float64(int64(lo)+int64(r.Uint64()%uint64(span))))
	}
	span := uint64(hi) - uint64(lo)
	if span == 0 {
		return min
	}
	return New(ty, float64(uint64(lo)+r.Uint64()%span))
}

// floatToHalf converts a float32 to binary16 bits. Values too small for a
// normalized half flush to zero; no denormals are produced.
func floatToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case int32((bits>>23)&0xff) == 0xff:
		if mant != 0 {
			return sign | 0x7e00 // NaN
		}
		return sign | 0x7c00 // Inf
	case exp >= 31:
		return sign | 0x7c00 // overflow to Inf
	case exp <= 0:
		return sign // flush to zero
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}

// halfToFloat decodes binary16 bits. Denormal inputs decode to zero.
func halfToFloat(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		// Zero or denormal; denormals are not supported.
		return math.Float32frombits(sign)
	case 31:
		if mant != 0 {
			return math.Float32frombits(sign | 0x7fc00000) // NaN
		}
		return math.Float32frombits(sign | 0x7f800000) // Inf
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | mant<<13)
	}
}
