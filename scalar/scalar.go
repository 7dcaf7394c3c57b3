// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scalar models the fixed-width numeric encodings a vertex
// attribute component can be stored in, and arithmetic over values kept
// in their encoded form.
//
// A Value carries its raw bit pattern together with its Type. Arithmetic
// interprets the bits, operates on the interpreted number and re-encodes
// the result, so accumulation behaves exactly like the rendering backends
// that consume the same bytes.
package scalar

import "fmt"

// Type identifies one of the supported input encodings.
type Type uint8

const (
	// Float is a 32-bit IEEE-754 float.
	Float Type = iota

	// Byte is a signed 8-bit integer.
	Byte

	// Short is a signed 16-bit integer.
	Short

	// Int is a signed 32-bit integer.
	Int

	// UnsignedByte is an unsigned 8-bit integer.
	UnsignedByte

	// UnsignedShort is an unsigned 16-bit integer.
	UnsignedShort

	// UnsignedInt is an unsigned 32-bit integer.
	UnsignedInt

	// Half is a 16-bit IEEE-754 binary16 float. Denormals are not
	// supported: they encode and decode as zero.
	Half

	// Int2101010 is a packed signed 10-10-10-2 word.
	Int2101010

	// Uint2101010 is a packed unsigned 10-10-10-2 word.
	Uint2101010

	typeCount
)

// TypeCount is the number of defined encodings.
const TypeCount = int(typeCount)

// Size returns the storage size of one component in bytes. For the packed
// encodings it returns the size of the whole 32-bit word, since the four
// components are not individually addressable.
func (t Type) Size() int {
	switch t {
	case Float, Int, UnsignedInt, Int2101010, Uint2101010:
		return 4
	case Short, UnsignedShort, Half:
		return 2
	case Byte, UnsignedByte:
		return 1
	default:
		panic(fmt.Sprintf("scalar: invalid type %d", int(t)))
	}
}

// Packed reports whether the encoding is one of the 10-10-10-2 packed
// word formats.
func (t Type) Packed() bool {
	return t == Int2101010 || t == Uint2101010
}

// Signed reports whether the encoding stores signed quantities.
func (t Type) Signed() bool {
	switch t {
	case Float, Byte, Short, Int, Half, Int2101010:
		return true
	default:
		return false
	}
}

// FloatingPoint reports whether interpreted values are non-integral.
func (t Type) FloatingPoint() bool {
	return t == Float || t == Half
}

// String returns the lowercase encoding name used in generated test-case
// names.
func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case UnsignedByte:
		return "unsigned_byte"
	case UnsignedShort:
		return "unsigned_short"
	case UnsignedInt:
		return "unsigned_int"
	case Half:
		return "half"
	case Int2101010:
		return "int2101010"
	case Uint2101010:
		return "uint2101010"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}
