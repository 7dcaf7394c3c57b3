// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package datagen produces the vertex attribute and index buffers a draw
// iteration is executed with. All output is a pure function of the seed,
// so the two backends under comparison always consume byte-identical
// data and a failing case can be reproduced from its specification hash
// alone.
package datagen

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gogpu/drawconf/scalar"
)

// NewRand returns the deterministic generator used for all data
// synthesis. PCG keeps the streams stable across platforms and Go
// releases, which the cross-backend comparison depends on.
func NewRand(seed uint32) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Array generates elemCount strided elements of compCount components in
// the given encoding, starting at the byte offset. A stride of zero
// means tightly packed. The returned buffer is sized
// offset + stride*elemCount so trailing padding is part of the
// deterministic output; a stride smaller than the element size is legal
// (elements overlap) and the buffer extends so the last element still
// fits.
//
// Components are drawn uniformly from [Min, Max] of the encoding. When a
// component lands closer than the encoding's MinSpacing to the same
// component of the previous element it is redrawn once; the second draw
// is kept regardless, so the worst case stays bounded.
func Array(seed uint32, elemCount, compCount, offset, stride int, ty scalar.Type) []byte {
	if elemCount < 0 || offset < 0 || stride < 0 {
		panic(fmt.Sprintf("datagen: negative layout parameter (count %d, offset %d, stride %d)",
			elemCount, offset, stride))
	}
	if ty.Packed() {
		return packedArray(seed, elemCount, compCount, offset, stride)
	}
	if compCount < 1 || compCount > 4 {
		panic(fmt.Sprintf("datagen: invalid component count %d", compCount))
	}

	compSize := ty.Size()
	elemSize := compSize * compCount
	if stride == 0 {
		stride = elemSize
	}

	buf := make([]byte, arraySize(elemCount, offset, stride, elemSize))
	r := NewRand(seed)

	min, max := scalar.Min(ty), scalar.Max(ty)
	spacing := scalar.MinSpacing(ty).Float()

	var prev [4]scalar.Value
	for elem := 0; elem < elemCount; elem++ {
		for comp := 0; comp < compCount; comp++ {
			v := scalar.Random(r, min, max)
			if elem > 0 && math.Abs(v.Float()-prev[comp].Float()) < spacing {
				v = scalar.Random(r, min, max)
			}
			prev[comp] = v
			putComponent(buf[offset+elem*stride+comp*compSize:], ty, v)
		}
	}
	return buf
}

// packedArray generates 10-10-10-2 packed words. The three 10-bit fields
// and the 2-bit field are drawn directly rather than through the value
// model, then packed into one little-endian 32-bit word per element.
func packedArray(seed uint32, elemCount, compCount, offset, stride int) []byte {
	if compCount != 4 {
		panic(fmt.Sprintf("datagen: packed encodings require 4 components, got %d", compCount))
	}
	const elemSize = 4
	if stride == 0 {
		stride = elemSize
	}

	buf := make([]byte, arraySize(elemCount, offset, stride, elemSize))
	r := NewRand(seed)

	for elem := 0; elem < elemCount; elem++ {
		x := r.Uint32() & 0x3ff
		y := r.Uint32() & 0x3ff
		z := r.Uint32() & 0x3ff
		w := r.Uint32() & 0x3
		word := w<<30 | z<<20 | y<<10 | x
		binary.LittleEndian.PutUint32(buf[offset+elem*stride:], word)
	}
	return buf
}

// arraySize is the byte size of a strided array. The nominal size keeps
// the trailing padding of the last element, but when the stride is
// smaller than the element size the last element reaches past it.
func arraySize(elemCount, offset, stride, elemSize int) int {
	size := offset + stride*elemCount
	if elemCount > 0 {
		if end := offset + stride*(elemCount-1) + elemSize; end > size {
			size = end
		}
	}
	return size
}

// Indices generates count index values of the given encoding at the byte
// offset. The values are min plus a permutation of [0, count), produced
// by repeatedly removing a uniformly chosen remaining key, so no index
// is ever duplicated. The reference execution path relies on that for
// its pixel-exactness assumptions.
func Indices(seed uint32, count int, ty scalar.Type, offset, min, max int) []byte {
	size := indexSize(ty)
	if count < 0 || offset < 0 {
		panic(fmt.Sprintf("datagen: negative layout parameter (count %d, offset %d)", count, offset))
	}
	if min < 0 || max < min {
		panic(fmt.Sprintf("datagen: invalid index range [%d, %d]", min, max))
	}
	if count > 0 && min+count-1 > max {
		panic(fmt.Sprintf("datagen: %d indices starting at %d exceed range max %d", count, min, max))
	}

	keys := make([]int, count)
	for i := range keys {
		keys[i] = i
	}

	buf := make([]byte, offset+size*count)
	r := NewRand(seed)

	for i := 0; i < count; i++ {
		j := r.IntN(len(keys))
		index := min + keys[j]
		keys[j] = keys[len(keys)-1]
		keys = keys[:len(keys)-1]

		switch ty {
		case scalar.UnsignedByte:
			buf[offset+i] = byte(index)
		case scalar.UnsignedShort:
			binary.LittleEndian.PutUint16(buf[offset+i*2:], uint16(index))
		case scalar.UnsignedInt:
			binary.LittleEndian.PutUint32(buf[offset+i*4:], uint32(index))
		}
	}
	return buf
}

// indexSize validates the encoding is usable for index data and returns
// its byte size.
func indexSize(ty scalar.Type) int {
	switch ty {
	case scalar.UnsignedByte, scalar.UnsignedShort, scalar.UnsignedInt:
		return ty.Size()
	default:
		panic(fmt.Sprintf("datagen: %v is not an index encoding", ty))
	}
}

// AttribValue generates the single 4-component value of a default
// (non-array) attribute. Component generation is sequenced explicitly so
// the draw order never depends on argument evaluation order.
func AttribValue(seed uint32, ty scalar.Type) [4]scalar.Value {
	if ty.Packed() {
		panic(fmt.Sprintf("datagen: %v cannot be a default attribute encoding", ty))
	}
	r := NewRand(seed)
	min, max := scalar.Min(ty), scalar.Max(ty)

	var out [4]scalar.Value
	out[0] = scalar.Random(r, min, max)
	out[1] = scalar.Random(r, min, max)
	out[2] = scalar.Random(r, min, max)
	out[3] = scalar.Random(r, min, max)
	return out
}

// putComponent writes a component's encoded bits little-endian.
func putComponent(dst []byte, ty scalar.Type, v scalar.Value) {
	switch ty.Size() {
	case 1:
		dst[0] = byte(v.Bits())
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v.Bits()))
	case 4:
		binary.LittleEndian.PutUint32(dst, v.Bits())
	}
}
