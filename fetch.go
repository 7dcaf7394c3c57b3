// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawconf

import (
	"github.com/gogpu/drawconf/scalar"
)

// Fetch reads one element of the attribute from data and converts it per
// the layout's fetch path. Components the array does not store take the
// usual (0, 0, 0, 1) fill. Both backends fetch through this one
// implementation so that a divergence between them is always a raster
// divergence, never a decode divergence.
func (p AttribPointer) Fetch(data []byte, elem, inst int) ([4]float64, error) {
	index := elem
	if p.Divisor > 0 {
		index = inst / p.Divisor
	}

	elemSize := p.Components * p.Type.Size()
	if p.Type.Packed() {
		elemSize = p.Type.Size()
	}
	stride := p.Stride
	if stride == 0 {
		stride = elemSize
	}

	base := p.Source.Offset + stride*index
	if base < 0 || base+elemSize > len(data) {
		return [4]float64{}, &DrawError{Kind: DrawErrInvalidOperation, Op: "attribute data out of bounds"}
	}

	out := [4]float64{0, 0, 0, 1}
	if p.Type.Packed() {
		decodePacked(p.Type, readBits(data, base, 4), p.Normalize, &out)
		return out, nil
	}

	size := p.Type.Size()
	for i := 0; i < p.Components; i++ {
		bits := readBits(data, base+i*size, size)
		out[i] = convertComponent(p.Type, bits, p.Normalize, p.Integer)
	}
	return out, nil
}

// readBits reads size little-endian bytes as an unsigned word.
func readBits(data []byte, at, size int) uint32 {
	var bits uint32
	for i := 0; i < size; i++ {
		bits |= uint32(data[at+i]) << (8 * i)
	}
	return bits
}

// convertComponent interprets one component's raw bits per the fetch
// path.
func convertComponent(ty scalar.Type, bits uint32, normalize, integer bool) float64 {
	v := scalar.FromBits(ty, bits).Float()
	if integer || ty.FloatingPoint() || !normalize {
		return v
	}
	// Normalized fetch maps the encoding's full representable range to
	// [0,1] or [-1,1].
	maxVal := encodingMax(ty)
	if ty.Signed() {
		return max(v/maxVal, -1)
	}
	return v / maxVal
}

// encodingMax is the largest representable value of an integer encoding,
// the divisor of the normalized fetch path.
func encodingMax(ty scalar.Type) float64 {
	switch ty {
	case scalar.Byte:
		return 127
	case scalar.Short:
		return 32767
	case scalar.Int:
		return 2147483647
	case scalar.UnsignedByte:
		return 255
	case scalar.UnsignedShort:
		return 65535
	case scalar.UnsignedInt:
		return 4294967295
	default:
		return 1
	}
}

// decodePacked unpacks a 10-10-10-2 word into four components.
func decodePacked(ty scalar.Type, word uint32, normalize bool, out *[4]float64) {
	comps := [4]int64{
		int64(word & 0x3ff),
		int64((word >> 10) & 0x3ff),
		int64((word >> 20) & 0x3ff),
		int64(word >> 30),
	}

	signed := ty == scalar.Int2101010
	if signed {
		for i := 0; i < 3; i++ {
			if comps[i] >= 512 {
				comps[i] -= 1024
			}
		}
		if comps[3] >= 2 {
			comps[3] -= 4
		}
	}

	for i := range comps {
		v := float64(comps[i])
		if !normalize {
			out[i] = v
			continue
		}
		switch {
		case signed && i < 3:
			out[i] = max(v/511, -1)
		case signed:
			out[i] = max(v, -1)
		case i < 3:
			out[i] = v / 1023
		default:
			out[i] = v / 3
		}
	}
}
