// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawconf

import (
	"fmt"
	"strings"

	"github.com/gogpu/drawconf/scalar"
	"github.com/gogpu/drawconf/shadergen"
)

// Primitive is the topology a draw call assembles.
type Primitive uint8

const (
	Points Primitive = iota
	Lines
	LineStrip
	LineLoop
	Triangles
	TriangleStrip
	TriangleFan
)

// String returns the lowercase topology name used in test-case names.
func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case LineStrip:
		return "line_strip"
	case LineLoop:
		return "line_loop"
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle_strip"
	case TriangleFan:
		return "triangle_fan"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

// PrimitiveClass is the coarse grouping that selects the comparison
// strategy.
type PrimitiveClass uint8

const (
	ClassPoint PrimitiveClass = iota
	ClassLine
	ClassTriangle
)

// Class returns the primitive's comparison class.
func (p Primitive) Class() PrimitiveClass {
	switch p {
	case Points:
		return ClassPoint
	case Lines, LineStrip, LineLoop:
		return ClassLine
	case Triangles, TriangleStrip, TriangleFan:
		return ClassTriangle
	default:
		panic(fmt.Sprintf("drawconf: invalid primitive %d", int(p)))
	}
}

// ElementCount returns the number of vertices needed to assemble
// primitiveCount primitives of the topology.
func ElementCount(p Primitive, primitiveCount int) int {
	switch p {
	case Points:
		return primitiveCount
	case Lines:
		return primitiveCount * 2
	case LineStrip:
		return primitiveCount + 1
	case LineLoop:
		if primitiveCount == 1 {
			return 2
		}
		return primitiveCount
	case Triangles:
		return primitiveCount * 3
	case TriangleStrip, TriangleFan:
		return primitiveCount + 2
	default:
		panic(fmt.Sprintf("drawconf: invalid primitive %d", int(p)))
	}
}

// DrawMethod is the invocation shape of a draw call.
type DrawMethod uint8

const (
	DrawArrays DrawMethod = iota
	DrawArraysInstanced
	DrawElements
	DrawElementsRanged
	DrawElementsInstanced
)

// String returns the lowercase method name used in test-case names.
func (m DrawMethod) String() string {
	switch m {
	case DrawArrays:
		return "draw_arrays"
	case DrawArraysInstanced:
		return "draw_arrays_instanced"
	case DrawElements:
		return "draw_elements"
	case DrawElementsRanged:
		return "draw_elements_ranged"
	case DrawElementsInstanced:
		return "draw_elements_instanced"
	default:
		return fmt.Sprintf("DrawMethod(%d)", int(m))
	}
}

// methodInfo describes which specification fields a draw method uses.
// Fields outside the active method's relevance set may be uninitialized
// and must never influence hashing, equality or data generation.
type methodInfo struct {
	indexed   bool
	instanced bool
	ranged    bool
	first     bool
}

func (m DrawMethod) info() methodInfo {
	switch m {
	case DrawArrays:
		return methodInfo{first: true}
	case DrawArraysInstanced:
		return methodInfo{first: true, instanced: true}
	case DrawElements:
		return methodInfo{indexed: true}
	case DrawElementsRanged:
		return methodInfo{indexed: true, ranged: true}
	case DrawElementsInstanced:
		return methodInfo{indexed: true, instanced: true}
	default:
		panic(fmt.Sprintf("drawconf: invalid draw method %d", int(m)))
	}
}

// OutputType is the logical shader-facing type an attribute's encoded
// data is converted to.
type OutputType uint8

const (
	OutFloat OutputType = iota
	OutVec2
	OutVec3
	OutVec4
	OutInt
	OutIVec2
	OutIVec3
	OutIVec4
	OutUint
	OutUVec2
	OutUVec3
	OutUVec4
)

// Components returns the vector width of the output type.
func (o OutputType) Components() int {
	switch o {
	case OutFloat, OutInt, OutUint:
		return 1
	case OutVec2, OutIVec2, OutUVec2:
		return 2
	case OutVec3, OutIVec3, OutUVec3:
		return 3
	case OutVec4, OutIVec4, OutUVec4:
		return 4
	default:
		panic(fmt.Sprintf("drawconf: invalid output type %d", int(o)))
	}
}

// Class returns the scalar type family of the output type.
func (o OutputType) Class() shadergen.Class {
	switch {
	case o <= OutVec4:
		return shadergen.ClassFloat
	case o <= OutIVec4:
		return shadergen.ClassInt
	case o <= OutUVec4:
		return shadergen.ClassUint
	default:
		panic(fmt.Sprintf("drawconf: invalid output type %d", int(o)))
	}
}

// String returns the lowercase output type name used in test-case names.
func (o OutputType) String() string {
	names := [...]string{
		"float", "vec2", "vec3", "vec4",
		"int", "ivec2", "ivec3", "ivec4",
		"uint", "uvec2", "uvec3", "uvec4",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("OutputType(%d)", int(o))
}

// Storage says where attribute or index data lives.
type Storage uint8

const (
	// StorageBuffer stores data in a backend buffer object.
	StorageBuffer Storage = iota

	// StorageUser keeps data in client memory.
	StorageUser
)

// String returns the lowercase storage name.
func (s Storage) String() string {
	switch s {
	case StorageBuffer:
		return "buffer"
	case StorageUser:
		return "user_ptr"
	default:
		return fmt.Sprintf("Storage(%d)", int(s))
	}
}

// Usage is the buffer usage hint handed to the backend on upload.
type Usage uint8

const (
	UsageStaticDraw Usage = iota
	UsageDynamicDraw
	UsageStreamDraw
)

// String returns the lowercase usage name.
func (u Usage) String() string {
	switch u {
	case UsageStaticDraw:
		return "static_draw"
	case UsageDynamicDraw:
		return "dynamic_draw"
	case UsageStreamDraw:
		return "stream_draw"
	default:
		return fmt.Sprintf("Usage(%d)", int(u))
	}
}

// AttribSpec describes one vertex attribute of a draw specification.
type AttribSpec struct {
	// InputType is the encoding the generated data is stored in.
	InputType scalar.Type

	// OutputType is the shader-facing type the data converts to.
	OutputType OutputType

	// Storage says whether the data lives in a buffer object or client
	// memory.
	Storage Storage

	// Usage is the buffer usage hint.
	Usage Usage

	// ComponentCount is the number of stored components, 1 through 4.
	ComponentCount int

	// Offset is the byte offset of the first element.
	Offset int

	// Stride is the byte distance between elements; zero means tightly
	// packed.
	Stride int

	// Normalize maps integer encodings to [0,1] or [-1,1] on fetch.
	Normalize bool

	// InstanceDivisor makes the attribute advance per instance instead
	// of per vertex when non-zero.
	InstanceDivisor int

	// UseDefaultAttribute replaces the array with a single constant
	// value.
	UseDefaultAttribute bool

	// AdditionalPositionAttribute makes a non-first attribute contribute
	// to the generated vertex position instead of the color.
	AdditionalPositionAttribute bool
}

// Valid reports whether the attribute combination has defined behavior.
// Float-encoded inputs may only feed float outputs, integer encodings
// must not cross signedness when feeding integer outputs, the packed
// encodings require exactly four components feeding float outputs and
// cannot describe a default attribute, and normalization only applies
// to float outputs.
func (a AttribSpec) Valid() bool {
	if a.ComponentCount < 1 || a.ComponentCount > 4 {
		return false
	}

	class := a.OutputType.Class()

	if a.InputType.Packed() {
		// A default attribute has no stored encoding to unpack.
		return !a.UseDefaultAttribute &&
			a.ComponentCount == 4 && class == shadergen.ClassFloat
	}

	switch class {
	case shadergen.ClassInt:
		if a.InputType.FloatingPoint() || !a.InputType.Signed() {
			return false
		}
	case shadergen.ClassUint:
		if a.InputType.FloatingPoint() || a.InputType.Signed() {
			return false
		}
	}

	if a.Normalize && class != shadergen.ClassFloat {
		return false
	}
	return true
}

// CompatTest classifies a specification that deliberately exercises
// misaligned buffer layouts.
type CompatTest uint8

const (
	// CompatNone marks a regular specification.
	CompatNone CompatTest = iota

	// CompatUnalignedOffset marks a buffer or index offset that is not a
	// multiple of the element size.
	CompatUnalignedOffset

	// CompatUnalignedStride marks a stride that is not a multiple of the
	// element size.
	CompatUnalignedStride
)

// String returns the classification name.
func (c CompatTest) String() string {
	switch c {
	case CompatNone:
		return "none"
	case CompatUnalignedOffset:
		return "unaligned_offset"
	case CompatUnalignedStride:
		return "unaligned_stride"
	default:
		return fmt.Sprintf("CompatTest(%d)", int(c))
	}
}

// DrawSpec fully describes one draw operation under test. Fields outside
// the draw method's relevance set (see methodInfo) are ignored and may
// be left zero.
type DrawSpec struct {
	Primitive      Primitive
	PrimitiveCount int
	Method         DrawMethod

	// Index parameters, used by the indexed methods.
	IndexType    scalar.Type
	IndexOffset  int
	IndexStorage Storage
	IndexMin     int
	IndexMax     int

	// First vertex, used by the array methods.
	First int

	// InstanceCount, used by the instanced methods.
	InstanceCount int

	Attribs []AttribSpec
}

// indexRangeMax returns the largest index value an index encoding can
// store.
func indexRangeMax(ty scalar.Type) int64 {
	switch ty {
	case scalar.UnsignedByte:
		return 0xff
	case scalar.UnsignedShort:
		return 0xffff
	case scalar.UnsignedInt:
		return 0xffffffff
	default:
		return -1
	}
}

// Valid reports whether the specification may be executed. Invalid
// specifications are silently dropped from the queue; the check is a
// safety net behind the generator's own filtering.
func (s *DrawSpec) Valid() bool {
	if s.Primitive > TriangleFan {
		return false
	}
	if s.PrimitiveCount <= 0 || len(s.Attribs) == 0 {
		return false
	}
	for _, a := range s.Attribs {
		if !a.Valid() {
			return false
		}
	}

	info := s.Method.info()
	if info.indexed && indexRangeMax(s.IndexType) < 0 {
		return false
	}
	if info.ranged {
		max := indexRangeMax(s.IndexType)
		if s.IndexMin < 0 || s.IndexMax < 0 || s.IndexMin > s.IndexMax {
			return false
		}
		if int64(s.IndexMin) > max || int64(s.IndexMax) > max {
			return false
		}
		// Generated indices never repeat, so the range must hold at
		// least one distinct value per vertex element.
		if s.IndexMax-s.IndexMin+1 < ElementCount(s.Primitive, s.PrimitiveCount) {
			return false
		}
	}
	if info.first && s.First < 0 {
		return false
	}
	return true
}

// Hash combines only the fields meaningful to the specification's draw
// method into a stable seed for reproducible data generation. Fields
// outside the relevance set must not contribute: they may be
// uninitialized, and two specifications differing only in irrelevant
// fields describe the same draw.
func (s *DrawSpec) Hash() uint32 {
	const prime = 31

	h := uint32(1)
	mix := func(v uint32) {
		h = h*prime + v
	}

	info := s.Method.info()
	mix(uint32(s.Primitive))
	mix(uint32(s.Method))
	mix(uint32(s.PrimitiveCount))
	if info.indexed {
		mix(uint32(s.IndexType))
		mix(uint32(s.IndexOffset))
		mix(uint32(s.IndexStorage))
	}
	if info.ranged {
		mix(uint32(s.IndexMin))
		mix(uint32(s.IndexMax))
	}
	if info.first {
		mix(uint32(s.First))
	}
	if info.instanced {
		mix(uint32(s.InstanceCount))
	}
	for _, a := range s.Attribs {
		mix(uint32(a.InputType))
		mix(uint32(a.OutputType))
		mix(uint32(a.Storage))
		mix(uint32(a.Usage))
		mix(uint32(a.ComponentCount))
		mix(uint32(a.Offset))
		mix(uint32(a.Stride))
		mix(boolBit(a.Normalize))
		mix(uint32(a.InstanceDivisor))
		mix(boolBit(a.UseDefaultAttribute))
		mix(boolBit(a.AdditionalPositionAttribute))
	}
	return h
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// positional reports whether attribute i drives the generated vertex
// position. Only the first attribute and explicitly flagged attributes
// do; all others drive the color.
func (s *DrawSpec) positional(i int) bool {
	return i == 0 || s.Attribs[i].AdditionalPositionAttribute
}

// CompatTest classifies whether the specification intentionally
// exercises misaligned offsets or strides. Offset misalignment takes
// precedence when both are present. Backends may reject such draws with
// an implementation error; the runner treats those errors as non-fatal
// only for specifications so classified.
func (s *DrawSpec) CompatTest() CompatTest {
	unalignedOffset := false
	unalignedStride := false

	for _, a := range s.Attribs {
		if a.UseDefaultAttribute || a.Storage != StorageBuffer {
			continue
		}
		size := a.InputType.Size()
		if a.Offset%size != 0 {
			unalignedOffset = true
		}
		if a.Stride%size != 0 {
			unalignedStride = true
		}
	}
	if s.Method.info().indexed && s.IndexStorage == StorageBuffer {
		if s.IndexOffset%s.IndexType.Size() != 0 {
			unalignedOffset = true
		}
	}

	switch {
	case unalignedOffset:
		return CompatUnalignedOffset
	case unalignedStride:
		return CompatUnalignedStride
	default:
		return CompatNone
	}
}

// ShaderCompatible reports whether two specifications can share one
// compiled program: equal attribute counts and, per attribute, equal
// position roles and output type classes. Component counts may differ;
// every input is declared at its own width but folded the same way.
func ShaderCompatible(a, b *DrawSpec) bool {
	if len(a.Attribs) != len(b.Attribs) {
		return false
	}
	for i := range a.Attribs {
		if a.positional(i) != b.positional(i) {
			return false
		}
		if a.Attribs[i].OutputType.Class() != b.Attribs[i].OutputType.Class() {
			return false
		}
	}
	return true
}

// Name returns a deterministic compact identifier for the specification,
// suitable for test-case names.
func (s *DrawSpec) Name() string {
	var b strings.Builder

	info := s.Method.info()
	fmt.Fprintf(&b, "%v_%v_%d", s.Method, s.Primitive, s.PrimitiveCount)
	if info.indexed {
		fmt.Fprintf(&b, "_index_%v_%v_offset%d", s.IndexType, s.IndexStorage, s.IndexOffset)
	}
	if info.ranged {
		fmt.Fprintf(&b, "_range_%d_%d", s.IndexMin, s.IndexMax)
	}
	if info.first {
		fmt.Fprintf(&b, "_first%d", s.First)
	}
	if info.instanced {
		fmt.Fprintf(&b, "_instances%d", s.InstanceCount)
	}
	for i, a := range s.Attribs {
		fmt.Fprintf(&b, "_attrib%d", i)
		if a.UseDefaultAttribute {
			fmt.Fprintf(&b, "_default_%v_%v", a.InputType, a.OutputType)
			continue
		}
		fmt.Fprintf(&b, "_%v%d_%v_offset%d_stride%d", a.InputType, a.ComponentCount, a.OutputType, a.Offset, a.Stride)
		if a.Normalize {
			b.WriteString("_normalized")
		}
		if a.InstanceDivisor > 0 {
			fmt.Fprintf(&b, "_divisor%d", a.InstanceDivisor)
		}
	}
	return b.String()
}

// Desc returns a human-readable multi-line description of the
// specification.
func (s *DrawSpec) Desc() string {
	var b strings.Builder

	info := s.Method.info()
	fmt.Fprintf(&b, "%v of %d %v\n", s.Method, s.PrimitiveCount, s.Primitive)
	if info.indexed {
		fmt.Fprintf(&b, "indices: %v in %v at offset %d\n", s.IndexType, s.IndexStorage, s.IndexOffset)
	}
	if info.ranged {
		fmt.Fprintf(&b, "index range: [%d, %d]\n", s.IndexMin, s.IndexMax)
	}
	if info.first {
		fmt.Fprintf(&b, "first vertex: %d\n", s.First)
	}
	if info.instanced {
		fmt.Fprintf(&b, "instances: %d\n", s.InstanceCount)
	}
	for i, a := range s.Attribs {
		role := "color"
		if s.positional(i) {
			role = "position"
		}
		if a.UseDefaultAttribute {
			fmt.Fprintf(&b, "attribute %d (%s): default %v as %v\n", i, role, a.InputType, a.OutputType)
			continue
		}
		fmt.Fprintf(&b, "attribute %d (%s): %d x %v as %v, %v/%v, offset %d, stride %d, normalize %v, divisor %d\n",
			i, role, a.ComponentCount, a.InputType, a.OutputType,
			a.Storage, a.Usage, a.Offset, a.Stride, a.Normalize, a.InstanceDivisor)
	}
	return b.String()
}
