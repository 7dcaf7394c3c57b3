// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawconf

import (
	"fmt"

	"github.com/gogpu/drawconf/scalar"
	"github.com/gogpu/drawconf/shadergen"
	"github.com/gogpu/gputypes"
)

// DrawErrorKind categorizes an implementation error a backend raised
// while executing a draw command.
type DrawErrorKind uint8

const (
	// DrawErrInvalidOperation is a generic rejection of the draw state.
	DrawErrInvalidOperation DrawErrorKind = iota

	// DrawErrUnalignedOffset rejects a buffer or index offset that is
	// not a multiple of the element size.
	DrawErrUnalignedOffset

	// DrawErrUnalignedStride rejects a stride that is not a multiple of
	// the element size.
	DrawErrUnalignedStride

	// DrawErrUnsupported rejects a command shape the backend cannot
	// express at all.
	DrawErrUnsupported
)

// String returns the kind name.
func (k DrawErrorKind) String() string {
	switch k {
	case DrawErrInvalidOperation:
		return "invalid operation"
	case DrawErrUnalignedOffset:
		return "unaligned offset"
	case DrawErrUnalignedStride:
		return "unaligned stride"
	case DrawErrUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("DrawErrorKind(%d)", int(k))
	}
}

// DrawError is the categorized result of a failed draw command. It is a
// regular error value returned from Context.Draw, never a panic: the
// runner inspects the category to decide whether a compatibility test
// expected the rejection.
type DrawError struct {
	Kind DrawErrorKind
	Op   string
}

// Error implements the error interface.
func (e *DrawError) Error() string {
	return fmt.Sprintf("drawconf: %s: %v", e.Op, e.Kind)
}

// Buffer is a backend buffer object holding uploaded data.
type Buffer interface {
	// Len returns the byte size of the uploaded data.
	Len() int

	// Destroy releases the backend resources of the buffer.
	Destroy()
}

// Program is a compiled and linked shader program.
type Program interface {
	// Destroy releases the backend resources of the program.
	Destroy()
}

// DataSource locates attribute or index bytes: either a backend buffer
// object or client memory, never both.
type DataSource struct {
	// Buffer is the backend buffer, nil when the data lives in client
	// memory.
	Buffer Buffer

	// Data is the client-memory copy, used when Buffer is nil.
	Data []byte

	// Offset is the byte offset into whichever source is active.
	Offset int
}

// AttribPointer describes the layout of one vertex attribute, the
// equivalent of a vertex-attribute-pointer call.
type AttribPointer struct {
	Source DataSource

	// Type is the component encoding.
	Type scalar.Type

	// Components is the stored component count, 1 through 4.
	Components int

	// Stride is the byte distance between elements; zero means tightly
	// packed.
	Stride int

	// Normalize maps integer encodings into [0,1] or [-1,1] on fetch.
	// Only meaningful for the float fetch path.
	Normalize bool

	// Integer selects the integer fetch path (no conversion to float),
	// required when the shader input is an integer type.
	Integer bool

	// Divisor makes the attribute advance once per Divisor instances
	// instead of per vertex when non-zero.
	Divisor int
}

// DrawCommand is one draw invocation. Fields beyond Primitive and Count
// are read according to Method, mirroring the specification model's
// relevance rules.
type DrawCommand struct {
	Primitive Primitive
	Method    DrawMethod

	// First is the first vertex for the array methods.
	First int

	// Count is the vertex element count.
	Count int

	// InstanceCount is read by the instanced methods.
	InstanceCount int

	// IndexType and Indices are read by the indexed methods.
	IndexType scalar.Type
	Indices   DataSource

	// IndexMin and IndexMax are read by the ranged method.
	IndexMin int
	IndexMax int
}

// Context is the rendering-backend capability the engine drives. Two
// implementations exist, a hardware-backed adapter and a
// software-reference adapter, and both must expose identical semantics
// for every operation here; divergence between them is exactly what the
// engine is designed to detect.
//
// A Context is passed explicitly through every layer. There is no
// ambient or global context object, and a Context is never shared
// between goroutines.
type Context interface {
	// Name identifies the backend, e.g. "reference" or "wgpu".
	Name() string

	// Viewport sets the render area within the surface.
	Viewport(x, y, width, height int)

	// Clear fills the render target with a color.
	Clear(c gputypes.Color)

	// NewBuffer creates a buffer object and uploads data with the given
	// usage hint.
	NewBuffer(data []byte, usage Usage) (Buffer, error)

	// NewProgram compiles and links a generated program. Compilation
	// failure is a hard test error, never a tolerated outcome.
	NewProgram(prog shadergen.Program) (Program, error)

	// UseProgram makes a program current for subsequent draws.
	UseProgram(p Program) error

	// Uniform1f sets a float uniform of the current program.
	Uniform1f(name string, v float32) error

	// SetAttrib binds an attribute layout to a location.
	SetAttrib(location int, ptr AttribPointer) error

	// SetDefaultAttrib replaces the attribute array at a location with a
	// constant value of the given class.
	SetDefaultAttrib(location int, class shadergen.Class, value [4]float64) error

	// DisableAttrib unbinds whatever is set at a location.
	DisableAttrib(location int) error

	// Draw executes one draw command. Implementation errors are returned
	// as *DrawError values for the runner to categorize; any other error
	// is fatal.
	Draw(cmd DrawCommand) error

	// ReadPixels copies the render target into dst.
	ReadPixels(dst *Surface) error
}
