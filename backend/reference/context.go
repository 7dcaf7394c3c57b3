// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reference

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawconf"
	"github.com/gogpu/drawconf/backend"
	"github.com/gogpu/drawconf/scalar"
	"github.com/gogpu/drawconf/shadergen"
)

// init registers the reference backend on package import.
func init() {
	backend.Register(backend.BackendReference, func() (drawconf.Context, error) {
		return New(), nil
	})
}

// Context is the deterministic CPU implementation of drawconf.Context.
// It renders with the exact arithmetic the generated programs describe,
// so its output is the ground truth hardware backends are compared
// against. A Context is not safe for concurrent use.
type Context struct {
	target *drawconf.Surface
	vpX    int
	vpY    int
	vpW    int
	vpH    int

	program *program
	attribs map[int]attribState
}

// New creates a reference context. The render target is allocated on
// the first Viewport call.
func New() *Context {
	return &Context{attribs: make(map[int]attribState)}
}

// Name identifies the backend.
func (c *Context) Name() string {
	return backend.BackendReference
}

// Viewport sets the render area, growing the render target to cover it.
func (c *Context) Viewport(x, y, width, height int) {
	c.vpX, c.vpY, c.vpW, c.vpH = x, y, width, height

	needW, needH := x+width, y+height
	if c.target == nil || c.target.Width() < needW || c.target.Height() < needH {
		c.target = drawconf.NewSurface(max(needW, 1), max(needH, 1))
	}
}

// Clear fills the render target.
func (c *Context) Clear(col gputypes.Color) {
	if c.target == nil {
		return
	}
	c.target.Clear(col)
}

// buffer keeps the uploaded bytes; the reference backend reads them
// directly at draw time.
type buffer struct {
	data []byte
}

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) Destroy() { b.data = nil }

// NewBuffer copies data into a new buffer. The usage hint does not
// change reference behavior.
func (c *Context) NewBuffer(data []byte, _ drawconf.Usage) (drawconf.Buffer, error) {
	b := &buffer{data: make([]byte, len(data))}
	copy(b.data, data)
	return b, nil
}

// program evaluates the structured input description directly instead of
// interpreting the WGSL text. The generated source and the structured
// form express the same function, so the two backends execute one logic.
type program struct {
	inputs   []shadergen.Input
	uniforms map[string]float32
}

func (p *program) Destroy() {}

// NewProgram accepts a generated program.
func (c *Context) NewProgram(prog shadergen.Program) (drawconf.Program, error) {
	inputs := make([]shadergen.Input, len(prog.Inputs))
	copy(inputs, prog.Inputs)
	return &program{
		inputs:   inputs,
		uniforms: make(map[string]float32),
	}, nil
}

// UseProgram makes a program current.
func (c *Context) UseProgram(p drawconf.Program) error {
	prog, ok := p.(*program)
	if !ok {
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "use program"}
	}
	c.program = prog
	return nil
}

// Uniform1f sets a float uniform of the current program.
func (c *Context) Uniform1f(name string, v float32) error {
	if c.program == nil {
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "uniform without program"}
	}
	c.program.uniforms[name] = v
	return nil
}

// attribState is one bound attribute location, either an array layout or
// a constant default value.
type attribState struct {
	ptr       drawconf.AttribPointer
	def       [4]float64
	isDefault bool
}

// SetAttrib binds an attribute layout. The reference backend reads
// unaligned layouts without complaint; alignment rejections are a
// hardware-backend concern.
func (c *Context) SetAttrib(location int, ptr drawconf.AttribPointer) error {
	if ptr.Components < 1 || ptr.Components > 4 {
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "set attrib"}
	}
	c.attribs[location] = attribState{ptr: ptr}
	return nil
}

// SetDefaultAttrib binds a constant value to a location.
func (c *Context) SetDefaultAttrib(location int, _ shadergen.Class, value [4]float64) error {
	c.attribs[location] = attribState{def: value, isDefault: true}
	return nil
}

// DisableAttrib unbinds a location.
func (c *Context) DisableAttrib(location int) error {
	delete(c.attribs, location)
	return nil
}

// Draw executes one draw command against the current program and
// attribute bindings.
func (c *Context) Draw(cmd drawconf.DrawCommand) error {
	if c.program == nil || c.target == nil {
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw"}
	}
	if cmd.Count <= 0 {
		return nil
	}

	indexed, instanced, ranged := methodShape(cmd.Method)

	var indices []int
	if indexed {
		var err error
		indices, err = c.decodeIndices(cmd)
		if err != nil {
			return err
		}
		if ranged && cmd.IndexMin > cmd.IndexMax {
			return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw range"}
		}
	}

	instances := 1
	if instanced {
		instances = cmd.InstanceCount
	}

	for inst := 0; inst < instances; inst++ {
		verts := make([]vertex, cmd.Count)
		for i := 0; i < cmd.Count; i++ {
			elem := cmd.First + i
			if indexed {
				elem = indices[i]
			}
			v, err := c.shadeVertex(elem, inst)
			if err != nil {
				return err
			}
			verts[i] = v
		}
		c.rasterize(cmd.Primitive, verts)
	}
	return nil
}

// methodShape mirrors the relevance rules of the draw methods.
func methodShape(m drawconf.DrawMethod) (indexed, instanced, ranged bool) {
	switch m {
	case drawconf.DrawArrays:
		return false, false, false
	case drawconf.DrawArraysInstanced:
		return false, true, false
	case drawconf.DrawElements:
		return true, false, false
	case drawconf.DrawElementsRanged:
		return true, false, true
	case drawconf.DrawElementsInstanced:
		return true, true, false
	default:
		return false, false, false
	}
}

// decodeIndices reads the command's index data into host integers.
func (c *Context) decodeIndices(cmd drawconf.DrawCommand) ([]int, error) {
	data := sourceBytes(cmd.Indices)
	if data == nil {
		return nil, &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw without index data"}
	}

	size := cmd.IndexType.Size()
	need := cmd.Indices.Offset + cmd.Count*size
	if cmd.Indices.Offset < 0 || need > len(data) {
		return nil, &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "index data out of bounds"}
	}

	out := make([]int, cmd.Count)
	for i := range out {
		at := cmd.Indices.Offset + i*size
		switch cmd.IndexType {
		case scalar.UnsignedByte:
			out[i] = int(data[at])
		case scalar.UnsignedShort:
			out[i] = int(uint16(data[at]) | uint16(data[at+1])<<8)
		case scalar.UnsignedInt:
			out[i] = int(uint32(data[at]) | uint32(data[at+1])<<8 |
				uint32(data[at+2])<<16 | uint32(data[at+3])<<24)
		default:
			return nil, &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "bad index type"}
		}
	}
	return out, nil
}

// sourceBytes resolves a data source to its backing bytes.
func sourceBytes(src drawconf.DataSource) []byte {
	if src.Buffer != nil {
		if b, ok := src.Buffer.(*buffer); ok {
			return b.data
		}
		return nil
	}
	return src.Data
}

// ReadPixels copies the render target into dst.
func (c *Context) ReadPixels(dst *drawconf.Surface) error {
	if c.target == nil {
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "read pixels"}
	}
	w := min(dst.Width(), c.target.Width())
	h := min(dst.Height(), c.target.Height())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := c.target.Pixel(x, y)
			dst.SetPixel(x, y, r, g, b)
		}
	}
	return nil
}
