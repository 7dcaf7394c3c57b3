// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawconf

import (
	"fmt"

	"github.com/gogpu/drawconf/scalar"
	"github.com/gogpu/drawconf/shadergen"
	"github.com/gogpu/gputypes"
)

// AttribArray is the runtime-bound counterpart of an AttribSpec against
// one backend: the uploaded data (or the default value when the
// attribute is not an array) plus every layout parameter needed to issue
// the attribute-pointer call. One AttribArray maps onto exactly one
// Context; the runner keeps two parallel arrays per attribute, one per
// backend under comparison.
type AttribArray struct {
	ctx  Context
	spec AttribSpec

	buffer       Buffer // non-nil when the spec stores data in a buffer
	clientData   []byte // client-memory copy otherwise
	defaultValue [4]scalar.Value
}

// newAttribArray creates an unbound array for the given attribute.
func newAttribArray(ctx Context, spec AttribSpec) *AttribArray {
	return &AttribArray{ctx: ctx, spec: spec}
}

// setData uploads freshly generated bytes, replacing any previous
// upload. Data is regenerated for every draw step, so the previous
// buffer object is released first.
func (a *AttribArray) setData(data []byte) error {
	if a.spec.UseDefaultAttribute {
		panic("drawconf: setData on a default attribute")
	}
	a.release()

	if a.spec.Storage == StorageBuffer {
		buf, err := a.ctx.NewBuffer(data, a.spec.Usage)
		if err != nil {
			return fmt.Errorf("attribute upload on %s: %w", a.ctx.Name(), err)
		}
		a.buffer = buf
		return nil
	}
	a.clientData = data
	return nil
}

// setDefault installs the constant value of a default attribute.
func (a *AttribArray) setDefault(vals [4]scalar.Value) {
	if !a.spec.UseDefaultAttribute {
		panic("drawconf: setDefault on an array attribute")
	}
	a.defaultValue = vals
}

// bind issues the attribute setup against the context.
func (a *AttribArray) bind(location int) error {
	if a.spec.UseDefaultAttribute {
		var value [4]float64
		for i, v := range a.defaultValue {
			value[i] = v.Float()
		}
		return a.ctx.SetDefaultAttrib(location, a.spec.OutputType.Class(), value)
	}

	return a.ctx.SetAttrib(location, AttribPointer{
		Source: DataSource{
			Buffer: a.buffer,
			Data:   a.clientData,
			Offset: a.spec.Offset,
		},
		Type:       a.spec.InputType,
		Components: a.spec.ComponentCount,
		Stride:     a.spec.Stride,
		Normalize:  a.spec.Normalize,
		Integer:    a.spec.OutputType.Class() != shadergen.ClassFloat,
		Divisor:    a.spec.InstanceDivisor,
	})
}

// release frees the backend buffer, if any.
func (a *AttribArray) release() {
	if a.buffer != nil {
		a.buffer.Destroy()
		a.buffer = nil
	}
	a.clientData = nil
}

// stepData carries one draw step's deterministically generated bytes.
// The runner computes it once and feeds the identical copy to both
// packs.
type stepData struct {
	// attribData holds generated array bytes per attribute; nil entries
	// mark default attributes.
	attribData [][]byte

	// defaults holds the constant values of default attributes.
	defaults [][4]scalar.Value

	// indexData is nil for non-indexed methods.
	indexData []byte
}

// AttribPack owns one backend's side of a test: its attribute bindings,
// its compiled program and its render surface. The pack issues the
// actual draw call and reads the result back.
type AttribPack struct {
	ctx     Context
	surface *Surface
	arrays  []*AttribArray

	program     Program
	indexBuffer Buffer
}

// NewAttribPack creates a pack rendering at the given viewport size.
func NewAttribPack(ctx Context, width, height int) *AttribPack {
	return &AttribPack{
		ctx:     ctx,
		surface: NewSurface(width, height),
	}
}

// Surface returns the pack's render surface. It is overwritten on every
// draw step and read by the comparison engine on every compare step.
func (p *AttribPack) Surface() *Surface {
	return p.surface
}

// Context returns the backend the pack is bound to.
func (p *AttribPack) Context() Context {
	return p.ctx
}

// run executes one draw step: rebuild attribute bindings from the
// generated data, optionally switch programs, issue the draw and read
// the surface back. A returned *DrawError is the backend's categorized
// rejection; any other error is fatal to the test.
func (p *AttribPack) run(spec *DrawSpec, prog *shadergen.Program, data *stepData, cmd DrawCommand, coordScale, colorScale float32) error {
	ctx := p.ctx

	if prog != nil {
		if p.program != nil {
			p.program.Destroy()
		}
		compiled, err := ctx.NewProgram(*prog)
		if err != nil {
			return fmt.Errorf("program build on %s: %w", ctx.Name(), err)
		}
		p.program = compiled
	}
	if p.program == nil {
		panic("drawconf: draw step without a program")
	}
	if err := ctx.UseProgram(p.program); err != nil {
		return fmt.Errorf("program use on %s: %w", ctx.Name(), err)
	}

	ctx.Viewport(0, 0, p.surface.Width(), p.surface.Height())
	ctx.Clear(gputypes.Color{A: 1})

	if len(spec.Attribs) != len(p.arrays) {
		p.releaseArrays()
		p.arrays = make([]*AttribArray, len(spec.Attribs))
		for i, as := range spec.Attribs {
			p.arrays[i] = newAttribArray(ctx, as)
		}
	} else {
		for i, as := range spec.Attribs {
			p.arrays[i].spec = as
		}
	}

	for i, arr := range p.arrays {
		if spec.Attribs[i].UseDefaultAttribute {
			arr.setDefault(data.defaults[i])
		} else if err := arr.setData(data.attribData[i]); err != nil {
			return err
		}
		if err := arr.bind(i); err != nil {
			return fmt.Errorf("attribute %d bind on %s: %w", i, ctx.Name(), err)
		}
	}

	if err := ctx.Uniform1f("coordScale", coordScale); err != nil {
		return fmt.Errorf("uniform upload on %s: %w", ctx.Name(), err)
	}
	if err := ctx.Uniform1f("colorScale", colorScale); err != nil {
		return fmt.Errorf("uniform upload on %s: %w", ctx.Name(), err)
	}

	if data.indexData != nil {
		src, err := p.indexSource(spec, data.indexData)
		if err != nil {
			return err
		}
		cmd.Indices = src
	}

	if err := ctx.Draw(cmd); err != nil {
		return err
	}

	if err := ctx.ReadPixels(p.surface); err != nil {
		return fmt.Errorf("readback on %s: %w", ctx.Name(), err)
	}
	return nil
}

// indexSource uploads or wraps the generated index bytes per the
// specification's index storage.
func (p *AttribPack) indexSource(spec *DrawSpec, data []byte) (DataSource, error) {
	if p.indexBuffer != nil {
		p.indexBuffer.Destroy()
		p.indexBuffer = nil
	}
	if spec.IndexStorage == StorageBuffer {
		buf, err := p.ctx.NewBuffer(data, UsageStaticDraw)
		if err != nil {
			return DataSource{}, fmt.Errorf("index upload on %s: %w", p.ctx.Name(), err)
		}
		p.indexBuffer = buf
		return DataSource{Buffer: buf, Offset: spec.IndexOffset}, nil
	}
	return DataSource{Data: data, Offset: spec.IndexOffset}, nil
}

func (p *AttribPack) releaseArrays() {
	for _, arr := range p.arrays {
		arr.release()
	}
	p.arrays = nil
}

// Destroy releases every backend resource the pack holds.
func (p *AttribPack) Destroy() {
	for i := range p.arrays {
		_ = p.ctx.DisableAttrib(i)
	}
	p.releaseArrays()
	if p.indexBuffer != nil {
		p.indexBuffer.Destroy()
		p.indexBuffer = nil
	}
	if p.program != nil {
		p.program.Destroy()
		p.program = nil
	}
}
