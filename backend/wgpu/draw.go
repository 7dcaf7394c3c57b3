//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawconf"
	"github.com/gogpu/drawconf/scalar"
	"github.com/gogpu/drawconf/shadergen"
)

// streamStride is the byte stride of every converted vertex stream. Each
// element is four 32-bit lanes regardless of the declared component
// count; the pipeline's vertex format narrows what the shader reads.
const streamStride = 16

// vertexFormats maps (class, components) to the 32-bit vertex format the
// converted stream is uploaded as.
var vertexFormats = [3][4]gputypes.VertexFormat{
	shadergen.ClassFloat: {
		gputypes.VertexFormatFloat32,
		gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3,
		gputypes.VertexFormatFloat32x4,
	},
	shadergen.ClassInt: {
		gputypes.VertexFormatSint32,
		gputypes.VertexFormatSint32x2,
		gputypes.VertexFormatSint32x3,
		gputypes.VertexFormatSint32x4,
	},
	shadergen.ClassUint: {
		gputypes.VertexFormatUint32,
		gputypes.VertexFormatUint32x2,
		gputypes.VertexFormatUint32x3,
		gputypes.VertexFormatUint32x4,
	},
}

// gpuTopology maps a drawconf primitive to the topology the rewritten
// element list is assembled with. LineLoop and TriangleFan have no
// direct counterpart; rewriteElements turns them into LineStrip and
// TriangleList element sequences.
func gpuTopology(p drawconf.Primitive) gputypes.PrimitiveTopology {
	switch p {
	case drawconf.Points:
		return gputypes.PrimitiveTopologyPointList
	case drawconf.Lines:
		return gputypes.PrimitiveTopologyLineList
	case drawconf.LineStrip, drawconf.LineLoop:
		return gputypes.PrimitiveTopologyLineStrip
	case drawconf.Triangles, drawconf.TriangleFan:
		return gputypes.PrimitiveTopologyTriangleList
	case drawconf.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// rewriteElements rewrites the element list for topologies the GPU does
// not assemble natively.
func rewriteElements(p drawconf.Primitive, elems []int) []int {
	switch p {
	case drawconf.LineLoop:
		if len(elems) > 2 {
			out := make([]int, 0, len(elems)+1)
			out = append(out, elems...)
			return append(out, elems[0])
		}
		return elems
	case drawconf.TriangleFan:
		if len(elems) < 3 {
			return elems
		}
		out := make([]int, 0, (len(elems)-2)*3)
		for i := 0; i+2 < len(elems); i++ {
			out = append(out, elems[0], elems[i+1], elems[i+2])
		}
		return out
	default:
		return elems
	}
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

// decodeIndices reads the command's index data into host integers.
func decodeIndices(cmd drawconf.DrawCommand) ([]int, error) {
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
			out[i] = int(binary.LittleEndian.Uint16(data[at:]))
		case scalar.UnsignedInt:
			out[i] = int(binary.LittleEndian.Uint32(data[at:]))
		default:
			return nil, &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "bad index type"}
		}
	}
	return out, nil
}

// stream is one converted vertex stream, ready for upload into the
// pipeline slot matching its program input.
type stream struct {
	data        []byte
	perInstance bool
}

// buildStreams converts every program input into a 32-bit stream over
// the rewritten element list. Per-vertex inputs are re-fetched in draw
// order, which folds away index buffers, first-vertex offsets, strides,
// offsets and exotic encodings; per-instance inputs become one element
// per instance, which folds away non-unit divisors.
func (c *Context) buildStreams(elems []int, instances int) ([]stream, uint32, error) {
	streams := make([]stream, len(c.program.inputs))
	var stepMask uint32

	for i, in := range c.program.inputs {
		state, ok := c.attribs[in.Location]
		if !ok {
			return nil, 0, &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw with unbound attribute"}
		}

		perInstance := !state.isDefault && state.ptr.Divisor > 0
		count := len(elems)
		if perInstance {
			count = instances
			stepMask |= 1 << uint(i)
		}

		data := make([]byte, count*streamStride)
		for j := 0; j < count; j++ {
			var vals [4]float64
			if state.isDefault {
				vals = state.def
			} else {
				var err error
				src := sourceBytes(state.ptr.Source)
				if perInstance {
					vals, err = state.ptr.Fetch(src, 0, j)
				} else {
					vals, err = state.ptr.Fetch(src, elems[j], 0)
				}
				if err != nil {
					return nil, 0, err
				}
			}
			encodeElement(data[j*streamStride:], in.Class, vals)
		}
		streams[i] = stream{data: data, perInstance: perInstance}
	}
	return streams, stepMask, nil
}

// encodeElement writes one four-lane element in the stream encoding of
// the input class.
func encodeElement(dst []byte, class shadergen.Class, vals [4]float64) {
	for lane := 0; lane < 4; lane++ {
		var bits uint32
		switch class {
		case shadergen.ClassInt:
			bits = uint32(int32(vals[lane]))
		case shadergen.ClassUint:
			bits = uint32(vals[lane])
		default:
			bits = math.Float32bits(float32(vals[lane]))
		}
		binary.LittleEndian.PutUint32(dst[lane*4:], bits)
	}
}

// pipeline returns the cached pipeline variant for the given topology
// and step-mode mask, building it on first use.
func (p *program) pipeline(topology gputypes.PrimitiveTopology, stepMask uint32) (hal.RenderPipeline, error) {
	key := pipelineKey{topology: topology, stepMask: stepMask}
	if pl, ok := p.pipelines[key]; ok {
		return pl, nil
	}

	buffers := make([]gputypes.VertexBufferLayout, len(p.inputs))
	for i, in := range p.inputs {
		stepMode := gputypes.VertexStepModeVertex
		if stepMask&(1<<uint(i)) != 0 {
			stepMode = gputypes.VertexStepModeInstance
		}
		buffers[i] = gputypes.VertexBufferLayout{
			ArrayStride: streamStride,
			StepMode:    stepMode,
			Attributes: []gputypes.VertexAttribute{{
				Format:         vertexFormats[in.Class][in.Components-1],
				Offset:         0,
				ShaderLocation: uint32(in.Location),
			}},
		}
	}

	pl, err := p.ctx.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "drawconf_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline: %w", err)
	}
	p.pipelines[key] = pl
	return pl, nil
}

// Draw executes one draw command against the current program and
// attribute bindings.
func (c *Context) Draw(cmd drawconf.DrawCommand) error {
	if c.program == nil || c.vpW <= 0 || c.vpH <= 0 {
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw"}
	}
	if cmd.Count <= 0 {
		return nil
	}
	// The render pass maps clip space over the whole target, so the
	// viewport must start at the origin.
	if c.vpX != 0 || c.vpY != 0 {
		return &drawconf.DrawError{Kind: drawconf.DrawErrUnsupported, Op: "offset viewport"}
	}
	if err := c.ensureTarget(); err != nil {
		return err
	}

	indexed, instanced, ranged := methodShape(cmd.Method)

	elems := make([]int, cmd.Count)
	if indexed {
		indices, err := decodeIndices(cmd)
		if err != nil {
			return err
		}
		if ranged && cmd.IndexMin > cmd.IndexMax {
			return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw range"}
		}
		copy(elems, indices)
	} else {
		for i := range elems {
			elems[i] = cmd.First + i
		}
	}

	instances := 1
	if instanced {
		instances = cmd.InstanceCount
	}
	if instances <= 0 {
		return nil
	}

	elems = rewriteElements(cmd.Primitive, elems)
	streams, stepMask, err := c.buildStreams(elems, instances)
	if err != nil {
		return err
	}

	pl, err := c.program.pipeline(gpuTopology(cmd.Primitive), stepMask)
	if err != nil {
		return err
	}

	var scales [uniformSize]byte
	binary.LittleEndian.PutUint32(scales[0:], math.Float32bits(c.program.scales[0]))
	binary.LittleEndian.PutUint32(scales[4:], math.Float32bits(c.program.scales[1]))
	c.queue.WriteBuffer(c.program.uniformBuf, 0, scales[:])

	vertBufs := make([]hal.Buffer, len(streams))
	defer func() {
		for _, b := range vertBufs {
			if b != nil {
				c.device.DestroyBuffer(b)
			}
		}
	}()
	for i, s := range streams {
		buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "drawconf_stream",
			Size:  uint64(len(s.data)),
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create vertex buffer: %w", err)
		}
		vertBufs[i] = buf
		c.queue.WriteBuffer(buf, 0, s.data)
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "drawconf_draw",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("drawconf_draw"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	if c.pendingClear {
		loadOp = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "drawconf_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       c.targetView,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c.clearColor,
		}},
	})
	rp.SetPipeline(pl)
	rp.SetBindGroup(0, c.program.bindGroup, nil)
	for i, buf := range vertBufs {
		rp.SetVertexBuffer(uint32(i), buf, 0)
	}
	rp.Draw(uint32(len(elems)), uint32(instances), 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if err := c.submitAndWait(cmdBuf); err != nil {
		return err
	}
	c.pendingClear = false
	return nil
}

// submitAndWait submits one command buffer and blocks until the GPU
// signals completion.
func (c *Context) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)

	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	fenceOK, err := c.device.Wait(fence, 1, waitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// readback copies the render target into dst through a staging buffer.
// DX12 and WebGPU require the copy pitch aligned to 256 bytes; the
// padding is stripped on the CPU.
func (c *Context) readback(dst *drawconf.Surface) error {
	if c.pendingClear {
		if err := c.flushClear(); err != nil {
			return err
		}
	}

	w := uint32(min(dst.Width(), int(c.targetW)))
	h := uint32(min(dst.Height(), int(c.targetH)))

	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "drawconf_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(stagingBuf)

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "drawconf_readback",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("drawconf_readback"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	// CopyTextureToBuffer needs the texture in copy-source layout on
	// Vulkan; transition there and back so the next pass sees a render
	// attachment again.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.target,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(c.target, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: c.target, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: c.target,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if err := c.submitAndWait(cmdBuf); err != nil {
		return err
	}

	readbackBytes := make([]byte, stagingSize)
	if err := c.queue.ReadBuffer(stagingBuf, 0, readbackBytes); err != nil {
		return fmt.Errorf("wgpu: readback: %w", err)
	}

	for y := uint32(0); y < h; y++ {
		row := readbackBytes[y*alignedBytesPerRow:]
		for x := uint32(0); x < w; x++ {
			at := x * 4
			dst.SetPixel(int(x), int(y), row[at], row[at+1], row[at+2])
		}
	}
	return nil
}

// flushClear executes a clear-only pass for a Clear with no draw after
// it, so ReadPixels observes the clear like the reference backend does.
func (c *Context) flushClear() error {
	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "drawconf_clear",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("drawconf_clear"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "drawconf_clear_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       c.targetView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c.clearColor,
		}},
	})
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if err := c.submitAndWait(cmdBuf); err != nil {
		return err
	}
	c.pendingClear = false
	return nil
}
