//go:build !nogpu

package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawconf"
	"github.com/gogpu/drawconf/backend"
	"github.com/gogpu/drawconf/shadergen"
)

// init registers the wgpu backend on package import.
func init() {
	backend.Register(backend.BackendWgpu, func() (drawconf.Context, error) {
		return New()
	})
}

// waitTimeout bounds every GPU fence wait.
const waitTimeout = 5 * time.Second

// uniformSize is the byte size of the scales uniform buffer.
// Layout: coordScale (f32) + colorScale (f32) + padding = 16 bytes.
const uniformSize = 16

// Context drives real GPU hardware through gogpu/wgpu. Attribute data is
// converted to 32-bit vertex formats on the CPU before upload; the fetch
// conversion itself is shared with the reference backend, so the GPU
// exercises the draw pipeline (assembly, rasterization, interpolation)
// rather than exotic fetch formats the hardware may not support.
//
// A Context is not safe for concurrent use.
type Context struct {
	instance   hal.Instance
	device     hal.Device
	queue      hal.Queue
	ownsDevice bool

	vpX, vpY, vpW, vpH int
	clearColor         gputypes.Color
	pendingClear       bool

	target     hal.Texture
	targetView hal.TextureView
	targetW    uint32
	targetH    uint32

	program *program
	attribs map[int]attribState
}

// New creates a context on a standalone offscreen device.
func New() (*Context, error) {
	instance, device, queue, err := openStandaloneDevice()
	if err != nil {
		return nil, err
	}
	return &Context{
		instance:   instance,
		device:     device,
		queue:      queue,
		ownsDevice: true,
		attribs:    make(map[int]attribState),
	}, nil
}

// NewWithProvider creates a context sharing the host application's
// device.
func NewWithProvider(provider DeviceHandle) (*Context, error) {
	device, queue, err := deviceFromProvider(provider)
	if err != nil {
		return nil, err
	}
	return &Context{
		device:  device,
		queue:   queue,
		attribs: make(map[int]attribState),
	}, nil
}

// Close releases the render target and, when the context owns it, the
// device. The context must not be used afterwards.
func (c *Context) Close() {
	c.destroyTarget()
	if c.ownsDevice {
		if c.device != nil {
			c.device.Destroy()
			c.device = nil
		}
		if c.instance != nil {
			c.instance.Destroy()
			c.instance = nil
		}
	} else {
		c.device = nil
	}
	c.queue = nil
}

// Name identifies the backend.
func (c *Context) Name() string {
	return backend.BackendWgpu
}

// Viewport sets the render area, growing the render target to cover it.
func (c *Context) Viewport(x, y, width, height int) {
	c.vpX, c.vpY, c.vpW, c.vpH = x, y, width, height
}

// Clear records the clear color; the clear executes as the load
// operation of the next render pass.
func (c *Context) Clear(col gputypes.Color) {
	c.clearColor = col
	c.pendingClear = true
}

// ensureTarget creates or recreates the render target texture to cover
// the current viewport.
func (c *Context) ensureTarget() error {
	needW := uint32(max(c.vpX+c.vpW, 1))
	needH := uint32(max(c.vpY+c.vpH, 1))
	if c.target != nil && c.targetW >= needW && c.targetH >= needH {
		return nil
	}
	c.destroyTarget()

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "drawconf_target",
		Size:          hal.Extent3D{Width: needW, Height: needH, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create render target: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "drawconf_target_view",
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create target view: %w", err)
	}
	c.target = tex
	c.targetView = view
	c.targetW = needW
	c.targetH = needH
	c.pendingClear = true
	return nil
}

func (c *Context) destroyTarget() {
	if c.targetView != nil {
		c.device.DestroyTextureView(c.targetView)
		c.targetView = nil
	}
	if c.target != nil {
		c.device.DestroyTexture(c.target)
		c.target = nil
	}
}

// buffer keeps a CPU copy of the uploaded bytes. The converted GPU
// buffers are built per draw from this copy.
type buffer struct {
	data []byte
}

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) Destroy() { b.data = nil }

// NewBuffer copies data; the usage hint has no effect on the converted
// upload path.
func (c *Context) NewBuffer(data []byte, _ drawconf.Usage) (drawconf.Buffer, error) {
	b := &buffer{data: make([]byte, len(data))}
	copy(b.data, data)
	return b, nil
}

// program is a compiled vertex/fragment module with its layouts and a
// pipeline cache keyed by topology and attribute step modes.
type program struct {
	ctx    *Context
	inputs []shadergen.Input

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup

	pipelines map[pipelineKey]hal.RenderPipeline

	scales [2]float32 // coordScale, colorScale
}

// pipelineKey distinguishes pipeline variants of one program.
type pipelineKey struct {
	topology gputypes.PrimitiveTopology
	stepMask uint32 // bit per slot: set = per-instance stepping
}

// NewProgram compiles the generated WGSL through naga and prepares the
// shared pipeline layout. Compilation failure is a hard error.
func (c *Context) NewProgram(prog shadergen.Program) (drawconf.Program, error) {
	source := prog.Vertex + "\n" + prog.Fragment
	spirv, err := compileToSPIRV(source)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile program: %w", err)
	}

	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "drawconf_program",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module: %w", err)
	}

	bindLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "drawconf_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		c.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "drawconf_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		c.device.DestroyBindGroupLayout(bindLayout)
		c.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	uniformBuf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "drawconf_scales",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		c.device.DestroyPipelineLayout(pipeLayout)
		c.device.DestroyBindGroupLayout(bindLayout)
		c.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}

	bindGroup, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "drawconf_uniform_bind",
		Layout: bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
		},
	})
	if err != nil {
		c.device.DestroyBuffer(uniformBuf)
		c.device.DestroyPipelineLayout(pipeLayout)
		c.device.DestroyBindGroupLayout(bindLayout)
		c.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("wgpu: create bind group: %w", err)
	}

	inputs := make([]shadergen.Input, len(prog.Inputs))
	copy(inputs, prog.Inputs)

	return &program{
		ctx:        c,
		inputs:     inputs,
		module:     module,
		bindLayout: bindLayout,
		pipeLayout: pipeLayout,
		uniformBuf: uniformBuf,
		bindGroup:  bindGroup,
		pipelines:  make(map[pipelineKey]hal.RenderPipeline),
	}, nil
}

// Destroy releases the program's GPU resources.
func (p *program) Destroy() {
	device := p.ctx.device
	if device == nil {
		return
	}
	for _, pl := range p.pipelines {
		device.DestroyRenderPipeline(pl)
	}
	p.pipelines = nil
	if p.bindGroup != nil {
		device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.uniformBuf != nil {
		device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// compileToSPIRV compiles WGSL to SPIR-V words.
func compileToSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
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

// Uniform1f sets a scale uniform of the current program.
func (c *Context) Uniform1f(name string, v float32) error {
	if c.program == nil {
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "uniform without program"}
	}
	switch name {
	case "coordScale":
		c.program.scales[0] = v
	case "colorScale":
		c.program.scales[1] = v
	default:
		return &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "unknown uniform " + name}
	}
	return nil
}

// attribState is one bound attribute location.
type attribState struct {
	ptr       drawconf.AttribPointer
	def       [4]float64
	isDefault bool
}

// SetAttrib binds an attribute layout. Unaligned layouts are accepted;
// the CPU-side conversion reads them byte-wise.
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

// ReadPixels resolves the frame and copies the render target into dst.
// A pending clear with no draw since is flushed as a clear-only pass.
func (c *Context) ReadPixels(dst *drawconf.Surface) error {
	if err := c.ensureTarget(); err != nil {
		return err
	}
	return c.readback(dst)
}
