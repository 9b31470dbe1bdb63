package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/model"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// wgpuVertexBuffer holds the vertex data and, since WebGPU has no fan topology, an index
// buffer expanding the fan into a triangle list.
type wgpuVertexBuffer struct {
	vertex      *wgpu.Buffer
	index       *wgpu.Buffer
	vertexCount int32
	layouts     map[uint32]common.VertexLayout
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	renderPassDescriptor *wgpu.RenderPassDescriptor

	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	clearColor           mgl32.Vec4

	nextHandle uint32
	stages     map[common.StageHandle]*wgpu.ShaderModule
	pipelines  map[common.PipelineHandle]*wgpu.RenderPipeline
	buffers    map[common.BufferHandle]*wgpuVertexBuffer

	// Frame state between BeginFrame and Present
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameBuffer  *wgpuVertexBuffer

	// pendingErrors holds device errors raised since the last Error call, oldest first.
	pendingErrors []error
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(forceFallbackAdapter bool, mode PresentMode) *wgpuRendererBackendImpl {
	b := &wgpuRendererBackendImpl{
		mu:                   &sync.Mutex{},
		forceFallbackAdapter: forceFallbackAdapter,
		clearColor:           DefaultClearColor,
		stages:               make(map[common.StageHandle]*wgpu.ShaderModule),
		pipelines:            make(map[common.PipelineHandle]*wgpu.RenderPipeline),
		buffers:              make(map[common.BufferHandle]*wgpuVertexBuffer),
	}
	b.setPresentMode(mode)
	return b
}

func (b *wgpuRendererBackendImpl) setPresentMode(mode PresentMode) {
	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) Init(w window.Window) error {
	desc := w.SurfaceDescriptor()
	if desc == nil {
		return window.NewInitError(window.LoaderFailed, errors.New("window has no surface descriptor"))
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(desc)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return window.NewInitError(window.LoaderFailed, fmt.Errorf("request adapter: %w", err))
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return window.NewInitError(window.LoaderFailed, fmt.Errorf("request device: %w", err))
	}
	b.device = d
	b.queue = d.GetQueue()

	common.Logger().Info("webgpu device ready", "fallback", b.forceFallbackAdapter)

	b.ConfigureSurface(w.FramebufferSize())
	return nil
}

func (b *wgpuRendererBackendImpl) ShaderLanguage() shader.Language {
	return shader.LanguageWGSL
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	// View is set per frame to the swapchain view.
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: toWGPUColor(b.clearColor),
			},
		},
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(c mgl32.Vec4) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = c
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = toWGPUColor(c)
	}
}

func (b *wgpuRendererBackendImpl) CompileStage(s shader.Shader) (common.StageHandle, error) {
	if s.Language() != shader.LanguageWGSL {
		return 0, &ShaderError{Kind: CompileFailed, Key: s.Key(), Stage: s.ShaderType(),
			Log: fmt.Sprintf("webgpu backend cannot compile %s", s.Language())}
	}
	// wgpu-native reports WGSL errors through the uncaptured error callback, which would
	// lose the log; validate offline first so failures carry a diagnostic.
	if err := s.Validate(); err != nil {
		return 0, &ShaderError{Kind: CompileFailed, Key: s.Key(), Stage: s.ShaderType(), Log: err.Error()}
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return 0, &ShaderError{Kind: CompileFailed, Key: s.Key(), Stage: s.ShaderType(), Log: err.Error()}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	h := common.StageHandle(b.allocHandle())
	b.stages[h] = module
	return h, nil
}

func (b *wgpuRendererBackendImpl) DeleteStage(h common.StageHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.stages[h]; ok {
		m.Release()
		delete(b.stages, h)
	}
}

func (b *wgpuRendererBackendImpl) LinkPipeline(p pipeline.Pipeline) (common.PipelineHandle, error) {
	vsHandle, fsHandle := p.Stages()

	b.mu.Lock()
	vs, vok := b.stages[vsHandle]
	fs, fok := b.stages[fsHandle]
	format := b.surfaceFormat
	b.mu.Unlock()
	if !vok || !fok {
		return 0, &ShaderError{Kind: LinkFailed, Key: p.PipelineKey(), Log: "missing compiled stage"}
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: p.PipelineKey(),
	})
	if err != nil {
		return 0, &ShaderError{Kind: LinkFailed, Key: p.PipelineKey(), Log: err.Error()}
	}
	defer pipelineLayout.Release()

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.BufferLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			// fans are expanded to lists at upload time
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return 0, &ShaderError{Kind: LinkFailed, Key: p.PipelineKey(), Log: err.Error()}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	h := common.PipelineHandle(b.allocHandle())
	b.pipelines[h] = created
	return h, nil
}

func (b *wgpuRendererBackendImpl) DeletePipeline(h common.PipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rp, ok := b.pipelines[h]; ok {
		rp.Release()
		delete(b.pipelines, h)
	}
}

func (b *wgpuRendererBackendImpl) CreateVertexBuffer(mesh model.Mesh) (common.BufferHandle, error) {
	vertexData := mesh.Bytes()
	if len(vertexData) == 0 {
		return 0, fmt.Errorf("%s: %w", mesh.Name(), ErrEmptyMesh)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vbuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            mesh.Name() + " Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, err
	}
	if err := b.queue.WriteBuffer(vbuf, 0, vertexData); err != nil {
		vbuf.Release()
		return 0, fmt.Errorf("%s: %w", mesh.Name(), err)
	}

	buf := &wgpuVertexBuffer{
		vertex:      vbuf,
		vertexCount: int32(mesh.VertexCount()),
		layouts:     make(map[uint32]common.VertexLayout),
	}

	if indices := mesh.FanIndices(mesh.VertexCount()); len(indices) > 0 {
		indexData := common.SliceToBytes(indices)
		ibuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            mesh.Name() + " Fan Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			vbuf.Release()
			return 0, err
		}
		if err := b.queue.WriteBuffer(ibuf, 0, indexData); err != nil {
			ibuf.Release()
			vbuf.Release()
			return 0, fmt.Errorf("%s: %w", mesh.Name(), err)
		}
		buf.index = ibuf
	}

	h := common.BufferHandle(b.allocHandle())
	b.buffers[h] = buf
	return h, nil
}

func (b *wgpuRendererBackendImpl) BindLayout(h common.BufferHandle, layout common.VertexLayout) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownHandle, h)
	}
	// The layout is baked into the render pipeline from the WGSL vertex input; record it so
	// the draw can be checked against it.
	buf.layouts[layout.Slot] = layout
	return nil
}

func (b *wgpuRendererBackendImpl) DeleteBuffer(h common.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteBufferLocked(h)
}

func (b *wgpuRendererBackendImpl) deleteBufferLocked(h common.BufferHandle) {
	buf, ok := b.buffers[h]
	if !ok {
		return
	}
	buf.vertex.Release()
	if buf.index != nil {
		buf.index.Release()
	}
	delete(b.buffers, h)
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	b.framePass = encoder.BeginRenderPass(b.renderPassDescriptor)
	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) UsePipeline(h common.PipelineHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rp, ok := b.pipelines[h]
	if !ok {
		return fmt.Errorf("%w: pipeline %d", ErrUnknownHandle, h)
	}
	if b.framePass == nil {
		return ErrNoFrame
	}
	b.framePass.SetPipeline(rp)
	return nil
}

func (b *wgpuRendererBackendImpl) BindBuffer(h common.BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownHandle, h)
	}
	if b.framePass == nil {
		return ErrNoFrame
	}
	b.framePass.SetVertexBuffer(0, buf.vertex, 0, wgpu.WholeSize)
	if buf.index != nil {
		b.framePass.SetIndexBuffer(buf.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
	b.frameBuffer = buf
	return nil
}

func (b *wgpuRendererBackendImpl) Draw(topology common.Topology, first, count int32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return ErrNoFrame
	}

	switch topology {
	case common.TopologyTriangleList:
		b.framePass.Draw(uint32(count), 1, uint32(first), 0)
	case common.TopologyTriangleFan:
		if b.frameBuffer == nil || b.frameBuffer.index == nil {
			return nil
		}
		// the fan apex is vertex `first`, shifted through the base vertex
		triangles := count - 2
		if limit := b.frameBuffer.vertexCount - first - 2; triangles > limit {
			triangles = limit
		}
		if triangles <= 0 {
			return nil
		}
		b.framePass.DrawIndexed(uint32(3*triangles), 1, 0, first, 0)
	default:
		return fmt.Errorf("renderer: unsupported topology %s", topology)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.recordErrorLocked(b.framePass.End())
	b.framePass.Release()
	b.framePass = nil
	b.frameBuffer = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.recordErrorLocked(err)
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

// Error pops the oldest device error recorded while ending or submitting a frame.
func (b *wgpuRendererBackendImpl) Error() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pendingErrors) == 0 {
		return nil
	}
	err := b.pendingErrors[0]
	b.pendingErrors = b.pendingErrors[1:]
	return err
}

// recordErrorLocked queues a validation error reported by a wgpu call. Callers hold b.mu.
func (b *wgpuRendererBackendImpl) recordErrorLocked(err error) {
	if err == nil {
		return
	}
	b.pendingErrors = append(b.pendingErrors, &GPUError{
		Code:    uint32(wgpu.ErrorTypeValidation),
		Name:    wgpu.ErrorTypeValidation.String(),
		Message: err.Error(),
	})
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for h := range b.buffers {
		b.deleteBufferLocked(h)
	}
	for h, rp := range b.pipelines {
		rp.Release()
		delete(b.pipelines, h)
	}
	for h, m := range b.stages {
		m.Release()
		delete(b.stages, h)
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) allocHandle() uint32 {
	b.nextHandle++
	return b.nextHandle
}

func toWGPUColor(c mgl32.Vec4) wgpu.Color {
	return wgpu.Color{R: float64(c.X()), G: float64(c.Y()), B: float64(c.Z()), A: float64(c.W())}
}
