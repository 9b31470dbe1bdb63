package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/model"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	buffers       map[common.BufferHandle]struct{}

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	clearColor           mgl32.Vec4
	pendingPipelines     []pipeline.Pipeline
}

// Renderer defines the interface for the rendering system.
//
// It owns every GPU object it creates: pipelines are cached by key, vertex buffers by handle,
// and all of them are destroyed by Release. The backend behind it is selected at construction.
type Renderer interface {
	// BackendType returns the backend this renderer was created with.
	BackendType() RendererBackendType

	// ShaderLanguage returns the shading language the backend compiles.
	//
	// Returns:
	//   - shader.Language: LanguageGLSL for OpenGL, LanguageWGSL for WebGPU
	ShaderLanguage() shader.Language

	// Pipeline retrieves the cached Pipeline associated with the given key.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines compiles both stages of each pipeline, links them, releases the stage
	// objects and caches the linked pipeline by its key. Pipelines whose keys are already
	// registered are skipped. The first failure stops registration; the failed pipeline is
	// left in its terminal state and is not cached.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: a *ShaderError on compile or link failure, or a validation error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// UploadMesh creates a vertex buffer holding the mesh and binds the given layouts to it.
	//
	// Parameters:
	//   - mesh: the vertices to upload
	//   - layouts: the attribute layouts the vertex stage reads; common.PositionLayout when empty
	//
	// Returns:
	//   - common.BufferHandle: the new buffer
	//   - error: an error if allocation or layout binding fails
	UploadMesh(mesh model.Mesh, layouts ...common.VertexLayout) (common.BufferHandle, error)

	// ReleaseBuffer destroys a buffer created by UploadMesh.
	ReleaseBuffer(h common.BufferHandle)

	// ReleasePipeline destroys the linked program cached under key and forgets it.
	ReleasePipeline(key string)

	// Resize configures the underlying backend to handle a new surface size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetClearColor sets the color every frame is cleared to.
	SetClearColor(c mgl32.Vec4)

	// BeginFrame clears the drawable. Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the drawable could not be acquired
	BeginFrame() error

	// DrawCall installs the cached pipeline, binds the buffer and draws count vertices from first.
	// A linked pipeline is activated on its first draw.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - buffer: a buffer created by UploadMesh
	//   - topology: how the vertices are assembled into triangles
	//   - first: the index of the first vertex
	//   - count: the number of vertices to draw
	//
	// Returns:
	//   - error: ErrPipelineNotFound, ErrUnknownHandle or a pipeline state error
	DrawCall(pipelineKey string, buffer common.BufferHandle, topology common.Topology, first, count int32) error

	// EndFrame finishes recording the frame.
	EndFrame()

	// Present shows the finished frame.
	Present()

	// Error returns and clears the device error state.
	//
	// Returns:
	//   - error: a *GPUError, or nil
	Error() error

	// Release destroys every cached pipeline and buffer, then the backend itself.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend bound to the window.
// For OpenGL the window's context must be current on the calling thread.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - w: the window to render into
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the initialized renderer
//   - error: a *window.InitError of kind LoaderFailed, or a pipeline registration error
func NewRenderer(backendType RendererBackendType, w window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		buffers:       make(map[common.BufferHandle]struct{}),
		backendType:   backendType,
		presentMode:   PresentModeVSync,
		clearColor:    DefaultClearColor,
	}

	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeWGPU:
			r.backend = newWGPURendererBackend(r.forceFallbackAdapter, r.presentMode)
		case BackendTypeOpenGL:
			fallthrough
		default:
			r.backend = newOpenGLRendererBackend()
		}
	}

	if err := r.backend.Init(w); err != nil {
		return nil, err
	}
	r.backend.SetClearColor(r.clearColor)

	if len(r.pendingPipelines) > 0 {
		if err := r.RegisterPipelines(r.pendingPipelines...); err != nil {
			r.Release()
			return nil, err
		}
		r.pendingPipelines = nil
	}
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) ShaderLanguage() shader.Language {
	return r.backend.ShaderLanguage()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.buildPipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
	}
	return nil
}

// buildPipeline drives p through compile and link. Stage objects are released once the link
// attempt is over, whatever its outcome.
func (r *renderer) buildPipeline(p pipeline.Pipeline) error {
	log := common.Logger().With("pipeline", p.PipelineKey())

	if err := p.Validate(); err != nil {
		return err
	}
	vsShader := p.Shader(shader.ShaderTypeVertex)
	fsShader := p.Shader(shader.ShaderTypeFragment)
	if lang := r.backend.ShaderLanguage(); vsShader.Language() != lang {
		return fmt.Errorf("%s: %s backend needs %s shaders, got %s", p.PipelineKey(), r.backendType, lang, vsShader.Language())
	}

	vs, err := r.backend.CompileStage(vsShader)
	if err != nil {
		log.Error("vertex shader compilation failed", "error", err)
		_ = p.MarkCompileFailed(err)
		return err
	}
	fs, err := r.backend.CompileStage(fsShader)
	if err != nil {
		log.Error("fragment shader compilation failed", "error", err)
		r.backend.DeleteStage(vs)
		_ = p.MarkCompileFailed(err)
		return err
	}
	if err := p.MarkCompiled(vs, fs); err != nil {
		r.backend.DeleteStage(vs)
		r.backend.DeleteStage(fs)
		return err
	}

	handle, linkErr := r.backend.LinkPipeline(p)
	r.backend.DeleteStage(vs)
	r.backend.DeleteStage(fs)
	log.Debug("shader stages deleted")

	if linkErr != nil {
		log.Error("shader program linking failed", "error", linkErr)
		_ = p.MarkLinkFailed(linkErr)
		return linkErr
	}
	if err := p.MarkLinked(handle); err != nil {
		r.backend.DeletePipeline(handle)
		return err
	}
	log.Debug("pipeline linked", "handle", handle)
	return nil
}

func (r *renderer) UploadMesh(mesh model.Mesh, layouts ...common.VertexLayout) (common.BufferHandle, error) {
	if len(layouts) == 0 {
		layouts = []common.VertexLayout{common.PositionLayout}
	}

	h, err := r.backend.CreateVertexBuffer(mesh)
	if err != nil {
		return 0, err
	}
	for _, l := range layouts {
		if err := r.backend.BindLayout(h, l); err != nil {
			r.backend.DeleteBuffer(h)
			return 0, err
		}
	}

	r.mu.Lock()
	r.buffers[h] = struct{}{}
	r.mu.Unlock()

	common.Logger().Debug("mesh uploaded", "mesh", mesh.Name(), "vertices", mesh.VertexCount(), "buffer", h)
	return h, nil
}

func (r *renderer) ReleaseBuffer(h common.BufferHandle) {
	r.mu.Lock()
	_, ok := r.buffers[h]
	delete(r.buffers, h)
	r.mu.Unlock()
	if ok {
		r.backend.DeleteBuffer(h)
	}
}

func (r *renderer) ReleasePipeline(key string) {
	r.mu.Lock()
	p, ok := r.pipelineCache[key]
	delete(r.pipelineCache, key)
	r.mu.Unlock()
	if ok && p.Handle() != 0 {
		r.backend.DeletePipeline(p.Handle())
	}
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetClearColor(c mgl32.Vec4) {
	r.backend.SetClearColor(c)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, buffer common.BufferHandle, topology common.Topology, first, count int32) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrPipelineNotFound, pipelineKey)
	}
	if p.State() != pipeline.StateActive {
		if err := p.Activate(); err != nil {
			return err
		}
	}

	if err := r.backend.UsePipeline(p.Handle()); err != nil {
		return err
	}
	if err := r.backend.BindBuffer(buffer); err != nil {
		return err
	}
	return r.backend.Draw(topology, first, count)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Error() error {
	return r.backend.Error()
}

func (r *renderer) Release() {
	r.mu.Lock()
	pipelines := r.pipelineCache
	buffers := r.buffers
	r.pipelineCache = make(map[string]pipeline.Pipeline)
	r.buffers = make(map[common.BufferHandle]struct{})
	r.mu.Unlock()

	for _, p := range pipelines {
		if p.Handle() != 0 {
			r.backend.DeletePipeline(p.Handle())
		}
	}
	for h := range buffers {
		r.backend.DeleteBuffer(h)
	}
	r.backend.Release()
}
