package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/model"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeOpenGL selects the OpenGL 3.3 core backend.
	BackendTypeOpenGL RendererBackendType = iota

	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeOpenGL:
		return "opengl"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return "unknown"
	}
}

// ParseBackendType maps a backend name ("opengl", "gl", "wgpu", "webgpu") to its type.
// Matching is case-insensitive.
//
// Parameters:
//   - name: the backend name
//
// Returns:
//   - RendererBackendType: the matching backend type
//   - error: an error if the name is not a known backend
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "opengl", "gl":
		return BackendTypeOpenGL, nil
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	default:
		return BackendTypeOpenGL, fmt.Errorf("unknown renderer backend %q", name)
	}
}

// ClientAPI returns the window client API the backend needs.
//
// Returns:
//   - window.ClientAPI: ClientAPIOpenGL for OpenGL, ClientAPINone for WebGPU
func (t RendererBackendType) ClientAPI() window.ClientAPI {
	if t == BackendTypeWGPU {
		return window.ClientAPINone
	}
	return window.ClientAPIOpenGL
}

// PresentMode controls how rendered frames are presented to the display surface.
// It only applies to the WebGPU backend; OpenGL windows use the window swap interval.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// DefaultClearColor is the color every frame is cleared to.
var DefaultClearColor = mgl32.Vec4{0.2, 0.3, 0.3, 1.0}

// RendererBackend is the GPU API seam of the Renderer. Handles it returns are non-zero and
// only meaningful to the backend that issued them. All methods must be called from the
// thread that owns the window context.
type RendererBackend interface {
	// Init binds the backend to the window: it resolves entry points or requests the
	// adapter and device, then configures the drawable to the framebuffer size.
	//
	// Parameters:
	//   - w: the window to render into
	//
	// Returns:
	//   - error: a *window.InitError of kind LoaderFailed when the API cannot be brought up
	Init(w window.Window) error

	// ShaderLanguage returns the shading language this backend compiles.
	ShaderLanguage() shader.Language

	// ConfigureSurface sets the drawable size, i.e. the viewport.
	ConfigureSurface(width, height int)

	// SetClearColor sets the color BeginFrame clears to.
	SetClearColor(c mgl32.Vec4)

	// CompileStage compiles a single stage and queries the result explicitly.
	//
	// Parameters:
	//   - s: the shader to compile
	//
	// Returns:
	//   - common.StageHandle: the compiled stage
	//   - error: a *ShaderError of kind CompileFailed carrying the compiler log
	CompileStage(s shader.Shader) (common.StageHandle, error)

	// DeleteStage releases a compiled stage object.
	DeleteStage(h common.StageHandle)

	// LinkPipeline links the compiled stages held by p into an executable program.
	// The stage objects stay alive; the caller releases them after this call.
	//
	// Parameters:
	//   - p: a pipeline in StateCompiled
	//
	// Returns:
	//   - common.PipelineHandle: the linked program
	//   - error: a *ShaderError of kind LinkFailed carrying the linker log
	LinkPipeline(p pipeline.Pipeline) (common.PipelineHandle, error)

	// DeletePipeline releases a linked program.
	DeletePipeline(h common.PipelineHandle)

	// CreateVertexBuffer allocates device memory for the mesh and copies its vertices in.
	//
	// Parameters:
	//   - mesh: the vertices to upload
	//
	// Returns:
	//   - common.BufferHandle: the new buffer
	//   - error: ErrEmptyMesh or an allocation failure
	CreateVertexBuffer(mesh model.Mesh) (common.BufferHandle, error)

	// BindLayout describes how the buffer feeds a vertex stage input. Binding the same
	// layout twice leaves the state unchanged.
	//
	// Parameters:
	//   - h: the buffer
	//   - layout: the attribute slot, component count, stride and offset
	//
	// Returns:
	//   - error: ErrUnknownHandle if h is not a live buffer
	BindLayout(h common.BufferHandle, layout common.VertexLayout) error

	// DeleteBuffer releases a vertex buffer.
	DeleteBuffer(h common.BufferHandle)

	// BeginFrame acquires the drawable and clears it.
	BeginFrame() error

	// UsePipeline installs a linked program for subsequent draws.
	UsePipeline(h common.PipelineHandle) error

	// BindBuffer makes the buffer and its layout the vertex source for subsequent draws.
	BindBuffer(h common.BufferHandle) error

	// Draw issues one draw of count vertices starting at first.
	Draw(topology common.Topology, first, count int32) error

	// EndFrame finishes recording the frame.
	EndFrame()

	// Present shows the finished frame.
	Present()

	// Error returns and clears the device error state.
	//
	// Returns:
	//   - error: a *GPUError, or nil when no error is pending
	Error() error

	// Release frees every GPU object still held by the backend.
	Release()
}
