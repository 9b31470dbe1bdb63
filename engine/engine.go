package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/model"
	"github.com/Carmen-Shannon/oxy-circle/engine/profiler"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/scene"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// CirclePipelineKey is the key the circle's pipeline is registered under.
const CirclePipelineKey = "circle"

// ErrAlreadyRunning is returned when Run is called while a previous Run has not returned.
var ErrAlreadyRunning = errors.New("engine is already running")

// RuntimeError reports a failure inside the render loop. The loop is torn down when it occurs.
type RuntimeError struct {
	// Frame is the zero-based frame index the failure occurred in.
	Frame uint64

	// Err is the underlying failure, e.g. scene.ErrInvalidBuffer.
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("render loop failed at frame %d: %v", e.Frame, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// engine implements the Engine interface.
// Drives window, renderer and scene on the calling goroutine.
type engine struct {
	windowOptions   []window.WindowBuilderOption
	rendererOptions []renderer.RendererBuilderOption
	backendType     renderer.RendererBackendType

	segments   int
	radius     float32
	clearColor mgl32.Vec4

	profiler         *profiler.Profiler
	profilingEnabled bool

	// renderCallback runs after each presented frame with that frame's index.
	renderCallback func(frame uint64)

	// maxFrames stops the loop after this many frames; 0 runs until the window closes.
	maxFrames uint64

	running bool
	frames  uint64

	window   window.Window
	renderer renderer.Renderer
	scene    scene.Scene
}

// Engine is the main entry point for the engine.
// It opens the window, brings up the renderer, uploads the circle and redraws it every frame
// until the window is closed.
type Engine interface {
	// Run performs setup, runs the render loop on the calling goroutine and tears everything
	// down before returning. It blocks until the window is closed.
	//
	// Setup order: window (context current) -> entry points -> mesh -> vertex buffer + layout ->
	// shader pipeline. Teardown order: pipeline -> buffer -> renderer -> window.
	//
	// Returns:
	//   - error: a *window.InitError or *renderer.ShaderError from setup, a *RuntimeError from the loop, or nil
	Run() error

	// Window returns the window while Run is executing.
	//
	// Returns:
	//   - window.Window: the window, or nil outside of Run
	Window() window.Window

	// Renderer returns the renderer while Run is executing.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil outside of Run
	Renderer() renderer.Renderer

	// Scene returns the scene holding the circle while Run is executing.
	//
	// Returns:
	//   - scene.Scene: the scene, or nil outside of Run
	Scene() scene.Scene

	// Frames returns the number of frames presented by the last (or current) Run.
	//
	// Returns:
	//   - uint64: the presented frame count
	Frames() uint64

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderCallback registers the function called after each presented frame.
	//
	// Parameters:
	//   - callback: function receiving the zero-based index of the frame just presented
	SetRenderCallback(callback func(frame uint64))

	// Quit asks the window to close; the loop exits after the current frame.
	// Safe to call when the engine is not running.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Defaults draw a 100-segment circle of radius 0.5 on the OpenGL backend.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		backendType: renderer.BackendTypeOpenGL,
		segments:    100,
		radius:      0.5,
		clearColor:  renderer.DefaultClearColor,
		profiler:    profiler.NewProfiler(),
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

// RenderCircle runs the demo with the default configuration. Failures are logged to
// stderr and the function returns.
func RenderCircle() {
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := NewEngine().Run(); err != nil {
		common.Logger().Error("render circle failed", "error", err)
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderCallback(callback func(frame uint64)) {
	e.renderCallback = callback
}

func (e *engine) Quit() {
	if e.window != nil {
		e.window.RequestClose()
	}
}

func (e *engine) Run() (err error) {
	if e.running {
		return ErrAlreadyRunning
	}
	e.running = true
	e.frames = 0
	defer func() { e.running = false }()

	log := common.Logger()

	// The backend decides which context the window is created with; caller options still win.
	winOpts := append([]window.WindowBuilderOption{window.WithClientAPI(e.backendType.ClientAPI())}, e.windowOptions...)
	w, err := window.NewWindow(winOpts...)
	if err != nil {
		return err
	}
	e.window = w
	defer func() {
		if cerr := w.Close(); cerr != nil {
			log.Warn("failed to close window", "error", cerr)
		}
		e.window = nil
	}()

	rOpts := append([]renderer.RendererBuilderOption{renderer.WithClearColor(e.clearColor)}, e.rendererOptions...)
	r, err := renderer.NewRenderer(e.backendType, w, rOpts...)
	if err != nil {
		return err
	}
	e.renderer = r
	defer func() {
		r.Release()
		e.renderer = nil
	}()

	s := scene.NewScene("circle", r)
	e.scene = s
	defer func() {
		s.Release()
		e.scene = nil
	}()

	// The attribute binding is taken from the vertex stage's declared inputs.
	vs, fs := shader.CircleShaders(r.ShaderLanguage())

	mesh := model.GenerateCircle(e.segments, e.radius)
	buf, err := r.UploadMesh(mesh, vs.VertexLayouts()...)
	if err != nil {
		return fmt.Errorf("upload %s: %w", mesh.Name(), err)
	}
	s.Add(scene.Renderable{
		Name:        mesh.Name(),
		PipelineKey: CirclePipelineKey,
		Buffer:      buf,
		Topology:    common.TopologyTriangleFan,
		First:       0,
		VertexCount: int32(mesh.Segments()),
	})

	p := pipeline.NewPipeline(CirclePipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(common.TopologyTriangleFan),
	)
	if err := r.RegisterPipelines(p); err != nil {
		return err
	}

	log.Info("render loop started", "backend", e.backendType.String(), "segments", mesh.Segments(), "radius", e.radius)
	for !w.ShouldClose() {
		if e.maxFrames > 0 && e.frames >= e.maxFrames {
			break
		}
		if err := e.frame(); err != nil {
			log.Error("render loop aborted", "frame", e.frames, "error", err)
			return &RuntimeError{Frame: e.frames, Err: err}
		}
		if e.renderCallback != nil {
			e.renderCallback(e.frames)
		}
		w.PollEvents()
		e.frames++

		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Tick()
		}
	}
	log.Info("render loop finished", "frames", e.frames)

	return nil
}

// frame records and presents one frame.
func (e *engine) frame() error {
	r := e.renderer
	if err := r.BeginFrame(); err != nil {
		return err
	}
	if err := e.scene.DrawCalls(); err != nil {
		r.EndFrame()
		return err
	}
	r.EndFrame()
	// WebGPU validates the pass when it is ended, so the check follows EndFrame.
	if gerr := r.Error(); gerr != nil {
		common.Logger().Warn("gpu error after draw", "frame", e.frames, "error", gerr)
	}
	r.Present()
	return nil
}
