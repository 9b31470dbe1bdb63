package engine

import (
	"github.com/Carmen-Shannon/oxy-circle/engine/config"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindowOptions appends options used when the engine creates its window.
//
// Parameters:
//   - options: window builder options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithRendererOptions appends options used when the engine creates its renderer.
//
// Parameters:
//   - options: renderer builder options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithBackendType selects the GPU backend. The window's client API follows it.
//
// Parameters:
//   - t: the backend type (default BackendTypeOpenGL)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackendType(t renderer.RendererBackendType) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = t
	}
}

// WithSegments sets the number of perimeter segments of the circle.
//
// Parameters:
//   - segments: the segment count (default 100)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSegments(segments int) EngineBuilderOption {
	return func(e *engine) {
		e.segments = segments
	}
}

// WithRadius sets the circle radius in normalized device coordinates.
func WithRadius(radius float32) EngineBuilderOption {
	return func(e *engine) {
		e.radius = radius
	}
}

// WithClearColor sets the color every frame is cleared to.
func WithClearColor(c mgl32.Vec4) EngineBuilderOption {
	return func(e *engine) {
		e.clearColor = c
	}
}

// WithMaxFrames stops the render loop after n frames even if the window is still open.
// Pass 0 to run until the window closes (default).
//
// Parameters:
//   - n: the frame limit
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithConfig applies every field of a loaded configuration.
//
// Parameters:
//   - cfg: the configuration, usually from config.Load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = cfg.BackendType()
		e.segments = cfg.Circle.Segments
		e.radius = cfg.Circle.Radius
		e.clearColor = cfg.ClearColorVec()
		e.profilingEnabled = cfg.Profile

		e.windowOptions = append(e.windowOptions,
			window.WithTitle(cfg.Window.Title),
			window.WithWidth(cfg.Window.Width),
			window.WithHeight(cfg.Window.Height),
		)
		if cfg.Window.SwapInterval != nil {
			e.windowOptions = append(e.windowOptions, window.WithSwapInterval(*cfg.Window.SwapInterval))
		}
		if cfg.ForceSoftware {
			e.rendererOptions = append(e.rendererOptions, renderer.WithForceSoftwareRenderer(true))
		}
	}
}
