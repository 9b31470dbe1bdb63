package engine_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine"
	"github.com/Carmen-Shannon/oxy-circle/engine/config"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/scene"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/Carmen-Shannon/oxy-circle/engine/window/windowtest"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestEngine(p *windowtest.Platform, b *renderertest.Backend, options ...engine.EngineBuilderOption) engine.Engine {
	opts := []engine.EngineBuilderOption{
		engine.WithWindowOptions(window.WithPlatform(p)),
		engine.WithRendererOptions(renderer.WithBackend(b)),
	}
	return engine.NewEngine(append(opts, options...)...)
}

func TestRunDrawsOneFanPerFrame(t *testing.T) {
	p := windowtest.NewPlatform(3)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	e := newTestEngine(p, b)

	if err := e.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if e.Frames() != 3 || b.Frames() != 3 || b.Presents() != 3 {
		t.Errorf("frames=%d backend frames=%d presents=%d, want 3", e.Frames(), b.Frames(), b.Presents())
	}
	draws := b.Draws()
	if len(draws) != 3 {
		t.Fatalf("draws = %d, want 3", len(draws))
	}
	for i, d := range draws {
		if d.Topology != common.TopologyTriangleFan || d.First != 0 || d.Count != 100 {
			t.Errorf("draw %d = %+v, want fan first=0 count=100", i, d)
		}
		if d.Pipeline == 0 || d.Buffer == 0 {
			t.Errorf("draw %d used zero handle: %+v", i, d)
		}
	}
	if p.Window().Polls() != 3 {
		t.Errorf("polls = %d, want 3", p.Window().Polls())
	}
}

func TestRunSetupOrder(t *testing.T) {
	p := windowtest.NewPlatform(1)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	if err := newTestEngine(p, b).Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	calls := b.Calls()
	want := []string{"Init", "CreateVertexBuffer", "BindLayout", "CompileStage circle_vert", "CompileStage circle_frag", "LinkPipeline circle", "BeginFrame"}
	idx := 0
	for _, c := range calls {
		if idx < len(want) && strings.HasPrefix(c, want[idx]) {
			idx++
		}
	}
	if idx != len(want) {
		t.Errorf("calls %v missing ordered prefix %q", calls, want[idx])
	}
}

func TestRunTeardownOrder(t *testing.T) {
	p := windowtest.NewPlatform(1)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	if err := newTestEngine(p, b).Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	pipelineAt, bufferAt, releaseAt := -1, -1, -1
	for i, c := range b.Calls() {
		switch {
		case strings.HasPrefix(c, "DeletePipeline"):
			pipelineAt = i
		case strings.HasPrefix(c, "DeleteBuffer"):
			bufferAt = i
		case c == "Release":
			releaseAt = i
		}
	}
	if !(pipelineAt >= 0 && pipelineAt < bufferAt && bufferAt < releaseAt) {
		t.Errorf("teardown order pipeline=%d buffer=%d release=%d", pipelineAt, bufferAt, releaseAt)
	}
	if b.LivePipelines() != 0 || b.LiveBuffers() != 0 || b.LiveStages() != 0 {
		t.Errorf("leaked objects: pipelines=%d buffers=%d stages=%d", b.LivePipelines(), b.LiveBuffers(), b.LiveStages())
	}
	if !p.Window().Destroyed() {
		t.Error("window not destroyed")
	}
	calls := p.Calls()
	if calls[len(calls)-1] != "Terminate" {
		t.Errorf("last platform call = %q, want Terminate", calls[len(calls)-1])
	}
}

func TestRunWindowFailureSkipsRenderer(t *testing.T) {
	tests := []struct {
		name string
		set  func(p *windowtest.Platform)
		want error
	}{
		{name: "library init", set: func(p *windowtest.Platform) { p.InitErr = errors.New("no display") }, want: window.ErrLibraryInitFailed},
		{name: "window creation", set: func(p *windowtest.Platform) { p.CreateErr = errors.New("no visual") }, want: window.ErrWindowCreationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := windowtest.NewPlatform(1)
			tt.set(p)
			b := renderertest.NewBackend(shader.LanguageGLSL)

			err := newTestEngine(p, b).Run()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run() = %v, want %v", err, tt.want)
			}
			if calls := b.Calls(); len(calls) != 0 {
				t.Errorf("backend used after window failure: %v", calls)
			}
		})
	}
}

func TestRunLoaderFailure(t *testing.T) {
	p := windowtest.NewPlatform(1)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	b.InitErr = window.NewInitError(window.LoaderFailed, errors.New("no entry points"))

	err := newTestEngine(p, b).Run()
	if !errors.Is(err, window.ErrLoaderFailed) {
		t.Fatalf("Run() = %v, want ErrLoaderFailed", err)
	}
	for _, c := range b.Calls() {
		if strings.HasPrefix(c, "CompileStage") || strings.HasPrefix(c, "CreateVertexBuffer") {
			t.Errorf("%q issued after loader failure", c)
		}
	}
	if !p.Window().Destroyed() {
		t.Error("window not destroyed after loader failure")
	}
}

func TestRunLinkFailureIsFatal(t *testing.T) {
	p := windowtest.NewPlatform(5)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	b.LinkLog = "error: varying mismatch"

	err := newTestEngine(p, b).Run()
	var serr *renderer.ShaderError
	if !errors.As(err, &serr) || serr.Kind != renderer.LinkFailed {
		t.Fatalf("Run() = %v, want link ShaderError", err)
	}
	if serr.Log == "" {
		t.Error("link error carries no log")
	}
	if b.Frames() != 0 {
		t.Errorf("frames = %d after link failure, want 0", b.Frames())
	}
	if b.LiveBuffers() != 0 || b.LiveStages() != 0 {
		t.Errorf("leaked buffers=%d stages=%d", b.LiveBuffers(), b.LiveStages())
	}
}

func TestRunInvalidBufferMidLoop(t *testing.T) {
	p := windowtest.NewPlatform(10)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	e := newTestEngine(p, b)
	e.SetRenderCallback(func(frame uint64) {
		if frame == 1 {
			s := e.Scene()
			s.Clear()
			s.Add(scene.Renderable{Name: "broken", PipelineKey: engine.CirclePipelineKey, VertexCount: 100})
		}
	})

	err := e.Run()
	if !errors.Is(err, scene.ErrInvalidBuffer) {
		t.Fatalf("Run() = %v, want ErrInvalidBuffer", err)
	}
	var rerr *engine.RuntimeError
	if !errors.As(err, &rerr) || rerr.Frame != 2 {
		t.Errorf("RuntimeError = %+v, want frame 2", rerr)
	}
	if b.Presents() != 2 {
		t.Errorf("presents = %d, want 2", b.Presents())
	}
	if !b.Released() || !p.Window().Destroyed() {
		t.Error("teardown skipped after runtime error")
	}
}

func TestRunLogsGPUErrorWithFrame(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { common.SetLogger(nil) })

	p := windowtest.NewPlatform(2)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	b.GPUErrors = []error{&renderer.GPUError{Code: 0x0502, Name: "INVALID_OPERATION"}}

	if err := newTestEngine(p, b).Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "gpu error after draw") || !strings.Contains(out, "frame=0") {
		t.Errorf("GPU error not logged with frame: %q", out)
	}
}

func TestRunMaxFramesAndQuit(t *testing.T) {
	p := windowtest.NewPlatform(0)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	e := newTestEngine(p, b, engine.WithMaxFrames(4))
	if err := e.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if e.Frames() != 4 {
		t.Errorf("Frames() = %d, want 4", e.Frames())
	}

	p = windowtest.NewPlatform(0)
	b = renderertest.NewBackend(shader.LanguageGLSL)
	e = newTestEngine(p, b)
	e.SetRenderCallback(func(frame uint64) {
		if frame == 2 {
			e.Quit()
		}
	})
	if err := e.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if e.Frames() != 3 {
		t.Errorf("Frames() after Quit = %d, want 3", e.Frames())
	}
	if e.Window() != nil || e.Renderer() != nil || e.Scene() != nil {
		t.Error("engine kept references after Run returned")
	}
}

func TestRunWGPUBackendUsesNoClientAPI(t *testing.T) {
	p := windowtest.NewPlatform(1)
	b := renderertest.NewBackend(shader.LanguageWGSL)
	e := newTestEngine(p, b, engine.WithBackendType(renderer.BackendTypeWGPU), engine.WithSegments(8), engine.WithRadius(0.25))
	if err := e.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if p.Spec().ClientAPI != window.ClientAPINone {
		t.Errorf("ClientAPI = %v, want none", p.Spec().ClientAPI)
	}
	if d := b.Draws(); len(d) != 1 || d[0].Count != 8 {
		t.Errorf("draws = %+v, want one draw of 8", d)
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Window.Title = "Configured"
	cfg.Circle.Segments = 6
	cfg.ClearColor = []float32{0, 0, 0, 1}

	p := windowtest.NewPlatform(1)
	b := renderertest.NewBackend(shader.LanguageGLSL)
	if err := newTestEngine(p, b, engine.WithConfig(cfg)).Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if p.Spec().Title != "Configured" || p.Spec().Width != 800 {
		t.Errorf("spec = %+v", p.Spec())
	}
	if b.ClearColor() != (mgl32.Vec4{0, 0, 0, 1}) {
		t.Errorf("ClearColor() = %v", b.ClearColor())
	}
	if d := b.Draws(); len(d) != 1 || d[0].Count != 6 {
		t.Errorf("draws = %+v, want one draw of 6", d)
	}
}

func TestRunBindsLayoutsDeclaredByVertexShader(t *testing.T) {
	for _, lang := range []shader.Language{shader.LanguageGLSL, shader.LanguageWGSL} {
		t.Run(lang.String(), func(t *testing.T) {
			vs, _ := shader.CircleShaders(lang)
			want := vs.VertexLayouts()
			if len(want) == 0 {
				t.Fatal("circle vertex shader declares no inputs")
			}

			p := windowtest.NewPlatform(1)
			b := renderertest.NewBackend(lang)
			e := newTestEngine(p, b)

			var bound map[uint32]common.VertexLayout
			e.SetRenderCallback(func(uint64) {
				bound = b.Layouts(e.Scene().Renderables()[0].Buffer)
			})
			if err := e.Run(); err != nil {
				t.Fatalf("Run() = %v", err)
			}

			if len(bound) != len(want) {
				t.Fatalf("bound %d layouts, want %d", len(bound), len(want))
			}
			for _, l := range want {
				if got := bound[l.Slot]; got != l {
					t.Errorf("slot %d = %+v, want %+v", l.Slot, got, l)
				}
			}
		})
	}
}
