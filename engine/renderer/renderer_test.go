package renderer_test

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/model"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/Carmen-Shannon/oxy-circle/engine/window/windowtest"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestRenderer(t *testing.T, b *renderertest.Backend, opts ...renderer.RendererBuilderOption) renderer.Renderer {
	t.Helper()
	w, err := window.NewWindow(window.WithPlatform(windowtest.NewPlatform(0)))
	if err != nil {
		t.Fatalf("NewWindow() = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	r, err := renderer.NewRenderer(renderer.BackendTypeOpenGL, w, append(opts, renderer.WithBackend(b))...)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	return r
}

func circlePipeline(lang shader.Language) pipeline.Pipeline {
	vs, fs := shader.CircleShaders(lang)
	return pipeline.NewPipeline("circle", pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
}

func TestRegisterPipelinesLinksAndReleasesStages(t *testing.T) {
	for _, lang := range []shader.Language{shader.LanguageGLSL, shader.LanguageWGSL} {
		t.Run(lang.String(), func(t *testing.T) {
			b := renderertest.NewBackend(lang)
			r := newTestRenderer(t, b)

			p := circlePipeline(lang)
			if err := r.RegisterPipelines(p); err != nil {
				t.Fatalf("RegisterPipelines() = %v", err)
			}
			if p.State() != pipeline.StateLinked {
				t.Errorf("state = %v, want linked", p.State())
			}
			if p.Handle() == 0 {
				t.Error("linked pipeline has zero handle")
			}
			if n := b.LiveStages(); n != 0 {
				t.Errorf("live stages after link = %d, want 0", n)
			}
			if r.Pipeline("circle") != p {
				t.Error("pipeline not cached under its key")
			}

			// registering the same key again must not rebuild
			before := len(b.Calls())
			if err := r.RegisterPipelines(circlePipeline(lang)); err != nil {
				t.Fatalf("second RegisterPipelines() = %v", err)
			}
			if after := len(b.Calls()); after != before {
				t.Errorf("duplicate key rebuilt the pipeline: %v", b.Calls()[before:])
			}
		})
	}
}

func TestRegisterPipelinesCompileFailure(t *testing.T) {
	tests := []struct {
		name       string
		vertex     string
		fragment   string
		wantDelete bool
	}{
		{"vertex", "@vertex fn vs_main( -> {", "", false},
		{"fragment", "", "@fragment fn fs_main() -> @location(0) vec4<f32> { return ; ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, fs := shader.CircleShaders(shader.LanguageWGSL)
			if tt.vertex != "" {
				vs = shader.NewShader("bad_vert", shader.ShaderTypeVertex, shader.LanguageWGSL, tt.vertex)
			}
			if tt.fragment != "" {
				fs = shader.NewShader("bad_frag", shader.ShaderTypeFragment, shader.LanguageWGSL, tt.fragment)
			}
			p := pipeline.NewPipeline("circle", pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))

			b := renderertest.NewBackend(shader.LanguageWGSL)
			r := newTestRenderer(t, b)

			err := r.RegisterPipelines(p)
			if !errors.Is(err, renderer.ErrCompileFailed) {
				t.Fatalf("RegisterPipelines() = %v, want ErrCompileFailed", err)
			}
			var se *renderer.ShaderError
			if !errors.As(err, &se) || strings.TrimSpace(se.Log) == "" {
				t.Errorf("ShaderError log is empty: %v", err)
			}
			if p.State() != pipeline.StateCompileFailed || p.Handle() != 0 {
				t.Errorf("state = %v handle = %d, want compile-failed and 0", p.State(), p.Handle())
			}
			if r.Pipeline("circle") != nil {
				t.Error("failed pipeline was cached")
			}
			if b.LiveStages() != 0 {
				t.Errorf("live stages = %d, want 0", b.LiveStages())
			}
			hasDelete := slices.ContainsFunc(b.Calls(), func(c string) bool { return strings.HasPrefix(c, "DeleteStage") })
			if hasDelete != tt.wantDelete {
				t.Errorf("DeleteStage called = %v, want %v; calls %v", hasDelete, tt.wantDelete, b.Calls())
			}
			if slices.ContainsFunc(b.Calls(), func(c string) bool { return strings.HasPrefix(c, "LinkPipeline") }) {
				t.Error("link attempted after compile failure")
			}
		})
	}
}

func TestRegisterPipelinesLinkFailure(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	b.LinkLog = "error: vertex output not consumed"
	r := newTestRenderer(t, b)

	p := circlePipeline(shader.LanguageGLSL)
	err := r.RegisterPipelines(p)
	if !errors.Is(err, renderer.ErrLinkFailed) {
		t.Fatalf("RegisterPipelines() = %v, want ErrLinkFailed", err)
	}
	var se *renderer.ShaderError
	if !errors.As(err, &se) || se.Log != b.LinkLog {
		t.Errorf("log = %v, want %q", err, b.LinkLog)
	}
	if p.State() != pipeline.StateLinkFailed {
		t.Errorf("state = %v, want link-failed", p.State())
	}
	if b.LiveStages() != 0 {
		t.Errorf("stages not released after failed link: %d live", b.LiveStages())
	}
}

func TestRegisterPipelinesLanguageMismatch(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b)
	if err := r.RegisterPipelines(circlePipeline(shader.LanguageWGSL)); err == nil {
		t.Fatal("RegisterPipelines() accepted WGSL on a GLSL backend")
	}
	if len(b.Calls()) != 1 { // Init only
		t.Errorf("backend touched: %v", b.Calls())
	}
}

func TestUploadMesh(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b)

	mesh := model.GenerateCircle(100, 0.5)
	h, err := r.UploadMesh(mesh)
	if err != nil {
		t.Fatalf("UploadMesh() = %v", err)
	}
	if h == 0 {
		t.Fatal("UploadMesh() returned zero handle")
	}
	if size, _ := b.BufferSize(h); size != 101*model.VertexSize {
		t.Errorf("buffer size = %d, want %d", size, 101*model.VertexSize)
	}
	layouts := b.Layouts(h)
	if len(layouts) != 1 || layouts[0] != common.PositionLayout {
		t.Errorf("layouts = %+v, want PositionLayout", layouts)
	}
}

func TestBindLayoutIdempotent(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b)

	h, err := r.UploadMesh(model.GenerateCircle(8, 1), common.PositionLayout, common.PositionLayout)
	if err != nil {
		t.Fatalf("UploadMesh() = %v", err)
	}
	if got := b.Layouts(h); len(got) != 1 || got[0] != common.PositionLayout {
		t.Errorf("layouts after double bind = %+v", got)
	}
}

func TestUploadMeshFailures(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b)

	if _, err := r.UploadMesh(model.NewMesh("empty", nil)); !errors.Is(err, renderer.ErrEmptyMesh) {
		t.Errorf("empty mesh: %v, want ErrEmptyMesh", err)
	}

	b.CreateBufferErr = errors.New("out of memory")
	if _, err := r.UploadMesh(model.GenerateCircle(4, 1)); !errors.Is(err, b.CreateBufferErr) {
		t.Errorf("allocation failure: %v", err)
	}
}

func TestDrawCall(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b, renderer.WithPipelines(circlePipeline(shader.LanguageGLSL)))

	buf, err := r.UploadMesh(model.GenerateCircle(100, 0.5))
	if err != nil {
		t.Fatalf("UploadMesh() = %v", err)
	}

	if err := r.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() = %v", err)
	}
	if err := r.DrawCall("circle", buf, common.TopologyTriangleFan, 0, 100); err != nil {
		t.Fatalf("DrawCall() = %v", err)
	}
	r.EndFrame()
	r.Present()

	p := r.Pipeline("circle")
	if p.State() != pipeline.StateActive {
		t.Errorf("state = %v, want active", p.State())
	}
	draws := b.Draws()
	want := renderertest.Draw{Pipeline: p.Handle(), Buffer: buf, Topology: common.TopologyTriangleFan, First: 0, Count: 100}
	if len(draws) != 1 || draws[0] != want {
		t.Errorf("draws = %+v, want [%+v]", draws, want)
	}
	if err := r.Error(); err != nil {
		t.Errorf("Error() = %v", err)
	}
}

func TestDrawCallErrors(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b, renderer.WithPipelines(circlePipeline(shader.LanguageGLSL)))

	if err := r.DrawCall("missing", 1, common.TopologyTriangleFan, 0, 3); !errors.Is(err, renderer.ErrPipelineNotFound) {
		t.Errorf("unknown pipeline: %v", err)
	}
	if err := r.DrawCall("circle", 0, common.TopologyTriangleFan, 0, 3); !errors.Is(err, renderer.ErrUnknownHandle) {
		t.Errorf("zero buffer: %v", err)
	}
	if len(b.Draws()) != 0 {
		t.Error("draw issued despite errors")
	}
}

func TestReleaseDestroysEverything(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b, renderer.WithPipelines(circlePipeline(shader.LanguageGLSL)))
	if _, err := r.UploadMesh(model.GenerateCircle(10, 1)); err != nil {
		t.Fatalf("UploadMesh() = %v", err)
	}

	r.Release()
	if b.LivePipelines() != 0 || b.LiveBuffers() != 0 || !b.Released() {
		t.Errorf("after Release: pipelines=%d buffers=%d released=%v", b.LivePipelines(), b.LiveBuffers(), b.Released())
	}
}

func TestNewRendererInitFailure(t *testing.T) {
	w, err := window.NewWindow(window.WithPlatform(windowtest.NewPlatform(0)))
	if err != nil {
		t.Fatalf("NewWindow() = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	var logs bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { common.SetLogger(nil) })

	b := renderertest.NewBackend(shader.LanguageGLSL)
	b.InitErr = window.NewInitError(window.LoaderFailed, errors.New("glClear not found"))
	if _, err := renderer.NewRenderer(renderer.BackendTypeOpenGL, w, renderer.WithBackend(b)); !errors.Is(err, window.ErrLoaderFailed) {
		t.Errorf("NewRenderer() = %v, want ErrLoaderFailed", err)
	}
	// the caller owns reporting the returned error
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("NewRenderer logged the init failure: %q", logs.String())
	}
}

func TestNewRendererPipelineFailureReleases(t *testing.T) {
	w, err := window.NewWindow(window.WithPlatform(windowtest.NewPlatform(0)))
	if err != nil {
		t.Fatalf("NewWindow() = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	b := renderertest.NewBackend(shader.LanguageGLSL)
	b.LinkLog = "link error"
	_, err = renderer.NewRenderer(renderer.BackendTypeOpenGL, w,
		renderer.WithBackend(b),
		renderer.WithPipelines(circlePipeline(shader.LanguageGLSL)),
	)
	if !errors.Is(err, renderer.ErrLinkFailed) {
		t.Fatalf("NewRenderer() = %v, want ErrLinkFailed", err)
	}
	if !b.Released() {
		t.Error("backend not released after failed setup")
	}
}

func TestClearColorAndViewport(t *testing.T) {
	b := renderertest.NewBackend(shader.LanguageGLSL)
	r := newTestRenderer(t, b)

	if got := b.ClearColor(); got != renderer.DefaultClearColor {
		t.Errorf("default clear color = %v", got)
	}
	if w, h := b.Viewport(); w != 800 || h != 600 {
		t.Errorf("viewport = %dx%d, want 800x600", w, h)
	}

	c := mgl32.Vec4{0, 0, 0, 1}
	r.SetClearColor(c)
	r.Resize(640, 480)
	if b.ClearColor() != c {
		t.Errorf("clear color = %v, want %v", b.ClearColor(), c)
	}
	if w, h := b.Viewport(); w != 640 || h != 480 {
		t.Errorf("viewport = %dx%d, want 640x480", w, h)
	}
}

func TestBackendTypeClientAPI(t *testing.T) {
	if renderer.BackendTypeOpenGL.ClientAPI() != window.ClientAPIOpenGL {
		t.Error("opengl backend should request an OpenGL context")
	}
	if renderer.BackendTypeWGPU.ClientAPI() != window.ClientAPINone {
		t.Error("wgpu backend should request no client API")
	}
}
