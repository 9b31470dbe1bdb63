package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/model"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// glVertexBuffer is a VBO together with the VAO recording its attribute layout.
type glVertexBuffer struct {
	vao, vbo    uint32
	vertexCount int32
	layouts     map[uint32]common.VertexLayout
}

type openGLRendererBackendImpl struct {
	mu     *sync.Mutex
	window window.Window

	clearColor mgl32.Vec4
	buffers    map[common.BufferHandle]*glVertexBuffer
	programs   map[common.PipelineHandle]struct{}
}

var _ RendererBackend = &openGLRendererBackendImpl{}

func newOpenGLRendererBackend() *openGLRendererBackendImpl {
	return &openGLRendererBackendImpl{
		mu:         &sync.Mutex{},
		clearColor: DefaultClearColor,
		buffers:    make(map[common.BufferHandle]*glVertexBuffer),
		programs:   make(map[common.PipelineHandle]struct{}),
	}
}

func (b *openGLRendererBackendImpl) Init(w window.Window) error {
	if err := LoadEntryPoints(w.ProcAddress); err != nil {
		return err
	}
	b.window = w

	common.Logger().Info("opengl context ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
	)

	b.ConfigureSurface(w.FramebufferSize())
	return nil
}

func (b *openGLRendererBackendImpl) ShaderLanguage() shader.Language {
	return shader.LanguageGLSL
}

func (b *openGLRendererBackendImpl) ConfigureSurface(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (b *openGLRendererBackendImpl) SetClearColor(c mgl32.Vec4) {
	b.mu.Lock()
	b.clearColor = c
	b.mu.Unlock()
}

func (b *openGLRendererBackendImpl) CompileStage(s shader.Shader) (common.StageHandle, error) {
	if s.Language() != shader.LanguageGLSL {
		return 0, &ShaderError{Kind: CompileFailed, Key: s.Key(), Stage: s.ShaderType(),
			Log: fmt.Sprintf("opengl backend cannot compile %s", s.Language())}
	}

	var kind uint32
	switch s.ShaderType() {
	case shader.ShaderTypeVertex:
		kind = gl.VERTEX_SHADER
	case shader.ShaderTypeFragment:
		kind = gl.FRAGMENT_SHADER
	default:
		return 0, &ShaderError{Kind: CompileFailed, Key: s.Key(), Stage: s.ShaderType(), Log: "unsupported stage"}
	}

	id := gl.CreateShader(kind)
	csource, free := gl.Strs(s.Source() + "\x00")
	gl.ShaderSource(id, 1, csource, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := infoLog(logLength, func(buf *uint8) { gl.GetShaderInfoLog(id, logLength, nil, buf) })
		gl.DeleteShader(id)
		return 0, &ShaderError{Kind: CompileFailed, Key: s.Key(), Stage: s.ShaderType(), Log: log}
	}
	return common.StageHandle(id), nil
}

func (b *openGLRendererBackendImpl) DeleteStage(h common.StageHandle) {
	if h != 0 {
		gl.DeleteShader(uint32(h))
	}
}

func (b *openGLRendererBackendImpl) LinkPipeline(p pipeline.Pipeline) (common.PipelineHandle, error) {
	vs, fs := p.Stages()
	if vs == 0 || fs == 0 {
		return 0, &ShaderError{Kind: LinkFailed, Key: p.PipelineKey(), Log: "missing compiled stage"}
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, uint32(vs))
	gl.AttachShader(program, uint32(fs))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)

	// stages are owned by the caller and deleted after this returns
	gl.DetachShader(program, uint32(vs))
	gl.DetachShader(program, uint32(fs))

	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := infoLog(logLength, func(buf *uint8) { gl.GetProgramInfoLog(program, logLength, nil, buf) })
		gl.DeleteProgram(program)
		return 0, &ShaderError{Kind: LinkFailed, Key: p.PipelineKey(), Log: log}
	}

	h := common.PipelineHandle(program)
	b.mu.Lock()
	b.programs[h] = struct{}{}
	b.mu.Unlock()
	return h, nil
}

func (b *openGLRendererBackendImpl) DeletePipeline(h common.PipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.programs[h]; !ok {
		return
	}
	gl.DeleteProgram(uint32(h))
	delete(b.programs, h)
}

func (b *openGLRendererBackendImpl) CreateVertexBuffer(mesh model.Mesh) (common.BufferHandle, error) {
	data := mesh.Bytes()
	if len(data) == 0 {
		return 0, fmt.Errorf("%s: %w", mesh.Name(), ErrEmptyMesh)
	}

	buf := &glVertexBuffer{
		vertexCount: int32(mesh.VertexCount()),
		layouts:     make(map[uint32]common.VertexLayout),
	}
	gl.GenVertexArrays(1, &buf.vao)
	gl.BindVertexArray(buf.vao)
	gl.GenBuffers(1, &buf.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindVertexArray(0)

	if buf.vbo == 0 {
		gl.DeleteVertexArrays(1, &buf.vao)
		return 0, fmt.Errorf("%s: glGenBuffers returned no buffer", mesh.Name())
	}

	h := common.BufferHandle(buf.vbo)
	b.mu.Lock()
	b.buffers[h] = buf
	b.mu.Unlock()
	return h, nil
}

func (b *openGLRendererBackendImpl) BindLayout(h common.BufferHandle, layout common.VertexLayout) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownHandle, h)
	}

	gl.BindVertexArray(buf.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.VertexAttribPointerWithOffset(layout.Slot, layout.Components, gl.FLOAT, false, layout.ByteStride(), layout.Offset)
	gl.EnableVertexAttribArray(layout.Slot)
	gl.BindVertexArray(0)

	buf.layouts[layout.Slot] = layout
	return nil
}

func (b *openGLRendererBackendImpl) DeleteBuffer(h common.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteBufferLocked(h)
}

func (b *openGLRendererBackendImpl) deleteBufferLocked(h common.BufferHandle) {
	buf, ok := b.buffers[h]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &buf.vbo)
	gl.DeleteVertexArrays(1, &buf.vao)
	delete(b.buffers, h)
}

func (b *openGLRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	c := b.clearColor
	b.mu.Unlock()

	gl.ClearColor(c.X(), c.Y(), c.Z(), c.W())
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (b *openGLRendererBackendImpl) UsePipeline(h common.PipelineHandle) error {
	b.mu.Lock()
	_, ok := b.programs[h]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknownHandle, h)
	}
	gl.UseProgram(uint32(h))
	return nil
}

func (b *openGLRendererBackendImpl) BindBuffer(h common.BufferHandle) error {
	b.mu.Lock()
	buf, ok := b.buffers[h]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownHandle, h)
	}
	gl.BindVertexArray(buf.vao)
	return nil
}

func (b *openGLRendererBackendImpl) Draw(topology common.Topology, first, count int32) error {
	mode, err := glDrawMode(topology)
	if err != nil {
		return err
	}
	gl.DrawArrays(mode, first, count)
	return nil
}

func (b *openGLRendererBackendImpl) EndFrame() {
	gl.BindVertexArray(0)
}

func (b *openGLRendererBackendImpl) Present() {
	if b.window != nil {
		b.window.SwapBuffers()
	}
}

func (b *openGLRendererBackendImpl) Error() error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	return &GPUError{Code: code, Name: glErrorName(code)}
}

func (b *openGLRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for h := range b.buffers {
		b.deleteBufferLocked(h)
	}
	for h := range b.programs {
		gl.DeleteProgram(uint32(h))
		delete(b.programs, h)
	}
}

// infoLog reads a driver info log of the reported length through fetch.
func infoLog(length int32, fetch func(buf *uint8)) string {
	if length <= 0 {
		return "no info log"
	}
	buf := make([]byte, length+1)
	fetch(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n ")
}

func glDrawMode(topology common.Topology) (uint32, error) {
	switch topology {
	case common.TopologyTriangleFan:
		return gl.TRIANGLE_FAN, nil
	case common.TopologyTriangleList:
		return gl.TRIANGLES, nil
	default:
		return 0, fmt.Errorf("renderer: unsupported topology %s", topology)
	}
}

func glErrorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return "GL_UNKNOWN_ERROR"
	}
}
