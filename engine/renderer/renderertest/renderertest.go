// Package renderertest provides a recording renderer.RendererBackend for tests that need
// to observe GPU traffic without a graphics context.
package renderertest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/model"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// Draw is a single recorded draw with the state that was bound when it was issued.
type Draw struct {
	Pipeline common.PipelineHandle
	Buffer   common.BufferHandle
	Topology common.Topology
	First    int32
	Count    int32
}

// Backend records every call. Shaders are "compiled" by running their offline Validate, so
// broken sources fail with a real diagnostic. The exported fields inject failures.
type Backend struct {
	mu sync.Mutex

	// Language is the shading language the backend claims to compile.
	Language shader.Language

	// InitErr is returned from Init when set.
	InitErr error

	// LinkLog makes LinkPipeline fail with this log when non-empty.
	LinkLog string

	// CreateBufferErr is returned from CreateVertexBuffer when set.
	CreateBufferErr error

	// GPUErrors are handed out one per Error call, oldest first.
	GPUErrors []error

	calls      []string
	nextHandle uint32
	stages     map[common.StageHandle]string
	programs   map[common.PipelineHandle]string
	buffers    map[common.BufferHandle]int
	layouts    map[common.BufferHandle]map[uint32]common.VertexLayout
	layoutOps  int
	draws      []Draw
	frames     int
	presents   int
	clearColor mgl32.Vec4
	viewport   [2]int
	released   bool

	program common.PipelineHandle
	buffer  common.BufferHandle
}

var _ renderer.RendererBackend = &Backend{}

// NewBackend returns a Backend compiling the given language.
func NewBackend(lang shader.Language) *Backend {
	return &Backend{
		Language: lang,
		stages:   make(map[common.StageHandle]string),
		programs: make(map[common.PipelineHandle]string),
		buffers:  make(map[common.BufferHandle]int),
		layouts:  make(map[common.BufferHandle]map[uint32]common.VertexLayout),
	}
}

func (b *Backend) record(format string, args ...any) {
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

func (b *Backend) alloc() uint32 {
	b.nextHandle++
	return b.nextHandle
}

func (b *Backend) Init(w window.Window) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Init")
	if b.InitErr != nil {
		return b.InitErr
	}
	b.viewport[0], b.viewport[1] = w.FramebufferSize()
	return nil
}

func (b *Backend) ShaderLanguage() shader.Language {
	return b.Language
}

func (b *Backend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ConfigureSurface %dx%d", width, height)
	b.viewport = [2]int{width, height}
}

func (b *Backend) SetClearColor(c mgl32.Vec4) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = c
}

func (b *Backend) CompileStage(s shader.Shader) (common.StageHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CompileStage %s", s.Key())
	if err := s.Validate(); err != nil {
		return 0, &renderer.ShaderError{Kind: renderer.CompileFailed, Key: s.Key(), Stage: s.ShaderType(), Log: err.Error()}
	}
	h := common.StageHandle(b.alloc())
	b.stages[h] = s.Key()
	return h, nil
}

func (b *Backend) DeleteStage(h common.StageHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteStage %d", h)
	delete(b.stages, h)
}

func (b *Backend) LinkPipeline(p pipeline.Pipeline) (common.PipelineHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("LinkPipeline %s", p.PipelineKey())
	vs, fs := p.Stages()
	if _, ok := b.stages[vs]; !ok {
		return 0, &renderer.ShaderError{Kind: renderer.LinkFailed, Key: p.PipelineKey(), Log: "vertex stage not compiled"}
	}
	if _, ok := b.stages[fs]; !ok {
		return 0, &renderer.ShaderError{Kind: renderer.LinkFailed, Key: p.PipelineKey(), Log: "fragment stage not compiled"}
	}
	if b.LinkLog != "" {
		return 0, &renderer.ShaderError{Kind: renderer.LinkFailed, Key: p.PipelineKey(), Log: b.LinkLog}
	}
	h := common.PipelineHandle(b.alloc())
	b.programs[h] = p.PipelineKey()
	return h, nil
}

func (b *Backend) DeletePipeline(h common.PipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeletePipeline %d", h)
	delete(b.programs, h)
}

func (b *Backend) CreateVertexBuffer(mesh model.Mesh) (common.BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateVertexBuffer %s", mesh.Name())
	if b.CreateBufferErr != nil {
		return 0, b.CreateBufferErr
	}
	if mesh.VertexCount() == 0 {
		return 0, renderer.ErrEmptyMesh
	}
	h := common.BufferHandle(b.alloc())
	b.buffers[h] = len(mesh.Bytes())
	b.layouts[h] = make(map[uint32]common.VertexLayout)
	return h, nil
}

func (b *Backend) BindLayout(h common.BufferHandle, layout common.VertexLayout) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BindLayout %d slot=%d", h, layout.Slot)
	if _, ok := b.buffers[h]; !ok {
		return fmt.Errorf("%w: buffer %d", renderer.ErrUnknownHandle, h)
	}
	b.layouts[h][layout.Slot] = layout
	b.layoutOps++
	return nil
}

func (b *Backend) DeleteBuffer(h common.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteBuffer %d", h)
	delete(b.buffers, h)
	delete(b.layouts, h)
}

func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BeginFrame")
	b.frames++
	return nil
}

func (b *Backend) UsePipeline(h common.PipelineHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UsePipeline %d", h)
	if _, ok := b.programs[h]; !ok {
		return fmt.Errorf("%w: program %d", renderer.ErrUnknownHandle, h)
	}
	b.program = h
	return nil
}

func (b *Backend) BindBuffer(h common.BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BindBuffer %d", h)
	if _, ok := b.buffers[h]; !ok {
		return fmt.Errorf("%w: buffer %d", renderer.ErrUnknownHandle, h)
	}
	b.buffer = h
	return nil
}

func (b *Backend) Draw(topology common.Topology, first, count int32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Draw %s %d %d", topology, first, count)
	b.draws = append(b.draws, Draw{
		Pipeline: b.program,
		Buffer:   b.buffer,
		Topology: topology,
		First:    first,
		Count:    count,
	})
	return nil
}

func (b *Backend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("EndFrame")
}

func (b *Backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Present")
	b.presents++
}

func (b *Backend) Error() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.GPUErrors) == 0 {
		return nil
	}
	err := b.GPUErrors[0]
	b.GPUErrors = b.GPUErrors[1:]
	return err
}

func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Release")
	b.released = true
}

// Calls returns the recorded calls in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	copy(out, b.calls)
	return out
}

// Draws returns the recorded draws in order.
func (b *Backend) Draws() []Draw {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Draw, len(b.draws))
	copy(out, b.draws)
	return out
}

// Frames returns how many frames were begun.
func (b *Backend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Presents returns how many frames were presented.
func (b *Backend) Presents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presents
}

// LiveStages returns how many stage objects have not been deleted.
func (b *Backend) LiveStages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.stages)
}

// LivePipelines returns how many programs have not been deleted.
func (b *Backend) LivePipelines() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.programs)
}

// LiveBuffers returns how many buffers have not been deleted.
func (b *Backend) LiveBuffers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffers)
}

// BufferSize returns the byte size of a live buffer.
func (b *Backend) BufferSize(h common.BufferHandle) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.buffers[h]
	return n, ok
}

// Layouts returns the layouts bound to a buffer, keyed by slot.
func (b *Backend) Layouts(h common.BufferHandle) map[uint32]common.VertexLayout {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[uint32]common.VertexLayout, len(b.layouts[h]))
	for k, v := range b.layouts[h] {
		out[k] = v
	}
	return out
}

// ClearColor returns the last clear color set.
func (b *Backend) ClearColor() mgl32.Vec4 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clearColor
}

// Viewport returns the last configured drawable size.
func (b *Backend) Viewport() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport[0], b.viewport[1]
}

// Released reports whether Release was called.
func (b *Backend) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
