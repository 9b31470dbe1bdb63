package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
)

var (
	// ErrInvalidBuffer is reported when a renderable reaches the draw loop without a live
	// vertex buffer. It is fatal for the loop.
	ErrInvalidBuffer = errors.New("scene: renderable has no vertex buffer")

	// ErrNoRenderer is returned by DrawCalls when the scene has no renderer attached.
	ErrNoRenderer = errors.New("scene: no renderer attached")
)

// Renderable is everything one draw needs: which linked pipeline to use, which buffer to
// read, and which range of vertices to assemble with which topology.
type Renderable struct {
	Name        string
	PipelineKey string
	Buffer      common.BufferHandle
	Topology    common.Topology
	First       int32
	VertexCount int32
}

// Scene holds the renderables drawn each frame together with the Renderer that owns
// their GPU objects. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// Add appends a renderable to the draw list.
	//
	// Parameters:
	//   - r: the renderable to draw every frame
	Add(r Renderable)

	// Renderables returns a copy of the draw list in draw order.
	Renderables() []Renderable

	// Count returns the number of renderables in the scene.
	Count() int

	// DrawCalls issues one draw per renderable, in the order they were added.
	// An inactive scene draws nothing. Must be called between BeginFrame and EndFrame on the renderer.
	//
	// Returns:
	//   - error: ErrInvalidBuffer when a renderable has a zero buffer handle, or the renderer's draw error
	DrawCalls() error

	// Clear removes all renderables without releasing their GPU objects.
	Clear()

	// Release destroys the pipelines and then the buffers referenced by the renderables
	// and empties the scene.
	Release()
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name        string
	active      bool
	r           renderer.Renderer
	renderables []Renderable
}

var _ Scene = &scene{}

// NewScene creates a Scene drawing through the given renderer.
//
// Parameters:
//   - name: the scene identifier
//   - r: the renderer owning the GPU objects of the renderables
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene, active by default
func NewScene(name string, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		active: true,
		r:      r,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Add(r Renderable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderables = append(s.renderables, r)
}

func (s *scene) Renderables() []Renderable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Renderable, len(s.renderables))
	copy(out, s.renderables)
	return out
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.renderables)
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return nil
	}
	if s.r == nil {
		return fmt.Errorf("%q: %w", s.name, ErrNoRenderer)
	}

	for _, rd := range s.renderables {
		if rd.Buffer == 0 {
			return fmt.Errorf("%q: %w", rd.Name, ErrInvalidBuffer)
		}
		if err := s.r.DrawCall(rd.PipelineKey, rd.Buffer, rd.Topology, rd.First, rd.VertexCount); err != nil {
			return fmt.Errorf("%q: %w", rd.Name, err)
		}
	}
	return nil
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderables = nil
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r != nil {
		released := make(map[string]bool)
		for _, rd := range s.renderables {
			if rd.PipelineKey != "" && !released[rd.PipelineKey] {
				s.r.ReleasePipeline(rd.PipelineKey)
				released[rd.PipelineKey] = true
			}
		}
		for _, rd := range s.renderables {
			if rd.Buffer != 0 {
				s.r.ReleaseBuffer(rd.Buffer)
			}
		}
	}
	s.renderables = nil
}
