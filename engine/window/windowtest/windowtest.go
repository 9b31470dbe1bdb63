// Package windowtest provides an in-memory window.Platform for exercising the engine without a display.
package windowtest

import (
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// Platform records every call made against it. Set the error fields to make the
// corresponding step fail.
type Platform struct {
	mu sync.Mutex

	// InitErr is returned from Init when set.
	InitErr error

	// CreateErr is returned from CreateWindow when set.
	CreateErr error

	// CloseAfterPolls makes the created window report ShouldClose after this many PollEvents
	// calls. Zero means the window only closes when asked to.
	CloseAfterPolls int

	// FramebufferWidth and FramebufferHeight override the reported drawable size when non-zero.
	FramebufferWidth, FramebufferHeight int

	calls  []string
	window *Window
	spec   window.PlatformWindowSpec
}

var _ window.Platform = &Platform{}

// NewPlatform returns a Platform whose windows close after the given number of polls.
func NewPlatform(closeAfterPolls int) *Platform {
	return &Platform{CloseAfterPolls: closeAfterPolls}
}

// Calls returns the recorded call names in order.
func (p *Platform) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// Window returns the last window created, or nil.
func (p *Platform) Window() *Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

// Spec returns the spec passed to the last CreateWindow call.
func (p *Platform) Spec() window.PlatformWindowSpec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spec
}

func (p *Platform) record(name string) {
	p.mu.Lock()
	p.calls = append(p.calls, name)
	p.mu.Unlock()
}

func (p *Platform) Init() error {
	p.record("Init")
	return p.InitErr
}

func (p *Platform) Terminate() {
	p.record("Terminate")
}

func (p *Platform) CreateWindow(spec window.PlatformWindowSpec) (window.PlatformWindow, error) {
	p.record("CreateWindow")
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	w := &Window{
		platform:   p,
		closeAfter: p.CloseAfterPolls,
		width:      spec.Width,
		height:     spec.Height,
	}
	if p.FramebufferWidth > 0 {
		w.width = p.FramebufferWidth
	}
	if p.FramebufferHeight > 0 {
		w.height = p.FramebufferHeight
	}
	p.mu.Lock()
	p.window = w
	p.spec = spec
	p.mu.Unlock()
	return w, nil
}

func (p *Platform) PollEvents() {
	p.record("PollEvents")
	if w := p.Window(); w != nil {
		w.poll()
	}
}

func (p *Platform) SwapInterval(interval int) {
	p.record("SwapInterval")
}

func (p *Platform) ProcAddress(name string) unsafe.Pointer {
	return nil
}

// Window is the in-memory PlatformWindow created by Platform.
type Window struct {
	platform *Platform

	mu          sync.Mutex
	closeAfter  int
	polls       int
	shouldClose bool
	swaps       int
	destroyed   bool
	current     bool
	width       int
	height      int
}

var _ window.PlatformWindow = &Window{}

func (w *Window) poll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.polls++
	if w.closeAfter > 0 && w.polls >= w.closeAfter {
		w.shouldClose = true
	}
}

func (w *Window) MakeContextCurrent() {
	w.platform.record("MakeContextCurrent")
	w.mu.Lock()
	w.current = true
	w.mu.Unlock()
}

func (w *Window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shouldClose
}

func (w *Window) SetShouldClose(value bool) {
	w.mu.Lock()
	w.shouldClose = value
	w.mu.Unlock()
}

func (w *Window) SwapBuffers() {
	w.mu.Lock()
	w.swaps++
	w.mu.Unlock()
}

func (w *Window) FramebufferSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *Window) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return nil
}

func (w *Window) Destroy() {
	w.platform.record("Destroy")
	w.mu.Lock()
	w.destroyed = true
	w.mu.Unlock()
}

// Swaps returns how many times SwapBuffers was called.
func (w *Window) Swaps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.swaps
}

// Polls returns how many event polls the window has seen.
func (w *Window) Polls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polls
}

// Destroyed reports whether Destroy was called.
func (w *Window) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// ContextCurrent reports whether MakeContextCurrent was called.
func (w *Window) ContextCurrent() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
