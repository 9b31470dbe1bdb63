package window

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Default window parameters.
const (
	DefaultTitle  = "OpenGL Test"
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Window provides an OS window, its graphics context and event polling.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// ShouldClose reports whether the window has been asked to close.
	// Checked once per render loop iteration.
	//
	// Returns:
	//   - bool: true once the user (or the program) requested the window to close
	ShouldClose() bool

	// RequestClose asks the window to close at the end of the current iteration.
	RequestClose()

	// SwapBuffers presents the back buffer of the window's OpenGL context.
	// It is a no-op for windows created without a client API.
	SwapBuffers()

	// PollEvents processes pending window and input events without blocking.
	PollEvents()

	// FramebufferSize returns the current drawable size in pixels.
	// On high-DPI displays this differs from the requested window size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	FramebufferSize() (width, height int)

	// ProcAddress resolves a graphics API entry point against the window's current context.
	// Used by the function-pointer loader.
	//
	// Parameters:
	//   - name: the entry point name
	//
	// Returns:
	//   - unsafe.Pointer: the function address, or nil if unresolved
	ProcAddress(name string) unsafe.Pointer

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// ClientAPI returns the graphics API the window's context was created for.
	//
	// Returns:
	//   - ClientAPI: ClientAPIOpenGL or ClientAPINone
	ClientAPI() ClientAPI

	// Title returns the window title.
	//
	// Returns:
	//   - string: the title shown in the title bar
	Title() string

	// Width returns the window client area width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the window client area height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// Close destroys the window and terminates the windowing library.
	// Calling Close more than once is a no-op.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration and the platform window it drives.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// clientAPI selects the context type created with the window.
	clientAPI ClientAPI

	// contextMajor and contextMinor are the requested OpenGL context version.
	contextMajor, contextMinor int

	// swapInterval is applied to the OpenGL context right after it becomes current.
	swapInterval int

	// platform is the windowing library backing this window.
	platform Platform

	// native is the platform window, nil once closed.
	native PlatformWindow
}

var _ Window = &engineWindow{}

// NewWindow initializes the windowing library, creates the window and, for OpenGL windows,
// makes its context current on the calling thread. The calling goroutine is locked to its
// OS thread because graphics contexts are thread-bound.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: an *InitError of kind LibraryInitFailed or WindowCreationFailed
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:        DefaultTitle,
		width:        DefaultWidth,
		height:       DefaultHeight,
		clientAPI:    ClientAPIOpenGL,
		contextMajor: 3,
		contextMinor: 3,
		swapInterval: 1,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.platform == nil {
		w.platform = newGLFWPlatform()
	}

	runtime.LockOSThread()

	log := common.Logger()
	if err := w.platform.Init(); err != nil {
		log.Error("failed to initialize windowing library", "error", err)
		return nil, NewInitError(LibraryInitFailed, err)
	}

	native, err := w.platform.CreateWindow(PlatformWindowSpec{
		Title:        w.title,
		Width:        w.width,
		Height:       w.height,
		ClientAPI:    w.clientAPI,
		ContextMajor: w.contextMajor,
		ContextMinor: w.contextMinor,
		Resizable:    false,
	})
	if err != nil {
		log.Error("failed to create window", "title", w.title, "width", w.width, "height", w.height, "error", err)
		w.platform.Terminate()
		return nil, NewInitError(WindowCreationFailed, err)
	}
	if native == nil {
		w.platform.Terminate()
		return nil, NewInitError(WindowCreationFailed, fmt.Errorf("platform returned no window"))
	}
	w.native = native

	if w.clientAPI == ClientAPIOpenGL {
		native.MakeContextCurrent()
		w.platform.SwapInterval(w.swapInterval)
	}

	// Requested size may differ from the framebuffer on high-DPI displays.
	w.width, w.height = native.FramebufferSize()

	log.Info("window created", "title", w.title, "width", w.width, "height", w.height, "api", w.clientAPI.String())
	return w, nil
}

func (w *engineWindow) ShouldClose() bool {
	if w.native == nil {
		return true
	}
	return w.native.ShouldClose()
}

func (w *engineWindow) RequestClose() {
	if w.native != nil {
		w.native.SetShouldClose(true)
	}
}

func (w *engineWindow) SwapBuffers() {
	if w.native == nil || w.clientAPI != ClientAPIOpenGL {
		return
	}
	w.native.SwapBuffers()
}

func (w *engineWindow) PollEvents() {
	if w.native == nil {
		return
	}
	w.platform.PollEvents()
}

func (w *engineWindow) FramebufferSize() (int, int) {
	if w.native == nil {
		return w.width, w.height
	}
	w.width, w.height = w.native.FramebufferSize()
	return w.width, w.height
}

func (w *engineWindow) ProcAddress(name string) unsafe.Pointer {
	return w.platform.ProcAddress(name)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.SurfaceDescriptor()
}

func (w *engineWindow) ClientAPI() ClientAPI {
	return w.clientAPI
}

func (w *engineWindow) Title() string {
	return w.title
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window is not initialized")
	}
	if w.native == nil {
		return nil
	}
	w.native.SetShouldClose(true)
	w.native.Destroy()
	w.native = nil
	w.platform.Terminate()
	common.Logger().Debug("window destroyed", "title", w.title)
	return nil
}
