package window

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// ClientAPI selects which graphics API the window's context is created for.
type ClientAPI int

const (
	// ClientAPIOpenGL creates an OpenGL core-profile context and makes it current on creation.
	ClientAPIOpenGL ClientAPI = iota

	// ClientAPINone creates no context. Used with WebGPU, which brings its own surface.
	ClientAPINone
)

// String returns the API name used in log output.
func (c ClientAPI) String() string {
	if c == ClientAPINone {
		return "none"
	}
	return "opengl"
}

// PlatformWindowSpec carries everything the platform needs to create a native window.
type PlatformWindowSpec struct {
	Title        string
	Width        int
	Height       int
	ClientAPI    ClientAPI
	ContextMajor int
	ContextMinor int
	Resizable    bool
}

// Platform is the windowing library seam. The GLFW implementation is used by default;
// tests substitute their own through WithPlatform.
type Platform interface {
	// Init starts the windowing library.
	//
	// Returns:
	//   - error: error if the library cannot start
	Init() error

	// Terminate shuts the windowing library down, destroying any remaining windows.
	Terminate()

	// CreateWindow creates a native window according to spec.
	//
	// Parameters:
	//   - spec: the window and context configuration
	//
	// Returns:
	//   - PlatformWindow: the native window
	//   - error: error if the OS refuses to create the window or context
	CreateWindow(spec PlatformWindowSpec) (PlatformWindow, error)

	// PollEvents processes pending window events without blocking.
	PollEvents()

	// SwapInterval sets how many vertical blanks to wait before a buffer swap on the current context.
	//
	// Parameters:
	//   - interval: 0 for uncapped, 1 for vsync
	SwapInterval(interval int)

	// ProcAddress resolves a graphics API entry point against the current context.
	//
	// Parameters:
	//   - name: the entry point name
	//
	// Returns:
	//   - unsafe.Pointer: the function address, or nil if unresolved
	ProcAddress(name string) unsafe.Pointer
}

// PlatformWindow is a native window created by a Platform.
type PlatformWindow interface {
	// MakeContextCurrent binds the window's context to the calling thread.
	MakeContextCurrent()

	// ShouldClose reports whether the user has requested the window to close.
	ShouldClose() bool

	// SetShouldClose sets or clears the close request flag.
	SetShouldClose(value bool)

	// SwapBuffers presents the back buffer.
	SwapBuffers()

	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)

	// SurfaceDescriptor returns a WebGPU surface descriptor for the native window.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Destroy releases the native window and its context.
	Destroy()
}
