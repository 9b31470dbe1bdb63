package window

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwPlatform drives the GLFW library.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
type glfwPlatform struct{}

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	window *glfw.Window
}

var (
	_ Platform       = glfwPlatform{}
	_ PlatformWindow = &glfwWindow{}
)

func newGLFWPlatform() Platform {
	return glfwPlatform{}
}

func (glfwPlatform) Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	return nil
}

func (glfwPlatform) Terminate() {
	glfw.Terminate()
}

// CreateWindow applies the context hints for the requested client API and creates the window.
// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
func (glfwPlatform) CreateWindow(spec PlatformWindowSpec) (PlatformWindow, error) {
	glfw.DefaultWindowHints()
	if spec.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	switch spec.ClientAPI {
	case ClientAPINone:
		// WebGPU provides its own graphics API, so disable OpenGL context creation.
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, spec.ContextMajor)
		glfw.WindowHint(glfw.ContextVersionMinor, spec.ContextMinor)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	win, err := glfw.CreateWindow(spec.Width, spec.Height, spec.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}

	// Escape closes the window; it is the only input the demo reacts to.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	return &glfwWindow{window: win}, nil
}

// PollEvents polls GLFW for pending events without blocking.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func (glfwPlatform) PollEvents() {
	glfw.PollEvents()
}

func (glfwPlatform) SwapInterval(interval int) {
	glfw.SwapInterval(interval)
}

func (glfwPlatform) ProcAddress(name string) unsafe.Pointer {
	return glfw.GetProcAddress(name)
}

func (g *glfwWindow) MakeContextCurrent() {
	g.window.MakeContextCurrent()
}

func (g *glfwWindow) ShouldClose() bool {
	return g.window.ShouldClose()
}

func (g *glfwWindow) SetShouldClose(value bool) {
	g.window.SetShouldClose(value)
}

func (g *glfwWindow) SwapBuffers() {
	g.window.SwapBuffers()
}

// FramebufferSize returns pixel dimensions, which differ from window size on high-DPI displays.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.GetFramebufferSize
func (g *glfwWindow) FramebufferSize() (int, int) {
	return g.window.GetFramebufferSize()
}

// SurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
// Uses the wgpuglfw bridge package which has per-platform implementations (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func (g *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) Destroy() {
	g.window.Destroy()
}
