package renderer

import (
	"errors"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// LoadEntryPoints resolves the OpenGL 3.3 core functions against the context current on
// the calling thread. It must run after the window's context is made current and before
// any other gl call.
//
// Parameters:
//   - getProcAddress: resolves an entry point name, typically Window.ProcAddress
//
// Returns:
//   - error: a *window.InitError of kind LoaderFailed
func LoadEntryPoints(getProcAddress func(name string) unsafe.Pointer) error {
	if getProcAddress == nil {
		return window.NewInitError(window.LoaderFailed, errors.New("no proc address resolver"))
	}
	if err := gl.InitWithProcAddrFunc(getProcAddress); err != nil {
		return window.NewInitError(window.LoaderFailed, err)
	}
	return nil
}
