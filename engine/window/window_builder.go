package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the initial window width.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height.
//
// Parameters:
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithClientAPI selects the graphics API the window's context is created for.
// OpenGL windows get a core-profile context made current on creation; ClientAPINone
// windows are meant for WebGPU surfaces.
//
// Parameters:
//   - api: ClientAPIOpenGL (default) or ClientAPINone
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithClientAPI(api ClientAPI) WindowBuilderOption {
	return func(w *engineWindow) {
		w.clientAPI = api
	}
}

// WithContextVersion sets the requested OpenGL context version. Defaults to 3.3.
//
// Parameters:
//   - major: the major version
//   - minor: the minor version
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithContextVersion(major, minor int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.contextMajor = major
		w.contextMinor = minor
	}
}

// WithSwapInterval sets the buffer swap interval of the OpenGL context.
// 1 (default) waits for vertical blank, 0 presents immediately.
//
// Parameters:
//   - interval: the number of vertical blanks to wait per swap
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSwapInterval(interval int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.swapInterval = interval
	}
}

// WithPlatform replaces the GLFW windowing library with a custom Platform.
//
// Parameters:
//   - p: the platform to create the window with
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithPlatform(p Platform) WindowBuilderOption {
	return func(w *engineWindow) {
		w.platform = p
	}
}
