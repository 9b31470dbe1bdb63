package window

import (
	"errors"
	"fmt"
)

// InitErrorKind classifies fatal failures that happen before the render loop starts.
type InitErrorKind int

const (
	// LibraryInitFailed means the windowing library could not start.
	LibraryInitFailed InitErrorKind = iota

	// WindowCreationFailed means the OS refused to create the window or its context (e.g. no display).
	WindowCreationFailed

	// LoaderFailed means graphics API entry points could not be resolved against the current context.
	LoaderFailed
)

var (
	// ErrLibraryInitFailed matches any InitError of kind LibraryInitFailed via errors.Is.
	ErrLibraryInitFailed = errors.New("windowing library initialization failed")

	// ErrWindowCreationFailed matches any InitError of kind WindowCreationFailed via errors.Is.
	ErrWindowCreationFailed = errors.New("window creation failed")

	// ErrLoaderFailed matches any InitError of kind LoaderFailed via errors.Is.
	ErrLoaderFailed = errors.New("graphics entry point loading failed")
)

// InitError is returned when window, context or loader setup fails.
// It wraps the underlying cause and matches its kind's sentinel through errors.Is.
type InitError struct {
	Kind InitErrorKind
	Err  error
}

// NewInitError creates an InitError of the given kind wrapping err.
//
// Parameters:
//   - kind: the failure classification
//   - err: the underlying cause, may be nil
//
// Returns:
//   - *InitError: the new error
func NewInitError(kind InitErrorKind, err error) *InitError {
	return &InitError{Kind: kind, Err: err}
}

func (e *InitError) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%v: %v", e.sentinel(), e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *InitError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *InitError) sentinel() error {
	switch e.Kind {
	case LibraryInitFailed:
		return ErrLibraryInitFailed
	case WindowCreationFailed:
		return ErrWindowCreationFailed
	default:
		return ErrLoaderFailed
	}
}
