package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
)

// ShaderErrorKind classifies a shader pipeline failure.
type ShaderErrorKind int

const (
	// CompileFailed means a single stage was rejected by the compiler.
	CompileFailed ShaderErrorKind = iota

	// LinkFailed means both stages compiled but could not be linked into a program.
	LinkFailed
)

func (k ShaderErrorKind) String() string {
	if k == LinkFailed {
		return "link failed"
	}
	return "compile failed"
}

var (
	// ErrCompileFailed matches any ShaderError of kind CompileFailed via errors.Is.
	ErrCompileFailed = errors.New("shader compile failed")

	// ErrLinkFailed matches any ShaderError of kind LinkFailed via errors.Is.
	ErrLinkFailed = errors.New("shader link failed")

	// ErrUnknownHandle is returned when a handle does not name a live GPU object of this backend.
	ErrUnknownHandle = errors.New("renderer: unknown handle")

	// ErrEmptyMesh is returned when uploading a mesh without vertices.
	ErrEmptyMesh = errors.New("renderer: mesh has no vertices")

	// ErrPipelineNotFound is returned when drawing with a pipeline key that was never registered.
	ErrPipelineNotFound = errors.New("renderer: pipeline not found")

	// ErrNoFrame is returned when a draw is issued outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")
)

// ShaderError carries the compiler or linker log of a failed shader stage or program.
type ShaderError struct {
	Kind  ShaderErrorKind
	Key   string
	Stage shader.ShaderType
	Log   string
}

func (e *ShaderError) Error() string {
	if e.Kind == LinkFailed {
		return fmt.Sprintf("%s: %s: %s", e.Key, e.Kind, e.Log)
	}
	return fmt.Sprintf("%s: %s shader %s: %s", e.Key, e.Stage, e.Kind, e.Log)
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ShaderError) Is(target error) bool {
	switch e.Kind {
	case LinkFailed:
		return target == ErrLinkFailed
	default:
		return target == ErrCompileFailed
	}
}

// GPUError is a non-fatal error reported by the device after a command was issued.
type GPUError struct {
	Code uint32
	Name string

	// Message is the driver's description, when the API provides one.
	Message string
}

func (e *GPUError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gpu error 0x%04X (%s): %s", e.Code, e.Name, e.Message)
	}
	return fmt.Sprintf("gpu error 0x%04X (%s)", e.Code, e.Name)
}
