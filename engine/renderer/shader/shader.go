package shader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// ShaderType identifies the programmable stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage, run once per vertex of the mesh.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage, run once per covered pixel.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Language is the shading language a shader source is written in.
type Language int

const (
	// LanguageGLSL is GLSL, consumed by the OpenGL backend.
	LanguageGLSL Language = iota

	// LanguageWGSL is WGSL, consumed by the WebGPU backend.
	LanguageWGSL
)

func (l Language) String() string {
	switch l {
	case LanguageGLSL:
		return "glsl"
	case LanguageWGSL:
		return "wgsl"
	default:
		return "unknown"
	}
}

// MinGLSLVersion is the lowest #version the OpenGL backend accepts.
const MinGLSLVersion = 330

var (
	// ErrEmptySource is returned by Validate when the shader has no source text.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrMissingEntryPoint is returned by Validate when no entry point for the stage is declared.
	ErrMissingEntryPoint = errors.New("shader: missing entry point")

	// ErrUnsupportedVersion is returned by Validate when a GLSL source has no usable #version directive.
	ErrUnsupportedVersion = errors.New("shader: unsupported GLSL version")
)

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	language      Language
	entryPoint    string
	version       int
	profile       string
	vertexLayouts []common.VertexLayout
	bufferLayouts []wgpu.VertexBufferLayout
	module        *wgpu.ShaderModuleDescriptor
}

// Shader is a single shader stage source together with the metadata parsed from it:
// the entry point, the vertex input layout of vertex stages, and for WGSL the module
// descriptor the WebGPU backend compiles.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as a label and in diagnostics.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the shader source code.
	//
	// Returns:
	//   - string: the source exactly as it will be handed to the driver
	Source() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Language returns the shading language of the source.
	//
	// Returns:
	//   - Language: LanguageGLSL or LanguageWGSL
	Language() Language

	// EntryPoint returns the entry point function name for this shader.
	//
	// Returns:
	//   - string: "main" for GLSL, the @vertex/@fragment function name for WGSL, or empty if none was found
	EntryPoint() string

	// Version returns the GLSL #version directive.
	//
	// Returns:
	//   - int: the version number, 0 for WGSL or when the directive is missing
	//   - string: the profile, e.g. "core"
	Version() (int, string)

	// VertexLayouts returns the vertex inputs the stage consumes, one entry per attribute slot.
	// Fragment shaders return nil.
	//
	// Returns:
	//   - []common.VertexLayout: the attribute layouts in declaration order
	VertexLayouts() []common.VertexLayout

	// BufferLayouts returns the wgpu vertex buffer layouts parsed from a WGSL vertex stage.
	// GLSL shaders and fragment shaders return nil.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in declaration order
	BufferLayouts() []wgpu.VertexBufferLayout

	// Module returns the wgpu.ShaderModuleDescriptor for a WGSL shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor carrying the WGSL code and label, or nil for GLSL
	Module() *wgpu.ShaderModuleDescriptor

	// Validate checks the source without a GPU context. WGSL sources are fully parsed,
	// lowered and validated by naga; GLSL sources are checked for a supported #version
	// directive and a main entry point, the driver doing the real compile.
	//
	// Returns:
	//   - error: a diagnostic describing the first problem found, or nil
	Validate() error
}

var _ Shader = &shader{}

// NewShader creates a Shader from source text and parses its metadata.
//
// Parameters:
//   - key: a unique identifier for the shader, used as a label and in diagnostics
//   - shaderType: the stage the source is written for
//   - language: the shading language of source
//   - source: the shader source code
//
// Returns:
//   - Shader: the parsed shader
func NewShader(key string, shaderType ShaderType, language Language, source string) Shader {
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		language:   language,
	}

	switch language {
	case LanguageWGSL:
		s.entryPoint = parseEntryPoint(source, shaderType)
		s.module = &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		}
		if shaderType == ShaderTypeVertex {
			s.bufferLayouts = parseVertexLayouts(source)
			s.vertexLayouts = toVertexLayouts(s.bufferLayouts)
		}
	case LanguageGLSL:
		s.entryPoint = parseGLSLEntryPoint(source)
		s.version, s.profile = parseGLSLVersion(source)
		if shaderType == ShaderTypeVertex {
			s.vertexLayouts = parseGLSLVertexLayouts(source)
		}
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Language() Language {
	return s.language
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Version() (int, string) {
	return s.version, s.profile
}

func (s *shader) VertexLayouts() []common.VertexLayout {
	return s.vertexLayouts
}

func (s *shader) BufferLayouts() []wgpu.VertexBufferLayout {
	return s.bufferLayouts
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Validate() error {
	if s.source == "" {
		return fmt.Errorf("%s: %w", s.key, ErrEmptySource)
	}

	switch s.language {
	case LanguageWGSL:
		if _, err := naga.Compile(s.source); err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
	case LanguageGLSL:
		if s.version < MinGLSLVersion {
			return fmt.Errorf("%s: %w: #version %d", s.key, ErrUnsupportedVersion, s.version)
		}
	}

	if s.entryPoint == "" {
		return fmt.Errorf("%s: %w for %s stage", s.key, ErrMissingEntryPoint, s.shaderType)
	}
	return nil
}

// toVertexLayouts flattens wgpu buffer layouts into one VertexLayout per attribute.
func toVertexLayouts(layouts []wgpu.VertexBufferLayout) []common.VertexLayout {
	var out []common.VertexLayout
	for _, l := range layouts {
		for _, a := range l.Attributes {
			out = append(out, common.VertexLayout{
				Slot:       a.ShaderLocation,
				Components: formatComponents(a.Format),
				Stride:     int32(l.ArrayStride),
				Offset:     uintptr(a.Offset),
			})
		}
	}
	return out
}

func formatComponents(f wgpu.VertexFormat) int32 {
	for _, info := range wgslVertexFormatMap {
		if info.format == f {
			return info.components
		}
	}
	return 0
}
