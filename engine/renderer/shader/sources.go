package shader

import _ "embed"

// Keys of the built-in circle shaders.
const (
	CircleVertexKey   = "circle_vert"
	CircleFragmentKey = "circle_frag"
)

var (
	//go:embed assets/circle.vert.glsl
	circleVertexGLSL string

	//go:embed assets/circle.frag.glsl
	circleFragmentGLSL string

	//go:embed assets/circle.vert.wgsl
	circleVertexWGSL string

	//go:embed assets/circle.frag.wgsl
	circleFragmentWGSL string
)

// CircleShaders returns the fixed vertex and fragment shaders used to fill the circle mesh:
// a position passthrough and a constant orange (1.0, 0.5, 0.2, 1.0) fill.
//
// Parameters:
//   - language: the shading language the active backend consumes
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
func CircleShaders(language Language) (Shader, Shader) {
	if language == LanguageWGSL {
		return NewShader(CircleVertexKey, ShaderTypeVertex, LanguageWGSL, circleVertexWGSL),
			NewShader(CircleFragmentKey, ShaderTypeFragment, LanguageWGSL, circleFragmentWGSL)
	}
	return NewShader(CircleVertexKey, ShaderTypeVertex, LanguageGLSL, circleVertexGLSL),
		NewShader(CircleFragmentKey, ShaderTypeFragment, LanguageGLSL, circleFragmentGLSL)
}
