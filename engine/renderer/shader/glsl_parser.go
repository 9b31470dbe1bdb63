package shader

import (
	"regexp"
	"strconv"

	"github.com/Carmen-Shannon/oxy-circle/common"
)

var (
	// glslVersionRegex captures the version number and optional profile from a #version directive
	glslVersionRegex = regexp.MustCompile(`(?m)^\s*#version\s+(\d+)(?:\s+(\w+))?`)

	// glslMainRegex matches the void main() entry point
	glslMainRegex = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(?:void)?\s*\)`)

	// glslInputRegex captures location, type and name of a layout-qualified vertex input
	glslInputRegex = regexp.MustCompile(`layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*in\s+(float|vec2|vec3|vec4)\s+(\w+)\s*;`)
)

// glslComponentCount maps GLSL float input types to their component count.
var glslComponentCount = map[string]int32{
	"float": 1,
	"vec2":  2,
	"vec3":  3,
	"vec4":  4,
}

// parseGLSLVersion reads the #version directive, e.g. "330 core".
//
// Parameters:
//   - source: the raw GLSL source code string
//
// Returns:
//   - int: the version number, or 0 when the directive is missing
//   - string: the profile name, or an empty string when none is given
func parseGLSLVersion(source string) (int, string) {
	m := glslVersionRegex.FindStringSubmatch(stripComments(source))
	if m == nil {
		return 0, ""
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, ""
	}
	return v, m[2]
}

// parseGLSLEntryPoint returns "main" when the source declares it.
func parseGLSLEntryPoint(source string) string {
	if glslMainRegex.MatchString(stripComments(source)) {
		return "main"
	}
	return ""
}

// parseGLSLVertexLayouts builds one tightly packed layout per layout-qualified input.
// Each input is assumed to live in its own buffer binding, matching how a single VAO
// attribute pointer is set up per location.
//
// Parameters:
//   - source: the raw GLSL source code string
//
// Returns:
//   - []common.VertexLayout: the inputs in declaration order
func parseGLSLVertexLayouts(source string) []common.VertexLayout {
	matches := glslInputRegex.FindAllStringSubmatch(stripComments(source), -1)
	layouts := make([]common.VertexLayout, 0, len(matches))
	for _, m := range matches {
		loc, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		n := glslComponentCount[m[2]]
		layouts = append(layouts, common.VertexLayout{
			Slot:       uint32(loc),
			Components: n,
			Stride:     n * 4,
		})
	}
	return layouts
}
