package shader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestCircleShadersValidate(t *testing.T) {
	for _, lang := range []Language{LanguageGLSL, LanguageWGSL} {
		t.Run(lang.String(), func(t *testing.T) {
			vs, fs := CircleShaders(lang)
			if err := vs.Validate(); err != nil {
				t.Errorf("vertex Validate() = %v", err)
			}
			if err := fs.Validate(); err != nil {
				t.Errorf("fragment Validate() = %v", err)
			}
			if vs.ShaderType() != ShaderTypeVertex || fs.ShaderType() != ShaderTypeFragment {
				t.Errorf("stages = %v/%v, want vertex/fragment", vs.ShaderType(), fs.ShaderType())
			}
		})
	}
}

func TestCircleShadersPositionLayout(t *testing.T) {
	for _, lang := range []Language{LanguageGLSL, LanguageWGSL} {
		t.Run(lang.String(), func(t *testing.T) {
			vs, fs := CircleShaders(lang)
			layouts := vs.VertexLayouts()
			if len(layouts) != 1 {
				t.Fatalf("VertexLayouts() len = %d, want 1", len(layouts))
			}
			if layouts[0] != common.PositionLayout {
				t.Errorf("VertexLayouts()[0] = %+v, want %+v", layouts[0], common.PositionLayout)
			}
			if fs.VertexLayouts() != nil {
				t.Errorf("fragment VertexLayouts() = %v, want nil", fs.VertexLayouts())
			}
		})
	}
}

func TestCircleShadersEntryPoints(t *testing.T) {
	tests := []struct {
		lang   Language
		vertex string
		frag   string
	}{
		{LanguageGLSL, "main", "main"},
		{LanguageWGSL, "vs_main", "fs_main"},
	}
	for _, tt := range tests {
		t.Run(tt.lang.String(), func(t *testing.T) {
			vs, fs := CircleShaders(tt.lang)
			if vs.EntryPoint() != tt.vertex {
				t.Errorf("vertex EntryPoint() = %q, want %q", vs.EntryPoint(), tt.vertex)
			}
			if fs.EntryPoint() != tt.frag {
				t.Errorf("fragment EntryPoint() = %q, want %q", fs.EntryPoint(), tt.frag)
			}
		})
	}
}

func TestGLSLVersion(t *testing.T) {
	vs, _ := CircleShaders(LanguageGLSL)
	v, profile := vs.Version()
	if v != 330 || profile != "core" {
		t.Errorf("Version() = %d %q, want 330 \"core\"", v, profile)
	}
	if vs.Module() != nil {
		t.Error("GLSL shader should not carry a wgpu module descriptor")
	}
}

func TestWGSLModuleAndBufferLayout(t *testing.T) {
	vs, _ := CircleShaders(LanguageWGSL)
	if m := vs.Module(); m == nil || m.WGSLDescriptor == nil || m.WGSLDescriptor.Code != vs.Source() {
		t.Fatal("Module() does not carry the WGSL source")
	}
	bl := vs.BufferLayouts()
	if len(bl) != 1 {
		t.Fatalf("BufferLayouts() len = %d, want 1", len(bl))
	}
	if bl[0].ArrayStride != 12 || len(bl[0].Attributes) != 1 {
		t.Fatalf("BufferLayouts()[0] = %+v", bl[0])
	}
	if bl[0].Attributes[0].Format != wgpu.VertexFormatFloat32x3 {
		t.Errorf("attribute format = %v, want Float32x3", bl[0].Attributes[0].Format)
	}
}

func TestValidateInvalidWGSL(t *testing.T) {
	s := NewShader("broken", ShaderTypeVertex, LanguageWGSL, "@vertex fn main( -> {")
	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want diagnostic")
	}
	if err.Error() == "" {
		t.Error("diagnostic is empty")
	}
}

func TestValidateGLSLErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"empty", "", ErrEmptySource},
		{"no version", "void main() {}", ErrUnsupportedVersion},
		{"old version", "#version 120\nvoid main() {}", ErrUnsupportedVersion},
		{"no main", "#version 330 core\nvoid helper() {}", ErrMissingEntryPoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewShader("s", ShaderTypeFragment, LanguageGLSL, tt.source).Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseGLSLIgnoresComments(t *testing.T) {
	src := "#version 330 core\n// layout (location = 1) in vec2 uv;\nlayout (location = 0) in vec3 aPos;\nvoid main() {}\n"
	layouts := parseGLSLVertexLayouts(src)
	if len(layouts) != 1 || layouts[0].Slot != 0 {
		t.Errorf("layouts = %+v, want only slot 0", layouts)
	}
}

func TestParseVertexLayoutsSkipsBuiltinStructs(t *testing.T) {
	src := `
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec3<f32>,
}
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
}
`
	layouts := parseVertexLayouts(src)
	if len(layouts) != 1 {
		t.Fatalf("len = %d, want 1", len(layouts))
	}
	if layouts[0].ArrayStride != 20 {
		t.Errorf("ArrayStride = %d, want 20", layouts[0].ArrayStride)
	}
	if got := layouts[0].Attributes[1].Offset; got != 12 {
		t.Errorf("uv offset = %d, want 12", got)
	}
}
