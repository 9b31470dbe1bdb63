// Package config holds the demo's tunable parameters and loads overrides from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
	"github.com/Carmen-Shannon/oxy-circle/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Default circle parameters.
const (
	DefaultSegments = 100
	DefaultRadius   = 0.5
)

// maxConfigSize bounds the config file read into memory.
const maxConfigSize = 1 << 20

var (
	// ErrConfigTooLarge is returned when the config file exceeds 1 MiB.
	ErrConfigTooLarge = errors.New("config file too large")

	// ErrInvalidClearColor is returned when clear_color does not hold exactly four components.
	ErrInvalidClearColor = errors.New("clear_color must have 4 components")
)

// WindowConfig holds the window parameters.
type WindowConfig struct {
	Title        string `yaml:"title"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	SwapInterval *int   `yaml:"swap_interval"` // pointer to distinguish unset vs 0
}

// CircleConfig holds the mesh parameters.
type CircleConfig struct {
	Segments int     `yaml:"segments"`
	Radius   float32 `yaml:"radius"`
}

// Config is the complete set of parameters for one run.
// Zero-valued fields in a loaded file fall back to the defaults.
type Config struct {
	Backend       string       `yaml:"backend"`
	ForceSoftware bool         `yaml:"force_software"`
	Profile       bool         `yaml:"profile"`
	ClearColor    []float32    `yaml:"clear_color"`
	Window        WindowConfig `yaml:"window"`
	Circle        CircleConfig `yaml:"circle"`
}

// Default returns the built-in configuration: an 800x600 "OpenGL Test" window on the OpenGL
// backend drawing a 100-segment circle of radius 0.5.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	swap := 1
	c := renderer.DefaultClearColor
	return Config{
		Backend:    renderer.BackendTypeOpenGL.String(),
		ClearColor: []float32{c[0], c[1], c[2], c[3]},
		Window: WindowConfig{
			Title:        window.DefaultTitle,
			Width:        window.DefaultWidth,
			Height:       window.DefaultHeight,
			SwapInterval: &swap,
		},
		Circle: CircleConfig{
			Segments: DefaultSegments,
			Radius:   DefaultRadius,
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
// An empty path or a missing file yields the defaults.
//
// Parameters:
//   - path: the config file path, may be empty
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			common.Logger().Debug("config file not found, using defaults", "path", path)
			return Default(), nil
		}
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrConfigTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	common.Logger().Info("loaded config", "path", path, "size", info.Size())
	return cfg, nil
}

// Parse decodes YAML and overlays it on the defaults.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the document is malformed or invalid
func Parse(data []byte) (Config, error) {
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := file.merge(Default())
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// merge fills every zero field of c from def.
func (c Config) merge(def Config) Config {
	out := Config{
		Backend:       common.Coalesce(c.Backend, def.Backend),
		ForceSoftware: c.ForceSoftware,
		Profile:       c.Profile,
		ClearColor:    c.ClearColor,
		Window: WindowConfig{
			Title:        common.Coalesce(c.Window.Title, def.Window.Title),
			Width:        common.Coalesce(c.Window.Width, def.Window.Width),
			Height:       common.Coalesce(c.Window.Height, def.Window.Height),
			SwapInterval: common.Coalesce(c.Window.SwapInterval, def.Window.SwapInterval),
		},
		Circle: CircleConfig{
			Segments: common.Coalesce(c.Circle.Segments, def.Circle.Segments),
			Radius:   common.Coalesce(c.Circle.Radius, def.Circle.Radius),
		},
	}
	if len(out.ClearColor) == 0 {
		out.ClearColor = def.ClearColor
	}
	return out
}

// Validate checks the fields that cannot be corrected by falling back to a default.
//
// Returns:
//   - error: the first problem found, or nil
func (c Config) Validate() error {
	if _, err := renderer.ParseBackendType(c.Backend); err != nil {
		return err
	}
	if len(c.ClearColor) != 4 {
		return fmt.Errorf("got %d: %w", len(c.ClearColor), ErrInvalidClearColor)
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("window size %dx%d must not be negative", c.Window.Width, c.Window.Height)
	}
	return nil
}

// BackendType returns the parsed backend type.
//
// Returns:
//   - renderer.RendererBackendType: the backend, OpenGL if the name is unknown
func (c Config) BackendType() renderer.RendererBackendType {
	t, _ := renderer.ParseBackendType(c.Backend)
	return t
}

// ClearColorVec returns the clear color as an RGBA vector.
//
// Returns:
//   - mgl32.Vec4: the clear color, the default if the slice is malformed
func (c Config) ClearColorVec() mgl32.Vec4 {
	if len(c.ClearColor) != 4 {
		return renderer.DefaultClearColor
	}
	return mgl32.Vec4{c.ClearColor[0], c.ClearColor[1], c.ClearColor[2], c.ClearColor[3]}
}
