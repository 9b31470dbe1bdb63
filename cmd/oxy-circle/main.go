package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine"
	"github.com/Carmen-Shannon/oxy-circle/engine/config"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "oxy-circle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Optional YAML config file")
	backend := flag.String("backend", "", "Renderer backend (opengl, wgpu)")
	segments := flag.Int("segments", 0, "Number of circle segments (default 100)")
	radius := flag.Float64("radius", 0, "Circle radius in normalized device coordinates (default 0.5)")
	profile := flag.Bool("profile", false, "Log frame rate and memory statistics every second")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Open a window and draw a filled circle until it is closed.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags given on the command line override the config file.
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			if _, err := renderer.ParseBackendType(*backend); err != nil {
				flagErr = err
				return
			}
			cfg.Backend = *backend
		case "segments":
			cfg.Circle.Segments = *segments
		case "radius":
			cfg.Circle.Radius = float32(*radius)
		case "profile":
			cfg.Profile = *profile
		}
	})
	if flagErr != nil {
		return flagErr
	}

	return engine.NewEngine(engine.WithConfig(cfg)).Run()
}
