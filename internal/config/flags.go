package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagScene    = flag.String("scene", "", "Path to a glTF/GLB scene")
	flagCascades = flag.Int("cascades", 0, "Shadow cascade count")
	flagBlend    = flag.Float64("blend", -1, "Linear split blend ratio (0-1)")
	flagFrames   = flag.Int("frames", 0, "Frames to evaluate")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
	if *flagCascades > 0 {
		cfg.Render.Cascades = *flagCascades
	}
	if *flagBlend >= 0 {
		cfg.Render.LinearBlend = float32(min(*flagBlend, 1))
	}
	if *flagFrames > 0 {
		cfg.Scene.Frames = *flagFrames
	}
}
