// Package config handles scenetool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Light   LightConfig   `yaml:"light"`
	Scene   SceneConfig   `yaml:"scene"`
	Import  ImportConfig  `yaml:"import"`
	Camera  CameraConfig  `yaml:"camera"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds the viewport and shadow settings.
type RenderConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FovY   float32 `yaml:"fov"` // Degrees
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"` // 0 selects an infinite far plane
	// Cascades is the shadow cascade count.
	Cascades    int     `yaml:"cascades"`
	LinearBlend float32 `yaml:"linear_blend"`
}

// Aspect returns Width / Height.
func (r RenderConfig) Aspect() float32 {
	if r.Height == 0 {
		return 1
	}
	return float32(r.Width) / float32(r.Height)
}

// LightConfig holds the sun used when the scene has no directional light.
type LightConfig struct {
	SunLongitude  float32 `yaml:"sun_longitude"` // Degrees around Y
	SunLatitude   float32 `yaml:"sun_latitude"`  // Degrees above the horizon
	UseSceneLight bool    `yaml:"use_scene_light"`
}

// SceneConfig selects what to load and how to play it.
type SceneConfig struct {
	Path string `yaml:"path"`
	// Index picks the glTF scene; -1 uses the file's default.
	Index      int                `yaml:"index"`
	Animations []string           `yaml:"animations"`
	Hidden     []string           `yaml:"hidden"`
	Emission   map[string]float32 `yaml:"emission"`
	Frames     int                `yaml:"frames"`
	FrameRate  int                `yaml:"frame_rate"`
}

// ImportConfig holds scene import settings.
type ImportConfig struct {
	Workers int `yaml:"workers"` // 0 uses GOMAXPROCS
}

// CameraConfig holds the orbit camera smoothing spring.
type CameraConfig struct {
	SpringFrequency float64 `yaml:"spring_frequency"`
	SpringDamping   float64 `yaml:"spring_damping"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:       1280,
			Height:      720,
			FovY:        60,
			Near:        0.1,
			Far:         0,
			Cascades:    3,
			LinearBlend: 0.5,
		},
		Light: LightConfig{
			SunLongitude:  45,
			SunLatitude:   45,
			UseSceneLight: true,
		},
		Scene: SceneConfig{
			Index:     -1,
			Frames:    1,
			FrameRate: 60,
		},
		Import: ImportConfig{
			Workers: 0,
		},
		Camera: CameraConfig{
			SpringFrequency: 6.0,
			SpringDamping:   1.0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// normalize replaces out-of-range values with usable ones.
func (c *Config) normalize() {
	if c.Render.Cascades <= 0 {
		c.Render.Cascades = 3
	}
	c.Render.LinearBlend = max(0, min(c.Render.LinearBlend, 1))
	if c.Scene.FrameRate <= 0 {
		c.Scene.FrameRate = 60
	}
	if c.Scene.Frames < 1 {
		c.Scene.Frames = 1
	}
}
