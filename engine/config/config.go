package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/lumen/engine/core"
)

type Config struct {
	Log         LogConfig         `toml:"log"`
	Renderer    RendererConfig    `toml:"renderer"`
	Screen      ScreenConfig      `toml:"screen"`
	FrameTiming FrameTimingConfig `toml:"frame_timing"`
	HDR         HDRConfig         `toml:"hdr"`
	LightProbes LightProbeConfig  `toml:"light_probes"`
}

type LogConfig struct {
	/** @brief One of debug, info, warn, error. */
	Level string `toml:"level"`
}

type RendererConfig struct {
	/** @brief The native backend: "software" or "vulkan" (capabilities probed from the device). */
	Backend         string `toml:"backend"`
	ApplicationName string `toml:"application_name"`
	MaxTextureSize  int    `toml:"max_texture_size"`
	MaxCubemapSize  int    `toml:"max_cubemap_size"`
	/** @brief Largest MSAA sample count the device can render to. */
	MaxSampleCount int `toml:"max_sample_count"`
	/** @brief GraphicsFormat names the device reports as unsupported for every usage. */
	UnsupportedFormats []string `toml:"unsupported_formats"`

	Instancing       bool `toml:"instancing"`
	ComputeShaders   bool `toml:"compute_shaders"`
	AsyncCompute     bool `toml:"async_compute"`
	GraphicsFence    bool `toml:"graphics_fence"`
	RayTracing       bool `toml:"ray_tracing"`
	Textures3D       bool `toml:"textures_3d"`
	Texture2DArrays  bool `toml:"texture_2d_arrays"`
	AsyncGPUReadback bool `toml:"async_gpu_readback"`

	/** @brief Size of the temporary render texture pool before the oldest free entry is dropped. */
	TemporaryRTPoolSize int `toml:"temporary_rt_pool_size"`
	/** @brief Workers serving async compute and readback requests. */
	JobWorkers int `toml:"job_workers"`
}

type ScreenConfig struct {
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	RefreshRate    float64 `toml:"refresh_rate"`
	FullScreenMode string  `toml:"full_screen_mode"`
	DPI            float32 `toml:"dpi"`
	Title          string  `toml:"title"`
}

type FrameTimingConfig struct {
	Enabled     bool `toml:"enabled"`
	HistorySize int  `toml:"history_size"`
}

type HDRDisplayConfig struct {
	Name                  string  `toml:"name"`
	Available             bool    `toml:"available"`
	RuntimeSwitchable     bool    `toml:"runtime_switchable"`
	AutomaticTonemapping  bool    `toml:"automatic_tonemapping"`
	MaxToneMapLuminance   int     `toml:"max_tone_map_luminance"`
	MinToneMapLuminance   int     `toml:"min_tone_map_luminance"`
	MaxFullFrameLuminance int     `toml:"max_full_frame_luminance"`
	PaperWhiteNits        float32 `toml:"paper_white_nits"`
}

type HDRConfig struct {
	Displays []HDRDisplayConfig `toml:"displays"`
}

type LightProbeConfig struct {
	/** @brief Probe positions as [x, y, z] triples. */
	Positions [][3]float32 `toml:"positions"`
	/** @brief Ambient colour applied to the DC term of each probe, as [r, g, b]. */
	Ambient [][3]float32 `toml:"ambient"`
}

// Default returns a configuration with every value set.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Renderer: RendererConfig{
			Backend:             "software",
			ApplicationName:     "Lumen",
			MaxTextureSize:      16384,
			MaxCubemapSize:      16384,
			MaxSampleCount:      8,
			Instancing:          true,
			ComputeShaders:      true,
			AsyncCompute:        true,
			GraphicsFence:       true,
			RayTracing:          false,
			Textures3D:          true,
			Texture2DArrays:     true,
			AsyncGPUReadback:    true,
			TemporaryRTPoolSize: 32,
			JobWorkers:          2,
		},
		Screen: ScreenConfig{
			Width:          1280,
			Height:         720,
			RefreshRate:    60,
			FullScreenMode: "windowed",
			DPI:            96,
			Title:          "Lumen",
		},
		FrameTiming: FrameTimingConfig{
			Enabled:     true,
			HistorySize: 120,
		},
		HDR: HDRConfig{
			Displays: []HDRDisplayConfig{
				{
					Name:                  "primary",
					Available:             false,
					MaxToneMapLuminance:   1000,
					MinToneMapLuminance:   0,
					MaxFullFrameLuminance: 600,
					PaperWhiteNits:        160,
				},
			},
		},
	}
}

// Parse decodes data on top of the defaults, so a partial file only overrides what it names.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as TOML to path.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	if c.Renderer.Backend != "software" && c.Renderer.Backend != "vulkan" {
		return core.InvalidArgument("renderer.backend must be \"software\" or \"vulkan\", got %q", c.Renderer.Backend)
	}
	if c.Renderer.MaxTextureSize <= 0 {
		return core.InvalidArgument("renderer.max_texture_size must be > 0")
	}
	if c.Renderer.MaxCubemapSize <= 0 {
		return core.InvalidArgument("renderer.max_cubemap_size must be > 0")
	}
	switch c.Renderer.MaxSampleCount {
	case 1, 2, 4, 8:
	default:
		return core.InvalidArgument("renderer.max_sample_count must be 1, 2, 4 or 8, got %d", c.Renderer.MaxSampleCount)
	}
	if c.Renderer.JobWorkers < 1 {
		return core.InvalidArgument("renderer.job_workers must be >= 1")
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return core.InvalidArgument("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.FrameTiming.HistorySize < 1 {
		return core.InvalidArgument("frame_timing.history_size must be >= 1")
	}
	if len(c.LightProbes.Ambient) != 0 && len(c.LightProbes.Ambient) != len(c.LightProbes.Positions) {
		return core.InvalidArgument("light_probes.ambient must be empty or match light_probes.positions")
	}
	return nil
}
