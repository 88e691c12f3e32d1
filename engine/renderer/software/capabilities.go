package software

import (
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/** @brief A capability table built from configuration. Tests mutate it to reach unsupported paths. */
type TableCapabilities struct {
	Name        string
	FeatureSet  native.Features
	Usage       map[metadata.GraphicsFormat]metadata.GraphicsFormatUsage
	TextureSize int
	CubemapSize int
	SampleCount int
}

// NewTableCapabilities grants every known format its CPU-side usage set, minus
// the formats cfg lists as unsupported and MSAA levels above MaxSampleCount.
func NewTableCapabilities(cfg config.RendererConfig) *TableCapabilities {
	caps := &TableCapabilities{
		Name:        "Lumen Software Rasterizer",
		Usage:       make(map[metadata.GraphicsFormat]metadata.GraphicsFormatUsage),
		TextureSize: cfg.MaxTextureSize,
		CubemapSize: cfg.MaxCubemapSize,
		SampleCount: cfg.MaxSampleCount,
	}
	toggles := []struct {
		on      bool
		feature native.Features
	}{
		{cfg.Instancing, native.FeatureInstancing},
		{cfg.ComputeShaders, native.FeatureComputeShaders},
		{cfg.AsyncCompute, native.FeatureAsyncCompute},
		{cfg.GraphicsFence, native.FeatureGraphicsFence},
		{cfg.RayTracing, native.FeatureRayTracing},
		{cfg.Textures3D, native.FeatureTextures3D},
		{cfg.Texture2DArrays, native.FeatureTexture2DArrays | native.FeatureCubemapArrays},
		{cfg.AsyncGPUReadback, native.FeatureAsyncGPUReadback},
	}
	for _, t := range toggles {
		if t.on {
			caps.FeatureSet |= t.feature
		}
	}

	for _, f := range metadata.AllGraphicsFormats() {
		usage := metadata.DefaultUsage(f)
		for _, samples := range []int{2, 4, 8} {
			if samples > cfg.MaxSampleCount {
				usage &^= metadata.MSAAUsage(samples)
			}
		}
		caps.Usage[f] = usage
	}
	for _, name := range cfg.UnsupportedFormats {
		f, ok := metadata.ParseGraphicsFormat(name)
		if !ok {
			core.LogWarn("unknown graphics format %q in unsupported_formats", name)
			continue
		}
		caps.Usage[f] = metadata.UsageNone
	}
	return caps
}

func (c *TableCapabilities) DeviceName() string {
	return c.Name
}

func (c *TableCapabilities) Features() native.Features {
	return c.FeatureSet
}

func (c *TableCapabilities) FormatUsage(format metadata.GraphicsFormat) metadata.GraphicsFormatUsage {
	return c.Usage[format]
}

func (c *TableCapabilities) MaxTextureSize() int {
	return c.TextureSize
}

func (c *TableCapabilities) MaxCubemapSize() int {
	return c.CubemapSize
}

func (c *TableCapabilities) MaxSampleCount() int {
	return c.SampleCount
}

// Disable removes usage flags from format.
func (c *TableCapabilities) Disable(format metadata.GraphicsFormat, usage metadata.GraphicsFormatUsage) {
	c.Usage[format] &^= usage
}

// SetFeature toggles an optional feature.
func (c *TableCapabilities) SetFeature(feature native.Features, on bool) {
	if on {
		c.FeatureSet |= feature
	} else {
		c.FeatureSet &^= feature
	}
}
