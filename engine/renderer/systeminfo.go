package renderer

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// SystemInfo answers capability questions about the graphics device.
type SystemInfo struct {
	caps native.Capabilities
}

func newSystemInfo(caps native.Capabilities) *SystemInfo {
	return &SystemInfo{caps: caps}
}

func (s *SystemInfo) GraphicsDeviceName() string {
	return s.caps.DeviceName()
}

func (s *SystemInfo) IsFormatSupported(format metadata.GraphicsFormat, usage metadata.GraphicsFormatUsage) bool {
	return native.IsFormatSupported(s.caps, format, usage)
}

// SupportsRenderTextureFormat reports whether a legacy render texture format can be rendered to.
func (s *SystemInfo) SupportsRenderTextureFormat(format metadata.RenderTextureFormat) bool {
	if format.IsDepthOnly() {
		return s.IsFormatSupported(metadata.FormatD24_UNorm_S8_UInt, metadata.UsageRender) ||
			s.IsFormatSupported(metadata.FormatD32_SFloat, metadata.UsageRender)
	}
	f, ok := format.GraphicsFormat(metadata.RenderTextureReadWriteLinear)
	return ok && s.IsFormatSupported(f, metadata.UsageRender)
}

func (s *SystemInfo) SupportsTextureFormat(format metadata.TextureFormat) bool {
	f := format.GraphicsFormat(false)
	return s.IsFormatSupported(f, metadata.UsageSample)
}

/**
 * @brief Returns format when it supports usage, otherwise the closest
 * supported format: the sRGB or linear counterpart first, then a format of
 * the same kind with at least as many channels, then any color format with
 * at least as many channels. Depth formats only fall back to depth formats. FormatNone when nothing fits.
 */
func (s *SystemInfo) GetCompatibleFormat(format metadata.GraphicsFormat, usage metadata.GraphicsFormatUsage) metadata.GraphicsFormat {
	if s.IsFormatSupported(format, usage) {
		return format
	}
	info, ok := format.Info()
	if !ok {
		return metadata.FormatNone
	}
	if v := format.SRGBVariant(!info.SRGB); v != format && s.IsFormatSupported(v, usage) {
		return v
	}

	all := metadata.AllGraphicsFormats()
	pick := func(match func(c metadata.FormatInfo) bool) metadata.GraphicsFormat {
		best, bestSize := metadata.FormatNone, 0
		for _, f := range all {
			c, _ := f.Info()
			if c.Components < info.Components || !match(c) || !s.IsFormatSupported(f, usage) {
				continue
			}
			if best == metadata.FormatNone || c.BlockSize < bestSize {
				best, bestSize = f, c.BlockSize
			}
		}
		return best
	}
	if f := pick(func(c metadata.FormatInfo) bool { return c.Kind == info.Kind && c.SRGB == info.SRGB }); f != metadata.FormatNone {
		return f
	}
	if format.IsDepthStencil() {
		return metadata.FormatNone
	}
	return pick(func(c metadata.FormatInfo) bool {
		return c.Kind != metadata.FormatKindDepth && c.Kind != metadata.FormatKindStencil
	})
}

func (s *SystemInfo) MaxTextureSize() int {
	return s.caps.MaxTextureSize()
}

func (s *SystemInfo) MaxCubemapSize() int {
	return s.caps.MaxCubemapSize()
}

func (s *SystemInfo) MaxSampleCount() int {
	return s.caps.MaxSampleCount()
}

func (s *SystemInfo) SupportedRenderTargetCount() int {
	return metadata.MaxRenderTargets
}

func (s *SystemInfo) has(f native.Features) bool {
	return s.caps.Features().Has(f)
}

func (s *SystemInfo) SupportsInstancing() bool {
	return s.has(native.FeatureInstancing)
}

func (s *SystemInfo) SupportsComputeShaders() bool {
	return s.has(native.FeatureComputeShaders)
}

func (s *SystemInfo) SupportsAsyncCompute() bool {
	return s.has(native.FeatureAsyncCompute)
}

func (s *SystemInfo) SupportsGraphicsFence() bool {
	return s.has(native.FeatureGraphicsFence)
}

func (s *SystemInfo) SupportsRayTracing() bool {
	return s.has(native.FeatureRayTracing)
}

func (s *SystemInfo) Supports3DTextures() bool {
	return s.has(native.FeatureTextures3D)
}

func (s *SystemInfo) Supports2DArrayTextures() bool {
	return s.has(native.FeatureTexture2DArrays)
}

func (s *SystemInfo) SupportsCubemapArrayTextures() bool {
	return s.has(native.FeatureCubemapArrays)
}

func (s *SystemInfo) SupportsAsyncGPUReadback() bool {
	return s.has(native.FeatureAsyncGPUReadback)
}

func (s *SystemInfo) SupportsHDRDisplay() bool {
	return s.has(native.FeatureHDRDisplay)
}

// SupportsMultisampleCount reports whether render targets can use samples.
func (s *SystemInfo) SupportsMultisampleCount(samples int) bool {
	switch samples {
	case 1, 2, 4, 8:
		return samples <= s.caps.MaxSampleCount()
	}
	return false
}
