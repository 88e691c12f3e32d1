package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// vkFormats maps every GraphicsFormat to the Vulkan format with the same layout.
var vkFormats = map[metadata.GraphicsFormat]vk.Format{
	metadata.FormatR8_SRGB:       vk.FormatR8Srgb,
	metadata.FormatR8G8_SRGB:     vk.FormatR8g8Srgb,
	metadata.FormatR8G8B8_SRGB:   vk.FormatR8g8b8Srgb,
	metadata.FormatR8G8B8A8_SRGB: vk.FormatR8g8b8a8Srgb,

	metadata.FormatR8_UNorm:       vk.FormatR8Unorm,
	metadata.FormatR8G8_UNorm:     vk.FormatR8g8Unorm,
	metadata.FormatR8G8B8_UNorm:   vk.FormatR8g8b8Unorm,
	metadata.FormatR8G8B8A8_UNorm: vk.FormatR8g8b8a8Unorm,

	metadata.FormatR8_SNorm:       vk.FormatR8Snorm,
	metadata.FormatR8G8_SNorm:     vk.FormatR8g8Snorm,
	metadata.FormatR8G8B8_SNorm:   vk.FormatR8g8b8Snorm,
	metadata.FormatR8G8B8A8_SNorm: vk.FormatR8g8b8a8Snorm,

	metadata.FormatR8_UInt:       vk.FormatR8Uint,
	metadata.FormatR8G8_UInt:     vk.FormatR8g8Uint,
	metadata.FormatR8G8B8_UInt:   vk.FormatR8g8b8Uint,
	metadata.FormatR8G8B8A8_UInt: vk.FormatR8g8b8a8Uint,

	metadata.FormatR8_SInt:       vk.FormatR8Sint,
	metadata.FormatR8G8_SInt:     vk.FormatR8g8Sint,
	metadata.FormatR8G8B8_SInt:   vk.FormatR8g8b8Sint,
	metadata.FormatR8G8B8A8_SInt: vk.FormatR8g8b8a8Sint,

	metadata.FormatR16_UNorm:          vk.FormatR16Unorm,
	metadata.FormatR16G16_UNorm:       vk.FormatR16g16Unorm,
	metadata.FormatR16G16B16_UNorm:    vk.FormatR16g16b16Unorm,
	metadata.FormatR16G16B16A16_UNorm: vk.FormatR16g16b16a16Unorm,

	metadata.FormatR16_SNorm:          vk.FormatR16Snorm,
	metadata.FormatR16G16_SNorm:       vk.FormatR16g16Snorm,
	metadata.FormatR16G16B16_SNorm:    vk.FormatR16g16b16Snorm,
	metadata.FormatR16G16B16A16_SNorm: vk.FormatR16g16b16a16Snorm,

	metadata.FormatR16_UInt:          vk.FormatR16Uint,
	metadata.FormatR16G16_UInt:       vk.FormatR16g16Uint,
	metadata.FormatR16G16B16_UInt:    vk.FormatR16g16b16Uint,
	metadata.FormatR16G16B16A16_UInt: vk.FormatR16g16b16a16Uint,

	metadata.FormatR16_SInt:          vk.FormatR16Sint,
	metadata.FormatR16G16_SInt:       vk.FormatR16g16Sint,
	metadata.FormatR16G16B16_SInt:    vk.FormatR16g16b16Sint,
	metadata.FormatR16G16B16A16_SInt: vk.FormatR16g16b16a16Sint,

	metadata.FormatR32_UInt:          vk.FormatR32Uint,
	metadata.FormatR32G32_UInt:       vk.FormatR32g32Uint,
	metadata.FormatR32G32B32_UInt:    vk.FormatR32g32b32Uint,
	metadata.FormatR32G32B32A32_UInt: vk.FormatR32g32b32a32Uint,

	metadata.FormatR32_SInt:          vk.FormatR32Sint,
	metadata.FormatR32G32_SInt:       vk.FormatR32g32Sint,
	metadata.FormatR32G32B32_SInt:    vk.FormatR32g32b32Sint,
	metadata.FormatR32G32B32A32_SInt: vk.FormatR32g32b32a32Sint,

	metadata.FormatR16_SFloat:          vk.FormatR16Sfloat,
	metadata.FormatR16G16_SFloat:       vk.FormatR16g16Sfloat,
	metadata.FormatR16G16B16_SFloat:    vk.FormatR16g16b16Sfloat,
	metadata.FormatR16G16B16A16_SFloat: vk.FormatR16g16b16a16Sfloat,
	metadata.FormatR32_SFloat:          vk.FormatR32Sfloat,
	metadata.FormatR32G32_SFloat:       vk.FormatR32g32Sfloat,
	metadata.FormatR32G32B32_SFloat:    vk.FormatR32g32b32Sfloat,
	metadata.FormatR32G32B32A32_SFloat: vk.FormatR32g32b32a32Sfloat,

	metadata.FormatB8G8R8_SRGB:    vk.FormatB8g8r8Srgb,
	metadata.FormatB8G8R8A8_SRGB:  vk.FormatB8g8r8a8Srgb,
	metadata.FormatB8G8R8_UNorm:   vk.FormatB8g8r8Unorm,
	metadata.FormatB8G8R8A8_UNorm: vk.FormatB8g8r8a8Unorm,

	metadata.FormatD16_UNorm:          vk.FormatD16Unorm,
	metadata.FormatD24_UNorm:          vk.FormatX8D24UnormPack32,
	metadata.FormatD24_UNorm_S8_UInt:  vk.FormatD24UnormS8Uint,
	metadata.FormatD32_SFloat:         vk.FormatD32Sfloat,
	metadata.FormatD32_SFloat_S8_UInt: vk.FormatD32SfloatS8Uint,
	metadata.FormatS8_UInt:            vk.FormatS8Uint,
}

// VkFormat returns the Vulkan format of f.
func VkFormat(f metadata.GraphicsFormat) (vk.Format, bool) {
	v, ok := vkFormats[f]
	return v, ok
}

/**
 * @brief Translates the tiling features Vulkan reports for format into a
 * usage set. samples holds the sample counts the device renders with for
 * the format's kind (color or depth).
 */
func usageFromFeatures(format metadata.GraphicsFormat, optimal, linear vk.FormatFeatureFlags, samples vk.SampleCountFlags) metadata.GraphicsFormatUsage {
	has := func(flags vk.FormatFeatureFlags, bit vk.FormatFeatureFlagBits) bool {
		return vk.FormatFeatureFlagBits(flags)&bit == bit
	}
	info, ok := format.Info()
	if !ok {
		return metadata.UsageNone
	}
	var u metadata.GraphicsFormatUsage
	if has(optimal, vk.FormatFeatureSampledImageBit) {
		u |= metadata.UsageSample
	}
	if has(optimal, vk.FormatFeatureSampledImageFilterLinearBit) {
		u |= metadata.UsageLinear
	}
	if has(optimal, vk.FormatFeatureStorageImageBit) {
		u |= metadata.UsageLoadStore
	}
	renderBit := vk.FormatFeatureColorAttachmentBit
	if info.Kind == metadata.FormatKindDepth || info.Kind == metadata.FormatKindStencil {
		renderBit = vk.FormatFeatureDepthStencilAttachmentBit
	}
	if has(optimal, renderBit) {
		u |= metadata.UsageRender
		for _, s := range []struct {
			bit   vk.SampleCountFlagBits
			usage metadata.GraphicsFormatUsage
		}{
			{vk.SampleCount2Bit, metadata.UsageMSAA2x},
			{vk.SampleCount4Bit, metadata.UsageMSAA4x},
			{vk.SampleCount8Bit, metadata.UsageMSAA8x},
		} {
			if vk.SampleCountFlagBits(samples)&s.bit != 0 {
				u |= s.usage
			}
		}
	}
	if has(optimal, vk.FormatFeatureColorAttachmentBlendBit) {
		u |= metadata.UsageBlend
	}
	// Readback copies the image to a host-visible buffer through a blit.
	if has(optimal, vk.FormatFeatureBlitSrcBit) || has(linear, vk.FormatFeatureBlitSrcBit) {
		u |= metadata.UsageReadPixels
	}
	if info.StencilBits > 0 && u.Has(metadata.UsageSample) {
		u |= metadata.UsageStencilSampling
	}
	// CPU pixel access happens on the engine side of the upload.
	if u.Has(metadata.UsageSample) && metadata.CanConvertPixels(format) {
		u |= metadata.UsageGetPixels | metadata.UsageSetPixels | metadata.UsageSetPixels32
	}
	return u
}
