package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func TestEveryFormatHasVulkanMapping(t *testing.T) {
	for _, f := range metadata.AllGraphicsFormats() {
		if _, ok := VkFormat(f); !ok {
			t.Errorf("%s has no Vulkan format", f)
		}
	}
	if _, ok := VkFormat(metadata.FormatNone); ok {
		t.Error("None must not map to a Vulkan format")
	}
}

func TestUsageFromFeatures(t *testing.T) {
	color := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit | vk.FormatFeatureSampledImageFilterLinearBit |
		vk.FormatFeatureColorAttachmentBit | vk.FormatFeatureColorAttachmentBlendBit |
		vk.FormatFeatureStorageImageBit | vk.FormatFeatureBlitSrcBit)
	depth := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit | vk.FormatFeatureDepthStencilAttachmentBit)
	samples := vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit)

	tests := []struct {
		name    string
		format  metadata.GraphicsFormat
		optimal vk.FormatFeatureFlags
		linear  vk.FormatFeatureFlags
		want    []metadata.GraphicsFormatUsage
		absent  []metadata.GraphicsFormatUsage
	}{
		{
			name:    "full color",
			format:  metadata.FormatR8G8B8A8_UNorm,
			optimal: color,
			want: []metadata.GraphicsFormatUsage{
				metadata.UsageSample, metadata.UsageLinear, metadata.UsageRender, metadata.UsageBlend,
				metadata.UsageLoadStore, metadata.UsageReadPixels, metadata.UsageMSAA2x, metadata.UsageMSAA4x,
				metadata.UsageGetPixels, metadata.UsageSetPixels32,
			},
			absent: []metadata.GraphicsFormatUsage{metadata.UsageMSAA8x, metadata.UsageStencilSampling},
		},
		{
			name:    "readback through linear tiling",
			format:  metadata.FormatR16_SFloat,
			optimal: vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit),
			linear:  vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit),
			want:    []metadata.GraphicsFormatUsage{metadata.UsageSample, metadata.UsageReadPixels},
			absent:  []metadata.GraphicsFormatUsage{metadata.UsageRender, metadata.UsageLinear},
		},
		{
			name:    "depth stencil",
			format:  metadata.FormatD24_UNorm_S8_UInt,
			optimal: depth,
			want: []metadata.GraphicsFormatUsage{
				metadata.UsageSample, metadata.UsageRender, metadata.UsageStencilSampling, metadata.UsageMSAA4x,
			},
			absent: []metadata.GraphicsFormatUsage{metadata.UsageBlend, metadata.UsageSetPixels},
		},
		{
			name:   "no features",
			format: metadata.FormatR8G8B8_SRGB,
			absent: []metadata.GraphicsFormatUsage{metadata.UsageSample, metadata.UsageRender},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usageFromFeatures(tt.format, tt.optimal, tt.linear, samples)
			for _, u := range tt.want {
				if !got.Has(u) {
					t.Errorf("usage %s is missing %s", got, u)
				}
			}
			for _, u := range tt.absent {
				if got.Has(u) {
					t.Errorf("usage %s must not contain %s", got, u)
				}
			}
		})
	}
}

func TestUsageFromFeaturesUnknownFormat(t *testing.T) {
	if got := usageFromFeatures(metadata.GraphicsFormat(200), ^vk.FormatFeatureFlags(0), 0, 0); got != metadata.UsageNone {
		t.Errorf("unknown format usage = %s, want none", got)
	}
}

func TestMaxSampleCount(t *testing.T) {
	tests := []struct {
		flags vk.SampleCountFlags
		want  int
	}{
		{0, 1},
		{vk.SampleCountFlags(vk.SampleCount1Bit), 1},
		{vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit | vk.SampleCount8Bit), 8},
	}
	for _, tt := range tests {
		if got := maxSampleCount(tt.flags); got != tt.want {
			t.Errorf("maxSampleCount(%d) = %d, want %d", tt.flags, got, tt.want)
		}
	}
}

func TestScanQueueFamilies(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit), QueueCount: 16},
		{QueueFlags: vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit), QueueCount: 2},
		{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 1},
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit), QueueCount: 0},
	}
	got := scanQueueFamilies(families)
	want := queueFamilyInfo{graphics: 0, compute: 0, transfer: 2, asyncCompute: 1}
	if got != want {
		t.Errorf("scanQueueFamilies = %+v, want %+v", got, want)
	}

	none := scanQueueFamilies(nil)
	if none.graphics != -1 || none.transfer != -1 {
		t.Errorf("empty scan = %+v, want missing families", none)
	}
}

func TestCString(t *testing.T) {
	var name [16]byte
	copy(name[:], "GeForce\x00junk")
	if got := cString(name[:]); got != "GeForce" {
		t.Errorf("cString = %q", got)
	}
	if got := safeString("x"); got != "x\x00" {
		t.Errorf("safeString = %q", got)
	}
}
