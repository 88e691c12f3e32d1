package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief The capabilities of a physical device as reported by the Vulkan
 * driver. The values are read once; the instance is gone when the probe
 * returns.
 */
type DeviceCapabilities struct {
	Name        string
	Type        string
	APIVersion  string
	FeatureSet  native.Features
	Usage       map[metadata.GraphicsFormat]metadata.GraphicsFormatUsage
	TextureSize int
	CubemapSize int
	SampleCount int
	Extensions  []string
}

var _ native.Capabilities = (*DeviceCapabilities)(nil)

func (c *DeviceCapabilities) DeviceName() string {
	return c.Name
}

func (c *DeviceCapabilities) Features() native.Features {
	return c.FeatureSet
}

func (c *DeviceCapabilities) FormatUsage(format metadata.GraphicsFormat) metadata.GraphicsFormatUsage {
	return c.Usage[format]
}

func (c *DeviceCapabilities) MaxTextureSize() int {
	return c.TextureSize
}

func (c *DeviceCapabilities) MaxCubemapSize() int {
	return c.CubemapSize
}

func (c *DeviceCapabilities) MaxSampleCount() int {
	return c.SampleCount
}

type probeOptions struct {
	validation  bool
	deviceIndex int
}

type ProbeOption func(*probeOptions)

// WithValidation enables the Khronos validation layer when it is installed.
func WithValidation(on bool) ProbeOption {
	return func(o *probeOptions) {
		o.validation = on
	}
}

// WithDeviceIndex probes the device at index instead of the best ranked one.
func WithDeviceIndex(index int) ProbeOption {
	return func(o *probeOptions) {
		o.deviceIndex = index
	}
}

/**
 * @brief Creates a temporary Vulkan instance, selects a physical device and
 * reads its limits, features and per-format usage.
 * @param appName The application name reported to the driver.
 * @return The device capabilities, ErrUnsupported when no usable device exists.
 */
func ProbeCapabilities(appName string, opts ...ProbeOption) (*DeviceCapabilities, error) {
	o := probeOptions{deviceIndex: -1}
	for _, opt := range opts {
		opt(&o)
	}

	if err := platform.Init(); err != nil {
		return nil, err
	}
	defer platform.Terminate()

	inst, err := createInstance(appName, o.validation)
	if err != nil {
		return nil, err
	}
	defer inst.destroy()

	device, err := selectPhysicalDevice(inst.handle, o.deviceIndex)
	if err != nil {
		return nil, err
	}
	caps := buildCapabilities(device)
	core.LogInfo("probed %q: %d formats usable, max texture %d, max samples %d",
		caps.Name, caps.usableFormats(), caps.TextureSize, caps.SampleCount)
	return caps, nil
}

func buildCapabilities(d *physicalDevice) *DeviceCapabilities {
	limits := d.properties.Limits
	colorSamples := limits.FramebufferColorSampleCounts
	depthSamples := limits.FramebufferDepthSampleCounts

	caps := &DeviceCapabilities{
		Name:        d.name(),
		Type:        deviceTypeString(d.properties.DeviceType),
		APIVersion:  apiVersionString(d.properties.ApiVersion),
		Usage:       make(map[metadata.GraphicsFormat]metadata.GraphicsFormatUsage, len(vkFormats)),
		TextureSize: int(limits.MaxImageDimension2D),
		CubemapSize: int(limits.MaxImageDimensionCube),
		SampleCount: maxSampleCount(colorSamples & depthSamples),
		FeatureSet:  deviceFeatures(d),
	}
	for ext := range d.extensions {
		caps.Extensions = append(caps.Extensions, ext)
	}

	props := d.formatProperties()
	for format, vkFormat := range vkFormats {
		p := props[vkFormat]
		samples := colorSamples
		if format.IsDepthStencil() {
			samples = depthSamples
		}
		caps.Usage[format] = usageFromFeatures(format, p.OptimalTilingFeatures, p.LinearTilingFeatures, samples)
	}
	return caps
}

/**
 * @brief Maps Vulkan features and queue families onto the engine feature set.
 * The probe opens no surface, so HDR output is never reported.
 */
func deviceFeatures(d *physicalDevice) native.Features {
	f := native.FeatureInstancing | native.FeatureComputeShaders | native.FeatureGraphicsFence |
		native.FeatureTextures3D | native.FeatureTexture2DArrays | native.FeatureAsyncGPUReadback
	if d.queues.asyncCompute >= 0 {
		f |= native.FeatureAsyncCompute
	}
	if d.features.ImageCubeArray == vk.True {
		f |= native.FeatureCubemapArrays
	}
	if d.extensions[rayTracingExtension] {
		f |= native.FeatureRayTracing
	}
	return f
}

func maxSampleCount(flags vk.SampleCountFlags) int {
	bits := vk.SampleCountFlagBits(flags)
	for _, n := range []struct {
		bit   vk.SampleCountFlagBits
		count int
	}{
		{vk.SampleCount64Bit, 64},
		{vk.SampleCount32Bit, 32},
		{vk.SampleCount16Bit, 16},
		{vk.SampleCount8Bit, 8},
		{vk.SampleCount4Bit, 4},
		{vk.SampleCount2Bit, 2},
	} {
		if bits&n.bit != 0 {
			return n.count
		}
	}
	return 1
}

func apiVersionString(v uint32) string {
	ver := vk.Version(v)
	return fmt.Sprintf("%d.%d.%d", ver.Major(), ver.Minor(), ver.Patch())
}

func (c *DeviceCapabilities) usableFormats() int {
	n := 0
	for _, u := range c.Usage {
		if u != metadata.UsageNone {
			n++
		}
	}
	return n
}
