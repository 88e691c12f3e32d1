package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
)

const rayTracingExtension = "VK_KHR_ray_tracing_pipeline"

// physicalDevice is what the probe learns about one GPU.
type physicalDevice struct {
	handle     vk.PhysicalDevice
	properties vk.PhysicalDeviceProperties
	features   vk.PhysicalDeviceFeatures
	queues     queueFamilyInfo
	extensions map[string]bool
}

type queueFamilyInfo struct {
	graphics int
	compute  int
	transfer int
	// A compute family without graphics, used for async compute.
	asyncCompute int
}

func (d *physicalDevice) name() string {
	return cString(d.properties.DeviceName[:])
}

func deviceTypeString(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "unknown"
}

// deviceTypeScore ranks device types when no device index is requested.
func deviceTypeScore(t vk.PhysicalDeviceType) int {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 4
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 3
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 1
	}
	return 0
}

func enumeratePhysicalDevices(inst vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := checkResult("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(inst, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, core.Unsupported("no devices which support Vulkan were found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := checkResult("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(inst, &count, devices)); err != nil {
		return nil, err
	}
	return devices[:count], nil
}

/**
 * @brief Picks the device at index, or the best ranked device with a
 * graphics queue when index is negative.
 */
func selectPhysicalDevice(inst vk.Instance, index int) (*physicalDevice, error) {
	handles, err := enumeratePhysicalDevices(inst)
	if err != nil {
		return nil, err
	}
	if index >= len(handles) {
		return nil, core.IndexOutOfRange("device index %d out of range [0, %d)", index, len(handles))
	}

	var best *physicalDevice
	for i, h := range handles {
		if index >= 0 && i != index {
			continue
		}
		d, err := describeDevice(h)
		if err != nil {
			return nil, err
		}
		core.LogDebug("device %d: %s (%s), graphics queue %d, compute queue %d",
			i, d.name(), deviceTypeString(d.properties.DeviceType), d.queues.graphics, d.queues.compute)
		if d.queues.graphics < 0 {
			if index >= 0 {
				return nil, core.Unsupported("device %q has no graphics queue", d.name())
			}
			continue
		}
		if best == nil || deviceTypeScore(d.properties.DeviceType) > deviceTypeScore(best.properties.DeviceType) {
			best = d
		}
	}
	if best == nil {
		return nil, core.Unsupported("no physical device with a graphics queue")
	}
	core.LogInfo("selected device %q (%s)", best.name(), deviceTypeString(best.properties.DeviceType))
	return best, nil
}

func describeDevice(h vk.PhysicalDevice) (*physicalDevice, error) {
	d := &physicalDevice{handle: h}
	vk.GetPhysicalDeviceProperties(h, &d.properties)
	d.properties.Deref()
	d.properties.Limits.Deref()
	vk.GetPhysicalDeviceFeatures(h, &d.features)
	d.features.Deref()

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &familyCount, families)
	for i := range families {
		families[i].Deref()
	}
	d.queues = scanQueueFamilies(families)

	extensions, err := deviceExtensions(h)
	if err != nil {
		return nil, err
	}
	d.extensions = extensions
	return d, nil
}

/**
 * @brief Finds the graphics, compute and transfer families. Transfer prefers
 * the family with the fewest other capabilities, which is most likely a
 * dedicated transfer queue. -1 marks a missing family.
 */
func scanQueueFamilies(families []vk.QueueFamilyProperties) queueFamilyInfo {
	info := queueFamilyInfo{graphics: -1, compute: -1, transfer: -1, asyncCompute: -1}
	minTransferScore := 255
	for i, f := range families {
		if f.QueueCount == 0 {
			continue
		}
		flags := vk.QueueFlagBits(f.QueueFlags)
		score := 0
		graphics := flags&vk.QueueGraphicsBit != 0
		if graphics {
			if info.graphics < 0 {
				info.graphics = i
			}
			score++
		}
		if flags&vk.QueueComputeBit != 0 {
			if info.compute < 0 {
				info.compute = i
			}
			if !graphics && info.asyncCompute < 0 {
				info.asyncCompute = i
			}
			score++
		}
		if flags&vk.QueueTransferBit != 0 && score <= minTransferScore {
			minTransferScore = score
			info.transfer = i
		}
	}
	return info
}

func deviceExtensions(h vk.PhysicalDevice) (map[string]bool, error) {
	var count uint32
	if err := checkResult("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(h, "", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if err := checkResult("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(h, "", &count, props)); err != nil {
			return nil, err
		}
	}
	out := make(map[string]bool, count)
	for i := range props[:count] {
		props[i].Deref()
		out[cString(props[i].ExtensionName[:])] = true
	}
	return out, nil
}

// formatProperties reads the tiling features of every mapped format.
func (d *physicalDevice) formatProperties() map[vk.Format]vk.FormatProperties {
	out := make(map[vk.Format]vk.FormatProperties, len(vkFormats))
	for _, f := range vkFormats {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.handle, f, &props)
		props.Deref()
		out[f] = props
	}
	return out
}
