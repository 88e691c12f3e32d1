package vulkan

import (
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// instance is a Vulkan instance with its optional debug callback.
type instance struct {
	handle   vk.Instance
	debug    vk.DebugReportCallback
	hasDebug bool
}

/**
 * @brief Loads Vulkan through glfw and creates an instance without surface
 * extensions; probing needs no window. glfw must be initialized.
 */
func createInstance(appName string, validation bool) (*instance, error) {
	proc, err := platform.VulkanProcAddress()
	if err != nil {
		return nil, err
	}
	vk.SetGetInstanceProcAddr(proc)
	if err := vk.Init(); err != nil {
		return nil, core.NativeFailure("vk.Init", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString(appName),
		PEngineName:        safeString("Lumen"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	var extensions []string
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if validation {
		ok, err := layerAvailable(validationLayer)
		if err != nil {
			return nil, err
		}
		if ok {
			layers = append(layers, validationLayer)
			extensions = append(extensions, vk.ExtDebugReportExtensionName)
		} else {
			core.LogWarn("validation layer %s is not installed, continuing without it", validationLayer)
		}
	}
	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = safeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = safeStrings(layers)

	inst := &instance{}
	if err := checkResult("vkCreateInstance", vk.CreateInstance(&createInfo, nil, &inst.handle)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(inst.handle); err != nil {
		vk.DestroyInstance(inst.handle, nil)
		return nil, core.NativeFailure("vk.InitInstance", err)
	}
	core.LogDebug("Vulkan instance created (%d layers, %d extensions)", len(layers), len(extensions))

	if len(layers) > 0 {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugCallback,
		}
		var cb vk.DebugReportCallback
		if err := checkResult("vkCreateDebugReportCallback", vk.CreateDebugReportCallback(inst.handle, &debugCreateInfo, nil, &cb)); err != nil {
			core.LogWarn("%s", err)
		} else {
			inst.debug, inst.hasDebug = cb, true
		}
	}
	return inst, nil
}

func (i *instance) destroy() {
	if i.hasDebug {
		vk.DestroyDebugReportCallback(i.handle, i.debug, nil)
	}
	vk.DestroyInstance(i.handle, nil)
}

func layerAvailable(name string) (bool, error) {
	var count uint32
	if err := checkResult("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return false, err
	}
	layers := make([]vk.LayerProperties, count)
	if err := checkResult("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return false, err
	}
	for i := range layers {
		layers[i].Deref()
		if cString(layers[i].LayerName[:]) == name {
			return true, nil
		}
	}
	return false, nil
}

func debugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
