package platform

import (
	"errors"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/lumen/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

var glfwState struct {
	mutex sync.Mutex
	refs  int
}

// Init initializes glfw. Every successful Init must be paired with Terminate.
func Init() error {
	glfwState.mutex.Lock()
	defer glfwState.mutex.Unlock()
	if glfwState.refs == 0 {
		if err := glfw.Init(); err != nil {
			return core.NativeFailure("glfw.Init", err)
		}
		core.LogDebug("glfw %s initialized", glfw.GetVersionString())
	}
	glfwState.refs++
	return nil
}

// Terminate releases one Init. glfw shuts down with the last one.
func Terminate() {
	glfwState.mutex.Lock()
	defer glfwState.mutex.Unlock()
	if glfwState.refs == 0 {
		return
	}
	glfwState.refs--
	if glfwState.refs == 0 {
		glfw.Terminate()
	}
}

/**
 * @brief Returns vkGetInstanceProcAddr as loaded by glfw. glfw must be
 * initialized.
 */
func VulkanProcAddress() (unsafe.Pointer, error) {
	if !glfw.VulkanSupported() {
		return nil, core.Unsupported("no Vulkan loader found by glfw")
	}
	proc := glfw.GetVulkanGetInstanceProcAddress()
	if proc == nil {
		return nil, core.NativeFailure("glfw.GetVulkanGetInstanceProcAddress", errors.New("loader returned nil"))
	}
	return proc, nil
}

// PumpMessages processes pending window events.
func PumpMessages() {
	glfw.PollEvents()
}

// Time is the number of seconds since glfw was initialized.
func Time() float64 {
	return glfw.GetTime()
}
