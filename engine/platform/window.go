package platform

import (
	"sort"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief A glfw window presenting the renderer output. It implements
 * native.DisplayBackend so Screen drives the real window.
 */
type Window struct {
	window  *glfw.Window
	monitor *glfw.Monitor

	mutex       sync.RWMutex
	mode        metadata.FullScreenMode
	refresh     metadata.RefreshRate
	dpi         float32
	orientation metadata.ScreenOrientation
	brightness  float32

	// Window rectangle restored when leaving full screen.
	windowedX, windowedY int
}

var _ native.DisplayBackend = (*Window)(nil)

// NewWindow initializes glfw and opens a window sized and placed as cfg asks.
func NewWindow(cfg config.ScreenConfig) (*Window, error) {
	mode, err := metadata.ParseFullScreenMode(cfg.FullScreenMode)
	if err != nil {
		return nil, core.InvalidArgument("screen.full_screen_mode: %s", err)
	}
	if err := Init(); err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		Terminate()
		return nil, core.NativeFailure("glfw.CreateWindow", err)
	}
	w := &Window{
		window:      window,
		monitor:     glfw.GetPrimaryMonitor(),
		mode:        metadata.FullScreenModeWindowed,
		refresh:     metadata.NewRefreshRate(cfg.RefreshRate),
		dpi:         cfg.DPI,
		orientation: metadata.ScreenOrientationLandscapeLeft,
		brightness:  1,
	}
	if measured := monitorDPI(w.monitor); measured > 0 {
		w.dpi = measured
	}
	w.windowedX, w.windowedY = window.GetPos()

	window.SetKeyCallback(keyCallback)
	window.SetFramebufferSizeCallback(framebufferSizeCallback)
	window.Show()

	if mode != metadata.FullScreenModeWindowed {
		if err := w.SetResolution(cfg.Width, cfg.Height, mode, w.refresh); err != nil {
			w.Destroy()
			return nil, err
		}
	}
	core.LogInfo("window %q opened at %dx%d (%s)", cfg.Title, cfg.Width, cfg.Height, mode)
	return w, nil
}

// Destroy closes the window and releases glfw.
func (w *Window) Destroy() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
	Terminate()
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.window == nil || w.window.ShouldClose()
}

func (w *Window) WindowSize() (int, int) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	if w.window == nil {
		return 0, 0
	}
	return w.window.GetFramebufferSize()
}

func (w *Window) CurrentResolution() metadata.Resolution {
	width, height := w.WindowSize()
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	rate := w.refresh
	if rate.Denominator == 0 && w.monitor != nil {
		if vm := w.monitor.GetVideoMode(); vm != nil {
			rate = metadata.NewRefreshRate(float64(vm.RefreshRate))
		}
	}
	return metadata.Resolution{Width: width, Height: height, RefreshRateRatio: rate}
}

// Resolutions lists the video modes of the primary monitor.
func (w *Window) Resolutions() []metadata.Resolution {
	if w.monitor == nil {
		return nil
	}
	return resolutionsFromModes(w.monitor.GetVideoModes())
}

// resolutionsFromModes drops the colour depth glfw reports and sorts the
// remaining modes by size, then refresh rate.
func resolutionsFromModes(modes []*glfw.VidMode) []metadata.Resolution {
	type key struct{ w, h, hz int }
	seen := make(map[key]bool, len(modes))
	out := make([]metadata.Resolution, 0, len(modes))
	for _, m := range modes {
		if m == nil {
			continue
		}
		k := key{m.Width, m.Height, m.RefreshRate}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, metadata.Resolution{
			Width:            m.Width,
			Height:           m.Height,
			RefreshRateRatio: metadata.NewRefreshRate(float64(m.RefreshRate)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return a.RefreshRateRatio.Value() < b.RefreshRateRatio.Value()
	})
	return out
}

/**
 * @brief Resizes the window and moves it on or off the primary monitor.
 * Exclusive and full-screen window modes both take the monitor; maximized
 * windows ignore the requested size.
 */
func (w *Window) SetResolution(width, height int, mode metadata.FullScreenMode, refreshRate metadata.RefreshRate) error {
	if width <= 0 || height <= 0 {
		return core.InvalidArgument("resolution %dx%d must be positive", width, height)
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.window == nil {
		return core.InvalidOperation("window has been destroyed")
	}
	if refreshRate.Denominator == 0 {
		refreshRate = w.refresh
	}
	hz := glfw.DontCare
	if v := refreshRate.Value(); v > 0 {
		hz = int(v + 0.5)
	}

	switch mode {
	case metadata.FullScreenModeExclusiveFullScreen, metadata.FullScreenModeFullScreenWindow:
		if w.monitor == nil {
			return core.Unsupported("full screen without a monitor")
		}
		if !w.mode.IsFullScreen() {
			w.windowedX, w.windowedY = w.window.GetPos()
		}
		if mode == metadata.FullScreenModeFullScreenWindow {
			// Borderless: keep the desktop video mode.
			if vm := w.monitor.GetVideoMode(); vm != nil {
				width, height, hz = vm.Width, vm.Height, vm.RefreshRate
			}
		}
		w.window.SetMonitor(w.monitor, 0, 0, width, height, hz)
	case metadata.FullScreenModeMaximizedWindow:
		w.leaveFullScreen(width, height)
		w.window.Maximize()
	default:
		w.leaveFullScreen(width, height)
		w.window.Restore()
		w.window.SetSize(width, height)
	}
	w.mode = mode
	w.refresh = refreshRate
	return nil
}

// leaveFullScreen is called with the mutex held.
func (w *Window) leaveFullScreen(width, height int) {
	if w.window.GetMonitor() == nil {
		return
	}
	w.window.SetMonitor(nil, w.windowedX, w.windowedY, width, height, glfw.DontCare)
}

func (w *Window) FullScreenMode() metadata.FullScreenMode {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.mode
}

func (w *Window) DPI() float32 {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.dpi
}

// monitorDPI derives DPI from the physical size of the monitor, zero when unknown.
func monitorDPI(m *glfw.Monitor) float32 {
	if m == nil {
		return 0
	}
	widthMM, _ := m.GetPhysicalSize()
	vm := m.GetVideoMode()
	if widthMM <= 0 || vm == nil {
		return 0
	}
	return float32(vm.Width) / (float32(widthMM) / 25.4)
}

// Orientation is fixed on desktops; the value is only stored.
func (w *Window) Orientation() metadata.ScreenOrientation {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.orientation
}

func (w *Window) SetOrientation(o metadata.ScreenOrientation) error {
	if !o.IsValid() {
		return core.InvalidArgument("unknown screen orientation %d", o)
	}
	w.mutex.Lock()
	w.orientation = o
	w.mutex.Unlock()
	return nil
}

func (w *Window) Brightness() float32 {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.brightness
}

// SetBrightness stores the value. glfw has no brightness control.
func (w *Window) SetBrightness(b float32) {
	w.mutex.Lock()
	w.brightness = math.Clamp01(b)
	w.mutex.Unlock()
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.LogDebug("framebuffer resized to %dx%d", width, height)
	core.EventFire(core.EVENT_CODE_RESOLUTION_CHANGED, w, core.EventContext{
		I32: [4]int32{int32(width), int32(height), -1},
	})
}
