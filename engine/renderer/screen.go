package renderer

import (
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// Sleep timeouts with a special meaning.
const (
	SleepTimeoutNeverSleep    = -1
	SleepTimeoutSystemSetting = -2
)

// Screen reports and changes the display the renderer presents to.
type Screen struct {
	display native.DisplayBackend

	mutex        sync.Mutex
	sleepTimeout int
}

func newScreen(display native.DisplayBackend) *Screen {
	return &Screen{display: display, sleepTimeout: SleepTimeoutSystemSetting}
}

// Width is the current width of the window in pixels.
func (s *Screen) Width() int {
	w, _ := s.display.WindowSize()
	return w
}

func (s *Screen) Height() int {
	_, h := s.display.WindowSize()
	return h
}

// DPI is zero when the display does not report it.
func (s *Screen) DPI() float32 {
	return s.display.DPI()
}

func (s *Screen) CurrentResolution() metadata.Resolution {
	return s.display.CurrentResolution()
}

// Resolutions lists the full-screen modes of the display.
func (s *Screen) Resolutions() []metadata.Resolution {
	return s.display.Resolutions()
}

func fullScreenModeFor(fullscreen bool) metadata.FullScreenMode {
	if fullscreen {
		return metadata.FullScreenModeFullScreenWindow
	}
	return metadata.FullScreenModeWindowed
}

// SetResolution keeps the current refresh rate.
func (s *Screen) SetResolution(width, height int, fullscreen bool) error {
	return s.SetResolutionWithRefreshRate(width, height, fullScreenModeFor(fullscreen), metadata.RefreshRate{})
}

func (s *Screen) SetResolutionMode(width, height int, mode metadata.FullScreenMode) error {
	return s.SetResolutionWithRefreshRate(width, height, mode, metadata.RefreshRate{})
}

// SetResolutionHz takes an integer refresh rate. Zero keeps the current rate.
func (s *Screen) SetResolutionHz(width, height int, mode metadata.FullScreenMode, preferredRefreshRate int) error {
	if preferredRefreshRate < 0 {
		return core.InvalidArgument("refresh rate must be non-negative, got %d", preferredRefreshRate)
	}
	rate := metadata.RefreshRate{}
	if preferredRefreshRate > 0 {
		rate = metadata.RefreshRate{Numerator: uint32(preferredRefreshRate), Denominator: 1}
	}
	return s.SetResolutionWithRefreshRate(width, height, mode, rate)
}

/**
 * @brief Switches the resolution. A zero refresh rate keeps the current one.
 * Listeners of EVENT_CODE_RESOLUTION_CHANGED are told about the new size.
 */
func (s *Screen) SetResolutionWithRefreshRate(width, height int, mode metadata.FullScreenMode, refreshRate metadata.RefreshRate) error {
	if width <= 0 || height <= 0 {
		return core.InvalidArgument("resolution %dx%d must be positive", width, height)
	}
	if mode < metadata.FullScreenModeExclusiveFullScreen || mode > metadata.FullScreenModeWindowed {
		return core.InvalidArgument("invalid full screen mode %d", mode)
	}
	if refreshRate.Denominator == 0 && refreshRate.Numerator != 0 {
		return core.InvalidArgument("refresh rate %d/0 has a zero denominator", refreshRate.Numerator)
	}
	if err := s.display.SetResolution(width, height, mode, refreshRate); err != nil {
		return core.NativeFailure("SetResolution", err)
	}
	current := s.display.CurrentResolution()
	core.EventFire(core.EVENT_CODE_RESOLUTION_CHANGED, s, core.EventContext{
		I32: [4]int32{int32(current.Width), int32(current.Height), int32(mode)},
	})
	return nil
}

func (s *Screen) FullScreen() bool {
	return s.display.FullScreenMode().IsFullScreen()
}

// SetFullScreen toggles between a full-screen window and a window at the same size.
func (s *Screen) SetFullScreen(on bool) error {
	return s.SetFullScreenMode(fullScreenModeFor(on))
}

func (s *Screen) FullScreenMode() metadata.FullScreenMode {
	return s.display.FullScreenMode()
}

func (s *Screen) SetFullScreenMode(mode metadata.FullScreenMode) error {
	w, h := s.display.WindowSize()
	return s.SetResolutionWithRefreshRate(w, h, mode, metadata.RefreshRate{})
}

func (s *Screen) Orientation() metadata.ScreenOrientation {
	return s.display.Orientation()
}

func (s *Screen) SetOrientation(o metadata.ScreenOrientation) error {
	if !o.IsValid() {
		return core.InvalidArgument("invalid screen orientation %d", o)
	}
	if err := s.display.SetOrientation(o); err != nil {
		return core.NativeFailure("SetOrientation", err)
	}
	return nil
}

func (s *Screen) Brightness() float32 {
	return s.display.Brightness()
}

// SetBrightness is clamped to [0, 1] by the display.
func (s *Screen) SetBrightness(b float32) {
	s.display.SetBrightness(b)
}

func (s *Screen) SleepTimeout() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sleepTimeout
}

// SetSleepTimeout takes seconds, SleepTimeoutNeverSleep or SleepTimeoutSystemSetting.
func (s *Screen) SetSleepTimeout(seconds int) error {
	if seconds < 0 && seconds != SleepTimeoutNeverSleep && seconds != SleepTimeoutSystemSetting {
		return core.InvalidArgument("invalid sleep timeout %d", seconds)
	}
	s.mutex.Lock()
	s.sleepTimeout = seconds
	s.mutex.Unlock()
	return nil
}
