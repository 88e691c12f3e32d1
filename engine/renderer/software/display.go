package software

import (
	"sync"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// HeadlessDisplay is a display without a window. Resolution changes apply immediately.
type HeadlessDisplay struct {
	mutex       sync.RWMutex
	current     metadata.Resolution
	modes       []metadata.Resolution
	mode        metadata.FullScreenMode
	dpi         float32
	orientation metadata.ScreenOrientation
	brightness  float32
}

var headlessModes = [][2]int{
	{640, 480}, {800, 600}, {1024, 768}, {1280, 720}, {1600, 900}, {1920, 1080}, {2560, 1440}, {3840, 2160},
}

func NewHeadlessDisplay(cfg config.ScreenConfig) (*HeadlessDisplay, error) {
	mode, err := metadata.ParseFullScreenMode(cfg.FullScreenMode)
	if err != nil {
		return nil, core.InvalidArgument("screen.full_screen_mode: %s", err)
	}
	rate := metadata.NewRefreshRate(cfg.RefreshRate)
	d := &HeadlessDisplay{
		current:     metadata.Resolution{Width: cfg.Width, Height: cfg.Height, RefreshRateRatio: rate},
		mode:        mode,
		dpi:         cfg.DPI,
		orientation: metadata.ScreenOrientationLandscapeLeft,
		brightness:  1,
	}
	seen := false
	for _, m := range headlessModes {
		d.modes = append(d.modes, metadata.Resolution{Width: m[0], Height: m[1], RefreshRateRatio: rate})
		seen = seen || (m[0] == cfg.Width && m[1] == cfg.Height)
	}
	if !seen {
		d.modes = append(d.modes, d.current)
	}
	return d, nil
}

func (d *HeadlessDisplay) WindowSize() (int, int) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.current.Width, d.current.Height
}

func (d *HeadlessDisplay) CurrentResolution() metadata.Resolution {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.current
}

func (d *HeadlessDisplay) Resolutions() []metadata.Resolution {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return append([]metadata.Resolution(nil), d.modes...)
}

func (d *HeadlessDisplay) SetResolution(width, height int, mode metadata.FullScreenMode, refreshRate metadata.RefreshRate) error {
	if width <= 0 || height <= 0 {
		return core.InvalidArgument("resolution %dx%d must be positive", width, height)
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if refreshRate.Denominator == 0 {
		refreshRate = d.current.RefreshRateRatio
	}
	d.current = metadata.Resolution{Width: width, Height: height, RefreshRateRatio: refreshRate}
	d.mode = mode
	return nil
}

func (d *HeadlessDisplay) FullScreenMode() metadata.FullScreenMode {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.mode
}

func (d *HeadlessDisplay) DPI() float32 {
	return d.dpi
}

func (d *HeadlessDisplay) Orientation() metadata.ScreenOrientation {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.orientation
}

func (d *HeadlessDisplay) SetOrientation(o metadata.ScreenOrientation) error {
	if !o.IsValid() {
		return core.InvalidArgument("unknown screen orientation %d", o)
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.orientation = o
	return nil
}

func (d *HeadlessDisplay) Brightness() float32 {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.brightness
}

func (d *HeadlessDisplay) SetBrightness(b float32) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.brightness = math.Clamp01(b)
}
