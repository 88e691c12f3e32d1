package metadata

import (
	"fmt"
	"strings"
)

type FullScreenMode int32

const (
	FullScreenModeExclusiveFullScreen FullScreenMode = 0
	FullScreenModeFullScreenWindow    FullScreenMode = 1
	FullScreenModeMaximizedWindow     FullScreenMode = 2
	FullScreenModeWindowed            FullScreenMode = 3
)

func (m FullScreenMode) String() string {
	switch m {
	case FullScreenModeExclusiveFullScreen:
		return "exclusive"
	case FullScreenModeFullScreenWindow:
		return "fullscreen_window"
	case FullScreenModeMaximizedWindow:
		return "maximized"
	case FullScreenModeWindowed:
		return "windowed"
	}
	return fmt.Sprintf("FullScreenMode(%d)", int32(m))
}

// IsFullScreen reports whether the mode covers the whole display.
func (m FullScreenMode) IsFullScreen() bool {
	return m == FullScreenModeExclusiveFullScreen || m == FullScreenModeFullScreenWindow
}

// ParseFullScreenMode accepts the names used in configuration files.
func ParseFullScreenMode(name string) (FullScreenMode, error) {
	for m := FullScreenModeExclusiveFullScreen; m <= FullScreenModeWindowed; m++ {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return FullScreenModeWindowed, fmt.Errorf("unknown full screen mode %q", name)
}

type ScreenOrientation int32

const (
	ScreenOrientationPortrait           ScreenOrientation = 1
	ScreenOrientationPortraitUpsideDown ScreenOrientation = 2
	ScreenOrientationLandscapeLeft      ScreenOrientation = 3
	ScreenOrientationLandscapeRight     ScreenOrientation = 4
	ScreenOrientationAutoRotation       ScreenOrientation = 5
)

func (o ScreenOrientation) IsValid() bool {
	return o >= ScreenOrientationPortrait && o <= ScreenOrientationAutoRotation
}

// RefreshRate is a rational refresh rate in hertz.
type RefreshRate struct {
	Numerator   uint32
	Denominator uint32
}

func NewRefreshRate(hz float64) RefreshRate {
	if hz <= 0 {
		return RefreshRate{}
	}
	return RefreshRate{Numerator: uint32(hz*1000 + 0.5), Denominator: 1000}
}

func (r RefreshRate) Value() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

func (r RefreshRate) String() string {
	return fmt.Sprintf("%.2fHz", r.Value())
}

type Resolution struct {
	Width            int
	Height           int
	RefreshRateRatio RefreshRate
}

func (r Resolution) String() string {
	return fmt.Sprintf("%d x %d @ %s", r.Width, r.Height, r.RefreshRateRatio)
}

type ColorGamut int32

const (
	ColorGamutSRGB      ColorGamut = 0
	ColorGamutRec709    ColorGamut = 1
	ColorGamutRec2020   ColorGamut = 2
	ColorGamutDisplayP3 ColorGamut = 3
	ColorGamutHDR10     ColorGamut = 4
	ColorGamutDolbyHDR  ColorGamut = 5
	ColorGamutP3D65G22  ColorGamut = 6
)

type HDRDisplaySupportFlags int32

const (
	HDRDisplaySupportNone                 HDRDisplaySupportFlags = 0
	HDRDisplaySupportSupported            HDRDisplaySupportFlags = 1
	HDRDisplaySupportRuntimeSwitchable    HDRDisplaySupportFlags = 2
	HDRDisplaySupportAutomaticTonemapping HDRDisplaySupportFlags = 4
)

func (f HDRDisplaySupportFlags) Has(flag HDRDisplaySupportFlags) bool {
	return f&flag == flag
}

type HDRDisplayBitDepth int32

const (
	HDRDisplayBitDepth10 HDRDisplayBitDepth = 0
	HDRDisplayBitDepth16 HDRDisplayBitDepth = 1
)
