package renderer

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief HDR output state of one display. Everything but Available and
 * DisplayIndex fails with ErrInvalidOperation when the display has no HDR.
 */
type HDROutputSettings struct {
	backend native.HDRBackend
	index   int
}

func (h *HDROutputSettings) DisplayIndex() int {
	return h.index
}

func (h *HDROutputSettings) Name() string {
	state, err := h.backend.HDRDisplay(h.index)
	if err != nil {
		return ""
	}
	return state.Name
}

// Available reports whether the display can output HDR at all.
func (h *HDROutputSettings) Available() bool {
	state, err := h.backend.HDRDisplay(h.index)
	return err == nil && state.Available
}

func (h *HDROutputSettings) active() bool {
	state, err := h.backend.HDRDisplay(h.index)
	return err == nil && state.Active
}

// state returns the display state, gated on availability.
func (h *HDROutputSettings) state() (native.HDRDisplayState, error) {
	state, err := h.backend.HDRDisplay(h.index)
	if err != nil {
		return state, core.NativeFailure("HDRDisplay", err)
	}
	if !state.Available {
		return state, core.InvalidOperation("HDR is not available on display %d (%s)", h.index, state.Name)
	}
	return state, nil
}

func (h *HDROutputSettings) Active() (bool, error) {
	s, err := h.state()
	return s.Active, err
}

func (h *HDROutputSettings) AutomaticHDRTonemapping() (bool, error) {
	s, err := h.state()
	return s.AutomaticHDRTonemapping, err
}

func (h *HDROutputSettings) SetAutomaticHDRTonemapping(enabled bool) error {
	if _, err := h.state(); err != nil {
		return err
	}
	return h.backend.HDRSetAutomaticTonemapping(h.index, enabled)
}

func (h *HDROutputSettings) DisplayColorGamut() (metadata.ColorGamut, error) {
	s, err := h.state()
	return s.DisplayColorGamut, err
}

func (h *HDROutputSettings) GraphicsFormat() (metadata.GraphicsFormat, error) {
	s, err := h.state()
	return s.GraphicsFormat, err
}

// Format is the legacy render texture format of the HDR swap chain.
func (h *HDROutputSettings) Format() (metadata.RenderTextureFormat, error) {
	s, err := h.state()
	if err != nil {
		return metadata.RenderTextureFormatDefault, err
	}
	if s.GraphicsFormat == metadata.FormatR16G16B16A16_SFloat {
		return metadata.RenderTextureFormatARGBHalf, nil
	}
	return metadata.RenderTextureFormatDefault, nil
}

func (h *HDROutputSettings) BitDepth() (metadata.HDRDisplayBitDepth, error) {
	s, err := h.state()
	return s.BitDepth, err
}

func (h *HDROutputSettings) MaxToneMapLuminance() (int, error) {
	s, err := h.state()
	return s.MaxToneMapLuminance, err
}

func (h *HDROutputSettings) MinToneMapLuminance() (int, error) {
	s, err := h.state()
	return s.MinToneMapLuminance, err
}

func (h *HDROutputSettings) MaxFullFrameToneMapLuminance() (int, error) {
	s, err := h.state()
	return s.MaxFullFrameToneMapLuminance, err
}

func (h *HDROutputSettings) PaperWhiteNits() (float32, error) {
	s, err := h.state()
	return s.PaperWhiteNits, err
}

// SetPaperWhiteNits sets the brightness of paper white. It must be positive.
func (h *HDROutputSettings) SetPaperWhiteNits(nits float32) error {
	if _, err := h.state(); err != nil {
		return err
	}
	if nits <= 0 {
		return core.InvalidArgument("paper white must be positive, got %g nits", nits)
	}
	return h.backend.HDRSetPaperWhite(h.index, nits)
}

func (h *HDROutputSettings) SupportFlags() metadata.HDRDisplaySupportFlags {
	state, err := h.backend.HDRDisplay(h.index)
	if err != nil {
		return metadata.HDRDisplaySupportNone
	}
	return state.SupportFlags
}

func (h *HDROutputSettings) HDRModeChangeRequested() (bool, error) {
	s, err := h.state()
	return s.ModeChangeRequested, err
}

// RequestHDRModeChange switches HDR output at the end of the current frame.
// EVENT_CODE_HDR_MODE_CHANGED fires once the switch is effective.
func (h *HDROutputSettings) RequestHDRModeChange(enabled bool) error {
	s, err := h.state()
	if err != nil {
		return err
	}
	if !s.SupportFlags.Has(metadata.HDRDisplaySupportRuntimeSwitchable) {
		return core.InvalidOperation("display %q cannot switch HDR at runtime", s.Name)
	}
	return h.backend.HDRRequestModeChange(h.index, enabled)
}
