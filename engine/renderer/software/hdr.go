package software

import (
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

func newHDRDisplays(cfg config.HDRConfig) []native.HDRDisplayState {
	displays := make([]native.HDRDisplayState, 0, len(cfg.Displays))
	for _, d := range cfg.Displays {
		state := native.HDRDisplayState{
			Name:                         d.Name,
			Available:                    d.Available,
			DisplayColorGamut:            metadata.ColorGamutSRGB,
			GraphicsFormat:               metadata.FormatR8G8B8A8_SRGB,
			BitDepth:                     metadata.HDRDisplayBitDepth10,
			MaxToneMapLuminance:          d.MaxToneMapLuminance,
			MinToneMapLuminance:          d.MinToneMapLuminance,
			MaxFullFrameToneMapLuminance: d.MaxFullFrameLuminance,
			PaperWhiteNits:               d.PaperWhiteNits,
		}
		if d.Available {
			state.SupportFlags |= metadata.HDRDisplaySupportSupported
			state.DisplayColorGamut = metadata.ColorGamutHDR10
			state.GraphicsFormat = metadata.FormatR16G16B16A16_SFloat
		}
		if d.RuntimeSwitchable {
			state.SupportFlags |= metadata.HDRDisplaySupportRuntimeSwitchable
		}
		if d.AutomaticTonemapping {
			state.SupportFlags |= metadata.HDRDisplaySupportAutomaticTonemapping
			state.AutomaticHDRTonemapping = d.Available
		}
		displays = append(displays, state)
	}
	return displays
}

func (b *Backend) HDRDisplayCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.hdr)
}

func (b *Backend) hdrDisplay(index int) (*native.HDRDisplayState, error) {
	if index < 0 || index >= len(b.hdr) {
		return nil, core.IndexOutOfRange("display %d out of range [0, %d)", index, len(b.hdr))
	}
	return &b.hdr[index], nil
}

func (b *Backend) HDRDisplay(index int) (native.HDRDisplayState, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	d, err := b.hdrDisplay(index)
	if err != nil {
		return native.HDRDisplayState{}, err
	}
	return *d, nil
}

// HDRRequestModeChange records the request. It takes effect at the next EndFrame.
func (b *Backend) HDRRequestModeChange(index int, active bool) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	d, err := b.hdrDisplay(index)
	if err != nil {
		return err
	}
	if !d.Available {
		return core.InvalidOperation("HDR is not available on display %q", d.Name)
	}
	if !d.SupportFlags.Has(metadata.HDRDisplaySupportRuntimeSwitchable) {
		return core.InvalidOperation("display %q cannot switch HDR at runtime", d.Name)
	}
	d.ModeChangeRequested = d.Active != active
	return nil
}

func (b *Backend) HDRSetPaperWhite(index int, nits float32) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	d, err := b.hdrDisplay(index)
	if err != nil {
		return err
	}
	if !d.Available {
		return core.InvalidOperation("HDR is not available on display %q", d.Name)
	}
	d.PaperWhiteNits = nits
	return nil
}

func (b *Backend) HDRSetAutomaticTonemapping(index int, enabled bool) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	d, err := b.hdrDisplay(index)
	if err != nil {
		return err
	}
	if !d.Available {
		return core.InvalidOperation("HDR is not available on display %q", d.Name)
	}
	if enabled && !d.SupportFlags.Has(metadata.HDRDisplaySupportAutomaticTonemapping) {
		return core.Unsupported("automatic HDR tonemapping on display %q", d.Name)
	}
	d.AutomaticHDRTonemapping = enabled
	return nil
}

// applyHDRModeChanges is called with the mutex held at the end of a frame.
func (b *Backend) applyHDRModeChanges() {
	for i := range b.hdr {
		d := &b.hdr[i]
		if !d.ModeChangeRequested {
			continue
		}
		d.Active = !d.Active
		d.ModeChangeRequested = false
		if d.Active {
			d.GraphicsFormat = metadata.FormatR16G16B16A16_SFloat
		} else {
			d.GraphicsFormat = metadata.FormatR8G8B8A8_SRGB
		}
		core.LogInfo("display %q HDR output active=%t", d.Name, d.Active)
	}
}
