package renderer

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// ScalableBufferManager resizes every render target that opted into dynamic scaling.
type ScalableBufferManager struct {
	backend native.ScalingBackend
}

func newScalableBufferManager(backend native.ScalingBackend) *ScalableBufferManager {
	return &ScalableBufferManager{backend: backend}
}

// ResizeBuffers takes scale factors in (0, 1].
func (s *ScalableBufferManager) ResizeBuffers(widthScale, heightScale float32) error {
	if widthScale <= 0 || widthScale > 1 || heightScale <= 0 || heightScale > 1 {
		return core.InvalidArgument("scale factors must be in (0, 1], got %g x %g", widthScale, heightScale)
	}
	oldW, oldH := s.backend.ScaleFactors()
	if err := s.backend.ResizeBuffers(widthScale, heightScale); err != nil {
		return core.NativeFailure("ResizeBuffers", err)
	}
	if oldW != widthScale || oldH != heightScale {
		core.EventFire(core.EVENT_CODE_SCALE_FACTOR_CHANGED, s, core.EventContext{
			F32: [4]float32{widthScale, heightScale},
		})
	}
	return nil
}

func (s *ScalableBufferManager) WidthScaleFactor() float32 {
	w, _ := s.backend.ScaleFactors()
	return w
}

func (s *ScalableBufferManager) HeightScaleFactor() float32 {
	_, h := s.backend.ScaleFactors()
	return h
}
