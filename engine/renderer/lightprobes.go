package renderer

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// LightProbes exposes the baked light probes of the loaded scene.
type LightProbes struct {
	backend native.LightProbeBackend
}

func newLightProbes(backend native.LightProbeBackend) *LightProbes {
	return &LightProbes{backend: backend}
}

func (l *LightProbes) Count() int {
	return len(l.backend.LightProbePositions())
}

func (l *LightProbes) Positions() []math.Vec3 {
	return l.backend.LightProbePositions()
}

func (l *LightProbes) Coefficients() []metadata.SphericalHarmonicsL2 {
	return l.backend.LightProbeCoefficients()
}

// SetCoefficients replaces the coefficients. There must be one per probe.
func (l *LightProbes) SetCoefficients(coefficients []metadata.SphericalHarmonicsL2) error {
	if coefficients == nil {
		return core.InvalidArgument("coefficients are nil")
	}
	if n := l.Count(); len(coefficients) != n {
		return core.InvalidArgument("expected %d probe coefficients, got %d", n, len(coefficients))
	}
	if err := l.backend.SetLightProbeCoefficients(coefficients); err != nil {
		return core.NativeFailure("SetLightProbeCoefficients", err)
	}
	return nil
}

// GetInterpolatedProbe returns the lighting at position.
func (l *LightProbes) GetInterpolatedProbe(position math.Vec3) (metadata.SphericalHarmonicsL2, error) {
	sh, _, err := l.backend.InterpolateLightProbe(position)
	if err != nil {
		return sh, core.NativeFailure("InterpolateLightProbe", err)
	}
	return sh, nil
}

/**
 * @brief Fills lightProbes and occlusionProbes for every position. Either
 * output may be nil; a non-nil output must hold at least len(positions)
 * elements.
 */
func (l *LightProbes) CalculateInterpolatedLightAndOcclusionProbes(positions []math.Vec3, lightProbes []metadata.SphericalHarmonicsL2, occlusionProbes []math.Vec4) error {
	if positions == nil {
		return core.InvalidArgument("positions are nil")
	}
	if lightProbes != nil && len(lightProbes) < len(positions) {
		return core.InvalidArgument("lightProbes has %d elements, need at least %d", len(lightProbes), len(positions))
	}
	if occlusionProbes != nil && len(occlusionProbes) < len(positions) {
		return core.InvalidArgument("occlusionProbes has %d elements, need at least %d", len(occlusionProbes), len(positions))
	}
	for i, p := range positions {
		sh, occlusion, err := l.backend.InterpolateLightProbe(p)
		if err != nil {
			return core.NativeFailure("InterpolateLightProbe", err)
		}
		if lightProbes != nil {
			lightProbes[i] = sh
		}
		if occlusionProbes != nil {
			occlusionProbes[i] = occlusion
		}
	}
	return nil
}
