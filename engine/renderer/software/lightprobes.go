package software

import (
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type lightProbeSet struct {
	positions    []math.Vec3
	coefficients []metadata.SphericalHarmonicsL2
}

func newLightProbeSet(cfg config.LightProbeConfig) lightProbeSet {
	set := lightProbeSet{
		positions:    make([]math.Vec3, len(cfg.Positions)),
		coefficients: make([]metadata.SphericalHarmonicsL2, len(cfg.Positions)),
	}
	for i, p := range cfg.Positions {
		set.positions[i] = math.Vec3{X: p[0], Y: p[1], Z: p[2]}
		if i < len(cfg.Ambient) {
			a := cfg.Ambient[i]
			set.coefficients[i].AddAmbientLight(math.Color{R: a[0], G: a[1], B: a[2], A: 1})
		}
	}
	return set
}

func (b *Backend) LightProbePositions() []math.Vec3 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]math.Vec3(nil), b.probes.positions...)
}

func (b *Backend) LightProbeCoefficients() []metadata.SphericalHarmonicsL2 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]metadata.SphericalHarmonicsL2(nil), b.probes.coefficients...)
}

func (b *Backend) SetLightProbeCoefficients(coefficients []metadata.SphericalHarmonicsL2) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if len(coefficients) != len(b.probes.positions) {
		return core.InvalidArgument("expected %d probe coefficients, got %d", len(b.probes.positions), len(coefficients))
	}
	b.probes.coefficients = append([]metadata.SphericalHarmonicsL2(nil), coefficients...)
	return nil
}

// InterpolateLightProbe blends probes by inverse squared distance. A probe at
// position wins outright. Occlusion is always fully visible.
func (b *Backend) InterpolateLightProbe(position math.Vec3) (metadata.SphericalHarmonicsL2, math.Vec4, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	occlusion := math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	var out metadata.SphericalHarmonicsL2
	if len(b.probes.positions) == 0 {
		return out, occlusion, nil
	}
	var total float32
	for i, p := range b.probes.positions {
		d2 := p.Sub(position).LengthSquared()
		if d2 < 1e-8 {
			return b.probes.coefficients[i], occlusion, nil
		}
		w := 1 / d2
		out = out.Add(b.probes.coefficients[i].Scale(w))
		total += w
	}
	return out.Scale(1 / total), occlusion, nil
}
