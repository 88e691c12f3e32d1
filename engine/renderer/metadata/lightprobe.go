package metadata

import "github.com/spaghettifunk/lumen/engine/math"

// SHCoefficientCount is the number of coefficients per color channel of an L2 harmonic.
const SHCoefficientCount = 9

// SphericalHarmonicsL2 stores third order spherical harmonics for red, green and blue.
type SphericalHarmonicsL2 struct {
	Coefficients [3][SHCoefficientCount]float32
}

func (sh *SphericalHarmonicsL2) Clear() {
	*sh = SphericalHarmonicsL2{}
}

// AddAmbientLight adds a uniform color to the constant band.
func (sh *SphericalHarmonicsL2) AddAmbientLight(c math.Color) {
	sh.Coefficients[0][0] += c.R
	sh.Coefficients[1][0] += c.G
	sh.Coefficients[2][0] += c.B
}

func (sh SphericalHarmonicsL2) Add(other SphericalHarmonicsL2) SphericalHarmonicsL2 {
	for ch := 0; ch < 3; ch++ {
		for i := 0; i < SHCoefficientCount; i++ {
			sh.Coefficients[ch][i] += other.Coefficients[ch][i]
		}
	}
	return sh
}

func (sh SphericalHarmonicsL2) Scale(f float32) SphericalHarmonicsL2 {
	for ch := 0; ch < 3; ch++ {
		for i := 0; i < SHCoefficientCount; i++ {
			sh.Coefficients[ch][i] *= f
		}
	}
	return sh
}

// Evaluate returns the irradiance for the given normalized direction using
// the real SH basis up to band 2.
func (sh SphericalHarmonicsL2) Evaluate(dir math.Vec3) math.Color {
	x, y, z := dir.X, dir.Y, dir.Z
	basis := [SHCoefficientCount]float32{
		0.282095,
		0.488603 * y,
		0.488603 * z,
		0.488603 * x,
		1.092548 * x * y,
		1.092548 * y * z,
		0.315392 * (3*z*z - 1),
		1.092548 * x * z,
		0.546274 * (x*x - y*y),
	}
	var out [3]float32
	for ch := 0; ch < 3; ch++ {
		for i := 0; i < SHCoefficientCount; i++ {
			out[ch] += sh.Coefficients[ch][i] * basis[i]
		}
	}
	return math.Color{R: out[0], G: out[1], B: out[2], A: 1}
}
