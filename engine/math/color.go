package math

var (
	ColorClear = Color{0, 0, 0, 0}
	ColorBlack = Color{0, 0, 0, 1}
	ColorWhite = Color{1, 1, 1, 1}
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	ColorBlue  = Color{0, 0, 1, 1}
)

func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// ToColor32 quantises each clamped channel to 8 bits with rounding.
func (c Color) ToColor32() Color32 {
	return Color32{
		R: uint8(Clamp01(c.R)*255 + 0.5),
		G: uint8(Clamp01(c.G)*255 + 0.5),
		B: uint8(Clamp01(c.B)*255 + 0.5),
		A: uint8(Clamp01(c.A)*255 + 0.5),
	}
}

func (c Color32) ToColor() Color {
	return Color{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

func (c Color) ToVec4() Vec4 {
	return Vec4{c.R, c.G, c.B, c.A}
}

// Compare reports whether every channel is within tolerance of other.
func (c Color) Compare(other Color, tolerance float32) bool {
	return kabs(c.R-other.R) <= tolerance &&
		kabs(c.G-other.G) <= tolerance &&
		kabs(c.B-other.B) <= tolerance &&
		kabs(c.A-other.A) <= tolerance
}
