package metadata

import (
	"encoding/binary"
	m "math"

	"github.com/spaghettifunk/lumen/engine/math"
)

// CanConvertPixels reports whether texels of f can be converted to and from Color.
func CanConvertPixels(f GraphicsFormat) bool {
	info, ok := f.Info()
	if !ok {
		return false
	}
	bytesPerComponent := info.BlockSize / info.Components
	switch info.Kind {
	case FormatKindUNorm, FormatKindSNorm:
		return bytesPerComponent == 1 || bytesPerComponent == 2
	case FormatKindSRGB:
		return bytesPerComponent == 1
	case FormatKindSFloat:
		return bytesPerComponent == 2 || bytesPerComponent == 4
	}
	return false
}

func channelOrder(info FormatInfo) []int {
	switch {
	case info.BGR && info.Components == 4:
		return []int{2, 1, 0, 3}
	case info.BGR:
		return []int{2, 1, 0}
	}
	return []int{0, 1, 2, 3}[:info.Components]
}

// EncodeColor writes c into dst using the texel layout of f. dst must hold
// at least f.BlockSize() bytes.
func EncodeColor(f GraphicsFormat, c math.Color, dst []byte) {
	info := formatInfos[f]
	width := info.BlockSize / info.Components
	src := [4]float32{c.R, c.G, c.B, c.A}
	for slot, channel := range channelOrder(info) {
		v := src[channel]
		out := dst[slot*width:]
		switch info.Kind {
		case FormatKindUNorm, FormatKindSRGB:
			v = math.Clamp01(v)
			if width == 1 {
				out[0] = uint8(v*255 + 0.5)
			} else {
				binary.LittleEndian.PutUint16(out, uint16(v*65535+0.5))
			}
		case FormatKindSNorm:
			v = math.Clamp(v, -1, 1)
			if width == 1 {
				out[0] = uint8(int8(m.Round(float64(v) * 127)))
			} else {
				binary.LittleEndian.PutUint16(out, uint16(int16(m.Round(float64(v)*32767))))
			}
		case FormatKindSFloat:
			if width == 2 {
				binary.LittleEndian.PutUint16(out, math.Float32ToHalf(v))
			} else {
				binary.LittleEndian.PutUint32(out, m.Float32bits(v))
			}
		}
	}
}

// DecodeColor reads one texel of f from src. Channels the format lacks read
// as zero, except alpha which reads as one.
func DecodeColor(f GraphicsFormat, src []byte) math.Color {
	info := formatInfos[f]
	width := info.BlockSize / info.Components
	dst := [4]float32{0, 0, 0, 1}
	for slot, channel := range channelOrder(info) {
		in := src[slot*width:]
		var v float32
		switch info.Kind {
		case FormatKindUNorm, FormatKindSRGB:
			if width == 1 {
				v = float32(in[0]) / 255
			} else {
				v = float32(binary.LittleEndian.Uint16(in)) / 65535
			}
		case FormatKindSNorm:
			if width == 1 {
				v = math.Max(float32(int8(in[0]))/127, -1)
			} else {
				v = math.Max(float32(int16(binary.LittleEndian.Uint16(in)))/32767, -1)
			}
		case FormatKindSFloat:
			if width == 2 {
				v = math.HalfToFloat32(binary.LittleEndian.Uint16(in))
			} else {
				v = m.Float32frombits(binary.LittleEndian.Uint32(in))
			}
		}
		dst[channel] = v
	}
	return math.Color{R: dst[0], G: dst[1], B: dst[2], A: dst[3]}
}

// MipSize returns the extent of mip level for a base extent, never below one.
func MipSize(base, level int) int {
	s := base >> uint(level)
	if s < 1 {
		return 1
	}
	return s
}

// MipCount returns the length of a full mip chain for the given extents.
func MipCount(width, height, depth int) int {
	largest := math.Max(width, math.Max(height, depth))
	count := 1
	for largest > 1 {
		largest >>= 1
		count++
	}
	return count
}

// MipLevelSize returns the byte size of one mip level slice of f.
func MipLevelSize(f GraphicsFormat, width, height, level int) int {
	return MipSize(width, level) * MipSize(height, level) * f.BlockSize()
}

// MipChainSize returns the byte size of mipCount levels of one slice of f.
func MipChainSize(f GraphicsFormat, width, height, mipCount int) int {
	total := 0
	for level := 0; level < mipCount; level++ {
		total += MipLevelSize(f, width, height, level)
	}
	return total
}

// MipOffset returns the byte offset of level within a packed mip chain.
func MipOffset(f GraphicsFormat, width, height, level int) int {
	return MipChainSize(f, width, height, level)
}
