package metadata

import (
	"encoding/binary"
	m "math"

	"github.com/spaghettifunk/lumen/engine/math"
)

// EncodeComponent stores one attribute component v at dst in format f.
// Normalized formats clamp, integer formats truncate.
func EncodeComponent(f VertexAttributeFormat, v float32, dst []byte) {
	switch f {
	case VertexAttributeFormatFloat32:
		binary.LittleEndian.PutUint32(dst, m.Float32bits(v))
	case VertexAttributeFormatFloat16:
		binary.LittleEndian.PutUint16(dst, math.Float32ToHalf(v))
	case VertexAttributeFormatUNorm8:
		dst[0] = uint8(math.Clamp01(v)*255 + 0.5)
	case VertexAttributeFormatSNorm8:
		dst[0] = uint8(int8(m.Round(float64(math.Clamp(v, -1, 1)) * 127)))
	case VertexAttributeFormatUNorm16:
		binary.LittleEndian.PutUint16(dst, uint16(math.Clamp01(v)*65535+0.5))
	case VertexAttributeFormatSNorm16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(m.Round(float64(math.Clamp(v, -1, 1))*32767))))
	case VertexAttributeFormatUInt8:
		dst[0] = uint8(v)
	case VertexAttributeFormatSInt8:
		dst[0] = uint8(int8(v))
	case VertexAttributeFormatUInt16:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case VertexAttributeFormatSInt16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case VertexAttributeFormatUInt32:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case VertexAttributeFormatSInt32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	}
}

// DecodeComponent reads one attribute component stored in format f.
func DecodeComponent(f VertexAttributeFormat, src []byte) float32 {
	switch f {
	case VertexAttributeFormatFloat32:
		return m.Float32frombits(binary.LittleEndian.Uint32(src))
	case VertexAttributeFormatFloat16:
		return math.HalfToFloat32(binary.LittleEndian.Uint16(src))
	case VertexAttributeFormatUNorm8:
		return float32(src[0]) / 255
	case VertexAttributeFormatSNorm8:
		return math.Max(float32(int8(src[0]))/127, -1)
	case VertexAttributeFormatUNorm16:
		return float32(binary.LittleEndian.Uint16(src)) / 65535
	case VertexAttributeFormatSNorm16:
		return math.Max(float32(int16(binary.LittleEndian.Uint16(src)))/32767, -1)
	case VertexAttributeFormatUInt8:
		return float32(src[0])
	case VertexAttributeFormatSInt8:
		return float32(int8(src[0]))
	case VertexAttributeFormatUInt16:
		return float32(binary.LittleEndian.Uint16(src))
	case VertexAttributeFormatSInt16:
		return float32(int16(binary.LittleEndian.Uint16(src)))
	case VertexAttributeFormatUInt32:
		return float32(binary.LittleEndian.Uint32(src))
	case VertexAttributeFormatSInt32:
		return float32(int32(binary.LittleEndian.Uint32(src)))
	}
	return 0
}

// PutIndex writes index i of an index buffer in format f.
func PutIndex(f IndexFormat, buf []byte, i int, value uint32) {
	if f == IndexFormatUInt32 {
		binary.LittleEndian.PutUint32(buf[i*4:], value)
		return
	}
	binary.LittleEndian.PutUint16(buf[i*2:], uint16(value))
}

// Index reads index i of an index buffer in format f.
func Index(f IndexFormat, buf []byte, i int) uint32 {
	if f == IndexFormatUInt32 {
		return binary.LittleEndian.Uint32(buf[i*4:])
	}
	return uint32(binary.LittleEndian.Uint16(buf[i*2:]))
}
