package metadata

import "strings"

// TextureFormat is the legacy texture format enumeration.
type TextureFormat int32

const (
	TextureFormatAlpha8       TextureFormat = 1
	TextureFormatARGB4444     TextureFormat = 2
	TextureFormatRGB24        TextureFormat = 3
	TextureFormatRGBA32       TextureFormat = 4
	TextureFormatARGB32       TextureFormat = 5
	TextureFormatRGB565       TextureFormat = 7
	TextureFormatR16          TextureFormat = 9
	TextureFormatDXT1         TextureFormat = 10
	TextureFormatDXT5         TextureFormat = 12
	TextureFormatRGBA4444     TextureFormat = 13
	TextureFormatBGRA32       TextureFormat = 14
	TextureFormatRHalf        TextureFormat = 15
	TextureFormatRGHalf       TextureFormat = 16
	TextureFormatRGBAHalf     TextureFormat = 17
	TextureFormatRFloat       TextureFormat = 18
	TextureFormatRGFloat      TextureFormat = 19
	TextureFormatRGBAFloat    TextureFormat = 20
	TextureFormatYUY2         TextureFormat = 21
	TextureFormatRGB9e5Float  TextureFormat = 22
	TextureFormatBC6H         TextureFormat = 24
	TextureFormatBC7          TextureFormat = 25
	TextureFormatBC4          TextureFormat = 26
	TextureFormatBC5          TextureFormat = 27
	TextureFormatDXT1Crunched TextureFormat = 28
	TextureFormatDXT5Crunched TextureFormat = 29
	TextureFormatETC2_RGBA8   TextureFormat = 47
	TextureFormatRG16         TextureFormat = 62
	TextureFormatR8           TextureFormat = 63
	TextureFormatRG32         TextureFormat = 72
	TextureFormatRGB48        TextureFormat = 73
	TextureFormatRGBA64       TextureFormat = 74
)

type textureFormatEntry struct {
	name   string
	linear GraphicsFormat
}

// Formats mapped to FormatNone exist in the enumeration but have no
// uncompressed equivalent the runtime can store.
var textureFormats = map[TextureFormat]textureFormatEntry{
	TextureFormatAlpha8:       {"Alpha8", FormatNone},
	TextureFormatARGB4444:     {"ARGB4444", FormatNone},
	TextureFormatRGB24:        {"RGB24", FormatR8G8B8_UNorm},
	TextureFormatRGBA32:       {"RGBA32", FormatR8G8B8A8_UNorm},
	TextureFormatARGB32:       {"ARGB32", FormatNone},
	TextureFormatRGB565:       {"RGB565", FormatNone},
	TextureFormatR16:          {"R16", FormatR16_UNorm},
	TextureFormatDXT1:         {"DXT1", FormatNone},
	TextureFormatDXT5:         {"DXT5", FormatNone},
	TextureFormatRGBA4444:     {"RGBA4444", FormatNone},
	TextureFormatBGRA32:       {"BGRA32", FormatB8G8R8A8_UNorm},
	TextureFormatRHalf:        {"RHalf", FormatR16_SFloat},
	TextureFormatRGHalf:       {"RGHalf", FormatR16G16_SFloat},
	TextureFormatRGBAHalf:     {"RGBAHalf", FormatR16G16B16A16_SFloat},
	TextureFormatRFloat:       {"RFloat", FormatR32_SFloat},
	TextureFormatRGFloat:      {"RGFloat", FormatR32G32_SFloat},
	TextureFormatRGBAFloat:    {"RGBAFloat", FormatR32G32B32A32_SFloat},
	TextureFormatYUY2:         {"YUY2", FormatNone},
	TextureFormatRGB9e5Float:  {"RGB9e5Float", FormatNone},
	TextureFormatBC6H:         {"BC6H", FormatNone},
	TextureFormatBC7:          {"BC7", FormatNone},
	TextureFormatBC4:          {"BC4", FormatNone},
	TextureFormatBC5:          {"BC5", FormatNone},
	TextureFormatDXT1Crunched: {"DXT1Crunched", FormatNone},
	TextureFormatDXT5Crunched: {"DXT5Crunched", FormatNone},
	TextureFormatETC2_RGBA8:   {"ETC2_RGBA8", FormatNone},
	TextureFormatRG16:         {"RG16", FormatR8G8_UNorm},
	TextureFormatR8:           {"R8", FormatR8_UNorm},
	TextureFormatRG32:         {"RG32", FormatR16G16_UNorm},
	TextureFormatRGB48:        {"RGB48", FormatR16G16B16_UNorm},
	TextureFormatRGBA64:       {"RGBA64", FormatR16G16B16A16_UNorm},
}

func (t TextureFormat) String() string {
	if e, ok := textureFormats[t]; ok {
		return e.name
	}
	return "Unknown"
}

func (t TextureFormat) IsValid() bool {
	_, ok := textureFormats[t]
	return ok
}

// GraphicsFormat resolves t to its GraphicsFormat. FormatNone means the format
// is known but has no runtime representation.
func (t TextureFormat) GraphicsFormat(srgb bool) GraphicsFormat {
	e, ok := textureFormats[t]
	if !ok || e.linear == FormatNone {
		return FormatNone
	}
	return e.linear.SRGBVariant(srgb)
}

// TextureFormatFor returns the legacy format whose mapping yields f.
func TextureFormatFor(f GraphicsFormat) (TextureFormat, bool) {
	linear := f.SRGBVariant(false)
	for t, e := range textureFormats {
		if e.linear != FormatNone && e.linear == linear {
			return t, true
		}
	}
	return 0, false
}

func ParseTextureFormat(name string) (TextureFormat, bool) {
	for t, e := range textureFormats {
		if strings.EqualFold(e.name, name) {
			return t, true
		}
	}
	return 0, false
}

// RenderTextureFormat is the legacy render target format enumeration.
type RenderTextureFormat int32

const (
	RenderTextureFormatARGB32          RenderTextureFormat = 0
	RenderTextureFormatDepth           RenderTextureFormat = 1
	RenderTextureFormatARGBHalf        RenderTextureFormat = 2
	RenderTextureFormatShadowmap       RenderTextureFormat = 3
	RenderTextureFormatRGB565          RenderTextureFormat = 4
	RenderTextureFormatARGB4444        RenderTextureFormat = 5
	RenderTextureFormatARGB1555        RenderTextureFormat = 6
	RenderTextureFormatDefault         RenderTextureFormat = 7
	RenderTextureFormatARGB2101010     RenderTextureFormat = 8
	RenderTextureFormatDefaultHDR      RenderTextureFormat = 9
	RenderTextureFormatARGB64          RenderTextureFormat = 10
	RenderTextureFormatARGBFloat       RenderTextureFormat = 11
	RenderTextureFormatRGFloat         RenderTextureFormat = 12
	RenderTextureFormatRGHalf          RenderTextureFormat = 13
	RenderTextureFormatRFloat          RenderTextureFormat = 14
	RenderTextureFormatRHalf           RenderTextureFormat = 15
	RenderTextureFormatR8              RenderTextureFormat = 16
	RenderTextureFormatARGBInt         RenderTextureFormat = 17
	RenderTextureFormatRGInt           RenderTextureFormat = 18
	RenderTextureFormatRInt            RenderTextureFormat = 19
	RenderTextureFormatBGRA32          RenderTextureFormat = 20
	RenderTextureFormatRGB111110Float  RenderTextureFormat = 22
	RenderTextureFormatRG32            RenderTextureFormat = 23
	RenderTextureFormatRGBAUShort      RenderTextureFormat = 24
	RenderTextureFormatRG16            RenderTextureFormat = 25
	RenderTextureFormatBGRA10101010_XR RenderTextureFormat = 26
	RenderTextureFormatBGR101010_XR    RenderTextureFormat = 27
	RenderTextureFormatR16             RenderTextureFormat = 28
)

var renderTextureFormats = map[RenderTextureFormat]GraphicsFormat{
	RenderTextureFormatARGB32:     FormatR8G8B8A8_UNorm,
	RenderTextureFormatARGBHalf:   FormatR16G16B16A16_SFloat,
	RenderTextureFormatDefault:    FormatR8G8B8A8_UNorm,
	RenderTextureFormatDefaultHDR: FormatR16G16B16A16_SFloat,
	RenderTextureFormatARGB64:     FormatR16G16B16A16_UNorm,
	RenderTextureFormatARGBFloat:  FormatR32G32B32A32_SFloat,
	RenderTextureFormatRGFloat:    FormatR32G32_SFloat,
	RenderTextureFormatRGHalf:     FormatR16G16_SFloat,
	RenderTextureFormatRFloat:     FormatR32_SFloat,
	RenderTextureFormatRHalf:      FormatR16_SFloat,
	RenderTextureFormatR8:         FormatR8_UNorm,
	RenderTextureFormatARGBInt:    FormatR32G32B32A32_SInt,
	RenderTextureFormatRGInt:      FormatR32G32_SInt,
	RenderTextureFormatRInt:       FormatR32_SInt,
	RenderTextureFormatBGRA32:     FormatB8G8R8A8_UNorm,
	RenderTextureFormatRG32:       FormatR16G16_UNorm,
	RenderTextureFormatRGBAUShort: FormatR16G16B16A16_UInt,
	RenderTextureFormatRG16:       FormatR8G8_UNorm,
	RenderTextureFormatR16:        FormatR16_UNorm,
}

// IsDepthOnly reports whether the format describes a depth target without color.
func (r RenderTextureFormat) IsDepthOnly() bool {
	return r == RenderTextureFormatDepth || r == RenderTextureFormatShadowmap
}

// GraphicsFormat resolves r to a color format. Depth-only formats and formats
// without a runtime representation yield FormatNone and false.
func (r RenderTextureFormat) GraphicsFormat(readWrite RenderTextureReadWrite) (GraphicsFormat, bool) {
	f, ok := renderTextureFormats[r]
	if !ok {
		return FormatNone, false
	}
	return f.SRGBVariant(readWrite.IsSRGB()), true
}

// RenderTextureReadWrite selects color space conversion for legacy render textures.
type RenderTextureReadWrite int32

const (
	RenderTextureReadWriteDefault RenderTextureReadWrite = 0
	RenderTextureReadWriteLinear  RenderTextureReadWrite = 1
	RenderTextureReadWriteSRGB    RenderTextureReadWrite = 2
)

// IsSRGB resolves Default as sRGB, matching a linear color space project.
func (r RenderTextureReadWrite) IsSRGB() bool {
	return r != RenderTextureReadWriteLinear
}

// GraphicsFormatUsage is a bitmask of operations a format supports.
type GraphicsFormatUsage uint32

const (
	UsageNone            GraphicsFormatUsage = 0
	UsageSample          GraphicsFormatUsage = 1 << 0
	UsageLinear          GraphicsFormatUsage = 1 << 1
	UsageSparse          GraphicsFormatUsage = 1 << 2
	UsageRender          GraphicsFormatUsage = 1 << 4
	UsageBlend           GraphicsFormatUsage = 1 << 5
	UsageGetPixels       GraphicsFormatUsage = 1 << 6
	UsageSetPixels       GraphicsFormatUsage = 1 << 7
	UsageSetPixels32     GraphicsFormatUsage = 1 << 8
	UsageReadPixels      GraphicsFormatUsage = 1 << 9
	UsageLoadStore       GraphicsFormatUsage = 1 << 10
	UsageMSAA2x          GraphicsFormatUsage = 1 << 11
	UsageMSAA4x          GraphicsFormatUsage = 1 << 12
	UsageMSAA8x          GraphicsFormatUsage = 1 << 13
	UsageStencilSampling GraphicsFormatUsage = 1 << 16
)

func (u GraphicsFormatUsage) Has(flag GraphicsFormatUsage) bool {
	return u&flag == flag
}

func (u GraphicsFormatUsage) String() string {
	if u == UsageNone {
		return "None"
	}
	names := []struct {
		flag GraphicsFormatUsage
		name string
	}{
		{UsageSample, "Sample"}, {UsageLinear, "Linear"}, {UsageSparse, "Sparse"},
		{UsageRender, "Render"}, {UsageBlend, "Blend"}, {UsageGetPixels, "GetPixels"},
		{UsageSetPixels, "SetPixels"}, {UsageSetPixels32, "SetPixels32"}, {UsageReadPixels, "ReadPixels"},
		{UsageLoadStore, "LoadStore"}, {UsageMSAA2x, "MSAA2x"}, {UsageMSAA4x, "MSAA4x"},
		{UsageMSAA8x, "MSAA8x"}, {UsageStencilSampling, "StencilSampling"},
	}
	var parts []string
	for _, n := range names {
		if u.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// MSAAUsage maps a sample count to the usage flag required to render with it.
func MSAAUsage(samples int) GraphicsFormatUsage {
	switch samples {
	case 2:
		return UsageMSAA2x
	case 4:
		return UsageMSAA4x
	case 8:
		return UsageMSAA8x
	}
	return UsageNone
}

// DefaultUsage is the usage set a CPU-side backend grants a format.
func DefaultUsage(f GraphicsFormat) GraphicsFormatUsage {
	info, ok := f.Info()
	if !ok {
		return UsageNone
	}
	switch info.Kind {
	case FormatKindDepth, FormatKindStencil:
		u := UsageRender | UsageMSAA2x | UsageMSAA4x | UsageMSAA8x
		if info.Kind == FormatKindDepth {
			u |= UsageSample
		}
		if info.StencilBits > 0 {
			u |= UsageStencilSampling
		}
		return u
	case FormatKindUInt, FormatKindSInt:
		return UsageSample | UsageRender | UsageLoadStore | UsageReadPixels
	}
	u := UsageSample | UsageLinear | UsageRender | UsageBlend | UsageLoadStore |
		UsageMSAA2x | UsageMSAA4x | UsageMSAA8x | UsageReadPixels
	if CanConvertPixels(f) {
		u |= UsageGetPixels | UsageSetPixels | UsageSetPixels32
	}
	return u
}

// DepthFormatForBits maps a legacy depth buffer bit count to a depth format.
func DepthFormatForBits(bits int) (GraphicsFormat, bool) {
	switch bits {
	case 0:
		return FormatNone, true
	case 16:
		return FormatD16_UNorm, true
	case 24:
		return FormatD24_UNorm_S8_UInt, true
	case 32:
		return FormatD32_SFloat_S8_UInt, true
	}
	return FormatNone, false
}
