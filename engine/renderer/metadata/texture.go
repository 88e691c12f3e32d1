package metadata

import "fmt"

type TextureDimension int32

const (
	TextureDimensionUnknown    TextureDimension = -1
	TextureDimensionNone       TextureDimension = 0
	TextureDimensionAny        TextureDimension = 1
	TextureDimensionTex2D      TextureDimension = 2
	TextureDimensionTex3D      TextureDimension = 3
	TextureDimensionCube       TextureDimension = 4
	TextureDimensionTex2DArray TextureDimension = 5
	TextureDimensionCubeArray  TextureDimension = 6
)

func (d TextureDimension) String() string {
	switch d {
	case TextureDimensionNone:
		return "None"
	case TextureDimensionAny:
		return "Any"
	case TextureDimensionTex2D:
		return "Tex2D"
	case TextureDimensionTex3D:
		return "Tex3D"
	case TextureDimensionCube:
		return "Cube"
	case TextureDimensionTex2DArray:
		return "Tex2DArray"
	case TextureDimensionCubeArray:
		return "CubeArray"
	}
	return "Unknown"
}

type FilterMode int32

const (
	FilterModePoint     FilterMode = 0
	FilterModeBilinear  FilterMode = 1
	FilterModeTrilinear FilterMode = 2
)

type TextureWrapMode int32

const (
	TextureWrapModeRepeat     TextureWrapMode = 0
	TextureWrapModeClamp      TextureWrapMode = 1
	TextureWrapModeMirror     TextureWrapMode = 2
	TextureWrapModeMirrorOnce TextureWrapMode = 3
)

type CubemapFace int32

const (
	CubemapFaceUnknown   CubemapFace = -1
	CubemapFacePositiveX CubemapFace = 0
	CubemapFaceNegativeX CubemapFace = 1
	CubemapFacePositiveY CubemapFace = 2
	CubemapFaceNegativeY CubemapFace = 3
	CubemapFacePositiveZ CubemapFace = 4
	CubemapFaceNegativeZ CubemapFace = 5
)

func (f CubemapFace) IsValid() bool {
	return f >= CubemapFacePositiveX && f <= CubemapFaceNegativeZ
}

func (f CubemapFace) String() string {
	names := [...]string{"PositiveX", "NegativeX", "PositiveY", "NegativeY", "PositiveZ", "NegativeZ"}
	if f.IsValid() {
		return names[f]
	}
	return fmt.Sprintf("CubemapFace(%d)", int32(f))
}

// TextureCreationFlags tune texture allocation.
type TextureCreationFlags int32

const (
	TextureCreationNone                 TextureCreationFlags = 0
	TextureCreationMipChain             TextureCreationFlags = 1 << 0
	TextureCreationDontInitializePixels TextureCreationFlags = 1 << 2
	TextureCreationCrunch               TextureCreationFlags = 1 << 6
	TextureCreationDontUploadUponCreate TextureCreationFlags = 1 << 10
	TextureCreationIgnoreMipmapLimit    TextureCreationFlags = 1 << 11
)

func (f TextureCreationFlags) Has(flag TextureCreationFlags) bool {
	return f&flag == flag
}

// GenerateAllMips requests a full mip chain where a mip count is accepted.
const GenerateAllMips = -1

type RenderTextureCreationFlags int32

const (
	RenderTextureMipMap                 RenderTextureCreationFlags = 1
	RenderTextureAutoGenerateMips       RenderTextureCreationFlags = 2
	RenderTextureSRGB                   RenderTextureCreationFlags = 4
	RenderTextureEyeTexture             RenderTextureCreationFlags = 8
	RenderTextureEnableRandomWrite      RenderTextureCreationFlags = 16
	RenderTextureCreatedFromScript      RenderTextureCreationFlags = 32
	RenderTextureAllowVerticalFlip      RenderTextureCreationFlags = 128
	RenderTextureNoResolvedColorSurface RenderTextureCreationFlags = 256
	RenderTextureDynamicallyScalable    RenderTextureCreationFlags = 1024
	RenderTextureBindMS                 RenderTextureCreationFlags = 2048
)

type RenderTextureMemoryless int32

const (
	RenderTextureMemorylessNone  RenderTextureMemoryless = 0
	RenderTextureMemorylessColor RenderTextureMemoryless = 1
	RenderTextureMemorylessDepth RenderTextureMemoryless = 2
	RenderTextureMemorylessMSAA  RenderTextureMemoryless = 4
)

type VRTextureUsage int32

const (
	VRTextureUsageNone           VRTextureUsage = 0
	VRTextureUsageOneEye         VRTextureUsage = 1
	VRTextureUsageTwoEyes        VRTextureUsage = 2
	VRTextureUsageDeviceSpecific VRTextureUsage = 3
)

type ShadowSamplingMode int32

const (
	ShadowSamplingCompareDepths ShadowSamplingMode = 0
	ShadowSamplingRawDepth      ShadowSamplingMode = 1
	ShadowSamplingNone          ShadowSamplingMode = 2
)
