package metadata

import (
	"errors"
	"fmt"
)

/**
 * @brief Everything needed to allocate a render texture. Boolean properties
 * are packed into Flags and exposed through accessors.
 */
type RenderTextureDescriptor struct {
	Width              int
	Height             int
	MSAASamples        int
	VolumeDepth        int
	MipCount           int
	GraphicsFormat     GraphicsFormat
	DepthStencilFormat GraphicsFormat
	StencilFormat      GraphicsFormat
	Dimension          TextureDimension
	ShadowSamplingMode ShadowSamplingMode
	VRUsage            VRTextureUsage
	Memoryless         RenderTextureMemoryless
	Flags              RenderTextureCreationFlags
}

// NewRenderTextureDescriptor returns a single-sampled 2D descriptor with a
// full mip count request and auto generated mips enabled.
func NewRenderTextureDescriptor(width, height int, color, depthStencil GraphicsFormat) RenderTextureDescriptor {
	return RenderTextureDescriptor{
		Width:              width,
		Height:             height,
		MSAASamples:        1,
		VolumeDepth:        1,
		MipCount:           GenerateAllMips,
		GraphicsFormat:     color,
		DepthStencilFormat: depthStencil,
		Dimension:          TextureDimensionTex2D,
		ShadowSamplingMode: ShadowSamplingNone,
		Flags:              RenderTextureAutoGenerateMips | RenderTextureAllowVerticalFlip,
	}
}

// NewRenderTextureDescriptorLegacy builds a descriptor from a legacy format and depth bit count.
func NewRenderTextureDescriptorLegacy(width, height int, format RenderTextureFormat, depthBits int, readWrite RenderTextureReadWrite) (RenderTextureDescriptor, error) {
	depth, ok := DepthFormatForBits(depthBits)
	if !ok {
		return RenderTextureDescriptor{}, fmt.Errorf("depth buffer bits must be 0, 16, 24 or 32, got %d", depthBits)
	}
	color := FormatNone
	if format.IsDepthOnly() {
		if depth == FormatNone {
			depth = FormatD24_UNorm_S8_UInt
		}
	} else {
		var mapped bool
		if color, mapped = format.GraphicsFormat(readWrite); !mapped {
			return RenderTextureDescriptor{}, fmt.Errorf("render texture format %d has no graphics format equivalent", format)
		}
	}
	d := NewRenderTextureDescriptor(width, height, color, depth)
	d.setFlag(RenderTextureSRGB, color.IsSRGB())
	return d, nil
}

func (d *RenderTextureDescriptor) setFlag(flag RenderTextureCreationFlags, on bool) {
	if on {
		d.Flags |= flag
	} else {
		d.Flags &^= flag
	}
}

func (d RenderTextureDescriptor) SRGB() bool { return d.Flags&RenderTextureSRGB != 0 }
func (d RenderTextureDescriptor) UseMipMap() bool { return d.Flags&RenderTextureMipMap != 0 }
func (d RenderTextureDescriptor) AutoGenerateMips() bool { return d.Flags&RenderTextureAutoGenerateMips != 0 }
func (d RenderTextureDescriptor) EnableRandomWrite() bool { return d.Flags&RenderTextureEnableRandomWrite != 0 }
func (d RenderTextureDescriptor) BindMS() bool { return d.Flags&RenderTextureBindMS != 0 }
func (d RenderTextureDescriptor) UseDynamicScale() bool { return d.Flags&RenderTextureDynamicallyScalable != 0 }

func (d *RenderTextureDescriptor) SetSRGB(v bool) { d.setFlag(RenderTextureSRGB, v) }
func (d *RenderTextureDescriptor) SetUseMipMap(v bool) { d.setFlag(RenderTextureMipMap, v) }
func (d *RenderTextureDescriptor) SetAutoGenerateMips(v bool) { d.setFlag(RenderTextureAutoGenerateMips, v) }
func (d *RenderTextureDescriptor) SetEnableRandomWrite(v bool) { d.setFlag(RenderTextureEnableRandomWrite, v) }
func (d *RenderTextureDescriptor) SetBindMS(v bool) { d.setFlag(RenderTextureBindMS, v) }
func (d *RenderTextureDescriptor) SetUseDynamicScale(v bool) { d.setFlag(RenderTextureDynamicallyScalable, v) }

// DepthBufferBits reports the legacy bit count of the depth stencil format.
func (d RenderTextureDescriptor) DepthBufferBits() int {
	return d.DepthStencilFormat.DepthBits()
}

// SetDepthBufferBits replaces the depth stencil format with the one matching bits.
func (d *RenderTextureDescriptor) SetDepthBufferBits(bits int) error {
	f, ok := DepthFormatForBits(bits)
	if !ok {
		return fmt.Errorf("depth buffer bits must be 0, 16, 24 or 32, got %d", bits)
	}
	d.DepthStencilFormat = f
	return nil
}

// ResolvedMipCount is the mip count the descriptor allocates.
func (d RenderTextureDescriptor) ResolvedMipCount() int {
	if !d.UseMipMap() {
		return 1
	}
	full := MipCount(d.Width, d.Height, 1)
	if d.MipCount <= 0 || d.MipCount > full {
		return full
	}
	return d.MipCount
}

// Validate enforces the structural rules every render texture must satisfy.
// Format support is checked by the caller against the active backend.
func (d RenderTextureDescriptor) Validate() error {
	if d.GraphicsFormat == FormatNone && d.DepthStencilFormat == FormatNone {
		return errors.New("render texture graphicsFormat and depthStencilFormat cannot both be None")
	}
	if d.Width <= 0 {
		return fmt.Errorf("render texture width must be greater than zero, got %d", d.Width)
	}
	if d.Height <= 0 {
		return fmt.Errorf("render texture height must be greater than zero, got %d", d.Height)
	}
	if d.VolumeDepth <= 0 {
		return fmt.Errorf("render texture volumeDepth must be greater than zero, got %d", d.VolumeDepth)
	}
	switch d.MSAASamples {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("render texture msaaSamples must be 1, 2, 4, or 8, got %d", d.MSAASamples)
	}
	if d.GraphicsFormat != FormatNone && !d.GraphicsFormat.IsValid() {
		return fmt.Errorf("render texture graphicsFormat %d is unknown", d.GraphicsFormat)
	}
	if d.GraphicsFormat.IsDepthStencil() {
		return fmt.Errorf("render texture graphicsFormat %s is a depth format", d.GraphicsFormat)
	}
	if d.DepthStencilFormat != FormatNone && !d.DepthStencilFormat.IsDepthStencil() {
		return fmt.Errorf("render texture depthStencilFormat %s is not a depth stencil format", d.DepthStencilFormat)
	}
	switch d.Dimension {
	case TextureDimensionTex2D, TextureDimensionTex3D, TextureDimensionTex2DArray:
	case TextureDimensionCube:
		if d.Width != d.Height {
			return fmt.Errorf("cube render texture must be square, got %dx%d", d.Width, d.Height)
		}
	case TextureDimensionCubeArray:
		if d.Width != d.Height {
			return fmt.Errorf("cube array render texture must be square, got %dx%d", d.Width, d.Height)
		}
		if d.VolumeDepth%6 != 0 {
			return fmt.Errorf("render texture volumeDepth must be a multiple of 6 when dimension is CubeArray, got %d", d.VolumeDepth)
		}
	default:
		return fmt.Errorf("render texture dimension %s is not renderable", d.Dimension)
	}
	if d.MSAASamples > 1 && d.Dimension == TextureDimensionTex3D {
		return errors.New("3D render textures cannot be multisampled")
	}
	if d.MSAASamples > 1 && d.UseMipMap() {
		return errors.New("multisampled render textures cannot have mipmaps")
	}
	return nil
}
