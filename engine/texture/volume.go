package texture

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

func requireFeature(backend Backend, feature native.Features, what string) error {
	if backend == nil {
		return core.InvalidArgument("texture backend is nil")
	}
	if !backend.Features().Has(feature) {
		return core.Unsupported("%s on %s", what, backend.DeviceName())
	}
	return nil
}

func newSliced(backend Backend, dimension metadata.TextureDimension, width, height, slices, limit int, format metadata.GraphicsFormat, flags metadata.TextureCreationFlags) (Texture, error) {
	if err := checkCreate(backend, width, height, limit, format, metadata.UsageSample); err != nil {
		return Texture{}, err
	}
	if slices <= 0 {
		return Texture{}, core.InvalidArgument("%s depth must be positive, got %d", dimension, slices)
	}
	mips, err := resolveMipCount(width, height, metadata.GenerateAllMips, flags.Has(metadata.TextureCreationMipChain))
	if err != nil {
		return Texture{}, err
	}
	t := newTexture(backend, dimension, width, height, slices, mips, format)
	err = t.create(native.TextureDesc{
		Dimension: dimension,
		Width:     width,
		Height:    height,
		Depth:     slices,
		MipCount:  mips,
		Format:    format,
		Flags:     flags,
	})
	return t, err
}

func (t *Texture) checkSlice(slice int) error {
	if slice < 0 || slice >= t.depth {
		return core.InvalidArgument("slice %d out of range [0, %d)", slice, t.depth)
	}
	return nil
}

func (t *Texture) setSlice(slice, mip int, colors []math.Color) error {
	if err := t.checkSlice(slice); err != nil {
		return err
	}
	if err := t.checkMip(mip); err != nil {
		return err
	}
	w, h := t.mipSize(mip)
	if len(colors) != w*h {
		return core.InvalidArgument("color array has %d entries, mip %d needs %d", len(colors), mip, w*h)
	}
	return t.setPixels(slice, mip, 0, 0, w, h, colors, metadata.UsageSetPixels)
}

func (t *Texture) getSlice(slice, mip int) ([]math.Color, error) {
	if err := t.checkSlice(slice); err != nil {
		return nil, err
	}
	if err := t.checkMip(mip); err != nil {
		return nil, err
	}
	w, h := t.mipSize(mip)
	return t.getPixels(slice, mip, 0, 0, w, h)
}

/** @brief A volume texture. Every mip level keeps the full depth. */
type Texture3D struct {
	Texture
}

func New3D(backend Backend, width, height, depth int, format metadata.GraphicsFormat, flags metadata.TextureCreationFlags) (*Texture3D, error) {
	if err := requireFeature(backend, native.FeatureTextures3D, "3D textures"); err != nil {
		return nil, err
	}
	t, err := newSliced(backend, metadata.TextureDimensionTex3D, width, height, depth, backend.MaxTextureSize(), format, flags)
	if err != nil {
		return nil, err
	}
	return &Texture3D{Texture: t}, nil
}

func (t *Texture3D) Depth() int {
	return t.depth
}

// SetPixels replaces mip with width*height*depth colors, slice major.
func (t *Texture3D) SetPixels(colors []math.Color, mip int) error {
	if err := t.checkMip(mip); err != nil {
		return err
	}
	w, h := t.mipSize(mip)
	if len(colors) != w*h*t.depth {
		return core.InvalidArgument("color array has %d entries, mip %d needs %d", len(colors), mip, w*h*t.depth)
	}
	for z := 0; z < t.depth; z++ {
		if err := t.setSlice(z, mip, colors[z*w*h:(z+1)*w*h]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Texture3D) GetPixels(mip int) ([]math.Color, error) {
	var out []math.Color
	for z := 0; z < t.depth; z++ {
		slice, err := t.getSlice(z, mip)
		if err != nil {
			return nil, err
		}
		out = append(out, slice...)
	}
	return out, nil
}

func (t *Texture3D) SetPixel(x, y, z int, c math.Color, mip int) error {
	if err := t.checkSlice(z); err != nil {
		return err
	}
	return t.setPixels(z, mip, x, y, 1, 1, []math.Color{c}, metadata.UsageSetPixels)
}

func (t *Texture3D) GetPixel(x, y, z, mip int) (math.Color, error) {
	if err := t.checkSlice(z); err != nil {
		return math.Color{}, err
	}
	colors, err := t.getPixels(z, mip, x, y, 1, 1)
	if err != nil {
		return math.Color{}, err
	}
	return colors[0], nil
}

func (t *Texture3D) Apply(updateMipmaps, makeNoLongerReadable bool) error {
	return t.apply(updateMipmaps, makeNoLongerReadable)
}

/** @brief An array of same-sized 2D slices. */
type Texture2DArray struct {
	Texture
}

func New2DArray(backend Backend, width, height, depth int, format metadata.GraphicsFormat, flags metadata.TextureCreationFlags) (*Texture2DArray, error) {
	if err := requireFeature(backend, native.FeatureTexture2DArrays, "2D texture arrays"); err != nil {
		return nil, err
	}
	t, err := newSliced(backend, metadata.TextureDimensionTex2DArray, width, height, depth, backend.MaxTextureSize(), format, flags)
	if err != nil {
		return nil, err
	}
	return &Texture2DArray{Texture: t}, nil
}

func (t *Texture2DArray) Depth() int {
	return t.depth
}

func (t *Texture2DArray) SetPixels(colors []math.Color, slice, mip int) error {
	return t.setSlice(slice, mip, colors)
}

func (t *Texture2DArray) GetPixels(slice, mip int) ([]math.Color, error) {
	return t.getSlice(slice, mip)
}

func (t *Texture2DArray) SetPixels32(colors []math.Color32, slice, mip int) error {
	if err := t.checkSlice(slice); err != nil {
		return err
	}
	return t.setPixels32(slice, mip, colors)
}

func (t *Texture2DArray) GetPixels32(slice, mip int) ([]math.Color32, error) {
	if err := t.checkSlice(slice); err != nil {
		return nil, err
	}
	return t.getPixels32(slice, mip)
}

func (t *Texture2DArray) Apply(updateMipmaps, makeNoLongerReadable bool) error {
	return t.apply(updateMipmaps, makeNoLongerReadable)
}

/** @brief Six square faces addressed by CubemapFace. */
type Cubemap struct {
	Texture
}

func NewCubemap(backend Backend, size int, format metadata.GraphicsFormat, flags metadata.TextureCreationFlags) (*Cubemap, error) {
	if backend == nil {
		return nil, core.InvalidArgument("texture backend is nil")
	}
	t, err := newSliced(backend, metadata.TextureDimensionCube, size, size, 6, backend.MaxCubemapSize(), format, flags)
	if err != nil {
		return nil, err
	}
	return &Cubemap{Texture: t}, nil
}

func checkFace(face metadata.CubemapFace) error {
	if !face.IsValid() {
		return core.InvalidArgument("invalid cubemap face %d", face)
	}
	return nil
}

func (t *Cubemap) SetPixel(face metadata.CubemapFace, x, y int, c math.Color, mip int) error {
	if err := checkFace(face); err != nil {
		return err
	}
	return t.setPixels(int(face), mip, x, y, 1, 1, []math.Color{c}, metadata.UsageSetPixels)
}

func (t *Cubemap) GetPixel(face metadata.CubemapFace, x, y, mip int) (math.Color, error) {
	if err := checkFace(face); err != nil {
		return math.Color{}, err
	}
	colors, err := t.getPixels(int(face), mip, x, y, 1, 1)
	if err != nil {
		return math.Color{}, err
	}
	return colors[0], nil
}

func (t *Cubemap) SetPixels(colors []math.Color, face metadata.CubemapFace, mip int) error {
	if err := checkFace(face); err != nil {
		return err
	}
	return t.setSlice(int(face), mip, colors)
}

func (t *Cubemap) GetPixels(face metadata.CubemapFace, mip int) ([]math.Color, error) {
	if err := checkFace(face); err != nil {
		return nil, err
	}
	return t.getSlice(int(face), mip)
}

func (t *Cubemap) Apply(updateMipmaps, makeNoLongerReadable bool) error {
	return t.apply(updateMipmaps, makeNoLongerReadable)
}
