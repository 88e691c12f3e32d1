package software

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

func (b *Backend) blit(c native.BlitCommand) error {
	if err := b.checkMaterial(c.Material); err != nil {
		return err
	}
	srcHandle, err := b.resolveTarget(c.Source)
	if err != nil {
		return err
	}
	dstHandle, err := b.resolveTarget(c.Dest)
	if err != nil {
		return err
	}
	if !srcHandle.IsValid() || !dstHandle.IsValid() {
		return core.InvalidArgument("blit needs both a source and a destination")
	}
	src, err := b.texture(srcHandle)
	if err != nil {
		return err
	}
	dst, err := b.texture(dstHandle)
	if err != nil {
		return err
	}
	srcSlice, dstSlice := math.Max(c.SourceDepthSlice, 0), math.Max(c.DestDepthSlice, 0)
	b.stats.Blits++

	identity := c.Scale == (math.Vec2{X: 1, Y: 1}) && c.Offset == (math.Vec2{})
	if identity && src.desc.Width == dst.desc.Width && src.desc.Height == dst.desc.Height {
		return copyConverted(src, srcSlice, 0, dst, dstSlice, 0, math.RectInt{Width: src.desc.Width, Height: src.desc.Height}, 0, 0)
	}
	w, h := float32(src.desc.Width), float32(src.desc.Height)
	region := image.Rect(
		int(c.Offset.X*w), int(c.Offset.Y*h),
		int((c.Offset.X+c.Scale.X)*w), int((c.Offset.Y+c.Scale.Y)*h),
	).Canon().Intersect(image.Rect(0, 0, src.desc.Width, src.desc.Height))
	if region.Empty() {
		return core.InvalidArgument("blit scale %v offset %v selects no texels", c.Scale, c.Offset)
	}
	return scaleInto(src, srcSlice, 0, region, dst, dstSlice, 0)
}

// scaleInto resamples region of the source level over the whole destination level.
func scaleInto(src *textureObject, srcSlice, srcMip int, region image.Rectangle, dst *textureObject, dstSlice, dstMip int) error {
	if err := src.checkLevel(srcSlice, srcMip); err != nil {
		return err
	}
	if err := dst.checkLevel(dstSlice, dstMip); err != nil {
		return err
	}
	sf, df := src.desc.Format, dst.desc.Format
	if !metadata.CanConvertPixels(sf) || !metadata.CanConvertPixels(df) {
		return core.Unsupported("scaling between %s and %s", sf, df)
	}
	in := levelImage(src, srcSlice, srcMip)
	out := image.NewNRGBA64(image.Rect(0, 0, metadata.MipSize(dst.desc.Width, dstMip), metadata.MipSize(dst.desc.Height, dstMip)))
	draw.BiLinear.Scale(out, out.Bounds(), in, region, draw.Src, nil)
	storeImage(out, dst, dstSlice, dstMip)
	return nil
}

// levelImage decodes one level into an image. Values are clamped to [0, 1].
func levelImage(t *textureObject, slice, mip int) *image.NRGBA64 {
	w, h := metadata.MipSize(t.desc.Width, mip), metadata.MipSize(t.desc.Height, mip)
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	f, bs := t.desc.Format, t.desc.Format.BlockSize()
	data := t.level(slice, mip)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA64(x, y, toNRGBA64(metadata.DecodeColor(f, data[(y*w+x)*bs:])))
		}
	}
	return img
}

func storeImage(img *image.NRGBA64, t *textureObject, slice, mip int) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	f, bs := t.desc.Format, t.desc.Format.BlockSize()
	data := t.level(slice, mip)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			metadata.EncodeColor(f, fromNRGBA64(img.NRGBA64At(x, y)), data[(y*w+x)*bs:])
		}
	}
}

func toNRGBA64(c math.Color) color.NRGBA64 {
	q := func(v float32) uint16 {
		return uint16(math.Clamp01(v)*65535 + 0.5)
	}
	return color.NRGBA64{R: q(c.R), G: q(c.G), B: q(c.B), A: q(c.A)}
}

func fromNRGBA64(c color.NRGBA64) math.Color {
	return math.Color{R: float32(c.R) / 65535, G: float32(c.G) / 65535, B: float32(c.B) / 65535, A: float32(c.A) / 65535}
}

func (b *Backend) copyTexture(c native.CopyTextureCommand) error {
	srcHandle, err := b.resolveTarget(c.Source)
	if err != nil {
		return err
	}
	dstHandle, err := b.resolveTarget(c.Dest)
	if err != nil {
		return err
	}
	src, err := b.texture(srcHandle)
	if err != nil {
		return err
	}
	dst, err := b.texture(dstHandle)
	if err != nil {
		return err
	}
	if src.desc.Format.BlockSize() != dst.desc.Format.BlockSize() {
		return core.InvalidArgument("CopyTexture between incompatible formats %s and %s", src.desc.Format, dst.desc.Format)
	}
	b.stats.Copies++
	if !c.WholeTexture {
		rect := c.SrcRegion
		if rect.Width <= 0 || rect.Height <= 0 {
			rect = math.RectInt{Width: metadata.MipSize(src.desc.Width, c.SrcMip), Height: metadata.MipSize(src.desc.Height, c.SrcMip)}
		}
		return rawCopy(src, c.SrcElement, c.SrcMip, dst, c.DstElement, c.DstMip, rect, c.DstX, c.DstY)
	}
	if src.desc.Width != dst.desc.Width || src.desc.Height != dst.desc.Height ||
		src.desc.Slices() != dst.desc.Slices() || src.desc.MipCount != dst.desc.MipCount {
		return core.InvalidArgument("CopyTexture of whole textures needs matching size, slices and mips")
	}
	for i := range src.levels {
		copy(dst.levels[i], src.levels[i])
	}
	return nil
}

// rawCopy copies texel bytes without conversion.
func rawCopy(src *textureObject, srcSlice, srcMip int, dst *textureObject, dstSlice, dstMip int, rect math.RectInt, dstX, dstY int) error {
	if src.desc.Format == dst.desc.Format {
		return copyConverted(src, srcSlice, srcMip, dst, dstSlice, dstMip, rect, dstX, dstY)
	}
	// Same block size: reinterpret by copying as if the source used the destination format.
	alias := *src
	alias.desc.Format = dst.desc.Format
	return copyConverted(&alias, srcSlice, srcMip, dst, dstSlice, dstMip, rect, dstX, dstY)
}

func (b *Backend) convertTexture(c native.ConvertTextureCommand) error {
	src, err := b.texture(c.Source)
	if err != nil {
		return err
	}
	dst, err := b.texture(c.Dest)
	if err != nil {
		return err
	}
	b.stats.Copies++
	if src.desc.Width == dst.desc.Width && src.desc.Height == dst.desc.Height {
		return copyConverted(src, c.SrcElement, 0, dst, c.DstElement, 0, math.RectInt{Width: src.desc.Width, Height: src.desc.Height}, 0, 0)
	}
	return scaleInto(src, c.SrcElement, 0, image.Rect(0, 0, src.desc.Width, src.desc.Height), dst, c.DstElement, 0)
}
