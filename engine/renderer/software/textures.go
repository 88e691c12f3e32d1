package software

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

type textureObject struct {
	desc native.TextureDesc
	// levels holds one byte slice per (slice, mip), slice major.
	levels     [][]byte
	clearDepth float32
	uploads    int
	// rtDesc is set for render textures so the temporary pool can match descriptors.
	rtDesc metadata.RenderTextureDescriptor
}

func (t *textureObject) level(slice, mip int) []byte {
	return t.levels[slice*t.desc.MipCount+mip]
}

func (t *textureObject) allocate() {
	t.levels = nil
	if t.desc.Format == metadata.FormatNone {
		return
	}
	slices := t.desc.Slices()
	t.levels = make([][]byte, slices*t.desc.MipCount)
	for s := 0; s < slices; s++ {
		for m := 0; m < t.desc.MipCount; m++ {
			t.levels[s*t.desc.MipCount+m] = make([]byte, metadata.MipLevelSize(t.desc.Format, t.desc.Width, t.desc.Height, m))
		}
	}
}

func (b *Backend) validateTextureDesc(desc native.TextureDesc) error {
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("texture size %dx%d must be positive", desc.Width, desc.Height)
	}
	limit := b.MaxTextureSize()
	if desc.Dimension == metadata.TextureDimensionCube || desc.Dimension == metadata.TextureDimensionCubeArray {
		limit = b.MaxCubemapSize()
		if desc.Width != desc.Height {
			return fmt.Errorf("cubemap faces must be square, got %dx%d", desc.Width, desc.Height)
		}
	}
	if desc.Width > limit || desc.Height > limit {
		return fmt.Errorf("texture size %dx%d exceeds device limit %d", desc.Width, desc.Height, limit)
	}
	if desc.Format == metadata.FormatNone && !(desc.RenderTarget && desc.DepthStencilFormat != metadata.FormatNone) {
		return fmt.Errorf("texture format None is only valid for depth-only render targets")
	}
	if desc.Format != metadata.FormatNone && !desc.Format.IsValid() {
		return fmt.Errorf("unknown texture format %d", desc.Format)
	}
	if desc.MipCount < 1 || desc.MipCount > metadata.MipCount(desc.Width, desc.Height, 1) {
		return fmt.Errorf("mip count %d out of range for %dx%d", desc.MipCount, desc.Width, desc.Height)
	}
	if desc.Slices() < 1 {
		return fmt.Errorf("texture depth %d must be positive", desc.Depth)
	}
	return nil
}

func (b *Backend) TextureCreate(desc native.TextureDesc) (native.Handle, error) {
	if err := b.validateTextureDesc(desc); err != nil {
		return native.InvalidHandle, err
	}
	t := &textureObject{desc: desc, clearDepth: 1}
	t.allocate()
	return toHandle(b.textures.Acquire(t)), nil
}

func (b *Backend) TextureDestroy(h native.Handle) error {
	id, err := fromHandle(h)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for name, rt := range b.tempRTs {
		if rt == h {
			delete(b.tempRTs, name)
		}
	}
	for i, p := range b.rtPool {
		if p.handle == h {
			b.rtPool = append(b.rtPool[:i], b.rtPool[i+1:]...)
			break
		}
	}
	return b.textures.Release(id)
}

func (b *Backend) texture(h native.Handle) (*textureObject, error) {
	id, err := fromHandle(h)
	if err != nil {
		return nil, err
	}
	t, ok := b.textures.Get(id)
	if !ok {
		return nil, fmt.Errorf("texture %d does not exist", h)
	}
	return t, nil
}

// TextureDesc returns the creation parameters of h.
func (b *Backend) TextureDesc(h native.Handle) (native.TextureDesc, error) {
	t, err := b.texture(h)
	if err != nil {
		return native.TextureDesc{}, err
	}
	return t.desc, nil
}

func (b *Backend) TextureReinitialize(h native.Handle, width, height int, format metadata.GraphicsFormat, mipCount int) error {
	t, err := b.texture(h)
	if err != nil {
		return err
	}
	desc := t.desc
	desc.Width, desc.Height, desc.Format, desc.MipCount = width, height, format, mipCount
	if err := b.validateTextureDesc(desc); err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	t.desc = desc
	t.allocate()
	return nil
}

func (t *textureObject) checkLevel(slice, mip int) error {
	if t.levels == nil {
		return fmt.Errorf("texture has no color storage")
	}
	if slice < 0 || slice >= t.desc.Slices() {
		return fmt.Errorf("slice %d out of range [0, %d)", slice, t.desc.Slices())
	}
	if mip < 0 || mip >= t.desc.MipCount {
		return fmt.Errorf("mip %d out of range [0, %d)", mip, t.desc.MipCount)
	}
	return nil
}

func (b *Backend) TextureWrite(h native.Handle, slice, mip int, data []byte) error {
	t, err := b.texture(h)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := t.checkLevel(slice, mip); err != nil {
		return err
	}
	level := t.level(slice, mip)
	if len(data) != len(level) {
		return fmt.Errorf("mip %d expects %d bytes, got %d", mip, len(level), len(data))
	}
	copy(level, data)
	return nil
}

func (b *Backend) TextureRead(h native.Handle, slice, mip int) ([]byte, error) {
	t, err := b.texture(h)
	if err != nil {
		return nil, err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := t.checkLevel(slice, mip); err != nil {
		return nil, err
	}
	return append([]byte(nil), t.level(slice, mip)...), nil
}

func (b *Backend) TextureApply(h native.Handle, updateMipmaps bool) error {
	t, err := b.texture(h)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	t.uploads++
	if updateMipmaps {
		t.generateMips()
	}
	return nil
}

func (b *Backend) TextureGenerateMips(h native.Handle) error {
	t, err := b.texture(h)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if t.desc.MipCount < 2 {
		return fmt.Errorf("texture has no mip chain")
	}
	t.generateMips()
	return nil
}

// generateMips box filters every level from the one above it.
func (t *textureObject) generateMips() {
	if t.levels == nil || !metadata.CanConvertPixels(t.desc.Format) {
		return
	}
	f := t.desc.Format
	bs := f.BlockSize()
	for s := 0; s < t.desc.Slices(); s++ {
		for m := 1; m < t.desc.MipCount; m++ {
			srcW, srcH := metadata.MipSize(t.desc.Width, m-1), metadata.MipSize(t.desc.Height, m-1)
			dstW, dstH := metadata.MipSize(t.desc.Width, m), metadata.MipSize(t.desc.Height, m)
			src, dst := t.level(s, m-1), t.level(s, m)
			for y := 0; y < dstH; y++ {
				for x := 0; x < dstW; x++ {
					var sum math.Vec4
					n := float32(0)
					for dy := 0; dy < 2; dy++ {
						for dx := 0; dx < 2; dx++ {
							sx, sy := math.Min(x*2+dx, srcW-1), math.Min(y*2+dy, srcH-1)
							c := metadata.DecodeColor(f, src[(sy*srcW+sx)*bs:])
							sum = math.Vec4{X: sum.X + c.R, Y: sum.Y + c.G, Z: sum.Z + c.B, W: sum.W + c.A}
							n++
						}
					}
					avg := math.Color{R: sum.X / n, G: sum.Y / n, B: sum.Z / n, A: sum.W / n}
					metadata.EncodeColor(f, avg, dst[(y*dstW+x)*bs:])
				}
			}
		}
	}
}

func (b *Backend) TextureResolve(src, dst native.Handle) error {
	s, err := b.texture(src)
	if err != nil {
		return err
	}
	d, err := b.texture(dst)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if s.desc.Width != d.desc.Width || s.desc.Height != d.desc.Height {
		return fmt.Errorf("resolve target %dx%d does not match source %dx%d", d.desc.Width, d.desc.Height, s.desc.Width, s.desc.Height)
	}
	return copyConverted(s, 0, 0, d, 0, 0, math.RectInt{Width: s.desc.Width, Height: s.desc.Height}, 0, 0)
}

// TextureReadPixels copies rect of the active color target into dst at (x, y).
func (b *Backend) TextureReadPixels(dst native.Handle, rect math.RectInt, x, y, mip int) error {
	d, err := b.texture(dst)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	src, err := b.activeColorTarget()
	if err != nil {
		return err
	}
	return copyConverted(src, b.state.colorSlice, b.state.colorMip, d, 0, mip, rect, x, y)
}

// copyConverted copies rect from (srcSlice, srcMip) of src to (dstX, dstY) of
// (dstSlice, dstMip) of dst, converting texels when the formats differ.
func copyConverted(src *textureObject, srcSlice, srcMip int, dst *textureObject, dstSlice, dstMip int, rect math.RectInt, dstX, dstY int) error {
	if err := src.checkLevel(srcSlice, srcMip); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := dst.checkLevel(dstSlice, dstMip); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	srcW, srcH := metadata.MipSize(src.desc.Width, srcMip), metadata.MipSize(src.desc.Height, srcMip)
	dstW, dstH := metadata.MipSize(dst.desc.Width, dstMip), metadata.MipSize(dst.desc.Height, dstMip)
	if !(math.RectInt{Width: srcW, Height: srcH}).Contains(rect) {
		return fmt.Errorf("source rect %+v outside %dx%d", rect, srcW, srcH)
	}
	if !(math.RectInt{Width: dstW, Height: dstH}).Contains(math.RectInt{X: dstX, Y: dstY, Width: rect.Width, Height: rect.Height}) {
		return fmt.Errorf("destination (%d, %d) %dx%d outside %dx%d", dstX, dstY, rect.Width, rect.Height, dstW, dstH)
	}
	sf, df := src.desc.Format, dst.desc.Format
	same := sf == df
	if !same && (!metadata.CanConvertPixels(sf) || !metadata.CanConvertPixels(df)) {
		return fmt.Errorf("cannot convert %s to %s", sf, df)
	}
	sbs, dbs := sf.BlockSize(), df.BlockSize()
	in, out := src.level(srcSlice, srcMip), dst.level(dstSlice, dstMip)
	for row := 0; row < rect.Height; row++ {
		so := ((rect.Y+row)*srcW + rect.X) * sbs
		do := ((dstY+row)*dstW + dstX) * dbs
		if same {
			copy(out[do:do+rect.Width*dbs], in[so:so+rect.Width*sbs])
			continue
		}
		for col := 0; col < rect.Width; col++ {
			metadata.EncodeColor(df, metadata.DecodeColor(sf, in[so+col*sbs:]), out[do+col*dbs:])
		}
	}
	return nil
}
