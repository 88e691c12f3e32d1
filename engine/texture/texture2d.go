package texture

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

type options struct {
	mipChain bool
	mipCount int
	linear   bool
	flags    metadata.TextureCreationFlags
}

// Option configures the TextureFormat based constructors.
type Option func(*options)

// WithMipChain allocates the full mip chain. Defaults to true.
func WithMipChain(on bool) Option {
	return func(o *options) {
		o.mipChain = on
	}
}

// WithMipCount allocates exactly count mips and overrides WithMipChain.
func WithMipCount(count int) Option {
	return func(o *options) {
		o.mipCount = count
		o.mipChain = count != 1
	}
}

// WithLinear selects the linear rather than the sRGB variant of the format. Defaults to false.
func WithLinear(on bool) Option {
	return func(o *options) {
		o.linear = on
	}
}

func WithCreationFlags(flags metadata.TextureCreationFlags) Option {
	return func(o *options) {
		o.flags = flags
	}
}

func resolveOptions(opts []Option) options {
	o := options{mipChain: true, mipCount: metadata.GenerateAllMips}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

/** @brief A 2D texture with CPU-side pixel access while readable. */
type Texture2D struct {
	Texture
	flags metadata.TextureCreationFlags
}

// New2D creates a texture of format. flags with MipChain allocate the full chain.
func New2D(backend Backend, width, height int, format metadata.GraphicsFormat, flags metadata.TextureCreationFlags) (*Texture2D, error) {
	return New2DWithMipCount(backend, width, height, format, metadata.GenerateAllMips, flags)
}

// New2DWithMipCount creates a texture with an explicit mip count, or GenerateAllMips.
func New2DWithMipCount(backend Backend, width, height int, format metadata.GraphicsFormat, mipCount int, flags metadata.TextureCreationFlags) (*Texture2D, error) {
	if err := checkCreate(backend, width, height, maxTextureSize(backend), format, metadata.UsageSample); err != nil {
		return nil, err
	}
	mips, err := resolveMipCount(width, height, mipCount, flags.Has(metadata.TextureCreationMipChain))
	if err != nil {
		return nil, err
	}
	t := &Texture2D{
		Texture: newTexture(backend, metadata.TextureDimensionTex2D, width, height, 1, mips, format),
		flags:   flags,
	}
	err = t.create(native.TextureDesc{
		Dimension: metadata.TextureDimensionTex2D,
		Width:     width,
		Height:    height,
		Depth:     1,
		MipCount:  mips,
		Format:    format,
		Flags:     flags,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

/**
 * @brief Creates a texture from a legacy TextureFormat.
 * With no options the texture has a full mip chain and the sRGB variant of the format.
 */
func New2DFromTextureFormat(backend Backend, width, height int, format metadata.TextureFormat, opts ...Option) (*Texture2D, error) {
	if !format.IsValid() {
		return nil, core.InvalidArgument("invalid texture format %d", format)
	}
	o := resolveOptions(opts)
	gf := format.GraphicsFormat(!o.linear)
	if gf == metadata.FormatNone {
		return nil, core.Unsupported("texture format %s has no graphics format equivalent", format)
	}
	flags := o.flags
	if o.mipChain {
		flags |= metadata.TextureCreationMipChain
	}
	return New2DWithMipCount(backend, width, height, gf, o.mipCount, flags)
}

func maxTextureSize(backend Backend) int {
	if backend == nil {
		return 0
	}
	return backend.MaxTextureSize()
}

func (t *Texture2D) SetPixel(x, y int, c math.Color, mip int) error {
	return t.setPixels(0, mip, x, y, 1, 1, []math.Color{c}, metadata.UsageSetPixels)
}

func (t *Texture2D) GetPixel(x, y, mip int) (math.Color, error) {
	colors, err := t.getPixels(0, mip, x, y, 1, 1)
	if err != nil {
		return math.Color{}, err
	}
	return colors[0], nil
}

// SetPixels replaces the whole mip level.
func (t *Texture2D) SetPixels(colors []math.Color, mip int) error {
	if err := t.checkMip(mip); err != nil {
		return err
	}
	w, h := t.mipSize(mip)
	if len(colors) != w*h {
		return core.InvalidArgument("color array has %d entries, mip %d needs %d", len(colors), mip, w*h)
	}
	return t.setPixels(0, mip, 0, 0, w, h, colors, metadata.UsageSetPixels)
}

// SetPixelsBlock replaces a w x h block at (x, y).
func (t *Texture2D) SetPixelsBlock(x, y, w, h int, colors []math.Color, mip int) error {
	return t.setPixels(0, mip, x, y, w, h, colors, metadata.UsageSetPixels)
}

func (t *Texture2D) GetPixels(mip int) ([]math.Color, error) {
	if err := t.checkMip(mip); err != nil {
		return nil, err
	}
	w, h := t.mipSize(mip)
	return t.getPixels(0, mip, 0, 0, w, h)
}

func (t *Texture2D) GetPixelsBlock(x, y, w, h, mip int) ([]math.Color, error) {
	return t.getPixels(0, mip, x, y, w, h)
}

// GetPixelBilinear samples mip at uv with clamped bilinear filtering.
func (t *Texture2D) GetPixelBilinear(u, v float32, mip int) (math.Color, error) {
	colors, err := t.GetPixels(mip)
	if err != nil {
		return math.Color{}, err
	}
	w, h := t.mipSize(mip)
	fx := math.Clamp(u*float32(w)-0.5, 0, float32(w-1))
	fy := math.Clamp(v*float32(h)-0.5, 0, float32(h-1))
	x0, y0 := int(fx), int(fy)
	x1, y1 := math.Min(x0+1, w-1), math.Min(y0+1, h-1)
	tx, ty := fx-float32(x0), fy-float32(y0)
	lerp := func(a, b math.Color, k float32) math.Color {
		return math.Color{R: a.R + (b.R-a.R)*k, G: a.G + (b.G-a.G)*k, B: a.B + (b.B-a.B)*k, A: a.A + (b.A-a.A)*k}
	}
	top := lerp(colors[y0*w+x0], colors[y0*w+x1], tx)
	bottom := lerp(colors[y1*w+x0], colors[y1*w+x1], tx)
	return lerp(top, bottom, ty), nil
}

func (t *Texture2D) SetPixels32(colors []math.Color32, mip int) error {
	return t.setPixels32(0, mip, colors)
}

func (t *Texture2D) GetPixels32(mip int) ([]math.Color32, error) {
	return t.getPixels32(0, mip)
}

// Apply uploads pending pixel changes and rebuilds the mips below level 0 when updateMipmaps is set.
func (t *Texture2D) Apply(updateMipmaps, makeNoLongerReadable bool) error {
	return t.apply(updateMipmaps, makeNoLongerReadable)
}

// LoadRawTextureData replaces the whole mip chain; len(data) must equal GetRawTextureData's size.
func (t *Texture2D) LoadRawTextureData(data []byte) error {
	if err := t.alive(); err != nil {
		return err
	}
	if !t.readable {
		return core.NotAccessible("texture %q is not readable", t.Name)
	}
	want := metadata.MipChainSize(t.format, t.width, t.height, t.mipCount)
	if len(data) < want {
		return core.InvalidArgument("not enough data provided (will result in overread): got %d bytes, need %d", len(data), want)
	}
	for mip := 0; mip < t.mipCount; mip++ {
		off := metadata.MipOffset(t.format, t.width, t.height, mip)
		size := metadata.MipLevelSize(t.format, t.width, t.height, mip)
		if err := t.writeLevel(0, mip, data[off:off+size]); err != nil {
			return err
		}
	}
	return nil
}

// GetRawTextureData returns every mip level back to back.
func (t *Texture2D) GetRawTextureData() ([]byte, error) {
	if err := t.alive(); err != nil {
		return nil, err
	}
	if !t.readable {
		return nil, core.NotAccessible("texture %q is not readable", t.Name)
	}
	out := make([]byte, 0, metadata.MipChainSize(t.format, t.width, t.height, t.mipCount))
	for mip := 0; mip < t.mipCount; mip++ {
		level, err := t.readLevel(0, mip)
		if err != nil {
			return nil, err
		}
		out = append(out, level...)
	}
	return out, nil
}

// Reinitialize resizes the texture and changes its format; the pixels become undefined.
func (t *Texture2D) Reinitialize(width, height int, format metadata.GraphicsFormat, hasMipMap bool) error {
	if err := t.alive(); err != nil {
		return err
	}
	if !t.readable {
		return core.NotAccessible("texture %q is not readable, Reinitialize can not be called", t.Name)
	}
	if err := checkCreate(t.backend, width, height, t.backend.MaxTextureSize(), format, metadata.UsageSample); err != nil {
		return err
	}
	mips := 1
	if hasMipMap {
		mips = metadata.MipCount(width, height, 1)
	}
	if err := t.backend.TextureReinitialize(t.handle, width, height, format, mips); err != nil {
		return core.NativeFailure("TextureReinitialize", err)
	}
	t.width, t.height, t.format, t.mipCount = width, height, format, mips
	return nil
}

/**
 * @brief Copies source, a rect of the active render target, into this texture at (destX, destY).
 * @param recalculateMipMaps rebuilds the lower mips afterwards.
 */
func (t *Texture2D) ReadPixels(source math.RectInt, destX, destY int, recalculateMipMaps bool) error {
	if err := t.accessible(metadata.UsageReadPixels); err != nil {
		return err
	}
	if source.Width <= 0 || source.Height <= 0 {
		return core.InvalidArgument("read rect %+v is empty", source)
	}
	if destX < 0 || destY < 0 || destX+source.Width > t.width || destY+source.Height > t.height {
		return core.InvalidArgument("trying to read pixels out of bounds: %dx%d at (%d, %d) into %dx%d", source.Width, source.Height, destX, destY, t.width, t.height)
	}
	if err := t.backend.TextureReadPixels(t.handle, source, destX, destY, 0); err != nil {
		return core.NativeFailure("TextureReadPixels", err)
	}
	if recalculateMipMaps && t.mipCount > 1 {
		if err := t.backend.TextureGenerateMips(t.handle); err != nil {
			return core.NativeFailure("TextureGenerateMips", err)
		}
	}
	return nil
}

/**
 * @brief Decodes a PNG, JPEG, BMP, TIFF or WebP image and replaces the texture with it.
 * The texture is resized and keeps an RGBA32 layout; the mip chain is kept when it had one.
 */
func (t *Texture2D) LoadImage(data []byte, markNonReadable bool) error {
	if err := t.alive(); err != nil {
		return err
	}
	if !t.readable {
		return core.NotAccessible("texture %q is not readable", t.Name)
	}
	img, kind, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return core.InvalidArgument("cannot decode image: %s", err)
	}
	bounds := img.Bounds()
	format := metadata.FormatR8G8B8A8_SRGB
	if !t.format.IsSRGB() {
		format = metadata.FormatR8G8B8A8_UNorm
	}
	if err := t.Reinitialize(bounds.Dx(), bounds.Dy(), format, t.mipCount > 1); err != nil {
		return err
	}
	w, h := bounds.Dx(), bounds.Dy()
	colors := make([]math.Color32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Max.Y-1-y)).(color.NRGBA)
			colors[y*w+x] = math.Color32{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	if err := t.SetPixels32(colors, 0); err != nil {
		return err
	}
	core.LogDebug("loaded %s image %dx%d into texture %q", kind, w, h, t.Name)
	return t.Apply(true, markNonReadable)
}

// EncodeToPNG encodes mip 0, flipped so the first row of the PNG is the top of the texture.
func (t *Texture2D) EncodeToPNG() ([]byte, error) {
	colors, err := t.GetPixels32(0)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := colors[y*t.width+x]
			img.SetNRGBA(x, t.height-1-y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
