package texture

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// Backend is the native surface textures need: creation and pixel storage
// plus the capability table consulted before every format-sensitive call.
type Backend interface {
	native.Capabilities
	native.TextureBackend
}

/**
 * @brief State shared by every texture kind. The pixels live in the backend;
 * the wrapper caches the creation parameters and the sampler state.
 */
type Texture struct {
	Name string

	backend    Backend
	handle     native.Handle
	dimension  metadata.TextureDimension
	width      int
	height     int
	depth      int
	mipCount   int
	format     metadata.GraphicsFormat
	readable   bool
	destroyed  bool
	filterMode metadata.FilterMode
	wrapU      metadata.TextureWrapMode
	wrapV      metadata.TextureWrapMode
	wrapW      metadata.TextureWrapMode
	anisoLevel int
	mipMapBias float32
}

func newTexture(backend Backend, dimension metadata.TextureDimension, width, height, depth, mipCount int, format metadata.GraphicsFormat) Texture {
	return Texture{
		backend:    backend,
		dimension:  dimension,
		width:      width,
		height:     height,
		depth:      depth,
		mipCount:   mipCount,
		format:     format,
		readable:   true,
		filterMode: metadata.FilterModeBilinear,
		anisoLevel: 1,
	}
}

// checkCreate runs the validation shared by all constructors. The native
// factory is never reached when it fails.
func checkCreate(backend Backend, width, height, limit int, format metadata.GraphicsFormat, usage metadata.GraphicsFormatUsage) error {
	if backend == nil {
		return core.InvalidArgument("texture backend is nil")
	}
	if width <= 0 || height <= 0 {
		return core.InvalidArgument("texture dimensions must be positive, got %dx%d", width, height)
	}
	if width > limit || height > limit {
		return core.InvalidArgument("texture %dx%d exceeds the maximum supported size %d", width, height, limit)
	}
	if !format.IsValid() {
		return core.InvalidArgument("invalid graphics format %d", format)
	}
	if !native.IsFormatSupported(backend, format, usage) {
		return core.Unsupported("graphics format %s does not support %s on %s", format, usage, backend.DeviceName())
	}
	return nil
}

// resolveMipCount maps a requested mip count, GenerateAllMips or a mip chain flag to a concrete count.
func resolveMipCount(width, height, mipCount int, mipChain bool) (int, error) {
	full := metadata.MipCount(width, height, 1)
	switch {
	case mipCount == metadata.GenerateAllMips:
		if mipChain {
			return full, nil
		}
		return 1, nil
	case mipCount < 1 || mipCount > full:
		return 0, core.InvalidArgument("mip count %d out of range [1, %d] for %dx%d", mipCount, full, width, height)
	}
	return mipCount, nil
}

func (t *Texture) create(desc native.TextureDesc) error {
	h, err := t.backend.TextureCreate(desc)
	if err != nil {
		return core.NativeFailure("TextureCreate", err)
	}
	t.handle = h
	return nil
}

func (t *Texture) Handle() native.Handle {
	return t.handle
}

func (t *Texture) Width() int {
	return t.width
}

func (t *Texture) Height() int {
	return t.height
}

func (t *Texture) Dimension() metadata.TextureDimension {
	return t.dimension
}

func (t *Texture) GraphicsFormat() metadata.GraphicsFormat {
	return t.format
}

func (t *Texture) MipCount() int {
	return t.mipCount
}

func (t *Texture) IsReadable() bool {
	return t.readable
}

// TexelSize is the size of one texel in uv space.
func (t *Texture) TexelSize() math.Vec2 {
	return math.Vec2{X: 1 / float32(t.width), Y: 1 / float32(t.height)}
}

func (t *Texture) FilterMode() metadata.FilterMode {
	return t.filterMode
}

func (t *Texture) SetFilterMode(m metadata.FilterMode) error {
	if m < metadata.FilterModePoint || m > metadata.FilterModeTrilinear {
		return core.InvalidArgument("unknown filter mode %d", m)
	}
	t.filterMode = m
	return nil
}

// WrapMode returns the u wrap mode.
func (t *Texture) WrapMode() metadata.TextureWrapMode {
	return t.wrapU
}

// SetWrapMode sets the wrap mode of every axis.
func (t *Texture) SetWrapMode(m metadata.TextureWrapMode) error {
	return t.SetWrapModeUVW(m, m, m)
}

func (t *Texture) SetWrapModeUVW(u, v, w metadata.TextureWrapMode) error {
	for _, m := range []metadata.TextureWrapMode{u, v, w} {
		if m < metadata.TextureWrapModeRepeat || m > metadata.TextureWrapModeMirrorOnce {
			return core.InvalidArgument("unknown wrap mode %d", m)
		}
	}
	t.wrapU, t.wrapV, t.wrapW = u, v, w
	return nil
}

func (t *Texture) AnisoLevel() int {
	return t.anisoLevel
}

// SetAnisoLevel accepts 0 to 16; 0 disables anisotropic filtering.
func (t *Texture) SetAnisoLevel(level int) error {
	if level < 0 || level > 16 {
		return core.InvalidArgument("aniso level %d out of range [0, 16]", level)
	}
	t.anisoLevel = level
	return nil
}

func (t *Texture) MipMapBias() float32 {
	return t.mipMapBias
}

func (t *Texture) SetMipMapBias(bias float32) {
	t.mipMapBias = bias
}

/**
 * @brief Releases the native texture. Calling Destroy again does nothing;
 * other calls on a destroyed texture fail with ErrInvalidOperation.
 */
func (t *Texture) Destroy() error {
	if t == nil || t.destroyed || !t.handle.IsValid() {
		return nil
	}
	t.destroyed = true
	if err := t.backend.TextureDestroy(t.handle); err != nil {
		return core.NativeFailure("TextureDestroy", err)
	}
	return nil
}

func (t *Texture) IsDestroyed() bool {
	return t.destroyed
}

func (t *Texture) alive() error {
	if t.destroyed {
		return core.InvalidOperation("texture %q has been destroyed", t.Name)
	}
	return nil
}

// accessible guards CPU pixel access: the texture must be alive, readable and
// its format must grant usage.
func (t *Texture) accessible(usage metadata.GraphicsFormatUsage) error {
	if err := t.alive(); err != nil {
		return err
	}
	if !t.readable {
		return core.NotAccessible("texture %q is not readable, the texture memory can not be accessed from scripts", t.Name)
	}
	if !native.IsFormatSupported(t.backend, t.format, usage) {
		return core.Unsupported("%s on texture format %s", usage, t.format)
	}
	return nil
}

func (t *Texture) checkMip(mip int) error {
	if mip < 0 || mip >= t.mipCount {
		return core.InvalidArgument("mip level %d out of range [0, %d)", mip, t.mipCount)
	}
	return nil
}

func (t *Texture) mipSize(mip int) (int, int) {
	return metadata.MipSize(t.width, mip), metadata.MipSize(t.height, mip)
}

func (t *Texture) readLevel(slice, mip int) ([]byte, error) {
	data, err := t.backend.TextureRead(t.handle, slice, mip)
	if err != nil {
		return nil, core.NativeFailure("TextureRead", err)
	}
	return data, nil
}

func (t *Texture) writeLevel(slice, mip int, data []byte) error {
	if err := t.backend.TextureWrite(t.handle, slice, mip, data); err != nil {
		return core.NativeFailure("TextureWrite", err)
	}
	return nil
}

// setPixels writes a block of colors, row major from the bottom left, into one slice.
func (t *Texture) setPixels(slice, mip, x, y, w, h int, colors []math.Color, usage metadata.GraphicsFormatUsage) error {
	if err := t.accessible(usage); err != nil {
		return err
	}
	if err := t.checkMip(mip); err != nil {
		return err
	}
	mw, mh := t.mipSize(mip)
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > mw || y+h > mh {
		return core.InvalidArgument("block (%d, %d) %dx%d is outside mip %d of size %dx%d", x, y, w, h, mip, mw, mh)
	}
	if len(colors) < w*h {
		return core.InvalidArgument("color array has %d entries, block needs %d", len(colors), w*h)
	}
	level, err := t.readLevel(slice, mip)
	if err != nil {
		return err
	}
	bs := t.format.BlockSize()
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			metadata.EncodeColor(t.format, colors[row*w+col], level[((y+row)*mw+x+col)*bs:])
		}
	}
	return t.writeLevel(slice, mip, level)
}

func (t *Texture) getPixels(slice, mip, x, y, w, h int) ([]math.Color, error) {
	if err := t.accessible(metadata.UsageGetPixels); err != nil {
		return nil, err
	}
	if err := t.checkMip(mip); err != nil {
		return nil, err
	}
	mw, mh := t.mipSize(mip)
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > mw || y+h > mh {
		return nil, core.InvalidArgument("block (%d, %d) %dx%d is outside mip %d of size %dx%d", x, y, w, h, mip, mw, mh)
	}
	level, err := t.readLevel(slice, mip)
	if err != nil {
		return nil, err
	}
	bs := t.format.BlockSize()
	out := make([]math.Color, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			out[row*w+col] = metadata.DecodeColor(t.format, level[((y+row)*mw+x+col)*bs:])
		}
	}
	return out, nil
}

func (t *Texture) setPixels32(slice, mip int, colors []math.Color32) error {
	w, h := t.mipSize(mip)
	converted := make([]math.Color, len(colors))
	for i, c := range colors {
		converted[i] = c.ToColor()
	}
	if err := t.checkMip(mip); err != nil {
		return err
	}
	if len(colors) != w*h {
		return core.InvalidArgument("color array has %d entries, mip %d needs %d", len(colors), mip, w*h)
	}
	return t.setPixels(slice, mip, 0, 0, w, h, converted, metadata.UsageSetPixels32)
}

func (t *Texture) getPixels32(slice, mip int) ([]math.Color32, error) {
	if err := t.checkMip(mip); err != nil {
		return nil, err
	}
	w, h := t.mipSize(mip)
	colors, err := t.getPixels(slice, mip, 0, 0, w, h)
	if err != nil {
		return nil, err
	}
	out := make([]math.Color32, len(colors))
	for i, c := range colors {
		out[i] = c.ToColor32()
	}
	return out, nil
}

// apply uploads pending pixel changes, optionally dropping CPU access.
func (t *Texture) apply(updateMipmaps, makeNoLongerReadable bool) error {
	if err := t.alive(); err != nil {
		return err
	}
	if !t.readable {
		return core.NotAccessible("texture %q is not readable, Apply can not be called", t.Name)
	}
	if err := t.backend.TextureApply(t.handle, updateMipmaps && t.mipCount > 1); err != nil {
		return core.NativeFailure("TextureApply", err)
	}
	if makeNoLongerReadable {
		t.readable = false
	}
	return nil
}
