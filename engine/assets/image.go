package assets

import (
	"fmt"
	"path"
	"strings"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/texture"
)

type imageOptions struct {
	linear   bool
	readable bool
	filter   metadata.FilterMode
	wrap     metadata.TextureWrapMode
}

type ImageOption func(*imageOptions)

// Linear loads the pixels as linear data, for normal maps and masks.
func Linear() ImageOption {
	return func(o *imageOptions) {
		o.linear = true
	}
}

// Readable keeps the CPU copy of the pixels after the upload.
func Readable() ImageOption {
	return func(o *imageOptions) {
		o.readable = true
	}
}

func WithFilter(m metadata.FilterMode) ImageOption {
	return func(o *imageOptions) {
		o.filter = m
	}
}

func WithWrap(m metadata.TextureWrapMode) ImageOption {
	return func(o *imageOptions) {
		o.wrap = m
	}
}

/**
 * @brief Decodes the image asset name into a new mip mapped texture.
 * The texture is named after the file and is not readable unless Readable is given.
 */
func (am *Manager) LoadTexture(name string, opts ...ImageOption) (*texture.Texture2D, error) {
	o := imageOptions{filter: metadata.FilterModeBilinear, wrap: metadata.TextureWrapModeRepeat}
	for _, opt := range opts {
		opt(&o)
	}
	data, err := am.read(name, KindImage)
	if err != nil {
		return nil, err
	}
	format := metadata.FormatR8G8B8A8_SRGB
	if o.linear {
		format = metadata.FormatR8G8B8A8_UNorm
	}
	// LoadImage resizes the texture to the decoded image; 2x2 is the
	// smallest size whose mip chain is kept.
	tex, err := texture.New2D(am.backend, 2, 2, format, metadata.TextureCreationMipChain)
	if err != nil {
		return nil, err
	}
	tex.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	if err := tex.LoadImage(data, !o.readable); err != nil {
		tex.Destroy()
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}
	if err := tex.SetFilterMode(o.filter); err != nil {
		tex.Destroy()
		return nil, err
	}
	if err := tex.SetWrapMode(o.wrap); err != nil {
		tex.Destroy()
		return nil, err
	}
	core.LogDebug("texture %q loaded from %s (%dx%d)", tex.Name, name, tex.Width(), tex.Height())
	return tex, nil
}
