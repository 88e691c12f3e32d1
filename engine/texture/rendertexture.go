package texture

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief A texture the GPU renders into. The native object is allocated
 * lazily by Create; until then every descriptor property may change.
 */
type RenderTexture struct {
	Texture
	desc    metadata.RenderTextureDescriptor
	created bool
}

func checkRenderFormats(backend Backend, desc metadata.RenderTextureDescriptor) error {
	if backend == nil {
		return core.InvalidArgument("texture backend is nil")
	}
	if err := desc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	limit := backend.MaxTextureSize()
	if desc.Dimension == metadata.TextureDimensionCube || desc.Dimension == metadata.TextureDimensionCubeArray {
		limit = backend.MaxCubemapSize()
	}
	if desc.Width > limit || desc.Height > limit {
		return core.InvalidArgument("render texture %dx%d exceeds the maximum supported size %d", desc.Width, desc.Height, limit)
	}
	if desc.MSAASamples > backend.MaxSampleCount() {
		return core.Unsupported("%dx MSAA on %s (max %d)", desc.MSAASamples, backend.DeviceName(), backend.MaxSampleCount())
	}
	usage := metadata.UsageRender | metadata.MSAAUsage(desc.MSAASamples)
	if desc.GraphicsFormat != metadata.FormatNone && !native.IsFormatSupported(backend, desc.GraphicsFormat, usage) {
		return core.Unsupported("graphics format %s does not support %s on %s", desc.GraphicsFormat, usage, backend.DeviceName())
	}
	if desc.DepthStencilFormat != metadata.FormatNone && !native.IsFormatSupported(backend, desc.DepthStencilFormat, usage) {
		return core.Unsupported("depth stencil format %s does not support %s on %s", desc.DepthStencilFormat, usage, backend.DeviceName())
	}
	if desc.EnableRandomWrite() && !native.IsFormatSupported(backend, desc.GraphicsFormat, metadata.UsageLoadStore) {
		return core.Unsupported("random write on graphics format %s", desc.GraphicsFormat)
	}
	switch desc.Dimension {
	case metadata.TextureDimensionTex3D:
		if !backend.Features().Has(native.FeatureTextures3D) {
			return core.Unsupported("3D render textures on %s", backend.DeviceName())
		}
	case metadata.TextureDimensionTex2DArray:
		if !backend.Features().Has(native.FeatureTexture2DArrays) {
			return core.Unsupported("2D array render textures on %s", backend.DeviceName())
		}
	case metadata.TextureDimensionCubeArray:
		if !backend.Features().Has(native.FeatureCubemapArrays) {
			return core.Unsupported("cubemap array render textures on %s", backend.DeviceName())
		}
	}
	return nil
}

// NewRenderTexture validates desc against the device. The native texture is created by Create.
func NewRenderTexture(backend Backend, desc metadata.RenderTextureDescriptor) (*RenderTexture, error) {
	if err := checkRenderFormats(backend, desc); err != nil {
		return nil, err
	}
	rt := &RenderTexture{desc: desc}
	rt.Texture = newTexture(backend, desc.Dimension, desc.Width, desc.Height, desc.VolumeDepth, desc.ResolvedMipCount(), desc.GraphicsFormat)
	rt.readable = false
	return rt, nil
}

// NewRenderTextureLegacy builds the descriptor from a RenderTextureFormat and a depth bit count.
func NewRenderTextureLegacy(backend Backend, width, height, depthBits int, format metadata.RenderTextureFormat, readWrite metadata.RenderTextureReadWrite) (*RenderTexture, error) {
	desc, err := metadata.NewRenderTextureDescriptorLegacy(width, height, format, depthBits, readWrite)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	return NewRenderTexture(backend, desc)
}

func (rt *RenderTexture) Descriptor() metadata.RenderTextureDescriptor {
	return rt.desc
}

// Create allocates the native texture. Creating an already created texture does nothing.
func (rt *RenderTexture) Create() error {
	if err := rt.alive(); err != nil {
		return err
	}
	if rt.created {
		return nil
	}
	if err := checkRenderFormats(rt.backend, rt.desc); err != nil {
		return err
	}
	err := rt.create(native.TextureDesc{
		Dimension:          rt.desc.Dimension,
		Width:              rt.desc.Width,
		Height:             rt.desc.Height,
		Depth:              rt.desc.VolumeDepth,
		MipCount:           rt.desc.ResolvedMipCount(),
		Format:             rt.desc.GraphicsFormat,
		DepthStencilFormat: rt.desc.DepthStencilFormat,
		MSAASamples:        rt.desc.MSAASamples,
		RenderTarget:       true,
		RandomWrite:        rt.desc.EnableRandomWrite(),
		Memoryless:         rt.desc.Memoryless,
	})
	if err != nil {
		return err
	}
	rt.created = true
	return nil
}

func (rt *RenderTexture) IsCreated() bool {
	return rt.created && !rt.destroyed
}

// Release frees the native texture but keeps the descriptor so Create can run again.
func (rt *RenderTexture) Release() error {
	if !rt.created {
		return nil
	}
	rt.created = false
	h := rt.handle
	rt.handle = native.InvalidHandle
	if err := rt.backend.TextureDestroy(h); err != nil {
		return core.NativeFailure("TextureDestroy", err)
	}
	return nil
}

// Destroy releases the native texture for good.
func (rt *RenderTexture) Destroy() error {
	if rt.destroyed {
		return nil
	}
	err := rt.Release()
	rt.destroyed = true
	return err
}

// ensureCreated lazily creates the texture the way first use does on a GPU.
func (rt *RenderTexture) ensureCreated() error {
	if rt.IsCreated() {
		return nil
	}
	return rt.Create()
}

func (rt *RenderTexture) mutate(property string, apply func(d *metadata.RenderTextureDescriptor) error) error {
	if err := rt.alive(); err != nil {
		return err
	}
	if rt.created {
		return core.InvalidOperation("setting %s of already created render texture is not supported", property)
	}
	desc := rt.desc
	if err := apply(&desc); err != nil {
		return err
	}
	rt.desc = desc
	rt.dimension, rt.width, rt.height, rt.depth = desc.Dimension, desc.Width, desc.Height, desc.VolumeDepth
	rt.format, rt.mipCount = desc.GraphicsFormat, desc.ResolvedMipCount()
	return nil
}

func positive(property string, v int) error {
	if v <= 0 {
		return core.InvalidArgument("render texture %s must be greater than zero, got %d", property, v)
	}
	return nil
}

func (rt *RenderTexture) SetWidth(w int) error {
	return rt.mutate("width", func(d *metadata.RenderTextureDescriptor) error {
		d.Width = w
		return positive("width", w)
	})
}

func (rt *RenderTexture) SetHeight(h int) error {
	return rt.mutate("height", func(d *metadata.RenderTextureDescriptor) error {
		d.Height = h
		return positive("height", h)
	})
}

func (rt *RenderTexture) SetVolumeDepth(depth int) error {
	return rt.mutate("volumeDepth", func(d *metadata.RenderTextureDescriptor) error {
		d.VolumeDepth = depth
		return positive("volumeDepth", depth)
	})
}

func (rt *RenderTexture) SetDimension(dim metadata.TextureDimension) error {
	return rt.mutate("dimension", func(d *metadata.RenderTextureDescriptor) error {
		d.Dimension = dim
		return nil
	})
}

func (rt *RenderTexture) SetGraphicsFormat(f metadata.GraphicsFormat) error {
	return rt.mutate("graphicsFormat", func(d *metadata.RenderTextureDescriptor) error {
		if f != metadata.FormatNone && !native.IsFormatSupported(rt.backend, f, metadata.UsageRender) {
			return core.Unsupported("graphics format %s does not support %s", f, metadata.UsageRender)
		}
		d.GraphicsFormat = f
		return nil
	})
}

func (rt *RenderTexture) SetDepthStencilFormat(f metadata.GraphicsFormat) error {
	return rt.mutate("depthStencilFormat", func(d *metadata.RenderTextureDescriptor) error {
		if f != metadata.FormatNone && !f.IsDepthStencil() {
			return core.InvalidArgument("%s is not a depth stencil format", f)
		}
		d.DepthStencilFormat = f
		return nil
	})
}

func (rt *RenderTexture) SetDepthBufferBits(bits int) error {
	return rt.mutate("depth", func(d *metadata.RenderTextureDescriptor) error {
		if err := d.SetDepthBufferBits(bits); err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
		}
		return nil
	})
}

func (rt *RenderTexture) SetAntiAliasing(samples int) error {
	return rt.mutate("antiAliasing", func(d *metadata.RenderTextureDescriptor) error {
		switch samples {
		case 1, 2, 4, 8:
		default:
			return core.InvalidArgument("antiAliasing must be 1, 2, 4 or 8, got %d", samples)
		}
		d.MSAASamples = samples
		return nil
	})
}

func (rt *RenderTexture) SetUseMipMap(on bool) error {
	return rt.mutate("useMipMap", func(d *metadata.RenderTextureDescriptor) error {
		d.SetUseMipMap(on)
		return nil
	})
}

func (rt *RenderTexture) SetAutoGenerateMips(on bool) error {
	return rt.mutate("autoGenerateMips", func(d *metadata.RenderTextureDescriptor) error {
		d.SetAutoGenerateMips(on)
		return nil
	})
}

func (rt *RenderTexture) SetEnableRandomWrite(on bool) error {
	return rt.mutate("enableRandomWrite", func(d *metadata.RenderTextureDescriptor) error {
		d.SetEnableRandomWrite(on)
		return nil
	})
}

func (rt *RenderTexture) SetUseDynamicScale(on bool) error {
	return rt.mutate("useDynamicScale", func(d *metadata.RenderTextureDescriptor) error {
		d.SetUseDynamicScale(on)
		return nil
	})
}

func (rt *RenderTexture) AntiAliasing() int {
	return rt.desc.MSAASamples
}

func (rt *RenderTexture) DepthStencilFormat() metadata.GraphicsFormat {
	return rt.desc.DepthStencilFormat
}

// GenerateMips rebuilds the mip chain of a created texture that manages its mips by hand.
func (rt *RenderTexture) GenerateMips() error {
	if err := rt.alive(); err != nil {
		return err
	}
	switch {
	case !rt.created:
		return core.InvalidOperation("cannot generate mips of render texture %q: it is not created", rt.Name)
	case !rt.desc.UseMipMap():
		return core.InvalidOperation("cannot generate mips of render texture %q: useMipMap is false", rt.Name)
	case rt.desc.AutoGenerateMips():
		return core.InvalidOperation("cannot generate mips of render texture %q: autoGenerateMips is true", rt.Name)
	case rt.desc.MSAASamples > 1:
		return core.InvalidOperation("cannot generate mips of multisampled render texture %q", rt.Name)
	}
	if err := rt.backend.TextureGenerateMips(rt.handle); err != nil {
		return core.NativeFailure("TextureGenerateMips", err)
	}
	return nil
}

/**
 * @brief Resolves the multisampled surface. With a nil target the texture
 * resolves into its own color surface.
 */
func (rt *RenderTexture) ResolveAntiAliasedSurface(target *RenderTexture) error {
	if err := rt.alive(); err != nil {
		return err
	}
	if rt.desc.MSAASamples <= 1 {
		return core.InvalidOperation("render texture %q is not multisampled", rt.Name)
	}
	if rt.desc.BindMS() && target == nil {
		return core.InvalidOperation("render texture %q binds the multisampled surface and needs a resolve target", rt.Name)
	}
	if err := rt.ensureCreated(); err != nil {
		return err
	}
	dst := rt.handle
	if target != nil {
		if target.desc.Width != rt.desc.Width || target.desc.Height != rt.desc.Height {
			return core.InvalidArgument("resolve target %dx%d does not match %dx%d", target.desc.Width, target.desc.Height, rt.desc.Width, rt.desc.Height)
		}
		if err := target.ensureCreated(); err != nil {
			return err
		}
		dst = target.handle
	}
	if err := rt.backend.TextureResolve(rt.handle, dst); err != nil {
		return core.NativeFailure("TextureResolve", err)
	}
	return nil
}

// ScaledSize applies the dynamic resolution scale factors when the texture opts in.
func (rt *RenderTexture) ScaledSize() (int, int) {
	w, h := rt.desc.Width, rt.desc.Height
	scaler, ok := rt.backend.(native.ScalingBackend)
	if !rt.desc.UseDynamicScale() || !ok {
		return w, h
	}
	sx, sy := scaler.ScaleFactors()
	return max(1, int(float32(w)*sx+0.5)), max(1, int(float32(h)*sy+0.5))
}

// NativeHandle creates the texture if needed and returns its handle.
func (rt *RenderTexture) NativeHandle() (native.Handle, error) {
	if err := rt.ensureCreated(); err != nil {
		return native.InvalidHandle, err
	}
	return rt.handle, nil
}

var (
	poolsMutex sync.Mutex
	pools      = map[Backend]*TemporaryPool{}
)

// poolFor returns the temporary render texture pool of backend.
func poolFor(backend Backend) *TemporaryPool {
	poolsMutex.Lock()
	defer poolsMutex.Unlock()
	p, ok := pools[backend]
	if !ok {
		p = NewTemporaryPool(backend, defaultPoolSize)
		pools[backend] = p
	}
	return p
}

// GetTemporary returns a created render texture matching desc from backend's pool.
func GetTemporary(backend Backend, desc metadata.RenderTextureDescriptor) (*RenderTexture, error) {
	if backend == nil {
		return nil, core.InvalidArgument("texture backend is nil")
	}
	return poolFor(backend).Get(desc)
}

// GetTemporarySized is GetTemporary with a default RGBA32 color and a 24 bit depth buffer unless overridden.
func GetTemporarySized(backend Backend, width, height, depthBits int, format metadata.RenderTextureFormat) (*RenderTexture, error) {
	desc, err := metadata.NewRenderTextureDescriptorLegacy(width, height, format, depthBits, metadata.RenderTextureReadWriteDefault)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	return GetTemporary(backend, desc)
}

func ReleaseTemporary(rt *RenderTexture) error {
	if rt == nil {
		return core.InvalidArgument("render texture is nil")
	}
	return poolFor(rt.backend).Release(rt)
}

// Identifier creates the texture if needed and names it as a render target.
func (rt *RenderTexture) Identifier() (metadata.RenderTargetIdentifier, error) {
	h, err := rt.NativeHandle()
	if err != nil {
		return metadata.RenderTargetIdentifier{}, err
	}
	return metadata.NewRenderTargetFromTexture(uint32(h)), nil
}
