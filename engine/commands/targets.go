package commands

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// ClearRenderTarget clears the active render target.
func (cb *CommandBuffer) ClearRenderTarget(flags metadata.RTClearFlags, color math.Color, depth float32, stencil uint32) error {
	if flags&^metadata.RTClearAll != 0 {
		return core.InvalidArgument("unknown clear flags %d", flags)
	}
	return cb.record(native.ClearRenderTargetCommand{
		Flags:   flags,
		Color:   color,
		Depth:   depth,
		Stencil: stencil,
	})
}

// ClearRenderTargetColorDepth keeps the legacy boolean form.
func (cb *CommandBuffer) ClearRenderTargetColorDepth(clearDepth, clearColor bool, color math.Color, depth float32) error {
	flags := metadata.RTClearNone
	if clearColor {
		flags |= metadata.RTClearColor
	}
	if clearDepth {
		flags |= metadata.RTClearDepth
	}
	return cb.ClearRenderTarget(flags, color, depth, 0)
}

func checkIdentifier(id metadata.RenderTargetIdentifier, what string) error {
	if id.MipLevel < 0 {
		return core.InvalidArgument("%s mip level must be non-negative, got %d", what, id.MipLevel)
	}
	if id.CubeFace != metadata.CubemapFaceUnknown && !id.CubeFace.IsValid() {
		return core.InvalidArgument("%s has invalid cubemap face %d", what, id.CubeFace)
	}
	if id.DepthSlice < metadata.AllDepthSlices {
		return core.InvalidArgument("%s depth slice must be AllDepthSlices or non-negative, got %d", what, id.DepthSlice)
	}
	return nil
}

// SetRenderTarget binds rt as the only color target and its depth.
func (cb *CommandBuffer) SetRenderTarget(rt metadata.RenderTargetIdentifier) error {
	return cb.SetRenderTargetBinding(metadata.NewRenderTargetBinding(rt, rt))
}

func (cb *CommandBuffer) SetRenderTargetWithMip(rt metadata.RenderTargetIdentifier, mip int, face metadata.CubemapFace, depthSlice int) error {
	rt = rt.WithMip(mip).WithFace(face).WithSlice(depthSlice)
	return cb.SetRenderTarget(rt)
}

func (cb *CommandBuffer) SetRenderTargetWithActions(rt metadata.RenderTargetIdentifier, load metadata.RenderBufferLoadAction, store metadata.RenderBufferStoreAction) error {
	binding := metadata.NewRenderTargetBinding(rt, rt)
	binding.ColorLoadActions[0], binding.ColorStoreActions[0] = load, store
	binding.DepthLoadAction, binding.DepthStoreAction = load, store
	return cb.SetRenderTargetBinding(binding)
}

func (cb *CommandBuffer) SetRenderTargetColorDepth(color, depth metadata.RenderTargetIdentifier) error {
	return cb.SetRenderTargetBinding(metadata.NewRenderTargetBinding(color, depth))
}

// SetRenderTargetMRT binds several color targets with Load/Store actions.
func (cb *CommandBuffer) SetRenderTargetMRT(colors []metadata.RenderTargetIdentifier, depth metadata.RenderTargetIdentifier) error {
	return cb.SetRenderTargetBinding(metadata.NewRenderTargetBindingMRT(colors, metadata.LoadActionLoad, metadata.StoreActionStore, depth, metadata.LoadActionLoad, metadata.StoreActionStore))
}

func (cb *CommandBuffer) SetRenderTargetBinding(binding metadata.RenderTargetBinding) error {
	if err := binding.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	for i, id := range binding.ColorRenderTargets {
		if err := checkIdentifier(id, fmt.Sprintf("color target %d", i)); err != nil {
			return err
		}
	}
	if err := checkIdentifier(binding.DepthRenderTarget, "depth target"); err != nil {
		return err
	}
	return cb.record(native.SetRenderTargetCommand{Binding: binding})
}

type temporaryRT struct {
	depthBits   int
	filter      metadata.FilterMode
	format      metadata.RenderTextureFormat
	readWrite   metadata.RenderTextureReadWrite
	antiAlias   int
	randomWrite bool
	memoryless  metadata.RenderTextureMemoryless
	dynamic     bool
}

type TemporaryRTOption func(*temporaryRT)

func WithDepthBuffer(bits int) TemporaryRTOption {
	return func(t *temporaryRT) { t.depthBits = bits }
}

func WithFilter(filter metadata.FilterMode) TemporaryRTOption {
	return func(t *temporaryRT) { t.filter = filter }
}

func WithFormat(format metadata.RenderTextureFormat) TemporaryRTOption {
	return func(t *temporaryRT) { t.format = format }
}

func WithReadWrite(rw metadata.RenderTextureReadWrite) TemporaryRTOption {
	return func(t *temporaryRT) { t.readWrite = rw }
}

func WithAntiAliasing(samples int) TemporaryRTOption {
	return func(t *temporaryRT) { t.antiAlias = samples }
}

func WithRandomWrite(on bool) TemporaryRTOption {
	return func(t *temporaryRT) { t.randomWrite = on }
}

func WithMemoryless(mode metadata.RenderTextureMemoryless) TemporaryRTOption {
	return func(t *temporaryRT) { t.memoryless = mode }
}

func WithDynamicScale(on bool) TemporaryRTOption {
	return func(t *temporaryRT) { t.dynamic = on }
}

/**
 * @brief Records allocation of a temporary render texture bound to nameID.
 * Defaults: no depth, point filtering, the default format in the default
 * color space, no MSAA, no random write, not memoryless, not scalable.
 */
func (cb *CommandBuffer) GetTemporaryRT(nameID int32, width, height int, opts ...TemporaryRTOption) error {
	t := temporaryRT{
		filter:    metadata.FilterModePoint,
		format:    metadata.RenderTextureFormatDefault,
		readWrite: metadata.RenderTextureReadWriteDefault,
		antiAlias: 1,
	}
	for _, opt := range opts {
		opt(&t)
	}
	desc, err := metadata.NewRenderTextureDescriptorLegacy(width, height, t.format, t.depthBits, t.readWrite)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	desc.MSAASamples = t.antiAlias
	desc.Memoryless = t.memoryless
	desc.SetEnableRandomWrite(t.randomWrite)
	desc.SetUseDynamicScale(t.dynamic)
	return cb.GetTemporaryRTWithDescriptor(nameID, desc, t.filter)
}

func (cb *CommandBuffer) GetTemporaryRTWithDescriptor(nameID int32, desc metadata.RenderTextureDescriptor, filter metadata.FilterMode) error {
	if err := desc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	if filter < metadata.FilterModePoint || filter > metadata.FilterModeTrilinear {
		return core.InvalidArgument("unknown filter mode %d", filter)
	}
	return cb.record(native.GetTemporaryRTCommand{NameID: nameID, Descriptor: desc, Filter: filter})
}

func (cb *CommandBuffer) ReleaseTemporaryRT(nameID int32) error {
	return cb.record(native.ReleaseTemporaryRTCommand{NameID: nameID})
}

type blitSettings struct {
	material    *material.Material
	pass        int
	scale       math.Vec2
	offset      math.Vec2
	sourceSlice int
	destSlice   int
}

type BlitOption func(*blitSettings)

// WithMaterial blits through mat instead of a plain copy.
func WithMaterial(mat *material.Material, pass int) BlitOption {
	return func(s *blitSettings) {
		s.material, s.pass = mat, pass
	}
}

func WithScaleOffset(scale, offset math.Vec2) BlitOption {
	return func(s *blitSettings) {
		s.scale, s.offset = scale, offset
	}
}

func WithSlices(sourceSlice, destSlice int) BlitOption {
	return func(s *blitSettings) {
		s.sourceSlice, s.destSlice = sourceSlice, destSlice
	}
}

// Blit copies source into dest, scaling when sizes differ.
func (cb *CommandBuffer) Blit(source, dest metadata.RenderTargetIdentifier, opts ...BlitOption) error {
	s := blitSettings{
		pass:        AllPasses,
		scale:       math.Vec2{X: 1, Y: 1},
		sourceSlice: metadata.AllDepthSlices,
		destSlice:   metadata.AllDepthSlices,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if source.IsNone() || dest.IsNone() {
		return core.InvalidArgument("blit needs both a source and a destination")
	}
	if err := checkPass(s.pass); err != nil {
		return err
	}
	h := native.InvalidHandle
	if s.material != nil {
		if s.material.IsDestroyed() {
			return core.InvalidArgument("blit material %q has been destroyed", s.material.Name)
		}
		h = s.material.Handle()
	}
	if s.sourceSlice < metadata.AllDepthSlices || s.destSlice < metadata.AllDepthSlices {
		return core.InvalidArgument("depth slices must be AllDepthSlices or non-negative, got %d and %d", s.sourceSlice, s.destSlice)
	}
	return cb.record(native.BlitCommand{
		Source:           source,
		Dest:             dest,
		Material:         h,
		Pass:             s.pass,
		Scale:            s.scale,
		Offset:           s.offset,
		SourceDepthSlice: s.sourceSlice,
		DestDepthSlice:   s.destSlice,
	})
}

// CopyTexture copies every element and mip of source into dest.
func (cb *CommandBuffer) CopyTexture(source, dest metadata.RenderTargetIdentifier) error {
	if source.IsNone() || dest.IsNone() {
		return core.InvalidArgument("CopyTexture needs both a source and a destination")
	}
	return cb.record(native.CopyTextureCommand{Source: source, Dest: dest, WholeTexture: true})
}

// CopyTextureElement copies one element and mip.
func (cb *CommandBuffer) CopyTextureElement(source metadata.RenderTargetIdentifier, srcElement, srcMip int, dest metadata.RenderTargetIdentifier, dstElement, dstMip int) error {
	return cb.copyTexture(source, srcElement, srcMip, dest, dstElement, dstMip, math.RectInt{}, 0, 0)
}

// CopyTextureRegion copies region of one element and mip to (dstX, dstY).
func (cb *CommandBuffer) CopyTextureRegion(source metadata.RenderTargetIdentifier, srcElement, srcMip int, region math.RectInt, dest metadata.RenderTargetIdentifier, dstElement, dstMip, dstX, dstY int) error {
	if region.Width <= 0 || region.Height <= 0 || region.X < 0 || region.Y < 0 {
		return core.InvalidArgument("copy region %+v must be non-empty and non-negative", region)
	}
	return cb.copyTexture(source, srcElement, srcMip, dest, dstElement, dstMip, region, dstX, dstY)
}

func (cb *CommandBuffer) copyTexture(source metadata.RenderTargetIdentifier, srcElement, srcMip int, dest metadata.RenderTargetIdentifier, dstElement, dstMip int, region math.RectInt, dstX, dstY int) error {
	if source.IsNone() || dest.IsNone() {
		return core.InvalidArgument("CopyTexture needs both a source and a destination")
	}
	if srcElement < 0 || srcMip < 0 || dstElement < 0 || dstMip < 0 {
		return core.InvalidArgument("elements and mips must be non-negative")
	}
	if dstX < 0 || dstY < 0 {
		return core.InvalidArgument("destination offset (%d, %d) must be non-negative", dstX, dstY)
	}
	return cb.record(native.CopyTextureCommand{
		Source:     source,
		Dest:       dest,
		SrcElement: srcElement,
		SrcMip:     srcMip,
		DstElement: dstElement,
		DstMip:     dstMip,
		SrcRegion:  region,
		DstX:       dstX,
		DstY:       dstY,
	})
}

func (cb *CommandBuffer) SetViewport(rect math.Rect) error {
	if rect.Width < 0 || rect.Height < 0 {
		return core.InvalidArgument("viewport %+v has a negative size", rect)
	}
	return cb.record(native.SetViewportCommand{Rect: rect})
}

func (cb *CommandBuffer) EnableScissorRect(rect math.Rect) error {
	if rect.Width < 0 || rect.Height < 0 {
		return core.InvalidArgument("scissor %+v has a negative size", rect)
	}
	return cb.record(native.ScissorCommand{Enabled: true, Rect: rect})
}

func (cb *CommandBuffer) DisableScissorRect() error {
	return cb.record(native.ScissorCommand{})
}

func (cb *CommandBuffer) SetViewProjectionMatrices(view, projection math.Mat4) error {
	return cb.record(native.SetViewProjectionCommand{View: view, Projection: projection})
}
