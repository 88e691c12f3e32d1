package renderer

import (
	"sync"

	"github.com/spaghettifunk/lumen/engine/commands"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/mesh"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// Texture is the part of a texture the façades read. Render textures that
// are created lazily also expose NativeHandle, which is preferred.
type Texture interface {
	Handle() native.Handle
	GraphicsFormat() metadata.GraphicsFormat
	Width() int
	Height() int
	MipCount() int
}

type lazyTexture interface {
	NativeHandle() (native.Handle, error)
}

func textureHandle(t Texture, what string) (native.Handle, error) {
	if t == nil {
		return native.InvalidHandle, core.InvalidArgument("%s is nil", what)
	}
	h := t.Handle()
	if lazy, ok := t.(lazyTexture); ok {
		var err error
		if h, err = lazy.NativeHandle(); err != nil {
			return native.InvalidHandle, err
		}
	}
	if !h.IsValid() {
		return native.InvalidHandle, core.InvalidArgument("%s has no native texture", what)
	}
	return h, nil
}

/**
 * @brief Draw and copy calls outside a command buffer. DrawMesh and
 * DrawMeshInstanced are queued and run at the end of the frame; every other
 * call runs immediately.
 */
type Graphics struct {
	backend native.Backend

	mutex sync.Mutex
	queue *commands.CommandBuffer
}

func newGraphics(backend native.Backend) *Graphics {
	return &Graphics{backend: backend}
}

// frameQueue lazily creates the buffer that collects queued draws.
func (g *Graphics) frameQueue() (*commands.CommandBuffer, error) {
	if g.queue != nil {
		return g.queue, nil
	}
	cb, err := commands.New(g.backend, commands.WithName("Graphics.FrameQueue"))
	if err != nil {
		return nil, err
	}
	g.queue = cb
	return cb, nil
}

// immediate records into a throwaway buffer and executes it before returning.
func (g *Graphics) immediate(name string, record func(cb *commands.CommandBuffer) error) error {
	cb, err := commands.New(g.backend, commands.WithName(name))
	if err != nil {
		return err
	}
	defer cb.Release()
	if err := record(cb); err != nil {
		return err
	}
	if cb.Len() == 0 {
		return nil
	}
	if err := g.backend.Execute(name, cb.Commands()); err != nil {
		return core.NativeFailure(name, err)
	}
	return nil
}

// QueuedCommands is the number of draws waiting for the end of the frame.
func (g *Graphics) QueuedCommands() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.queue == nil {
		return 0
	}
	return g.queue.Len()
}

func (g *Graphics) flush() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.queue == nil || g.queue.Len() == 0 {
		return nil
	}
	cmds := g.queue.Commands()
	g.queue.Clear()
	if err := g.backend.Execute(g.queue.Name(), cmds); err != nil {
		return core.NativeFailure("Graphics.DrawMesh", err)
	}
	return nil
}

// checkSubMesh fails fast; only command buffers clamp a bad submesh index.
func checkSubMesh(m *mesh.Mesh, opts []commands.DrawOption) error {
	if m == nil {
		return core.InvalidArgument("mesh is nil")
	}
	subMesh := commands.SubMeshOf(opts...)
	if count := m.SubMeshCount(); subMesh < 0 || subMesh >= count {
		return core.IndexOutOfRange("submesh index %d out of range [0, %d)", subMesh, count)
	}
	return nil
}

// DrawMesh queues a mesh draw for the end of the frame.
func (g *Graphics) DrawMesh(m *mesh.Mesh, matrix math.Mat4, mat *material.Material, opts ...commands.DrawOption) error {
	if err := checkSubMesh(m, opts); err != nil {
		return err
	}
	g.mutex.Lock()
	defer g.mutex.Unlock()
	cb, err := g.frameQueue()
	if err != nil {
		return err
	}
	return cb.DrawMesh(m, matrix, mat, opts...)
}

// DrawMeshNow draws the mesh with the material's pass before returning.
func (g *Graphics) DrawMeshNow(m *mesh.Mesh, matrix math.Mat4, mat *material.Material, opts ...commands.DrawOption) error {
	if err := checkSubMesh(m, opts); err != nil {
		return err
	}
	return g.immediate("Graphics.DrawMeshNow", func(cb *commands.CommandBuffer) error {
		return cb.DrawMesh(m, matrix, mat, opts...)
	})
}

// DrawMeshInstanced queues up to 1023 instances of one submesh.
func (g *Graphics) DrawMeshInstanced(m *mesh.Mesh, subMesh int, mat *material.Material, matrices []math.Mat4, opts ...commands.DrawOption) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	cb, err := g.frameQueue()
	if err != nil {
		return err
	}
	return cb.DrawMeshInstanced(m, subMesh, mat, commands.AllPasses, matrices, opts...)
}

// ExecuteCommandBuffer runs cb on the graphics queue now.
func (g *Graphics) ExecuteCommandBuffer(cb *commands.CommandBuffer) error {
	if cb == nil {
		return core.InvalidArgument("command buffer is nil")
	}
	if cb.IsReleased() {
		return core.InvalidOperation("command buffer %q has been released", cb.Name())
	}
	if cb.ExecutionFlags().Has(metadata.ExecutionFlagsAsyncCompute) {
		return core.InvalidArgument("command buffer %q is flagged for async compute, use ExecuteCommandBufferAsync", cb.Name())
	}
	if err := g.backend.Execute(cb.Name(), cb.Commands()); err != nil {
		return core.NativeFailure("ExecuteCommandBuffer", err)
	}
	return nil
}

// ExecuteCommandBufferAsync hands cb to an async compute queue.
func (g *Graphics) ExecuteCommandBufferAsync(cb *commands.CommandBuffer, queue metadata.ComputeQueueType) error {
	if cb == nil {
		return core.InvalidArgument("command buffer is nil")
	}
	if cb.IsReleased() {
		return core.InvalidOperation("command buffer %q has been released", cb.Name())
	}
	if !g.backend.Features().Has(native.FeatureAsyncCompute) {
		return core.Unsupported("async compute on %s", g.backend.DeviceName())
	}
	if !cb.ExecutionFlags().Has(metadata.ExecutionFlagsAsyncCompute) {
		return core.InvalidArgument("command buffer %q must be flagged for async compute", cb.Name())
	}
	if !queue.IsValid() {
		return core.InvalidArgument("invalid compute queue type %d", queue)
	}
	if err := g.backend.ExecuteAsync(cb.Name(), cb.Commands(), queue); err != nil {
		return core.NativeFailure("ExecuteCommandBufferAsync", err)
	}
	return nil
}

func (g *Graphics) SetRenderTarget(rt metadata.RenderTargetIdentifier) error {
	return g.immediate("Graphics.SetRenderTarget", func(cb *commands.CommandBuffer) error {
		return cb.SetRenderTarget(rt)
	})
}

func (g *Graphics) SetRenderTargetWithMip(rt metadata.RenderTargetIdentifier, mip int, face metadata.CubemapFace, depthSlice int) error {
	return g.immediate("Graphics.SetRenderTarget", func(cb *commands.CommandBuffer) error {
		return cb.SetRenderTargetWithMip(rt, mip, face, depthSlice)
	})
}

func (g *Graphics) SetRenderTargetMRT(colors []metadata.RenderTargetIdentifier, depth metadata.RenderTargetIdentifier) error {
	return g.immediate("Graphics.SetRenderTarget", func(cb *commands.CommandBuffer) error {
		return cb.SetRenderTargetMRT(colors, depth)
	})
}

/**
 * @brief Binds a RenderTargetSetup. Clear load actions become a load of
 * "don't care" followed by a clear of the affected buffers.
 */
func (g *Graphics) SetRenderTargetSetup(setup metadata.RenderTargetSetup) error {
	if err := setup.Validate(); err != nil {
		return core.InvalidArgument("%s", err)
	}
	binding, clearFlags := bindingFromSetup(setup)
	return g.immediate("Graphics.SetRenderTargetSetup", func(cb *commands.CommandBuffer) error {
		if err := cb.SetRenderTargetBinding(binding); err != nil {
			return err
		}
		if clearFlags == metadata.RTClearNone {
			return nil
		}
		return cb.ClearRenderTarget(clearFlags, math.Color{}, 1, 0)
	})
}

func bindingFromSetup(setup metadata.RenderTargetSetup) (metadata.RenderTargetBinding, metadata.RTClearFlags) {
	var clearFlags metadata.RTClearFlags
	binding := metadata.RenderTargetBinding{
		ColorLoadActions:  make([]metadata.RenderBufferLoadAction, len(setup.Color)),
		ColorStoreActions: append([]metadata.RenderBufferStoreAction(nil), setup.ColorStore...),
		DepthLoadAction:   setup.DepthLoad,
		DepthStoreAction:  setup.DepthStore,
	}
	target := func(h uint32) metadata.RenderTargetIdentifier {
		return metadata.NewRenderTargetFromTexture(h).WithMip(setup.MipLevel).WithFace(setup.CubeFace).WithSlice(setup.DepthSlice)
	}
	for i, h := range setup.Color {
		binding.ColorRenderTargets = append(binding.ColorRenderTargets, target(h))
		binding.ColorLoadActions[i] = setup.ColorLoad[i]
		if setup.ColorLoad[i] == metadata.LoadActionClear {
			binding.ColorLoadActions[i] = metadata.LoadActionDontCare
			clearFlags |= metadata.RTClearColor
		}
	}
	binding.DepthRenderTarget = metadata.NewRenderTargetFromBuiltin(metadata.BuiltinNone)
	if setup.Depth != 0 {
		binding.DepthRenderTarget = target(setup.Depth)
	}
	if setup.DepthLoad == metadata.LoadActionClear {
		binding.DepthLoadAction = metadata.LoadActionDontCare
		if setup.Depth != 0 {
			clearFlags |= metadata.RTClearDepth
		}
	}
	return binding, clearFlags
}

// ActiveRenderTexture is the texture currently bound as color target zero.
func (g *Graphics) ActiveRenderTexture() native.Handle {
	return g.backend.ActiveRenderTarget()
}

func (g *Graphics) Blit(source, dest metadata.RenderTargetIdentifier, opts ...commands.BlitOption) error {
	return g.immediate("Graphics.Blit", func(cb *commands.CommandBuffer) error {
		return cb.Blit(source, dest, opts...)
	})
}

func (g *Graphics) CopyTexture(source, dest metadata.RenderTargetIdentifier) error {
	return g.immediate("Graphics.CopyTexture", func(cb *commands.CommandBuffer) error {
		return cb.CopyTexture(source, dest)
	})
}

func (g *Graphics) CopyTextureElement(source metadata.RenderTargetIdentifier, srcElement, srcMip int, dest metadata.RenderTargetIdentifier, dstElement, dstMip int) error {
	return g.immediate("Graphics.CopyTexture", func(cb *commands.CommandBuffer) error {
		return cb.CopyTextureElement(source, srcElement, srcMip, dest, dstElement, dstMip)
	})
}

func (g *Graphics) CopyTextureRegion(source metadata.RenderTargetIdentifier, srcElement, srcMip int, region math.RectInt, dest metadata.RenderTargetIdentifier, dstElement, dstMip, dstX, dstY int) error {
	return g.immediate("Graphics.CopyTexture", func(cb *commands.CommandBuffer) error {
		return cb.CopyTextureRegion(source, srcElement, srcMip, region, dest, dstElement, dstMip, dstX, dstY)
	})
}

/**
 * @brief Copies src into dst converting format and size. The destination
 * format must be renderable on this device.
 */
func (g *Graphics) ConvertTexture(src Texture, srcElement int, dst Texture, dstElement int) error {
	srcHandle, err := textureHandle(src, "source texture")
	if err != nil {
		return err
	}
	dstHandle, err := textureHandle(dst, "destination texture")
	if err != nil {
		return err
	}
	if srcElement < 0 || dstElement < 0 {
		return core.InvalidArgument("texture elements must be non-negative, got %d and %d", srcElement, dstElement)
	}
	if !native.IsFormatSupported(g.backend, dst.GraphicsFormat(), metadata.UsageRender) {
		return core.Unsupported("format %s cannot be a ConvertTexture destination", dst.GraphicsFormat())
	}
	cmd := native.ConvertTextureCommand{Source: srcHandle, SrcElement: srcElement, Dest: dstHandle, DstElement: dstElement}
	if err := g.backend.Execute("Graphics.ConvertTexture", []native.Command{cmd}); err != nil {
		return core.NativeFailure("ConvertTexture", err)
	}
	return nil
}

// CreateGraphicsFence creates a fence that passes after the work submitted so far.
func (g *Graphics) CreateGraphicsFence(fenceType metadata.GraphicsFenceType, stages metadata.SynchronisationStageFlags) (*commands.GraphicsFence, error) {
	var fence *commands.GraphicsFence
	err := g.immediate("Graphics.CreateGraphicsFence", func(cb *commands.CommandBuffer) error {
		var err error
		fence, err = cb.CreateGraphicsFence(fenceType, stages)
		return err
	})
	if err != nil {
		if fence != nil {
			_ = fence.Release()
		}
		return nil, err
	}
	return fence, nil
}

// WaitOnAsyncGraphicsFence makes later graphics work wait for fence.
func (g *Graphics) WaitOnAsyncGraphicsFence(fence *commands.GraphicsFence, stages metadata.SynchronisationStageFlags) error {
	return g.immediate("Graphics.WaitOnAsyncGraphicsFence", func(cb *commands.CommandBuffer) error {
		return cb.WaitOnAsyncGraphicsFence(fence, stages)
	})
}
