package software

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

const fenceWaitTimeout = 2 * time.Second

type executorState struct {
	colorTargets []native.Handle
	depthTarget  native.Handle
	colorMip     int
	colorSlice   int
	viewport     math.Rect
	scissorOn    bool
	scissor      math.Rect
	view         math.Mat4
	projection   math.Mat4
	globals      map[int32]any
	samples      []string
}

func (s *executorState) reset() {
	*s = executorState{
		view:       math.NewMat4Identity(),
		projection: math.NewMat4Identity(),
		globals:    make(map[int32]any),
	}
}

// Execute runs commands in order and stops at the first failure.
func (b *Backend) Execute(name string, commands []native.Command) error {
	start := b.clock.Ticks()
	defer b.accountSubmit(start)
	for i, cmd := range commands {
		if err := b.execute(cmd); err != nil {
			return fmt.Errorf("command buffer %q command %d (%s): %w", name, i, cmd.CommandName(), err)
		}
	}
	return nil
}

// ExecuteAsync runs commands on the job system.
func (b *Backend) ExecuteAsync(name string, commands []native.Command, queue metadata.ComputeQueueType) error {
	if !b.Features().Has(native.FeatureAsyncCompute) {
		return core.Unsupported("async compute on %s", b.DeviceName())
	}
	for _, cmd := range commands {
		if !native.AsyncComputeAllowed(cmd) {
			return core.InvalidOperation("%s cannot run on an async compute queue", cmd.CommandName())
		}
	}
	batch := append([]native.Command(nil), commands...)
	err := b.jobs.Submit(JobTask{
		Name: fmt.Sprintf("%s (queue %d)", name, queue),
		Run: func() error {
			return b.Execute(name, batch)
		},
	})
	if err != nil {
		return err
	}
	b.mutex.Lock()
	b.stats.AsyncBatches++
	b.mutex.Unlock()
	return nil
}

func (b *Backend) execute(cmd native.Command) error {
	if wait, ok := cmd.(native.WaitFenceCommand); ok {
		return b.waitFence(wait.Fence)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.stats.CommandsRun++

	switch c := cmd.(type) {
	case native.ClearRenderTargetCommand:
		return b.clear(c)
	case native.SetRenderTargetCommand:
		return b.bind(c.Binding)
	case native.GetTemporaryRTCommand:
		return b.getTemporaryRT(c)
	case native.ReleaseTemporaryRTCommand:
		b.releaseTemporaryRT(c.NameID)
		return nil
	case native.DrawMeshCommand:
		if err := b.checkDraw(c.Mesh, c.SubMesh, c.Material); err != nil {
			return err
		}
		b.stats.DrawCalls++
		b.stats.Instances++
	case native.DrawMeshInstancedCommand:
		if err := b.checkDraw(c.Mesh, c.SubMesh, c.Material); err != nil {
			return err
		}
		b.stats.DrawCalls++
		b.stats.Instances += len(c.Matrices)
	case native.DrawProceduralCommand:
		if err := b.checkMaterial(c.Material); err != nil {
			return err
		}
		b.stats.DrawCalls++
		b.stats.Instances += c.InstanceCount
	case native.DrawImmediateCommand:
		b.stats.ImmediateDraws++
	case native.BlitCommand:
		return b.blit(c)
	case native.CopyTextureCommand:
		return b.copyTexture(c)
	case native.ConvertTextureCommand:
		return b.convertTexture(c)
	case native.SetViewportCommand:
		b.state.viewport = c.Rect
	case native.ScissorCommand:
		b.state.scissorOn, b.state.scissor = c.Enabled, c.Rect
	case native.SetViewProjectionCommand:
		b.state.view, b.state.projection = c.View, c.Projection
	case native.SetGlobalCommand:
		b.state.globals[c.NameID] = c.Value
	case native.DispatchComputeCommand:
		return b.dispatch(c)
	case native.SetComputeParamCommand:
		cs, err := b.computeShader(c.Shader)
		if err != nil {
			return err
		}
		cs.params[c.NameID] = c.Value
	case native.SampleCommand:
		b.sample(c)
	case native.CreateFenceCommand:
		return b.signalFence(c.Fence)
	case native.BuildAccelerationStructureCommand:
		return b.buildAccelerationStructure(c.Structure, c.Origin)
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
	return nil
}

func (b *Backend) checkMaterial(h native.Handle) error {
	if !h.IsValid() {
		return nil
	}
	_, err := b.material(h)
	return err
}

func (b *Backend) checkDraw(mesh native.Handle, subMesh int, material native.Handle) error {
	m, err := b.mesh(mesh)
	if err != nil {
		return err
	}
	if subMesh < 0 || subMesh >= len(m.buffers.SubMeshes) {
		return fmt.Errorf("submesh %d out of range [0, %d)", subMesh, len(m.buffers.SubMeshes))
	}
	return b.checkMaterial(material)
}

func (b *Backend) sample(c native.SampleCommand) {
	if c.Begin {
		b.state.samples = append(b.state.samples, c.Name)
		return
	}
	n := len(b.state.samples)
	if n == 0 || b.state.samples[n-1] != c.Name {
		core.LogWarn("EndSample(%q) does not match the open sample", c.Name)
		if n == 0 {
			return
		}
	}
	b.state.samples = b.state.samples[:n-1]
}

// ActiveRenderTarget returns the first bound color target, or InvalidHandle for the backbuffer.
func (b *Backend) ActiveRenderTarget() native.Handle {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if len(b.state.colorTargets) == 0 || b.state.colorTargets[0] == b.backbuffer {
		return native.InvalidHandle
	}
	return b.state.colorTargets[0]
}

func (b *Backend) activeColorTarget() (*textureObject, error) {
	if len(b.state.colorTargets) == 0 {
		if err := b.ensureBackbuffer(); err != nil {
			return nil, err
		}
		return b.texture(b.backbuffer)
	}
	return b.texture(b.state.colorTargets[0])
}

// resolveTarget maps an identifier to a texture handle. Builtins naming the
// camera resolve to the backbuffer.
func (b *Backend) resolveTarget(id metadata.RenderTargetIdentifier) (native.Handle, error) {
	switch id.Type {
	case metadata.BuiltinRenderTexture, metadata.BuiltinBindableTexture:
		h := native.Handle(id.InstanceID)
		if _, err := b.texture(h); err != nil {
			return native.InvalidHandle, err
		}
		return h, nil
	case metadata.BuiltinPropertyName:
		if h, ok := b.tempRTs[id.NameID]; ok {
			return h, nil
		}
		if g, ok := b.state.globals[id.NameID].(metadata.RenderTargetIdentifier); ok && g.Type != metadata.BuiltinPropertyName {
			return b.resolveTarget(g)
		}
		return native.InvalidHandle, fmt.Errorf("no render texture bound to property id %d", id.NameID)
	case metadata.BuiltinCameraTarget, metadata.BuiltinDepth, metadata.BuiltinResolvedDepth:
		if err := b.ensureBackbuffer(); err != nil {
			return native.InvalidHandle, err
		}
		return b.backbuffer, nil
	case metadata.BuiltinCurrentActive:
		if len(b.state.colorTargets) > 0 {
			return b.state.colorTargets[0], nil
		}
		if err := b.ensureBackbuffer(); err != nil {
			return native.InvalidHandle, err
		}
		return b.backbuffer, nil
	case metadata.BuiltinNone:
		return native.InvalidHandle, nil
	}
	return native.InvalidHandle, core.Unsupported("builtin render texture %d on %s", id.Type, b.DeviceName())
}

func (b *Backend) bind(binding metadata.RenderTargetBinding) error {
	colors := make([]native.Handle, 0, len(binding.ColorRenderTargets))
	for _, id := range binding.ColorRenderTargets {
		h, err := b.resolveTarget(id)
		if err != nil {
			return err
		}
		if h.IsValid() {
			colors = append(colors, h)
		}
	}
	depth, err := b.resolveTarget(binding.DepthRenderTarget)
	if err != nil {
		return err
	}
	b.state.colorTargets = colors
	b.state.depthTarget = depth
	b.state.colorMip, b.state.colorSlice = 0, 0
	if len(binding.ColorRenderTargets) > 0 {
		first := binding.ColorRenderTargets[0]
		b.state.colorMip = int(first.MipLevel)
		if first.CubeFace.IsValid() {
			b.state.colorSlice = int(first.CubeFace)
		} else if first.DepthSlice > 0 {
			b.state.colorSlice = int(first.DepthSlice)
		}
	}
	return nil
}

func (b *Backend) clear(c native.ClearRenderTargetCommand) error {
	targets := b.state.colorTargets
	if len(targets) == 0 {
		if err := b.ensureBackbuffer(); err != nil {
			return err
		}
		targets = []native.Handle{b.backbuffer}
	}
	b.stats.Clears++
	if c.Flags&metadata.RTClearColor != 0 {
		for _, h := range targets {
			t, err := b.texture(h)
			if err != nil {
				return err
			}
			if err := t.checkLevel(b.state.colorSlice, b.state.colorMip); err != nil {
				return err
			}
			fillColor(t.level(b.state.colorSlice, b.state.colorMip), t.desc.Format, c.Color)
		}
	}
	if c.Flags&metadata.RTClearDepth != 0 {
		depth := b.state.depthTarget
		if !depth.IsValid() {
			depth = targets[0]
		}
		if t, err := b.texture(depth); err == nil {
			t.clearDepth = c.Depth
		}
	}
	return nil
}

func fillColor(level []byte, f metadata.GraphicsFormat, c math.Color) {
	if !metadata.CanConvertPixels(f) {
		for i := range level {
			level[i] = 0
		}
		return
	}
	bs := f.BlockSize()
	texel := make([]byte, bs)
	metadata.EncodeColor(f, c, texel)
	for i := 0; i+bs <= len(level); i += bs {
		copy(level[i:], texel)
	}
}

func (b *Backend) getTemporaryRT(c native.GetTemporaryRTCommand) error {
	if err := c.Descriptor.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	if _, ok := b.tempRTs[c.NameID]; ok {
		b.releaseTemporaryRT(c.NameID)
	}
	for i, p := range b.rtPool {
		if p.desc == c.Descriptor {
			b.rtPool = append(b.rtPool[:i], b.rtPool[i+1:]...)
			b.tempRTs[c.NameID] = p.handle
			return nil
		}
	}
	h, err := b.createRenderTexture(c.Descriptor)
	if err != nil {
		return err
	}
	b.tempRTs[c.NameID] = h
	return nil
}

func (b *Backend) releaseTemporaryRT(nameID int32) {
	h, ok := b.tempRTs[nameID]
	if !ok {
		core.LogWarn("ReleaseTemporaryRT: no temporary render texture with id %d", nameID)
		return
	}
	delete(b.tempRTs, nameID)
	t, err := b.texture(h)
	if err != nil {
		return
	}
	b.rtPool = append(b.rtPool, pooledRT{desc: t.rtDesc, handle: h})
	for len(b.rtPool) > b.rtPoolLimit {
		oldest := b.rtPool[0]
		b.rtPool = b.rtPool[1:]
		if id, err := fromHandle(oldest.handle); err == nil {
			_ = b.textures.Release(id)
		}
	}
}

type pooledRT struct {
	desc   metadata.RenderTextureDescriptor
	handle native.Handle
}

// TemporaryRT returns the texture bound to a temporary render texture id.
func (b *Backend) TemporaryRT(nameID int32) (native.Handle, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	h, ok := b.tempRTs[nameID]
	return h, ok
}

func renderTextureDesc(d metadata.RenderTextureDescriptor) native.TextureDesc {
	return native.TextureDesc{
		Dimension:          d.Dimension,
		Width:              d.Width,
		Height:             d.Height,
		Depth:              d.VolumeDepth,
		MipCount:           d.ResolvedMipCount(),
		Format:             d.GraphicsFormat,
		DepthStencilFormat: d.DepthStencilFormat,
		MSAASamples:        d.MSAASamples,
		RenderTarget:       true,
		RandomWrite:        d.EnableRandomWrite(),
		Memoryless:         d.Memoryless,
	}
}

func (b *Backend) createRenderTexture(d metadata.RenderTextureDescriptor) (native.Handle, error) {
	desc := renderTextureDesc(d)
	if err := b.validateTextureDesc(desc); err != nil {
		return native.InvalidHandle, err
	}
	t := &textureObject{desc: desc, clearDepth: 1, rtDesc: d}
	t.allocate()
	return toHandle(b.textures.Acquire(t)), nil
}

func (b *Backend) backbufferSize() (int, int) {
	w, h := b.WindowSize()
	sw := math.Max(int(float32(w)*b.widthScale+0.5), 1)
	sh := math.Max(int(float32(h)*b.heightScale+0.5), 1)
	return sw, sh
}

func (b *Backend) resizeBackbuffer() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.ensureBackbuffer()
}

// ensureBackbuffer keeps the backbuffer sized to the window times the dynamic
// resolution scale. The handle survives resizes.
func (b *Backend) ensureBackbuffer() error {
	w, h := b.backbufferSize()
	if b.backbuffer.IsValid() {
		t, err := b.texture(b.backbuffer)
		if err != nil {
			return err
		}
		if t.desc.Width != w || t.desc.Height != h {
			t.desc.Width, t.desc.Height = w, h
			t.allocate()
		}
		return nil
	}
	d := metadata.NewRenderTextureDescriptor(w, h, metadata.FormatR8G8B8A8_UNorm, metadata.FormatD24_UNorm_S8_UInt)
	handle, err := b.createRenderTexture(d)
	if err != nil {
		return err
	}
	b.backbuffer = handle
	return nil
}

// Backbuffer returns the handle of the texture standing in for the screen.
func (b *Backend) Backbuffer() native.Handle {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	_ = b.ensureBackbuffer()
	return b.backbuffer
}

func (b *Backend) dispatch(c native.DispatchComputeCommand) error {
	if !b.Features().Has(native.FeatureComputeShaders) {
		return core.Unsupported("compute shaders on %s", b.DeviceName())
	}
	cs, err := b.computeShader(c.Shader)
	if err != nil {
		return err
	}
	if c.Kernel < 0 || c.Kernel >= len(cs.kernels) {
		return fmt.Errorf("kernel %d out of range [0, %d)", c.Kernel, len(cs.kernels))
	}
	b.stats.Dispatches++
	return nil
}

func (b *Backend) accountSubmit(start uint64) {
	elapsed := b.clock.Ticks() - start
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.frameOpen && b.firstSubmit == 0 {
		b.firstSubmit = start
	}
	b.gpuTicks += elapsed
}
