package software

import (
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

func newTestBackend(t *testing.T, edit func(cfg *config.Config)) *Backend {
	t.Helper()
	cfg := config.Default()
	if edit != nil {
		edit(cfg)
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { _ = b.Shutdown() })
	return b
}

func colorRT(w, h int) metadata.RenderTextureDescriptor {
	return metadata.NewRenderTextureDescriptor(w, h, metadata.FormatR8G8B8A8_UNorm, metadata.FormatNone)
}

func mustExecute(t *testing.T, b *Backend, cmds ...native.Command) {
	t.Helper()
	if err := b.Execute("test", cmds); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
}

func bindAndClear(nameID int32, c math.Color) []native.Command {
	return []native.Command{
		native.SetRenderTargetCommand{Binding: metadata.NewRenderTargetBinding(
			metadata.NewRenderTargetFromNameID(nameID),
			metadata.NewRenderTargetFromBuiltin(metadata.BuiltinNone),
		)},
		native.ClearRenderTargetCommand{Flags: metadata.RTClearColor, Color: c, Depth: 1},
	}
}

func TestTemporaryRTPoolReusesReleasedTexture(t *testing.T) {
	b := newTestBackend(t, nil)
	mustExecute(t, b, native.GetTemporaryRTCommand{NameID: 1, Descriptor: colorRT(64, 64)})
	first, ok := b.TemporaryRT(1)
	if !ok {
		t.Fatal("temporary RT 1 was not allocated")
	}
	mustExecute(t, b,
		native.ReleaseTemporaryRTCommand{NameID: 1},
		native.GetTemporaryRTCommand{NameID: 2, Descriptor: colorRT(64, 64)},
	)
	second, _ := b.TemporaryRT(2)
	if second != first {
		t.Errorf("pooled texture = %d, want reused %d", second, first)
	}
	if _, ok := b.TemporaryRT(1); ok {
		t.Error("released id should no longer resolve")
	}

	// Releasing an unknown id only warns.
	mustExecute(t, b, native.ReleaseTemporaryRTCommand{NameID: 99})
}

func TestTemporaryRTRejectsInvalidDescriptor(t *testing.T) {
	b := newTestBackend(t, nil)
	err := b.Execute("bad", []native.Command{native.GetTemporaryRTCommand{NameID: 1, Descriptor: colorRT(0, 64)}})
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Execute() = %v, want ErrInvalidArgument", err)
	}
}

func TestClearWritesBoundTarget(t *testing.T) {
	b := newTestBackend(t, nil)
	mustExecute(t, b, native.GetTemporaryRTCommand{NameID: 1, Descriptor: colorRT(4, 4)})
	mustExecute(t, b, bindAndClear(1, math.Color{R: 1, A: 1})...)

	h, _ := b.TemporaryRT(1)
	data, err := b.TextureRead(h, 0, 0)
	if err != nil {
		t.Fatalf("TextureRead() = %v", err)
	}
	for i := 0; i < len(data); i += 4 {
		if data[i] != 255 || data[i+1] != 0 || data[i+2] != 0 || data[i+3] != 255 {
			t.Fatalf("texel %d = %v, want opaque red", i/4, data[i:i+4])
		}
	}
	if got := b.ActiveRenderTarget(); got != h {
		t.Errorf("ActiveRenderTarget() = %d, want %d", got, h)
	}
	if got := b.Stats().Clears; got != 1 {
		t.Errorf("Clears = %d, want 1", got)
	}
}

func TestBlitScalesIntoSmallerTarget(t *testing.T) {
	b := newTestBackend(t, nil)
	mustExecute(t, b,
		native.GetTemporaryRTCommand{NameID: 1, Descriptor: colorRT(8, 8)},
		native.GetTemporaryRTCommand{NameID: 2, Descriptor: colorRT(2, 2)},
	)
	mustExecute(t, b, bindAndClear(1, math.Color{R: 1, G: 1, B: 1, A: 1})...)
	mustExecute(t, b, native.BlitCommand{
		Source: metadata.NewRenderTargetFromNameID(1),
		Dest:   metadata.NewRenderTargetFromNameID(2),
		Scale:  math.Vec2{X: 1, Y: 1},
	})

	h, _ := b.TemporaryRT(2)
	data, _ := b.TextureRead(h, 0, 0)
	if len(data) != 2*2*4 {
		t.Fatalf("destination holds %d bytes, want 16", len(data))
	}
	for i, v := range data {
		if v != 255 {
			t.Fatalf("byte %d = %d, want 255", i, v)
		}
	}
}

func TestBlitUnknownPropertyFails(t *testing.T) {
	b := newTestBackend(t, nil)
	err := b.Execute("blit", []native.Command{native.BlitCommand{
		Source: metadata.NewRenderTargetFromNameID(42),
		Dest:   metadata.NewRenderTargetFromBuiltin(metadata.BuiltinCameraTarget),
		Scale:  math.Vec2{X: 1, Y: 1},
	}})
	if err == nil {
		t.Error("blit from an unbound property id should fail")
	}
}

func TestAsyncComputeSignalsFence(t *testing.T) {
	b := newTestBackend(t, nil)
	cs, err := b.ComputeShaderCreate("particles", []string{"Simulate"})
	if err != nil {
		t.Fatalf("ComputeShaderCreate() = %v", err)
	}
	fence, err := b.FenceCreate(metadata.GraphicsFenceAsyncQueueSynchronisation, metadata.SynchronisationStageFlagsComputeProcessing)
	if err != nil {
		t.Fatalf("FenceCreate() = %v", err)
	}

	err = b.ExecuteAsync("simulate", []native.Command{
		native.DispatchComputeCommand{Shader: cs, Kernel: 0, GroupsX: 8, GroupsY: 1, GroupsZ: 1},
		native.CreateFenceCommand{Fence: fence, Stages: metadata.SynchronisationStageFlagsComputeProcessing},
	}, metadata.ComputeQueueDefault)
	if err != nil {
		t.Fatalf("ExecuteAsync() = %v", err)
	}
	mustExecute(t, b, native.WaitFenceCommand{Fence: fence, Stages: metadata.SynchronisationStageFlagsPixelProcessing})

	passed, err := b.FencePassed(fence)
	if err != nil || !passed {
		t.Errorf("FencePassed() = %t, %v, want true", passed, err)
	}
	b.WaitIdle()
	stats := b.Stats()
	if stats.Dispatches != 1 || stats.AsyncBatches != 1 {
		t.Errorf("stats = %+v, want one dispatch in one async batch", stats)
	}
}

func TestAsyncComputeRejections(t *testing.T) {
	b := newTestBackend(t, nil)
	err := b.ExecuteAsync("draw", []native.Command{native.DrawProceduralCommand{VertexCount: 3, InstanceCount: 1}}, metadata.ComputeQueueDefault)
	if !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("draw on async queue = %v, want ErrInvalidOperation", err)
	}

	noAsync := newTestBackend(t, func(cfg *config.Config) { cfg.Renderer.AsyncCompute = false })
	err = noAsync.ExecuteAsync("dispatch", nil, metadata.ComputeQueueDefault)
	if !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("ExecuteAsync without support = %v, want ErrUnsupported", err)
	}
}

func TestAsyncWorkAfterShutdown(t *testing.T) {
	b := newTestBackend(t, nil)
	mustExecute(t, b, native.GetTemporaryRTCommand{NameID: 1, Descriptor: colorRT(2, 2)})
	h, _ := b.TemporaryRT(1)
	if err := b.Shutdown(); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}

	err := b.ExecuteAsync("late", nil, metadata.ComputeQueueDefault)
	if !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("ExecuteAsync after Shutdown = %v, want ErrInvalidOperation", err)
	}
	err = b.ReadbackRequest(h, 0, native.Region{Width: 1, Height: 1, Depth: 1}, metadata.FormatR8G8B8A8_UNorm, func([]byte, error) {})
	if !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("ReadbackRequest after Shutdown = %v, want ErrInvalidOperation", err)
	}
	if s := b.Stats(); s.AsyncBatches != 0 {
		t.Errorf("AsyncBatches = %d, want 0", s.AsyncBatches)
	}

	idle := make(chan struct{})
	go func() {
		b.WaitIdle()
		close(idle)
	}()
	select {
	case <-idle:
	case <-time.After(time.Second):
		t.Fatal("WaitIdle blocked on rejected work")
	}
}

func TestWaitOnUnsignaledFenceTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the fence timeout")
	}
	b := newTestBackend(t, nil)
	fence, _ := b.FenceCreate(metadata.GraphicsFenceCPUSynchronisation, metadata.SynchronisationStageFlagsAllGPUOperations)
	start := time.Now()
	if err := b.Execute("wait", []native.Command{native.WaitFenceCommand{Fence: fence}}); err == nil {
		t.Error("waiting on a fence nobody signals should fail")
	}
	if time.Since(start) < fenceWaitTimeout {
		t.Error("wait returned before the timeout")
	}
}

func TestOptionalFeaturesReportUnsupported(t *testing.T) {
	b := newTestBackend(t, func(cfg *config.Config) {
		cfg.Renderer.RayTracing = false
		cfg.Renderer.GraphicsFence = false
	})
	if _, err := b.AccelerationStructureCreate(); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("AccelerationStructureCreate() = %v, want ErrUnsupported", err)
	}
	if _, err := b.FenceCreate(metadata.GraphicsFenceCPUSynchronisation, metadata.SynchronisationStageFlagsAllGPUOperations); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("FenceCreate() = %v, want ErrUnsupported", err)
	}
}

func TestRayTracingBuildChecksMeshes(t *testing.T) {
	b := newTestBackend(t, func(cfg *config.Config) { cfg.Renderer.RayTracing = true })
	as, err := b.AccelerationStructureCreate()
	if err != nil {
		t.Fatalf("AccelerationStructureCreate() = %v", err)
	}
	mesh, _ := b.MeshCreate()
	if idx, err := b.AccelerationStructureAddInstance(as, mesh, math.NewMat4Identity(), 0xff); err != nil || idx != 0 {
		t.Fatalf("AddInstance() = %d, %v", idx, err)
	}
	mustExecute(t, b, native.BuildAccelerationStructureCommand{Structure: as})

	_ = b.MeshDestroy(mesh)
	if err := b.Execute("build", []native.Command{native.BuildAccelerationStructureCommand{Structure: as}}); err == nil {
		t.Error("building with a destroyed mesh should fail")
	}
}

func TestHDRModeChangeAppliesAtEndOfFrame(t *testing.T) {
	b := newTestBackend(t, func(cfg *config.Config) {
		cfg.HDR.Displays[0].Available = true
		cfg.HDR.Displays[0].RuntimeSwitchable = true
	})
	if !b.Features().Has(native.FeatureHDRDisplay) {
		t.Fatal("an available HDR display should enable FeatureHDRDisplay")
	}
	if err := b.HDRRequestModeChange(0, true); err != nil {
		t.Fatalf("HDRRequestModeChange() = %v", err)
	}
	state, _ := b.HDRDisplay(0)
	if state.Active || !state.ModeChangeRequested {
		t.Fatalf("before EndFrame: %+v", state)
	}
	if err := b.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := b.EndFrame(); err != nil {
		t.Fatal(err)
	}
	state, _ = b.HDRDisplay(0)
	if !state.Active || state.ModeChangeRequested {
		t.Errorf("after EndFrame: %+v", state)
	}
	if _, err := b.HDRDisplay(3); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Errorf("HDRDisplay(3) = %v, want ErrIndexOutOfRange", err)
	}
}

func TestHDRUnavailableDisplayRejectsChanges(t *testing.T) {
	b := newTestBackend(t, nil)
	if err := b.HDRRequestModeChange(0, true); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("HDRRequestModeChange() = %v, want ErrInvalidOperation", err)
	}
	if err := b.HDRSetPaperWhite(0, 200); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("HDRSetPaperWhite() = %v, want ErrInvalidOperation", err)
	}
}

func TestFrameTimingsNewestFirst(t *testing.T) {
	b := newTestBackend(t, nil)
	if err := b.EndFrame(); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("EndFrame() without BeginFrame = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := b.BeginFrame(); err != nil {
			t.Fatal(err)
		}
		mustExecute(t, b, native.ClearRenderTargetCommand{Flags: metadata.RTClearColor})
		if err := b.EndFrame(); err != nil {
			t.Fatal(err)
		}
	}
	out := make([]metadata.FrameTiming, 8)
	n := b.FrameTimings(out)
	if n != 3 {
		t.Fatalf("FrameTimings() = %d, want 3", n)
	}
	if out[0].FrameStartTimestamp < out[1].FrameStartTimestamp {
		t.Error("timings should be newest first")
	}
	if out[0].WidthScale != 1 || out[0].SyncInterval != 1 {
		t.Errorf("timing = %+v", out[0])
	}
	if b.CPUTimerFrequency() != core.ClockFrequency {
		t.Error("CPU timer frequency should be the clock frequency")
	}
}

func TestResizeBuffersScalesBackbuffer(t *testing.T) {
	b := newTestBackend(t, nil)
	if err := b.ResizeBuffers(0.5, 0.25); err != nil {
		t.Fatalf("ResizeBuffers() = %v", err)
	}
	desc, err := b.TextureDesc(b.Backbuffer())
	if err != nil {
		t.Fatal(err)
	}
	if desc.Width != 640 || desc.Height != 180 {
		t.Errorf("backbuffer = %dx%d, want 640x180", desc.Width, desc.Height)
	}
	for _, s := range [][2]float32{{0, 1}, {1, 1.5}, {-1, 0.5}} {
		if err := b.ResizeBuffers(s[0], s[1]); !errors.Is(err, core.ErrInvalidArgument) {
			t.Errorf("ResizeBuffers(%v) = %v, want ErrInvalidArgument", s, err)
		}
	}
	if w, h := b.ScaleFactors(); w != 0.5 || h != 0.25 {
		t.Errorf("ScaleFactors() = %g, %g after rejected calls", w, h)
	}
}

func TestLightProbeInterpolation(t *testing.T) {
	b := newTestBackend(t, func(cfg *config.Config) {
		cfg.LightProbes.Positions = [][3]float32{{0, 0, 0}, {10, 0, 0}}
		cfg.LightProbes.Ambient = [][3]float32{{1, 0, 0}, {0, 0, 1}}
	})
	sh, occlusion, err := b.InterpolateLightProbe(math.Vec3{})
	if err != nil {
		t.Fatal(err)
	}
	if sh.Coefficients[0][0] != 1 || sh.Coefficients[2][0] != 0 {
		t.Errorf("probe at origin = %v", sh.Coefficients)
	}
	if occlusion != (math.Vec4{X: 1, Y: 1, Z: 1, W: 1}) {
		t.Errorf("occlusion = %v", occlusion)
	}

	sh, _, _ = b.InterpolateLightProbe(math.Vec3{X: 5})
	if !approx(sh.Coefficients[0][0], 0.5) || !approx(sh.Coefficients[2][0], 0.5) {
		t.Errorf("midpoint = %v, want an even blend", sh.Coefficients)
	}

	if err := b.SetLightProbeCoefficients(make([]metadata.SphericalHarmonicsL2, 1)); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("SetLightProbeCoefficients(len 1) = %v", err)
	}
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestReadbackCopiesRegion(t *testing.T) {
	b := newTestBackend(t, nil)
	mustExecute(t, b, native.GetTemporaryRTCommand{NameID: 1, Descriptor: colorRT(4, 4)})
	mustExecute(t, b, bindAndClear(1, math.Color{G: 1, A: 1})...)
	h, _ := b.TemporaryRT(1)

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	err := b.ReadbackRequest(h, 0, native.Region{X: 1, Y: 1, Width: 2, Height: 2, Depth: 1}, metadata.FormatR8G8B8A8_UNorm,
		func(data []byte, err error) { done <- result{data, err} })
	if err != nil {
		t.Fatalf("ReadbackRequest() = %v", err)
	}
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatal(r.err)
		}
		if len(r.data) != 16 || r.data[1] != 255 || r.data[0] != 0 {
			t.Errorf("readback = %v", r.data)
		}
	case <-time.After(time.Second):
		t.Fatal("readback never completed")
	}

	err = b.ReadbackRequest(h, 0, native.Region{X: 3, Width: 2, Height: 1, Depth: 1}, metadata.FormatR8G8B8A8_UNorm, func([]byte, error) {})
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("out of bounds region = %v, want ErrInvalidArgument", err)
	}
}

func TestHeadlessDisplay(t *testing.T) {
	d, err := NewHeadlessDisplay(config.Default().Screen)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := d.WindowSize(); w != 1280 || h != 720 {
		t.Errorf("WindowSize() = %dx%d", w, h)
	}
	if err := d.SetResolution(800, 600, metadata.FullScreenModeFullScreenWindow, metadata.RefreshRate{}); err != nil {
		t.Fatal(err)
	}
	if r := d.CurrentResolution(); r.Width != 800 || r.RefreshRateRatio.Value() != 60 {
		t.Errorf("CurrentResolution() = %v", r)
	}
	if err := d.SetOrientation(metadata.ScreenOrientation(9)); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("SetOrientation(9) = %v", err)
	}
	d.SetBrightness(3)
	if d.Brightness() != 1 {
		t.Errorf("Brightness() = %g, want clamped 1", d.Brightness())
	}

	bad := config.Default().Screen
	bad.FullScreenMode = "borderless"
	if _, err := NewHeadlessDisplay(bad); err == nil {
		t.Error("unknown full screen mode should fail")
	}
}
