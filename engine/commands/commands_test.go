package commands

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/mesh"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
	"github.com/spaghettifunk/lumen/engine/renderer/software"
)

func newBackend(t *testing.T, edit func(cfg *config.Config)) *software.Backend {
	t.Helper()
	cfg := config.Default()
	if edit != nil {
		edit(cfg)
	}
	b, err := software.New(cfg)
	if err != nil {
		t.Fatalf("software.New() = %v", err)
	}
	t.Cleanup(func() { _ = b.Shutdown() })
	return b
}

func newBuffer(t *testing.T, b *software.Backend, opts ...Option) *CommandBuffer {
	t.Helper()
	cb, err := New(b, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return cb
}

func newTriangle(t *testing.T, b *software.Backend) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(b)
	if err != nil {
		t.Fatalf("mesh.New() = %v", err)
	}
	m.Name = "triangle"
	if err := m.SetVertices([]math.Vec3{{X: 0}, {X: 1}, {Y: 1}}); err != nil {
		t.Fatalf("SetVertices() = %v", err)
	}
	if err := m.SetTriangles([]int32{0, 1, 2}, 0); err != nil {
		t.Fatalf("SetTriangles() = %v", err)
	}
	return m
}

func newMaterial(t *testing.T, b *software.Backend) *material.Material {
	t.Helper()
	mat, err := material.New(b, "Unlit/Color")
	if err != nil {
		t.Fatalf("material.New() = %v", err)
	}
	return mat
}

func TestDefaultName(t *testing.T) {
	b := newBackend(t, nil)
	cb := newBuffer(t, b)
	if _, err := uuid.Parse(cb.Name()); err != nil {
		t.Errorf("default name %q is not a uuid: %v", cb.Name(), err)
	}
	named := newBuffer(t, b, WithName("Shadows"))
	if named.Name() != "Shadows" {
		t.Errorf("Name() = %q, want Shadows", named.Name())
	}
}

func TestExecutionFlags(t *testing.T) {
	b := newBackend(t, nil)
	m, mat := newTriangle(t, b), newMaterial(t, b)

	cb := newBuffer(t, b)
	if err := cb.SetExecutionFlags(metadata.ExecutionFlagsAsyncCompute); err != nil {
		t.Fatalf("SetExecutionFlags() on empty buffer = %v", err)
	}
	if err := cb.DrawMesh(m, math.NewMat4Identity(), mat); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("DrawMesh on async buffer = %v, want ErrInvalidOperation", err)
	}
	if err := cb.SetGlobalFloat(material.PropertyToID("_Time"), 1); err != nil {
		t.Fatalf("SetGlobalFloat on async buffer = %v", err)
	}
	if err := cb.SetExecutionFlags(metadata.ExecutionFlagsNone); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("SetExecutionFlags after recording = %v, want ErrInvalidOperation", err)
	}
	cb.Clear()
	if err := cb.SetExecutionFlags(metadata.ExecutionFlagsNone); err != nil {
		t.Errorf("SetExecutionFlags after Clear = %v", err)
	}

	noAsync := newBackend(t, func(cfg *config.Config) { cfg.Renderer.AsyncCompute = false })
	if _, err := New(noAsync, WithExecutionFlags(metadata.ExecutionFlagsAsyncCompute)); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("New(async) without async compute = %v, want ErrUnsupported", err)
	}
}

func TestShortFormsMatchFullForms(t *testing.T) {
	b := newBackend(t, nil)
	m, mat := newTriangle(t, b), newMaterial(t, b)
	matrix := math.NewMat4Translation(math.Vec3{X: 1, Y: 2, Z: 3})
	src := metadata.NewRenderTargetFromNameID(material.PropertyToID("_Source"))
	dst := metadata.NewRenderTargetFromBuiltin(metadata.BuiltinCameraTarget)
	id := material.PropertyToID("_Temp")

	tests := []struct {
		name  string
		short func(cb *CommandBuffer) error
		full  func(cb *CommandBuffer) error
	}{
		{
			name:  "DrawMesh",
			short: func(cb *CommandBuffer) error { return cb.DrawMesh(m, matrix, mat) },
			full: func(cb *CommandBuffer) error {
				return cb.DrawMesh(m, matrix, mat, WithSubMesh(0), WithPass(AllPasses), WithProperties(nil))
			},
		},
		{
			name:  "DrawProcedural",
			short: func(cb *CommandBuffer) error { return cb.DrawProcedural(matrix, mat, 0, metadata.MeshTopologyTriangles, 3) },
			full: func(cb *CommandBuffer) error {
				return cb.DrawProcedural(matrix, mat, 0, metadata.MeshTopologyTriangles, 3, WithInstanceCount(1))
			},
		},
		{
			name:  "GetTemporaryRT",
			short: func(cb *CommandBuffer) error { return cb.GetTemporaryRT(id, 64, 32) },
			full: func(cb *CommandBuffer) error {
				return cb.GetTemporaryRT(id, 64, 32,
					WithDepthBuffer(0),
					WithFilter(metadata.FilterModePoint),
					WithFormat(metadata.RenderTextureFormatDefault),
					WithReadWrite(metadata.RenderTextureReadWriteDefault),
					WithAntiAliasing(1),
					WithRandomWrite(false),
					WithMemoryless(metadata.RenderTextureMemorylessNone),
					WithDynamicScale(false),
				)
			},
		},
		{
			name:  "Blit",
			short: func(cb *CommandBuffer) error { return cb.Blit(src, dst) },
			full: func(cb *CommandBuffer) error {
				return cb.Blit(src, dst,
					WithMaterial(nil, AllPasses),
					WithScaleOffset(math.Vec2{X: 1, Y: 1}, math.Vec2{}),
					WithSlices(metadata.AllDepthSlices, metadata.AllDepthSlices),
				)
			},
		},
		{
			name:  "SetRenderTarget",
			short: func(cb *CommandBuffer) error { return cb.SetRenderTarget(src) },
			full: func(cb *CommandBuffer) error {
				return cb.SetRenderTargetWithActions(src, metadata.LoadActionLoad, metadata.StoreActionStore)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			short, full := newBuffer(t, b), newBuffer(t, b)
			if err := tt.short(short); err != nil {
				t.Fatalf("short form = %v", err)
			}
			if err := tt.full(full); err != nil {
				t.Fatalf("full form = %v", err)
			}
			if !reflect.DeepEqual(short.Commands(), full.Commands()) {
				t.Errorf("short form recorded %+v, full form %+v", short.Commands(), full.Commands())
			}
		})
	}
}

func TestDrawMeshClampsSubMesh(t *testing.T) {
	b := newBackend(t, nil)
	m, mat := newTriangle(t, b), newMaterial(t, b)
	cb := newBuffer(t, b)
	for _, index := range []int{-3, 7} {
		if err := cb.DrawMesh(m, math.NewMat4Identity(), mat, WithSubMesh(index)); err != nil {
			t.Fatalf("DrawMesh(submesh %d) = %v", index, err)
		}
	}
	for i, cmd := range cb.Commands() {
		if got := cmd.(native.DrawMeshCommand).SubMesh; got != 0 {
			t.Errorf("command %d submesh = %d, want clamped 0", i, got)
		}
	}
	if err := cb.DrawMesh(nil, math.NewMat4Identity(), mat); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("DrawMesh(nil) = %v, want ErrInvalidArgument", err)
	}
	if err := cb.DrawMesh(m, math.NewMat4Identity(), mat, WithPass(-2)); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("DrawMesh(pass -2) = %v, want ErrInvalidArgument", err)
	}
}

func TestDrawMeshInstancedFailsFast(t *testing.T) {
	b := newBackend(t, nil)
	m, mat := newTriangle(t, b), newMaterial(t, b)
	matrices := func(n int) []math.Mat4 {
		out := make([]math.Mat4, n)
		for i := range out {
			out[i] = math.NewMat4Identity()
		}
		return out
	}

	tests := []struct {
		name    string
		subMesh int
		count   int
		want    error
	}{
		{"submesh out of range", 1, 1, core.ErrIndexOutOfRange},
		{"negative submesh", -1, 1, core.ErrIndexOutOfRange},
		{"too many instances", 0, metadata.MaxInstancesPerDraw + 1, core.ErrInvalidArgument},
		{"maximum instances", 0, metadata.MaxInstancesPerDraw, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := newBuffer(t, b)
			err := cb.DrawMeshInstanced(m, tt.subMesh, mat, 0, matrices(tt.count))
			if !errors.Is(err, tt.want) {
				t.Fatalf("DrawMeshInstanced() = %v, want %v", err, tt.want)
			}
			if tt.want != nil && cb.Len() != 0 {
				t.Errorf("failed call recorded %d commands", cb.Len())
			}
		})
	}

	cb := newBuffer(t, b)
	if err := cb.DrawMeshInstanced(m, 0, mat, 0, nil); err != nil || cb.Len() != 0 {
		t.Errorf("empty DrawMeshInstanced = %v, %d commands", err, cb.Len())
	}

	noInstancing := newBackend(t, func(cfg *config.Config) { cfg.Renderer.Instancing = false })
	cb = newBuffer(t, noInstancing)
	m2, mat2 := newTriangle(t, noInstancing), newMaterial(t, noInstancing)
	if err := cb.DrawMeshInstanced(m2, 0, mat2, 0, matrices(1)); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("DrawMeshInstanced without instancing = %v, want ErrUnsupported", err)
	}
}

func TestRecordedBufferExecutes(t *testing.T) {
	b := newBackend(t, nil)
	m, mat := newTriangle(t, b), newMaterial(t, b)
	cb := newBuffer(t, b, WithName("Forward"))
	temp := material.PropertyToID("_CameraColor")
	target := metadata.NewRenderTargetFromNameID(temp)

	steps := []func() error{
		func() error { return cb.BeginSample("Forward") },
		func() error { return cb.GetTemporaryRT(temp, 16, 16, WithDepthBuffer(24)) },
		func() error { return cb.SetRenderTarget(target) },
		func() error {
			return cb.ClearRenderTarget(metadata.RTClearAll, math.Color{R: 0.2, G: 0.2, B: 0.2, A: 1}, 1, 0)
		},
		func() error { return cb.SetViewport(math.Rect{Width: 16, Height: 16}) },
		func() error { return cb.DrawMesh(m, math.NewMat4Identity(), mat) },
		func() error { return cb.Blit(target, metadata.NewRenderTargetFromBuiltin(metadata.BuiltinCameraTarget)) },
		func() error { return cb.ReleaseTemporaryRT(temp) },
		func() error { return cb.EndSample("Forward") },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d = %v", i, err)
		}
	}
	if len(cb.OpenSamples()) != 0 {
		t.Errorf("open samples = %v", cb.OpenSamples())
	}
	if err := b.Execute(cb.Name(), cb.Commands()); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	stats := b.Stats()
	if stats.DrawCalls != 1 || stats.Blits != 1 || stats.Clears != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReleasedBufferRejectsRecording(t *testing.T) {
	b := newBackend(t, nil)
	cb := newBuffer(t, b)
	if err := cb.DisableScissorRect(); err != nil {
		t.Fatalf("DisableScissorRect() = %v", err)
	}
	cb.Release()
	cb.Release()
	if !cb.IsReleased() || cb.Len() != 0 {
		t.Fatalf("released buffer still holds %d commands", cb.Len())
	}
	if err := cb.DisableScissorRect(); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("record after Release = %v, want ErrInvalidOperation", err)
	}
}

func TestRecordingValidation(t *testing.T) {
	b := newBackend(t, nil)
	cs, err := material.NewComputeShader(b, "Blur", "Main")
	if err != nil {
		t.Fatalf("NewComputeShader() = %v", err)
	}
	camera := metadata.NewRenderTargetFromBuiltin(metadata.BuiltinCameraTarget)

	tests := []struct {
		name   string
		record func(cb *CommandBuffer) error
		want   error
	}{
		{"binding without colors", func(cb *CommandBuffer) error {
			return cb.SetRenderTargetBinding(metadata.RenderTargetBinding{})
		}, core.ErrInvalidArgument},
		{"negative mip", func(cb *CommandBuffer) error {
			return cb.SetRenderTargetWithMip(camera, -1, metadata.CubemapFaceUnknown, 0)
		}, core.ErrInvalidArgument},
		{"temporary rt bad depth bits", func(cb *CommandBuffer) error {
			return cb.GetTemporaryRT(1, 8, 8, WithDepthBuffer(12))
		}, core.ErrInvalidArgument},
		{"temporary rt zero width", func(cb *CommandBuffer) error {
			return cb.GetTemporaryRT(1, 0, 8)
		}, core.ErrInvalidArgument},
		{"blit without source", func(cb *CommandBuffer) error {
			return cb.Blit(metadata.RenderTargetIdentifier{}, camera)
		}, core.ErrInvalidArgument},
		{"copy empty region", func(cb *CommandBuffer) error {
			return cb.CopyTextureRegion(camera, 0, 0, math.RectInt{}, camera, 0, 0, 0, 0)
		}, core.ErrInvalidArgument},
		{"dispatch bad kernel", func(cb *CommandBuffer) error {
			return cb.DispatchCompute(cs, 1, 1, 1, 1)
		}, core.ErrIndexOutOfRange},
		{"dispatch negative groups", func(cb *CommandBuffer) error {
			return cb.DispatchCompute(cs, 0, -1, 1, 1)
		}, core.ErrInvalidArgument},
		{"procedural strip", func(cb *CommandBuffer) error {
			mat := newMaterial(t, b)
			return cb.DrawProcedural(math.NewMat4Identity(), mat, 0, metadata.MeshTopologyTriangleStrip, 3)
		}, core.ErrInvalidArgument},
		{"dispatch", func(cb *CommandBuffer) error {
			return cb.DispatchCompute(cs, 0, 8, 8, 1)
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := newBuffer(t, b)
			if err := tt.record(cb); !errors.Is(err, tt.want) {
				t.Errorf("record = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFences(t *testing.T) {
	b := newBackend(t, nil)

	producer := newBuffer(t, b)
	cpu, err := producer.CreateGraphicsFence(metadata.GraphicsFenceCPUSynchronisation, metadata.SynchronisationStageFlagsAllGPUOperations)
	if err != nil {
		t.Fatalf("CreateGraphicsFence(cpu) = %v", err)
	}
	async, err := producer.CreateAsyncGraphicsFence(metadata.SynchronisationStagePixelProcessing)
	if err != nil {
		t.Fatalf("CreateAsyncGraphicsFence() = %v", err)
	}
	if async.Stages() != metadata.SynchronisationStageFlagsPixelProcessing {
		t.Errorf("Stages() = %d", async.Stages())
	}
	if passed, err := cpu.Passed(); err != nil || passed {
		t.Fatalf("Passed() before execution = %v, %v", passed, err)
	}
	if _, err := async.Passed(); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("Passed() on async fence = %v, want ErrInvalidOperation", err)
	}

	pending := newBuffer(t, b)
	if err := pending.WaitOnAsyncGraphicsFence(async, metadata.SynchronisationStageFlagsVertexProcessing); err != nil {
		t.Fatalf("WaitOnAsyncGraphicsFence() = %v", err)
	}
	if pending.Len() != 1 {
		t.Errorf("pending wait recorded %d commands, want 1", pending.Len())
	}
	if err := pending.WaitOnAsyncGraphicsFence(cpu, metadata.SynchronisationStageFlagsVertexProcessing); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("wait on cpu fence = %v, want ErrInvalidArgument", err)
	}

	if err := b.Execute(producer.Name(), producer.Commands()); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if passed, err := cpu.Passed(); err != nil || !passed {
		t.Errorf("Passed() after execution = %v, %v", passed, err)
	}

	late := newBuffer(t, b)
	if err := late.WaitOnAsyncGraphicsFence(async, metadata.SynchronisationStageFlagsVertexProcessing); err != nil {
		t.Fatalf("WaitOnAsyncGraphicsFence() = %v", err)
	}
	if late.Len() != 0 {
		t.Errorf("wait on passed fence recorded %d commands, want 0", late.Len())
	}

	for _, f := range []*GraphicsFence{cpu, async} {
		if err := f.Release(); err != nil {
			t.Errorf("Release() = %v", err)
		}
		if err := f.Release(); err != nil {
			t.Errorf("second Release() = %v", err)
		}
	}

	if _, err := producer.CreateGraphicsFence(metadata.GraphicsFenceCPUSynchronisation, 0); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("CreateGraphicsFence(no stages) = %v, want ErrInvalidArgument", err)
	}
}

func TestRayTracingAccelerationStructure(t *testing.T) {
	off := newBackend(t, nil)
	if _, err := NewRayTracingAccelerationStructure(off); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("NewRayTracingAccelerationStructure without ray tracing = %v, want ErrUnsupported", err)
	}
	if err := newBuffer(t, off).BuildRayTracingAccelerationStructure(nil, math.Vec3{}); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("BuildRayTracingAccelerationStructure without ray tracing = %v, want ErrUnsupported", err)
	}

	b := newBackend(t, func(cfg *config.Config) { cfg.Renderer.RayTracing = true })
	as, err := NewRayTracingAccelerationStructure(b)
	if err != nil {
		t.Fatalf("NewRayTracingAccelerationStructure() = %v", err)
	}
	m := newTriangle(t, b)
	if _, err := as.AddInstance(m, math.NewMat4Identity(), 0); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("AddInstance(mask 0) = %v, want ErrInvalidArgument", err)
	}
	if _, err := as.AddInstance(nil, math.NewMat4Identity(), 0xFF); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("AddInstance(nil) = %v, want ErrInvalidArgument", err)
	}
	i, err := as.AddInstance(m, math.NewMat4Identity(), 0xFF)
	if err != nil || i != 0 {
		t.Fatalf("AddInstance() = %d, %v", i, err)
	}
	if err := as.Build(math.Vec3{}); err != nil {
		t.Fatalf("Build() = %v", err)
	}

	cb := newBuffer(t, b)
	if err := cb.BuildRayTracingAccelerationStructure(as, math.Vec3{Y: 1}); err != nil {
		t.Fatalf("BuildRayTracingAccelerationStructure() = %v", err)
	}
	if err := b.Execute(cb.Name(), cb.Commands()); err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	if err := as.Release(); err != nil {
		t.Fatalf("Release() = %v", err)
	}
	if err := as.Release(); err != nil {
		t.Errorf("second Release() = %v", err)
	}
	if err := as.Build(math.Vec3{}); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("Build after Release = %v, want ErrInvalidOperation", err)
	}
}
