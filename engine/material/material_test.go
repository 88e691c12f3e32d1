package material

import (
	"errors"
	"sync"
	"testing"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
	"github.com/spaghettifunk/lumen/engine/renderer/software"
)

func newBackend(t *testing.T) *software.Backend {
	t.Helper()
	b, err := software.New(config.Default())
	if err != nil {
		t.Fatalf("software.New() = %v", err)
	}
	t.Cleanup(func() { _ = b.Shutdown() })
	return b
}

type fakeTexture native.Handle

func (f fakeTexture) Handle() native.Handle { return native.Handle(f) }

func TestPropertyToIDIsStable(t *testing.T) {
	a := PropertyToID("_MainTex")
	if a == 0 {
		t.Fatal("PropertyToID returned zero")
	}
	if b := PropertyToID("_MainTex"); b != a {
		t.Errorf("second PropertyToID = %d, want %d", b, a)
	}
	if c := PropertyToID("_Color"); c == a {
		t.Errorf("distinct names share id %d", a)
	}
	name, ok := PropertyName(a)
	if !ok || name != "_MainTex" {
		t.Errorf("PropertyName(%d) = %q, %v", a, name, ok)
	}
	if _, ok := PropertyName(-1); ok {
		t.Error("PropertyName(-1) reported a name")
	}
}

func TestPropertyToIDConcurrent(t *testing.T) {
	const workers = 8
	ids := make([]int32, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = PropertyToID("_Concurrent")
		}(i)
	}
	wg.Wait()
	for i, id := range ids {
		if id != ids[0] {
			t.Fatalf("worker %d got id %d, want %d", i, id, ids[0])
		}
	}
}

func TestMaterialProperties(t *testing.T) {
	b := newBackend(t)
	m, err := New(b, "Unlit/Color")
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := m.SetFloat("_Cutoff", 0.5); err != nil {
		t.Fatalf("SetFloat() = %v", err)
	}
	if err := m.SetColor("_Color", math.Color{R: 1, G: 0.5, B: 0, A: 1}); err != nil {
		t.Fatalf("SetColor() = %v", err)
	}
	if err := m.SetTexture("_MainTex", fakeTexture(7)); err != nil {
		t.Fatalf("SetTexture() = %v", err)
	}

	if v, ok := m.GetFloat("_Cutoff"); !ok || v != 0.5 {
		t.Errorf("GetFloat() = %v, %v", v, ok)
	}
	if v, ok := m.GetVector("_Color"); !ok || v.Y != 0.5 {
		t.Errorf("GetVector() = %v, %v", v, ok)
	}
	if h, ok := m.GetTexture("_MainTex"); !ok || h != 7 {
		t.Errorf("GetTexture() = %v, %v", h, ok)
	}
	if v, ok := b.MaterialProperty(m.Handle(), PropertyToID("_Cutoff")); !ok || v != float32(0.5) {
		t.Errorf("native property = %v, %v", v, ok)
	}
	if _, ok := m.GetFloat("_Color"); ok {
		t.Error("GetFloat on a vector property succeeded")
	}
}

func TestMaterialErrors(t *testing.T) {
	b := newBackend(t)
	if _, err := New(b, ""); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("New(\"\") = %v, want ErrInvalidArgument", err)
	}
	if _, err := New(nil, "Unlit"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("New(nil) = %v, want ErrInvalidArgument", err)
	}

	m, err := New(b, "Unlit")
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := m.SetTexture("_MainTex", fakeTexture(native.InvalidHandle)); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("SetTexture(invalid) = %v, want ErrInvalidArgument", err)
	}
	if err := m.set(PropertyToID("_Bad"), "text"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("set(string) = %v, want ErrInvalidArgument", err)
	}
	if err := m.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	if err := m.Destroy(); err != nil {
		t.Errorf("second Destroy() = %v", err)
	}
	if err := m.SetFloat("_Cutoff", 1); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("SetFloat after Destroy = %v, want ErrInvalidOperation", err)
	}
}

func TestPropertyBlock(t *testing.T) {
	var block PropertyBlock
	if !block.IsEmpty() || block.Snapshot() != nil {
		t.Fatal("zero block is not empty")
	}
	if err := block.SetFloat("_Glossiness", 0.25); err != nil {
		t.Fatalf("SetFloat() = %v", err)
	}
	snap := block.Snapshot()
	if err := block.SetFloat("_Glossiness", 1); err != nil {
		t.Fatalf("SetFloat() = %v", err)
	}
	if got := snap[PropertyToID("_Glossiness")]; got != float32(0.25) {
		t.Errorf("snapshot changed to %v after a later write", got)
	}
	block.Clear()
	if !block.IsEmpty() {
		t.Error("Clear left values behind")
	}
}

func TestComputeShader(t *testing.T) {
	b := newBackend(t)
	cs, err := NewComputeShader(b, "Blur", "Horizontal", "Vertical")
	if err != nil {
		t.Fatalf("NewComputeShader() = %v", err)
	}
	k, err := cs.FindKernel("Vertical")
	if err != nil || k != 1 {
		t.Errorf("FindKernel(Vertical) = %d, %v", k, err)
	}
	if _, err := cs.FindKernel("Missing"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("FindKernel(Missing) = %v, want ErrInvalidArgument", err)
	}
	if err := cs.CheckKernel(2); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Errorf("CheckKernel(2) = %v, want ErrIndexOutOfRange", err)
	}

	tests := []struct {
		name    string
		kernels []string
		want    error
	}{
		{"no kernels", nil, core.ErrInvalidArgument},
		{"empty kernel", []string{""}, core.ErrInvalidArgument},
		{"duplicate kernel", []string{"Main", "Main"}, core.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewComputeShader(b, "Bad", tt.kernels...); !errors.Is(err, tt.want) {
				t.Errorf("NewComputeShader() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestComputeShaderUnsupported(t *testing.T) {
	b := newBackend(t)
	b.Capabilities.(*software.TableCapabilities).SetFeature(native.FeatureComputeShaders, false)
	if _, err := NewComputeShader(b, "Blur", "Main"); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("NewComputeShader() = %v, want ErrUnsupported", err)
	}
}
