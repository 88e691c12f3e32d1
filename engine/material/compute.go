package material

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/** @brief A compute program with named kernels addressed by index. */
type ComputeShader struct {
	Name string

	backend   Backend
	handle    native.Handle
	kernels   []string
	lookup    map[string]int
	destroyed bool
}

func NewComputeShader(backend Backend, name string, kernels ...string) (*ComputeShader, error) {
	if backend == nil {
		return nil, core.InvalidArgument("compute shader backend is nil")
	}
	if !backend.Features().Has(native.FeatureComputeShaders) {
		return nil, core.Unsupported("compute shaders on %s", backend.DeviceName())
	}
	if len(kernels) == 0 {
		return nil, core.InvalidArgument("compute shader %q declares no kernels", name)
	}
	lookup := make(map[string]int, len(kernels))
	for i, k := range kernels {
		if k == "" {
			return nil, core.InvalidArgument("compute shader %q kernel %d has no name", name, i)
		}
		if _, dup := lookup[k]; dup {
			return nil, core.InvalidArgument("compute shader %q declares kernel %q twice", name, k)
		}
		lookup[k] = i
	}
	h, err := backend.ComputeShaderCreate(name, kernels)
	if err != nil {
		return nil, core.NativeFailure("ComputeShaderCreate", err)
	}
	return &ComputeShader{
		Name:    name,
		backend: backend,
		handle:  h,
		kernels: append([]string(nil), kernels...),
		lookup:  lookup,
	}, nil
}

func (cs *ComputeShader) Handle() native.Handle {
	if cs == nil {
		return native.InvalidHandle
	}
	return cs.handle
}

// FindKernel returns the index of the kernel called name.
func (cs *ComputeShader) FindKernel(name string) (int, error) {
	i, ok := cs.lookup[name]
	if !ok {
		return -1, core.InvalidArgument("kernel %q not found in compute shader %q", name, cs.Name)
	}
	return i, nil
}

func (cs *ComputeShader) HasKernel(name string) bool {
	_, ok := cs.lookup[name]
	return ok
}

func (cs *ComputeShader) KernelCount() int {
	return len(cs.kernels)
}

// CheckKernel validates a kernel index before it is recorded for dispatch.
func (cs *ComputeShader) CheckKernel(kernel int) error {
	if cs.destroyed {
		return core.InvalidOperation("compute shader %q has been destroyed", cs.Name)
	}
	if kernel < 0 || kernel >= len(cs.kernels) {
		return core.IndexOutOfRange("kernel index %d out of range [0, %d)", kernel, len(cs.kernels))
	}
	return nil
}

func (cs *ComputeShader) Destroy() error {
	if cs == nil || cs.destroyed {
		return nil
	}
	cs.destroyed = true
	if err := cs.backend.ComputeShaderDestroy(cs.handle); err != nil {
		return core.NativeFailure("ComputeShaderDestroy", err)
	}
	return nil
}
