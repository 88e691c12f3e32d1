package software

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

type materialObject struct {
	shader string
	props  map[int32]any
}

type computeShaderObject struct {
	name    string
	kernels []string
	params  map[int32]any
}

type fenceObject struct {
	fenceType metadata.GraphicsFenceType
	stages    metadata.SynchronisationStageFlags
	done      chan struct{}
	signaled  bool
}

type accelerationInstance struct {
	mesh      native.Handle
	transform math.Mat4
	mask      uint32
}

type accelerationStructure struct {
	instances []accelerationInstance
	origin    math.Vec3
	builds    int
}

func (b *Backend) MaterialCreate(shader string) (native.Handle, error) {
	if shader == "" {
		return native.InvalidHandle, core.InvalidArgument("material needs a shader name")
	}
	m := &materialObject{shader: shader, props: make(map[int32]any)}
	return toHandle(b.materials.Acquire(m)), nil
}

func (b *Backend) MaterialDestroy(h native.Handle) error {
	id, err := fromHandle(h)
	if err != nil {
		return err
	}
	return b.materials.Release(id)
}

func (b *Backend) material(h native.Handle) (*materialObject, error) {
	id, err := fromHandle(h)
	if err != nil {
		return nil, err
	}
	m, ok := b.materials.Get(id)
	if !ok {
		return nil, fmt.Errorf("material %d does not exist", h)
	}
	return m, nil
}

func (b *Backend) MaterialSetProperty(h native.Handle, nameID int32, value any) error {
	m, err := b.material(h)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	m.props[nameID] = value
	return nil
}

// MaterialProperty returns a value previously set on h.
func (b *Backend) MaterialProperty(h native.Handle, nameID int32) (any, bool) {
	m, err := b.material(h)
	if err != nil {
		return nil, false
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	v, ok := m.props[nameID]
	return v, ok
}

func (b *Backend) ComputeShaderCreate(name string, kernels []string) (native.Handle, error) {
	if !b.Features().Has(native.FeatureComputeShaders) {
		return native.InvalidHandle, core.Unsupported("compute shaders on %s", b.DeviceName())
	}
	if len(kernels) == 0 {
		return native.InvalidHandle, core.InvalidArgument("compute shader %q declares no kernels", name)
	}
	cs := &computeShaderObject{
		name:    name,
		kernels: append([]string(nil), kernels...),
		params:  make(map[int32]any),
	}
	return toHandle(b.computes.Acquire(cs)), nil
}

func (b *Backend) ComputeShaderDestroy(h native.Handle) error {
	id, err := fromHandle(h)
	if err != nil {
		return err
	}
	return b.computes.Release(id)
}

func (b *Backend) computeShader(h native.Handle) (*computeShaderObject, error) {
	id, err := fromHandle(h)
	if err != nil {
		return nil, err
	}
	cs, ok := b.computes.Get(id)
	if !ok {
		return nil, fmt.Errorf("compute shader %d does not exist", h)
	}
	return cs, nil
}

func (b *Backend) FenceCreate(fenceType metadata.GraphicsFenceType, stages metadata.SynchronisationStageFlags) (native.Handle, error) {
	if !b.Features().Has(native.FeatureGraphicsFence) {
		return native.InvalidHandle, core.Unsupported("graphics fences on %s", b.DeviceName())
	}
	f := &fenceObject{fenceType: fenceType, stages: stages, done: make(chan struct{})}
	return toHandle(b.fences.Acquire(f)), nil
}

func (b *Backend) fence(h native.Handle) (*fenceObject, error) {
	id, err := fromHandle(h)
	if err != nil {
		return nil, err
	}
	f, ok := b.fences.Get(id)
	if !ok {
		return nil, fmt.Errorf("fence %d does not exist", h)
	}
	return f, nil
}

func (b *Backend) FencePassed(h native.Handle) (bool, error) {
	f, err := b.fence(h)
	if err != nil {
		return false, err
	}
	select {
	case <-f.done:
		return true, nil
	default:
		return false, nil
	}
}

func (b *Backend) FenceRelease(h native.Handle) error {
	id, err := fromHandle(h)
	if err != nil {
		return err
	}
	return b.fences.Release(id)
}

// signalFence is called with the backend mutex held.
func (b *Backend) signalFence(h native.Handle) error {
	f, err := b.fence(h)
	if err != nil {
		return err
	}
	if !f.signaled {
		f.signaled = true
		close(f.done)
	}
	return nil
}

// waitFence blocks without holding the backend mutex so the producing queue can run.
func (b *Backend) waitFence(h native.Handle) error {
	f, err := b.fence(h)
	if err != nil {
		return err
	}
	select {
	case <-f.done:
		return nil
	case <-time.After(fenceWaitTimeout):
		return fmt.Errorf("fence %d was not signaled within %s", h, fenceWaitTimeout)
	}
}

func (b *Backend) AccelerationStructureCreate() (native.Handle, error) {
	if !b.Features().Has(native.FeatureRayTracing) {
		return native.InvalidHandle, core.Unsupported("ray tracing on %s", b.DeviceName())
	}
	return toHandle(b.structures.Acquire(&accelerationStructure{})), nil
}

func (b *Backend) accelerationStructure(h native.Handle) (*accelerationStructure, error) {
	id, err := fromHandle(h)
	if err != nil {
		return nil, err
	}
	as, ok := b.structures.Get(id)
	if !ok {
		return nil, fmt.Errorf("acceleration structure %d does not exist", h)
	}
	return as, nil
}

// AccelerationStructureAddInstance returns the index of the new instance.
func (b *Backend) AccelerationStructureAddInstance(h native.Handle, mesh native.Handle, transform math.Mat4, mask uint32) (int, error) {
	as, err := b.accelerationStructure(h)
	if err != nil {
		return -1, err
	}
	if _, err := b.mesh(mesh); err != nil {
		return -1, err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	as.instances = append(as.instances, accelerationInstance{mesh: mesh, transform: transform, mask: mask})
	return len(as.instances) - 1, nil
}

func (b *Backend) AccelerationStructureRelease(h native.Handle) error {
	id, err := fromHandle(h)
	if err != nil {
		return err
	}
	return b.structures.Release(id)
}

func (b *Backend) buildAccelerationStructure(h native.Handle, origin math.Vec3) error {
	as, err := b.accelerationStructure(h)
	if err != nil {
		return err
	}
	for _, inst := range as.instances {
		if _, err := b.mesh(inst.mesh); err != nil {
			return fmt.Errorf("instance references a destroyed mesh: %w", err)
		}
	}
	as.origin = origin
	as.builds++
	return nil
}
