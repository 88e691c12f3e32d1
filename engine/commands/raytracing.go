package commands

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/mesh"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// RayTracingBackend is what acceleration structures need from the device.
type RayTracingBackend interface {
	Backend
	native.RayTracingBackend
}

/** @brief A top level acceleration structure over mesh instances. */
type RayTracingAccelerationStructure struct {
	backend   RayTracingBackend
	handle    native.Handle
	instances int
	released  bool
}

func NewRayTracingAccelerationStructure(backend RayTracingBackend) (*RayTracingAccelerationStructure, error) {
	if backend == nil {
		return nil, core.InvalidArgument("ray tracing backend is nil")
	}
	if !backend.Features().Has(native.FeatureRayTracing) {
		return nil, core.Unsupported("ray tracing on %s", backend.DeviceName())
	}
	h, err := backend.AccelerationStructureCreate()
	if err != nil {
		return nil, core.NativeFailure("AccelerationStructureCreate", err)
	}
	return &RayTracingAccelerationStructure{backend: backend, handle: h}, nil
}

func (as *RayTracingAccelerationStructure) Handle() native.Handle {
	return as.handle
}

func (as *RayTracingAccelerationStructure) InstanceCount() int {
	return as.instances
}

func (as *RayTracingAccelerationStructure) alive() error {
	if as.released {
		return core.InvalidOperation("acceleration structure %d has been released", as.handle)
	}
	return nil
}

// AddInstance adds m with transform and returns the instance index.
func (as *RayTracingAccelerationStructure) AddInstance(m *mesh.Mesh, transform math.Mat4, mask uint32) (int, error) {
	if err := as.alive(); err != nil {
		return -1, err
	}
	if m == nil || m.IsDestroyed() {
		return -1, core.InvalidArgument("mesh is nil or destroyed")
	}
	if m.VertexCount() == 0 || m.SubMeshCount() == 0 {
		return -1, core.InvalidArgument("mesh %q has no geometry", m.Name)
	}
	if mask == 0 {
		return -1, core.InvalidArgument("instance mask 0 would hide the instance from every ray")
	}
	i, err := as.backend.AccelerationStructureAddInstance(as.handle, m.Handle(), transform, mask)
	if err != nil {
		return -1, core.NativeFailure("AccelerationStructureAddInstance", err)
	}
	as.instances++
	return i, nil
}

// Build rebuilds the structure immediately, relative to origin.
func (as *RayTracingAccelerationStructure) Build(origin math.Vec3) error {
	if err := as.alive(); err != nil {
		return err
	}
	cmd := native.BuildAccelerationStructureCommand{Structure: as.handle, Origin: origin}
	if err := as.backend.Execute("BuildRayTracingAccelerationStructure", []native.Command{cmd}); err != nil {
		return core.NativeFailure("BuildRayTracingAccelerationStructure", err)
	}
	return nil
}

// Release frees the structure. Calling it again does nothing.
func (as *RayTracingAccelerationStructure) Release() error {
	if as == nil || as.released {
		return nil
	}
	as.released = true
	if err := as.backend.AccelerationStructureRelease(as.handle); err != nil {
		return core.NativeFailure("AccelerationStructureRelease", err)
	}
	return nil
}

func (cb *CommandBuffer) BuildRayTracingAccelerationStructure(as *RayTracingAccelerationStructure, origin math.Vec3) error {
	if err := cb.requireFeature(native.FeatureRayTracing, "ray tracing"); err != nil {
		return err
	}
	if as == nil {
		return core.InvalidArgument("acceleration structure is nil")
	}
	if err := as.alive(); err != nil {
		return err
	}
	return cb.record(native.BuildAccelerationStructureCommand{Structure: as.handle, Origin: origin})
}
