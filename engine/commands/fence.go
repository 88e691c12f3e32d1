package commands

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief A point in the GPU command stream. It passes once every command
 * recorded before it, up to its synchronisation stages, has retired.
 */
type GraphicsFence struct {
	backend   native.CommandBackend
	handle    native.Handle
	fenceType metadata.GraphicsFenceType
	stages    metadata.SynchronisationStageFlags
	released  bool
}

// NewGraphicsFence allocates the native fence. Recording it into a command
// stream is up to the caller.
func NewGraphicsFence(backend Backend, fenceType metadata.GraphicsFenceType, stages metadata.SynchronisationStageFlags) (*GraphicsFence, error) {
	if backend == nil {
		return nil, core.InvalidArgument("fence backend is nil")
	}
	if !backend.Features().Has(native.FeatureGraphicsFence) {
		return nil, core.Unsupported("graphics fences on %s", backend.DeviceName())
	}
	if fenceType != metadata.GraphicsFenceAsyncQueueSynchronisation && fenceType != metadata.GraphicsFenceCPUSynchronisation {
		return nil, core.InvalidArgument("unknown fence type %d", fenceType)
	}
	if !stages.IsValid() {
		return nil, core.InvalidArgument("invalid synchronisation stage flags %d", stages)
	}
	h, err := backend.FenceCreate(fenceType, stages)
	if err != nil {
		return nil, core.NativeFailure("FenceCreate", err)
	}
	return &GraphicsFence{backend: backend, handle: h, fenceType: fenceType, stages: stages}, nil
}

func (f *GraphicsFence) Handle() native.Handle {
	return f.handle
}

func (f *GraphicsFence) Type() metadata.GraphicsFenceType {
	return f.fenceType
}

func (f *GraphicsFence) Stages() metadata.SynchronisationStageFlags {
	return f.stages
}

// Passed is only available on CPU synchronisation fences.
func (f *GraphicsFence) Passed() (bool, error) {
	if f.fenceType != metadata.GraphicsFenceCPUSynchronisation {
		return false, core.InvalidOperation("Passed is only available on fences created with CPUSynchronisation")
	}
	return f.passed()
}

func (f *GraphicsFence) passed() (bool, error) {
	if f.released {
		return false, core.InvalidOperation("fence %d has been released", f.handle)
	}
	ok, err := f.backend.FencePassed(f.handle)
	if err != nil {
		return false, core.NativeFailure("FencePassed", err)
	}
	return ok, nil
}

// Release frees the native fence. Calling it again does nothing.
func (f *GraphicsFence) Release() error {
	if f == nil || f.released {
		return nil
	}
	f.released = true
	if err := f.backend.FenceRelease(f.handle); err != nil {
		return core.NativeFailure("FenceRelease", err)
	}
	return nil
}

// CreateGraphicsFence records a fence that passes once stages of the
// preceding commands have completed.
func (cb *CommandBuffer) CreateGraphicsFence(fenceType metadata.GraphicsFenceType, stages metadata.SynchronisationStageFlags) (*GraphicsFence, error) {
	if err := cb.validate(native.CreateFenceCommand{}); err != nil {
		return nil, err
	}
	f, err := NewGraphicsFence(cb.backend, fenceType, stages)
	if err != nil {
		return nil, err
	}
	if err := cb.record(native.CreateFenceCommand{Fence: f.handle, Stages: stages}); err != nil {
		_ = f.Release()
		return nil, err
	}
	return f, nil
}

// CreateAsyncGraphicsFence is CreateGraphicsFence for queue synchronisation
// at a legacy stage.
func (cb *CommandBuffer) CreateAsyncGraphicsFence(stage metadata.SynchronisationStage) (*GraphicsFence, error) {
	return cb.CreateGraphicsFence(metadata.GraphicsFenceAsyncQueueSynchronisation, stage.StageFlags())
}

/**
 * @brief Makes later commands wait until fence passes. A fence that has
 * already passed is not waited on again.
 */
func (cb *CommandBuffer) WaitOnAsyncGraphicsFence(fence *GraphicsFence, stages metadata.SynchronisationStageFlags) error {
	if fence == nil {
		return core.InvalidArgument("fence is nil")
	}
	if fence.fenceType != metadata.GraphicsFenceAsyncQueueSynchronisation {
		return core.InvalidArgument("cannot wait on a fence created with CPUSynchronisation")
	}
	if !stages.IsValid() {
		return core.InvalidArgument("invalid synchronisation stage flags %d", stages)
	}
	cmd := native.WaitFenceCommand{Fence: fence.handle, Stages: stages}
	if err := cb.validate(cmd); err != nil {
		return err
	}
	passed, err := fence.passed()
	if err != nil {
		return err
	}
	if passed {
		core.LogWarn("command buffer %q: fence %d already passed, wait skipped", cb.name, fence.handle)
		return nil
	}
	return cb.record(cmd)
}
