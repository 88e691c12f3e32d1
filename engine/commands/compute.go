package commands

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// maxThreadGroups is the per-dimension dispatch limit.
const maxThreadGroups = 65535

func (cb *CommandBuffer) SetGlobalFloat(nameID int32, v float32) error {
	return cb.record(native.SetGlobalCommand{NameID: nameID, Value: v})
}

func (cb *CommandBuffer) SetGlobalInt(nameID int32, v int32) error {
	return cb.record(native.SetGlobalCommand{NameID: nameID, Value: v})
}

func (cb *CommandBuffer) SetGlobalVector(nameID int32, v math.Vec4) error {
	return cb.record(native.SetGlobalCommand{NameID: nameID, Value: v})
}

func (cb *CommandBuffer) SetGlobalMatrix(nameID int32, v math.Mat4) error {
	return cb.record(native.SetGlobalCommand{NameID: nameID, Value: v})
}

// SetGlobalTexture binds rt to a global texture property.
func (cb *CommandBuffer) SetGlobalTexture(nameID int32, rt metadata.RenderTargetIdentifier) error {
	if rt.IsNone() {
		return core.InvalidArgument("global texture %d needs a texture", nameID)
	}
	return cb.record(native.SetGlobalCommand{NameID: nameID, Value: rt})
}

func checkComputeShader(cs *material.ComputeShader) error {
	if cs == nil {
		return core.InvalidArgument("compute shader is nil")
	}
	return nil
}

// DispatchCompute runs kernel of cs over groupsX*groupsY*groupsZ thread groups.
func (cb *CommandBuffer) DispatchCompute(cs *material.ComputeShader, kernel, groupsX, groupsY, groupsZ int) error {
	if err := cb.requireFeature(native.FeatureComputeShaders, "compute shaders"); err != nil {
		return err
	}
	if err := checkComputeShader(cs); err != nil {
		return err
	}
	if err := cs.CheckKernel(kernel); err != nil {
		return err
	}
	for _, n := range []int{groupsX, groupsY, groupsZ} {
		if n < 0 || n > maxThreadGroups {
			return core.InvalidArgument("thread group count %d out of range [0, %d]", n, maxThreadGroups)
		}
	}
	return cb.record(native.DispatchComputeCommand{
		Shader:  cs.Handle(),
		Kernel:  kernel,
		GroupsX: groupsX,
		GroupsY: groupsY,
		GroupsZ: groupsZ,
	})
}

// setComputeParam records a parameter shared by every kernel when kernel is -1.
func (cb *CommandBuffer) setComputeParam(cs *material.ComputeShader, kernel int, nameID int32, value any) error {
	if err := checkComputeShader(cs); err != nil {
		return err
	}
	if kernel != -1 {
		if err := cs.CheckKernel(kernel); err != nil {
			return err
		}
	}
	return cb.record(native.SetComputeParamCommand{Shader: cs.Handle(), Kernel: kernel, NameID: nameID, Value: value})
}

func (cb *CommandBuffer) SetComputeFloatParam(cs *material.ComputeShader, nameID int32, v float32) error {
	return cb.setComputeParam(cs, -1, nameID, v)
}

func (cb *CommandBuffer) SetComputeIntParam(cs *material.ComputeShader, nameID int32, v int32) error {
	return cb.setComputeParam(cs, -1, nameID, v)
}

func (cb *CommandBuffer) SetComputeVectorParam(cs *material.ComputeShader, nameID int32, v math.Vec4) error {
	return cb.setComputeParam(cs, -1, nameID, v)
}

func (cb *CommandBuffer) SetComputeMatrixParam(cs *material.ComputeShader, nameID int32, v math.Mat4) error {
	return cb.setComputeParam(cs, -1, nameID, v)
}

// SetComputeTextureParam binds rt for one kernel.
func (cb *CommandBuffer) SetComputeTextureParam(cs *material.ComputeShader, kernel int, nameID int32, rt metadata.RenderTargetIdentifier) error {
	if rt.IsNone() {
		return core.InvalidArgument("compute texture %d needs a texture", nameID)
	}
	return cb.setComputeParam(cs, kernel, nameID, rt)
}

// BeginSample opens a named profiling region.
func (cb *CommandBuffer) BeginSample(name string) error {
	if name == "" {
		return core.InvalidArgument("sample name is empty")
	}
	if err := cb.record(native.SampleCommand{Name: name, Begin: true}); err != nil {
		return err
	}
	cb.samples = append(cb.samples, name)
	return nil
}

// EndSample closes the region opened by BeginSample(name). A mismatched
// name is recorded anyway and logged.
func (cb *CommandBuffer) EndSample(name string) error {
	if err := cb.record(native.SampleCommand{Name: name}); err != nil {
		return err
	}
	n := len(cb.samples)
	if n == 0 || cb.samples[n-1] != name {
		core.LogWarn("command buffer %q: EndSample(%q) does not match the open sample", cb.name, name)
		if n == 0 {
			return nil
		}
	}
	cb.samples = cb.samples[:n-1]
	return nil
}
