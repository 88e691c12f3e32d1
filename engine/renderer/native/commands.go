package native

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Command is one recorded operation handed to CommandBackend.Execute.
type Command interface {
	CommandName() string
}

type ClearRenderTargetCommand struct {
	Flags   metadata.RTClearFlags
	Color   math.Color
	Depth   float32
	Stencil uint32
}

type SetRenderTargetCommand struct {
	Binding metadata.RenderTargetBinding
}

type GetTemporaryRTCommand struct {
	NameID     int32
	Descriptor metadata.RenderTextureDescriptor
	Filter     metadata.FilterMode
}

type ReleaseTemporaryRTCommand struct {
	NameID int32
}

type DrawMeshCommand struct {
	Mesh       Handle
	Matrix     math.Mat4
	Material   Handle
	SubMesh    int
	Pass       int
	Properties map[int32]any
}

type DrawMeshInstancedCommand struct {
	Mesh       Handle
	SubMesh    int
	Material   Handle
	Pass       int
	Matrices   []math.Mat4
	Properties map[int32]any
}

type DrawProceduralCommand struct {
	Matrix        math.Mat4
	Material      Handle
	Pass          int
	Topology      metadata.MeshTopology
	VertexCount   int
	InstanceCount int
}

// DrawImmediateCommand carries vertices built through the GL immediate mode API.
type DrawImmediateCommand struct {
	Mode      int
	Vertices  []math.Vec3
	Colors    []math.Color
	TexCoords []math.Vec3
	Matrix    math.Mat4
	Material  Handle
}

type BlitCommand struct {
	Source           metadata.RenderTargetIdentifier
	Dest             metadata.RenderTargetIdentifier
	Material         Handle
	Pass             int
	Scale            math.Vec2
	Offset           math.Vec2
	SourceDepthSlice int
	DestDepthSlice   int
}

// CopyTextureCommand copies every element and mip when WholeTexture is set,
// otherwise SrcRegion of one element and mip to (DstX, DstY). An empty
// SrcRegion selects the whole mip.
type CopyTextureCommand struct {
	Source       metadata.RenderTargetIdentifier
	Dest         metadata.RenderTargetIdentifier
	SrcElement   int
	SrcMip       int
	DstElement   int
	DstMip       int
	WholeTexture bool
	SrcRegion    math.RectInt
	DstX         int
	DstY         int
}

type ConvertTextureCommand struct {
	Source     Handle
	SrcElement int
	Dest       Handle
	DstElement int
}

type SetViewportCommand struct {
	Rect math.Rect
}

type ScissorCommand struct {
	Enabled bool
	Rect    math.Rect
}

type SetViewProjectionCommand struct {
	View       math.Mat4
	Projection math.Mat4
}

// SetGlobalCommand assigns a global shader property. Value is one of
// float32, math.Vec4, math.Mat4, int32 or metadata.RenderTargetIdentifier.
type SetGlobalCommand struct {
	NameID int32
	Value  any
}

type DispatchComputeCommand struct {
	Shader  Handle
	Kernel  int
	GroupsX int
	GroupsY int
	GroupsZ int
}

type SetComputeParamCommand struct {
	Shader Handle
	Kernel int
	NameID int32
	Value  any
}

type SampleCommand struct {
	Name  string
	Begin bool
}

type CreateFenceCommand struct {
	Fence  Handle
	Stages metadata.SynchronisationStageFlags
}

type WaitFenceCommand struct {
	Fence  Handle
	Stages metadata.SynchronisationStageFlags
}

type BuildAccelerationStructureCommand struct {
	Structure Handle
	Origin    math.Vec3
}

func (ClearRenderTargetCommand) CommandName() string { return "ClearRenderTarget" }
func (SetRenderTargetCommand) CommandName() string { return "SetRenderTarget" }
func (GetTemporaryRTCommand) CommandName() string { return "GetTemporaryRT" }
func (ReleaseTemporaryRTCommand) CommandName() string { return "ReleaseTemporaryRT" }
func (DrawMeshCommand) CommandName() string { return "DrawMesh" }
func (DrawMeshInstancedCommand) CommandName() string { return "DrawMeshInstanced" }
func (DrawProceduralCommand) CommandName() string { return "DrawProcedural" }
func (DrawImmediateCommand) CommandName() string { return "DrawImmediate" }
func (BlitCommand) CommandName() string { return "Blit" }
func (CopyTextureCommand) CommandName() string { return "CopyTexture" }
func (ConvertTextureCommand) CommandName() string { return "ConvertTexture" }
func (SetViewportCommand) CommandName() string { return "SetViewport" }
func (ScissorCommand) CommandName() string { return "Scissor" }
func (SetViewProjectionCommand) CommandName() string { return "SetViewProjectionMatrices" }
func (SetGlobalCommand) CommandName() string { return "SetGlobal" }
func (DispatchComputeCommand) CommandName() string { return "DispatchCompute" }
func (SetComputeParamCommand) CommandName() string { return "SetComputeParam" }
func (SampleCommand) CommandName() string { return "Sample" }
func (CreateFenceCommand) CommandName() string { return "CreateGraphicsFence" }
func (WaitFenceCommand) CommandName() string { return "WaitOnGraphicsFence" }
func (BuildAccelerationStructureCommand) CommandName() string { return "BuildRayTracingAccelerationStructure" }

// AsyncComputeAllowed reports whether cmd may be recorded into a buffer
// flagged for async compute execution.
func AsyncComputeAllowed(cmd Command) bool {
	switch cmd.(type) {
	case DispatchComputeCommand, SetComputeParamCommand, SetGlobalCommand,
		CreateFenceCommand, WaitFenceCommand, SampleCommand,
		GetTemporaryRTCommand, ReleaseTemporaryRTCommand,
		BuildAccelerationStructureCommand:
		return true
	}
	return false
}

// Describe renders a command for logs and the CLI.
func Describe(cmd Command) string {
	switch c := cmd.(type) {
	case DrawMeshCommand:
		return fmt.Sprintf("%s mesh=%d submesh=%d material=%d pass=%d", c.CommandName(), c.Mesh, c.SubMesh, c.Material, c.Pass)
	case DrawMeshInstancedCommand:
		return fmt.Sprintf("%s mesh=%d submesh=%d instances=%d", c.CommandName(), c.Mesh, c.SubMesh, len(c.Matrices))
	case GetTemporaryRTCommand:
		return fmt.Sprintf("%s id=%d %dx%d %s", c.CommandName(), c.NameID, c.Descriptor.Width, c.Descriptor.Height, c.Descriptor.GraphicsFormat)
	case BlitCommand:
		return fmt.Sprintf("%s %s -> %s", c.CommandName(), c.Source, c.Dest)
	case DispatchComputeCommand:
		return fmt.Sprintf("%s kernel=%d groups=%dx%dx%d", c.CommandName(), c.Kernel, c.GroupsX, c.GroupsY, c.GroupsZ)
	}
	return cmd.CommandName()
}
