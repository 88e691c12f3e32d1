package commands

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/mesh"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// AllPasses draws every pass of the material's shader.
const AllPasses = -1

type drawSettings struct {
	subMesh       int
	pass          int
	instanceCount int
	properties    *material.PropertyBlock
}

func defaultDrawSettings() drawSettings {
	return drawSettings{subMesh: 0, pass: AllPasses, instanceCount: 1}
}

type DrawOption func(*drawSettings)

// WithSubMesh selects the submesh to draw. Default 0.
func WithSubMesh(index int) DrawOption {
	return func(s *drawSettings) {
		s.subMesh = index
	}
}

// WithPass selects one shader pass. Default AllPasses.
func WithPass(pass int) DrawOption {
	return func(s *drawSettings) {
		s.pass = pass
	}
}

// WithProperties applies per-draw overrides on top of the material.
func WithProperties(block *material.PropertyBlock) DrawOption {
	return func(s *drawSettings) {
		s.properties = block
	}
}

// WithInstanceCount sets the instance count of DrawProcedural. Default 1.
func WithInstanceCount(count int) DrawOption {
	return func(s *drawSettings) {
		s.instanceCount = count
	}
}

// SubMeshOf returns the submesh index the options select.
func SubMeshOf(opts ...DrawOption) int {
	return resolveDraw(opts).subMesh
}

func resolveDraw(opts []DrawOption) drawSettings {
	s := defaultDrawSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func checkMeshAndMaterial(m *mesh.Mesh, mat *material.Material) error {
	if m == nil || m.IsDestroyed() {
		return core.InvalidArgument("mesh is nil or destroyed")
	}
	if mat == nil || mat.IsDestroyed() {
		return core.InvalidArgument("material is nil or destroyed")
	}
	return nil
}

func checkPass(pass int) error {
	if pass < AllPasses {
		return core.InvalidArgument("shader pass %d is invalid, use AllPasses or a pass index", pass)
	}
	return nil
}

/**
 * @brief Records a mesh draw. An out of range submesh index is clamped to
 * the mesh's submeshes and a warning is logged; every other argument error
 * fails.
 */
func (cb *CommandBuffer) DrawMesh(m *mesh.Mesh, matrix math.Mat4, mat *material.Material, opts ...DrawOption) error {
	if err := checkMeshAndMaterial(m, mat); err != nil {
		return err
	}
	s := resolveDraw(opts)
	if err := checkPass(s.pass); err != nil {
		return err
	}
	count := m.SubMeshCount()
	if count == 0 {
		return core.InvalidArgument("mesh %q has no submeshes", m.Name)
	}
	if s.subMesh < 0 || s.subMesh >= count {
		s.subMesh = math.Clamp(s.subMesh, 0, count-1)
		core.LogWarn("submeshIndex out of range. Clamped to %d.", s.subMesh)
	}
	return cb.record(native.DrawMeshCommand{
		Mesh:       m.Handle(),
		Matrix:     matrix,
		Material:   mat.Handle(),
		SubMesh:    s.subMesh,
		Pass:       s.pass,
		Properties: s.properties.Snapshot(),
	})
}

// DrawMeshInstanced records one draw of up to MaxInstancesPerDraw copies.
// Nothing is recorded for an empty matrix list.
func (cb *CommandBuffer) DrawMeshInstanced(m *mesh.Mesh, subMesh int, mat *material.Material, pass int, matrices []math.Mat4, opts ...DrawOption) error {
	if err := cb.requireFeature(native.FeatureInstancing, "DrawMeshInstanced"); err != nil {
		return err
	}
	if err := checkMeshAndMaterial(m, mat); err != nil {
		return err
	}
	if subMesh < 0 || subMesh >= m.SubMeshCount() {
		return core.IndexOutOfRange("submeshIndex %d out of range [0, %d)", subMesh, m.SubMeshCount())
	}
	if err := checkPass(pass); err != nil {
		return err
	}
	if len(matrices) > metadata.MaxInstancesPerDraw {
		return core.InvalidArgument("count must be in the range of 0 to %d, got %d", metadata.MaxInstancesPerDraw, len(matrices))
	}
	if len(matrices) == 0 {
		return nil
	}
	s := resolveDraw(opts)
	return cb.record(native.DrawMeshInstancedCommand{
		Mesh:       m.Handle(),
		SubMesh:    subMesh,
		Material:   mat.Handle(),
		Pass:       pass,
		Matrices:   append([]math.Mat4(nil), matrices...),
		Properties: s.properties.Snapshot(),
	})
}

// DrawProcedural draws vertexCount vertices without a mesh; the shader
// synthesises positions from the vertex id.
func (cb *CommandBuffer) DrawProcedural(matrix math.Mat4, mat *material.Material, pass int, topology metadata.MeshTopology, vertexCount int, opts ...DrawOption) error {
	if mat == nil || mat.IsDestroyed() {
		return core.InvalidArgument("material is nil or destroyed")
	}
	if err := checkPass(pass); err != nil {
		return err
	}
	if topology < metadata.MeshTopologyTriangles || topology > metadata.MeshTopologyPoints || topology == metadata.MeshTopologyTriangleStrip {
		return core.InvalidArgument("unsupported topology %s", topology)
	}
	if vertexCount < 0 {
		return core.InvalidArgument("vertexCount must be non-negative, got %d", vertexCount)
	}
	s := resolveDraw(opts)
	if s.instanceCount < 1 {
		return core.InvalidArgument("instanceCount must be positive, got %d", s.instanceCount)
	}
	return cb.record(native.DrawProceduralCommand{
		Matrix:        matrix,
		Material:      mat.Handle(),
		Pass:          pass,
		Topology:      topology,
		VertexCount:   vertexCount,
		InstanceCount: s.instanceCount,
	})
}
