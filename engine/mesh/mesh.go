package mesh

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief A mesh owned by the native backend. The wrapper keeps only the
 * handle; every accessor validates its arguments and then reads or writes
 * the backend's MeshBuffers.
 */
type Mesh struct {
	Name string

	backend   native.MeshBackend
	handle    native.Handle
	destroyed bool
}

// New creates an empty, readable mesh with one submesh.
func New(backend native.MeshBackend) (*Mesh, error) {
	if backend == nil {
		return nil, core.InvalidArgument("mesh backend is nil")
	}
	h, err := backend.MeshCreate()
	if err != nil {
		return nil, core.NativeFailure("MeshCreate", err)
	}
	return &Mesh{backend: backend, handle: h}, nil
}

func (m *Mesh) Handle() native.Handle {
	return m.handle
}

/**
 * @brief Releases the native mesh. Calling Destroy again does nothing.
 * Any other call on a destroyed mesh fails with ErrInvalidOperation.
 */
func (m *Mesh) Destroy() error {
	if m == nil || m.destroyed {
		return nil
	}
	m.destroyed = true
	if err := m.backend.MeshDestroy(m.handle); err != nil {
		return core.NativeFailure("MeshDestroy", err)
	}
	return nil
}

func (m *Mesh) IsDestroyed() bool {
	return m.destroyed
}

// buffers returns the native storage without checking readability.
func (m *Mesh) buffers() (*native.MeshBuffers, error) {
	if m == nil {
		return nil, core.InvalidArgument("mesh is nil")
	}
	if m.destroyed {
		return nil, core.InvalidOperation("mesh %q has been destroyed", m.Name)
	}
	mb, err := m.backend.MeshBuffers(m.handle)
	if err != nil {
		return nil, core.NativeFailure("MeshBuffers", err)
	}
	return mb, nil
}

// accessible returns the native storage of a CPU readable mesh.
func (m *Mesh) accessible(what string) (*native.MeshBuffers, error) {
	mb, err := m.buffers()
	if err != nil {
		return nil, err
	}
	if !mb.Readable {
		return nil, core.NotAccessible("not allowed to access %s on mesh %q (isReadable is false)", what, m.Name)
	}
	return mb, nil
}

func (m *Mesh) IsReadable() bool {
	mb, err := m.buffers()
	return err == nil && mb.Readable
}

func (m *Mesh) VertexCount() int {
	mb, err := m.buffers()
	if err != nil {
		return 0
	}
	return mb.VertexCount
}

func (m *Mesh) SubMeshCount() int {
	mb, err := m.buffers()
	if err != nil {
		return 0
	}
	return len(mb.SubMeshes)
}

// SetSubMeshCount grows with empty submeshes or truncates, dropping removed indices.
func (m *Mesh) SetSubMeshCount(count int) error {
	if count < 0 {
		return core.InvalidArgument("subMeshCount can't be set to negative value %d", count)
	}
	mb, err := m.accessible("subMeshCount")
	if err != nil {
		return err
	}
	mb.SetSubMeshCount(count)
	return nil
}

func (m *Mesh) Bounds() math.Bounds {
	mb, err := m.buffers()
	if err != nil {
		return math.Bounds{}
	}
	return mb.Bounds
}

func (m *Mesh) SetBounds(b math.Bounds) error {
	mb, err := m.buffers()
	if err != nil {
		return err
	}
	mb.Bounds = b
	return nil
}

// RecalculateBounds recomputes mesh and submesh bounds from the positions.
func (m *Mesh) RecalculateBounds() error {
	mb, err := m.accessible("vertices")
	if err != nil {
		return err
	}
	mb.RecalculateBounds()
	return nil
}

// RecalculateNormals rebuilds smooth normals from the triangle submeshes.
func (m *Mesh) RecalculateNormals() error {
	mb, err := m.accessible("normals")
	if err != nil {
		return err
	}
	if mb.VertexCount == 0 {
		return nil
	}
	var tris []uint32
	for i, sm := range mb.SubMeshes {
		if sm.Topology != metadata.MeshTopologyTriangles {
			continue
		}
		for _, idx := range mb.SubMeshIndices(i) {
			tris = append(tris, uint32(int(idx)+sm.BaseVertex))
		}
	}
	normals := math.GeometryGenerateNormals(mb.Positions(), tris)
	return writeVec3(mb, metadata.VertexAttributeNormal, normals)
}

/**
 * @brief Drops all vertex and index data.
 * @param keepVertexLayout keeps the attribute layout for the next vertex upload.
 */
func (m *Mesh) Clear(keepVertexLayout bool) error {
	mb, err := m.buffers()
	if err != nil {
		return err
	}
	mb.Clear(keepVertexLayout)
	return nil
}

// MarkDynamic hints the backend that the mesh will be updated often.
func (m *Mesh) MarkDynamic() error {
	mb, err := m.buffers()
	if err != nil {
		return err
	}
	mb.Dynamic = true
	return nil
}

func (m *Mesh) IsDynamic() bool {
	mb, err := m.buffers()
	return err == nil && mb.Dynamic
}

// UploadMeshData sends pending changes to the device. A mesh marked no longer
// readable rejects every later CPU access with ErrNotAccessible.
func (m *Mesh) UploadMeshData(markNoLongerReadable bool) error {
	if _, err := m.buffers(); err != nil {
		return err
	}
	if err := m.backend.MeshUpload(m.handle, markNoLongerReadable); err != nil {
		return core.NativeFailure("MeshUpload", err)
	}
	return nil
}

// BindPoses returns a copy of the bind poses.
func (m *Mesh) BindPoses() ([]math.Mat4, error) {
	mb, err := m.accessible("bindposes")
	if err != nil {
		return nil, err
	}
	return append([]math.Mat4(nil), mb.BindPoses...), nil
}

func (m *Mesh) SetBindPoses(poses []math.Mat4) error {
	mb, err := m.accessible("bindposes")
	if err != nil {
		return err
	}
	mb.BindPoses = append([]math.Mat4(nil), poses...)
	return nil
}
