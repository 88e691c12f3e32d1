package mesh

import (
	"sync/atomic"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// liveMeshData counts MeshDataArray allocations not yet disposed.
var liveMeshData atomic.Int64

// LiveMeshDataArrays reports how many acquired or allocated arrays still wait for Dispose.
func LiveMeshDataArrays() int64 {
	return liveMeshData.Load()
}

type meshDataState struct {
	disposed atomic.Bool
	readOnly bool
	data     []*native.MeshBuffers
}

func (s *meshDataState) check() error {
	if s == nil {
		return core.AccessInvalidated("mesh data array was never acquired")
	}
	if s.disposed.Load() {
		return core.AccessInvalidated("mesh data array has been disposed")
	}
	return nil
}

/**
 * @brief A scoped view over the native buffers of one or more meshes.
 *
 * Arrays are acquired read-only with AcquireReadOnlyMeshData or allocated
 * writable with AllocateWritableMeshData, and must be released exactly once
 * through Dispose or ApplyAndDisposeWritableMeshData. Copies of the value
 * share the same allocation, so disposing any of them invalidates all.
 * Element access is limited to [MinIndex, MaxIndex], which RestrictRange
 * narrows for workers processing disjoint parts of the array.
 */
type MeshDataArray struct {
	state    *meshDataState
	minIndex int
	maxIndex int
}

func newMeshDataArray(data []*native.MeshBuffers, readOnly bool) MeshDataArray {
	liveMeshData.Add(1)
	return MeshDataArray{
		state:    &meshDataState{readOnly: readOnly, data: data},
		minIndex: 0,
		maxIndex: len(data) - 1,
	}
}

// AcquireReadOnlyMeshData snapshots the geometry of readable meshes.
func AcquireReadOnlyMeshData(meshes ...*Mesh) (MeshDataArray, error) {
	data := make([]*native.MeshBuffers, len(meshes))
	for i, m := range meshes {
		if m == nil {
			return MeshDataArray{}, core.InvalidArgument("mesh %d is nil", i)
		}
		mb, err := m.accessible("mesh data")
		if err != nil {
			return MeshDataArray{}, err
		}
		data[i] = mb.Clone()
	}
	return newMeshDataArray(data, true), nil
}

// AllocateWritableMeshData creates count empty meshes' worth of buffers.
func AllocateWritableMeshData(count int) (MeshDataArray, error) {
	if count < 0 {
		return MeshDataArray{}, core.InvalidArgument("mesh data count %d can't be negative", count)
	}
	data := make([]*native.MeshBuffers, count)
	for i := range data {
		data[i] = native.NewMeshBuffers()
	}
	return newMeshDataArray(data, false), nil
}

/**
 * @brief Copies every element of a writable array into the matching mesh and disposes the array.
 * The array is disposed only when the apply succeeds; a second call fails with ErrAccessInvalidated.
 */
func ApplyAndDisposeWritableMeshData(arr MeshDataArray, meshes []*Mesh, flags metadata.MeshUpdateFlags) error {
	if err := arr.state.check(); err != nil {
		return err
	}
	if arr.state.readOnly {
		return core.ReadOnly("cannot apply a read-only mesh data array")
	}
	if len(meshes) != len(arr.state.data) {
		return core.InvalidArgument("mesh data array has %d elements but %d meshes were passed", len(arr.state.data), len(meshes))
	}
	targets := make([]*native.MeshBuffers, len(meshes))
	for i, m := range meshes {
		if m == nil {
			return core.InvalidArgument("mesh %d is nil", i)
		}
		mb, err := m.accessible("mesh data")
		if err != nil {
			return err
		}
		src := arr.state.data[i]
		for _, d := range src.SubMeshes {
			if err := checkSubMeshDescriptor(d, src, flags); err != nil {
				return err
			}
		}
		targets[i] = mb
	}
	if !arr.state.disposed.CompareAndSwap(false, true) {
		return core.AccessInvalidated("mesh data array has been disposed")
	}
	liveMeshData.Add(-1)
	for i, mb := range targets {
		mb.Assign(arr.state.data[i])
		if !flags.Has(metadata.MeshUpdateDontRecalculateBounds) {
			mb.RecalculateBounds()
		}
	}
	return nil
}

func (a MeshDataArray) Len() int {
	if a.state == nil {
		return 0
	}
	return len(a.state.data)
}

func (a MeshDataArray) MinIndex() int { return a.minIndex }
func (a MeshDataArray) MaxIndex() int { return a.maxIndex }

func (a MeshDataArray) IsReadOnly() bool {
	return a.state != nil && a.state.readOnly
}

func (a MeshDataArray) IsDisposed() bool {
	return a.state == nil || a.state.disposed.Load()
}

// RestrictRange returns a view limited to [minIndex, maxIndex] of the current range.
func (a MeshDataArray) RestrictRange(minIndex, maxIndex int) (MeshDataArray, error) {
	if err := a.state.check(); err != nil {
		return MeshDataArray{}, err
	}
	if minIndex > maxIndex {
		return MeshDataArray{}, core.InvalidArgument("restricted range [%d, %d] is empty", minIndex, maxIndex)
	}
	if minIndex < a.minIndex || maxIndex > a.maxIndex {
		return MeshDataArray{}, core.IndexOutsideRestrictedRange("range [%d, %d] is outside the current range [%d, %d]", minIndex, maxIndex, a.minIndex, a.maxIndex)
	}
	return MeshDataArray{state: a.state, minIndex: minIndex, maxIndex: maxIndex}, nil
}

// At returns element i. Indices beyond Len fail with ErrIndexOutOfRange,
// indices outside the restricted range with ErrIndexOutsideRestrictedRange.
func (a MeshDataArray) At(i int) (MeshData, error) {
	if err := a.state.check(); err != nil {
		return MeshData{}, err
	}
	if i < 0 || i >= len(a.state.data) {
		return MeshData{}, core.IndexOutOfRange("index %d is out of range of '%d' length", i, len(a.state.data))
	}
	if i < a.minIndex || i > a.maxIndex {
		return MeshData{}, core.IndexOutsideRestrictedRange("index %d is out of restricted range [%d...%d]", i, a.minIndex, a.maxIndex)
	}
	return MeshData{state: a.state, buffers: a.state.data[i]}, nil
}

// Dispose releases the buffers. Disposing twice fails with ErrAccessInvalidated.
func (a MeshDataArray) Dispose() error {
	if a.state == nil {
		return core.AccessInvalidated("mesh data array was never acquired")
	}
	if !a.state.disposed.CompareAndSwap(false, true) {
		return core.AccessInvalidated("mesh data array has already been disposed")
	}
	liveMeshData.Add(-1)
	return nil
}

/** @brief One element of a MeshDataArray. Valid until the array is disposed. */
type MeshData struct {
	state   *meshDataState
	buffers *native.MeshBuffers
}

func (d MeshData) read() (*native.MeshBuffers, error) {
	if err := d.state.check(); err != nil {
		return nil, err
	}
	return d.buffers, nil
}

func (d MeshData) write() (*native.MeshBuffers, error) {
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	if d.state.readOnly {
		return nil, core.ReadOnly("mesh data was acquired read-only")
	}
	return mb, nil
}

func (d MeshData) VertexCount() (int, error) {
	mb, err := d.read()
	if err != nil {
		return 0, err
	}
	return mb.VertexCount, nil
}

func (d MeshData) VertexBufferCount() (int, error) {
	mb, err := d.read()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range mb.Layout.Strides {
		if s > 0 {
			n++
		}
	}
	return n, nil
}

func (d MeshData) HasVertexAttribute(a metadata.VertexAttribute) (bool, error) {
	mb, err := d.read()
	if err != nil {
		return false, err
	}
	return mb.HasAttribute(a), nil
}

// GetVertexAttributeDimension returns 0 when a is absent.
func (d MeshData) GetVertexAttributeDimension(a metadata.VertexAttribute) (int, error) {
	mb, err := d.read()
	if err != nil {
		return 0, err
	}
	p, ok := mb.Layout.Find(a)
	if !ok {
		return 0, nil
	}
	return p.Descriptor.Dimension, nil
}

func (d MeshData) GetVertexAttributeFormat(a metadata.VertexAttribute) (metadata.VertexAttributeFormat, error) {
	mb, err := d.read()
	if err != nil {
		return metadata.VertexAttributeFormatFloat32, err
	}
	p, _ := mb.Layout.Find(a)
	return p.Descriptor.Format, nil
}

func (d MeshData) GetVertexBufferStride(stream int) (int, error) {
	mb, err := d.read()
	if err != nil {
		return 0, err
	}
	if stream < 0 || stream >= metadata.MaxVertexStreams {
		return 0, nil
	}
	return mb.Layout.Strides[stream], nil
}

func (d MeshData) GetVertices() ([]math.Vec3, error) {
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	return mb.Positions(), nil
}

func (d MeshData) GetNormals() ([]math.Vec3, error) {
	return d.readVec3(metadata.VertexAttributeNormal)
}

func (d MeshData) GetTangents() ([]math.Vec4, error) {
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	return unflattenVec4(mb.ReadChannel(metadata.VertexAttributeTangent, 4)), nil
}

func (d MeshData) GetColors() ([]math.Color, error) {
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	raw := mb.ReadChannel(metadata.VertexAttributeColor, 4)
	out := make([]math.Color, len(raw)/4)
	for i := range out {
		out[i] = math.Color{R: raw[i*4], G: raw[i*4+1], B: raw[i*4+2], A: raw[i*4+3]}
	}
	return out, nil
}

func (d MeshData) GetUVs(channel int) ([]math.Vec2, error) {
	if err := checkUVChannel(channel); err != nil {
		return nil, err
	}
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	raw := mb.ReadChannel(metadata.TexCoord(channel), 2)
	out := make([]math.Vec2, len(raw)/2)
	for i := range out {
		out[i] = math.Vec2{X: raw[i*2], Y: raw[i*2+1]}
	}
	return out, nil
}

func (d MeshData) readVec3(a metadata.VertexAttribute) ([]math.Vec3, error) {
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	return unflattenVec3(mb.ReadChannel(a, 3)), nil
}

// GetVertexData returns the raw bytes of a vertex stream. Writes through the
// slice of a writable element land in its buffers.
func (d MeshData) GetVertexData(stream int) ([]byte, error) {
	if stream < 0 || stream >= metadata.MaxVertexStreams {
		return nil, core.IndexOutOfRange("stream %d out of range [0, %d)", stream, metadata.MaxVertexStreams)
	}
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	if d.state.readOnly {
		return append([]byte(nil), mb.Streams[stream]...), nil
	}
	return mb.Streams[stream], nil
}

// GetIndexData returns the raw index buffer, encoded in IndexFormat.
func (d MeshData) GetIndexData() ([]byte, error) {
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	if d.state.readOnly {
		return append([]byte(nil), mb.Indices...), nil
	}
	return mb.Indices, nil
}

func (d MeshData) IndexFormat() (metadata.IndexFormat, error) {
	mb, err := d.read()
	if err != nil {
		return metadata.IndexFormatUInt16, err
	}
	return mb.IndexFormat, nil
}

func (d MeshData) GetIndices(submesh int, applyBaseVertex bool) ([]int32, error) {
	mb, err := d.read()
	if err != nil {
		return nil, err
	}
	if submesh < 0 || submesh >= len(mb.SubMeshes) {
		return nil, core.IndexOutOfRange("submesh index %d is out of bounds (subMeshCount %d)", submesh, len(mb.SubMeshes))
	}
	base := int32(0)
	if applyBaseVertex {
		base = int32(mb.SubMeshes[submesh].BaseVertex)
	}
	raw := mb.SubMeshIndices(submesh)
	out := make([]int32, len(raw))
	for i, v := range raw {
		out[i] = int32(v) + base
	}
	return out, nil
}

func (d MeshData) SubMeshCount() (int, error) {
	mb, err := d.read()
	if err != nil {
		return 0, err
	}
	return len(mb.SubMeshes), nil
}

func (d MeshData) SetSubMeshCount(count int) error {
	if count < 0 {
		return core.InvalidArgument("subMeshCount can't be set to negative value %d", count)
	}
	mb, err := d.write()
	if err != nil {
		return err
	}
	for len(mb.SubMeshes) < count {
		mb.SubMeshes = append(mb.SubMeshes, metadata.SubMeshDescriptor{})
	}
	mb.SubMeshes = mb.SubMeshes[:count]
	return nil
}

func (d MeshData) GetSubMesh(index int) (metadata.SubMeshDescriptor, error) {
	mb, err := d.read()
	if err != nil {
		return metadata.SubMeshDescriptor{}, err
	}
	if index < 0 || index >= len(mb.SubMeshes) {
		return metadata.SubMeshDescriptor{}, core.IndexOutOfRange("submesh index %d is out of bounds (subMeshCount %d)", index, len(mb.SubMeshes))
	}
	return mb.SubMeshes[index], nil
}

// SetSubMesh stores desc. Index references are validated when the array is applied.
func (d MeshData) SetSubMesh(index int, desc metadata.SubMeshDescriptor, flags metadata.MeshUpdateFlags) error {
	mb, err := d.write()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(mb.SubMeshes) {
		return core.IndexOutOfRange("submesh index %d is out of bounds (subMeshCount %d)", index, len(mb.SubMeshes))
	}
	if err := checkSubMeshDescriptor(desc, mb, flags|metadata.MeshUpdateDontValidateIndices); err != nil {
		return err
	}
	mb.SubMeshes[index] = desc
	if !flags.Has(metadata.MeshUpdateDontRecalculateBounds) {
		mb.RecalculateSubMeshBounds(index)
	}
	return nil
}

func (d MeshData) SetVertexBufferParams(vertexCount int, attributes ...metadata.VertexAttributeDescriptor) error {
	if vertexCount < 0 {
		return core.InvalidArgument("vertex count %d can't be negative", vertexCount)
	}
	mb, err := d.write()
	if err != nil {
		return err
	}
	for _, a := range attributes {
		if err := a.Validate(); err != nil {
			return core.InvalidArgument("%s", err)
		}
	}
	if err := mb.SetVertexBufferParams(vertexCount, attributes); err != nil {
		return core.InvalidArgument("%s", err)
	}
	return nil
}

func (d MeshData) SetIndexBufferParams(indexCount int, format metadata.IndexFormat) error {
	if indexCount < 0 {
		return core.InvalidArgument("index count %d can't be negative", indexCount)
	}
	if format != metadata.IndexFormatUInt16 && format != metadata.IndexFormatUInt32 {
		return core.InvalidArgument("unknown index format %d", format)
	}
	mb, err := d.write()
	if err != nil {
		return err
	}
	mb.SetIndexBufferParams(indexCount, format)
	return nil
}

// SetVertices writes positions of a writable element; len must equal VertexCount.
func (d MeshData) SetVertices(vertices []math.Vec3) error {
	mb, err := d.write()
	if err != nil {
		return err
	}
	if len(vertices) != mb.VertexCount {
		return core.InvalidArgument("expected %d vertices, got %d", mb.VertexCount, len(vertices))
	}
	return writeVec3(mb, metadata.VertexAttributePosition, vertices)
}

// SetIndices writes indices into the index buffer starting at bufferStart.
func (d MeshData) SetIndices(indices []uint32, bufferStart int) error {
	mb, err := d.write()
	if err != nil {
		return err
	}
	if err := mb.WriteIndices(indices, bufferStart); err != nil {
		return core.InvalidArgument("%s", err)
	}
	return nil
}
