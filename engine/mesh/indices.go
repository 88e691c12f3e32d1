package mesh

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

type indexOptions struct {
	calculateBounds bool
	baseVertex      int
}

// IndexOption configures SetTriangles and SetIndices.
type IndexOption func(*indexOptions)

// WithCalculateBounds controls whether submesh bounds are recomputed. Defaults to true.
func WithCalculateBounds(on bool) IndexOption {
	return func(o *indexOptions) {
		o.calculateBounds = on
	}
}

// WithBaseVertex offsets every index by base when the submesh is drawn. Defaults to 0.
func WithBaseVertex(base int) IndexOption {
	return func(o *indexOptions) {
		o.baseVertex = base
	}
}

func resolveIndexOptions(opts []IndexOption) indexOptions {
	o := indexOptions{calculateBounds: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (m *Mesh) IndexFormat() metadata.IndexFormat {
	mb, err := m.buffers()
	if err != nil {
		return metadata.IndexFormatUInt16
	}
	return mb.IndexFormat
}

// SetIndexFormat converts the index buffer. UInt16 fails while any stored index exceeds 65535.
func (m *Mesh) SetIndexFormat(f metadata.IndexFormat) error {
	if f != metadata.IndexFormatUInt16 && f != metadata.IndexFormatUInt32 {
		return core.InvalidArgument("unknown index format %d", f)
	}
	mb, err := m.accessible("indexFormat")
	if err != nil {
		return err
	}
	if f == metadata.IndexFormatUInt16 && maxStoredIndex(mb) > metadata.MaxUInt16Vertices {
		return core.InvalidArgument("index buffer holds values above %d and cannot use %s", metadata.MaxUInt16Vertices, f)
	}
	mb.SetIndexFormat(f)
	return nil
}

func maxStoredIndex(mb *native.MeshBuffers) int {
	largest := -1
	for _, v := range mb.ReadIndices(0, mb.IndexCount()) {
		if int(v) > largest {
			largest = int(v)
		}
	}
	return largest
}

func (m *Mesh) SetTriangles(triangles []int32, submesh int, opts ...IndexOption) error {
	return m.SetTrianglesRange(triangles, 0, len(triangles), submesh, opts...)
}

func (m *Mesh) SetTrianglesRange(triangles []int32, start, length, submesh int, opts ...IndexOption) error {
	return m.SetIndicesRange(triangles, start, length, metadata.MeshTopologyTriangles, submesh, opts...)
}

func (m *Mesh) SetIndices(indices []int32, topology metadata.MeshTopology, submesh int, opts ...IndexOption) error {
	return m.SetIndicesRange(indices, 0, len(indices), topology, submesh, opts...)
}

/**
 * @brief Replaces the indices of one submesh with indices[start:start+length].
 * Fails when the submesh does not exist, the topology is a strip of triangles,
 * the count does not divide into primitives, or an index plus the base vertex
 * falls outside the vertex range.
 */
func (m *Mesh) SetIndicesRange(indices []int32, start, length int, topology metadata.MeshTopology, submesh int, opts ...IndexOption) error {
	if err := checkRange(start, length, len(indices)); err != nil {
		return err
	}
	o := resolveIndexOptions(opts)
	mb, err := m.accessible("indices")
	if err != nil {
		return err
	}
	if submesh < 0 || submesh >= len(mb.SubMeshes) {
		return core.IndexOutOfRange("failed setting triangles: submesh index %d is out of bounds (subMeshCount %d)", submesh, len(mb.SubMeshes))
	}
	values, err := checkIndices(indices[start:start+length], topology, o.baseVertex, mb)
	if err != nil {
		return err
	}
	mb.SetSubMeshIndices(submesh, values, topology, o.baseVertex, o.calculateBounds)
	return nil
}

func checkTopology(topology metadata.MeshTopology) error {
	switch topology {
	case metadata.MeshTopologyTriangleStrip:
		return core.InvalidArgument("topology %s is not supported", topology)
	case metadata.MeshTopologyTriangles, metadata.MeshTopologyQuads, metadata.MeshTopologyLines,
		metadata.MeshTopologyLineStrip, metadata.MeshTopologyPoints:
		return nil
	}
	return core.InvalidArgument("unknown topology %d", topology)
}

func checkIndices(indices []int32, topology metadata.MeshTopology, baseVertex int, mb *native.MeshBuffers) ([]uint32, error) {
	if err := checkTopology(topology); err != nil {
		return nil, err
	}
	if per := topology.IndicesPerPrimitive(); len(indices)%per != 0 {
		return nil, core.InvalidArgument("index count %d is not a multiple of %d for %s", len(indices), per, topology)
	}
	if baseVertex < 0 {
		return nil, core.InvalidArgument("base vertex %d can't be negative", baseVertex)
	}
	out := make([]uint32, len(indices))
	for i, idx := range indices {
		v := int(idx) + baseVertex
		if idx < 0 || v >= mb.VertexCount {
			return nil, core.InvalidArgument("index %d (%d with base vertex) references a vertex out of bounds [0, %d)", i, v, mb.VertexCount)
		}
		if mb.IndexFormat == metadata.IndexFormatUInt16 && int(idx) > metadata.MaxUInt16Vertices {
			return nil, core.InvalidArgument("index %d value %d does not fit the 16 bit index format", i, idx)
		}
		out[i] = uint32(idx)
	}
	return out, nil
}

func (m *Mesh) subMesh(submesh int) (*native.MeshBuffers, metadata.SubMeshDescriptor, error) {
	mb, err := m.accessible("indices")
	if err != nil {
		return nil, metadata.SubMeshDescriptor{}, err
	}
	if submesh < 0 || submesh >= len(mb.SubMeshes) {
		return nil, metadata.SubMeshDescriptor{}, core.IndexOutOfRange("submesh index %d is out of bounds (subMeshCount %d)", submesh, len(mb.SubMeshes))
	}
	return mb, mb.SubMeshes[submesh], nil
}

// GetIndices returns the indices of a submesh, with the base vertex added when applyBaseVertex is set.
func (m *Mesh) GetIndices(submesh int, applyBaseVertex bool) ([]int32, error) {
	mb, sm, err := m.subMesh(submesh)
	if err != nil {
		return nil, err
	}
	raw := mb.SubMeshIndices(submesh)
	out := make([]int32, len(raw))
	for i, v := range raw {
		out[i] = int32(v)
		if applyBaseVertex {
			out[i] += int32(sm.BaseVertex)
		}
	}
	return out, nil
}

// GetTriangles is GetIndices restricted to triangle submeshes; other topologies yield no triangles.
func (m *Mesh) GetTriangles(submesh int, applyBaseVertex bool) ([]int32, error) {
	_, sm, err := m.subMesh(submesh)
	if err != nil {
		return nil, err
	}
	if sm.Topology != metadata.MeshTopologyTriangles {
		return []int32{}, nil
	}
	return m.GetIndices(submesh, applyBaseVertex)
}

func (m *Mesh) GetIndexStart(submesh int) (int, error) {
	_, sm, err := m.subMesh(submesh)
	return sm.IndexStart, err
}

func (m *Mesh) GetIndexCount(submesh int) (int, error) {
	_, sm, err := m.subMesh(submesh)
	return sm.IndexCount, err
}

func (m *Mesh) GetBaseVertex(submesh int) (int, error) {
	_, sm, err := m.subMesh(submesh)
	return sm.BaseVertex, err
}

func (m *Mesh) GetTopology(submesh int) (metadata.MeshTopology, error) {
	_, sm, err := m.subMesh(submesh)
	return sm.Topology, err
}

// SetIndexBufferParams resizes the index buffer, which submesh descriptors then address.
func (m *Mesh) SetIndexBufferParams(indexCount int, format metadata.IndexFormat) error {
	if indexCount < 0 {
		return core.InvalidArgument("index count %d can't be negative", indexCount)
	}
	if format != metadata.IndexFormatUInt16 && format != metadata.IndexFormatUInt32 {
		return core.InvalidArgument("unknown index format %d", format)
	}
	mb, err := m.accessible("index buffer")
	if err != nil {
		return err
	}
	mb.SetIndexBufferParams(indexCount, format)
	return nil
}

/**
 * @brief Copies data[dataStart:dataStart+count] into the index buffer at meshBufferStart.
 * Indices are checked against the vertex count unless DontValidateIndices is set.
 */
func (m *Mesh) SetIndexBufferData(data []uint32, dataStart, meshBufferStart, count int, flags metadata.MeshUpdateFlags) error {
	if err := checkRange(dataStart, count, len(data)); err != nil {
		return err
	}
	mb, err := m.accessible("index buffer")
	if err != nil {
		return err
	}
	if meshBufferStart < 0 || meshBufferStart+count > mb.IndexCount() {
		return core.InvalidArgument("meshBufferStart %d + count %d exceeds index buffer size %d", meshBufferStart, count, mb.IndexCount())
	}
	values := data[dataStart : dataStart+count]
	for i, v := range values {
		if mb.IndexFormat == metadata.IndexFormatUInt16 && v > metadata.MaxUInt16Vertices {
			return core.InvalidArgument("index %d value %d does not fit the 16 bit index format", i, v)
		}
		if !flags.Has(metadata.MeshUpdateDontValidateIndices) && int(v) >= mb.VertexCount {
			return core.InvalidArgument("index %d value %d references a vertex out of bounds [0, %d)", i, v, mb.VertexCount)
		}
	}
	if err := mb.WriteIndices(values, meshBufferStart); err != nil {
		return core.NativeFailure("WriteIndices", err)
	}
	return nil
}

// SetVertexBufferParams sets the vertex count and attribute layout. Existing
// data of attributes kept in the layout is converted.
func (m *Mesh) SetVertexBufferParams(vertexCount int, attributes ...metadata.VertexAttributeDescriptor) error {
	if vertexCount < 0 {
		return core.InvalidArgument("vertex count %d can't be negative", vertexCount)
	}
	for _, a := range attributes {
		if err := a.Validate(); err != nil {
			return core.InvalidArgument("%s", err)
		}
	}
	mb, err := m.accessible("vertex buffer")
	if err != nil {
		return err
	}
	if err := mb.SetVertexBufferParams(vertexCount, attributes); err != nil {
		return core.InvalidArgument("%s", err)
	}
	return nil
}

// SetVertexBufferData copies raw bytes, whole vertices of stream's stride, into a vertex stream.
func (m *Mesh) SetVertexBufferData(stream int, data []byte, dataStart, meshBufferStart, vertexCount int) error {
	if stream < 0 || stream >= metadata.MaxVertexStreams {
		return core.IndexOutOfRange("stream %d out of range [0, %d)", stream, metadata.MaxVertexStreams)
	}
	mb, err := m.accessible("vertex buffer")
	if err != nil {
		return err
	}
	stride := mb.Layout.Strides[stream]
	if stride == 0 {
		return core.InvalidArgument("stream %d has no vertex attributes", stream)
	}
	if err := checkRange(dataStart, vertexCount*stride, len(data)); err != nil {
		return err
	}
	if meshBufferStart < 0 || meshBufferStart+vertexCount > mb.VertexCount {
		return core.InvalidArgument("meshBufferStart %d + count %d exceeds vertex count %d", meshBufferStart, vertexCount, mb.VertexCount)
	}
	if err := mb.WriteStream(stream, data[dataStart:dataStart+vertexCount*stride], meshBufferStart); err != nil {
		return core.NativeFailure("WriteStream", err)
	}
	return nil
}

func (m *Mesh) GetVertexAttributes() ([]metadata.VertexAttributeDescriptor, error) {
	mb, err := m.buffers()
	if err != nil {
		return nil, err
	}
	return mb.Layout.Descriptors(), nil
}

func (m *Mesh) HasVertexAttribute(a metadata.VertexAttribute) bool {
	mb, err := m.buffers()
	return err == nil && mb.HasAttribute(a)
}

// GetVertexAttributeDimension returns 0 when a is absent.
func (m *Mesh) GetVertexAttributeDimension(a metadata.VertexAttribute) int {
	mb, err := m.buffers()
	if err != nil {
		return 0
	}
	p, ok := mb.Layout.Find(a)
	if !ok {
		return 0
	}
	return p.Descriptor.Dimension
}

func (m *Mesh) GetVertexBufferStride(stream int) int {
	mb, err := m.buffers()
	if err != nil || stream < 0 || stream >= metadata.MaxVertexStreams {
		return 0
	}
	return mb.Layout.Strides[stream]
}

// SetSubMesh assigns a descriptor addressing the index buffer directly.
func (m *Mesh) SetSubMesh(index int, desc metadata.SubMeshDescriptor, flags metadata.MeshUpdateFlags) error {
	mb, err := m.accessible("submeshes")
	if err != nil {
		return err
	}
	if index < 0 || index >= len(mb.SubMeshes) {
		return core.IndexOutOfRange("submesh index %d is out of bounds (subMeshCount %d)", index, len(mb.SubMeshes))
	}
	if err := checkSubMeshDescriptor(desc, mb, flags); err != nil {
		return err
	}
	mb.SubMeshes[index] = desc
	if !flags.Has(metadata.MeshUpdateDontRecalculateBounds) {
		mb.RecalculateSubMeshBounds(index)
	}
	return nil
}

// SetSubMeshes replaces every submesh descriptor.
func (m *Mesh) SetSubMeshes(descs []metadata.SubMeshDescriptor, flags metadata.MeshUpdateFlags) error {
	mb, err := m.accessible("submeshes")
	if err != nil {
		return err
	}
	for _, d := range descs {
		if err := checkSubMeshDescriptor(d, mb, flags); err != nil {
			return err
		}
	}
	mb.SubMeshes = append([]metadata.SubMeshDescriptor(nil), descs...)
	if !flags.Has(metadata.MeshUpdateDontRecalculateBounds) {
		for i := range mb.SubMeshes {
			mb.RecalculateSubMeshBounds(i)
		}
	}
	return nil
}

func (m *Mesh) GetSubMesh(index int) (metadata.SubMeshDescriptor, error) {
	_, sm, err := m.subMesh(index)
	return sm, err
}

func checkSubMeshDescriptor(d metadata.SubMeshDescriptor, mb *native.MeshBuffers, flags metadata.MeshUpdateFlags) error {
	if err := checkTopology(d.Topology); err != nil {
		return err
	}
	if d.IndexStart < 0 || d.IndexCount < 0 || d.IndexStart+d.IndexCount > mb.IndexCount() {
		return core.InvalidArgument("submesh %s addresses indices outside the index buffer (%d)", d, mb.IndexCount())
	}
	if d.BaseVertex < 0 {
		return core.InvalidArgument("submesh base vertex %d can't be negative", d.BaseVertex)
	}
	if per := d.Topology.IndicesPerPrimitive(); d.IndexCount%per != 0 {
		return core.InvalidArgument("submesh index count %d is not a multiple of %d for %s", d.IndexCount, per, d.Topology)
	}
	if flags.Has(metadata.MeshUpdateDontValidateIndices) {
		return nil
	}
	for _, v := range mb.ReadIndices(d.IndexStart, d.IndexCount) {
		if int(v)+d.BaseVertex >= mb.VertexCount {
			return core.InvalidArgument("submesh %s references vertex %d out of bounds [0, %d)", d, int(v)+d.BaseVertex, mb.VertexCount)
		}
	}
	return nil
}
