package native

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief Native storage of a mesh: interleaved vertex streams described by
 * Layout, one index buffer shared by all submeshes, and per submesh ranges.
 * Index values are stored without the submesh base vertex applied.
 */
type MeshBuffers struct {
	VertexCount int
	Layout      metadata.VertexLayout
	Streams     [metadata.MaxVertexStreams][]byte
	IndexFormat metadata.IndexFormat
	Indices     []byte
	SubMeshes   []metadata.SubMeshDescriptor
	Bounds      math.Bounds
	BindPoses   []math.Mat4
	Readable    bool
	Dynamic     bool
	Uploads     int
	// Version increases on every mutation.
	Version uint64
}

// NewMeshBuffers returns an empty readable mesh with one submesh.
func NewMeshBuffers() *MeshBuffers {
	return &MeshBuffers{
		Readable:  true,
		SubMeshes: []metadata.SubMeshDescriptor{{}},
	}
}

func (mb *MeshBuffers) touch() {
	mb.Version++
}

func (mb *MeshBuffers) IndexCount() int {
	return len(mb.Indices) / mb.IndexFormat.Size()
}

func (mb *MeshBuffers) HasAttribute(a metadata.VertexAttribute) bool {
	_, ok := mb.Layout.Find(a)
	return ok
}

// Clear drops all vertex and index data. The vertex layout is kept when keepLayout is set.
func (mb *MeshBuffers) Clear(keepLayout bool) {
	mb.VertexCount = 0
	for i := range mb.Streams {
		mb.Streams[i] = nil
	}
	if !keepLayout {
		mb.Layout = metadata.VertexLayout{}
	}
	mb.Indices = nil
	mb.SubMeshes = []metadata.SubMeshDescriptor{{}}
	mb.Bounds = math.Bounds{}
	mb.touch()
}

// SetVertexBufferParams changes vertex count and layout. Data of attributes
// present before and after is converted into the new layout.
func (mb *MeshBuffers) SetVertexBufferParams(vertexCount int, attributes []metadata.VertexAttributeDescriptor) error {
	if vertexCount < 0 {
		return fmt.Errorf("vertex count must be non-negative, got %d", vertexCount)
	}
	layout, err := metadata.ComputeVertexLayout(attributes)
	if err != nil {
		return err
	}
	mb.relayout(vertexCount, layout)
	return nil
}

// SetVertexCount resizes all streams, keeping the layout.
func (mb *MeshBuffers) SetVertexCount(vertexCount int) {
	mb.relayout(vertexCount, mb.Layout)
}

func (mb *MeshBuffers) relayout(vertexCount int, layout metadata.VertexLayout) {
	var streams [metadata.MaxVertexStreams][]byte
	for s := range streams {
		if layout.Strides[s] > 0 {
			streams[s] = make([]byte, vertexCount*layout.Strides[s])
		}
	}
	keep := math.Min(vertexCount, mb.VertexCount)
	for _, dst := range layout.Attributes {
		src, ok := mb.Layout.Find(dst.Descriptor.Attribute)
		if !ok {
			continue
		}
		dims := math.Min(src.Descriptor.Dimension, dst.Descriptor.Dimension)
		srcStride := mb.Layout.Strides[src.Descriptor.Stream]
		dstStride := layout.Strides[dst.Descriptor.Stream]
		srcSize := src.Descriptor.Format.Size()
		dstSize := dst.Descriptor.Format.Size()
		in := mb.Streams[src.Descriptor.Stream]
		out := streams[dst.Descriptor.Stream]
		for v := 0; v < keep; v++ {
			for c := 0; c < dims; c++ {
				value := metadata.DecodeComponent(src.Descriptor.Format, in[v*srcStride+src.Offset+c*srcSize:])
				metadata.EncodeComponent(dst.Descriptor.Format, value, out[v*dstStride+dst.Offset+c*dstSize:])
			}
		}
	}
	mb.VertexCount = vertexCount
	mb.Layout = layout
	mb.Streams = streams
	mb.touch()
}

// ReadChannel decodes attribute a into vertexCount*dim floats. Components the
// stored attribute lacks read as zero. Returns nil when a is absent.
func (mb *MeshBuffers) ReadChannel(a metadata.VertexAttribute, dim int) []float32 {
	p, ok := mb.Layout.Find(a)
	if !ok {
		return nil
	}
	out := make([]float32, mb.VertexCount*dim)
	d := p.Descriptor
	stride := mb.Layout.Strides[d.Stream]
	size := d.Format.Size()
	n := math.Min(dim, d.Dimension)
	stream := mb.Streams[d.Stream]
	for v := 0; v < mb.VertexCount; v++ {
		base := v*stride + p.Offset
		for c := 0; c < n; c++ {
			out[v*dim+c] = metadata.DecodeComponent(d.Format, stream[base+c*size:])
		}
	}
	return out
}

// WriteChannel stores values, vertexCount*desc.Dimension floats, into the
// attribute. The layout is rebuilt with desc unless the attribute is already
// stored with the same dimension and format.
func (mb *MeshBuffers) WriteChannel(desc metadata.VertexAttributeDescriptor, values []float32) error {
	dim := desc.Dimension
	if dim <= 0 || len(values) != mb.VertexCount*dim {
		return fmt.Errorf("%s expects %d values, got %d", desc.Attribute, mb.VertexCount*dim, len(values))
	}
	p, ok := mb.Layout.Find(desc.Attribute)
	if !ok || p.Descriptor.Dimension != dim || p.Descriptor.Format != desc.Format {
		if ok {
			desc.Stream = p.Descriptor.Stream
		}
		attrs := mb.replaceDescriptor(desc)
		layout, err := metadata.ComputeVertexLayout(attrs)
		if err != nil {
			return err
		}
		mb.relayout(mb.VertexCount, layout)
		p, _ = mb.Layout.Find(desc.Attribute)
	}
	d := p.Descriptor
	stride := mb.Layout.Strides[d.Stream]
	size := d.Format.Size()
	stream := mb.Streams[d.Stream]
	for v := 0; v < mb.VertexCount; v++ {
		base := v*stride + p.Offset
		for c := 0; c < dim; c++ {
			metadata.EncodeComponent(d.Format, values[v*dim+c], stream[base+c*size:])
		}
	}
	mb.touch()
	return nil
}

// RemoveChannel drops attribute a from the layout.
func (mb *MeshBuffers) RemoveChannel(a metadata.VertexAttribute) {
	if !mb.HasAttribute(a) {
		return
	}
	var attrs []metadata.VertexAttributeDescriptor
	for _, d := range mb.Layout.Descriptors() {
		if d.Attribute != a {
			attrs = append(attrs, d)
		}
	}
	layout, err := metadata.ComputeVertexLayout(attrs)
	if err != nil {
		// Only Position removal can fail, which leaves no layout at all.
		layout = metadata.VertexLayout{}
	}
	mb.relayout(mb.VertexCount, layout)
}

func (mb *MeshBuffers) replaceDescriptor(desc metadata.VertexAttributeDescriptor) []metadata.VertexAttributeDescriptor {
	attrs := []metadata.VertexAttributeDescriptor{desc}
	for _, d := range mb.Layout.Descriptors() {
		if d.Attribute != desc.Attribute {
			attrs = append(attrs, d)
		}
	}
	if desc.Attribute != metadata.VertexAttributePosition && !mb.HasAttribute(metadata.VertexAttributePosition) {
		attrs = append(attrs, metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributePosition, 3))
	}
	return attrs
}

// WriteStream copies raw bytes into a vertex stream starting at vertex bufferStart.
func (mb *MeshBuffers) WriteStream(stream int, data []byte, bufferStart int) error {
	if stream < 0 || stream >= metadata.MaxVertexStreams {
		return fmt.Errorf("stream %d out of range", stream)
	}
	stride := mb.Layout.Strides[stream]
	if stride == 0 {
		return fmt.Errorf("stream %d has no attributes", stream)
	}
	offset := bufferStart * stride
	if offset+len(data) > len(mb.Streams[stream]) {
		return fmt.Errorf("write of %d bytes at vertex %d overflows stream %d (%d bytes)", len(data), bufferStart, stream, len(mb.Streams[stream]))
	}
	copy(mb.Streams[stream][offset:], data)
	mb.touch()
	return nil
}

func (mb *MeshBuffers) Positions() []math.Vec3 {
	raw := mb.ReadChannel(metadata.VertexAttributePosition, 3)
	out := make([]math.Vec3, mb.VertexCount)
	for i := range out {
		if raw == nil {
			break
		}
		out[i] = math.Vec3{X: raw[i*3], Y: raw[i*3+1], Z: raw[i*3+2]}
	}
	return out
}

// SetIndexFormat converts the index buffer in place.
func (mb *MeshBuffers) SetIndexFormat(f metadata.IndexFormat) {
	if f == mb.IndexFormat {
		return
	}
	count := mb.IndexCount()
	converted := make([]byte, count*f.Size())
	for i := 0; i < count; i++ {
		metadata.PutIndex(f, converted, i, metadata.Index(mb.IndexFormat, mb.Indices, i))
	}
	mb.IndexFormat = f
	mb.Indices = converted
	mb.touch()
}

// SetIndexBufferParams resizes the index buffer, keeping the common prefix.
func (mb *MeshBuffers) SetIndexBufferParams(count int, f metadata.IndexFormat) {
	mb.SetIndexFormat(f)
	resized := make([]byte, count*f.Size())
	copy(resized, mb.Indices)
	mb.Indices = resized
	mb.touch()
}

// WriteIndices stores values at index positions [bufferStart, bufferStart+len(values)).
func (mb *MeshBuffers) WriteIndices(values []uint32, bufferStart int) error {
	if bufferStart < 0 || bufferStart+len(values) > mb.IndexCount() {
		return fmt.Errorf("write of %d indices at %d overflows index buffer of %d", len(values), bufferStart, mb.IndexCount())
	}
	for i, v := range values {
		metadata.PutIndex(mb.IndexFormat, mb.Indices, bufferStart+i, v)
	}
	mb.touch()
	return nil
}

// ReadIndices returns count indices starting at start.
func (mb *MeshBuffers) ReadIndices(start, count int) []uint32 {
	out := make([]uint32, count)
	for i := range out {
		out[i] = metadata.Index(mb.IndexFormat, mb.Indices, start+i)
	}
	return out
}

// SubMeshIndices returns the stored indices of submesh i.
func (mb *MeshBuffers) SubMeshIndices(i int) []uint32 {
	sm := mb.SubMeshes[i]
	return mb.ReadIndices(sm.IndexStart, sm.IndexCount)
}

// SetSubMeshCount grows with empty submeshes or truncates, dropping the
// indices of removed submeshes.
func (mb *MeshBuffers) SetSubMeshCount(count int) {
	lists := mb.subMeshLists()
	descs := append([]metadata.SubMeshDescriptor(nil), mb.SubMeshes...)
	for len(lists) < count {
		lists = append(lists, nil)
		descs = append(descs, metadata.SubMeshDescriptor{})
	}
	mb.rebuildIndices(lists[:count], descs[:count])
}

// SetSubMeshIndices replaces the indices of submesh i and repacks the index buffer.
func (mb *MeshBuffers) SetSubMeshIndices(i int, indices []uint32, topology metadata.MeshTopology, baseVertex int, calculateBounds bool) {
	lists := mb.subMeshLists()
	descs := append([]metadata.SubMeshDescriptor(nil), mb.SubMeshes...)
	lists[i] = append([]uint32(nil), indices...)
	descs[i].Topology = topology
	descs[i].BaseVertex = baseVertex
	mb.rebuildIndices(lists, descs)
	if calculateBounds {
		mb.RecalculateSubMeshBounds(i)
	}
}

func (mb *MeshBuffers) subMeshLists() [][]uint32 {
	lists := make([][]uint32, len(mb.SubMeshes))
	for i := range mb.SubMeshes {
		lists[i] = mb.SubMeshIndices(i)
	}
	return lists
}

func (mb *MeshBuffers) rebuildIndices(lists [][]uint32, descs []metadata.SubMeshDescriptor) {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	buf := make([]byte, total*mb.IndexFormat.Size())
	start := 0
	for i, l := range lists {
		for j, v := range l {
			metadata.PutIndex(mb.IndexFormat, buf, start+j, v)
		}
		descs[i].IndexStart = start
		descs[i].IndexCount = len(l)
		start += len(l)
	}
	mb.Indices = buf
	mb.SubMeshes = descs
	mb.touch()
}

// MaxIndex returns the largest stored index plus base vertex over all submeshes, or -1.
func (mb *MeshBuffers) MaxIndex() int {
	largest := -1
	for i, sm := range mb.SubMeshes {
		for _, v := range mb.SubMeshIndices(i) {
			largest = math.Max(largest, int(v)+sm.BaseVertex)
		}
	}
	return largest
}

// RecalculateSubMeshBounds updates FirstVertex, VertexCount and Bounds of submesh i
// from the vertices its indices reference.
func (mb *MeshBuffers) RecalculateSubMeshBounds(i int) {
	sm := &mb.SubMeshes[i]
	indices := mb.SubMeshIndices(i)
	if len(indices) == 0 {
		sm.FirstVertex, sm.VertexCount, sm.Bounds = 0, 0, math.Bounds{}
		return
	}
	positions := mb.Positions()
	first, last := -1, -1
	var points []math.Vec3
	for _, idx := range indices {
		v := int(idx) + sm.BaseVertex
		if v < 0 || v >= len(positions) {
			continue
		}
		if first < 0 || v < first {
			first = v
		}
		last = math.Max(last, v)
		points = append(points, positions[v])
	}
	if first < 0 {
		sm.FirstVertex, sm.VertexCount, sm.Bounds = 0, 0, math.Bounds{}
		return
	}
	sm.FirstVertex = first
	sm.VertexCount = last - first + 1
	sm.Bounds = math.BoundsFromPoints(points)
}

// RecalculateBounds recomputes the mesh bounds from all positions and every submesh's bounds.
func (mb *MeshBuffers) RecalculateBounds() {
	mb.Bounds = math.BoundsFromPoints(mb.Positions())
	for i := range mb.SubMeshes {
		mb.RecalculateSubMeshBounds(i)
	}
	mb.touch()
}

// Clone deep-copies mb.
func (mb *MeshBuffers) Clone() *MeshBuffers {
	c := *mb
	c.Layout.Attributes = append([]metadata.AttributePlacement(nil), mb.Layout.Attributes...)
	for i := range mb.Streams {
		c.Streams[i] = append([]byte(nil), mb.Streams[i]...)
	}
	c.Indices = append([]byte(nil), mb.Indices...)
	c.SubMeshes = append([]metadata.SubMeshDescriptor(nil), mb.SubMeshes...)
	c.BindPoses = append([]math.Mat4(nil), mb.BindPoses...)
	return &c
}

// Assign replaces the geometry of mb with a copy of src's. Readability,
// the dynamic hint and bind poses of mb are kept.
func (mb *MeshBuffers) Assign(src *MeshBuffers) {
	c := src.Clone()
	mb.VertexCount = c.VertexCount
	mb.Layout = c.Layout
	mb.Streams = c.Streams
	mb.IndexFormat = c.IndexFormat
	mb.Indices = c.Indices
	mb.SubMeshes = c.SubMeshes
	mb.Bounds = c.Bounds
	mb.touch()
}
