package mesh

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/** @brief One source of CombineMeshes: a submesh of a mesh placed by Transform. */
type CombineInstance struct {
	Mesh         *Mesh
	SubMeshIndex int
	Transform    math.Mat4
	// LightmapScaleOffset is applied to the second uv channel as xy*uv + zw. The zero value leaves uvs untouched.
	LightmapScaleOffset math.Vec4
}

type combineSource struct {
	instance CombineInstance
	count    int
	channels [metadata.VertexAttributeCount][]float32
	dims     [metadata.VertexAttributeCount]int
	indices  []int32
	topology metadata.MeshTopology
}

/**
 * @brief Replaces the contents of m with the combined vertices and indices of combine.
 * @param mergeSubMeshes produces a single submesh instead of one per instance.
 * @param useMatrices transforms positions, normals and tangents by each instance's Transform.
 * The index format switches to UInt32 when the result exceeds 65535 vertices.
 */
func (m *Mesh) CombineMeshes(combine []CombineInstance, mergeSubMeshes, useMatrices bool) error {
	target, err := m.accessible("vertices")
	if err != nil {
		return err
	}
	sources := make([]combineSource, 0, len(combine))
	var layout [metadata.VertexAttributeCount]*metadata.VertexAttributeDescriptor
	total := 0
	for i, ci := range combine {
		if ci.Mesh == nil {
			return core.InvalidArgument("combine instance %d has no mesh", i)
		}
		mb, err := ci.Mesh.accessible("vertices")
		if err != nil {
			return err
		}
		if ci.SubMeshIndex < 0 || ci.SubMeshIndex >= len(mb.SubMeshes) {
			return core.IndexOutOfRange("combine instance %d: submesh index %d is out of bounds (subMeshCount %d)", i, ci.SubMeshIndex, len(mb.SubMeshes))
		}
		src := combineSource{instance: ci, count: mb.VertexCount, topology: mb.SubMeshes[ci.SubMeshIndex].Topology}
		if mergeSubMeshes && len(sources) > 0 && sources[0].topology != src.topology {
			return core.InvalidArgument("combine instance %d has topology %s, cannot merge with %s", i, src.topology, sources[0].topology)
		}
		for _, d := range mb.Layout.Descriptors() {
			src.dims[d.Attribute] = d.Dimension
			src.channels[d.Attribute] = mb.ReadChannel(d.Attribute, d.Dimension)
			if layout[d.Attribute] == nil || layout[d.Attribute].Dimension < d.Dimension {
				desc := d
				layout[d.Attribute] = &desc
			}
		}
		if src.indices, err = ci.Mesh.GetIndices(ci.SubMeshIndex, true); err != nil {
			return err
		}
		if useMatrices {
			src.transform()
		}
		src.applyLightmapScaleOffset()
		total += src.count
		sources = append(sources, src)
	}

	var descs []metadata.VertexAttributeDescriptor
	for _, d := range layout {
		if d != nil {
			descs = append(descs, *d)
		}
	}
	target.Clear(false)
	if total > 0 {
		if err := target.SetVertexBufferParams(total, descs); err != nil {
			return core.InvalidArgument("%s", err)
		}
		for _, d := range descs {
			if err := target.WriteChannel(d, concatChannel(sources, d.Attribute, d.Dimension)); err != nil {
				return core.NativeFailure("WriteChannel", err)
			}
		}
	}
	if total > metadata.MaxUInt16Vertices {
		target.SetIndexFormat(metadata.IndexFormatUInt32)
	} else {
		target.SetIndexFormat(metadata.IndexFormatUInt16)
	}

	if mergeSubMeshes {
		target.SetSubMeshCount(1)
		var merged []uint32
		topology := metadata.MeshTopologyTriangles
		offset := 0
		for _, src := range sources {
			topology = src.topology
			for _, idx := range src.indices {
				merged = append(merged, uint32(int(idx)+offset))
			}
			offset += src.count
		}
		target.SetSubMeshIndices(0, merged, topology, 0, false)
	} else {
		target.SetSubMeshCount(math.Max(len(sources), 1))
		offset := 0
		for i, src := range sources {
			shifted := make([]uint32, len(src.indices))
			for j, idx := range src.indices {
				shifted[j] = uint32(int(idx) + offset)
			}
			target.SetSubMeshIndices(i, shifted, src.topology, 0, false)
			offset += src.count
		}
	}
	target.RecalculateBounds()
	return nil
}

func concatChannel(sources []combineSource, a metadata.VertexAttribute, dim int) []float32 {
	var out []float32
	for _, src := range sources {
		values := src.channels[a]
		sdim := src.dims[a]
		for v := 0; v < src.count; v++ {
			for c := 0; c < dim; c++ {
				switch {
				case values != nil && c < sdim:
					out = append(out, values[v*sdim+c])
				case a == metadata.VertexAttributeColor:
					out = append(out, 1)
				default:
					out = append(out, 0)
				}
			}
		}
	}
	return out
}

func (s *combineSource) transform() {
	mt := s.instance.Transform
	if mt.IsIdentity() {
		return
	}
	for _, a := range []metadata.VertexAttribute{metadata.VertexAttributePosition, metadata.VertexAttributeNormal, metadata.VertexAttributeTangent} {
		values, dim := s.channels[a], s.dims[a]
		if values == nil || dim < 3 {
			continue
		}
		for v := 0; v < s.count; v++ {
			p := values[v*dim:]
			in := math.Vec3{X: p[0], Y: p[1], Z: p[2]}
			var out math.Vec3
			if a == metadata.VertexAttributePosition {
				out = mt.MultiplyPoint(in)
			} else {
				out = mt.MultiplyVector(in).Normalized()
			}
			p[0], p[1], p[2] = out.X, out.Y, out.Z
		}
	}
}

func (s *combineSource) applyLightmapScaleOffset() {
	so := s.instance.LightmapScaleOffset
	if so == (math.Vec4{}) {
		return
	}
	values, dim := s.channels[metadata.VertexAttributeTexCoord1], s.dims[metadata.VertexAttributeTexCoord1]
	if values == nil || dim < 2 {
		return
	}
	for v := 0; v < s.count; v++ {
		values[v*dim] = values[v*dim]*so.X + so.Z
		values[v*dim+1] = values[v*dim+1]*so.Y + so.W
	}
}
