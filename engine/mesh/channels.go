package mesh

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

const maxUVChannels = 8

// checkRange accepts 0 <= start, 0 <= length and start+length <= arrayLength.
func checkRange(start, length, arrayLength int) error {
	if start < 0 {
		return core.InvalidArgument("start %d can't be negative", start)
	}
	if length < 0 {
		return core.InvalidArgument("length %d can't be negative", length)
	}
	if start >= arrayLength && length != 0 {
		return core.InvalidArgument("start %d is out of bounds for array of length %d", start, arrayLength)
	}
	if start+length > arrayLength {
		return core.InvalidArgument("start %d + length %d exceeds array length %d", start, length, arrayLength)
	}
	return nil
}

func checkUVChannel(channel int) error {
	if channel < 0 || channel >= maxUVChannels {
		return core.InvalidArgument("the uv index %d is invalid, must be in the range 0 to 7", channel)
	}
	return nil
}

// writeVertexChannel stores a non-position channel whose length must match the vertex count.
func (m *Mesh) writeVertexChannel(desc metadata.VertexAttributeDescriptor, count int, values []float32) error {
	mb, err := m.accessible(desc.Attribute.String())
	if err != nil {
		return err
	}
	if count != mb.VertexCount {
		return core.InvalidArgument("mesh %s is out of bounds: the supplied array needs to be the same size as the vertices array (%d), got %d",
			desc.Attribute, mb.VertexCount, count)
	}
	if count == 0 {
		mb.RemoveChannel(desc.Attribute)
		return nil
	}
	if err := mb.WriteChannel(desc, values); err != nil {
		return core.NativeFailure("WriteChannel", err)
	}
	return nil
}

func (m *Mesh) readVertexChannel(a metadata.VertexAttribute, dim int) ([]float32, error) {
	mb, err := m.accessible(a.String())
	if err != nil {
		return nil, err
	}
	return mb.ReadChannel(a, dim), nil
}

func writeVec3(mb *native.MeshBuffers, a metadata.VertexAttribute, values []math.Vec3) error {
	if err := mb.WriteChannel(metadata.DefaultVertexAttributeDescriptor(a, 3), flattenVec3(values)); err != nil {
		return core.NativeFailure("WriteChannel", err)
	}
	return nil
}

func (m *Mesh) SetVertices(vertices []math.Vec3) error {
	return m.SetVerticesRange(vertices, 0, len(vertices), metadata.MeshUpdateDefault)
}

/**
 * @brief Replaces the positions with vertices[start:start+length]. The vertex
 * count becomes length; every other channel is resized to match.
 * @param flags DontValidateIndices skips the check that existing indices stay in range.
 */
func (m *Mesh) SetVerticesRange(vertices []math.Vec3, start, length int, flags metadata.MeshUpdateFlags) error {
	if err := checkRange(start, length, len(vertices)); err != nil {
		return err
	}
	mb, err := m.accessible("vertices")
	if err != nil {
		return err
	}
	if !flags.Has(metadata.MeshUpdateDontValidateIndices) && mb.MaxIndex() >= length {
		return core.InvalidArgument("mesh vertices is too small: the supplied vertex array has less vertices (%d) than are referenced by the triangles array", length)
	}
	mb.SetVertexCount(length)
	if length == 0 {
		return nil
	}
	if err := writeVec3(mb, metadata.VertexAttributePosition, vertices[start:start+length]); err != nil {
		return err
	}
	if !flags.Has(metadata.MeshUpdateDontRecalculateBounds) {
		mb.RecalculateBounds()
	}
	return nil
}

func (m *Mesh) GetVertices() ([]math.Vec3, error) {
	raw, err := m.readVertexChannel(metadata.VertexAttributePosition, 3)
	return unflattenVec3(raw), err
}

func (m *Mesh) SetNormals(normals []math.Vec3) error {
	return m.SetNormalsRange(normals, 0, len(normals))
}

func (m *Mesh) SetNormalsRange(normals []math.Vec3, start, length int) error {
	if err := checkRange(start, length, len(normals)); err != nil {
		return err
	}
	desc := metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributeNormal, 3)
	return m.writeVertexChannel(desc, length, flattenVec3(normals[start:start+length]))
}

func (m *Mesh) GetNormals() ([]math.Vec3, error) {
	raw, err := m.readVertexChannel(metadata.VertexAttributeNormal, 3)
	return unflattenVec3(raw), err
}

func (m *Mesh) SetTangents(tangents []math.Vec4) error {
	return m.SetTangentsRange(tangents, 0, len(tangents))
}

func (m *Mesh) SetTangentsRange(tangents []math.Vec4, start, length int) error {
	if err := checkRange(start, length, len(tangents)); err != nil {
		return err
	}
	desc := metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributeTangent, 4)
	return m.writeVertexChannel(desc, length, flattenVec4(tangents[start:start+length]))
}

func (m *Mesh) GetTangents() ([]math.Vec4, error) {
	raw, err := m.readVertexChannel(metadata.VertexAttributeTangent, 4)
	return unflattenVec4(raw), err
}

func (m *Mesh) SetColors(colors []math.Color) error {
	return m.SetColorsRange(colors, 0, len(colors))
}

func (m *Mesh) SetColorsRange(colors []math.Color, start, length int) error {
	if err := checkRange(start, length, len(colors)); err != nil {
		return err
	}
	flat := make([]float32, 0, length*4)
	for _, c := range colors[start : start+length] {
		flat = append(flat, c.R, c.G, c.B, c.A)
	}
	desc := metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributeColor, 4)
	return m.writeVertexChannel(desc, length, flat)
}

func (m *Mesh) GetColors() ([]math.Color, error) {
	raw, err := m.readVertexChannel(metadata.VertexAttributeColor, 4)
	out := make([]math.Color, len(raw)/4)
	for i := range out {
		out[i] = math.Color{R: raw[i*4], G: raw[i*4+1], B: raw[i*4+2], A: raw[i*4+3]}
	}
	return out, err
}

// SetColors32 stores colors as UNorm8x4 when the mesh has no color channel yet;
// an existing four component channel keeps its format.
func (m *Mesh) SetColors32(colors []math.Color32) error {
	return m.SetColors32Range(colors, 0, len(colors))
}

func (m *Mesh) SetColors32Range(colors []math.Color32, start, length int) error {
	if err := checkRange(start, length, len(colors)); err != nil {
		return err
	}
	flat := make([]float32, 0, length*4)
	for _, c := range colors[start : start+length] {
		cf := c.ToColor()
		flat = append(flat, cf.R, cf.G, cf.B, cf.A)
	}
	desc := metadata.NewVertexAttributeDescriptor(metadata.VertexAttributeColor, metadata.VertexAttributeFormatUNorm8, 4, 0)
	if mb, err := m.buffers(); err == nil {
		if p, ok := mb.Layout.Find(metadata.VertexAttributeColor); ok && p.Descriptor.Dimension == 4 {
			desc.Format = p.Descriptor.Format
		}
	}
	return m.writeVertexChannel(desc, length, flat)
}

func (m *Mesh) GetColors32() ([]math.Color32, error) {
	colors, err := m.GetColors()
	out := make([]math.Color32, len(colors))
	for i, c := range colors {
		out[i] = c.ToColor32()
	}
	return out, err
}

func (m *Mesh) SetUVs(channel int, uvs []math.Vec2) error {
	return m.SetUVsRange(channel, uvs, 0, len(uvs))
}

func (m *Mesh) SetUVsRange(channel int, uvs []math.Vec2, start, length int) error {
	if err := checkUVChannel(channel); err != nil {
		return err
	}
	if err := checkRange(start, length, len(uvs)); err != nil {
		return err
	}
	flat := make([]float32, 0, length*2)
	for _, uv := range uvs[start : start+length] {
		flat = append(flat, uv.X, uv.Y)
	}
	desc := metadata.DefaultVertexAttributeDescriptor(metadata.TexCoord(channel), 2)
	return m.writeVertexChannel(desc, length, flat)
}

func (m *Mesh) SetUVs3(channel int, uvs []math.Vec3) error {
	if err := checkUVChannel(channel); err != nil {
		return err
	}
	desc := metadata.DefaultVertexAttributeDescriptor(metadata.TexCoord(channel), 3)
	return m.writeVertexChannel(desc, len(uvs), flattenVec3(uvs))
}

func (m *Mesh) SetUVs4(channel int, uvs []math.Vec4) error {
	if err := checkUVChannel(channel); err != nil {
		return err
	}
	desc := metadata.DefaultVertexAttributeDescriptor(metadata.TexCoord(channel), 4)
	return m.writeVertexChannel(desc, len(uvs), flattenVec4(uvs))
}

func (m *Mesh) GetUVs(channel int) ([]math.Vec2, error) {
	if err := checkUVChannel(channel); err != nil {
		return nil, err
	}
	raw, err := m.readVertexChannel(metadata.TexCoord(channel), 2)
	out := make([]math.Vec2, len(raw)/2)
	for i := range out {
		out[i] = math.Vec2{X: raw[i*2], Y: raw[i*2+1]}
	}
	return out, err
}

func (m *Mesh) GetUVs3(channel int) ([]math.Vec3, error) {
	if err := checkUVChannel(channel); err != nil {
		return nil, err
	}
	raw, err := m.readVertexChannel(metadata.TexCoord(channel), 3)
	return unflattenVec3(raw), err
}

func (m *Mesh) GetUVs4(channel int) ([]math.Vec4, error) {
	if err := checkUVChannel(channel); err != nil {
		return nil, err
	}
	raw, err := m.readVertexChannel(metadata.TexCoord(channel), 4)
	return unflattenVec4(raw), err
}

// SetBoneWeights stores four influences per vertex in the blend channels.
func (m *Mesh) SetBoneWeights(weights []metadata.BoneWeight) error {
	ws := make([]float32, 0, len(weights)*4)
	is := make([]float32, 0, len(weights)*4)
	for _, w := range weights {
		ws = append(ws, w.Weight0, w.Weight1, w.Weight2, w.Weight3)
		is = append(is, float32(w.BoneIndex0), float32(w.BoneIndex1), float32(w.BoneIndex2), float32(w.BoneIndex3))
	}
	if err := m.writeVertexChannel(metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributeBlendWeight, 4), len(weights), ws); err != nil {
		return err
	}
	return m.writeVertexChannel(metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributeBlendIndices, 4), len(weights), is)
}

func (m *Mesh) GetBoneWeights() ([]metadata.BoneWeight, error) {
	ws, err := m.readVertexChannel(metadata.VertexAttributeBlendWeight, 4)
	if err != nil {
		return nil, err
	}
	is, _ := m.readVertexChannel(metadata.VertexAttributeBlendIndices, 4)
	out := make([]metadata.BoneWeight, len(ws)/4)
	for i := range out {
		w := metadata.BoneWeight{Weight0: ws[i*4], Weight1: ws[i*4+1], Weight2: ws[i*4+2], Weight3: ws[i*4+3]}
		if is != nil {
			w.BoneIndex0, w.BoneIndex1 = int32(is[i*4]), int32(is[i*4+1])
			w.BoneIndex2, w.BoneIndex3 = int32(is[i*4+2]), int32(is[i*4+3])
		}
		out[i] = w
	}
	return out, nil
}

func flattenVec3(vs []math.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}

func flattenVec4(vs []math.Vec4) []float32 {
	out := make([]float32, 0, len(vs)*4)
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z, v.W)
	}
	return out
}

func unflattenVec3(raw []float32) []math.Vec3 {
	out := make([]math.Vec3, len(raw)/3)
	for i := range out {
		out[i] = math.Vec3{X: raw[i*3], Y: raw[i*3+1], Z: raw[i*3+2]}
	}
	return out
}

func unflattenVec4(raw []float32) []math.Vec4 {
	out := make([]math.Vec4, len(raw)/4)
	for i := range out {
		out[i] = math.Vec4{X: raw[i*4], Y: raw[i*4+1], Z: raw[i*4+2], W: raw[i*4+3]}
	}
	return out
}
