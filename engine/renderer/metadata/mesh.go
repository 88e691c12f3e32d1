package metadata

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/math"
)

type MeshTopology int32

const (
	MeshTopologyTriangles MeshTopology = 0
	// Deprecated: triangle strips are not accepted by SetIndices.
	MeshTopologyTriangleStrip MeshTopology = 1
	MeshTopologyQuads         MeshTopology = 2
	MeshTopologyLines         MeshTopology = 3
	MeshTopologyLineStrip     MeshTopology = 4
	MeshTopologyPoints        MeshTopology = 5
)

func (t MeshTopology) String() string {
	switch t {
	case MeshTopologyTriangles:
		return "Triangles"
	case MeshTopologyTriangleStrip:
		return "TriangleStrip"
	case MeshTopologyQuads:
		return "Quads"
	case MeshTopologyLines:
		return "Lines"
	case MeshTopologyLineStrip:
		return "LineStrip"
	case MeshTopologyPoints:
		return "Points"
	}
	return fmt.Sprintf("MeshTopology(%d)", int32(t))
}

// IndicesPerPrimitive returns the divisor an index count must satisfy for t.
// Strip topologies and points accept any count.
func (t MeshTopology) IndicesPerPrimitive() int {
	switch t {
	case MeshTopologyTriangles:
		return 3
	case MeshTopologyQuads:
		return 4
	case MeshTopologyLines:
		return 2
	}
	return 1
}

type IndexFormat int32

const (
	IndexFormatUInt16 IndexFormat = 0
	IndexFormatUInt32 IndexFormat = 1
)

func (f IndexFormat) Size() int {
	if f == IndexFormatUInt32 {
		return 4
	}
	return 2
}

func (f IndexFormat) String() string {
	if f == IndexFormatUInt32 {
		return "UInt32"
	}
	return "UInt16"
}

type VertexAttribute int32

const (
	VertexAttributePosition     VertexAttribute = 0
	VertexAttributeNormal       VertexAttribute = 1
	VertexAttributeTangent      VertexAttribute = 2
	VertexAttributeColor        VertexAttribute = 3
	VertexAttributeTexCoord0    VertexAttribute = 4
	VertexAttributeTexCoord1    VertexAttribute = 5
	VertexAttributeTexCoord2    VertexAttribute = 6
	VertexAttributeTexCoord3    VertexAttribute = 7
	VertexAttributeTexCoord4    VertexAttribute = 8
	VertexAttributeTexCoord5    VertexAttribute = 9
	VertexAttributeTexCoord6    VertexAttribute = 10
	VertexAttributeTexCoord7    VertexAttribute = 11
	VertexAttributeBlendWeight  VertexAttribute = 12
	VertexAttributeBlendIndices VertexAttribute = 13

	VertexAttributeCount = 14
)

var vertexAttributeNames = [VertexAttributeCount]string{
	"Position", "Normal", "Tangent", "Color",
	"TexCoord0", "TexCoord1", "TexCoord2", "TexCoord3",
	"TexCoord4", "TexCoord5", "TexCoord6", "TexCoord7",
	"BlendWeight", "BlendIndices",
}

func (a VertexAttribute) String() string {
	if a.IsValid() {
		return vertexAttributeNames[a]
	}
	return fmt.Sprintf("VertexAttribute(%d)", int32(a))
}

func (a VertexAttribute) IsValid() bool {
	return a >= 0 && a < VertexAttributeCount
}

// TexCoord returns the attribute for UV channel 0..7.
func TexCoord(channel int) VertexAttribute {
	return VertexAttributeTexCoord0 + VertexAttribute(channel)
}

type VertexAttributeFormat int32

const (
	VertexAttributeFormatFloat32 VertexAttributeFormat = 0
	VertexAttributeFormatFloat16 VertexAttributeFormat = 1
	VertexAttributeFormatUNorm8  VertexAttributeFormat = 2
	VertexAttributeFormatSNorm8  VertexAttributeFormat = 3
	VertexAttributeFormatUNorm16 VertexAttributeFormat = 4
	VertexAttributeFormatSNorm16 VertexAttributeFormat = 5
	VertexAttributeFormatUInt8   VertexAttributeFormat = 6
	VertexAttributeFormatSInt8   VertexAttributeFormat = 7
	VertexAttributeFormatUInt16  VertexAttributeFormat = 8
	VertexAttributeFormatSInt16  VertexAttributeFormat = 9
	VertexAttributeFormatUInt32  VertexAttributeFormat = 10
	VertexAttributeFormatSInt32  VertexAttributeFormat = 11
)

// Size returns the byte width of one component, or 0 for unknown formats.
func (f VertexAttributeFormat) Size() int {
	switch f {
	case VertexAttributeFormatFloat32, VertexAttributeFormatUInt32, VertexAttributeFormatSInt32:
		return 4
	case VertexAttributeFormatFloat16, VertexAttributeFormatUNorm16, VertexAttributeFormatSNorm16,
		VertexAttributeFormatUInt16, VertexAttributeFormatSInt16:
		return 2
	case VertexAttributeFormatUNorm8, VertexAttributeFormatSNorm8, VertexAttributeFormatUInt8, VertexAttributeFormatSInt8:
		return 1
	}
	return 0
}

func (f VertexAttributeFormat) String() string {
	names := [...]string{"Float32", "Float16", "UNorm8", "SNorm8", "UNorm16", "SNorm16",
		"UInt8", "SInt8", "UInt16", "SInt16", "UInt32", "SInt32"}
	if f >= 0 && int(f) < len(names) {
		return names[f]
	}
	return fmt.Sprintf("VertexAttributeFormat(%d)", int32(f))
}

// MeshUpdateFlags tune the bookkeeping done after vertex or index writes.
type MeshUpdateFlags int32

const (
	MeshUpdateDefault               MeshUpdateFlags = 0
	MeshUpdateDontValidateIndices   MeshUpdateFlags = 1
	MeshUpdateDontResetBoneBounds   MeshUpdateFlags = 2
	MeshUpdateDontNotifyMeshUsers   MeshUpdateFlags = 4
	MeshUpdateDontRecalculateBounds MeshUpdateFlags = 8
)

func (f MeshUpdateFlags) Has(flag MeshUpdateFlags) bool {
	return f&flag == flag
}

const (
	MaxVertexStreams   = 4
	MaxUInt16Vertices  = 65535
	MaxBoneWeightCount = 4
)

/** @brief Describes one vertex channel: which attribute, how it is encoded and which stream holds it. */
type VertexAttributeDescriptor struct {
	Attribute VertexAttribute
	Format    VertexAttributeFormat
	Dimension int
	Stream    int
}

func NewVertexAttributeDescriptor(attribute VertexAttribute, format VertexAttributeFormat, dimension, stream int) VertexAttributeDescriptor {
	return VertexAttributeDescriptor{Attribute: attribute, Format: format, Dimension: dimension, Stream: stream}
}

// Size returns the packed byte size of the attribute in one vertex.
func (d VertexAttributeDescriptor) Size() int {
	return d.Format.Size() * d.Dimension
}

// Validate checks the descriptor on its own. Layout-level rules live in ComputeVertexLayout.
func (d VertexAttributeDescriptor) Validate() error {
	if !d.Attribute.IsValid() {
		return fmt.Errorf("unknown vertex attribute %d", d.Attribute)
	}
	if d.Format.Size() == 0 {
		return fmt.Errorf("unknown vertex attribute format %d for %s", d.Format, d.Attribute)
	}
	if d.Dimension < 1 || d.Dimension > 4 {
		return fmt.Errorf("%s dimension must be 1..4, got %d", d.Attribute, d.Dimension)
	}
	if d.Stream < 0 || d.Stream >= MaxVertexStreams {
		return fmt.Errorf("%s stream must be 0..%d, got %d", d.Attribute, MaxVertexStreams-1, d.Stream)
	}
	if d.Size()%4 != 0 {
		return fmt.Errorf("%s size %s x %d must be a multiple of 4 bytes", d.Attribute, d.Format, d.Dimension)
	}
	if d.Attribute == VertexAttributeBlendIndices {
		switch d.Format {
		case VertexAttributeFormatUInt8, VertexAttributeFormatSInt8, VertexAttributeFormatUInt16,
			VertexAttributeFormatSInt16, VertexAttributeFormatUInt32, VertexAttributeFormatSInt32:
		default:
			return fmt.Errorf("BlendIndices must use an integer format, got %s", d.Format)
		}
	}
	return nil
}

func (d VertexAttributeDescriptor) String() string {
	return fmt.Sprintf("%s %sx%d stream %d", d.Attribute, d.Format, d.Dimension, d.Stream)
}

/** @brief Byte placement of one attribute within its stream. */
type AttributePlacement struct {
	Descriptor VertexAttributeDescriptor
	Offset     int
}

/** @brief Resolved interleaved layout for a set of attribute descriptors. */
type VertexLayout struct {
	Attributes []AttributePlacement
	Strides    [MaxVertexStreams]int
}

// ComputeVertexLayout orders attributes by their enum value within each stream
// and packs them without padding. Duplicates and invalid descriptors fail.
func ComputeVertexLayout(attributes []VertexAttributeDescriptor) (VertexLayout, error) {
	var layout VertexLayout
	var seen [VertexAttributeCount]bool
	for _, d := range attributes {
		if err := d.Validate(); err != nil {
			return VertexLayout{}, err
		}
		if seen[d.Attribute] {
			return VertexLayout{}, fmt.Errorf("vertex attribute %s specified more than once", d.Attribute)
		}
		seen[d.Attribute] = true
	}
	if len(attributes) > 0 && !seen[VertexAttributePosition] {
		return VertexLayout{}, fmt.Errorf("vertex layout must contain a Position attribute")
	}
	for a := VertexAttribute(0); a < VertexAttributeCount; a++ {
		if !seen[a] {
			continue
		}
		for _, d := range attributes {
			if d.Attribute != a {
				continue
			}
			layout.Attributes = append(layout.Attributes, AttributePlacement{Descriptor: d, Offset: layout.Strides[d.Stream]})
			layout.Strides[d.Stream] += d.Size()
		}
	}
	return layout, nil
}

// Find returns the placement for attribute a.
func (l VertexLayout) Find(a VertexAttribute) (AttributePlacement, bool) {
	for _, p := range l.Attributes {
		if p.Descriptor.Attribute == a {
			return p, true
		}
	}
	return AttributePlacement{}, false
}

func (l VertexLayout) Descriptors() []VertexAttributeDescriptor {
	out := make([]VertexAttributeDescriptor, len(l.Attributes))
	for i, p := range l.Attributes {
		out[i] = p.Descriptor
	}
	return out
}

// DefaultVertexAttributeDescriptor is the layout the managed channel setters use for a.
func DefaultVertexAttributeDescriptor(a VertexAttribute, dimension int) VertexAttributeDescriptor {
	switch a {
	case VertexAttributeColor:
		return VertexAttributeDescriptor{Attribute: a, Format: VertexAttributeFormatFloat32, Dimension: 4}
	case VertexAttributeBlendIndices:
		return VertexAttributeDescriptor{Attribute: a, Format: VertexAttributeFormatUInt32, Dimension: dimension}
	}
	return VertexAttributeDescriptor{Attribute: a, Format: VertexAttributeFormatFloat32, Dimension: dimension}
}

/** @brief A range of the index buffer drawn with one material. */
type SubMeshDescriptor struct {
	Topology    MeshTopology
	IndexStart  int
	IndexCount  int
	BaseVertex  int
	FirstVertex int
	VertexCount int
	Bounds      math.Bounds
}

func NewSubMeshDescriptor(indexStart, indexCount int, topology MeshTopology) SubMeshDescriptor {
	return SubMeshDescriptor{Topology: topology, IndexStart: indexStart, IndexCount: indexCount}
}

func (s SubMeshDescriptor) String() string {
	return fmt.Sprintf("(topo=%s indices=%d,%d vertices=%d,%d basevertex=%d)",
		s.Topology, s.IndexStart, s.IndexCount, s.FirstVertex, s.VertexCount, s.BaseVertex)
}

/** @brief Up to four bone influences for one vertex. */
type BoneWeight struct {
	Weight0    float32
	Weight1    float32
	Weight2    float32
	Weight3    float32
	BoneIndex0 int32
	BoneIndex1 int32
	BoneIndex2 int32
	BoneIndex3 int32
}

/** @brief A single bone influence, used by the variable-count bone weight API. */
type BoneWeight1 struct {
	Weight    float32
	BoneIndex int32
}

// Influences returns the non-zero weights of b, heaviest first as stored.
func (b BoneWeight) Influences() []BoneWeight1 {
	all := []BoneWeight1{
		{b.Weight0, b.BoneIndex0}, {b.Weight1, b.BoneIndex1},
		{b.Weight2, b.BoneIndex2}, {b.Weight3, b.BoneIndex3},
	}
	out := all[:0]
	for _, w := range all {
		if w.Weight > 0 {
			out = append(out, w)
		}
	}
	return out
}
