package native

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func triangleBuffers(t *testing.T) *MeshBuffers {
	t.Helper()
	mb := NewMeshBuffers()
	mb.SetVertexCount(3)
	pos := metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributePosition, 3)
	if err := mb.WriteChannel(pos, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}); err != nil {
		t.Fatal(err)
	}
	return mb
}

func TestWriteChannelBuildsLayout(t *testing.T) {
	mb := triangleBuffers(t)
	uv := metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributeTexCoord0, 2)
	if err := mb.WriteChannel(uv, []float32{0, 0, 1, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}
	if mb.Layout.Strides[0] != 20 {
		t.Fatalf("stride = %d, want 20", mb.Layout.Strides[0])
	}
	got := mb.ReadChannel(metadata.VertexAttributePosition, 3)
	if got[3] != 1 || got[7] != 1 {
		t.Fatalf("positions lost after relayout: %v", got)
	}
	if err := mb.WriteChannel(uv, []float32{0, 0}); err == nil {
		t.Fatal("expected length mismatch to fail")
	}
}

func TestRelayoutConvertsFormats(t *testing.T) {
	mb := triangleBuffers(t)
	err := mb.SetVertexBufferParams(3, []metadata.VertexAttributeDescriptor{
		metadata.NewVertexAttributeDescriptor(metadata.VertexAttributePosition, metadata.VertexAttributeFormatFloat16, 4, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	got := mb.ReadChannel(metadata.VertexAttributePosition, 3)
	want := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("positions = %v, want %v", got, want)
		}
	}
	if mb.Layout.Strides[1] != 8 || mb.Layout.Strides[0] != 0 {
		t.Fatalf("strides = %v", mb.Layout.Strides)
	}
}

func TestSubMeshIndicesRepack(t *testing.T) {
	mb := triangleBuffers(t)
	mb.SetSubMeshCount(2)
	mb.SetSubMeshIndices(1, []uint32{2, 1, 0}, metadata.MeshTopologyTriangles, 0, true)
	mb.SetSubMeshIndices(0, []uint32{0, 1}, metadata.MeshTopologyLines, 0, true)

	if mb.SubMeshes[1].IndexStart != 2 || mb.SubMeshes[1].IndexCount != 3 {
		t.Fatalf("submesh 1 = %s", mb.SubMeshes[1])
	}
	if got := mb.SubMeshIndices(1); got[0] != 2 || got[2] != 0 {
		t.Fatalf("submesh 1 indices = %v", got)
	}
	if mb.SubMeshes[0].VertexCount != 2 || mb.SubMeshes[1].VertexCount != 3 {
		t.Fatalf("vertex ranges = %d, %d", mb.SubMeshes[0].VertexCount, mb.SubMeshes[1].VertexCount)
	}

	mb.SetIndexFormat(metadata.IndexFormatUInt32)
	if mb.IndexCount() != 5 || len(mb.Indices) != 20 {
		t.Fatalf("index buffer = %d indices, %d bytes", mb.IndexCount(), len(mb.Indices))
	}
	if got := mb.SubMeshIndices(1); got[0] != 2 {
		t.Fatalf("indices changed by format conversion: %v", got)
	}

	mb.SetSubMeshCount(1)
	if mb.IndexCount() != 2 {
		t.Fatalf("IndexCount after truncation = %d", mb.IndexCount())
	}
}

func TestCloneIsDeep(t *testing.T) {
	mb := triangleBuffers(t)
	c := mb.Clone()
	c.Streams[0][0] = 0xFF
	if mb.Streams[0][0] == 0xFF {
		t.Fatal("clone shares stream memory")
	}
}

func TestRemoveChannel(t *testing.T) {
	mb := triangleBuffers(t)
	normal := metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributeNormal, 3)
	if err := mb.WriteChannel(normal, make([]float32, 9)); err != nil {
		t.Fatal(err)
	}
	mb.RemoveChannel(metadata.VertexAttributeNormal)
	if mb.HasAttribute(metadata.VertexAttributeNormal) || !mb.HasAttribute(metadata.VertexAttributePosition) {
		t.Fatalf("layout after removal = %v", mb.Layout.Descriptors())
	}
}

func TestFeaturesString(t *testing.T) {
	tests := []struct {
		f    Features
		want string
	}{
		{0, "None"},
		{FeatureInstancing, "Instancing"},
		{FeatureComputeShaders | FeatureHDRDisplay, "ComputeShaders|HDRDisplay"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Features(%d).String() = %q, want %q", uint64(tt.f), got, tt.want)
		}
	}
}
