package mesh

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/software"
)

func newBackend(t *testing.T) *software.Backend {
	t.Helper()
	b, err := software.New(config.Default())
	if err != nil {
		t.Fatalf("software.New() = %v", err)
	}
	t.Cleanup(func() { _ = b.Shutdown() })
	return b
}

func newTriangle(t *testing.T) *Mesh {
	t.Helper()
	m, err := New(newBackend(t))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	m.Name = "triangle"
	verts := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	if err := m.SetVertices(verts); err != nil {
		t.Fatalf("SetVertices() = %v", err)
	}
	return m
}

func TestSetTrianglesSubMeshIndex(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetTrianglesRange([]int32{0, 1, 2}, 0, 3, 0); err != nil {
		t.Fatalf("SetTriangles(submesh 0) = %v", err)
	}
	err := m.SetTrianglesRange([]int32{0, 1, 2}, 0, 3, 1)
	if !errors.Is(err, core.ErrInvalidArgument) || !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Fatalf("SetTriangles(submesh 1) = %v, want index out of range", err)
	}
}

func TestCheckRange(t *testing.T) {
	tests := []struct {
		start, length, n int
		ok               bool
	}{
		{0, 0, 0, true},
		{0, 3, 3, true},
		{1, 2, 3, true},
		{3, 0, 3, true},
		{-1, 1, 3, false},
		{0, -1, 3, false},
		{3, 1, 3, false},
		{2, 2, 3, false},
	}
	for _, tt := range tests {
		err := checkRange(tt.start, tt.length, tt.n)
		if (err == nil) != tt.ok {
			t.Errorf("checkRange(%d, %d, %d) = %v, want ok=%v", tt.start, tt.length, tt.n, err, tt.ok)
		}
		if err != nil && !errors.Is(err, core.ErrInvalidArgument) {
			t.Errorf("checkRange(%d, %d, %d) = %v, want ErrInvalidArgument", tt.start, tt.length, tt.n, err)
		}
	}
}

func TestSetVerticesRangeUsesSlice(t *testing.T) {
	m := newTriangle(t)
	verts := []math.Vec3{{X: 9}, {X: 1}, {X: 2}, {X: 3}, {X: 9}}
	if err := m.SetVerticesRange(verts, 1, 3, metadata.MeshUpdateDefault); err != nil {
		t.Fatalf("SetVerticesRange() = %v", err)
	}
	got, err := m.GetVertices()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, verts[1:4]) {
		t.Fatalf("GetVertices() = %v, want %v", got, verts[1:4])
	}
	if err := m.SetVerticesRange(verts, 4, 2, metadata.MeshUpdateDefault); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("SetVerticesRange(out of range) = %v", err)
	}
}

func TestSetVerticesRejectsShrinkBelowIndices(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetTriangles([]int32{0, 1, 2}, 0); err != nil {
		t.Fatal(err)
	}
	two := []math.Vec3{{}, {X: 1}}
	if err := m.SetVertices(two); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("SetVertices(2) = %v, want invalid argument", err)
	}
	if err := m.SetVerticesRange(two, 0, 2, metadata.MeshUpdateDontValidateIndices); err != nil {
		t.Fatalf("SetVerticesRange(DontValidateIndices) = %v", err)
	}
}

func TestChannelLengthMustMatchVertexCount(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetNormals([]math.Vec3{{Z: 1}}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("SetNormals(1) = %v", err)
	}
	if err := m.SetUVs(8, []math.Vec2{{}, {}, {}}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("SetUVs(channel 8) = %v", err)
	}
	uvs := []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	if err := m.SetUVs(0, uvs); err != nil {
		t.Fatal(err)
	}
	got, err := m.GetUVs(0)
	if err != nil || !reflect.DeepEqual(got, uvs) {
		t.Fatalf("GetUVs(0) = %v, %v", got, err)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	m := newTriangle(t)
	verts := []math.Vec3{{X: -1, Y: 2, Z: 3}, {X: 4, Y: -5, Z: 6}, {X: 7, Y: 8, Z: -9}}
	normals := []math.Vec3{{Z: 1}, {Y: 1}, {X: 1}}
	colors := []math.Color{{R: 1, A: 1}, {G: 0.5, A: 1}, {B: 0.25, A: 0.5}}
	uvs := []math.Vec2{{X: 0.5, Y: 0.25}, {X: 1, Y: 0}, {X: 0, Y: 1}}

	if err := m.SetVertices(verts); err != nil {
		t.Fatal(err)
	}
	if err := m.SetNormals(normals); err != nil {
		t.Fatal(err)
	}
	if err := m.SetColors(colors); err != nil {
		t.Fatal(err)
	}
	if err := m.SetUVs(3, uvs); err != nil {
		t.Fatal(err)
	}

	if got, err := m.GetVertices(); err != nil || !reflect.DeepEqual(got, verts) {
		t.Errorf("GetVertices() = %v, %v", got, err)
	}
	if got, err := m.GetNormals(); err != nil || !reflect.DeepEqual(got, normals) {
		t.Errorf("GetNormals() = %v, %v", got, err)
	}
	if got, err := m.GetColors(); err != nil || !reflect.DeepEqual(got, colors) {
		t.Errorf("GetColors() = %v, %v", got, err)
	}
	if got, err := m.GetUVs(3); err != nil || !reflect.DeepEqual(got, uvs) {
		t.Errorf("GetUVs(3) = %v, %v", got, err)
	}

	// colors32 into the float channel keeps it float
	c32 := []math.Color32{{R: 255, A: 255}, {G: 128, A: 255}, {B: 64, A: 128}}
	if err := m.SetColors32(c32); err != nil {
		t.Fatal(err)
	}
	if got, err := m.GetColors32(); err != nil || !reflect.DeepEqual(got, c32) {
		t.Errorf("GetColors32() = %v, %v", got, err)
	}
	if err := m.SetColors(colors); err != nil {
		t.Fatal(err)
	}
	if got, err := m.GetColors(); err != nil || !reflect.DeepEqual(got, colors) {
		t.Errorf("GetColors() after SetColors32 = %v, %v", got, err)
	}
}

func TestSetColorsAfterColors32(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetColors32([]math.Color32{{R: 1}, {G: 2}, {B: 3}}); err != nil {
		t.Fatal(err)
	}
	colors := []math.Color{{R: 0.3, G: 0.1, B: 0.7, A: 0.5}, {G: 0.2, A: 1}, {B: 0.9, A: 0.25}}
	if err := m.SetColors(colors); err != nil {
		t.Fatal(err)
	}
	if got, err := m.GetColors(); err != nil || !reflect.DeepEqual(got, colors) {
		t.Errorf("GetColors() = %v, %v, want %v", got, err, colors)
	}
}

func TestSetIndicesValidation(t *testing.T) {
	tests := []struct {
		name     string
		indices  []int32
		topology metadata.MeshTopology
		opts     []IndexOption
	}{
		{"strip", []int32{0, 1, 2}, metadata.MeshTopologyTriangleStrip, nil},
		{"not multiple of three", []int32{0, 1}, metadata.MeshTopologyTriangles, nil},
		{"vertex out of range", []int32{0, 1, 3}, metadata.MeshTopologyTriangles, nil},
		{"negative index", []int32{0, 1, -1}, metadata.MeshTopologyTriangles, nil},
		{"base vertex overflow", []int32{0, 1, 2}, metadata.MeshTopologyTriangles, []IndexOption{WithBaseVertex(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTriangle(t)
			err := m.SetIndices(tt.indices, tt.topology, 0, tt.opts...)
			if !errors.Is(err, core.ErrInvalidArgument) {
				t.Fatalf("SetIndices() = %v, want invalid argument", err)
			}
		})
	}
}

func TestIndexOptionDefaults(t *testing.T) {
	a, b := newTriangle(t), newTriangle(t)
	if err := a.SetTriangles([]int32{0, 1, 2}, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.SetTriangles([]int32{0, 1, 2}, 0, WithCalculateBounds(true), WithBaseVertex(0)); err != nil {
		t.Fatal(err)
	}
	sa, _ := a.GetSubMesh(0)
	sb, _ := b.GetSubMesh(0)
	if sa != sb {
		t.Fatalf("defaults differ: %v vs %v", sa, sb)
	}
	if sa.VertexCount != 3 || sa.Bounds.Size() != (math.Vec3{X: 1, Y: 1}) {
		t.Fatalf("submesh bounds not computed: %v %v", sa, sa.Bounds)
	}
}

func TestGetIndicesAppliesBaseVertex(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetVertices(make([]math.Vec3, 6)); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTriangles([]int32{0, 1, 2}, 0, WithBaseVertex(3)); err != nil {
		t.Fatal(err)
	}
	raw, _ := m.GetIndices(0, false)
	applied, _ := m.GetTriangles(0, true)
	if !reflect.DeepEqual(raw, []int32{0, 1, 2}) || !reflect.DeepEqual(applied, []int32{3, 4, 5}) {
		t.Fatalf("GetIndices = %v / %v", raw, applied)
	}
	if base, _ := m.GetBaseVertex(0); base != 3 {
		t.Fatalf("GetBaseVertex() = %d", base)
	}
}

func TestSubMeshCountRepacksIndices(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetSubMeshCount(2); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTriangles([]int32{0, 1, 2}, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.SetIndices([]int32{0, 1}, metadata.MeshTopologyLines, 0); err != nil {
		t.Fatal(err)
	}
	if start, _ := m.GetIndexStart(1); start != 2 {
		t.Fatalf("GetIndexStart(1) = %d, want 2", start)
	}
	if err := m.SetSubMeshCount(1); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.GetIndexCount(0); got != 2 {
		t.Fatalf("GetIndexCount(0) = %d, want 2", got)
	}
	if _, err := m.GetIndexCount(1); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Fatalf("GetIndexCount(1) = %v", err)
	}
}

func TestIndexFormatRange(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetVertices(make([]math.Vec3, 70000)); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTriangles([]int32{0, 1, 66000}, 0); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("SetTriangles(66000) with UInt16 = %v", err)
	}
	if err := m.SetIndexFormat(metadata.IndexFormatUInt32); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTriangles([]int32{0, 1, 66000}, 0); err != nil {
		t.Fatalf("SetTriangles(66000) with UInt32 = %v", err)
	}
	if err := m.SetIndexFormat(metadata.IndexFormatUInt16); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("SetIndexFormat(UInt16) = %v", err)
	}
}

func TestNotReadableAfterUpload(t *testing.T) {
	m := newTriangle(t)
	if err := m.UploadMeshData(true); err != nil {
		t.Fatal(err)
	}
	if m.IsReadable() {
		t.Fatal("mesh still readable")
	}
	checks := map[string]error{}
	_, checks["GetVertices"] = m.GetVertices()
	checks["SetVertices"] = m.SetVertices([]math.Vec3{{}})
	checks["SetTriangles"] = m.SetTriangles([]int32{0, 1, 2}, 0)
	_, checks["AcquireReadOnlyMeshData"] = AcquireReadOnlyMeshData(m)
	for name, err := range checks {
		if !errors.Is(err, core.ErrNotAccessible) {
			t.Errorf("%s = %v, want ErrNotAccessible", name, err)
		}
	}
	if m.VertexCount() != 3 {
		t.Errorf("VertexCount() = %d, want 3", m.VertexCount())
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	m := newTriangle(t)
	if err := m.Destroy(); err != nil {
		t.Fatal(err)
	}
	if err := m.Destroy(); err != nil {
		t.Fatalf("second Destroy() = %v", err)
	}
	if _, err := m.GetVertices(); !errors.Is(err, core.ErrInvalidOperation) {
		t.Fatalf("GetVertices() after Destroy = %v", err)
	}
}

func TestRecalculateNormals(t *testing.T) {
	m := newTriangle(t)
	if err := m.SetTriangles([]int32{0, 1, 2}, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.RecalculateNormals(); err != nil {
		t.Fatal(err)
	}
	normals, _ := m.GetNormals()
	for i, n := range normals {
		if !n.Compare(math.Vec3{Z: 1}, 1e-5) {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
}

func TestCombineMeshes(t *testing.T) {
	backend := newBackend(t)
	build := func() *Mesh {
		m, _ := New(backend)
		_ = m.SetVertices([]math.Vec3{{}, {X: 1}, {Y: 1}})
		_ = m.SetTriangles([]int32{0, 1, 2}, 0)
		return m
	}
	a, b := build(), build()
	target, _ := New(backend)
	combine := []CombineInstance{
		{Mesh: a, Transform: math.NewMat4Identity()},
		{Mesh: b, Transform: math.NewMat4Translation(math.Vec3{X: 10})},
	}
	if err := target.CombineMeshes(combine, true, true); err != nil {
		t.Fatalf("CombineMeshes() = %v", err)
	}
	if target.VertexCount() != 6 || target.SubMeshCount() != 1 {
		t.Fatalf("vertexCount=%d subMeshCount=%d", target.VertexCount(), target.SubMeshCount())
	}
	tris, _ := target.GetTriangles(0, true)
	if !reflect.DeepEqual(tris, []int32{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("GetTriangles() = %v", tris)
	}
	verts, _ := target.GetVertices()
	if verts[4].X != 11 {
		t.Fatalf("vertex 4 = %v, want translated", verts[4])
	}
	if err := target.CombineMeshes(combine, false, false); err != nil {
		t.Fatal(err)
	}
	if target.SubMeshCount() != 2 {
		t.Fatalf("SubMeshCount() = %d, want 2", target.SubMeshCount())
	}
	combine[1].SubMeshIndex = 3
	if err := target.CombineMeshes(combine, true, true); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Fatalf("CombineMeshes(bad submesh) = %v", err)
	}
}

func TestMeshDataArrayDispose(t *testing.T) {
	m := newTriangle(t)
	before := LiveMeshDataArrays()
	arr, err := AcquireReadOnlyMeshData(m, m)
	if err != nil {
		t.Fatal(err)
	}
	if LiveMeshDataArrays() != before+1 {
		t.Fatalf("LiveMeshDataArrays() = %d, want %d", LiveMeshDataArrays(), before+1)
	}
	d, err := arr.At(1)
	if err != nil {
		t.Fatalf("At(1) = %v", err)
	}
	if n, err := d.VertexCount(); err != nil || n != 3 {
		t.Fatalf("VertexCount() = %d, %v, want 3", n, err)
	}
	if err := arr.Dispose(); err != nil {
		t.Fatal(err)
	}
	if _, err := arr.At(0); !errors.Is(err, core.ErrAccessInvalidated) {
		t.Fatalf("At() after Dispose = %v", err)
	}
	if _, err := d.GetVertices(); !errors.Is(err, core.ErrAccessInvalidated) {
		t.Fatalf("MeshData.GetVertices() after Dispose = %v", err)
	}
	pos := metadata.VertexAttributePosition
	accessors := map[string]func() error{
		"VertexCount":                 func() error { _, err := d.VertexCount(); return err },
		"VertexBufferCount":           func() error { _, err := d.VertexBufferCount(); return err },
		"HasVertexAttribute":          func() error { _, err := d.HasVertexAttribute(pos); return err },
		"GetVertexAttributeDimension": func() error { _, err := d.GetVertexAttributeDimension(pos); return err },
		"GetVertexAttributeFormat":    func() error { _, err := d.GetVertexAttributeFormat(pos); return err },
		"GetVertexBufferStride":       func() error { _, err := d.GetVertexBufferStride(0); return err },
		"IndexFormat":                 func() error { _, err := d.IndexFormat(); return err },
		"SubMeshCount":                func() error { _, err := d.SubMeshCount(); return err },
	}
	for name, call := range accessors {
		if err := call(); !errors.Is(err, core.ErrAccessInvalidated) {
			t.Errorf("MeshData.%s() after Dispose = %v, want ErrAccessInvalidated", name, err)
		}
	}
	if err := arr.Dispose(); !errors.Is(err, core.ErrAccessInvalidated) {
		t.Fatalf("second Dispose() = %v", err)
	}
	if LiveMeshDataArrays() != before {
		t.Fatalf("LiveMeshDataArrays() = %d, want %d", LiveMeshDataArrays(), before)
	}
}

func TestMeshDataArrayRestrictedRange(t *testing.T) {
	arr, err := AllocateWritableMeshData(4)
	if err != nil {
		t.Fatal(err)
	}
	defer arr.Dispose()
	sub, err := arr.RestrictRange(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		index int
		want  error
	}{
		{1, nil},
		{2, nil},
		{0, core.ErrIndexOutsideRestrictedRange},
		{3, core.ErrIndexOutsideRestrictedRange},
		{4, core.ErrIndexOutOfRange},
		{-1, core.ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		_, err := sub.At(tt.index)
		if tt.want == nil && err != nil {
			t.Errorf("At(%d) = %v", tt.index, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("At(%d) = %v, want %v", tt.index, err, tt.want)
		}
	}
	if errors.Is(core.ErrIndexOutOfRange, core.ErrIndexOutsideRestrictedRange) {
		t.Fatal("bounds errors must be distinguishable")
	}
	if _, err := sub.RestrictRange(0, 2); !errors.Is(err, core.ErrIndexOutsideRestrictedRange) {
		t.Fatalf("widening RestrictRange() = %v", err)
	}
}

func TestMeshDataParallelWorkers(t *testing.T) {
	arr, err := AllocateWritableMeshData(8)
	if err != nil {
		t.Fatal(err)
	}
	defer arr.Dispose()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := 0; w < 4; w++ {
		sub, err := arr.RestrictRange(w*2, w*2+1)
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func(sub MeshDataArray) {
			defer wg.Done()
			for i := sub.MinIndex(); i <= sub.MaxIndex(); i++ {
				d, err := sub.At(i)
				if err == nil {
					err = d.SetVertexBufferParams(i+1, metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributePosition, 3))
				}
				if err != nil {
					errs <- err
				}
			}
		}(sub)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	for i := 0; i < arr.Len(); i++ {
		d, _ := arr.At(i)
		if n, err := d.VertexCount(); err != nil || n != i+1 {
			t.Errorf("element %d vertexCount = %d, %v", i, n, err)
		}
	}
}

func TestReadOnlyMeshDataRejectsWrites(t *testing.T) {
	m := newTriangle(t)
	arr, err := AcquireReadOnlyMeshData(m)
	if err != nil {
		t.Fatal(err)
	}
	defer arr.Dispose()
	d, _ := arr.At(0)
	if err := d.SetVertexBufferParams(1); !errors.Is(err, core.ErrReadOnly) {
		t.Fatalf("SetVertexBufferParams() = %v, want ErrReadOnly", err)
	}
	if err := ApplyAndDisposeWritableMeshData(arr, []*Mesh{m}, metadata.MeshUpdateDefault); !errors.Is(err, core.ErrReadOnly) {
		t.Fatalf("ApplyAndDispose(read-only) = %v", err)
	}
}

func TestApplyAndDisposeWritableMeshData(t *testing.T) {
	m := newTriangle(t)
	arr, err := AllocateWritableMeshData(1)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := arr.At(0)
	if err := d.SetVertexBufferParams(4, metadata.DefaultVertexAttributeDescriptor(metadata.VertexAttributePosition, 3)); err != nil {
		t.Fatal(err)
	}
	quad := []math.Vec3{{}, {X: 2}, {X: 2, Y: 2}, {Y: 2}}
	if err := d.SetVertices(quad); err != nil {
		t.Fatal(err)
	}
	if err := d.SetIndexBufferParams(6, metadata.IndexFormatUInt16); err != nil {
		t.Fatal(err)
	}
	if err := d.SetIndices([]uint32{0, 1, 2, 0, 2, 3}, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSubMesh(0, metadata.NewSubMeshDescriptor(0, 6, metadata.MeshTopologyTriangles), metadata.MeshUpdateDefault); err != nil {
		t.Fatal(err)
	}
	if err := ApplyAndDisposeWritableMeshData(arr, []*Mesh{m}, metadata.MeshUpdateDefault); err != nil {
		t.Fatalf("ApplyAndDispose() = %v", err)
	}
	if m.VertexCount() != 4 {
		t.Fatalf("VertexCount() = %d, want 4", m.VertexCount())
	}
	if got := m.Bounds().Size(); got != (math.Vec3{X: 2, Y: 2}) {
		t.Fatalf("Bounds().Size() = %v", got)
	}
	if err := ApplyAndDisposeWritableMeshData(arr, []*Mesh{m}, metadata.MeshUpdateDefault); !errors.Is(err, core.ErrAccessInvalidated) {
		t.Fatalf("second ApplyAndDispose() = %v", err)
	}
	if err := arr.Dispose(); !errors.Is(err, core.ErrAccessInvalidated) {
		t.Fatalf("Dispose() after apply = %v", err)
	}
}
