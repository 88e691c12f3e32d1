package assets

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/g3n/engine/loader/obj"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/mesh"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// objIndex points into the position, uv and normal lists; -1 when absent.
type objIndex struct {
	v, vt, vn int
}

type objGroup struct {
	material string
	faces    [][]objIndex
}

type objData struct {
	positions []math.Vec3
	uvs       []math.Vec2
	normals   []math.Vec3
	groups    []*objGroup
}

// decodeOBJ reads the model with the g3n decoder and checks every face
// index against the decoded lists. Faces are grouped by material in the
// order the materials first appear.
func decodeOBJ(data []byte) (*objData, error) {
	dec, err := obj.DecodeReader(bytes.NewReader(data), bytes.NewReader(nil))
	if err != nil {
		return nil, core.InvalidArgument("cannot decode model: %s", err)
	}
	for _, w := range dec.Warnings {
		core.LogDebug("obj: %s", w)
	}

	d := &objData{
		positions: make([]math.Vec3, len(dec.Vertices)/3),
		uvs:       make([]math.Vec2, len(dec.Uvs)/2),
		normals:   make([]math.Vec3, len(dec.Normals)/3),
	}
	if len(d.positions) == 0 {
		return nil, core.InvalidArgument("model has no vertices")
	}
	for i := range d.positions {
		d.positions[i] = math.NewVec3(dec.Vertices[i*3], dec.Vertices[i*3+1], dec.Vertices[i*3+2])
	}
	for i := range d.uvs {
		d.uvs[i] = math.NewVec2(dec.Uvs[i*2], dec.Uvs[i*2+1])
	}
	for i := range d.normals {
		d.normals[i] = math.NewVec3(dec.Normals[i*3], dec.Normals[i*3+1], dec.Normals[i*3+2])
	}

	groups := make(map[string]*objGroup)
	for _, o := range dec.Objects {
		for n, f := range o.Faces {
			if len(f.Vertices) < 3 {
				return nil, core.InvalidArgument("object %s face %d has %d vertices", o.Name, n, len(f.Vertices))
			}
			face := make([]objIndex, len(f.Vertices))
			for i := range f.Vertices {
				if face[i], err = d.index(f, i); err != nil {
					return nil, core.InvalidArgument("object %s face %d: %s", o.Name, n, err)
				}
			}
			g, ok := groups[f.Material]
			if !ok {
				g = &objGroup{material: f.Material}
				groups[f.Material] = g
				d.groups = append(d.groups, g)
			}
			g.faces = append(g.faces, face)
		}
	}
	return d, nil
}

// index resolves corner i of f. The decoder leaves missing uv and normal
// references past the end of their lists, so those read as absent.
func (d *objData) index(f obj.Face, i int) (objIndex, error) {
	idx := objIndex{v: f.Vertices[i], vt: -1, vn: -1}
	if idx.v < 0 || idx.v >= len(d.positions) {
		return idx, fmt.Errorf("position %d outside 1..%d", idx.v+1, len(d.positions))
	}
	if i < len(f.Uvs) {
		if vt := f.Uvs[i]; vt < 0 {
			return idx, fmt.Errorf("uv %d before the first uv", vt+1)
		} else if vt < len(d.uvs) {
			idx.vt = vt
		}
	}
	if i < len(f.Normals) {
		if vn := f.Normals[i]; vn < 0 {
			return idx, fmt.Errorf("normal %d before the first normal", vn+1)
		} else if vn < len(d.normals) {
			idx.vn = vn
		}
	}
	return idx, nil
}

/** @brief A mesh with one submesh per OBJ material. */
type ModelAsset struct {
	Mesh *mesh.Mesh
	// Materials holds the material name of every submesh as reported by the decoder.
	Materials []string
}

func (ma *ModelAsset) Destroy() error {
	return ma.Mesh.Destroy()
}

/**
 * @brief Builds a mesh from the Wavefront OBJ asset name. Polygons are
 * triangulated as fans; normals are generated when the file has none.
 */
func (am *Manager) LoadMesh(name string) (*ModelAsset, error) {
	data, err := am.read(name, KindModel)
	if err != nil {
		return nil, err
	}
	model, err := decodeOBJ(data)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}
	m, err := mesh.New(am.backend)
	if err != nil {
		return nil, err
	}
	m.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	ma := &ModelAsset{Mesh: m}
	if err := ma.build(model); err != nil {
		return nil, errors.Join(fmt.Errorf("asset %q: %w", name, err), m.Destroy())
	}
	core.LogDebug("mesh %q loaded from %s (%d vertices, %d submeshes)", m.Name, name, m.VertexCount(), m.SubMeshCount())
	return ma, nil
}

func (ma *ModelAsset) build(model *objData) error {
	var (
		positions []math.Vec3
		uvs       []math.Vec2
		normals   []math.Vec3
		hasUV     = len(model.uvs) > 0
		hasNormal = len(model.normals) > 0
		remap     = make(map[objIndex]int32)
		triangles = make([][]int32, 0, len(model.groups))
	)
	for _, g := range model.groups {
		var tris []int32
		for _, face := range g.faces {
			ids := make([]int32, len(face))
			for i, idx := range face {
				id, ok := remap[idx]
				if !ok {
					id = int32(len(positions))
					remap[idx] = id
					positions = append(positions, model.positions[idx.v])
					if hasUV {
						var uv math.Vec2
						if idx.vt >= 0 {
							uv = model.uvs[idx.vt]
						}
						uvs = append(uvs, uv)
					}
					if hasNormal {
						var n math.Vec3
						if idx.vn >= 0 {
							n = model.normals[idx.vn]
						}
						normals = append(normals, n)
					}
				}
				ids[i] = id
			}
			for i := 1; i+1 < len(ids); i++ {
				tris = append(tris, ids[0], ids[i], ids[i+1])
			}
		}
		triangles = append(triangles, tris)
		ma.Materials = append(ma.Materials, g.material)
	}
	if len(triangles) == 0 {
		return core.InvalidArgument("model has no faces")
	}

	m := ma.Mesh
	if len(positions) > metadata.MaxUInt16Vertices {
		if err := m.SetIndexFormat(metadata.IndexFormatUInt32); err != nil {
			return err
		}
	}
	if err := m.SetVertices(positions); err != nil {
		return err
	}
	if hasUV {
		if err := m.SetUVs(0, uvs); err != nil {
			return err
		}
	}
	if hasNormal {
		if err := m.SetNormals(normals); err != nil {
			return err
		}
	}
	if err := m.SetSubMeshCount(len(triangles)); err != nil {
		return err
	}
	for i, tris := range triangles {
		if err := m.SetTriangles(tris, i); err != nil {
			return err
		}
	}
	if !hasNormal {
		return m.RecalculateNormals()
	}
	return nil
}
