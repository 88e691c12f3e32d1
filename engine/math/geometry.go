package math

// GeometryGenerateNormals returns smoothed vertex normals for an indexed triangle list.
// Face normals are accumulated per vertex and then normalized.
func GeometryGenerateNormals(positions []Vec3, indices []uint32) []Vec3 {
	normals := make([]Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i+0], indices[i+1], indices[i+2]
		if int(i0) >= len(positions) || int(i1) >= len(positions) || int(i2) >= len(positions) {
			continue
		}
		edge1 := positions[i1].Sub(positions[i0])
		edge2 := positions[i2].Sub(positions[i0])
		face := edge1.Cross(edge2)

		normals[i0] = normals[i0].Add(face)
		normals[i1] = normals[i1].Add(face)
		normals[i2] = normals[i2].Add(face)
	}
	for i := range normals {
		normals[i] = normals[i].Normalized()
	}
	return normals
}
