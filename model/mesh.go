package model

// Vec3 is a point or direction in model coordinates. Z is the vertical axis.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Mesh is a world-coordinate triangulated surface produced by the model
// backend for one entity. Triangle indices refer into Vertices.
type Mesh struct {
	Vertices  []Vec3
	Triangles [][3]int
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.Triangles)
}
