package mesh

// RenderMesh is a triangle mesh flattened for rendering collaborators.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type RenderMesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *RenderMesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *RenderMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *RenderMesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// RenderMesh flattens the builder into shared-vertex render arrays with
// smooth per-vertex normals. Vertex normals are computed on demand if they
// have not been already.
func (b *Builder) RenderMesh() *RenderMesh {
	if b.normals == nil && len(b.faces) > 0 {
		b.ComputeVertexNormals()
	}

	m := &RenderMesh{
		Vertices: make([]float32, 0, len(b.verts)*3),
		Normals:  make([]float32, 0, len(b.verts)*3),
		Indices:  make([]uint32, 0, len(b.faces)*3),
		Name:     b.name,
	}
	for i, p := range b.verts {
		m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		n := b.VertexNormal(i)
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, f := range b.faces {
		m.Indices = append(m.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	return m
}
