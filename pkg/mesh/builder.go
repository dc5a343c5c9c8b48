// Package mesh provides an indexed triangle mesh. Faces reference deduped
// vertices; the mesh can be exported as binary STL, textual OBJ, or flat
// render arrays.
package mesh

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Precision is the vertex dedup quantization step in world units. Two points
// whose coordinates round to the same 1e-6 lattice cell share one stored
// vertex. Crossings computed on a shared cell edge are bit-identical, so the
// tolerance only has to absorb float noise; it must stay well below half a
// voxel or distinct crossings would merge and tear the surface.
const Precision = 1e-6

// vertexKey is the quantized-coordinate dedup key.
type vertexKey [3]int64

func keyFor(p v3.Vec) vertexKey {
	return vertexKey{
		int64(math.Round(p.X / Precision)),
		int64(math.Round(p.Y / Precision)),
		int64(math.Round(p.Z / Precision)),
	}
}

// Builder accumulates an indexed triangle mesh. It grows monotonically:
// vertices and faces are only ever appended. Not safe for concurrent use;
// one extraction pass owns one Builder.
type Builder struct {
	name    string
	verts   []v3.Vec
	normals []v3.Vec // per-vertex, populated by ComputeVertexNormals
	faces   [][3]int
	lookup  map[vertexKey]int
}

// NewBuilder returns an empty mesh with the given name. The name is embedded
// in the STL header and OBJ object line.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:   name,
		lookup: make(map[vertexKey]int),
	}
}

// Name returns the mesh identifier.
func (b *Builder) Name() string {
	return b.name
}

// vertexIndex returns the index for p, inserting a new vertex if no stored
// vertex matches within Precision.
func (b *Builder) vertexIndex(p v3.Vec) int {
	k := keyFor(p)
	if i, ok := b.lookup[k]; ok {
		return i
	}
	i := len(b.verts)
	b.verts = append(b.verts, p)
	b.lookup[k] = i
	return i
}

// AddFace appends a triangle over the three points, deduplicating vertices.
// Faces whose corners collapse to fewer than three distinct vertices are
// zero-area by construction and are dropped.
func (b *Builder) AddFace(p0, p1, p2 v3.Vec) {
	i0 := b.vertexIndex(p0)
	i1 := b.vertexIndex(p1)
	i2 := b.vertexIndex(p2)
	if i0 == i1 || i1 == i2 || i2 == i0 {
		return
	}
	b.faces = append(b.faces, [3]int{i0, i1, i2})
}

// FaceCount returns the number of triangles.
func (b *Builder) FaceCount() int {
	return len(b.faces)
}

// VertexCount returns the number of unique vertices.
func (b *Builder) VertexCount() int {
	return len(b.verts)
}

// Vertex returns vertex i.
func (b *Builder) Vertex(i int) v3.Vec {
	return b.verts[i]
}

// Face returns the vertex indices of face i.
func (b *Builder) Face(i int) [3]int {
	return b.faces[i]
}

// FaceVertices returns the corner positions of face i in winding order.
func (b *Builder) FaceVertices(i int) (p0, p1, p2 v3.Vec) {
	f := b.faces[i]
	return b.verts[f[0]], b.verts[f[1]], b.verts[f[2]]
}

// FaceNormal returns the unit normal of face i, computed from its own
// corners as (p1-p0)x(p2-p0). Degenerate faces yield the zero vector.
func (b *Builder) FaceNormal(i int) v3.Vec {
	p0, p1, p2 := b.FaceVertices(i)
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if n.Length() == 0 {
		return v3.Vec{}
	}
	return n.Normalize()
}

// ComputeVertexNormals derives a normal per vertex as the normalized sum of
// the face normals of every face referencing it. Call after the mesh is
// fully built; rebuilds from scratch each time.
func (b *Builder) ComputeVertexNormals() {
	b.normals = make([]v3.Vec, len(b.verts))
	for i := range b.faces {
		n := b.FaceNormal(i)
		for _, vi := range b.faces[i] {
			b.normals[vi] = b.normals[vi].Add(n)
		}
	}
	for i := range b.normals {
		if b.normals[i].Length() != 0 {
			b.normals[i] = b.normals[i].Normalize()
		}
	}
}

// VertexNormal returns the normal of vertex i. Zero until
// ComputeVertexNormals has run.
func (b *Builder) VertexNormal(i int) v3.Vec {
	if b.normals == nil {
		return v3.Vec{}
	}
	return b.normals[i]
}

// BoundingBox returns the axis-aligned bounds of all vertices. Both corners
// are zero for an empty mesh.
func (b *Builder) BoundingBox() (min, max v3.Vec) {
	if len(b.verts) == 0 {
		return v3.Vec{}, v3.Vec{}
	}
	min, max = b.verts[0], b.verts[0]
	for _, p := range b.verts[1:] {
		min = min.Min(p)
		max = max.Max(p)
	}
	return min, max
}
