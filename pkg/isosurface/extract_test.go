package isosurface_test

import (
	"errors"
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/voxmesh/voxmesh/pkg/generate"
	"github.com/voxmesh/voxmesh/pkg/isosurface"
	"github.com/voxmesh/voxmesh/pkg/mesh"
	"github.com/voxmesh/voxmesh/pkg/volume"
)

func newVolume(t *testing.T, n int) *volume.Volume {
	t.Helper()
	v, err := volume.New(n, n, n, v3.Vec{X: 1, Y: 1, Z: 1})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func fill(v *volume.Volume, value float32) {
	data := v.Data()
	for i := range data {
		data[i] = value
	}
}

func extract(t *testing.T, v *volume.Volume, iso float64) *mesh.Builder {
	t.Helper()
	b := mesh.NewBuilder("test")
	if err := isosurface.Extract(v, iso, b); err != nil {
		t.Fatal(err)
	}
	return b
}

// edgeUseCounts maps each undirected mesh edge to the number of faces that
// reference it. A closed shell has every count equal to 2.
func edgeUseCounts(b *mesh.Builder) map[[2]int]int {
	counts := make(map[[2]int]int)
	for i := 0; i < b.FaceCount(); i++ {
		f := b.Face(i)
		for j := 0; j < 3; j++ {
			a, c := f[j], f[(j+1)%3]
			if a > c {
				a, c = c, a
			}
			counts[[2]int{a, c}]++
		}
	}
	return counts
}

func assertClosedShell(t *testing.T, b *mesh.Builder) {
	t.Helper()
	if b.FaceCount() == 0 {
		t.Fatal("expected a non-empty mesh")
	}
	for edge, n := range edgeUseCounts(b) {
		if n != 2 {
			t.Fatalf("edge %v shared by %d faces, want 2 (open or non-manifold shell)", edge, n)
		}
	}
}

func TestInvalidThreshold(t *testing.T) {
	v := newVolume(t, 4)
	for _, iso := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		b := mesh.NewBuilder("test")
		if err := isosurface.Extract(v, iso, b); !errors.Is(err, isosurface.ErrInvalidThreshold) {
			t.Errorf("Extract(iso=%v) error = %v, want ErrInvalidThreshold", iso, err)
		}
	}
}

func TestUniformFieldsYieldEmptyMesh(t *testing.T) {
	tests := []struct {
		name  string
		value float32
		iso   float64
	}{
		{"all below", 0, 0.5},
		{"all above", 1, 0.5},
		{"all exactly at threshold", 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVolume(t, 8)
			fill(v, tt.value)
			b := extract(t, v, tt.iso)
			if b.FaceCount() != 0 || b.VertexCount() != 0 {
				t.Errorf("got %d faces / %d vertices, want empty mesh",
					b.FaceCount(), b.VertexCount())
			}
		})
	}
}

// A single sample above threshold in a 4x4x4 field must produce a small
// closed surface around that sample.
func TestSingleCenterSample(t *testing.T) {
	v := newVolume(t, 4)
	if err := v.Set(1, 1, 1, 1); err != nil {
		t.Fatal(err)
	}
	b := extract(t, v, 0.5)
	if b.FaceCount() == 0 {
		t.Fatal("expected faces around the hot sample")
	}
	assertClosedShell(t, b)

	// All crossings surround the hot sample: a cube one voxel wide.
	min, max := b.BoundingBox()
	center := v.Position(1, 1, 1)
	if min.X < center.X-1.0/3.0-1e-9 || max.X > center.X+1.0/3.0+1e-9 {
		t.Errorf("surface extends past adjacent samples: bounds %v..%v", min, max)
	}
}

// A constant interior with sealed boundaries must extract as a closed box
// shell with no boundary edges.
func TestSealedConstantFieldClosedShell(t *testing.T) {
	v := newVolume(t, 8)
	fill(v, 1)
	v.CloseSides()
	b := extract(t, v, 0.5)
	assertClosedShell(t, b)
}

func TestDeterministicOutput(t *testing.T) {
	v := newVolume(t, 16)
	sphere, err := sdf.Sphere3D(0.35)
	if err != nil {
		t.Fatal(err)
	}
	generate.FromSDF(v, sphere)

	b1 := extract(t, v, 0)
	b2 := extract(t, v, 0)

	if b1.FaceCount() != b2.FaceCount() || b1.VertexCount() != b2.VertexCount() {
		t.Fatalf("runs differ: %d/%d faces, %d/%d vertices",
			b1.FaceCount(), b2.FaceCount(), b1.VertexCount(), b2.VertexCount())
	}
	for i := 0; i < b1.VertexCount(); i++ {
		if b1.Vertex(i) != b2.Vertex(i) {
			t.Fatalf("vertex %d differs between runs", i)
		}
	}
	for i := 0; i < b1.FaceCount(); i++ {
		if b1.Face(i) != b2.Face(i) {
			t.Fatalf("face %d differs between runs", i)
		}
	}
}

// Shared edges dedup: a sphere-like surface reuses most vertices, so the
// vertex count sits well below three per face.
func TestVertexDeduplication(t *testing.T) {
	v := newVolume(t, 32)
	sphere, err := sdf.Sphere3D(0.35)
	if err != nil {
		t.Fatal(err)
	}
	generate.FromSDF(v, sphere)

	b := extract(t, v, 0)
	if b.FaceCount() == 0 {
		t.Fatal("expected a sphere surface")
	}
	if b.VertexCount() > 3*b.FaceCount() {
		t.Fatalf("%d vertices exceed 3x %d faces", b.VertexCount(), b.FaceCount())
	}
	if b.VertexCount() > b.FaceCount() {
		// Closed triangle meshes approach V ~ F/2; anything near 3F means
		// dedup is broken.
		t.Errorf("dedup ineffective: %d vertices for %d faces", b.VertexCount(), b.FaceCount())
	}
}

// Noise fields exercise most of the 256 cases. Saddle cases in the classic
// table are not guaranteed manifold, so this only checks that the pass
// completes and produces plausible geometry within the grid.
func TestNoiseFieldSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("large field smoke test")
	}
	v := newVolume(t, 48)
	generate.SimplexNoise(v, 42, 4)
	v.CloseSides()
	b := extract(t, v, 0.2)
	if b.FaceCount() == 0 {
		t.Fatal("noise field at iso 0.2 should intersect the surface")
	}
	if b.VertexCount() > 3*b.FaceCount() {
		t.Fatalf("%d vertices exceed 3x %d faces", b.VertexCount(), b.FaceCount())
	}
}

// Interpolated crossings must sit strictly on cell edges between the two
// corner positions.
func TestCrossingsClampedToEdges(t *testing.T) {
	v := newVolume(t, 4)
	// Nearly equal corner values around the threshold provoke tiny
	// interpolation denominators.
	if err := v.Set(1, 1, 1, 0.5000001); err != nil {
		t.Fatal(err)
	}
	b := extract(t, v, 0.5)
	min, max := b.BoundingBox()
	lo := v.Position(0, 0, 0)
	hi := v.Position(3, 3, 3)
	if min.X < lo.X || min.Y < lo.Y || min.Z < lo.Z ||
		max.X > hi.X || max.Y > hi.Y || max.Z > hi.Z {
		t.Errorf("crossing escaped the grid: %v..%v", min, max)
	}
}

func TestExtractInterpStrategy(t *testing.T) {
	v := newVolume(t, 4)
	if err := v.Set(1, 1, 1, 1); err != nil {
		t.Fatal(err)
	}

	def := mesh.NewBuilder("default")
	if err := isosurface.Extract(v, 0.25, def); err != nil {
		t.Fatal(err)
	}

	// Forcing every crossing to the edge midpoint pulls the octahedron
	// around the hot sample tighter than the linear crossings at iso 0.25.
	mid := func(p0, p1 v3.Vec, _ float64) v3.Vec { return isosurface.Lerp(p0, p1, 0.5) }
	b := mesh.NewBuilder("midpoint")
	if err := isosurface.ExtractInterp(v, 0.25, b, mid); err != nil {
		t.Fatal(err)
	}
	if b.FaceCount() != def.FaceCount() {
		t.Fatalf("strategy changed topology: got %d faces, want %d", b.FaceCount(), def.FaceCount())
	}
	dmin, dmax := def.BoundingBox()
	mmin, mmax := b.BoundingBox()
	if mmax.X-mmin.X >= dmax.X-dmin.X {
		t.Errorf("midpoint span %v not tighter than linear span %v", mmax.X-mmin.X, dmax.X-dmin.X)
	}

	p0 := v3.Vec{X: 1, Y: 0, Z: 0}
	p1 := v3.Vec{X: 3, Y: 4, Z: 0}
	got := isosurface.Lerp(p0, p1, 0.5)
	want := v3.Vec{X: 2, Y: 2, Z: 0}
	if got != want {
		t.Errorf("Lerp midpoint: got %v, want %v", got, want)
	}
}

func BenchmarkExtractSphere(b *testing.B) {
	v, err := volume.New(64, 64, 64, v3.Vec{X: 1, Y: 1, Z: 1})
	if err != nil {
		b.Fatal(err)
	}
	sphere, err := sdf.Sphere3D(0.4)
	if err != nil {
		b.Fatal(err)
	}
	generate.FromSDF(v, sphere)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := mesh.NewBuilder("bench")
		if err := isosurface.Extract(v, 0, m); err != nil {
			b.Fatal(err)
		}
	}
}
