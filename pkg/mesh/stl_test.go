package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// tetrahedron builds a small closed mesh with four faces.
func tetrahedron(name string) *Builder {
	b := NewBuilder(name)
	p0 := v3.Vec{X: 0, Y: 0, Z: 0}
	p1 := v3.Vec{X: 1, Y: 0, Z: 0}
	p2 := v3.Vec{X: 0, Y: 1, Z: 0}
	p3 := v3.Vec{X: 0, Y: 0, Z: 1}
	b.AddFace(p0, p2, p1)
	b.AddFace(p0, p1, p3)
	b.AddFace(p0, p3, p2)
	b.AddFace(p1, p2, p3)
	return b
}

func TestWriteBinarySTLLayout(t *testing.T) {
	b := tetrahedron("tetra")
	var buf bytes.Buffer
	if err := b.WriteBinarySTL(&buf); err != nil {
		t.Fatal(err)
	}

	want := 80 + 4 + b.FaceCount()*50
	if buf.Len() != want {
		t.Fatalf("stl length = %d, want %d", buf.Len(), want)
	}

	data := buf.Bytes()
	if !strings.HasPrefix(string(data[:80]), "tetra") {
		t.Error("header does not carry the mesh name")
	}
	count := binary.LittleEndian.Uint32(data[80:])
	if int(count) != b.FaceCount() {
		t.Errorf("triangle count = %d, want %d", count, b.FaceCount())
	}
	// Attribute bytes of the first record are zero.
	if data[84+48] != 0 || data[84+49] != 0 {
		t.Error("attribute field not zeroed")
	}
}

func TestSTLRoundTrip(t *testing.T) {
	b := tetrahedron("round-trip")
	var buf bytes.Buffer
	if err := b.WriteBinarySTL(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := ReadBinarySTL(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name() != "round-trip" {
		t.Errorf("Name() = %q, want %q", got.Name(), "round-trip")
	}
	if got.FaceCount() != b.FaceCount() {
		t.Fatalf("FaceCount() = %d, want %d", got.FaceCount(), b.FaceCount())
	}
	if got.VertexCount() != b.VertexCount() {
		t.Fatalf("VertexCount() = %d, want %d", got.VertexCount(), b.VertexCount())
	}
	for i := 0; i < b.FaceCount(); i++ {
		w0, w1, w2 := b.FaceVertices(i)
		g0, g1, g2 := got.FaceVertices(i)
		for j, pair := range [][2]v3.Vec{{w0, g0}, {w1, g1}, {w2, g2}} {
			d := pair[0].Sub(pair[1])
			// Positions survive within float32 precision.
			if d.Length() > 1e-6 {
				t.Errorf("face %d corner %d drifted by %g", i, j, d.Length())
			}
		}
	}
}

func TestSTLFaceNormalsRecomputed(t *testing.T) {
	b := NewBuilder("n")
	b.AddFace(v3.Vec{}, v3.Vec{X: 1}, v3.Vec{Y: 1})
	var buf bytes.Buffer
	if err := b.WriteBinarySTL(&buf); err != nil {
		t.Fatal(err)
	}
	rec := buf.Bytes()[84:]
	nz := math.Float32frombits(binary.LittleEndian.Uint32(rec[8:]))
	if nz != 1 {
		t.Errorf("exported normal z = %g, want 1", nz)
	}
}

func TestReadBinarySTLTruncated(t *testing.T) {
	b := tetrahedron("trunc")
	var buf bytes.Buffer
	if err := b.WriteBinarySTL(&buf); err != nil {
		t.Fatal(err)
	}
	cut := buf.Bytes()[:buf.Len()-10]
	if _, err := ReadBinarySTL(bytes.NewReader(cut)); err == nil {
		t.Error("expected error for truncated stream")
	}
}

// failWriter fails after n bytes to exercise write-error propagation.
type failWriter struct {
	n int
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errShort
	}
	if len(p) > w.n {
		n := w.n
		w.n = 0
		return n, errShort
	}
	w.n -= len(p)
	return len(p), nil
}

var errShort = &shortError{}

type shortError struct{}

func (*shortError) Error() string { return "short write" }

func TestWriteBinarySTLPropagatesError(t *testing.T) {
	b := tetrahedron("fail")
	tests := []struct {
		name  string
		limit int
	}{
		{"header", 10},
		{"count", 81},
		{"record", 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.WriteBinarySTL(&failWriter{n: tt.limit})
			if !errors.Is(err, ErrExport) {
				t.Fatalf("error = %v, want ErrExport", err)
			}
		})
	}
}

func TestSaveBinarySTLBadPath(t *testing.T) {
	b := tetrahedron("bad")
	err := b.SaveBinarySTL("/nonexistent-dir/never/out.stl")
	if !errors.Is(err, ErrExport) {
		t.Fatalf("error = %v, want ErrExport", err)
	}
}
