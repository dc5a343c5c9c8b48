package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrExport wraps any failure to open or write an export destination.
var ErrExport = errors.New("export failed")

// stlRecordSize is the per-triangle record: normal, three vertices, and the
// unused attribute word.
const stlRecordSize = 4*3*4 + 2

// WriteBinarySTL serializes the mesh in little-endian binary STL: an 80-byte
// header carrying the mesh name, a uint32 triangle count, then one 50-byte
// record per face. Face normals are recomputed from the triangle's own
// corners at export time; stored vertex normals are not consulted.
func (b *Builder) WriteBinarySTL(w io.Writer) error {
	var header [80]byte
	copy(header[:], b.name)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("%w: stl header: %v", ErrExport, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b.faces))); err != nil {
		return fmt.Errorf("%w: stl count: %v", ErrExport, err)
	}

	rec := make([]byte, stlRecordSize)
	put := func(off int, v v3.Vec) {
		binary.LittleEndian.PutUint32(rec[off:], math.Float32bits(float32(v.X)))
		binary.LittleEndian.PutUint32(rec[off+4:], math.Float32bits(float32(v.Y)))
		binary.LittleEndian.PutUint32(rec[off+8:], math.Float32bits(float32(v.Z)))
	}
	for i := range b.faces {
		put(0, b.FaceNormal(i))
		p0, p1, p2 := b.FaceVertices(i)
		put(12, p0)
		put(24, p1)
		put(36, p2)
		rec[48], rec[49] = 0, 0
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("%w: stl triangle %d: %v", ErrExport, i, err)
		}
	}
	return nil
}

// SaveBinarySTL writes the mesh to a file, closing it on every exit path.
// A close failure after a clean write still propagates.
func (b *Builder) SaveBinarySTL(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	if err := b.WriteBinarySTL(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

// ReadBinarySTL parses a binary STL stream back into a Builder, deduping
// vertices the same way AddFace does. The mesh name is taken from the
// header, trimmed of padding.
func ReadBinarySTL(r io.Reader) (*Builder, error) {
	var header struct {
		Tag  [80]byte
		NTri uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read stl header: %w", err)
	}
	name := strings.TrimRight(string(header.Tag[:]), "\x00 ")

	b := NewBuilder(name)
	rec := make([]byte, stlRecordSize)
	get := func(off int) v3.Vec {
		return v3.Vec{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off:]))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+8:]))),
		}
	}
	for i := 0; i < int(header.NTri); i++ {
		if _, err := io.ReadFull(r, rec); err != nil {
			return nil, fmt.Errorf("read stl triangle %d: %w", i, err)
		}
		// Skip the stored normal; face normals are derived from geometry.
		b.AddFace(get(12), get(24), get(36))
	}
	return b, nil
}
