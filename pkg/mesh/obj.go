package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteOBJ serializes the mesh as Wavefront OBJ text: one `v x y z` line per
// unique vertex in insertion order, then one `f i j k` line per face with
// 1-based indices.
func (b *Builder) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if b.name != "" {
		fmt.Fprintf(bw, "o %s\n", b.name)
	}
	for _, p := range b.verts {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	for _, f := range b.faces {
		fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: obj: %v", ErrExport, err)
	}
	return nil
}

// SaveOBJ writes the mesh to a file, closing it on every exit path.
func (b *Builder) SaveOBJ(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	if err := b.WriteOBJ(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}
