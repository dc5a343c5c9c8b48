// Package volume provides a dense regular-grid scalar field. A Volume owns
// a flat array of float32 samples with fixed dimensions; generators fill it,
// the iso-surface extractor reads it.
package volume

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sealed is the sentinel written to the six boundary planes by CloseSides.
// It sits far below any usable threshold so the extracted surface closes at
// the grid edges instead of leaving an open boundary.
const Sealed float32 = -1e9

var (
	// ErrInvalidDimension is returned when a grid axis has fewer than two
	// samples (a marching-cubes cell needs two samples per axis).
	ErrInvalidDimension = errors.New("dimension must be at least 2")

	// ErrIndexOutOfRange is returned by bounds-checked sample access.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Volume is a regular 3D grid of scalar samples with a physical extent.
// The grid is centered on the origin: sample (0,0,0) sits at -extent/2 and
// sample (nx-1,ny-1,nz-1) at +extent/2.
//
// Samples are stored x-fastest: index = x + y*nx + z*nx*ny.
type Volume struct {
	nx, ny, nz int
	size       v3.Vec
	voxel      v3.Vec // world distance between adjacent samples per axis
	half       v3.Vec
	data       []float32
}

// New allocates a zero-filled volume with the given sample counts and
// physical extent. Every axis needs at least 2 samples.
func New(nx, ny, nz int, size v3.Vec) (*Volume, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil, fmt.Errorf("volume %dx%dx%d: %w", nx, ny, nz, ErrInvalidDimension)
	}
	return &Volume{
		nx:   nx,
		ny:   ny,
		nz:   nz,
		size: size,
		voxel: v3.Vec{
			X: size.X / float64(nx-1),
			Y: size.Y / float64(ny-1),
			Z: size.Z / float64(nz-1),
		},
		half: size.MulScalar(0.5),
		data: make([]float32, nx*ny*nz),
	}, nil
}

// Dim returns the sample counts along each axis.
func (v *Volume) Dim() (nx, ny, nz int) {
	return v.nx, v.ny, v.nz
}

// Size returns the physical extent of the volume.
func (v *Volume) Size() v3.Vec {
	return v.size
}

// Index returns the flat index of sample (x, y, z). The coordinates are not
// checked; combine with Data for bulk access on hot paths.
func (v *Volume) Index(x, y, z int) int {
	return x + y*v.nx + z*v.nx*v.ny
}

// Data exposes the flat backing array for bulk population by generators.
// The volume retains ownership; the slice aliases its storage.
func (v *Volume) Data() []float32 {
	return v.data
}

func (v *Volume) check(x, y, z int) error {
	if x < 0 || x >= v.nx {
		return fmt.Errorf("x index %d outside [0,%d): %w", x, v.nx, ErrIndexOutOfRange)
	}
	if y < 0 || y >= v.ny {
		return fmt.Errorf("y index %d outside [0,%d): %w", y, v.ny, ErrIndexOutOfRange)
	}
	if z < 0 || z >= v.nz {
		return fmt.Errorf("z index %d outside [0,%d): %w", z, v.nz, ErrIndexOutOfRange)
	}
	return nil
}

// Get returns the sample at (x, y, z), bounds-checked.
func (v *Volume) Get(x, y, z int) (float32, error) {
	if err := v.check(x, y, z); err != nil {
		return 0, err
	}
	return v.data[v.Index(x, y, z)], nil
}

// Set stores a sample at (x, y, z), bounds-checked.
func (v *Volume) Set(x, y, z int, value float32) error {
	if err := v.check(x, y, z); err != nil {
		return err
	}
	v.data[v.Index(x, y, z)] = value
	return nil
}

// Position returns the world position of sample (x, y, z).
func (v *Volume) Position(x, y, z int) v3.Vec {
	return v3.Vec{
		X: float64(x)*v.voxel.X - v.half.X,
		Y: float64(y)*v.voxel.Y - v.half.Y,
		Z: float64(z)*v.voxel.Z - v.half.Z,
	}
}

// CloseSides overwrites all samples on the six boundary planes with Sealed
// so that any iso-surface above Sealed closes at the grid edges. Idempotent.
func (v *Volume) CloseSides() {
	nx, ny, nz := v.nx, v.ny, v.nz
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if x == 0 || x == nx-1 || y == 0 || y == ny-1 || z == 0 || z == nz-1 {
					v.data[v.Index(x, y, z)] = Sealed
				}
			}
		}
	}
}
