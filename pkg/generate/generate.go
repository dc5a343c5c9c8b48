// Package generate fills scalar volumes with sample data: signed-distance
// solids, metaballs, simplex noise, and simple analytic shapes. The
// extractor is agnostic to how a field was produced; everything here just
// writes through the volume's flat array.
package generate

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/voxmesh/voxmesh/pkg/volume"
)

// FromSDF samples a signed-distance solid at every grid position. The sign
// is flipped so the inside of the solid is positive: extracting at iso 0
// recovers the solid's surface.
func FromSDF(vol *volume.Volume, s sdf.SDF3) {
	nx, ny, nz := vol.Dim()
	data := vol.Data()
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				data[vol.Index(x, y, z)] = float32(-s.Evaluate(vol.Position(x, y, z)))
			}
		}
	}
}

// Ball is one metaball charge.
type Ball struct {
	Center   v3.Vec
	Radius   float64
	Strength float64
}

// Metaballs adds the classic inverse-square falloff field of each ball to
// the volume. Existing samples are accumulated into, not replaced, so
// successive calls compose.
func Metaballs(vol *volume.Volume, balls []Ball) {
	nx, ny, nz := vol.Dim()
	data := vol.Data()
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				p := vol.Position(x, y, z)
				var sum float64
				for _, b := range balls {
					d2 := p.Sub(b.Center).Length2()
					r2 := b.Radius * b.Radius
					if d2 < 1e-12 {
						d2 = 1e-12
					}
					sum += b.Strength * r2 / d2
				}
				data[vol.Index(x, y, z)] += float32(sum)
			}
		}
	}
}

// SimplexNoise fills the volume with 3D OpenSimplex noise in roughly
// [-1, 1]. scale is the number of noise periods across the volume.
func SimplexNoise(vol *volume.Volume, seed int64, scale float64) {
	noise := opensimplex.New(seed)
	nx, ny, nz := vol.Dim()
	data := vol.Data()
	for z := 0; z < nz; z++ {
		fz := scale * float64(z) / float64(nz-1)
		for y := 0; y < ny; y++ {
			fy := scale * float64(y) / float64(ny-1)
			for x := 0; x < nx; x++ {
				fx := scale * float64(x) / float64(nx-1)
				data[vol.Index(x, y, z)] = float32(noise.Eval3(fx, fy, fz))
			}
		}
	}
}

// SolidSphere sets every sample within radius of center to value.
func SolidSphere(vol *volume.Volume, center v3.Vec, radius float64, value float32) {
	nx, ny, nz := vol.Dim()
	data := vol.Data()
	r2 := radius * radius
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if vol.Position(x, y, z).Sub(center).Length2() <= r2 {
					data[vol.Index(x, y, z)] = value
				}
			}
		}
	}
}

// SolidBox sets every sample inside the axis-aligned box to value.
func SolidBox(vol *volume.Volume, min, max v3.Vec, value float32) {
	nx, ny, nz := vol.Dim()
	data := vol.Data()
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				p := vol.Position(x, y, z)
				if p.X >= min.X && p.X <= max.X &&
					p.Y >= min.Y && p.Y <= max.Y &&
					p.Z >= min.Z && p.Z <= max.Z {
					data[vol.Index(x, y, z)] = value
				}
			}
		}
	}
}
