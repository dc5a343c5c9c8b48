// Package isosurface extracts a triangle mesh approximating the level set
// of a scalar field at a given threshold, using marching cubes.
package isosurface

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/voxmesh/voxmesh/pkg/mesh"
	"github.com/voxmesh/voxmesh/pkg/volume"
)

// ErrInvalidThreshold is returned when the iso threshold is NaN or infinite.
var ErrInvalidThreshold = errors.New("threshold must be finite")

// InterpolateFunc places a point on the segment p0-p1 for a factor t in
// [0,1]. Alternative easing curves can be passed to ExtractInterp as plain
// strategy values.
type InterpolateFunc func(p0, p1 v3.Vec, t float64) v3.Vec

// Lerp is the default linear interpolation strategy.
func Lerp(p0, p1 v3.Vec, t float64) v3.Vec {
	return p0.Add(p1.Sub(p0).MulScalar(t))
}

// Extract walks every cell of vol and appends the iso-surface triangles at
// threshold iso to b. The extractor holds no state of its own: vol is
// read-only for the duration of the call and b is owned by the caller.
//
// Classification uses strict less-than: a corner counts as inside only when
// its value < iso. A sample exactly equal to the threshold is outside, so a
// field that equals the threshold everywhere yields an empty mesh. The same
// orientation drives the interpolation clamp, which keeps adjacent cells
// agreeing on shared edges.
//
// Output is deterministic: cells are visited z-outer, y-middle, x-inner,
// and triangles within a cell follow the case table order, so repeated runs
// produce identical vertex and face lists.
func Extract(vol *volume.Volume, iso float64, b *mesh.Builder) error {
	return ExtractInterp(vol, iso, b, Lerp)
}

// ExtractInterp is Extract with an explicit edge interpolation strategy.
func ExtractInterp(vol *volume.Volume, iso float64, b *mesh.Builder, interp InterpolateFunc) error {
	if math.IsNaN(iso) || math.IsInf(iso, 0) {
		return fmt.Errorf("iso %v: %w", iso, ErrInvalidThreshold)
	}

	nx, ny, nz := vol.Dim()
	data := vol.Data()

	var (
		val      [8]float64
		corner   [8]v3.Vec
		crossing [12]v3.Vec
	)

	for z := 0; z < nz-1; z++ {
		for y := 0; y < ny-1; y++ {
			for x := 0; x < nx-1; x++ {
				caseIndex := 0
				for i, off := range cubeVertexOffset {
					val[i] = float64(data[vol.Index(x+off[0], y+off[1], z+off[2])])
					if val[i] < iso {
						caseIndex |= 1 << i
					}
				}

				// Fully inside or fully outside, nothing crosses.
				edges := edgeTable[caseIndex]
				if edges == 0 {
					continue
				}

				for i, off := range cubeVertexOffset {
					corner[i] = vol.Position(x+off[0], y+off[1], z+off[2])
				}
				for e := 0; e < 12; e++ {
					if edges&(1<<e) != 0 {
						c0, c1 := edgeConnection[e][0], edgeConnection[e][1]
						crossing[e] = interp(corner[c0], corner[c1], crossFactor(val[c0], val[c1], iso))
					}
				}

				tri := &triangleTable[caseIndex]
				for t := 0; tri[t] != -1; t += 3 {
					b.AddFace(crossing[tri[t]], crossing[tri[t+1]], crossing[tri[t+2]])
				}
			}
		}
	}
	return nil
}

// crossFactor returns the position of the iso crossing between two corner
// values, clamped to [0,1] so near-equal corner values cannot push the
// crossing outside the edge.
func crossFactor(v0, v1, iso float64) float64 {
	den := v1 - v0
	t := 0.0
	if den != 0 {
		t = (iso - v0) / den
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t
}
