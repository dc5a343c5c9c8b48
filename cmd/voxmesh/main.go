// Command voxmesh extracts an iso-surface triangle mesh from a scalar
// volume and writes it as binary STL or OBJ. The volume comes from either a
// built-in demo field or a Lisp scene script evaluated by pkg/engine.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/voxmesh/voxmesh/pkg/engine"
	"github.com/voxmesh/voxmesh/pkg/generate"
	"github.com/voxmesh/voxmesh/pkg/isosurface"
	"github.com/voxmesh/voxmesh/pkg/mesh"
	"github.com/voxmesh/voxmesh/pkg/volume"
)

func main() {
	var (
		scriptPath string
		demo       string
		dim        int
		iso        float64
		output     string
		format     string
	)
	flag.StringVar(&scriptPath, "script", "", "scene script to evaluate")
	flag.StringVar(&demo, "demo", "sphere", "built-in demo field: sphere, metaballs or noise")
	flag.IntVar(&dim, "dim", 64, "samples per axis for demo fields")
	flag.Float64Var(&iso, "iso", 0, "iso threshold for demo fields")
	flag.StringVar(&output, "o", "out.stl", "output file")
	flag.StringVar(&format, "format", "", "output format (stl or obj), default from file extension")
	flag.Parse()

	vol, threshold, err := buildScene(scriptPath, demo, dim, iso)
	if err != nil {
		log.Fatal(err)
	}

	nx, ny, nz := vol.Dim()
	log.Printf("volume %dx%dx%d, iso %g", nx, ny, nz, threshold)

	name := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	b := mesh.NewBuilder(name)

	start := time.Now()
	if err := isosurface.Extract(vol, threshold, b); err != nil {
		log.Fatal(err)
	}
	log.Printf("extracted %d faces / %d vertices in %s",
		b.FaceCount(), b.VertexCount(), time.Since(start))

	if err := save(b, output, format); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", output)
}

// buildScene produces the volume and threshold to extract, from a script
// file when given, otherwise from a named demo field.
func buildScene(scriptPath, demo string, dim int, iso float64) (*volume.Volume, float64, error) {
	if scriptPath != "" {
		source, err := os.ReadFile(scriptPath)
		if err != nil {
			return nil, 0, err
		}
		scene, evalErrs, err := engine.NewEngine().Evaluate(string(source))
		if err != nil {
			return nil, 0, err
		}
		if len(evalErrs) > 0 {
			for _, e := range evalErrs {
				log.Printf("%s: %s", scriptPath, e.Error())
			}
			return nil, 0, fmt.Errorf("%s: %d error(s)", scriptPath, len(evalErrs))
		}
		return scene.Volume, scene.Iso, nil
	}

	vol, err := volume.New(dim, dim, dim, v3.Vec{X: 1, Y: 1, Z: 1})
	if err != nil {
		return nil, 0, err
	}

	switch demo {
	case "sphere":
		sphere, err := sdf.Sphere3D(0.4)
		if err != nil {
			return nil, 0, err
		}
		generate.FromSDF(vol, sphere)

	case "metaballs":
		generate.Metaballs(vol, []generate.Ball{
			{Center: v3.Vec{X: -0.15}, Radius: 0.1, Strength: 1},
			{Center: v3.Vec{X: 0.15}, Radius: 0.1, Strength: 1},
			{Center: v3.Vec{Y: 0.2}, Radius: 0.08, Strength: 1},
		})
		if iso == 0 {
			iso = 1
		}

	case "noise":
		generate.SimplexNoise(vol, 42, 4)
		vol.CloseSides()

	default:
		return nil, 0, fmt.Errorf("unknown demo %q", demo)
	}
	return vol, iso, nil
}

// save writes the mesh in the requested format, inferring it from the
// output extension when not set explicitly.
func save(b *mesh.Builder, output, format string) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	switch format {
	case "stl":
		return b.SaveBinarySTL(output)
	case "obj":
		return b.SaveOBJ(output)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
