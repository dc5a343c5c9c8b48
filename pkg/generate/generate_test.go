package generate_test

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/voxmesh/voxmesh/pkg/generate"
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

func TestFromSDFSignConvention(t *testing.T) {
	v := newVolume(t, 17)
	sphere, err := sdf.Sphere3D(0.3)
	if err != nil {
		t.Fatal(err)
	}
	generate.FromSDF(v, sphere)

	center, err := v.Get(8, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if center <= 0 {
		t.Errorf("inside sample = %g, want positive", center)
	}
	corner, err := v.Get(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if corner >= 0 {
		t.Errorf("outside sample = %g, want negative", corner)
	}
}

func TestMetaballsAccumulate(t *testing.T) {
	v := newVolume(t, 9)
	ball := []generate.Ball{{Center: v3.Vec{}, Radius: 0.2, Strength: 1}}
	generate.Metaballs(v, ball)
	once, err := v.Get(4, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	generate.Metaballs(v, ball)
	twice, err := v.Get(4, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if twice <= once {
		t.Errorf("second pass did not accumulate: %g then %g", once, twice)
	}

	// Field decays away from the charge.
	far, err := v.Get(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if far >= twice {
		t.Errorf("field at corner %g not below field at center %g", far, twice)
	}
}

func TestSimplexNoiseDeterministicBySeed(t *testing.T) {
	a := newVolume(t, 8)
	b := newVolume(t, 8)
	c := newVolume(t, 8)
	generate.SimplexNoise(a, 1, 4)
	generate.SimplexNoise(b, 1, 4)
	generate.SimplexNoise(c, 2, 4)

	same := true
	differs := false
	for i := range a.Data() {
		if a.Data()[i] != b.Data()[i] {
			same = false
		}
		if a.Data()[i] != c.Data()[i] {
			differs = true
		}
	}
	if !same {
		t.Error("same seed produced different fields")
	}
	if !differs {
		t.Error("different seeds produced identical fields")
	}

	for i, s := range a.Data() {
		if math.IsNaN(float64(s)) || s < -1.5 || s > 1.5 {
			t.Fatalf("sample %d = %g outside plausible noise range", i, s)
		}
	}
}

func TestSolidSphere(t *testing.T) {
	v := newVolume(t, 9)
	generate.SolidSphere(v, v3.Vec{}, 0.25, 1)

	center, err := v.Get(4, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if center != 1 {
		t.Errorf("center = %g, want 1", center)
	}
	corner, err := v.Get(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if corner != 0 {
		t.Errorf("corner = %g, want untouched 0", corner)
	}
}

func TestSolidBox(t *testing.T) {
	v := newVolume(t, 9)
	generate.SolidBox(v, v3.Vec{X: -0.2, Y: -0.2, Z: -0.2}, v3.Vec{X: 0.2, Y: 0.2, Z: 0.2}, 2)

	center, err := v.Get(4, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if center != 2 {
		t.Errorf("center = %g, want 2", center)
	}
	edge, err := v.Get(8, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if edge != 0 {
		t.Errorf("outside sample = %g, want 0", edge)
	}
}
