package volume

import (
	"errors"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func unitCube() v3.Vec {
	return v3.Vec{X: 1, Y: 1, Z: 1}
}

func TestNewDimensionValidation(t *testing.T) {
	tests := []struct {
		name       string
		nx, ny, nz int
		wantErr    bool
	}{
		{"minimal", 2, 2, 2, false},
		{"typical", 64, 32, 16, false},
		{"x too small", 1, 4, 4, true},
		{"y too small", 4, 1, 4, true},
		{"z too small", 4, 4, 0, true},
		{"negative", -3, 4, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.nx, tt.ny, tt.nz, unitCube())
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDimension) {
					t.Fatalf("New(%d,%d,%d) error = %v, want ErrInvalidDimension",
						tt.nx, tt.ny, tt.nz, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%d,%d,%d) failed: %v", tt.nx, tt.ny, tt.nz, err)
			}
		})
	}
}

func TestNewZeroInitialized(t *testing.T) {
	v, err := New(4, 4, 4, unitCube())
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Data()) != 64 {
		t.Fatalf("data length = %d, want 64", len(v.Data()))
	}
	for i, s := range v.Data() {
		if s != 0 {
			t.Fatalf("sample %d = %g, want 0", i, s)
		}
	}
}

func TestIndexLayout(t *testing.T) {
	// index = x + y*nx + z*nx*ny, x fastest.
	v, err := New(3, 4, 5, unitCube())
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Index(0, 0, 0); got != 0 {
		t.Errorf("Index(0,0,0) = %d, want 0", got)
	}
	if got := v.Index(1, 0, 0); got != 1 {
		t.Errorf("Index(1,0,0) = %d, want 1", got)
	}
	if got := v.Index(0, 1, 0); got != 3 {
		t.Errorf("Index(0,1,0) = %d, want 3", got)
	}
	if got := v.Index(0, 0, 1); got != 12 {
		t.Errorf("Index(0,0,1) = %d, want 12", got)
	}
	if got := v.Index(2, 3, 4); got != 2+3*3+4*12 {
		t.Errorf("Index(2,3,4) = %d, want %d", got, 2+3*3+4*12)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	v, err := New(4, 5, 6, unitCube())
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Set(1, 2, 3, 7.5); err != nil {
		t.Fatal(err)
	}
	got, err := v.Get(1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 7.5 {
		t.Errorf("Get(1,2,3) = %g, want 7.5", got)
	}
	// The write landed at the documented flat index.
	if v.Data()[v.Index(1, 2, 3)] != 7.5 {
		t.Error("flat index does not match Set location")
	}
}

func TestBoundsChecking(t *testing.T) {
	v, err := New(4, 4, 4, unitCube())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		x, y, z int
	}{
		{"x negative", -1, 0, 0},
		{"x high", 4, 0, 0},
		{"y negative", 0, -1, 0},
		{"y high", 0, 4, 0},
		{"z negative", 0, 0, -1},
		{"z high", 0, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Get(tt.x, tt.y, tt.z); !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("Get error = %v, want ErrIndexOutOfRange", err)
			}
			if err := v.Set(tt.x, tt.y, tt.z, 1); !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("Set error = %v, want ErrIndexOutOfRange", err)
			}
		})
	}
}

func TestPositionCenteredExtent(t *testing.T) {
	v, err := New(5, 5, 5, v3.Vec{X: 2, Y: 4, Z: 8})
	if err != nil {
		t.Fatal(err)
	}
	min := v.Position(0, 0, 0)
	if min.X != -1 || min.Y != -2 || min.Z != -4 {
		t.Errorf("Position(0,0,0) = %v, want (-1,-2,-4)", min)
	}
	max := v.Position(4, 4, 4)
	if max.X != 1 || max.Y != 2 || max.Z != 4 {
		t.Errorf("Position(4,4,4) = %v, want (1,2,4)", max)
	}
	mid := v.Position(2, 2, 2)
	if mid.X != 0 || mid.Y != 0 || mid.Z != 0 {
		t.Errorf("Position(2,2,2) = %v, want origin", mid)
	}
}

func TestCloseSides(t *testing.T) {
	v, err := New(4, 4, 4, unitCube())
	if err != nil {
		t.Fatal(err)
	}
	for i := range v.Data() {
		v.Data()[i] = 1
	}
	v.CloseSides()

	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				s, err := v.Get(x, y, z)
				if err != nil {
					t.Fatal(err)
				}
				boundary := x == 0 || x == 3 || y == 0 || y == 3 || z == 0 || z == 3
				if boundary && s != Sealed {
					t.Fatalf("boundary sample (%d,%d,%d) = %g, want Sealed", x, y, z, s)
				}
				if !boundary && s != 1 {
					t.Fatalf("interior sample (%d,%d,%d) = %g, want 1", x, y, z, s)
				}
			}
		}
	}

	// Idempotent.
	before := make([]float32, len(v.Data()))
	copy(before, v.Data())
	v.CloseSides()
	for i := range before {
		if v.Data()[i] != before[i] {
			t.Fatal("CloseSides is not idempotent")
		}
	}
}
