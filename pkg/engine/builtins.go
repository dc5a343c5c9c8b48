package engine

import (
	"fmt"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/voxmesh/voxmesh/pkg/generate"
	"github.com/voxmesh/voxmesh/pkg/volume"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal).
//     This avoids registering keyword symbols as globals, which would
//     conflict with user-defined variables of the same name.
//
//  2. Lisp ; line comments become zygomys // comments.
//
//  3. Kebab-case to underscore: close-sides -> close_sides. zygomys
//     interprets hyphens as subtraction, so kebab identifiers are rewritten
//     outside of strings and comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(strings.ReplaceAll(kwName, "-", "_"))...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers when the hyphen sits between
		// identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec so vectors can be passed between builtins.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a (vec3 ...) result.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected (vec3 x y z), got %T (%s)", s, s.SexpString(nil))
}

// kwFloat reads an optional keyword number, falling back to def.
func kwFloat(pa kwArgs, name string, def float64) (float64, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// kwVec3 reads an optional keyword vector, falling back to def.
func kwVec3(pa kwArgs, name string, def v3.Vec) (v3.Vec, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

// sceneState accumulates the scene while a script runs.
type sceneState struct {
	vol *volume.Volume
	iso float64
}

// requireVolume fails a fill builtin called before (volume ...).
func (s *sceneState) requireVolume(builtin string) error {
	if s.vol == nil {
		return fmt.Errorf("%s: call (volume nx ny nz) first", builtin)
	}
	return nil
}

// registerBuiltins installs the scene DSL into a zygomys environment. The
// builtins mutate the provided sceneState during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation
// so that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *sceneState) {

	// -----------------------------------------------------------------------
	// (volume 64 64 64 :size (vec3 1 1 1))
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("volume requires nx ny nz, got %d arguments", len(pa.positional))
		}
		var dim [3]int
		for i, a := range pa.positional {
			n, err := toInt(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("volume: %w", err)
			}
			dim[i] = n
		}
		size, err := kwVec3(pa, "size", v3.Vec{X: 1, Y: 1, Z: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: %w", err)
		}
		vol, err := volume.New(dim[0], dim[1], dim[2], size)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: %w", err)
		}
		s.vol = vol
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (iso 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("iso", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("iso requires a threshold value")
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("iso: %w", err)
		}
		s.iso = f
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (fill-sphere :center (vec3 0 0 0) :radius 0.3 :value 1)
	// -----------------------------------------------------------------------
	env.AddFunction("fill_sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := s.requireVolume("fill-sphere"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		center, err := kwVec3(pa, "center", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-sphere: %w", err)
		}
		radius, err := kwFloat(pa, "radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-sphere: %w", err)
		}
		value, err := kwFloat(pa, "value", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-sphere: %w", err)
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("fill-sphere: radius must be positive")
		}
		generate.SolidSphere(s.vol, center, radius, float32(value))
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (fill-box :min (vec3 -1 -1 -1) :max (vec3 1 1 1) :value 1)
	// -----------------------------------------------------------------------
	env.AddFunction("fill_box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := s.requireVolume("fill-box"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		min, err := kwVec3(pa, "min", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-box: %w", err)
		}
		max, err := kwVec3(pa, "max", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-box: %w", err)
		}
		value, err := kwFloat(pa, "value", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-box: %w", err)
		}
		generate.SolidBox(s.vol, min, max, float32(value))
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (fill-sdf-sphere :radius 0.4)
	// Samples an exact signed-distance sphere, so iso 0 extracts its surface.
	// -----------------------------------------------------------------------
	env.AddFunction("fill_sdf_sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := s.requireVolume("fill-sdf-sphere"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		radius, err := kwFloat(pa, "radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-sdf-sphere: %w", err)
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("fill-sdf-sphere: radius must be positive")
		}
		sphere, err := sdf.Sphere3D(radius)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-sdf-sphere: %w", err)
		}
		generate.FromSDF(s.vol, sphere)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (metaball :center (vec3 0 0 0) :radius 0.2 :strength 1)
	// Adds one charge; repeated calls compose additively.
	// -----------------------------------------------------------------------
	env.AddFunction("metaball", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := s.requireVolume("metaball"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		center, err := kwVec3(pa, "center", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("metaball: %w", err)
		}
		radius, err := kwFloat(pa, "radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("metaball: %w", err)
		}
		strength, err := kwFloat(pa, "strength", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("metaball: %w", err)
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("metaball: radius must be positive")
		}
		generate.Metaballs(s.vol, []generate.Ball{{Center: center, Radius: radius, Strength: strength}})
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (fill-noise :seed 42 :scale 4)
	// -----------------------------------------------------------------------
	env.AddFunction("fill_noise", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := s.requireVolume("fill-noise"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		seed, err := kwFloat(pa, "seed", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-noise: %w", err)
		}
		scale, err := kwFloat(pa, "scale", 4)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill-noise: %w", err)
		}
		generate.SimplexNoise(s.vol, int64(seed), scale)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (set-value x y z v)
	// -----------------------------------------------------------------------
	env.AddFunction("set_value", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := s.requireVolume("set-value"); err != nil {
			return zygo.SexpNull, err
		}
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("set-value requires x y z value")
		}
		var idx [3]int
		for i := 0; i < 3; i++ {
			n, err := toInt(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("set-value: %w", err)
			}
			idx[i] = n
		}
		value, err := toFloat64(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-value: %w", err)
		}
		if err := s.vol.Set(idx[0], idx[1], idx[2], float32(value)); err != nil {
			return zygo.SexpNull, fmt.Errorf("set-value: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (close-sides)
	// -----------------------------------------------------------------------
	env.AddFunction("close_sides", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := s.requireVolume("close-sides"); err != nil {
			return zygo.SexpNull, err
		}
		s.vol.CloseSides()
		return zygo.SexpNull, nil
	})
}
