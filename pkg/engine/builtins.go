package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/ripples/pkg/ripple"
	"github.com/chazu/ripples/pkg/wave"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: wave-source -> wave_source
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
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
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
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
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
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
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
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

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSurface wraps the surface parameters returned by `surface`.
type sexpSurface struct {
	params ripple.Params
}

func (s *sexpSurface) SexpString(ps *zygo.PrintState) string {
	p := s.params
	return fmt.Sprintf("(surface :size %g :thickness %g :resolution %d :amplitude %g :frequency %g :rings %d)",
		p.Size, p.Thickness, p.Resolution, p.Amplitude, p.Frequency, p.Rings)
}
func (s *sexpSurface) Type() *zygo.RegisteredType { return nil }

// sexpSource wraps a wave.Source returned by `wave-source`.
type sexpSource struct {
	src wave.Source
}

func (s *sexpSource) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(wave-source :x %g :y %g :power %g)", s.src.X, s.src.Y, s.src.Power)
}
func (s *sexpSource) Type() *zygo.RegisteredType { return nil }

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
// Keywords are identified by the __kw_ prefix added during preprocessing.
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
				// Keyword at end with no value: treat as flag with nil.
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

// only returns an error naming the first keyword not in allowed.
func (a kwArgs) only(fn string, allowed ...string) error {
	for k := range a.kw {
		found := false
		for _, name := range allowed {
			if k == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s (expected one of :%s)", fn, k, strings.Join(allowed, " :"))
		}
	}
	return nil
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

// toInt extracts an integer from a SexpInt, or from a SexpFloat with no
// fractional part.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// floatArg stores keyword key of pa into dst when present.
func floatArg(fn string, pa kwArgs, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// intArg is floatArg for integer parameters.
func intArg(fn string, pa kwArgs, key string, dst *int) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = n
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// sceneBuilder accumulates the scene while user code runs.
type sceneBuilder struct {
	scene      ripple.Scene
	surfaceSet bool
}

func newSceneBuilder() *sceneBuilder {
	return &sceneBuilder{scene: ripple.Scene{Params: ripple.DefaultParams()}}
}

// registerBuiltins installs the scene DSL builtins into a zygomys
// environment. The builtins operate on the provided sceneBuilder, populating
// it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *sceneBuilder) {

	// -----------------------------------------------------------------------
	// (surface :size 200 :thickness 2 :resolution 100
	//          :amplitude 1 :frequency 0.3 :rings 3)
	// -----------------------------------------------------------------------
	env.AddFunction("surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if b.surfaceSet {
			return zygo.SexpNull, fmt.Errorf("surface: declared more than once")
		}
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("surface: takes keyword arguments only")
		}
		if err := pa.only("surface", "size", "thickness", "resolution", "amplitude", "frequency", "rings"); err != nil {
			return zygo.SexpNull, err
		}

		p := b.scene.Params
		for _, err := range []error{
			floatArg("surface", pa, "size", &p.Size),
			floatArg("surface", pa, "thickness", &p.Thickness),
			intArg("surface", pa, "resolution", &p.Resolution),
			floatArg("surface", pa, "amplitude", &p.Amplitude),
			floatArg("surface", pa, "frequency", &p.Frequency),
			intArg("surface", pa, "rings", &p.Rings),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}

		b.scene.Params = p
		b.surfaceSet = true
		return &sexpSurface{params: p}, nil
	})

	// -----------------------------------------------------------------------
	// (wave-source :x -90 :y -100 :power 1)   or   (wave-source -90 -100)
	//
	// Note: registered as "wave_source" because zygomys does not support
	// hyphens in identifiers.
	// -----------------------------------------------------------------------
	env.AddFunction("wave_source", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("wave-source", "x", "y", "power"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) > 3 {
			return zygo.SexpNull, fmt.Errorf("wave-source: at most 3 positional arguments, got %d", len(pa.positional))
		}

		src := wave.Source{Power: 1}
		fields := []*float64{&src.X, &src.Y, &src.Power}
		for i, v := range pa.positional {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wave-source: argument %d: %w", i+1, err)
			}
			*fields[i] = f
		}
		_, hasX := pa.kw["x"]
		_, hasY := pa.kw["y"]
		if !(hasX || len(pa.positional) >= 1) || !(hasY || len(pa.positional) >= 2) {
			return zygo.SexpNull, fmt.Errorf("wave-source: requires :x and :y")
		}
		for _, err := range []error{
			floatArg("wave-source", pa, "x", &src.X),
			floatArg("wave-source", pa, "y", &src.Y),
			floatArg("wave-source", pa, "power", &src.Power),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}

		b.scene.Sources = append(b.scene.Sources, src)
		return &sexpSource{src: src}, nil
	})

	// -----------------------------------------------------------------------
	// (source-ring :count 6 :radius 80 :power 1 :phase 15)
	//
	// Places count sources evenly on a circle, starting :phase degrees
	// counter-clockwise from the +x axis. Returns the number added.
	// -----------------------------------------------------------------------
	env.AddFunction("source_ring", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("source-ring", "count", "radius", "power", "phase"); err != nil {
			return zygo.SexpNull, err
		}
		count, radius, power, phase := 0, 0.0, 1.0, 0.0
		for _, err := range []error{
			intArg("source-ring", pa, "count", &count),
			floatArg("source-ring", pa, "radius", &radius),
			floatArg("source-ring", pa, "power", &power),
			floatArg("source-ring", pa, "phase", &phase),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		if count < 1 {
			return zygo.SexpNull, fmt.Errorf("source-ring: count must be at least 1, got %d", count)
		}

		for k := 0; k < count; k++ {
			a := (phase + 360*float64(k)/float64(count)) * math.Pi / 180
			b.scene.Sources = append(b.scene.Sources, wave.Source{
				X:     radius * math.Cos(a),
				Y:     radius * math.Sin(a),
				Power: power,
			})
		}
		return &zygo.SexpInt{Val: int64(count)}, nil
	})
}
