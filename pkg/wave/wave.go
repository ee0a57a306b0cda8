// Package wave evaluates the ripple height field produced by a set of
// point sources. Each source emits concentric sine rings; the field is the
// average of every ring of every source.
package wave

import (
	"encoding/json"
	"math"
)

// Source is a point emitter on the surface plane. Power scales the global
// amplitude for this source only.
type Source struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Power float64 `json:"power"`
}

// UnmarshalJSON decodes a source, giving Power 1 when the field is absent.
func (s *Source) UnmarshalJSON(data []byte) error {
	type plain Source
	v := plain{Power: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Source(v)
	return nil
}

// Field is an immutable height function. The zero value has no sources and
// evaluates to 0 everywhere.
type Field struct {
	sources   []Source
	amplitude float64
	frequency float64
	rings     int
}

// NewField builds a Field. The source slice is copied so later edits by the
// caller do not leak into an in-flight generation.
func NewField(sources []Source, amplitude, frequency float64, rings int) *Field {
	cp := make([]Source, len(sources))
	copy(cp, sources)
	return &Field{
		sources:   cp,
		amplitude: amplitude,
		frequency: frequency,
		rings:     rings,
	}
}

// Height returns the surface height at (x, y).
func (f *Field) Height(x, y float64) float64 {
	if f == nil || len(f.sources) == 0 || f.rings < 1 {
		return 0
	}
	var z float64
	for _, s := range f.sources {
		dist := math.Hypot(x-s.X, y-s.Y)
		for w := 0; w < f.rings; w++ {
			phase := float64(w) * math.Pi / float64(f.rings)
			z += f.amplitude * s.Power * math.Sin(dist*f.frequency+phase)
		}
	}
	return z / float64(f.rings*len(f.sources))
}
