// Package ripple turns a scene (surface parameters and wave sources) into a
// watertight ripple solid encoded as binary STL. Generate is a pure,
// synchronous pipeline; Generator wraps it for hosts that need a timeout and
// want superseded requests discarded.
package ripple

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chazu/ripples/pkg/grid"
	"github.com/chazu/ripples/pkg/mesh"
	"github.com/chazu/ripples/pkg/solid"
	"github.com/chazu/ripples/pkg/stl"
	"github.com/chazu/ripples/pkg/tessellate"
	"github.com/chazu/ripples/pkg/wave"
)

const (
	// FileName is the download name hosts offer for generated files.
	FileName = "rippling_water.stl"
	// MIMEType is the content type of generated files.
	MIMEType = "application/octet-stream"
)

// Params are the surface parameters. Lengths are in mm.
type Params struct {
	Size       float64 `json:"size"`       // footprint diameter
	Thickness  float64 `json:"thickness"`  // base depth below z = 0
	Resolution int     `json:"resolution"` // grid cells per axis
	Amplitude  float64 `json:"amplitude"`
	Frequency  float64 `json:"frequency"` // radians per mm
	Rings      int     `json:"rings"`     // phase-shifted rings per source
}

// Scene is an immutable snapshot of everything a generation needs.
type Scene struct {
	Params
	Sources []wave.Source `json:"sources"`
}

// DefaultParams returns the stock surface parameters.
func DefaultParams() Params {
	return Params{
		Size:       200,
		Thickness:  2,
		Resolution: 100,
		Amplitude:  1,
		Frequency:  0.3,
		Rings:      3,
	}
}

// DefaultScene returns the stock scene: four sources near the corners of
// the footprint's bounding square.
func DefaultScene() Scene {
	return Scene{
		Params: DefaultParams(),
		Sources: []wave.Source{
			{X: -90, Y: -100, Power: 1},
			{X: -100, Y: 90, Power: 0.8},
			{X: 90, Y: 100, Power: 0.9},
			{X: 100, Y: -90, Power: 1},
		},
	}
}

// Clone returns a deep copy of s.
func (s Scene) Clone() Scene {
	c := s
	c.Sources = append([]wave.Source(nil), s.Sources...)
	return c
}

// Options configure a generation.
type Options struct {
	// Logger receives per-generation diagnostics. Nil discards them.
	Logger logrus.FieldLogger
	// Header overrides the STL header text.
	Header string
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (o Options) header() string {
	if o.Header != "" {
		return o.Header
	}
	return stl.HeaderText
}

// Result is the output of one generation.
type Result struct {
	Mesh     *mesh.Mesh
	STL      []byte
	Stats    tessellate.Stats
	Warnings []ValidationError
}

// TriangleCount returns the number of triangles in the encoded file.
func (r *Result) TriangleCount() int {
	return r.Mesh.TriangleCount()
}

// Generate validates scene and runs the full pipeline. It returns an
// *InvalidParamsError when validation reports any error; warnings are
// carried on the Result.
func Generate(scene Scene, opts Options) (*Result, error) {
	log := opts.logger()

	var warnings []ValidationError
	var errs []ValidationError
	for _, v := range Validate(scene) {
		if v.Severity == SeverityError {
			errs = append(errs, v)
			continue
		}
		warnings = append(warnings, v)
	}
	if len(errs) > 0 {
		return nil, &InvalidParamsError{Errors: errs}
	}
	for _, w := range warnings {
		log.WithField("field", w.Field).Warn(w.Message)
	}

	start := time.Now()
	p := scene.Params
	field := wave.NewField(scene.Sources, p.Amplitude, p.Frequency, p.Rings)
	samples := grid.Sample(grid.Spec{Size: p.Size, Resolution: p.Resolution}, field.Height)
	top := tessellate.Top(samples)
	m := solid.Build(samples, top.Triangles, p.Thickness)
	buf := stl.Marshal(opts.header(), m.Triangles())

	log.WithFields(logrus.Fields{
		"resolution": p.Resolution,
		"interior":   len(samples.Interior),
		"boundary":   samples.BoundaryCount(),
		"triangles":  m.TriangleCount(),
		"bridges":    top.Stats.Bridges,
		"skipped":    top.Stats.Skipped,
		"elapsed":    time.Since(start),
	}).Debug("generated ripple solid")

	return &Result{
		Mesh:     m,
		STL:      buf,
		Stats:    top.Stats,
		Warnings: warnings,
	}, nil
}
