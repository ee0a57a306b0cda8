package ripple

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/ripples/pkg/grid"
)

// ValidationSeverity indicates whether a validation finding blocks
// generation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks generation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// MarshalText lets findings travel to the desktop and HTTP hosts as
// readable strings.
func (s ValidationSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Field    string             `json:"field"`    // parameter at fault, e.g. "resolution" or "sources[2]"
	Message  string             `json:"message"`  // human-readable description
	Severity ValidationSeverity `json:"severity"` // error or warning
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Field, e.Message)
}

// ErrInvalidParams is matched by every *InvalidParamsError.
var ErrInvalidParams = errors.New("invalid parameters")

// InvalidParamsError is returned by Generate when validation fails.
type InvalidParamsError struct {
	Errors []ValidationError
}

func (e *InvalidParamsError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidParams, strings.Join(msgs, "; "))
}

func (e *InvalidParamsError) Unwrap() error { return ErrInvalidParams }

// Validate checks a scene and returns every finding. A scene with no
// SeverityError findings can be generated. Validate never mutates scene.
func Validate(scene Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateParams(scene.Params)...)
	errs = append(errs, validateSources(scene)...)
	return errs
}

func finding(sev ValidationSeverity, field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: sev}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateParams(p Params) []ValidationError {
	var errs []ValidationError
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"size", p.Size},
		{"thickness", p.Thickness},
		{"amplitude", p.Amplitude},
		{"frequency", p.Frequency},
	} {
		if !finite(f.v) {
			errs = append(errs, finding(SeverityError, f.name, "must be a finite number, got %v", f.v))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if p.Size <= 0 {
		errs = append(errs, finding(SeverityError, "size", "must be positive, got %g", p.Size))
	}
	if p.Thickness <= 0 {
		errs = append(errs, finding(SeverityError, "thickness", "must be positive, got %g", p.Thickness))
	}
	if p.Resolution <= 0 {
		errs = append(errs, finding(SeverityError, "resolution", "must be positive, got %d", p.Resolution))
	}
	if p.Rings < 1 {
		errs = append(errs, finding(SeverityError, "rings", "must be at least 1, got %d", p.Rings))
	}
	if p.Size > 0 && p.Resolution > 0 && p.Size*grid.Precision/float64(p.Resolution) < 1 {
		errs = append(errs, finding(SeverityError, "resolution",
			"grid spacing %g mm is below the %g mm coordinate precision",
			p.Size/float64(p.Resolution), 1.0/grid.Precision))
	}
	if p.Thickness > 0 && math.Abs(p.Amplitude) > p.Thickness {
		errs = append(errs, finding(SeverityWarning, "amplitude",
			"amplitude %g exceeds thickness %g; troughs may cut through the base", p.Amplitude, p.Thickness))
	}
	return errs
}

func validateSources(scene Scene) []ValidationError {
	if len(scene.Sources) == 0 {
		return []ValidationError{finding(SeverityError, "sources", "at least one source is required")}
	}
	var errs []ValidationError
	r := scene.Size / 2
	for i, s := range scene.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if !finite(s.X) || !finite(s.Y) || !finite(s.Power) {
			errs = append(errs, finding(SeverityError, field, "coordinates and power must be finite"))
			continue
		}
		if r > 0 && (math.Abs(s.X) > r || math.Abs(s.Y) > r) {
			errs = append(errs, finding(SeverityWarning, field,
				"source at (%g, %g) lies outside the %g mm square around the footprint", s.X, s.Y, scene.Size))
		}
	}
	return errs
}
