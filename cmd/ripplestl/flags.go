package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/ripples/pkg/logging"
	"github.com/chazu/ripples/pkg/ripple"
	"github.com/chazu/ripples/pkg/stl"
	"github.com/chazu/ripples/pkg/wave"
)

// sourceList collects repeated -source x,y[,power] flags.
type sourceList []wave.Source

func (l *sourceList) String() string {
	parts := make([]string, len(*l))
	for i, s := range *l {
		parts[i] = fmt.Sprintf("%g,%g,%g", s.X, s.Y, s.Power)
	}
	return strings.Join(parts, " ")
}

func (l *sourceList) Set(v string) error {
	fields := strings.Split(v, ",")
	if len(fields) < 2 || len(fields) > 3 {
		return fmt.Errorf("want x,y[,power], got %q", v)
	}
	vals := []float64{0, 0, 1}
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("source %q: %w", v, err)
		}
		vals[i] = n
	}
	*l = append(*l, wave.Source{X: vals[0], Y: vals[1], Power: vals[2]})
	return nil
}

// Config holds the parsed command line.
type Config struct {
	Params  ripple.Params
	Sources sourceList
	Out     string
	Header  string
	Jobs    int

	LoggingLevel string
	// Files are scene sources given as positional arguments.
	Files []string
	// set records which parameter flags were given explicitly.
	set map[string]bool
}

// readConfig parses args. Every invalid flag is reported to stderr before
// the error is returned.
func readConfig(args []string, stderr io.Writer) (Config, error) {
	config := Config{Params: ripple.DefaultParams()}
	p := &config.Params

	fs := flag.NewFlagSet("ripplestl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: ripplestl [flags] [scene.ripple ...]\n\n")
		fs.PrintDefaults()
	}

	// Surface parameters. With scene files, explicitly set flags override
	// the files' values.
	fs.Float64Var(&p.Size, "size", p.Size, "footprint diameter in mm")
	fs.Float64Var(&p.Thickness, "thickness", p.Thickness, "base thickness in mm")
	fs.IntVar(&p.Resolution, "resolution", p.Resolution, "grid cells per axis")
	fs.Float64Var(&p.Amplitude, "amplitude", p.Amplitude, "wave amplitude in mm")
	fs.Float64Var(&p.Frequency, "frequency", p.Frequency, "wave frequency in radians per mm")
	fs.IntVar(&p.Rings, "rings", p.Rings, "phase-shifted rings per source")
	fs.Var(&config.Sources, "source", "wave source as x,y[,power]; repeatable (default: four corner sources)")

	fs.StringVar(&config.Out, "out", "", "output file, or output directory when scene files are given")
	fs.StringVar(&config.Header, "header", "", "STL header text (default \""+stl.HeaderText+"\")")
	fs.IntVar(&config.Jobs, "jobs", 0, "scene files generated in parallel (0: one per CPU)")
	fs.StringVar(&config.LoggingLevel, "logging-level", "info", "logging level, one of: "+strings.Join(logging.Levels, ", "))
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	config.Files = fs.Args()
	config.LoggingLevel = strings.ToLower(config.LoggingLevel)
	config.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { config.set[f.Name] = true })

	invalidConfig := false
	if !logging.ValidLevel(config.LoggingLevel) {
		fmt.Fprintf(stderr, "Invalid loggingLevel: \"%s\"\n", config.LoggingLevel)
		invalidConfig = true
	}
	if config.Jobs < 0 {
		fmt.Fprintf(stderr, "Invalid jobs: %d\n", config.Jobs)
		invalidConfig = true
	}
	if len(config.Files) > 0 && len(config.Sources) > 0 {
		fmt.Fprintf(stderr, "-source cannot be combined with scene files\n")
		invalidConfig = true
	}

	if invalidConfig {
		fmt.Fprintf(stderr, "\n")
		fs.Usage()
		return Config{}, fmt.Errorf("invalid configuration")
	}
	return config, nil
}

// override copies explicitly set parameter flags onto p.
func (c *Config) override(p *ripple.Params) {
	if c.set["size"] {
		p.Size = c.Params.Size
	}
	if c.set["thickness"] {
		p.Thickness = c.Params.Thickness
	}
	if c.set["resolution"] {
		p.Resolution = c.Params.Resolution
	}
	if c.set["amplitude"] {
		p.Amplitude = c.Params.Amplitude
	}
	if c.set["frequency"] {
		p.Frequency = c.Params.Frequency
	}
	if c.set["rings"] {
		p.Rings = c.Params.Rings
	}
}
