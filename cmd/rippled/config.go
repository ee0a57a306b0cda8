package main

import (
	"flag"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/chazu/ripples/pkg/logging"
)

// Config represent server configuration.
type Config struct {
	Address      string
	LoggingLevel string

	// MaxResolution caps the grid resolution a request may ask for.
	MaxResolution int
	// Timeout bounds a single evaluation plus generation.
	Timeout time.Duration
	// MaxBody is the largest accepted request body in bytes.
	MaxBody int64
}

var addressPattern = regexp.MustCompile(`^.*?:\d+$`)

// readConfig parses args. Every invalid flag is reported to stderr before
// the error is returned.
func readConfig(args []string, stderr io.Writer) (Config, error) {
	config := Config{}

	fs := flag.NewFlagSet("rippled", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&config.Address, "address", "localhost:8080", "listen host:port")
	fs.StringVar(&config.LoggingLevel, "logging-level", "info", "logging level, one of: "+strings.Join(logging.Levels, ", "))
	fs.IntVar(&config.MaxResolution, "max-resolution", 1000, "largest grid resolution accepted from clients")
	fs.DurationVar(&config.Timeout, "timeout", 30*time.Second, "per-request evaluation and generation limit")
	fs.Int64Var(&config.MaxBody, "max-body", 1<<20, "largest accepted request body in bytes")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	config.LoggingLevel = strings.ToLower(config.LoggingLevel)

	invalidConfig := false
	if !addressPattern.MatchString(config.Address) {
		fmt.Fprintf(stderr, "Invalid address: \"%s\"\n", config.Address)
		invalidConfig = true
	}
	if !logging.ValidLevel(config.LoggingLevel) {
		fmt.Fprintf(stderr, "Invalid loggingLevel: \"%s\"\n", config.LoggingLevel)
		invalidConfig = true
	}
	if config.MaxResolution < 1 {
		fmt.Fprintf(stderr, "Invalid max-resolution: %d\n", config.MaxResolution)
		invalidConfig = true
	}
	if config.Timeout <= 0 {
		fmt.Fprintf(stderr, "Invalid timeout: %s\n", config.Timeout)
		invalidConfig = true
	}
	if config.MaxBody <= 0 {
		fmt.Fprintf(stderr, "Invalid max-body: %d\n", config.MaxBody)
		invalidConfig = true
	}

	if invalidConfig {
		fmt.Fprintf(stderr, "\n")
		fs.Usage()
		return Config{}, fmt.Errorf("invalid configuration")
	}
	return config, nil
}
