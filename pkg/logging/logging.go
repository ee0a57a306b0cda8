// Package logging builds the logrus loggers shared by the ripple hosts.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
)

// Levels lists the accepted level names, most severe first.
var Levels = []string{"panic", "fatal", "error", "warn", "info", "debug"}

// ValidLevel reports whether name is one of Levels (case-insensitive).
func ValidLevel(name string) bool {
	name = strings.ToLower(name)
	for _, l := range Levels {
		if l == name {
			return true
		}
	}
	return false
}

// New returns a logger named after its host, writing to stderr at the given
// level.
func New(name, level string) (*logrus.Logger, error) {
	return NewWithOutput(os.Stderr, name, level)
}

// NewWithOutput is New writing to out.
func NewWithOutput(out io.Writer, name, level string) (*logrus.Logger, error) {
	if !ValidLevel(level) {
		return nil, fmt.Errorf("invalid logging level %q, expected one of: %s", level, strings.Join(Levels, ", "))
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	return &logrus.Logger{
		Out: out,
		Formatter: &NamedFormatter{
			Name:          name,
			TextFormatter: logrus.TextFormatter{FullTimestamp: true},
		},
		Hooks: make(logrus.LevelHooks),
		Level: lvl,
	}, nil
}

// NamedFormatter prefixes every message with the logger name and the
// calling file.
type NamedFormatter struct {
	logrus.TextFormatter
	Name string
}

// Format renders a single log entry.
func (f *NamedFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	prefix := f.Name
	if entry.HasCaller() {
		prefix = fmt.Sprintf("%s %s:%d", f.Name, path.Base(entry.Caller.File), entry.Caller.Line)
	}
	entry.Message = fmt.Sprintf("[%s] %s", prefix, entry.Message)
	return f.TextFormatter.Format(entry)
}
