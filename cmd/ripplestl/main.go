// Command ripplestl writes ripple solids as binary STL files.
//
// Without arguments it generates one solid from the parameter flags:
//
//	ripplestl -resolution 200 -source -50,0 -source 50,0,0.5 -out ripples.stl
//
// Given scene files it generates one solid per file, in parallel, named
// after the file:
//
//	ripplestl -out build examples/*.ripple
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/ripples/pkg/engine"
	"github.com/chazu/ripples/pkg/logging"
	"github.com/chazu/ripples/pkg/ripple"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		os.Exit(1)
	}
}

// job is one scene and the path its STL is written to.
type job struct {
	name  string
	scene ripple.Scene
	out   string
}

func run(args []string, stderr io.Writer) error {
	conf, err := readConfig(args, stderr)
	if err != nil {
		return err
	}

	log, err := logging.NewWithOutput(stderr, "ripplestl", conf.LoggingLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}

	jobs, err := conf.jobs()
	if err != nil {
		log.Error(err)
		return err
	}

	if err := generateAll(jobs, conf, log); err != nil {
		log.Error(err)
		return err
	}
	return nil
}

// jobs builds the work list. Scene files are evaluated one at a time; the
// interpreter is not safe for concurrent use.
func (c *Config) jobs() ([]job, error) {
	if len(c.Files) == 0 {
		scene := ripple.DefaultScene()
		scene.Params = c.Params
		if len(c.Sources) > 0 {
			scene.Sources = append(scene.Sources[:0:0], c.Sources...)
		}
		out := c.Out
		if out == "" {
			out = ripple.FileName
		}
		return []job{{name: "flags", scene: scene, out: out}}, nil
	}

	dir := c.Out
	if dir == "" {
		dir = "."
	}
	eng := engine.NewEngine()
	jobs := make([]job, 0, len(c.Files))
	seen := map[string]string{}
	for _, f := range c.Files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read scene: %w", err)
		}
		scene, evalErrs, err := eng.Evaluate(string(src))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if len(evalErrs) > 0 {
			return nil, fmt.Errorf("%s: %w", f, evalErrs[0])
		}
		c.override(&scene.Params)

		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		out := filepath.Join(dir, base+".stl")
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%s and %s both write %s", prev, f, out)
		}
		seen[out] = f
		jobs = append(jobs, job{name: f, scene: *scene, out: out})
	}
	return jobs, nil
}

func generateAll(jobs []job, conf Config, log logrus.FieldLogger) error {
	if len(conf.Files) > 0 {
		if err := os.MkdirAll(filepath.Dir(jobs[0].out), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	limit := conf.Jobs
	if limit == 0 {
		limit = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, j := range jobs {
		g.Go(func() error {
			entry := log.WithField("scene", j.name)
			res, err := ripple.Generate(j.scene, ripple.Options{Logger: entry, Header: conf.Header})
			if err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			if err := os.WriteFile(j.out, res.STL, 0o644); err != nil {
				return fmt.Errorf("write STL: %w", err)
			}
			entry.WithFields(logrus.Fields{
				"out":       j.out,
				"triangles": res.TriangleCount(),
				"bytes":     len(res.STL),
			}).Info("wrote STL")
			return nil
		})
	}
	return g.Wait()
}
