package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/ripples/pkg/engine"
	"github.com/chazu/ripples/pkg/ripple"
	"github.com/chazu/ripples/pkg/tessellate"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx       context.Context
	engine    *engine.Engine
	generator *ripple.Generator
	log       logrus.FieldLogger

	// saveDialog asks the user for a destination path. An empty path means
	// the dialog was cancelled.
	saveDialog func(ctx context.Context, defaultName string) (string, error)
}

// MessageData is a JSON-serializable error or warning for the frontend.
type MessageData struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// GenerateResult is the full result returned to the frontend.
type GenerateResult struct {
	Triangles int            `json:"triangles"`
	Top       int            `json:"top"`
	Bottom    int            `json:"bottom"`
	Wall      int            `json:"wall"`
	Bytes     int            `json:"bytes"`
	Cells     map[string]int `json:"cells"`
	Bridges   int            `json:"bridges"`
	Min       [3]float64     `json:"min"` // bounding box corners in mm
	Max       [3]float64     `json:"max"`
	Errors    []MessageData  `json:"errors"`
	Warnings  []MessageData  `json:"warnings"`
}

// SaveResult reports where a generated file was written.
type SaveResult struct {
	Path      string        `json:"path"`
	Cancelled bool          `json:"cancelled"`
	Errors    []MessageData `json:"errors"`
}

// NewApp creates a new App logging to log.
func NewApp(log logrus.FieldLogger) *App {
	return &App{
		engine:     engine.NewEngine(),
		generator:  ripple.NewGenerator(ripple.Options{Logger: log}),
		log:        log,
		saveDialog: nativeSaveDialog,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// DefaultScene returns the stock scene as editable source.
func (a *App) DefaultScene() string {
	return engine.FormatScene(ripple.DefaultScene())
}

// Generate evaluates scene source and builds the solid, returning its
// statistics. This is the primary binding called by the frontend editor.
func (a *App) Generate(source string) GenerateResult {
	result := GenerateResult{
		Cells:    map[string]int{},
		Errors:   []MessageData{},
		Warnings: []MessageData{},
	}

	res, msgs := a.run(source)
	if len(msgs) > 0 {
		result.Errors = msgs
		return result
	}

	m := res.Mesh
	result.Triangles = m.TriangleCount()
	result.Top = len(m.Top)
	result.Bottom = len(m.Bottom)
	result.Wall = len(m.Wall)
	result.Bytes = len(res.STL)
	result.Bridges = res.Stats.Bridges
	box := m.Bounds()
	result.Min = [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	result.Max = [3]float64{box.Max.X, box.Max.Y, box.Max.Z}
	for k := tessellate.CellEmpty; k <= tessellate.CellOneCorner; k++ {
		if n := res.Stats.Count(k); n > 0 {
			result.Cells[k.String()] = n
		}
	}
	result.Warnings = validationMessages(res.Warnings)
	return result
}

// Save generates the solid and writes it to a path chosen through the
// native save dialog.
func (a *App) Save(source string) SaveResult {
	result := SaveResult{Errors: []MessageData{}}

	res, msgs := a.run(source)
	if len(msgs) > 0 {
		result.Errors = msgs
		return result
	}

	path, err := a.saveDialog(a.context(), ripple.FileName)
	if err != nil {
		a.log.WithError(err).Error("save dialog failed")
		result.Errors = append(result.Errors, MessageData{Message: err.Error()})
		return result
	}
	if path == "" {
		result.Cancelled = true
		return result
	}

	if err := os.WriteFile(path, res.STL, 0o644); err != nil {
		a.log.WithError(err).WithField("path", path).Error("write failed")
		result.Errors = append(result.Errors, MessageData{Message: fmt.Sprintf("write %s: %v", path, err)})
		return result
	}
	a.log.WithFields(logrus.Fields{
		"path":      path,
		"triangles": res.TriangleCount(),
	}).Info("saved STL")
	result.Path = path
	return result
}

// run evaluates source and generates the solid. Any failure is returned as
// frontend messages.
func (a *App) run(source string) (*ripple.Result, []MessageData) {
	scene, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.WithError(err).Error("evaluate failed")
		return nil, []MessageData{{Message: err.Error()}}
	}
	if len(evalErrs) > 0 {
		msgs := make([]MessageData, len(evalErrs))
		for i, e := range evalErrs {
			msgs[i] = MessageData{Line: e.Line, Message: e.Message}
		}
		return nil, msgs
	}

	res, err := a.generator.Generate(a.context(), *scene)
	var perr *ripple.InvalidParamsError
	switch {
	case errors.As(err, &perr):
		return nil, validationMessages(perr.Errors)
	case err != nil:
		a.log.WithError(err).Error("generate failed")
		return nil, []MessageData{{Message: err.Error()}}
	}
	return res, nil
}

func validationMessages(vs []ripple.ValidationError) []MessageData {
	msgs := make([]MessageData, len(vs))
	for i, v := range vs {
		msgs[i] = MessageData{Field: v.Field, Message: v.Message}
	}
	return msgs
}

func nativeSaveDialog(ctx context.Context, defaultName string) (string, error) {
	return runtime.SaveFileDialog(ctx, runtime.SaveDialogOptions{
		Title:           "Save STL",
		DefaultFilename: defaultName,
		Filters: []runtime.FileFilter{
			{DisplayName: "STL files (*.stl)", Pattern: "*.stl"},
		},
	})
}
