package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/chazu/ripples/pkg/stl"
)

func newTestApp() *App {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewApp(log)
}

// TestE2EFourSourcesExample exercises the full pipeline: scene source ->
// engine -> generator -> STL. This is the same path that the Wails Generate
// binding takes, but without the Wails runtime.
func TestE2EFourSourcesExample(t *testing.T) {
	app := newTestApp()

	source, err := os.ReadFile("examples/four_sources.ripple")
	if err != nil {
		t.Fatalf("failed to read four_sources.ripple: %v", err)
	}

	result := app.Generate(string(source))

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("error (line %d, %s): %s", e.Line, e.Field, e.Message)
		}
		t.FailNow()
	}
	if result.Top == 0 {
		t.Fatal("expected a non-empty top surface")
	}
	if result.Bottom != result.Top {
		t.Errorf("bottom = %d, want %d (mirrors top)", result.Bottom, result.Top)
	}
	if result.Triangles != result.Top+result.Bottom+result.Wall {
		t.Errorf("triangles = %d, want sum of parts", result.Triangles)
	}
	if result.Bytes != stl.Size(result.Triangles) {
		t.Errorf("bytes = %d, want %d", result.Bytes, stl.Size(result.Triangles))
	}
	if result.Cells["full"] == 0 {
		t.Errorf("expected full cells, got %v", result.Cells)
	}
	if result.Min[2] != -2 {
		t.Errorf("min z = %v, want -2 (base)", result.Min[2])
	}
	if result.Max[0] > 100+1e-9 || result.Min[0] < -100-1e-9 {
		t.Errorf("x extent [%v, %v] exceeds the footprint", result.Min[0], result.Max[0])
	}
}

// TestE2EDefaultSceneGenerates ensures the editor's initial content is valid.
func TestE2EDefaultSceneGenerates(t *testing.T) {
	app := newTestApp()
	result := app.Generate(app.DefaultScene())

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) > 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

// TestE2EEmptySource reports the missing source as a validation error.
func TestE2EEmptySource(t *testing.T) {
	app := newTestApp()
	result := app.Generate("")

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error for empty source, got %v", result.Errors)
	}
	if result.Errors[0].Field != "sources" {
		t.Errorf("expected error on sources, got %q", result.Errors[0].Field)
	}
	if result.Triangles != 0 {
		t.Errorf("expected 0 triangles on error, got %d", result.Triangles)
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp()
	result := app.Generate("(wave-source :x 1")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.Triangles != 0 {
		t.Errorf("expected 0 triangles on error, got %d", result.Triangles)
	}
}

// TestE2ESave writes through a stubbed dialog and checks the file.
func TestE2ESave(t *testing.T) {
	app := newTestApp()
	dir := t.TempDir()
	var offered string
	app.saveDialog = func(ctx context.Context, name string) (string, error) {
		offered = name
		return filepath.Join(dir, name), nil
	}

	result := app.Save(`(surface :resolution 8) (wave-source 0 0)`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if offered != "rippling_water.stl" {
		t.Errorf("dialog offered %q", offered)
	}

	b, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	info, err := stl.ReadInfo(b)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.Header != stl.HeaderText {
		t.Errorf("header = %q", info.Header)
	}
	if info.Count == 0 {
		t.Error("expected triangles in saved file")
	}
}

// TestE2ESaveCancelled leaves no file behind.
func TestE2ESaveCancelled(t *testing.T) {
	app := newTestApp()
	app.saveDialog = func(ctx context.Context, name string) (string, error) {
		return "", nil
	}

	result := app.Save(`(wave-source 0 0)`)
	if !result.Cancelled {
		t.Error("expected cancelled result")
	}
	if result.Path != "" || len(result.Errors) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}
