package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/ripples/pkg/ripple"
	"github.com/chazu/ripples/pkg/stl"
	"github.com/chazu/ripples/pkg/wave"
)

func readSTL(t *testing.T, path string) stl.Info {
	t.Helper()
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	info, err := stl.ReadInfo(buf)
	require.NoError(t, err)
	assert.Len(t, buf, stl.Size(int(info.Count)))
	return info
}

func TestSourceListSet(t *testing.T) {
	var l sourceList
	require.NoError(t, l.Set("-90,100"))
	require.NoError(t, l.Set(" 1.5, -2 ,0.25"))
	assert.Equal(t, sourceList{{X: -90, Y: 100, Power: 1}, {X: 1.5, Y: -2, Power: 0.25}}, l)

	assert.Error(t, l.Set("1"))
	assert.Error(t, l.Set("1,2,3,4"))
	assert.Error(t, l.Set("a,2"))
	assert.Len(t, l, 2)
}

func TestReadConfigDefaults(t *testing.T) {
	conf, err := readConfig(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ripple.DefaultParams(), conf.Params)
	assert.Empty(t, conf.Sources)
	assert.Empty(t, conf.Files)

	jobs, err := conf.jobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, ripple.FileName, jobs[0].out)
	assert.Equal(t, ripple.DefaultScene(), jobs[0].scene)
}

func TestReadConfigInvalid(t *testing.T) {
	var stderr strings.Builder
	_, err := readConfig([]string{"-logging-level", "loud", "-source", "1,2", "scene.ripple"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "Invalid loggingLevel")
	assert.Contains(t, stderr.String(), "-source cannot be combined")
}

func TestRunFromFlags(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ripple.stl")
	err := run([]string{
		"-logging-level", "error",
		"-resolution", "4", "-amplitude", "0",
		"-source", "0,0",
		"-header", "test header",
		"-out", out,
	}, io.Discard)
	require.NoError(t, err)

	info := readSTL(t, out)
	assert.Equal(t, "test header", info.Header)
	assert.Equal(t, uint32(80), info.Count)
}

func TestRunSceneFiles(t *testing.T) {
	dir := t.TempDir()
	scenes := map[string]string{
		"one.ripple": "(surface :resolution 8)\n(wave-source 0 0)\n",
		"two.ripple": "(surface :size 100 :resolution 500)\n(source-ring :count 3 :radius 30)\n",
	}
	var files []string
	for name, src := range scenes {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		files = append(files, path)
	}

	outDir := filepath.Join(dir, "build")
	args := append([]string{"-logging-level", "error", "-resolution", "12", "-out", outDir}, files...)
	require.NoError(t, run(args, io.Discard))

	for _, name := range []string{"one.stl", "two.stl"} {
		info := readSTL(t, filepath.Join(outDir, name))
		assert.Equal(t, stl.HeaderText, info.Header)
		assert.NotZero(t, info.Count, name)
	}
}

func TestSceneFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.ripple")
	require.NoError(t, os.WriteFile(path, []byte("(surface :size 150 :rings 5)\n(wave-source 1 2 0.5)\n"), 0o644))

	conf, err := readConfig([]string{"-rings", "2", path}, io.Discard)
	require.NoError(t, err)
	jobs, err := conf.jobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	p := jobs[0].scene.Params
	assert.Equal(t, 150.0, p.Size, "unset flag keeps the file's value")
	assert.Equal(t, 2, p.Rings, "set flag overrides the file")
	assert.Equal(t, []wave.Source{{X: 1, Y: 2, Power: 0.5}}, jobs[0].scene.Sources)
	assert.Equal(t, filepath.Join(".", "scene.stl"), jobs[0].out)
}

func TestRunInvalidScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.ripple")
	require.NoError(t, os.WriteFile(path, []byte("(surface :size"), 0o644))

	err := run([]string{"-logging-level", "panic", "-out", dir, path}, io.Discard)
	assert.Error(t, err)
}

func TestRunValidationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.ripple")
	require.NoError(t, os.WriteFile(path, []byte("(surface :size 100)"), 0o644))

	err := run([]string{"-logging-level", "panic", "-out", dir, path}, io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, ripple.ErrInvalidParams)
}
