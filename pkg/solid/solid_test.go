package solid_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/ripples/pkg/grid"
	"github.com/chazu/ripples/pkg/mesh"
	"github.com/chazu/ripples/pkg/solid"
	"github.com/chazu/ripples/pkg/tessellate"
	"github.com/chazu/ripples/pkg/wave"
)

func ripples(size float64) grid.HeightFunc {
	f := wave.NewField([]wave.Source{
		{X: -0.45 * size, Y: -0.5 * size, Power: 1},
		{X: -0.5 * size, Y: 0.45 * size, Power: 0.8},
		{X: 0.45 * size, Y: 0.5 * size, Power: 0.9},
	}, 1, 0.3, 3)
	return f.Height
}

func build(t *testing.T, size float64, n int, thickness float64) (*grid.Samples, *mesh.Mesh) {
	t.Helper()
	s := grid.Sample(grid.Spec{Size: size, Resolution: n}, ripples(size))
	top := tessellate.Top(s)
	require.Zero(t, top.Stats.Skipped, "triangulation skipped cells")
	return s, solid.Build(s, top.Triangles, thickness)
}

func TestBuildIsClosed(t *testing.T) {
	sizes := []float64{200, 173.3, 50}
	resolutions := []int{2, 3, 4, 5, 7, 10, 13, 20, 25, 50, 100}
	for _, size := range sizes {
		for _, n := range resolutions {
			t.Run(fmt.Sprintf("size=%v/n=%d", size, n), func(t *testing.T) {
				_, m := build(t, size, n, 2)
				require.False(t, m.IsEmpty())
				assert.NoError(t, solid.CheckClosed(m.Triangles()))
			})
		}
	}
}

func TestBuildCounts(t *testing.T) {
	s, m := build(t, 200, 16, 2)
	assert.Equal(t, len(m.Top), len(m.Bottom), "bottom mirrors top")
	assert.Equal(t, 2*s.BoundaryCount(), len(m.Wall), "two wall triangles per ring edge")
	assert.Equal(t, 2*len(m.Top)+2*s.BoundaryCount(), m.TriangleCount())
}

func TestBottomIsFlatAndFlipped(t *testing.T) {
	_, m := build(t, 120, 9, 3.5)
	for i, b := range m.Bottom {
		top := m.Top[i]
		for k := range b {
			assert.Equal(t, -3.5, b[k].Z)
		}
		assert.Equal(t, top[0].X, b[0].X)
		assert.Equal(t, top[2].X, b[1].X)
		assert.Equal(t, top[1].Y, b[2].Y)
	}
}

func TestWallNormalsPointOutward(t *testing.T) {
	_, m := build(t, 200, 31, 2)
	for _, w := range m.Wall {
		n := w[1].Sub(w[0]).Cross(w[2].Sub(w[0]))
		c := w[0].Add(w[1]).Add(w[2]).MulScalar(1.0 / 3)
		assert.Positive(t, n.X*c.X+n.Y*c.Y, "wall triangle %v faces inward", w)
		assert.InDelta(t, 0, n.Z, 1e-9)
	}
}

func TestBoundsWithinFootprint(t *testing.T) {
	const size, thickness = 150.0, 2.0
	_, m := build(t, size, 40, thickness)
	box := m.Bounds()
	r := size / 2
	tol := math.Sqrt2 * 0.5 / grid.Precision
	assert.LessOrEqual(t, box.Max.X, r+tol)
	assert.GreaterOrEqual(t, box.Min.X, -r-tol)
	assert.LessOrEqual(t, box.Max.Y, r+tol)
	assert.GreaterOrEqual(t, box.Min.Y, -r-tol)
	assert.Equal(t, -thickness, box.Min.Z)
	for _, tri := range m.Triangles() {
		for _, v := range tri {
			assert.LessOrEqual(t, math.Hypot(v.X, v.Y), r+tol)
		}
	}
}

func TestRingResolution2(t *testing.T) {
	s := grid.Sample(grid.Spec{Size: 200, Resolution: 2}, func(x, y float64) float64 { return 0 })
	ring := solid.Ring(s)
	require.Len(t, ring, 4)
	assert.Equal(t, 100.0, ring[0].X)
	assert.Equal(t, 100.0, ring[1].Y)
	assert.Equal(t, -100.0, ring[2].X)
	assert.Equal(t, -100.0, ring[3].Y)
}

func TestCheckClosedDetectsHole(t *testing.T) {
	_, m := build(t, 200, 6, 2)
	tris := m.Triangles()
	require.NoError(t, solid.CheckClosed(tris))

	err := solid.CheckClosed(tris[1:])
	var cerr *solid.ClosureError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.Unmatched)
}

func TestCheckClosedDetectsFlippedTriangle(t *testing.T) {
	_, m := build(t, 200, 6, 2)
	tris := m.Triangles()
	tris[0] = tris[0].Flipped()
	assert.Error(t, solid.CheckClosed(tris))
}

func TestBuildEmpty(t *testing.T) {
	s := grid.Sample(grid.Spec{Size: 200, Resolution: 1}, func(x, y float64) float64 { return 0 })
	m := solid.Build(s, tessellate.Top(s).Triangles, 2)
	assert.True(t, m.IsEmpty())
	assert.NoError(t, solid.CheckClosed(m.Triangles()))
}
