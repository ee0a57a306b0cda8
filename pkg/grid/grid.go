// Package grid samples the height field on a square lattice clipped to a
// circular footprint. All coordinates are canonicalized to integer keys in
// units of 1/Precision mm so that the same physical point reached through
// different code paths always lands on the same map entry.
package grid

import (
	"math"
	"sort"
)

// Precision is the number of key units per millimetre.
const Precision = 100

// Key is a snapped (x, y) coordinate in key units.
type Key struct {
	X, Y int64
}

// Snap converts a coordinate in mm to key units. Rounding is half away from
// zero, so Snap(-v) == -Snap(v).
func Snap(v float64) int64 {
	return int64(math.Round(v * Precision))
}

// Unsnap converts key units back to mm.
func Unsnap(k int64) float64 {
	return float64(k) / Precision
}

// MM returns the key as a point in mm.
func (k Key) MM() (x, y float64) {
	return Unsnap(k.X), Unsnap(k.Y)
}

// HeightFunc evaluates the surface height at a point in mm.
type HeightFunc func(x, y float64) float64

// Spec describes the lattice: Resolution cells per axis spanning Size mm,
// clipped to the inscribed circle of radius Size/2.
type Spec struct {
	Size       float64
	Resolution int
}

// Radius returns the footprint radius in mm.
func (s Spec) Radius() float64 {
	return s.Size / 2
}

// Samples holds the interior and boundary vertices of one generation.
type Samples struct {
	Spec Spec

	// Lines holds the key of grid line i for i in [0, Resolution]. The same
	// table is used for x and y.
	Lines []int64

	// Interior maps a strictly-inside lattice point to its height.
	Interior map[Key]float64

	// ByX and ByY index the boundary vertices (circle crossings of grid
	// lines): x -> y -> z, and y -> sorted x keys.
	ByX map[int64]map[int64]float64
	ByY map[int64][]int64

	radiusKey float64
}

// Sample builds the vertex maps for spec using height for z.
func Sample(spec Spec, height HeightFunc) *Samples {
	n := spec.Resolution
	s := &Samples{
		Spec:      spec,
		Lines:     make([]int64, n+1),
		Interior:  make(map[Key]float64),
		ByX:       make(map[int64]map[int64]float64),
		ByY:       make(map[int64][]int64),
		radiusKey: spec.Radius() * Precision,
	}
	for i := 0; i <= n; i++ {
		s.Lines[i] = Snap((float64(i)/float64(n) - 0.5) * spec.Size)
	}

	s.scanVertical(height)
	s.scanHorizontal(height)
	for _, xs := range s.ByY {
		sort.Slice(xs, func(a, b int) bool { return xs[a] < xs[b] })
	}

	rr := s.radiusKey * s.radiusKey
	for _, kx := range s.Lines {
		for _, ky := range s.Lines {
			fx, fy := float64(kx), float64(ky)
			if fx*fx+fy*fy >= rr {
				continue
			}
			k := Key{kx, ky}
			if s.IsBoundary(k) {
				continue
			}
			x, y := k.MM()
			s.Interior[k] = height(x, y)
		}
	}
	return s
}

// scanVertical intersects every vertical grid line with the circle and keeps
// the crossings where the circle runs closer to horizontal (|x| <= |y|).
func (s *Samples) scanVertical(height HeightFunc) {
	r := s.Spec.Radius()
	for _, kx := range s.Lines {
		x := Unsnap(kx)
		d := r*r - x*x
		if d < 0 {
			continue
		}
		for _, sign := range [2]float64{1, -1} {
			y := sign * math.Sqrt(d)
			if math.Abs(x) > math.Abs(y) {
				continue
			}
			s.addBoundary(Key{kx, Snap(y)}, height)
		}
	}
}

// scanHorizontal is the transpose of scanVertical, keeping |x| >= |y|.
func (s *Samples) scanHorizontal(height HeightFunc) {
	r := s.Spec.Radius()
	for _, ky := range s.Lines {
		y := Unsnap(ky)
		d := r*r - y*y
		if d < 0 {
			continue
		}
		for _, sign := range [2]float64{1, -1} {
			x := sign * math.Sqrt(d)
			if math.Abs(x) < math.Abs(y) {
				continue
			}
			s.addBoundary(Key{Snap(x), ky}, height)
		}
	}
}

func (s *Samples) addBoundary(k Key, height HeightFunc) {
	col, ok := s.ByX[k.X]
	if !ok {
		col = make(map[int64]float64)
		s.ByX[k.X] = col
	}
	if _, dup := col[k.Y]; dup {
		return
	}
	x, y := k.MM()
	col[k.Y] = height(x, y)
	s.ByY[k.Y] = append(s.ByY[k.Y], k.X)
}

// IsBoundary reports whether k is a boundary vertex.
func (s *Samples) IsBoundary(k Key) bool {
	_, ok := s.ByX[k.X][k.Y]
	return ok
}

// Z returns the height stored for k, looking in the boundary maps first.
func (s *Samples) Z(k Key) (float64, bool) {
	if z, ok := s.ByX[k.X][k.Y]; ok {
		return z, true
	}
	z, ok := s.Interior[k]
	return z, ok
}

// Boundary returns every boundary vertex, ordered by x then y.
func (s *Samples) Boundary() []Key {
	var keys []Key
	for kx, col := range s.ByX {
		for ky := range col {
			keys = append(keys, Key{kx, ky})
		}
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].X != keys[b].X {
			return keys[a].X < keys[b].X
		}
		return keys[a].Y < keys[b].Y
	})
	return keys
}

// BoundaryCount returns the number of distinct boundary vertices.
func (s *Samples) BoundaryCount() int {
	n := 0
	for _, col := range s.ByX {
		n += len(col)
	}
	return n
}

// RadiusKey returns the footprint radius in key units.
func (s *Samples) RadiusKey() float64 {
	return s.radiusKey
}

// OnVertical returns the boundary vertices on grid line x = Lines[i] with
// lo <= y <= hi, in increasing y.
func (s *Samples) OnVertical(i int, lo, hi int64) []Key {
	kx := s.Lines[i]
	var keys []Key
	for ky := range s.ByX[kx] {
		if ky >= lo && ky <= hi {
			keys = append(keys, Key{kx, ky})
		}
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a].Y < keys[b].Y })
	return keys
}

// OnHorizontal returns the boundary vertices on grid line y = Lines[j] with
// lo <= x <= hi, in increasing x.
func (s *Samples) OnHorizontal(j int, lo, hi int64) []Key {
	ky := s.Lines[j]
	var keys []Key
	for _, kx := range s.ByY[ky] {
		if kx >= lo && kx <= hi {
			keys = append(keys, Key{kx, ky})
		}
	}
	return keys
}

// Ring returns the boundary vertices in counter-clockwise order starting
// from the positive x axis. The ordering is exact on integer keys.
func (s *Samples) Ring() []Key {
	ring := s.Boundary()
	sort.Slice(ring, func(a, b int) bool {
		return angleLess(ring[a], ring[b])
	})
	return ring
}

// upper reports whether k lies in the half-turn [0, pi).
func upper(k Key) bool {
	return k.Y > 0 || (k.Y == 0 && k.X > 0)
}

func angleLess(a, b Key) bool {
	ua, ub := upper(a), upper(b)
	if ua != ub {
		return ua
	}
	return a.X*b.Y-a.Y*b.X > 0
}
