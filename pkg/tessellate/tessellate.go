// Package tessellate triangulates the top surface of a clipped height grid.
// Fully covered cells split along a fixed diagonal. A pentagon cell emits
// the triangle of its three corners and the quadrilateral between them and
// the boundary chord cutting off the missing corner. A one-corner cell emits
// the triangle between its corner and the nearest boundary vertex on each of
// its two edges. Other cut cells are covered by the convex polygon of their
// present corners and the boundary vertices on their edges. Boundary chords
// no cell accounted for are bridged to the nearest interior corners in a
// fallback pass. All polygon arithmetic runs on integer grid keys.
package tessellate

import (
	"fmt"
	"sort"

	"github.com/chazu/ripples/pkg/grid"
	"github.com/chazu/ripples/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CellKind classifies a grid cell by which of its corners are inside the
// footprint.
type CellKind int

const (
	CellEmpty              CellKind = iota // no corner inside
	CellFull                               // all four corners inside
	CellMissingOneInline                   // three corners, boundary vertex on a cell edge
	CellMissingOnePentagon                 // three corners, circle cuts the missing corner transversally
	CellMissingTwoRow                      // two corners sharing a row
	CellMissingTwoCol                      // two corners sharing a column
	CellOneCorner                          // a single corner inside
	numCellKinds
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellFull:
		return "full"
	case CellMissingOneInline:
		return "missing-one-inline"
	case CellMissingOnePentagon:
		return "missing-one-pentagon"
	case CellMissingTwoRow:
		return "missing-two-row"
	case CellMissingTwoCol:
		return "missing-two-col"
	case CellOneCorner:
		return "one-corner"
	default:
		return fmt.Sprintf("CellKind(%d)", int(k))
	}
}

// Stats summarizes one triangulation.
type Stats struct {
	Cells     [numCellKinds]int // cells per kind
	Triangles [numCellKinds]int // triangles emitted by cells of each kind
	Bridges   int               // boundary chords closed by the fallback pass
	Skipped   int               // cells or chords dropped on a lookup miss
}

// Count returns the number of cells of kind k.
func (s Stats) Count(k CellKind) int {
	if k < 0 || k >= numCellKinds {
		return 0
	}
	return s.Cells[k]
}

// TrianglesOf returns the number of triangles emitted by cells of kind k.
func (s Stats) TrianglesOf(k CellKind) int {
	if k < 0 || k >= numCellKinds {
		return 0
	}
	return s.Triangles[k]
}

// Surface is the triangulated top surface.
type Surface struct {
	Triangles []mesh.Triangle
	Stats     Stats
}

// triangulator carries per-run state.
type triangulator struct {
	s   *grid.Samples
	out *Surface

	ring []grid.Key
	next map[grid.Key]grid.Key
	// claimed holds the first vertex of each chord a cell already covered.
	claimed map[grid.Key]bool

	// kind is the cell being emitted; numCellKinds outside the cell loop.
	kind CellKind
}

// Top triangulates the region inside the boundary ring of s. Triangles are
// wound counter-clockwise seen from +z.
func Top(s *grid.Samples) *Surface {
	t := &triangulator{
		s:       s,
		out:     &Surface{},
		ring:    s.Ring(),
		next:    make(map[grid.Key]grid.Key),
		claimed: make(map[grid.Key]bool),
		kind:    numCellKinds,
	}
	for k, u := range t.ring {
		t.next[u] = t.ring[(k+1)%len(t.ring)]
	}
	n := len(s.Lines) - 1
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			t.cell(i, j)
		}
	}
	t.kind = numCellKinds
	t.bridges()
	return t.out
}

// cell classifies cell (i, j) and emits its triangles.
func (t *triangulator) cell(i, j int) {
	s := t.s
	x0, x1 := s.Lines[i], s.Lines[i+1]
	y0, y1 := s.Lines[j], s.Lines[j+1]

	corners := [4]grid.Key{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
	var present []grid.Key
	for _, c := range corners {
		if _, ok := s.Interior[c]; ok {
			present = append(present, c)
		}
	}
	if len(present) == 4 {
		t.out.Stats.Cells[CellFull]++
		t.kind = CellFull
		t.full(x0, x1, y0, y1)
		return
	}

	var edge []grid.Key
	edge = append(edge, s.OnHorizontal(j, x0, x1)...)
	edge = append(edge, s.OnHorizontal(j+1, x0, x1)...)
	edge = append(edge, s.OnVertical(i, y0, y1)...)
	edge = append(edge, s.OnVertical(i+1, y0, y1)...)

	kind := classify(present, edge)
	t.out.Stats.Cells[kind]++
	t.kind = kind

	switch {
	case kind == CellMissingOnePentagon && t.pentagon(present, corners):
	case kind == CellOneCorner && t.oneCorner(present[0], edge):
	default:
		// A cell without interior corners can still hold a sliver bounded
		// only by boundary vertices sitting on its corners.
		t.fan(apex(hull(append(present, edge...))))
	}
}

// pentagon covers a cell whose missing corner M the circle cuts with a
// chord entering and leaving through the two grid lines adjacent to M. A is
// the corner diagonal to M, B shares M's row and C shares M's column. The
// chord runs from the boundary vertex on B's column nearest M to the one on
// C's row nearest M. It reports false when the boundary does not have that
// shape, leaving the cell to the hull fan and the bridge pass.
func (t *triangulator) pentagon(present []grid.Key, corners [4]grid.Key) bool {
	var m, a, b, c grid.Key
	for _, k := range corners {
		if _, ok := t.s.Interior[k]; !ok {
			m = k
		}
	}
	for _, k := range present {
		switch {
		case k.Y == m.Y:
			b = k
		case k.X == m.X:
			c = k
		default:
			a = k
		}
	}

	sy, sx := sign(m.Y-a.Y), sign(m.X-a.X)
	var col, row []grid.Key
	for y := range t.s.ByX[b.X] {
		if (y-b.Y)*sy > 0 {
			col = append(col, grid.Key{X: b.X, Y: y})
		}
	}
	for _, x := range t.s.ByY[c.Y] {
		if (x-c.X)*sx > 0 {
			row = append(row, grid.Key{X: x, Y: c.Y})
		}
	}
	p, ok := nearest(m, col)
	if !ok {
		return false
	}
	q, ok := nearest(m, row)
	if !ok {
		return false
	}

	u, v := p, q
	if n, ok := t.next[u]; !ok || n != v {
		u, v = q, p
		if n, ok := t.next[u]; !ok || n != v {
			return false
		}
	}
	cs, ok := t.crossings(u, v)
	if !ok || len(cs) != 2 {
		return false
	}
	if !(cs[0].inner == b && cs[1].inner == c) && !(cs[0].inner == c && cs[1].inner == b) {
		return false
	}

	t.emit(a, b, c)
	t.bridge(u, v, cs)
	t.claimed[u] = true
	return true
}

// oneCorner covers a cell holding a single interior corner a when its edges
// carry exactly two boundary vertices, one on a's column and one on a's row.
func (t *triangulator) oneCorner(a grid.Key, edge []grid.Key) bool {
	var col, row []grid.Key
	for _, k := range edge {
		switch {
		case k == a:
		case k.X == a.X:
			col = append(col, k)
		case k.Y == a.Y:
			row = append(row, k)
		}
	}
	p, ok := nearest(a, col)
	if !ok {
		return false
	}
	q, ok := nearest(a, row)
	if !ok {
		return false
	}
	if u := unique(edge); len(u) != 2 || !(u[0] == p && u[1] == q) && !(u[0] == q && u[1] == p) {
		return false
	}
	t.emit(a, p, q)
	return true
}

// nearest returns the key in keys closest to m.
func nearest(m grid.Key, keys []grid.Key) (grid.Key, bool) {
	var best grid.Key
	bestD := int64(-1)
	for _, k := range keys {
		dx, dy := k.X-m.X, k.Y-m.Y
		if d := dx*dx + dy*dy; bestD < 0 || d < bestD {
			best, bestD = k, d
		}
	}
	return best, bestD >= 0
}

func sign(v int64) int64 {
	if v < 0 {
		return -1
	}
	return 1
}

// classify picks the tagged variant for a cell that is not fully covered.
func classify(present, edge []grid.Key) CellKind {
	switch len(present) {
	case 3:
		if len(edge) > 0 {
			return CellMissingOneInline
		}
		return CellMissingOnePentagon
	case 2:
		if present[0].Y == present[1].Y {
			return CellMissingTwoRow
		}
		return CellMissingTwoCol
	case 1:
		return CellOneCorner
	}
	return CellEmpty
}

// full splits a covered cell along the diagonal from the corner nearest the
// centre to the farthest one. The cell is reflected into the first quadrant
// to find them, so one routine serves all four quadrants.
func (t *triangulator) full(x0, x1, y0, y1 int64) {
	nearX, farX := x0, x1
	if x0+x1 < 0 {
		nearX, farX = x1, x0
	}
	nearY, farY := y0, y1
	if y0+y1 < 0 {
		nearY, farY = y1, y0
	}
	near := grid.Key{X: nearX, Y: nearY}
	far := grid.Key{X: farX, Y: farY}
	t.emit(near, grid.Key{X: farX, Y: nearY}, far)
	t.emit(near, far, grid.Key{X: nearX, Y: farY})
}

// fan triangulates a convex polygon given in counter-clockwise order.
func (t *triangulator) fan(poly []grid.Key) {
	for k := 1; k+1 < len(poly); k++ {
		t.emit(poly[0], poly[k], poly[k+1])
	}
}

// emit materializes a triangle, forcing counter-clockwise winding.
func (t *triangulator) emit(a, b, c grid.Key) {
	if cross(a, b, c) < 0 {
		b, c = c, b
	}
	pa, okA := t.point(a)
	pb, okB := t.point(b)
	pc, okC := t.point(c)
	if !okA || !okB || !okC {
		t.out.Stats.Skipped++
		return
	}
	t.out.Triangles = append(t.out.Triangles, mesh.Triangle{pa, pb, pc})
	if t.kind < numCellKinds {
		t.out.Stats.Triangles[t.kind]++
	}
}

func (t *triangulator) point(k grid.Key) (v3.Vec, bool) {
	z, ok := t.s.Z(k)
	if !ok {
		return v3.Vec{}, false
	}
	x, y := k.MM()
	return v3.Vec{X: x, Y: y, Z: z}, true
}

// cross returns twice the signed area of (a, b, c).
func cross(a, b, c grid.Key) int64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// hull returns the convex hull of pts in counter-clockwise order, keeping
// collinear boundary points so that neighbouring cells see the same edge
// vertices. It returns nil when the points span no area.
func hull(pts []grid.Key) []grid.Key {
	pts = unique(pts)
	if len(pts) < 3 {
		return nil
	}
	area := false
	for k := 2; k < len(pts); k++ {
		if cross(pts[0], pts[1], pts[k]) != 0 {
			area = true
			break
		}
	}
	if !area {
		return nil
	}

	chain := func(order []grid.Key) []grid.Key {
		var h []grid.Key
		for _, p := range order {
			for len(h) >= 2 && cross(h[len(h)-2], h[len(h)-1], p) < 0 {
				h = h[:len(h)-1]
			}
			h = append(h, p)
		}
		return h[:len(h)-1]
	}
	rev := make([]grid.Key, len(pts))
	for k, p := range pts {
		rev[len(pts)-1-k] = p
	}
	lower := chain(pts)
	upper := chain(rev)
	return append(lower, upper...)
}

// apex rotates a convex polygon so that its first vertex has no collinear
// neighbours on either incident edge, which keeps the fan free of zero-area
// triangles. Polygons without such a vertex are returned unchanged.
func apex(poly []grid.Key) []grid.Key {
	n := len(poly)
	at := func(k int) grid.Key { return poly[((k%n)+n)%n] }
	for k := 0; k < n; k++ {
		if cross(at(k-2), at(k-1), at(k)) > 0 &&
			cross(at(k-1), at(k), at(k+1)) > 0 &&
			cross(at(k), at(k+1), at(k+2)) > 0 {
			return append(poly[k:len(poly):len(poly)], poly[:k]...)
		}
	}
	return poly
}

// unique sorts pts by (x, y) and drops duplicates.
func unique(pts []grid.Key) []grid.Key {
	out := make([]grid.Key, len(pts))
	copy(out, pts)
	sort.Slice(out, func(a, b int) bool {
		if out[a].X != out[b].X {
			return out[a].X < out[b].X
		}
		return out[a].Y < out[b].Y
	})
	n := 0
	for k, p := range out {
		if k == 0 || p != out[n-1] {
			out[n] = p
			n++
		}
	}
	return out[:n]
}

// crossing is a point where a boundary chord passes a grid line, together
// with the interior end of the grid segment it passes through.
type crossing struct {
	t     float64
	inner grid.Key
}

// bridges closes the gaps left between the cell polygons and the boundary
// ring. A chord between consecutive ring vertices that crosses grid lines
// leaves its cells through crossings the boundary scan filtered out; unless
// a pentagon cell already covered it, the region between the chord and the
// interior lattice is fanned from the chord's first vertex.
func (t *triangulator) bridges() {
	ring := t.ring
	if len(ring) < 3 {
		return
	}
	for k := range ring {
		u, v := ring[k], ring[(k+1)%len(ring)]
		if t.claimed[u] {
			continue
		}
		cs, ok := t.crossings(u, v)
		if !ok {
			t.out.Stats.Skipped++
			continue
		}
		if len(cs) == 0 {
			continue
		}
		t.out.Stats.Bridges++
		t.bridge(u, v, cs)
	}
}

// bridge fans the polygon between chord u-v and the inner nodes of its
// crossings.
func (t *triangulator) bridge(u, v grid.Key, cs []crossing) {
	poly := []grid.Key{u, v}
	for m := len(cs) - 1; m >= 0; m-- {
		poly = append(poly, cs[m].inner)
	}
	t.fan(poly)
}

// crossings returns the grid line crossings of chord u-v ordered from u to
// v, with consecutive crossings that share an inner node merged.
func (t *triangulator) crossings(u, v grid.Key) ([]crossing, bool) {
	var cs []crossing
	dx, dy := v.X-u.X, v.Y-u.Y
	for _, l := range t.s.Lines {
		if between(l, u.X, v.X) {
			// y = u.Y + (l-u.X)*dy/dx
			num, den := u.Y*dx+(l-u.X)*dy, dx
			p, ok := t.inner(num, den, func(a int64) grid.Key { return grid.Key{X: l, Y: a} })
			if !ok {
				return nil, false
			}
			cs = append(cs, crossing{t: float64(l-u.X) / float64(dx), inner: p})
		}
		if between(l, u.Y, v.Y) {
			num, den := u.X*dy+(l-u.Y)*dx, dy
			p, ok := t.inner(num, den, func(a int64) grid.Key { return grid.Key{X: a, Y: l} })
			if !ok {
				return nil, false
			}
			cs = append(cs, crossing{t: float64(l-u.Y) / float64(dy), inner: p})
		}
	}
	sort.Slice(cs, func(a, b int) bool { return cs[a].t < cs[b].t })
	n := 0
	for k, c := range cs {
		if k == 0 || c.inner != cs[n-1].inner {
			cs[n] = c
			n++
		}
	}
	return cs[:n], true
}

// inner locates the grid segment holding the coordinate num/den along a grid
// line and returns its endpoint inside the footprint. key maps a line
// coordinate to a lattice key. Exactly one endpoint must be interior.
func (t *triangulator) inner(num, den int64, key func(int64) grid.Key) (grid.Key, bool) {
	if den < 0 {
		num, den = -num, -den
	}
	lines := t.s.Lines
	m := sort.Search(len(lines), func(i int) bool { return lines[i]*den >= num })
	if m == 0 || m == len(lines) || lines[m]*den == num {
		return grid.Key{}, false
	}
	lo, hi := key(lines[m-1]), key(lines[m])
	_, inLo := t.s.Interior[lo]
	_, inHi := t.s.Interior[hi]
	switch {
	case inLo && !inHi:
		return lo, true
	case inHi && !inLo:
		return hi, true
	}
	return grid.Key{}, false
}

// between reports whether l lies strictly between a and b.
func between(l, a, b int64) bool {
	if a > b {
		a, b = b, a
	}
	return a < l && l < b
}
