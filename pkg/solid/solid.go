// Package solid closes a triangulated top surface into a watertight solid:
// a flat base at -thickness mirroring the top, and a vertical wall joining
// the boundary ring to the base.
package solid

import (
	"fmt"

	"github.com/chazu/ripples/pkg/grid"
	"github.com/chazu/ripples/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Build assembles the solid for samples s and top surface top. Bottom
// triangles are the top triangles dropped to z = -thickness with reversed
// winding. The wall walks the boundary ring counter-clockwise and emits two
// triangles per ring edge.
func Build(s *grid.Samples, top []mesh.Triangle, thickness float64) *mesh.Mesh {
	m := &mesh.Mesh{
		Top:    top,
		Bottom: make([]mesh.Triangle, 0, len(top)),
	}
	for _, t := range top {
		m.Bottom = append(m.Bottom, mesh.Triangle{
			base(t[0], thickness),
			base(t[2], thickness),
			base(t[1], thickness),
		})
	}
	m.Wall = Wall(s, thickness)
	return m
}

// Wall returns the side wall. For each counter-clockwise ring edge (a, b)
// it emits (a, a', b') and (a, b', b), where primes denote base points, so
// that normals point away from the centre.
func Wall(s *grid.Samples, thickness float64) []mesh.Triangle {
	ring := Ring(s)
	if len(ring) < 3 {
		return nil
	}
	wall := make([]mesh.Triangle, 0, 2*len(ring))
	for k, a := range ring {
		b := ring[(k+1)%len(ring)]
		ab, bb := base(a, thickness), base(b, thickness)
		wall = append(wall,
			mesh.Triangle{a, ab, bb},
			mesh.Triangle{a, bb, b},
		)
	}
	return wall
}

// Ring returns the boundary vertices in counter-clockwise order with their
// heights.
//
// Walking the upper half-loop (y >= 0) by decreasing x and then the lower
// half-loop by increasing x visits the same sequence.
func Ring(s *grid.Samples) []v3.Vec {
	keys := s.Ring()
	ring := make([]v3.Vec, 0, len(keys))
	for _, k := range keys {
		z, _ := s.Z(k)
		x, y := k.MM()
		ring = append(ring, v3.Vec{X: x, Y: y, Z: z})
	}
	return ring
}

func base(v v3.Vec, thickness float64) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: -thickness}
}

// edge is a directed edge between two snapped points. Points carry their z
// snapped as well so that top and base copies of a ring vertex differ.
type edge struct {
	from, to point
}

type point struct {
	x, y, z int64
}

func snap(v v3.Vec) point {
	return point{grid.Snap(v.X), grid.Snap(v.Y), grid.Snap(v.Z)}
}

// ClosureError reports the directed edges of a triangle soup that are not
// matched by exactly one reverse edge.
type ClosureError struct {
	Unmatched int
	Example   [2]v3.Vec
}

func (e *ClosureError) Error() string {
	return fmt.Sprintf("mesh is not closed: %d unmatched directed edges (e.g. %v -> %v)",
		e.Unmatched, e.Example[0], e.Example[1])
}

// CheckClosed verifies that every directed edge of tris appears once and is
// matched by exactly one edge running the other way. A soup that passes is a
// closed, consistently oriented surface.
func CheckClosed(tris []mesh.Triangle) error {
	count := make(map[edge]int, 3*len(tris))
	for _, t := range tris {
		for k := 0; k < 3; k++ {
			e := edge{snap(t[k]), snap(t[(k+1)%3])}
			count[e]++
		}
	}
	var cerr *ClosureError
	for e, n := range count {
		if n == 1 && count[edge{e.to, e.from}] == 1 {
			continue
		}
		if cerr == nil {
			cerr = &ClosureError{Example: [2]v3.Vec{unsnap(e.from), unsnap(e.to)}}
		}
		cerr.Unmatched++
	}
	if cerr != nil {
		return cerr
	}
	return nil
}

func unsnap(p point) v3.Vec {
	return v3.Vec{X: grid.Unsnap(p.x), Y: grid.Unsnap(p.y), Z: grid.Unsnap(p.z)}
}
