// Package mesh defines the triangle soup produced by the generator. Vertices
// are stored per triangle, fully materialized; there is no shared index
// buffer. Winding order is significant: counter-clockwise when seen from
// outside the solid.
package mesh

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangle is three points in winding order.
type Triangle [3]v3.Vec

// Flipped returns the triangle with reversed winding.
func (t Triangle) Flipped() Triangle {
	return Triangle{t[0], t[2], t[1]}
}

// Area returns the triangle's area.
func (t Triangle) Area() float64 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Length() / 2
}

// Mesh is a triangle soup split by role so that callers can audit the
// top/bottom/wall balance of a generated solid.
type Mesh struct {
	Top    []Triangle `json:"top"`
	Bottom []Triangle `json:"bottom"`
	Wall   []Triangle `json:"wall"`
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Top) + len(m.Bottom) + len(m.Wall)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return m.TriangleCount() == 0
}

// Triangles returns every triangle: top, then bottom, then wall.
func (m *Mesh) Triangles() []Triangle {
	all := make([]Triangle, 0, m.TriangleCount())
	all = append(all, m.Top...)
	all = append(all, m.Bottom...)
	all = append(all, m.Wall...)
	return all
}

// Bounds returns the axis-aligned bounding box of the mesh. An empty mesh
// has a zero box.
func (m *Mesh) Bounds() sdf.Box3 {
	var box sdf.Box3
	first := true
	for _, part := range [][]Triangle{m.Top, m.Bottom, m.Wall} {
		for _, t := range part {
			for _, v := range t {
				if first {
					box = sdf.Box3{Min: v, Max: v}
					first = false
					continue
				}
				box = sdf.Box3{Min: box.Min.Min(v), Max: box.Max.Max(v)}
			}
		}
	}
	return box
}
