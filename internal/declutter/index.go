// Package declutter implements the greedy glyph decluttering strategy:
// a pairwise intersection index over same-radius glyph circles and a
// selector that iteratively suppresses the most-overlapped glyph's
// conflict set until no two remaining glyphs overlap.
package declutter

import (
	"github.com/soundscape-data/rosemap/internal/geo"
	"github.com/soundscape-data/rosemap/internal/glyph"
)

// Edge is one side of an overlap: the other endpoint and the shared
// lens area.
type Edge struct {
	ID   glyph.ID
	Area float64
}

// Index is the sparse pairwise overlap graph for one batch of glyphs.
// Every unordered overlapping pair is stored under both endpoints, so
// lookups from either side agree. Adjacency lists keep input encounter
// order; the selector's scores and tie-breaks depend on summing in a
// stable order.
//
// Construction is O(n²) over the glyphs active at one zoom level (low
// hundreds), and the index is rebuilt in full on every invocation; no
// incremental maintenance.
type Index struct {
	areas map[glyph.ID]map[glyph.ID]float64
	adj   map[glyph.ID][]Edge
}

// BuildIndex computes the overlap graph for glyphs sharing one radius.
// radiusScale widens or shrinks every glyph before the overlap test;
// pass 1 for the geometric default.
func BuildIndex(glyphs []glyph.Glyph, radius, radiusScale float64) *Index {
	idx := &Index{
		areas: make(map[glyph.ID]map[glyph.ID]float64, len(glyphs)),
		adj:   make(map[glyph.ID][]Edge, len(glyphs)),
	}

	for i := 0; i < len(glyphs); i++ {
		a := geo.Circle{Lat: glyphs[i].Lat, Lon: glyphs[i].Lon, Radius: radius}
		for j := i + 1; j < len(glyphs); j++ {
			b := geo.Circle{Lat: glyphs[j].Lat, Lon: glyphs[j].Lon, Radius: radius}
			if !geo.Overlapping(a, b, radiusScale) {
				continue
			}
			area := geo.IntersectionArea(a, b)
			idx.add(glyphs[i].ID, glyphs[j].ID, area)
			idx.add(glyphs[j].ID, glyphs[i].ID, area)
		}
	}
	return idx
}

func (x *Index) add(from, to glyph.ID, area float64) {
	m, ok := x.areas[from]
	if !ok {
		m = make(map[glyph.ID]float64)
		x.areas[from] = m
	}
	m[to] = area
	x.adj[from] = append(x.adj[from], Edge{ID: to, Area: area})
}

// Area returns the overlap area between two glyphs and whether they
// overlap at all.
func (x *Index) Area(a, b glyph.ID) (float64, bool) {
	area, ok := x.areas[a][b]
	return area, ok
}

// Overlaps reports whether the two glyphs overlap.
func (x *Index) Overlaps(a, b glyph.ID) bool {
	_, ok := x.areas[a][b]
	return ok
}

// Neighbors returns the edges touching id in deterministic (build)
// order. The returned slice is owned by the index; callers must not
// mutate it.
func (x *Index) Neighbors(id glyph.ID) []Edge {
	return x.adj[id]
}
