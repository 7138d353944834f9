// Package glyph defines the data model shared by the decluttering
// strategies: the glyph records handed in by the data loader, the
// selection result handed back to the renderer, and the zoom-level
// lookup tables derived from the map's tile pyramid.
package glyph

// ID identifies one sensor glyph. IDs are unique within an invocation.
type ID string

// Glyph is one circular marker: a sensor at a fixed WGS84 position.
// The radius is not part of the glyph because all glyphs share a single
// zoom-dependent radius per invocation. Glyphs are immutable inputs;
// the engine never mutates them. Renderer-only attributes (indicator
// values, labels) stay outside the engine boundary entirely.
type Glyph struct {
	ID  ID      `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Selection is the outcome of decluttering one (period, zoom level)
// layer. Visible and Hidden partition the input ID set.
type Selection struct {
	Visible []ID `json:"visible"`
	Hidden  []ID `json:"hidden"`

	// HiddenCountByVisible maps a visible glyph to the number of glyphs
	// drawn "behind" it, for badge display. The two strategies follow
	// different conventions, both preserved from the original app:
	// the greedy selector counts the glyph itself plus everything it
	// hides and omits entries that would be 1; the clustering grouper
	// writes the full group size for every representative, singletons
	// included.
	HiddenCountByVisible map[ID]int `json:"hidden_count_by_visible"`

	// Converged is false only for the clustering strategy when the
	// iteration budget ran out before the assignment stabilised. The
	// result is still usable.
	Converged bool `json:"converged"`
}

// VisibleSet returns the visible IDs as a set for membership tests.
func (s *Selection) VisibleSet() map[ID]bool {
	set := make(map[ID]bool, len(s.Visible))
	for _, id := range s.Visible {
		set[id] = true
	}
	return set
}
