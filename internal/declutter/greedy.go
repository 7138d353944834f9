package declutter

import (
	"github.com/soundscape-data/rosemap/internal/glyph"
)

// Options tunes one selector invocation.
type Options struct {
	// RadiusScale multiplies every glyph radius before the overlap test.
	// Zero means 1.
	RadiusScale float64

	// AlreadyVisible carries the IDs kept at a coarser zoom level. Any
	// glyph overlapping one of them is pre-hidden before the greedy loop
	// runs, so the finer level never draws on top of a badge the user
	// already saw. The carried IDs themselves are not pre-selected; they
	// survive only because their conflicts were removed.
	AlreadyVisible []glyph.ID
}

// Select picks a subset of glyphs that can be drawn without pairwise
// overlap at the given shared radius, and attributes every suppressed
// glyph to the visible glyph it most overlaps.
//
// The algorithm is deterministic: glyphs are scored in input order and
// the first glyph reaching the maximum conflict score wins ties. Running
// it twice on the same input yields the same selection.
//
// An empty input yields an empty selection, not an error.
func Select(glyphs []glyph.Glyph, radius float64, opts Options) glyph.Selection {
	scale := opts.RadiusScale
	if scale == 0 {
		scale = 1
	}

	sel := glyph.Selection{
		Visible:              []glyph.ID{},
		Hidden:               []glyph.ID{},
		HiddenCountByVisible: map[glyph.ID]int{},
		Converged:            true,
	}
	if len(glyphs) == 0 {
		return sel
	}

	idx := BuildIndex(glyphs, radius, scale)

	// Working set, in input order. inWorking tracks membership so
	// removal is O(1) and iteration order stays stable.
	working := make([]glyph.ID, 0, len(glyphs))
	inWorking := make(map[glyph.ID]bool, len(glyphs))
	for _, g := range glyphs {
		working = append(working, g.ID)
		inWorking[g.ID] = true
	}

	// Glyphs overlapping a coarser level's pick are pre-hidden.
	if len(opts.AlreadyVisible) > 0 {
		for _, id := range working {
			for _, kept := range opts.AlreadyVisible {
				if idx.Overlaps(id, kept) {
					inWorking[id] = false
					break
				}
			}
		}
	}

	var visible []glyph.ID
	for {
		// Score every remaining glyph: total overlap area against the
		// rest of the working set.
		var (
			bestID    glyph.ID
			bestScore = -1.0
		)
		for _, id := range working {
			if !inWorking[id] {
				continue
			}
			score := 0.0
			for _, e := range idx.Neighbors(id) {
				if inWorking[e.ID] {
					score += e.Area
				}
			}
			// Strict comparison keeps the first glyph reaching the max.
			if score > bestScore {
				bestScore = score
				bestID = id
			}
		}

		if bestScore <= 0 {
			// No remaining glyph overlaps another (or the set is
			// empty); the remainder is implicitly selected.
			break
		}

		// Keep the most conflicted glyph, drop everything it covers.
		visible = append(visible, bestID)
		inWorking[bestID] = false
		for _, e := range idx.Neighbors(bestID) {
			inWorking[e.ID] = false
		}
	}

	// Remaining working glyphs are conflict-free and stay visible.
	kept := make(map[glyph.ID]bool, len(visible))
	for _, id := range visible {
		kept[id] = true
	}
	for _, id := range working {
		if inWorking[id] && !kept[id] {
			visible = append(visible, id)
			kept[id] = true
		}
	}

	sel.Visible = visible
	if sel.Visible == nil {
		sel.Visible = []glyph.ID{}
	}
	for _, g := range glyphs {
		if !kept[g.ID] {
			sel.Hidden = append(sel.Hidden, g.ID)
		}
	}

	// Attribute each hidden glyph to the visible glyph it overlaps most
	// (first-found wins ties), then fold each credited glyph's own badge
	// into its count. Visible glyphs hiding nothing get no entry at all.
	for _, hid := range sel.Hidden {
		var (
			bestVis  glyph.ID
			bestArea = -1.0
			found    bool
		)
		for _, vis := range sel.Visible {
			if area, ok := idx.Area(hid, vis); ok && area > bestArea {
				bestArea = area
				bestVis = vis
				found = true
			}
		}
		if found {
			sel.HiddenCountByVisible[bestVis]++
		}
	}
	for vis := range sel.HiddenCountByVisible {
		sel.HiddenCountByVisible[vis]++
	}

	return sel
}
