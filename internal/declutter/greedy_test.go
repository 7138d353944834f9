package declutter

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soundscape-data/rosemap/internal/geo"
	"github.com/soundscape-data/rosemap/internal/glyph"
)

func TestSelect_EmptyInput(t *testing.T) {
	sel := Select(nil, 15, Options{})
	if len(sel.Visible) != 0 || len(sel.Hidden) != 0 {
		t.Errorf("expected empty selection, got %+v", sel)
	}
	if len(sel.HiddenCountByVisible) != 0 {
		t.Errorf("expected empty count map, got %v", sel.HiddenCountByVisible)
	}
}

func TestSelect_SingleGlyph(t *testing.T) {
	sel := Select([]glyph.Glyph{{ID: "s1", Lat: 48.85, Lon: 2.35}}, 15, Options{})
	if len(sel.Visible) != 1 || sel.Visible[0] != "s1" {
		t.Errorf("expected s1 visible, got %v", sel.Visible)
	}
	if len(sel.Hidden) != 0 {
		t.Errorf("expected no hidden glyphs, got %v", sel.Hidden)
	}
	if len(sel.HiddenCountByVisible) != 0 {
		t.Errorf("singleton should get no count entry, got %v", sel.HiddenCountByVisible)
	}
}

func TestSelect_AllDisjoint(t *testing.T) {
	// A sparse line of glyphs, ~1.1 km apart with 15 m radii.
	var glyphs []glyph.Glyph
	for i := 0; i < 5; i++ {
		glyphs = append(glyphs, glyph.Glyph{
			ID:  glyph.ID(fmt.Sprintf("s%d", i)),
			Lat: float64(i) * 0.01,
		})
	}

	sel := Select(glyphs, 15, Options{})
	if len(sel.Visible) != 5 {
		t.Fatalf("expected all 5 visible, got %d", len(sel.Visible))
	}
	if len(sel.Hidden) != 0 {
		t.Errorf("expected none hidden, got %v", sel.Hidden)
	}
	if len(sel.HiddenCountByVisible) != 0 {
		t.Errorf("disjoint glyphs should produce no count entries, got %v",
			sel.HiddenCountByVisible)
	}
}

func TestSelect_TwoOverlappingOneFar(t *testing.T) {
	// The first two glyphs are ~11 m apart (overlapping at radius 15);
	// the third is hundreds of kilometers away.
	glyphs := []glyph.Glyph{
		{ID: "a", Lat: 0, Lon: 0},
		{ID: "b", Lat: 0, Lon: 0.0001},
		{ID: "c", Lat: 10, Lon: 10},
	}

	sel := Select(glyphs, 15, Options{})

	vis := sel.VisibleSet()
	if !vis["c"] {
		t.Errorf("far glyph c must stay visible: %v", sel.Visible)
	}
	if vis["a"] == vis["b"] {
		t.Errorf("exactly one of a/b must be visible, got %v", sel.Visible)
	}
	survivor := glyph.ID("a")
	if vis["b"] {
		survivor = "b"
	}
	if got := sel.HiddenCountByVisible[survivor]; got != 2 {
		t.Errorf("hidden count for %s = %d, want 2 (itself plus one hidden)", survivor, got)
	}
	if _, ok := sel.HiddenCountByVisible["c"]; ok {
		t.Errorf("c hides nothing and must have no entry")
	}
}

func TestSelect_CollinearChainTerminates(t *testing.T) {
	// Four collinear, evenly spaced, mutually overlapping glyphs. The
	// loop must terminate and the survivors must be pairwise disjoint.
	r := 15.0
	glyphs := []glyph.Glyph{
		{ID: "g0", Lat: 0, Lon: 0},
		{ID: "g1", Lat: 0.0001, Lon: 0},
		{ID: "g2", Lat: 0.0002, Lon: 0},
		{ID: "g3", Lat: 0.0003, Lon: 0},
	}

	sel := Select(glyphs, r, Options{})
	if len(sel.Visible) == 0 {
		t.Fatal("expected a non-empty visible set")
	}

	pos := map[glyph.ID]glyph.Glyph{}
	for _, g := range glyphs {
		pos[g.ID] = g
	}
	for i := 0; i < len(sel.Visible); i++ {
		for j := i + 1; j < len(sel.Visible); j++ {
			a, b := pos[sel.Visible[i]], pos[sel.Visible[j]]
			ca := geo.Circle{Lat: a.Lat, Lon: a.Lon, Radius: r}
			cb := geo.Circle{Lat: b.Lat, Lon: b.Lon, Radius: r}
			if geo.Overlapping(ca, cb, 1) {
				t.Errorf("visible glyphs %s and %s overlap", a.ID, b.ID)
			}
		}
	}
}

func TestSelect_PartitionInvariant(t *testing.T) {
	// visible ∪ hidden must equal the input set, disjointly, for a
	// dense random-ish cluster.
	var glyphs []glyph.Glyph
	for i := 0; i < 30; i++ {
		glyphs = append(glyphs, glyph.Glyph{
			ID:  glyph.ID(fmt.Sprintf("s%02d", i)),
			Lat: 48.85 + float64(i%6)*0.00005,
			Lon: 2.35 + float64(i/6)*0.00005,
		})
	}

	sel := Select(glyphs, 20, Options{})

	seen := map[glyph.ID]int{}
	for _, id := range sel.Visible {
		seen[id]++
	}
	for _, id := range sel.Hidden {
		seen[id]++
	}
	if len(seen) != len(glyphs) {
		t.Errorf("partition covers %d ids, want %d", len(seen), len(glyphs))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("glyph %s appears %d times across visible+hidden", id, n)
		}
	}

	// Every count entry includes the visible glyph itself.
	total := 0
	for id, n := range sel.HiddenCountByVisible {
		if n < 2 {
			t.Errorf("count for %s = %d, entries below 2 must be omitted", id, n)
		}
		total += n - 1
	}
	if total > len(sel.Hidden) {
		t.Errorf("attributed %d hidden glyphs but only %d are hidden", total, len(sel.Hidden))
	}
}

func TestSelect_Deterministic(t *testing.T) {
	var glyphs []glyph.Glyph
	for i := 0; i < 25; i++ {
		glyphs = append(glyphs, glyph.Glyph{
			ID:  glyph.ID(fmt.Sprintf("s%02d", i)),
			Lat: float64(i%5) * 0.00008,
			Lon: float64(i/5) * 0.00008,
		})
	}

	first := Select(glyphs, 18, Options{})
	second := Select(glyphs, 18, Options{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("selection not deterministic (-first +second):\n%s", diff)
	}
}

func TestSelect_AlreadyVisiblePreHides(t *testing.T) {
	// "a" was kept at a coarser level; "b" overlaps it and must be
	// pre-hidden. "c" is far away and stays.
	glyphs := []glyph.Glyph{
		{ID: "a", Lat: 0, Lon: 0},
		{ID: "b", Lat: 0.0001, Lon: 0},
		{ID: "c", Lat: 1, Lon: 1},
	}

	sel := Select(glyphs, 15, Options{AlreadyVisible: []glyph.ID{"a"}})

	vis := sel.VisibleSet()
	if !vis["a"] || !vis["c"] {
		t.Errorf("a and c must be visible, got %v", sel.Visible)
	}
	if vis["b"] {
		t.Errorf("b overlaps carried-over a and must be hidden")
	}
	if got := sel.HiddenCountByVisible["a"]; got != 2 {
		t.Errorf("hidden count for a = %d, want 2", got)
	}
}

func TestBuildIndex_SymmetricLookups(t *testing.T) {
	glyphs := []glyph.Glyph{
		{ID: "a", Lat: 0, Lon: 0},
		{ID: "b", Lat: 0.0001, Lon: 0},
		{ID: "c", Lat: 5, Lon: 5},
	}
	idx := BuildIndex(glyphs, 15, 1)

	ab, okAB := idx.Area("a", "b")
	ba, okBA := idx.Area("b", "a")
	if !okAB || !okBA {
		t.Fatal("a and b overlap but index has no edge")
	}
	if ab != ba {
		t.Errorf("asymmetric stored area: %f vs %f", ab, ba)
	}
	if idx.Overlaps("a", "c") || idx.Overlaps("c", "b") {
		t.Errorf("far glyph c must have no edges")
	}
	if idx.Overlaps("a", "a") {
		t.Errorf("index must not store self edges")
	}
}
