package cluster

import (
	"math"

	"github.com/soundscape-data/rosemap/internal/glyph"
)

// Reduce collapses a grouping result into a declutter selection: within
// each group the point closest to the group's centroid stays visible
// and every other member hides behind it.
//
// The badge convention differs from the greedy selector on purpose
// (matching the original app): every representative gets an entry equal
// to its full group size, including itself, even when the group is a
// singleton.
func Reduce(points []glyph.Glyph, res *Result) glyph.Selection {
	sel := glyph.Selection{
		Visible:              []glyph.ID{},
		Hidden:               []glyph.ID{},
		HiddenCountByVisible: map[glyph.ID]int{},
		Converged:            res.Converged,
	}

	members := make([][]int, len(res.Centroids))
	for i, c := range res.Assignment {
		members[c] = append(members[c], i)
	}

	reps := make(map[int]bool, len(res.Centroids))
	for c, idxs := range members {
		if len(idxs) == 0 {
			continue
		}
		cen := res.Centroids[c]
		best := idxs[0]
		bestDist := math.MaxFloat64
		for _, i := range idxs {
			d := math.Hypot(points[i].Lat-cen[0], points[i].Lon-cen[1])
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
		reps[best] = true
		sel.Visible = append(sel.Visible, points[best].ID)
		sel.HiddenCountByVisible[points[best].ID] = len(idxs)
	}

	for i, p := range points {
		if !reps[i] {
			sel.Hidden = append(sel.Hidden, p.ID)
		}
	}
	return sel
}
