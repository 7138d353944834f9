package cluster

import (
	"fmt"
	"math"

	"github.com/soundscape-data/rosemap/internal/glyph"
)

// The assignment step is the only parallel part of a run. The point set
// is split into contiguous partitions, one goroutine assigns each
// partition to its nearest centroids, and the orchestrator blocks until
// every partition has replied before touching the results. Partial
// results are reassembled in partition order, so worker completion
// order never affects the assignment vector. There is deliberately no
// per-partition timeout: a hung partition hangs the iteration rather
// than silently substituting partial data.

// partial carries one partition's assignment back to the orchestrator.
type partial struct {
	part   int
	assign []int
	err    error
}

// assignAll computes the nearest-centroid assignment for all points,
// fanning the work out over the given number of partitions. A failing
// partition fails the whole call; the caller gets no partial vector.
func assignAll(points []glyph.Glyph, centroids [][2]float64, workers int) ([]int, error) {
	n := len(points)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return assignRange(points, centroids), nil
	}

	results := make(chan partial, workers)
	chunk := (n + workers - 1) / workers

	dispatched := 0
	for part := 0; part < workers; part++ {
		lo := part * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		dispatched++
		go func(part, lo, hi int) {
			defer func() {
				if r := recover(); r != nil {
					results <- partial{part: part, err: fmt.Errorf("partition %d panicked: %v", part, r)}
				}
			}()
			results <- partial{part: part, assign: assignRange(points[lo:hi], centroids)}
		}(part, lo, hi)
	}

	// Fan-in barrier: every dispatched partition must reply before the
	// iteration may proceed.
	parts := make([][]int, dispatched)
	var firstErr error
	for i := 0; i < dispatched; i++ {
		res := <-results
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		if res.err == nil {
			parts[res.part] = res.assign
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	assignment := make([]int, 0, n)
	for _, p := range parts {
		assignment = append(assignment, p...)
	}
	return assignment, nil
}

// assignRange assigns each point in the slice to its nearest centroid.
// Ties go to the lowest centroid index.
func assignRange(points []glyph.Glyph, centroids [][2]float64) []int {
	assign := make([]int, len(points))
	for i, p := range points {
		best := 0
		bestDist := math.MaxFloat64
		for c, cen := range centroids {
			if d := math.Hypot(p.Lat-cen[0], p.Lon-cen[1]); d < bestDist {
				bestDist = d
				best = c
			}
		}
		assign[i] = best
	}
	return assign
}
