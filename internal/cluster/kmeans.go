// Package cluster implements the k-means++ glyph grouping strategy: an
// alternative to the greedy selector that partitions glyph positions
// into k spatial groups and keeps one representative per group.
//
// Distances here are Euclidean in raw degree space, with no meters
// correction; grouping only needs relative proximity, not true ground
// distance.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/soundscape-data/rosemap/internal/glyph"
	"github.com/soundscape-data/rosemap/internal/monitoring"
)

// ErrNoPoints is returned when grouping is requested over an empty
// point set. Unlike the greedy selector, the grouper cannot degrade to
// an empty result: a positive cluster count over zero points is a
// caller bug and must fail loudly.
var ErrNoPoints = errors.New("cluster: no points to group")

// weightResolution scales normalised seeding weights before truncation
// to replica counts. The weighted draw replicates each candidate index
// proportionally to its weight into a flat list and draws uniformly
// from it; this is an approximation of exact weighted sampling, kept
// because downstream determinism depends on the exact draw sequence.
const weightResolution = 100

// DefaultMaxIterations bounds the refinement loop when the caller does
// not set one.
const DefaultMaxIterations = 50

// DefaultWorkers is the number of assignment partitions per iteration.
const DefaultWorkers = 2

// Params tunes one grouping run.
type Params struct {
	// K is the number of groups. Values above the point count are
	// clamped to it.
	K int

	// MaxIterations bounds the refinement loop. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// Workers is the number of contiguous partitions the assignment
	// step is split into. Zero means DefaultWorkers.
	Workers int
}

// Result is the outcome of one grouping run.
type Result struct {
	// RunID tags diagnostics from this run.
	RunID string

	// Assignment maps each input point index to a cluster index in
	// [0, K).
	Assignment []int

	// Centroids holds the final (lat, lon) cluster centers. They are
	// owned by this result; no run shares centroids with another.
	Centroids [][2]float64

	// Iterations is the number of refinement iterations executed.
	Iterations int

	// Converged is false when the run exhausted MaxIterations before
	// the assignment stabilised. The assignment is still usable.
	Converged bool
}

// Group partitions the points into params.K spatial groups using
// k-means++ seeding and iterative refinement. The run is deterministic
// for a fixed rng sequence. rng must not be shared with concurrent
// callers.
func Group(points []glyph.Glyph, params Params, rng *rand.Rand) (*Result, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if params.K <= 0 {
		return nil, fmt.Errorf("cluster: invalid cluster count %d", params.K)
	}

	k := params.K
	if k > len(points) {
		k = len(points)
	}
	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	workers := params.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	run := &Result{RunID: uuid.New().String()}
	centroids := seedCentroids(points, k, rng)

	var prev []int
	for iter := 0; iter < maxIter; iter++ {
		run.Iterations = iter + 1

		assignment, err := assignAll(points, centroids, workers)
		if err != nil {
			return nil, fmt.Errorf("cluster: run %s iteration %d: %w", run.RunID, iter, err)
		}

		if prev != nil && equalAssignment(assignment, prev) {
			run.Assignment = assignment
			run.Converged = true
			break
		}
		prev = assignment
		run.Assignment = assignment

		// Recompute each centroid as the mean of its members, then
		// re-seed any cluster left empty. A cluster that stays empty
		// across re-seeds is tolerated; the loop simply runs on with
		// whatever centroids exist.
		recomputeCentroids(points, assignment, centroids)
		reseedEmpty(points, assignment, centroids, rng)
	}

	run.Centroids = centroids
	if run.Converged {
		monitoring.Logf("cluster: run %s converged after %d iterations (k=%d, n=%d)",
			run.RunID, run.Iterations, k, len(points))
	} else {
		monitoring.Logf("cluster: run %s exhausted %d iterations without converging (k=%d, n=%d)",
			run.RunID, maxIter, k, len(points))
	}
	return run, nil
}

// seedCentroids picks k initial centroids with the k-means++ scheme:
// the first uniformly at random, each subsequent one drawn from the
// weighted candidate list built by weightedPick.
func seedCentroids(points []glyph.Glyph, k int, rng *rand.Rand) [][2]float64 {
	centroids := make([][2]float64, 0, k)

	first := points[rng.Intn(len(points))]
	centroids = append(centroids, [2]float64{first.Lat, first.Lon})

	for len(centroids) < k {
		p := weightedPick(points, centroids, rng)
		centroids = append(centroids, [2]float64{p.Lat, p.Lon})
	}
	return centroids
}

// weightedPick draws one point with probability roughly proportional to
// its distance from the nearest already-chosen centroid. Each point's
// index is replicated int(weight*weightResolution) times into a flat
// candidate list and one entry is drawn uniformly. Points coincident
// with a centroid get weight zero and drop out of the list.
func weightedPick(points []glyph.Glyph, centroids [][2]float64, rng *rand.Rand) glyph.Glyph {
	dists := make([]float64, len(points))
	total := 0.0
	for i, p := range points {
		dists[i] = nearestCentroidDistance(p, centroids)
		total += dists[i]
	}
	if total == 0 {
		// Every point coincides with a centroid; any pick is as good.
		return points[rng.Intn(len(points))]
	}

	candidates := make([]int, 0, weightResolution)
	for i, d := range dists {
		replicas := int(d / total * weightResolution)
		for r := 0; r < replicas; r++ {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		// All weights truncated to zero (near-uniform spread over many
		// points); fall back to a uniform draw.
		return points[rng.Intn(len(points))]
	}
	return points[candidates[rng.Intn(len(candidates))]]
}

// nearestCentroidDistance returns the degree-space distance from p to
// its closest centroid.
func nearestCentroidDistance(p glyph.Glyph, centroids [][2]float64) float64 {
	best := math.MaxFloat64
	for _, c := range centroids {
		if d := math.Hypot(p.Lat-c[0], p.Lon-c[1]); d < best {
			best = d
		}
	}
	return best
}

// recomputeCentroids replaces each non-empty cluster's centroid with
// the arithmetic mean of its members. Empty clusters keep their old
// centroid; reseedEmpty deals with them.
func recomputeCentroids(points []glyph.Glyph, assignment []int, centroids [][2]float64) {
	members := make([][]int, len(centroids))
	for i, c := range assignment {
		members[c] = append(members[c], i)
	}
	for c, idxs := range members {
		if len(idxs) == 0 {
			continue
		}
		lats := make([]float64, len(idxs))
		lons := make([]float64, len(idxs))
		for j, i := range idxs {
			lats[j] = points[i].Lat
			lons[j] = points[i].Lon
		}
		centroids[c] = [2]float64{stat.Mean(lats, nil), stat.Mean(lons, nil)}
	}
}

// reseedEmpty re-seeds every centroid whose cluster ended the iteration
// empty, using the same weighted draw as the initial seeding.
func reseedEmpty(points []glyph.Glyph, assignment []int, centroids [][2]float64, rng *rand.Rand) {
	counts := make([]int, len(centroids))
	for _, c := range assignment {
		counts[c]++
	}
	for c, n := range counts {
		if n > 0 {
			continue
		}
		p := weightedPick(points, centroids, rng)
		centroids[c] = [2]float64{p.Lat, p.Lon}
	}
}

func equalAssignment(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
