package cluster

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-data/rosemap/internal/glyph"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// twoBlobs returns two tight, well-separated point groups.
func twoBlobs() []glyph.Glyph {
	var points []glyph.Glyph
	for i := 0; i < 10; i++ {
		points = append(points, glyph.Glyph{
			ID:  glyph.ID(fmt.Sprintf("a%d", i)),
			Lat: 48.85 + float64(i)*0.0001,
			Lon: 2.35,
		})
	}
	for i := 0; i < 10; i++ {
		points = append(points, glyph.Glyph{
			ID:  glyph.ID(fmt.Sprintf("b%d", i)),
			Lat: 48.95 + float64(i)*0.0001,
			Lon: 2.55,
		})
	}
	return points
}

func TestGroup_EmptyInput(t *testing.T) {
	_, err := Group(nil, Params{K: 3}, testRNG())
	require.ErrorIs(t, err, ErrNoPoints)
}

func TestGroup_InvalidK(t *testing.T) {
	points := []glyph.Glyph{{ID: "s1"}}
	_, err := Group(points, Params{K: 0}, testRNG())
	require.Error(t, err)
	_, err = Group(points, Params{K: -2}, testRNG())
	require.Error(t, err)
}

func TestGroup_SingleCluster(t *testing.T) {
	points := twoBlobs()
	res, err := Group(points, Params{K: 1, MaxIterations: 20}, testRNG())
	require.NoError(t, err)

	require.Len(t, res.Assignment, len(points))
	for i, c := range res.Assignment {
		assert.Equal(t, 0, c, "point %d assigned to cluster %d, want 0", i, c)
	}
	assert.True(t, res.Converged)
	require.Len(t, res.Centroids, 1)
}

func TestGroup_KClampedToPointCount(t *testing.T) {
	points := []glyph.Glyph{
		{ID: "s1", Lat: 0, Lon: 0},
		{ID: "s2", Lat: 1, Lon: 1},
	}
	res, err := Group(points, Params{K: 10, MaxIterations: 20}, testRNG())
	require.NoError(t, err)
	assert.Len(t, res.Centroids, 2)
}

func TestGroup_TwoBlobsSeparate(t *testing.T) {
	points := twoBlobs()
	res, err := Group(points, Params{K: 2, MaxIterations: 50}, testRNG())
	require.NoError(t, err)
	require.True(t, res.Converged, "well-separated blobs must converge in 50 iterations")

	// All a-points share one label, all b-points share the other.
	aLabel := res.Assignment[0]
	bLabel := res.Assignment[10]
	assert.NotEqual(t, aLabel, bLabel)
	for i := 0; i < 10; i++ {
		assert.Equal(t, aLabel, res.Assignment[i], "a-point %d", i)
		assert.Equal(t, bLabel, res.Assignment[10+i], "b-point %d", i)
	}
}

func TestGroup_DeterministicForFixedSeed(t *testing.T) {
	points := twoBlobs()
	first, err := Group(points, Params{K: 4, MaxIterations: 50}, testRNG())
	require.NoError(t, err)
	second, err := Group(points, Params{K: 4, MaxIterations: 50}, testRNG())
	require.NoError(t, err)
	assert.Equal(t, first.Assignment, second.Assignment)
	assert.Equal(t, first.Centroids, second.Centroids)
}

func TestGroup_WorkerCountDoesNotChangeAssignment(t *testing.T) {
	points := twoBlobs()
	one, err := Group(points, Params{K: 3, MaxIterations: 50, Workers: 1}, testRNG())
	require.NoError(t, err)
	four, err := Group(points, Params{K: 3, MaxIterations: 50, Workers: 4}, testRNG())
	require.NoError(t, err)
	assert.Equal(t, one.Assignment, four.Assignment,
		"partition count must not affect the reassembled assignment")
}

func TestGroup_MaxIterationsExhaustedIsNotAnError(t *testing.T) {
	points := twoBlobs()
	res, err := Group(points, Params{K: 5, MaxIterations: 1}, testRNG())
	require.NoError(t, err)
	assert.False(t, res.Converged, "a single iteration can never observe convergence")
	require.Len(t, res.Assignment, len(points))
}

func TestAssignAll_MatchesSequential(t *testing.T) {
	points := twoBlobs()
	centroids := [][2]float64{{48.85, 2.35}, {48.95, 2.55}, {48.9, 2.45}}

	want := assignRange(points, centroids)
	for _, workers := range []int{1, 2, 3, 7, 50} {
		got, err := assignAll(points, centroids, workers)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestReduce_SingleGroupRepresentativeNearMean(t *testing.T) {
	// Five collinear points; the mean sits on the middle one.
	var points []glyph.Glyph
	for i := 0; i < 5; i++ {
		points = append(points, glyph.Glyph{
			ID:  glyph.ID(fmt.Sprintf("s%d", i)),
			Lat: float64(i) * 0.001,
			Lon: 0,
		})
	}

	res, err := Group(points, Params{K: 1, MaxIterations: 20}, testRNG())
	require.NoError(t, err)
	sel := Reduce(points, res)

	require.Equal(t, []glyph.ID{"s2"}, sel.Visible,
		"representative must be the point nearest the overall mean")
	assert.Len(t, sel.Hidden, 4)
	assert.Equal(t, 5, sel.HiddenCountByVisible["s2"],
		"group size includes the representative itself")
}

func TestReduce_SingletonGroupsGetCountOne(t *testing.T) {
	points := []glyph.Glyph{
		{ID: "s1", Lat: 0, Lon: 0},
		{ID: "s2", Lat: 1, Lon: 1},
	}
	res, err := Group(points, Params{K: 2, MaxIterations: 20}, testRNG())
	require.NoError(t, err)
	sel := Reduce(points, res)

	require.Len(t, sel.Visible, 2)
	assert.Empty(t, sel.Hidden)
	for _, id := range sel.Visible {
		// Unlike the greedy strategy, singleton entries are written.
		assert.Equal(t, 1, sel.HiddenCountByVisible[id])
	}
}

func TestReduce_PartitionInvariant(t *testing.T) {
	points := twoBlobs()
	res, err := Group(points, Params{K: 6, MaxIterations: 50}, testRNG())
	require.NoError(t, err)
	sel := Reduce(points, res)

	seen := map[glyph.ID]int{}
	for _, id := range sel.Visible {
		seen[id]++
	}
	for _, id := range sel.Hidden {
		seen[id]++
	}
	require.Len(t, seen, len(points), "visible ∪ hidden must cover the input")
	for id, n := range seen {
		assert.Equal(t, 1, n, "glyph %s must appear exactly once", id)
	}

	// Group sizes must add up to the input size.
	total := 0
	for _, n := range sel.HiddenCountByVisible {
		total += n
	}
	assert.Equal(t, len(points), total)
}

func TestWeightedPick_SkipsCoincidentPoints(t *testing.T) {
	// One point sits exactly on the centroid; with a far second point
	// the pick must always be the far one.
	points := []glyph.Glyph{
		{ID: "on", Lat: 0, Lon: 0},
		{ID: "off", Lat: 5, Lon: 5},
	}
	centroids := [][2]float64{{0, 0}}
	rng := testRNG()
	for i := 0; i < 20; i++ {
		p := weightedPick(points, centroids, rng)
		assert.Equal(t, glyph.ID("off"), p.ID)
	}
}
