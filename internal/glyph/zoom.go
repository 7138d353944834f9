package glyph

import "math"

// The map draws each glyph at a target pixel width; the matching ground
// size depends on the web-mercator meters-per-pixel at the zoom the
// level was calibrated for.
const (
	// equatorMetersPerPixelZ0 is the web-mercator ground resolution at
	// zoom 0 on the equator (circumference / 256 px).
	equatorMetersPerPixelZ0 = 156543.03392

	// glyphPixelWidth is the on-screen width a glyph is drawn at.
	glyphPixelWidth = 40
)

// GlyphWidthMeters returns the ground width of a glyph drawn
// glyphPixelWidth pixels wide at the given map zoom and latitude.
func GlyphWidthMeters(zoom float64, latitude float64) float64 {
	metersPerPixel := equatorMetersPerPixelZ0 * math.Cos(latitude*math.Pi/180) / math.Pow(2, zoom)
	return metersPerPixel * glyphPixelWidth
}

// ZoomToLevel buckets a continuous camera zoom into a discrete zoom
// level. Levels index the radius and cluster-count tables below.
func ZoomToLevel(zoom float64) int {
	switch {
	case zoom < 14:
		return 0
	case zoom < 15:
		return 1
	case zoom < 16:
		return 2
	case zoom < 17:
		return 3
	default:
		return 4
	}
}

// NumLevels is the number of discrete zoom levels.
const NumLevels = 5

// glyphWidthByLevel holds the glyph ground width per zoom level. Levels
// 0 and 1 deliberately share the zoom-15 width: at city scale the
// decluttering, not the size, is what differs between them.
var glyphWidthByLevel = map[int]float64{
	0: GlyphWidthMeters(15, 0),
	1: GlyphWidthMeters(15, 0),
	2: GlyphWidthMeters(16, 0),
	3: GlyphWidthMeters(17, 0),
	4: GlyphWidthMeters(18, 0),
}

// RadiusForLevel returns the glyph radius in meters for a zoom level.
// Unknown levels fall back to the finest configured level.
func RadiusForLevel(level int) float64 {
	if w, ok := glyphWidthByLevel[level]; ok {
		return w / 2
	}
	return glyphWidthByLevel[NumLevels-1] / 2
}

// clustersByLevel maps a zoom level to the cluster count used by the
// k-means grouping strategy.
var clustersByLevel = map[int]int{
	0: 1,
	1: 2,
	2: 9,
	3: 18,
	4: 24,
}

// defaultClusters is used for zoom levels missing from clustersByLevel.
const defaultClusters = 8

// ClustersForLevel returns the k-means cluster count for a zoom level.
func ClustersForLevel(level int) int {
	if k, ok := clustersByLevel[level]; ok {
		return k
	}
	return defaultClusters
}
