// Package geo provides the flat-earth geometry used by the glyph
// decluttering engine: overlap tests and lens-area computations between
// pairs of equal-radius circles placed at WGS84 coordinates.
//
// All computations use a local equirectangular approximation rather than
// great-circle distance. Glyph radii are tens of meters and the sensors
// span a single city, so the flattening error is far below the glyph
// radius.
package geo

import "math"

// MetersPerDegreeLat is the length of one degree of latitude in meters.
// One degree of longitude is this times cos(latitude).
const MetersPerDegreeLat = 111320.0

// Circle is a located circle: a glyph footprint on the map.
type Circle struct {
	Lat    float64 // WGS84 degrees
	Lon    float64 // WGS84 degrees
	Radius float64 // meters
}

// DistanceMeters returns the equirectangular distance between two
// coordinates in meters. Longitude is corrected by the cosine of the
// mean latitude of the pair.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	meanLat := (lat1 + lat2) / 2 * math.Pi / 180
	dy := (lat2 - lat1) * MetersPerDegreeLat
	dx := (lon2 - lon1) * MetersPerDegreeLat * math.Cos(meanLat)
	return math.Hypot(dx, dy)
}

// Overlapping reports whether the two circles intersect, using the
// meters-corrected distance. radiusScale multiplies both radii before the
// comparison; pass 1 for the geometric test.
func Overlapping(a, b Circle, radiusScale float64) bool {
	d := DistanceMeters(a.Lat, a.Lon, b.Lat, b.Lon)
	return d <= (a.Radius+b.Radius)*radiusScale
}

// IntersectionArea returns the area of the lens shared by the two
// circles, in square meters.
//
// Unlike Overlapping, the center distance here is the raw degree-space
// distance scaled by MetersPerDegreeLat, without the longitude cosine
// correction. The original visualisation shipped with this asymmetry and
// the greedy selector's tie-breaking depends on it, so it is preserved
// rather than fixed. Callers must not assume the two functions agree
// near the overlap boundary.
func IntersectionArea(a, b Circle) float64 {
	d := math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon) * MetersPerDegreeLat
	r1, r2 := a.Radius, b.Radius

	if d >= r1+r2 {
		return 0
	}
	if d <= math.Abs(r1-r2) {
		// One circle contains the other.
		r := math.Min(r1, r2)
		return math.Pi * r * r
	}

	// Two-circle lens: two circular-segment terms minus the kite area.
	d2 := d * d
	part1 := r1 * r1 * math.Acos((d2+r1*r1-r2*r2)/(2*d*r1))
	part2 := r2 * r2 * math.Acos((d2+r2*r2-r1*r1)/(2*d*r2))
	part3 := 0.5 * math.Sqrt((-d+r1+r2)*(d+r1-r2)*(d-r1+r2)*(d+r1+r2))
	return part1 + part2 - part3
}
