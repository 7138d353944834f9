package engine

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/soundscape-data/rosemap/internal/glyph"
)

// LayerGeoJSON renders a computed selection as a GeoJSON feature
// collection of the visible glyphs, one point feature per survivor with
// its badge count. This is the shape the map renderer consumes.
func LayerGeoJSON(glyphs []glyph.Glyph, sel *glyph.Selection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	vis := sel.VisibleSet()

	for _, g := range glyphs {
		if !vis[g.ID] {
			continue
		}
		f := geojson.NewFeature(orb.Point{g.Lon, g.Lat})
		f.Properties["id"] = string(g.ID)
		if n, ok := sel.HiddenCountByVisible[g.ID]; ok {
			f.Properties["hidden_count"] = n
		}
		fc.Append(f)
	}
	return fc
}
