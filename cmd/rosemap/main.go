// Command rosemap precomputes declutter layers for a sensor dataset:
// the offline analog of the in-app engine. It loads a glyph JSON file,
// computes every zoom level for one period key, fills the SQLite cache,
// and can emit the static precompute directory the engine later reads,
// plus GeoJSON for the renderer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/soundscape-data/rosemap/internal/cache"
	"github.com/soundscape-data/rosemap/internal/config"
	"github.com/soundscape-data/rosemap/internal/engine"
	"github.com/soundscape-data/rosemap/internal/glyph"
)

func main() {
	var (
		glyphsPath = flag.String("glyphs", "", "path to glyph JSON file (array of {id, lat, lon})")
		configPath = flag.String("config", "", "path to engine config JSON (optional)")
		periodKey  = flag.String("period", "", "full period key; overrides the period flags below")
		kind       = flag.String("kind", "avg", "period kind: avg, dow or tod_60min")
		start      = flag.String("start", "", "period start date (YYYY-MM-DD)")
		end        = flag.String("end", "", "period end date (YYYY-MM-DD)")
		daytime    = flag.String("daytime", "", "daytime qualifier: day or night")
		weektime   = flag.String("weektime", "", "weektime qualifier: workday or saturday")
		staticOut  = flag.String("static-out", "", "directory to write static precompute files (optional)")
		geojsonOut = flag.String("geojson-out", "", "directory to write per-level GeoJSON (optional)")
	)
	flag.Parse()

	if *glyphsPath == "" {
		log.Fatal("missing required -glyphs flag")
	}

	key, err := resolvePeriodKey(*periodKey, *kind, *start, *end, *daytime, *weektime)
	if err != nil {
		log.Fatalf("resolving period: %v", err)
	}

	glyphs, err := loadGlyphs(*glyphsPath)
	if err != nil {
		log.Fatalf("loading glyphs: %v", err)
	}
	log.Printf("loaded %d glyphs for period %s", len(glyphs), key)

	cfg := config.Empty()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	e := engine.New(cfg)
	started := time.Now()
	layers, err := e.AllLevels(key, glyphs)
	if err != nil {
		log.Fatalf("computing layers: %v", err)
	}
	log.Printf("computed %d zoom levels in %v", len(layers), time.Since(started).Round(time.Millisecond))

	for level := 0; level < glyph.NumLevels; level++ {
		sel := layers[level]
		log.Printf("level %d: %d visible, %d hidden", level, len(sel.Visible), len(sel.Hidden))

		if *staticOut != "" {
			ck := cache.Key{Period: key, ZoomLevel: level}
			if err := cache.WriteStatic(*staticOut, ck.String(), sel); err != nil {
				log.Fatalf("writing static file for level %d: %v", level, err)
			}
		}
		if *geojsonOut != "" {
			if err := writeGeoJSON(*geojsonOut, key, level, glyphs, sel); err != nil {
				log.Fatalf("writing geojson for level %d: %v", level, err)
			}
		}
	}
}

// resolvePeriodKey uses the explicit -period value when given, and
// otherwise assembles the canonical key from its parts.
func resolvePeriodKey(explicit, kind, start, end, daytime, weektime string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if start == "" || end == "" {
		return "", fmt.Errorf("either -period or both -start and -end are required")
	}
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return "", fmt.Errorf("invalid -start %q: %w", start, err)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return "", fmt.Errorf("invalid -end %q: %w", end, err)
	}
	p := glyph.Period{
		Kind:     glyph.PeriodKind(kind),
		Start:    startDate,
		End:      endDate,
		Daytime:  daytime,
		Weektime: weektime,
	}
	return p.Key(), nil
}

// loadGlyphs reads the glyph array the data loader produces. Records
// carry renderer-only attributes too; everything but id/lat/lon is
// ignored here.
func loadGlyphs(path string) ([]glyph.Glyph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var glyphs []glyph.Glyph
	if err := json.Unmarshal(data, &glyphs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return glyphs, nil
}

func writeGeoJSON(dir, period string, level int, glyphs []glyph.Glyph, sel *glyph.Selection) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create geojson dir: %w", err)
	}
	fc := engine.LayerGeoJSON(glyphs, sel)
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode feature collection: %w", err)
	}
	name := cache.StaticFileName(cache.Key{Period: period, ZoomLevel: level}.String())
	name = name[:len(name)-len(".json")] + ".geojson"
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
