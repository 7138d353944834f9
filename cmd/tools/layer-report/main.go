// Command layer-report renders one declutter layer as an HTML scatter
// chart: visible glyphs in one series, hidden glyphs in another, with
// badge counts in the tooltip. A quick visual check that a layer is
// sensibly thinned, without the full map UI.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/soundscape-data/rosemap/internal/cache"
	"github.com/soundscape-data/rosemap/internal/config"
	"github.com/soundscape-data/rosemap/internal/engine"
	"github.com/soundscape-data/rosemap/internal/glyph"
)

func main() {
	var (
		glyphsPath = flag.String("glyphs", "", "path to glyph JSON file (array of {id, lat, lon})")
		configPath = flag.String("config", "", "path to engine config JSON (optional)")
		period     = flag.String("period", "report", "period key for the cache")
		level      = flag.Int("level", 2, "zoom level to render")
		out        = flag.String("out", "layer-report.html", "output HTML path")
	)
	flag.Parse()

	if *glyphsPath == "" {
		log.Fatal("missing required -glyphs flag")
	}

	data, err := os.ReadFile(*glyphsPath)
	if err != nil {
		log.Fatalf("reading glyphs: %v", err)
	}
	var glyphs []glyph.Glyph
	if err := json.Unmarshal(data, &glyphs); err != nil {
		log.Fatalf("parsing glyphs: %v", err)
	}

	cfg := config.Empty()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	e := engine.New(cfg)
	sel, err := e.Layer(*period, *level, glyphs, nil)
	if err != nil {
		log.Fatalf("computing layer: %v", err)
	}

	if err := render(*out, glyphs, sel, *period, *level, cfg.GetStrategy()); err != nil {
		log.Fatalf("rendering report: %v", err)
	}
	log.Printf("wrote %s: %d visible, %d hidden", *out, len(sel.Visible), len(sel.Hidden))
}

func render(out string, glyphs []glyph.Glyph, sel *glyph.Selection, period string, level int, strategy string) error {
	vis := sel.VisibleSet()

	var visible, hidden []opts.ScatterData
	var badges []float64
	for _, g := range glyphs {
		point := []interface{}{g.Lon, g.Lat, string(g.ID)}
		if vis[g.ID] {
			if n, ok := sel.HiddenCountByVisible[g.ID]; ok {
				point = append(point, n)
				badges = append(badges, float64(n))
			}
			visible = append(visible, opts.ScatterData{Value: point})
		} else {
			hidden = append(hidden, opts.ScatterData{Value: point})
		}
	}

	subtitle := fmt.Sprintf("period=%s level=%d strategy=%s radius=%.1fm visible=%d hidden=%d",
		period, level, strategy, glyph.RadiusForLevel(level), len(sel.Visible), len(sel.Hidden))
	if len(badges) > 0 {
		subtitle += fmt.Sprintf(" mean-badge=%.1f", stat.Mean(badges, nil))
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Declutter Layer " + cache.Key{Period: period, ZoomLevel: level}.String(),
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Declutter Layer", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("visible", visible)
	scatter.AddSeries("hidden", hidden)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()
	return scatter.Render(f)
}
