// Package engine ties the declutter strategies to the result cache. The
// host application builds one Engine per scenario-initialization pass
// and asks it for a layer per (period, zoom level) combination; repeat
// requests are served from the cache.
//
// The engine is stateless between calls apart from the cache and the
// k-means RNG: no view state, no map, no UI. Everything a call needs
// arrives in its arguments or in the config captured at construction.
package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/soundscape-data/rosemap/internal/cache"
	"github.com/soundscape-data/rosemap/internal/cluster"
	"github.com/soundscape-data/rosemap/internal/config"
	"github.com/soundscape-data/rosemap/internal/declutter"
	"github.com/soundscape-data/rosemap/internal/glyph"
	"github.com/soundscape-data/rosemap/internal/monitoring"
)

// Engine computes and caches declutter selections.
type Engine struct {
	cfg   *config.EngineConfig
	cache *cache.Cache

	// rngMu serializes draws from rng. Runs own their centroids and
	// assignment vectors exclusively; the RNG is the only piece of
	// state k-means runs share.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds an engine from config, opening the SQLite cache tier when
// one is configured. A store that fails to open is logged and skipped:
// the engine must stay usable without working persistence.
func New(cfg *config.EngineConfig) *Engine {
	var store *cache.Store
	if path := cfg.GetCacheDBPath(); path != "" {
		s, err := cache.OpenStore(path)
		if err != nil {
			monitoring.Logf("engine: cache store unavailable, running without persistence: %v", err)
		} else {
			store = s
		}
	}
	return NewWithCache(cfg, cache.New(store, cfg.GetStaticCacheDir()))
}

// NewWithCache builds an engine over an existing cache. Tests use this
// to control the tiers directly.
func NewWithCache(cfg *config.EngineConfig, c *cache.Cache) *Engine {
	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	return &Engine{
		cfg:   cfg,
		cache: c,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Layer returns the declutter selection for one (period, zoom level)
// combination, computing and caching it on first request.
// alreadyVisible optionally carries the visible set of a coarser level;
// it only affects the greedy strategy and is ignored by k-means.
func (e *Engine) Layer(period string, level int, glyphs []glyph.Glyph, alreadyVisible []glyph.ID) (*glyph.Selection, error) {
	key := cache.Key{Period: period, ZoomLevel: level}
	if sel, err := e.cache.Get(key); err == nil {
		return sel, nil
	}

	sel, err := e.compute(level, glyphs, alreadyVisible)
	if err != nil {
		return nil, err
	}

	// Persistence failures are logged inside Put; the fresh result is
	// good regardless.
	if err := e.cache.Put(key, sel); err != nil {
		monitoring.Logf("engine: layer %s computed but not persisted: %v", key, err)
	}
	return sel, nil
}

// AllLevels computes every zoom level for one period, coarse to fine.
// Under the greedy strategy each level carries the previous level's
// visible set forward so a glyph kept at a coarse zoom is never covered
// at a finer one.
func (e *Engine) AllLevels(period string, glyphs []glyph.Glyph) (map[int]*glyph.Selection, error) {
	layers := make(map[int]*glyph.Selection, glyph.NumLevels)
	var carry []glyph.ID
	for level := 0; level < glyph.NumLevels; level++ {
		sel, err := e.Layer(period, level, glyphs, carry)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		layers[level] = sel
		if e.cfg.GetStrategy() == "greedy" {
			carry = sel.Visible
		}
	}
	return layers, nil
}

// Invalidate drops the cached selection for one layer.
func (e *Engine) Invalidate(period string, level int) error {
	return e.cache.Invalidate(cache.Key{Period: period, ZoomLevel: level})
}

// Export returns the persisted JSON for one layer, failing with
// cache.ErrNoCachedData when it was never computed.
func (e *Engine) Export(period string, level int) ([]byte, error) {
	return e.cache.Export(cache.Key{Period: period, ZoomLevel: level})
}

func (e *Engine) compute(level int, glyphs []glyph.Glyph, alreadyVisible []glyph.ID) (*glyph.Selection, error) {
	radius := glyph.RadiusForLevel(level)

	switch e.cfg.GetStrategy() {
	case "kmeans":
		k := glyph.ClustersForLevel(level)
		if override, ok := e.cfg.ClustersForLevel(level); ok {
			k = override
		}
		e.rngMu.Lock()
		res, err := cluster.Group(glyphs, cluster.Params{
			K:             k,
			MaxIterations: e.cfg.GetMaxIterations(),
			Workers:       e.cfg.GetWorkers(),
		}, e.rng)
		e.rngMu.Unlock()
		if err != nil {
			return nil, err
		}
		sel := cluster.Reduce(glyphs, res)
		return &sel, nil

	default:
		sel := declutter.Select(glyphs, radius, declutter.Options{
			RadiusScale:    e.cfg.GetRadiusScale(),
			AlreadyVisible: alreadyVisible,
		})
		return &sel, nil
	}
}
