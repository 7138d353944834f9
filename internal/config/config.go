// Package config loads the engine's tuning parameters. The JSON schema
// uses pointer fields so partial files are safe: anything omitted keeps
// its built-in default via the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Built-in defaults used when a field is absent from the config file.
const (
	DefaultStrategy      = "greedy"
	DefaultRadiusScale   = 1.0
	DefaultMaxIterations = 50
	DefaultWorkers       = 2
)

// EngineConfig is the root configuration for the decluttering engine.
type EngineConfig struct {
	// Strategy selects the declutter algorithm: "greedy" or "kmeans".
	Strategy *string `json:"strategy,omitempty"`

	// RadiusScale multiplies every glyph radius before the overlap
	// test. 1.0 is the geometric default.
	RadiusScale *float64 `json:"radius_scale,omitempty"`

	// MaxIterations bounds the k-means refinement loop.
	MaxIterations *int `json:"max_iterations,omitempty"`

	// Workers is the number of partitions the k-means assignment step
	// is split into.
	Workers *int `json:"workers,omitempty"`

	// Seed fixes the k-means RNG for reproducible layers. Nil means
	// seed from the clock.
	Seed *int64 `json:"seed,omitempty"`

	// CacheDBPath locates the SQLite cache database. Empty disables the
	// persisted tier.
	CacheDBPath *string `json:"cache_db_path,omitempty"`

	// StaticCacheDir locates the precomputed layer directory. Empty
	// disables the static tier.
	StaticCacheDir *string `json:"static_cache_dir,omitempty"`

	// ClustersByLevel overrides the built-in zoom-level → cluster-count
	// table. Keys are zoom levels as decimal strings.
	ClustersByLevel map[string]int `json:"clusters_by_level,omitempty"`
}

// Empty returns a config with every field unset.
func Empty() *EngineConfig {
	return &EngineConfig{}
}

// Load reads an EngineConfig from a JSON file. Fields omitted from the
// file retain their defaults through the Get* accessors.
func Load(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *EngineConfig) Validate() error {
	if c.Strategy != nil {
		switch *c.Strategy {
		case "greedy", "kmeans":
		default:
			return fmt.Errorf("strategy must be \"greedy\" or \"kmeans\", got %q", *c.Strategy)
		}
	}
	if c.RadiusScale != nil && *c.RadiusScale <= 0 {
		return fmt.Errorf("radius_scale must be positive, got %v", *c.RadiusScale)
	}
	if c.MaxIterations != nil && *c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", *c.MaxIterations)
	}
	if c.Workers != nil && *c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", *c.Workers)
	}
	for level, k := range c.ClustersByLevel {
		if _, err := strconv.Atoi(level); err != nil {
			return fmt.Errorf("clusters_by_level key %q is not a zoom level", level)
		}
		if k <= 0 {
			return fmt.Errorf("clusters_by_level[%s] must be positive, got %d", level, k)
		}
	}
	return nil
}

// GetStrategy returns the configured strategy or the default.
func (c *EngineConfig) GetStrategy() string {
	if c.Strategy != nil {
		return *c.Strategy
	}
	return DefaultStrategy
}

// GetRadiusScale returns the configured radius scale or 1.0.
func (c *EngineConfig) GetRadiusScale() float64 {
	if c.RadiusScale != nil {
		return *c.RadiusScale
	}
	return DefaultRadiusScale
}

// GetMaxIterations returns the configured iteration bound or the default.
func (c *EngineConfig) GetMaxIterations() int {
	if c.MaxIterations != nil {
		return *c.MaxIterations
	}
	return DefaultMaxIterations
}

// GetWorkers returns the configured partition count or the default.
func (c *EngineConfig) GetWorkers() int {
	if c.Workers != nil {
		return *c.Workers
	}
	return DefaultWorkers
}

// GetCacheDBPath returns the SQLite cache path, or "" when the
// persisted tier is disabled.
func (c *EngineConfig) GetCacheDBPath() string {
	if c.CacheDBPath != nil {
		return *c.CacheDBPath
	}
	return ""
}

// GetStaticCacheDir returns the static precompute directory, or ""
// when the static tier is disabled.
func (c *EngineConfig) GetStaticCacheDir() string {
	if c.StaticCacheDir != nil {
		return *c.StaticCacheDir
	}
	return ""
}

// ClustersForLevel returns the override cluster count for a zoom level,
// or ok=false when the level is not overridden.
func (c *EngineConfig) ClustersForLevel(level int) (int, bool) {
	k, ok := c.ClustersByLevel[strconv.Itoa(level)]
	return k, ok
}
