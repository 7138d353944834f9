// Package cache memoizes declutter selections per (period, zoom level)
// key across three tiers: an in-process map, a SQLite store, and a
// read-only directory of precomputed JSON files produced offline.
package cache

import (
	"errors"
	"sync"

	"github.com/soundscape-data/rosemap/internal/glyph"
	"github.com/soundscape-data/rosemap/internal/monitoring"
)

// ErrMiss reports that a key is present in no tier. It is normal
// control flow, not a failure: the caller computes the layer and calls
// Put.
var ErrMiss = errors.New("cache: miss")

// ErrNoCachedData reports an Export for a key that was never computed.
var ErrNoCachedData = errors.New("cache: no cached data for key")

// Cache is the layered selection cache. The zero value is not usable;
// call New. A Cache with neither store nor static directory still works
// as a pure in-memory cache, so the engine stays usable when
// persistence is unavailable.
type Cache struct {
	store     *Store // persisted tier, may be nil
	staticDir string // precomputed tier, may be ""

	mu   sync.Mutex
	mem  map[string]*glyph.Selection
	keys map[string]*sync.Mutex // key-scoped put/invalidate locks
}

// New builds a cache over an optional SQLite store and an optional
// static precompute directory.
func New(store *Store, staticDir string) *Cache {
	return &Cache{
		store:     store,
		staticDir: staticDir,
		mem:       make(map[string]*glyph.Selection),
		keys:      make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing writes for one key. Operations
// on different keys never contend.
func (c *Cache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.keys[key]
	if !ok {
		l = &sync.Mutex{}
		c.keys[key] = l
	}
	return l
}

// Get returns the cached selection for key, consulting the in-memory
// tier, then the static precompute directory, then the SQLite store.
// Hits from the slower tiers are promoted into memory. A static-tier
// miss is expected and silent whenever no precomputed file exists for
// the key. Returns ErrMiss when no tier has the key.
func (c *Cache) Get(key Key) (*glyph.Selection, error) {
	ks := key.String()

	c.mu.Lock()
	if sel, ok := c.mem[ks]; ok {
		c.mu.Unlock()
		return sel, nil
	}
	c.mu.Unlock()

	if c.staticDir != "" {
		sel, err := readStatic(c.staticDir, ks)
		switch {
		case err == nil:
			c.remember(ks, sel)
			return sel, nil
		case !errors.Is(err, ErrMiss):
			// A present-but-unreadable file is worth a diagnostic, but
			// the lookup falls through to the next tier either way.
			monitoring.Logf("cache: static tier read failed for %s: %v", ks, err)
		}
	}

	if c.store != nil {
		sel, err := c.store.Get(ks)
		switch {
		case err == nil:
			c.remember(ks, sel)
			return sel, nil
		case !errors.Is(err, ErrMiss):
			monitoring.Logf("cache: store read failed for %s: %v", ks, err)
		}
	}

	return nil, ErrMiss
}

// Put stores a freshly computed selection under key in memory and, when
// a store is configured, in the SQLite tier. A persistence failure is
// logged and returned, but the in-memory tier is updated regardless so
// the engine keeps serving the result.
func (c *Cache) Put(key Key, sel *glyph.Selection) error {
	ks := key.String()
	l := c.keyLock(ks)
	l.Lock()
	defer l.Unlock()

	c.remember(ks, sel)

	if c.store == nil {
		return nil
	}
	if err := c.store.Put(ks, sel); err != nil {
		monitoring.Logf("cache: persisting %s failed: %v", ks, err)
		return err
	}
	return nil
}

// Invalidate removes one key from every writable tier: memory, the
// SQLite store, and (best-effort) any writable copy of the static file.
// Other keys are untouched.
func (c *Cache) Invalidate(key Key) error {
	ks := key.String()
	l := c.keyLock(ks)
	l.Lock()
	defer l.Unlock()

	c.mu.Lock()
	delete(c.mem, ks)
	c.mu.Unlock()

	if c.staticDir != "" {
		removeStatic(c.staticDir, ks)
	}

	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ks); err != nil {
		monitoring.Logf("cache: invalidating %s failed: %v", ks, err)
		return err
	}
	return nil
}

// Export returns the persisted JSON blob for key from the SQLite tier
// only. It fails with ErrNoCachedData when the key was never computed
// (or no store is configured); in-memory and static copies deliberately
// do not satisfy an export.
func (c *Cache) Export(key Key) ([]byte, error) {
	if c.store == nil {
		return nil, ErrNoCachedData
	}
	return c.store.ExportJSON(key.String())
}

func (c *Cache) remember(ks string, sel *glyph.Selection) {
	c.mu.Lock()
	c.mem[ks] = sel
	c.mu.Unlock()
}
