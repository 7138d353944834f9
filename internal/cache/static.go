package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundscape-data/rosemap/internal/glyph"
)

// The static tier is a directory of one JSON file per key, produced by
// the offline precompute CLI. The engine only ever reads it; a missing
// file is an ordinary miss, never an error.

// StaticFileName derives the deterministic file name for a key. Any
// byte outside [A-Za-z0-9._-] is mapped to '_' so keys are safe as file
// names on every platform.
func StaticFileName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + ".json"
}

// readStatic loads the precomputed selection for key from dir. Returns
// ErrMiss when no file exists.
func readStatic(dir, key string) (*glyph.Selection, error) {
	path := filepath.Join(dir, StaticFileName(key))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read static file: %w", err)
	}

	var sel glyph.Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("decode static file %s: %w", path, err)
	}
	return &sel, nil
}

// removeStatic deletes the static file for key if one exists and is
// writable. Best effort: failures are ignored.
func removeStatic(dir, key string) {
	os.Remove(filepath.Join(dir, StaticFileName(key)))
}

// WriteStatic writes the selection as a static precompute file for key.
// Only the offline precompute tool calls this; the engine itself never
// writes the static tier.
func WriteStatic(dir, key string, sel *glyph.Selection) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create static dir: %w", err)
	}
	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	path := filepath.Join(dir, StaticFileName(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write static file: %w", err)
	}
	return nil
}
