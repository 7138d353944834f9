package cache

import "fmt"

// Key addresses one cached layer: a period dataset decluttered at one
// zoom level.
type Key struct {
	Period    string
	ZoomLevel int
}

// String renders the canonical cache key, used verbatim as the SQLite
// primary key and as the base of the static file name.
func (k Key) String() string {
	return fmt.Sprintf("%s__z%d", k.Period, k.ZoomLevel)
}
