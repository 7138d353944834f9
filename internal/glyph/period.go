package glyph

import (
	"strings"
	"time"
)

// PeriodKind selects which aggregation of the sensor data a layer is
// computed from.
type PeriodKind string

const (
	// PeriodAvg is the flat average over the whole window.
	PeriodAvg PeriodKind = "avg"
	// PeriodDayOfWeek is the per-weekday aggregation.
	PeriodDayOfWeek PeriodKind = "dow"
	// PeriodTimeOfDay is the 60-minute time-of-day aggregation.
	PeriodTimeOfDay PeriodKind = "tod_60min"
)

// Period identifies one dataset slice: an aggregation kind over a date
// window, optionally restricted to a daytime or weektime subset. Its Key
// matches the file-name convention of the offline precompute pipeline so
// cache keys line up with precomputed artifacts.
type Period struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time

	// Daytime is "", "day" or "night".
	Daytime string
	// Weektime is "", "workday" or "saturday".
	Weektime string
}

// Key renders the period as the canonical dataset key, e.g.
// "soundscape_data_avg_start_2020-01-01_end_2020-05-11_day".
func (p Period) Key() string {
	parts := []string{
		"soundscape_data_" + string(p.Kind),
		"start_" + p.Start.Format("2006-01-02"),
		"end_" + p.End.Format("2006-01-02"),
	}
	if p.Daytime != "" {
		parts = append(parts, p.Daytime)
	}
	if p.Weektime != "" {
		parts = append(parts, p.Weektime)
	}
	return strings.Join(parts, "_")
}
