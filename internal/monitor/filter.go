package monitor

import (
	"strings"
	"time"

	"github.com/i474232898/temperature-monitoring/internal/common"
)

// Period restricts a view to a window of recent calendar days relative
// to "now" at evaluation time, not relative to the last observation.
type Period string

const (
	PeriodAll    Period = "All"
	PeriodLast7  Period = "Last 7 Days"
	PeriodLast30 Period = "Last 30 Days"
	PeriodLast90 Period = "Last 90 Days"
)

func (p Period) days() int {
	switch p {
	case PeriodLast7:
		return 7
	case PeriodLast30:
		return 30
	case PeriodLast90:
		return 90
	}
	return 0
}

// ParsePeriod validates a user-supplied period name. An empty string
// means All.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodAll, PeriodLast7, PeriodLast30, PeriodLast90:
		return Period(s), nil
	case "":
		return PeriodAll, nil
	}
	return "", &ValidationError{Field: "period", Reason: "unknown period " + s}
}

// Filter is a composable restriction over the log: period AND rating
// AND search. Zero values leave the corresponding dimension open.
type Filter struct {
	Period Period
	Rating Rating // empty or "All" matches everything
	Search string // case-insensitive substring over notes and rating
}

// Apply produces a new ordered view of the given readings. It never
// mutates its input.
func (f Filter) Apply(view []Reading, now time.Time) []Reading {
	out := make([]Reading, 0, len(view))

	var cutoff time.Time
	if d := f.Period.days(); d > 0 {
		cutoff = now.AddDate(0, 0, -d)
	}

	q := strings.ToLower(strings.TrimSpace(f.Search))

	for _, r := range view {
		if !cutoff.IsZero() {
			ts, err := r.Timestamp()
			if err != nil || ts.Before(cutoff) {
				continue
			}
		}
		if f.Rating != "" && f.Rating != "All" && r.Rating != f.Rating {
			continue
		}
		if q != "" && !common.HasAny(strings.ToLower(r.Notes+" "+string(r.Rating)), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}
