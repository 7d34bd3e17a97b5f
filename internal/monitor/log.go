package monitor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ImportMode selects how an imported batch is combined with the
// existing log.
type ImportMode string

const (
	// ImportReplace discards the current log and installs the batch.
	ImportReplace ImportMode = "replace"
	// ImportMerge appends the batch, dropping existing readings that
	// share Date+Time with an incoming row (incoming wins).
	ImportMerge ImportMode = "merge"
)

// ParseImportMode validates a user-supplied import mode.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ImportReplace, ImportMerge:
		return ImportMode(s), nil
	case "":
		return ImportMerge, nil
	}
	return "", &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown import mode %q", s)}
}

// Log is the ordered collection of readings owned by the running
// session. It preserves insertion order; chronological processing sorts
// a copy by (Date, Time). The Log is not safe for concurrent use; the
// Service serializes access.
type Log struct {
	readings []Reading
}

// NewLog returns an empty observation log.
func NewLog() *Log {
	return &Log{}
}

// Len reports the number of readings currently held.
func (l *Log) Len() int {
	return len(l.readings)
}

// Add validates a reading and appends it, assigning an ID when the
// caller did not supply one. On validation failure the log is left
// unchanged.
func (l *Log) Add(r Reading) (Reading, error) {
	if err := ValidateReading(r); err != nil {
		return Reading{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	l.readings = append(l.readings, r)
	return r, nil
}

// Delete removes the reading with the given ID. A stale or unknown
// selector is an intentional no-op; the return value reports whether
// anything was removed.
func (l *Log) Delete(id string) bool {
	for i, r := range l.readings {
		if r.ID == id {
			l.readings = append(l.readings[:i], l.readings[i+1:]...)
			return true
		}
	}
	return false
}

// Import validates every row, then replaces or merges the log according
// to mode. The batch is atomic: a single invalid row rejects the whole
// import and leaves the log untouched.
func (l *Log) Import(rows []Reading, mode ImportMode) (int, error) {
	batch := make([]Reading, 0, len(rows))
	for i, r := range rows {
		if err := ValidateReading(r); err != nil {
			return 0, &ImportError{Row: i, Reason: err.Error()}
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		batch = append(batch, r)
	}

	switch mode {
	case ImportReplace:
		l.readings = batch
	case ImportMerge:
		// Incoming rows win on Date+Time collisions.
		seen := make(map[string]struct{}, len(batch))
		for _, r := range batch {
			seen[r.Date+" "+r.Time] = struct{}{}
		}
		merged := make([]Reading, 0, len(l.readings)+len(batch))
		for _, r := range l.readings {
			if _, dup := seen[r.Date+" "+r.Time]; !dup {
				merged = append(merged, r)
			}
		}
		l.readings = append(merged, batch...)
	default:
		return 0, &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown import mode %q", mode)}
	}
	return len(batch), nil
}

// Export returns a copy of the full log in insertion order.
func (l *Log) Export() []Reading {
	out := make([]Reading, len(l.readings))
	copy(out, l.readings)
	return out
}

// Chronological returns a copy of the log sorted by (Date, Time)
// ascending. Both fields use fixed-width layouts, so lexicographic
// order is chronological order.
func (l *Log) Chronological() []Reading {
	out := l.Export()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// Temperatures returns temperature values in chronological order. The
// slice index is the regression time index: the 0-based ordinal
// position of the reading, not its calendar distance.
func (l *Log) Temperatures() []float64 {
	ordered := l.Chronological()
	out := make([]float64, len(ordered))
	for i, r := range ordered {
		out[i] = r.TemperatureC
	}
	return out
}

// LastDate returns the calendar date of the chronologically last
// reading, or false when the log is empty.
func (l *Log) LastDate() (time.Time, bool) {
	ordered := l.Chronological()
	if len(ordered) == 0 {
		return time.Time{}, false
	}
	ts, err := time.Parse(DateLayout, ordered[len(ordered)-1].Date)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Reset drops every reading.
func (l *Log) Reset() {
	l.readings = nil
}

// ValidateReading checks a reading against the field constraints:
// layouts for Date and Time, the temperature bounds, and the rating
// set. The storage adapter uses it to vet history rows at load time so
// a bad row can be skipped instead of poisoning the whole log.
func ValidateReading(r Reading) error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Field:  strings.ToLower(fe.Field()),
				Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}
		}
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}
