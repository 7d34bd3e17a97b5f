// Package store implements the file-backed persistence adapter the
// core consumes. The core keeps working in memory when anything here
// fails; adapter errors are always recoverable.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/temperature-monitoring/internal/monitor"
)

// Interchange column order for history files and CSV export.
var csvHeader = []string{"Date", "Time", "Temperature", "Rating", "Notes"}

// FileStore persists the observation log as a CSV history file and each
// model as a JSON blob under a single data directory. Writes go through
// a circuit breaker so a persistently failing disk fails fast instead
// of stalling every mutation.
type FileStore struct {
	dataDir      string
	historyFile  string
	modelPattern string // e.g. "%s_model.json"
	breaker      *gobreaker.CircuitBreaker
}

// NewFileStore creates the adapter and ensures the data directory
// exists.
func NewFileStore(dataDir, historyFile, modelPattern string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, &monitor.PersistenceError{Op: "init", Err: err}
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "store-writes",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &FileStore{
		dataDir:      dataDir,
		historyFile:  historyFile,
		modelPattern: modelPattern,
		breaker:      cb,
	}, nil
}

// LoadHistory reads the history file. A missing file is an empty log,
// not an error. Malformed rows are reported individually and skipped;
// they never abort the load. Each row is fully validated here so that
// a bad date, time, rating, or temperature cannot reach the log's
// atomic import and take the valid rows down with it.
func (s *FileStore) LoadHistory() ([]monitor.Reading, []monitor.RowError, error) {
	f, err := os.Open(filepath.Join(s.dataDir, s.historyFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, &monitor.PersistenceError{Op: "load history", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row length validated per record below

	var (
		readings []monitor.Reading
		rowErrs  []monitor.RowError
		row      int
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, monitor.RowError{Row: row, Reason: err.Error()})
			row++
			continue
		}
		if row == 0 && len(record) > 0 && record[0] == csvHeader[0] {
			row++
			continue // header
		}
		reading, perr := parseRecord(record)
		if perr == nil {
			perr = monitor.ValidateReading(reading)
		}
		if perr != nil {
			rowErrs = append(rowErrs, monitor.RowError{Row: row, Reason: perr.Error()})
			row++
			continue
		}
		readings = append(readings, reading)
		row++
	}
	return readings, rowErrs, nil
}

// SaveHistory writes the full log, overwriting the previous file. The
// write goes to a temporary file first and is renamed into place, so
// the process never observes a partially written history.
func (s *FileStore) SaveHistory(readings []monitor.Reading) error {
	return s.write("save history", s.historyFile, func(w io.Writer) error {
		return WriteCSV(w, readings)
	})
}

// LoadModel reads a persisted model blob. A missing file means the
// model stays untrained; that is not an error.
func (s *FileStore) LoadModel(name string) (monitor.ModelBlob, bool, error) {
	path := filepath.Join(s.dataDir, fmt.Sprintf(s.modelPattern, name))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return monitor.ModelBlob{}, false, nil
		}
		return monitor.ModelBlob{}, false, &monitor.PersistenceError{Op: "load model " + name, Err: err}
	}
	var blob monitor.ModelBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return monitor.ModelBlob{}, false, &monitor.PersistenceError{Op: "load model " + name, Err: err}
	}
	return blob, true, nil
}

// SaveModel persists one model blob under the configured naming
// convention.
func (s *FileStore) SaveModel(blob monitor.ModelBlob) error {
	return s.write("save model "+blob.Name, fmt.Sprintf(s.modelPattern, blob.Name), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(blob)
	})
}

// Clear removes the history file and every persisted model blob.
func (s *FileStore) Clear() error {
	paths := []string{filepath.Join(s.dataDir, s.historyFile)}
	if matches, err := filepath.Glob(filepath.Join(s.dataDir, fmt.Sprintf(s.modelPattern, "*"))); err == nil {
		paths = append(paths, matches...)
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &monitor.PersistenceError{Op: "clear", Err: err}
		}
	}
	return nil
}

// write runs an atomic temp-file-then-rename write through the circuit
// breaker.
func (s *FileStore) write(op, filename string, fill func(io.Writer) error) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		tmp, err := os.CreateTemp(s.dataDir, filename+".tmp-*")
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp.Name())

		if err := fill(tmp); err != nil {
			tmp.Close()
			return nil, err
		}
		if err := tmp.Close(); err != nil {
			return nil, err
		}
		return nil, os.Rename(tmp.Name(), filepath.Join(s.dataDir, filename))
	})
	if err != nil {
		return &monitor.PersistenceError{Op: op, Err: err}
	}
	return nil
}

// WriteCSV writes readings in the flat interchange schema
// {Date, Time, Temperature, Rating, Notes}.
func WriteCSV(w io.Writer, readings []monitor.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range readings {
		record := []string{
			r.Date,
			r.Time,
			strconv.FormatFloat(r.TemperatureC, 'f', -1, 64),
			string(r.Rating),
			r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRecord(record []string) (monitor.Reading, error) {
	if len(record) < 4 {
		return monitor.Reading{}, fmt.Errorf("expected at least 4 columns, got %d", len(record))
	}
	temp, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return monitor.Reading{}, fmt.Errorf("temperature %q is not numeric", record[2])
	}
	r := monitor.Reading{
		Date:         record[0],
		Time:         record[1],
		TemperatureC: temp,
		Rating:       monitor.Rating(record[3]),
	}
	if len(record) > 4 {
		r.Notes = record[4]
	}
	return r, nil
}
