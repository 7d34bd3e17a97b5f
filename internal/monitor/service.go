package monitor

import (
	"log"
	"sync"
	"time"

	"github.com/i474232898/temperature-monitoring/internal/regress"
)

// RowError reports one malformed row encountered while loading history.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ModelBlob is the persisted form of a trained model.
type ModelBlob struct {
	Name         string    `json:"name"`
	Degree       int       `json:"degree"`
	Coefficients []float64 `json:"coefficients"`
	Samples      int       `json:"samples"`
	RSquared     float64   `json:"rSquared"`
	RMSE         float64   `json:"rmse"`
}

// Store is the contract the persistence adapter must satisfy. Load
// methods report a missing file as empty data, not an error; malformed
// history rows are reported per row and never crash the loader.
type Store interface {
	LoadHistory() ([]Reading, []RowError, error)
	SaveHistory(readings []Reading) error
	LoadModel(name string) (ModelBlob, bool, error)
	SaveModel(blob ModelBlob) error
	Clear() error
}

// ForecastBounds constrains extended forecast requests.
type ForecastBounds struct {
	MinDays     int
	MaxDays     int
	DefaultDays int
}

// DefaultForecastBounds matches the configured defaults.
var DefaultForecastBounds = ForecastBounds{MinDays: 1, MaxDays: 30, DefaultDays: 7}

// ModelInfo is the externally visible state of one registered model.
// Stale reports whether the trained state still reflects the current
// log (training sample count vs. log length).
type ModelInfo struct {
	Name     string  `json:"name"`
	Degree   int     `json:"degree"`
	Trained  bool    `json:"trained"`
	Samples  int     `json:"samples"`
	Stale    bool    `json:"stale"`
	RSquared float64 `json:"rSquared"`
	RMSE     float64 `json:"rmse"`
	Active   bool    `json:"active"`
}

// Service owns the observation log and the model registry and
// orchestrates every core operation. The log and registry form a single
// mutable resource: writers hold the lock exclusively, readers share it.
type Service struct {
	mu       sync.RWMutex
	log      *Log
	registry *regress.Registry
	store    Store
	bounds   ForecastBounds

	lastPrediction *Prediction
	lastForecast   []ForecastPoint
}

// NewService creates a Service with an empty log and untrained models.
// store may be nil for a purely in-memory session.
func NewService(store Store, bounds ForecastBounds) *Service {
	if bounds.MinDays <= 0 {
		bounds = DefaultForecastBounds
	}
	return &Service{
		log:      NewLog(),
		registry: regress.NewRegistry(),
		store:    store,
		bounds:   bounds,
	}
}

// LoadPersisted restores history and model state from the adapter.
// Malformed rows and missing model files are logged and skipped; only a
// hard adapter failure is returned, and even then the service remains
// usable in memory.
func (s *Service) LoadPersisted() error {
	if s.store == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	readings, rowErrs, err := s.store.LoadHistory()
	if err != nil {
		log.Printf("ERROR: loading history: %v", err)
		return err
	}
	for _, re := range rowErrs {
		log.Printf("INFO: skipped malformed history row %d: %s", re.Row, re.Reason)
	}
	// Rows are added one at a time: a reading the adapter let through
	// but the log rejects is skipped on its own, never dragging the
	// valid rows down with it.
	loaded := 0
	for _, r := range readings {
		if _, err := s.log.Add(r); err != nil {
			log.Printf("INFO: skipped invalid history row: %v", err)
			continue
		}
		loaded++
	}
	if loaded > 0 {
		log.Printf("INFO: loaded %d readings from history", loaded)
	}

	for _, name := range s.registry.Names() {
		blob, ok, err := s.store.LoadModel(name)
		if err != nil {
			log.Printf("ERROR: loading model %s: %v", name, err)
			continue
		}
		if !ok {
			continue // no file; model stays untrained
		}
		m, _ := s.registry.Get(name)
		if err := m.Restore(blob.Coefficients, blob.Samples, blob.RSquared, blob.RMSE); err != nil {
			log.Printf("ERROR: restoring model %s: %v", name, err)
			continue
		}
		log.Printf("INFO: model %s restored (%d samples)", name, blob.Samples)
	}
	return nil
}

// AddReading validates and appends a reading, then persists the log.
// A persistence failure is reported in the logs but does not undo the
// in-memory add.
func (s *Service) AddReading(r Reading) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.log.Add(r)
	if err != nil {
		return Reading{}, err
	}
	s.saveHistoryLocked()
	return added, nil
}

// DeleteReading removes a reading by ID. A stale selector is a no-op.
func (s *Service) DeleteReading(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.log.Delete(id)
	if removed {
		s.saveHistoryLocked()
	}
	return removed
}

// ImportReadings atomically imports a batch in the given mode and
// returns how many rows were accepted.
func (s *Service) ImportReadings(rows []Reading, mode ImportMode) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.log.Import(rows, mode)
	if err != nil {
		return 0, err
	}
	s.saveHistoryLocked()
	return n, nil
}

// ExportReadings returns the full ordered table.
func (s *Service) ExportReadings() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Export()
}

// FilteredReadings applies a composed filter against the current log.
func (s *Service) FilteredReadings(f Filter) []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.log.Export(), time.Now())
}

// Stats computes summary statistics over a filtered view.
func (s *Service) Stats(f Filter) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Compute(f.Apply(s.log.Export(), time.Now()))
}

// Models reports registry state including per-model staleness.
func (s *Service) Models() []ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := s.registry.ActiveName()
	out := make([]ModelInfo, 0, len(s.registry.Names()))
	for _, name := range s.registry.Names() {
		m, _ := s.registry.Get(name)
		info := ModelInfo{
			Name:    name,
			Degree:  m.Degree(),
			Trained: m.Trained(),
			Samples: m.Samples(),
			Stale:   m.Trained() && m.Samples() != s.log.Len(),
			Active:  name == active,
		}
		if rsq, rmse, err := m.Evaluate(); err == nil {
			info.RSquared = rsq
			info.RMSE = rmse
		}
		out = append(out, info)
	}
	return out
}

// ActiveModel returns the name of the active model.
func (s *Service) ActiveModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.ActiveName()
}

// SetActiveModel switches the active-model selector. Switching never
// mutates any other model's trained state; if the newly active model
// has never been trained, a training attempt is made immediately.
func (s *Service) SetActiveModel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.SetActive(name); err != nil {
		return err
	}
	m := s.registry.Active()
	if !m.Trained() {
		if err := m.Fit(s.log.Temperatures()); err != nil {
			log.Printf("INFO: newly active model %s not trained yet: %v", name, err)
		} else {
			s.saveModelLocked(m)
		}
	}
	return nil
}

// Retrain refits the named model, or every model when name is empty,
// against the current log. Models that cannot be fit keep their
// previous trained state and their error is returned.
func (s *Service) Retrain(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrainLocked(name)
}

func (s *Service) retrainLocked(name string) error {
	values := s.log.Temperatures()

	if name != "" {
		m, err := s.registry.Get(name)
		if err != nil {
			return err
		}
		if err := m.Fit(values); err != nil {
			return err
		}
		s.saveModelLocked(m)
		return nil
	}

	failures := s.registry.FitAll(values)
	for _, n := range s.registry.Names() {
		if _, failed := failures[n]; failed {
			continue
		}
		m, _ := s.registry.Get(n)
		s.saveModelLocked(m)
	}
	if err, ok := failures[s.registry.ActiveName()]; ok {
		return err
	}
	return nil
}

// SelectBestModel trains every model and activates the one with the
// highest in-sample R².
func (s *Service) SelectBestModel() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	best, err := s.registry.SelectBest(s.log.Temperatures())
	if err != nil {
		return "", err
	}
	for _, name := range s.registry.Names() {
		m, _ := s.registry.Get(name)
		if m.Trained() {
			s.saveModelLocked(m)
		}
	}
	log.Printf("INFO: best model is %s", best)
	return best, nil
}

// Reset clears the log, resets every model to untrained, and removes
// persisted files.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Reset()
	s.registry.ResetAll()
	s.lastPrediction = nil
	s.lastForecast = nil

	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(); err != nil {
		log.Printf("ERROR: clearing persisted state: %v", err)
		return err
	}
	return nil
}

func (s *Service) saveHistoryLocked() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveHistory(s.log.Export()); err != nil {
		// Degrade gracefully: keep operating on in-memory state.
		log.Printf("ERROR: saving history: %v", err)
	}
}

func (s *Service) saveModelLocked(m *regress.Model) {
	if s.store == nil {
		return
	}
	rsq, rmse, err := m.Evaluate()
	if err != nil {
		return
	}
	blob := ModelBlob{
		Name:         m.Name(),
		Degree:       m.Degree(),
		Coefficients: m.Coefficients(),
		Samples:      m.Samples(),
		RSquared:     rsq,
		RMSE:         rmse,
	}
	if err := s.store.SaveModel(blob); err != nil {
		log.Printf("ERROR: saving model %s: %v", m.Name(), err)
	}
}
