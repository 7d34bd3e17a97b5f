package store

import (
	"sync"

	"github.com/i474232898/temperature-monitoring/internal/monitor"
)

// MemoryStore is a concurrency-safe in-memory implementation of the
// monitor.Store interface. It backs tests and serves as a fallback when
// the data directory is unavailable; nothing survives a restart.
type MemoryStore struct {
	mu sync.RWMutex

	history []monitor.Reading
	models  map[string]monitor.ModelBlob
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		models: make(map[string]monitor.ModelBlob),
	}
}

// LoadHistory returns a copy of the stored readings. An empty store
// yields an empty history, never an error.
func (s *MemoryStore) LoadHistory() ([]monitor.Reading, []monitor.RowError, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]monitor.Reading, len(s.history))
	copy(out, s.history)
	return out, nil, nil
}

// SaveHistory replaces the stored readings with a copy of the given slice.
func (s *MemoryStore) SaveHistory(readings []monitor.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = make([]monitor.Reading, len(readings))
	copy(s.history, readings)
	return nil
}

// LoadModel returns the stored blob for a model, if any.
func (s *MemoryStore) LoadModel(name string) (monitor.ModelBlob, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.models[name]
	return blob, ok, nil
}

// SaveModel stores a model blob, replacing any previous one of the same name.
func (s *MemoryStore) SaveModel(blob monitor.ModelBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.models[blob.Name] = blob
	return nil
}

// Clear drops all stored readings and model blobs.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.models = make(map[string]monitor.ModelBlob)
	return nil
}
