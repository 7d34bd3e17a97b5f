package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager guards the live settings document for concurrent readers and
// the occasional update from the configuration endpoint.
type Manager struct {
	mu       sync.RWMutex
	settings Settings
}

// NewManager wraps the loaded settings.
func NewManager(s Settings) *Manager {
	return &Manager{settings: s}
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Update merges a partial JSON document over the current settings,
// persists the result, and installs it. Later keys override current
// values; unknown keys are preserved.
func (m *Manager) Update(doc []byte) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.settings
	if len(next.extra) > 0 {
		// Copy the unknown-key map so a rejected update cannot leak
		// changes into the installed settings.
		cp := make(map[string]json.RawMessage, len(next.extra))
		for k, v := range next.extra {
			cp[k] = v
		}
		next.extra = cp
	}
	if err := json.Unmarshal(doc, &next); err != nil {
		return Settings{}, fmt.Errorf("parsing settings update: %w", err)
	}
	if next.MinForecastDays < 1 || next.MaxForecastDays < next.MinForecastDays {
		return Settings{}, fmt.Errorf("invalid forecast day bounds [%d,%d]", next.MinForecastDays, next.MaxForecastDays)
	}
	if next.PredictionDays < next.MinForecastDays || next.PredictionDays > next.MaxForecastDays {
		return Settings{}, fmt.Errorf("prediction_days %d outside bounds [%d,%d]",
			next.PredictionDays, next.MinForecastDays, next.MaxForecastDays)
	}
	if err := next.Save(); err != nil {
		return Settings{}, err
	}
	m.settings = next
	return next, nil
}
