package monitor

import (
	"fmt"
	"log"

	"github.com/i474232898/temperature-monitoring/internal/regress"
)

// NextValue retrains the active model against the current log and
// predicts the next reading, at time index len(log). The returned R² is
// the active model's in-sample fit quality, displayed as an accuracy
// proxy. Retraining failure on a previously trained model falls back to
// the stale fit; an untrained model yields ModelNotTrainedError.
func (s *Service) NextValue() (Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextValueLocked()
}

func (s *Service) nextValueLocked() (Prediction, error) {
	m := s.registry.Active()
	if err := m.Fit(s.log.Temperatures()); err != nil {
		if !m.Trained() {
			return Prediction{}, err
		}
		log.Printf("DEBUG: model %s prediction uses stale fit: %v", m.Name(), err)
	}

	value, err := m.Predict(float64(s.log.Len()))
	if err != nil {
		return Prediction{}, err
	}
	rsq, _, err := m.Evaluate()
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Model: m.Name(), TemperatureC: value, RSquared: rsq}, nil
}

// ExtendedForecast retrains the active model and predicts one point per
// calendar day, starting the day after the last observed date, at
// increasing time indices. days must lie within the configured bounds;
// out-of-range requests fail rather than being clamped.
func (s *Service) ExtendedForecast(days int) ([]ForecastPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extendedForecastLocked(days)
}

func (s *Service) extendedForecastLocked(days int) ([]ForecastPoint, error) {
	if days < s.bounds.MinDays || days > s.bounds.MaxDays {
		return nil, &ValidationError{
			Field:  "days",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", s.bounds.MinDays, s.bounds.MaxDays, days),
		}
	}

	m := s.registry.Active()
	if err := m.Fit(s.log.Temperatures()); err != nil {
		if !m.Trained() {
			return nil, err
		}
		log.Printf("DEBUG: model %s forecast uses stale fit: %v", m.Name(), err)
	}

	lastDate, ok := s.log.LastDate()
	if !ok {
		return nil, &regress.InsufficientDataError{Model: m.Name(), Need: m.MinSamples(), Have: 0}
	}

	rsq, _, err := m.Evaluate()
	if err != nil {
		return nil, err
	}

	points := make([]ForecastPoint, 0, days)
	for i := 1; i <= days; i++ {
		t := float64(s.log.Len() + i - 1)
		value, err := m.Predict(t)
		if err != nil {
			return nil, err
		}
		points = append(points, ForecastPoint{
			Date:         lastDate.AddDate(0, 0, i).Format(DateLayout),
			TemperatureC: value,
			Confidence:   confidenceFor(rsq, i),
		})
	}
	return points, nil
}

// Refresh retrains the active model and recomputes the cached
// next-value prediction and default-horizon forecast. Used by the
// auto-predict scheduler; the UI layer pulls the results.
func (s *Service) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pred, err := s.nextValueLocked()
	if err != nil {
		return err
	}
	forecast, err := s.extendedForecastLocked(s.bounds.DefaultDays)
	if err != nil {
		return err
	}
	s.lastPrediction = &pred
	s.lastForecast = forecast
	log.Printf("INFO: refreshed prediction: %.1f°C (R²=%.4f, model=%s)",
		pred.TemperatureC, pred.RSquared, pred.Model)
	return nil
}

// LatestPrediction returns the most recently refreshed prediction, if
// any. Forecast results are regenerated on demand and never persisted.
func (s *Service) LatestPrediction() (Prediction, []ForecastPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastPrediction == nil {
		return Prediction{}, nil, false
	}
	forecast := make([]ForecastPoint, len(s.lastForecast))
	copy(forecast, s.lastForecast)
	return *s.lastPrediction, forecast, true
}

// confidenceFor maps fit quality and horizon distance to a confidence
// category. The policy is fixed and tested: High when R² ≥ 0.8 and the
// horizon is within 3 days; Medium when R² ≥ 0.5 or the horizon is
// within 7 days; Low otherwise. Confidence never increases with
// distance for a given R².
func confidenceFor(rSquared float64, horizonDays int) Confidence {
	if rSquared >= 0.8 && horizonDays <= 3 {
		return ConfidenceHigh
	}
	if rSquared >= 0.5 || horizonDays <= 7 {
		return ConfidenceMedium
	}
	return ConfidenceLow
}
