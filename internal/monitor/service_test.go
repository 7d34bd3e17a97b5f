package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/temperature-monitoring/internal/regress"
)

func newTestService(t *testing.T, readings ...Reading) *Service {
	t.Helper()
	s := NewService(nil, DefaultForecastBounds)
	if len(readings) > 0 {
		if _, err := s.ImportReadings(readings, ImportReplace); err != nil {
			t.Fatalf("unexpected import error: %v", err)
		}
	}
	return s
}

func linearSeries() []Reading {
	return []Reading{
		mkReading("2026-08-01", "09:00", 20),
		mkReading("2026-08-02", "09:00", 21),
		mkReading("2026-08-03", "09:00", 22),
	}
}

func TestNextValuePredictionEndToEnd(t *testing.T) {
	s := newTestService(t, linearSeries()...)
	if err := s.SetActiveModel(regress.ModelLinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pred, err := s.NextValue()
	if err != nil {
		t.Fatalf("unexpected prediction error: %v", err)
	}
	if pred.Model != regress.ModelLinear {
		t.Errorf("expected linear model, got %s", pred.Model)
	}
	if !almostEqual(pred.TemperatureC, 23, 1e-6) {
		t.Errorf("expected next value near 23, got %v", pred.TemperatureC)
	}
	if !almostEqual(pred.RSquared, 1.0, 1e-6) {
		t.Errorf("expected R² near 1.0, got %v", pred.RSquared)
	}
}

func TestNextValueOnEmptyLog(t *testing.T) {
	s := newTestService(t)
	_, err := s.NextValue()
	var insufficient *regress.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError on empty log, got %v", err)
	}
}

func TestExtendedForecastDatesAndLength(t *testing.T) {
	s := newTestService(t, linearSeries()...)
	if err := s.SetActiveModel(regress.ModelLinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forecast, err := s.ExtendedForecast(7)
	if err != nil {
		t.Fatalf("unexpected forecast error: %v", err)
	}
	if len(forecast) != 7 {
		t.Fatalf("expected 7 forecast points, got %d", len(forecast))
	}

	// Dates strictly increase, starting the day after the last entry.
	prev, err := time.Parse(DateLayout, "2026-08-03")
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range forecast {
		d, err := time.Parse(DateLayout, p.Date)
		if err != nil {
			t.Fatalf("point %d has unparseable date %q", i, p.Date)
		}
		if !d.After(prev) {
			t.Fatalf("point %d date %s not after %s", i, p.Date, prev.Format(DateLayout))
		}
		if d.Sub(prev) != 24*time.Hour {
			t.Fatalf("point %d date %s is not one day after %s", i, p.Date, prev.Format(DateLayout))
		}
		prev = d
	}

	// A perfect linear fit keeps extrapolating the trend.
	if !almostEqual(forecast[0].TemperatureC, 23, 1e-6) {
		t.Errorf("expected first forecast near 23, got %v", forecast[0].TemperatureC)
	}
	if forecast[0].Confidence != ConfidenceHigh {
		t.Errorf("expected high confidence at horizon 1 with R²=1, got %s", forecast[0].Confidence)
	}
}

func TestExtendedForecastBounds(t *testing.T) {
	s := newTestService(t, linearSeries()...)

	for _, days := range []int{0, 31, -3} {
		_, err := s.ExtendedForecast(days)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("days=%d: expected ValidationError, got %v", days, err)
		}
	}
}

func TestModelStalenessTracking(t *testing.T) {
	s := newTestService(t, linearSeries()...)
	if err := s.Retrain(regress.ModelLinear); err != nil {
		t.Fatalf("unexpected retrain error: %v", err)
	}

	if info := findModel(t, s, regress.ModelLinear); info.Stale {
		t.Error("freshly trained model must not be stale")
	}

	// Adding a reading does not retrain; the model goes stale until an
	// explicit retrain or prediction request.
	if _, err := s.AddReading(mkReading("2026-08-04", "09:00", 23)); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	if info := findModel(t, s, regress.ModelLinear); !info.Stale {
		t.Error("model should be stale after the log changed")
	}

	if err := s.Retrain(regress.ModelLinear); err != nil {
		t.Fatalf("unexpected retrain error: %v", err)
	}
	if info := findModel(t, s, regress.ModelLinear); info.Stale {
		t.Error("retrained model must not be stale")
	}
}

func TestSwitchingToUntrainedModelTrainsIt(t *testing.T) {
	s := newTestService(t, linearSeries()...)
	if err := s.SetActiveModel(regress.ModelLinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info := findModel(t, s, regress.ModelLinear)
	if !info.Trained {
		t.Error("switching to a never-trained model should train it")
	}
	if !info.Active {
		t.Error("expected linear to be active")
	}
}

func TestSelectBestModelActivatesWinner(t *testing.T) {
	s := newTestService(t,
		mkReading("2026-08-01", "09:00", 20),
		mkReading("2026-08-02", "09:00", 21),
		mkReading("2026-08-03", "09:00", 22),
		mkReading("2026-08-04", "09:00", 23),
		mkReading("2026-08-05", "09:00", 24),
	)
	best, err := s.SelectBestModel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ActiveModel() != best {
		t.Errorf("expected active model %s, got %s", best, s.ActiveModel())
	}
	info := findModel(t, s, best)
	if !almostEqual(info.RSquared, 1.0, 1e-6) {
		t.Errorf("expected winner R² near 1.0, got %v", info.RSquared)
	}
}

func TestRefreshCachesResults(t *testing.T) {
	s := newTestService(t, linearSeries()...)

	if _, _, ok := s.LatestPrediction(); ok {
		t.Fatal("expected no cached prediction before refresh")
	}
	if err := s.Refresh(); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
	pred, forecast, ok := s.LatestPrediction()
	if !ok {
		t.Fatal("expected cached prediction after refresh")
	}
	if len(forecast) != DefaultForecastBounds.DefaultDays {
		t.Errorf("expected %d cached forecast points, got %d", DefaultForecastBounds.DefaultDays, len(forecast))
	}
	if pred.Model == "" {
		t.Error("cached prediction has no model name")
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := newTestService(t, linearSeries()...)
	if err := s.Retrain(""); err != nil {
		// poly3 cannot fit 3 points, but the active poly2 can.
		t.Fatalf("unexpected retrain error: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	if len(s.ExportReadings()) != 0 {
		t.Error("reset should clear the log")
	}
	for _, info := range s.Models() {
		if info.Trained {
			t.Errorf("reset should untrain model %s", info.Name)
		}
	}
}

func findModel(t *testing.T, s *Service, name string) ModelInfo {
	t.Helper()
	for _, info := range s.Models() {
		if info.Name == name {
			return info
		}
	}
	t.Fatalf("model %s not reported", name)
	return ModelInfo{}
}
