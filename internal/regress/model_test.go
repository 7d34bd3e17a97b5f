package regress

import (
	"errors"
	"math"
	"testing"
)

// almostEqual compares floats with a tolerance.
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestLinearPerfectSeries(t *testing.T) {
	m := NewModel(ModelLinear, 1)
	if err := m.Fit([]float64{20, 21, 22}); err != nil {
		t.Fatalf("unexpected fit error: %v", err)
	}

	rsq, rmse, err := m.Evaluate()
	if err != nil {
		t.Fatalf("unexpected evaluate error: %v", err)
	}
	if !almostEqual(rsq, 1.0, 1e-9) {
		t.Errorf("expected R² 1.0 on perfectly linear series, got %v", rsq)
	}
	if !almostEqual(rmse, 0, 1e-9) {
		t.Errorf("expected RMSE 0 on perfectly linear series, got %v", rmse)
	}

	pred, err := m.Predict(3)
	if err != nil {
		t.Fatalf("unexpected predict error: %v", err)
	}
	if !almostEqual(pred, 23, 1e-9) {
		t.Errorf("expected next value 23, got %v", pred)
	}
}

func TestPoly2RecoversQuadratic(t *testing.T) {
	m := NewModel(ModelPoly2, 2)
	// y = t² sampled at t = 0..4.
	if err := m.Fit([]float64{0, 1, 4, 9, 16}); err != nil {
		t.Fatalf("unexpected fit error: %v", err)
	}
	pred, err := m.Predict(5)
	if err != nil {
		t.Fatalf("unexpected predict error: %v", err)
	}
	if !almostEqual(pred, 25, 1e-6) {
		t.Errorf("expected 25, got %v", pred)
	}
}

func TestMinimumSampleCounts(t *testing.T) {
	poly2 := NewModel(ModelPoly2, 2)
	if err := poly2.Fit([]float64{1, 2, 4}); err != nil {
		t.Errorf("poly2 on 3 points should fit, got %v", err)
	}

	poly3 := NewModel(ModelPoly3, 3)
	if err := poly3.Fit([]float64{1, 2, 4, 8}); err != nil {
		t.Errorf("poly3 on 4 points should fit, got %v", err)
	}

	poly3short := NewModel(ModelPoly3, 3)
	err := poly3short.Fit([]float64{1, 2, 4})
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("poly3 on 3 points should fail with InsufficientDataError, got %v", err)
	}
	if poly3short.Trained() {
		t.Error("failed fit must not mark the model trained")
	}
}

func TestPredictUntrained(t *testing.T) {
	m := NewModel(ModelLinear, 1)
	_, err := m.Predict(0)
	var untrained *ModelNotTrainedError
	if !errors.As(err, &untrained) {
		t.Fatalf("expected ModelNotTrainedError, got %v", err)
	}
	if _, _, err := m.Evaluate(); !errors.As(err, &untrained) {
		t.Fatalf("expected ModelNotTrainedError from Evaluate, got %v", err)
	}
}

func TestFailedFitKeepsPreviousState(t *testing.T) {
	m := NewModel(ModelLinear, 1)
	if err := m.Fit([]float64{10, 12, 14}); err != nil {
		t.Fatalf("unexpected fit error: %v", err)
	}
	before := m.Coefficients()
	samples := m.Samples()

	if err := m.Fit([]float64{10}); err == nil {
		t.Fatal("expected fit on 1 point to fail")
	}
	if !m.Trained() {
		t.Fatal("model should remain trained after a rejected fit")
	}
	after := m.Coefficients()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("coefficients changed after rejected fit: %v -> %v", before, after)
		}
	}
	if m.Samples() != samples {
		t.Errorf("sample count changed after rejected fit: %d -> %d", samples, m.Samples())
	}
}

func TestFeaturesExpansion(t *testing.T) {
	m := NewModel(ModelPoly3, 3)
	f := m.Features(2)
	want := []float64{1, 2, 4, 8}
	if len(f) != len(want) {
		t.Fatalf("expected %d features, got %d", len(want), len(f))
	}
	for i := range want {
		if !almostEqual(f[i], want[i], 1e-12) {
			t.Errorf("feature %d: expected %v, got %v", i, want[i], f[i])
		}
	}
}

func TestRestore(t *testing.T) {
	m := NewModel(ModelLinear, 1)
	if err := m.Restore([]float64{20, 1}, 3, 1.0, 0); err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	pred, err := m.Predict(3)
	if err != nil {
		t.Fatalf("unexpected predict error: %v", err)
	}
	if !almostEqual(pred, 23, 1e-9) {
		t.Errorf("expected 23 from restored model, got %v", pred)
	}

	if err := m.Restore([]float64{1, 2, 3}, 3, 0, 0); err == nil {
		t.Error("expected error restoring wrong coefficient count")
	}
}

func TestConstantSeriesScoresOne(t *testing.T) {
	m := NewModel(ModelLinear, 1)
	if err := m.Fit([]float64{5, 5, 5, 5}); err != nil {
		t.Fatalf("unexpected fit error: %v", err)
	}
	rsq, _, err := m.Evaluate()
	if err != nil {
		t.Fatalf("unexpected evaluate error: %v", err)
	}
	if !almostEqual(rsq, 1.0, 1e-9) {
		t.Errorf("constant series fit exactly should score 1.0, got %v", rsq)
	}
}
