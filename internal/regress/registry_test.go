package regress

import (
	"errors"
	"testing"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	if r.ActiveName() != ModelPoly2 {
		t.Errorf("expected poly2 active by default, got %s", r.ActiveName())
	}
	names := r.Names()
	want := []string{ModelLinear, ModelPoly2, ModelPoly3}
	if len(names) != len(want) {
		t.Fatalf("expected %d models, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("model %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestSetActiveUnknown(t *testing.T) {
	r := NewRegistry()
	if err := r.SetActive("poly9"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if _, err := r.Get("poly9"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestSwitchingDoesNotMutateModels(t *testing.T) {
	r := NewRegistry()
	values := []float64{20, 21, 22, 23}
	r.FitAll(values)

	linear, _ := r.Get(ModelLinear)
	before := linear.Coefficients()

	if err := r.SetActive(ModelPoly3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.SetActive(ModelLinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := linear.Coefficients()
	if len(before) != len(after) {
		t.Fatalf("coefficient count changed: %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("switching mutated trained parameters: %v -> %v", before, after)
		}
	}
}

func TestFitAllReportsShortModels(t *testing.T) {
	r := NewRegistry()
	failures := r.FitAll([]float64{1, 2, 4}) // 3 points: poly3 needs 4

	if _, failed := failures[ModelLinear]; failed {
		t.Error("linear should fit 3 points")
	}
	if _, failed := failures[ModelPoly2]; failed {
		t.Error("poly2 should fit 3 points")
	}
	err, failed := failures[ModelPoly3]
	if !failed {
		t.Fatal("poly3 should fail on 3 points")
	}
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestSelectBest(t *testing.T) {
	r := NewRegistry()
	best, err := r.SelectBest([]float64{20, 21, 22, 23, 24})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// All models reproduce a linear series, so the winner must score a
	// near-perfect R² and become active.
	m, err := r.Get(best)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rsq, _, err := m.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(rsq, 1.0, 1e-6) {
		t.Errorf("expected winning R² near 1.0, got %v", rsq)
	}
	if r.ActiveName() != best {
		t.Errorf("expected active model %s, got %s", best, r.ActiveName())
	}
}

func TestSelectBestEmpty(t *testing.T) {
	r := NewRegistry()
	_, err := r.SelectBest(nil)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}
