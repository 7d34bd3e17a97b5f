package regress

import (
	"errors"
	"fmt"
)

// Model names registered at startup.
const (
	ModelLinear = "linear"
	ModelPoly2  = "poly2"
	ModelPoly3  = "poly3"
)

// ErrUnknownModel is returned for model names outside the registry.
var ErrUnknownModel = errors.New("unknown model")

// Registry holds the named regression models and the active-model
// selector. Exactly one model is active at any time; switching is a
// pure reassignment with no effect on any model's trained state.
type Registry struct {
	models map[string]*Model
	order  []string
	active string
}

// NewRegistry creates the three standard models, all untrained, with
// poly2 active by default.
func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]*Model),
		active: ModelPoly2,
	}
	for _, m := range []*Model{
		NewModel(ModelLinear, 1),
		NewModel(ModelPoly2, 2),
		NewModel(ModelPoly3, 3),
	} {
		r.models[m.Name()] = m
		r.order = append(r.order, m.Name())
	}
	return r
}

// Names lists the registered model names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get looks up a model by name.
func (r *Registry) Get(name string) (*Model, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return m, nil
}

// Active returns the currently selected model.
func (r *Registry) Active() *Model {
	return r.models[r.active]
}

// ActiveName returns the name of the currently selected model.
func (r *Registry) ActiveName() string {
	return r.active
}

// SetActive switches the active-model selector.
func (r *Registry) SetActive(name string) error {
	if _, ok := r.models[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	r.active = name
	return nil
}

// FitAll trains every registered model on the series, returning
// per-model errors for the ones that could not be fit. Models that fail
// keep their previous trained state.
func (r *Registry) FitAll(values []float64) map[string]error {
	failures := make(map[string]error)
	for _, name := range r.order {
		if err := r.models[name].Fit(values); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// SelectBest trains every model and activates the one with the highest
// in-sample R². At least one model must train successfully.
func (r *Registry) SelectBest(values []float64) (string, error) {
	r.FitAll(values)

	best := ""
	bestScore := -1.0
	for _, name := range r.order {
		m := r.models[name]
		if !m.Trained() {
			continue
		}
		rsq, _, err := m.Evaluate()
		if err != nil {
			continue
		}
		if rsq > bestScore {
			bestScore = rsq
			best = name
		}
	}
	if best == "" {
		return "", &InsufficientDataError{Model: ModelLinear, Need: 2, Have: len(values)}
	}
	r.active = best
	return best, nil
}

// ResetAll returns every model to its untrained state.
func (r *Registry) ResetAll() {
	for _, m := range r.models {
		m.Reset()
	}
}
