// Package regress implements the low-order polynomial regression models
// behind the forecasting engine. The independent variable is always the
// 0-based ordinal position of a reading in chronological order.
package regress

import (
	"fmt"
	"math"
)

// InsufficientDataError is returned when a fit is requested with fewer
// points than the model degree supports.
type InsufficientDataError struct {
	Model string
	Need  int
	Have  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("model %s needs at least %d readings, have %d", e.Model, e.Need, e.Have)
}

// ModelNotTrainedError is returned when a prediction or evaluation is
// requested from a model that has never been successfully fit.
type ModelNotTrainedError struct {
	Model string
}

func (e *ModelNotTrainedError) Error() string {
	return fmt.Sprintf("model %s is not trained", e.Model)
}

// Model is a single polynomial regression model: a fixed feature
// transform plus least-squares coefficients. A model is usable for
// prediction only after a successful Fit or Restore.
type Model struct {
	name    string
	degree  int
	coeffs  []float64 // coeffs[i] multiplies t^i
	trained bool
	samples int
	rsq     float64
	rmse    float64
}

// NewModel creates an untrained model of the given polynomial degree.
// Degree 1 is plain linear regression.
func NewModel(name string, degree int) *Model {
	return &Model{name: name, degree: degree}
}

func (m *Model) Name() string   { return m.name }
func (m *Model) Degree() int    { return m.degree }
func (m *Model) Trained() bool  { return m.trained }
func (m *Model) Samples() int   { return m.samples }

// Coefficients returns a copy of the fitted coefficients, lowest power
// first. Empty for an untrained model.
func (m *Model) Coefficients() []float64 {
	out := make([]float64, len(m.coeffs))
	copy(out, m.coeffs)
	return out
}

// Features expands a time index into the regression input vector
// [1, t, t², …, t^degree].
func (m *Model) Features(t float64) []float64 {
	f := make([]float64, m.degree+1)
	f[0] = 1
	for i := 1; i <= m.degree; i++ {
		f[i] = f[i-1] * t
	}
	return f
}

// MinSamples is the smallest number of points Fit accepts: degree+1,
// the count that determines the polynomial. Note an exact-count fit
// interpolates the data and reports R² of 1.0; quality requires more
// points than the minimum.
func (m *Model) MinSamples() int {
	return m.degree + 1
}

// Fit computes least-squares coefficients for the series values, where
// values[i] is the observation at time index i. On failure the previous
// trained state, if any, is kept.
func (m *Model) Fit(values []float64) error {
	n := len(values)
	if n < m.MinSamples() {
		return &InsufficientDataError{Model: m.name, Need: m.MinSamples(), Have: n}
	}

	// Normal equations: (Σ f fᵀ) c = Σ f·y over the feature vectors.
	k := m.degree + 1
	a := make([][]float64, k)
	for i := range a {
		a[i] = make([]float64, k+1) // augmented column holds Σ f·y
	}
	for t, y := range values {
		f := m.Features(float64(t))
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				a[i][j] += f[i] * f[j]
			}
			a[i][k] += f[i] * y
		}
	}

	coeffs, ok := solve(a)
	if !ok {
		// Singular system; with distinct ordinal indices this only
		// happens on pathological input.
		return &InsufficientDataError{Model: m.name, Need: m.MinSamples(), Have: n}
	}

	m.coeffs = coeffs
	m.trained = true
	m.samples = n
	m.rsq, m.rmse = m.score(values)
	return nil
}

// Predict evaluates the fitted polynomial at time index t.
func (m *Model) Predict(t float64) (float64, error) {
	if !m.trained {
		return 0, &ModelNotTrainedError{Model: m.name}
	}
	// Horner evaluation, highest power first.
	v := 0.0
	for i := len(m.coeffs) - 1; i >= 0; i-- {
		v = v*t + m.coeffs[i]
	}
	return v, nil
}

// Evaluate reports the fit quality recorded at training time. Both
// metrics are in-sample: computed against the same data the model was
// trained on, so they measure fit, not generalization.
func (m *Model) Evaluate() (rSquared, rmse float64, err error) {
	if !m.trained {
		return 0, 0, &ModelNotTrainedError{Model: m.name}
	}
	return m.rsq, m.rmse, nil
}

// Restore installs previously persisted parameters, marking the model
// trained without refitting.
func (m *Model) Restore(coeffs []float64, samples int, rSquared, rmse float64) error {
	if len(coeffs) != m.degree+1 {
		return fmt.Errorf("model %s expects %d coefficients, got %d", m.name, m.degree+1, len(coeffs))
	}
	m.coeffs = make([]float64, len(coeffs))
	copy(m.coeffs, coeffs)
	m.samples = samples
	m.rsq = rSquared
	m.rmse = rmse
	m.trained = true
	return nil
}

// Reset returns the model to its untrained startup state.
func (m *Model) Reset() {
	m.coeffs = nil
	m.trained = false
	m.samples = 0
	m.rsq = 0
	m.rmse = 0
}

// score computes in-sample R² and RMSE. R² = 1 - SSres/SStot; a series
// with zero variance fit exactly scores 1.
func (m *Model) score(values []float64) (rSquared, rmse float64) {
	n := float64(len(values))

	var sum float64
	for _, y := range values {
		sum += y
	}
	mean := sum / n

	var ssRes, ssTot float64
	for t, y := range values {
		pred, _ := m.Predict(float64(t))
		d := y - pred
		ssRes += d * d
		dm := y - mean
		ssTot += dm * dm
	}

	rmse = math.Sqrt(ssRes / n)
	if ssTot < 1e-12 {
		if ssRes < 1e-12 {
			return 1, rmse
		}
		return 0, rmse
	}
	return 1 - ssRes/ssTot, rmse
}

// solve runs Gaussian elimination with partial pivoting on an augmented
// matrix, returning the solution vector.
func solve(a [][]float64) ([]float64, bool) {
	n := len(a)
	for col := 0; col < n; col++ {
		// Pivot on the largest magnitude entry in this column.
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for j := col; j <= n; j++ {
				a[row][j] -= factor * a[col][j]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := a[i][n]
		for j := i + 1; j < n; j++ {
			v -= a[i][j] * x[j]
		}
		x[i] = v / a[i][i]
	}
	return x, true
}
