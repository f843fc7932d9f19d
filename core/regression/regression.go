// Package regression fits the deaths-versus-cases line over the summary table.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"covid-report/core/types"
	"covid-report/internal/errors"
)

// Model is an ordinary least squares fit y = Intercept + Slope*x.
type Model struct {
	Intercept      float64 `json:"intercept"`
	Slope          float64 `json:"slope"`
	RSquared       float64 `json:"r_squared"`
	N              int     `json:"n"`
	ResidualStdErr float64 `json:"residual_std_err"`
}

// Predict evaluates the fitted line at x
func (m Model) Predict(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// String formats the fitted equation
func (m Model) String() string {
	return fmt.Sprintf("y = %.4f + %.4f*x (R²=%.4f, n=%d)", m.Intercept, m.Slope, m.RSquared, m.N)
}

// Fit computes the least squares line through (x, y).
func Fit(x, y []float64) (Model, error) {
	if len(x) != len(y) {
		return Model{}, errors.Input(fmt.Sprintf("regression: %d x values but %d y values", len(x), len(y)))
	}
	if len(x) < 2 {
		return Model{}, errors.InsufficientData(fmt.Sprintf("regression needs at least 2 observations, got %d", len(x)))
	}
	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return Model{}, errors.Input(fmt.Sprintf("regression: observation %d is not finite", i))
		}
	}
	if stat.Variance(x, nil) == 0 {
		return Model{}, errors.InsufficientData("regression: x has no variance")
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	m := Model{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  stat.RSquared(x, y, nil, alpha, beta),
		N:         len(x),
	}

	if math.IsNaN(m.RSquared) {
		// y is constant, so the flat line explains it exactly
		m.RSquared = 1
	}

	if len(x) > 2 {
		residuals := make([]float64, len(x))
		for i := range x {
			residuals[i] = y[i] - m.Predict(x[i])
		}
		m.ResidualStdErr = math.Sqrt(floats.Dot(residuals, residuals) / float64(len(x)-2))
	}
	return m, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Apply fits deaths_per_thou against cases_per_thou and returns a copy of
// the summaries with Predicted set.
func Apply(summaries []types.Summary) (Model, []types.Summary, error) {
	x := make([]float64, len(summaries))
	y := make([]float64, len(summaries))
	for i, s := range summaries {
		x[i] = s.CasesPerThou
		y[i] = s.DeathsPerThou
	}

	m, err := Fit(x, y)
	if err != nil {
		return Model{}, nil, err
	}

	out := make([]types.Summary, len(summaries))
	for i, s := range summaries {
		p := m.Predict(s.CasesPerThou)
		s.Predicted = &p
		out[i] = s
	}
	return m, out, nil
}
