package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

// ErrNotFitted is returned by Predict before a successful Fit.
var ErrNotFitted = errors.New("model not fitted")

// Prediction is one row of model output. Models may emit several rows per
// month, or rows for months already observed; the orchestrator reduces them.
type Prediction struct {
	Date     time.Time
	Value    float64
	Trend    float64
	Seasonal float64
}

// Model is a univariate forecaster over monthly observations.
type Model interface {
	// Fit trains the model on history, ordered ascending by month.
	Fit(ctx context.Context, history []types.Point) error

	// Predict returns predictions for the requested dates.
	Predict(ctx context.Context, dates []time.Time) ([]Prediction, error)
}

// ModelFactory builds a fresh, unfitted model. Each forecast scope (the
// global series and every category) gets its own instance.
type ModelFactory func() Model

// =============================================================================
// LINEAR TREND + MONTHLY SEASONALITY
// =============================================================================

// DefaultSeasonalMonths is the history length from which monthly
// seasonality is estimated.
const DefaultSeasonalMonths = 12

// LinearSeasonal fits an ordinary least squares trend over the month index
// and, once the history covers SeasonalMonths, adds the mean residual of
// each calendar month.
type LinearSeasonal struct {
	// SeasonalMonths gates the seasonal component. Zero disables it.
	SeasonalMonths int

	fitted   bool
	alpha    float64
	beta     float64
	seasonal [12]float64
}

// NewLinearSeasonal returns a model with the default seasonality gate.
func NewLinearSeasonal() Model {
	return &LinearSeasonal{SeasonalMonths: DefaultSeasonalMonths}
}

func (m *LinearSeasonal) Fit(ctx context.Context, history []types.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(history) < 2 {
		return fmt.Errorf("linear model needs at least 2 observations, got %d", len(history))
	}

	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, p := range history {
		xs[i] = float64(p.Month.Index())
		ys[i] = p.Value
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return fmt.Errorf("linear regression did not converge")
	}

	m.alpha, m.beta = alpha, beta
	m.seasonal = [12]float64{}

	if m.SeasonalMonths > 0 && len(history) >= m.SeasonalMonths {
		var sums [12]float64
		var counts [12]int
		for i, p := range history {
			idx := int(p.Month.Month) - 1
			sums[idx] += ys[i] - (alpha + beta*xs[i])
			counts[idx]++
		}
		for i := range sums {
			if counts[i] > 0 {
				m.seasonal[i] = sums[i] / float64(counts[i])
			}
		}
	}

	m.fitted = true
	return nil
}

func (m *LinearSeasonal) Predict(ctx context.Context, dates []time.Time) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.fitted {
		return nil, ErrNotFitted
	}

	out := make([]Prediction, len(dates))
	for i, d := range dates {
		month := types.MonthOf(d)
		trend := m.alpha + m.beta*float64(month.Index())
		seasonal := m.seasonal[month.Month-1]
		out[i] = Prediction{Date: d, Value: trend + seasonal, Trend: trend, Seasonal: seasonal}
	}
	return out, nil
}
