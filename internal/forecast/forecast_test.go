package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

func monthly(year int, start time.Month, values ...float64) types.MonthlySeries {
	s := make(types.MonthlySeries, len(values))
	for i, v := range values {
		s[i] = types.Point{Month: types.NewMonth(year, start+time.Month(i)), Value: v}
	}
	return s
}

// scriptedModel returns fixed predictions regardless of the requested dates.
type scriptedModel struct {
	fitErr  error
	preds   []Prediction
	fitted  types.MonthlySeries
	request []time.Time
}

func (m *scriptedModel) Fit(_ context.Context, history []types.Point) error {
	m.fitted = history
	return m.fitErr
}

func (m *scriptedModel) Predict(_ context.Context, dates []time.Time) ([]Prediction, error) {
	m.request = dates
	return m.preds, nil
}

func TestLinearSeasonalTrend(t *testing.T) {
	ctx := context.Background()
	m := NewLinearSeasonal()

	require.NoError(t, m.Fit(ctx, monthly(2024, time.January, 100, 200, 300)))

	preds, err := m.Predict(ctx, []time.Time{
		types.NewMonth(2024, time.April).Time(),
		types.NewMonth(2024, time.May).Time(),
	})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.InDelta(t, 400, preds[0].Value, 1e-6)
	assert.InDelta(t, 500, preds[1].Value, 1e-6)
	assert.Zero(t, preds[0].Seasonal, "short histories carry no seasonality")
}

func TestLinearSeasonalSeasonality(t *testing.T) {
	ctx := context.Background()
	values := make([]float64, 24)
	for i := range values {
		values[i] = 1000 + 10*float64(i)
		if i%12 == 11 {
			values[i] += 500
		}
	}
	m := NewLinearSeasonal()
	require.NoError(t, m.Fit(ctx, monthly(2023, time.January, values...)))

	preds, err := m.Predict(ctx, []time.Time{
		types.NewMonth(2025, time.June).Time(),
		types.NewMonth(2025, time.December).Time(),
	})
	require.NoError(t, err)
	assert.Less(t, preds[0].Seasonal, 0.0)
	assert.Greater(t, preds[1].Seasonal, 300.0)
	assert.Greater(t, preds[1].Value, preds[1].Trend)
}

func TestLinearSeasonalErrors(t *testing.T) {
	ctx := context.Background()
	m := NewLinearSeasonal()

	_, err := m.Predict(ctx, []time.Time{time.Now()})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.Error(t, m.Fit(ctx, monthly(2024, time.January, 1)))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Fit(cancelled, monthly(2024, time.January, 1, 2, 3)), context.Canceled)
}

func TestForecastGates(t *testing.T) {
	ctx := context.Background()
	o := NewOrchestrator(nil, 3, nil)

	res := o.Forecast(ctx, nil, 2)
	assert.Equal(t, StatusNoData, res.Status)
	assert.Empty(t, res.Points)

	res = o.Forecast(ctx, monthly(2024, time.January, 100, 200), 2)
	assert.Equal(t, StatusInsufficientHistory, res.Status)
	assert.True(t, errors.Is(res.Err, types.ErrInsufficientHistory))
	assert.Empty(t, res.Points)

	res = o.Forecast(ctx, monthly(2024, time.January, 100, 200, 300), 0)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestForecastThreeMonths(t *testing.T) {
	o := NewOrchestrator(NewLinearSeasonal, 3, nil)

	res := o.Forecast(context.Background(), monthly(2024, time.January, 100, 200, 300), 2)

	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Points, 2)
	assert.Equal(t, types.NewMonth(2024, time.April), res.Points[0].Month)
	assert.Equal(t, types.NewMonth(2024, time.May), res.Points[1].Month)
	assert.InDelta(t, 400, res.Points[0].Value, 1e-6)

	next, ok := res.Next()
	assert.True(t, ok)
	assert.Equal(t, res.Points[0], next)

	final, ok := res.Final()
	assert.True(t, ok)
	assert.Equal(t, res.Points[1], final)
}

func TestForecastCollapsesModelOutput(t *testing.T) {
	apr := types.NewMonth(2024, time.April)
	model := &scriptedModel{preds: []Prediction{
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: -1},
		{Date: time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), Value: 1},
		{Date: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), Value: 5},
		{Date: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), Value: 2},
		{Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Value: -3},
	}}
	o := NewOrchestrator(func() Model { return model }, 3, nil)

	history := monthly(2024, time.January, 100, 200, 300)
	res := o.Forecast(context.Background(), history, 2)

	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []types.ForecastPoint{
		{Month: apr, Value: 2},
		{Month: apr.AddMonths(1), Value: 5},
	}, res.Points)
	assert.Equal(t, history, model.fitted)
	require.Len(t, model.request, 5, "observed months plus the horizon")
	assert.Equal(t, types.NewMonth(2024, time.May).Time(), model.request[4])
}

func TestForecastFitFailure(t *testing.T) {
	model := &scriptedModel{fitErr: errors.New("singular")}
	o := NewOrchestrator(func() Model { return model }, 3, nil)

	res := o.Forecast(context.Background(), monthly(2024, time.January, 1, 2, 3), 2)

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorContains(t, res.Err, "singular")
}

func TestForecastByCategory(t *testing.T) {
	jan := types.NewMonth(2024, time.January)
	aggs := []types.PeriodAggregate{
		{Period: jan, ByCategory: map[string]float64{"Saúde": 10, "Educação": 1}},
		{Period: jan.AddMonths(1), ByCategory: map[string]float64{"Saúde": 20}},
		{Period: jan.AddMonths(2), ByCategory: map[string]float64{"Saúde": 30}},
	}

	built := 0
	o := NewOrchestrator(func() Model { built++; return NewLinearSeasonal() }, 3, nil)

	results := o.ForecastByCategory(context.Background(), aggs, 2)

	require.Len(t, results, 2)
	assert.Equal(t, "Educação", results[0].Category)
	assert.Equal(t, StatusInsufficientHistory, results[0].Status)
	assert.Equal(t, "Saúde", results[1].Category)
	require.Equal(t, StatusOK, results[1].Status)
	assert.InDelta(t, 40, results[1].Points[0].Value, 1e-6)
	assert.Equal(t, 1, built, "only categories with enough history fit a model")

	assert.Empty(t, o.ForecastByCategory(context.Background(), nil, 2))
	assert.Empty(t, o.ForecastByCategory(context.Background(), []types.PeriodAggregate{
		{Period: jan, ByCategory: map[string]float64{}},
	}, 2))
}
