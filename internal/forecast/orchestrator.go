// =============================================================================
// Contas Publicas - Forecast Orchestrator
// =============================================================================
//
// This module gates, fits and post-processes forecasts:
//   1. An empty series yields StatusNoData
//   2. Fewer than the minimum distinct months yields StatusInsufficientHistory
//   3. Otherwise a fresh model is fitted and asked for the observed months
//      plus the next `horizon` months
//   4. Model output is collapsed to one value per month (last wins) and only
//      months after the last observation are kept
//
// Per-category forecasts run the same steps independently for every
// category value; one category lacking history never affects another.
//
// =============================================================================

package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ginjaninja78/contas-publicas/internal/series"
	"github.com/ginjaninja78/contas-publicas/internal/types"
)

const tracerName = "github.com/ginjaninja78/contas-publicas/internal/forecast"

// Status is the outcome class of a forecast.
type Status string

const (
	StatusNoData              Status = "no_data"
	StatusInsufficientHistory Status = "insufficient_history"
	StatusOK                  Status = "ok"
	StatusFailed              Status = "failed"
)

// Result is the forecast of one scope.
type Result struct {
	Status  Status
	History types.MonthlySeries
	Points  []types.ForecastPoint
	Err     error
}

// Next returns the first forecast month, if any.
func (r Result) Next() (types.ForecastPoint, bool) {
	if len(r.Points) == 0 {
		return types.ForecastPoint{}, false
	}
	return r.Points[0], true
}

// Final returns the last forecast month, the one reported as the headline.
func (r Result) Final() (types.ForecastPoint, bool) {
	if len(r.Points) == 0 {
		return types.ForecastPoint{}, false
	}
	return r.Points[len(r.Points)-1], true
}

// CategoryResult is the forecast of one category value.
type CategoryResult struct {
	Category string
	Result
}

// Orchestrator runs forecasts with a model factory.
type Orchestrator struct {
	newModel   ModelFactory
	minHistory int
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewOrchestrator creates an Orchestrator. minHistory below 1 uses
// series.MinHistory; a nil logger discards output.
func NewOrchestrator(factory ModelFactory, minHistory int, logger *slog.Logger) *Orchestrator {
	if factory == nil {
		factory = NewLinearSeasonal
	}
	if minHistory < 1 {
		minHistory = series.MinHistory
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		newModel:   factory,
		minHistory: minHistory,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Forecast predicts the `horizon` months following the last month of s.
func (o *Orchestrator) Forecast(ctx context.Context, s types.MonthlySeries, horizon int) Result {
	ctx, span := o.tracer.Start(ctx, "forecast.Forecast",
		trace.WithAttributes(attribute.Int("history.points", len(s)), attribute.Int("horizon", horizon)))
	defer span.End()

	res := o.forecast(ctx, s, horizon)

	span.SetAttributes(attribute.String("status", string(res.Status)))
	if res.Status == StatusFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	return res
}

func (o *Orchestrator) forecast(ctx context.Context, s types.MonthlySeries, horizon int) Result {
	history := series.Collapse(s)
	res := Result{History: history}

	if len(history) == 0 {
		res.Status = StatusNoData
		return res
	}
	if err := series.CheckHistory(history, o.minHistory); err != nil {
		res.Status = StatusInsufficientHistory
		res.Err = err
		return res
	}
	if horizon < 1 {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("horizon must be at least 1, got %d", horizon)
		return res
	}

	model := o.newModel()
	if err := model.Fit(ctx, history); err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("fit: %w", err)
		return res
	}

	last, _ := history.Last()
	dates := make([]time.Time, 0, len(history)+horizon)
	for _, p := range history {
		dates = append(dates, p.Month.Time())
	}
	for i := 1; i <= horizon; i++ {
		dates = append(dates, last.Month.AddMonths(i).Time())
	}

	preds, err := model.Predict(ctx, dates)
	if err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("predict: %w", err)
		return res
	}

	points := make([]types.Point, len(preds))
	for i, p := range preds {
		points[i] = types.Point{Month: types.MonthOf(p.Date), Value: p.Value}
	}
	for _, p := range series.Collapse(points) {
		if p.Month.After(last.Month) {
			res.Points = append(res.Points, types.ForecastPoint{Month: p.Month, Value: p.Value})
		}
	}

	res.Status = StatusOK
	return res
}

// ForecastByCategory forecasts every category value present in aggs.
// Categories are returned sorted; an empty input yields no results.
func (o *Orchestrator) ForecastByCategory(ctx context.Context, aggs []types.PeriodAggregate, horizon int) []CategoryResult {
	cats := series.Categories(aggs)
	results := make([]CategoryResult, 0, len(cats))

	for _, cat := range cats {
		if err := ctx.Err(); err != nil {
			results = append(results, CategoryResult{
				Category: cat,
				Result:   Result{Status: StatusFailed, Err: err},
			})
			continue
		}

		res := o.Forecast(ctx, series.BuildCategory(aggs, cat), horizon)
		switch res.Status {
		case StatusInsufficientHistory:
			o.logger.Info("forecast unavailable for category", "category", cat, "months", len(res.History))
		case StatusFailed:
			o.logger.Warn("category forecast failed", "category", cat, "error", res.Err)
		}
		results = append(results, CategoryResult{Category: cat, Result: res})
	}

	return results
}
