// =============================================================================
// Contas Publicas - Run Pipeline
// =============================================================================
//
// This module drives a forecast run over the history directory:
//   1. Discover the monthly exports (sorted by file name)
//   2. For each file (concurrently):
//      a. Derive the period from the file name
//      b. Parse the export
//      c. Aggregate the target metric, globally and per category
//   3. Collect results in file name order, so "last wins" deduplication
//      of repeated months is stable
//   4. Build the global series and forecast it, then forecast each category
//
// FAILURE POLICY:
//   - A history file that cannot be read is skipped and reported as failed
//   - Missing columns and unrecognized month prefixes are warnings
//   - Only a missing current file stops a run (see LoadCurrent)
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ginjaninja78/contas-publicas/internal/aggregate"
	"github.com/ginjaninja78/contas-publicas/internal/config"
	"github.com/ginjaninja78/contas-publicas/internal/csvparser"
	"github.com/ginjaninja78/contas-publicas/internal/forecast"
	"github.com/ginjaninja78/contas-publicas/internal/metrics"
	"github.com/ginjaninja78/contas-publicas/internal/series"
	"github.com/ginjaninja78/contas-publicas/internal/types"
	"github.com/ginjaninja78/contas-publicas/pkg/utils"
)

const tracerName = "github.com/ginjaninja78/contas-publicas/internal/pipeline"

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// FileStatus is the outcome class of one history file.
type FileStatus string

const (
	FileOK      FileStatus = "ok"
	FileWarning FileStatus = "warning"
	FileFailed  FileStatus = "failed"
)

// FileResult represents the outcome of processing a single history file.
type FileResult struct {
	// Path is the input file.
	Path string

	// Status is FileFailed when Err is set, FileWarning when Warnings is
	// not empty, FileOK otherwise.
	Status FileStatus

	// Aggregate is the file's contribution to the series. Zero when failed.
	Aggregate types.PeriodAggregate

	// Rows is the number of data rows read.
	Rows int

	// CommaDecimal is the decimal convention detected for the target column.
	CommaDecimal bool

	// Defaulted counts target values that did not parse and counted as 0.
	Defaulted int

	// Warnings holds non-fatal problems: missing columns and unrecognized
	// month prefixes.
	Warnings []error

	// Err wraps types.ErrFileRead when the file was skipped.
	Err error

	// Duration is the time taken to process the file.
	Duration time.Duration
}

// RunResult is the outcome of a full forecast run.
type RunResult struct {
	Files      []FileResult
	Aggregates []types.PeriodAggregate
	Global     forecast.Result
	Categories []forecast.CategoryResult
}

// Failed returns the files that were skipped.
func (r RunResult) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Status == FileFailed {
			failed = append(failed, f)
		}
	}
	return failed
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor runs the pipeline for one configuration.
type Processor struct {
	cfg      *config.MainConfig
	logger   *slog.Logger
	recorder *metrics.Recorder
	newModel forecast.ModelFactory
	workers  int
	tracer   trace.Tracer
}

// Option customizes a Processor.
type Option func(*Processor)

// WithModel replaces the default forecasting model.
func WithModel(factory forecast.ModelFactory) Option {
	return func(p *Processor) { p.newModel = factory }
}

// WithWorkers bounds how many history files are read at once.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates a Processor.
//
// PARAMETERS:
//   - cfg: The loaded configuration. Its defaults must already be applied.
//   - logger: Destination for per-file warnings. nil discards them.
//   - recorder: Run metrics. nil records nothing.
func New(cfg *config.MainConfig, logger *slog.Logger, recorder *metrics.Recorder, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Processor{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		newModel: forecast.NewLinearSeasonal,
		workers:  runtime.NumCPU(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// =============================================================================
// CURRENT FILE
// =============================================================================

// LoadCurrent reads the current-period export. An absent file is reported
// as types.ErrMissingInputFile and must stop the run.
func (p *Processor) LoadCurrent(ctx context.Context) (*csvparser.Dataset, error) {
	_, span := p.tracer.Start(ctx, "pipeline.LoadCurrent",
		trace.WithAttributes(attribute.String("file", p.cfg.CurrentFile)))
	defer span.End()

	ds, err := csvparser.Parse(p.cfg.CurrentFile, p.cfg.CSVSettings)
	if errors.Is(err, fs.ErrNotExist) {
		err = &types.FileError{Path: p.cfg.CurrentFile, Err: types.ErrMissingInputFile}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return ds, nil
}

// =============================================================================
// HISTORY FILES
// =============================================================================

// ProcessFile reduces one history export to its PeriodAggregate.
func (p *Processor) ProcessFile(ctx context.Context, path string) FileResult {
	_, span := p.tracer.Start(ctx, "pipeline.ProcessFile",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	start := time.Now()
	res := p.processFile(path)
	res.Duration = time.Since(start)

	span.SetAttributes(attribute.String("status", string(res.Status)), attribute.Int("rows", res.Rows))
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	p.recorder.FileProcessed(string(res.Status), res.Rows, res.Defaulted, res.Duration)

	return res
}

func (p *Processor) processFile(path string) FileResult {
	res := FileResult{Path: path}

	period, recognized, err := aggregate.PeriodFromFilename(path)
	if err != nil {
		return failed(res, err)
	}
	if !recognized {
		res.Warnings = append(res.Warnings, &types.FileError{
			Path: path,
			Err:  fmt.Errorf("%w: defaulting to %s", types.ErrUnrecognizedPeriod, period.Label()),
		})
	}

	ds, err := csvparser.Parse(path, p.cfg.CSVSettings)
	if err != nil {
		return failed(res, err)
	}
	res.Rows = ds.RowCount

	agg := aggregate.Aggregate(ds, period, p.cfg.TargetField, p.cfg.GroupField)
	res.Aggregate = agg.Aggregate
	res.CommaDecimal = agg.CommaDecimal
	res.Defaulted = agg.Defaulted
	res.Warnings = append(res.Warnings, agg.Warnings...)

	res.Status = FileOK
	if len(res.Warnings) > 0 {
		res.Status = FileWarning
	}
	return res
}

func failed(res FileResult, err error) FileResult {
	res.Status = FileFailed
	res.Err = &types.FileError{Path: res.Path, Err: fmt.Errorf("%w: %w", types.ErrFileRead, err)}
	return res
}

// ProcessHistory processes paths and returns the aggregates of the files that
// were read, in file name order, together with every file's result.
func (p *Processor) ProcessHistory(ctx context.Context, paths []string) ([]types.PeriodAggregate, []FileResult) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	results := make([]FileResult, len(sorted))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, path := range sorted {
		if err := ctx.Err(); err != nil {
			results[i] = failed(FileResult{Path: path}, err)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.ProcessFile(ctx, path)
		}(i, path)
	}
	wg.Wait()

	aggs := make([]types.PeriodAggregate, 0, len(results))
	for _, res := range results {
		switch res.Status {
		case FileFailed:
			p.logger.Warn("skipping history file", "file", res.Path, "error", res.Err)
			continue
		case FileWarning:
			for _, w := range res.Warnings {
				p.logger.Warn("history file warning", "file", res.Path, "warning", w)
			}
		}
		p.logger.Debug("history file read",
			"file", res.Path,
			"period", res.Aggregate.Period.String(),
			"rows", res.Rows,
			"total", res.Aggregate.Total,
			"comma_decimal", res.CommaDecimal)
		aggs = append(aggs, res.Aggregate)
	}

	return aggs, results
}

// LoadHistory discovers the history exports and processes them.
func (p *Processor) LoadHistory(ctx context.Context) ([]types.PeriodAggregate, []FileResult, error) {
	paths, err := utils.DiscoverFiles(p.cfg.HistoryDir, p.cfg.HistoryGlob)
	if err != nil {
		return nil, nil, err
	}
	aggs, results := p.ProcessHistory(ctx, paths)
	return aggs, results, nil
}

// =============================================================================
// FORECAST RUN
// =============================================================================

// Run loads the history and forecasts `horizon` months, for the global series
// and for every category. A history directory without files is not an error:
// the global result has status no_data.
func (p *Processor) Run(ctx context.Context, horizon int) (RunResult, error) {
	aggs, files, err := p.LoadHistory(ctx)
	if err != nil {
		return RunResult{}, err
	}
	return p.Forecast(ctx, aggs, files, horizon), nil
}

// Forecast runs the global and per-category forecasts over aggs.
func (p *Processor) Forecast(ctx context.Context, aggs []types.PeriodAggregate, files []FileResult, horizon int) RunResult {
	orch := forecast.NewOrchestrator(p.newModel, p.cfg.MinHistoryMonths, p.logger)

	out := RunResult{Files: files, Aggregates: series.Dedupe(aggs)}

	out.Global = orch.Forecast(ctx, series.Build(aggs), horizon)
	p.recorder.SetHistoryMonths(len(out.Global.History))
	p.recorder.Forecast("global", string(out.Global.Status))

	switch out.Global.Status {
	case forecast.StatusInsufficientHistory:
		p.logger.Info("forecast unavailable", "months", len(out.Global.History), "required", p.cfg.MinHistoryMonths)
	case forecast.StatusFailed:
		p.logger.Error("forecast failed", "error", out.Global.Err)
	}

	out.Categories = orch.ForecastByCategory(ctx, aggs, horizon)
	for _, c := range out.Categories {
		p.recorder.Forecast("category", string(c.Status))
	}

	return out
}
