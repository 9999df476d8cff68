// =============================================================================
// Contas Publicas - Forecast Command
// =============================================================================
//
// COMMAND USAGE:
//   contas forecast [flags]
//
// FLAGS:
//   --horizon  : Months to forecast past the last observed month
//   --format   : Also write a report: xlsx, csv or xml
//   --funcao   : Print the history and forecast of one função
//   --publish  : Store the run in PostgreSQL (database.enabled must be set)
//   --logs     : Write error and summary logs to log_dir
//
// PROCESSING PIPELINE:
//   1. Check the current export, then read the history exports (sorted by
//      file name)
//   2. Build the monthly series, later files winning repeated months
//   3. Forecast the global series and every função
//   4. Print the result, then write the report, publish and push metrics
//
// A missing current export stops the run. A run with too little history is
// not an error: the forecast is reported as unavailable and the command
// exits successfully.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contas-publicas/internal/forecast"
	"github.com/ginjaninja78/contas-publicas/internal/metrics"
	"github.com/ginjaninja78/contas-publicas/internal/numeric"
	"github.com/ginjaninja78/contas-publicas/internal/pipeline"
	"github.com/ginjaninja78/contas-publicas/internal/report"
	"github.com/ginjaninja78/contas-publicas/internal/store"
	"github.com/ginjaninja78/contas-publicas/internal/types"
	"github.com/ginjaninja78/contas-publicas/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	horizon      int
	reportFormat string
	funcaoDetail string
	publish      bool
	writeLogs    bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast spending from the history directory",
	Long: `Reads every export of the history directory, builds the monthly series of
the target metric (pago até o mês by default) and forecasts the following
months, globally and per função. At least three distinct months are needed.

Files whose month cannot be read are skipped and reported; processing
continues with the remaining files.`,
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().IntVar(&horizon, "horizon", 0, "Months to forecast (default: horizon_months from config)")
	forecastCmd.Flags().StringVar(&reportFormat, "format", "", "Report format: xlsx, csv or xml (default: report_format from config)")
	forecastCmd.Flags().StringVar(&funcaoDetail, "funcao", "", "Print the series and forecast of one função")
	forecastCmd.Flags().BoolVar(&publish, "publish", false, "Store the run in PostgreSQL")
	forecastCmd.Flags().BoolVar(&writeLogs, "logs", false, "Write error and summary logs")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	startTime := time.Now()

	cfg := mainConfig
	h := horizon
	if h == 0 {
		h = cfg.HorizonMonths
	}
	format := reportFormat
	if format == "" {
		format = cfg.ReportFormat
	}

	recorder := metrics.NewRecorder()
	p := pipeline.New(cfg, logger, recorder)

	// =========================================================================
	// STEP 1: CHECK CURRENT EXPORT, READ HISTORY AND FORECAST
	// =========================================================================

	if _, err := p.LoadCurrent(ctx); err != nil {
		return err
	}

	result, err := p.Run(ctx, h)
	if err != nil {
		return err
	}

	printFiles(out, result.Files)
	if len(result.Files) == 0 {
		fmt.Fprintf(out, "Nenhum arquivo encontrado em %s\n", filepath.Join(cfg.HistoryDir, cfg.HistoryGlob))
		return nil
	}
	printForecast(out, result.Global)
	printCategories(out, result.Categories, funcaoDetail)

	// =========================================================================
	// STEP 2: OUTPUTS
	// =========================================================================

	rep := buildReport(result, cfg.TargetField, h, startTime)

	var reportPath string
	if format != "" {
		reportPath, err = report.Write(format, cfg.OutputDir, cfg.ReportNameFormat, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nRelatório: %s\n", reportPath)
	}

	if publish {
		if err := publishRun(ctx, rep); err != nil {
			return err
		}
		fmt.Fprintln(out, "Execução publicada no banco de dados.")
	}

	if err := recorder.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, runID); err != nil {
		logger.Warn("failed to push metrics", "error", err)
	}

	if writeLogs {
		if err := writeRunLogs(result, rep, reportPath, startTime); err != nil {
			return err
		}
	}

	return nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printFiles(w io.Writer, files []pipeline.FileResult) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintln(w, "=== Arquivos de histórico ===")
	for _, f := range files {
		name := filepath.Base(f.Path)
		switch f.Status {
		case pipeline.FileFailed:
			fmt.Fprintf(w, "  ✗ %s: %v\n", name, f.Err)
		default:
			fmt.Fprintf(w, "  ✓ %s -> %s: %s\n", name, f.Aggregate.Period.Label(), numeric.FormatBRL(f.Aggregate.Total))
			for _, warn := range f.Warnings {
				fmt.Fprintf(w, "    ! %v\n", warn)
			}
		}
	}
}

func printForecast(w io.Writer, res forecast.Result) {
	fmt.Fprintln(w, "\n=== Previsão de gastos ===")
	switch res.Status {
	case forecast.StatusNoData:
		fmt.Fprintln(w, "Sem dados de histórico para prever.")
		return
	case forecast.StatusInsufficientHistory:
		fmt.Fprintf(w, "Histórico insuficiente para prever (%v).\n", res.Err)
		return
	case forecast.StatusFailed:
		fmt.Fprintf(w, "Falha na previsão: %v\n", res.Err)
		return
	}

	for _, p := range res.History {
		fmt.Fprintf(w, "  %s  %s\n", p.Month.Label(), numeric.FormatBRL(p.Value))
	}
	for _, p := range res.Points {
		fmt.Fprintf(w, "  %s  %s  (previsão)\n", p.Month.Label(), numeric.FormatBRL(p.Value))
	}
	if final, ok := res.Final(); ok {
		fmt.Fprintf(w, "\nPrevisão para %s: %s\n", final.Month.Label(), numeric.FormatBRL(final.Value))
	}
}

func printCategories(w io.Writer, cats []forecast.CategoryResult, detail string) {
	if len(cats) == 0 {
		return
	}
	fmt.Fprintln(w, "\n=== Previsão por função ===")
	for _, c := range cats {
		switch c.Status {
		case forecast.StatusOK:
			final, _ := c.Final()
			fmt.Fprintf(w, "  %s: %s em %s\n", c.Category, numeric.FormatBRL(final.Value), final.Month.Label())
		case forecast.StatusInsufficientHistory:
			fmt.Fprintf(w, "  %s: indisponível (%d meses de histórico)\n", c.Category, len(c.History))
		default:
			fmt.Fprintf(w, "  %s: falha (%v)\n", c.Category, c.Err)
		}

		if c.Category == detail {
			for _, p := range c.History {
				fmt.Fprintf(w, "      %s  %s\n", p.Month.Label(), numeric.FormatBRL(p.Value))
			}
			for _, p := range c.Points {
				fmt.Fprintf(w, "      %s  %s  (previsão)\n", p.Month.Label(), numeric.FormatBRL(p.Value))
			}
		}
	}
}

// buildReport converts a run into the format-neutral report.
func buildReport(res pipeline.RunResult, target string, h int, generated time.Time) report.Report {
	rep := report.Report{
		RunID:       runID,
		GeneratedAt: generated,
		TargetField: target,
		Horizon:     h,
		Status:      string(res.Global.Status),
		History:     res.Global.History,
		Forecast:    res.Global.Points,
	}
	for _, c := range res.Categories {
		rep.Categories = append(rep.Categories, report.CategoryForecast{
			Category: c.Category,
			Status:   string(c.Status),
			History:  c.History,
			Forecast: c.Points,
		})
	}
	for _, f := range res.Files {
		line := report.FileLine{
			Path:   f.Path,
			Period: f.Aggregate.Period,
			Rows:   f.Rows,
			Total:  f.Aggregate.Total,
			Status: string(f.Status),
		}
		if f.Err != nil {
			line.Message = f.Err.Error()
		} else if len(f.Warnings) > 0 {
			line.Message = f.Warnings[0].Error()
		}
		rep.Files = append(rep.Files, line)
	}
	return rep
}

// storeRun converts a report into the persisted run.
func storeRun(rep report.Report) store.Run {
	run := store.Run{
		ID:          rep.RunID,
		GeneratedAt: rep.GeneratedAt,
		TargetField: rep.TargetField,
		Horizon:     rep.Horizon,
		Status:      rep.Status,
		Scopes: []store.Scope{{
			Name:     store.GlobalScope,
			History:  rep.History,
			Forecast: rep.Forecast,
		}},
	}
	for _, f := range rep.Files {
		if f.Status == string(pipeline.FileFailed) {
			run.FilesFailed++
		} else {
			run.FilesRead++
		}
	}
	for _, c := range rep.Categories {
		run.Scopes = append(run.Scopes, store.Scope{Name: c.Category, History: c.History, Forecast: c.Forecast})
	}
	return run
}

func publishRun(ctx context.Context, rep report.Report) error {
	db := mainConfig.Database
	if !db.Enabled {
		return fmt.Errorf("--publish requires database.enabled in %s", cfgFile)
	}

	pool, err := store.Connect(ctx, db.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		return err
	}
	return store.New(pool, logger).SaveRun(ctx, storeRun(rep))
}

func writeRunLogs(res pipeline.RunResult, rep report.Report, reportPath string, start time.Time) error {
	dir := mainConfig.LogDir
	summary := utils.ProcessingSummary{
		RunID:          runID,
		StartTime:      start,
		EndTime:        time.Now(),
		TotalFiles:     len(res.Files),
		HistoryMonths:  len(res.Global.History),
		ForecastStatus: rep.Status,
		ReportFile:     reportPath,
	}

	var entries []utils.ErrorLogEntry
	for _, f := range res.Files {
		summary.TotalRows += f.Rows
		summary.DefaultedValues += f.Defaulted

		if f.Status == pipeline.FileFailed {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    f.Path,
				ErrorMessage: f.Err.Error(),
			})
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    start,
				FileName:     f.Path,
				ErrorType:    "FileReadFailure",
				ErrorMessage: f.Err.Error(),
			})
			continue
		}

		summary.SuccessfulFiles++
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   f.Path,
			Period:      f.Aggregate.Period.String(),
			Rows:        f.Rows,
			Total:       numeric.FormatBRL(f.Aggregate.Total),
			ProcessTime: f.Duration,
		})
		for _, w := range f.Warnings {
			entries = append(entries, warningEntry(f.Path, start, w))
		}
	}

	errorLog, err := utils.WriteErrorLog(entries, dir, runID)
	if err != nil {
		return err
	}
	summaryLog, err := utils.WriteSummaryLog(summary, dir)
	if err != nil {
		return err
	}

	logger.Info("run logs written", "summary", summaryLog, "errors", errorLog)
	return nil
}

func warningEntry(path string, at time.Time, w error) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{
		Timestamp:    at,
		FileName:     path,
		ErrorType:    "Warning",
		ErrorMessage: w.Error(),
	}
	var fe *types.FileError
	if errors.As(w, &fe) {
		entry.FieldName = fe.Field
		switch {
		case errors.Is(fe, types.ErrMissingColumn):
			entry.ErrorType = "MissingColumn"
		case errors.Is(fe, types.ErrUnrecognizedPeriod):
			entry.ErrorType = "UnrecognizedPeriod"
		}
	}
	return entry
}
