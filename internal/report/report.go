// =============================================================================
// Contas Publicas - Report Writers
// =============================================================================
//
// This module writes the outcome of a forecast run to a file:
//   - xlsx: a workbook with Resumo, Historico, Previsao, Categorias and
//           Arquivos sheets (excelize)
//   - csv:  one row per series point, ';' separated (gocsv)
//   - xml:  a nested document of series and points (encoding/xml)
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/contas-publicas/internal/types"
	"github.com/ginjaninja78/contas-publicas/pkg/utils"
)

// GlobalScope labels the all-categories series in reports.
const GlobalScope = "Total"

// Report is the format-neutral content of a run report.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	TargetField string
	Horizon     int
	Status      string
	History     types.MonthlySeries
	Forecast    []types.ForecastPoint
	Categories  []CategoryForecast
	Files       []FileLine
}

// CategoryForecast is the per-category part of a report.
type CategoryForecast struct {
	Category string
	Status   string
	History  types.MonthlySeries
	Forecast []types.ForecastPoint
}

// FileLine describes one history file read during the run.
type FileLine struct {
	Path    string
	Period  types.Month
	Rows    int
	Total   float64
	Status  string
	Message string
}

// SeriesRow is one point of any series, flattened for tabular output.
type SeriesRow struct {
	Scope string  `csv:"escopo"`
	Month string  `csv:"mes"`
	Kind  string  `csv:"tipo"`
	Value float64 `csv:"valor"`
}

// Kinds of SeriesRow.
const (
	KindHistory  = "historico"
	KindForecast = "previsao"
)

// Rows flattens the global and category series: history first, then
// forecast, global scope before categories.
func (r Report) Rows() []SeriesRow {
	var rows []SeriesRow
	add := func(scope string, history types.MonthlySeries, forecast []types.ForecastPoint) {
		for _, p := range history {
			rows = append(rows, SeriesRow{Scope: scope, Month: p.Month.String(), Kind: KindHistory, Value: p.Value})
		}
		for _, p := range forecast {
			rows = append(rows, SeriesRow{Scope: scope, Month: p.Month.String(), Kind: KindForecast, Value: p.Value})
		}
	}

	add(GlobalScope, r.History, r.Forecast)
	for _, c := range r.Categories {
		add(c.Category, c.History, c.Forecast)
	}
	return rows
}

// Formats supported by Write.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatXML  = "xml"
)

// Write renders rep in format into dir, naming the file from nameFormat
// (see utils.GenerateOutputFileName), and returns the file path.
func Write(format, dir, nameFormat string, rep Report) (string, error) {
	format = strings.ToLower(format)

	var render func(io.Writer, Report) error
	switch format {
	case FormatXLSX:
		render = WriteXLSX
	case FormatCSV:
		render = WriteCSV
	case FormatXML:
		render = WriteXML
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}

	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}

	name := utils.GenerateOutputFileName(nameFormat, format, map[string]string{
		"uuid":   rep.RunID,
		"target": strings.ReplaceAll(rep.TargetField, " ", "_"),
	})
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}

	if err := render(file, rep); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s report: %w", format, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close report: %w", err)
	}
	return path, nil
}
