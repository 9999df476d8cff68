package report

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

func sampleReport() Report {
	jan := types.NewMonth(2024, time.January)
	return Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC),
		TargetField: "pago ate o mes",
		Horizon:     2,
		Status:      "ok",
		History: types.MonthlySeries{
			{Month: jan, Value: 100},
			{Month: jan.AddMonths(1), Value: 200},
			{Month: jan.AddMonths(2), Value: 300},
		},
		Forecast: []types.ForecastPoint{
			{Month: jan.AddMonths(3), Value: 400},
			{Month: jan.AddMonths(4), Value: 500},
		},
		Categories: []CategoryForecast{
			{Category: "Educação", Status: "insufficient_history", History: types.MonthlySeries{{Month: jan, Value: 5}}},
			{Category: "Cultura", Status: "no_data"},
		},
		Files: []FileLine{
			{Path: "Jan24.txt", Period: jan, Rows: 3, Total: 100, Status: "ok"},
			{Path: "Xyz.txt", Status: "failed", Message: "no year"},
		},
	}
}

func TestRows(t *testing.T) {
	rows := sampleReport().Rows()

	require.Len(t, rows, 6)
	assert.Equal(t, SeriesRow{Scope: GlobalScope, Month: "2024-01", Kind: KindHistory, Value: 100}, rows[0])
	assert.Equal(t, SeriesRow{Scope: GlobalScope, Month: "2024-04", Kind: KindForecast, Value: 400}, rows[3])
	assert.Equal(t, "Educação", rows[5].Scope)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "escopo;mes;tipo;valor", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Total;2024-01;historico;100"), lines[1])
	assert.True(t, strings.HasPrefix(lines[5], "Total;2024-05;previsao;500"), lines[5])

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, Report{}))
	assert.Equal(t, "escopo;mes;tipo;valor", strings.TrimSpace(buf.String()))
}

func TestWriteXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, sampleReport()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `<point month="2024-04" kind="previsao">400.00</point>`)
	assert.Contains(t, out, `<series scope="Cultura" status="no_data"></series>`)

	var doc xmlReport
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc.RunID)
	require.Len(t, doc.Series, 3)
	assert.Equal(t, "ok", doc.Series[0].Status)
	assert.Len(t, doc.Series[0].Points, 5)
	require.Len(t, doc.Files, 2)
	assert.Equal(t, "2024-01", doc.Files[0].Period)
	assert.Empty(t, doc.Files[1].Period)
}

func TestWriteXLSX(t *testing.T) {
	dir := t.TempDir()
	path, err := Write("XLSX", dir, "forecast_{target}_{uuid}", sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "forecast_pago_ate_o_mes_run-1.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetHistory, SheetForecast, SheetCategories, SheetFiles}, f.GetSheetList())

	history, err := f.GetRows(SheetHistory, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, []string{"2024-03", "300"}, history[3])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Previsão Mai/2024", "R$ 500,00"}, summary[len(summary)-1])

	files, err := f.GetRows(SheetFiles, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "Xyz.txt", files[2][0])
}

func TestWriteFormats(t *testing.T) {
	dir := t.TempDir()

	for _, format := range []string{FormatCSV, FormatXML} {
		path, err := Write(format, dir, "r_{uuid}", sampleReport())
		require.NoError(t, err)
		assert.Equal(t, "r_run-1."+format, filepath.Base(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}

	_, err := Write("pdf", dir, "r_{uuid}", sampleReport())
	assert.ErrorContains(t, err, "unsupported report format")
}
