package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/contas-publicas/internal/numeric"
)

// Sheet names of the workbook.
const (
	SheetSummary    = "Resumo"
	SheetHistory    = "Historico"
	SheetForecast   = "Previsao"
	SheetCategories = "Categorias"
	SheetFiles      = "Arquivos"
)

// brlFormat renders cells as Brazilian currency in spreadsheet apps.
const brlFormat = `"R$" #,##0.00`

// WriteXLSX renders rep as a workbook.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer f.Close()

	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(brlFormat)})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	summary := [][]any{
		{"Execução", rep.RunID},
		{"Gerado em", rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Métrica", rep.TargetField},
		{"Horizonte (meses)", rep.Horizon},
		{"Situação", rep.Status},
	}
	if len(rep.Forecast) > 0 {
		final := rep.Forecast[len(rep.Forecast)-1]
		summary = append(summary, []any{"Previsão " + final.Month.Label(), numeric.FormatBRL(final.Value)})
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	history := [][]any{{"Mês", "Valor"}}
	for _, p := range rep.History {
		history = append(history, []any{p.Month.String(), p.Value})
	}
	if err := addSheet(f, SheetHistory, history, money, "B"); err != nil {
		return err
	}

	forecast := [][]any{{"Mês", "Previsão"}}
	for _, p := range rep.Forecast {
		forecast = append(forecast, []any{p.Month.String(), p.Value})
	}
	if err := addSheet(f, SheetForecast, forecast, money, "B"); err != nil {
		return err
	}

	categories := [][]any{{"Categoria", "Situação", "Mês", "Tipo", "Valor"}}
	for _, c := range rep.Categories {
		if len(c.History)+len(c.Forecast) == 0 {
			categories = append(categories, []any{c.Category, c.Status, "", "", ""})
		}
		for _, p := range c.History {
			categories = append(categories, []any{c.Category, c.Status, p.Month.String(), KindHistory, p.Value})
		}
		for _, p := range c.Forecast {
			categories = append(categories, []any{c.Category, c.Status, p.Month.String(), KindForecast, p.Value})
		}
	}
	if err := addSheet(f, SheetCategories, categories, money, "E"); err != nil {
		return err
	}

	files := [][]any{{"Arquivo", "Mês", "Linhas", "Total", "Situação", "Mensagem"}}
	for _, fl := range rep.Files {
		period := ""
		if !fl.Period.IsZero() {
			period = fl.Period.String()
		}
		files = append(files, []any{fl.Path, period, fl.Rows, fl.Total, fl.Status, fl.Message})
	}
	if err := addSheet(f, SheetFiles, files, money, "D"); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addSheet(f *excelize.File, name string, rows [][]any, style int, moneyCol string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if err := writeRows(f, name, rows); err != nil {
		return err
	}
	if len(rows) > 1 {
		top := fmt.Sprintf("%s2", moneyCol)
		bottom := fmt.Sprintf("%s%d", moneyCol, len(rows))
		if err := f.SetCellStyle(name, top, bottom, style); err != nil {
			return fmt.Errorf("failed to style sheet %s: %w", name, err)
		}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
