package report

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

// WriteCSV renders every series point of rep as a ';' separated row with a
// header: escopo;mes;tipo;valor.
func WriteCSV(w io.Writer, rep Report) error {
	rows := rep.Rows()
	if rows == nil {
		rows = []SeriesRow{}
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	return gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(writer))
}
