// =============================================================================
// Contas Publicas - Export File Parser
// =============================================================================
//
// This module reads the monthly exports produced by the municipal accounting
// system. The exports are delimited text files, usually:
//   - ';' separated
//   - ISO-8859-1 encoded
//   - quoted values
//   - a single header row followed by data rows
//
// FEATURES:
//   - Encoding conversion to UTF-8 via golang.org/x/text/encoding/charmap
//   - Support for multi-line headers (merged into one header per column)
//   - Duplicate header names are suffixed (".1", ".2") so no column is lost
//   - Cell values are kept verbatim; only headers are trimmed
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/contas-publicas/internal/config"
)

// =============================================================================
// DATASET STRUCTURE
// =============================================================================

// Dataset is the parsed content of one export file.
type Dataset struct {
	// Headers are the column headers, trimmed and made unique, in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> raw value.
	Rows []map[string]string

	// SourceFile is the path the dataset was read from.
	SourceFile string

	// RowCount is the number of data rows (blank rows excluded).
	RowCount int
}

// Column returns every value of a column in row order. Unknown headers yield
// a slice of empty strings.
func (d *Dataset) Column(header string) []string {
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[header]
	}
	return values
}

// Records returns the dataset as a header row followed by data rows, in
// header order.
func (d *Dataset) Records() [][]string {
	records := make([][]string, 0, len(d.Rows)+1)
	records = append(records, append([]string(nil), d.Headers...))
	for _, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for i, h := range d.Headers {
			record[i] = row[h]
		}
		records = append(records, record)
	}
	return records
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an export file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the export file.
//   - settings: The file format settings.
//
// RETURNS:
//   - A pointer to the Dataset.
//   - An error if the file cannot be opened, decoded or parsed. Errors from
//     opening wrap the underlying *os.PathError, so errors.Is(err,
//     fs.ErrNotExist) works on them.
//
// PARSING PROCESS:
//  1. Open the file and wrap it in the configured decoder
//  2. Configure the CSV reader with the configured delimiter
//  3. Read and merge header rows
//  4. Read data rows starting from the configured data start row
func Parse(filePath string, settings config.CSVSettings) (*Dataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, filePath, settings)
}

// ParseReader parses an already opened export. source is only recorded.
func ParseReader(r io.Reader, source string, settings config.CSVSettings) (*Dataset, error) {
	decoder, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = bufio.NewReader(r)
	if decoder != nil {
		reader = transform.NewReader(reader, decoder)
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	headers, err := extractHeaders(allRows, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	dataRows := extractDataRows(allRows, headers, settings)

	return &Dataset{
		Headers:    headers,
		Rows:       dataRows,
		SourceFile: source,
		RowCount:   len(dataRows),
	}, nil
}

// decoderFor maps an encoding name to a decoder. A nil decoder means the
// input is already UTF-8.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ",", "comma":
		reader.Comma = ','
	case ";", "semicolon", "":
		reader.Comma = ';'
	default:
		reader.Comma = rune(settings.Delimiter[0])
	}

	// Exports are not always rectangular and quote loosely.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// extractHeaders extracts and merges headers from the file.
//
// MULTI-LINE HEADER HANDLING:
//
//	Row 1: "Empenhado", "",       "Pago"
//	Row 2: "no Mês",    "Órgão",  "até o Mês"
//	Result: "Empenhado no Mês", "Órgão", "Pago até o Mês"
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	headerRows := settings.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if headerRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < headerRows; row++ {
			if col < len(allRows[row]) {
				if value := strings.TrimSpace(allRows[row][col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers, names empty ones after their position and
// makes duplicates unique by suffixing ".1", ".2", and so on.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimPrefix(header, "\ufeff")
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		if n, dup := seen[header]; dup {
			seen[header] = n + 1
			header = fmt.Sprintf("%s.%d", header, n+1)
		} else {
			seen[header] = 0
		}

		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts data rows to maps. Values are not trimmed; the
// category columns are grouped on their raw text.
func extractDataRows(allRows [][]string, headers []string, settings config.CSVSettings) []map[string]string {
	startIndex := settings.DataStartRow - 1
	if startIndex < 1 {
		startIndex = max(settings.HeaderRows, 1)
	}

	if startIndex >= len(allRows) {
		return []map[string]string{}
	}

	dataRows := make([]map[string]string, 0, len(allRows)-startIndex)
	for _, row := range allRows[startIndex:] {
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = row[colIndex]
			} else {
				rowMap[header] = ""
			}
		}
		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
