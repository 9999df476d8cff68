// Package testutil writes export fixtures the way the accounting system
// produces them: ';' separated, quoted, ISO-8859-1 encoded.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

// Header is a realistic export header, accents included.
var Header = []string{
	"Órgão",
	"Função - Descrição",
	"Subfunção - Descrição",
	"Descrição Categoria Econômica",
	"Orçado Inicial",
	"Orçado Atualizado",
	"Empenhado no Mês",
	"Empenhado até o Mês",
	"Liquidado no Mês",
	"Liquidado até o Mês",
	"Pago no Mês",
	"Pago até o Mês",
}

// Row builds a data row matching Header. Amounts are written verbatim.
func Row(orgao, funcao, subfuncao, categoria string, amounts ...string) []string {
	row := []string{orgao, funcao, subfuncao, categoria}
	for i := 0; i < 8; i++ {
		if i < len(amounts) {
			row = append(row, amounts[i])
		} else {
			row = append(row, "0")
		}
	}
	return row
}

// Encode renders records as the quoted ';' separated text of an export.
func Encode(records [][]string) string {
	var b strings.Builder
	for _, rec := range records {
		quoted := make([]string, len(rec))
		for i, v := range rec {
			quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
		}
		b.WriteString(strings.Join(quoted, ";"))
		b.WriteString("\r\n")
	}
	return b.String()
}

// WriteLatin1 writes content to dir/name encoded as ISO-8859-1 and returns
// the full path.
func WriteLatin1(tb testing.TB, dir, name, content string) string {
	tb.Helper()

	encoded, err := charmap.ISO8859_1.NewEncoder().String(content)
	if err != nil {
		tb.Fatalf("encode %s: %v", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteExport writes Header plus rows as an ISO-8859-1 export.
func WriteExport(tb testing.TB, dir, name string, rows ...[]string) string {
	tb.Helper()
	records := append([][]string{Header}, rows...)
	return WriteLatin1(tb, dir, name, Encode(records))
}

// WriteTotal writes a one-row export whose "Pago até o Mês" is total,
// in Brazilian notation.
func WriteTotal(tb testing.TB, dir, name, total string) string {
	tb.Helper()
	row := Row("Prefeitura", "Saúde", "Atenção Básica", "Despesas Correntes",
		"0", "0", "0", "0", "0", "0", "0", total)
	return WriteExport(tb, dir, name, row)
}
