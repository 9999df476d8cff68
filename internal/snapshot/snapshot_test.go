package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/contas-publicas/internal/columns"
	"github.com/ginjaninja78/contas-publicas/internal/config"
	"github.com/ginjaninja78/contas-publicas/internal/csvparser"
	"github.com/ginjaninja78/contas-publicas/internal/testutil"
	"github.com/ginjaninja78/contas-publicas/internal/types"
)

// amounts: orçado inicial, orçado atualizado, empenhado mês, empenhado até,
// liquidado mês, liquidado até, pago mês, pago até.
func currentExport(t *testing.T) *csvparser.Dataset {
	t.Helper()
	path := testutil.WriteExport(t, t.TempDir(), "Relatorio.txt",
		testutil.Row("P", "Saúde", "Atenção Básica", "Correntes", "1.000,00", "2.000,00", "10,00", "300,00", "5,00", "200,00", "1,00", "100,00"),
		testutil.Row("P", "Saúde", "Hospitalar", "Capital", "500,00", "1.000,00", "0,00", "600,00", "0,00", "400,00", "0,00", "300,00"),
		testutil.Row("P", "Educação", "Ensino Fundamental", "Correntes", "800,00", "1.000,00", "0,00", "500,00", "0,00", "500,00", "0,00", "500,00"),
		testutil.Row("P", "Urbanismo", "Iluminação", "Correntes", "10,00", "10,00", "0,00", "1,00", "0,00", "1,00", "0,00", "1,00"),
		testutil.Row("P", "Cultura", "Difusão", "Capital", "10,00", "10,00", "0,00", "2,00", "0,00", "2,00", "0,00", "2,00"),
	)
	ds, err := csvparser.Parse(path, config.Default().CSVSettings)
	require.NoError(t, err)
	return ds
}

func value(t *testing.T, s *Snapshot, field string) float64 {
	t.Helper()
	total, ok := s.Total(field)
	require.True(t, ok)
	require.True(t, total.Available)
	return total.Value
}

func TestBuildAll(t *testing.T) {
	snap, err := Build(currentExport(t), Query{})
	require.NoError(t, err)

	assert.Empty(t, snap.Warnings)
	assert.Equal(t, 5, snap.FilteredRows)
	assert.Len(t, snap.Totals, 8)
	assert.InDelta(t, 2320.0, value(t, snap, columns.FieldOrcadoInicial), 1e-9)
	assert.InDelta(t, 903.0, value(t, snap, columns.FieldPagoAteOMes), 1e-9)
	assert.Equal(t, "Pago até o Mês", snap.Totals[7].Label)

	require.True(t, snap.ExecutionAvailable)
	assert.InDelta(t, 903.0/4020.0*100, snap.Execution, 1e-9)

	assert.Equal(t, []string{"Cultura", "Educação", "Saúde", "Urbanismo"}, snap.FuncaoOptions)

	require.Len(t, snap.TopFuncoes, 3)
	assert.Equal(t, "Saúde", snap.TopFuncoes[0].Name)
	assert.InDelta(t, 900+600+400, snap.TopFuncoes[0].Total, 1e-9)
	assert.Equal(t, "Educação", snap.TopFuncoes[1].Name)
	assert.Equal(t, "Cultura", snap.TopFuncoes[2].Name)

	require.Len(t, snap.ByCategoria, 2)
	assert.Equal(t, Share{Name: "Correntes", Value: 601}, snap.ByCategoria[0])
}

func TestBuildCascadingFilters(t *testing.T) {
	snap, err := Build(currentExport(t), Query{Funcao: "Saúde"})
	require.NoError(t, err)

	assert.Equal(t, 2, snap.FilteredRows)
	assert.Equal(t, []string{"Atenção Básica", "Hospitalar"}, snap.SubfuncaoOptions)
	assert.Equal(t, []string{"Capital", "Correntes"}, snap.CategoriaOptions)
	assert.InDelta(t, 400.0, value(t, snap, columns.FieldPagoAteOMes), 1e-9)

	snap, err = Build(currentExport(t), Query{Funcao: "Saúde", Subfuncao: "Hospitalar", Categoria: All})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.FilteredRows)
	assert.Equal(t, []string{"Capital"}, snap.CategoriaOptions)

	snap, err = Build(currentExport(t), Query{Funcao: "Inexistente"})
	require.NoError(t, err)
	assert.Zero(t, snap.FilteredRows)
	assert.Zero(t, value(t, snap, columns.FieldPagoAteOMes))
	assert.False(t, snap.ExecutionAvailable)
	assert.Empty(t, snap.TopFuncoes)
}

func TestBreakdownGroupsOthers(t *testing.T) {
	groups := []string{"a", "b", "c", "d", "e", "f", "g", ""}
	metric := []float64{70, 60, 50, 40, 30, 20, 10, 99}

	shares := breakdown(groups, metric)

	require.Len(t, shares, 6)
	assert.Equal(t, Share{Name: "a", Value: 70}, shares[0])
	assert.Equal(t, Share{Name: Others, Value: 30}, shares[5])

	assert.Len(t, breakdown(groups[:3], metric[:3]), 3)
}

func TestBreakdownOmitsZeroOthers(t *testing.T) {
	groups := []string{"A", "B", "C", "D", "E", "F", "G"}
	metric := []float64{10, 10, 10, 10, 10, 0, 0}

	shares := breakdown(groups, metric)

	require.Len(t, shares, 5)
	for _, s := range shares {
		assert.NotEqual(t, Others, s.Name)
		assert.InDelta(t, 10.0, s.Value, 1e-9)
	}
}

func TestBuildExecutionNeedsPositiveBudget(t *testing.T) {
	path := testutil.WriteExport(t, t.TempDir(), "Relatorio.txt",
		testutil.Row("P", "Saúde", "Atenção Básica", "Correntes", "0,00", "-700,00", "0,00", "0,00", "0,00", "0,00", "0,00", "50,00"),
	)
	ds, err := csvparser.Parse(path, config.Default().CSVSettings)
	require.NoError(t, err)

	snap, err := Build(ds, Query{})
	require.NoError(t, err)
	assert.InDelta(t, -700.0, value(t, snap, columns.FieldOrcadoAtualizado), 1e-9)
	assert.False(t, snap.ExecutionAvailable)
	assert.Zero(t, snap.Execution)
}

func TestBuildMissingColumns(t *testing.T) {
	path := testutil.WriteLatin1(t, t.TempDir(), "Relatorio.txt", testutil.Encode([][]string{
		{"Órgão", "Pago até o Mês"},
		{"P", "1.500,00"},
	}))
	ds, err := csvparser.Parse(path, config.Default().CSVSettings)
	require.NoError(t, err)

	snap, err := Build(ds, Query{Funcao: "Saúde", Metric: "Valor Bruto"})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.FilteredRows, "filters on absent columns are ignored")
	assert.InDelta(t, 1500.0, value(t, snap, columns.FieldPagoAteOMes), 1e-9)
	total, ok := snap.Total(columns.FieldOrcadoAtualizado)
	require.True(t, ok)
	assert.False(t, total.Available)
	assert.False(t, snap.ExecutionAvailable)
	assert.Nil(t, snap.TopFuncoes)
	assert.Nil(t, snap.FuncaoOptions)

	var missing []string
	for _, w := range snap.Warnings {
		var fe *types.FileError
		require.True(t, errors.As(w, &fe))
		assert.ErrorIs(t, w, types.ErrMissingColumn)
		missing = append(missing, fe.Field)
	}
	assert.Contains(t, missing, columns.FieldFuncao)
	assert.Contains(t, missing, "valor bruto")
}

func TestBuildEmptyExport(t *testing.T) {
	path := testutil.WriteExport(t, t.TempDir(), "Relatorio.txt")
	ds, err := csvparser.Parse(path, config.Default().CSVSettings)
	require.NoError(t, err)

	snap, err := Build(ds, Query{})
	require.NoError(t, err)
	assert.Zero(t, snap.FilteredRows)
	assert.Zero(t, value(t, snap, columns.FieldPagoAteOMes))
}
