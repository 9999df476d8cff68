// =============================================================================
// Contas Publicas - Current Month Snapshot
// =============================================================================
//
// This module builds the point-in-time view of the current export:
//   - Cascading filters: função -> subfunção -> categoria ("Todas" = all)
//   - The eight monetary totals of the filtered rows
//   - Budget execution: pago até o mês / orçado atualizado
//   - The top funções by empenhado + liquidado + pago até o mês
//   - Subfunção and categoria breakdowns (top 5 plus "Outros")
//
// Filtering is done on a gota DataFrame loaded with every column as text,
// so values reach the numeric parser exactly as exported.
//
// =============================================================================

package snapshot

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/contas-publicas/internal/columns"
	"github.com/ginjaninja78/contas-publicas/internal/csvparser"
	"github.com/ginjaninja78/contas-publicas/internal/numeric"
	"github.com/ginjaninja78/contas-publicas/internal/types"
)

// All disables a filter.
const All = "Todas"

// Others labels the remainder of a breakdown.
const Others = "Outros"

const (
	topFuncoes   = 3
	topBreakdown = 5
)

// Labels maps the monetary fields to their display names.
var Labels = map[string]string{
	columns.FieldOrcadoInicial:    "Orçado Inicial",
	columns.FieldOrcadoAtualizado: "Orçado Atualizado",
	columns.FieldEmpenhadoNoMes:   "Empenhado no Mês",
	columns.FieldEmpenhadoAteOMes: "Empenhado até o Mês",
	columns.FieldLiquidadoNoMes:   "Liquidado no Mês",
	columns.FieldLiquidadoAteOMes: "Liquidado até o Mês",
	columns.FieldPagoNoMes:        "Pago no Mês",
	columns.FieldPagoAteOMes:      "Pago até o Mês",
}

var rankingFields = []string{
	columns.FieldEmpenhadoAteOMes,
	columns.FieldLiquidadoAteOMes,
	columns.FieldPagoAteOMes,
}

// Query selects the rows and the breakdown metric of a snapshot.
type Query struct {
	Funcao    string
	Subfuncao string
	Categoria string

	// Metric is the field used for breakdowns. Default: pago até o mês.
	Metric string
}

func (q Query) withDefaults() Query {
	for _, f := range []*string{&q.Funcao, &q.Subfuncao, &q.Categoria} {
		if *f == "" {
			*f = All
		}
	}
	if q.Metric == "" {
		q.Metric = columns.FieldPagoAteOMes
	}
	q.Metric = columns.Normalize(q.Metric)
	return q
}

// Total is one monetary total. Available is false when the column is absent.
type Total struct {
	Field     string
	Label     string
	Value     float64
	Available bool
}

// Ranked is one função in the ranking.
type Ranked struct {
	Name      string
	Empenhado float64
	Liquidado float64
	Pago      float64
	Total     float64
}

// Share is one slice of a breakdown.
type Share struct {
	Name  string
	Value float64
}

// Snapshot is the computed view of one export.
type Snapshot struct {
	Source       string
	Rows         int
	FilteredRows int
	Query        Query

	// Options offered by each filter, given the filters before it.
	FuncaoOptions    []string
	SubfuncaoOptions []string
	CategoriaOptions []string

	Totals []Total

	Execution          float64
	ExecutionAvailable bool

	TopFuncoes  []Ranked
	BySubfuncao []Share
	ByCategoria []Share

	// Warnings holds *types.FileError values for missing columns.
	Warnings []error
}

// Total returns the total of a field.
func (s *Snapshot) Total(field string) (Total, bool) {
	key := columns.Normalize(field)
	for _, t := range s.Totals {
		if t.Field == key {
			return t, true
		}
	}
	return Total{}, false
}

// =============================================================================
// BUILD
// =============================================================================

// Build computes the snapshot of ds for q.
func Build(ds *csvparser.Dataset, q Query) (*Snapshot, error) {
	q = q.withDefaults()
	fm := columns.BuildFieldMap(ds.Headers)

	snap := &Snapshot{Source: ds.SourceFile, Rows: ds.RowCount, Query: q}
	for _, f := range fm.Missing() {
		snap.Warnings = append(snap.Warnings, &types.FileError{Path: ds.SourceFile, Field: f, Err: types.ErrMissingColumn})
	}

	// Locale is detected on the whole file, not on the filtered rows.
	locale := make(map[string]bool)
	for _, f := range columns.NumericFields() {
		if h, ok := fm.Lookup(f); ok {
			locale[f] = numeric.DetectCommaDecimal(ds.Column(h))
		}
	}

	view, err := load(ds)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		field   string
		value   string
		options *[]string
	}{
		{columns.FieldFuncao, q.Funcao, &snap.FuncaoOptions},
		{columns.FieldSubfuncao, q.Subfuncao, &snap.SubfuncaoOptions},
		{columns.FieldCategoria, q.Categoria, &snap.CategoriaOptions},
	}
	for _, step := range steps {
		h, ok := fm.Lookup(step.field)
		if !ok {
			continue
		}
		*step.options = distinct(view, h)
		if view, err = filter(view, h, step.value); err != nil {
			return nil, err
		}
	}
	snap.FilteredRows = view.rows()

	values := make(map[string][]float64)
	for _, f := range columns.NumericFields() {
		total := Total{Field: f, Label: Labels[f]}
		if h, ok := fm.Lookup(f); ok {
			values[f] = parse(view.col(h), locale[f])
			total.Value = numeric.Sum(values[f])
			total.Available = true
		}
		snap.Totals = append(snap.Totals, total)
	}

	pago, okPago := snap.Total(columns.FieldPagoAteOMes)
	orcado, okOrcado := snap.Total(columns.FieldOrcadoAtualizado)
	if okPago && okOrcado && pago.Available && orcado.Available && orcado.Value > 0 {
		snap.Execution = pago.Value / orcado.Value * 100
		snap.ExecutionAvailable = true
	}

	if h, ok := fm.Lookup(columns.FieldFuncao); ok {
		snap.TopFuncoes = rank(view.col(h), values)
	}

	if metric, ok := values[q.Metric]; ok {
		if h, ok := fm.Lookup(columns.FieldSubfuncao); ok {
			snap.BySubfuncao = breakdown(view.col(h), metric)
		}
		if h, ok := fm.Lookup(columns.FieldCategoria); ok {
			snap.ByCategoria = breakdown(view.col(h), metric)
		}
	} else if _, canonical := Labels[q.Metric]; !canonical {
		snap.Warnings = append(snap.Warnings, &types.FileError{Path: ds.SourceFile, Field: q.Metric, Err: types.ErrMissingColumn})
	}

	return snap, nil
}

// =============================================================================
// FRAME HELPERS
// =============================================================================

// frame wraps a DataFrame; gota cannot represent a frame without rows, so
// empty datasets are carried as a nil frame.
type frame struct {
	df *dataframe.DataFrame
}

func load(ds *csvparser.Dataset) (frame, error) {
	if ds.RowCount == 0 {
		return frame{}, nil
	}
	df := dataframe.LoadRecords(ds.Records(),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return frame{}, fmt.Errorf("load %s: %w", ds.SourceFile, df.Err)
	}
	return frame{df: &df}, nil
}

func (f frame) rows() int {
	if f.df == nil {
		return 0
	}
	return f.df.Nrow()
}

func (f frame) col(header string) []string {
	if f.rows() == 0 {
		return nil
	}
	return f.df.Col(header).Records()
}

func filter(f frame, header, value string) (frame, error) {
	if value == All || f.rows() == 0 {
		return f, nil
	}
	df := f.df.Filter(dataframe.F{Colname: header, Comparator: series.Eq, Comparando: value})
	if df.Err != nil {
		return frame{}, fmt.Errorf("filter %s: %w", header, df.Err)
	}
	if df.Nrow() == 0 {
		return frame{}, nil
	}
	return frame{df: &df}, nil
}

func distinct(f frame, header string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range f.col(header) {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func parse(raw []string, commaDecimal bool) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i], _ = numeric.ParseValue(v, commaDecimal)
	}
	return out
}

// =============================================================================
// RANKINGS
// =============================================================================

func rank(groups []string, values map[string][]float64) []Ranked {
	sums := make(map[string]*[3]decimal.Decimal)
	var order []string
	for i, g := range groups {
		if g == "" {
			continue
		}
		acc, ok := sums[g]
		if !ok {
			acc = &[3]decimal.Decimal{}
			sums[g] = acc
			order = append(order, g)
		}
		for j, f := range rankingFields {
			if col, ok := values[f]; ok {
				acc[j] = acc[j].Add(decimal.NewFromFloat(col[i]))
			}
		}
	}

	ranked := make([]Ranked, 0, len(order))
	for _, g := range order {
		acc := sums[g]
		r := Ranked{
			Name:      g,
			Empenhado: acc[0].InexactFloat64(),
			Liquidado: acc[1].InexactFloat64(),
			Pago:      acc[2].InexactFloat64(),
		}
		r.Total = acc[0].Add(acc[1]).Add(acc[2]).InexactFloat64()
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Total > ranked[j].Total })
	if len(ranked) > topFuncoes {
		ranked = ranked[:topFuncoes]
	}
	return ranked
}

func breakdown(groups []string, metric []float64) []Share {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for i, g := range groups {
		if g == "" {
			continue
		}
		if _, ok := sums[g]; !ok {
			order = append(order, g)
		}
		sums[g] = sums[g].Add(decimal.NewFromFloat(metric[i]))
	}

	shares := make([]Share, 0, len(order))
	for _, g := range order {
		shares = append(shares, Share{Name: g, Value: sums[g].InexactFloat64()})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Value > shares[j].Value })

	if len(shares) <= topBreakdown {
		return shares
	}
	rest := decimal.Zero
	for _, s := range shares[topBreakdown:] {
		rest = rest.Add(decimal.NewFromFloat(s.Value))
	}
	if !rest.GreaterThan(decimal.Zero) {
		return shares[:topBreakdown]
	}
	return append(shares[:topBreakdown:topBreakdown], Share{Name: Others, Value: rest.InexactFloat64()})
}
