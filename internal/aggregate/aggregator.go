// =============================================================================
// Contas Publicas - File Aggregator
// =============================================================================
//
// This module reduces one monthly export to a PeriodAggregate: the total of
// the target metric over all rows, plus the same sum per category value.
//
// MISSING COLUMNS:
//   - Target column absent: zero total, empty category mapping, warning
//   - Category column absent: total is kept, empty mapping, warning
//   Neither case is fatal; the warnings are returned for the caller to log.
//
// =============================================================================

package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/contas-publicas/internal/columns"
	"github.com/ginjaninja78/contas-publicas/internal/csvparser"
	"github.com/ginjaninja78/contas-publicas/internal/numeric"
	"github.com/ginjaninja78/contas-publicas/internal/types"
)

// Result is the outcome of aggregating one file.
type Result struct {
	Aggregate types.PeriodAggregate

	// CommaDecimal is the locale detected for the target column.
	CommaDecimal bool

	// Defaulted counts target values that failed to parse and counted as 0.
	Defaulted int

	// Warnings holds *types.FileError values for missing columns.
	Warnings []error
}

// Aggregate sums the target column of ds, globally and per raw value of the
// group column. Rows with an empty group value only count toward the total.
func Aggregate(ds *csvparser.Dataset, period types.Month, target, group string) Result {
	res := Result{
		Aggregate: types.PeriodAggregate{
			Source:     ds.SourceFile,
			Period:     period,
			ByCategory: map[string]float64{},
		},
	}

	targetHeader, ok := columns.Resolve(ds.Headers, target)
	if !ok {
		res.Warnings = append(res.Warnings, &types.FileError{
			Path: ds.SourceFile, Field: columns.Normalize(target), Err: types.ErrMissingColumn,
		})
		return res
	}

	col := numeric.Parse(ds.Column(targetHeader))
	res.CommaDecimal = col.CommaDecimal
	res.Defaulted = col.Defaulted
	res.Aggregate.Total = numeric.Sum(col.Values)

	if group == "" {
		return res
	}
	groupHeader, ok := columns.Resolve(ds.Headers, group)
	if !ok {
		res.Warnings = append(res.Warnings, &types.FileError{
			Path: ds.SourceFile, Field: columns.Normalize(group), Err: types.ErrMissingColumn,
		})
		return res
	}

	sums := make(map[string]decimal.Decimal)
	for i, row := range ds.Rows {
		key := row[groupHeader]
		if key == "" {
			continue
		}
		sums[key] = sums[key].Add(decimal.NewFromFloat(col.Values[i]))
	}
	for k, v := range sums {
		res.Aggregate.ByCategory[k] = v.InexactFloat64()
	}

	return res
}
