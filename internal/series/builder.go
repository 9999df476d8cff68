// =============================================================================
// Contas Publicas - Time Series Builder
// =============================================================================
//
// This module turns the per-file aggregates of a history directory into
// monthly series, one value per calendar month, ascending.
//
// DUPLICATE MONTHS:
//   When several files map to the same month (e.g. "Jan24.txt" and
//   "Jan24_v2.txt"), the aggregate processed last wins. Files are processed
//   in sorted file-name order, so the outcome is deterministic. The same
//   rule is used for category series and for collapsing model output.
//
// =============================================================================

package series

import (
	"fmt"
	"sort"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

// MinHistory is the default minimum number of distinct months a series needs
// before a model is fitted.
const MinHistory = 3

// Dedupe keeps, for every month, the aggregate that appears last in aggs,
// and returns the winners ascending by month.
func Dedupe(aggs []types.PeriodAggregate) []types.PeriodAggregate {
	byMonth := make(map[types.Month]types.PeriodAggregate, len(aggs))
	for _, a := range aggs {
		byMonth[a.Period] = a
	}

	winners := make([]types.PeriodAggregate, 0, len(byMonth))
	for _, a := range byMonth {
		winners = append(winners, a)
	}
	sort.Slice(winners, func(i, j int) bool {
		return winners[i].Period.Before(winners[j].Period)
	})
	return winners
}

// Build returns the global monthly series of the aggregates' totals.
func Build(aggs []types.PeriodAggregate) types.MonthlySeries {
	winners := Dedupe(aggs)
	s := make(types.MonthlySeries, len(winners))
	for i, a := range winners {
		s[i] = types.Point{Month: a.Period, Value: a.Total}
	}
	return s
}

// BuildCategory returns the series of one category value. A month whose
// winning aggregate lacks the category contributes no point.
func BuildCategory(aggs []types.PeriodAggregate, category string) types.MonthlySeries {
	var s types.MonthlySeries
	for _, a := range Dedupe(aggs) {
		if v, ok := a.ByCategory[category]; ok {
			s = append(s, types.Point{Month: a.Period, Value: v})
		}
	}
	return s
}

// Categories lists the distinct category values of the winning aggregates,
// sorted.
func Categories(aggs []types.PeriodAggregate) []string {
	seen := make(map[string]struct{})
	for _, a := range Dedupe(aggs) {
		for k := range a.ByCategory {
			seen[k] = struct{}{}
		}
	}

	cats := make([]string, 0, len(seen))
	for k := range seen {
		cats = append(cats, k)
	}
	sort.Strings(cats)
	return cats
}

// Collapse reduces points to one per month, last occurrence winning, sorted
// ascending.
func Collapse(points []types.Point) types.MonthlySeries {
	index := make(map[types.Month]int, len(points))
	var s types.MonthlySeries
	for _, p := range points {
		if i, ok := index[p.Month]; ok {
			s[i] = p
			continue
		}
		index[p.Month] = len(s)
		s = append(s, p)
	}
	types.SortPoints(s)
	return s
}

// CheckHistory returns an error wrapping types.ErrInsufficientHistory when s
// has fewer than minMonths distinct months.
func CheckHistory(s types.MonthlySeries, minMonths int) error {
	if len(s) < minMonths {
		return fmt.Errorf("%w: %d of %d months", types.ErrInsufficientHistory, len(s), minMonths)
	}
	return nil
}
