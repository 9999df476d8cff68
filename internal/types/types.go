// =============================================================================
// Contas Publicas - Shared Types
// =============================================================================
//
// This package contains the types shared by the ingestion, series and
// forecasting modules. Keeping them here avoids import cycles between:
//   - aggregate
//   - series
//   - forecast
//   - report / store
//
// =============================================================================

package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// CALENDAR MONTH
// =============================================================================

// MonthLayout is the textual layout used for months in logs and reports.
const MonthLayout = "2006-01"

// Month identifies a calendar month. The zero value is not a valid month.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month, normalizing out-of-range month numbers
// (e.g. month 13 of 2024 becomes January 2025).
func NewMonth(year int, month time.Month) Month {
	return MonthOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// MonthOf truncates a timestamp to its calendar month.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Time returns the first instant of the month in UTC.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the month n months after m (n may be negative).
func (m Month) AddMonths(n int) Month {
	return NewMonth(m.Year, m.Month+time.Month(n))
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// After reports whether m is strictly later than o.
func (m Month) After(o Month) bool {
	return o.Before(m)
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Index returns a monotonically increasing month counter, suitable as a
// regression abscissa.
func (m Month) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m Month) String() string {
	return m.Time().Format(MonthLayout)
}

// Label renders the month as "Mmm/YYYY" using Portuguese abbreviations.
func (m Month) Label() string {
	if m.Month < time.January || m.Month > time.December {
		return m.String()
	}
	return fmt.Sprintf("%s/%d", MonthAbbreviations[m.Month-1], m.Year)
}

// MonthAbbreviations holds the Portuguese three-letter month prefixes used in
// export file names, January first.
var MonthAbbreviations = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// =============================================================================
// AGGREGATES AND SERIES
// =============================================================================

// PeriodAggregate is the result of reducing one monthly export file.
type PeriodAggregate struct {
	// Source is the path of the file the aggregate was computed from.
	Source string

	// Period is the calendar month derived from the file name.
	Period Month

	// Total is the sum of the target metric over every row.
	Total float64

	// ByCategory sums the target metric per raw category value.
	// It is empty (never nil) when the category column is absent.
	ByCategory map[string]float64
}

// Point is a single observation in a monthly series.
type Point struct {
	Month Month
	Value float64
}

// MonthlySeries is ordered ascending by month with at most one point per month.
type MonthlySeries []Point

// Last returns the latest point. ok is false for an empty series.
func (s MonthlySeries) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Months returns the months of the series in order.
func (s MonthlySeries) Months() []Month {
	months := make([]Month, len(s))
	for i, p := range s {
		months[i] = p.Month
	}
	return months
}

// Values returns the values of the series in order.
func (s MonthlySeries) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// SortPoints sorts points ascending by month, keeping input order for ties.
func SortPoints(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Month.Before(points[j].Month)
	})
}

// ForecastPoint is a predicted value for a month after the last observation.
type ForecastPoint struct {
	Month Month
	Value float64
}
