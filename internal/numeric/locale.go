// =============================================================================
// Contas Publicas - Locale-Aware Numeric Parser
// =============================================================================
//
// Export files mix number styles: some columns use the Brazilian convention
// ("1.234,56") and others plain dot-decimal ("1234.56"). Detection is done
// per column, from a sample of its raw values, and then every value of the
// column is parsed with the detected style.
//
// PARSING RULES:
//   - Empty, "nan", "none" and "null" tokens (any case) parse as 0
//   - Values that still fail to parse also become 0 and are counted
//   - A column is comma-decimal when any sampled value carries a comma as
//     its second- or third-from-last character
//
// =============================================================================

package numeric

import (
	"math"
	"strconv"
	"strings"
)

// SampleSize is the number of usable raw values inspected per column.
const SampleSize = 20

// Column is the parsed form of one raw column.
type Column struct {
	// Values holds one float per raw value, in input order.
	Values []float64

	// CommaDecimal reports the detected locale.
	CommaDecimal bool

	// Nulls counts empty or null-like tokens.
	Nulls int

	// Defaulted counts non-null tokens that failed to parse and became 0.
	Defaulted int
}

// DetectCommaDecimal inspects up to SampleSize non-null raw values and
// reports whether the column uses comma as its decimal separator.
func DetectCommaDecimal(raw []string) bool {
	sampled := 0
	for _, v := range raw {
		if sampled == SampleSize {
			break
		}
		s := strings.TrimSpace(v)
		if isNullToken(s) {
			continue
		}
		sampled++
		if hasDecimalComma(s) {
			return true
		}
	}
	return false
}

// ParseValue converts a single raw token. It never fails: anything that does
// not parse yields 0 and ok=false.
func ParseValue(raw string, commaDecimal bool) (value float64, ok bool) {
	s := strings.TrimSpace(raw)
	if isNullToken(s) {
		return 0, false
	}
	if commaDecimal {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	if hasBasePrefix(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// hasBasePrefix reports hex literals such as "0x1p4", which ParseFloat
// accepts but exports never contain.
func hasBasePrefix(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Parse detects the locale of raw and parses every value with it.
func Parse(raw []string) Column {
	col := Column{
		Values:       make([]float64, len(raw)),
		CommaDecimal: DetectCommaDecimal(raw),
	}

	for i, v := range raw {
		f, ok := ParseValue(v, col.CommaDecimal)
		if !ok {
			if isNullToken(strings.TrimSpace(v)) {
				col.Nulls++
			} else {
				col.Defaulted++
			}
		}
		col.Values[i] = f
	}
	return col
}

// ParseColumn is Parse without the bookkeeping.
func ParseColumn(raw []string) []float64 {
	return Parse(raw).Values
}

func hasDecimalComma(s string) bool {
	n := len(s)
	return (n >= 2 && s[n-2] == ',') || (n >= 3 && s[n-3] == ',')
}

func isNullToken(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}
