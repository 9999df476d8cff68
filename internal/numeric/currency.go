package numeric

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FallbackBRL is rendered for anything that is not a finite number.
const FallbackBRL = "R$ 0,00"

// Sum adds values in decimal arithmetic so long columns of cents do not
// accumulate binary rounding error.
func Sum(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

// FormatBRL renders v as Brazilian currency: "R$ 1.234,56".
// Negative values keep the sign after the symbol: "R$ -1.234,56".
func FormatBRL(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return FallbackBRL
	}
	return formatDecimal(decimal.NewFromFloat(v))
}

// FormatBRLAny formats numeric values of any common Go type, including
// decimal.Decimal and numeric strings in dot-decimal form. Everything else
// yields FallbackBRL.
func FormatBRLAny(v any) string {
	switch n := v.(type) {
	case float64:
		return FormatBRL(n)
	case float32:
		return FormatBRL(float64(n))
	case int:
		return formatDecimal(decimal.NewFromInt(int64(n)))
	case int64:
		return formatDecimal(decimal.NewFromInt(n))
	case decimal.Decimal:
		return formatDecimal(n)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return FallbackBRL
		}
		return formatDecimal(d)
	default:
		return FallbackBRL
	}
}

func formatDecimal(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	return "R$ " + sign + b.String() + "," + frac
}
