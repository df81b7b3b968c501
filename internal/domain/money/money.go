// Package money handles monetary coercion and BRL presentation.
package money

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Coerce converts a raw document value into a float64 amount. Non-numeric,
// NaN and infinite inputs coerce to 0 rather than failing — malformed data
// must never take the aggregation down.
func Coerce(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return sanitize(v)
	case float32:
		return sanitize(float64(v))
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return sanitize(f)
	}
	return 0
}

// FormatBRL formats an amount as Brazilian Real: "R$ 1.234,56".
// Two decimal places, pt-BR grouping. Part of the report contract, not
// just presentation sugar.
func FormatBRL(v float64) string {
	return printer.Sprintf("R$ %.2f", sanitize(v))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
