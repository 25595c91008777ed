package reconciliation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Finite maps NaN and ±Inf to zero.
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Coerce converts a loosely typed value (spreadsheet cell, JSON number,
// driver numeric) into a float64. Anything that is not a number becomes 0.
func Coerce(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return Finite(n)
	case float32:
		return Finite(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return Finite(f)
	case decimal.Decimal:
		return n.InexactFloat64()
	case *float64:
		if n == nil {
			return 0
		}
		return Finite(*n)
	case string:
		return ParseNumber(n)
	case []byte:
		return ParseNumber(string(n))
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// ParseNumber parses a numeric string, tolerating surrounding spaces and
// thousands separators. Unparseable input returns 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return Finite(f)
}
