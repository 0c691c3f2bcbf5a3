// Package numeric reconciles the number encodings used by upstream yield APIs.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PercentThreshold is the magnitude at or above which a yield figure is taken
// to be a percentage already. Below it the figure is read as a fraction.
//
// This is a heuristic: 0.99 is read as 99%, never as 0.99%.
const PercentThreshold = 1.0

// Percent converts a yield figure to a percentage.
func Percent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if math.Abs(v) >= PercentThreshold {
		return v
	}
	return v * 100
}

// Float reads a JSON scalar as float64. Numbers, json.Number and numeric
// strings are accepted; anything else reports false.
func Float(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(typed)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Decimal reads a JSON scalar as an exact decimal. Raw on-chain balances are
// integers far beyond float64 precision, so they go through here.
func Decimal(v any) (decimal.Decimal, bool) {
	switch typed := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(typed.String())
		return d, err == nil
	case string:
		s := strings.TrimSpace(typed)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(typed), true
	case int:
		return decimal.NewFromInt(int64(typed)), true
	case int64:
		return decimal.NewFromInt(typed), true
	default:
		return decimal.Zero, false
	}
}

// Int reads a JSON scalar as int, falling back to def.
func Int(v any, def int) int {
	f, ok := Float(v)
	if !ok {
		return def
	}
	return int(f)
}
