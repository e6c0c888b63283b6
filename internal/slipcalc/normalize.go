// Package slipcalc derives the financial fields of a purchase slip from its raw
// form inputs. Everything in here is pure: no I/O, no globals, no panics on bad input.
package slipcalc

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields is a loosely typed slip record keyed by column name, as it arrives from a
// form post or as it is read back from storage.
type Fields map[string]any

// Float coerces v into a finite float64. Nil, blank strings, unparsable strings,
// non-finite numbers and unsupported types all yield def.
func Float(v any, def float64) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return def
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case decimal.Decimal:
		f = x.InexactFloat64()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return def
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Normalize replaces each listed key in f with its Float value (default 0).
// Keys that are absent are written as 0.
func Normalize(f Fields, keys ...string) {
	for _, k := range keys {
		f[k] = Float(f[k], 0)
	}
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func round(v float64, places int32) float64 {
	return dec(v).Round(places).InexactFloat64()
}
