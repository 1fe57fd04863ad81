// Package scalar classifies the dynamic values allowed in metadata and filters.
// A scalar is a string or a number; booleans, nil and containers are not.
package scalar

import (
	"encoding/json"
	"strconv"
)

// IsNumber reports whether v holds a Go numeric kind or a json.Number.
func IsNumber(v any) bool {
	_, ok := Float(v)
	return ok
}

// IsString reports whether v is a string.
func IsString(v any) bool {
	_, ok := v.(string)
	return ok
}

// IsScalar reports whether v is a string or a number.
func IsScalar(v any) bool {
	return IsString(v) || IsNumber(v)
}

// Float converts a numeric value to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Equal compares two scalars. Numbers compare by value regardless of Go kind;
// a string never equals a number.
func Equal(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	af, aok := Float(a)
	bf, bok := Float(b)
	return aok && bok && af == bf
}
