package contracts

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 reads v as a finite number.
// Accepts Go numeric types, json.Number, bool and numeric strings.
// Returns ok=false for nil, NaN, ±Inf and anything unparseable.
func ToFloat64(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
