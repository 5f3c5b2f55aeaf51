package inventory

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"skinvault/internal/model"
)

// lookup returns the first alias present with a non-nil value.
func lookup(raw model.RawItem, aliases ...string) (any, bool) {
	for _, key := range aliases {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// textOf renders a scalar as trimmed text. Empty text and non-scalars yield false.
func textOf(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case uint64:
		s = strconv.FormatUint(x, 10)
	case uint32:
		s = strconv.FormatUint(uint64(x), 10)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// floatOf parses a finite number from numbers or numeric strings.
func floatOf(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case uint32:
		f = float64(x)
	case json.Number:
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// intOf parses an integer, truncating any fractional part.
func intOf(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case json.Number:
		if n, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	}
	f, ok := floatOf(v)
	if !ok || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// boolOf maps booleans and their common text forms; anything else is unknown.
func boolOf(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	s, ok := textOf(v)
	if !ok {
		return false, false
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// The field helpers return the first alias whose value parses; unusable values fall through.

func textField(raw model.RawItem, aliases ...string) *string {
	for _, key := range aliases {
		if s, ok := textOf(raw[key]); ok {
			return &s
		}
	}
	return nil
}

func intField(raw model.RawItem, aliases ...string) *int64 {
	for _, key := range aliases {
		if n, ok := intOf(raw[key]); ok {
			return &n
		}
	}
	return nil
}

func floatField(raw model.RawItem, aliases ...string) *float64 {
	for _, key := range aliases {
		if f, ok := floatOf(raw[key]); ok {
			return &f
		}
	}
	return nil
}

func boolField(raw model.RawItem, aliases ...string) *bool {
	for _, key := range aliases {
		if b, ok := boolOf(raw[key]); ok {
			return &b
		}
	}
	return nil
}
