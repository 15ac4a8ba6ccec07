package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Field returns the value of the first candidate that is present in raw with
// a non-nil, non-empty-string value.
//
// Each candidate is tried by exact key first and then by a case-insensitive
// scan of the keys of raw, so "sessionId" also matches "SessionId" and
// "SESSIONID". Candidates are tried strictly in order.
func Field(raw map[string]any, candidates ...string) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var keys []string
	for _, c := range candidates {
		if v, ok := raw[c]; ok && present(v) {
			return v, true
		}

		if keys == nil {
			keys = sortedKeys(raw)
		}
		for _, k := range keys {
			if k != c && strings.EqualFold(k, c) && present(raw[k]) {
				return raw[k], true
			}
		}
	}
	return nil, false
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	}
	return true
}

// sortedKeys makes the case-insensitive fallback deterministic when raw has
// several keys differing only in case.
func sortedKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsString converts a scalar to its string form. Maps and slices are not
// scalars and report false.
func AsString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// AsInt converts numbers and numeric strings. Fractions are truncated and
// values outside the int range are rejected.
func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case float64:
		// Conversion of an out-of-range float is implementation-defined.
		if math.IsNaN(t) || t >= math.MaxInt+1 || t < math.MinInt {
			return 0, false
		}
		return int(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return AsInt(f)
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return AsInt(f)
	}
	return 0, false
}

// AsBool accepts booleans, numbers (non-zero is true) and the usual textual
// spellings.
func AsBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1", "on":
			return true, true
		case "false", "no", "n", "0", "off":
			return false, true
		}
		return false, false
	}
	if i, ok := AsInt(v); ok {
		return i != 0, true
	}
	return false, false
}
