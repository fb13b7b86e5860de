// Package normalize converts heterogeneous configuration values into a
// canonical comparable form: trimmed strings, float64 numbers, deterministic
// list ordering, and an absent marker (nil) for values that carry no
// assertion (null, blank strings, empty-after-normalization fields).
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Value normalizes v into its canonical comparable form. A nil result means
// "absent": the value asserts nothing and is excluded from comparison.
// Value is idempotent and order-insensitive for list-valued input.
func Value(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return nil
		}
		return cleaned
	case bool:
		return val
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return strings.TrimSpace(val.String())
		}
		return f
	case []any:
		return normalizeList(val)
	case []string:
		anys := make([]any, len(val))
		for i, s := range val {
			anys[i] = s
		}
		return normalizeList(anys)
	case map[string]any:
		return normalizeMap(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// IsAbsent reports whether a normalized value is the absent marker.
func IsAbsent(v any) bool {
	return v == nil
}

func normalizeList(items []any) any {
	normalized := make([]any, 0, len(items))
	for _, item := range items {
		if n := Value(item); n != nil {
			normalized = append(normalized, n)
		}
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return sortKey(normalized[i]) < sortKey(normalized[j])
	})
	return normalized
}

func normalizeMap(m map[string]any) any {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		if n := Value(v); n != nil {
			normalized[k] = n
		}
	}
	return normalized
}

// sortKey produces a total order over normalized values: structured values
// sort by their JSON serialization (map keys sorted), scalars by their
// string form.
func sortKey(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		if b, err := jsonCodec.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
