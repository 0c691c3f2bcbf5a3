package sources

import (
	"encoding/json"
	"strings"

	"yieldScope/internal/numeric"
)

// lookup walks nested objects along path.
func lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func object(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

func list(v any) ([]any, bool) {
	items, ok := v.([]any)
	return items, ok
}

// str reads a scalar as a trimmed string.
func str(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

func strAt(v any, path ...string) string {
	field, ok := lookup(v, path...)
	if !ok {
		return ""
	}
	return str(field)
}

func floatAt(v any, path ...string) (float64, bool) {
	field, ok := lookup(v, path...)
	if !ok {
		return 0, false
	}
	return numeric.Float(field)
}

// firstFloat returns the first path that holds a number.
func firstFloat(v any, paths ...[]string) (float64, bool) {
	for _, path := range paths {
		if f, ok := floatAt(v, path...); ok {
			return f, true
		}
	}
	return 0, false
}

// floats reads a JSON array of numbers, skipping non-numeric items.
func floats(v any) []float64 {
	items, ok := list(v)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		if f, ok := numeric.Float(item); ok {
			out = append(out, f)
		}
	}
	return out
}
