package storage

import (
	"fmt"
	"maps"
	"slices"
)

// NormalizeItems converts decoded JSON into a list of items. It accepts:
//
//   - an array: its object elements, other elements skipped
//   - a wrapper object, one whose values are all arrays: the first non-empty
//     array, keys taken in sorted order, or no items when every array is empty
//   - any other object: a single-item list
//
// Anything else returns ErrUnsupportedShape.
func NormalizeItems(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case []any:
		return objects(v), nil
	case []map[string]any:
		return v, nil
	case map[string]any:
		if !isWrapper(v) {
			return []map[string]any{v}, nil
		}
		for _, key := range slices.Sorted(maps.Keys(v)) {
			if arr := v[key].([]any); len(arr) > 0 {
				return objects(arr), nil
			}
		}
		return []map[string]any{}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, raw)
	}
}

func objects(arr []any) []map[string]any {
	items := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if obj, ok := el.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items
}

func isWrapper(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	for _, v := range obj {
		if _, ok := v.([]any); !ok {
			return false
		}
	}
	return true
}
