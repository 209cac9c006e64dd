package client

import "fmt"

// toInt64 converts the numeric shapes the transport produces.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toInt64Slice(v any) ([]int64, error) {
	switch s := v.(type) {
	case []int64:
		return s, nil
	case []any:
		out := make([]int64, len(s))
		for i, item := range s {
			n, ok := toInt64(item)
			if !ok {
				return nil, fmt.Errorf("expected id, got %T", item)
			}
			out[i] = n
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected id list, got %T", v)
	}
}

func toStringSlice(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, len(s))
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}

func toMapSlice(v any) ([]map[string]any, error) {
	switch s := v.(type) {
	case []map[string]any:
		return s, nil
	case []any:
		out := make([]map[string]any, len(s))
		for i, item := range s {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected record values, got %T", item)
			}
			out[i] = m
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected record list, got %T", v)
	}
}
