// Package config holds the value coercions shared by the ConfigStore
// adapters. TOML decodes integers as int64 and arrays as []any, while values
// set at runtime keep their Go types; both shapes are accepted.
package config

// String returns v if it is a string, or "".
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int returns v as an int, or 0 if it is not a number.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Bool returns v if it is a bool, or false.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// StringSlice returns the string elements of v, or nil if v is not a list.
func StringSlice(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
