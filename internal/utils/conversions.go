package utils

func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// FirstString returns v if it is a string, or the first non-empty string of v
// if it is a list. Multi-valued JWT claims decode as []any.
func FirstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, s := range ToStringSlice(t) {
			if s != "" {
				return s
			}
		}
	case []string:
		for _, s := range t {
			if s != "" {
				return s
			}
		}
	}
	return ""
}
