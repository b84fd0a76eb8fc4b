package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func fieldString(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// fieldStrings accepts []string, []any or a comma separated string.
func fieldStrings(fields map[string]any, key string) []string {
	var raw []string
	switch v := fields[key].(type) {
	case []string:
		raw = v
	case []any:
		for _, el := range v {
			if s, ok := el.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(v, ",")
	}

	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// fieldPrice parses numbers and strings like "$1,250.00". Non-positive and
// non-finite prices are treated as unknown.
func fieldPrice(fields map[string]any, key string) *float64 {
	var value float64
	switch v := fields[key].(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case *float64:
		if v == nil {
			return nil
		}
		value = *v
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' {
				return r
			}
			return -1
		}, v)
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		value = parsed
	default:
		return nil
	}
	if !finite(value) || value <= 0 {
		return nil
	}
	return &value
}

func fieldInt(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if !finite(v) {
			return 0
		}
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
