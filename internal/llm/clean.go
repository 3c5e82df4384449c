package llm

import (
	"regexp"
	"strings"
)

var (
	reDoubleUnderscore = regexp.MustCompile(`__([^_]+?)__`)
	// _x_ only at word boundaries so identifiers like AB_12_C survive
	reSingleUnderscore = regexp.MustCompile(`(^|[^A-Za-z0-9_])_([^_\s][^_]*?)_([^A-Za-z0-9_]|$)`)
	reNewlines         = regexp.MustCompile(`[\r\n]+`)
	reSpaces           = regexp.MustCompile(`\s+`)
)

// CleanRecord returns a copy of rec with every string leaf cleaned.
func CleanRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	return Record(cleanMap(rec))
}

// CleanValue recursively cleans string leaves inside maps and lists.
// Other leaves pass through unchanged. Cleaning is idempotent.
func CleanValue(v any) any {
	switch t := v.(type) {
	case string:
		return CleanString(t)
	case Record:
		return CleanRecord(t)
	case map[string]any:
		return cleanMap(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = CleanValue(x)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, x := range t {
			out[i] = CleanString(x)
		}
		return out
	default:
		return v
	}
}

func cleanMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CleanValue(v)
	}
	return out
}

// CleanString strips emphasis markers, folds newlines and whitespace runs
// into single spaces and trims. It repeats until nothing changes.
func CleanString(s string) string {
	for {
		next := cleanOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = reDoubleUnderscore.ReplaceAllString(s, "$1")
	s = reSingleUnderscore.ReplaceAllString(s, "$1$2$3")
	s = reNewlines.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
