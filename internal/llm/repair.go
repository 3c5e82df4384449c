package llm

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// typography folds the characters vision models like to emit into their
// ASCII forms: zero-width runes go, NBSP becomes a space, curly quotes straighten.
var typography = transform.Chain(
	runes.Remove(runes.Predicate(isZeroWidth)),
	runes.Map(foldTypography),
)

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return false
}

func foldTypography(r rune) rune {
	switch r {
	case '\u00a0', '\u2007', '\u202f':
		return ' '
	case '\u2018', '\u2019', '\u201a', '\u2032':
		return '\''
	case '\u201c', '\u201d', '\u201e', '\u2033':
		return '"'
	}
	return r
}

// NormalizeTypography applies the typography folding to s.
func NormalizeTypography(s string) string {
	out, _, err := transform.String(typography, s)
	if err != nil {
		return s
	}
	return out
}

// RepairValues applies best-effort textual repairs to an extracted span
// before it is parsed. Inside quoted values it drops emphasis markers,
// collapses embedded newlines/tabs to one space and escapes quotes that do
// not look like the end of the value. Outside quotes it collapses whitespace
// and removes trailing commas before '}' or ']'.
func RepairValues(span string) string {
	rs := []rune(NormalizeTypography(span))
	out := make([]rune, 0, len(rs))

	inString := false
	escaped := false
	pendingSpace := false

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if inString {
			switch {
			case escaped:
				out = append(out, r)
				escaped = false
			case r == '\\':
				out = append(out, r)
				escaped = true
			case r == '*':
			case r == '\n' || r == '\r' || r == '\t':
				for i+1 < len(rs) && (rs[i+1] == '\n' || rs[i+1] == '\r' || rs[i+1] == '\t') {
					i++
				}
				if len(out) > 0 && out[len(out)-1] != ' ' {
					out = append(out, ' ')
				}
			case r == '"':
				if closesString(rs, i+1) {
					out = append(out, r)
					inString = false
				} else {
					out = append(out, '\\', '"')
				}
			default:
				out = append(out, r)
			}
			continue
		}

		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case r == '*':
			// emphasis around keys or values, never valid JSON here
		case r == '}' || r == ']':
			pendingSpace = false
			if n := len(out); n > 0 && out[n-1] == ',' {
				out = out[:n-1]
			}
			out = append(out, r)
		default:
			if pendingSpace && len(out) > 0 {
				out = append(out, ' ')
			}
			pendingSpace = false
			if r == '"' {
				inString = true
			}
			out = append(out, r)
		}
	}
	return string(out)
}

// closesString reports whether a quote just before rs[from] ends a JSON
// string: the next non-space rune must be structural or the input must end.
func closesString(rs []rune, from int) bool {
	for j := from; j < len(rs); j++ {
		if unicode.IsSpace(rs[j]) || rs[j] == '*' {
			continue
		}
		switch rs[j] {
		case ',', '}', ']', ':':
			return true
		}
		return false
	}
	return true
}
