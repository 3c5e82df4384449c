package llm

import (
	"strings"
)

// ExtractBalanced returns the substring from the first '{' to its matching
// '}' inclusive. Braces inside strings are counted too; the value sanitizer
// and parser deal with whatever imbalance that leaves.
func ExtractBalanced(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSONBounds
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONBounds
}
