package llm

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrNoJSONBounds means no balanced {...} span exists in the text.
	ErrNoJSONBounds = eris.New("no json bounds")
	// ErrParseFailed means the extracted span was not a valid JSON object.
	ErrParseFailed = eris.New("parse failed")
	// ErrFallbackExhausted is returned only if every fallback strategy declined,
	// which cannot happen while the placeholder strategy is last in the chain.
	ErrFallbackExhausted = eris.New("fallback exhausted")
)

// ParseError keeps the span the structural parser rejected for diagnostics.
type ParseError struct {
	Span string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParseFailed, e.Err}
}
