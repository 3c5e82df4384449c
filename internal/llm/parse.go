package llm

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseStructure decodes span as a JSON object. Numbers are kept as
// json.Number so normalization can render them without float rounding.
func ParseStructure(span string) (Record, error) {
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Span: span, Err: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Span: span, Err: eris.Errorf("payload is %T, not an object", v)}
	}
	return Record(obj), nil
}
