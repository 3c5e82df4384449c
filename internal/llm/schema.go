package llm

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReceiptJSONSchema describes a normalized receipt record.
func BuildReceiptJSONSchema() map[string]any {
	props := map[string]any{}
	for _, f := range receiptFields {
		props[f] = map[string]any{"type": "string"}
	}
	props["date"] = dateProp()
	props["card_last_four"] = map[string]any{"type": "string", "pattern": `^(\d{4})?$`}
	props[ItemsField] = map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   append(append([]string{}, receiptFields...), ItemsField),
	}
}

// BuildInvoiceJSONSchema describes a normalized invoice record.
func BuildInvoiceJSONSchema() map[string]any {
	itemProps := map[string]any{}
	for _, f := range itemFields {
		itemProps[f] = map[string]any{"type": "string"}
	}
	props := map[string]any{}
	for _, f := range invoiceFields {
		props[f] = map[string]any{"type": "string"}
	}
	props["date"] = dateProp()
	props[ItemsField] = map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": itemProps,
			"required":   itemFields,
		},
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   append(append([]string{}, invoiceFields...), ItemsField),
	}
}

// empty is allowed; consumers treat it as unknown
func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^(\d{4}-\d{2}-\d{2})?$`}
}

type compiledSchemas struct {
	receipt *jsonschema.Schema
	invoice *jsonschema.Schema
}

var loadSchemas = sync.OnceValues(func() (compiledSchemas, error) {
	var out compiledSchemas
	var err error
	if out.receipt, err = compileSchema("receipt.json", BuildReceiptJSONSchema()); err != nil {
		return out, err
	}
	if out.invoice, err = compileSchema("invoice.json", BuildInvoiceJSONSchema()); err != nil {
		return out, err
	}
	return out, nil
})

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, eris.Wrapf(err, "encode %s schema", name)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, eris.Wrapf(err, "add %s schema", name)
	}
	s, err := c.Compile(name)
	if err != nil {
		return nil, eris.Wrapf(err, "compile %s schema", name)
	}
	return s, nil
}

// CheckSchema validates a normalized record against the shape schema for
// kind. Callers log the result; a violation never drops the record.
func CheckSchema(rec Record, kind constants.DocumentKind) error {
	schemas, err := loadSchemas()
	if err != nil {
		return err
	}
	s := schemas.receipt
	if kind == constants.KindInvoice {
		s = schemas.invoice
	}
	return s.Validate(map[string]any(rec))
}
