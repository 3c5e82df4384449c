package llm

import (
	"github.com/joseph-ayodele/receipts-monitor/constants"
)

// Record is a recovered structured payload. Nested values are plain
// map[string]any and []any so the record can be schema-checked and encoded as is.
type Record map[string]any

// Outcome names the strategy that produced a record.
type Outcome string

const (
	OutcomeStructural       Outcome = "structural"
	OutcomePatternExtracted Outcome = "pattern_extracted"
	OutcomeRepaired         Outcome = "repaired"
	OutcomePlaceholder      Outcome = "placeholder"
)

// Verdict is advisory: it is logged and counted but never blocks a record.
type Verdict struct {
	HasSignal bool    `json:"has_signal"`
	Outcome   Outcome `json:"outcome"`
}

// ItemsField holds the line-item list in both shapes.
const ItemsField = "items"

var (
	receiptFields = []string{"vendor", "date", "total", "subtotal", "tax", "payment_method", "card_last_four", "category"}
	invoiceFields = []string{"supplier", "invoice_number", "date", "total", "tax"}
	itemFields    = []string{"description", "quantity", "unit_type", "unit_price", "total_price", "sku"}
)

// ScalarFields returns the top-level string fields expected for kind, not including items.
func ScalarFields(kind constants.DocumentKind) []string {
	if kind == constants.KindInvoice {
		return invoiceFields
	}
	return receiptFields
}

// ItemFields returns the fields every invoice line item carries.
func ItemFields() []string {
	return itemFields
}

// partyField is the vendor/supplier field for kind.
func partyField(kind constants.DocumentKind) string {
	if kind == constants.KindInvoice {
		return "supplier"
	}
	return "vendor"
}

// String returns field k as a string, or "" when missing or not a string.
func (r Record) String(k string) string {
	s, _ := r[k].(string)
	return s
}

// Items returns the items list, or nil when it is missing or not a list.
func (r Record) Items() []any {
	items, _ := r[ItemsField].([]any)
	return items
}
