package constants

import "strings"

// DocumentKind selects the expected record shape.
type DocumentKind string

const (
	KindReceipt DocumentKind = "receipt"
	KindInvoice DocumentKind = "invoice"
)

// ParseDocumentKind accepts "receipt"/"invoice" (any case, plural allowed).
func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case string(KindReceipt):
		return KindReceipt, true
	case string(KindInvoice):
		return KindInvoice, true
	}
	return "", false
}

// Sentinel values written when extraction could not recover real content.
const (
	UnknownParty         = "Unknown"
	ParseFailedItem      = "Parsing failed - check original document"
	NoItemsFound         = "No items found"
	ProcessingFailedMark = "PROCESSING FAILED"
	ErrorMark            = "ERROR"
)

// DateLayout is the YYYY-MM-DD layout the prompts ask the model for.
const DateLayout = "2006-01-02"
