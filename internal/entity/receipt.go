package entity

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
)

// Receipt is the typed view of a recovered receipt record.
type Receipt struct {
	Vendor        string             `json:"vendor"`
	Date          string             `json:"date"`
	Total         string             `json:"total"`
	Subtotal      string             `json:"subtotal"`
	Tax           string             `json:"tax"`
	PaymentMethod string             `json:"payment_method"`
	CardLastFour  string             `json:"card_last_four"`
	Category      constants.Category `json:"category"`
	RawCategory   string             `json:"raw_category,omitempty"`
	Items         []string           `json:"items"`
	NeedsReview   bool               `json:"needs_review"`
}

// ReceiptFromRecord builds a Receipt from a normalized record.
func ReceiptFromRecord(rec llm.Record, verdict llm.Verdict) Receipt {
	r := Receipt{
		Vendor:        rec.String("vendor"),
		Date:          rec.String("date"),
		Total:         rec.String("total"),
		Subtotal:      rec.String("subtotal"),
		Tax:           rec.String("tax"),
		PaymentMethod: rec.String("payment_method"),
		CardLastFour:  lastFourDigits(rec.String("card_last_four")),
		RawCategory:   rec.String("category"),
		NeedsReview:   !verdict.HasSignal || verdict.Outcome == llm.OutcomePlaceholder,
	}
	r.Category, _ = constants.Canonicalize(r.RawCategory)
	for _, it := range rec.Items() {
		if s, ok := it.(string); ok && s != "" {
			r.Items = append(r.Items, s)
		}
	}
	return r
}

// ItemsSummary joins item names the way the receipts sheet shows them.
func (r Receipt) ItemsSummary() string {
	return strings.Join(r.Items, "; ")
}

// keep only the digits of "****1234" / "xxxx-1234", at most the last four
func lastFourDigits(s string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if len(digits) > 4 {
		return digits[len(digits)-4:]
	}
	return digits
}
