package entity

import (
	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

// Invoice is the typed view of a recovered supplier invoice.
type Invoice struct {
	Supplier      string        `json:"supplier"`
	InvoiceNumber string        `json:"invoice_number"`
	Date          string        `json:"date"`
	Total         string        `json:"total"`
	Tax           string        `json:"tax"`
	Items         []InvoiceItem `json:"items"`
	NeedsReview   bool          `json:"needs_review"`
}

// InvoiceItem is one invoice line.
type InvoiceItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitType    string `json:"unit_type"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
	SKU         string `json:"sku"`
}

// InvoiceFromRecord builds an Invoice from a normalized record.
func InvoiceFromRecord(rec llm.Record, verdict llm.Verdict) Invoice {
	inv := Invoice{
		Supplier:      rec.String("supplier"),
		InvoiceNumber: rec.String("invoice_number"),
		Date:          rec.String("date"),
		Total:         rec.String("total"),
		Tax:           rec.String("tax"),
		NeedsReview:   !verdict.HasSignal || verdict.Outcome == llm.OutcomePlaceholder,
	}
	for _, it := range rec.Items() {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		str := func(k string) string {
			s, _ := m[k].(string)
			return s
		}
		inv.Items = append(inv.Items, InvoiceItem{
			Description: str("description"),
			Quantity:    str("quantity"),
			UnitType:    str("unit_type"),
			UnitPrice:   str("unit_price"),
			TotalPrice:  str("total_price"),
			SKU:         str("sku"),
		})
	}
	return inv
}

// Trackable reports whether the line can feed price history.
func (it InvoiceItem) Trackable() bool {
	return it.Description != "" &&
		it.Description != constants.ParseFailedItem &&
		it.UnitType != "" &&
		it.UnitPrice != ""
}

// PriceKey is the price-history key for this line under supplier.
func (it InvoiceItem) PriceKey(supplier string) pricehistory.Key {
	return pricehistory.Key{Product: it.Description, Supplier: supplier, UnitType: it.UnitType}
}

// LineObservation is a price observation tied to its position in Items.
type LineObservation struct {
	Line int
	pricehistory.Observation
}

// PriceObservations returns one observation per trackable line. observed
// is used as the date when the invoice has none.
func (inv Invoice) PriceObservations(link, observed string) []LineObservation {
	date := inv.Date
	if date == "" {
		date = observed
	}
	var out []LineObservation
	for i, it := range inv.Items {
		if !it.Trackable() {
			continue
		}
		out = append(out, LineObservation{Line: i, Observation: pricehistory.Observation{
			Key:   it.PriceKey(inv.Supplier),
			Price: it.UnitPrice,
			Link:  link,
			Date:  date,
		}})
	}
	return out
}
