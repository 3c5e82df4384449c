package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

func TestReceiptFromRecord(t *testing.T) {
	rec, verdict := llm.Recover(`{"vendor": "Shell", "total": "$40.00", "card_last_four": "****-1234", "category": "fuel", "items": ["Unleaded", "Snacks"]}`, constants.KindReceipt)

	r := ReceiptFromRecord(rec, verdict)

	assert.Equal(t, "Shell", r.Vendor)
	assert.Equal(t, "1234", r.CardLastFour)
	assert.Equal(t, constants.Gas, r.Category)
	assert.Equal(t, "fuel", r.RawCategory)
	assert.Equal(t, "Unleaded; Snacks", r.ItemsSummary())
	assert.False(t, r.NeedsReview)
}

func TestReceiptFromRecord_Placeholder(t *testing.T) {
	rec, verdict := llm.Recover("no json here", constants.KindReceipt)

	r := ReceiptFromRecord(rec, verdict)

	assert.True(t, r.NeedsReview)
	assert.Equal(t, constants.UnknownParty, r.Vendor)
	assert.Equal(t, constants.Other, r.Category)
}

func TestLastFourDigits(t *testing.T) {
	assert.Equal(t, "1234", lastFourDigits("xxxx1234"))
	assert.Equal(t, "5678", lastFourDigits("4111 2222 3333 5678"))
	assert.Equal(t, "12", lastFourDigits("**12"))
	assert.Equal(t, "", lastFourDigits("n/a"))
}

func TestInvoicePriceObservations(t *testing.T) {
	rec, verdict := llm.Recover(`{"supplier": "Sysco", "date": "", "items": [
		{"description": "Roma Tomatoes", "unit_type": "case", "unit_price": "$24.00"},
		{"description": "Delivery fee", "unit_price": "$5.00"},
		{"description": "Onions", "unit_type": "lb", "unit_price": ""}
	]}`, constants.KindInvoice)

	inv := InvoiceFromRecord(rec, verdict)
	require.Len(t, inv.Items, 3)

	got := inv.PriceObservations("file:///inv.png", "2024-06-01")
	assert.Equal(t, []LineObservation{{Line: 0, Observation: pricehistory.Observation{
		Key:   pricehistory.Key{Product: "Roma Tomatoes", Supplier: "Sysco", UnitType: "case"},
		Price: "$24.00",
		Link:  "file:///inv.png",
		Date:  "2024-06-01",
	}}}, got)
}

func TestInvoicePriceObservations_KeepsLinePositions(t *testing.T) {
	inv := Invoice{Supplier: "Sysco", Date: "2024-06-01", Items: []InvoiceItem{
		{Description: "Eggs", UnitType: "case", UnitPrice: "$10.00"},
		{Description: "Delivery fee", UnitPrice: "$5.00"},
		{Description: "Eggs", UnitType: "case", UnitPrice: "$12.00"},
	}}

	got := inv.PriceObservations("", "")
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Line)
	assert.Equal(t, 2, got[1].Line)
	assert.Equal(t, got[0].Key, got[1].Key)
}

func TestInvoiceFromRecord_PlaceholderIsNotTracked(t *testing.T) {
	rec, verdict := llm.Recover("", constants.KindInvoice)

	inv := InvoiceFromRecord(rec, verdict)

	assert.True(t, inv.NeedsReview)
	require.Len(t, inv.Items, 1)
	assert.False(t, inv.Items[0].Trackable())
	assert.Empty(t, inv.PriceObservations("", "2024-01-01"))
}
