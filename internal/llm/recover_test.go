package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joseph-ayodele/receipts-monitor/constants"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
}

func newTestRecoverer(t *testing.T) *Recoverer {
	return NewRecoverer(zaptest.NewLogger(t), WithClock(fixedClock))
}

func TestRecover_FencedInvoiceWithPreamble(t *testing.T) {
	raw := "Sure! Here's the data:\n```json\n{\"supplier\": \"Acme**Co\", \"items\": [{\"description\": \"Bolt\\nSet\", \"unit_price\": \"$1.00\",}]}\n```"

	rec, verdict := newTestRecoverer(t).Recover(raw, constants.KindInvoice)

	assert.Equal(t, Verdict{HasSignal: true, Outcome: OutcomeStructural}, verdict)
	assert.Equal(t, Record{
		"supplier":       "AcmeCo",
		"invoice_number": "",
		"date":           "",
		"total":          "",
		"tax":            "",
		"items": []any{
			map[string]any{
				"description": "Bolt Set",
				"quantity":    "",
				"unit_type":   "",
				"unit_price":  "$1.00",
				"total_price": "",
				"sku":         "",
			},
		},
	}, rec)
}

func TestRecover_StructuralRepairs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
		item []any
	}{
		{
			name: "trailing commas and emphasis",
			raw:  "{\"vendor\": \"**Shell**\", \"total\": \"$40.00\",\n\"items\": [\"Fuel\",],}",
			want: map[string]string{"vendor": "Shell", "total": "$40.00"},
			item: []any{"Fuel"},
		},
		{
			name: "newline inside quoted value",
			raw:  "{\"vendor\": \"Joe's\nDiner\", \"total\": \"$12.10\"}",
			want: map[string]string{"vendor": "Joe's Diner", "total": "$12.10"},
			item: []any{},
		},
		{
			name: "tab inside quoted value",
			raw:  "{\"vendor\": \"Corner\t\tMart\", \"category\": \"Retail\"}",
			want: map[string]string{"vendor": "Corner Mart", "category": "Retail"},
			item: []any{},
		},
		{
			name: "smart quotes",
			raw:  "Here is the receipt:\n{“vendor”: “Café Rio”, “total”: “$7.00”}",
			want: map[string]string{"vendor": "Café Rio", "total": "$7.00"},
			item: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, verdict := newTestRecoverer(t).Recover(tt.raw, constants.KindReceipt)

			assert.Equal(t, OutcomeStructural, verdict.Outcome)
			assert.True(t, verdict.HasSignal)
			for k, v := range tt.want {
				assert.Equal(t, v, rec[k], k)
			}
			for _, f := range ScalarFields(constants.KindReceipt) {
				assert.Contains(t, rec, f)
			}
			assert.Equal(t, tt.item, rec[ItemsField])
		})
	}
}

func TestRecover_NoBracesGivesPlaceholder(t *testing.T) {
	raw := "I'm sorry, I can't read the text in this image."

	t.Run("receipt", func(t *testing.T) {
		rec, verdict := newTestRecoverer(t).Recover(raw, constants.KindReceipt)

		assert.Equal(t, Verdict{HasSignal: false, Outcome: OutcomePlaceholder}, verdict)
		assert.Equal(t, constants.UnknownParty, rec["vendor"])
		assert.Equal(t, "2024-03-05", rec["date"])
		assert.Equal(t, "", rec["total"])
		assert.Equal(t, []any{constants.ParseFailedItem}, rec[ItemsField])
	})

	t.Run("invoice", func(t *testing.T) {
		rec, verdict := newTestRecoverer(t).Recover(raw, constants.KindInvoice)

		assert.Equal(t, Verdict{HasSignal: false, Outcome: OutcomePlaceholder}, verdict)
		assert.Equal(t, constants.UnknownParty, rec["supplier"])
		assert.Equal(t, "2024-03-05", rec["date"])
		items := rec.Items()
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		assert.Equal(t, constants.ParseFailedItem, item["description"])
		for _, f := range ItemFields() {
			assert.Contains(t, item, f)
		}
	})
}

func TestRecover_PatternExtraction(t *testing.T) {
	// missing commas and the closing brace defeat the structural parser
	raw := `{"supplier": "Sysco", "invoice_number": "INV-1" "items": [{"description": "Tomatoes", "unit_price": "$3.50" "unit_type": "case"}, {"description": "x"}]`

	rec, verdict := newTestRecoverer(t).Recover(raw, constants.KindInvoice)

	assert.Equal(t, Verdict{HasSignal: true, Outcome: OutcomePatternExtracted}, verdict)
	assert.Equal(t, "Sysco", rec["supplier"])
	assert.Equal(t, "INV-1", rec["invoice_number"])
	assert.Equal(t, "", rec["date"])
	assert.Equal(t, []any{
		map[string]any{
			"description": "Tomatoes",
			"quantity":    "",
			"unit_type":   "case",
			"unit_price":  "$3.50",
			"total_price": "",
			"sku":         "",
		},
	}, rec[ItemsField])
}

func TestRecover_PatternExtractionReceiptObjectItems(t *testing.T) {
	raw := `{"vendor": "Corner Shop", "items": [{"name": "Milk", "price": "$2.00"}, {"name": "Bread", "price": "$2.50"}], oops`

	rec, verdict := newTestRecoverer(t).Recover(raw, constants.KindReceipt)

	assert.True(t, verdict.HasSignal)
	assert.Equal(t, OutcomePatternExtracted, verdict.Outcome)
	assert.Equal(t, "Corner Shop", rec["vendor"])
	assert.Equal(t, []any{"Milk", "Bread"}, rec[ItemsField])
}

func TestObjectSegments(t *testing.T) {
	segs := objectSegments(`{"name": "a", "x": {"y": 1}}, {"description": "bc"`)
	assert.Equal(t, []string{`{"name": "a", "x": {"y": 1}}`, `{"description": "bc"`}, segs)
	assert.Equal(t, []any{"Toast"}, receiptItemsByPattern(`{"description": "Toast", "price": "$1"}, {"name": "ab"}`))
}

func TestRecover_AggressiveRepair(t *testing.T) {
	raw := "Result: {vendor: 'Corner Store', total: 12.50, items: ['milk', 'eggs']}"

	rec, verdict := newTestRecoverer(t).Recover(raw, constants.KindReceipt)

	assert.Equal(t, Verdict{HasSignal: true, Outcome: OutcomeRepaired}, verdict)
	assert.Equal(t, "Corner Store", rec["vendor"])
	assert.Equal(t, "12.50", rec["total"])
	assert.Equal(t, []any{"milk", "eggs"}, rec[ItemsField])
}

func TestRecover_UnparseableWithBracesFallsToPlaceholder(t *testing.T) {
	rec, verdict := newTestRecoverer(t).Recover("{ ??? }", constants.KindReceipt)

	assert.Equal(t, OutcomePlaceholder, verdict.Outcome)
	assert.False(t, verdict.HasSignal)
	assert.Equal(t, constants.UnknownParty, rec["vendor"])
}

func TestRecover_UnknownKindDefaultsToReceipt(t *testing.T) {
	rec, _ := Recover(`{"vendor": "Target", "total": "$5"}`, constants.DocumentKind("bogus"))

	assert.Equal(t, "Target", rec["vendor"])
	assert.Contains(t, rec, "card_last_four")
}

func TestRecover_KeepsExtraKeys(t *testing.T) {
	rec, verdict := Recover(`{"vendor": "Target", "currency": " USD\n"}`, constants.KindReceipt)

	assert.Equal(t, OutcomeStructural, verdict.Outcome)
	assert.Equal(t, "USD", rec["currency"])
}
