package llm

import (
	"github.com/joseph-ayodele/receipts-monitor/constants"
)

const ReceiptPrompt = `Please analyze this receipt image and extract the following information in JSON format:
{
    "vendor": "business name",
    "date": "YYYY-MM-DD format",
    "total": "total amount including currency symbol",
    "subtotal": "subtotal before tax",
    "tax": "tax amount",
    "payment_method": "cash/card/etc",
    "card_last_four": "last 4 digits of credit card if visible (e.g., '1234')",
    "category": "food/gas/retail/etc",
    "items": ["list of individual items if visible"]
}

Look for credit card numbers that appear as: ****1234, xxxx1234, or similar patterns.
Return only the JSON object, no other text.`

const InvoicePrompt = `Please analyze this supplier invoice image and extract detailed item pricing information in JSON format:
{
    "supplier": "supplier/vendor name",
    "invoice_number": "invoice number",
    "date": "YYYY-MM-DD format",
    "total": "total invoice amount including currency symbol",
    "tax": "tax amount if visible",
    "items": [
        {
            "description": "item name/description",
            "quantity": "quantity ordered",
            "unit_type": "unit of measure (each, case, lb, kg, etc)",
            "unit_price": "price per unit including currency symbol",
            "total_price": "total for this line item",
            "sku": "product code/SKU if visible"
        }
    ]
}

Focus on extracting individual item details with their specific prices. Look for line items, product codes, quantities, units and unit prices. This is for tracking supplier pricing data.
Return only the JSON object, no other text.`

// PromptFor returns the extraction prompt for kind.
func PromptFor(kind constants.DocumentKind) string {
	if kind == constants.KindInvoice {
		return InvoicePrompt
	}
	return ReceiptPrompt
}
