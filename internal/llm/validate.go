package llm

import (
	"github.com/joseph-ayodele/receipts-monitor/constants"
)

// Validate reports whether a cleaned record carries any usable signal.
// It is a plausibility check, not a schema check.
func Validate(rec Record, kind constants.DocumentKind) bool {
	party := rec.String(partyField(kind))
	hasParty := party != "" && party != constants.UnknownParty

	if kind == constants.KindInvoice {
		if hasParty {
			return true
		}
		for _, it := range rec.Items() {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			desc, _ := item["description"].(string)
			if len(desc) > 2 && desc != constants.ParseFailedItem {
				return true
			}
		}
		return false
	}
	return hasParty || rec.String("total") != ""
}
