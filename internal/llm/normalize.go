package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/receipts-monitor/constants"
)

// Normalize gives rec the expected shape for kind: every scalar field is
// present as a string, items is a list (strings for receipts, objects with
// every item field for invoices). Unknown keys are kept.
func Normalize(rec Record, kind constants.DocumentKind) Record {
	out := make(Record, len(rec)+len(ScalarFields(kind))+1)
	for k, v := range rec {
		out[k] = v
	}
	for _, f := range ScalarFields(kind) {
		out[f] = scalarString(rec[f])
	}
	if kind == constants.KindInvoice {
		out[ItemsField] = normalizeInvoiceItems(rec[ItemsField])
	} else {
		out[ItemsField] = normalizeReceiptItems(rec[ItemsField])
	}
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []any{t}
	default:
		return []any{t}
	}
}

func normalizeReceiptItems(v any) []any {
	list := asList(v)
	out := make([]any, 0, len(list))
	for _, it := range list {
		switch t := it.(type) {
		case map[string]any:
			// some models answer {"name": ..., "price": ...} per item
			name := scalarString(t["name"])
			if name == "" {
				name = scalarString(t["description"])
			}
			if name == "" {
				name = scalarString(t)
			}
			out = append(out, name)
		default:
			out = append(out, scalarString(t))
		}
	}
	return out
}

func normalizeInvoiceItems(v any) []any {
	list := asList(v)
	out := make([]any, 0, len(list))
	for _, it := range list {
		var src map[string]any
		switch t := it.(type) {
		case map[string]any:
			src = t
		case Record:
			src = t
		default:
			src = map[string]any{"description": it}
		}
		item := make(map[string]any, len(src)+len(itemFields))
		for k, x := range src {
			item[k] = x
		}
		for _, f := range itemFields {
			item[f] = scalarString(src[f])
		}
		out = append(out, item)
	}
	return out
}
