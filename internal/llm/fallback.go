package llm

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipts-monitor/constants"
)

// strategy is one fallback tier; ok=false passes control to the next tier.
type strategy struct {
	outcome Outcome
	attempt func(raw string, kind constants.DocumentKind) (Record, bool)
}

// fallbackChain is attempted in order; the placeholder tier always succeeds.
func (r *Recoverer) fallbackChain() []strategy {
	return []strategy{
		{outcome: OutcomePatternExtracted, attempt: extractByPattern},
		{outcome: OutcomeRepaired, attempt: repairAggressively},
		{outcome: OutcomePlaceholder, attempt: r.placeholder},
	}
}

var (
	reQuotedString = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
	reItemsOpen    = regexp.MustCompile(`"items"\s*:\s*\[`)
	reDescription  = regexp.MustCompile(`"description"\s*:`)

	fieldPatterns = map[string]*regexp.Regexp{}
)

func init() {
	for _, f := range append(append(append(append([]string{}, receiptFields...), invoiceFields...), itemFields...), "name") {
		if _, ok := fieldPatterns[f]; ok {
			continue
		}
		fieldPatterns[f] = regexp.MustCompile(`"` + regexp.QuoteMeta(f) + `"\s*:\s*(?:"((?:[^"\\]|\\.)*)"|([^,}\]\n]+))`)
	}
}

// matchField pulls one field value out of text by pattern, quoted or bare.
func matchField(text, field string) string {
	m := fieldPatterns[field].FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[1] != "" || m[2] == "" {
		return unquote(m[1])
	}
	bare := strings.TrimSpace(m[2])
	if strings.EqualFold(bare, "null") {
		return ""
	}
	return bare
}

func unquote(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// itemsSpan returns the text between "items": [ and its matching ], or to
// the end of text when the list is never closed.
func itemsSpan(text string) (string, bool) {
	loc := reItemsOpen.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	body := text[loc[1]:]
	depth := 1
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return body[:i], true
			}
		}
	}
	return body, true
}

// extractByPattern recovers known fields independently of overall
// structural validity.
func extractByPattern(raw string, kind constants.DocumentKind) (Record, bool) {
	if !strings.Contains(raw, "{") {
		return nil, false
	}
	text := NormalizeTypography(raw)

	rec := Record{}
	found := false
	for _, f := range ScalarFields(kind) {
		v := CleanString(matchField(text, f))
		rec[f] = v
		if len(v) > 0 {
			found = true
		}
	}

	items := []any{}
	if span, ok := itemsSpan(text); ok {
		if kind == constants.KindInvoice {
			items = invoiceItemsByPattern(span)
		} else {
			items = receiptItemsByPattern(span)
		}
	}
	rec[ItemsField] = items
	if len(items) > 0 {
		found = true
	}
	return rec, found
}

func invoiceItemsByPattern(span string) []any {
	locs := reDescription.FindAllStringIndex(span, -1)
	items := make([]any, 0, len(locs))
	for i, loc := range locs {
		end := len(span)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		// look back to the opening brace so fields listed before description count
		start := strings.LastIndexByte(span[:loc[0]], '{')
		if start < 0 || (i > 0 && start < locs[i-1][1]) {
			start = loc[0]
		}
		segment := span[start:end]

		desc := CleanString(matchField(segment, "description"))
		if len(desc) <= 2 {
			continue
		}
		item := map[string]any{}
		for _, f := range itemFields {
			item[f] = CleanString(matchField(segment, f))
		}
		item["description"] = desc
		items = append(items, item)
	}
	return items
}

func receiptItemsByPattern(span string) []any {
	if strings.ContainsRune(span, '{') {
		return receiptObjectItems(span)
	}
	var items []any
	for _, m := range reQuotedString.FindAllStringSubmatch(span, -1) {
		if v := CleanString(unquote(m[1])); len(v) > 2 {
			items = append(items, v)
		}
	}
	return items
}

// receiptObjectItems reads [{"name": ...}, ...] item lists, keeping only the
// name (or description) of each object.
func receiptObjectItems(span string) []any {
	var items []any
	for _, seg := range objectSegments(span) {
		name := CleanString(matchField(seg, "name"))
		if name == "" {
			name = CleanString(matchField(seg, "description"))
		}
		if len(name) > 2 {
			items = append(items, name)
		}
	}
	return items
}

// objectSegments splits span into its top-level {...} pieces. An object
// left open runs to the end of span.
func objectSegments(span string) []string {
	var segs []string
	depth, start := 0, -1
	for i := 0; i < len(span); i++ {
		switch span[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				segs = append(segs, span[start:i+1])
				start = -1
			}
		}
	}
	if start >= 0 {
		segs = append(segs, span[start:])
	}
	return segs
}

var (
	reSingleQuotedToken = regexp.MustCompile(`([{,\[:]\s*)'([^'"]*)'(\s*[:,}\]])`)
	reBareKey           = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	reBareValue         = regexp.MustCompile(`(:\s*)([^\s"{\[][^,}\]\n"]*?)(\s*[,}\]\n])`)
	reLiteral           = regexp.MustCompile(`^(?:true|false|null|-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)$`)
	reTrailingComma     = regexp.MustCompile(`,\s*([}\]])`)
)

// repairAggressively re-parses the widest {...} span after quoting bare
// keys and values and dropping emphasis and trailing commas.
func repairAggressively(raw string, _ constants.DocumentKind) (Record, bool) {
	first := strings.IndexByte(raw, '{')
	last := strings.LastIndexByte(raw, '}')
	if first < 0 || last <= first {
		return nil, false
	}
	s := NormalizeTypography(raw[first : last+1])
	s = strings.ReplaceAll(s, "*", "")
	s = replaceUntilStable(reSingleQuotedToken, s, `$1"$2"$3`)
	s = reBareKey.ReplaceAllString(s, `$1"$2"$3`)
	s = reBareValue.ReplaceAllStringFunc(s, func(m string) string {
		sub := reBareValue.FindStringSubmatch(m)
		val := strings.TrimSpace(sub[2])
		if reLiteral.MatchString(val) {
			return m
		}
		return sub[1] + `"` + strings.ReplaceAll(val, `"`, `\"`) + `"` + sub[3]
	})
	s = reTrailingComma.ReplaceAllString(s, "$1")
	s = reSpaces.ReplaceAllString(s, " ")

	rec, err := ParseStructure(s)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// replaceUntilStable reapplies re because matches that share a delimiter
// (['a', 'b']) cannot all be replaced in one pass.
func replaceUntilStable(re *regexp.Regexp, s, repl string) string {
	for {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			return s
		}
		s = next
	}
}

// placeholder produces the minimal record used when nothing was recovered.
func (r *Recoverer) placeholder(_ string, kind constants.DocumentKind) (Record, bool) {
	date := r.now().Format(constants.DateLayout)
	if kind == constants.KindInvoice {
		return Record{
			"supplier": constants.UnknownParty,
			"date":     date,
			ItemsField: []any{
				map[string]any{"description": constants.ParseFailedItem},
			},
		}, true
	}
	return Record{
		"vendor":   constants.UnknownParty,
		"date":     date,
		ItemsField: []any{constants.ParseFailedItem},
	}, true
}

func defaultNow() time.Time { return time.Now() }
