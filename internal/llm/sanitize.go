package llm

import (
	"regexp"
	"strings"
)

var (
	reFence = regexp.MustCompile("(?i)```[a-z0-9_+-]*")
	// "Here is the data:", "Sure! Here's the receipt:", "Based on the image:" etc.
	rePreamble = regexp.MustCompile(`(?im)^[ \t]*(?:(?:sure|okay|ok|certainly)[!,.]?[ \t]*)?(?:here['\x{2019}]s|here is|the|based on|below is)\b[^{}\n]*:[ \t]*$`)
)

// SanitizeText strips markdown fences and commentary preambles from raw
// model output and trims the result. It never fails.
func SanitizeText(raw string) string {
	s := reFence.ReplaceAllString(raw, "")
	s = rePreamble.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
