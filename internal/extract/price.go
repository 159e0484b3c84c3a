package extract

import (
	"regexp"
	"strings"
)

// Fixed free-tier phrases recognized verbatim before any numeric matching.
var freePhrases = []string{"Free to install", "Free plan"}

var (
	pricePeriodRe = regexp.MustCompile(`(?i)(?:From\s*)?\$\s*\d+(?:\.\d+)?\s*(?:/|\sper\s)\s*(?:month|mo|year|yr)`)
	priceBareRe   = regexp.MustCompile(`(?i)(?:From\s*)?\$\s*\d+(?:\.\d+)?`)
)

// Price extracts a raw pricing string from visible page text. Free-tier
// phrases win over any dollar amount on the page; a price with a billing
// period wins over a bare price. Returns "" when nothing matches.
func Price(text string) string {
	for _, phrase := range freePhrases {
		if strings.Contains(text, phrase) {
			return phrase
		}
	}
	if m := pricePeriodRe.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	if m := priceBareRe.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return ""
}
