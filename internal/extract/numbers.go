// Package extract holds the pure field extractors: pattern matching that
// turns raw page text and attributes into typed values, with ordered
// fallback rules and no browser or DOM dependencies.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	floatRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	intRe   = regexp.MustCompile(`(\d+)`)
)

// ParseFloat pulls the first decimal number out of s. A comma decimal
// separator is tolerated. Returns false when no number is present.
func ParseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	m := floatRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseCount pulls the first integer out of s, ignoring thousands separators
// and embedded spaces ("1,234" and "1 234" both parse as 1234).
func ParseCount(s string) (int, bool) {
	s = strings.NewReplacer(",", "", " ", "", " ", "").Replace(strings.TrimSpace(s))
	m := intRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}
