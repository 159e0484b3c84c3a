package extract

import "regexp"

var (
	ratingCountRe = regexp.MustCompile(`(?i)(\d(?:\.\d)?)\s*\(\s*([\d,\s]+)\s*(?:reviews|review)?\s*\)`)
	looseCountRe  = regexp.MustCompile(`(?i)([\d,\s]+)\s*reviews?\b`)
	starScaleRe   = regexp.MustCompile(`([0-5](?:\.\d)?)`)
)

// RatingFromLabel parses a rating out of an accessibility label such as
// "4.8 out of 5 stars". Returns false when the label carries no number.
func RatingFromLabel(label string) (float64, bool) {
	return ParseFloat(label)
}

// StarRating parses a 0-5 scale value out of an accessibility label,
// returning the raw matched token ("4.5"). Used for per-review star
// widgets where the value is kept as a string.
func StarRating(label string) string {
	return starScaleRe.FindString(label)
}

// RatingAndCount scans free text for the "<rating> (<count> reviews)"
// pattern. Either return may be absent.
func RatingAndCount(text string) (rating float64, count int, ratingOK, countOK bool) {
	m := ratingCountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false, false
	}
	rating, ratingOK = ParseFloat(m[1])
	count, countOK = ParseCount(m[2])
	return rating, count, ratingOK, countOK
}

// LooseReviewCount falls back to a bare "<count> reviews" pattern anywhere
// in the text.
func LooseReviewCount(text string) (int, bool) {
	m := looseCountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return ParseCount(m[1])
}
