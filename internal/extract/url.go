package extract

import (
	"net/url"
	"strings"
	"unicode"
)

// CanonicalItemURL reduces an item detail-page URL to its global identity
// key: scheme + host + first path segment, with query, fragment, and any
// trailing path segments stripped. Returns "" for URLs with no path slug.
func CanonicalItemURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	slug := FirstPathSegment(u.Path)
	if slug == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/" + slug
}

// FirstPathSegment returns the first path segment of p, trimmed of slashes.
func FirstPathSegment(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return strings.TrimSpace(p)
}

// NameFromSlug derives a display name from a URL slug when the link carried
// no usable text: "email-marketing-pro" becomes "Email Marketing Pro".
func NameFromSlug(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
