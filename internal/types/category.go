package types

import "strings"

// Category is one entry from the storefront navigation document.
// Identity is the trimmed, case-folded name.
type Category struct {
	Name        string `json:"name"        mapstructure:"name"`
	URL         string `json:"url"         mapstructure:"url"`
	Description string `json:"description" mapstructure:"description"`
}

// Key returns the category identity used for stats and selection matching.
func (c Category) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// Slug returns a filesystem-safe token derived from the category name.
func (c Category) Slug() string {
	return Slugify(c.Name)
}

// Slugify lowercases a string and collapses runs of non-alphanumerics to a
// single dash. Used for export file names and diagnostic labels.
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "item"
	}
	if len(out) > 90 {
		out = strings.TrimRight(out[:90], "-")
	}
	return out
}
