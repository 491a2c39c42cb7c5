package outline

import "strings"

// Slug derives a URL fragment from a heading title.
//
// The title is lower-cased, every character outside [a-z0-9-] becomes a
// hyphen, hyphen runs collapse to one, and a single leading and trailing
// hyphen is removed.
func Slug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	s := strings.TrimPrefix(b.String(), "-")
	return strings.TrimSuffix(s, "-")
}
