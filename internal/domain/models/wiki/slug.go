package wiki

import (
	"strings"
	"unicode"
)

// Slugify derives the URL-safe identifier of a title: lowercase, runs of
// whitespace become one hyphen, punctuation is stripped, repeated hyphens
// collapse and leading/trailing hyphens are trimmed. It is pure and
// deterministic, so equal titles always share a slug.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		default:
			// punctuation is dropped without introducing a separator
		}
	}

	return b.String()
}
