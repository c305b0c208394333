package handler

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxSlugLen is the width of the slug columns (VARCHAR(191)).
const maxSlugLen = 191

// Slugify lower-cases s, strips accents and joins the remaining letters
// and digits with single dashes: "Herräng Dance Camp" -> "herrang-dance-camp".
// The result is at most maxSlugLen characters.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return truncateSlug(b.String(), maxSlugLen)
}

// truncateSlug cuts an ASCII slug to n characters without a trailing dash.
func truncateSlug(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-")
}
