// Package textutil provides Unicode normalization and slug derivation for
// TSETMC display text. Industry and company names arrive with Persian
// zero-width joiners and directionality marks that break both CSV readers
// and file names, so all display text is routed through Normalize before it
// is persisted anywhere.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxSlugLen caps slug length so derived file names stay portable.
const maxSlugLen = 120

// SlugFallback is returned by Slugify when nothing survives sanitization.
const SlugFallback = "unknown"

var invisibleReplacer = strings.NewReplacer(
	"\u200c", " ", // zero-width non-joiner
	"\u200e", " ", // left-to-right mark
	"\u200f", " ", // right-to-left mark
)

// Normalize canonicalizes s to NFKC form, replaces zero-width and
// directionality marks with spaces, collapses whitespace runs and trims the
// ends. It is pure and idempotent; empty input yields empty output.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = invisibleReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Slugify derives a filesystem-safe name component from s: Normalize, strip
// every rune that is not a word character, whitespace or hyphen, replace
// whitespace runs with underscores and truncate to 120 runes. An empty
// result falls back to SlugFallback.
func Slugify(s string) string {
	s = Normalize(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isWordRune(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "_")
	if runes := []rune(slug); len(runes) > maxSlugLen {
		slug = string(runes[:maxSlugLen])
	}
	if slug == "" {
		return SlugFallback
	}
	return slug
}

// isWordRune reports whether r belongs to the word character class
// (letters, digits, underscore) in the Unicode-aware sense.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
