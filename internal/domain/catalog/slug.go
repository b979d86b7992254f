package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9 ]+`)
	spaces  = regexp.MustCompile(`\s+`)
)

// Slugify derives a filesystem/URL-safe name from a title: diacritics
// removed, lowercased, only alphanumerics kept, whitespace collapsed to
// hyphens. "Año Nuevo" -> "ano-nuevo".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.TrimSpace(strings.ToLower(folded))
	folded = nonSlug.ReplaceAllString(folded, "")
	return spaces.ReplaceAllString(folded, "-")
}
