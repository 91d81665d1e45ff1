package location

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.Vietnamese)

// Unaccent strips Vietnamese diacritics, folding đ to d.
func Unaccent(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

// Slugify turns a place or category name into a URL path segment:
// "Cầu Giấy" becomes "cau-giay".
func Slugify(s string) string {
	s = strings.ToLower(Unaccent(strings.TrimSpace(s)))

	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DisplayCase title-cases a place name the Vietnamese way.
func DisplayCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.Join(strings.Fields(s), " ")))
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
