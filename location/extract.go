// Package location holds the Vietnamese district, landmark and city
// dictionaries and the matching helpers built on them.
package location

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type alias struct {
	variant   string
	canonical string
}

var (
	districtAliases []alias
	landmarkAliases []alias
	cityAliasList   []alias
)

var districtCity = map[string]string{}

// keyed by bareKey
var districtLookup = map[string]string{}

func init() {
	for city, names := range districtsByCity {
		for _, name := range names {
			districtCity[name] = city
			districtLookup[bareKey(name)] = name
			for _, v := range districtVariants(name) {
				districtAliases = append(districtAliases, alias{v, name})
			}
		}
	}
	for lm, district := range landmarks {
		landmarkAliases = append(landmarkAliases, alias{lm, district})
		if u := Unaccent(lm); u != lm {
			landmarkAliases = append(landmarkAliases, alias{u, district})
		}
	}
	for city, names := range cityAliases {
		for _, n := range names {
			cityAliasList = append(cityAliasList, alias{n, city})
		}
	}

	for _, list := range [][]alias{districtAliases, landmarkAliases, cityAliasList} {
		sort.SliceStable(list, func(i, j int) bool {
			li, lj := utf8.RuneCountInString(list[i].variant), utf8.RuneCountInString(list[j].variant)
			if li != lj {
				return li > lj
			}
			return list[i].variant < list[j].variant
		})
	}
}

func districtVariants(name string) []string {
	lower := fold(name)
	if num, ok := strings.CutPrefix(lower, "quận "); ok {
		return []string{lower, "quan " + num, "q." + num, "q. " + num, "q" + num, "district " + num}
	}
	out := []string{lower}
	if u := Unaccent(lower); u != lower {
		out = append(out, u)
	}
	return out
}

// ExtractDistrict finds a district in free text. District names win over
// landmark aliases; within each set the longest match wins.
func ExtractDistrict(text string) string {
	t := fold(text)
	if t == "" {
		return ""
	}
	if d := firstMatch(t, districtAliases); d != "" {
		return d
	}
	return firstMatch(t, landmarkAliases)
}

// ExtractLandmark returns the district implied by a landmark in text.
func ExtractLandmark(text string) string {
	return firstMatch(fold(text), landmarkAliases)
}

// DetectCity returns the canonical city named in text, or "".
func DetectCity(text string) string {
	return firstMatch(fold(text), cityAliasList)
}

// CityOf returns the city a canonical district belongs to.
func CityOf(district string) string {
	return districtCity[district]
}

// CanonicalDistrict maps a raw district name onto the dictionary form,
// title-casing names the dictionary does not know.
func CanonicalDistrict(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if name, ok := districtLookup[bareKey(raw)]; ok {
		return name
	}
	if d := ExtractDistrict(raw); d != "" {
		return d
	}
	return DisplayCase(raw)
}

// CanonicalCity maps a city alias onto its canonical name.
func CanonicalCity(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t := fold(raw)
	t = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(t, "thành phố"), "tp."))
	for _, a := range cityAliasList {
		if a.variant == t {
			return a.canonical
		}
	}
	if c := DetectCity(raw); c != "" {
		return c
	}
	return DisplayCase(raw)
}

// SameCity compares two city names after alias resolution.
func SameCity(a, b string) bool {
	return strings.EqualFold(CanonicalCity(a), CanonicalCity(b))
}

var adminPrefixes = []string{
	"thành phố ", "thị xã ", "quận ", "huyện ", "quan ", "huyen ", "tp. ", "q. ", "q.",
}

// StripAdminPrefix lowercases s and removes a leading administrative
// prefix: "Quận Cầu Giấy" becomes "cầu giấy" and "Q.7" becomes "7".
func StripAdminPrefix(s string) string {
	t := strings.TrimSpace(fold(s))
	for _, p := range adminPrefixes {
		if rest, ok := strings.CutPrefix(t, p); ok {
			return strings.TrimSpace(rest)
		}
	}
	if len(t) > 1 && t[0] == 'q' && t[1] >= '0' && t[1] <= '9' {
		return t[1:]
	}
	return t
}

// IsNumeric reports whether a stripped district name is purely digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func bareKey(s string) string {
	stripped := StripAdminPrefix(s)
	if IsNumeric(stripped) {
		return "quan " + stripped
	}
	return Unaccent(stripped)
}

func firstMatch(text string, list []alias) string {
	for _, a := range list {
		if ContainsWord(text, a.variant) {
			return a.canonical
		}
	}
	return ""
}

// ContainsWord reports whether needle occurs in text delimited by
// non-alphanumeric runes on both sides. Both are expected lowercased NFC.
func ContainsWord(text, needle string) bool {
	from := 0
	for {
		idx := strings.Index(text[from:], needle)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(needle)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		from = start + 1
		for from < len(text) && !utf8.RuneStart(text[from]) {
			from++
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
