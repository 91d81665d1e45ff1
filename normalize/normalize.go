// Package normalize converts Vietnamese price and area text into numbers.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var negotiationKeywords = []string{
	"thỏa thuận",
	"thoả thuận",
	"thoa thuan",
	"liên hệ",
	"lien he",
	"thương lượng",
	"thuong luong",
}

type magnitude struct {
	suffix string
	mult   float64
}

// Checked in order against the text following a number.
var magnitudes = []magnitude{
	{"tỷ", 1e9},
	{"tỉ", 1e9},
	{"triệu", 1e6},
	{"trieu", 1e6},
	{"ty", 1e9},
	{"tr", 1e6},
	{"m²", 1},
	{"m2", 1},
}

var numeralRe = regexp.MustCompile(`\d[\d.,]*`)

// IsNegotiable reports whether text carries a "price on request" phrase.
func IsNegotiable(text string) bool {
	t := strings.ToLower(norm.NFC.String(text))
	for _, kw := range negotiationKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// Price is Number with negotiation phrases short-circuiting to false.
func Price(text string) (float64, bool) {
	if IsNegotiable(text) {
		return 0, false
	}
	return Number(text)
}

// Number parses the first numeric value in text, applying a trailing
// magnitude suffix. It returns false for unparseable or non-positive input.
// A billions value directly followed by a millions value ("2 tỷ 500 triệu")
// is summed.
func Number(text string) (float64, bool) {
	t := strings.TrimSpace(strings.ToLower(norm.NFC.String(text)))
	if t == "" {
		return 0, false
	}

	loc := numeralRe.FindStringIndex(t)
	if loc == nil {
		return 0, false
	}
	if strings.ContainsAny(t[:loc[0]], "-−") {
		return 0, false
	}

	value, ok := parseNumeral(t[loc[0]:loc[1]])
	if !ok {
		return 0, false
	}

	rest := strings.TrimSpace(t[loc[1]:])
	mult, rest := suffixMultiplier(rest)
	value *= mult

	if mult == 1e9 {
		if next := numeralRe.FindStringIndex(rest); next != nil && strings.TrimSpace(rest[:next[0]]) == "" {
			if extra, ok := parseNumeral(rest[next[0]:next[1]]); ok {
				tail := strings.TrimSpace(rest[next[1]:])
				if m, _ := suffixMultiplier(tail); m == 1e6 {
					value += extra * 1e6
				}
			}
		}
	}

	if value <= 0 {
		return 0, false
	}
	return value, true
}

func suffixMultiplier(s string) (float64, string) {
	for _, m := range magnitudes {
		if strings.HasPrefix(s, m.suffix) {
			return m.mult, strings.TrimSpace(s[len(m.suffix):])
		}
	}
	return 1, s
}

// parseNumeral resolves comma and dot separators:
//   - both present: dots group thousands, the comma is decimal
//   - commas only: a single comma with at most two trailing digits is
//     decimal, otherwise commas group thousands
//   - dots only: several dots, or one dot with exactly three trailing
//     digits, group thousands, otherwise the dot is decimal
func parseNumeral(tok string) (float64, bool) {
	tok = strings.TrimRight(tok, ".,")
	if tok == "" {
		return 0, false
	}

	commas := strings.Count(tok, ",")
	dots := strings.Count(tok, ".")

	switch {
	case commas > 0 && dots > 0:
		tok = strings.ReplaceAll(tok, ".", "")
		tok = strings.ReplaceAll(tok, ",", ".")
	case commas > 0:
		idx := strings.LastIndex(tok, ",")
		if commas == 1 && len(tok)-idx-1 <= 2 {
			tok = strings.Replace(tok, ",", ".", 1)
		} else {
			tok = strings.ReplaceAll(tok, ",", "")
		}
	case dots > 0:
		idx := strings.LastIndex(tok, ".")
		if dots > 1 || len(tok)-idx-1 == 3 {
			tok = strings.ReplaceAll(tok, ".", "")
		}
	}

	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
