// Package identity derives stable listing IDs and classifies source URLs.
package identity

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TitleKeyLength is the rune length of the title prefix used for
// duplicate detection.
const TitleKeyLength = 50

// Tracking parameters that do not change which listing a URL points to.
var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "fbclid", "gclid"}

// listingNamespace scopes listing IDs so they never collide with other
// UUIDv5 users of the same URL.
var listingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bds_scrooper/listing"))

// ListingID returns a deterministic UUIDv5 for a listing URL.
func ListingID(rawURL string) string {
	return uuid.NewSHA1(listingNamespace, []byte(NormalizeURL(rawURL))).String()
}

// NormalizeURL lowercases scheme and host, drops fragments and tracking
// params and trims the trailing slash.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""

	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}

// TitleKey is the first TitleKeyLength runes of the lowercased, trimmed
// title. Inner whitespace is kept as is.
func TitleKey(title string) string {
	t := strings.TrimSpace(strings.ToLower(title))
	if utf8.RuneCountInString(t) <= TitleKeyLength {
		return t
	}
	return string([]rune(t)[:TitleKeyLength])
}

type platformRule struct {
	platform string
	markers  []string
}

var platformRules = []platformRule{
	{"chotot", []string{"chotot.com", "nhatot.com"}},
	{"batdongsan", []string{"batdongsan.com"}},
	{"facebook", []string{"facebook.com"}},
	{"mogi", []string{"mogi.vn"}},
	{"alonhadat", []string{"alonhadat.com"}},
	{"nhadat247", []string{"nhadat247.com"}},
	{"muaban", []string{"muaban.net"}},
	{"news", []string{"vnexpress", "dantri", "cafef", "vietnamnet"}},
	{"video", []string{"youtube", "tiktok"}},
	{"forum", []string{"webtretho", "otofun"}},
}

// DetectPlatform classifies a URL by the site it belongs to.
func DetectPlatform(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, rule := range platformRules {
		for _, m := range rule.markers {
			if strings.Contains(lower, m) {
				return rule.platform
			}
		}
	}
	return "other"
}

var platformPriority = map[string]int{
	"batdongsan": 1,
	"chotot":     1,
	"mogi":       2,
	"alonhadat":  2,
	"nhadat247":  2,
	"muaban":     3,
	"facebook":   3,
}

// PlatformPriority ranks platforms for ordering; lower is better.
func PlatformPriority(platform string) int {
	if p, ok := platformPriority[platform]; ok {
		return p
	}
	return 4
}
