package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"bds_scrooper/models"
)

func TestDedupe(t *testing.T) {
	in := []models.Listing{
		{Title: "Bán nhà Ba Đình 3,5 tỷ", SourceURL: "https://batdongsan.com.vn/pr1"},
		{Title: "Nhà riêng khác hẳn", SourceURL: "https://batdongsan.com.vn/pr1"},
		{Title: "  BÁN NHÀ BA ĐÌNH 3,5 TỶ", SourceURL: "https://nha.chotot.com/1.htm"},
		{Title: "Căn hộ Hoàng Mai", SourceURL: "https://mogi.vn/2"},
		{},
		{},
	}

	out := Dedupe(in)
	if len(out) != 4 {
		t.Fatalf("expected 4 listings, got %d: %+v", len(out), out)
	}
	if out[0].Title != "Bán nhà Ba Đình 3,5 tỷ" || out[1].SourceURL != "https://mogi.vn/2" {
		t.Fatalf("first occurrence not kept in order: %+v", out)
	}

	again := Dedupe(out)
	if len(again) != len(out) {
		t.Fatalf("dedupe is not idempotent: %d then %d", len(out), len(again))
	}
}

func TestDedupeEmpty(t *testing.T) {
	if out := Dedupe(nil); len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}

func titlePrefix(title string) string {
	t := strings.TrimSpace(strings.ToLower(title))
	if utf8.RuneCountInString(t) > 50 {
		t = string([]rune(t)[:50])
	}
	return t
}

func TestDedupeNoSharedTitlePrefix(t *testing.T) {
	pad := strings.Repeat(" ", 45)
	in := []models.Listing{
		{Title: "Bán nhà" + pad + "Cầu Giấy", SourceURL: "https://batdongsan.com.vn/pr1"},
		{Title: "Bán nhà" + pad + "Hoàng Mai", SourceURL: "https://batdongsan.com.vn/pr2"},
		{Title: "bán nhà ba đình", SourceURL: "https://mogi.vn/1"},
		{Title: "Bán nhà Ba Đình ", SourceURL: "https://mogi.vn/2"},
		{Title: "Bán nhà Ba Đình", SourceURL: "https://mogi.vn/1"},
	}

	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 listings, got %d: %+v", len(out), out)
	}

	urls := map[string]bool{}
	prefixes := map[string]bool{}
	for _, l := range out {
		if l.SourceURL != "" {
			if urls[l.SourceURL] {
				t.Fatalf("duplicate URL %s", l.SourceURL)
			}
			urls[l.SourceURL] = true
		}
		if p := titlePrefix(l.Title); p != "" {
			if prefixes[p] {
				t.Fatalf("duplicate title prefix %q", p)
			}
			prefixes[p] = true
		}
	}
}
