package location

import "testing"

func TestExtractDistrict(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"chung cư Cầu Giấy dưới 5 tỷ", "Cầu Giấy"},
		{"ban nha cau giay 3 ty", "Cầu Giấy"},
		{"Nhà phố Quận Nam Từ Liêm", "Nam Từ Liêm"},
		{"căn hộ gần Mỹ Đình", "Nam Từ Liêm"},
		{"Times City 2PN", "Hai Bà Trưng"},
		{"Q.7, TP.HCM", "Quận 7"},
		{"căn hộ quận 10 giá tốt", "Quận 10"},
		{"quận 1, sài gòn", "Quận 1"},
		{"Mỹ Đình, Cầu Giấy", "Cầu Giấy"},
		{"không có địa chỉ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractDistrict(tt.text); got != tt.want {
			t.Fatalf("ExtractDistrict(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractDistrictPrefersLongest(t *testing.T) {
	if got := ExtractDistrict("Bắc Từ Liêm"); got != "Bắc Từ Liêm" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractDistrict("nha rieng bac tu liem"); got != "Bắc Từ Liêm" {
		t.Fatalf("got %q", got)
	}
}

func TestCanonicalDistrict(t *testing.T) {
	tests := map[string]string{
		"cau giay":       "Cầu Giấy",
		"quận đống đa":   "Đống Đa",
		"Q7":             "Quận 7",
		"huyện gia lâm":  "Gia Lâm",
		"phường lạ hoắc": "Phường Lạ Hoắc",
		"":               "",
	}
	for in, want := range tests {
		if got := CanonicalDistrict(in); got != want {
			t.Fatalf("CanonicalDistrict(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCities(t *testing.T) {
	if got := DetectCity("bán nhà Sài Gòn"); got != CityHCM {
		t.Fatalf("DetectCity = %q", got)
	}
	if got := CanonicalCity("TP.HCM"); got != CityHCM {
		t.Fatalf("CanonicalCity = %q", got)
	}
	if !SameCity("Hà Nội", "hanoi") {
		t.Fatal("Hà Nội and hanoi should match")
	}
	if SameCity("Hà Nội", "Đà Nẵng") {
		t.Fatal("Hà Nội and Đà Nẵng should differ")
	}
	if CityOf("Thủ Đức") != CityHCM {
		t.Fatalf("CityOf(Thủ Đức) = %q", CityOf("Thủ Đức"))
	}
}

func TestStripAdminPrefix(t *testing.T) {
	tests := map[string]string{
		"Quận Cầu Giấy": "cầu giấy",
		"Huyện Gia Lâm": "gia lâm",
		"Quận 1":        "1",
		"Q.7":           "7",
		"q10":           "10",
		"Tây Hồ":        "tây hồ",
	}
	for in, want := range tests {
		if got := StripAdminPrefix(in); got != want {
			t.Fatalf("StripAdminPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Cầu Giấy":     "cau-giay",
		"Đống Đa":      "dong-da",
		"Quận 7":       "quan-7",
		"  Hà  Nội ":   "ha-noi",
		"Nam Từ Liêm!": "nam-tu-liem",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
