package normalize

import (
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2,5 tỷ", 2_500_000_000, true},
		{"1.200", 1200, true},
		{"67,5", 67.5, true},
		{"3.5 tỷ", 3_500_000_000, true},
		{"1.234.567", 1_234_567, true},
		{"1,234,567", 1_234_567, true},
		{"1.234,5", 1234.5, true},
		{"850 triệu", 850_000_000, true},
		{"15tr", 15_000_000, true},
		{"85m2", 85, true},
		{"120 m²", 120, true},
		{"2 tỷ 500 triệu", 2_500_000_000, true},
		{"Giá: 4,2 tỉ", 4_200_000_000, true},
		{"-5 triệu", 0, false},
		{"0", 0, false},
		{"", 0, false},
		{"không rõ", 0, false},
	}

	for _, tt := range tests {
		got, ok := Number(tt.in)
		if ok != tt.ok {
			t.Fatalf("Number(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if ok && math.Abs(got-tt.want) > 1e-6 {
			t.Fatalf("Number(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPriceNegotiable(t *testing.T) {
	for _, in := range []string{"Thỏa thuận", "Giá thoả thuận", "Liên hệ 0912345678", "thương lượng"} {
		if _, ok := Price(in); ok {
			t.Fatalf("Price(%q) should be absent", in)
		}
		if !IsNegotiable(in) {
			t.Fatalf("IsNegotiable(%q) = false", in)
		}
	}

	got, ok := Price("3,5 tỷ")
	if !ok || got != 3_500_000_000 {
		t.Fatalf("Price(3,5 tỷ) = %v, %v", got, ok)
	}
}

func TestNumberDecomposedInput(t *testing.T) {
	in := "2 ty\u0309"
	got, ok := Number(in)
	if !ok || got != 2_000_000_000 {
		t.Fatalf("Number(decomposed) = %v, %v", got, ok)
	}
}
