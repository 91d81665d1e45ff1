package models

import (
	"encoding/json"
	"testing"
)

func TestIntentNormalize(t *testing.T) {
	tests := []struct {
		in       SearchIntent
		wantCity string
		wantTx   string
	}{
		{SearchIntent{}, DefaultCity, IntentBuy},
		{SearchIntent{City: "  ", Intent: "Cho Thuê"}, DefaultCity, IntentRent},
		{SearchIntent{City: "Đà Nẵng", Intent: "rent"}, "Đà Nẵng", IntentRent},
		{SearchIntent{City: "Hồ Chí Minh", Intent: "bán"}, "Hồ Chí Minh", IntentBuy},
	}
	for _, tt := range tests {
		got := tt.in.Normalize()
		if got.City != tt.wantCity || got.Intent != tt.wantTx {
			t.Errorf("Normalize(%+v) = %q/%q, want %q/%q", tt.in, got.City, got.Intent, tt.wantCity, tt.wantTx)
		}
	}
}

func TestSearchQuery(t *testing.T) {
	beds := 2
	lo, hi := int64(2e9), int64(3e9)

	tests := []struct {
		name   string
		intent SearchIntent
		want   string
	}{
		{"defaults", NewSearchIntent(), "mua bán"},
		{
			"rent with city",
			SearchIntent{Intent: IntentRent, PropertyType: "căn hộ", Bedrooms: &beds, District: "Quận 7", City: "Hồ Chí Minh"},
			"cho thuê căn hộ 2 phòng ngủ Quận 7 Hồ Chí Minh",
		},
		{
			"price range",
			SearchIntent{Intent: IntentBuy, PropertyType: "nhà riêng", City: DefaultCity, PriceMin: &lo, PriceMax: &hi},
			"mua bán nhà riêng 2.0 tỷ - 3.0 tỷ",
		},
		{
			"price text wins",
			SearchIntent{Intent: IntentBuy, City: DefaultCity, PriceText: "dưới 5 tỷ", PriceMin: &lo, PriceMax: &hi},
			"mua bán dưới 5 tỷ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.intent.SearchQuery(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	cmd := Command{Command: CmdSearchNow, Params: json.RawMessage(`{"query":"đất Đông Anh","platforms":["mogi"],"max_results":5}`)}
	params, err := cmd.ParseParams()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params.Query != "đất Đông Anh" || params.MaxResults != 5 || len(params.Platforms) != 1 {
		t.Fatalf("unexpected params %+v", params)
	}

	empty := Command{Command: CmdPause}
	if params, err := empty.ParseParams(); err != nil || params.Query != "" {
		t.Fatalf("empty params = %+v, %v", params, err)
	}

	bad := Command{Command: CmdSearchNow, Params: json.RawMessage(`{"query":`)}
	if _, err := bad.ParseParams(); err == nil {
		t.Fatal("expected error for truncated params")
	}
}

func TestSetPrice(t *testing.T) {
	var l Listing
	l.SetPrice("3,5 tỷ")
	if l.PriceText != "3,5 tỷ" || l.PriceNumber == nil || *l.PriceNumber != 3.5e9 {
		t.Fatalf("unexpected price %q %v", l.PriceText, l.PriceNumber)
	}
	l.SetPrice("Giá thỏa thuận")
	if l.PriceNumber != nil {
		t.Fatalf("negotiable price should clear the number, got %v", *l.PriceNumber)
	}
}
