package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeClient struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Send(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestParseUsesModel(t *testing.T) {
	client := &fakeClient{reply: "```json\n" + `{
		"property_type": "Nhà riêng",
		"location": {"city": "TP.HCM", "district": "quận 7"},
		"price": {"min": 3000000000, "max": "5 tỷ", "text": "3-5 tỷ"},
		"area": {"min": "60m2", "max": null},
		"bedrooms": "3",
		"features": ["ô tô"],
		"intent": "mua"
	}` + "\n```"}
	p := NewParser(client, time.Second, nil)

	got := p.Parse(context.Background(), "nhà riêng quận 7 3-5 tỷ")

	if !strings.Contains(client.prompt, "nhà riêng quận 7 3-5 tỷ") {
		t.Fatal("prompt does not embed the query")
	}
	if got.PropertyType != "nhà riêng" {
		t.Fatalf("property type = %q", got.PropertyType)
	}
	if got.District != "Quận 7" || got.City != "Hồ Chí Minh" {
		t.Fatalf("location = %q, %q", got.District, got.City)
	}
	if got.PriceMin == nil || *got.PriceMin != 3_000_000_000 || got.PriceMax == nil || *got.PriceMax != 5_000_000_000 {
		t.Fatalf("price = %v-%v", got.PriceMin, got.PriceMax)
	}
	if got.AreaMin == nil || *got.AreaMin != 60 || got.AreaMax != nil {
		t.Fatalf("area = %v-%v", got.AreaMin, got.AreaMax)
	}
	if got.Bedrooms == nil || *got.Bedrooms != 3 {
		t.Fatalf("bedrooms = %v", got.Bedrooms)
	}
	if len(got.Keywords) != 1 {
		t.Fatalf("keywords = %v", got.Keywords)
	}
}

func TestParseFallsBackOnModelError(t *testing.T) {
	p := NewParser(&fakeClient{err: errors.New("timeout")}, time.Second, nil)
	got := p.Parse(context.Background(), "chung cư Cầu Giấy dưới 5 tỷ 2 phòng ngủ")
	if got.District != "Cầu Giấy" || got.PriceMax == nil {
		t.Fatalf("fallback not used: %+v", got)
	}
}

func TestParseFallsBackOnGarbage(t *testing.T) {
	p := NewParser(&fakeClient{reply: "Xin lỗi, tôi không thể giúp."}, time.Second, nil)
	got := p.Parse(context.Background(), "đất nền Long Biên 30-50m2")
	if got.PropertyType != "đất nền" || got.District != "Long Biên" {
		t.Fatalf("fallback not used: %+v", got)
	}
}

func TestParseRejectsWrongShape(t *testing.T) {
	p := NewParser(&fakeClient{reply: `{"location": "Cầu Giấy", "price": {"max": 5000000000}}`}, time.Second, nil)
	got := p.Parse(context.Background(), "nhà Đống Đa")
	if got.District != "Đống Đa" {
		t.Fatalf("schema violation should fall back, got %+v", got)
	}
	if got.PriceMax != nil {
		t.Fatalf("model price leaked through invalid payload: %v", *got.PriceMax)
	}
}

func TestParseEmptyIntentFallsBack(t *testing.T) {
	p := NewParser(&fakeClient{reply: `{"property_type": "chung cư", "location": {"district": null}, "price": {}}`}, time.Second, nil)
	got := p.Parse(context.Background(), "chung cư Thanh Xuân 3 phòng ngủ")
	if got.District != "Thanh Xuân" || got.Bedrooms == nil || *got.Bedrooms != 3 {
		t.Fatalf("fallback not used: %+v", got)
	}
}

func TestParseBackfillsDistrict(t *testing.T) {
	p := NewParser(&fakeClient{reply: `{"property_type": "biệt thự", "price": {"max": 20000000000}, "bedrooms": 5}`}, time.Second, nil)
	got := p.Parse(context.Background(), "biệt thự Tây Hồ view hồ dưới 20 tỷ")
	if got.District != "Tây Hồ" {
		t.Fatalf("district not backfilled: %q", got.District)
	}
	if got.Bedrooms == nil || *got.Bedrooms != 5 {
		t.Fatalf("model fields lost: %+v", got)
	}
}

func TestParseWithoutClient(t *testing.T) {
	got := NewParser(nil, 0, nil).Parse(context.Background(), "")
	if got.Intent != "mua" || got.City != "Hà Nội" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := map[string]string{
		"empty":        "",
		"emoji":        "🏠🏠🔥💰",
		"invalid utf8": "nh\xe0 \xff\xfe C\xe1u Gi\xe1y",
		"garbled":      "asdkj 12,,3.4.5 tỷtỷ -- ??? m2m2",
		"whitespace":   " \t\n ",
	}
	replies := []string{"", "{", "null", "[1, 2, 3]", `{"price": {"max": "lots"}, "bedrooms": -2}`}

	for name, query := range inputs {
		for _, reply := range replies {
			p := NewParser(&fakeClient{reply: reply}, time.Second, nil)
			got := p.Parse(context.Background(), query)
			if got.Intent != "mua" && got.Intent != "thuê" {
				t.Fatalf("%s with reply %q: intent = %q", name, reply, got.Intent)
			}
			if got.City == "" {
				t.Fatalf("%s with reply %q: empty city", name, reply)
			}
		}
	}
}

func TestFromPayloadRoundsDecimalPrices(t *testing.T) {
	got := FromPayload(map[string]any{"price": map[string]any{"min": "1,15 tỷ", "max": "4,1 tỷ"}})
	if got.PriceMin == nil || *got.PriceMin != 1_150_000_000 {
		t.Fatalf("price min = %v", got.PriceMin)
	}
	if got.PriceMax == nil || *got.PriceMax != 4_100_000_000 {
		t.Fatalf("price max = %v", got.PriceMax)
	}
}
