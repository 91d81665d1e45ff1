package intent

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"bds_scrooper/location"
	"bds_scrooper/models"
	"bds_scrooper/normalize"
)

type keyword struct {
	canonical string
	variants  []string
}

// Longest first so "chung cư mini" wins over "chung cư".
var propertyTypes = []keyword{
	{"căn hộ dịch vụ", []string{"căn hộ dịch vụ", "can ho dich vu"}},
	{"chung cư mini", []string{"chung cư mini", "chung cu mini"}},
	{"nhà mặt phố", []string{"nhà mặt phố", "nha mat pho"}},
	{"nhà mặt tiền", []string{"nhà mặt tiền", "nha mat tien"}},
	{"nhà liền kề", []string{"nhà liền kề", "nha lien ke"}},
	{"đất dịch vụ", []string{"đất dịch vụ", "dat dich vu"}},
	{"văn phòng", []string{"văn phòng", "van phong"}},
	{"shophouse", []string{"shophouse"}},
	{"nhà riêng", []string{"nhà riêng", "nha rieng"}},
	{"biệt thự", []string{"biệt thự", "biet thu"}},
	{"chung cư", []string{"chung cư", "chung cu"}},
	{"đất nền", []string{"đất nền", "dat nen"}},
	{"liền kề", []string{"liền kề", "lien ke"}},
	{"nhà ngõ", []string{"nhà ngõ", "nha ngo"}},
	{"nhà đất", []string{"nhà đất", "nha dat"}},
	{"căn hộ", []string{"căn hộ", "can ho"}},
	{"đất", []string{"đất"}},
}

var featureKeywords = []keyword{
	{"full nội thất", []string{"full nội thất", "full noi that"}},
	{"kinh doanh", []string{"kinh doanh", "kinh doanh được"}},
	{"ô tô", []string{"ô tô", "oto", "ôtô", "o to"}},
	{"view hồ", []string{"view hồ", "view ho"}},
	{"lô góc", []string{"lô góc", "lo goc"}},
	{"thang máy", []string{"thang máy", "thang may"}},
	{"ban công", []string{"ban công", "ban cong"}},
	{"sổ đỏ", []string{"sổ đỏ", "so do", "sổ hồng"}},
	{"chính chủ", []string{"chính chủ", "chinh chu"}},
	{"hồ bơi", []string{"hồ bơi", "bể bơi"}},
	{"gần trường", []string{"gần trường", "gan truong"}},
	{"cao cấp", []string{"cao cấp", "cao cap"}},
	{"giá rẻ", []string{"giá rẻ", "gia re"}},
}

const priceUnit = `(tỷ|tỉ|triệu|trieu|ty|tr)`

var (
	bedroomRe    = regexp.MustCompile(`(\d+)\s*(pn|phòng ngủ|phong ngu)`)
	priceRangeRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*-\s*(\d+(?:[.,]\d+)?)\s*` + priceUnit)
	priceUnderRe = regexp.MustCompile(`(?:dưới|duoi|không quá|tối đa|<)\s*(\d+(?:[.,]\d+)?)\s*` + priceUnit)
	priceOverRe  = regexp.MustCompile(`(?:trên|tren|hơn|tối thiểu|>)\s*(\d+(?:[.,]\d+)?)\s*` + priceUnit)
	areaRangeRe  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*-\s*(\d+(?:[.,]\d+)?)\s*(m2|m²)`)
)

// Fallback extracts an intent from query with keyword and regex scans.
// It cannot fail; unmatched fields stay empty.
func Fallback(query string) models.SearchIntent {
	intent := models.NewSearchIntent()
	q := strings.ToLower(norm.NFC.String(query))

	intent.PropertyType = firstKeyword(q, propertyTypes)
	intent.District = location.ExtractDistrict(q)

	if m := bedroomRe.FindStringSubmatch(q); m != nil {
		if n, ok := normalize.Number(m[1]); ok {
			b := int(n)
			intent.Bedrooms = &b
		}
	}

	if m := priceRangeRe.FindStringSubmatch(q); m != nil {
		lo, okLo := amount(m[1], m[3])
		hi, okHi := amount(m[2], m[3])
		if okLo && okHi {
			intent.PriceMin = &lo
			intent.PriceMax = &hi
			intent.PriceText = fmt.Sprintf("%s-%s %s", m[1], m[2], m[3])
		}
	} else if m := priceUnderRe.FindStringSubmatch(q); m != nil {
		if v, ok := amount(m[1], m[2]); ok {
			intent.PriceMax = &v
			intent.PriceText = fmt.Sprintf("dưới %s %s", m[1], m[2])
		}
	} else if m := priceOverRe.FindStringSubmatch(q); m != nil {
		if v, ok := amount(m[1], m[2]); ok {
			intent.PriceMin = &v
			intent.PriceText = fmt.Sprintf("trên %s %s", m[1], m[2])
		}
	}

	if m := areaRangeRe.FindStringSubmatch(q); m != nil {
		lo, okLo := normalize.Number(m[1])
		hi, okHi := normalize.Number(m[2])
		if okLo && okHi {
			intent.AreaMin = &lo
			intent.AreaMax = &hi
		}
	}

	if strings.Contains(q, "thuê") || location.ContainsWord(q, "thue") {
		intent.Intent = models.IntentRent
	}

	if city := location.DetectCity(q); city != "" {
		intent.City = city
	} else if city := location.CityOf(intent.District); city != "" {
		intent.City = city
	}

	for _, f := range featureKeywords {
		for _, v := range f.variants {
			if location.ContainsWord(q, v) {
				intent.Features = append(intent.Features, f.canonical)
				break
			}
		}
	}

	intent.Keywords = []string{query}
	return intent
}

func firstKeyword(q string, list []keyword) string {
	for _, k := range list {
		for _, v := range k.variants {
			if location.ContainsWord(q, v) {
				return k.canonical
			}
		}
	}
	return ""
}

// amount converts a number and a tỷ/triệu unit into VND.
func amount(num, unit string) (int64, bool) {
	v, ok := normalize.Number(num + " " + unit)
	if !ok {
		return 0, false
	}
	return int64(math.Round(v)), true
}
