package location

const (
	CityHanoi  = "Hà Nội"
	CityHCM    = "Hồ Chí Minh"
	CityDanang = "Đà Nẵng"
)

var districtsByCity = map[string][]string{
	CityHanoi: {
		"Ba Đình", "Hoàn Kiếm", "Tây Hồ", "Long Biên", "Cầu Giấy", "Đống Đa",
		"Hai Bà Trưng", "Hoàng Mai", "Thanh Xuân", "Nam Từ Liêm", "Bắc Từ Liêm",
		"Hà Đông", "Sơn Tây", "Ba Vì", "Chương Mỹ", "Đan Phượng", "Đông Anh",
		"Gia Lâm", "Hoài Đức", "Mê Linh", "Mỹ Đức", "Phú Xuyên", "Phúc Thọ",
		"Quốc Oai", "Sóc Sơn", "Thạch Thất", "Thanh Oai", "Thanh Trì",
		"Thường Tín", "Ứng Hòa",
	},
	CityHCM: {
		"Quận 1", "Quận 2", "Quận 3", "Quận 4", "Quận 5", "Quận 6", "Quận 7", "Quận 8",
		"Quận 9", "Quận 10", "Quận 11", "Quận 12", "Bình Thạnh", "Phú Nhuận", "Gò Vấp",
		"Tân Bình", "Tân Phú", "Bình Tân", "Thủ Đức", "Bình Chánh", "Nhà Bè",
		"Hóc Môn", "Củ Chi", "Cần Giờ",
	},
	CityDanang: {
		"Hải Châu", "Thanh Khê", "Sơn Trà", "Ngũ Hành Sơn", "Liên Chiểu",
		"Cẩm Lệ", "Hòa Vang",
	},
}

// Well-known projects and neighbourhoods that imply a district.
var landmarks = map[string]string{
	"mỹ đình":               "Nam Từ Liêm",
	"keangnam":              "Nam Từ Liêm",
	"smart city":            "Nam Từ Liêm",
	"vinhomes smart city":   "Nam Từ Liêm",
	"times city":            "Hai Bà Trưng",
	"royal city":            "Thanh Xuân",
	"vinhomes riverside":    "Long Biên",
	"ocean park":            "Gia Lâm",
	"vinhomes ocean park":   "Gia Lâm",
	"linh đàm":              "Hoàng Mai",
	"văn quán":              "Hà Đông",
	"hồ tây":                "Tây Hồ",
	"ciputra":               "Tây Hồ",
	"goldmark city":         "Bắc Từ Liêm",
	"phú mỹ hưng":           "Quận 7",
	"thảo điền":             "Thủ Đức",
	"vinhomes grand park":   "Thủ Đức",
	"landmark 81":           "Bình Thạnh",
	"vinhomes central park": "Bình Thạnh",
}

var cityAliases = map[string][]string{
	CityHanoi:  {"hà nội", "ha noi", "hanoi", "hn"},
	CityHCM:    {"hồ chí minh", "ho chi minh", "tp.hcm", "tp hcm", "tphcm", "hcm", "sài gòn", "sai gon", "saigon"},
	CityDanang: {"đà nẵng", "da nang", "danang"},
}
