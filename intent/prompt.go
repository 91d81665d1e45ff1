package intent

import "strings"

const promptTemplate = `Phân tích query tìm kiếm bất động sản và trả về JSON:

Query: {{QUERY}}

Trả về CHÍNH XÁC JSON format (không có text khác):
{
    "property_type": "chung cư (hoặc nhà riêng, đất nền... CHỌN 1 LOẠI DUY NHẤT)",
    "location": {
        "city": "Hà Nội | Hồ Chí Minh | Đà Nẵng",
        "district": "tên quận/huyện hoặc null",
        "ward": "tên phường/xã hoặc null",
        "street": "tên đường hoặc null"
    },
    "price": {
        "min": số_tiền_VND_hoặc_null,
        "max": số_tiền_VND_hoặc_null,
        "text": "text giá như 2-3 tỷ"
    },
    "area": {
        "min": số_m2_hoặc_null,
        "max": số_m2_hoặc_null
    },
    "bedrooms": số_hoặc_null,
    "bathrooms": số_hoặc_null,
    "features": ["tiện ích như ô tô, kinh doanh, view hồ"],
    "requirements": ["yêu cầu khác của người dùng"],
    "intent": "mua | thuê"
}

Lưu ý quan trọng:
- 1 tỷ = 1000000000, 1 triệu = 1000000
- Quận/Huyện Hà Nội: Cầu Giấy, Đống Đa, Ba Đình, Hoàn Kiếm, Thanh Xuân, Hai Bà Trưng, Long Biên, Tây Hồ, Nam Từ Liêm, Bắc Từ Liêm, Hà Đông, Hoàng Mai, etc.
- Quận TP.HCM: Quận 1, Quận 3, Quận 7, Bình Thạnh, Phú Nhuận, Gò Vấp, Thủ Đức, etc.
- NẾU query có tên quận/huyện, PHẢI điền vào "district"
`

// BuildPrompt renders the extraction prompt for query.
func BuildPrompt(query string) string {
	return strings.Replace(promptTemplate, "{{QUERY}}", strings.TrimSpace(query), 1)
}
