package scraper

import "regexp"

var (
	priceRe   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(tỷ|triệu)`)
	areaRe    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(m²|m2)`)
	bedroomRe = regexp.MustCompile(`(?i)(\d+)\s*(?:pn\b|phòng ngủ)`)
	phoneRe   = regexp.MustCompile(`(0\d{3}[\s.]?\d{3}[\s.]?\d{3}|0\d{2}[\s.]?\d{3}[\s.]?\d{3})`)
)
