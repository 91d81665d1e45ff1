package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bds_scrooper/config"
	"bds_scrooper/models"
)

// chototURL searches within a region and category by free text built from
// the property type and district.
func chototURL(cfg *config.PlatformConfig, intent models.SearchIntent, page int) string {
	q := firstPropertyType(intent.PropertyType)
	if q == "" {
		q = "bất động sản"
	}
	q = strings.TrimSpace(q + " " + intent.District)

	params := url.Values{}
	params.Set("q", q)
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	return fmt.Sprintf("%s/%s/%s-%s?%s",
		cfg.Origin, regionSlug(cfg, intent.City), transactionSlug(cfg, intent), categorySlug(cfg, intent.PropertyType), params.Encode())
}
