package scraper

import (
	"fmt"

	"bds_scrooper/config"
	"bds_scrooper/location"
	"bds_scrooper/models"
)

// batdongsanURL targets the district listing page when the district is
// known, otherwise the city page: /ban-can-ho-chung-cu-cau-giay/p2.
func batdongsanURL(cfg *config.PlatformConfig, intent models.SearchIntent, page int) string {
	place := regionSlug(cfg, intent.City)
	guess := intent.City == "" || location.SameCity(intent.City, location.CityHanoi)
	if d := districtSlug(cfg, intent.District, guess); d != "" {
		place = d
	}

	u := fmt.Sprintf("%s/%s-%s-%s", cfg.Origin, transactionSlug(cfg, intent), categorySlug(cfg, intent.PropertyType), place)
	if page > 1 {
		u = fmt.Sprintf("%s/p%d", u, page)
	}
	return u
}
