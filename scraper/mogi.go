package scraper

import (
	"fmt"

	"bds_scrooper/config"
	"bds_scrooper/models"
)

func mogiURL(cfg *config.PlatformConfig, intent models.SearchIntent, page int) string {
	place := regionSlug(cfg, intent.City)
	if d := districtSlug(cfg, intent.District, false); d != "" {
		place = d
	}

	u := fmt.Sprintf("%s/%s/%s-%s", cfg.Origin, place, transactionSlug(cfg, intent), categorySlug(cfg, intent.PropertyType))
	if page > 1 {
		u = fmt.Sprintf("%s?cp=%d", u, page)
	}
	return u
}
