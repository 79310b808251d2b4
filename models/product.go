// Package models defines data structures for the scraper.
package models

import "time"

// PriceTier is a coarse price bucket used for comparative analysis.
type PriceTier string

const (
	TierBudget   PriceTier = "Budget"
	TierMidRange PriceTier = "Mid-range"
	TierPremium  PriceTier = "Premium"
)

// ProductFragment is one raw product listing as it appears on a category page.
// Text fields are empty when the corresponding element is absent.
type ProductFragment struct {
	Name         string
	PriceText    string
	OldPriceText string
	Link         string
	Page         int
	CategoryKey  string
}

// CategorySpec describes one category to crawl.
type CategorySpec struct {
	Key              string `yaml:"key" validate:"required,excludesall=/?#"`
	Name             string `yaml:"name" validate:"required"`
	Pages            int    `yaml:"pages" validate:"gte=1"`
	ExpectedProducts int    `yaml:"expected_products" validate:"gte=0"`
}

// WithPages returns a copy using n pages. The expected product count is scaled
// to the new page count. Values below 1 leave the spec untouched.
func (c CategorySpec) WithPages(n int) CategorySpec {
	if n < 1 || n == c.Pages {
		return c
	}
	out := c
	if c.Pages > 0 {
		out.ExpectedProducts = c.ExpectedProducts * n / c.Pages
	}
	out.Pages = n
	return out
}

// ProductRecord is a normalized, validated product entry.
type ProductRecord struct {
	ID              string    `json:"product_id"`
	Name            string    `json:"product_name"`
	Brand           string    `json:"brand"`
	Model           string    `json:"model"`
	Category        string    `json:"category"`
	CategoryKey     string    `json:"category_key"`
	CurrentPrice    float64   `json:"current_price"`
	OriginalPrice   *float64  `json:"original_price"`
	DiscountPercent float64   `json:"discount_percent"`
	PriceTier       PriceTier `json:"price_tier"`
	ValueScore      float64   `json:"value_score"`
	OnSale          bool      `json:"is_on_sale"`
	URL             string    `json:"url"`
	ScrapedDate     string    `json:"scraped_date"`
	ScrapedTime     string    `json:"scraped_time"`
	ScrapedAt       time.Time `json:"scraped_timestamp"`
}
