package pipeline

import (
	"math"
	"sort"

	"github.com/aluiziolira/go-scrape-jumia/models"
)

// DataSummary aggregates the records of a run.
type DataSummary struct {
	TotalProducts  int        `json:"total_products"`
	Categories     int        `json:"categories"`
	Brands         int        `json:"brands"`
	AvgPrice       float64    `json:"avg_price"`
	PriceRange     [2]float64 `json:"price_range"`
	ProductsOnSale int        `json:"products_on_sale"`
	AvgDiscount    float64    `json:"avg_discount"`
}

// CategoryAnalysis holds per-category price statistics.
type CategoryAnalysis struct {
	Category       string
	Count          int
	MeanPrice      float64
	MinPrice       float64
	MaxPrice       float64
	MeanDiscount   float64
	MeanValueScore float64
}

// Summarize computes run-wide figures. AvgDiscount only covers discounted
// products.
func Summarize(records []*models.ProductRecord) DataSummary {
	s := DataSummary{TotalProducts: len(records)}
	if len(records) == 0 {
		return s
	}

	categories := make(map[string]struct{})
	brands := make(map[string]struct{})
	var priceSum, discountSum float64
	s.PriceRange = [2]float64{math.Inf(1), math.Inf(-1)}

	for _, rec := range records {
		categories[rec.Category] = struct{}{}
		brands[rec.Brand] = struct{}{}
		priceSum += rec.CurrentPrice
		s.PriceRange[0] = math.Min(s.PriceRange[0], rec.CurrentPrice)
		s.PriceRange[1] = math.Max(s.PriceRange[1], rec.CurrentPrice)
		if rec.DiscountPercent > 0 {
			s.ProductsOnSale++
			discountSum += rec.DiscountPercent
		}
	}

	s.Categories = len(categories)
	s.Brands = len(brands)
	s.AvgPrice = round2(priceSum / float64(len(records)))
	if s.ProductsOnSale > 0 {
		s.AvgDiscount = round2(discountSum / float64(s.ProductsOnSale))
	}
	return s
}

// AnalyzeCategories groups records by category name, sorted by name.
func AnalyzeCategories(records []*models.ProductRecord) []CategoryAnalysis {
	groups := make(map[string]*CategoryAnalysis)
	sums := make(map[string]*[3]float64)

	for _, rec := range records {
		g, ok := groups[rec.Category]
		if !ok {
			g = &CategoryAnalysis{
				Category: rec.Category,
				MinPrice: rec.CurrentPrice,
				MaxPrice: rec.CurrentPrice,
			}
			groups[rec.Category] = g
			sums[rec.Category] = &[3]float64{}
		}
		g.Count++
		g.MinPrice = math.Min(g.MinPrice, rec.CurrentPrice)
		g.MaxPrice = math.Max(g.MaxPrice, rec.CurrentPrice)
		sum := sums[rec.Category]
		sum[0] += rec.CurrentPrice
		sum[1] += rec.DiscountPercent
		sum[2] += rec.ValueScore
	}

	out := make([]CategoryAnalysis, 0, len(groups))
	for name, g := range groups {
		sum := sums[name]
		n := float64(g.Count)
		g.MeanPrice = round2(sum[0] / n)
		g.MeanDiscount = round2(sum[1] / n)
		g.MeanValueScore = round2(sum[2] / n)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
