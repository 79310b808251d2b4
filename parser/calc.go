package parser

import (
	"math"

	"github.com/aluiziolira/go-scrape-jumia/models"
)

const (
	baseValueScore   = 50.0
	maxDiscountBonus = 30.0
	discountWeight   = 0.6
)

// DiscountPercent returns the markdown from original to current, rounded to
// two decimals. It is 0 when there is no original price above current.
func DiscountPercent(current float64, original *float64) float64 {
	if original == nil || *original <= current {
		return 0
	}
	return round2((*original - current) / *original * 100)
}

// ClassifyTier buckets a price using the category thresholds. Both
// thresholds are inclusive upper bounds.
func ClassifyTier(current float64, categoryKey string) models.PriceTier {
	p := ProfileFor(categoryKey)
	switch {
	case current <= p.BudgetMax:
		return models.TierBudget
	case current <= p.PremiumMax:
		return models.TierMidRange
	default:
		return models.TierPremium
	}
}

// ValueScore blends discount depth and absolute price into a 0-100 score.
// The original price does not influence the score.
func ValueScore(current float64, _ *float64, discount float64) float64 {
	score := baseValueScore + math.Min(discount*discountWeight, maxDiscountBonus) + priceBonus(current)
	return round2(math.Max(0, math.Min(100, score)))
}

func priceBonus(current float64) float64 {
	switch {
	case current < 1000:
		return 20
	case current < 3000:
		return 10
	case current < 5000:
		return 0
	default:
		return -10
	}
}
