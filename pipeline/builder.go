package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/aluiziolira/go-scrape-jumia/parser"
)

// ErrRejected marks a fragment without a usable current price.
var ErrRejected = errors.New("pipeline: fragment has no price")

// Builder turns fragments into product records.
type Builder struct {
	siteRoot string
	idPrefix string
	now      func() time.Time
}

// NewBuilder returns a builder resolving links against siteRoot and
// numbering records as PREFIX_NNNN.
func NewBuilder(siteRoot, idPrefix string) *Builder {
	return &Builder{
		siteRoot: siteRoot,
		idPrefix: idPrefix,
		now:      time.Now,
	}
}

// Build normalizes a fragment into a record numbered index. It returns
// ErrRejected when the current price is missing or zero.
func (b *Builder) Build(f models.ProductFragment, categoryName string, index int) (rec *models.ProductRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("build product %d: %v", index, r)
		}
	}()

	current := parser.CleanPrice(f.PriceText)
	if current == 0 {
		return nil, ErrRejected
	}

	var original *float64
	if v := parser.CleanPrice(f.OldPriceText); v > current {
		original = &v
	}

	link, err := parser.ResolveURL(b.siteRoot, f.Link)
	if err != nil {
		return nil, fmt.Errorf("build product %d: %w", index, err)
	}

	name := parser.NormalizeName(f.Name)
	brand := parser.InferBrand(name, f.CategoryKey)
	discount := parser.DiscountPercent(current, original)
	now := b.now()

	return &models.ProductRecord{
		ID:              fmt.Sprintf("%s_%04d", b.idPrefix, index),
		Name:            name,
		Brand:           brand,
		Model:           parser.InferModel(name, brand),
		Category:        categoryName,
		CategoryKey:     f.CategoryKey,
		CurrentPrice:    current,
		OriginalPrice:   original,
		DiscountPercent: discount,
		PriceTier:       parser.ClassifyTier(current, f.CategoryKey),
		ValueScore:      parser.ValueScore(current, original, discount),
		OnSale:          discount > 0,
		URL:             link,
		ScrapedDate:     now.Format(time.DateOnly),
		ScrapedTime:     now.Format(time.TimeOnly),
		ScrapedAt:       now,
	}, nil
}
