package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-jumia/models"
)

// Selectors of a Jumia listing page.
const (
	ProductSelector  = "article.prd"
	nameSelector     = "h3.name"
	priceSelector    = "div.prc"
	oldPriceSelector = "div.old"
	linkSelector     = "a.core"
)

// ExtractFragments reads every product card under root.
func ExtractFragments(root *goquery.Selection, categoryKey string, page int) []models.ProductFragment {
	cards := root.Find(ProductSelector)
	fragments := make([]models.ProductFragment, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		link, _ := card.Find(linkSelector).First().Attr("href")
		fragments = append(fragments, models.ProductFragment{
			Name:         firstText(card, nameSelector),
			PriceText:    firstText(card, priceSelector),
			OldPriceText: firstText(card, oldPriceSelector),
			Link:         strings.TrimSpace(link),
			Page:         page,
			CategoryKey:  categoryKey,
		})
	})
	return fragments
}

// ExtractHTML parses a rendered page and extracts its fragments.
func ExtractHTML(html, categoryKey string, page int) ([]models.ProductFragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return ExtractFragments(doc.Selection, categoryKey, page), nil
}

func firstText(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}
