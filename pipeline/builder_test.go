package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/models"
)

func fixedBuilder() *Builder {
	b := NewBuilder("https://www.jumia.ma", "JUM")
	b.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	return b
}

func TestBuilderBuild(t *testing.T) {
	b := fixedBuilder()
	fragment := models.ProductFragment{
		Name:         "  Samsung Galaxy A14 4GB RAM 64GB ",
		PriceText:    "1,499.00 Dhs",
		OldPriceText: "1,999.00 Dhs",
		Link:         "/samsung-galaxy-a14.html",
		Page:         1,
		CategoryKey:  "telephones-smartphones",
	}

	rec, err := b.Build(fragment, "Smartphones", 7)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if rec.ID != "JUM_0007" {
		t.Fatalf("id = %q, want JUM_0007", rec.ID)
	}
	if rec.Name != "Samsung Galaxy A14 4GB RAM 64GB" {
		t.Fatalf("name = %q", rec.Name)
	}
	if rec.Brand != "Samsung" || rec.Model != "Galaxy A14 4  64" {
		t.Fatalf("brand/model = %q/%q", rec.Brand, rec.Model)
	}
	if rec.CurrentPrice != 1499 || rec.OriginalPrice == nil || *rec.OriginalPrice != 1999 {
		t.Fatalf("prices = %v/%v", rec.CurrentPrice, rec.OriginalPrice)
	}
	if rec.DiscountPercent != 25.01 || !rec.OnSale {
		t.Fatalf("discount = %v on sale = %v", rec.DiscountPercent, rec.OnSale)
	}
	if rec.PriceTier != models.TierBudget {
		t.Fatalf("tier = %q, want Budget", rec.PriceTier)
	}
	// 50 + min(25.01*0.6, 30) + 10
	if rec.ValueScore != 75.01 {
		t.Fatalf("value score = %v, want 75.01", rec.ValueScore)
	}
	if rec.URL != "https://www.jumia.ma/samsung-galaxy-a14.html" {
		t.Fatalf("url = %q", rec.URL)
	}
	if rec.Category != "Smartphones" || rec.CategoryKey != "telephones-smartphones" {
		t.Fatalf("category = %q/%q", rec.Category, rec.CategoryKey)
	}
	if rec.ScrapedDate != "2025-03-14" || rec.ScrapedTime != "09:26:53" {
		t.Fatalf("timestamps = %q %q", rec.ScrapedDate, rec.ScrapedTime)
	}
	if !rec.ScrapedAt.Equal(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)) {
		t.Fatalf("scraped at = %v", rec.ScrapedAt)
	}
}

func TestBuilderRejectsMissingPrice(t *testing.T) {
	b := fixedBuilder()
	for _, price := range []string{"", "0", "0.00 Dhs", "N/A", "Prix sur demande"} {
		fragment := models.ProductFragment{
			Name:         "HP Laptop 15",
			PriceText:    price,
			OldPriceText: "5,000 Dhs",
			Link:         "/bad%zz",
			CategoryKey:  "ordinateurs-pc",
		}
		rec, err := b.Build(fragment, "Laptops & Computers", 1)
		if !errors.Is(err, ErrRejected) || rec != nil {
			t.Fatalf("price %q: got %v, %v; want rejection", price, rec, err)
		}
	}
}

func TestBuilderOriginalPriceAbsence(t *testing.T) {
	b := fixedBuilder()
	tests := []struct {
		name string
		old  string
	}{
		{name: "missing", old: ""},
		{name: "zero", old: "0 Dhs"},
		{name: "below current", old: "900"},
		{name: "equal to current", old: "1,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := b.Build(models.ProductFragment{Name: "Bosch Kettle", PriceText: "1,000", OldPriceText: tt.old}, "Home Appliances", 1)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if rec.OriginalPrice != nil {
				t.Fatalf("original price = %v, want nil", *rec.OriginalPrice)
			}
			if rec.DiscountPercent != 0 || rec.OnSale {
				t.Fatalf("discount = %v on sale = %v", rec.DiscountPercent, rec.OnSale)
			}
		})
	}
}

func TestBuilderDefaults(t *testing.T) {
	b := fixedBuilder()
	rec, err := b.Build(models.ProductFragment{PriceText: "250", CategoryKey: "mlp-electromenager"}, "Home Appliances", 12345)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// The placeholder name doubles as the brand, leaving an empty model.
	if rec.Name != "N/A" || rec.Brand != "N/A" || rec.Model != "" {
		t.Fatalf("name/brand/model = %q/%q/%q", rec.Name, rec.Brand, rec.Model)
	}
	if rec.URL != "" {
		t.Fatalf("url = %q, want empty", rec.URL)
	}
	if rec.ID != "JUM_12345" {
		t.Fatalf("id = %q", rec.ID)
	}
}

func TestBuilderInvalidLink(t *testing.T) {
	b := fixedBuilder()
	_, err := b.Build(models.ProductFragment{Name: "LG Fridge", PriceText: "4,000", Link: "/bad%zz"}, "Home Appliances", 1)
	if err == nil || errors.Is(err, ErrRejected) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestBuilderRecoversPanics(t *testing.T) {
	b := fixedBuilder()
	b.now = func() time.Time { panic("clock failure") }
	rec, err := b.Build(models.ProductFragment{Name: "LG Fridge", PriceText: "4,000"}, "Home Appliances", 1)
	if rec != nil || err == nil {
		t.Fatalf("expected recovered error, got %v, %v", rec, err)
	}
}
