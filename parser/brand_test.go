package parser

import (
	"strings"
	"testing"
)

func TestInferBrand(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		category string
		expected string
	}{
		{name: "dictionary match", product: "Samsung Galaxy A14", category: "telephones-smartphones", expected: "Samsung"},
		{name: "case insensitive", product: "xiaomi redmi note 12", category: "telephones-smartphones", expected: "Xiaomi"},
		{name: "returns dictionary casing", product: "Apple IPHONE 13 128GB", category: "telephones-smartphones", expected: "iPhone"},
		// List order is the tie-break: HP precedes Dell in the tech list.
		{name: "list order beats name order", product: "Dell Inspiron 15 HP Edition", category: "ordinateurs-pc", expected: "HP"},
		{name: "tv list order", product: "LG Samsung Combo", category: "tv-home-cinema-lecteurs", expected: "Samsung"},
		{name: "gaming brands in computer category", product: "Razer Blade 14", category: "ordinateurs-pc", expected: "Razer"},
		{name: "unknown category uses all brands", product: "Razer Blade", category: "unknown-cat", expected: "Razer"},
		{name: "first word fallback", product: "Tecno Spark 10 Pro", category: "telephones-smartphones", expected: "Tecno"},
		{name: "fallback truncated", product: "Supercalifragilisticexpialidocious Blender", category: "mlp-electromenager", expected: "Supercalifragilistic"},
		{name: "empty name", product: "", category: "ordinateurs-pc", expected: UnknownBrand},
		{name: "blank name", product: "   ", category: "ordinateurs-pc", expected: UnknownBrand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferBrand(tt.product, tt.category); got != tt.expected {
				t.Errorf("InferBrand(%q, %q) = %q, want %q", tt.product, tt.category, got, tt.expected)
			}
		})
	}
}

func TestInferModel(t *testing.T) {
	long := strings.Repeat("x", 150)

	tests := []struct {
		name     string
		product  string
		brand    string
		expected string
	}{
		{name: "strips brand and stop words", product: "HP Laptop 15 Intel Core i5 8GB RAM 512GB SSD", brand: "HP", expected: "15 Intel Core i5 8  512"},
		{name: "stop words inside tokens", product: "Samsung Galaxy A14 4GB RAM 64GB", brand: "Samsung", expected: "Galaxy A14 4  64"},
		{name: "lower case stop words", product: "Sony 55 inch tv Bravia", brand: "Sony", expected: "55   Bravia"},
		{name: "unknown brand", product: "Generic Fan", brand: UnknownBrand, expected: "Generic Fan"},
		{name: "unknown brand truncated", product: long, brand: UnknownBrand, expected: long[:100]},
		{name: "brand absent from name", product: "Galaxy A14", brand: "Samsung", expected: "Galaxy A14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferModel(tt.product, tt.brand); got != tt.expected {
				t.Errorf("InferModel(%q, %q) = %q, want %q", tt.product, tt.brand, got, tt.expected)
			}
		})
	}
}

// Brand detection ignores case but model extraction does not, so an
// upper-case brand in the name survives into the model.
func TestBrandCaseAsymmetry(t *testing.T) {
	name := "SAMSUNG Galaxy A14"
	brand := InferBrand(name, "telephones-smartphones")
	if brand != "Samsung" {
		t.Fatalf("brand = %q, want Samsung", brand)
	}
	if got := InferModel(name, brand); got != name {
		t.Fatalf("model = %q, want full name %q", got, name)
	}
}

func TestProfileForDefault(t *testing.T) {
	p := ProfileFor("does-not-exist")
	if p.BudgetMax != 1000 || p.PremiumMax != 5000 {
		t.Fatalf("default thresholds = %v/%v, want 1000/5000", p.BudgetMax, p.PremiumMax)
	}
	if p.Brands[0] != "HP" || p.Brands[len(p.Brands)-1] != "Logitech" {
		t.Fatalf("default brand order = %v", p.Brands)
	}
	seen := make(map[string]bool)
	for _, b := range p.Brands {
		if seen[b] {
			t.Fatalf("duplicate brand %q in default profile", b)
		}
		seen[b] = true
	}
}
