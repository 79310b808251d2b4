// Package config holds run settings and the category catalogue.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrNoCategories is returned for an empty catalogue.
var ErrNoCategories = errors.New("config: no categories")

var validate = validator.New()

// DefaultCategories is the built-in catalogue, in crawl order.
func DefaultCategories() []models.CategorySpec {
	return []models.CategorySpec{
		{Key: "ordinateurs-pc", Name: "Laptops & Computers", Pages: 4, ExpectedProducts: 80},
		{Key: "telephones-smartphones", Name: "Smartphones", Pages: 4, ExpectedProducts: 80},
		{Key: "tv-home-cinema-lecteurs", Name: "Televisions", Pages: 3, ExpectedProducts: 60},
		{Key: "mlp-electromenager", Name: "Home Appliances", Pages: 3, ExpectedProducts: 60},
		{Key: "jeux-videos-consoles", Name: "Gaming", Pages: 2, ExpectedProducts: 40},
	}
}

type catalogueFile struct {
	Categories []models.CategorySpec `yaml:"categories"`
}

// LoadCategories reads a YAML catalogue:
//
//	categories:
//	  - key: ordinateurs-pc
//	    name: Laptops & Computers
//	    pages: 4
//	    expected_products: 80
func LoadCategories(path string) ([]models.CategorySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	if err := ValidateCategories(file.Categories); err != nil {
		return nil, fmt.Errorf("categories file %s: %w", path, err)
	}
	return file.Categories, nil
}

// ValidateCategories checks every spec and rejects duplicate keys.
func ValidateCategories(specs []models.CategorySpec) error {
	if len(specs) == 0 {
		return ErrNoCategories
	}
	seen := make(map[string]struct{}, len(specs))
	for i, spec := range specs {
		if err := validate.Struct(spec); err != nil {
			return fmt.Errorf("category %d (%q): %w", i, spec.Key, err)
		}
		if _, ok := seen[spec.Key]; ok {
			return fmt.Errorf("duplicate category key %q", spec.Key)
		}
		seen[spec.Key] = struct{}{}
	}
	return nil
}

// ApplyPageOverride returns the catalogue with every page count replaced by
// pages. A value below 1 keeps the defaults.
func ApplyPageOverride(specs []models.CategorySpec, pages int) []models.CategorySpec {
	out := make([]models.CategorySpec, len(specs))
	for i, spec := range specs {
		out[i] = spec.WithPages(pages)
	}
	return out
}

// ExpectedProducts sums the informational product estimates.
func ExpectedProducts(specs []models.CategorySpec) int {
	total := 0
	for _, spec := range specs {
		total += spec.ExpectedProducts
	}
	return total
}
