// Package fetch retrieves category pages and extracts raw product fragments.
package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-jumia/models"
)

// Fetcher returns the product fragments of one category page. A page
// without products yields an empty slice and no error; transport failures
// are returned as errors. Implementations are not safe for concurrent use.
type Fetcher interface {
	FetchPage(ctx context.Context, categoryKey string, page int) ([]models.ProductFragment, error)
	Close() error
}

// PageURL builds the listing URL of a category page.
func PageURL(baseURL, categoryKey string, page int) string {
	return fmt.Sprintf("%s/%s/?page=%d", strings.TrimSuffix(baseURL, "/"), categoryKey, page)
}
