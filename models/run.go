package models

import "time"

// CategoryState tracks where a category is in its page loop.
type CategoryState string

const (
	CategoryPending      CategoryState = "pending"
	CategoryRunning      CategoryState = "running"
	CategoryCompleted    CategoryState = "completed"
	CategoryEarlyStopped CategoryState = "early_stopped"
	CategoryFailed       CategoryState = "failed"
)

// RunStats holds the counters of one scraping run.
type RunStats struct {
	StartTime           time.Time     `json:"start_time"`
	EndTime             time.Time     `json:"end_time"`
	Duration            time.Duration `json:"-"`
	TotalProducts       int           `json:"total_products"`
	CategoriesProcessed int           `json:"categories_processed"`
	PagesScraped        int           `json:"pages_scraped"`
	Errors              int           `json:"errors"`
}

// Finalize stamps the end of the run.
func (s *RunStats) Finalize(end time.Time, totalProducts int) {
	s.EndTime = end
	s.Duration = end.Sub(s.StartTime)
	s.TotalProducts = totalProducts
}

// CategoryResult summarizes one category once its page loop is over.
// PagesScraped is the last page whose products were processed.
type CategoryResult struct {
	Name           string        `json:"name"`
	ProductsFound  int           `json:"products_found"`
	PagesScraped   int           `json:"pages_scraped"`
	PagesAttempted int           `json:"pages_attempted"`
	State          CategoryState `json:"state"`
}

// RunResult is everything a run hands to persistence.
type RunResult struct {
	RunID      string
	Records    []*ProductRecord
	Stats      RunStats
	Categories map[string]*CategoryResult
	Order      []string
}
