// Package pipeline builds product records from page fragments and exports
// the results of a run.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-runewidth"
)

// Run is the mutable state of one scraping run. It is owned by the caller
// driving the run and is not safe for concurrent use.
type Run struct {
	Records    []*models.ProductRecord
	Stats      models.RunStats
	Categories map[string]*models.CategoryResult
	Order      []string

	seen *lru.Cache[string, struct{}]
}

// NewRun starts a run at start. A positive dedupeSize enables suppression of
// repeated product URLs, remembering up to that many URLs.
func NewRun(start time.Time, dedupeSize int) (*Run, error) {
	r := &Run{
		Stats:      models.RunStats{StartTime: start},
		Categories: make(map[string]*models.CategoryResult),
	}
	if dedupeSize > 0 {
		cache, err := lru.New[string, struct{}](dedupeSize)
		if err != nil {
			return nil, fmt.Errorf("create dedupe cache: %w", err)
		}
		r.seen = cache
	}
	return r, nil
}

// Append adds accepted records to the run.
func (r *Run) Append(records []*models.ProductRecord) {
	r.Records = append(r.Records, records...)
	r.Stats.TotalProducts = len(r.Records)
}

// SetCategory stores the result for a category, keeping first-seen order.
func (r *Run) SetCategory(key string, result *models.CategoryResult) {
	if _, ok := r.Categories[key]; !ok {
		r.Order = append(r.Order, key)
	}
	r.Categories[key] = result
}

// Result finalizes the stats and snapshots the run.
func (r *Run) Result(runID string, end time.Time) *models.RunResult {
	r.Stats.Finalize(end, len(r.Records))
	records := make([]*models.ProductRecord, len(r.Records))
	copy(records, r.Records)
	categories := make(map[string]*models.CategoryResult, len(r.Categories))
	for k, v := range r.Categories {
		c := *v
		categories[k] = &c
	}
	order := make([]string, len(r.Order))
	copy(order, r.Order)
	return &models.RunResult{
		RunID:      runID,
		Records:    records,
		Stats:      r.Stats,
		Categories: categories,
		Order:      order,
	}
}

func (r *Run) duplicate(url string) bool {
	if r.seen == nil || url == "" {
		return false
	}
	found, _ := r.seen.ContainsOrAdd(url, struct{}{})
	return found
}

// PageReport is the outcome of processing one page.
type PageReport struct {
	Records    []*models.ProductRecord
	Rejected   int
	Duplicates int
	Errors     int
}

// Processor applies the builder to every fragment of a page.
type Processor struct {
	builder *Builder
}

// NewProcessor returns a processor using builder.
func NewProcessor(builder *Builder) *Processor {
	return &Processor{builder: builder}
}

// Process builds records for one page in fragment order. Records are
// numbered after those already in run; failures skip only the fragment
// and count towards run.Stats.Errors. The records are not appended to run.
func (p *Processor) Process(run *Run, fragments []models.ProductFragment, spec models.CategorySpec) PageReport {
	var report PageReport
	for i, fragment := range fragments {
		index := len(run.Records) + len(report.Records) + 1
		rec, err := p.builder.Build(fragment, spec.Name, index)
		switch {
		case errors.Is(err, ErrRejected):
			report.Rejected++
			continue
		case err != nil:
			report.Errors++
			run.Stats.Errors++
			slog.Error("product extraction failed",
				slog.String("category", spec.Key),
				slog.Int("page", fragment.Page),
				slog.Int("position", i+1),
				slog.Any("error", err),
			)
			continue
		}
		if run.duplicate(rec.URL) {
			report.Duplicates++
			continue
		}

		report.Records = append(report.Records, rec)
		slog.Debug("product accepted",
			slog.String("id", rec.ID),
			slog.String("name", runewidth.Truncate(rec.Name, 50, "...")),
			slog.Float64("price", rec.CurrentPrice),
		)
	}
	return report
}
