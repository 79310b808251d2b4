package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/fetch"
	"github.com/aluiziolira/go-scrape-jumia/metrics"
	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/aluiziolira/go-scrape-jumia/pipeline"
)

// CategoryRunner walks the pages of one category.
type CategoryRunner struct {
	fetcher   fetch.Fetcher
	processor *pipeline.Processor
	pacer     Pacer
	pageDelay time.Duration
	metrics   *metrics.Metrics
}

// NewCategoryRunner returns a runner that waits pageDelay between pages.
func NewCategoryRunner(fetcher fetch.Fetcher, processor *pipeline.Processor, pacer Pacer, pageDelay time.Duration, m *metrics.Metrics) *CategoryRunner {
	return &CategoryRunner{
		fetcher:   fetcher,
		processor: processor,
		pacer:     pacer,
		pageDelay: pageDelay,
		metrics:   m,
	}
}

// Run fetches pages 1..spec.Pages, stopping early at the first page without
// products. A failed fetch skips the page. Accepted records are appended to
// run after each page. The category result is recorded in run on return,
// including when the loop panics. Only context cancellation is returned as
// an error.
func (r *CategoryRunner) Run(ctx context.Context, run *pipeline.Run, spec models.CategorySpec) error {
	result := &models.CategoryResult{
		Name:  spec.Name,
		State: models.CategoryPending,
	}
	defer func() {
		run.SetCategory(spec.Key, result)
	}()

	result.State = models.CategoryRunning
	for page := 1; page <= spec.Pages; page++ {
		if page > 1 {
			if err := r.pacer.Wait(ctx, r.pageDelay); err != nil {
				result.State = models.CategoryFailed
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			result.State = models.CategoryFailed
			return err
		}

		result.PagesAttempted = page
		fragments, err := r.fetcher.FetchPage(ctx, spec.Key, page)
		if err != nil {
			if ctx.Err() != nil {
				result.State = models.CategoryFailed
				return ctx.Err()
			}
			label := fetch.ErrorLabel(err)
			run.Stats.Errors++
			r.metrics.IncPage(spec.Key, "failed")
			r.metrics.AddErrors("page", label, 1)
			slog.Error("page fetch failed",
				slog.String("category", spec.Key),
				slog.Int("page", page),
				slog.String("error_type", label),
				slog.Any("error", err),
			)
			continue
		}

		if len(fragments) == 0 {
			r.metrics.IncPage(spec.Key, "empty")
			slog.Info("no more products",
				slog.String("category", spec.Key),
				slog.Int("page", page),
			)
			result.State = models.CategoryEarlyStopped
			return nil
		}

		report := r.processor.Process(run, fragments, spec)
		run.Append(report.Records)
		run.Stats.PagesScraped++
		result.ProductsFound += len(report.Records)
		result.PagesScraped = page

		r.metrics.IncPage(spec.Key, "scraped")
		r.metrics.AddProducts(spec.Key, len(report.Records))
		r.metrics.AddSkipped("rejected", report.Rejected)
		r.metrics.AddSkipped("duplicate", report.Duplicates)
		r.metrics.AddErrors("item", "build", report.Errors)

		slog.Info("page processed",
			slog.String("category", spec.Key),
			slog.Int("page", page),
			slog.Int("fragments", len(fragments)),
			slog.Int("products", len(report.Records)),
			slog.Int("rejected", report.Rejected),
			slog.Int("total", len(run.Records)),
		)
	}

	result.State = models.CategoryCompleted
	return nil
}
