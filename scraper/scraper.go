// Package scraper drives a sequential run over the category catalogue.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/config"
	"github.com/aluiziolira/go-scrape-jumia/fetch"
	"github.com/aluiziolira/go-scrape-jumia/metrics"
	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/aluiziolira/go-scrape-jumia/pipeline"
	"github.com/google/uuid"
)

// Scraper runs categories one after another over a single fetcher.
type Scraper struct {
	cfg     *config.Config
	runner  *CategoryRunner
	pacer   Pacer
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// New builds a scraper. The fetcher is not closed by the scraper.
func New(fetcher fetch.Fetcher, processor *pipeline.Processor, pacer Pacer, cfg *config.Config, m *metrics.Metrics) *Scraper {
	if pacer == nil {
		pacer = SleepPacer{}
	}
	return &Scraper{
		cfg:     cfg,
		runner:  NewCategoryRunner(fetcher, processor, pacer, cfg.PageDelay, m),
		pacer:   pacer,
		metrics: m,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run scrapes every category in order. A failing category is logged,
// counted and skipped. The result is always returned; the error is
// non-nil only when ctx was canceled before the run completed.
func (s *Scraper) Run(ctx context.Context, categories []models.CategorySpec) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := pipeline.NewRun(s.now(), s.cfg.DedupeCacheSize)
	if err != nil {
		return nil, err
	}
	runID := s.newID()
	specs := config.ApplyPageOverride(categories, s.cfg.PageOverride)

	slog.Info("run started",
		slog.String("run_id", runID),
		slog.Int("categories", len(specs)),
		slog.Int("expected_products", config.ExpectedProducts(specs)),
	)

	var runErr error
	for i, spec := range specs {
		if i > 0 {
			if err := s.pacer.Wait(ctx, s.cfg.CategoryDelay); err != nil {
				runErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		slog.Info("category started",
			slog.String("category", spec.Key),
			slog.String("name", spec.Name),
			slog.Int("pages", spec.Pages),
		)
		if err := s.runCategory(ctx, run, spec); err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			run.Stats.Errors++
			s.metrics.AddErrors("category", "failed", 1)
			markFailed(run, spec)
			slog.Error("category failed",
				slog.String("category", spec.Key),
				slog.Any("error", err),
			)
			continue
		}
		run.Stats.CategoriesProcessed++

		if res := run.Categories[spec.Key]; res != nil {
			slog.Info("category finished",
				slog.String("category", spec.Key),
				slog.String("state", string(res.State)),
				slog.Int("products", res.ProductsFound),
				slog.Int("last_page", res.PagesScraped),
			)
		}
	}

	result := run.Result(runID, s.now())
	slog.Info("run finished",
		slog.String("run_id", runID),
		slog.Int("products", result.Stats.TotalProducts),
		slog.Int("categories", result.Stats.CategoriesProcessed),
		slog.Int("pages", result.Stats.PagesScraped),
		slog.Int("errors", result.Stats.Errors),
		slog.Duration("duration", result.Stats.Duration),
	)
	return result, runErr
}

func (s *Scraper) runCategory(ctx context.Context, run *pipeline.Run, spec models.CategorySpec) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("category %s panicked: %v", spec.Key, r)
		}
	}()
	return s.runner.Run(ctx, run, spec)
}

func markFailed(run *pipeline.Run, spec models.CategorySpec) {
	res, ok := run.Categories[spec.Key]
	if !ok {
		res = &models.CategoryResult{Name: spec.Name}
	}
	res.State = models.CategoryFailed
	run.SetCategory(spec.Key, res)
}

// IsCanceled reports whether err ended a run early.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
