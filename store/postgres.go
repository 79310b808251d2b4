// Package store persists run results to PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/aluiziolira/go-scrape-jumia/pipeline"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool used by the sink.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS scrape_runs (
	run_id               TEXT PRIMARY KEY,
	started_at           TIMESTAMPTZ NOT NULL,
	finished_at          TIMESTAMPTZ NOT NULL,
	total_products       INTEGER NOT NULL,
	categories_processed INTEGER NOT NULL,
	pages_scraped        INTEGER NOT NULL,
	errors               INTEGER NOT NULL,
	categories           JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	run_id            TEXT NOT NULL REFERENCES scrape_runs (run_id),
	product_id        TEXT NOT NULL,
	product_name      TEXT NOT NULL,
	brand             TEXT NOT NULL,
	model             TEXT NOT NULL,
	category          TEXT NOT NULL,
	category_key      TEXT NOT NULL,
	current_price     DOUBLE PRECISION NOT NULL,
	original_price    DOUBLE PRECISION,
	discount_percent  DOUBLE PRECISION NOT NULL,
	price_tier        TEXT NOT NULL,
	value_score       DOUBLE PRECISION NOT NULL,
	is_on_sale        BOOLEAN NOT NULL,
	url               TEXT NOT NULL,
	scraped_at        TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, product_id)
);`

var productColumns = []string{
	"run_id", "product_id", "product_name", "brand", "model", "category", "category_key",
	"current_price", "original_price", "discount_percent", "price_tier", "value_score",
	"is_on_sale", "url", "scraped_at",
}

// PostgresSink writes every run as one scrape_runs row plus its products.
type PostgresSink struct {
	db DB
}

// NewPostgresSink wraps an open connection.
func NewPostgresSink(db DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Export stores result in one transaction. The run row is written before the
// products so the foreign key holds.
func (s *PostgresSink) Export(ctx context.Context, result *models.RunResult) error {
	if len(result.Records) == 0 {
		return pipeline.ErrNoRecords
	}
	categories, err := json.Marshal(result.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	stats := result.Stats
	if _, err := tx.Exec(ctx,
		`INSERT INTO scrape_runs (run_id, started_at, finished_at, total_products, categories_processed, pages_scraped, errors, categories)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.RunID, stats.StartTime, stats.EndTime, stats.TotalProducts,
		stats.CategoriesProcessed, stats.PagesScraped, stats.Errors, categories,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	rows := make([][]any, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, []any{
			result.RunID, rec.ID, rec.Name, rec.Brand, rec.Model, rec.Category, rec.CategoryKey,
			rec.CurrentPrice, rec.OriginalPrice, rec.DiscountPercent, string(rec.PriceTier), rec.ValueScore,
			rec.OnSale, rec.URL, rec.ScrapedAt,
		})
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"products"}, productColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Info("products stored",
		slog.String("run_id", result.RunID),
		slog.Int64("rows", n),
	)
	return nil
}
