package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/models"
)

// ErrNoRecords is returned when a run produced nothing to export.
var ErrNoRecords = errors.New("pipeline: no records to export")

// Sink persists the outcome of a run.
type Sink interface {
	Export(ctx context.Context, result *models.RunResult) error
}

// Sinks exports to every sink in order, collecting failures.
type Sinks []Sink

// Export implements Sink.
func (s Sinks) Export(ctx context.Context, result *models.RunResult) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Export(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FileExporter writes products, summary tables and a stats snapshot into a
// directory. File names carry the export timestamp.
type FileExporter struct {
	dir       string
	format    string
	batchSize int
	now       func() time.Time

	files []string
}

// NewFileExporter returns an exporter writing products in format (csv, json,
// dual or xlsx) under dir. The xlsx format puts products, summary and category
// analysis into one workbook.
func NewFileExporter(dir, format string, batchSize int) *FileExporter {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &FileExporter{
		dir:       dir,
		format:    format,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Files lists the files written by the last export.
func (e *FileExporter) Files() []string {
	out := make([]string, len(e.files))
	copy(out, e.files)
	return out
}

// Export implements Sink.
func (e *FileExporter) Export(ctx context.Context, result *models.RunResult) error {
	e.files = nil
	if len(result.Records) == 0 {
		slog.Warn("no products to save")
		return ErrNoRecords
	}

	stamp := e.now().Format("20060102_150405")
	if e.format == "xlsx" {
		if err := ctx.Err(); err != nil {
			return err
		}
		workbook := filepath.Join(e.dir, "jumia_products_"+stamp+".xlsx")
		if err := writeWorkbook(workbook, result.Records); err != nil {
			return err
		}
		e.files = append(e.files, workbook)
	} else if err := e.writeTables(ctx, stamp, result.Records); err != nil {
		return err
	}

	statsFile := filepath.Join(e.dir, "scraping_stats_"+stamp+".json")
	if err := writeStats(statsFile, result); err != nil {
		return err
	}
	e.files = append(e.files, statsFile)

	slog.Info("export complete", slog.Any("files", e.files))
	return nil
}

// writeTables writes products in the configured format next to the summary
// and category analysis CSVs.
func (e *FileExporter) writeTables(ctx context.Context, stamp string, records []*models.ProductRecord) error {
	productsFile := filepath.Join(e.dir, "jumia_products_"+stamp+e.extension())
	if err := e.writeProducts(ctx, productsFile, records); err != nil {
		return err
	}

	summaryFile := filepath.Join(e.dir, "summary_"+stamp+".csv")
	if err := writeTable(summaryFile, summaryHeader, summaryRows(Summarize(records))); err != nil {
		return err
	}
	e.files = append(e.files, summaryFile)

	analysisFile := filepath.Join(e.dir, "category_analysis_"+stamp+".csv")
	if err := writeTable(analysisFile, analysisHeader, analysisRows(AnalyzeCategories(records))); err != nil {
		return err
	}
	e.files = append(e.files, analysisFile)
	return nil
}

func (e *FileExporter) extension() string {
	if e.format == "json" {
		return ".jsonl"
	}
	return ".csv"
}

func (e *FileExporter) writeProducts(ctx context.Context, filename string, records []*models.ProductRecord) (err error) {
	writer, err := NewOutputWriter(e.format, filename)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close writer: %w", cerr)
		}
	}()

	for start := 0; start < len(records); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+e.batchSize, len(records))
		if err := writer.Write(records[start:end]); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("validate output: %w", err)
	}

	e.files = append(e.files, filename)
	if e.format == "dual" {
		e.files = append(e.files, filename[:len(filename)-len(filepath.Ext(filename))]+".jsonl")
	}
	return nil
}

var (
	summaryHeader  = []string{"Metric", "Value", "Description"}
	analysisHeader = []string{"category", "products", "mean_price", "min_price", "max_price", "mean_discount", "mean_value_score"}
)

func summaryRows(s DataSummary) [][]string {
	return [][]string{
		{"Total Products", strconv.Itoa(s.TotalProducts), "Total number of products scraped"},
		{"Categories", strconv.Itoa(s.Categories), "Number of different categories"},
		{"Brands", strconv.Itoa(s.Brands), "Number of different brands"},
		{"Average Price (MAD)", formatFloat(s.AvgPrice), "Average product price"},
		{"Products on Sale", strconv.Itoa(s.ProductsOnSale), "Number of products with discounts"},
		{"Average Discount (%)", formatFloat(s.AvgDiscount), "Average discount percentage (for discounted items)"},
	}
}

func analysisRows(groups []CategoryAnalysis) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Category,
			strconv.Itoa(g.Count),
			formatFloat(g.MeanPrice),
			formatFloat(g.MinPrice),
			formatFloat(g.MaxPrice),
			formatFloat(g.MeanDiscount),
			formatFloat(g.MeanValueScore),
		})
	}
	return rows
}

func writeTable(filename string, header []string, rows [][]string) error {
	f, writer, err := createCSV(filename, header)
	if err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(filename), err)
	}
	return f.Close()
}

type statsSnapshot struct {
	RunID      string                            `json:"run_id"`
	Stats      statsView                         `json:"scraping_stats"`
	Categories map[string]*models.CategoryResult `json:"categories_scraped"`
	Summary    DataSummary                       `json:"data_summary"`
}

type statsView struct {
	models.RunStats
	Duration string `json:"duration"`
}

func writeStats(filename string, result *models.RunResult) error {
	snapshot := statsSnapshot{
		RunID:      result.RunID,
		Stats:      statsView{RunStats: result.Stats, Duration: result.Stats.Duration.String()},
		Categories: result.Categories,
		Summary:    Summarize(result.Records),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := ensureDir(filename); err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}
