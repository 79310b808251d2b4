package pipeline

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aluiziolira/go-scrape-jumia/models"
)

const (
	sheetProducts   = "Products"
	sheetSummary    = "Summary"
	sheetCategories = "Category_Analysis"
)

// writeWorkbook writes products, the summary and the per-category analysis
// as three sheets of one xlsx file.
func writeWorkbook(filename string, records []*models.ProductRecord) (err error) {
	if err := ensureDir(filename); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	// A new file starts with a single default sheet.
	if err := f.SetSheetName(f.GetSheetName(0), sheetProducts); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	products := make([][]any, 0, len(records))
	for _, rec := range records {
		products = append(products, productCells(rec))
	}
	if err := fillSheet(f, sheetProducts, productHeader, products); err != nil {
		return err
	}

	if err := addSheet(f, sheetSummary, summaryHeader, stringCells(summaryRows(Summarize(records)))); err != nil {
		return err
	}
	if err := addSheet(f, sheetCategories, analysisHeader, analysisCells(AnalyzeCategories(records))); err != nil {
		return err
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func addSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return fillSheet(f, sheet, header, rows)
}

func fillSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if err := setRow(f, sheet, 1, stringCells([][]string{header})[0]); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// productCells keeps prices and scores numeric so the sheet sorts and sums.
func productCells(rec *models.ProductRecord) []any {
	var original any
	if rec.OriginalPrice != nil {
		original = *rec.OriginalPrice
	}
	return []any{
		rec.ID,
		rec.Name,
		rec.Brand,
		rec.Model,
		rec.Category,
		rec.CategoryKey,
		rec.CurrentPrice,
		original,
		rec.DiscountPercent,
		string(rec.PriceTier),
		rec.ValueScore,
		rec.OnSale,
		rec.URL,
		rec.ScrapedDate,
		rec.ScrapedTime,
		rec.ScrapedAt.Format(time.RFC3339Nano),
	}
}

func analysisCells(groups []CategoryAnalysis) [][]any {
	rows := make([][]any, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []any{
			g.Category, g.Count, g.MeanPrice, g.MinPrice, g.MaxPrice, g.MeanDiscount, g.MeanValueScore,
		})
	}
	return rows
}

func stringCells(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
