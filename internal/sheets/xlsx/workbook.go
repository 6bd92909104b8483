// Package xlsx stores the sales workbook as an .xlsx file.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"salesheet/internal/core"
	"salesheet/internal/sheets"
)

const defaultSheet = "Sheet1"

// Workbook reads and writes one .xlsx file. Writes replace whole sheets and keep
// other sheets of the file untouched.
type Workbook struct {
	mu   sync.Mutex
	path string
}

var _ sheets.Workbook = (*Workbook)(nil)

func New(path string) *Workbook {
	return &Workbook{path: path}
}

func (w *Workbook) Path() string { return w.path }

func (w *Workbook) WriteTransactions(ctx context.Context, txs []core.Transaction) error {
	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, sheets.EncodeTransaction(tx))
	}
	return w.update(ctx, func(f *excelize.File) error {
		return writeTable(f, sheets.SalesEntrySheet, sheets.SalesEntryHeaders, rows)
	})
}

func (w *Workbook) WriteSummaries(ctx context.Context, daily []core.DailySummary, products []core.ProductSummary) error {
	dr := make([][]any, 0, len(daily))
	for _, d := range daily {
		dr = append(dr, sheets.EncodeDaily(d))
	}
	pr := make([][]any, 0, len(products))
	for _, p := range products {
		pr = append(pr, sheets.EncodeProduct(p))
	}
	return w.update(ctx, func(f *excelize.File) error {
		if err := writeTable(f, sheets.DailySummarySheet, sheets.DailySummaryHeaders, dr); err != nil {
			return err
		}
		return writeTable(f, sheets.ProductAnalysisSheet, sheets.ProductAnalysisHeaders, pr)
	})
}

func (w *Workbook) ReadTransactions(ctx context.Context) (sheets.Import, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return sheets.Import{}, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheets.SalesEntrySheet); idx == -1 {
		return sheets.Import{}, fmt.Errorf("workbook %s has no %q sheet", w.path, sheets.SalesEntrySheet)
	}
	rows, err := f.GetRows(sheets.SalesEntrySheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheets.Import{}, fmt.Errorf("read %s: %w", sheets.SalesEntrySheet, err)
	}

	imp, err := sheets.DecodeSalesEntry(rows)
	if err != nil {
		return imp, fmt.Errorf("decode %s: %w", w.path, err)
	}
	slog.InfoContext(ctx, "Read transactions from workbook",
		"path", w.path,
		"transactions", len(imp.Transactions),
		"dropped", imp.Dropped)
	return imp, nil
}

// update opens the file (or starts a new one), applies fn and saves.
func (w *Workbook) update(ctx context.Context, fn func(*excelize.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}
	if idx, _ := f.GetSheetIndex(defaultSheet); idx != -1 && len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}
	if idx, _ := f.GetSheetIndex(sheets.SalesEntrySheet); idx != -1 {
		f.SetActiveSheet(idx)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create workbook directory: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

func (w *Workbook) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	return f, nil
}

// writeTable replaces the content of sheet with a header row and data rows.
func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	if err := resetSheet(f, sheet); err != nil {
		return err
	}
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	if style, err := headerStyle(f); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 16)
}

// resetSheet creates sheet or removes every row it holds.
func resetSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		return nil
	}
	existing, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for r := len(existing); r >= 1; r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return fmt.Errorf("clear sheet %s: %w", sheet, err)
		}
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}
