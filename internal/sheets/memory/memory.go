package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"salesheet/internal/core"
	"salesheet/internal/sheets"
)

// Store is an in-process workbook. Cells are kept as display strings so reads go
// through the same validation as any external spreadsheet.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

var _ sheets.Workbook = (*Store)(nil)

func New() *Store {
	return &Store{sheets: make(map[string][][]string)}
}

// NewFromCSV seeds the Sales Entry sheet from a CSV file. A missing file yields an empty store.
func NewFromCSV(path string) (*Store, error) {
	s := New()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	s.sheets[sheets.SalesEntrySheet] = rows
	return s, nil
}

func (s *Store) WriteTransactions(_ context.Context, txs []core.Transaction) error {
	rows := [][]string{append([]string(nil), sheets.SalesEntryHeaders...)}
	for _, tx := range txs {
		rows = append(rows, sheets.ToStrings(sheets.EncodeTransaction(tx)))
	}
	s.put(sheets.SalesEntrySheet, rows)
	return nil
}

func (s *Store) WriteSummaries(_ context.Context, daily []core.DailySummary, products []core.ProductSummary) error {
	dr := [][]string{append([]string(nil), sheets.DailySummaryHeaders...)}
	for _, d := range daily {
		dr = append(dr, sheets.ToStrings(sheets.EncodeDaily(d)))
	}
	pr := [][]string{append([]string(nil), sheets.ProductAnalysisHeaders...)}
	for _, p := range products {
		pr = append(pr, sheets.ToStrings(sheets.EncodeProduct(p)))
	}
	s.put(sheets.DailySummarySheet, dr)
	s.put(sheets.ProductAnalysisSheet, pr)
	return nil
}

func (s *Store) ReadTransactions(_ context.Context) (sheets.Import, error) {
	return sheets.DecodeSalesEntry(s.Rows(sheets.SalesEntrySheet))
}

// Rows returns a copy of a sheet's rows, header included.
func (s *Store) Rows(sheet string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.sheets[sheet]
	out := make([][]string, len(src))
	for i, r := range src {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// SetRows replaces a sheet's rows verbatim.
func (s *Store) SetRows(sheet string, rows [][]string) {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	s.put(sheet, cp)
}

func (s *Store) put(sheet string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = rows
}
