package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"salesheet/internal/analysis"
	"salesheet/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "sales.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTransactions() []core.Transaction {
	return []core.Transaction{
		core.NewTransaction(core.NewDate(2025, 8, 2), "Coffee", core.Beverage, 2, decimal.RequireFromString("2.50"), core.Cash, core.Regular),
		core.NewTransaction(core.NewDate(2025, 8, 1), "Pizza Slice", core.Food, 3, decimal.RequireFromString("4.995"), core.CreditCard, core.Student),
		core.NewTransaction(core.NewDate(2025, 8, 1), "Coffee", core.Beverage, 1, decimal.RequireFromString("2.50"), core.DebitCard, core.VIP),
	}
}

func TestSQLiteRepository_TransactionsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	txs := testTransactions()

	if err := repo.WriteTransactions(ctx, txs); err != nil {
		t.Fatalf("write: %v", err)
	}
	imp, err := repo.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if imp.Dropped != 0 || len(imp.Transactions) != len(txs) {
		t.Fatalf("unexpected import: %+v", imp)
	}
	for i, tx := range txs {
		got := imp.Transactions[i]
		if !got.Date.Equal(tx.Date.Time) || got.ProductName != tx.ProductName || got.TotalAmount != tx.TotalAmount {
			t.Errorf("row %d: got %+v, want %+v", i, got, tx)
		}
		if !got.UnitPrice.Equal(tx.UnitPrice) {
			t.Errorf("row %d: unit price %s, want %s", i, got.UnitPrice, tx.UnitPrice)
		}
	}

	// Rewrite replaces the table.
	if err := repo.WriteTransactions(ctx, txs[:1]); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	imp, _ = repo.ReadTransactions(ctx)
	if len(imp.Transactions) != 1 {
		t.Fatalf("expected 1 transaction after rewrite, got %d", len(imp.Transactions))
	}
}

func TestSQLiteRepository_DropsEditedRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.WriteTransactions(ctx, testTransactions()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx, `UPDATE sales_entry SET payment_method = 'Barter' WHERE product_name = 'Pizza Slice'`); err != nil {
		t.Fatalf("update: %v", err)
	}
	imp, err := repo.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(imp.Transactions) != 2 || imp.Dropped != 1 {
		t.Fatalf("unexpected import: %+v", imp)
	}
}

func TestSQLiteRepository_Summaries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	txs := testTransactions()
	daily := analysis.DailySummaries(txs)
	products := analysis.ProductSummaries(txs)

	if err := repo.WriteSummaries(ctx, daily, products); err != nil {
		t.Fatalf("write summaries: %v", err)
	}
	got, err := repo.DailySummaries(ctx)
	if err != nil {
		t.Fatalf("read summaries: %v", err)
	}
	if len(got) != len(daily) {
		t.Fatalf("got %d days, want %d", len(got), len(daily))
	}
	for i := range daily {
		g, w := got[i], daily[i]
		if g.Date.String() != w.Date.String() || g.TotalSales != w.TotalSales || g.AverageSale != w.AverageSale ||
			g.TotalTransactions != w.TotalTransactions || g.BestSellingProduct != w.BestSellingProduct {
			t.Errorf("day %d: got %+v, want %+v", i, got[i], daily[i])
		}
	}

	var first string
	if err := repo.db.QueryRowContext(ctx, `SELECT product_name FROM product_analysis WHERE position = 1`).Scan(&first); err != nil {
		t.Fatalf("query product: %v", err)
	}
	if first != products[0].ProductName {
		t.Fatalf("top product %q, want %q", first, products[0].ProductName)
	}

	// Writing again must not violate the primary keys.
	if err := repo.WriteSummaries(ctx, daily, products); err != nil {
		t.Fatalf("rewrite summaries: %v", err)
	}
}

func TestNewSQLiteRepository_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.WriteTransactions(context.Background(), testTransactions()); err != nil {
		t.Fatalf("write: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	imp, err := repo.ReadTransactions(context.Background())
	if err != nil || len(imp.Transactions) != 3 {
		t.Fatalf("unexpected import after reopen: %+v err=%v", imp, err)
	}
}
