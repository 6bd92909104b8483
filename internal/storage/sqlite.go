// Package storage exports the sales workbook to a SQLite database, one table per sheet.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"salesheet/internal/core"
	"salesheet/internal/sheets"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ sheets.Workbook = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WriteTransactions replaces the sales_entry table.
func (r *SQLiteRepository) WriteTransactions(ctx context.Context, txs []core.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sales_entry`); err != nil {
			return fmt.Errorf("clear sales_entry: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sales_entry (date, product_name, category, quantity, unit_price, total_cents, payment_method, customer_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range txs {
			if _, err := stmt.ExecContext(ctx,
				t.Date.String(),
				t.ProductName,
				string(t.Category),
				t.Quantity,
				t.UnitPrice.String(),
				t.TotalAmount.Cents,
				string(t.PaymentMethod),
				string(t.CustomerType),
			); err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
		}
		slog.InfoContext(ctx, "Exported transactions to SQLite", "count", len(txs))
		return nil
	})
}

// WriteSummaries replaces the daily_summary and product_analysis tables.
// Product rows keep their ranking in the position column.
func (r *SQLiteRepository) WriteSummaries(ctx context.Context, daily []core.DailySummary, products []core.ProductSummary) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_summary`); err != nil {
			return fmt.Errorf("clear daily_summary: %w", err)
		}
		for _, d := range daily {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO daily_summary (date, total_sales_cents, total_transactions, average_sale_cents, total_quantity, best_selling_product)
				VALUES (?, ?, ?, ?, ?, ?)`,
				d.Date.String(), d.TotalSales.Cents, d.TotalTransactions, d.AverageSale.Cents, d.TotalQuantity, d.BestSellingProduct,
			); err != nil {
				return fmt.Errorf("insert daily summary %s: %w", d.Date, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_analysis`); err != nil {
			return fmt.Errorf("clear product_analysis: %w", err)
		}
		for i, p := range products {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO product_analysis (position, product_name, total_quantity, total_revenue_cents, avg_sale_value_cents, first_sale, last_sale, sale_count)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				i+1, p.ProductName, p.TotalQuantity, p.TotalRevenue.Cents, p.AvgSaleValue.Cents,
				p.FirstSaleDate.String(), p.LastSaleDate.String(), p.SaleCount,
			); err != nil {
				return fmt.Errorf("insert product summary %s: %w", p.ProductName, err)
			}
		}
		slog.InfoContext(ctx, "Exported summaries to SQLite", "days", len(daily), "products", len(products))
		return nil
	})
}

// ReadTransactions reads sales_entry back through the same row validation as
// spreadsheet sources, so rows edited by hand are dropped when malformed.
func (r *SQLiteRepository) ReadTransactions(ctx context.Context) (sheets.Import, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, product_name, category, quantity, unit_price, total_cents, payment_method, customer_type
		FROM sales_entry
		ORDER BY id`)
	if err != nil {
		return sheets.Import{}, fmt.Errorf("query sales_entry: %w", err)
	}
	defer rows.Close()

	cells := [][]string{sheets.SalesEntryHeaders}
	for rows.Next() {
		var (
			date, product, category, price, payment, customer string
			quantity, cents                                    int64
		)
		if err := rows.Scan(&date, &product, &category, &quantity, &price, &cents, &payment, &customer); err != nil {
			return sheets.Import{}, fmt.Errorf("scan sales_entry: %w", err)
		}
		cells = append(cells, []string{
			date, product, category,
			strconv.FormatInt(quantity, 10),
			price,
			core.Money{Cents: cents}.String(),
			payment, customer,
		})
	}
	if err := rows.Err(); err != nil {
		return sheets.Import{}, fmt.Errorf("iterate sales_entry: %w", err)
	}
	return sheets.DecodeSalesEntry(cells)
}

// DailySummaries returns the exported daily rows in date order.
func (r *SQLiteRepository) DailySummaries(ctx context.Context) ([]core.DailySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, total_sales_cents, total_transactions, average_sale_cents, total_quantity, best_selling_product
		FROM daily_summary
		ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query daily_summary: %w", err)
	}
	defer rows.Close()

	var out []core.DailySummary
	for rows.Next() {
		var (
			d    core.DailySummary
			date string
		)
		if err := rows.Scan(&date, &d.TotalSales.Cents, &d.TotalTransactions, &d.AverageSale.Cents, &d.TotalQuantity, &d.BestSellingProduct); err != nil {
			return nil, fmt.Errorf("scan daily_summary: %w", err)
		}
		if d.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("daily_summary date %q: %w", date, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
