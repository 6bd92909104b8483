package xlsx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesheet/internal/catalog"
	"salesheet/internal/core"
	"salesheet/internal/sheets"
)

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		core.NewTransaction(core.NewDate(2025, 8, 1), "Coffee", core.Beverage, 2, decimal.RequireFromString("2.50"), core.Cash, core.Regular),
		core.NewTransaction(core.NewDate(2025, 8, 1), "Pizza Slice", core.Food, 3, decimal.RequireFromString("4.995"), core.CreditCard, core.Student),
		core.NewTransaction(core.NewDate(2025, 8, 2), "Muffin", core.Dessert, 1, decimal.RequireFromString("3.10"), core.MobilePayment, core.Senior),
	}
}

func TestWorkbook_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sales.xlsx")
	wb := New(path)

	txs := sampleTransactions()
	require.NoError(t, wb.WriteTransactions(ctx, txs))
	daily := []core.DailySummary{{Date: core.NewDate(2025, 8, 1), TotalSales: core.Money{Cents: 1999}, TotalTransactions: 2}}
	products := []core.ProductSummary{{ProductName: "Coffee", TotalRevenue: core.Money{Cents: 500}, SaleCount: 1}}
	require.NoError(t, wb.WriteSummaries(ctx, daily, products))

	imp, err := wb.ReadTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, imp.Dropped)
	require.Len(t, imp.Transactions, len(txs))
	for i := range txs {
		assert.Equal(t, txs[i].Date, imp.Transactions[i].Date)
		assert.Equal(t, txs[i].ProductName, imp.Transactions[i].ProductName)
		assert.Equal(t, txs[i].TotalAmount, imp.Transactions[i].TotalAmount)
		assert.True(t, txs[i].UnitPrice.Equal(imp.Transactions[i].UnitPrice))
	}

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheets.SalesEntrySheet, sheets.DailySummarySheet, sheets.ProductAnalysisSheet}, f.GetSheetList())

	rows, err := f.GetRows(sheets.DailySummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sheets.DailySummaryHeaders, rows[0])
}

func TestWorkbook_RewriteShrinksSheet(t *testing.T) {
	ctx := context.Background()
	wb := New(filepath.Join(t.TempDir(), "sales.xlsx"))

	require.NoError(t, wb.WriteTransactions(ctx, sampleTransactions()))
	require.NoError(t, wb.WriteTransactions(ctx, sampleTransactions()[:1]))

	imp, err := wb.ReadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, imp.Transactions, 1)
	assert.Equal(t, "Coffee", imp.Transactions[0].ProductName)
}

func TestWorkbook_ReadMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.xlsx")).ReadTransactions(context.Background())
	assert.Error(t, err)
}

func TestWorkbook_ReadsSerialDatesAndDropsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet(sheets.SalesEntrySheet)
	require.NoError(t, err)
	header := []any{"Date", "Product Name", "Category", "Quantity Sold", "Unit Price", "Total Amount", "Payment Method", "Customer Type"}
	require.NoError(t, f.SetSheetRow(sheets.SalesEntrySheet, "A1", &header))
	good := []any{time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC), "Tea", "Beverage", 1, 2.25, 2.25, "Cash", "New"}
	require.NoError(t, f.SetSheetRow(sheets.SalesEntrySheet, "A2", &good))
	bad := []any{"2025-08-03", "Tea", "Beverage", "lots", 2.25, 2.25, "Cash", "New"}
	require.NoError(t, f.SetSheetRow(sheets.SalesEntrySheet, "A3", &bad))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	imp, err := New(path).ReadTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, imp.Transactions, 1)
	assert.Equal(t, core.NewDate(2025, 8, 3), imp.Transactions[0].Date)
	assert.Equal(t, 1, imp.Dropped)
}

func TestCreateTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excel_templates", "daily_sales_sheet.xlsx")
	require.NoError(t, CreateTemplate(path, catalog.Default(), core.NewDate(2025, 8, 1)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheets.SalesEntrySheet, sheets.DailySummarySheet, sheets.ProductAnalysisSheet, chartsSheet}, f.GetSheetList())

	formula, err := f.GetCellFormula(sheets.SalesEntrySheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, `IF(D2="","",ROUND(D2*E2,2))`, formula)

	formula, err = f.GetCellFormula(sheets.DailySummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, `SUMIF('Sales Entry'!A:A,A4,'Sales Entry'!F:F)`, formula)
	first, err := f.GetCellValue(sheets.DailySummarySheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01", first)
	lastDay, err := f.GetCellValue(sheets.DailySummarySheet, "A33")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-30", lastDay)

	product, err := f.GetCellValue(sheets.ProductAnalysisSheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Sandwich", product)

	dvs, err := f.GetDataValidations(sheets.SalesEntrySheet)
	require.NoError(t, err)
	assert.Len(t, dvs, 4)

	// A blank template reads back as an empty, valid transaction set.
	imp, err := New(path).ReadTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, imp.Transactions)
	assert.Zero(t, imp.Dropped)
}
