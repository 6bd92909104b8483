package analysis

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesheet/internal/catalog"
	"salesheet/internal/clock"
	"salesheet/internal/core"
	"salesheet/internal/generator"
)

func tx(date core.Date, product string, qty int, price string) core.Transaction {
	return core.NewTransaction(date, product, core.Beverage, qty, decimal.RequireFromString(price), core.Cash, core.Regular)
}

func generated(t *testing.T, seed int64) []core.Transaction {
	t.Helper()
	g := generator.New(catalog.Default(),
		generator.WithRand(rand.New(rand.NewSource(seed))),
		generator.WithClock(clock.NewMockClock(time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC))))
	txs, err := g.Generate(30, 20, 50)
	require.NoError(t, err)
	return txs
}

func TestDailySummaries_TwoProductsOneDay(t *testing.T) {
	d := core.NewDate(2025, 8, 1)
	daily := DailySummaries([]core.Transaction{
		tx(d, "Coffee", 2, "2.00"),
		tx(d, "Tea", 1, "3.00"),
	})

	require.Len(t, daily, 1)
	row := daily[0]
	assert.Equal(t, d, row.Date)
	assert.Equal(t, int64(700), row.TotalSales.Cents)
	assert.Equal(t, 2, row.TotalTransactions)
	assert.Equal(t, int64(350), row.AverageSale.Cents)
	assert.Equal(t, 3, row.TotalQuantity)
	assert.Equal(t, "Coffee", row.BestSellingProduct)

	// Reversing encounter order flips the tie-break.
	daily = DailySummaries([]core.Transaction{
		tx(d, "Tea", 1, "3.00"),
		tx(d, "Coffee", 2, "2.00"),
	})
	assert.Equal(t, "Tea", daily[0].BestSellingProduct)
}

func TestDailySummaries_ModeCountsRowsNotQuantity(t *testing.T) {
	d := core.NewDate(2025, 8, 1)
	daily := DailySummaries([]core.Transaction{
		tx(d, "Cake", 5, "3.00"),
		tx(d, "Tea", 1, "2.00"),
		tx(d, "Tea", 1, "2.00"),
	})
	assert.Equal(t, "Tea", daily[0].BestSellingProduct)
}

func TestDailySummaries_OrderedByDateWithGaps(t *testing.T) {
	daily := DailySummaries([]core.Transaction{
		tx(core.NewDate(2025, 8, 5), "Tea", 1, "1.00"),
		tx(core.NewDate(2025, 8, 1), "Tea", 1, "1.00"),
		tx(core.NewDate(2025, 8, 3), "Tea", 1, "1.00"),
	})
	require.Len(t, daily, 3)
	assert.Equal(t, "2025-08-01", daily[0].Date.String())
	assert.Equal(t, "2025-08-03", daily[1].Date.String())
	assert.Equal(t, "2025-08-05", daily[2].Date.String())
}

func TestProductSummaries_OrderAndTies(t *testing.T) {
	d1, d2 := core.NewDate(2025, 8, 1), core.NewDate(2025, 8, 4)
	products := ProductSummaries([]core.Transaction{
		tx(d2, "Tea", 1, "3.00"),
		tx(d1, "Coffee", 1, "3.00"),
		tx(d1, "Cake", 2, "4.50"),
		tx(d1, "Tea", 1, "1.00"),
		tx(d2, "coffee", 1, "1.00"),
	})

	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.ProductName
	}
	// Cake 9.00, Tea 4.00, Coffee 3.00, coffee 1.00; names are case-sensitive.
	assert.Equal(t, []string{"Cake", "Tea", "Coffee", "coffee"}, names)

	tea := products[1]
	assert.Equal(t, 2, tea.SaleCount)
	assert.Equal(t, 2, tea.TotalQuantity)
	assert.Equal(t, int64(200), tea.AvgSaleValue.Cents)
	assert.Equal(t, d1, tea.FirstSaleDate)
	assert.Equal(t, d2, tea.LastSaleDate)

	// Equal revenue keeps first-encounter order.
	tied := ProductSummaries([]core.Transaction{
		tx(d1, "Juice", 1, "2.00"),
		tx(d1, "Soda", 1, "5.00"),
		tx(d1, "Water", 2, "1.00"),
	})
	assert.Equal(t, "Soda", tied[0].ProductName)
	assert.Equal(t, "Juice", tied[1].ProductName)
	assert.Equal(t, "Water", tied[2].ProductName)
}

func TestAggregate_Empty(t *testing.T) {
	daily, products := Aggregate(nil)
	assert.NotNil(t, daily)
	assert.NotNil(t, products)
	assert.Empty(t, daily)
	assert.Empty(t, products)
	assert.Empty(t, CategoryTotals(nil))
	assert.Empty(t, PaymentTotals(nil))

	_, ok := BestSellerByQuantity(nil)
	assert.False(t, ok)
	_, _, ok = Period(nil)
	assert.False(t, ok)
}

func TestAggregate_RevenueConservation(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		txs := generated(t, seed)
		daily, products := Aggregate(txs)

		var dailySum, productSum core.Money
		for _, d := range daily {
			dailySum = dailySum.Add(d.TotalSales)
		}
		for _, p := range products {
			productSum = productSum.Add(p.TotalRevenue)
		}
		total := TotalRevenue(txs)
		assert.Equal(t, total, dailySum)
		assert.Equal(t, total, productSum)

		var catSum, paySum core.Money
		count := 0
		for _, c := range CategoryTotals(txs) {
			catSum = catSum.Add(c.TotalAmount)
		}
		for _, p := range PaymentTotals(txs) {
			paySum = paySum.Add(p.TotalAmount)
			count += p.TransactionCount
		}
		assert.Equal(t, total, catSum)
		assert.Equal(t, total, paySum)
		assert.Equal(t, len(txs), count)
	}
}

func TestProductSummaries_NonIncreasingRevenue(t *testing.T) {
	products := ProductSummaries(generated(t, 11))
	for i := 1; i < len(products); i++ {
		assert.GreaterOrEqual(t, products[i-1].TotalRevenue.Cents, products[i].TotalRevenue.Cents)
	}
}

func TestBreakdownsDescending(t *testing.T) {
	txs := generated(t, 9)
	cats := CategoryTotals(txs)
	require.Len(t, cats, 4)
	for i := 1; i < len(cats); i++ {
		assert.GreaterOrEqual(t, cats[i-1].TotalAmount.Cents, cats[i].TotalAmount.Cents)
	}
	pays := PaymentTotals(txs)
	require.Len(t, pays, 4)
	for i := 1; i < len(pays); i++ {
		assert.GreaterOrEqual(t, pays[i-1].TotalAmount.Cents, pays[i].TotalAmount.Cents)
	}
}

func TestBestSellerByQuantity(t *testing.T) {
	d := core.NewDate(2025, 8, 1)
	txs := []core.Transaction{
		tx(d, "Tea", 1, "1.00"),
		tx(d, "Coffee", 3, "1.00"),
		tx(d, "Tea", 2, "1.00"),
		tx(d, "Juice", 1, "9.00"),
	}
	best, ok := BestSellerByQuantity(txs)
	require.True(t, ok)
	assert.Equal(t, "Tea", best, "Tea and Coffee tie on 3; Tea is encountered first")
}

func TestPeriod(t *testing.T) {
	start, end, ok := Period([]core.Transaction{
		tx(core.NewDate(2025, 8, 3), "Tea", 1, "1.00"),
		tx(core.NewDate(2025, 7, 30), "Tea", 1, "1.00"),
		tx(core.NewDate(2025, 8, 9), "Tea", 1, "1.00"),
	})
	require.True(t, ok)
	assert.Equal(t, core.NewDate(2025, 7, 30), start)
	assert.Equal(t, core.NewDate(2025, 8, 9), end)
}
