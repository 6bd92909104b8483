package analysis

import "salesheet/internal/core"

// DailyAsTransactions turns each daily row into a single transaction carrying
// the day's totals, so the summary can be fed back into DailySummaries. The
// regrouped rows keep date, sales, quantity and best seller; the transaction
// count becomes 1 and the average equals the day's sales.
func DailyAsTransactions(daily []core.DailySummary) []core.Transaction {
	out := make([]core.Transaction, 0, len(daily))
	for _, d := range daily {
		out = append(out, core.Transaction{
			Date:        d.Date,
			ProductName: d.BestSellingProduct,
			Quantity:    d.TotalQuantity,
			TotalAmount: d.TotalSales,
		})
	}
	return out
}

// ProductsAsTransactions turns each product row into a single transaction
// dated on its first sale.
func ProductsAsTransactions(products []core.ProductSummary) []core.Transaction {
	out := make([]core.Transaction, 0, len(products))
	for _, p := range products {
		out = append(out, core.Transaction{
			Date:        p.FirstSaleDate,
			ProductName: p.ProductName,
			Quantity:    p.TotalQuantity,
			TotalAmount: p.TotalRevenue,
		})
	}
	return out
}
