// Package analysis groups transactions into daily, product, category and payment
// summaries. All functions are pure and never fail: an empty input yields empty
// (non-nil) tables.
//
// Ties are always broken by first encounter in input order.
package analysis

import (
	"slices"

	"salesheet/internal/core"
)

// Aggregate returns the daily summary ordered by date and the product summary
// ordered by revenue descending.
func Aggregate(txs []core.Transaction) ([]core.DailySummary, []core.ProductSummary) {
	return DailySummaries(txs), ProductSummaries(txs)
}

type dailyAcc struct {
	row    core.DailySummary
	counts *modeCounter
}

// DailySummaries partitions by date. Only dates present in txs get a row.
func DailySummaries(txs []core.Transaction) []core.DailySummary {
	byDate := make(map[core.Date]*dailyAcc)
	var order []core.Date
	for _, tx := range txs {
		acc, ok := byDate[tx.Date]
		if !ok {
			acc = &dailyAcc{row: core.DailySummary{Date: tx.Date}, counts: newModeCounter()}
			byDate[tx.Date] = acc
			order = append(order, tx.Date)
		}
		acc.row.TotalSales = acc.row.TotalSales.Add(tx.TotalAmount)
		acc.row.TotalTransactions++
		acc.row.TotalQuantity += tx.Quantity
		acc.counts.add(tx.ProductName, 1)
	}

	slices.SortStableFunc(order, func(a, b core.Date) int {
		return a.Compare(b.Time)
	})

	out := make([]core.DailySummary, 0, len(order))
	for _, d := range order {
		acc := byDate[d]
		acc.row.AverageSale = acc.row.TotalSales.Div(acc.row.TotalTransactions)
		acc.row.BestSellingProduct = acc.counts.top()
		out = append(out, acc.row)
	}
	return out
}

// ProductSummaries partitions by exact product name and sorts by revenue
// descending; equal revenues keep first-encounter order.
func ProductSummaries(txs []core.Transaction) []core.ProductSummary {
	index := make(map[string]int)
	var out []core.ProductSummary
	for _, tx := range txs {
		i, ok := index[tx.ProductName]
		if !ok {
			i = len(out)
			index[tx.ProductName] = i
			out = append(out, core.ProductSummary{
				ProductName:   tx.ProductName,
				FirstSaleDate: tx.Date,
				LastSaleDate:  tx.Date,
			})
		}
		p := &out[i]
		p.TotalQuantity += tx.Quantity
		p.TotalRevenue = p.TotalRevenue.Add(tx.TotalAmount)
		p.SaleCount++
		if tx.Date.Before(p.FirstSaleDate.Time) {
			p.FirstSaleDate = tx.Date
		}
		if tx.Date.After(p.LastSaleDate.Time) {
			p.LastSaleDate = tx.Date
		}
	}
	if out == nil {
		out = []core.ProductSummary{}
	}
	for i := range out {
		out[i].AvgSaleValue = out[i].TotalRevenue.Div(out[i].SaleCount)
	}
	slices.SortStableFunc(out, func(a, b core.ProductSummary) int {
		return compareDesc(a.TotalRevenue, b.TotalRevenue)
	})
	return out
}

// CategoryTotals sums revenue per category, largest first.
func CategoryTotals(txs []core.Transaction) []core.CategoryTotal {
	index := make(map[core.Category]int)
	out := []core.CategoryTotal{}
	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryTotal{Category: tx.Category})
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(tx.TotalAmount)
	}
	slices.SortStableFunc(out, func(a, b core.CategoryTotal) int {
		return compareDesc(a.TotalAmount, b.TotalAmount)
	})
	return out
}

// PaymentTotals sums revenue and counts transactions per payment method, largest revenue first.
func PaymentTotals(txs []core.Transaction) []core.PaymentTotal {
	index := make(map[core.PaymentMethod]int)
	out := []core.PaymentTotal{}
	for _, tx := range txs {
		i, ok := index[tx.PaymentMethod]
		if !ok {
			i = len(out)
			index[tx.PaymentMethod] = i
			out = append(out, core.PaymentTotal{PaymentMethod: tx.PaymentMethod})
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(tx.TotalAmount)
		out[i].TransactionCount++
	}
	slices.SortStableFunc(out, func(a, b core.PaymentTotal) int {
		return compareDesc(a.TotalAmount, b.TotalAmount)
	})
	return out
}

// BestSellerByQuantity returns the product with the largest summed quantity.
// The second result is false for an empty input.
func BestSellerByQuantity(txs []core.Transaction) (string, bool) {
	if len(txs) == 0 {
		return "", false
	}
	mc := newModeCounter()
	for _, tx := range txs {
		mc.add(tx.ProductName, tx.Quantity)
	}
	return mc.top(), true
}

// TotalRevenue sums every transaction amount.
func TotalRevenue(txs []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range txs {
		total = total.Add(tx.TotalAmount)
	}
	return total
}

// Period returns the earliest and latest transaction dates.
func Period(txs []core.Transaction) (start, end core.Date, ok bool) {
	if len(txs) == 0 {
		return core.Date{}, core.Date{}, false
	}
	start, end = txs[0].Date, txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.Before(start.Time) {
			start = tx.Date
		}
		if tx.Date.After(end.Time) {
			end = tx.Date
		}
	}
	return start, end, true
}

func compareDesc(a, b core.Money) int {
	switch {
	case a.Cents > b.Cents:
		return -1
	case a.Cents < b.Cents:
		return 1
	}
	return 0
}

// modeCounter tracks weighted counts per key and remembers insertion order.
type modeCounter struct {
	counts map[string]int
	order  []string
}

func newModeCounter() *modeCounter {
	return &modeCounter{counts: make(map[string]int)}
}

func (m *modeCounter) add(key string, n int) {
	if _, ok := m.counts[key]; !ok {
		m.order = append(m.order, key)
	}
	m.counts[key] += n
}

// top returns the first key, in insertion order, holding the maximum count.
func (m *modeCounter) top() string {
	best, bestN := "", -1
	for _, k := range m.order {
		if m.counts[k] > bestN {
			best, bestN = k, m.counts[k]
		}
	}
	return best
}
