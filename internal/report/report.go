// Package report derives key metrics, chart descriptors and the text report
// from a transaction set and its summaries. It performs no I/O.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"salesheet/internal/analysis"
	"salesheet/internal/core"
)

// NoDataText is the report returned for an empty transaction set.
const NoDataText = "No data available for analysis"

// Metrics are the headline figures of a report.
type Metrics struct {
	TotalRevenue       core.Money
	TotalTransactions  int
	AverageTransaction core.Money // zero when there are no transactions
	BestSellingProduct string     // by summed quantity
	PeriodStart        core.Date
	PeriodEnd          core.Date
}

type Report struct {
	Metrics Metrics
	Charts  []ChartDescriptor
	Text    string
	NoData  bool
}

// Err reports core.ErrEmptyDataSet for a no-data report and nil otherwise.
func (r Report) Err() error {
	if r.NoData {
		return core.ErrEmptyDataSet
	}
	return nil
}

// Build computes metrics, the four chart descriptors and the text report.
// An empty transaction set yields the NoDataText sentinel and no charts.
func Build(txs []core.Transaction, daily []core.DailySummary, products []core.ProductSummary) Report {
	if len(txs) == 0 {
		return Report{Text: NoDataText, NoData: true}
	}

	m := computeMetrics(txs)
	charts := []ChartDescriptor{
		dailyTrend(daily),
		productPerformance(products),
		categoryDistribution(analysis.CategoryTotals(txs)),
		paymentMethods(analysis.PaymentTotals(txs)),
	}
	return Report{
		Metrics: m,
		Charts:  charts,
		Text:    renderText(m, charts),
	}
}

func computeMetrics(txs []core.Transaction) Metrics {
	m := Metrics{
		TotalRevenue:      analysis.TotalRevenue(txs),
		TotalTransactions: len(txs),
	}
	if m.TotalTransactions > 0 {
		m.AverageTransaction = m.TotalRevenue.Div(m.TotalTransactions)
	}
	m.BestSellingProduct, _ = analysis.BestSellerByQuantity(txs)
	m.PeriodStart, m.PeriodEnd, _ = analysis.Period(txs)
	return m
}

func dailyTrend(daily []core.DailySummary) ChartDescriptor {
	labels := make([]string, len(daily))
	values := make([]float64, len(daily))
	for i, d := range daily {
		labels[i] = d.Date.String()
		values[i] = d.TotalSales.Float64()
	}
	return ChartDescriptor{
		ID:         ChartDailySalesTrend,
		Kind:       KindLine,
		Title:      "Daily Sales Trend",
		XAxisTitle: "Date",
		YAxisTitle: "Total Sales ($)",
		Labels:     labels,
		Series:     []Series{{Name: "Total Sales", Values: values}},
	}
}

// productPerformance expects products already ordered by revenue descending.
func productPerformance(products []core.ProductSummary) ChartDescriptor {
	top := products
	if len(top) > TopProducts {
		top = top[:TopProducts]
	}
	labels := make([]string, len(top))
	values := make([]float64, len(top))
	for i, p := range top {
		labels[i] = p.ProductName
		values[i] = p.TotalRevenue.Float64()
	}
	return ChartDescriptor{
		ID:         ChartProductPerformance,
		Kind:       KindBar,
		Title:      fmt.Sprintf("Top %d Products by Revenue", TopProducts),
		XAxisTitle: "Product",
		YAxisTitle: "Revenue ($)",
		Labels:     labels,
		Series:     []Series{{Name: "Revenue", Values: values}},
	}
}

// categoryDistribution emits shares of total revenue for categories with revenue.
func categoryDistribution(totals []core.CategoryTotal) ChartDescriptor {
	var sum int64
	for _, c := range totals {
		if c.TotalAmount.Cents > 0 {
			sum += c.TotalAmount.Cents
		}
	}
	var labels []string
	var values []float64
	for _, c := range totals {
		if c.TotalAmount.Cents <= 0 {
			continue
		}
		share, _ := decimal.NewFromInt(c.TotalAmount.Cents).Div(decimal.NewFromInt(sum)).Float64()
		labels = append(labels, string(c.Category))
		values = append(values, share)
	}
	return ChartDescriptor{
		ID:     ChartCategoryDistribution,
		Kind:   KindPie,
		Title:  "Sales Distribution by Category",
		Labels: labels,
		Series: []Series{{Name: "Share", Values: values}},
	}
}

func paymentMethods(totals []core.PaymentTotal) ChartDescriptor {
	labels := make([]string, len(totals))
	revenue := make([]float64, len(totals))
	counts := make([]float64, len(totals))
	for i, p := range totals {
		labels[i] = string(p.PaymentMethod)
		revenue[i] = p.TotalAmount.Float64()
		counts[i] = float64(p.TransactionCount)
	}
	return ChartDescriptor{
		ID:         ChartPaymentMethods,
		Kind:       KindGroupedBar,
		Title:      "Payment Methods",
		XAxisTitle: "Payment Method",
		Labels:     labels,
		Series: []Series{
			{Name: "Revenue", Title: "Revenue by Payment Method", YAxisTitle: "Revenue ($)", Values: revenue},
			{Name: "Transactions", Title: "Transaction Count by Payment Method", YAxisTitle: "Number of Transactions", Values: counts},
		},
	}
}

var chartNames = map[string]string{
	ChartDailySalesTrend:      "Daily Sales Trend",
	ChartProductPerformance:   "Product Performance",
	ChartCategoryDistribution: "Category Distribution",
	ChartPaymentMethods:       "Payment Methods",
}

func renderText(m Metrics, charts []ChartDescriptor) string {
	var b strings.Builder
	b.WriteString("DAILY SALES ANALYSIS REPORT\n")
	b.WriteString("===========================\n\n")
	fmt.Fprintf(&b, "Period: %s to %s\n\n", m.PeriodStart, m.PeriodEnd)
	b.WriteString("KEY METRICS:\n")
	b.WriteString("------------\n")
	fmt.Fprintf(&b, "Total Revenue: $%s\n", FormatMoney(m.TotalRevenue))
	fmt.Fprintf(&b, "Total Transactions: %s\n", humanize.Comma(int64(m.TotalTransactions)))
	fmt.Fprintf(&b, "Average Transaction Value: $%s\n", FormatMoney(m.AverageTransaction))
	fmt.Fprintf(&b, "Best Selling Product: %s\n\n", m.BestSellingProduct)
	b.WriteString("GENERATED VISUALIZATIONS:\n")
	b.WriteString("-------------------------\n")
	for i, c := range charts {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, chartNames[c.ID], c.ID)
	}
	return b.String()
}

// FormatMoney renders an amount with thousands separators, e.g. "12,345.67".
func FormatMoney(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s.%02d", sign, humanize.Comma(cents/100), cents%100)
}
