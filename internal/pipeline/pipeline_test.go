package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesheet/internal/analysis"
	"salesheet/internal/clock"
	"salesheet/internal/core"
	"salesheet/internal/layout"
	"salesheet/internal/report"
	"salesheet/internal/sheets"
	"salesheet/internal/sheets/memory"
	"salesheet/internal/sheets/xlsx"
)

type stubRenderer struct {
	mu     sync.Mutex
	calls  int
	charts []report.ChartDescriptor
	err    error
}

func (r *stubRenderer) Render(_ context.Context, dir string, charts []report.ChartDescriptor) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.charts = charts
	if r.err != nil {
		return nil, r.err
	}
	paths := make([]string, len(charts))
	for i, c := range charts {
		paths[i] = filepath.Join(dir, c.ID+".png")
	}
	return paths, nil
}

var today = time.Date(2025, 8, 6, 15, 0, 0, 0, time.UTC)

func newService(t *testing.T, wb sheets.Workbook, r *stubRenderer) *Service {
	t.Helper()
	return New(wb, layout.New(t.TempDir()),
		WithRenderer(r),
		WithClock(clock.NewMockClock(today)),
		WithRand(rand.New(rand.NewSource(7))))
}

func fixedTransactions(day int) []core.Transaction {
	date := core.NewDate(2025, 8, day)
	return []core.Transaction{
		core.NewTransaction(date, "Coffee", core.Beverage, 2, decimal.RequireFromString("2.50"), core.Cash, core.Regular),
		core.NewTransaction(date, "Sandwich", core.Food, 1, decimal.RequireFromString("8.75"), core.CreditCard, core.VIP),
	}
}

func TestGenerateSampleThenAnalyze(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := &stubRenderer{}
	svc := newService(t, store, r)

	sum, err := svc.GenerateSample(ctx, 7, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 7, 31), sum.PeriodStart)
	assert.Equal(t, core.NewDate(2025, 8, 6), sum.PeriodEnd)
	assert.GreaterOrEqual(t, sum.Transactions, 7*5)
	assert.LessOrEqual(t, sum.Transactions, 7*10)
	assert.Equal(t, sum.TotalSales.Div(sum.Transactions), sum.AverageSale)
	assert.NotEmpty(t, sum.Categories)
	assert.Greater(t, len(store.Rows(sheets.DailySummarySheet)), 1)

	res, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.False(t, res.Report.NoData)
	assert.Equal(t, sum.Transactions, res.Report.Metrics.TotalTransactions)
	assert.Equal(t, sum.TotalSales, res.Report.Metrics.TotalRevenue)
	assert.Zero(t, res.Dropped)

	require.Equal(t, 1, r.calls)
	assert.Len(t, res.Charts, len(ChartIDs))
	for i, id := range ChartIDs {
		assert.Equal(t, id, r.charts[i].ID)
	}

	text, err := os.ReadFile(res.ReportFile)
	require.NoError(t, err)
	assert.Equal(t, res.Report.Text, string(text))
	assert.Equal(t, filepath.Join(svc.Layout().Visualizations(), "sales_analysis_report.txt"), res.ReportFile)
}

func TestAnalyze_NoData(t *testing.T) {
	r := &stubRenderer{}
	svc := newService(t, memory.New(), r)

	res, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Report.NoData)
	assert.Equal(t, report.NoDataText, res.Report.Text)
	assert.ErrorIs(t, res.Report.Err(), core.ErrEmptyDataSet)
	assert.Zero(t, r.calls)
	assert.Empty(t, res.ReportFile)
}

func TestGenerateSample_InvalidParameters(t *testing.T) {
	store := memory.New()
	svc := newService(t, store, &stubRenderer{})

	for _, tc := range []struct{ days, lo, hi int }{{0, 20, 50}, {30, 0, 50}, {30, 60, 50}} {
		_, err := svc.GenerateSample(context.Background(), tc.days, tc.lo, tc.hi)
		assert.True(t, IsInvalidParameter(err), "params %+v: %v", tc, err)
	}
	assert.Empty(t, store.Rows(sheets.SalesEntrySheet))
}

func TestAnalyze_DropsMalformedRows(t *testing.T) {
	store := memory.New()
	store.SetRows(sheets.SalesEntrySheet, [][]string{
		sheets.SalesEntryHeaders,
		{"2025-08-01", "Coffee", "Beverage", "2", "2.50", "5.00", "Cash", "Regular"},
		{"2025-08-01", "Coffee", "Beverage", "-1", "2.50", "", "Cash", "Regular"},
	})
	svc := newService(t, store, &stubRenderer{})

	res, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Problems, 1)
	assert.ErrorIs(t, res.Problems[0], core.ErrMalformedRow)
	assert.Equal(t, 1, res.Report.Metrics.TotalTransactions)
}

func TestAnalyzeSources_CombinesSources(t *testing.T) {
	ctx := context.Background()
	a, b := memory.New(), memory.New()
	require.NoError(t, a.WriteTransactions(ctx, append(fixedTransactions(1), fixedTransactions(2)...)))
	require.NoError(t, b.WriteTransactions(ctx, fixedTransactions(2)))
	r := &stubRenderer{}
	svc := newService(t, a, r)

	res, err := svc.AnalyzeSources(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Report.Metrics.TotalTransactions)
	assert.Equal(t, core.Money{Cents: 3*500 + 3*875}, res.Report.Metrics.TotalRevenue)

	trend := r.charts[0]
	assert.Equal(t, []string{"2025-08-01", "2025-08-02"}, trend.Labels)
	assert.Equal(t, []float64{13.75, 27.5}, trend.Series[0].Values)

	products := r.charts[1]
	assert.Equal(t, []string{"Sandwich", "Coffee"}, products.Labels)
}

func TestAnalyzeSources_BestSellerIsModeOfCombinedRows(t *testing.T) {
	ctx := context.Background()
	date := core.NewDate(2025, 8, 4)
	sale := func(product string, n int) []core.Transaction {
		var out []core.Transaction
		for range n {
			out = append(out, core.NewTransaction(date, product, core.Beverage, 1, decimal.RequireFromString("2.00"), core.Cash, core.Regular))
		}
		return out
	}
	first := append(sale("Coffee", 3), sale("Tea", 2)...)
	second := sale("Tea", 3)

	a, b := memory.New(), memory.New()
	require.NoError(t, a.WriteTransactions(ctx, first))
	require.NoError(t, b.WriteTransactions(ctx, second))
	svc := newService(t, a, &stubRenderer{})

	res, err := svc.AnalyzeSources(ctx, a, b)
	require.NoError(t, err)

	wantDaily, wantProducts := analysis.Aggregate(append(first, second...))
	require.Len(t, res.Daily, 1)
	assert.Equal(t, "Tea", res.Daily[0].BestSellingProduct)
	assert.Equal(t, wantDaily[0].BestSellingProduct, res.Daily[0].BestSellingProduct)
	assert.Equal(t, 8, res.Daily[0].TotalTransactions)
	require.Len(t, res.Products, len(wantProducts))
	for i := range wantProducts {
		assert.Equal(t, wantProducts[i].ProductName, res.Products[i].ProductName)
		assert.Equal(t, wantProducts[i].TotalRevenue, res.Products[i].TotalRevenue)
	}
}

func TestAnalyze_RenderError(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.WriteTransactions(ctx, fixedTransactions(1)))
	svc := newService(t, store, &stubRenderer{err: errors.New("no fonts")})

	_, err := svc.Analyze(ctx)
	assert.ErrorContains(t, err, "render charts: no fonts")
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "external.xlsx")
	require.NoError(t, xlsx.New(src).WriteTransactions(ctx, fixedTransactions(3)))

	svc := newService(t, memory.New(), &stubRenderer{})
	res, err := svc.Import(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, svc.Layout().ImportedFile(), res.Path)
	assert.FileExists(t, res.Path)
	assert.Len(t, res.Import.Transactions, 2)

	_, err = svc.Import(ctx, filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestCompleteSetup(t *testing.T) {
	base := t.TempDir()
	l := layout.New(base)
	r := &stubRenderer{}
	svc := New(xlsx.New(l.SampleFile()), l,
		WithRenderer(r),
		WithClock(clock.NewMockClock(today)),
		WithRand(rand.New(rand.NewSource(3))))

	res, err := svc.CompleteSetup(context.Background(), 3, 2, 4)
	require.NoError(t, err)
	assert.FileExists(t, res.Template)
	assert.Equal(t, res.Sample.Transactions, res.Analysis.Report.Metrics.TotalTransactions)
	assert.Equal(t, 1, r.calls)

	st, err := svc.Status()
	require.NoError(t, err)
	assert.Equal(t, 7, st.Total)
	// Template, sample workbook and report; the stub renderer writes no images.
	assert.Equal(t, 3, st.Created)
}
