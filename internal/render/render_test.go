package render

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesheet/internal/analysis"
	"salesheet/internal/core"
	"salesheet/internal/report"
)

func buildReport(t *testing.T, days int) report.Report {
	t.Helper()
	var txs []core.Transaction
	for d := 0; d < days; d++ {
		date := core.NewDate(2025, 8, 1+d)
		txs = append(txs,
			core.NewTransaction(date, "Coffee", core.Beverage, 2, decimal.RequireFromString("2.50"), core.Cash, core.Regular),
			core.NewTransaction(date, "Sandwich", core.Food, 1, decimal.RequireFromString("8.75"), core.CreditCard, core.VIP),
			core.NewTransaction(date, "Cookie", core.Dessert, 3, decimal.RequireFromString("1.20"), core.MobilePayment, core.Student),
		)
	}
	rep := report.Build(txs, analysis.DailySummaries(txs), analysis.ProductSummaries(txs))
	require.False(t, rep.NoData)
	return rep
}

func pngSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestRender_AllCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "visualizations")
	rep := buildReport(t, 5)

	paths, err := New().Render(context.Background(), dir, rep.Charts)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for i, c := range rep.Charts {
		assert.Equal(t, filepath.Join(dir, c.ID+".png"), paths[i])
		assert.FileExists(t, paths[i])
	}

	w, h := pngSize(t, paths[0])
	assert.Equal(t, 1200, w)
	assert.Equal(t, 600, h)

	// The payment chart is two half-width panels side by side.
	w, h = pngSize(t, paths[3])
	assert.Equal(t, 1200, w)
	assert.Equal(t, 600, h)
}

func TestRender_SingleDay(t *testing.T) {
	rep := buildReport(t, 1)
	paths, err := New().Render(context.Background(), t.TempDir(), rep.Charts[:1])
	require.NoError(t, err)
	assert.FileExists(t, paths[0])
}

func TestRender_Errors(t *testing.T) {
	r := New()
	ctx := context.Background()

	_, err := r.Render(ctx, t.TempDir(), []report.ChartDescriptor{{ID: "odd", Kind: "radar", Labels: []string{"a"}, Series: []report.Series{{Values: []float64{1}}}}})
	assert.ErrorIs(t, err, ErrUnsupportedChart)

	_, err = r.Render(ctx, t.TempDir(), []report.ChartDescriptor{{ID: "empty", Kind: report.KindBar}})
	assert.ErrorIs(t, err, ErrNoValues)

	_, err = r.Render(ctx, t.TempDir(), []report.ChartDescriptor{{ID: "zero", Kind: report.KindPie, Labels: []string{"a"}, Series: []report.Series{{Values: []float64{0}}}}})
	assert.ErrorIs(t, err, ErrNoValues)

	_, err = r.Render(ctx, t.TempDir(), []report.ChartDescriptor{{ID: "bad", Kind: report.KindLine, Labels: []string{"yesterday"}, Series: []report.Series{{Values: []float64{1}}}}})
	assert.Error(t, err)
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Render(ctx, t.TempDir(), buildReport(t, 2).Charts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	rep := buildReport(t, 2)

	path, err := WriteReport(dir, rep.Text)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ReportFile), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rep.Text, string(got))
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 60, barWidth(1200, 10))
	assert.Equal(t, 80, barWidth(1200, 2))
	assert.Equal(t, 10, barWidth(100, 10))
	assert.Equal(t, 0, barWidth(100, 0))
}
