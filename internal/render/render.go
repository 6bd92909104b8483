// Package render draws report chart descriptors as PNG files.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"golang.org/x/sync/errgroup"

	"salesheet/internal/core"
	"salesheet/internal/report"
)

// ReportFile is the name of the text report written next to the charts.
const ReportFile = "sales_analysis_report.txt"

// ErrUnsupportedChart is returned for a descriptor kind the renderer cannot draw.
var ErrUnsupportedChart = errors.New("unsupported chart kind")

// ErrNoValues is returned for a descriptor that has nothing to draw.
var ErrNoValues = errors.New("chart has no values")

type Renderer struct {
	Width  int
	Height int
}

func New() *Renderer {
	return &Renderer{Width: 1200, Height: 600}
}

// FileName returns the image file name for a chart id.
func FileName(id string) string { return id + ".png" }

// Render writes one PNG per descriptor into dir and returns the file paths in
// descriptor order.
func (r *Renderer) Render(ctx context.Context, dir string, charts []report.ChartDescriptor) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	paths := make([]string, len(charts))
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range charts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := r.draw(c)
			if err != nil {
				return fmt.Errorf("render %s: %w", c.ID, err)
			}
			path := filepath.Join(dir, FileName(c.ID))
			if err := os.WriteFile(path, img, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			paths[i] = path
			slog.DebugContext(ctx, "Rendered chart", "chart", c.ID, "path", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// WriteReport writes the text report into dir and returns its path.
func WriteReport(dir, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (r *Renderer) draw(c report.ChartDescriptor) ([]byte, error) {
	if len(c.Series) == 0 || len(c.Labels) == 0 {
		return nil, ErrNoValues
	}
	switch c.Kind {
	case report.KindLine:
		return r.line(c)
	case report.KindBar:
		return r.bar(c.Title, c.YAxisTitle, c.Labels, c.Series[0].Values, r.Width)
	case report.KindPie:
		return r.pie(c)
	case report.KindGroupedBar:
		return r.panels(c)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChart, c.Kind)
	}
}

func (r *Renderer) line(c report.ChartDescriptor) ([]byte, error) {
	s := c.Series[0]
	xs := make([]time.Time, 0, len(c.Labels))
	for _, l := range c.Labels {
		d, err := core.ParseDate(l)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", l, err)
		}
		xs = append(xs, d.Time)
	}
	if len(xs) != len(s.Values) {
		return nil, fmt.Errorf("%d labels for %d values", len(xs), len(s.Values))
	}

	graph := chart.Chart{
		Title:  c.Title,
		Width:  r.Width,
		Height: r.Height,
		XAxis: chart.XAxis{
			Name:           c.XAxisTitle,
			ValueFormatter: chart.TimeValueFormatterWithFormat(core.DateLayout),
		},
		YAxis: chart.YAxis{
			Name:  c.YAxisTitle,
			Range: valueRange(s.Values),
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: s.Name, XValues: xs, YValues: s.Values},
		},
	}
	// A single day has no x extent of its own.
	if len(xs) == 1 {
		mid := float64(xs[0].UnixNano())
		half := float64(12 * time.Hour)
		graph.XAxis.Range = &chart.ContinuousRange{Min: mid - half, Max: mid + half}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) bar(title, yTitle string, labels []string, values []float64, width int) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("%d labels for %d values", len(labels), len(values))
	}
	bars := make([]chart.Value, len(values))
	for i, v := range values {
		bars[i] = chart.Value{Label: labels[i], Value: v}
	}
	graph := chart.BarChart{
		Title:    title,
		Width:    width,
		Height:   r.Height,
		BarWidth: barWidth(width, len(bars)),
		YAxis: chart.YAxis{
			Name:  yTitle,
			Range: valueRange(values),
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) pie(c report.ChartDescriptor) ([]byte, error) {
	s := c.Series[0]
	if len(c.Labels) != len(s.Values) {
		return nil, fmt.Errorf("%d labels for %d values", len(c.Labels), len(s.Values))
	}
	values := make([]chart.Value, 0, len(s.Values))
	for i, v := range s.Values {
		if v > 0 {
			values = append(values, chart.Value{Label: c.Labels[i], Value: v})
		}
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	graph := chart.PieChart{
		Title:  c.Title,
		Width:  r.Height,
		Height: r.Height,
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// panels draws each series as its own bar chart and places them side by side.
func (r *Renderer) panels(c report.ChartDescriptor) ([]byte, error) {
	width := r.Width / 2
	imgs := make([]image.Image, 0, len(c.Series))
	for _, s := range c.Series {
		title := s.Title
		if title == "" {
			title = s.Name
		}
		raw, err := r.bar(title, s.YAxisTitle, c.Labels, s.Values, width)
		if err != nil {
			return nil, fmt.Errorf("panel %q: %w", s.Name, err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode panel %q: %w", s.Name, err)
		}
		imgs = append(imgs, img)
	}

	total, height := 0, 0
	for _, img := range imgs {
		b := img.Bounds()
		total += b.Dx()
		height = max(height, b.Dy())
	}
	canvas := image.NewRGBA(image.Rect(0, 0, total, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	x := 0
	for _, img := range imgs {
		b := img.Bounds()
		draw.Draw(canvas, image.Rect(x, 0, x+b.Dx(), b.Dy()), img, b.Min, draw.Over)
		x += b.Dx()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// valueRange pins the y axis at zero with some headroom so flat series still render.
func valueRange(values []float64) *chart.ContinuousRange {
	hi := 0.0
	for _, v := range values {
		hi = max(hi, v)
	}
	if hi == 0 {
		hi = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: hi * 1.1}
}

func barWidth(width, n int) int {
	if n == 0 {
		return 0
	}
	return max(10, min(80, width/(2*n)))
}
