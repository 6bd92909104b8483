// Package pipeline runs the sales workflows: template creation, sample
// generation, analysis and import. Each Service call is one pipeline run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"salesheet/internal/analysis"
	"salesheet/internal/catalog"
	"salesheet/internal/clock"
	"salesheet/internal/core"
	"salesheet/internal/generator"
	"salesheet/internal/layout"
	"salesheet/internal/log"
	"salesheet/internal/render"
	"salesheet/internal/report"
	"salesheet/internal/sheets"
	"salesheet/internal/sheets/xlsx"
)

// ChartIDs lists the charts an analysis produces, in report order.
var ChartIDs = []string{
	report.ChartDailySalesTrend,
	report.ChartProductPerformance,
	report.ChartCategoryDistribution,
	report.ChartPaymentMethods,
}

// ChartRenderer turns chart descriptors into image files under dir.
type ChartRenderer interface {
	Render(ctx context.Context, dir string, charts []report.ChartDescriptor) ([]string, error)
}

type Service struct {
	mu            sync.Mutex
	workbook      sheets.Workbook
	exports       []sheets.Workbook
	renderer      ChartRenderer
	layout        layout.Layout
	catalog       *catalog.Catalog
	clock         clock.Clock
	rnd           *rand.Rand
	generator     *generator.Generator
	logger        *log.Logger
	renderTimeout time.Duration
}

type Option func(*Service)

func WithRenderer(r ChartRenderer) Option { return func(s *Service) { s.renderer = r } }

func WithCatalog(c *catalog.Catalog) Option { return func(s *Service) { s.catalog = c } }

func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

// WithRand fixes the generator's random source.
func WithRand(r *rand.Rand) Option { return func(s *Service) { s.rnd = r } }

func WithLogger(l *log.Logger) Option { return func(s *Service) { s.logger = l } }

func WithRenderTimeout(d time.Duration) Option { return func(s *Service) { s.renderTimeout = d } }

// WithExports adds workbooks that receive a copy of every generated data set.
func WithExports(wbs ...sheets.Workbook) Option {
	return func(s *Service) { s.exports = append(s.exports, wbs...) }
}

func New(wb sheets.Workbook, l layout.Layout, opts ...Option) *Service {
	s := &Service{
		workbook:      wb,
		layout:        l,
		renderTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = render.New()
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.clock == nil {
		s.clock = clock.NewRealClock()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.logger = s.logger.WithComponent(log.ComponentPipeline)

	genOpts := []generator.Option{generator.WithClock(s.clock)}
	if s.rnd != nil {
		genOpts = append(genOpts, generator.WithRand(s.rnd))
	}
	s.generator = generator.New(s.catalog, genOpts...)
	return s
}

func (s *Service) Layout() layout.Layout { return s.layout }

// CreateTemplate writes the blank data-entry workbook and returns its path.
func (s *Service) CreateTemplate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTemplate(ctx)
}

func (s *Service) createTemplate(ctx context.Context) (string, error) {
	if err := s.layout.EnsureDirs(); err != nil {
		return "", err
	}
	path := s.layout.TemplateFile()
	if err := xlsx.CreateTemplate(path, s.catalog, core.DateOf(s.clock.Now())); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Excel template created", log.FieldPath, path)
	return path, nil
}

// SampleSummary describes a generated data set.
type SampleSummary struct {
	PeriodStart    core.Date
	PeriodEnd      core.Date
	Transactions   int
	TotalSales     core.Money
	AverageSale    core.Money
	UniqueProducts int
	Categories     []core.Category // in order of first appearance
}

// GenerateSample generates dayCount days of transactions ending today, writes
// them with their summaries to the workbook and any exports.
func (s *Service) GenerateSample(ctx context.Context, dayCount, minPerDay, maxPerDay int) (SampleSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateSample(ctx, dayCount, minPerDay, maxPerDay)
}

func (s *Service) generateSample(ctx context.Context, dayCount, minPerDay, maxPerDay int) (SampleSummary, error) {
	fields := log.NewFields().WithOperation(log.OpGenerate).WithVolume(dayCount, minPerDay, maxPerDay)
	s.logger.InfoContext(ctx, "Generating sample sales data", fields.ToSlice()...)

	txs, err := s.generator.Generate(dayCount, minPerDay, maxPerDay)
	if err != nil {
		return SampleSummary{}, err
	}
	daily, products := analysis.Aggregate(txs)

	if err := s.layout.EnsureDirs(); err != nil {
		return SampleSummary{}, err
	}
	for _, wb := range append([]sheets.Workbook{s.workbook}, s.exports...) {
		if err := wb.WriteTransactions(ctx, txs); err != nil {
			return SampleSummary{}, fmt.Errorf("write transactions: %w", err)
		}
		if err := wb.WriteSummaries(ctx, daily, products); err != nil {
			return SampleSummary{}, fmt.Errorf("write summaries: %w", err)
		}
	}

	sum := summarize(txs, products)
	s.logger.InfoContext(ctx, "Sample data generated",
		log.FieldTransactions, sum.Transactions,
		log.FieldRevenueCents, sum.TotalSales.Cents)
	return sum, nil
}

func summarize(txs []core.Transaction, products []core.ProductSummary) SampleSummary {
	sum := SampleSummary{
		Transactions:   len(txs),
		TotalSales:     analysis.TotalRevenue(txs),
		UniqueProducts: len(products),
	}
	sum.PeriodStart, sum.PeriodEnd, _ = analysis.Period(txs)
	if len(txs) > 0 {
		sum.AverageSale = sum.TotalSales.Div(len(txs))
	}
	for _, tx := range txs {
		if !slices.Contains(sum.Categories, tx.Category) {
			sum.Categories = append(sum.Categories, tx.Category)
		}
	}
	return sum
}

// AnalysisResult is the outcome of one analysis run.
type AnalysisResult struct {
	RunID      uuid.UUID
	Report     report.Report
	Daily      []core.DailySummary
	Products   []core.ProductSummary
	Charts     []string // image paths, empty for a no-data report
	ReportFile string
	Dropped    int
	Problems   []error // one per dropped row
}

// Analyze reads the workbook and produces charts and the text report.
func (s *Service) Analyze(ctx context.Context) (AnalysisResult, error) {
	return s.AnalyzeSources(ctx, s.workbook)
}

// AnalyzeSources reads every source concurrently and aggregates the combined
// transactions into a single report.
func (s *Service) AnalyzeSources(ctx context.Context, sources ...sheets.TransactionReader) (AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyze(ctx, sources)
}

func (s *Service) analyze(ctx context.Context, sources []sheets.TransactionReader) (AnalysisResult, error) {
	res := AnalysisResult{RunID: uuid.New()}
	logger := s.logger.With(log.FieldRunID, res.RunID.String())
	logger.InfoContext(ctx, "Running sales analysis", log.FieldOperation, log.OpAnalyze, "sources", len(sources))

	imports := make([]sheets.Import, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			imp, err := src.ReadTransactions(gctx)
			if err != nil {
				return fmt.Errorf("read source %d: %w", i+1, err)
			}
			imports[i] = imp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	// Sources are concatenated in argument order so first-encounter tie-breaks
	// follow that order.
	var txs []core.Transaction
	for _, imp := range imports {
		txs = append(txs, imp.Transactions...)
		res.Dropped += imp.Dropped
		res.Problems = append(res.Problems, imp.Errors...)
	}
	daily, products := analysis.Aggregate(txs)
	res.Daily, res.Products = daily, products
	if res.Dropped > 0 {
		logger.WarnContext(ctx, "Dropped malformed rows", log.FieldDropped, res.Dropped)
	}

	res.Report = report.Build(txs, daily, products)
	if res.Report.NoData {
		logger.WarnContext(ctx, report.NoDataText)
		return res, nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()
	charts, err := s.renderer.Render(rctx, s.layout.Visualizations(), res.Report.Charts)
	if err != nil {
		return res, fmt.Errorf("render charts: %w", err)
	}
	res.Charts = charts

	if res.ReportFile, err = render.WriteReport(s.layout.Visualizations(), res.Report.Text); err != nil {
		return res, err
	}
	logger.InfoContext(ctx, "Sales analysis complete",
		log.FieldTransactions, len(txs),
		log.FieldRevenueCents, res.Report.Metrics.TotalRevenue.Cents,
		log.FieldCharts, len(charts))
	return res, nil
}

// ImportResult describes an imported workbook.
type ImportResult struct {
	Path   string
	Import sheets.Import
}

// Import copies an external .xlsx file into the project and validates its
// Sales Entry sheet.
func (s *Service) Import(ctx context.Context, src string) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.layout.EnsureDirs(); err != nil {
		return ImportResult{}, err
	}
	dest := s.layout.ImportedFile()
	if err := copyFile(src, dest); err != nil {
		return ImportResult{}, err
	}
	imp, err := xlsx.New(dest).ReadTransactions(ctx)
	if err != nil {
		return ImportResult{Path: dest}, fmt.Errorf("validate imported workbook: %w", err)
	}
	s.logger.InfoContext(ctx, "Data imported",
		log.FieldOperation, log.OpImport,
		log.FieldPath, dest,
		log.FieldTransactions, len(imp.Transactions),
		log.FieldDropped, imp.Dropped)
	return ImportResult{Path: dest, Import: imp}, nil
}

func copyFile(src, dest string) error {
	if filepath.Clean(src) == filepath.Clean(dest) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open import source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	return out.Close()
}

// SetupResult collects the outputs of CompleteSetup.
type SetupResult struct {
	Template string
	Sample   SampleSummary
	Analysis AnalysisResult
}

// CompleteSetup creates the template, generates sample data and analyzes it.
func (s *Service) CompleteSetup(ctx context.Context, dayCount, minPerDay, maxPerDay int) (SetupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res SetupResult
	var err error
	if res.Template, err = s.createTemplate(ctx); err != nil {
		return res, fmt.Errorf("create template: %w", err)
	}
	if res.Sample, err = s.generateSample(ctx, dayCount, minPerDay, maxPerDay); err != nil {
		return res, fmt.Errorf("generate sample: %w", err)
	}
	if res.Analysis, err = s.analyze(ctx, []sheets.TransactionReader{s.workbook}); err != nil {
		return res, fmt.Errorf("analyze: %w", err)
	}
	s.logger.InfoContext(ctx, "Setup complete", log.FieldOperation, log.OpSetup)
	return res, nil
}

// Status reports which project files exist.
func (s *Service) Status() (layout.Status, error) {
	return s.layout.Status(ChartIDs, render.ReportFile)
}

// IsInvalidParameter reports whether err came from rejected generation parameters.
func IsInvalidParameter(err error) bool {
	return errors.Is(err, core.ErrInvalidParameter)
}
