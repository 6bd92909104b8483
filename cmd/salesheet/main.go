package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"salesheet/internal/amqp"
	"salesheet/internal/backend"
	"salesheet/internal/cli"
	"salesheet/internal/config"
	"salesheet/internal/core"
	"salesheet/internal/layout"
	"salesheet/internal/log"
	"salesheet/internal/pipeline"
	"salesheet/internal/render"
	"salesheet/internal/report"
	"salesheet/internal/sheets"
	"salesheet/internal/sheets/xlsx"
)

const usage = `Usage: salesheet <command> [flags]

Commands:
  template              Create the blank data-entry workbook
  generate              Generate sample sales data (-days, -min, -max)
  analyze [files...]    Analyze the workbook, plus any extra .xlsx files
  setup                 Template, sample data and analysis in one run
  import <file.xlsx>    Copy an external workbook into the project and validate it
  status                Show which project files exist
  enqueue               Queue a generate-and-analyze run for salesheet-worker
`

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, cli.Describe(err))
		stop()
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "status":
		return printStatus(out, layout.New(cfg.BaseDir))
	case "enqueue":
		return enqueue(ctx, cfg, args, out)
	case "template", "generate", "analyze", "setup", "import":
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.WarnContext(ctx, "Backend cleanup failed", log.FieldError, err)
		}
	}()

	svc := pipeline.New(res.Workbook, layout.New(cfg.BaseDir),
		pipeline.WithLogger(logger),
		pipeline.WithRenderTimeout(cfg.RenderTimeout))

	switch cmd {
	case "template":
		path, err := svc.CreateTemplate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Excel template created: %s\n", path)
		return nil

	case "generate":
		p, err := parseSample("generate", cfg, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Generating %d days of sample sales data...\n", p.days)
		sum, err := svc.GenerateSample(ctx, p.days, p.minPerDay, p.maxPerDay)
		if err != nil {
			return err
		}
		printSample(out, sum, res.Workbook)
		return nil

	case "analyze":
		sources := []sheets.TransactionReader{res.Workbook}
		for _, path := range args {
			sources = append(sources, xlsx.New(path))
		}
		analysis, err := svc.AnalyzeSources(ctx, sources...)
		if err != nil {
			return err
		}
		printAnalysis(out, analysis)
		return analysis.Report.Err()

	case "setup":
		p, err := parseSample("setup", cfg, args)
		if err != nil {
			return err
		}
		setup, err := svc.CompleteSetup(ctx, p.days, p.minPerDay, p.maxPerDay)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Excel template created: %s\n", setup.Template)
		printSample(out, setup.Sample, res.Workbook)
		printAnalysis(out, setup.Analysis)
		return nil

	case "import":
		if len(args) != 1 {
			return fmt.Errorf("%w: import takes exactly one .xlsx path", errUsage)
		}
		imp, err := svc.Import(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Imported %d transactions into %s\n", len(imp.Import.Transactions), imp.Path)
		printProblems(out, imp.Import.Dropped, imp.Import.Errors)
		return nil
	}
	return nil
}

type sampleParams struct {
	days, minPerDay, maxPerDay int
}

// parseSample reads -days, -min and -max, defaulting to the configured sample volume.
func parseSample(name string, cfg *config.Config, args []string) (sampleParams, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var p sampleParams
	fs.IntVar(&p.days, "days", cfg.SampleDays, "number of days to generate")
	fs.IntVar(&p.minPerDay, "min", cfg.SampleMinPerDay, "minimum transactions per day")
	fs.IntVar(&p.maxPerDay, "max", cfg.SampleMaxPerDay, "maximum transactions per day")
	if err := fs.Parse(args); err != nil {
		return p, fmt.Errorf("%w: %v", errUsage, err)
	}
	if p.days < 1 || p.days > config.MaxSampleDays {
		return p, fmt.Errorf("%w: days must be between 1 and %d, got %d", core.ErrInvalidParameter, config.MaxSampleDays, p.days)
	}
	return p, nil
}

func enqueue(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	p, err := parseSample("enqueue", cfg, args)
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required to enqueue analysis requests")
	}
	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	req := amqp.NewAnalysisRequest(p.days, p.minPerDay, p.maxPerDay)
	if err := client.PublishAnalysisRequest(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(out, "Queued analysis request %s\n", req.RunID)
	return nil
}

func printSample(out io.Writer, sum pipeline.SampleSummary, wb sheets.Workbook) {
	fmt.Fprintln(out, "\nSample data generated successfully!")
	if file, ok := wb.(*xlsx.Workbook); ok {
		fmt.Fprintf(out, "File saved: %s\n", file.Path())
	}
	cats := make([]string, len(sum.Categories))
	for i, c := range sum.Categories {
		cats[i] = string(c)
	}
	fmt.Fprintln(out, "\nData Summary:")
	fmt.Fprintf(out, "- Period: %s to %s\n", sum.PeriodStart, sum.PeriodEnd)
	fmt.Fprintf(out, "- Total Transactions: %s\n", humanize.Comma(int64(sum.Transactions)))
	fmt.Fprintf(out, "- Total Sales: $%s\n", report.FormatMoney(sum.TotalSales))
	fmt.Fprintf(out, "- Average Transaction: $%s\n", sum.AverageSale)
	fmt.Fprintf(out, "- Products: %d unique items\n", sum.UniqueProducts)
	fmt.Fprintf(out, "- Categories: %s\n", strings.Join(cats, ", "))
}

func printAnalysis(out io.Writer, res pipeline.AnalysisResult) {
	fmt.Fprintln(out, res.Report.Text)
	printProblems(out, res.Dropped, res.Problems)
	if res.Report.NoData {
		return
	}
	fmt.Fprintln(out, "Generated visualizations:")
	for _, path := range res.Charts {
		fmt.Fprintf(out, "  - %s\n", path)
	}
	fmt.Fprintf(out, "  - %s\n", res.ReportFile)
}

func printProblems(out io.Writer, dropped int, problems []error) {
	if dropped == 0 {
		return
	}
	fmt.Fprintf(out, "Skipped %d malformed rows:\n", dropped)
	for _, p := range problems {
		fmt.Fprintf(out, "  - %v\n", p)
	}
}

func printStatus(out io.Writer, l layout.Layout) error {
	st, err := l.Status(pipeline.ChartIDs, render.ReportFile)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Daily Sales Sheet - Project Status")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	for _, a := range st.Artifacts {
		if a.Present {
			fmt.Fprintf(out, "[x] %s: %s\n", a.Name, a.Path)
			continue
		}
		fmt.Fprintf(out, "[ ] %s: Not created yet\n", a.Name)
		fmt.Fprintf(out, "    -> %s\n", a.Hint)
	}
	fmt.Fprintf(out, "\nPROGRESS: %d/%d files created (%d%%)\n", st.Created, st.Total, st.Percent())
	fmt.Fprintln(out, "\nRECOMMENDED NEXT STEPS:")
	for i, step := range st.NextSteps() {
		fmt.Fprintf(out, "%d. %s\n", i+1, step)
	}
	return nil
}
