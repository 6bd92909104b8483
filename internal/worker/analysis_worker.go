package worker

import (
	"context"
	"fmt"
	"time"

	"salesheet/internal/amqp"
	"salesheet/internal/config"
	"salesheet/internal/core"
	"salesheet/internal/generator"
	"salesheet/internal/log"
	"salesheet/internal/pipeline"
)

// Runner is the part of pipeline.Service a worker drives.
type Runner interface {
	GenerateSample(ctx context.Context, dayCount, minPerDay, maxPerDay int) (pipeline.SampleSummary, error)
	Analyze(ctx context.Context) (pipeline.AnalysisResult, error)
}

// AnalysisWorker runs one generate-and-analyze pipeline per queued request
type AnalysisWorker struct {
	runner Runner
	logger *log.Logger
}

func NewAnalysisWorker(runner Runner, logger *log.Logger) *AnalysisWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &AnalysisWorker{
		runner: runner,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRequest processes a single analysis request from AMQP. Requests with
// invalid parameters fail permanently so the consumer does not requeue them.
func (w *AnalysisWorker) HandleRequest(ctx context.Context, msg *amqp.AnalysisRequest) error {
	start := time.Now()
	logger := w.logger.With(log.FieldRunID, msg.RunID)
	logger.InfoContext(ctx, "Processing analysis request",
		log.NewFields().WithVolume(msg.Days, msg.MinPerDay, msg.MaxPerDay).ToSlice()...)

	if err := validate(msg); err != nil {
		logger.WarnContext(ctx, "Rejecting invalid request", log.FieldError, err)
		return amqp.Permanent(err)
	}

	if _, err := w.runner.GenerateSample(ctx, msg.Days, msg.MinPerDay, msg.MaxPerDay); err != nil {
		if pipeline.IsInvalidParameter(err) {
			return amqp.Permanent(err)
		}
		return fmt.Errorf("generate sample: %w", err)
	}

	res, err := w.runner.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	logger.InfoContext(ctx, "Analysis request completed",
		log.FieldTransactions, res.Report.Metrics.TotalTransactions,
		log.FieldCharts, len(res.Charts),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func validate(msg *amqp.AnalysisRequest) error {
	if msg.Days > config.MaxSampleDays {
		return fmt.Errorf("%w: days must be at most %d, got %d", core.ErrInvalidParameter, config.MaxSampleDays, msg.Days)
	}
	return generator.ValidateBounds(msg.Days, msg.MinPerDay, msg.MaxPerDay)
}
