package main

import (
	"context"
	"errors"
	"os"
	"time"

	"salesheet/internal/amqp"
	"salesheet/internal/backend"
	"salesheet/internal/cli"
	"salesheet/internal/layout"
	"salesheet/internal/log"
	"salesheet/internal/pipeline"
	"salesheet/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.InfoContext(context.Background(), "Starting salesheet-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.ErrorContext(context.Background(), "AMQP_URL is required for the worker")
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(context.Background(), "Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.ErrorContext(context.Background(), "Failed to initialize backend", log.FieldError, err, log.FieldBackend, bcfg.Type)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(context.Background(), cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.ErrorContext(context.Background(), "Failed to initialize AMQP client", log.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.WarnContext(context.Background(), "AMQP close failed", log.FieldError, err)
		}
	})

	svc := pipeline.New(res.Workbook, layout.New(cfg.BaseDir),
		pipeline.WithLogger(logger),
		pipeline.WithRenderTimeout(cfg.RenderTimeout))
	analysisWorker := worker.NewAnalysisWorker(svc, logger)

	err = amqpClient.ConsumeAnalysisRequests(ctx, analysisWorker.HandleRequest)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Message consumption failed", log.FieldError, err)
		_ = amqpClient.Close()
		_ = res.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if err := res.Close(); err != nil {
		logger.WarnContext(context.Background(), "Backend cleanup failed", log.FieldError, err)
	}
	logger.InfoContext(context.Background(), "Worker stopped gracefully")
}
