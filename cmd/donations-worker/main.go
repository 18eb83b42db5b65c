package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"donations/internal/amqp"
	"donations/internal/cli"
	applog "donations/internal/log"
	"donations/internal/metrics"
	"donations/internal/worker"
)

const summaryTop = 10

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(slog.Default())
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	logger.Info("Starting donations-worker", "queue", cfg.AMQPQueue, "tally_interval", cfg.TallyInterval.String())

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	dir := cli.LoadSchools(startCtx, logger, cfg.SchoolAliases)
	cancelStart()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	m := metrics.New()
	tally := worker.NewTallyWorker(dir, m, logger)

	var metricsSrv *http.Server
	if cfg.WorkerMetricsPort != "" {
		metricsSrv = m.Server(":" + cfg.WorkerMetricsPort)
		go func() {
			logger.Info("Serving worker metrics", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if metricsSrv == nil {
			return
		}
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	})

	summaryDone := make(chan struct{})
	go func() {
		defer close(summaryDone)
		tally.RunSummary(ctx, cfg.TallyInterval, summaryTop)
	}()

	if err := client.ConsumeSelections(ctx, tally.HandleSelection); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	<-summaryDone
	logger.Info("Worker stopped gracefully", "events", tally.Total())
}
