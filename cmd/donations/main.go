package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"donations/internal/amqp"
	"donations/internal/cache"
	"donations/internal/cli"
	"donations/internal/dashboard"
	apphttp "donations/internal/http"
	applog "donations/internal/log"
	"donations/internal/metrics"
	"donations/internal/schools"
	"donations/internal/session"
	"donations/internal/source"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(slog.Default())
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	res := cli.OpenBackend(startCtx, logger, cfg)
	dir := cli.LoadSchools(startCtx, logger, cfg.SchoolAliases)
	reportMissingAliases(startCtx, logger, res.Source, dir)
	cancelStart()

	m := metrics.New()
	opts := []dashboard.Option{
		dashboard.WithLogger(logger),
		dashboard.WithMetrics(m),
		dashboard.WithQueryTimeout(cfg.QueryTimeout),
	}

	var publisher *amqp.Client
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Selection events are best effort; the dashboard serves without them.
			logger.Warn("AMQP unavailable, selection events disabled", "error", err)
		} else {
			publisher = client
			opts = append(opts, dashboard.WithPublisher(client))
			logger.Info("Publishing selection events", "exchange", cfg.AMQPExchange)
		}
	}

	ctrl, err := dashboard.New(res.Source, dir, cfg.DefaultSchool, opts...)
	if err != nil {
		logger.Error("Failed to build dashboard", "default_school", cfg.DefaultSchool, "error", err)
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL, m)
	caches := cache.NewManager(logger)
	caches.Register(sessions.Cache())

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Controller:      ctrl,
		Schools:         dir,
		Sessions:        sessions,
		Pinger:          res.Pinger,
		Metrics:         m,
		Logger:          logger,
		EventsPerMinute: cfg.EventsPerMinute,
		TrustedProxies:  cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})
	go caches.Run(ctx, time.Minute)
	go srv.RunMaintenance(ctx, 5*time.Minute)

	logger.Info("Starting donations dashboard",
		"port", cfg.Port, applog.FieldBackend, cfg.DataBackend, "default_school", cfg.DefaultSchool)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	}
	if res.Cleanup != nil {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close data source", "error", err)
		}
	}
	logger.Info("Server stopped gracefully")
}

// reportMissingAliases warns about schools that have donations but no
// dropdown entry; their bars render but cannot be selected.
func reportMissingAliases(ctx context.Context, logger *slog.Logger, src source.DonationSource, dir *schools.Directory) {
	rows, err := src.AggregateTotals(ctx)
	if err != nil {
		logger.Warn("Could not check alias coverage", "error", err)
		return
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.School
	}
	missing := dir.Missing(names)
	for _, name := range missing {
		logger.Warn("School has donations but no alias", applog.FieldSchool, name)
	}
	if len(missing) > 0 {
		logger.Warn("Schools without aliases are not selectable", "count", len(missing))
	}
}
