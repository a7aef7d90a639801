package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"greefin/internal/backend"
	"greefin/internal/cli"
	apphttp "greefin/internal/http"
	"greefin/internal/log"
	"greefin/internal/metrics"
	"greefin/internal/services"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNew(reg)

	service := services.NewEcoService(result.Store, result.Publisher, m, logger)

	var ready func(context.Context) error
	if p, ok := result.Store.(interface{ Ping(context.Context) error }); ok {
		ready = p.Ping
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            service,
		Metrics:            m,
		Gatherer:           reg,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ProfileCacheSize:   cfg.ProfileCacheSize,
		ProfileCacheTTL:    cfg.ProfileCacheTTL,
		Ready:              ready,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting greefin server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cli.RunShutdown(logger, "http server", 30*time.Second, srv.Shutdown)
		return nil
	})

	runErr := g.Wait()
	if result.Cleanup != nil {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	}
	if runErr != nil {
		logger.Error("Server error", log.FieldError, runErr, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
