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

	"greefin/internal/amqp"
	"greefin/internal/cli"
	"greefin/internal/log"
	"greefin/internal/metrics"
	gsheet "greefin/internal/sheets/google"
	"greefin/internal/worker"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateWorker)

	logger.Info("Starting greefin-worker")

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var err error
	sheetsCfg := gsheet.Config{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SheetName:     cfg.GoogleSheetName,
	}
	if cfg.GoogleServiceAccountJSON != "" || cfg.GoogleServiceAccountFile != "" {
		sheetsCfg.CredentialsJSON, err = cfg.ServiceAccountCredentials()
	} else {
		sheetsCfg.OAuthClientJSON, sheetsCfg.OAuthTokenJSON, err = cfg.OAuthCredentials()
	}
	if err != nil {
		logger.Error("Failed to load Google credentials", log.FieldError, err)
		os.Exit(1)
	}
	sheets, err := gsheet.New(ctx, sheetsCfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		// Not fatal: exports append rows either way.
		logger.Warn("Failed to ensure sheet header", log.FieldError, err)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.MustNew(reg)

	syncWorker := worker.NewSyncWorker(repo, sheets, m, logger, cfg.SyncBatchSize)

	// Profiles saved while the worker was down never produced a delivery.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeProfileUpdates(gctx, syncWorker.HandleProfileMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return syncWorker.Run(gctx, cfg.SyncInterval)
	})

	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler(reg))
		metricsSrv := &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Serving worker metrics", "port", cfg.MetricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			cli.RunShutdown(logger, "metrics server", 5*time.Second, metricsSrv.Shutdown)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
