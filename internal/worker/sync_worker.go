// Package worker exports stored eco profiles to the external sheet, driven by
// profile.updated events with a periodic sweep for anything they missed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greefin/internal/amqp"
	"greefin/internal/core"
	applog "greefin/internal/log"
	"greefin/internal/metrics"
	"greefin/internal/ports"
)

// Export results recorded in metrics.
const (
	ResultExported = "exported"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
)

// ProfileSource is the storage view the worker needs.
type ProfileSource interface {
	ports.ProfileReader
	ports.SyncTracker
}

// SyncWorker exports the latest version of a profile once and records
// which version reached the sheet.
type SyncWorker struct {
	store     ProfileSource
	exporter  ports.ProfileExporter
	metrics   *metrics.Metrics
	logger    *applog.Logger
	batchSize int
}

func NewSyncWorker(store ProfileSource, exporter ports.ProfileExporter, m *metrics.Metrics, logger *applog.Logger, batchSize int) *SyncWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		metrics:   m,
		logger:    logger.WithComponent(applog.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleProfileMessage processes one profile.updated event. Events for a
// version that is already exported are acknowledged without work; events
// for unknown users are dropped.
func (w *SyncWorker) HandleProfileMessage(ctx context.Context, msg *amqp.ProfileUpdatedMessage) error {
	synced, err := w.store.SyncedVersion(ctx, msg.UserID)
	if errors.Is(err, core.ErrProfileNotFound) {
		w.logger.WarnContext(ctx, "Profile update for unknown user, dropping",
			applog.FieldUserID, msg.UserID,
			applog.FieldVersion, msg.Version)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get synced version: %w", err)
	}
	if msg.Version <= synced {
		w.skip(ctx, msg.UserID, msg.Version, synced)
		return nil
	}

	rec, err := w.store.GetProfile(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("get profile from storage: %w", err)
	}
	if rec.Version <= synced {
		w.skip(ctx, rec.UserID, rec.Version, synced)
		return nil
	}
	return w.export(ctx, rec)
}

func (w *SyncWorker) skip(ctx context.Context, userID string, version, synced int64) {
	w.metrics.ObserveExport(ResultSkipped)
	w.logger.DebugContext(ctx, "Profile version already exported",
		applog.FieldUserID, userID,
		applog.FieldVersion, version,
		"synced_version", synced)
}

// ProcessPending exports up to one batch of profiles whose latest version
// has not reached the sheet. It is the backup path for lost events.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger sweep before the consumer starts, to catch
// up after worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	n, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", "synced", n)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending profiles: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending profiles", "count", len(pending))

	synced := 0
	for _, rec := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if err := w.export(ctx, rec); err != nil {
			continue
		}
		synced++
	}
	return synced, nil
}

// Run sweeps pending profiles every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", applog.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) export(ctx context.Context, rec core.ProfileRecord) error {
	if err := w.exporter.ExportProfile(ctx, rec); err != nil {
		w.metrics.ObserveExport(ResultFailed)
		applog.NewStructuredLogger(w.logger).LogError(ctx, "Failed to export profile", err,
			applog.ComponentWorker, applog.OpExport,
			applog.NewFields().WithUser(rec.UserID).WithVersion(rec.Version))
		if markErr := w.store.MarkSyncError(ctx, rec.UserID); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error",
				applog.FieldUserID, rec.UserID,
				applog.FieldError, markErr)
		}
		return fmt.Errorf("export profile: %w", err)
	}

	w.metrics.ObserveExport(ResultExported)
	if err := w.store.MarkSynced(ctx, rec.UserID, rec.Version); err != nil {
		// The row is in the sheet; a later sweep may append it again.
		w.logger.ErrorContext(ctx, "Failed to mark as synced",
			applog.FieldUserID, rec.UserID,
			applog.FieldVersion, rec.Version,
			applog.FieldError, err)
		return nil
	}

	w.logger.InfoContext(ctx, "Exported profile",
		applog.FieldUserID, rec.UserID,
		applog.FieldVersion, rec.Version,
		applog.FieldScore, rec.Profile.Score)
	return nil
}
