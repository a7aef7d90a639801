// Package ports declares the collaborators the eco service depends on.
// Storage, export and messaging adapters implement these interfaces.
package ports

import (
	"context"

	"greefin/internal/core"
)

type (
	// ProfileWriter stores the latest profile of a user and records the
	// submission. The returned record carries the assigned version.
	ProfileWriter interface {
		SaveProfile(ctx context.Context, rec core.ProfileRecord) (core.ProfileRecord, error)
	}

	// ProfileReader returns core.ErrProfileNotFound for unknown users.
	ProfileReader interface {
		GetProfile(ctx context.Context, userID string) (core.ProfileRecord, error)
	}

	// ProfileLister ranks users by score, then XP.
	ProfileLister interface {
		ListTopProfiles(ctx context.Context, limit int) ([]core.LeaderboardEntry, error)
	}

	ProfileStore interface {
		ProfileWriter
		ProfileReader
		ProfileLister
	}

	// HistoryReader lists past submissions, newest first.
	HistoryReader interface {
		SurveyHistory(ctx context.Context, userID string, limit int) ([]core.Submission, error)
	}

	// SyncTracker tracks which profile versions reached the export sink.
	SyncTracker interface {
		PendingSync(ctx context.Context, limit int) ([]core.ProfileRecord, error)
		SyncedVersion(ctx context.Context, userID string) (int64, error)
		MarkSynced(ctx context.Context, userID string, version int64) error
		MarkSyncError(ctx context.Context, userID string) error
	}

	ProfileExporter interface {
		ExportProfile(ctx context.Context, rec core.ProfileRecord) error
	}

	EventPublisher interface {
		PublishProfileUpdated(ctx context.Context, userID string, version int64) error
	}
)
