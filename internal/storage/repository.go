package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"greefin/internal/core"
	"greefin/internal/eco"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the upsert and history insert share a transaction.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveProfile implements ports.ProfileWriter. The profile upsert and the
// history row are written atomically.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, rec core.ProfileRecord) (core.ProfileRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ProfileRecord{}, err
	}

	answers, err := json.Marshal(rec.Survey)
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("encode answers: %w", err)
	}
	badges, err := json.Marshal(rec.Profile.Badges)
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("encode badges: %w", err)
	}
	tips, err := json.Marshal(rec.Tips)
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("encode tips: %w", err)
	}
	now := r.now().UTC()
	stamp := now.Format(timeLayout)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	version, err := q.UpsertProfile(ctx, UpsertProfileParams{
		UserID:    rec.UserID,
		Answers:   string(answers),
		Score:     int64(rec.Profile.Score),
		Persona:   string(rec.Profile.Persona),
		Xp:        int64(rec.Profile.XP),
		Badges:    string(badges),
		Tips:      string(tips),
		UpdatedAt: stamp,
	})
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("upsert profile: %w", err)
	}

	id, err := q.InsertSurveyResponse(ctx, InsertSurveyResponseParams{
		UserID:      rec.UserID,
		Answers:     string(answers),
		Score:       int64(rec.Profile.Score),
		Persona:     string(rec.Profile.Persona),
		SubmittedAt: stamp,
	})
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("insert survey response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.ProfileRecord{}, fmt.Errorf("commit profile: %w", err)
	}

	slog.InfoContext(ctx, "Eco profile saved to SQLite",
		"user_id", rec.UserID,
		"submission_id", id,
		"score", rec.Profile.Score,
		"version", version)

	rec.Version = version
	rec.UpdatedAt = now
	return rec, nil
}

// GetProfile implements ports.ProfileReader.
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.ProfileRecord, error) {
	row, err := r.queries.GetProfile(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProfileRecord{}, core.ErrProfileNotFound
	}
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return row.toRecord()
}

// ListTopProfiles implements ports.ProfileLister.
func (r *SQLiteRepository) ListTopProfiles(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	rows, err := r.queries.ListTopProfiles(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list top profiles: %w", err)
	}
	entries := make([]core.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = core.LeaderboardEntry{
			UserID:  row.UserID,
			Score:   int(row.Score),
			Persona: eco.Persona(row.Persona),
			XP:      int(row.Xp),
		}
	}
	return entries, nil
}

// SurveyHistory implements ports.HistoryReader.
func (r *SQLiteRepository) SurveyHistory(ctx context.Context, userID string, limit int) ([]core.Submission, error) {
	rows, err := r.queries.ListSurveyResponses(ctx, ListSurveyResponsesParams{
		UserID: userID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list survey responses: %w", err)
	}
	out := make([]core.Submission, 0, len(rows))
	for _, row := range rows {
		survey, err := eco.DecodeJSON([]byte(row.Answers))
		if err != nil {
			return nil, fmt.Errorf("decode submission %d: %w", row.ID, err)
		}
		submitted, err := time.Parse(timeLayout, row.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("parse submission %d time: %w", row.ID, err)
		}
		out = append(out, core.Submission{
			ID:          row.ID,
			UserID:      row.UserID,
			Survey:      survey,
			Score:       int(row.Score),
			Persona:     eco.Persona(row.Persona),
			SubmittedAt: submitted,
		})
	}
	return out, nil
}

// PendingSync implements ports.SyncTracker.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.ProfileRecord, error) {
	rows, err := r.queries.GetPendingSyncProfiles(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync profiles: %w", err)
	}
	out := make([]core.ProfileRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SyncedVersion returns the highest exported version for userID, or
// core.ErrProfileNotFound.
func (r *SQLiteRepository) SyncedVersion(ctx context.Context, userID string) (int64, error) {
	v, err := r.queries.GetSyncedVersion(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrProfileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get synced version: %w", err)
	}
	return v, nil
}

// MarkSynced records that version reached the export sink. Older
// versions never lower the recorded one.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, userID string, version int64) error {
	n, err := r.queries.MarkProfileSynced(ctx, MarkProfileSyncedParams{Version: version, UserID: userID})
	if err != nil {
		return fmt.Errorf("mark profile synced: %w", err)
	}
	if n == 0 {
		return core.ErrProfileNotFound
	}

	slog.InfoContext(ctx, "Eco profile marked as synced", "user_id", userID, "version", version)
	return nil
}

// MarkSyncError flags the profile for the next sweep.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, userID string) error {
	n, err := r.queries.MarkProfileSyncError(ctx, userID)
	if err != nil {
		return fmt.Errorf("mark profile sync error: %w", err)
	}
	if n == 0 {
		return core.ErrProfileNotFound
	}

	slog.WarnContext(ctx, "Eco profile marked with sync error", "user_id", userID)
	return nil
}

func (p EcoProfile) toRecord() (core.ProfileRecord, error) {
	survey, err := eco.DecodeJSON([]byte(p.Answers))
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("decode answers for %s: %w", p.UserID, err)
	}
	var badges []eco.Badge
	if err := json.Unmarshal([]byte(p.Badges), &badges); err != nil {
		return core.ProfileRecord{}, fmt.Errorf("decode badges for %s: %w", p.UserID, err)
	}
	if badges == nil {
		badges = []eco.Badge{}
	}
	var tips []string
	if err := json.Unmarshal([]byte(p.Tips), &tips); err != nil {
		return core.ProfileRecord{}, fmt.Errorf("decode tips for %s: %w", p.UserID, err)
	}
	updated, err := time.Parse(timeLayout, p.UpdatedAt)
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("parse updated_at for %s: %w", p.UserID, err)
	}
	return core.ProfileRecord{
		UserID: p.UserID,
		Survey: survey,
		Profile: eco.Profile{
			Score:   int(p.Score),
			Persona: eco.Persona(p.Persona),
			XP:      int(p.Xp),
			Badges:  badges,
		},
		Tips:      tips,
		Version:   p.Version,
		UpdatedAt: updated,
	}, nil
}
