package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type EcoProfile struct {
	UserID        string
	Answers       string
	Score         int64
	Persona       string
	Xp            int64
	Badges        string
	Tips          string
	Version       int64
	SyncStatus    string
	SyncedVersion int64
	UpdatedAt     string
}

type SurveyResponseRow struct {
	ID          int64
	UserID      string
	Answers     string
	Score       int64
	Persona     string
	SubmittedAt string
}

type LeaderboardRow struct {
	UserID  string
	Score   int64
	Persona string
	Xp      int64
}

const ecoProfileColumns = `user_id, answers, score, persona, xp, badges, tips, version, sync_status, synced_version, updated_at`

func scanEcoProfile(row interface{ Scan(...interface{}) error }) (EcoProfile, error) {
	var i EcoProfile
	err := row.Scan(
		&i.UserID,
		&i.Answers,
		&i.Score,
		&i.Persona,
		&i.Xp,
		&i.Badges,
		&i.Tips,
		&i.Version,
		&i.SyncStatus,
		&i.SyncedVersion,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertProfile = `-- name: UpsertProfile :one
INSERT INTO eco_profiles (user_id, answers, score, persona, xp, badges, tips, version, sync_status, synced_version, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 1, 'pending', 0, ?)
ON CONFLICT (user_id) DO UPDATE SET
    answers = excluded.answers,
    score = excluded.score,
    persona = excluded.persona,
    xp = excluded.xp,
    badges = excluded.badges,
    tips = excluded.tips,
    version = eco_profiles.version + 1,
    sync_status = 'pending',
    updated_at = excluded.updated_at
RETURNING version
`

type UpsertProfileParams struct {
	UserID    string
	Answers   string
	Score     int64
	Persona   string
	Xp        int64
	Badges    string
	Tips      string
	UpdatedAt string
}

func (q *Queries) UpsertProfile(ctx context.Context, arg UpsertProfileParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertProfile,
		arg.UserID,
		arg.Answers,
		arg.Score,
		arg.Persona,
		arg.Xp,
		arg.Badges,
		arg.Tips,
		arg.UpdatedAt,
	)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const insertSurveyResponse = `-- name: InsertSurveyResponse :one
INSERT INTO survey_responses (user_id, answers, score, persona, submitted_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

type InsertSurveyResponseParams struct {
	UserID      string
	Answers     string
	Score       int64
	Persona     string
	SubmittedAt string
}

func (q *Queries) InsertSurveyResponse(ctx context.Context, arg InsertSurveyResponseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertSurveyResponse,
		arg.UserID,
		arg.Answers,
		arg.Score,
		arg.Persona,
		arg.SubmittedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getProfile = `-- name: GetProfile :one
SELECT ` + ecoProfileColumns + ` FROM eco_profiles WHERE user_id = ?
`

func (q *Queries) GetProfile(ctx context.Context, userID string) (EcoProfile, error) {
	return scanEcoProfile(q.db.QueryRowContext(ctx, getProfile, userID))
}

const listTopProfiles = `-- name: ListTopProfiles :many
SELECT user_id, score, persona, xp FROM eco_profiles
ORDER BY score DESC, xp DESC, user_id
LIMIT ?
`

func (q *Queries) ListTopProfiles(ctx context.Context, limit int64) ([]LeaderboardRow, error) {
	rows, err := q.db.QueryContext(ctx, listTopProfiles, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LeaderboardRow
	for rows.Next() {
		var i LeaderboardRow
		if err := rows.Scan(&i.UserID, &i.Score, &i.Persona, &i.Xp); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listSurveyResponses = `-- name: ListSurveyResponses :many
SELECT id, user_id, answers, score, persona, submitted_at FROM survey_responses
WHERE user_id = ?
ORDER BY id DESC
LIMIT ?
`

type ListSurveyResponsesParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListSurveyResponses(ctx context.Context, arg ListSurveyResponsesParams) ([]SurveyResponseRow, error) {
	rows, err := q.db.QueryContext(ctx, listSurveyResponses, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SurveyResponseRow
	for rows.Next() {
		var i SurveyResponseRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Answers,
			&i.Score,
			&i.Persona,
			&i.SubmittedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPendingSyncProfiles = `-- name: GetPendingSyncProfiles :many
SELECT ` + ecoProfileColumns + ` FROM eco_profiles
WHERE sync_status != 'synced'
ORDER BY updated_at
LIMIT ?
`

func (q *Queries) GetPendingSyncProfiles(ctx context.Context, limit int64) ([]EcoProfile, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncProfiles, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EcoProfile
	for rows.Next() {
		i, err := scanEcoProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSyncedVersion = `-- name: GetSyncedVersion :one
SELECT synced_version FROM eco_profiles WHERE user_id = ?
`

func (q *Queries) GetSyncedVersion(ctx context.Context, userID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getSyncedVersion, userID)
	var synced int64
	err := row.Scan(&synced)
	return synced, err
}

const markProfileSynced = `-- name: MarkProfileSynced :execrows
UPDATE eco_profiles
SET synced_version = MAX(synced_version, ?1),
    sync_status = CASE WHEN version <= MAX(synced_version, ?1) THEN 'synced' ELSE 'pending' END
WHERE user_id = ?2
`

type MarkProfileSyncedParams struct {
	Version int64
	UserID  string
}

func (q *Queries) MarkProfileSynced(ctx context.Context, arg MarkProfileSyncedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markProfileSynced, arg.Version, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markProfileSyncError = `-- name: MarkProfileSyncError :execrows
UPDATE eco_profiles SET sync_status = 'error' WHERE user_id = ?
`

func (q *Queries) MarkProfileSyncError(ctx context.Context, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markProfileSyncError, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
