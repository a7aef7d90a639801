package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greefin/internal/core"
	"greefin/internal/eco"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "greefin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func scenario() eco.SurveyResponse {
	return eco.SurveyResponse{
		Commute:             eco.CommuteCycle,
		RideHailing:         eco.RideRarely,
		WeeklyKm:            "30",
		MeatConsumption:     eco.MeatRarely,
		EatingOut:           eco.EatOutMonthly,
		OrganicFood:         eco.Often,
		ClothesFrequency:    eco.ClothesSeasonally,
		EcoBrands:           eco.Often,
		ReusableBags:        eco.Often,
		ElectricityBill:     eco.BillMedium,
		SwitchOffAppliances: eco.Often,
		EnergyEfficient:     eco.CoverageMost,
		ReusableBottles:     eco.Often,
		Recycling:           eco.Often,
		Goal:                "bike more",
	}
}

func TestSaveAndGetProfile(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	saved, err := repo.SaveProfile(ctx, core.NewProfileRecord("alice", scenario()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, scenario(), got.Survey)
	assert.Equal(t, 72, got.Profile.Score)
	assert.Equal(t, eco.PersonaWarrior, got.Profile.Persona)
	assert.Equal(t, 142, got.Profile.XP)
	assert.Equal(t, []eco.Badge{eco.BadgeCyclist}, got.Profile.Badges)
	assert.Equal(t, saved.Tips, got.Tips)
	assert.True(t, saved.UpdatedAt.Equal(got.UpdatedAt))
}

func TestGetProfileNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, core.ErrProfileNotFound)
}

func TestSaveProfileRejectsInvalidUser(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.SaveProfile(context.Background(), core.NewProfileRecord("bad id", eco.SurveyResponse{}))
	assert.ErrorIs(t, err, core.ErrInvalidUserID)
}

func TestResubmissionBumpsVersionAndKeepsHistory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	_, err := repo.SaveProfile(ctx, core.NewProfileRecord("bob", eco.SurveyResponse{}))
	require.NoError(t, err)
	second, err := repo.SaveProfile(ctx, core.NewProfileRecord("bob", scenario()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)

	got, err := repo.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 72, got.Profile.Score)
	assert.Equal(t, int64(2), got.Version)

	history, err := repo.SurveyHistory(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 72, history[0].Score)
	assert.Equal(t, 0, history[1].Score)
	assert.Equal(t, eco.PersonaExplorer, history[1].Persona)
	assert.True(t, history[0].SubmittedAt.After(history[1].SubmittedAt))

	limited, err := repo.SurveyHistory(ctx, "bob", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListTopProfiles(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	best := eco.SurveyResponse{
		Commute: eco.CommuteWalk, RideHailing: eco.RideNever, WeeklyKm: "0",
		MeatConsumption: eco.MeatNever, EatingOut: eco.EatOutNever, OrganicFood: eco.Always,
		ClothesFrequency: eco.ClothesRarely, EcoBrands: eco.Always, ReusableBags: eco.Always,
		ElectricityBill: eco.BillLow, SwitchOffAppliances: eco.Always, EnergyEfficient: eco.CoverageAll,
		ReusableBottles: eco.Always, Recycling: eco.Always,
	}
	for id, survey := range map[string]eco.SurveyResponse{
		"empty":    {},
		"best":     best,
		"scenario": scenario(),
	} {
		_, err := repo.SaveProfile(ctx, core.NewProfileRecord(id, survey))
		require.NoError(t, err)
	}

	top, err := repo.ListTopProfiles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.LeaderboardEntry{UserID: "best", Score: 100, Persona: eco.PersonaWarrior, XP: 210}, top[0])
	assert.Equal(t, "scenario", top[1].UserID)
}

func TestSyncTracking(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.SaveProfile(ctx, core.NewProfileRecord("carol", scenario()))
	require.NoError(t, err)

	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "carol", pending[0].UserID)

	require.NoError(t, repo.MarkSynced(ctx, "carol", 1))
	synced, err := repo.SyncedVersion(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), synced)

	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A new submission makes the profile pending again.
	_, err = repo.SaveProfile(ctx, core.NewProfileRecord("carol", eco.SurveyResponse{}))
	require.NoError(t, err)
	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].Version)

	// A stale acknowledgement neither lowers the synced version nor clears pending.
	require.NoError(t, repo.MarkSynced(ctx, "carol", 1))
	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, repo.MarkSyncError(ctx, "carol"))
	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "errored profiles stay eligible for the sweep")

	require.NoError(t, repo.MarkSynced(ctx, "carol", 2))
	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncTrackingUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	assert.ErrorIs(t, repo.MarkSynced(ctx, "ghost", 1), core.ErrProfileNotFound)
	assert.ErrorIs(t, repo.MarkSyncError(ctx, "ghost"), core.ErrProfileNotFound)
	_, err := repo.SyncedVersion(ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrProfileNotFound)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
