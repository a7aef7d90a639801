package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greefin/internal/core"
	"greefin/internal/eco"
	applog "greefin/internal/log"
	"greefin/internal/memory"
	"greefin/internal/metrics"
)

type publishedEvent struct {
	userID  string
	version int64
}

type fakePublisher struct {
	events []publishedEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishProfileUpdated(_ context.Context, userID string, version int64) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{userID, version})
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type historyStore struct {
	*memory.Store
	subs []core.Submission
}

func (h *historyStore) SurveyHistory(_ context.Context, userID string, limit int) ([]core.Submission, error) {
	var out []core.Submission
	for _, s := range h.subs {
		if s.UserID == userID && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
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
	}
}

func TestEcoService_Preview(t *testing.T) {
	svc := NewEcoService(memory.New(), nil, nil, quietLogger())

	calc := svc.Preview(scenario())

	assert.Equal(t, 72, calc.Profile.Score)
	assert.Equal(t, eco.PersonaWarrior, calc.Profile.Persona)
	assert.Equal(t, 142, calc.Profile.XP)
	assert.Equal(t, []eco.Badge{eco.BadgeCyclist}, calc.Profile.Badges)
	assert.Equal(t, eco.PersonaWarrior.Description(), calc.Description)
	assert.Len(t, calc.Breakdown, 5)
	assert.NotEmpty(t, calc.Tips)
}

func TestEcoService_Submit(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	pub := &fakePublisher{}
	svc := NewEcoService(memory.New(), pub, metrics.MustNew(reg), quietLogger())

	rec, err := svc.Submit(ctx, "alice", scenario())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, 72, rec.Profile.Score)

	rec, err = svc.Submit(ctx, "alice", eco.SurveyResponse{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, 0, rec.Profile.Score)

	assert.Equal(t, []publishedEvent{{"alice", 1}, {"alice", 2}}, pub.events)

	n, err := testutil.GatherAndCount(reg, "greefin_eco_score")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestEcoService_SubmitPublishFailure(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewEcoService(memory.New(), pub, metrics.MustNew(reg), quietLogger())

	rec, err := svc.Submit(ctx, "bob", scenario())
	require.NoError(t, err, "publish failure must not fail the submission")
	assert.Equal(t, int64(1), rec.Version)

	expected := `
# HELP greefin_amqp_publish_failures_total profile.updated events that could not be published.
# TYPE greefin_amqp_publish_failures_total counter
greefin_amqp_publish_failures_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "greefin_amqp_publish_failures_total"))

	_, err = svc.Get(ctx, "bob")
	assert.NoError(t, err)
}

func TestEcoService_SubmitInvalidUser(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewEcoService(memory.New(), pub, nil, quietLogger())

	_, err := svc.Submit(context.Background(), "", scenario())
	assert.ErrorIs(t, err, core.ErrEmptyUserID)

	_, err = svc.Submit(context.Background(), "bad user!", scenario())
	assert.ErrorIs(t, err, core.ErrInvalidUserID)

	assert.Empty(t, pub.events)
}

func TestEcoService_GetAndTips(t *testing.T) {
	ctx := context.Background()
	svc := NewEcoService(memory.New(), nil, nil, quietLogger())

	_, err := svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrProfileNotFound)

	_, err = svc.Tips(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrProfileNotFound)

	_, err = svc.Submit(ctx, "carol", eco.SurveyResponse{})
	require.NoError(t, err)

	tips, err := svc.Tips(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, eco.Tips(eco.SurveyResponse{}, 0), tips)
}

func TestEcoService_Leaderboard(t *testing.T) {
	ctx := context.Background()
	svc := NewEcoService(memory.New(), nil, nil, quietLogger())

	entries, err := svc.Leaderboard(ctx, DefaultLeaderboardSize)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, err = svc.Submit(ctx, "low", eco.SurveyResponse{})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "high", scenario())
	require.NoError(t, err)

	entries, err = svc.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "high", entries[0].UserID)

	for _, limit := range []int{0, -1, MaxLeaderboardSize + 1} {
		_, err := svc.Leaderboard(ctx, limit)
		assert.ErrorIs(t, err, ErrInvalidLimit, "limit %d", limit)
	}
}

func TestEcoService_History(t *testing.T) {
	ctx := context.Background()

	svc := NewEcoService(memory.New(), nil, nil, quietLogger())
	_, err := svc.History(ctx, "dave", 5)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)

	store := &historyStore{
		Store: memory.New(),
		subs: []core.Submission{
			{ID: 2, UserID: "dave", Score: 72},
			{ID: 1, UserID: "dave", Score: 0},
			{ID: 3, UserID: "erin", Score: 11},
		},
	}
	svc = NewEcoService(store, nil, nil, quietLogger())

	subs, err := svc.History(ctx, "dave", 5)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(2), subs[0].ID)

	subs, err = svc.History(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)

	_, err = svc.History(ctx, "dave", 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestEcoService_Close(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewEcoService(memory.New(), pub, nil, quietLogger())

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}
