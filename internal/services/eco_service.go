package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"greefin/internal/core"
	"greefin/internal/eco"
	applog "greefin/internal/log"
	"greefin/internal/metrics"
	"greefin/internal/ports"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
	DefaultHistorySize     = 20
	MaxHistorySize         = 100
)

var (
	ErrInvalidLimit       = errors.New("invalid limit")
	ErrHistoryUnavailable = errors.New("survey history is not available for this backend")
)

// Calculation is the stateless result returned for a survey preview.
type Calculation struct {
	Profile     eco.Profile         `json:"profile"`
	Description string              `json:"description"`
	Tips        []string            `json:"tips"`
	Breakdown   []eco.CategoryScore `json:"breakdown"`
}

// EcoService persists survey submissions and serves the derived profiles.
type EcoService struct {
	store     ports.ProfileStore
	history   ports.HistoryReader
	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	logger    *applog.Logger
}

// NewEcoService wires the store. publisher and m may be nil. History is
// served when the store also implements ports.HistoryReader.
func NewEcoService(store ports.ProfileStore, publisher ports.EventPublisher, m *metrics.Metrics, logger *applog.Logger) *EcoService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &EcoService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(applog.ComponentEco),
	}
	if h, ok := store.(ports.HistoryReader); ok {
		s.history = h
	}
	return s
}

// Preview computes profile, tips and breakdown without storing anything.
func (s *EcoService) Preview(r eco.SurveyResponse) Calculation {
	profile := eco.ComputeProfile(r)
	return Calculation{
		Profile:     profile,
		Description: profile.Persona.Description(),
		Tips:        eco.Tips(r, profile.Score),
		Breakdown:   eco.CategoryBreakdown(r),
	}
}

// Submit stores the user's new survey and announces the updated profile.
// A failed announcement is logged; the stored profile is still returned.
func (s *EcoService) Submit(ctx context.Context, userID string, r eco.SurveyResponse) (core.ProfileRecord, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return core.ProfileRecord{}, err
	}

	saved, err := s.store.SaveProfile(ctx, core.NewProfileRecord(userID, r))
	if err != nil {
		return core.ProfileRecord{}, fmt.Errorf("save profile: %w", err)
	}

	p := saved.Profile
	s.metrics.ObserveProfile(p.Score, string(p.Persona))
	applog.NewStructuredLogger(s.logger).
		LogProfileSubmitted(ctx, userID, p.Score, string(p.Persona), p.XP, len(p.Badges), saved.Version)

	if err := s.publish(ctx, userID, saved.Version); err != nil {
		s.metrics.ObservePublishFailure()
		s.logger.ErrorContext(ctx, "Failed to publish profile update",
			applog.FieldUserID, userID,
			applog.FieldVersion, saved.Version,
			applog.FieldError, err)
	}
	return saved, nil
}

func (s *EcoService) publish(ctx context.Context, userID string, version int64) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping profile update event",
			applog.FieldUserID, userID)
		return nil
	}
	return s.publisher.PublishProfileUpdated(ctx, userID, version)
}

// Get returns the stored profile or core.ErrProfileNotFound.
func (s *EcoService) Get(ctx context.Context, userID string) (core.ProfileRecord, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return core.ProfileRecord{}, err
	}
	return s.store.GetProfile(ctx, userID)
}

// Tips returns the tips stored with the user's latest submission.
func (s *EcoService) Tips(ctx context.Context, userID string) ([]string, error) {
	rec, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return rec.Tips, nil
}

// Leaderboard returns the top limit profiles; limit must be in
// [1, MaxLeaderboardSize].
func (s *EcoService) Leaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	if limit < 1 || limit > MaxLeaderboardSize {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, MaxLeaderboardSize)
	}
	entries, err := s.store.ListTopProfiles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top profiles: %w", err)
	}
	if entries == nil {
		entries = []core.LeaderboardEntry{}
	}
	return entries, nil
}

// History returns the user's past submissions, newest first.
func (s *EcoService) History(ctx context.Context, userID string, limit int) ([]core.Submission, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxHistorySize {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, MaxHistorySize)
	}
	subs, err := s.history.SurveyHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("survey history: %w", err)
	}
	if subs == nil {
		subs = []core.Submission{}
	}
	return subs, nil
}

// Close releases the store and publisher when they hold resources.
func (s *EcoService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
