// Package memory is the default, process-local profile store.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"greefin/internal/core"
)

type Store struct {
	mu       sync.RWMutex
	profiles map[string]core.ProfileRecord
	now      func() time.Time
}

func New() *Store {
	return &Store{profiles: map[string]core.ProfileRecord{}, now: time.Now}
}

// SaveProfile replaces the user's profile and bumps its version.
func (s *Store) SaveProfile(_ context.Context, rec core.ProfileRecord) (core.ProfileRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ProfileRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec = clone(rec)
	rec.Version = s.profiles[rec.UserID].Version + 1
	rec.UpdatedAt = s.now().UTC()
	s.profiles[rec.UserID] = rec
	return clone(rec), nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.profiles[userID]
	if !ok {
		return core.ProfileRecord{}, core.ErrProfileNotFound
	}
	return clone(rec), nil
}

func (s *Store) ListTopProfiles(_ context.Context, limit int) ([]core.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := make([]core.LeaderboardEntry, 0, len(s.profiles))
	for _, rec := range s.profiles {
		entries = append(entries, rec.Entry())
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		return a.UserID < b.UserID
	})
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func clone(rec core.ProfileRecord) core.ProfileRecord {
	rec.Tips = slices.Clone(rec.Tips)
	rec.Profile.Badges = slices.Clone(rec.Profile.Badges)
	return rec
}
