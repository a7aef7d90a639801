package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"greefin/internal/eco"
)

const (
	SyncPending SyncStatus = "pending"
	SyncDone    SyncStatus = "synced"
	SyncError   SyncStatus = "error"

	MaxUserIDLength = 64
)

type (
	SyncStatus string

	// ProfileRecord is the latest derived profile stored for a user.
	// Version increases by one on every accepted submission.
	ProfileRecord struct {
		UserID    string
		Survey    eco.SurveyResponse
		Profile   eco.Profile
		Tips      []string
		Version   int64
		UpdatedAt time.Time
	}

	// Submission is one entry of a user's survey history.
	Submission struct {
		ID          int64
		UserID      string
		Survey      eco.SurveyResponse
		Score       int
		Persona     eco.Persona
		SubmittedAt time.Time
	}

	// LeaderboardEntry is the public projection of a profile.
	LeaderboardEntry struct {
		UserID  string      `json:"userId"`
		Score   int         `json:"score"`
		Persona eco.Persona `json:"persona"`
		XP      int         `json:"xp"`
	}
)

var (
	ErrEmptyUserID     = errors.New("empty user id")
	ErrInvalidUserID   = errors.New("invalid user id")
	ErrProfileNotFound = errors.New("profile not found")
)

// ValidateUserID accepts ids of at most MaxUserIDLength characters drawn
// from letters, digits and "_.@-".
func ValidateUserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyUserID
	}
	if len(id) > MaxUserIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidUserID, MaxUserIDLength)
	}
	for _, r := range id {
		if !validUserIDRune(r) {
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidUserID, r)
		}
	}
	return nil
}

func validUserIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '@', r == '-':
		return true
	}
	return false
}

func (p ProfileRecord) Validate() error {
	if err := ValidateUserID(p.UserID); err != nil {
		return err
	}
	if p.Profile.Score < 0 || p.Profile.Score > 100 {
		return fmt.Errorf("score %d out of range", p.Profile.Score)
	}
	return nil
}

// NewProfileRecord derives the profile and tips for survey. Version and
// UpdatedAt are assigned by the store.
func NewProfileRecord(userID string, survey eco.SurveyResponse) ProfileRecord {
	profile := eco.ComputeProfile(survey)
	return ProfileRecord{
		UserID:  userID,
		Survey:  survey,
		Profile: profile,
		Tips:    eco.Tips(survey, profile.Score),
	}
}

// Entry projects the record onto the leaderboard view.
func (p ProfileRecord) Entry() LeaderboardEntry {
	return LeaderboardEntry{
		UserID:  p.UserID,
		Score:   p.Profile.Score,
		Persona: p.Profile.Persona,
		XP:      p.Profile.XP,
	}
}
