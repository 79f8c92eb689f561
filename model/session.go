package model

import "time"

// BrowsingSession tracks which catalog entries a user has already been shown.
// Purely in-process working state, reset explicitly or on timeout.
type BrowsingSession struct {
	UserID       string
	Shown        map[string]struct{}
	StartedAt    time.Time
	LastActivity time.Time
}

// NewBrowsingSession creates an empty session for the user.
func NewBrowsingSession(userID string, now time.Time) *BrowsingSession {
	return &BrowsingSession{
		UserID:       userID,
		Shown:        make(map[string]struct{}),
		StartedAt:    now,
		LastActivity: now,
	}
}

// MarkShown records an entry as already presented in this session.
func (s *BrowsingSession) MarkShown(entryID string) {
	s.Shown[entryID] = struct{}{}
}

// HasShown reports whether the entry was already presented.
func (s *BrowsingSession) HasShown(entryID string) bool {
	_, ok := s.Shown[entryID]
	return ok
}
