package model

import "time"

// CatalogEntry represents a listed service profile with engagement counters.
// Number is assigned once at creation and never reused.
type CatalogEntry struct {
	ID          string
	Number      int
	OwnerID     string
	Link        string
	Category    string
	Name        string
	Tags        []string
	Media       string
	IsPriority  bool
	IsAd        bool
	AdFrequency int
	Views       int64
	Clicks      int64
	IsActive    bool
	CreatedAt   time.Time
}

// Review is a single user rating of a catalog entry.
type Review struct {
	ID        string
	EntryID   string
	UserID    string
	Rating    int
	Text      string
	CreatedAt time.Time
}
