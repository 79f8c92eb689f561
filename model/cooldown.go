package model

import "time"

// CooldownKind selects how a cooldown's expiry is computed.
type CooldownKind string

const (
	CooldownNormal CooldownKind = "normal"
	CooldownDaily  CooldownKind = "daily"
	CooldownWeekly CooldownKind = "weekly"
	CooldownGlobal CooldownKind = "global"
)

// Valid reports whether the kind is one of the known values.
func (k CooldownKind) Valid() bool {
	switch k {
	case CooldownNormal, CooldownDaily, CooldownWeekly, CooldownGlobal:
		return true
	}
	return false
}

// CooldownRecord is one per-user, per-action cooldown window.
// A record with ExpiresAt in the past is logically absent.
type CooldownRecord struct {
	UserID    string
	Action    string
	Kind      CooldownKind
	ExpiresAt time.Time
	Uses      int
}

// Expired reports whether the record is past its window at the given time.
func (r CooldownRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
