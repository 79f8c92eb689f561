// Package ratelimit tracks per-user, per-action cooldown windows.
//
// The in-memory cache is the source of truth; an optional store mirror is
// written best-effort after every change so windows survive a restart.
package ratelimit

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lavrelin/offtrix-sub000/model"

	"golang.org/x/time/rate"
)

var (
	// ErrInvalidKind is returned for a cooldown kind outside the known set.
	ErrInvalidKind = errors.New("ratelimit: invalid cooldown kind")
	// ErrInvalidDuration is returned for a non-positive duration where one is required.
	ErrInvalidDuration = errors.New("ratelimit: duration must be positive")
)

// Mirror receives best-effort copies of cooldown records. Failures are
// logged and swallowed, never propagated.
type Mirror interface {
	SaveCooldown(rec model.CooldownRecord) error
	DeleteCooldowns(userID, action string) error
	PruneCooldowns(now time.Time) error
}

type record struct {
	model.CooldownRecord
	history []time.Time
}

// Limiter is the process-wide cooldown tracker. Single-instance only:
// none of this state is shared across processes.
type Limiter struct {
	mu         sync.Mutex
	records    map[string]*record
	globals    map[string]*record
	bursts     map[string]time.Time
	privileged func(userID string) bool
	mirror     Mirror
	mirrorLog  rate.Sometimes
	now        func() time.Time

	retention time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMirror attaches a persistence mirror.
func WithMirror(m Mirror) Option {
	return func(l *Limiter) { l.mirror = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithRetention overrides how long usage history is kept.
func WithRetention(d time.Duration) Option {
	return func(l *Limiter) { l.retention = d }
}

// New creates a Limiter. privileged decides which users bypass all checks;
// a nil func means nobody is privileged.
func New(privileged func(userID string) bool, opts ...Option) *Limiter {
	if privileged == nil {
		privileged = func(string) bool { return false }
	}
	l := &Limiter{
		records:    make(map[string]*record),
		globals:    make(map[string]*record),
		bursts:     make(map[string]time.Time),
		privileged: privileged,
		mirrorLog:  rate.Sometimes{First: 1, Interval: time.Minute},
		now:        time.Now,
		retention:  7 * 24 * time.Hour,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func key(userID, action string) string {
	return userID + "|" + action
}

func (l *Limiter) bucket(kind model.CooldownKind) map[string]*record {
	// GLOBAL records live in their own namespace, independent from
	// per-action cooldowns for the same key.
	if kind == model.CooldownGlobal {
		return l.globals
	}
	return l.records
}

// Check reports whether the action is allowed for the user right now, and
// the remaining wait when it is not. Privileged users always pass.
func (l *Limiter) Check(userID, action string, d time.Duration, kind model.CooldownKind) (bool, time.Duration, error) {
	if err := validate(d, kind); err != nil {
		return false, 0, err
	}
	if l.privileged(userID) {
		return true, 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checkLocked(userID, action, kind)
}

func (l *Limiter) checkLocked(userID, action string, kind model.CooldownKind) (bool, time.Duration, error) {
	rec, ok := l.bucket(kind)[key(userID, action)]
	if !ok {
		return true, 0, nil
	}
	remaining := rec.ExpiresAt.Sub(l.now())
	if remaining <= 0 {
		return true, 0, nil
	}
	return false, remaining, nil
}

// Set stores or refreshes the cooldown record for (user, action). No-op for
// privileged users. The record's expiry never moves backwards.
func (l *Limiter) Set(userID, action string, d time.Duration, kind model.CooldownKind) error {
	if err := validate(d, kind); err != nil {
		return err
	}
	if l.privileged(userID) {
		return nil
	}

	l.mu.Lock()
	rec := l.setLocked(userID, action, d, kind)
	l.mu.Unlock()

	l.mirrorWrite(rec)
	return nil
}

func (l *Limiter) setLocked(userID, action string, d time.Duration, kind model.CooldownKind) model.CooldownRecord {
	now := l.now()
	k := key(userID, action)
	bucket := l.bucket(kind)

	rec, ok := bucket[k]
	if !ok || rec.Expired(now) {
		rec = &record{CooldownRecord: model.CooldownRecord{
			UserID: userID,
			Action: action,
		}}
		bucket[k] = rec
	}

	expires := expiryFor(now, d, kind)
	if expires.After(rec.ExpiresAt) {
		rec.ExpiresAt = expires
	}
	rec.Kind = kind
	rec.Uses++
	rec.history = append(rec.history, now)
	return rec.CooldownRecord
}

// Reserve is Check immediately followed by Set under a single lock, closing
// the race window between a check and a later set across a suspension point.
func (l *Limiter) Reserve(userID, action string, d time.Duration, kind model.CooldownKind) (bool, time.Duration, error) {
	if err := validate(d, kind); err != nil {
		return false, 0, err
	}
	if l.privileged(userID) {
		return true, 0, nil
	}

	l.mu.Lock()
	allowed, remaining, _ := l.checkLocked(userID, action, kind)
	var rec model.CooldownRecord
	if allowed {
		rec = l.setLocked(userID, action, d, kind)
	}
	l.mu.Unlock()

	if allowed {
		l.mirrorWrite(rec)
	}
	return allowed, remaining, nil
}

// Reset clears one record, or every record for the user when action is
// empty. Administrative override; also clears the burst guard.
func (l *Limiter) Reset(userID, action string) {
	l.mu.Lock()
	if action == "" {
		for k := range l.records {
			if keyUser(k) == userID {
				delete(l.records, k)
			}
		}
		for k := range l.globals {
			if keyUser(k) == userID {
				delete(l.globals, k)
			}
		}
		delete(l.bursts, userID)
	} else {
		delete(l.records, key(userID, action))
		delete(l.globals, key(userID, action))
	}
	l.mu.Unlock()

	if l.mirror != nil {
		if err := l.mirror.DeleteCooldowns(userID, action); err != nil {
			log.Printf("ratelimit: failed to clear mirrored cooldowns for %s: %v", userID, err)
		}
	}
}

// Restore warms the cache from mirrored records, skipping expired ones.
func (l *Limiter) Restore(recs []model.CooldownRecord) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range recs {
		if rec.Expired(now) || !rec.Kind.Valid() {
			continue
		}
		l.bucket(rec.Kind)[key(rec.UserID, rec.Action)] = &record{CooldownRecord: rec}
	}
}

func (l *Limiter) mirrorWrite(rec model.CooldownRecord) {
	if l.mirror == nil {
		return
	}
	if err := l.mirror.SaveCooldown(rec); err != nil {
		// A dead store would otherwise log one line per gated action.
		l.mirrorLog.Do(func() {
			log.Printf("ratelimit: mirror write failed for %s/%s: %v", rec.UserID, rec.Action, err)
		})
	}
}

func validate(d time.Duration, kind model.CooldownKind) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	// DAILY and WEEKLY windows ignore the duration entirely.
	if (kind == model.CooldownNormal || kind == model.CooldownGlobal) && d <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// expiryFor computes the expiry for a window started at now.
func expiryFor(now time.Time, d time.Duration, kind model.CooldownKind) time.Time {
	switch kind {
	case model.CooldownDaily:
		return startOfNextDay(now)
	case model.CooldownWeekly:
		return startOfNextMonday(now)
	default:
		return now.Add(d)
	}
}

func startOfNextDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

func startOfNextMonday(now time.Time) time.Time {
	offset := (8 - int(now.Weekday())) % 7
	if offset == 0 {
		offset = 7
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, now.Location())
}

func keyUser(k string) string {
	for i := 0; i < len(k); i++ {
		if k[i] == '|' {
			return k[:i]
		}
	}
	return k
}

// SetGlobalBurst arms (or re-arms) the short, action-independent guard
// applied ahead of all other checks to blunt rapid-fire abuse across
// unrelated actions.
func (l *Limiter) SetGlobalBurst(userID string, d time.Duration) error {
	if d <= 0 {
		return ErrInvalidDuration
	}
	if l.privileged(userID) {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.bursts[userID] = l.now().Add(d)
	return nil
}

// CheckGlobalBurst reports whether the user is outside the burst window.
// It does not consume the guard.
func (l *Limiter) CheckGlobalBurst(userID string) bool {
	if l.privileged(userID) {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.bursts[userID]
	if !ok {
		return true
	}
	return !l.now().Before(until)
}
