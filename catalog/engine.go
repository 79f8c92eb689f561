// Package catalog owns the service listings, their reviews and the per-user
// browsing sessions used to sample entries without repeats.
package catalog

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lavrelin/offtrix-sub000/model"
	"github.com/lavrelin/offtrix-sub000/ratelimit"
)

var (
	// ErrNotFound marks an unknown or inactive catalog entry.
	ErrNotFound = errors.New("catalog: entry not found")
	// ErrStoreUnavailable is returned while running without a persistent store.
	ErrStoreUnavailable = errors.New("catalog: store unavailable, try again later")
	// ErrNoDraft is returned when a guided step arrives without an open draft.
	ErrNoDraft = errors.New("catalog: no entry draft in progress, start over")
)

// Store is the slice of the persistent store the engine needs.
type Store interface {
	InsertEntry(e *model.CatalogEntry) error
	GetEntry(id string) (*model.CatalogEntry, error)
	GetEntryByNumber(number int) (*model.CatalogEntry, error)
	ListActiveEntries() ([]*model.CatalogEntry, error)
	SearchEntries(query string, limit int) ([]*model.CatalogEntry, error)
	IncrementViews(ids []string) error
	IncrementClicks(id string) error
	SetEntryActive(id string, active bool) error
	InsertReview(r *model.Review) error
	HasReview(entryID, userID string) (bool, error)
	ReviewStats(entryID string) (float64, int, error)
	ListReviews(entryID string, limit int) ([]*model.Review, error)
}

// Config tunes the engine. Zero values fall back to sane defaults.
type Config struct {
	PageSize        int
	RatingThreshold int
	AdFrequency     int
	SessionTTL      time.Duration
	DraftTTL        time.Duration
	ReviewWindow    time.Duration
}

func (c *Config) fillDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 5
	}
	if c.RatingThreshold <= 0 {
		c.RatingThreshold = 5
	}
	if c.AdFrequency <= 0 {
		c.AdFrequency = 4
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.DraftTTL <= 0 {
		c.DraftTTL = 15 * time.Minute
	}
	if c.ReviewWindow <= 0 {
		c.ReviewWindow = 5 * time.Minute
	}
}

// Engine is the catalog discovery engine. Sessions, drafts and the review
// dedup fast path are process-local; single-instance only.
type Engine struct {
	store    Store
	limiter  *ratelimit.Limiter
	platform Platform
	cfg      Config

	validate *validator.Validate
	rng      *rand.Rand
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*model.BrowsingSession
	drafts   map[string]*model.EntryDraft
	reviewed map[string]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates an Engine. store may be nil when running degraded; platform
// may be nil when media import is not wired.
func New(store Store, limiter *ratelimit.Limiter, platform Platform, cfg Config) *Engine {
	cfg.fillDefaults()
	return &Engine{
		store:    store,
		limiter:  limiter,
		platform: platform,
		cfg:      cfg,
		validate: validator.New(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		sessions: make(map[string]*model.BrowsingSession),
		drafts:   make(map[string]*model.EntryDraft),
		reviewed: make(map[string]struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Entry returns an active entry by id.
func (e *Engine) Entry(id string) (*model.CatalogEntry, error) {
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}
	entry, err := e.store.GetEntry(id)
	if err != nil {
		return nil, fmt.Errorf("catalog: lookup failed: %w", err)
	}
	if entry == nil || !entry.IsActive {
		return nil, ErrNotFound
	}
	return entry, nil
}

// EntryByNumber returns an active entry by its stable catalog number.
func (e *Engine) EntryByNumber(number int) (*model.CatalogEntry, error) {
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}
	entry, err := e.store.GetEntryByNumber(number)
	if err != nil {
		return nil, fmt.Errorf("catalog: lookup failed: %w", err)
	}
	if entry == nil || !entry.IsActive {
		return nil, ErrNotFound
	}
	return entry, nil
}

// RecordClick bumps the click counter when a user follows the entry's link.
// Best-effort: failures are logged, never surfaced.
func (e *Engine) RecordClick(entryID string) {
	if e.store == nil {
		return
	}
	if err := e.store.IncrementClicks(entryID); err != nil {
		log.Printf("catalog: click increment failed for %s: %v", entryID, err)
	}
}

// Deactivate removes an entry from the sampling pool (administrative).
func (e *Engine) Deactivate(entryID string) error {
	if e.store == nil {
		return ErrStoreUnavailable
	}
	return e.store.SetEntryActive(entryID, false)
}

// Rating returns the displayed rating and review count of an entry. The
// value is "—" while the count is below the configured threshold.
func (e *Engine) Rating(entryID string) (string, int, error) {
	if e.store == nil {
		return "", 0, ErrStoreUnavailable
	}
	avg, count, err := e.store.ReviewStats(entryID)
	if err != nil {
		return "", 0, fmt.Errorf("catalog: rating lookup failed: %w", err)
	}
	if count < e.cfg.RatingThreshold {
		return "—", count, nil
	}
	rounded := math.Round(avg*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64), count, nil
}

// StartJanitor launches the background loop expiring idle sessions and
// abandoned drafts.
func (e *Engine) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		defer close(e.doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.expireStale()
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the janitor and waits for it to drain.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
	<-e.doneCh
}

func (e *Engine) expireStale() {
	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	for userID, s := range e.sessions {
		if now.Sub(s.LastActivity) > e.cfg.SessionTTL {
			delete(e.sessions, userID)
		}
	}
	for ownerID, d := range e.drafts {
		if now.Sub(d.CreatedAt) > e.cfg.DraftTTL {
			delete(e.drafts, ownerID)
		}
	}
}
