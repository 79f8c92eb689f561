package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lavrelin/offtrix-sub000/model"
)

const actionReview = "review"

// Reasons a review can be turned away.
const (
	RejectCooldown  = "cooldown"
	RejectDuplicate = "duplicate"
)

// ReviewRejectedError is the typed outcome of a review that failed a gate.
type ReviewRejectedError struct {
	Reason    string
	Remaining time.Duration
}

func (e *ReviewRejectedError) Error() string {
	if e.Reason == RejectCooldown {
		return fmt.Sprintf("catalog: review rejected (%s), retry in %s", e.Reason, e.Remaining.Round(time.Second))
	}
	return fmt.Sprintf("catalog: review rejected (%s)", e.Reason)
}

// AddReview stores a rating for an entry, gated by the review cooldown and
// the one-review-per-(user, entry) rule.
func (e *Engine) AddReview(userID, entryID string, rating int, text string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	if len(text) > 1000 {
		return nil, &ValidationError{Field: "text", Reason: "longer than 1000 characters"}
	}
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}

	entry, err := e.Entry(entryID)
	if err != nil {
		return nil, err
	}

	dedupKey := entryID + "|" + userID
	e.mu.Lock()
	_, seen := e.reviewed[dedupKey]
	e.mu.Unlock()
	if seen {
		return nil, &ReviewRejectedError{Reason: RejectDuplicate}
	}

	// The in-memory set is only the fast path; the store carries the
	// durable uniqueness rule across restarts.
	if dup, err := e.store.HasReview(entryID, userID); err != nil {
		return nil, fmt.Errorf("catalog: dedup lookup failed: %w", err)
	} else if dup {
		e.markReviewed(dedupKey)
		return nil, &ReviewRejectedError{Reason: RejectDuplicate}
	}

	allowed, remaining, err := e.limiter.Reserve(userID, actionReview, e.cfg.ReviewWindow, model.CooldownNormal)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &ReviewRejectedError{Reason: RejectCooldown, Remaining: remaining}
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		EntryID:   entry.ID,
		UserID:    userID,
		Rating:    rating,
		Text:      text,
		CreatedAt: e.now(),
	}
	if err := e.store.InsertReview(review); err != nil {
		if errors.Is(err, model.ErrDuplicateReview) {
			e.markReviewed(dedupKey)
			return nil, &ReviewRejectedError{Reason: RejectDuplicate}
		}
		return nil, fmt.Errorf("catalog: review persist failed: %w", err)
	}

	e.markReviewed(dedupKey)
	return review, nil
}

// Reviews returns an entry's stored reviews, newest first.
func (e *Engine) Reviews(entryID string, limit int) ([]*model.Review, error) {
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 3
	}
	reviews, err := e.store.ListReviews(entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: review lookup failed: %w", err)
	}
	return reviews, nil
}

func (e *Engine) markReviewed(key string) {
	e.mu.Lock()
	e.reviewed[key] = struct{}{}
	e.mu.Unlock()
}
