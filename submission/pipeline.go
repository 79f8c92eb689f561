// Package submission owns the content-submission lifecycle: pending entries
// are forwarded to the moderation queue and move exactly once to approved or
// rejected.
package submission

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lavrelin/offtrix-sub000/model"
	"github.com/lavrelin/offtrix-sub000/ratelimit"
)

const (
	actionSubmit = "submit"
	maxTextLen   = 4000
	maxHashtags  = 10
)

var (
	// ErrNotPermitted marks a moderation call from a non-privileged actor.
	ErrNotPermitted = errors.New("submission: actor is not permitted to moderate")
	// ErrNotFound marks an unknown submission id.
	ErrNotFound = errors.New("submission: not found")
	// ErrStoreUnavailable is returned while running without a persistent store.
	ErrStoreUnavailable = errors.New("submission: store unavailable, try again later")
)

// RateLimitedError tells the caller how long to wait before submitting again.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("submission: rate limited, retry in %s", e.Remaining.Round(time.Second))
}

// ValidationError marks malformed or oversized input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("submission: invalid %s: %s", e.Field, e.Reason)
}

// Store is the slice of the persistent store the pipeline needs.
type Store interface {
	InsertSubmission(sub *model.Submission) error
	GetSubmission(id string) (*model.Submission, error)
	SetSubmissionStatus(id string, status model.SubmissionStatus, reason string) (bool, error)
	SetModerationRef(id, ref string) error
	ListSubmissionsByStatus(status model.SubmissionStatus, limit int) ([]*model.Submission, error)
}

// Messenger is the messaging-platform collaborator. SendModerationCard
// returns a reference used for later in-place edits of the card.
type Messenger interface {
	SendModerationCard(sub *model.Submission) (ref string, err error)
	EditModerationCard(ref string, sub *model.Submission) error
	Publish(sub *model.Submission) error
	NotifySubmitter(sub *model.Submission) error
}

// Input is the user-provided content of a new submission.
type Input struct {
	Category    string
	Subcategory string
	Text        string
	Media       []string
	Hashtags    []string
	Anonymous   bool
}

// Pipeline drives submissions from creation through moderation.
type Pipeline struct {
	store     Store
	messenger Messenger
	limiter   *ratelimit.Limiter
	window    time.Duration

	privileged func(userID string) bool
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Pipeline. store may be nil when running degraded; every
// operation then reports the store as unavailable.
func New(store Store, messenger Messenger, limiter *ratelimit.Limiter, window time.Duration, privileged func(string) bool) *Pipeline {
	if privileged == nil {
		privileged = func(string) bool { return false }
	}
	return &Pipeline{
		store:      store,
		messenger:  messenger,
		limiter:    limiter,
		window:     window,
		privileged: privileged,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor serializes work per key (submitter id or submission id), so a
// check-then-write sequence cannot interleave with a duplicate action.
func (p *Pipeline) lockFor(k string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.locks[k]
	if !ok {
		m = &sync.Mutex{}
		p.locks[k] = m
	}
	return m
}

// release drops a per-key mutex once its holder is done. A waiter already
// parked on the mutex keeps its own reference; the store-side conditional
// update still protects against the resulting fresh-lock interleaving.
func (p *Pipeline) release(k string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.locks, k)
}

// Submit validates and persists a new pending submission, forwards the
// moderation card and arms the submit cooldown.
func (p *Pipeline) Submit(userID string, in Input) (*model.Submission, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if p.store == nil {
		return nil, ErrStoreUnavailable
	}

	lock := p.lockFor("user:" + userID)
	lock.Lock()
	defer p.release("user:" + userID)
	defer lock.Unlock()

	allowed, remaining, err := p.limiter.Check(userID, actionSubmit, p.window, model.CooldownNormal)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &RateLimitedError{Remaining: remaining}
	}

	sub := &model.Submission{
		ID:          uuid.New().String(),
		UserID:      userID,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Text:        in.Text,
		Media:       in.Media,
		Hashtags:    in.Hashtags,
		IsAnonymous: in.Anonymous,
		Status:      model.StatusPending,
		CreatedAt:   p.now(),
	}

	if err := p.store.InsertSubmission(sub); err != nil {
		return nil, fmt.Errorf("submission: persist failed: %w", err)
	}

	ref, err := p.messenger.SendModerationCard(sub)
	if err != nil {
		// The submission stays pending without a card; the user may retry
		// since the cooldown was never armed.
		return nil, fmt.Errorf("submission: moderation delivery failed: %w", err)
	}
	sub.ModerationRef = ref
	if err := p.store.SetModerationRef(sub.ID, ref); err != nil {
		log.Printf("Failed to store moderation ref for submission %s: %v", sub.ID, err)
	}

	if err := p.limiter.Set(userID, actionSubmit, p.window, model.CooldownNormal); err != nil {
		log.Printf("Failed to arm submit cooldown for user %s: %v", userID, err)
	}

	return sub, nil
}

// Approve moves a pending submission to approved and publishes it. Invoked
// on an already-terminal submission it is a silent no-op, so duplicate
// button presses publish at most once.
func (p *Pipeline) Approve(actorID, submissionID string) error {
	return p.decide(actorID, submissionID, model.StatusApproved, "")
}

// Reject moves a pending submission to rejected, stores the reason and
// notifies the submitter. Idempotent like Approve.
func (p *Pipeline) Reject(actorID, submissionID, reason string) error {
	return p.decide(actorID, submissionID, model.StatusRejected, reason)
}

func (p *Pipeline) decide(actorID, submissionID string, status model.SubmissionStatus, reason string) error {
	if !p.privileged(actorID) {
		return ErrNotPermitted
	}
	if p.store == nil {
		return ErrStoreUnavailable
	}

	lock := p.lockFor("sub:" + submissionID)
	lock.Lock()
	defer p.release("sub:" + submissionID)
	defer lock.Unlock()

	sub, err := p.store.GetSubmission(submissionID)
	if err != nil {
		return fmt.Errorf("submission: lookup failed: %w", err)
	}
	if sub == nil {
		return ErrNotFound
	}
	if sub.Status.Terminal() {
		return nil
	}

	changed, err := p.store.SetSubmissionStatus(submissionID, status, reason)
	if err != nil {
		return fmt.Errorf("submission: status update failed: %w", err)
	}
	if !changed {
		// Lost the race against a concurrent decision; their side effects win.
		return nil
	}

	sub.Status = status
	sub.RejectReason = reason

	// Side effects after the terminal transition are best-effort: a failure
	// is logged and the state is not rolled back.
	if status == model.StatusApproved {
		if err := p.messenger.Publish(sub); err != nil {
			log.Printf("Failed to publish approved submission %s: %v", sub.ID, err)
		}
	} else {
		if err := p.messenger.NotifySubmitter(sub); err != nil {
			log.Printf("Failed to notify submitter of %s: %v", sub.ID, err)
		}
	}
	if sub.ModerationRef != "" {
		if err := p.messenger.EditModerationCard(sub.ModerationRef, sub); err != nil {
			log.Printf("Failed to update moderation card for %s: %v", sub.ID, err)
		}
	}

	return nil
}

// Pending lists the oldest submissions still waiting for a decision.
// Moderator-only, like the decisions themselves.
func (p *Pipeline) Pending(actorID string, limit int) ([]*model.Submission, error) {
	if !p.privileged(actorID) {
		return nil, ErrNotPermitted
	}
	if p.store == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 10
	}
	subs, err := p.store.ListSubmissionsByStatus(model.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("submission: queue lookup failed: %w", err)
	}
	return subs, nil
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.Text) == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if len(in.Text) > maxTextLen {
		return &ValidationError{Field: "text", Reason: fmt.Sprintf("longer than %d characters", maxTextLen)}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if len(in.Hashtags) > maxHashtags {
		return &ValidationError{Field: "hashtags", Reason: fmt.Sprintf("more than %d tags", maxHashtags)}
	}
	return nil
}
