package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lavrelin/offtrix-sub000/model"
)

const maxTags = 10

// ValidationError marks malformed or oversized draft input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid %s: %s", e.Field, e.Reason)
}

// StartDraft opens a guided entry creation for the owner, replacing any
// previous unfinished draft.
func (e *Engine) StartDraft(ownerID, link string) (*model.EntryDraft, error) {
	if err := e.validate.Var(link, "required,url"); err != nil {
		return nil, &ValidationError{Field: "link", Reason: "must be a valid URL"}
	}

	draft := &model.EntryDraft{
		OwnerID:   ownerID,
		Link:      link,
		Step:      model.StepCategory,
		CreatedAt: e.now(),
	}

	e.mu.Lock()
	e.drafts[ownerID] = draft
	e.mu.Unlock()
	return draft, nil
}

// DraftCategory records the category step.
func (e *Engine) DraftCategory(ownerID, category string) error {
	category = strings.TrimSpace(category)
	if category == "" || len(category) > 64 {
		return &ValidationError{Field: "category", Reason: "must be 1-64 characters"}
	}
	return e.advance(ownerID, model.StepCategory, func(d *model.EntryDraft) {
		d.Category = category
		d.Step = model.StepName
	})
}

// DraftName records the name step.
func (e *Engine) DraftName(ownerID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return &ValidationError{Field: "name", Reason: "must be 1-255 characters"}
	}
	return e.advance(ownerID, model.StepName, func(d *model.EntryDraft) {
		d.Name = name
		d.Step = model.StepMedia
	})
}

// DraftMedia attaches an already-known media reference. The step is
// optional; SkipMedia moves on without one.
func (e *Engine) DraftMedia(ownerID, mediaRef string) error {
	return e.advance(ownerID, model.StepMedia, func(d *model.EntryDraft) {
		d.Media = mediaRef
		d.Step = model.StepTags
	})
}

// DraftImportMedia resolves media from a platform message link and attaches
// it. Import failures leave the draft usable without media.
func (e *Engine) DraftImportMedia(ownerID, link string) error {
	mediaRef, err := e.ImportMediaFromLink(link)
	if err != nil {
		return err
	}
	return e.DraftMedia(ownerID, mediaRef)
}

// SkipMedia advances past the optional media step.
func (e *Engine) SkipMedia(ownerID string) error {
	return e.advance(ownerID, model.StepMedia, func(d *model.EntryDraft) {
		d.Step = model.StepTags
	})
}

// DraftTags records the tags step and readies the draft for commit.
func (e *Engine) DraftTags(ownerID string, tags []string) error {
	if len(tags) > maxTags {
		return &ValidationError{Field: "tags", Reason: fmt.Sprintf("more than %d tags", maxTags)}
	}
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > 32 {
			return &ValidationError{Field: "tags", Reason: "tag longer than 32 characters"}
		}
		cleaned = append(cleaned, t)
	}
	return e.advance(ownerID, model.StepTags, func(d *model.EntryDraft) {
		d.Tags = cleaned
		d.Step = model.StepReady
	})
}

// CommitDraft validates the accumulated draft as a whole and persists the
// new catalog entry, drawing its stable number.
func (e *Engine) CommitDraft(ownerID string) (*model.CatalogEntry, error) {
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}

	e.mu.Lock()
	draft, ok := e.drafts[ownerID]
	e.mu.Unlock()
	if !ok {
		return nil, ErrNoDraft
	}
	if draft.Step != model.StepReady {
		return nil, &ValidationError{Field: "draft", Reason: "steps incomplete"}
	}
	if err := e.validate.Struct(draft); err != nil {
		return nil, &ValidationError{Field: "draft", Reason: err.Error()}
	}

	entry := &model.CatalogEntry{
		ID:        uuid.New().String(),
		OwnerID:   draft.OwnerID,
		Link:      draft.Link,
		Category:  draft.Category,
		Name:      draft.Name,
		Tags:      draft.Tags,
		Media:     draft.Media,
		IsActive:  true,
		CreatedAt: e.now(),
	}

	if err := e.store.InsertEntry(entry); err != nil {
		return nil, fmt.Errorf("catalog: persist failed: %w", err)
	}

	e.mu.Lock()
	delete(e.drafts, ownerID)
	e.mu.Unlock()
	return entry, nil
}

// CancelDraft discards all partial state of the guided flow.
func (e *Engine) CancelDraft(ownerID string) {
	e.mu.Lock()
	delete(e.drafts, ownerID)
	e.mu.Unlock()
}

// Draft returns the owner's draft in progress, if any.
func (e *Engine) Draft(ownerID string) (*model.EntryDraft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drafts[ownerID]
	return d, ok
}

func (e *Engine) advance(ownerID string, want model.DraftStep, apply func(*model.EntryDraft)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	draft, ok := e.drafts[ownerID]
	if !ok {
		return ErrNoDraft
	}
	if draft.Step != want {
		return &ValidationError{Field: "draft", Reason: "step out of order"}
	}
	apply(draft)
	return nil
}
