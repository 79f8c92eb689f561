package model

import "time"

// DraftStep marks how far a guided entry creation has progressed.
type DraftStep int

const (
	StepLink DraftStep = iota
	StepCategory
	StepName
	StepMedia
	StepTags
	StepReady
)

// EntryDraft holds the temporary data accumulated while a user walks
// through the guided add-entry flow. Validation tags are enforced on commit.
type EntryDraft struct {
	OwnerID   string   `validate:"required"`
	Link      string   `validate:"required,url"`
	Category  string   `validate:"required,max=64"`
	Name      string   `validate:"required,max=255"`
	Tags      []string `validate:"max=10,dive,required,max=32"`
	Media     string
	Step      DraftStep
	CreatedAt time.Time
}
