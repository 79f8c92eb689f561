package model

import "time"

// SubmissionStatus is the moderation state of a submission.
// Pending is the only non-terminal state.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// Terminal reports whether the status can no longer change.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Submission represents a user-authored post awaiting moderation.
type Submission struct {
	ID            string
	UserID        string
	Category      string
	Subcategory   string
	Text          string
	Media         []string
	Hashtags      []string
	IsAnonymous   bool
	Status        SubmissionStatus
	ModerationRef string
	RejectReason  string
	CreatedAt     time.Time
}
