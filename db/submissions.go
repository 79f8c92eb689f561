package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lavrelin/offtrix-sub000/model"
)

// InsertSubmission persists a new submission in the pending state.
func (s *Store) InsertSubmission(sub *model.Submission) error {
	media, err := json.Marshal(sub.Media)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO submissions(
		id, user_id, category, subcategory, body, media, hashtags,
		is_anonymous, status, created_at
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Category, sub.Subcategory, sub.Text,
		string(media), strings.Join(sub.Hashtags, ","),
		boolToInt(sub.IsAnonymous), string(sub.Status), sub.CreatedAt.Unix(),
	)
	return err
}

// scanSubmission scans a row into a Submission struct.
func scanSubmission(scanner rowScanner) (*model.Submission, error) {
	var (
		sub       model.Submission
		media     string
		hashtags  string
		anonymous int
		status    string
		createdAt int64
	)
	err := scanner.Scan(
		&sub.ID, &sub.UserID, &sub.Category, &sub.Subcategory, &sub.Text,
		&media, &hashtags, &anonymous, &status,
		&sub.ModerationRef, &sub.RejectReason, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if media != "" {
		if err := json.Unmarshal([]byte(media), &sub.Media); err != nil {
			return nil, err
		}
	}
	if hashtags != "" {
		sub.Hashtags = strings.Split(hashtags, ",")
	}
	sub.IsAnonymous = anonymous == 1
	sub.Status = model.SubmissionStatus(status)
	sub.CreatedAt = time.Unix(createdAt, 0)
	return &sub, nil
}

const submissionColumns = `id, user_id, category, COALESCE(subcategory, '') as subcategory, body,
	COALESCE(media, '') as media, COALESCE(hashtags, '') as hashtags,
	is_anonymous, status, COALESCE(moderation_ref, '') as moderation_ref,
	COALESCE(reject_reason, '') as reject_reason, created_at`

// GetSubmission retrieves a submission by its ID.
func (s *Store) GetSubmission(id string) (*model.Submission, error) {
	row := s.db.QueryRow(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	return scanSubmission(row)
}

// SetSubmissionStatus moves a pending submission to a terminal status.
// It returns false when the submission was not pending anymore, which lets
// the caller treat duplicate moderation actions as a no-op.
func (s *Store) SetSubmissionStatus(id string, status model.SubmissionStatus, reason string) (bool, error) {
	res, err := s.db.Exec(
		"UPDATE submissions SET status = ?, reject_reason = ? WHERE id = ? AND status = 'pending'",
		string(status), reason, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetModerationRef stores the moderation-queue message reference for a submission.
func (s *Store) SetModerationRef(id, ref string) error {
	_, err := s.db.Exec("UPDATE submissions SET moderation_ref = ? WHERE id = ?", ref, id)
	return err
}

// ListSubmissionsByStatus returns submissions with the given status, newest first.
func (s *Store) ListSubmissionsByStatus(status model.SubmissionStatus, limit int) ([]*model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionColumns+` FROM submissions WHERE status = ? ORDER BY created_at DESC LIMIT ?`,
		string(status), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
