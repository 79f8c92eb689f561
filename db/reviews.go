package db

import (
	"strings"
	"time"

	"github.com/lavrelin/offtrix-sub000/model"
)

// InsertReview persists a review. The UNIQUE(entry_id, user_id) constraint
// keeps the one-review-per-entry rule intact across restarts.
func (s *Store) InsertReview(r *model.Review) error {
	_, err := s.db.Exec(
		"INSERT INTO reviews(id, entry_id, user_id, rating, body, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		r.ID, r.EntryID, r.UserID, r.Rating, r.Text, r.CreatedAt.Unix(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return model.ErrDuplicateReview
	}
	return err
}

// HasReview reports whether the user already reviewed the entry.
func (s *Store) HasReview(entryID, userID string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM reviews WHERE entry_id = ? AND user_id = ?)",
		entryID, userID,
	).Scan(&exists)
	return exists == 1, err
}

// ReviewStats returns the mean rating and review count for an entry.
func (s *Store) ReviewStats(entryID string) (float64, int, error) {
	var (
		avg   float64
		count int
	)
	err := s.db.QueryRow(
		"SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE entry_id = ?",
		entryID,
	).Scan(&avg, &count)
	return avg, count, err
}

// ListReviews returns the reviews for an entry, newest first.
func (s *Store) ListReviews(entryID string, limit int) ([]*model.Review, error) {
	rows, err := s.db.Query(
		"SELECT id, entry_id, user_id, rating, COALESCE(body, ''), created_at FROM reviews WHERE entry_id = ? ORDER BY created_at DESC LIMIT ?",
		entryID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		var (
			r         model.Review
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.EntryID, &r.UserID, &r.Rating, &r.Text, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}
