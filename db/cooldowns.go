package db

import (
	"time"

	"github.com/lavrelin/offtrix-sub000/model"
)

// SaveCooldown mirrors an in-memory cooldown record to the store.
// The cache stays authoritative; this exists for crash recovery only.
func (s *Store) SaveCooldown(rec model.CooldownRecord) error {
	_, err := s.db.Exec(`INSERT INTO cooldowns(user_id, action, kind, expires_at, uses)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(user_id, action) DO UPDATE SET kind = excluded.kind,
			expires_at = excluded.expires_at, uses = excluded.uses`,
		rec.UserID, rec.Action, string(rec.Kind), rec.ExpiresAt.Unix(), rec.Uses,
	)
	return err
}

// DeleteCooldowns clears one mirrored record, or all records for a user when
// action is empty.
func (s *Store) DeleteCooldowns(userID, action string) error {
	if action == "" {
		_, err := s.db.Exec("DELETE FROM cooldowns WHERE user_id = ?", userID)
		return err
	}
	_, err := s.db.Exec("DELETE FROM cooldowns WHERE user_id = ? AND action = ?", userID, action)
	return err
}

// ListActiveCooldowns returns mirrored records that are still in the future,
// used to warm the cache after a restart.
func (s *Store) ListActiveCooldowns(now time.Time) ([]model.CooldownRecord, error) {
	rows, err := s.db.Query(
		"SELECT user_id, action, kind, expires_at, uses FROM cooldowns WHERE expires_at > ?",
		now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.CooldownRecord
	for rows.Next() {
		var (
			rec       model.CooldownRecord
			kind      string
			expiresAt int64
		)
		if err := rows.Scan(&rec.UserID, &rec.Action, &kind, &expiresAt, &rec.Uses); err != nil {
			return nil, err
		}
		rec.Kind = model.CooldownKind(kind)
		rec.ExpiresAt = time.Unix(expiresAt, 0)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// PruneCooldowns removes mirrored records that have already expired.
func (s *Store) PruneCooldowns(now time.Time) error {
	_, err := s.db.Exec("DELETE FROM cooldowns WHERE expires_at <= ?", now.Unix())
	return err
}
