package db

import (
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lavrelin/offtrix-sub000/model"
)

// numberRetries caps the random catalog-number draws before falling back to
// the monotonic counter, keeping assignment bounded as the namespace fills.
const numberRetries = 32

// InsertEntry persists a new catalog entry, assigning its stable number.
// Numbers are drawn at random from a namespace sized relative to the catalog;
// when draws keep colliding the monotonic counter takes over.
func (s *Store) InsertEntry(e *model.CatalogEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	number, err := pickEntryNumber(tx)
	if err != nil {
		return err
	}
	e.Number = number

	_, err = tx.Exec(`INSERT INTO catalog_entries(
		id, number, owner_id, link, category, name, tags, media,
		is_priority, is_ad, ad_frequency, is_active, created_at
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Number, e.OwnerID, e.Link, e.Category, e.Name,
		strings.Join(e.Tags, ","), e.Media,
		boolToInt(e.IsPriority), boolToInt(e.IsAd), e.AdFrequency,
		boolToInt(e.IsActive), e.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func pickEntryNumber(tx *sql.Tx) (int, error) {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM catalog_entries").Scan(&count); err != nil {
		return 0, err
	}

	// Namespace stays at least 8x larger than the catalog so random draws
	// terminate quickly in practice.
	namespace := 8 * (count + 1)
	if namespace < 4096 {
		namespace = 4096
	}

	for i := 0; i < numberRetries; i++ {
		candidate := rand.Intn(namespace) + 1
		var exists int
		err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM catalog_entries WHERE number = ?)", candidate).Scan(&exists)
		if err != nil {
			return 0, err
		}
		if exists == 0 {
			return candidate, nil
		}
	}

	return counterEntryNumber(tx)
}

// counterEntryNumber advances the monotonic counter until a free number
// turns up. The counter never moves backwards, so it skips numbers already
// claimed by random draws.
func counterEntryNumber(tx *sql.Tx) (int, error) {
	for {
		candidate, err := nextCounter(tx, "catalog_number")
		if err != nil {
			return 0, err
		}
		var exists int
		err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM catalog_entries WHERE number = ?)", candidate).Scan(&exists)
		if err != nil {
			return 0, err
		}
		if exists == 0 {
			return candidate, nil
		}
	}
}

const entryColumns = `id, number, owner_id, link, category, name,
	COALESCE(tags, '') as tags, COALESCE(media, '') as media,
	is_priority, is_ad, ad_frequency, views, clicks, is_active, created_at`

// scanEntry scans a row into a CatalogEntry struct.
func scanEntry(scanner rowScanner) (*model.CatalogEntry, error) {
	var (
		e         model.CatalogEntry
		tags      string
		priority  int
		ad        int
		active    int
		createdAt int64
	)
	err := scanner.Scan(
		&e.ID, &e.Number, &e.OwnerID, &e.Link, &e.Category, &e.Name,
		&tags, &e.Media, &priority, &ad, &e.AdFrequency,
		&e.Views, &e.Clicks, &active, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if tags != "" {
		e.Tags = strings.Split(tags, ",")
	}
	e.IsPriority = priority == 1
	e.IsAd = ad == 1
	e.IsActive = active == 1
	e.CreatedAt = time.Unix(createdAt, 0)
	return &e, nil
}

// GetEntry retrieves a catalog entry by its ID.
func (s *Store) GetEntry(id string) (*model.CatalogEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM catalog_entries WHERE id = ?`, id)
	return scanEntry(row)
}

// GetEntryByNumber retrieves a catalog entry by its stable number.
func (s *Store) GetEntryByNumber(number int) (*model.CatalogEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM catalog_entries WHERE number = ?`, number)
	return scanEntry(row)
}

// ListActiveEntries returns all active catalog entries in insertion order.
func (s *Store) ListActiveEntries() ([]*model.CatalogEntry, error) {
	rows, err := s.db.Query(`SELECT ` + entryColumns + ` FROM catalog_entries WHERE is_active = 1 ORDER BY created_at, number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// SearchEntries matches the query as a substring over name, category and tags.
// Results come back in insertion order, capped at limit.
func (s *Store) SearchEntries(query string, limit int) ([]*model.CatalogEntry, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.Query(`SELECT `+entryColumns+` FROM catalog_entries
		WHERE is_active = 1 AND (
			LOWER(name) LIKE ? OR LOWER(category) LIKE ? OR LOWER(COALESCE(tags, '')) LIKE ?
		) ORDER BY created_at, number LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]*model.CatalogEntry, error) {
	var entries []*model.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// IncrementViews bumps the view counter for the given entries.
func (s *Store) IncrementViews(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf("UPDATE catalog_entries SET views = views + 1 WHERE id IN (%s)", placeholders)
	_, err := s.db.Exec(query, args...)
	return err
}

// IncrementClicks bumps the click counter for an entry.
func (s *Store) IncrementClicks(id string) error {
	_, err := s.db.Exec("UPDATE catalog_entries SET clicks = clicks + 1 WHERE id = ?", id)
	return err
}

// SetEntryActive toggles an entry in or out of the sampling pool.
func (s *Store) SetEntryActive(id string, active bool) error {
	_, err := s.db.Exec("UPDATE catalog_entries SET is_active = ? WHERE id = ?", boolToInt(active), id)
	return err
}
