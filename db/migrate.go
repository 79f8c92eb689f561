package db

// createTables creates the necessary tables in the database if they don't exist.
func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT,
			body TEXT NOT NULL,
			media TEXT,
			hashtags TEXT,
			is_anonymous INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			moderation_ref TEXT,
			reject_reason TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalog_entries (
			id TEXT PRIMARY KEY,
			number INTEGER NOT NULL UNIQUE,
			owner_id TEXT NOT NULL,
			link TEXT NOT NULL,
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			tags TEXT,
			media TEXT,
			is_priority INTEGER NOT NULL DEFAULT 0,
			is_ad INTEGER NOT NULL DEFAULT 0,
			ad_frequency INTEGER NOT NULL DEFAULT 0,
			views INTEGER NOT NULL DEFAULT 0,
			clicks INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			entry_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			body TEXT,
			created_at INTEGER NOT NULL,
			UNIQUE(entry_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS cooldowns (
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			kind TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			uses INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY(user_id, action)
		);`,
		`CREATE TABLE IF NOT EXISTS id_counter (
			counter_name TEXT PRIMARY KEY,
			current_value INTEGER NOT NULL DEFAULT 0
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	// Initialize the catalog number counter if it doesn't exist.
	_, err := s.db.Exec("INSERT OR IGNORE INTO id_counter(counter_name, current_value) VALUES('catalog_number', 0)")
	return err
}
