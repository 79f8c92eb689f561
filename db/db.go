package db

import (
	"database/sql"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

const dbDriver = "sqlite3"

// Store wraps the SQLite connection pool. A single Store instance is shared
// by all components; it is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at the given path and creates tables if
// they don't exist.
func Open(source string) (*Store, error) {
	conn, err := sql.Open(dbDriver, source)
	if err != nil {
		return nil, err
	}

	s := &Store{db: conn}
	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Println("Database and tables initialized successfully in", source)
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rowScanner is an interface that can be satisfied by *sql.Row or *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}
