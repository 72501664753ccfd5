package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	// Ensure data directory exists with secure permissions (0750)
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "wikifeed.db")
	log.Printf("Initializing seen-item database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS seen_items (
		scope   TEXT    NOT NULL,
		item_id INTEGER NOT NULL,
		seen_at INTEGER NOT NULL,
		PRIMARY KEY (scope, item_id)
	);
	CREATE INDEX IF NOT EXISTS idx_seen_items_seen_at ON seen_items(seen_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %v", err)
	}
	return nil
}

// LoadSeen returns every persisted seen ID with its timestamp for a
// feed scope. Timestamps are wall-clock: the 24h window is best-effort
// recency, not a strict guarantee, and concurrent writers racing the
// expiry boundary are not synchronized.
func (s *SQLiteStorage) LoadSeen(scope string) (map[int64]time.Time, error) {
	rows, err := s.db.Query("SELECT item_id, seen_at FROM seen_items WHERE scope = ?", scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load seen items: %v", err)
	}
	defer rows.Close()

	seen := make(map[int64]time.Time)
	for rows.Next() {
		var id int64
		var seenAt int64
		if err := rows.Scan(&id, &seenAt); err != nil {
			return nil, fmt.Errorf("failed to scan seen item: %v", err)
		}
		seen[id] = time.Unix(seenAt, 0)
	}

	return seen, rows.Err()
}

func (s *SQLiteStorage) SaveSeen(scope string, id int64, seenAt time.Time) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO seen_items (scope, item_id, seen_at) VALUES (?, ?, ?)",
		scope, id, seenAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save seen item: %v", err)
	}
	return nil
}

func (s *SQLiteStorage) ClearScope(scope string) error {
	_, err := s.db.Exec("DELETE FROM seen_items WHERE scope = ?", scope)
	if err != nil {
		return fmt.Errorf("failed to clear scope: %v", err)
	}
	return nil
}

// PurgeBefore drops entries older than the cutoff across all scopes,
// letting previously seen content resurface
func (s *SQLiteStorage) PurgeBefore(cutoff time.Time) error {
	result, err := s.db.Exec("DELETE FROM seen_items WHERE seen_at < ?", cutoff.Unix())
	if err != nil {
		return fmt.Errorf("failed to purge seen items: %v", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Printf("Purged %d expired seen items", n)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
