package iconstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default catalog location.
const DefaultDBPath = "~/.iconsense/icons.db"

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the catalog database.
// Pass ":memory:" for in-memory databases (testing).
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = ExpandPath(DefaultDBPath)
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging catalog: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS icons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			subjects TEXT NOT NULL DEFAULT '[]',
			url TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_icons_title ON icons(title);
	`)
	if err != nil {
		return fmt.Errorf("creating icons table: %w", err)
	}
	return nil
}

// AddIcon inserts an icon, deduplicating on (title, url) content hash.
// Re-inserting an existing icon returns its current id.
func (s *SQLiteStore) AddIcon(ctx context.Context, icon *Icon) (int64, error) {
	if icon == nil || strings.TrimSpace(icon.Title) == "" {
		return 0, fmt.Errorf("icon title is required")
	}

	subjectsJSON, err := json.Marshal(icon.Subjects)
	if err != nil {
		return 0, fmt.Errorf("encoding subjects: %w", err)
	}

	hash := hashIcon(icon.Title, icon.URL)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO icons (title, subjects, url, description, content_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
			subjects = excluded.subjects,
			description = excluded.description`,
		icon.Title, string(subjectsJSON), icon.URL, icon.Description, hash,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting icon %q: %w", icon.Title, err)
	}

	// LastInsertId is unreliable on the upsert-update path; resolve by hash.
	var id int64
	row := s.db.QueryRowContext(ctx, "SELECT id FROM icons WHERE content_hash = ?", hash)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("resolving icon id: %w", err)
	}
	icon.ID = id
	return id, nil
}

// ListIcons returns the whole catalog, insertion-ordered.
func (s *SQLiteStore) ListIcons(ctx context.Context) ([]Icon, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, subjects, url, description FROM icons ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying icons: %w", err)
	}
	defer rows.Close()

	var icons []Icon
	for rows.Next() {
		var icon Icon
		var subjectsJSON string
		if err := rows.Scan(&icon.ID, &icon.Title, &subjectsJSON, &icon.URL, &icon.Description); err != nil {
			return nil, fmt.Errorf("scanning icon row: %w", err)
		}
		if err := json.Unmarshal([]byte(subjectsJSON), &icon.Subjects); err != nil {
			return nil, fmt.Errorf("decoding subjects for icon %d: %w", icon.ID, err)
		}
		icons = append(icons, icon)
	}
	return icons, rows.Err()
}

// Count returns the catalog size.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM icons").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting icons: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// hashIcon computes the dedup hash over title + url.
func hashIcon(title, url string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(title))))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(url)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
