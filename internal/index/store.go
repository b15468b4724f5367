package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	_ "modernc.org/sqlite"
)

// schemaVersion is stored in PRAGMA user_version. Older state is dropped and
// rebuilt by the next build.
const schemaVersion = 2

// Page is the recorded state of one rendered page.
type Page struct {
	Path        string // output path relative to the site root
	Source      string // input path relative to the input directory
	Title       string
	Fingerprint string
	ConfigHash  string
	BuildID     string
	UpdatedAt   time.Time
}

// Entry is one search result target.
type Entry struct {
	Page     string `json:"page"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Kind     string `json:"kind"`
	Keywords string `json:"keywords,omitempty"`
}

// Entry kinds.
const (
	KindPage    = "page"
	KindSection = "section"
)

// Store is a SQLite backed build state and search index.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the store at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version != schemaVersion {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS entries; DROP TABLE IF EXISTS pages;"); err != nil {
			return err
		}
	}
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		path TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		config_hash TEXT NOT NULL,
		build_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '',
		title_folded TEXT NOT NULL DEFAULT '',
		keywords_folded TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_entries_page ON entries(page);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PageFingerprint returns the recorded state of the page at path.
// found is false when the page has never been recorded.
func (s *Store) PageFingerprint(ctx context.Context, path string) (page Page, found bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var updated int64
	row := s.db.QueryRowContext(ctx,
		"SELECT path, source, title, fingerprint, config_hash, build_id, updated_at FROM pages WHERE path = ?",
		path,
	)
	err = row.Scan(&page.Path, &page.Source, &page.Title, &page.Fingerprint, &page.ConfigHash, &page.BuildID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, fmt.Errorf("query page: %w", err)
	}
	page.UpdatedAt = time.Unix(updated, 0)
	return page, true, nil
}

// RecordPage inserts or replaces the state of a page.
func (s *Store) RecordPage(ctx context.Context, p Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (path, source, title, fingerprint, config_hash, build_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			fingerprint = excluded.fingerprint,
			config_hash = excluded.config_hash,
			build_id = excluded.build_id,
			updated_at = excluded.updated_at`,
		p.Path, p.Source, p.Title, p.Fingerprint, p.ConfigHash, p.BuildID, p.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record page: %w", err)
	}
	return nil
}

// Pages lists the paths of all recorded pages in order.
func (s *Store) Pages(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT path FROM pages ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return paths, nil
}

// DeletePage removes a page and its search entries.
func (s *Store) DeletePage(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE page = ?", path); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return tx.Commit()
}

// ReplaceEntries replaces all search entries of page with entries.
func (s *Store) ReplaceEntries(ctx context.Context, page string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE page = ?", page); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO entries (page, title, url, kind, keywords, title_folded, keywords_folded) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, page, e.Title, e.URL, e.Kind, e.Keywords, fold(e.Title), fold(e.Keywords)); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	return tx.Commit()
}

// Entries returns every search entry ordered by page and position.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT page, title, url, kind, keywords FROM entries ORDER BY page, id")
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search returns up to limit entries whose title or keywords contain query,
// compared under Unicode case folding. Page entries rank before sections,
// shorter titles first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + escapeLike(fold(query)) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT page, title, url, kind, keywords FROM entries
		WHERE title_folded LIKE ? ESCAPE '\' OR keywords_folded LIKE ? ESCAPE '\'
		ORDER BY CASE kind WHEN 'page' THEN 0 ELSE 1 END, length(title), title, id
		LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Page, &e.Title, &e.URL, &e.Kind, &e.Keywords); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// fold applies full Unicode case folding; SQLite's lower() only handles ASCII.
func fold(s string) string { return cases.Fold().String(s) }
