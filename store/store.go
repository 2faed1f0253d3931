// Package store persists the citation template in a local SQLite
// database shared with the settings editor.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"requote/quote"
)

// Store wraps the database and caches the citation template so reads
// never touch disk on the hot path. It implements quote.TemplateSource.
type Store struct {
	db       *sql.DB
	template string
	subs     []func(string)
}

// Open opens or creates the database at path and loads the template
// cache. A missing or unreadable template row falls back to the
// built-in default.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}

	s := &Store{db: db, template: quote.DefaultTemplate}
	if tmpl, err := s.readTemplate(); err == nil && quote.ValidTemplate(tmpl) {
		s.template = tmpl
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Current returns the cached citation template.
func (s *Store) Current() string { return s.template }

// Subscribe registers a callback invoked whenever the template changes.
func (s *Store) Subscribe(fn func(string)) {
	s.subs = append(s.subs, fn)
}

// SetTemplate validates, persists and caches a new citation template,
// then notifies subscribers.
func (s *Store) SetTemplate(tmpl string) error {
	if !quote.ValidTemplate(tmpl) {
		return fmt.Errorf("template must contain %s exactly once", quote.Placeholder)
	}
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated) VALUES ('template', ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated = CURRENT_TIMESTAMP`,
		tmpl)
	if err != nil {
		return fmt.Errorf("saving template: %w", err)
	}
	s.setCache(tmpl)
	return nil
}

// Refresh re-reads the template from disk, picking up edits made by
// another process. Subscribers are notified only on an actual change.
func (s *Store) Refresh() error {
	tmpl, err := s.readTemplate()
	if err != nil {
		return err
	}
	if quote.ValidTemplate(tmpl) && tmpl != s.template {
		s.setCache(tmpl)
	}
	return nil
}

func (s *Store) readTemplate() (string, error) {
	var tmpl string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = 'template'`).Scan(&tmpl)
	if err != nil {
		return "", err
	}
	return tmpl, nil
}

func (s *Store) setCache(tmpl string) {
	s.template = tmpl
	for _, fn := range s.subs {
		fn(tmpl)
	}
}
