// Package store persists finished audit reports in SQLite so past verdicts
// on an outlet stay queryable. The full report travels as JSON; the indexed
// columns exist for listing and per-URL lookups.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prensalab/veedor/internal/logging"
	"github.com/prensalab/veedor/internal/model"
	_ "modernc.org/sqlite"
)

// Store handles persistence of audit reports.
type Store struct {
	db *sql.DB
}

// Open creates a store backed by the SQLite database at path. ":memory:"
// gives an ephemeral database for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logging.Debug("audit store ready", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		source_url TEXT,
		outlet TEXT,
		category TEXT NOT NULL,
		strategy TEXT,
		report_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_reports_url ON reports(source_url);
	CREATE INDEX IF NOT EXISTS idx_reports_outlet ON reports(outlet);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Entry is one stored audit, as the history command lists it.
type Entry struct {
	ID        string
	Subject   string
	SourceURL string
	Outlet    string
	Category  string
	Strategy  string
	CreatedAt time.Time
}

// Save stores one report. Auditing the same article again inserts a new
// row; history keeps every run.
func (s *Store) Save(report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO reports (id, subject, source_url, outlet, category, strategy, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.Subject,
		report.SourceURL,
		report.Outlet,
		string(report.Category),
		report.Attribution.Strategy,
		string(data),
		report.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	logging.Debug("report stored", "id", report.ID, "category", report.Category)
	return nil
}

// Recent returns the newest audits, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, subject, source_url, outlet, category, strategy, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

// ByURL returns every stored audit of one article URL, newest first.
func (s *Store) ByURL(url string) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, subject, source_url, outlet, category, strategy, created_at
		FROM reports
		WHERE source_url = ?
		ORDER BY created_at DESC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

// Report reloads the full stored report for one audit ID.
func (s *Store) Report(id string) (*model.Report, error) {
	var data string
	err := s.db.QueryRow("SELECT report_json FROM reports WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query report %s: %w", id, err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

// Count returns how many audits are stored.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var sourceURL, outlet, strategy sql.NullString
		if err := rows.Scan(&e.ID, &e.Subject, &sourceURL, &outlet, &e.Category, &strategy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		e.SourceURL = sourceURL.String
		e.Outlet = outlet.String
		e.Strategy = strategy.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
