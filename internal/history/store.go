// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite record of past preflight analyses keyed by
// file path and content digest.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/phuslu/log"

	"github.com/pdiddy/pdf-preflight/internal/logging"
	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// ErrNotFound is returned when no analysis is recorded for a path.
var ErrNotFound = errors.New("no recorded analysis")

// Entry is one recorded analysis.
type Entry struct {
	ID         int64     `json:"id"`
	Path       string    `json:"path"`
	Digest     string    `json:"digest"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Result is nil when the analysis failed.
	Result *types.AnalysisResult `json:"result,omitempty"`

	// Error holds the failure message of a failed analysis.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the recorded analysis failed.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store manages the history SQLite database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewStore opens or creates the history database at path. It creates the
// schema if it does not exist.
func NewStore(path string, logger *log.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logging.OrDiscard(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			page_count INTEGER NOT NULL DEFAULT 0,
			scanned INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			result TEXT,
			analyzed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_path ON analyses(path)`,
		`CREATE TABLE IF NOT EXISTS findings (
			analysis_id INTEGER NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			check_name TEXT NOT NULL,
			page INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_analysis ON findings(analysis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_check ON findings(check_name)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save records a successful analysis of path together with one finding row
// per flagged page.
func (s *Store) Save(ctx context.Context, path, digest string, result *types.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("saving %s: nil result", path)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result for %s: %w", path, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO analyses (path, digest, page_count, scanned, result, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		path, digest, result.PageCount, result.ScannedPDF, string(data), s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("inserting analysis of %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading analysis id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (analysis_id, check_name, page) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, c := range result.PageChecks() {
		for _, page := range c.Pages {
			if _, err := stmt.ExecContext(ctx, id, c.Name, page); err != nil {
				return fmt.Errorf("inserting %s finding: %w", c.Name, err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing analysis of %s: %w", path, err)
	}
	s.logger.Debug().Str("path", path).Int64("id", id).Int("findings", rows).Msg("analysis recorded")
	return nil
}

// SaveFailure records that path could not be analysed.
func (s *Store) SaveFailure(ctx context.Context, path, digest string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (path, digest, error, analyzed_at) VALUES (?, ?, ?, ?)`,
		path, digest, msg, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("inserting failure of %s: %w", path, err)
	}
	return nil
}

// Lookup returns the latest analysis of path when it succeeded and its digest
// matches.
func (s *Store) Lookup(ctx context.Context, path, digest string) (*types.AnalysisResult, bool, error) {
	e, err := s.Latest(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if e.Failed() || e.Digest != digest {
		return nil, false, nil
	}
	return e.Result, true, nil
}

// Latest returns the most recent analysis of path.
func (s *Store) Latest(ctx context.Context, path string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, digest, error, result, analyzed_at FROM analyses
		 WHERE path = ? ORDER BY id DESC LIMIT 1`, path)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading latest analysis of %s: %w", path, err)
	}
	return e, nil
}

// List returns the recorded analyses of path, newest first. An empty path
// lists every recorded analysis.
func (s *Store) List(ctx context.Context, path string) ([]Entry, error) {
	query := `SELECT id, path, digest, error, result, analyzed_at FROM analyses`
	var args []any
	if path != "" {
		query += ` WHERE path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Flagged returns the paths whose latest successful analysis flagged at
// least one page for check, in path order.
func (s *Store) Flagged(ctx context.Context, check string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.path FROM analyses a
		 JOIN (SELECT path, MAX(id) AS id FROM analyses GROUP BY path) latest ON latest.id = a.id
		 WHERE a.error = '' AND EXISTS (
			SELECT 1 FROM findings f WHERE f.analysis_id = a.id AND f.check_name = ?
		 )
		 ORDER BY a.path`, check)
	if err != nil {
		return nil, fmt.Errorf("querying %s findings: %w", check, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e          Entry
		result     sql.NullString
		analyzedAt string
	)
	if err := row.Scan(&e.ID, &e.Path, &e.Digest, &e.Error, &result, &analyzedAt); err != nil {
		return Entry{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, analyzedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing analyzed_at of %d: %w", e.ID, err)
	}
	e.AnalyzedAt = t

	if result.Valid && result.String != "" {
		var r types.AnalysisResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return Entry{}, fmt.Errorf("decoding result of %d: %w", e.ID, err)
		}
		r.Normalize()
		e.Result = &r
	}
	return e, nil
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}
