package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// SQLite stores results in an SQLite database.
type SQLite struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenSQLite opens an SQLite database at the given path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLite{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *SQLite) Path() string {
	return s.path
}

// Migrate applies all pending schema migrations.
func (s *SQLite) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Results},
		{2, migrationV2Fingerprints},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Results = `
CREATE TABLE IF NOT EXISTS results (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	test_name TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	severity TEXT NOT NULL,
	label TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0.0,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
`

const migrationV2Fingerprints = `
ALTER TABLE results ADD COLUMN fingerprint TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_results_fingerprint ON results(fingerprint);
`

// Create persists r under a new UUID.
func (s *SQLite) Create(ctx context.Context, fingerprint string, r *models.TriageResult) (*models.StoredResult, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	stored := &models.StoredResult{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Fingerprint:  fingerprint,
		TriageResult: *r,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO results (id, created_at, fingerprint, test_name, category, severity, label, confidence, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, formatTime(stored.CreatedAt), fingerprint, r.TestName,
		string(r.Category), string(r.Severity), r.Label, r.Confidence, string(payload))
	if err != nil {
		return nil, fmt.Errorf("create result: %w", err)
	}
	return stored, nil
}

// Get retrieves a result by id.
func (s *SQLite) Get(ctx context.Context, id string) (*models.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, created_at, fingerprint, payload FROM results WHERE id = ?
	`, id)

	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// List returns up to limit results newest first, skipping offset.
func (s *SQLite) List(ctx context.Context, limit, offset int) ([]models.StoredResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, created_at, fingerprint, payload FROM results
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []models.StoredResult{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// Delete removes a result by id.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx, "DELETE FROM results WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored results.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&n); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}

// HasSimilar reports whether a result with the same fingerprint is stored.
func (s *SQLite) HasSimilar(ctx context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM results WHERE fingerprint = ?)", fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("find similar result: %w", err)
	}
	return exists == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (*models.StoredResult, error) {
	var res models.StoredResult
	var createdAt, payload string
	if err := sc.Scan(&res.ID, &createdAt, &res.Fingerprint, &payload); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &res.TriageResult); err != nil {
		return nil, fmt.Errorf("decode payload for %s: %w", res.ID, err)
	}
	res.CreatedAt, _ = parseTime(createdAt)
	return &res, nil
}

// formatTime keeps fixed-width fractional seconds so that created_at sorts lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
