// Package store persists triage results. Two backends are provided: SQLite
// (the default, under the XDG data directory) and an in-memory store for
// tests and throwaway servers.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ShayCichocki/bugtriage/internal/triage"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// ErrNotFound is returned when no result has the requested id.
var ErrNotFound = errors.New("result not found")

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// Store is the result store used by the API, the CLI and watch mode.
type Store interface {
	io.Closer
	triage.History

	// Create assigns an id and creation time and persists the result.
	Create(ctx context.Context, fingerprint string, r *models.TriageResult) (*models.StoredResult, error)
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (*models.StoredResult, error)
	// List returns results newest first.
	List(ctx context.Context, limit, offset int) ([]models.StoredResult, error)
	// Delete returns ErrNotFound for an unknown id.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Compile-time verification that both backends implement Store.
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Memory)(nil)
)

// DefaultPath returns the default SQLite database path.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "bugtriage", "results.db")
}

// Open opens the store named by driver. SQLite stores are migrated before
// they are returned.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		if path == "" {
			path = DefaultPath()
		}
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
