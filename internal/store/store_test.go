package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"sqlite": db,
		"memory": NewMemory(),
	}
}

func sampleResult(testName string) *models.TriageResult {
	return &models.TriageResult{
		Title:            "Login button not found in UI",
		Description:      "Summary: the login button is missing.",
		Category:         models.CategoryFrontendUI,
		Severity:         models.SeverityHigh,
		Confidence:       0.82,
		Label:            "UI Bug",
		CandidateLabels:  []string{"UI Bug", "Test Failure"},
		FlakinessReasons: []string{},
		ExtractedFields:  models.ExtractedFields{LineNumber: 42, FilePath: "tests/test_login.py"},
		TestName:         testName,
	}
}

func TestCreateGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			in := sampleResult("test_login")
			created, err := s.Create(ctx, "fp-1", in)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if created.ID == "" || created.CreatedAt.IsZero() {
				t.Fatalf("Create() = %+v, want id and created_at set", created)
			}

			got, err := s.Get(ctx, created.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Fingerprint != "fp-1" {
				t.Errorf("Fingerprint = %q, want fp-1", got.Fingerprint)
			}
			if diff := cmp.Diff(*in, got.TriageResult); diff != "" {
				t.Errorf("Get() result mismatch (-want +got):\n%s", diff)
			}
			if !got.CreatedAt.Equal(created.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var ids []string
			for _, tn := range []string{"first", "second", "third"} {
				r, err := s.Create(ctx, "", sampleResult(tn))
				if err != nil {
					t.Fatalf("Create() error = %v", err)
				}
				ids = append(ids, r.ID)
			}

			got, err := s.List(ctx, 0, 0)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var names []string
			for _, r := range got {
				names = append(names, r.TestName)
			}
			if diff := cmp.Diff([]string{"third", "second", "first"}, names); diff != "" {
				t.Errorf("List() order mismatch (-want +got):\n%s", diff)
			}

			page, err := s.List(ctx, 1, 1)
			if err != nil {
				t.Fatalf("List(1, 1) error = %v", err)
			}
			if len(page) != 1 || page[0].ID != ids[1] {
				t.Errorf("List(1, 1) = %v, want [%s]", page, ids[1])
			}

			empty, err := s.List(ctx, 10, 10)
			if err != nil {
				t.Fatalf("List(10, 10) error = %v", err)
			}
			if empty == nil || len(empty) != 0 {
				t.Errorf("List past end = %v, want empty non-nil slice", empty)
			}
		})
	}
}

func TestDeleteCount(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, _ := s.Create(ctx, "", sampleResult("a"))
			if _, err := s.Create(ctx, "", sampleResult("b")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			n, err := s.Count(ctx)
			if err != nil || n != 2 {
				t.Fatalf("Count() = %d, %v, want 2", n, err)
			}

			if err := s.Delete(ctx, a.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := s.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete() error = %v, want ErrNotFound", err)
			}
			if n, _ := s.Count(ctx); n != 1 {
				t.Errorf("Count() after delete = %d, want 1", n)
			}
		})
	}
}

func TestHasSimilar(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if ok, err := s.HasSimilar(ctx, "abc"); err != nil || ok {
				t.Fatalf("HasSimilar() on empty store = %v, %v, want false", ok, err)
			}
			if _, err := s.Create(ctx, "abc", sampleResult("x")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if ok, _ := s.HasSimilar(ctx, "abc"); !ok {
				t.Error("HasSimilar(abc) = false, want true")
			}
			if ok, _ := s.HasSimilar(ctx, "def"); ok {
				t.Error("HasSimilar(def) = true, want false")
			}
			if ok, _ := s.HasSimilar(ctx, ""); ok {
				t.Error("HasSimilar(\"\") = true, want false")
			}
		})
	}
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate() #%d error = %v", i+1, err)
		}
	}

	var version int
	if err := db.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("postgres", ""); err == nil {
		t.Error("Open(postgres) error = nil, want error")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got, want := DefaultPath(), filepath.Join("/data", "bugtriage", "results.db"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
