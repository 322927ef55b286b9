// Package testutil provides shared test helpers for setting up workspaces
// and index databases.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/mdtree/internal/index"
	"github.com/starford/mdtree/internal/storage"
)

// TestDB opens an index database in a temporary directory that is removed
// with the test.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "mdtree-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace directory and its provider.
func TestWorkspace(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Seed writes files into store and indexes them.
func Seed(t *testing.T, store *storage.FS, db *index.DB, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	if err := index.Sync(db, store, Logger()); err != nil {
		t.Fatalf("seed sync: %v", err)
	}
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
