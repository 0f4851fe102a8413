// Package testutil provides test helpers for code that needs a real journal
// database or realistic purchase history.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/storage"
)

// TestDB is a migrated SQLite database scoped to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	path    string
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	History     []model.HistoricalTransaction
	InMemory    bool
}

// SetupTestDB creates a file-backed test database in a temporary directory.
// File-backed databases survive Reopen, which in-memory ones do not.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	store := learning.NewStore(learning.DefaultConfig(), db.Storage)
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	path := ":memory:"
	if !opts.InMemory {
		path = filepath.Join(t.TempDir(), "kvitt.db")
	}

	db := &TestDB{t: t, path: path}
	db.open()

	ctx := context.Background()
	if len(opts.History) > 0 {
		if _, err := db.Storage.SaveHistoricalTransactions(ctx, opts.History); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, db.Storage); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// Reopen closes the database and opens it again from disk, as a restarted
// process would.
func (db *TestDB) Reopen() *storage.SQLiteStorage {
	db.t.Helper()
	if db.path == ":memory:" {
		db.t.Fatal("cannot reopen an in-memory database")
	}

	if err := db.Storage.Close(); err != nil {
		db.t.Fatalf("failed to close database: %v", err)
	}
	db.open()
	return db.Storage
}

// OpenHandle opens another connection to the same file, as a second process
// sharing the database would. It is closed when the test ends.
func (db *TestDB) OpenHandle() *storage.SQLiteStorage {
	db.t.Helper()
	if db.path == ":memory:" {
		db.t.Fatal("an in-memory database has no second handle")
	}

	store, err := storage.Open(context.Background(), db.path)
	if err != nil {
		db.t.Fatalf("failed to open second handle: %v", err)
	}
	db.t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func (db *TestDB) open() {
	db.t.Helper()

	store, err := storage.Open(context.Background(), db.path)
	if err != nil {
		db.t.Fatalf("failed to create test database: %v", err)
	}
	db.Storage = store

	db.t.Cleanup(func() {
		_ = store.Close()
	})
}
