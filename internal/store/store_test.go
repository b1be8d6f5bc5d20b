package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wisphive/fleetd/pkg/plugin"
)

func tempDB(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_creates_database(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNew_invalid_path(t *testing.T) {
	_, err := New("/nonexistent/path/to/db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestTx_commit(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO test (id, name) VALUES (1, 'ap-lobby')")
		return err
	})
	if err != nil {
		t.Fatalf("Tx commit: %v", err)
	}

	var name string
	if err := s.DB().QueryRowContext(ctx, "SELECT name FROM test WHERE id = 1").Scan(&name); err != nil {
		t.Fatalf("query after commit: %v", err)
	}
	if name != "ap-lobby" {
		t.Errorf("got name %q, want %q", name, "ap-lobby")
	}
}

func TestTx_rollback(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO test (id, name) VALUES (1, 'ap-lobby')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx error = %v, want boom", err)
	}

	var count int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM test").Scan(&count); err != nil {
		t.Fatalf("count after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("rolled-back insert is visible, count = %d", count)
	}
}

func TestMigrate_applies_once(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	applied := 0
	migs := []plugin.Migration{
		{
			Version:     1,
			Description: "create widgets",
			Up: func(tx *sql.Tx) error {
				applied++
				_, err := tx.Exec("CREATE TABLE widgets (id TEXT PRIMARY KEY)")
				return err
			},
		},
	}

	if err := s.Migrate(ctx, "widgets", migs); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := s.Migrate(ctx, "widgets", migs); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if applied != 1 {
		t.Errorf("migration ran %d times, want 1", applied)
	}
}

func TestMigrate_scoped_per_module(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	mig := func(table string) []plugin.Migration {
		return []plugin.Migration{
			{
				Version:     1,
				Description: "create " + table,
				Up: func(tx *sql.Tx) error {
					_, err := tx.Exec("CREATE TABLE " + table + " (id TEXT PRIMARY KEY)")
					return err
				},
			},
		}
	}

	// Same version number under different module names must both apply.
	if err := s.Migrate(ctx, "alpha", mig("alpha_things")); err != nil {
		t.Fatalf("alpha Migrate: %v", err)
	}
	if err := s.Migrate(ctx, "beta", mig("beta_things")); err != nil {
		t.Fatalf("beta Migrate: %v", err)
	}

	for _, table := range []string{"alpha_things", "beta_things"} {
		if _, err := s.DB().Exec("SELECT COUNT(*) FROM " + table); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrate_failed_migration_rolls_back(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	migs := []plugin.Migration{
		{
			Version:     1,
			Description: "broken",
			Up: func(tx *sql.Tx) error {
				if _, err := tx.Exec("CREATE TABLE half (id TEXT PRIMARY KEY)"); err != nil {
					return err
				}
				return errors.New("boom")
			},
		},
	}

	if err := s.Migrate(ctx, "broken", migs); err == nil {
		t.Fatal("expected migration error")
	}
	if _, err := s.DB().Exec("SELECT COUNT(*) FROM half"); err == nil {
		t.Error("failed migration left its table behind")
	}

	// The failed version is not recorded, so a fixed migration can re-run.
	migs[0].Up = func(tx *sql.Tx) error {
		_, err := tx.Exec("CREATE TABLE half (id TEXT PRIMARY KEY)")
		return err
	}
	if err := s.Migrate(ctx, "broken", migs); err != nil {
		t.Fatalf("retry Migrate: %v", err)
	}
}
