package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "register.db")

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("db.PingContext failed: %v", err)
	}

	for _, name := range []string{"goose_db_version", "catalog_articles", "pending_sales", "register_state"} {
		if !tableExists(t, db, name) {
			t.Fatalf("expected table %s to exist after migrations", name)
		}
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "register.db")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (first) error: %v", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (second) should be idempotent, got error: %v", err)
	}

	if !tableExists(t, db, "goose_db_version") {
		t.Fatalf("expected goose_db_version table to exist after repeated migrations")
	}
}

func TestInitDatabase_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "register.db")

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO register_state(key, value, updated_at) VALUES ('probe', 'ok', 0)`)
	if err != nil {
		t.Fatalf("insert probe failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	db, err = InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase (reopen) error: %v", err)
	}
	defer db.Close()

	var got string
	if err := db.QueryRowContext(ctx, `SELECT value FROM register_state WHERE key='probe'`).Scan(&got); err != nil {
		t.Fatalf("select probe failed: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected probe value: %q", got)
	}
}

func TestInitDatabase_CreatesParentDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "data", "register.db")

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	if !tableExists(t, db, "pending_sales") {
		t.Fatalf("expected pending_sales table in %s", dsn)
	}
}
