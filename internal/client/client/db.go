package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/client/migrations"
	"github.com/dmitrijs2005/possync/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// RunMigrations applies the embedded goose migrations to db. Running it on
// an up-to-date database is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// InitDatabase opens the register's SQLite database at dsn and migrates it.
// SQLite allows a single writer, so the pool is limited to one connection.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if _, err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
