package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/migrations"
	"github.com/dmitrijs2005/possync/internal/server/repositories/articles"
	"github.com/dmitrijs2005/possync/internal/server/repositories/sales"
	"github.com/dmitrijs2005/possync/internal/server/repositories/syncresults"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	db *sql.DB
}

var _ RepositoryManager = (*PostgresRepositoryManager)(nil)

// NewPostgresRepositoryManager opens a pgx connection pool for dsn. The
// connection is verified lazily; call Ping to check it.
func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return NewPostgresRepositoryManagerFromDB(db), nil
}

// NewPostgresRepositoryManagerFromDB wraps an existing pool.
func NewPostgresRepositoryManagerFromDB(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

func (m *PostgresRepositoryManager) Articles() articles.Repository {
	return postgresRepositories{db: m.db}.Articles()
}

func (m *PostgresRepositoryManager) Sales() sales.Repository {
	return postgresRepositories{db: m.db}.Sales()
}

func (m *PostgresRepositoryManager) SyncResults() syncresults.Repository {
	return postgresRepositories{db: m.db}.SyncResults()
}

func (m *PostgresRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepositories{db: tx})
	})
}

// migrateUp is a seam for testing the goose provider.
var migrateUp = func(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	return migrateUp(ctx, m.db)
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

type postgresRepositories struct {
	db dbx.DBTX
}

func (r postgresRepositories) Articles() articles.Repository {
	return articles.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Sales() sales.Repository {
	return sales.NewPostgresRepository(r.db)
}

func (r postgresRepositories) SyncResults() syncresults.Repository {
	return syncresults.NewPostgresRepository(r.db)
}
