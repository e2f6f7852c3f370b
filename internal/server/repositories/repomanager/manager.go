// Package repomanager wires the backend repositories to a storage engine:
// PostgreSQL (pgx + goose migrations) or an in-memory store for development
// and tests. Both expose the same transactional entry point.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/server/repositories/articles"
	"github.com/dmitrijs2005/possync/internal/server/repositories/sales"
	"github.com/dmitrijs2005/possync/internal/server/repositories/syncresults"
)

// Repositories groups the repositories bound to one connection or one
// transaction.
type Repositories interface {
	Articles() articles.Repository
	Sales() sales.Repository
	SyncResults() syncresults.Repository
}

// RepositoryManager vends non-transactional repositories and runs units of
// work atomically.
type RepositoryManager interface {
	Repositories

	// WithinTx runs fn with repositories bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
