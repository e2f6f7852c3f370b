// Package dbx holds the small database/sql abstractions the repositories
// share: DBTX, satisfied by both *sql.DB and *sql.Tx, and WithTx.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Beginner is implemented by *sql.DB.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back when it returns an error or panics; panics are
// re-raised after the rollback.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return catalog.NewSQLiteRepository(tx).ReplaceAll(ctx, editionID, articles)
//	})
func WithTx(ctx context.Context, db Beginner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// DB is a handle that can both run statements and open transactions.
type DB interface {
	DBTX
	Beginner
}
