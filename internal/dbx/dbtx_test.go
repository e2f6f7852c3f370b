package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY, v TEXT);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('sale-1')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('fail')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)

	require.Equal(t, 0, countRows(t, db), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
}

func TestWithTx_FnSeesOwnWrites(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('a'), ('b')`); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
			return err
		}
		require.Equal(t, 2, n)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, countRows(t, db))
}
