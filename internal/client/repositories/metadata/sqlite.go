package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/dbx"
)

// SQLiteRepository stores register state in the register_state table.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM register_state WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("failed to read register state %s: %w", key, err)
	}
	return value, true, nil
}

// Set overwrites the value and stamps updated_at.
func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO register_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, key, value, r.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to write register state %s: %w", key, err)
	}
	return nil
}
