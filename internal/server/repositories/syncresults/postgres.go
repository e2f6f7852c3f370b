package syncresults

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

func (r *PostgresRepository) Get(ctx context.Context, editionID, clientID string) (*models.SyncResult, error) {
	query := `SELECT edition_id, client_id, status, server_sale_id, error_message, created_at
		FROM sync_results WHERE edition_id = $1 AND client_id = $2`

	var m models.SyncResult
	err := r.db.QueryRowContext(ctx, query, editionID, clientID).
		Scan(&m.EditionID, &m.ClientID, &m.Status, &m.ServerSaleID, &m.ErrorMessage, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

func (r *PostgresRepository) Save(ctx context.Context, m *models.SyncResult) error {
	query := `
		INSERT INTO sync_results (edition_id, client_id, status, server_sale_id, error_message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (edition_id, client_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query,
		m.EditionID, m.ClientID, m.Status, m.ServerSaleID, m.ErrorMessage); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
