package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const selectColumns = `SELECT id, edition_id, article_id, barcode, article_description, price,
		payment_method, register_number, sold_at, status, server_sale_id, error_message,
		resolved_at, acknowledged_at, resolution_note
	FROM pending_sales`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Insert(ctx context.Context, s *models.PendingSale) error {
	query := `INSERT INTO pending_sales (id, edition_id, article_id, barcode, article_description,
			price, payment_method, register_number, sold_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.EditionID, s.ArticleID, s.Barcode, s.ArticleDescription,
		s.Price.String(), string(s.PaymentMethod), s.RegisterNumber, s.SoldAt.UnixNano(), string(s.Status))
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: article %s", common.ErrArticleAlreadySold, s.ArticleID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert pending sale: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetLiveByArticle(ctx context.Context, editionID, articleID string) (*models.PendingSale, error) {
	s, err := scanSale(r.db.QueryRowContext(ctx, selectColumns+` WHERE edition_id = ? AND article_id = ?
		AND status <> 'error' ORDER BY sold_at DESC LIMIT 1`, editionID, articleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale of article %s: %w", articleID, err)
	}
	return s, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.PendingSale, error) {
	s, err := scanSale(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sale %s: %w", id, err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListByStatus(ctx context.Context, editionID string, status models.SaleStatus) ([]*models.PendingSale, error) {
	return r.list(ctx, selectColumns+` WHERE edition_id = ? AND status = ? ORDER BY sold_at ASC, id ASC`, editionID, string(status))
}

func (r *SQLiteRepository) ListAll(ctx context.Context, editionID string) ([]*models.PendingSale, error) {
	return r.list(ctx, selectColumns+` WHERE edition_id = ? ORDER BY sold_at DESC, id DESC`, editionID)
}

func (r *SQLiteRepository) ListUnacknowledged(ctx context.Context, editionID string) ([]*models.PendingSale, error) {
	return r.list(ctx, selectColumns+` WHERE edition_id = ? AND status IN ('conflict', 'error')
		AND acknowledged_at IS NULL ORDER BY sold_at ASC, id ASC`, editionID)
}

func (r *SQLiteRepository) CountByStatus(ctx context.Context, editionID string, status models.SaleStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_sales WHERE edition_id = ? AND status = ?`,
		editionID, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending sales: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountUnresolved(ctx context.Context, editionID string) (int, error) {
	query := `SELECT COUNT(*) FROM pending_sales WHERE edition_id = ?
		AND (status = 'pending' OR (status IN ('conflict', 'error') AND acknowledged_at IS NULL))`

	var n int
	if err := r.db.QueryRowContext(ctx, query, editionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unresolved sales: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ApplyOutcome(ctx context.Context, o models.SyncOutcome, at time.Time) (bool, error) {
	query := `UPDATE pending_sales
		SET status = ?, server_sale_id = ?, error_message = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'`

	res, err := r.db.ExecContext(ctx, query, string(o.Status), o.ServerSaleID, o.ErrorMessage, at.UnixNano(), o.ClientID)
	if err != nil {
		return false, fmt.Errorf("failed to apply sync outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) Acknowledge(ctx context.Context, id, note string, at time.Time) error {
	query := `UPDATE pending_sales SET acknowledged_at = ?, resolution_note = ?
		WHERE id = ? AND status IN ('conflict', 'error')`

	res, err := r.db.ExecContext(ctx, query, at.UnixNano(), note, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge sale %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return common.ErrNotResolvable
}

func (r *SQLiteRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM pending_sales
		WHERE resolved_at IS NOT NULL AND resolved_at < ?
		AND (status = 'synced' OR (status IN ('conflict', 'error') AND acknowledged_at IS NOT NULL))`

	res, err := r.db.ExecContext(ctx, query, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sales: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.PendingSale, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending sales: %w", err)
	}
	defer rows.Close()

	result := []*models.PendingSale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending sale: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSale(row scanner) (*models.PendingSale, error) {
	var (
		s               models.PendingSale
		method, status  string
		soldAt          int64
		resolved, acked sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.EditionID, &s.ArticleID, &s.Barcode, &s.ArticleDescription, &s.Price,
		&method, &s.RegisterNumber, &soldAt, &status, &s.ServerSaleID, &s.ErrorMessage,
		&resolved, &acked, &s.ResolutionNote)
	if err != nil {
		return nil, err
	}
	s.PaymentMethod = models.PaymentMethod(method)
	s.Status = models.SaleStatus(status)
	s.SoldAt = time.Unix(0, soldAt)
	s.ResolvedAt = nullTime(resolved)
	s.AcknowledgedAt = nullTime(acked)
	return &s, nil
}

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64)
	return &t
}
