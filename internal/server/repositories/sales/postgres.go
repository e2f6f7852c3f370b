package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const (
	uniqueViolation = "23505"

	articleConstraint = "ux_sales_article"
	clientConstraint  = "ux_sales_edition_client"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const saleColumns = `id, edition_id, client_id, article_id, barcode, article_description, price,
	payment_method, register_number, sold_at, source, created_at`

func (r *PostgresRepository) Insert(ctx context.Context, s *models.Sale) error {
	query := `
		INSERT INTO sales (id, edition_id, client_id, article_id, barcode, article_description, price,
			payment_method, register_number, sold_at, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.EditionID, s.ClientID, s.ArticleID, s.Barcode, s.ArticleDescription, s.Price,
		s.PaymentMethod, s.RegisterNumber, s.SoldAt, s.Source).Scan(&s.CreatedAt)
	if err != nil {
		return mapInsertError(err)
	}
	return nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case articleConstraint:
			return common.ErrArticleAlreadySold
		case clientConstraint:
			return common.ErrDuplicateClientID
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) GetByClientID(ctx context.Context, editionID, clientID string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE edition_id = $1 AND client_id = $2`
	return r.getOne(ctx, query, editionID, clientID)
}

func (r *PostgresRepository) GetByArticle(ctx context.Context, articleID string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE article_id = $1`
	return r.getOne(ctx, query, articleID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Sale, error) {
	s, err := scanSale(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, editionID string, limit int) ([]models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE edition_id = $1 ORDER BY sold_at DESC, id DESC`
	args := []any{editionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sales: %w", err)
	}
	defer rows.Close()

	var result []models.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, editionID string) (*models.SalesStats, error) {
	query := `SELECT payment_method, COUNT(*), COALESCE(SUM(price), 0) FROM sales
		WHERE edition_id = $1 GROUP BY payment_method`

	rows, err := r.db.QueryContext(ctx, query, editionID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer rows.Close()

	st := &models.SalesStats{Total: decimal.Zero, ByPaymentMethod: map[string]decimal.Decimal{}}
	for rows.Next() {
		var (
			method string
			n      int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&method, &n, &sum); err != nil {
			return nil, err
		}
		st.Count += n
		st.Total = st.Total.Add(sum)
		st.ByPaymentMethod[method] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSale(s scanner) (*models.Sale, error) {
	var m models.Sale
	err := s.Scan(&m.ID, &m.EditionID, &m.ClientID, &m.ArticleID, &m.Barcode, &m.ArticleDescription,
		&m.Price, &m.PaymentMethod, &m.RegisterNumber, &m.SoldAt, &m.Source, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
