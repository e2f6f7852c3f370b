package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const articleColumns = `a.id, a.edition_id, a.barcode, a.description, a.category, a.size, a.price,
	a.brand, a.is_lot, a.lot_quantity, a.list_number, a.depositor_name, a.label_color`

func (r *PostgresRepository) Upsert(ctx context.Context, a *models.Article) error {
	query := `
		INSERT INTO articles (id, edition_id, barcode, description, category, size, price,
			brand, is_lot, lot_quantity, list_number, depositor_name, label_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			edition_id = EXCLUDED.edition_id,
			barcode = EXCLUDED.barcode,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			size = EXCLUDED.size,
			price = EXCLUDED.price,
			brand = EXCLUDED.brand,
			is_lot = EXCLUDED.is_lot,
			lot_quantity = EXCLUDED.lot_quantity,
			list_number = EXCLUDED.list_number,
			depositor_name = EXCLUDED.depositor_name,
			label_color = EXCLUDED.label_color
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.EditionID, a.Barcode, a.Description, a.Category, a.Size, a.Price,
		a.Brand, a.IsLot, a.LotQuantity, a.ListNumber, a.DepositorName, a.LabelColor)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListAvailable(ctx context.Context, editionID string) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a
		LEFT JOIN sales s ON s.article_id = a.id
		WHERE a.edition_id = $1 AND s.id IS NULL
		ORDER BY a.barcode`

	rows, err := r.db.QueryContext(ctx, query, editionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles: %w", err)
	}
	defer rows.Close()

	var result []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByBarcode(ctx context.Context, editionID, barcode string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a WHERE a.edition_id = $1 AND a.barcode = $2`
	return r.getOne(ctx, query, editionID, barcode)
}

func (r *PostgresRepository) GetByID(ctx context.Context, editionID, id string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a WHERE a.edition_id = $1 AND a.id = $2`
	return r.getOne(ctx, query, editionID, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*models.Article, error) {
	var a models.Article
	err := s.Scan(&a.ID, &a.EditionID, &a.Barcode, &a.Description, &a.Category, &a.Size, &a.Price,
		&a.Brand, &a.IsLot, &a.LotQuantity, &a.ListNumber, &a.DepositorName, &a.LabelColor)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
