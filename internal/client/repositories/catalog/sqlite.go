package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, editionID string, articles []models.CachedArticle) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM catalog_articles WHERE edition_id = ?`, editionID); err != nil {
		return fmt.Errorf("failed to clear catalog[%s]: %w", editionID, err)
	}

	query := `INSERT INTO catalog_articles (
			edition_id, article_id, barcode, description, category, size, price,
			brand, is_lot, lot_quantity, list_number, depositor_name, label_color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, a := range articles {
		_, err := r.db.ExecContext(ctx, query,
			editionID, a.ArticleID, a.Barcode, a.Description, a.Category, a.Size, a.Price.String(),
			a.Brand, a.IsLot, a.LotQuantity, a.ListNumber, a.DepositorName, a.LabelColor)
		if err != nil {
			return fmt.Errorf("failed to insert article %s: %w", a.ArticleID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByBarcode(ctx context.Context, editionID, barcode string) (*models.CachedArticle, error) {
	query := `SELECT article_id, barcode, description, category, size, price,
			brand, is_lot, lot_quantity, list_number, depositor_name, label_color
		FROM catalog_articles WHERE edition_id = ? AND barcode = ?`

	a := &models.CachedArticle{EditionID: editionID}
	err := r.db.QueryRowContext(ctx, query, editionID, barcode).Scan(
		&a.ArticleID, &a.Barcode, &a.Description, &a.Category, &a.Size, &a.Price,
		&a.Brand, &a.IsLot, &a.LotQuantity, &a.ListNumber, &a.DepositorName, &a.LabelColor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by barcode: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) Count(ctx context.Context, editionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_articles WHERE edition_id = ?`, editionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	return n, nil
}
