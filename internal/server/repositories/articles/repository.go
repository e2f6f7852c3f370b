// Package articles stores the sellable catalog of each edition.
package articles

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

type Repository interface {
	// Upsert creates or replaces an article by id.
	Upsert(ctx context.Context, a *models.Article) error
	// ListAvailable returns the articles of an edition that have no sale yet,
	// ordered by barcode.
	ListAvailable(ctx context.Context, editionID string) ([]models.Article, error)
	GetByBarcode(ctx context.Context, editionID, barcode string) (*models.Article, error)
	GetByID(ctx context.Context, editionID, id string) (*models.Article, error)
}
