// Package catalog persists the per-edition article snapshot used for offline
// barcode lookups.
package catalog

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/client/models"
)

type Repository interface {
	// ReplaceAll drops the edition's snapshot and inserts articles. Callers
	// run it inside a transaction so a failed insert keeps the old snapshot.
	ReplaceAll(ctx context.Context, editionID string, articles []models.CachedArticle) error
	GetByBarcode(ctx context.Context, editionID, barcode string) (*models.CachedArticle, error)
	Count(ctx context.Context, editionID string) (int, error)
}
