// Package sales stores confirmed sales.
package sales

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

type Repository interface {
	// Insert stores a new sale. It fails with common.ErrArticleAlreadySold
	// when the article has a sale and with common.ErrDuplicateClientID when
	// the client id was used before.
	Insert(ctx context.Context, s *models.Sale) error
	GetByClientID(ctx context.Context, editionID, clientID string) (*models.Sale, error)
	GetByArticle(ctx context.Context, articleID string) (*models.Sale, error)
	// List returns the newest sales of an edition first; limit <= 0 means all.
	List(ctx context.Context, editionID string, limit int) ([]models.Sale, error)
	Stats(ctx context.Context, editionID string) (*models.SalesStats, error)
}
