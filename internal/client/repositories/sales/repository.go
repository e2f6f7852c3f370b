// Package sales stores locally originated sales and their sync verdicts.
package sales

import (
	"context"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/models"
)

type Repository interface {
	// Insert fails with common.ErrArticleAlreadySold when the article already
	// has a live local sale.
	Insert(ctx context.Context, s *models.PendingSale) error
	GetByID(ctx context.Context, id string) (*models.PendingSale, error)
	// GetLiveByArticle returns the local sale of an article that is pending,
	// synced or in conflict. Error records do not count.
	GetLiveByArticle(ctx context.Context, editionID, articleID string) (*models.PendingSale, error)
	// ListByStatus returns records oldest first.
	ListByStatus(ctx context.Context, editionID string, status models.SaleStatus) ([]*models.PendingSale, error)
	// ListAll returns every record of the edition, newest first.
	ListAll(ctx context.Context, editionID string) ([]*models.PendingSale, error)
	CountByStatus(ctx context.Context, editionID string, status models.SaleStatus) (int, error)
	// CountUnresolved counts pending records plus conflict and error
	// records that were not acknowledged.
	CountUnresolved(ctx context.Context, editionID string) (int, error)
	// ApplyOutcome moves a pending record to its verdict. It reports false
	// when no pending record with that id exists.
	ApplyOutcome(ctx context.Context, o models.SyncOutcome, at time.Time) (bool, error)
	// ListUnacknowledged returns conflict and error records nobody has
	// looked at yet.
	ListUnacknowledged(ctx context.Context, editionID string) ([]*models.PendingSale, error)
	Acknowledge(ctx context.Context, id, note string, at time.Time) error
	// Purge deletes synced records and acknowledged conflict or error
	// records resolved before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}
