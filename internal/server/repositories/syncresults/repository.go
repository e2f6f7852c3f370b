// Package syncresults stores the verdict given to each synced client id.
package syncresults

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrRecordNotFound when the id was never processed.
	Get(ctx context.Context, editionID, clientID string) (*models.SyncResult, error)
	// Save stores a verdict. An existing verdict for the same id is kept.
	Save(ctx context.Context, r *models.SyncResult) error
}
