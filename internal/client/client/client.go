package client

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/client/models"
)

// Client is the register's view of the backend.
type Client interface {
	// Ping probes the health endpoint. Any error means unreachable.
	Ping(ctx context.Context) error

	// FetchCatalog downloads every sellable article of an edition.
	FetchCatalog(ctx context.Context, editionID string) ([]models.CachedArticle, error)

	// ScanArticle resolves a barcode online.
	ScanArticle(ctx context.Context, editionID, barcode string) (*models.CachedArticle, error)

	// RegisterSale registers one sale online. draft.ClientID, when set, is
	// sent as the idempotency key.
	RegisterSale(ctx context.Context, editionID string, draft models.SaleDraft) (*models.Sale, error)

	// SyncSales submits queued sales as one batch and returns the per-item
	// verdicts.
	SyncSales(ctx context.Context, editionID string, sales []*models.PendingSale) ([]models.SyncOutcome, error)

	// ListSales returns the most recent server-confirmed sales.
	ListSales(ctx context.Context, editionID string, limit int) ([]models.Sale, error)

	// LiveStats returns running sale totals of an edition.
	LiveStats(ctx context.Context, editionID string) (*models.LiveStats, error)
}
