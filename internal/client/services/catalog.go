package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"golang.org/x/sync/singleflight"
)

// CatalogCache keeps a per-edition article snapshot for offline lookups.
type CatalogCache struct {
	client client.Client
	db     dbx.DB
	meta   metadata.Repository
	log    logging.Logger
	now    func() time.Time

	group singleflight.Group

	mu         sync.Mutex
	prefetched map[string]bool
}

func NewCatalogCache(c client.Client, db dbx.DB, meta metadata.Repository, log logging.Logger) *CatalogCache {
	return &CatalogCache{
		client:     c,
		db:         db,
		meta:       meta,
		log:        log,
		now:        time.Now,
		prefetched: make(map[string]bool),
	}
}

// Prefetch downloads the edition catalog and swaps the local snapshot in one
// transaction. It runs at most once per edition until Invalidate; concurrent
// callers share one download. A failed prefetch leaves the previous snapshot
// and the guard untouched.
func (c *CatalogCache) Prefetch(ctx context.Context, editionID string) error {
	if editionID == "" {
		return common.ErrNoEdition
	}
	if c.Prefetched(editionID) {
		return nil
	}

	_, err, _ := c.group.Do(editionID, func() (any, error) {
		if c.Prefetched(editionID) {
			return nil, nil
		}

		articles, err := c.client.FetchCatalog(ctx, editionID)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}

		err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return catalog.NewSQLiteRepository(tx).ReplaceAll(ctx, editionID, articles)
		})
		if err != nil {
			return nil, fmt.Errorf("store catalog: %w", err)
		}

		if err := metadata.SetTime(ctx, c.meta, metadata.CatalogFetchedAtKey(editionID), c.now()); err != nil {
			c.log.Warn(ctx, "failed to stamp catalog fetch time", "edition", editionID, "error", err)
		}

		c.mu.Lock()
		c.prefetched[editionID] = true
		c.mu.Unlock()

		c.log.Info(ctx, "catalog prefetched", "edition", editionID, "articles", len(articles))
		return nil, nil
	})
	return err
}

// Lookup resolves a barcode from the local snapshot only.
func (c *CatalogCache) Lookup(ctx context.Context, editionID, barcode string) (*models.CachedArticle, error) {
	a, err := catalog.NewSQLiteRepository(c.db).GetByBarcode(ctx, editionID, barcode)
	if errors.Is(err, common.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrArticleNotFoundOffline, barcode)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Invalidate re-arms the prefetch guard for an edition. With no argument it
// re-arms every edition.
func (c *CatalogCache) Invalidate(editionIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(editionIDs) == 0 {
		clear(c.prefetched)
		return
	}
	for _, id := range editionIDs {
		delete(c.prefetched, id)
	}
}

// Prefetched reports whether the edition was prefetched in this session.
func (c *CatalogCache) Prefetched(editionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefetched[editionID]
}

func (c *CatalogCache) Count(ctx context.Context, editionID string) (int, error) {
	return catalog.NewSQLiteRepository(c.db).Count(ctx, editionID)
}

// FetchedAt returns when the snapshot was last replaced, zero if never.
func (c *CatalogCache) FetchedAt(ctx context.Context, editionID string) (time.Time, error) {
	return metadata.GetTime(ctx, c.meta, metadata.CatalogFetchedAtKey(editionID))
}
