package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCache_PrefetchAndLookup(t *testing.T) {
	e := newEnv(t)
	e.client.Catalog = []models.CachedArticle{testArticle("a1", "111", "4.50"), testArticle("a2", "222", "8")}
	ctx := context.Background()

	require.NoError(t, e.catalog.Prefetch(ctx, testEdition))
	assert.True(t, e.catalog.Prefetched(testEdition))

	a, err := e.catalog.Lookup(ctx, testEdition, "222")
	require.NoError(t, err)
	assert.Equal(t, "a2", a.ArticleID)

	n, err := e.catalog.Count(ctx, testEdition)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	at, err := e.catalog.FetchedAt(ctx, testEdition)
	require.NoError(t, err)
	assert.False(t, at.IsZero())
}

func TestCatalogCache_LookupMissIsOfflineNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.catalog.Lookup(context.Background(), testEdition, "nothing")
	assert.ErrorIs(t, err, common.ErrArticleNotFoundOffline)
	assert.False(t, errors.Is(err, common.ErrArticleNotFound))
}

func TestCatalogCache_PrefetchOncePerSession(t *testing.T) {
	e := newEnv(t)
	e.client.Catalog = []models.CachedArticle{testArticle("a1", "111", "1")}
	ctx := context.Background()

	require.NoError(t, e.catalog.Prefetch(ctx, testEdition))
	require.NoError(t, e.catalog.Prefetch(ctx, testEdition))
	assert.Equal(t, 1, e.client.catalogCalls())

	e.catalog.Invalidate(testEdition)
	require.NoError(t, e.catalog.Prefetch(ctx, testEdition))
	assert.Equal(t, 2, e.client.catalogCalls())

	e.catalog.Invalidate()
	assert.False(t, e.catalog.Prefetched(testEdition))
}

func TestCatalogCache_ConcurrentPrefetchSharesOneFetch(t *testing.T) {
	e := newEnv(t)
	e.client.Catalog = []models.CachedArticle{testArticle("a1", "111", "1")}
	gate := make(chan struct{})
	e.client.CatalogGate = gate

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.catalog.Prefetch(context.Background(), testEdition)
		}(i)
	}
	eventually(t, func() bool { return e.client.catalogCalls() == 1 })
	close(gate)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, e.client.catalogCalls())
}

func TestCatalogCache_FailedFetchKeepsPriorSnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client.Catalog = []models.CachedArticle{testArticle("old", "111", "1")}
	require.NoError(t, e.catalog.Prefetch(ctx, testEdition))
	e.catalog.Invalidate(testEdition)

	e.client.Catalog = nil
	e.client.CatalogErr = client.ErrUnavailable
	err := e.catalog.Prefetch(ctx, testEdition)
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.False(t, e.catalog.Prefetched(testEdition), "guard stays armed after failure")

	a, err := e.catalog.Lookup(ctx, testEdition, "111")
	require.NoError(t, err)
	assert.Equal(t, "old", a.ArticleID)
}

func TestCatalogCache_BadCatalogRollsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client.Catalog = []models.CachedArticle{testArticle("old", "000", "1")}
	require.NoError(t, e.catalog.Prefetch(ctx, testEdition))
	e.catalog.Invalidate(testEdition)

	// two articles with one barcode violate the unique index halfway through
	e.client.Catalog = []models.CachedArticle{testArticle("a1", "111", "1"), testArticle("a2", "111", "2")}
	require.Error(t, e.catalog.Prefetch(ctx, testEdition))

	a, err := e.catalog.Lookup(ctx, testEdition, "000")
	require.NoError(t, err)
	assert.Equal(t, "old", a.ArticleID)

	_, err = e.catalog.Lookup(ctx, testEdition, "111")
	assert.ErrorIs(t, err, common.ErrArticleNotFoundOffline)
}

func TestCatalogCache_PrefetchNeedsEdition(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.catalog.Prefetch(context.Background(), ""), common.ErrNoEdition)
}
