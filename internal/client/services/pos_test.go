package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func online() *fakeConn {
	c := &fakeConn{}
	c.online.Store(true)
	return c
}

func TestPointOfSale_ScanOfflineWithoutPrefetch(t *testing.T) {
	e := newEnv(t)
	pos := e.pos(&fakeConn{})

	_, err := pos.ScanArticle(context.Background(), "111")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrArticleNotFoundOffline)
}

func TestPointOfSale_ScanOnlineUsesServer(t *testing.T) {
	e := newEnv(t)
	e.client.ScanResult = map[string]*models.CachedArticle{"111": {ArticleID: "a1", Barcode: "111"}}
	pos := e.pos(online())

	a, err := pos.ScanArticle(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ArticleID)

	_, err = pos.ScanArticle(context.Background(), "999")
	assert.ErrorIs(t, err, common.ErrArticleNotFound)
	assert.False(t, errors.Is(err, common.ErrArticleNotFoundOffline))
}

func TestPointOfSale_ScanFallsBackToCacheWhenServerUnreachable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client.Catalog = []models.CachedArticle{testArticle("a1", "111", "3")}
	require.NoError(t, e.catalog.Prefetch(ctx, testEdition))

	e.client.ScanErr = fmt.Errorf("%w: dial tcp: refused", client.ErrUnavailable)
	conn := online()
	pos := e.pos(conn)

	a, err := pos.ScanArticle(ctx, "111")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ArticleID)
	assert.False(t, conn.IsOnline())
	assert.EqualValues(t, 1, conn.failures.Load())
}

func TestPointOfSale_RegisterOffline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pos := e.pos(&fakeConn{})
	a := testArticle("a1", "111", "12.50")

	before, err := pos.PendingCount(ctx)
	require.NoError(t, err)

	res, err := pos.RegisterSale(ctx, &a, models.PaymentCard)
	require.NoError(t, err)
	assert.True(t, res.IsOffline)
	assert.Equal(t, 2, res.RegisterNumber)
	assert.Empty(t, e.client.Registered, "no network call offline")

	after, err := pos.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	view, err := pos.ListDisplaySales(ctx)
	require.NoError(t, err)
	require.Len(t, view.Sales, 1)
	assert.True(t, view.Sales[0].Offline)
	assert.Equal(t, models.StatusPending, view.Sales[0].Status)
	assert.True(t, decimal.RequireFromString("12.5").Equal(view.Total))
}

func TestPointOfSale_RegisterOnlineDoesNotTouchQueue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pos := e.pos(online())
	a := testArticle("a1", "111", "5")

	res, err := pos.RegisterSale(ctx, &a, models.PaymentCash)
	require.NoError(t, err)
	assert.False(t, res.IsOffline)
	require.Len(t, e.client.Registered, 1)
	assert.NotEmpty(t, e.client.Registered[0].ClientID, "online call carries the idempotency key")
	assert.Equal(t, "srv-"+e.client.Registered[0].ClientID, res.ID)

	n, err := e.queue.Count(ctx, testEdition)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPointOfSale_RegisterFallsBackWithSameClientID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client.RegisterErr = fmt.Errorf("%w: timeout", client.ErrUnavailable)
	conn := online()
	pos := e.pos(conn)
	a := testArticle("a1", "111", "5")

	res, err := pos.RegisterSale(ctx, &a, models.PaymentCash)
	require.NoError(t, err)
	assert.True(t, res.IsOffline)
	assert.False(t, conn.IsOnline())

	require.Len(t, e.client.Registered, 1)
	assert.Equal(t, e.client.Registered[0].ClientID, res.ID)

	p, err := e.queue.repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)
}

func TestPointOfSale_RegisterBusinessErrorIsNotQueued(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client.RegisterErr = fmt.Errorf("%w: sold", common.ErrArticleAlreadySold)
	pos := e.pos(online())
	a := testArticle("a1", "111", "5")

	_, err := pos.RegisterSale(ctx, &a, models.PaymentCash)
	assert.ErrorIs(t, err, common.ErrArticleAlreadySold)

	n, err := e.queue.Count(ctx, testEdition)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPointOfSale_RegisterValidation(t *testing.T) {
	e := newEnv(t)
	pos := e.pos(&fakeConn{})
	a := testArticle("a1", "111", "5")

	_, err := pos.RegisterSale(context.Background(), nil, models.PaymentCash)
	assert.ErrorIs(t, err, common.ErrInvalidSale)

	_, err = pos.RegisterSale(context.Background(), &a, "iou")
	assert.ErrorIs(t, err, common.ErrInvalidPaymentMethod)
}

func TestPointOfSale_MergedViewHasNoDuplicatesAfterSync(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	conn := &fakeConn{}
	pos := e.pos(conn)

	base := time.Now()
	pos.now = func() time.Time { return base }
	a1 := testArticle("a1", "111", "10")
	r1, err := pos.RegisterSale(ctx, &a1, models.PaymentCash)
	require.NoError(t, err)

	pos.now = func() time.Time { return base.Add(time.Minute) }
	a2 := testArticle("a2", "222", "20")
	r2, err := pos.RegisterSale(ctx, &a2, models.PaymentCard)
	require.NoError(t, err)

	// r1 syncs, r2 conflicts
	e.client.SyncFn = func(ctx context.Context, s []*models.PendingSale) ([]models.SyncOutcome, error) {
		return []models.SyncOutcome{
			{ClientID: r1.ID, Status: models.StatusSynced, ServerSaleID: "srv-1"},
			{ClientID: r2.ID, Status: models.StatusConflict, ErrorMessage: "sold"},
		}, nil
	}
	_, err = pos.Sync(ctx)
	require.NoError(t, err)

	// the server now lists r1 plus one sale from another register
	conn.online.Store(true)
	e.client.Sales = []models.Sale{
		{ID: "srv-1", ClientID: r1.ID, ArticleID: "a1", Price: decimal.NewFromInt(10), SoldAt: base},
		{ID: "srv-9", ArticleID: "a9", Price: decimal.NewFromInt(5), SoldAt: base.Add(2 * time.Minute)},
	}

	view, err := pos.ListDisplaySales(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(view.Sales))
	for _, s := range view.Sales {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"srv-9", r2.ID, "srv-1"}, ids, "newest first, srv-1 once")
	assert.Equal(t, models.StatusConflict, view.Sales[1].Status)
	assert.True(t, decimal.NewFromInt(15).Equal(view.Total), "conflict is not counted")
}

func TestPointOfSale_MergedViewOfflineShowsLocalSynced(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pos := e.pos(&fakeConn{})
	a := testArticle("a1", "111", "10")

	r, err := pos.RegisterSale(ctx, &a, models.PaymentCash)
	require.NoError(t, err)
	_, err = pos.Sync(ctx)
	require.NoError(t, err)

	view, err := pos.ListDisplaySales(ctx)
	require.NoError(t, err)
	require.Len(t, view.Sales, 1)
	assert.Equal(t, "srv-"+r.ID, view.Sales[0].ID)
	assert.False(t, view.Sales[0].Offline)
	assert.Equal(t, models.StatusSynced, view.Sales[0].Status)
}

func TestPointOfSale_ListFallsBackToLocal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.queue.Enqueue(ctx, draft("a1"))
	require.NoError(t, err)

	e.client.ListErr = client.ErrUnavailable
	conn := online()
	view, err := e.pos(conn).ListDisplaySales(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Sales, 1)
	assert.False(t, conn.IsOnline())
}

func TestPointOfSale_AcknowledgeClearsConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pos := e.pos(&fakeConn{})
	a := testArticle("a1", "111", "10")
	r, err := pos.RegisterSale(ctx, &a, models.PaymentCash)
	require.NoError(t, err)

	e.client.SyncFn = func(ctx context.Context, s []*models.PendingSale) ([]models.SyncOutcome, error) {
		return []models.SyncOutcome{{ClientID: r.ID, Status: models.StatusConflict}}, nil
	}
	_, err = pos.Sync(ctx)
	require.NoError(t, err)

	c, err := pos.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, c, 1)

	require.NoError(t, pos.Acknowledge(ctx, r.ID, "refund"))
	c, err = pos.Conflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, c)

	n, err := pos.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPointOfSale_ManualPrefetchForcesRefresh(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client.Catalog = []models.CachedArticle{testArticle("a1", "111", "1")}
	pos := e.pos(online())

	n, err := pos.Prefetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = pos.Prefetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, e.client.catalogCalls())
}

func TestPointOfSale_NoEdition(t *testing.T) {
	e := newEnv(t)
	pos := NewPointOfSale(e.client, &fakeConn{}, e.catalog, e.queue, e.engine, logging.Nop(), PointOfSaleConfig{})
	_, err := pos.ScanArticle(context.Background(), "1")
	assert.ErrorIs(t, err, common.ErrNoEdition)
}

func TestPointOfSale_OfflineDoubleSaleIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pos := e.pos(&fakeConn{})
	a := testArticle("a1", "111", "5")

	_, err := pos.RegisterSale(ctx, &a, models.PaymentCash)
	require.NoError(t, err)

	_, err = pos.RegisterSale(ctx, &a, models.PaymentCard)
	assert.ErrorIs(t, err, common.ErrArticleAlreadySold)

	n, err := pos.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPointOfSale_OnlineRegisterChecksLocalQueue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.queue.Enqueue(ctx, draft("a1"))
	require.NoError(t, err)

	a := testArticle("a1", "111", "5")
	_, err = e.pos(online()).RegisterSale(ctx, &a, models.PaymentCash)
	assert.ErrorIs(t, err, common.ErrArticleAlreadySold)
	assert.Empty(t, e.client.Registered, "the server is not asked")
}
