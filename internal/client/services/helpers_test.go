package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/possync/internal/client/repositories/sales"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testEdition = "ed-1"

type fakeClient struct {
	client.Client

	mu sync.Mutex

	PingErr error

	Catalog      []models.CachedArticle
	CatalogErr   error
	CatalogGate  chan struct{}
	CatalogCalls int

	ScanResult map[string]*models.CachedArticle
	ScanErr    error

	RegisterErr error
	Registered  []models.SaleDraft

	SyncFn    func(ctx context.Context, sales []*models.PendingSale) ([]models.SyncOutcome, error)
	SyncCalls int

	Sales   []models.Sale
	ListErr error
}

func (f *fakeClient) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PingErr
}

func (f *fakeClient) FetchCatalog(ctx context.Context, editionID string) ([]models.CachedArticle, error) {
	f.mu.Lock()
	f.CatalogCalls++
	gate := f.CatalogGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.Catalog, f.CatalogErr
}

func (f *fakeClient) ScanArticle(ctx context.Context, editionID, barcode string) (*models.CachedArticle, error) {
	if f.ScanErr != nil {
		return nil, f.ScanErr
	}
	a, ok := f.ScanResult[barcode]
	if !ok {
		return nil, common.ErrArticleNotFound
	}
	return a, nil
}

func (f *fakeClient) RegisterSale(ctx context.Context, editionID string, d models.SaleDraft) (*models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Registered = append(f.Registered, d)
	if f.RegisterErr != nil {
		return nil, f.RegisterErr
	}
	return &models.Sale{
		ID: "srv-" + d.ClientID, ClientID: d.ClientID, ArticleID: d.ArticleID, Barcode: d.Barcode,
		ArticleDescription: d.ArticleDescription, Price: d.Price, PaymentMethod: d.PaymentMethod,
		RegisterNumber: d.RegisterNumber, SoldAt: d.SoldAt,
	}, nil
}

func (f *fakeClient) SyncSales(ctx context.Context, editionID string, s []*models.PendingSale) ([]models.SyncOutcome, error) {
	f.mu.Lock()
	f.SyncCalls++
	fn := f.SyncFn
	f.mu.Unlock()
	if fn == nil {
		return allSynced(s), nil
	}
	return fn(ctx, s)
}

func (f *fakeClient) ListSales(ctx context.Context, editionID string, limit int) ([]models.Sale, error) {
	return f.Sales, f.ListErr
}

func (f *fakeClient) syncCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SyncCalls
}

func (f *fakeClient) catalogCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CatalogCalls
}

func allSynced(s []*models.PendingSale) []models.SyncOutcome {
	out := make([]models.SyncOutcome, 0, len(s))
	for _, p := range s {
		out = append(out, models.SyncOutcome{ClientID: p.ID, Status: models.StatusSynced, ServerSaleID: "srv-" + p.ID})
	}
	return out
}

type fakeConn struct {
	online   atomic.Bool
	failures atomic.Int32
}

func (c *fakeConn) IsOnline() bool { return c.online.Load() }

func (c *fakeConn) ReportFailure() {
	c.failures.Add(1)
	c.online.Store(false)
}

type env struct {
	db      *sql.DB
	client  *fakeClient
	meta    metadata.Repository
	catalog *CatalogCache
	queue   *OfflineQueue
	engine  *SyncEngine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "register.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logging.Nop()
	fc := &fakeClient{}
	meta := metadata.NewSQLiteRepository(db)
	q := NewOfflineQueue(sales.NewSQLiteRepository(db), log)
	return &env{
		db:      db,
		client:  fc,
		meta:    meta,
		catalog: NewCatalogCache(fc, db, meta, log),
		queue:   q,
		engine:  NewSyncEngine(fc, q, meta, log, time.Second),
	}
}

func (e *env) pos(conn Connectivity) *PointOfSale {
	return NewPointOfSale(e.client, conn, e.catalog, e.queue, e.engine, logging.Nop(), PointOfSaleConfig{
		EditionID:      testEdition,
		RegisterNumber: 2,
		RecentLimit:    50,
	})
}

func testArticle(id, barcode, price string) models.CachedArticle {
	return models.CachedArticle{
		ArticleID:   id,
		EditionID:   testEdition,
		Barcode:     barcode,
		Description: "article " + id,
		Price:       decimal.RequireFromString(price),
	}
}

func draft(article string) models.SaleDraft {
	return models.SaleDraft{
		EditionID:      testEdition,
		ArticleID:      article,
		Barcode:        "bc-" + article,
		Price:          decimal.NewFromInt(10),
		PaymentMethod:  models.PaymentCash,
		RegisterNumber: 1,
	}
}

// eventually polls cond for up to a second.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}
