package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Connectivity is the part of the Monitor the facade depends on.
type Connectivity interface {
	IsOnline() bool
	ReportFailure()
}

// PointOfSale is the single surface the user interface talks to. It routes
// every call to the server or to the local cache and queue depending on
// connectivity.
type PointOfSale struct {
	client  client.Client
	conn    Connectivity
	catalog *CatalogCache
	queue   *OfflineQueue
	engine  *SyncEngine
	log     logging.Logger
	now     func() time.Time

	editionID      string
	registerNumber int
	recentLimit    int
}

type PointOfSaleConfig struct {
	EditionID      string
	RegisterNumber int
	RecentLimit    int
}

func NewPointOfSale(c client.Client, conn Connectivity, cat *CatalogCache, q *OfflineQueue, e *SyncEngine, log logging.Logger, cfg PointOfSaleConfig) *PointOfSale {
	return &PointOfSale{
		client:         c,
		conn:           conn,
		catalog:        cat,
		queue:          q,
		engine:         e,
		log:            log,
		now:            time.Now,
		editionID:      cfg.EditionID,
		registerNumber: cfg.RegisterNumber,
		recentLimit:    cfg.RecentLimit,
	}
}

func (p *PointOfSale) EditionID() string { return p.editionID }

func (p *PointOfSale) IsOnline() bool { return p.conn.IsOnline() }

// offline reports whether err is a connectivity failure and, if so, tells
// the monitor.
func (p *PointOfSale) offline(ctx context.Context, op string, err error) bool {
	if !errors.Is(err, client.ErrUnavailable) {
		return false
	}
	p.log.Warn(ctx, "server unreachable, using offline path", "op", op, "error", err)
	p.conn.ReportFailure()
	return true
}

// ScanArticle resolves a barcode on the server when online and from the
// catalog snapshot otherwise. Offline misses return
// common.ErrArticleNotFoundOffline.
func (p *PointOfSale) ScanArticle(ctx context.Context, barcode string) (*models.CachedArticle, error) {
	if p.editionID == "" {
		return nil, common.ErrNoEdition
	}
	if p.conn.IsOnline() {
		a, err := p.client.ScanArticle(ctx, p.editionID, barcode)
		if err == nil || !p.offline(ctx, "scan", err) {
			return a, err
		}
	}
	return p.catalog.Lookup(ctx, p.editionID, barcode)
}

// RegisterSale sells an article. Online it registers directly with the
// server; offline, or when the server turns out unreachable, it queues the
// sale under the same client id the online attempt used.
func (p *PointOfSale) RegisterSale(ctx context.Context, a *models.CachedArticle, method models.PaymentMethod) (*models.SaleResult, error) {
	if p.editionID == "" {
		return nil, common.ErrNoEdition
	}
	if a == nil || a.ArticleID == "" {
		return nil, fmt.Errorf("%w: no article", common.ErrInvalidSale)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidPaymentMethod, method)
	}

	// a sale queued here earlier is not yet known to the server
	if err := p.queue.EnsureUnsold(ctx, p.editionID, a.ArticleID); err != nil {
		return nil, err
	}

	draft := models.SaleDraft{
		ClientID:           uuid.NewString(),
		EditionID:          p.editionID,
		ArticleID:          a.ArticleID,
		Barcode:            a.Barcode,
		ArticleDescription: a.Description,
		Price:              a.Price,
		PaymentMethod:      method,
		RegisterNumber:     p.registerNumber,
		SoldAt:             p.now(),
	}

	if p.conn.IsOnline() {
		s, err := p.client.RegisterSale(ctx, p.editionID, draft)
		if err == nil {
			return &models.SaleResult{
				ID:                 s.ID,
				ArticleID:          s.ArticleID,
				Barcode:            s.Barcode,
				ArticleDescription: s.ArticleDescription,
				Price:              s.Price,
				PaymentMethod:      s.PaymentMethod,
				RegisterNumber:     s.RegisterNumber,
				SoldAt:             s.SoldAt,
			}, nil
		}
		if !p.offline(ctx, "register", err) {
			return nil, err
		}
	}

	ps, err := p.queue.Enqueue(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("queue sale: %w", err)
	}
	return &models.SaleResult{
		ID:                 ps.ID,
		ArticleID:          ps.ArticleID,
		Barcode:            ps.Barcode,
		ArticleDescription: ps.ArticleDescription,
		Price:              ps.Price,
		PaymentMethod:      ps.PaymentMethod,
		RegisterNumber:     ps.RegisterNumber,
		SoldAt:             ps.SoldAt,
		IsOffline:          true,
	}, nil
}

// ListDisplaySales merges the server's recent sales with the local records,
// newest first. A sale appears once even after its local record was synced.
// Conflict and error records are listed but not counted in the total.
func (p *PointOfSale) ListDisplaySales(ctx context.Context) (*models.DisplaySales, error) {
	local, err := p.queue.ListAll(ctx, p.editionID)
	if err != nil {
		return nil, err
	}

	var remote []models.Sale
	if p.conn.IsOnline() {
		remote, err = p.client.ListSales(ctx, p.editionID, p.recentLimit)
		if err != nil && !p.offline(ctx, "list sales", err) {
			p.log.Warn(ctx, "failed to load server sales, showing local only", "error", err)
		}
	}

	out := &models.DisplaySales{Sales: make([]models.DisplaySale, 0, len(local)+len(remote)), Total: decimal.Zero}
	serverIDs := make(map[string]struct{}, len(remote))
	clientIDs := make(map[string]struct{}, len(remote))

	for _, s := range remote {
		serverIDs[s.ID] = struct{}{}
		if s.ClientID != "" {
			clientIDs[s.ClientID] = struct{}{}
		}
		out.Sales = append(out.Sales, models.DisplaySale{
			ID:                 s.ID,
			ArticleID:          s.ArticleID,
			Barcode:            s.Barcode,
			ArticleDescription: s.ArticleDescription,
			Price:              s.Price,
			PaymentMethod:      s.PaymentMethod,
			RegisterNumber:     s.RegisterNumber,
			SoldAt:             s.SoldAt,
			Status:             models.StatusSynced,
		})
	}

	for _, l := range local {
		if _, dup := clientIDs[l.ID]; dup {
			continue
		}
		if _, dup := serverIDs[l.ServerSaleID]; dup && l.ServerSaleID != "" {
			continue
		}
		d := models.DisplaySale{
			ID:                 l.ID,
			ArticleID:          l.ArticleID,
			Barcode:            l.Barcode,
			ArticleDescription: l.ArticleDescription,
			Price:              l.Price,
			PaymentMethod:      l.PaymentMethod,
			RegisterNumber:     l.RegisterNumber,
			SoldAt:             l.SoldAt,
			Status:             l.Status,
			Offline:            l.Status != models.StatusSynced,
		}
		if l.Status == models.StatusSynced && l.ServerSaleID != "" {
			d.ID = l.ServerSaleID
		}
		out.Sales = append(out.Sales, d)
	}

	sort.SliceStable(out.Sales, func(i, j int) bool {
		if !out.Sales[i].SoldAt.Equal(out.Sales[j].SoldAt) {
			return out.Sales[i].SoldAt.After(out.Sales[j].SoldAt)
		}
		return out.Sales[i].ID > out.Sales[j].ID
	})

	for _, s := range out.Sales {
		if s.Status == models.StatusPending || s.Status == models.StatusSynced {
			out.Total = out.Total.Add(s.Price)
		}
	}
	return out, nil
}

// PendingCount counts sales still waiting for the server or the operator.
func (p *PointOfSale) PendingCount(ctx context.Context) (int, error) {
	return p.queue.CountUnresolved(ctx, p.editionID)
}

func (p *PointOfSale) LastSyncCount(ctx context.Context) (int, error) {
	return p.engine.LastSyncCount(ctx, p.editionID)
}

func (p *PointOfSale) LastSyncAt(ctx context.Context) (time.Time, error) {
	return p.engine.LastSyncAt(ctx, p.editionID)
}

// Conflicts lists unacknowledged conflict and error records.
func (p *PointOfSale) Conflicts(ctx context.Context) ([]*models.PendingSale, error) {
	return p.queue.Conflicts(ctx, p.editionID)
}

func (p *PointOfSale) Pending(ctx context.Context) ([]*models.PendingSale, error) {
	return p.queue.ListPending(ctx, p.editionID)
}

func (p *PointOfSale) Acknowledge(ctx context.Context, id, note string) error {
	return p.queue.Acknowledge(ctx, id, note)
}

// Sync runs a pass now. It reports the unreachable server to the monitor.
func (p *PointOfSale) Sync(ctx context.Context) (*models.SyncReport, error) {
	r, err := p.engine.Run(ctx, p.editionID)
	if err != nil {
		p.offline(ctx, "sync", err)
	}
	return r, err
}

// Prefetch re-downloads the catalog even if this session already did.
func (p *PointOfSale) Prefetch(ctx context.Context) (int, error) {
	p.catalog.Invalidate(p.editionID)
	if err := p.catalog.Prefetch(ctx, p.editionID); err != nil {
		p.offline(ctx, "prefetch", err)
		return 0, err
	}
	return p.catalog.Count(ctx, p.editionID)
}

func (p *PointOfSale) CatalogSize(ctx context.Context) (int, error) {
	return p.catalog.Count(ctx, p.editionID)
}

func (p *PointOfSale) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return p.queue.Purge(ctx, retention)
}

func (p *PointOfSale) LiveStats(ctx context.Context) (*models.LiveStats, error) {
	st, err := p.client.LiveStats(ctx, p.editionID)
	if err != nil {
		p.offline(ctx, "stats", err)
	}
	return st, err
}
