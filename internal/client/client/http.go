package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/netx"
	"github.com/dmitrijs2005/possync/internal/wire"
	"github.com/shopspring/decimal"
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultSyncTimeout    = 60 * time.Second
)

// HTTPClient talks to the backend's REST API.
type HTTPClient struct {
	baseURL        string
	hc             *http.Client
	requestTimeout time.Duration
	syncTimeout    time.Duration
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

// WithTimeouts sets the per-request timeout and the longer timeout used for
// catalog download and batch sync. Zero values keep the defaults.
func WithTimeouts(request, sync time.Duration) Option {
	return func(c *HTTPClient) {
		if request > 0 {
			c.requestTimeout = request
		}
		if sync > 0 {
			c.syncTimeout = sync
		}
	}
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		hc:             &http.Client{},
		requestTimeout: defaultRequestTimeout,
		syncTimeout:    defaultSyncTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) editionURL(editionID string, parts ...string) string {
	return c.baseURL + "/editions/" + url.PathEscape(editionID) + "/" + strings.Join(parts, "/")
}

func (c *HTTPClient) do(ctx context.Context, timeout time.Duration, method, u string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := netx.DoJSON(ctx, c.hc, method, u, in, out)
	if err == nil {
		return nil
	}
	var he *netx.HTTPError
	if errors.As(err, &he) {
		var body wire.ErrorResponse
		msg := strings.TrimSpace(string(he.Body))
		if json.Unmarshal(he.Body, &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return statusError(he.StatusCode, msg)
	}
	if isTransportError(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// isTransportError reports failures of the connection itself, including
// ones that surface while the response body is still being read.
func isTransportError(err error) bool {
	var ne net.Error
	switch {
	case errors.As(err, &ne):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return false
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp wire.HealthResponse
	return c.do(ctx, c.requestTimeout, http.MethodGet, c.baseURL+"/health", nil, &resp)
}

func (c *HTTPClient) FetchCatalog(ctx context.Context, editionID string) ([]models.CachedArticle, error) {
	var resp []wire.Article
	if err := c.do(ctx, c.syncTimeout, http.MethodGet, c.editionURL(editionID, "articles", "catalog"), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.CachedArticle, 0, len(resp))
	for _, a := range resp {
		out = append(out, articleFromWire(editionID, a))
	}
	return out, nil
}

func (c *HTTPClient) ScanArticle(ctx context.Context, editionID, barcode string) (*models.CachedArticle, error) {
	var resp wire.Article
	err := c.do(ctx, c.requestTimeout, http.MethodPost, c.editionURL(editionID, "sales", "scan"), wire.ScanRequest{Barcode: barcode}, &resp)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("%w: %s", common.ErrArticleNotFound, barcode)
	case errors.Is(err, ErrConflict):
		return nil, fmt.Errorf("%w: %s", common.ErrArticleAlreadySold, barcode)
	case err != nil:
		return nil, err
	}
	a := articleFromWire(editionID, resp)
	return &a, nil
}

func (c *HTTPClient) RegisterSale(ctx context.Context, editionID string, draft models.SaleDraft) (*models.Sale, error) {
	req := wire.RegisterSaleRequest{
		ArticleID:      draft.ArticleID,
		PaymentMethod:  string(draft.PaymentMethod),
		RegisterNumber: draft.RegisterNumber,
		ClientID:       draft.ClientID,
	}
	var resp wire.Sale
	err := c.do(ctx, c.requestTimeout, http.MethodPost, c.editionURL(editionID, "sales"), req, &resp)
	switch {
	case errors.Is(err, ErrConflict):
		return nil, fmt.Errorf("%w: %v", common.ErrArticleAlreadySold, err)
	case errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("%w: %s", common.ErrArticleNotFound, draft.ArticleID)
	case err != nil:
		return nil, err
	}
	s := saleFromWire(resp)
	return &s, nil
}

func (c *HTTPClient) SyncSales(ctx context.Context, editionID string, sales []*models.PendingSale) ([]models.SyncOutcome, error) {
	req := wire.SyncRequest{Sales: make([]wire.SyncSalePayload, 0, len(sales))}
	for _, s := range sales {
		req.Sales = append(req.Sales, wire.SyncSalePayload{
			ClientID:       s.ID,
			ArticleID:      s.ArticleID,
			Barcode:        s.Barcode,
			Price:          s.Price,
			PaymentMethod:  string(s.PaymentMethod),
			RegisterNumber: s.RegisterNumber,
			SoldAt:         s.SoldAt.UTC(),
		})
	}

	var resp wire.SyncResponse
	if err := c.do(ctx, c.syncTimeout, http.MethodPost, c.editionURL(editionID, "sales", "sync"), req, &resp); err != nil {
		return nil, err
	}

	out := make([]models.SyncOutcome, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, models.SyncOutcome{
			ClientID:     r.ClientID,
			Status:       verdictFromWire(r.Status),
			ServerSaleID: r.ServerSaleID,
			ErrorMessage: r.ErrorMessage,
		})
	}
	return out, nil
}

func (c *HTTPClient) ListSales(ctx context.Context, editionID string, limit int) ([]models.Sale, error) {
	u := c.editionURL(editionID, "sales")
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	var resp []wire.Sale
	if err := c.do(ctx, c.requestTimeout, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Sale, 0, len(resp))
	for _, s := range resp {
		out = append(out, saleFromWire(s))
	}
	return out, nil
}

func (c *HTTPClient) LiveStats(ctx context.Context, editionID string) (*models.LiveStats, error) {
	var resp wire.LiveStats
	if err := c.do(ctx, c.requestTimeout, http.MethodGet, c.editionURL(editionID, "stats", "sales-live"), nil, &resp); err != nil {
		return nil, err
	}
	st := &models.LiveStats{
		SalesCount:      resp.SalesCount,
		Total:           resp.Total,
		ByPaymentMethod: make(map[models.PaymentMethod]decimal.Decimal, len(resp.ByPaymentMethod)),
	}
	for k, v := range resp.ByPaymentMethod {
		st.ByPaymentMethod[models.PaymentMethod(k)] = v
	}
	return st, nil
}

func articleFromWire(editionID string, a wire.Article) models.CachedArticle {
	return models.CachedArticle{
		ArticleID:     a.ArticleID,
		EditionID:     editionID,
		Barcode:       a.Barcode,
		Description:   a.Description,
		Category:      a.Category,
		Size:          a.Size,
		Price:         a.Price,
		Brand:         a.Brand,
		IsLot:         a.IsLot,
		LotQuantity:   a.LotQuantity,
		ListNumber:    a.ListNumber,
		DepositorName: a.DepositorName,
		LabelColor:    a.LabelColor,
	}
}

func saleFromWire(s wire.Sale) models.Sale {
	return models.Sale{
		ID:                 s.ID,
		ClientID:           s.ClientID,
		ArticleID:          s.ArticleID,
		Barcode:            s.Barcode,
		ArticleDescription: s.ArticleDescription,
		Price:              s.Price,
		PaymentMethod:      models.PaymentMethod(s.PaymentMethod),
		RegisterNumber:     s.RegisterNumber,
		SoldAt:             s.SoldAt,
	}
}

// verdictFromWire maps anything the register does not know to error so the
// record still leaves the pending state.
func verdictFromWire(s string) models.SaleStatus {
	switch s {
	case wire.StatusSynced:
		return models.StatusSynced
	case wire.StatusConflict:
		return models.StatusConflict
	default:
		return models.StatusError
	}
}
