package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/services"
	"github.com/dmitrijs2005/possync/internal/wire"
	"github.com/gin-gonic/gin"
)

const (
	defaultSalesLimit = 50
	maxSalesLimit     = 500
)

// SalesService is the business layer the handlers call.
type SalesService interface {
	ImportArticles(ctx context.Context, editionID string, items []models.Article) (int, error)
	Catalog(ctx context.Context, editionID string) ([]models.Article, error)
	Scan(ctx context.Context, editionID, barcode string) (*models.Article, error)
	Register(ctx context.Context, editionID string, in services.RegisterInput) (*models.Sale, error)
	Sync(ctx context.Context, editionID string, items []models.SyncItem) *models.SyncSummary
	ListSales(ctx context.Context, editionID string, limit int) ([]models.Sale, error)
	LiveStats(ctx context.Context, editionID string) (*models.SalesStats, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	sales SalesService
	db    Pinger
	log   logging.Logger
}

func NewHandler(sales SalesService, db Pinger, log logging.Logger) *Handler {
	return &Handler{sales: sales, db: db, log: log.With("module", "httpapi")}
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.log.Warn(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, wire.ErrorResponse{Error: "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, wire.HealthResponse{Status: "ok"})
}

func (h *Handler) ImportArticles(c *gin.Context) {
	var req []wire.Article
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "invalid request")
		return
	}
	items := make([]models.Article, 0, len(req))
	for _, a := range req {
		items = append(items, articleFromWire(a))
	}

	n, err := h.sales.ImportArticles(c.Request.Context(), c.Param("id"), items)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.ImportArticlesResponse{Imported: n})
}

func (h *Handler) Catalog(c *gin.Context) {
	list, err := h.sales.Catalog(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	out := make([]wire.Article, 0, len(list))
	for _, a := range list {
		out = append(out, articleToWire(a))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Scan(c *gin.Context) {
	var req wire.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Barcode == "" {
		abortBadRequest(c, "barcode is required")
		return
	}
	a, err := h.sales.Scan(c.Request.Context(), c.Param("id"), req.Barcode)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleToWire(*a))
}

func (h *Handler) RegisterSale(c *gin.Context) {
	var req wire.RegisterSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "invalid request")
		return
	}
	s, err := h.sales.Register(c.Request.Context(), c.Param("id"), services.RegisterInput{
		ArticleID:      req.ArticleID,
		PaymentMethod:  req.PaymentMethod,
		RegisterNumber: req.RegisterNumber,
		ClientID:       req.ClientID,
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saleToWire(*s))
}

func (h *Handler) SyncSales(c *gin.Context) {
	var req wire.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "invalid request")
		return
	}
	items := make([]models.SyncItem, 0, len(req.Sales))
	for _, p := range req.Sales {
		items = append(items, syncItemFromWire(p))
	}

	summary := h.sales.Sync(c.Request.Context(), c.Param("id"), items)
	c.JSON(http.StatusOK, summaryToWire(summary))
}

func (h *Handler) ListSales(c *gin.Context) {
	limit := defaultSalesLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			abortBadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSalesLimit)
	}

	list, err := h.sales.ListSales(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	out := make([]wire.Sale, 0, len(list))
	for _, s := range list {
		out = append(out, saleToWire(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) LiveStats(c *gin.Context) {
	st, err := h.sales.LiveStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.LiveStats{
		SalesCount:      st.Count,
		Total:           st.Total,
		ByPaymentMethod: st.ByPaymentMethod,
	})
}
