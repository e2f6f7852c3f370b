// Package httpapi exposes the backend's REST API with gin: catalog
// download, barcode scan, online sales, offline sync and live statistics.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/gin-gonic/gin"
)

const healthPath = "/api/health"

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// NewRouter builds the gin engine. CORS is enabled only when origins are
// given.
func NewRouter(h *Handler, log logging.Logger, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(recovery(log))
	if len(corsOrigins) > 0 {
		engine.Use(newCORS(corsOrigins))
	}
	engine.Use(requestLogger(log))

	api := engine.Group("/api")
	api.GET("/health", h.Health)

	editions := api.Group("/editions/:id")
	addRoutes(editions, []route{
		{Method: http.MethodPost, Path: "/articles", Handler: h.ImportArticles},
		{Method: http.MethodGet, Path: "/articles/catalog", Handler: h.Catalog},
		{Method: http.MethodPost, Path: "/sales/scan", Handler: h.Scan},
		{Method: http.MethodPost, Path: "/sales", Handler: h.RegisterSale},
		{Method: http.MethodGet, Path: "/sales", Handler: h.ListSales},
		{Method: http.MethodPost, Path: "/sales/sync", Handler: h.SyncSales},
		{Method: http.MethodGet, Path: "/stats/sales-live", Handler: h.LiveStats},
	})
	return engine
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		g.Handle(r.Method, r.Path, r.Handler)
	}
}
