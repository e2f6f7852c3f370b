package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/wire"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request. Health probes arrive every few
// seconds from every register and are logged at debug level.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if c.FullPath() == healthPath {
			log.Debug(c.Request.Context(), "request", args...)
			return
		}
		log.Info(c.Request.Context(), "request", args...)
	}
}

func recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				log.Error(c.Request.Context(), "recovered from panic", "error", p, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "internal error"})
			}
		}()
		c.Next()
	}
}

func newCORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	})
}
