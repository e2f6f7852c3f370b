package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/wire"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes and public messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrArticleNotFound):
		return http.StatusNotFound, common.ErrArticleNotFound.Error()
	case errors.Is(err, common.ErrArticleAlreadySold):
		return http.StatusConflict, common.ErrArticleAlreadySold.Error()
	case errors.Is(err, common.ErrDuplicateClientID):
		return http.StatusConflict, common.ErrDuplicateClientID.Error()
	case errors.Is(err, common.ErrInvalidPaymentMethod), errors.Is(err, common.ErrInvalidSale):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, wire.ErrorResponse{Error: msg})
}

func abortBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, wire.ErrorResponse{Error: msg})
}
