// README: HTTP helper utilities for error mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"roadaid/internal/modules/matching"
	"roadaid/internal/modules/provider"
	"roadaid/internal/modules/request"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeDomainError maps module sentinel errors onto HTTP statuses. Anything
// unrecognized is an internal error and is not leaked to the client.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, request.ErrNotFound), errors.Is(err, provider.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, request.ErrValidation), errors.Is(err, provider.ErrBadRequest):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, request.ErrInvalidTransition), errors.Is(err, request.ErrConflict):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, matching.ErrDirectoryUnavailable):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
