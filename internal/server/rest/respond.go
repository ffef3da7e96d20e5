package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Message string              `json:"message"`
	Details []common.FieldError `json:"details,omitempty"`
}

func respondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, errorResponse{Message: message})
}

func respondWithValidationError(c *gin.Context, fields []common.FieldError) {
	c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request data", Details: fields})
}

// respondError maps a service error onto a status code. Anything not in the
// error taxonomy is logged and reported as a generic 500.
func (s *HTTPServer) respondError(c *gin.Context, err error) {
	var ve *common.ValidationError

	switch {
	case errors.As(err, &ve):
		respondWithValidationError(c, ve.Fields)
	case errors.Is(err, common.ErrDuplicateEmail):
		respondWithError(c, http.StatusBadRequest, "Email already exists")
	case errors.Is(err, common.ErrInvalidRange):
		respondWithError(c, http.StatusBadRequest, "Start date cannot be after end date")
	case errors.Is(err, common.ErrInvalidCredentials):
		respondWithError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, common.ErrUnauthenticated):
		respondWithError(c, http.StatusUnauthorized, "User not authenticated")
	case errors.Is(err, common.ErrNotFound):
		respondWithError(c, http.StatusNotFound, "Resource not found")
	default:
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		}
		if id := userID(c); id != "" {
			args = append(args, "user_id", id)
		}
		if id := c.Param("id"); id != "" {
			args = append(args, "transaction_id", id)
		}
		s.logger.Error(c.Request.Context(), "request failed", args...)
		respondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
