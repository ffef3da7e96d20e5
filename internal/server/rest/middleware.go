package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userId"

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// authenticate rejects requests without a valid bearer token and stores the
// caller's user id in the gin context.
func (s *HTTPServer) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.logger.Debug(c.Request.Context(), "token rejected", "error", err)
			respondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// userID returns the authenticated caller, or "" on public routes.
func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (s *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id := userID(c); id != "" {
			args = append(args, "user_id", id)
		}
		s.logger.Info(c.Request.Context(), "request", args...)
	}
}

// recovery turns a panicking handler into the same logged 500 as any other
// unexpected error.
func (s *HTTPServer) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		s.respondError(c, fmt.Errorf("%w: panic: %v", common.ErrInternal, rec))
		c.Abort()
	})
}
