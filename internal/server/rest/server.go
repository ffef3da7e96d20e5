// Package rest exposes the identity and transaction services over HTTP/JSON
// using gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/expensetracker/internal/logging"
	"github.com/dmitrijs2005/expensetracker/internal/server/auth"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/dmitrijs2005/expensetracker/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 10 * time.Second

// IdentityService is the subset of services.IdentityService used by the handlers.
type IdentityService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*models.UserSummary, error)
}

// TransactionService is the subset of services.TransactionService used by the handlers.
type TransactionService interface {
	ListAll(ctx context.Context, userID string) ([]*models.Transaction, error)
	ListFiltered(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, error)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetSummary(ctx context.Context, userID string) (*models.Summary, error)
	GetOwned(ctx context.Context, userID, id string) (*models.Transaction, error)
	Create(ctx context.Context, userID string, t *models.Transaction) (*models.Transaction, error)
	Update(ctx context.Context, userID string, t *models.Transaction) (*models.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type HTTPServer struct {
	address      string
	identity     IdentityService
	transactions TransactionService
	tokens       TokenVerifier
	logger       logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, is IdentityService, ts TransactionService, tv TokenVerifier) *HTTPServer {
	return &HTTPServer{
		address:      a,
		logger:       l.With("module", "http_server"),
		identity:     is,
		transactions: ts,
		tokens:       tv,
	}
}

// Router builds the gin engine with every route mounted.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.accessLog())

	r.GET("/", s.health)
	r.GET("/health", s.health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.GET("/profile", s.authenticate(), s.profile)

	tx := api.Group("/transactions", s.authenticate())
	tx.GET("", s.listTransactions)
	tx.GET("/filter", s.filterTransactions)
	tx.GET("/balance", s.balance)
	tx.GET("/summary", s.summary)
	tx.GET("/:id", s.getTransaction)
	tx.POST("", s.createTransaction)
	tx.PUT("/:id", s.updateTransaction)
	tx.DELETE("/:id", s.deleteTransaction)

	return r
}

// Run listens on the configured address until ctx is cancelled, then drains
// in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
