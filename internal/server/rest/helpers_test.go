package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/dmitrijs2005/expensetracker/internal/logging"
	"github.com/dmitrijs2005/expensetracker/internal/server/auth"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/dmitrijs2005/expensetracker/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ---- mock implementations ----

type mockIdentity struct {
	registerFn func(services.RegisterInput) (*models.AuthResult, error)
	loginFn    func(email, password string) (*models.AuthResult, error)
	profileFn  func(userID string) (*models.UserSummary, error)
}

func (m *mockIdentity) Register(_ context.Context, in services.RegisterInput) (*models.AuthResult, error) {
	if m.registerFn != nil {
		return m.registerFn(in)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockIdentity) Login(_ context.Context, email, password string) (*models.AuthResult, error) {
	if m.loginFn != nil {
		return m.loginFn(email, password)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockIdentity) GetProfile(_ context.Context, userID string) (*models.UserSummary, error) {
	if m.profileFn != nil {
		return m.profileFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

type mockTransactions struct {
	listFn    func(userID string) ([]*models.Transaction, error)
	filterFn  func(userID string, f models.TransactionFilter) ([]*models.Transaction, error)
	balanceFn func(userID string) (decimal.Decimal, error)
	summaryFn func(userID string) (*models.Summary, error)
	getFn     func(userID, id string) (*models.Transaction, error)
	createFn  func(userID string, t *models.Transaction) (*models.Transaction, error)
	updateFn  func(userID string, t *models.Transaction) (*models.Transaction, error)
	deleteFn  func(userID, id string) error
}

func (m *mockTransactions) ListAll(_ context.Context, userID string) ([]*models.Transaction, error) {
	if m.listFn != nil {
		return m.listFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactions) ListFiltered(_ context.Context, userID string, f models.TransactionFilter) ([]*models.Transaction, error) {
	if m.filterFn != nil {
		return m.filterFn(userID, f)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactions) GetBalance(_ context.Context, userID string) (decimal.Decimal, error) {
	if m.balanceFn != nil {
		return m.balanceFn(userID)
	}
	return decimal.Zero, fmt.Errorf("not configured")
}

func (m *mockTransactions) GetSummary(_ context.Context, userID string) (*models.Summary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactions) GetOwned(_ context.Context, userID, id string) (*models.Transaction, error) {
	if m.getFn != nil {
		return m.getFn(userID, id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactions) Create(_ context.Context, userID string, t *models.Transaction) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, t)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactions) Update(_ context.Context, userID string, t *models.Transaction) (*models.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, t)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactions) Delete(_ context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return fmt.Errorf("not configured")
}

// stubVerifier accepts "token-<userID>".
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (*auth.Claims, error) {
	id, ok := strings.CutPrefix(token, "token-")
	if !ok || id == "" {
		return nil, common.ErrUnauthenticated
	}
	return &auth.Claims{UserID: id}, nil
}

// ---- helpers ----

func newTestRouter(is IdentityService, ts TransactionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHTTPServer(":0", logging.Nop{}, is, ts, stubVerifier{}).Router()
}

func doRequest(router http.Handler, method, url string, body any, userID string) *httptest.ResponseRecorder {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, url, nil)
	case string:
		req = httptest.NewRequest(method, url, strings.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		raw, _ := json.Marshal(b)
		req = httptest.NewRequest(method, url, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer token-"+userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
