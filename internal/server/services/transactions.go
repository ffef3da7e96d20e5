package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/dmitrijs2005/expensetracker/internal/dbx"
	"github.com/dmitrijs2005/expensetracker/internal/logging"
	"github.com/dmitrijs2005/expensetracker/internal/server/cache"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/dmitrijs2005/expensetracker/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	amountScale = 2
	// maxAmountDigits is the number of integer digits NUMERIC(18,2) holds.
	maxAmountDigits = 16
)

// transactionInput is the validated subset of a Transaction.
type transactionInput struct {
	Description string                 `json:"description" validate:"required,max=500"`
	Type        models.TransactionType `json:"type" validate:"required,oneof=Income Expense"`
}

// TransactionService manages transactions on behalf of their owner. Every
// method except Get is scoped to the authenticated user id.
type TransactionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.SummaryCache
	logger      logging.Logger
	now         func() time.Time
}

// NewTransactionService constructs a TransactionService. A nil cache disables caching.
func NewTransactionService(db *sql.DB, m repomanager.RepositoryManager, c cache.SummaryCache, logger logging.Logger) *TransactionService {
	if c == nil {
		c = cache.Nop{}
	}
	return &TransactionService{
		db:          db,
		repomanager: m,
		cache:       c,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListAll returns the user's transactions, newest first.
func (s *TransactionService) ListAll(ctx context.Context, userID string) ([]*models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	return s.repomanager.Transactions(s.db).ListByUser(ctx, userID, models.TransactionFilter{})
}

// ListFiltered returns the user's transactions matching all set filter fields.
func (s *TransactionService) ListFiltered(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repomanager.Transactions(s.db).ListByUser(ctx, userID, filter)
}

func validateFilter(f models.TransactionFilter) error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return common.ErrInvalidRange
	}

	var fields []common.FieldError
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		fields = append(fields, common.FieldError{Field: "month", Message: "Value must be between 1 and 12", Type: "range"})
	}
	if f.Year != nil && (*f.Year < 1 || *f.Year > 9999) {
		fields = append(fields, common.FieldError{Field: "year", Message: "Value must be between 1 and 9999", Type: "range"})
	}
	if len(fields) > 0 {
		return common.NewValidationError(fields...)
	}
	return nil
}

// GetBalance returns income minus expenses, computed by the store.
func (s *TransactionService) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, common.ErrUnauthenticated
	}
	return s.repomanager.Transactions(s.db).Balance(ctx, userID)
}

// GetSummary totals the user's income and expenses. The result is computed
// from the full listing and served from the cache when one is configured.
func (s *TransactionService) GetSummary(ctx context.Context, userID string) (*models.Summary, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}

	cached, gen, ok := s.cache.Get(ctx, userID)
	if ok {
		return cached, nil
	}

	txs, err := s.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := models.Summarize(txs)
	s.cache.Set(ctx, userID, gen, summary)
	return summary, nil
}

// Get fetches a transaction by id without an ownership check. It is meant
// for internal callers only.
func (s *TransactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	if id == "" {
		return nil, common.ErrNotFound
	}
	return s.repomanager.Transactions(s.db).GetByID(ctx, id)
}

// GetOwned fetches a transaction owned by userID; anyone else's is not found.
func (s *TransactionService) GetOwned(ctx context.Context, userID, id string) (*models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	if id == "" {
		return nil, common.ErrNotFound
	}
	return s.repomanager.Transactions(s.db).GetOwned(ctx, userID, id)
}

// Create stores t for userID and returns the row as persisted. Owner, id
// and creation time are assigned here; any client value for the owner is
// discarded.
func (s *TransactionService) Create(ctx context.Context, userID string, t *models.Transaction) (*models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	if err := validateTransaction(t); err != nil {
		return nil, err
	}

	t.UserID = userID
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = nil

	var stored *models.Transaction
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transactions(tx)
		if err := repo.Create(ctx, t); err != nil {
			return fmt.Errorf("error creating transaction: %w", err)
		}
		var err error
		stored, err = repo.GetOwned(ctx, userID, t.ID)
		if err != nil {
			return fmt.Errorf("error reading created transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID)
	return stored, nil
}

// Update overwrites amount, description and type of a transaction owned by
// userID. Missing and foreign transactions both yield common.ErrNotFound.
func (s *TransactionService) Update(ctx context.Context, userID string, t *models.Transaction) (*models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	if t.ID == "" {
		return nil, common.ErrNotFound
	}
	if err := validateTransaction(t); err != nil {
		return nil, err
	}

	now := s.now()
	t.UserID = userID
	t.UpdatedAt = &now

	updated, err := s.repomanager.Transactions(s.db).UpdateOwned(ctx, t)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, userID)
	return updated, nil
}

// Delete removes a transaction owned by userID.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return common.ErrUnauthenticated
	}
	if id == "" {
		return common.ErrNotFound
	}

	if err := s.repomanager.Transactions(s.db).DeleteOwned(ctx, userID, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, userID)
	return nil
}

func validateTransaction(t *models.Transaction) error {
	t.Description = strings.TrimSpace(t.Description)

	var extra []common.FieldError
	if fe := checkAmount(t.Amount); fe != nil {
		extra = append(extra, *fe)
	}

	return common.ValidateStruct(transactionInput{Description: t.Description, Type: t.Type}, extra...)
}

// checkAmount bounds the amount using only its digit count and exponent
// before any rescaling, so an input such as 1e-999999999 is rejected without
// materialising a huge coefficient.
func checkAmount(d decimal.Decimal) *common.FieldError {
	if !d.IsPositive() {
		return &common.FieldError{Field: "amount", Message: "Value must be greater than 0", Type: "gt"}
	}

	digits := int64(d.NumDigits())
	exp := int64(d.Exponent())

	// A positive value with n coefficient digits is at least 10^(n-1+exp).
	if digits+exp > maxAmountDigits {
		return &common.FieldError{Field: "amount", Message: "Value is too large", Type: "max"}
	}

	if exp < -amountScale {
		// The coefficient must end in at least this many zeros.
		drop := -exp - amountScale
		if drop >= digits || !d.Equal(d.Truncate(amountScale)) {
			return &common.FieldError{Field: "amount", Message: "Value must have at most 2 decimal places", Type: "scale"}
		}
	}
	return nil
}
