package transactions

import (
	"context"

	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/shopspring/decimal"
)

// Repository stores transactions. Methods with an owner id only ever touch
// rows belonging to that owner.
type Repository interface {
	ListByUser(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	GetOwned(ctx context.Context, userID, id string) (*models.Transaction, error)
	Create(ctx context.Context, t *models.Transaction) error
	UpdateOwned(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	DeleteOwned(ctx context.Context, userID, id string) error
}
