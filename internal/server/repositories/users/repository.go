package users

import (
	"context"

	"github.com/dmitrijs2005/expensetracker/internal/server/models"
)

// Repository stores user credentials. Emails are expected to be normalised
// by the caller; lookups are exact.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
