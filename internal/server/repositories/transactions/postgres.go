// Package transactions provides the PostgreSQL-backed transaction store.
package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/dmitrijs2005/expensetracker/internal/dbx"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/shopspring/decimal"
)

const selectColumns = `id, user_id, amount, description, type, created_at, updated_at`

// PostgresRepository implements transaction storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &t.Type, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.UpdatedAt != nil {
		u := t.UpdatedAt.UTC()
		t.UpdatedAt = &u
	}
	return &t, nil
}

// ListByUser returns the user's transactions matching every set field of
// filter, newest first. Month and year are evaluated in UTC.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, error) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}
	if filter.Month != nil {
		add("EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC') = $%d", *filter.Month)
	}
	if filter.Year != nil {
		add("EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC') = $%d", *filter.Year)
	}

	query := `SELECT ` + selectColumns + ` FROM transactions
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select transactions: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Balance returns income minus expenses for the user, zero when there are no rows.
func (r *PostgresRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(CASE type WHEN 'Income' THEN amount ELSE -amount END), 0)
		FROM transactions WHERE user_id = $1`

	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return balance, nil
}

// GetByID fetches a transaction regardless of owner.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetOwned fetches a transaction only if it belongs to userID.
func (r *PostgresRepository) GetOwned(ctx context.Context, userID, id string) (*models.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`
	return r.getOne(ctx, query, id, userID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, amount, description, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Amount, t.Description, string(t.Type), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateOwned overwrites amount, description and type of the row identified
// by t.ID and t.UserID in a single statement and returns the stored row.
// Owner and creation time are never written. A missing or foreign row
// yields common.ErrNotFound.
func (r *PostgresRepository) UpdateOwned(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET amount = $3, description = $4, type = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
		RETURNING ` + selectColumns

	updated, err := scanTransaction(r.db.QueryRowContext(ctx, query,
		t.ID, t.UserID, t.Amount, t.Description, string(t.Type), t.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

// DeleteOwned removes the row only if it belongs to userID.
func (r *PostgresRepository) DeleteOwned(ctx context.Context, userID, id string) error {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
