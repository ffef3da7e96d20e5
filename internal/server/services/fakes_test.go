package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/dmitrijs2005/expensetracker/internal/dbx"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/dmitrijs2005/expensetracker/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/expensetracker/internal/server/repositories/users"
	"github.com/shopspring/decimal"
)

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	getErr error

	// raceOnCreate simulates another registration winning between lookup and insert.
	raceOnCreate bool
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnCreate {
		return nil, common.ErrDuplicateEmail
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeTransactionsRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.Transaction
	createErr error
	listCalls int

	// afterList runs once, after the next listing is taken but before it is
	// returned, to interleave a concurrent write.
	afterList func()
}

func newFakeTransactionsRepo() *fakeTransactionsRepo {
	return &fakeTransactionsRepo{rows: map[string]*models.Transaction{}}
}

func (f *fakeTransactionsRepo) ListByUser(_ context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, error) {
	out := f.list(userID, filter)

	f.mu.Lock()
	hook := f.afterList
	f.afterList = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeTransactionsRepo) list(userID string, filter models.TransactionFilter) []*models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	out := make([]*models.Transaction, 0)
	for _, t := range f.rows {
		if t.UserID != userID {
			continue
		}
		c := t.CreatedAt.UTC()
		if filter.StartDate != nil && c.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && c.After(*filter.EndDate) {
			continue
		}
		if filter.Month != nil && int(c.Month()) != *filter.Month {
			continue
		}
		if filter.Year != nil && c.Year() != *filter.Year {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Balance mirrors the SQL aggregate: a single signed sum over the rows.
func (f *fakeTransactionsRepo) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, t := range f.rows {
		if t.UserID != userID {
			continue
		}
		if t.Type == models.Income {
			sum = sum.Add(t.Amount)
		} else {
			sum = sum.Sub(t.Amount)
		}
	}
	return sum, nil
}

func (f *fakeTransactionsRepo) GetByID(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactionsRepo) GetOwned(_ context.Context, userID, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactionsRepo) Create(_ context.Context, t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *t
	f.rows[t.ID] = &cp
	return nil
}

func (f *fakeTransactionsRepo) UpdateOwned(_ context.Context, t *models.Transaction) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.rows[t.ID]
	if !ok || existing.UserID != t.UserID {
		return nil, common.ErrNotFound
	}
	existing.Amount = t.Amount
	existing.Description = t.Description
	existing.Type = t.Type
	existing.UpdatedAt = t.UpdatedAt
	cp := *existing
	return &cp, nil
}

func (f *fakeTransactionsRepo) DeleteOwned(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.rows[id]
	if !ok || existing.UserID != userID {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTransactionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactions.Repository { return m.t }

type fakeCache struct {
	mu          sync.Mutex
	gens        map[string]int64
	entries     map[string]*models.Summary
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{gens: map[string]int64{}, entries: map[string]*models.Summary{}}
}

func (c *fakeCache) key(userID string, gen int64) string {
	return fmt.Sprintf("%s:%d", userID, gen)
}

func (c *fakeCache) Get(_ context.Context, userID string) (*models.Summary, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[userID]
	s, ok := c.entries[c.key(userID, gen)]
	return s, gen, ok
}

func (c *fakeCache) Set(_ context.Context, userID string, gen int64, s *models.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(userID, gen)] = s
}

func (c *fakeCache) Invalidate(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	c.invalidated = append(c.invalidated, userID)
}
