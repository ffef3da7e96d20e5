// Package cache holds the optional read-through cache for per-user summaries.
package cache

import (
	"context"

	"github.com/dmitrijs2005/expensetracker/internal/server/models"
)

// SummaryCache stores the last computed summary per user. Implementations
// never return errors: a failing cache behaves like an empty one.
//
// Entries are generational. Get reports the generation it looked under and
// Set must be given that generation; Invalidate moves the user to a new
// generation, so a summary computed before a write can never be stored where
// later reads will find it.
type SummaryCache interface {
	Get(ctx context.Context, userID string) (s *models.Summary, gen int64, ok bool)
	Set(ctx context.Context, userID string, gen int64, s *models.Summary)
	Invalidate(ctx context.Context, userID string)
}

// NoGeneration is returned by Get when the current generation is unknown.
// Set ignores it.
const NoGeneration int64 = -1

// Nop is used when no cache is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.Summary, int64, bool) {
	return nil, NoGeneration, false
}
func (Nop) Set(context.Context, string, int64, *models.Summary) {}
func (Nop) Invalidate(context.Context, string)                  {}
