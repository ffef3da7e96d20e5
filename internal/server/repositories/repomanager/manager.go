package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/expensetracker/internal/dbx"
	"github.com/dmitrijs2005/expensetracker/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/expensetracker/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so the same service
// code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
