package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tells income from expense.
type TransactionType string

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// ErrUnknownTransactionType is returned for a type that is neither income
// nor expense.
var ErrUnknownTransactionType = errors.New("unknown transaction type")

// ParseTransactionType accepts "Income"/"Expense" in any case and the numeric
// forms "0"/"1".
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "0":
		return Income, nil
	case "expense", "1":
		return Expense, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownTransactionType, s)
}

// UnmarshalJSON accepts a string or the numbers 0 and 1. An empty string or
// null leaves the type unset so validation can report it as missing.
func (t *TransactionType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = ""
			return nil
		}
	} else {
		s = string(data)
	}

	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Transaction is a single income or expense record owned by one user.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt"`
}

// Signed returns the amount as it contributes to a balance: positive for
// income, negative for expense.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionFilter narrows a listing by creation time. All set fields must
// match; bounds are inclusive.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Month     *int
	Year      *int
}

// Summary aggregates a user's transactions.
type Summary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Balance       decimal.Decimal `json:"balance"`
}

// Summarize folds transactions into a Summary.
func Summarize(txs []*Transaction) *Summary {
	s := &Summary{TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero, Balance: decimal.Zero}
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		default:
			continue
		}
		s.Balance = s.Balance.Add(t.Signed())
	}
	return s
}

type BalanceResult struct {
	Balance decimal.Decimal `json:"balance"`
}
