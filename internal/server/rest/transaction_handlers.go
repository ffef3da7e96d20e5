package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/dmitrijs2005/expensetracker/internal/timex"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// transactionRequest is the writable part of a transaction. Owner and
// timestamps are never taken from the client.
type transactionRequest struct {
	ID          string                 `json:"id"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	Type        models.TransactionType `json:"type"`
}

func (r transactionRequest) toModel() *models.Transaction {
	return &models.Transaction{
		Amount:      r.Amount,
		Description: r.Description,
		Type:        r.Type,
	}
}

// bindTransaction decodes the body into req. An unknown type is reported as
// a field validation error like any other bad field; other decode failures
// get a plain 400.
func bindTransaction(c *gin.Context, req *transactionRequest) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if errors.Is(err, models.ErrUnknownTransactionType) {
		respondWithValidationError(c, []common.FieldError{{
			Field:   "type",
			Message: "Value must be one of: Income Expense",
			Type:    "oneof",
		}})
		return false
	}
	respondWithError(c, http.StatusBadRequest, "Invalid request body")
	return false
}

type filterQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Month     string `form:"month"`
	Year      string `form:"year"`
}

func (q filterQuery) parse() (models.TransactionFilter, []common.FieldError) {
	var (
		f      models.TransactionFilter
		fields []common.FieldError
	)

	if q.StartDate != "" {
		t, err := timex.ParseDateBound(q.StartDate, false)
		if err != nil {
			fields = append(fields, common.FieldError{Field: "startDate", Message: err.Error(), Type: "datetime"})
		} else {
			f.StartDate = &t
		}
	}
	if q.EndDate != "" {
		t, err := timex.ParseDateBound(q.EndDate, true)
		if err != nil {
			fields = append(fields, common.FieldError{Field: "endDate", Message: err.Error(), Type: "datetime"})
		} else {
			f.EndDate = &t
		}
	}
	if q.Month != "" {
		m, err := strconv.Atoi(q.Month)
		if err != nil {
			fields = append(fields, common.FieldError{Field: "month", Message: "Value must be an integer", Type: "int"})
		} else {
			f.Month = &m
		}
	}
	if q.Year != "" {
		y, err := strconv.Atoi(q.Year)
		if err != nil {
			fields = append(fields, common.FieldError{Field: "year", Message: "Value must be an integer", Type: "int"})
		} else {
			f.Year = &y
		}
	}

	return f, fields
}

func (s *HTTPServer) listTransactions(c *gin.Context) {
	txs, err := s.transactions.ListAll(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(txs))
}

func (s *HTTPServer) filterTransactions(c *gin.Context) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	filter, fields := q.parse()
	if len(fields) > 0 {
		respondWithValidationError(c, fields)
		return
	}

	txs, err := s.transactions.ListFiltered(c.Request.Context(), userID(c), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(txs))
}

func (s *HTTPServer) balance(c *gin.Context) {
	b, err := s.transactions.GetBalance(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceResult{Balance: b})
}

func (s *HTTPServer) summary(c *gin.Context) {
	sum, err := s.transactions.GetSummary(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *HTTPServer) getTransaction(c *gin.Context) {
	t, err := s.transactions.GetOwned(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *HTTPServer) createTransaction(c *gin.Context) {
	var req transactionRequest
	if !bindTransaction(c, &req) {
		return
	}

	created, err := s.transactions.Create(c.Request.Context(), userID(c), req.toModel())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Location", "/api/transactions/"+created.ID)
	c.JSON(http.StatusCreated, created)
}

func (s *HTTPServer) updateTransaction(c *gin.Context) {
	id := c.Param("id")

	var req transactionRequest
	if !bindTransaction(c, &req) {
		return
	}
	if req.ID != "" && req.ID != id {
		respondWithError(c, http.StatusBadRequest, "Transaction id in body does not match the URL")
		return
	}

	t := req.toModel()
	t.ID = id
	if _, err := s.transactions.Update(c.Request.Context(), userID(c), t); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) deleteTransaction(c *gin.Context) {
	if err := s.transactions.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func nonNil(txs []*models.Transaction) []*models.Transaction {
	if txs == nil {
		return []*models.Transaction{}
	}
	return txs
}
