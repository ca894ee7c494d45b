package handlers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/store"
)

// Amounts cross the API boundary as JSON numbers and become exact decimals
// immediately on ingress; all arithmetic past this package is decimal.

type accountResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Balance   float64 `json:"balance"`
	IsDefault bool    `json:"is_default"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`

	TransactionCount *int64 `json:"transaction_count,omitempty"`
}

func accountToResponse(a *domain.Account) accountResponse {
	balance, _ := a.Balance.Float64()
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   balance,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

func summaryToResponse(s *store.AccountSummary) accountResponse {
	resp := accountToResponse(&s.Account)
	count := s.TransactionCount
	resp.TransactionCount = &count
	return resp
}

type transactionResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`

	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`

	IsRecurring       bool   `json:"is_recurring"`
	RecurringInterval string `json:"recurring_interval,omitempty"`
	NextRecurringDate string `json:"next_recurring_date,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func transactionToResponse(t *domain.Transaction) transactionResponse {
	amount, _ := t.Amount.Float64()
	resp := transactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Type:        string(t.Type),
		Amount:      amount,
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		Category:    t.Category,
		IsRecurring: t.IsRecurring,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.IsRecurring {
		resp.RecurringInterval = string(t.RecurringInterval)
		if t.NextRecurringDate != nil {
			resp.NextRecurringDate = t.NextRecurringDate.Format("2006-01-02")
		}
	}
	return resp
}

func transactionsToResponse(txns []domain.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, transactionToResponse(&txns[i]))
	}
	return out
}

// parseDate accepts the date-only form used throughout the API, falling back
// to RFC 3339 for clients that send full timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

func amountFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
