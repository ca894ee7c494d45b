// Package budget tracks a user's monthly spending cap against the default
// account's expenses.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/store"
)

// ErrNoBudget is returned when the user has not set a budget.
var ErrNoBudget = errors.New("no budget set")

// Usage is a budget measured against one month of default-account expenses.
type Usage struct {
	Budget      domain.Budget
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
	PercentUsed float64
}

// OverAlertThreshold reports whether usage crossed the alerting line (80%).
func (u *Usage) OverAlertThreshold() bool {
	return u.PercentUsed >= 80
}

// Service reads and writes budgets.
type Service struct {
	store store.Ledger
}

func NewService(st store.Ledger) *Service {
	return &Service{store: st}
}

// Get returns the user's budget, or ErrNoBudget.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Budget, error) {
	b, err := s.store.BudgetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoBudget
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// Set creates or replaces the user's budget amount.
func (s *Service) Set(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Budget, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("budget amount must be positive, got %s", amount)
	}

	now := time.Now().UTC()
	b, err := s.store.BudgetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		b = &domain.Budget{
			ID:        uuid.New().String(),
			UserID:    userID,
			CreatedAt: now,
		}
	} else if err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}

	b.Amount = amount
	b.UpdatedAt = now
	if err := s.store.SaveBudget(ctx, b); err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}
	return b, nil
}

// UsageFor measures the budget against expenses on the default account for
// the month containing at. Returns ErrNoBudget when none is set; a user
// without a default account has zero spend.
func (s *Service) UsageFor(ctx context.Context, userID string, at time.Time) (*Usage, error) {
	b, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	from, to := MonthRange(at)

	accountID := ""
	if acct, err := s.store.DefaultAccount(ctx, userID); err == nil {
		accountID = acct.ID
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("budget usage: %w", err)
	}

	spent := decimal.Zero
	if accountID != "" {
		spent, err = s.store.SumByType(ctx, userID, accountID, domain.TypeExpense, from, to)
		if err != nil {
			return nil, fmt.Errorf("budget usage: %w", err)
		}
	}

	percent, _ := spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
	return &Usage{
		Budget:      *b,
		Spent:       spent,
		Remaining:   b.Amount.Sub(spent),
		PercentUsed: percent,
	}, nil
}

// MonthRange returns the first and last instant of the month containing t,
// in UTC.
func MonthRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}
