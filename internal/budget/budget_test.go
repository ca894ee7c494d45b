package budget_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/budget"
	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/ledger"
	"github.com/dlitvinov/finledger/internal/store"
)

func newFixture(t *testing.T) (*budget.Service, *ledger.Service) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return budget.NewService(db), ledger.NewService(db)
}

func TestSetAndGet(t *testing.T) {
	budgets, _ := newFixture(t)
	ctx := context.Background()

	if _, err := budgets.Get(ctx, "user-1"); !errors.Is(err, budget.ErrNoBudget) {
		t.Fatalf("Get before Set: err = %v, want ErrNoBudget", err)
	}

	if _, err := budgets.Set(ctx, "user-1", decimal.NewFromInt(-10)); err == nil {
		t.Fatal("Set accepted a negative amount")
	}

	b, err := budgets.Set(ctx, "user-1", decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Setting again replaces the amount but keeps the record.
	b2, err := budgets.Set(ctx, "user-1", decimal.NewFromInt(750))
	if err != nil {
		t.Fatalf("second Set: %v", err)
	}
	if b2.ID != b.ID {
		t.Errorf("second Set created a new budget %s, want %s", b2.ID, b.ID)
	}

	got, err := budgets.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(750)) {
		t.Errorf("amount = %s, want 750", got.Amount)
	}
}

func TestUsageCountsDefaultAccountOnly(t *testing.T) {
	budgets, engine := newFixture(t)
	ctx := context.Background()
	at := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	main, err := engine.CreateAccount(ctx, "user-1", ledger.CreateAccountInput{Name: "Main", Type: domain.AccountCurrent})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	side, err := engine.CreateAccount(ctx, "user-1", ledger.CreateAccountInput{Name: "Side", Type: domain.AccountSavings})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	spend := func(accountID string, amount int64, date time.Time) {
		t.Helper()
		_, err := engine.CreateTransaction(ctx, "user-1", ledger.TransactionInput{
			AccountID: accountID,
			Type:      domain.TypeExpense,
			Amount:    decimal.NewFromInt(amount),
			Date:      date,
			Category:  "shopping",
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	spend(main.ID, 80, at)                    // counts: default account, same month
	spend(side.ID, 500, at)                   // ignored: not the default account
	spend(main.ID, 40, at.AddDate(0, -1, 0))  // ignored: previous month

	if _, err := budgets.Set(ctx, "user-1", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	usage, err := budgets.UsageFor(ctx, "user-1", at)
	if err != nil {
		t.Fatalf("UsageFor: %v", err)
	}
	if !usage.Spent.Equal(decimal.NewFromInt(80)) {
		t.Errorf("spent = %s, want 80", usage.Spent)
	}
	if !usage.Remaining.Equal(decimal.NewFromInt(20)) {
		t.Errorf("remaining = %s, want 20", usage.Remaining)
	}
	if usage.PercentUsed != 80 {
		t.Errorf("percent used = %v, want 80", usage.PercentUsed)
	}
	if !usage.OverAlertThreshold() {
		t.Error("expected usage at 80% to cross the alert threshold")
	}
}

func TestMonthRange(t *testing.T) {
	from, to := budget.MonthRange(time.Date(2024, time.February, 20, 13, 45, 0, 0, time.UTC))
	if !from.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}
	// 2024 is a leap year.
	if to.Day() != 29 || to.Month() != time.February {
		t.Errorf("to = %v, want end of Feb 29", to)
	}
}
