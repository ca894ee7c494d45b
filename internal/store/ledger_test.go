package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedAccount(t *testing.T, db *store.DB, userID string) *domain.Account {
	t.Helper()
	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      "Checking",
		Type:      domain.AccountCurrent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func seedTransaction(t *testing.T, db *store.DB, userID, accountID, amount, category string, typ domain.TransactionType, date time.Time) {
	t.Helper()
	now := time.Now().UTC()
	err := db.CreateTransaction(context.Background(), &domain.Transaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		AccountID: accountID,
		Type:      typ,
		Amount:    dec(amount),
		Date:      date,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
}

// Repeated fractional increments must not drift: 0.1 + 0.2 is exactly 0.3,
// which binary floating point cannot represent.
func TestAdjustBalanceExactDecimals(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	account := seedAccount(t, db, "user-1")

	for _, delta := range []string{"0.1", "0.2"} {
		err := db.WithinTx(ctx, func(tx store.Ledger) error {
			return tx.AdjustBalance(ctx, account.ID, dec(delta))
		})
		if err != nil {
			t.Fatalf("adjust by %s: %v", delta, err)
		}
	}

	reloaded, err := db.AccountByID(ctx, "user-1", account.ID)
	if err != nil {
		t.Fatalf("account by id: %v", err)
	}
	if got := reloaded.Balance.String(); got != "0.3" {
		t.Fatalf("stored balance = %q, want 0.3", got)
	}

	if err := db.AdjustBalance(ctx, "missing", dec("1")); err != store.ErrNotFound {
		t.Fatalf("adjust on unknown account = %v, want ErrNotFound", err)
	}
}

func TestSumByTypeExactDecimals(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	account := seedAccount(t, db, "user-1")
	date := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		seedTransaction(t, db, "user-1", account.ID, "0.1", "groceries", domain.TypeExpense, date)
	}
	seedTransaction(t, db, "user-1", account.ID, "0.2", "travel", domain.TypeExpense, date)
	// Different type and different month, both excluded.
	seedTransaction(t, db, "user-1", account.ID, "99", "salary", domain.TypeIncome, date)
	seedTransaction(t, db, "user-1", account.ID, "99", "travel", domain.TypeExpense, date.AddDate(0, 1, 0))

	from := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	total, err := db.SumByType(ctx, "user-1", account.ID, domain.TypeExpense, from, to)
	if err != nil {
		t.Fatalf("sum by type: %v", err)
	}
	if got := total.String(); got != "1.2" {
		t.Fatalf("expense sum = %q, want 1.2", got)
	}

	totals, err := db.CategoryTotals(ctx, "user-1", domain.TypeExpense, from, to)
	if err != nil {
		t.Fatalf("category totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("category rows = %d, want 2", len(totals))
	}
	// Largest total first.
	if totals[0].Category != "groceries" || totals[0].Total.String() != "1" {
		t.Errorf("totals[0] = %s %s, want groceries 1", totals[0].Category, totals[0].Total)
	}
	if totals[1].Category != "travel" || totals[1].Total.String() != "0.2" {
		t.Errorf("totals[1] = %s %s, want travel 0.2", totals[1].Category, totals[1].Total)
	}
}
