package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/domain"
)

// AccountSummary is an account plus its transaction count, for listings.
type AccountSummary struct {
	Account          domain.Account
	TransactionCount int64
}

// CategoryTotal is the summed magnitude of one category's transactions over
// a query window.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// Ledger is the persistence surface the ledger engine and the read-side
// services run against. WithinTx hands the callback a Ledger bound to one
// datastore transaction; everything done through it commits or rolls back
// as a unit.
type Ledger interface {
	// WithinTx runs fn inside a single datastore transaction. If fn returns
	// an error the transaction rolls back and the error is returned.
	// WithinTx must not be nested.
	WithinTx(ctx context.Context, fn func(tx Ledger) error) error

	// Accounts.
	CreateAccount(ctx context.Context, a *domain.Account) error
	AccountByID(ctx context.Context, userID, accountID string) (*domain.Account, error)
	AccountSummaries(ctx context.Context, userID string) ([]AccountSummary, error)
	DefaultAccount(ctx context.Context, userID string) (*domain.Account, error)
	AccountCount(ctx context.Context, userID string) (int64, error)
	ClearDefaultAccounts(ctx context.Context, userID string) error
	MarkDefaultAccount(ctx context.Context, userID, accountID string) error
	// AdjustBalance applies a relative increment to the stored balance with
	// exact decimal arithmetic. Callers must run it inside WithinTx so the
	// read-add-write cannot interleave with another adjuster.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error

	// Transactions.
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	SaveTransaction(ctx context.Context, t *domain.Transaction) error
	TransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	TransactionsByIDs(ctx context.Context, userID string, ids []string) ([]domain.Transaction, error)
	TransactionsByAccount(ctx context.Context, userID, accountID string) ([]domain.Transaction, error)
	TransactionsByDateRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error)
	DeleteTransactionsByIDs(ctx context.Context, userID string, ids []string) (int64, error)
	DueRecurring(ctx context.Context, now time.Time, limit int) ([]domain.Transaction, error)

	// Aggregates for reports and budgets.
	CategoryTotals(ctx context.Context, userID string, typ domain.TransactionType, from, to time.Time) ([]CategoryTotal, error)
	SumByType(ctx context.Context, userID, accountID string, typ domain.TransactionType, from, to time.Time) (decimal.Decimal, error)

	// Budgets.
	BudgetByUser(ctx context.Context, userID string) (*domain.Budget, error)
	SaveBudget(ctx context.Context, b *domain.Budget) error
}
