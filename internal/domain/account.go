package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the kind of account a user holds.
type AccountType string

const (
	AccountCurrent AccountType = "CURRENT"
	AccountSavings AccountType = "SAVINGS"
)

// Valid reports whether a is one of the two known kinds.
func (a AccountType) Valid() bool {
	return a == AccountCurrent || a == AccountSavings
}

// Account is a user-owned account holding a cached balance.
//
// Balance is denormalized: it must always equal the sum of the signed
// amounts of the account's transactions plus the initial balance the account
// was created with. Only the ledger engine mutates it, and only inside the
// same datastore transaction as the record write that changes the sum.
type Account struct {
	ID     string
	UserID string

	Name    string
	Type    AccountType
	Balance decimal.Decimal
	// IsDefault marks the account used for dashboard summaries and budget
	// tracking. At most one account per user has it set.
	IsDefault bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
