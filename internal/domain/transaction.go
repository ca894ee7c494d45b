package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType says which direction a transaction moves money.
type TransactionType string

const (
	TypeExpense TransactionType = "EXPENSE"
	TypeIncome  TransactionType = "INCOME"
)

// Valid reports whether t is one of the two known types.
func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// RecurringInterval is the period between occurrences of a recurring
// transaction.
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

// Valid reports whether i is one of the four known intervals.
func (i RecurringInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// Transaction is a single income or expense entry against an account.
// Amount is always a positive magnitude; the type carries the sign.
type Transaction struct {
	ID        string
	UserID    string
	AccountID string

	Type        TransactionType
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Category    string

	IsRecurring       bool
	RecurringInterval RecurringInterval
	// NextRecurringDate is set only when IsRecurring is true and is always
	// strictly after Date.
	NextRecurringDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SignedAmount is the transaction's contribution to its account balance:
// +Amount for income, -Amount for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return SignedAmount(t.Type, t.Amount)
}

// SignedAmount returns amount with the sign implied by typ.
func SignedAmount(typ TransactionType, amount decimal.Decimal) decimal.Decimal {
	if typ == TypeExpense {
		return amount.Neg()
	}
	return amount
}
