package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/domain"
)

// accountRow is the accounts table schema. Money columns are TEXT: SQLite's
// NUMERIC affinity would coerce the decimal's string value to a REAL and
// reintroduce binary floating point, so the exact string is stored instead
// and all arithmetic happens on decimals in Go.
type accountRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	Type      string `gorm:"not null"`
	Balance   decimal.Decimal `gorm:"type:text;not null"`
	IsDefault bool   `gorm:"not null;default:false;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (accountRow) TableName() string { return "accounts" }

// transactionRow is the transactions table schema.
type transactionRow struct {
	ID                string `gorm:"primaryKey;size:36"`
	UserID            string `gorm:"index;not null"`
	AccountID         string `gorm:"index;not null"`
	Type              string `gorm:"not null"`
	Amount            decimal.Decimal `gorm:"type:text;not null"`
	Date              time.Time       `gorm:"index;not null"`
	Description       string
	Category          string `gorm:"not null"`
	IsRecurring       bool   `gorm:"not null;default:false"`
	RecurringInterval string
	NextRecurringDate *time.Time `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (transactionRow) TableName() string { return "transactions" }

// budgetRow is the budgets table schema, one row per user.
type budgetRow struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"uniqueIndex;not null"`
	Amount        decimal.Decimal `gorm:"type:text;not null"`
	LastAlertSent *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (budgetRow) TableName() string { return "budgets" }

func accountToRow(a *domain.Account) *accountRow {
	return &accountRow{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func accountFromRow(r *accountRow) *domain.Account {
	return &domain.Account{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Type:      domain.AccountType(r.Type),
		Balance:   r.Balance,
		IsDefault: r.IsDefault,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func transactionToRow(t *domain.Transaction) *transactionRow {
	return &transactionRow{
		ID:                t.ID,
		UserID:            t.UserID,
		AccountID:         t.AccountID,
		Type:              string(t.Type),
		Amount:            t.Amount,
		Date:              t.Date,
		Description:       t.Description,
		Category:          t.Category,
		IsRecurring:       t.IsRecurring,
		RecurringInterval: string(t.RecurringInterval),
		NextRecurringDate: t.NextRecurringDate,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func transactionFromRow(r *transactionRow) *domain.Transaction {
	return &domain.Transaction{
		ID:                r.ID,
		UserID:            r.UserID,
		AccountID:         r.AccountID,
		Type:              domain.TransactionType(r.Type),
		Amount:            r.Amount,
		Date:              r.Date,
		Description:       r.Description,
		Category:          r.Category,
		IsRecurring:       r.IsRecurring,
		RecurringInterval: domain.RecurringInterval(r.RecurringInterval),
		NextRecurringDate: r.NextRecurringDate,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func budgetToRow(b *domain.Budget) *budgetRow {
	return &budgetRow{
		ID:            b.ID,
		UserID:        b.UserID,
		Amount:        b.Amount,
		LastAlertSent: b.LastAlertSent,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func budgetFromRow(r *budgetRow) *domain.Budget {
	return &domain.Budget{
		ID:            r.ID,
		UserID:        r.UserID,
		Amount:        r.Amount,
		LastAlertSent: r.LastAlertSent,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
