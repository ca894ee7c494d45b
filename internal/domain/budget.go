package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a user's monthly spending cap. There is at most one per user;
// usage is measured against the default account's current-month expenses.
type Budget struct {
	ID     string
	UserID string
	Amount decimal.Decimal
	// LastAlertSent records when an over-budget alert last went out, so the
	// monthly report does not repeat it within the same month.
	LastAlertSent *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
