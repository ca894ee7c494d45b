package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidCategory(t *testing.T) {
	tests := []struct {
		name string
		id   string
		typ  TransactionType
		want bool
	}{
		{"expense category for expense", "groceries", TypeExpense, true},
		{"income category for income", "salary", TypeIncome, true},
		{"case and whitespace normalized", "  Groceries ", TypeExpense, true},
		{"income category for expense", "salary", TypeExpense, false},
		{"expense category for income", "housing", TypeIncome, false},
		{"unknown category", "crypto", TypeExpense, false},
		{"empty category", "", TypeExpense, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCategory(tt.id, tt.typ); got != tt.want {
				t.Errorf("ValidCategory(%q, %s) = %v, want %v", tt.id, tt.typ, got, tt.want)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("42.50")

	if got := SignedAmount(TypeIncome, amount); !got.Equal(amount) {
		t.Errorf("SignedAmount(INCOME, 42.50) = %s, want 42.50", got)
	}
	if got := SignedAmount(TypeExpense, amount); !got.Equal(amount.Neg()) {
		t.Errorf("SignedAmount(EXPENSE, 42.50) = %s, want -42.50", got)
	}
}
