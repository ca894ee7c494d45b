package domain

import "strings"

// Category is one entry in the fixed taxonomy transactions are classified
// under. The list is static: it ships with the application rather than
// living in the datastore.
type Category struct {
	ID   string
	Name string
	Type TransactionType
}

// Categories is the full taxonomy, expense categories first.
var Categories = []Category{
	{ID: "housing", Name: "Housing", Type: TypeExpense},
	{ID: "transportation", Name: "Transportation", Type: TypeExpense},
	{ID: "groceries", Name: "Groceries", Type: TypeExpense},
	{ID: "utilities", Name: "Utilities", Type: TypeExpense},
	{ID: "entertainment", Name: "Entertainment", Type: TypeExpense},
	{ID: "food", Name: "Food", Type: TypeExpense},
	{ID: "shopping", Name: "Shopping", Type: TypeExpense},
	{ID: "healthcare", Name: "Healthcare", Type: TypeExpense},
	{ID: "education", Name: "Education", Type: TypeExpense},
	{ID: "personal", Name: "Personal Care", Type: TypeExpense},
	{ID: "travel", Name: "Travel", Type: TypeExpense},
	{ID: "insurance", Name: "Insurance", Type: TypeExpense},
	{ID: "gifts", Name: "Gifts & Donations", Type: TypeExpense},
	{ID: "bills", Name: "Bills & Fees", Type: TypeExpense},
	{ID: "other-expense", Name: "Other Expenses", Type: TypeExpense},
	{ID: "salary", Name: "Salary", Type: TypeIncome},
	{ID: "freelance", Name: "Freelance", Type: TypeIncome},
	{ID: "investments", Name: "Investments", Type: TypeIncome},
	{ID: "business", Name: "Business", Type: TypeIncome},
	{ID: "rental", Name: "Rental", Type: TypeIncome},
	{ID: "other-income", Name: "Other Income", Type: TypeIncome},
}

var categoryByID = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[c.ID] = c
	}
	return m
}()

// CategoryByID looks up a category by its normalized id.
func CategoryByID(id string) (Category, bool) {
	c, ok := categoryByID[NormalizeCategoryID(id)]
	return c, ok
}

// ValidCategory reports whether id names a category compatible with typ.
func ValidCategory(id string, typ TransactionType) bool {
	c, ok := CategoryByID(id)
	return ok && c.Type == typ
}

// NormalizeCategoryID lowercases and trims an id for comparison, so model
// output and hand-typed input match the taxonomy case-insensitively.
func NormalizeCategoryID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
