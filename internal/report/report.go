// Package report builds and delivers monthly spending summaries.
package report

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dlitvinov/finledger/internal/budget"
	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/store"
)

// Report is one user's financial summary for a calendar month.
type Report struct {
	UserID string
	Month  time.Time

	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal

	ByCategory []store.CategoryTotal

	// BudgetUsage is nil when the user has no budget set.
	BudgetUsage *budget.Usage
}

// Builder assembles reports from the ledger's read side.
type Builder struct {
	store   store.Ledger
	budgets *budget.Service
}

func NewBuilder(st store.Ledger, budgets *budget.Service) *Builder {
	return &Builder{store: st, budgets: budgets}
}

// Build summarizes the month containing at for one user.
func (b *Builder) Build(ctx context.Context, userID string, at time.Time) (*Report, error) {
	from, to := budget.MonthRange(at)

	income, err := b.store.SumByType(ctx, userID, "", domain.TypeIncome, from, to)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	expenses, err := b.store.SumByType(ctx, userID, "", domain.TypeExpense, from, to)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	byCategory, err := b.store.CategoryTotals(ctx, userID, domain.TypeExpense, from, to)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	r := &Report{
		UserID:     userID,
		Month:      from,
		Income:     income,
		Expenses:   expenses,
		Net:        income.Sub(expenses),
		ByCategory: byCategory,
	}

	usage, err := b.budgets.UsageFor(ctx, userID, at)
	if err != nil && !errors.Is(err, budget.ErrNoBudget) {
		return nil, fmt.Errorf("build report: %w", err)
	}
	r.BudgetUsage = usage

	return r, nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>Your {{.MonthName}} summary</h2>
  <table cellpadding="6">
    <tr><td>Income</td><td align="right">{{.Income}}</td></tr>
    <tr><td>Expenses</td><td align="right">{{.Expenses}}</td></tr>
    <tr><td><strong>Net</strong></td><td align="right"><strong>{{.Net}}</strong></td></tr>
  </table>

  {{if .Categories}}
  <h3>Expenses by category</h3>
  <table cellpadding="6">
    {{range .Categories}}
    <tr><td>{{.Name}}</td><td align="right">{{.Total}}</td></tr>
    {{end}}
  </table>
  {{end}}

  {{if .HasBudget}}
  <h3>Budget</h3>
  <p>You have used {{printf "%.0f" .BudgetPercent}}% of your {{.BudgetAmount}} monthly budget ({{.BudgetRemaining}} remaining).</p>
  {{if .BudgetAlert}}
  <p style="color: #b91c1c;"><strong>Heads up:</strong> you are past 80% of your budget for this month.</p>
  {{end}}
  {{end}}
</body>
</html>
`))

type templateData struct {
	MonthName  string
	Income     string
	Expenses   string
	Net        string
	Categories []templateCategory

	HasBudget       bool
	BudgetAmount    string
	BudgetPercent   float64
	BudgetRemaining string
	BudgetAlert     bool
}

type templateCategory struct {
	Name  string
	Total string
}

// Render produces the HTML body for the report email.
func Render(r *Report) (string, error) {
	data := templateData{
		MonthName: r.Month.Format("January 2006"),
		Income:    r.Income.StringFixed(2),
		Expenses:  r.Expenses.StringFixed(2),
		Net:       r.Net.StringFixed(2),
	}
	for _, ct := range r.ByCategory {
		name := ct.Category
		if c, ok := domain.CategoryByID(ct.Category); ok {
			name = c.Name
		}
		data.Categories = append(data.Categories, templateCategory{
			Name:  name,
			Total: ct.Total.StringFixed(2),
		})
	}
	if r.BudgetUsage != nil {
		data.HasBudget = true
		data.BudgetAmount = r.BudgetUsage.Budget.Amount.StringFixed(2)
		data.BudgetPercent = r.BudgetUsage.PercentUsed
		data.BudgetRemaining = r.BudgetUsage.Remaining.StringFixed(2)
		data.BudgetAlert = r.BudgetUsage.OverAlertThreshold()
	}

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return sb.String(), nil
}

// Subject is the email subject line for the report.
func Subject(r *Report) string {
	return fmt.Sprintf("Your %s financial summary", r.Month.Format("January 2006"))
}
