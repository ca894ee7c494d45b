package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dlitvinov/finledger/internal/domain"
)

// WithinTx implements Ledger. The callback receives a store bound to the
// open transaction; returning an error rolls everything back.
func (d *DB) WithinTx(ctx context.Context, fn func(tx Ledger) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{db: tx})
	})
}

func (d *DB) CreateAccount(ctx context.Context, a *domain.Account) error {
	if err := d.db.WithContext(ctx).Create(accountToRow(a)).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (d *DB) AccountByID(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	var row accountRow
	err := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", accountID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account by id: %w", err)
	}
	return accountFromRow(&row), nil
}

func (d *DB) AccountSummaries(ctx context.Context, userID string) ([]AccountSummary, error) {
	var rows []accountRow
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	type countRow struct {
		AccountID string
		N         int64
	}
	var counts []countRow
	err = d.db.WithContext(ctx).
		Model(&transactionRow{}).
		Select("account_id, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("account_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	byAccount := make(map[string]int64, len(counts))
	for _, c := range counts {
		byAccount[c.AccountID] = c.N
	}

	summaries := make([]AccountSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, AccountSummary{
			Account:          *accountFromRow(&rows[i]),
			TransactionCount: byAccount[rows[i].ID],
		})
	}
	return summaries, nil
}

func (d *DB) DefaultAccount(ctx context.Context, userID string) (*domain.Account, error) {
	var row accountRow
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("default account: %w", err)
	}
	return accountFromRow(&row), nil
}

func (d *DB) AccountCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func (d *DB) ClearDefaultAccounts(ctx context.Context, userID string) error {
	err := d.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		UpdateColumn("is_default", false).Error
	if err != nil {
		return fmt.Errorf("clear default accounts: %w", err)
	}
	return nil
}

func (d *DB) MarkDefaultAccount(ctx context.Context, userID, accountID string) error {
	res := d.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		UpdateColumn("is_default", true)
	if res.Error != nil {
		return fmt.Errorf("mark default account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance applies a relative increment to the stored balance. The sum
// is computed on decimals in Go, never in SQL: SQLite would evaluate
// `balance + ?` in binary floating point and drift on amounts like 0.1.
// Callers always run this inside WithinTx, so the read and the write land in
// one serialized transaction.
func (d *DB) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	var row accountRow
	err := d.db.WithContext(ctx).
		Select("id", "balance").
		Where("id = ?", accountID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}

	res := d.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", row.Balance.Add(delta))
	if res.Error != nil {
		return fmt.Errorf("adjust balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if err := d.db.WithContext(ctx).Create(transactionToRow(t)).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// SaveTransaction replaces every mutable column of an existing transaction.
func (d *DB) SaveTransaction(ctx context.Context, t *domain.Transaction) error {
	res := d.db.WithContext(ctx).
		Model(&transactionRow{}).
		Where("id = ? AND user_id = ?", t.ID, t.UserID).
		Select("account_id", "type", "amount", "date", "description", "category",
			"is_recurring", "recurring_interval", "next_recurring_date").
		Updates(transactionToRow(t))
	if res.Error != nil {
		return fmt.Errorf("save transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) TransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	var row transactionRow
	err := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("transaction by id: %w", err)
	}
	return transactionFromRow(&row), nil
}

func (d *DB) TransactionsByIDs(ctx context.Context, userID string, ids []string) ([]domain.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []transactionRow
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("transactions by ids: %w", err)
	}
	return transactionsFromRows(rows), nil
}

func (d *DB) TransactionsByAccount(ctx context.Context, userID, accountID string) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("transactions by account: %w", err)
	}
	return transactionsFromRows(rows), nil
}

func (d *DB) TransactionsByDateRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	var rows []transactionRow
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("transactions by date range: %w", err)
	}
	return transactionsFromRows(rows), nil
}

func (d *DB) DeleteTransactionsByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := d.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&transactionRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete transactions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (d *DB) DueRecurring(ctx context.Context, now time.Time, limit int) ([]domain.Transaction, error) {
	var rows []transactionRow
	q := d.db.WithContext(ctx).
		Where("is_recurring = ? AND next_recurring_date IS NOT NULL AND next_recurring_date <= ?", true, now).
		Order("next_recurring_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("due recurring: %w", err)
	}
	return transactionsFromRows(rows), nil
}

// CategoryTotals sums per category on decimals in Go; SQL SUM would coerce
// the TEXT amounts to REAL and drift.
func (d *DB) CategoryTotals(ctx context.Context, userID string, typ domain.TransactionType, from, to time.Time) ([]CategoryTotal, error) {
	var rows []transactionRow
	err := d.db.WithContext(ctx).
		Select("category", "amount").
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?", userID, string(typ), from, to).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}

	byCategory := make(map[string]decimal.Decimal, len(rows))
	for i := range rows {
		byCategory[rows[i].Category] = byCategory[rows[i].Category].Add(rows[i].Amount)
	}
	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, total := range byCategory {
		totals = append(totals, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Total.Equal(totals[j].Total) {
			return totals[i].Total.GreaterThan(totals[j].Total)
		}
		return totals[i].Category < totals[j].Category
	})
	return totals, nil
}

func (d *DB) SumByType(ctx context.Context, userID, accountID string, typ domain.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	var rows []transactionRow
	q := d.db.WithContext(ctx).
		Select("amount").
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?", userID, string(typ), from, to)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum by type: %w", err)
	}

	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].Amount)
	}
	return total, nil
}

func (d *DB) BudgetByUser(ctx context.Context, userID string) (*domain.Budget, error) {
	var row budgetRow
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("budget by user: %w", err)
	}
	return budgetFromRow(&row), nil
}

func (d *DB) SaveBudget(ctx context.Context, b *domain.Budget) error {
	if err := d.db.WithContext(ctx).Save(budgetToRow(b)).Error; err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

func transactionsFromRows(rows []transactionRow) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, *transactionFromRow(&rows[i]))
	}
	return out
}
