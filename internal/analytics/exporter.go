// Package analytics streams committed ledger transactions into BigQuery,
// where reporting dashboards query them. The export is best-effort and
// append-only; the SQLite ledger remains the source of truth.
package analytics

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/option"

	"github.com/dlitvinov/finledger/internal/domain"
)

const transactionsTable = "transactions"

// TransactionRow is the finance.transactions export schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	UserID    string `bigquery:"user_id"`    // REQUIRED
	AccountID string `bigquery:"account_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Type     string   `bigquery:"type"`     // EXPENSE or INCOME
	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC, positive magnitude
	Category string   `bigquery:"category"` // REQUIRED STRING

	Description bigquery.NullString `bigquery:"description"` // NULLABLE

	IsRecurring       bigquery.NullBool   `bigquery:"is_recurring"`
	RecurringInterval bigquery.NullString `bigquery:"recurring_interval"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// Exporter writes TransactionRow batches.
type Exporter struct {
	project string
	dataset string
	opts    []option.ClientOption
}

// NewExporter creates an exporter targeting project.dataset. A non-empty
// credentialsFile overrides ambient credentials.
func NewExporter(project, dataset, credentialsFile string) *Exporter {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &Exporter{project: project, dataset: dataset, opts: opts}
}

// ExportTransaction streams one committed transaction.
func (e *Exporter) ExportTransaction(ctx context.Context, t *domain.Transaction) error {
	client, err := bigquery.NewClient(ctx, e.project, e.opts...)
	if err != nil {
		return fmt.Errorf("ExportTransaction: bigquery client: %w", err)
	}
	defer client.Close()

	row := rowFromTransaction(t)
	inserter := client.DatasetInProject(e.project, e.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, []*TransactionRow{row}); err != nil {
		return fmt.Errorf("ExportTransaction: inserting row: %w", err)
	}
	return nil
}

func rowFromTransaction(t *domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   t.ID,
		UserID:          t.UserID,
		AccountID:       t.AccountID,
		TransactionDate: civil.DateOf(t.Date),
		Type:            string(t.Type),
		Amount:          t.Amount.Rat(),
		Category:        t.Category,
		CreatedTS:       t.CreatedAt,
	}
	if t.Description != "" {
		row.Description = bigquery.NullString{StringVal: t.Description, Valid: true}
	}
	if t.IsRecurring {
		row.IsRecurring = bigquery.NullBool{Bool: true, Valid: true}
		row.RecurringInterval = bigquery.NullString{StringVal: string(t.RecurringInterval), Valid: true}
	}
	return row
}
