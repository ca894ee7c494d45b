// Command migrate brings the ledger database up to the current schema and,
// when a project is given, provisions the BigQuery analytics sink.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dlitvinov/finledger/internal/analytics"
	"github.com/dlitvinov/finledger/internal/config"
	"github.com/dlitvinov/finledger/internal/store"
)

var (
	projectID = flag.String("project", "", "GCP project ID for the analytics sink (optional)")
	datasetID = flag.String("dataset", "finance", "BigQuery dataset ID")
)

func main() {
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", cfg.DBPath, err)
	}
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Ledger schema is up to date: %s", cfg.DBPath)

	if *projectID == "" {
		return
	}

	if err := ensureAnalyticsTable(ctx, cfg.GCPCredentialsFile); err != nil {
		log.Fatalf("Failed to provision analytics sink: %v", err)
	}
	log.Printf("Analytics sink is up to date: %s.%s.transactions", *projectID, *datasetID)
}

// ensureAnalyticsTable creates the dataset and transactions table when they
// do not exist yet. The table schema is inferred from the export row type so
// the two cannot drift apart.
func ensureAnalyticsTable(ctx context.Context, credentialsFile string) error {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, *projectID, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	dataset := client.Dataset(*datasetID)
	if err := dataset.Create(ctx, &bigquery.DatasetMetadata{}); err != nil && !alreadyExists(err) {
		return err
	}

	schema, err := bigquery.InferSchema(analytics.TransactionRow{})
	if err != nil {
		return err
	}
	table := dataset.Table("transactions")
	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.MonthPartitioningType,
			Field: "transaction_date",
		},
	}
	if err := table.Create(ctx, meta); err != nil && !alreadyExists(err) {
		return err
	}
	return nil
}

func alreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
