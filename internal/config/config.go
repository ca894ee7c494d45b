package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string
	// AuthTokens is the static token spec ("token:userID,...") for the
	// local identity provider. Only the API server needs it; offline
	// commands like migrate run without it.
	AuthTokens string

	// GCSBucket receives archived receipt images. Empty disables archival.
	GCSBucket string
	// GCPCredentialsFile optionally points at a service-account key for the
	// GCS and BigQuery clients.
	GCPCredentialsFile string

	// BigQueryProject/Dataset name the analytics sink. Empty project
	// disables the export.
	BigQueryProject string
	BigQueryDataset string

	// GmailCredentialsFile and GmailTokenFile configure the report sender.
	// Empty credentials disable email delivery; reports are logged instead.
	GmailCredentialsFile string
	GmailTokenFile       string
	// ReportFrom is the From address on monthly report mail.
	ReportFrom string
}

// Load reads .env if present, then the environment. Which settings are
// required depends on the binary, so Load itself only applies defaults;
// callers check the fields they cannot run without.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:               getenv("DB_PATH", "finledger.db"),
		AuthTokens:           os.Getenv("AUTH_TOKENS"),
		GCSBucket:            os.Getenv("GCS_BUCKET"),
		GCPCredentialsFile:   os.Getenv("GCP_CREDENTIALS_FILE"),
		BigQueryProject:      os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:      getenv("BIGQUERY_DATASET", "finance"),
		GmailCredentialsFile: os.Getenv("GMAIL_CREDENTIALS_FILE"),
		GmailTokenFile:       os.Getenv("GMAIL_TOKEN_FILE"),
		ReportFrom:           os.Getenv("REPORT_FROM"),
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
