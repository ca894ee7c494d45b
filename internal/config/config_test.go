package config

import "testing"

func TestLoadWithoutAuthTokens(t *testing.T) {
	// Offline commands (migrate) load configuration with no auth secret.
	t.Setenv("AUTH_TOKENS", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("BIGQUERY_DATASET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without AUTH_TOKENS: %v", err)
	}
	if cfg.AuthTokens != "" {
		t.Errorf("auth tokens = %q, want empty", cfg.AuthTokens)
	}
	if cfg.DBPath != "finledger.db" {
		t.Errorf("db path default = %q, want finledger.db", cfg.DBPath)
	}
	if cfg.BigQueryDataset != "finance" {
		t.Errorf("dataset default = %q, want finance", cfg.BigQueryDataset)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("AUTH_TOKENS", "tok:user-1")
	t.Setenv("DB_PATH", "/tmp/test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthTokens != "tok:user-1" {
		t.Errorf("auth tokens = %q", cfg.AuthTokens)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
}
