package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dlitvinov/finledger/internal/analytics"
	"github.com/dlitvinov/finledger/internal/api/handlers"
	"github.com/dlitvinov/finledger/internal/api/middleware"
	"github.com/dlitvinov/finledger/internal/auth"
	"github.com/dlitvinov/finledger/internal/budget"
	"github.com/dlitvinov/finledger/internal/config"
	"github.com/dlitvinov/finledger/internal/jobs"
	"github.com/dlitvinov/finledger/internal/jobs/inmemory"
	"github.com/dlitvinov/finledger/internal/ledger"
	"github.com/dlitvinov/finledger/internal/logger"
	"github.com/dlitvinov/finledger/internal/receipt"
	"github.com/dlitvinov/finledger/internal/recurring"
	"github.com/dlitvinov/finledger/internal/report"
	"github.com/dlitvinov/finledger/internal/store"
)

func main() {
	// Parse command-line flags
	var (
		port         = flag.String("port", "8080", "HTTP server port")
		scanInterval = flag.Duration("scan-interval", time.Hour, "How often to materialize due recurring transactions")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.AuthTokens == "" {
		log.Fatal().Msg("AUTH_TOKENS is not set")
	}

	ctx := context.Background()

	// Initialize storage
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	provider, err := auth.NewStaticProvider(cfg.AuthTokens)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse AUTH_TOKENS")
	}

	// Core services
	engine := ledger.NewService(db)
	budgets := budget.NewService(db)
	reports := report.NewBuilder(db, budgets)

	var exporter *analytics.Exporter
	if cfg.BigQueryProject != "" {
		exporter = analytics.NewExporter(cfg.BigQueryProject, cfg.BigQueryDataset, cfg.GCPCredentialsFile)
	} else {
		log.Warn().Msg("No BigQuery project configured - analytics export disabled")
	}

	var archiver *receipt.Archiver
	if cfg.GCSBucket != "" {
		archiver = receipt.NewArchiver(cfg.GCSBucket, cfg.GCPCredentialsFile)
	} else {
		log.Warn().Msg("No GCS bucket configured - receipt archival disabled")
	}

	var sender report.Sender
	if cfg.GmailCredentialsFile != "" {
		sender = report.NewGmailSender(cfg.GmailCredentialsFile, cfg.GmailTokenFile, cfg.ReportFrom)
	} else {
		log.Warn().Msg("No Gmail credentials configured - reports will be logged, not sent")
		sender = &report.LogSender{Log: log}
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	scanner := recurring.NewScanner(db, engine, log)

	jobHandler := func(ctx context.Context, job *jobs.Job) error {
		switch job.Type {
		case jobs.JobTypeMonthlyReport:
			rep, err := reports.Build(ctx, job.UserID, job.Month)
			if err != nil {
				return err
			}
			body, err := report.Render(rep)
			if err != nil {
				return err
			}
			if err := sender.Send(ctx, job.Email, report.Subject(rep), body); err != nil {
				return err
			}
			log.Info().
				Str("job_id", job.JobID).
				Str("month", job.Month.Format("2006-01")).
				Msg("Monthly report delivered")
			return nil
		case jobs.JobTypeRecurringScan:
			n, err := scanner.ScanOnce(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			log.Info().Str("job_id", job.JobID).Int("materialized", n).Msg("Recurring scan job finished")
			return nil
		default:
			return fmt.Errorf("unexpected job type: %s", job.Type)
		}
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Materialize due recurring transactions in the background
	go scanner.Run(workerCtx, *scanInterval)

	// Initialize handlers
	accountsHandler := handlers.NewAccountsHandler(engine, log)
	transactionsHandler := handlers.NewTransactionsHandler(engine, exporter, log)
	receiptsHandler := handlers.NewReceiptsHandler(receipt.NewGeminiScanner(), archiver, log)
	budgetHandler := handlers.NewBudgetHandler(budgets, log)
	reportsHandler := handlers.NewReportsHandler(jobQueue, log)
	recurringHandler := handlers.NewRecurringHandler(jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Accounts endpoints
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			accountsHandler.ListAccounts(w, r)
		case http.MethodPost:
			accountsHandler.CreateAccount(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
		accountID, action, _ := strings.Cut(rest, "/")
		if accountID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Account ID is required")
			return
		}
		switch {
		case action == "" && r.Method == http.MethodGet:
			accountsHandler.GetAccount(w, r, accountID)
		case action == "default" && r.Method == http.MethodPost:
			accountsHandler.SetDefault(w, r, accountID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/bulk-delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.BulkDelete(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if transactionID == "" || strings.Contains(transactionID, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.GetTransaction(w, r, transactionID)
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, transactionID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Receipts endpoints
	mux.HandleFunc("/api/receipts/scan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			receiptsHandler.ScanReceipt(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Budget endpoints
	mux.HandleFunc("/api/budget", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			budgetHandler.GetBudget(w, r)
		case http.MethodPut:
			budgetHandler.SetBudget(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Reports endpoints
	mux.HandleFunc("/api/reports/monthly", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.RequestMonthlyReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Recurring endpoints
	mux.HandleFunc("/api/recurring/scan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			recurringHandler.EnqueueScan(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Apply middleware; the health check stays outside the auth gate
	api := middleware.Auth(provider)(mux)

	root := http.NewServeMux()
	root.Handle("/api/", api)
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(root),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
