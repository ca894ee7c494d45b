package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dlitvinov/finledger/internal/api/handlers"
	"github.com/dlitvinov/finledger/internal/auth"
	"github.com/dlitvinov/finledger/internal/budget"
	"github.com/dlitvinov/finledger/internal/jobs"
	"github.com/dlitvinov/finledger/internal/ledger"
	"github.com/dlitvinov/finledger/internal/logger"
	"github.com/dlitvinov/finledger/internal/store"
)

// capturePublisher records published jobs instead of running them.
type capturePublisher struct {
	published []*jobs.Job
}

func (p *capturePublisher) Publish(ctx context.Context, job *jobs.Job) error {
	if job.JobID == "" {
		job.JobID = "job-1"
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	p.published = append(p.published, job)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type testEnv struct {
	accounts     *handlers.AccountsHandler
	transactions *handlers.TransactionsHandler
	budgets      *handlers.BudgetHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.NewWithWriter(io.Discard)
	engine := ledger.NewService(db)
	return &testEnv{
		accounts:     handlers.NewAccountsHandler(engine, log),
		transactions: handlers.NewTransactionsHandler(engine, nil, log),
		budgets:      handlers.NewBudgetHandler(budget.NewService(db), log),
	}
}

// request builds an authenticated JSON request the way the auth middleware
// would hand it to a handler.
func request(method, target, userID string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	return r.WithContext(auth.WithUserID(context.Background(), userID))
}

func timeNowDate() string {
	return time.Now().UTC().Format("2006-01-02")
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func (e *testEnv) createAccount(t *testing.T, userID string) string {
	t.Helper()
	w := httptest.NewRecorder()
	e.accounts.CreateAccount(w, request(http.MethodPost, "/api/accounts", userID, map[string]interface{}{
		"name": "Checking",
		"type": "CURRENT",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create account: status %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		ID string `json:"id"`
	}
	decode(t, w, &resp)
	return resp.ID
}

func (e *testEnv) accountBalance(t *testing.T, userID, accountID string) float64 {
	t.Helper()
	w := httptest.NewRecorder()
	e.accounts.GetAccount(w, request(http.MethodGet, "/api/accounts/"+accountID, userID, nil), accountID)
	if w.Code != http.StatusOK {
		t.Fatalf("get account: status %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Account struct {
			Balance float64 `json:"balance"`
		} `json:"account"`
	}
	decode(t, w, &resp)
	return resp.Account.Balance
}

func TestCreateTransactionUpdatesBalance(t *testing.T) {
	env := newTestEnv(t)
	accountID := env.createAccount(t, "user-1")

	w := httptest.NewRecorder()
	env.transactions.CreateTransaction(w, request(http.MethodPost, "/api/transactions", "user-1", map[string]interface{}{
		"account_id": accountID,
		"type":       "EXPENSE",
		"amount":     42.50,
		"date":       "2024-06-01",
		"category":   "groceries",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var txn struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
		Type   string  `json:"type"`
	}
	decode(t, w, &txn)
	if txn.Amount != 42.50 || txn.Type != "EXPENSE" {
		t.Errorf("unexpected transaction payload: %+v", txn)
	}

	if got := env.accountBalance(t, "user-1", accountID); got != -42.50 {
		t.Errorf("balance = %v, want -42.50", got)
	}
}

func TestCreateTransactionValidationStatus(t *testing.T) {
	env := newTestEnv(t)
	accountID := env.createAccount(t, "user-1")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"negative amount", map[string]interface{}{
			"account_id": accountID, "type": "EXPENSE", "amount": -5.0,
			"date": "2024-06-01", "category": "groceries",
		}},
		{"unknown category", map[string]interface{}{
			"account_id": accountID, "type": "EXPENSE", "amount": 5.0,
			"date": "2024-06-01", "category": "yachts",
		}},
		{"income category on expense", map[string]interface{}{
			"account_id": accountID, "type": "EXPENSE", "amount": 5.0,
			"date": "2024-06-01", "category": "salary",
		}},
		{"recurring without interval", map[string]interface{}{
			"account_id": accountID, "type": "EXPENSE", "amount": 5.0,
			"date": "2024-06-01", "category": "groceries", "is_recurring": true,
		}},
		{"bad date", map[string]interface{}{
			"account_id": accountID, "type": "EXPENSE", "amount": 5.0,
			"date": "June first", "category": "groceries",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.transactions.CreateTransaction(w, request(http.MethodPost, "/api/transactions", "user-1", tt.body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", w.Code, w.Body)
			}
		})
	}

	// Nothing leaked into the balance.
	if got := env.accountBalance(t, "user-1", accountID); got != 0 {
		t.Errorf("balance = %v, want 0", got)
	}
}

func TestOwnershipHiddenAsNotFound(t *testing.T) {
	env := newTestEnv(t)
	accountID := env.createAccount(t, "alice")

	w := httptest.NewRecorder()
	env.transactions.CreateTransaction(w, request(http.MethodPost, "/api/transactions", "alice", map[string]interface{}{
		"account_id": accountID,
		"type":       "INCOME",
		"amount":     100.0,
		"date":       "2024-06-01",
		"category":   "salary",
	}))
	var txn struct {
		ID string `json:"id"`
	}
	decode(t, w, &txn)

	// Another user probing alice's ids sees 404, same as a missing record.
	w = httptest.NewRecorder()
	env.transactions.GetTransaction(w, request(http.MethodGet, "/api/transactions/"+txn.ID, "mallory", nil), txn.ID)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign transaction status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	env.accounts.GetAccount(w, request(http.MethodGet, "/api/accounts/"+accountID, "mallory", nil), accountID)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign account status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	env.transactions.BulkDelete(w, request(http.MethodPost, "/api/transactions/bulk-delete", "mallory", map[string]interface{}{
		"ids": []string{txn.ID},
	}))
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign bulk delete status = %d, want 404", w.Code)
	}
}

func TestBulkDeleteRestoresBalance(t *testing.T) {
	env := newTestEnv(t)
	accountID := env.createAccount(t, "user-1")

	var ids []string
	for i, amount := range []float64{10, 20, 30} {
		w := httptest.NewRecorder()
		env.transactions.CreateTransaction(w, request(http.MethodPost, "/api/transactions", "user-1", map[string]interface{}{
			"account_id": accountID,
			"type":       "EXPENSE",
			"amount":     amount,
			"date":       fmt.Sprintf("2024-06-%02d", i+1),
			"category":   "shopping",
		}))
		var txn struct {
			ID string `json:"id"`
		}
		decode(t, w, &txn)
		ids = append(ids, txn.ID)
	}
	if got := env.accountBalance(t, "user-1", accountID); got != -60 {
		t.Fatalf("balance = %v, want -60", got)
	}

	w := httptest.NewRecorder()
	env.transactions.BulkDelete(w, request(http.MethodPost, "/api/transactions/bulk-delete", "user-1", map[string]interface{}{
		"ids": ids[:2],
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Deleted []string `json:"deleted"`
		Count   int      `json:"count"`
	}
	decode(t, w, &resp)
	if resp.Count != 2 {
		t.Errorf("deleted count = %d, want 2", resp.Count)
	}

	if got := env.accountBalance(t, "user-1", accountID); got != -30 {
		t.Errorf("balance after delete = %v, want -30", got)
	}
}

func TestSetDefaultAccount(t *testing.T) {
	env := newTestEnv(t)
	first := env.createAccount(t, "user-1")
	second := env.createAccount(t, "user-1")

	w := httptest.NewRecorder()
	env.accounts.SetDefault(w, request(http.MethodPost, "/api/accounts/"+second+"/default", "user-1", nil), second)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	w = httptest.NewRecorder()
	env.accounts.ListAccounts(w, request(http.MethodGet, "/api/accounts", "user-1", nil))
	var list struct {
		Accounts []struct {
			ID        string `json:"id"`
			IsDefault bool   `json:"is_default"`
		} `json:"accounts"`
	}
	decode(t, w, &list)

	defaults := map[string]bool{}
	for _, a := range list.Accounts {
		defaults[a.ID] = a.IsDefault
	}
	if !defaults[second] || defaults[first] {
		t.Errorf("defaults = %v, want only %s", defaults, second)
	}
}

func TestEnqueueRecurringScan(t *testing.T) {
	publisher := &capturePublisher{}
	h := handlers.NewRecurringHandler(publisher, logger.NewWithWriter(io.Discard))

	w := httptest.NewRecorder()
	h.EnqueueScan(w, request(http.MethodPost, "/api/recurring/scan", "user-1", nil))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body %s", w.Code, w.Body)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published %d jobs, want 1", len(publisher.published))
	}
	job := publisher.published[0]
	if job.Type != jobs.JobTypeRecurringScan {
		t.Errorf("job type = %s, want %s", job.Type, jobs.JobTypeRecurringScan)
	}
	if job.UserID != "user-1" {
		t.Errorf("job user = %q, want user-1", job.UserID)
	}

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	decode(t, w, &resp)
	if resp.JobID != job.JobID || resp.Status != string(jobs.JobStatusPending) {
		t.Errorf("response = %+v, want job %s pending", resp, job.JobID)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	accountID := env.createAccount(t, "user-1")

	// No budget yet.
	w := httptest.NewRecorder()
	env.budgets.GetBudget(w, request(http.MethodGet, "/api/budget", "user-1", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	env.budgets.SetBudget(w, request(http.MethodPut, "/api/budget", "user-1", map[string]interface{}{
		"amount": 200.0,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("set budget: status %d, body %s", w.Code, w.Body)
	}

	// Spend against the default account this month, then re-read usage.
	w = httptest.NewRecorder()
	env.transactions.CreateTransaction(w, request(http.MethodPost, "/api/transactions", "user-1", map[string]interface{}{
		"account_id": accountID,
		"type":       "EXPENSE",
		"amount":     50.0,
		"date":       timeNowDate(),
		"category":   "food",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d, body %s", w.Code, w.Body)
	}

	w = httptest.NewRecorder()
	env.budgets.GetBudget(w, request(http.MethodGet, "/api/budget", "user-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get budget: status %d, body %s", w.Code, w.Body)
	}
	var usage struct {
		Amount      float64 `json:"amount"`
		Spent       float64 `json:"spent"`
		Remaining   float64 `json:"remaining"`
		PercentUsed float64 `json:"percent_used"`
	}
	decode(t, w, &usage)
	if usage.Amount != 200 || usage.Spent != 50 || usage.Remaining != 150 {
		t.Errorf("usage = %+v, want 200/50/150", usage)
	}
	if usage.PercentUsed != 25 {
		t.Errorf("percent used = %v, want 25", usage.PercentUsed)
	}
}
