package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlitvinov/finledger/internal/analytics"
	"github.com/dlitvinov/finledger/internal/api/middleware"
	"github.com/dlitvinov/finledger/internal/auth"
	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/ledger"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	engine   *ledger.Service
	exporter *analytics.Exporter // nil when analytics export is disabled
	log      zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(engine *ledger.Service, exporter *analytics.Exporter, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{engine: engine, exporter: exporter, log: log}
}

type transactionRequest struct {
	AccountID         string  `json:"account_id"`
	Type              string  `json:"type"`
	Amount            float64 `json:"amount"`
	Date              string  `json:"date"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	IsRecurring       bool    `json:"is_recurring"`
	RecurringInterval string  `json:"recurring_interval"`
}

func (req *transactionRequest) toInput() (ledger.TransactionInput, error) {
	var date time.Time
	if req.Date != "" {
		var err error
		date, err = parseDate(req.Date)
		if err != nil {
			return ledger.TransactionInput{}, err
		}
	}
	return ledger.TransactionInput{
		AccountID:         req.AccountID,
		Type:              domain.TransactionType(req.Type),
		Amount:            amountFromFloat(req.Amount),
		Date:              date,
		Description:       req.Description,
		Category:          req.Category,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: domain.RecurringInterval(req.RecurringInterval),
	}, nil
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.engine.CreateTransaction(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		middleware.WriteLedgerError(w, err)
		return
	}

	h.export(r, txn)
	middleware.WriteJSON(w, http.StatusCreated, transactionToResponse(txn))
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	from := time.Now().AddDate(-1, 0, 0)
	to := time.Now()
	var err error
	if s := query.Get("start_date"); s != "" {
		if from, err = parseDate(s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if s := query.Get("end_date"); s != "" {
		if to, err = parseDate(s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		// Make the end date inclusive of its whole day.
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	txns, err := h.engine.ListTransactions(r.Context(), auth.UserID(r.Context()), from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteLedgerError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, transactionsToResponse(txns))
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	txn, err := h.engine.GetTransaction(r.Context(), auth.UserID(r.Context()), transactionID)
	if err != nil {
		middleware.WriteLedgerError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, transactionToResponse(txn))
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.engine.UpdateTransaction(r.Context(), auth.UserID(r.Context()), transactionID, in)
	if err != nil {
		middleware.WriteLedgerError(w, err)
		return
	}

	h.export(r, txn)
	middleware.WriteJSON(w, http.StatusOK, transactionToResponse(txn))
}

// BulkDelete handles POST /api/transactions/bulk-delete
func (h *TransactionsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deleted, err := h.engine.DeleteTransactions(r.Context(), auth.UserID(r.Context()), req.IDs)
	if err != nil {
		middleware.WriteLedgerError(w, err)
		return
	}

	h.log.Info().Int("deleted", len(deleted)).Msg("Transactions deleted")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
		"count":   len(deleted),
	})
}

// export streams a committed transaction to the analytics sink. Failures are
// logged and swallowed; the ledger write already committed.
func (h *TransactionsHandler) export(r *http.Request, txn *domain.Transaction) {
	if h.exporter == nil {
		return
	}
	if err := h.exporter.ExportTransaction(r.Context(), txn); err != nil {
		h.log.Error().Err(err).Str("transaction_id", txn.ID).Msg("Analytics export failed")
	}
}
