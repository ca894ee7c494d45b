// Package handlers contains the HTTP layer. Handlers translate between the
// JSON API and the services; all ledger semantics live below this package.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dlitvinov/finledger/internal/api/middleware"
	"github.com/dlitvinov/finledger/internal/auth"
	"github.com/dlitvinov/finledger/internal/domain"
	"github.com/dlitvinov/finledger/internal/ledger"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	engine *ledger.Service
	log    zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(engine *ledger.Service, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{engine: engine, log: log}
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string  `json:"name"`
		Type      string  `json:"type"`
		Balance   float64 `json:"balance"`
		IsDefault bool    `json:"is_default"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.engine.CreateAccount(r.Context(), auth.UserID(r.Context()), ledger.CreateAccountInput{
		Name:      req.Name,
		Type:      domain.AccountType(req.Type),
		Balance:   amountFromFloat(req.Balance),
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create account")
		middleware.WriteLedgerError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, accountToResponse(account))
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.engine.ListAccounts(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteLedgerError(w, err)
		return
	}

	accounts := make([]accountResponse, 0, len(summaries))
	for i := range summaries {
		accounts = append(accounts, summaryToResponse(&summaries[i]))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// GetAccount handles GET /api/accounts/{id}
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	account, txns, err := h.engine.GetAccount(r.Context(), auth.UserID(r.Context()), accountID)
	if err != nil {
		middleware.WriteLedgerError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account":      accountToResponse(account),
		"transactions": transactionsToResponse(txns),
	})
}

// SetDefault handles POST /api/accounts/{id}/default
func (h *AccountsHandler) SetDefault(w http.ResponseWriter, r *http.Request, accountID string) {
	account, err := h.engine.SetDefaultAccount(r.Context(), auth.UserID(r.Context()), accountID)
	if err != nil {
		middleware.WriteLedgerError(w, err)
		return
	}

	h.log.Info().Str("account_id", accountID).Msg("Default account changed")
	middleware.WriteJSON(w, http.StatusOK, accountToResponse(account))
}
