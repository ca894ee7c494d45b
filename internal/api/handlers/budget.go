package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlitvinov/finledger/internal/api/middleware"
	"github.com/dlitvinov/finledger/internal/auth"
	"github.com/dlitvinov/finledger/internal/budget"
)

// BudgetHandler handles budget endpoints.
type BudgetHandler struct {
	budgets *budget.Service
	log     zerolog.Logger
}

// NewBudgetHandler creates a new budget handler.
func NewBudgetHandler(budgets *budget.Service, log zerolog.Logger) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, log: log}
}

// GetBudget handles GET /api/budget. It returns the budget together with
// its current-month usage.
func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	usage, err := h.budgets.UsageFor(r.Context(), auth.UserID(r.Context()), time.Now().UTC())
	if errors.Is(err, budget.ErrNoBudget) {
		middleware.WriteError(w, http.StatusNotFound, "No budget set")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, usageToResponse(usage))
}

// SetBudget handles PUT /api/budget
func (h *BudgetHandler) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := auth.UserID(r.Context())
	if _, err := h.budgets.Set(r.Context(), userID, amountFromFloat(req.Amount)); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	usage, err := h.budgets.UsageFor(r.Context(), userID, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read budget usage")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, usageToResponse(usage))
}

func usageToResponse(u *budget.Usage) map[string]interface{} {
	amount, _ := u.Budget.Amount.Float64()
	spent, _ := u.Spent.Float64()
	remaining, _ := u.Remaining.Float64()
	return map[string]interface{}{
		"amount":       amount,
		"spent":        spent,
		"remaining":    remaining,
		"percent_used": u.PercentUsed,
	}
}
