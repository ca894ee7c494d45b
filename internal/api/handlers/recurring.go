package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dlitvinov/finledger/internal/api/middleware"
	"github.com/dlitvinov/finledger/internal/auth"
	"github.com/dlitvinov/finledger/internal/jobs"
)

// RecurringHandler enqueues recurring-transaction maintenance work.
type RecurringHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRecurringHandler creates a new recurring handler.
func NewRecurringHandler(publisher jobs.Publisher, log zerolog.Logger) *RecurringHandler {
	return &RecurringHandler{publisher: publisher, log: log}
}

// EnqueueScan handles POST /api/recurring/scan. It queues one system-wide
// scan that materializes everything currently due, ahead of the periodic
// background pass. Materialization is idempotent per occurrence, so an extra
// scan can only move work earlier, never duplicate it. The caller is
// recorded on the job for attribution and polling.
func (h *RecurringHandler) EnqueueScan(w http.ResponseWriter, r *http.Request) {
	job := &jobs.Job{
		Type:   jobs.JobTypeRecurringScan,
		UserID: auth.UserID(r.Context()),
	}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue recurring scan")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue scan")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Recurring scan enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}
