package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlitvinov/finledger/internal/api/middleware"
	"github.com/dlitvinov/finledger/internal/auth"
	"github.com/dlitvinov/finledger/internal/jobs"
)

// ReportsHandler enqueues report delivery jobs.
type ReportsHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(publisher jobs.Publisher, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{publisher: publisher, log: log}
}

// RequestMonthlyReport handles POST /api/reports/monthly. The report is
// rendered and sent asynchronously; the response carries the job id to poll.
func (h *ReportsHandler) RequestMonthlyReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		// Month selects the reporting month as YYYY-MM; empty means the
		// previous calendar month.
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		middleware.WriteError(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	month := time.Now().UTC().AddDate(0, -1, 0)
	if req.Month != "" {
		parsed, err := time.Parse("2006-01", req.Month)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid month, want YYYY-MM")
			return
		}
		month = parsed
	}

	job := &jobs.Job{
		Type:   jobs.JobTypeMonthlyReport,
		UserID: auth.UserID(r.Context()),
		Email:  req.Email,
		Month:  month,
	}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue report job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue report")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("month", month.Format("2006-01")).Msg("Report job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job introspection endpoints.
type JobsHandler struct {
	store jobs.Store
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.Store, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	// Jobs are user-scoped; a job belonging to someone else does not exist
	// as far as this caller is concerned.
	if job.UserID != "" && job.UserID != auth.UserID(r.Context()) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.Filter{
		UserID: auth.UserID(r.Context()),
		Type:   jobs.JobType(query.Get("type")),
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
