package jobs

import (
	"context"
	"time"
)

// JobType names a kind of background work.
type JobType string

const (
	// JobTypeMonthlyReport renders and emails one user's monthly report.
	JobTypeMonthlyReport JobType = "monthly_report"
	// JobTypeRecurringScan materializes all due recurring transactions.
	JobTypeRecurringScan JobType = "recurring_scan"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// Job is one unit of background work. Payload fields are a union across job
// types: a monthly report carries UserID/Email/Month, a recurring scan
// carries nothing beyond its type.
type Job struct {
	JobID string  `json:"job_id"`
	Type  JobType `json:"type"`

	// UserID is the report recipient's user id (monthly_report only).
	UserID string `json:"user_id,omitempty"`
	// Email is the delivery address (monthly_report only).
	Email string `json:"email,omitempty"`
	// Month is any instant inside the month being reported on.
	Month time.Time `json:"month,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Publisher enqueues jobs for asynchronous processing.
type Publisher interface {
	Publish(ctx context.Context, job *Job) error
	Close() error
}

// Consumer drains the queue through a handler.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}

// Handler processes one job. A returned error marks the job for retry.
type Handler func(ctx context.Context, job *Job) error

// Store tracks job state for introspection.
type Store interface {
	SaveJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	ListJobs(ctx context.Context, filter Filter) ([]*Job, error)
}

// Filter selects jobs in Store.ListJobs.
type Filter struct {
	Type   JobType
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
