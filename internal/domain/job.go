package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus moves strictly forward: pending -> processing -> completed|failed.
// Cancelled exists in the taxonomy for forward compatibility; nothing
// transitions into it today.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// InFlight reports whether the status still occupies the per-account slot.
func (s JobStatus) InFlight() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// AnalysisJob is one unit of analysis work. Progress is monotonically
// non-decreasing within a run.
type AnalysisJob struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountID     uuid.UUID
	Status        JobStatus
	Progress      int
	CurrentStep   string
	PostsFetched  int
	PostsAnalyzed int
	ErrorMessage  string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
}
