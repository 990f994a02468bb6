package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/pms"
)

// SyncJobStatus represents the status of a scheduled sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// JobKey identifies what a job synchronizes
type JobKey struct {
	HotelID  uuid.UUID
	Provider integration.ProviderKey
	Entity   integration.EntityType
}

func (k JobKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.HotelID, k.Provider, k.Entity)
}

// SyncJob is one scheduled execution of a sync
type SyncJob struct {
	ID uuid.UUID
	JobKey
	// UpdatedSince makes the fetch incremental; zero fetches everything
	UpdatedSince time.Time
	Status       SyncJobStatus
	Error        string
	SyncID       string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	RetryCount   int
	MaxRetries   int
	NextRetryAt  *time.Time

	Processed int
	Failed    int
}

// NewSyncJob creates a pending job
func NewSyncJob(key JobKey, updatedSince time.Time, maxRetries int) *SyncJob {
	return &SyncJob{
		ID:           uuid.New(),
		JobKey:       key,
		UpdatedSince: updatedSince,
		Status:       SyncJobStatusPending,
		MaxRetries:   maxRetries,
	}
}

// Start marks the job as running
func (j *SyncJob) Start(now time.Time) {
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the outcome of a sync that ran to the end
func (j *SyncJob) Complete(summary *integration.SyncSummary, now time.Time) {
	j.CompletedAt = &now
	j.SyncID = summary.SyncID
	j.Processed = summary.Processed
	j.Failed = summary.Failed

	switch {
	case summary.Failed == 0:
		j.Status = SyncJobStatusSuccess
	case summary.Processed > 0:
		j.Status = SyncJobStatusPartial
	default:
		j.Status = SyncJobStatusFailed
		j.Error = fmt.Sprintf("all %d records failed", summary.Failed)
	}
}

// Fail marks the job as failed
func (j *SyncJob) Fail(err error, now time.Time) {
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err.Error()
}

// ShouldRetry returns true if the job failed and has attempts left
func (j *SyncJob) ShouldRetry() bool {
	return j.Status == SyncJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry puts the job back to pending after the client retry curve
// (baseDelay doubling, capped at maxDelay) and returns that delay
func (j *SyncJob) ScheduleRetry(baseDelay, maxDelay time.Duration, now time.Time) time.Duration {
	j.RetryCount++
	j.Status = SyncJobStatusPending
	policy := pms.RetryOptions{InitialDelay: baseDelay, MaxDelay: maxDelay, BackoffMultiplier: 2}
	delay := policy.Delay(j.RetryCount - 1)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	next := now.Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
	return delay
}
