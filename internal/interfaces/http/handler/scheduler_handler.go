package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/scheduler"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/dto"
)

// JobScheduler is the part of the sync scheduler exposed over HTTP
type JobScheduler interface {
	Submit(key scheduler.JobKey) (*scheduler.SyncJob, error)
	GetJobHistory() []scheduler.SyncJob
}

// SchedulerHandler lists and triggers background sync jobs
type SchedulerHandler struct {
	BaseHandler
	scheduler JobScheduler
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(s JobScheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// ListJobs returns finished job attempts, most recent first
// GET /pms/scheduler/jobs
func (h *SchedulerHandler) ListJobs(c *gin.Context) {
	history := h.scheduler.GetJobHistory()
	jobs := make([]dto.SyncJobResponse, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		jobs = append(jobs, toSyncJobResponse(&history[i]))
	}
	h.Success(c, jobs)
}

// Trigger queues an incremental sync without waiting for the next tick
// POST /hotels/:hotelId/pms/:provider/schedule/:entity
func (h *SchedulerHandler) Trigger(c *gin.Context) {
	var p dto.PMSPath
	if err := c.ShouldBindUri(&p); err != nil {
		h.ValidationError(c, "Invalid path parameters", err)
		return
	}
	hotelID, provider, err := p.Parse()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	entity, err := integration.ParseEntityType(c.Param("entity"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	job, err := h.scheduler.Submit(scheduler.JobKey{HotelID: hotelID, Provider: provider, Entity: entity})
	switch {
	case err == nil:
		h.Accepted(c, toSyncJobResponse(job))
	case errors.Is(err, scheduler.ErrSyncInProgress):
		h.Error(c, http.StatusConflict, "SYNC_IN_PROGRESS", err.Error())
	case errors.Is(err, scheduler.ErrSchedulerNotRunning), errors.Is(err, scheduler.ErrJobQueueFull):
		h.Error(c, http.StatusServiceUnavailable, "SCHEDULER_UNAVAILABLE", err.Error())
	default:
		h.HandleError(c, err)
	}
}

func toSyncJobResponse(j *scheduler.SyncJob) dto.SyncJobResponse {
	resp := dto.SyncJobResponse{
		ID:          j.ID,
		HotelID:     j.HotelID,
		Provider:    j.Provider,
		EntityType:  j.Entity,
		Status:      string(j.Status),
		SyncID:      j.SyncID,
		Error:       j.Error,
		Processed:   j.Processed,
		Failed:      j.Failed,
		RetryCount:  j.RetryCount,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		NextRetryAt: j.NextRetryAt,
	}
	if !j.UpdatedSince.IsZero() {
		since := j.UpdatedSince
		resp.UpdatedSince = &since
	}
	return resp
}
