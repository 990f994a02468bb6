package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// SyncJobResponse describes one scheduled sync attempt
type SyncJobResponse struct {
	ID           uuid.UUID               `json:"id"`
	HotelID      uuid.UUID               `json:"hotelId"`
	Provider     integration.ProviderKey `json:"provider"`
	EntityType   integration.EntityType  `json:"entityType"`
	Status       string                  `json:"status"`
	UpdatedSince *time.Time              `json:"updatedSince,omitempty"`
	SyncID       string                  `json:"syncId,omitempty"`
	Error        string                  `json:"error,omitempty"`
	Processed    int                     `json:"processed"`
	Failed       int                     `json:"failed"`
	RetryCount   int                     `json:"retryCount"`
	StartedAt    *time.Time              `json:"startedAt,omitempty"`
	CompletedAt  *time.Time              `json:"completedAt,omitempty"`
	NextRetryAt  *time.Time              `json:"nextRetryAt,omitempty"`
}
