package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification names emitted by the sync engine
const (
	EventSyncCompleted = "pms.sync.completed"
	EventSyncFailed    = "pms.sync.failed"
	EventBookingSynced = "pms.booking.synced"
	EventRoomSynced    = "pms.room.synced"
	EventGuestSynced   = "pms.guest.synced"
)

// EventPayload is the body of every PMS notification. HotelID, Provider and Timestamp
// are always set; the rest depends on the event.
type EventPayload struct {
	HotelID   uuid.UUID   `json:"hotelId"`
	Provider  ProviderKey `json:"provider"`
	Timestamp time.Time   `json:"timestamp"`

	SyncID     string     `json:"syncId,omitempty"`
	EntityType EntityType `json:"entityType,omitempty"`

	// Sync lifecycle
	Processed   int        `json:"processed"`
	Failed      int        `json:"failed"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ErrorCode   string     `json:"errorCode,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Per record
	ExternalID    string       `json:"externalId,omitempty"`
	LocalID       *uuid.UUID   `json:"localId,omitempty"`
	Action        UpsertAction `json:"action,omitempty"`
	CorrelationID string       `json:"correlationId,omitempty"`
}

// Notifier delivers PMS notifications. Callers treat delivery as best effort.
type Notifier interface {
	Emit(ctx context.Context, eventName string, payload EventPayload) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, eventName string, payload EventPayload) error

// Emit calls f
func (f NotifierFunc) Emit(ctx context.Context, eventName string, payload EventPayload) error {
	return f(ctx, eventName, payload)
}

// NewSyncCompletedPayload builds the pms.sync.completed body
func NewSyncCompletedPayload(s *SyncSummary) EventPayload {
	started, completed := s.StartedAt, s.CompletedAt
	return EventPayload{
		HotelID:     s.HotelID,
		Provider:    s.Provider,
		Timestamp:   completed,
		SyncID:      s.SyncID,
		EntityType:  s.EntityType,
		Processed:   s.Processed,
		Failed:      s.Failed,
		StartedAt:   &started,
		CompletedAt: &completed,
	}
}

// NewSyncFailedPayload builds the pms.sync.failed body
func NewSyncFailedPayload(s *SyncSummary, cause error) EventPayload {
	p := NewSyncCompletedPayload(s)
	p.ErrorCode = CodeOf(cause)
	if cause != nil {
		p.Error = cause.Error()
	}
	return p
}

// NewRecordSyncedPayload builds the pms.<entity>.synced body
func NewRecordSyncedPayload(s *SyncSummary, r SyncedRecord, correlationID string, at time.Time) EventPayload {
	localID := r.LocalID
	return EventPayload{
		HotelID:       s.HotelID,
		Provider:      s.Provider,
		Timestamp:     at,
		SyncID:        s.SyncID,
		EntityType:    s.EntityType,
		ExternalID:    r.ExternalID,
		LocalID:       &localID,
		Action:        r.Action,
		CorrelationID: correlationID,
	}
}
