package integration

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SyncState is the lifecycle state of one sync invocation
type SyncState string

const (
	SyncStateStarted   SyncState = "STARTED"
	SyncStateCompleted SyncState = "COMPLETED"
	SyncStateFailed    SyncState = "FAILED"
)

// UpsertAction tells what reconciliation did with one record
type UpsertAction string

const (
	UpsertCreated   UpsertAction = "CREATED"
	UpsertUpdated   UpsertAction = "UPDATED"
	UpsertUnchanged UpsertAction = "UNCHANGED"
)

// SyncedRecord is one successfully reconciled record. Exactly one of Booking, Room
// or Guest is set, matching the summary's EntityType.
type SyncedRecord struct {
	ExternalID string             `json:"externalId"`
	LocalID    uuid.UUID          `json:"localId"`
	Action     UpsertAction       `json:"action"`
	Booking    *NormalizedBooking `json:"booking,omitempty"`
	Room       *NormalizedRoom    `json:"room,omitempty"`
	Guest      *NormalizedGuest   `json:"guest,omitempty"`
}

// SyncFailure is one record that could not be reconciled
type SyncFailure struct {
	ExternalID string `json:"externalId"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// SyncSummary is the result of one sync invocation. Processed + Failed always equals the
// number of records attempted; a summary is produced even when items fail.
type SyncSummary struct {
	SyncID      string         `json:"syncId"`
	HotelID     uuid.UUID      `json:"hotelId"`
	Provider    ProviderKey    `json:"provider"`
	EntityType  EntityType     `json:"entityType"`
	State       SyncState      `json:"state"`
	Processed   int            `json:"processed"`
	Failed      int            `json:"failed"`
	Records     []SyncedRecord `json:"records"`
	Errors      []SyncFailure  `json:"errors"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt time.Time      `json:"completedAt"`
}

// NewSyncSummary starts a summary in STARTED state
func NewSyncSummary(syncID string, hotelID uuid.UUID, provider ProviderKey, entity EntityType, startedAt time.Time) *SyncSummary {
	return &SyncSummary{
		SyncID:     syncID,
		HotelID:    hotelID,
		Provider:   provider,
		EntityType: entity,
		State:      SyncStateStarted,
		Records:    []SyncedRecord{},
		Errors:     []SyncFailure{},
		StartedAt:  startedAt,
	}
}

// AddRecord counts a reconciled record
func (s *SyncSummary) AddRecord(r SyncedRecord) {
	s.Processed++
	s.Records = append(s.Records, r)
}

// AddFailure counts a failed record
func (s *SyncSummary) AddFailure(externalID string, err error) {
	code := CodeOf(err)
	if code == "" {
		code = CodeUpsertFailed
	}
	msg := ""
	if ie, ok := AsIntegrationError(err); ok {
		msg = ie.Message
	} else if err != nil {
		msg = err.Error()
	}
	s.Failed++
	s.Errors = append(s.Errors, SyncFailure{ExternalID: externalID, Code: code, Message: msg})
}

// Complete moves the summary to COMPLETED
func (s *SyncSummary) Complete(at time.Time) {
	s.State = SyncStateCompleted
	s.CompletedAt = at
}

// Fail moves the summary to FAILED
func (s *SyncSummary) Fail(at time.Time) {
	s.State = SyncStateFailed
	s.CompletedAt = at
}

// Attempted returns the number of records reconciliation was tried on
func (s *SyncSummary) Attempted() int {
	return s.Processed + s.Failed
}

// Duration returns the wall-clock duration of a finished sync
func (s *SyncSummary) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// ---------------------------------------------------------------------------
// Webhook payload
// ---------------------------------------------------------------------------

// WebhookMetadata is optional delivery metadata sent with a webhook
type WebhookMetadata struct {
	CorrelationID string `json:"correlationId,omitempty"`
	EventType     string `json:"eventType,omitempty"`
}

// WebhookPayload is the inbound webhook body: {booking, metadata?}
type WebhookPayload struct {
	Booking  json.RawMessage  `json:"booking"`
	Metadata *WebhookMetadata `json:"metadata,omitempty"`
}

// CorrelationID returns the delivery correlation ID or ""
func (p WebhookPayload) CorrelationID() string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata.CorrelationID
}
