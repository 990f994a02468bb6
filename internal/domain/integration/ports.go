package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdempotencyStore remembers webhook deliveries that were already accepted
type IdempotencyStore interface {
	// Claim marks key as seen for ttl. It returns false when key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so a redelivery can be processed again
	Release(ctx context.Context, key string) error
}

// ArchivedPayload is a raw inbound or fetched vendor payload kept for audit and replay
type ArchivedPayload struct {
	HotelID       uuid.UUID
	Provider      ProviderKey
	Kind          string
	CorrelationID string
	ReceivedAt    time.Time
	Body          []byte
}

// PayloadArchive stores raw payloads. Returns the location the payload was written to.
type PayloadArchive interface {
	Archive(ctx context.Context, payload ArchivedPayload) (string, error)
}

// WebhookAuthenticator checks that a webhook body was signed by the hotel's PMS.
// Failures are INVALID_SIGNATURE IntegrationErrors.
type WebhookAuthenticator interface {
	Authenticate(hotelID uuid.UUID, provider ProviderKey, body []byte, signature string) error
}

// IdempotencyKey is the dedupe key of a webhook delivery
func IdempotencyKey(hotelID uuid.UUID, provider ProviderKey, correlationID string) string {
	return "pms:webhook:" + hotelID.String() + ":" + string(provider) + ":" + correlationID
}
