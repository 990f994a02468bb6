package integration

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Protocol is the wire style a vendor speaks
type Protocol string

const (
	ProtocolREST    Protocol = "REST"
	ProtocolGraphQL Protocol = "GRAPHQL"
	ProtocolSOAP    Protocol = "SOAP"
)

// RateLimit is the request budget a vendor declares. Zero means unlimited.
type RateLimit struct {
	PerMinute int `json:"perMinute"`
	PerHour   int `json:"perHour"`
}

// AdapterMetadata describes a configured adapter
type AdapterMetadata struct {
	Vendor               string      `json:"vendor"`
	Provider             ProviderKey `json:"provider"`
	Protocol             Protocol    `json:"protocol"`
	RateLimit            RateLimit   `json:"rateLimit"`
	SupportsWebhooks     bool        `json:"supportsWebhooks"`
	SupportsRealTimeSync bool        `json:"supportsRealTimeSync"`
}

// ProviderAdapter is the port every PMS vendor integration implements.
// Fetches return records already in canonical form; an unsupported fetch fails with
// the entity's *_NOT_SUPPORTED code rather than returning an empty slice.
// All errors crossing this boundary are *IntegrationError.
type ProviderAdapter interface {
	// Metadata returns the static description of the adapter
	Metadata() AdapterMetadata

	// FetchBookings pulls reservations from the PMS
	FetchBookings(ctx context.Context, scope Scope, opts FetchOptions) ([]NormalizedBooking, error)

	// FetchRooms pulls rooms with their housekeeping status
	FetchRooms(ctx context.Context, scope Scope, opts FetchOptions) ([]NormalizedRoom, error)

	// FetchGuests pulls guest profiles
	FetchGuests(ctx context.Context, scope Scope, opts FetchOptions) ([]NormalizedGuest, error)

	// CreateBooking creates a reservation on the PMS and returns its external ID
	CreateBooking(ctx context.Context, scope Scope, draft BookingDraft) (string, error)

	// CancelBooking cancels a reservation on the PMS
	CancelBooking(ctx context.Context, scope Scope, externalID string) error

	// TestConnection probes credentials and reachability
	TestConnection(ctx context.Context, scope Scope) (*ConnectionResult, error)

	// NormalizeBooking converts a single vendor booking payload (webhook body) to canonical form
	NormalizeBooking(payload json.RawMessage) (*NormalizedBooking, error)
}

// AdapterRegistry resolves the adapter configured for a hotel and provider.
// Implementations are immutable after construction.
type AdapterRegistry interface {
	// Get returns the adapter for the hotel, falling back to the provider-wide default.
	// Returns a PROVIDER_NOT_SUPPORTED IntegrationError when none is registered.
	Get(hotelID uuid.UUID, provider ProviderKey) (ProviderAdapter, error)

	// Providers lists the provider keys with at least one adapter
	Providers() []ProviderKey
}
