package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProviderKey identifies a PMS vendor integration
// ---------------------------------------------------------------------------

// ProviderKey identifies a PMS vendor integration
type ProviderKey string

const (
	// ProviderMews is the Mews cloud PMS (REST, bearer token)
	ProviderMews ProviderKey = "mews"
	// ProviderProtel is the protel on-premise PMS (REST, API key)
	ProviderProtel ProviderKey = "protel"
	// ProviderCloudbeds is the Cloudbeds PMS (GraphQL)
	ProviderCloudbeds ProviderKey = "cloudbeds"
	// ProviderOpera is the Oracle Opera PMS (SOAP/XML)
	ProviderOpera ProviderKey = "opera"
)

// ParseProviderKey normalizes and validates a provider key
func ParseProviderKey(s string) (ProviderKey, error) {
	key := ProviderKey(strings.ToLower(strings.TrimSpace(s)))
	if !key.IsValid() {
		return "", ErrInvalidProvider
	}
	return key, nil
}

// IsValid returns true if the provider key is known
func (k ProviderKey) IsValid() bool {
	switch k {
	case ProviderMews, ProviderProtel, ProviderCloudbeds, ProviderOpera:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProviderKey
func (k ProviderKey) String() string {
	return string(k)
}

// ---------------------------------------------------------------------------
// EntityType
// ---------------------------------------------------------------------------

// EntityType is the kind of record a sync pulls
type EntityType string

const (
	EntityBookings EntityType = "bookings"
	EntityRooms    EntityType = "rooms"
	EntityGuests   EntityType = "guests"
)

// ParseEntityType validates an entity type
func ParseEntityType(s string) (EntityType, error) {
	e := EntityType(strings.ToLower(strings.TrimSpace(s)))
	if !e.IsValid() {
		return "", ErrInvalidEntityType
	}
	return e, nil
}

// IsValid returns true if the entity type is known
func (e EntityType) IsValid() bool {
	switch e {
	case EntityBookings, EntityRooms, EntityGuests:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType
func (e EntityType) String() string {
	return string(e)
}

// NotSupportedCode returns the capability-gap error code for the entity type
func (e EntityType) NotSupportedCode() string {
	switch e {
	case EntityBookings:
		return CodeBookingsNotSupported
	case EntityRooms:
		return CodeRoomsNotSupported
	case EntityGuests:
		return CodeGuestsNotSupported
	default:
		return CodeProviderNotSupported
	}
}

// SyncedEventName returns the per-record notification for the entity type
func (e EntityType) SyncedEventName() string {
	switch e {
	case EntityRooms:
		return EventRoomSynced
	case EntityGuests:
		return EventGuestSynced
	default:
		return EventBookingSynced
	}
}

// ---------------------------------------------------------------------------
// Canonical statuses
// ---------------------------------------------------------------------------

// BookingStatus is the canonical reservation status
type BookingStatus string

const (
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusCheckedIn  BookingStatus = "CHECKED_IN"
	BookingStatusCheckedOut BookingStatus = "CHECKED_OUT"
	BookingStatusCanceled   BookingStatus = "CANCELED"
	BookingStatusNoShow     BookingStatus = "NO_SHOW"
)

// AllBookingStatuses lists every canonical booking status
var AllBookingStatuses = []BookingStatus{
	BookingStatusConfirmed, BookingStatusCheckedIn, BookingStatusCheckedOut,
	BookingStatusCanceled, BookingStatusNoShow,
}

// IsValid returns true if the status is canonical
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCheckedIn, BookingStatusCheckedOut,
		BookingStatusCanceled, BookingStatusNoShow:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the booking can no longer change on the PMS side
func (s BookingStatus) IsFinal() bool {
	return s == BookingStatusCheckedOut || s == BookingStatusCanceled || s == BookingStatusNoShow
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// RoomStatus is the canonical housekeeping/availability status
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusDirty       RoomStatus = "DIRTY"
	RoomStatusCleaning    RoomStatus = "CLEANING"
	RoomStatusInspecting  RoomStatus = "INSPECTING"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
	RoomStatusOutOfOrder  RoomStatus = "OUT_OF_ORDER"
	RoomStatusBlocked     RoomStatus = "BLOCKED"
)

// AllRoomStatuses lists every canonical room status
var AllRoomStatuses = []RoomStatus{
	RoomStatusAvailable, RoomStatusOccupied, RoomStatusDirty, RoomStatusCleaning,
	RoomStatusInspecting, RoomStatusMaintenance, RoomStatusOutOfOrder, RoomStatusBlocked,
}

// IsValid returns true if the status is canonical
func (s RoomStatus) IsValid() bool {
	switch s {
	case RoomStatusAvailable, RoomStatusOccupied, RoomStatusDirty, RoomStatusCleaning,
		RoomStatusInspecting, RoomStatusMaintenance, RoomStatusOutOfOrder, RoomStatusBlocked:
		return true
	default:
		return false
	}
}

// String returns the string representation of RoomStatus
func (s RoomStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Normalized records
// ---------------------------------------------------------------------------

// NormalizedBooking is a vendor reservation in canonical form
type NormalizedBooking struct {
	// ExternalID is the vendor identifier; dedup key per (hotel, provider)
	ExternalID string `json:"externalId"`
	// GuestID is the vendor identifier of the primary guest
	GuestID string `json:"guestId,omitempty"`
	// RoomID is the vendor identifier of the assigned room
	RoomID             string          `json:"roomId,omitempty"`
	RoomNumber         string          `json:"roomNumber,omitempty"`
	ConfirmationNumber string          `json:"confirmationNumber,omitempty"`
	Status             BookingStatus   `json:"status"`
	CheckInDate        time.Time       `json:"checkInDate"`
	CheckOutDate       time.Time       `json:"checkOutDate"`
	NumberOfGuests     int             `json:"numberOfGuests"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Currency           string          `json:"currency,omitempty"`
	// LastModified is the vendor's own modification timestamp, zero when unknown
	LastModified time.Time `json:"lastModified"`
}

// NormalizedRoom is a vendor room in canonical form
type NormalizedRoom struct {
	ExternalID   string     `json:"externalId"`
	RoomNumber   string     `json:"roomNumber"`
	Floor        *int       `json:"floor,omitempty"`
	Status       RoomStatus `json:"status"`
	RoomType     string     `json:"roomType,omitempty"`
	MaxOccupancy int        `json:"maxOccupancy,omitempty"`
	Amenities    []string   `json:"amenities,omitempty"`
}

// NormalizedGuest is a vendor guest profile in canonical form
type NormalizedGuest struct {
	ExternalID  string          `json:"externalId"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Country     string          `json:"country,omitempty"`
	LoyaltyTier string          `json:"loyaltyTier,omitempty"`
	TotalStays  int             `json:"totalStays"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}

// ---------------------------------------------------------------------------
// Request values
// ---------------------------------------------------------------------------

// Scope identifies who a call is made for
type Scope struct {
	HotelID uuid.UUID
	// SyncID correlates every request of one sync invocation; empty for ad-hoc calls
	SyncID string
}

// FetchOptions narrows a bulk fetch
type FetchOptions struct {
	// UpdatedSince limits results to records modified after this instant (zero = all)
	UpdatedSince time.Time
	// From and To bound stay dates for booking fetches (zero = unbounded)
	From time.Time
	To   time.Time
	// Limit caps the number of records requested (0 = vendor default)
	Limit int
}

// BookingDraft is an outbound reservation request
type BookingDraft struct {
	GuestFirstName string          `json:"guestFirstName" validate:"required,max=100"`
	GuestLastName  string          `json:"guestLastName" validate:"required,max=100"`
	GuestEmail     string          `json:"guestEmail,omitempty" validate:"omitempty,email"`
	GuestPhone     string          `json:"guestPhone,omitempty" validate:"omitempty,max=32"`
	RoomTypeCode   string          `json:"roomTypeCode" validate:"required,max=50"`
	RatePlanCode   string          `json:"ratePlanCode,omitempty" validate:"omitempty,max=50"`
	CheckInDate    time.Time       `json:"checkInDate" validate:"required"`
	CheckOutDate   time.Time       `json:"checkOutDate" validate:"required,gtfield=CheckInDate"`
	NumberOfGuests int             `json:"numberOfGuests" validate:"required,min=1,max=20"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Notes          string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ConnectionResult is the outcome of a connectivity probe
type ConnectionResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Latency time.Duration     `json:"latency"`
	Details map[string]string `json:"details,omitempty"`
}
