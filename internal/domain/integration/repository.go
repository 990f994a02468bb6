package integration

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Stored records
// ---------------------------------------------------------------------------

const (
	// StoredTimePrecision is the resolution timestamps keep once stored
	StoredTimePrecision = time.Microsecond
	// StoredAmountScale is the number of decimal places amounts keep once stored
	StoredAmountScale = 4
)

// ForStorage returns b with timestamps and amounts reduced to the precision
// the store keeps, so a stored record compares equal to the one it came from.
func (b NormalizedBooking) ForStorage() NormalizedBooking {
	b.CheckInDate = storedTime(b.CheckInDate)
	b.CheckOutDate = storedTime(b.CheckOutDate)
	b.LastModified = storedTime(b.LastModified)
	b.TotalAmount = b.TotalAmount.Round(StoredAmountScale)
	return b
}

// ForStorage returns g with amounts reduced to the stored scale
func (g NormalizedGuest) ForStorage() NormalizedGuest {
	g.TotalSpent = g.TotalSpent.Round(StoredAmountScale)
	return g
}

func storedTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.Truncate(StoredTimePrecision)
}

// BookingRecord is a booking as held in the local store
type BookingRecord struct {
	ID       uuid.UUID
	HotelID  uuid.UUID
	Provider ProviderKey
	NormalizedBooking
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoomRecord is a room as held in the local store
type RoomRecord struct {
	ID       uuid.UUID
	HotelID  uuid.UUID
	Provider ProviderKey
	NormalizedRoom
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GuestRecord is a guest profile as held in the local store
type GuestRecord struct {
	ID       uuid.UUID
	HotelID  uuid.UUID
	Provider ProviderKey
	NormalizedGuest
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ---------------------------------------------------------------------------
// Store ports
// ---------------------------------------------------------------------------

// BookingStore persists synchronized bookings, keyed by (hotel, provider, external ID)
type BookingStore interface {
	// FindByExternalID returns ErrRecordNotFound when absent
	FindByExternalID(ctx context.Context, hotelID uuid.UUID, provider ProviderKey, externalID string) (*BookingRecord, error)
	Create(ctx context.Context, record *BookingRecord) error
	Update(ctx context.Context, id uuid.UUID, patch BookingPatch) error
}

// RoomStore persists synchronized rooms
type RoomStore interface {
	FindByExternalID(ctx context.Context, hotelID uuid.UUID, provider ProviderKey, externalID string) (*RoomRecord, error)
	Create(ctx context.Context, record *RoomRecord) error
	Update(ctx context.Context, id uuid.UUID, patch RoomPatch) error
}

// GuestStore persists synchronized guest profiles
type GuestStore interface {
	FindByExternalID(ctx context.Context, hotelID uuid.UUID, provider ProviderKey, externalID string) (*GuestRecord, error)
	Create(ctx context.Context, record *GuestRecord) error
	Update(ctx context.Context, id uuid.UUID, patch GuestPatch) error
}

// ---------------------------------------------------------------------------
// Patches
// ---------------------------------------------------------------------------

// BookingPatch holds the booking fields that changed. Nil fields are left untouched.
type BookingPatch struct {
	Status             *BookingStatus
	GuestID            *string
	RoomID             *string
	RoomNumber         *string
	ConfirmationNumber *string
	CheckInDate        *time.Time
	CheckOutDate       *time.Time
	NumberOfGuests     *int
	TotalAmount        *decimal.Decimal
	Currency           *string
	LastModified       *time.Time
	SyncedAt           time.Time
}

// IsEmpty reports whether no domain field changed
func (p BookingPatch) IsEmpty() bool {
	return p.Status == nil && p.GuestID == nil && p.RoomID == nil && p.RoomNumber == nil &&
		p.ConfirmationNumber == nil && p.CheckInDate == nil && p.CheckOutDate == nil &&
		p.NumberOfGuests == nil && p.TotalAmount == nil && p.Currency == nil && p.LastModified == nil
}

// DiffBooking returns the changes needed to turn current into incoming.
// Empty incoming identifiers never erase stored values.
func DiffBooking(current, incoming NormalizedBooking) BookingPatch {
	var p BookingPatch
	if incoming.Status != current.Status {
		p.Status = &incoming.Status
	}
	p.GuestID = diffString(current.GuestID, incoming.GuestID)
	p.RoomID = diffString(current.RoomID, incoming.RoomID)
	p.RoomNumber = diffString(current.RoomNumber, incoming.RoomNumber)
	p.ConfirmationNumber = diffString(current.ConfirmationNumber, incoming.ConfirmationNumber)
	p.CheckInDate = diffTime(current.CheckInDate, incoming.CheckInDate)
	p.CheckOutDate = diffTime(current.CheckOutDate, incoming.CheckOutDate)
	if incoming.NumberOfGuests > 0 && incoming.NumberOfGuests != current.NumberOfGuests {
		p.NumberOfGuests = &incoming.NumberOfGuests
	}
	p.TotalAmount = diffAmount(current.TotalAmount, incoming.TotalAmount)
	p.Currency = diffString(current.Currency, incoming.Currency)
	p.LastModified = diffTime(current.LastModified, incoming.LastModified)
	return p
}

// Apply writes the patch onto b
func (p BookingPatch) Apply(b *NormalizedBooking) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	applyString(&b.GuestID, p.GuestID)
	applyString(&b.RoomID, p.RoomID)
	applyString(&b.RoomNumber, p.RoomNumber)
	applyString(&b.ConfirmationNumber, p.ConfirmationNumber)
	applyTime(&b.CheckInDate, p.CheckInDate)
	applyTime(&b.CheckOutDate, p.CheckOutDate)
	if p.NumberOfGuests != nil {
		b.NumberOfGuests = *p.NumberOfGuests
	}
	if p.TotalAmount != nil {
		b.TotalAmount = *p.TotalAmount
	}
	applyString(&b.Currency, p.Currency)
	applyTime(&b.LastModified, p.LastModified)
}

// RoomPatch holds the room fields that changed
type RoomPatch struct {
	RoomNumber   *string
	Floor        *int
	Status       *RoomStatus
	RoomType     *string
	MaxOccupancy *int
	Amenities    *[]string
	SyncedAt     time.Time
}

// IsEmpty reports whether no domain field changed
func (p RoomPatch) IsEmpty() bool {
	return p.RoomNumber == nil && p.Floor == nil && p.Status == nil &&
		p.RoomType == nil && p.MaxOccupancy == nil && p.Amenities == nil
}

// DiffRoom returns the changes needed to turn current into incoming
func DiffRoom(current, incoming NormalizedRoom) RoomPatch {
	var p RoomPatch
	p.RoomNumber = diffString(current.RoomNumber, incoming.RoomNumber)
	if incoming.Floor != nil && (current.Floor == nil || *current.Floor != *incoming.Floor) {
		floor := *incoming.Floor
		p.Floor = &floor
	}
	if incoming.Status != current.Status {
		p.Status = &incoming.Status
	}
	p.RoomType = diffString(current.RoomType, incoming.RoomType)
	if incoming.MaxOccupancy > 0 && incoming.MaxOccupancy != current.MaxOccupancy {
		p.MaxOccupancy = &incoming.MaxOccupancy
	}
	if incoming.Amenities != nil && !slices.Equal(current.Amenities, incoming.Amenities) {
		amenities := slices.Clone(incoming.Amenities)
		p.Amenities = &amenities
	}
	return p
}

// Apply writes the patch onto r
func (p RoomPatch) Apply(r *NormalizedRoom) {
	applyString(&r.RoomNumber, p.RoomNumber)
	if p.Floor != nil {
		floor := *p.Floor
		r.Floor = &floor
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	applyString(&r.RoomType, p.RoomType)
	if p.MaxOccupancy != nil {
		r.MaxOccupancy = *p.MaxOccupancy
	}
	if p.Amenities != nil {
		r.Amenities = slices.Clone(*p.Amenities)
	}
}

// GuestPatch holds the guest fields that changed
type GuestPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	Country     *string
	LoyaltyTier *string
	TotalStays  *int
	TotalSpent  *decimal.Decimal
	SyncedAt    time.Time
}

// IsEmpty reports whether no domain field changed
func (p GuestPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil &&
		p.Country == nil && p.LoyaltyTier == nil && p.TotalStays == nil && p.TotalSpent == nil
}

// DiffGuest returns the changes needed to turn current into incoming
func DiffGuest(current, incoming NormalizedGuest) GuestPatch {
	var p GuestPatch
	p.FirstName = diffString(current.FirstName, incoming.FirstName)
	p.LastName = diffString(current.LastName, incoming.LastName)
	p.Email = diffString(current.Email, incoming.Email)
	p.Phone = diffString(current.Phone, incoming.Phone)
	p.Country = diffString(current.Country, incoming.Country)
	p.LoyaltyTier = diffString(current.LoyaltyTier, incoming.LoyaltyTier)
	if incoming.TotalStays != current.TotalStays {
		p.TotalStays = &incoming.TotalStays
	}
	p.TotalSpent = diffAmount(current.TotalSpent, incoming.TotalSpent)
	return p
}

// Apply writes the patch onto g
func (p GuestPatch) Apply(g *NormalizedGuest) {
	applyString(&g.FirstName, p.FirstName)
	applyString(&g.LastName, p.LastName)
	applyString(&g.Email, p.Email)
	applyString(&g.Phone, p.Phone)
	applyString(&g.Country, p.Country)
	applyString(&g.LoyaltyTier, p.LoyaltyTier)
	if p.TotalStays != nil {
		g.TotalStays = *p.TotalStays
	}
	if p.TotalSpent != nil {
		g.TotalSpent = *p.TotalSpent
	}
}

func diffString(current, incoming string) *string {
	if incoming == "" || incoming == current {
		return nil
	}
	return &incoming
}

// diffTime compares at stored precision
func diffTime(current, incoming time.Time) *time.Time {
	if incoming.IsZero() {
		return nil
	}
	incoming = storedTime(incoming)
	if incoming.Equal(storedTime(current)) {
		return nil
	}
	return &incoming
}

func diffAmount(current, incoming decimal.Decimal) *decimal.Decimal {
	incoming = incoming.Round(StoredAmountScale)
	if incoming.Equal(current.Round(StoredAmountScale)) {
		return nil
	}
	return &incoming
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyTime(dst *time.Time, v *time.Time) {
	if v != nil {
		*dst = *v
	}
}
