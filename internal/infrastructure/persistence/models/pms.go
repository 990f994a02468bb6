package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// SyncedModel carries the columns shared by every record mirrored from a PMS.
// (hotel_id, provider, external_id) is unique per table.
type SyncedModel struct {
	ID           uuid.UUID               `gorm:"type:uuid;primaryKey"`
	HotelID      uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:,composite:external_ref,priority:1"`
	Provider     integration.ProviderKey `gorm:"type:varchar(32);not null;uniqueIndex:,composite:external_ref,priority:2"`
	ExternalID   string                  `gorm:"type:varchar(128);not null;uniqueIndex:,composite:external_ref,priority:3"`
	LastSyncedAt time.Time               `gorm:"not null;index"`
	CreatedAt    time.Time               `gorm:"not null"`
	UpdatedAt    time.Time               `gorm:"not null"`
}

// PMSBookingModel is the persistence model for a synchronized booking
type PMSBookingModel struct {
	SyncedModel
	GuestExternalID    string                    `gorm:"type:varchar(128)"`
	RoomExternalID     string                    `gorm:"type:varchar(128)"`
	RoomNumber         string                    `gorm:"type:varchar(32)"`
	ConfirmationNumber string                    `gorm:"type:varchar(64)"`
	Status             integration.BookingStatus `gorm:"type:varchar(20);not null;index"`
	CheckInDate        time.Time
	CheckOutDate       time.Time
	NumberOfGuests     int             `gorm:"not null;default:0"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency           string          `gorm:"type:varchar(3)"`
	VendorModifiedAt   time.Time
}

// TableName returns the table name for GORM
func (PMSBookingModel) TableName() string {
	return "pms_bookings"
}

// ToDomain converts the persistence model to a domain BookingRecord
func (m *PMSBookingModel) ToDomain() *integration.BookingRecord {
	return &integration.BookingRecord{
		ID:       m.ID,
		HotelID:  m.HotelID,
		Provider: m.Provider,
		NormalizedBooking: integration.NormalizedBooking{
			ExternalID:         m.ExternalID,
			GuestID:            m.GuestExternalID,
			RoomID:             m.RoomExternalID,
			RoomNumber:         m.RoomNumber,
			ConfirmationNumber: m.ConfirmationNumber,
			Status:             m.Status,
			CheckInDate:        m.CheckInDate,
			CheckOutDate:       m.CheckOutDate,
			NumberOfGuests:     m.NumberOfGuests,
			TotalAmount:        m.TotalAmount,
			Currency:           m.Currency,
			LastModified:       m.VendorModifiedAt,
		},
		LastSyncedAt: m.LastSyncedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PMSBookingModelFromDomain creates a persistence model from a domain BookingRecord
func PMSBookingModelFromDomain(r *integration.BookingRecord) *PMSBookingModel {
	return &PMSBookingModel{
		SyncedModel:        syncedFrom(r.ID, r.HotelID, r.Provider, r.ExternalID, r.LastSyncedAt, r.CreatedAt, r.UpdatedAt),
		GuestExternalID:    r.GuestID,
		RoomExternalID:     r.RoomID,
		RoomNumber:         r.RoomNumber,
		ConfirmationNumber: r.ConfirmationNumber,
		Status:             r.Status,
		CheckInDate:        r.CheckInDate,
		CheckOutDate:       r.CheckOutDate,
		NumberOfGuests:     r.NumberOfGuests,
		TotalAmount:        r.TotalAmount,
		Currency:           r.Currency,
		VendorModifiedAt:   r.LastModified,
	}
}

// BookingPatchColumns returns the column assignments for the non-nil fields of p
func BookingPatchColumns(p integration.BookingPatch) map[string]any {
	cols := map[string]any{"last_synced_at": p.SyncedAt}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	setIf(cols, "guest_external_id", p.GuestID)
	setIf(cols, "room_external_id", p.RoomID)
	setIf(cols, "room_number", p.RoomNumber)
	setIf(cols, "confirmation_number", p.ConfirmationNumber)
	setIf(cols, "check_in_date", p.CheckInDate)
	setIf(cols, "check_out_date", p.CheckOutDate)
	setIf(cols, "number_of_guests", p.NumberOfGuests)
	setIf(cols, "total_amount", p.TotalAmount)
	setIf(cols, "currency", p.Currency)
	setIf(cols, "vendor_modified_at", p.LastModified)
	return cols
}

// PMSRoomModel is the persistence model for a synchronized room
type PMSRoomModel struct {
	SyncedModel
	RoomNumber   string                 `gorm:"type:varchar(32);not null"`
	Floor        *int                   `gorm:"column:floor"`
	Status       integration.RoomStatus `gorm:"type:varchar(20);not null;index"`
	RoomType     string                 `gorm:"type:varchar(64)"`
	MaxOccupancy int                    `gorm:"not null;default:0"`
	Amenities    []string               `gorm:"serializer:json;type:text"`
}

// TableName returns the table name for GORM
func (PMSRoomModel) TableName() string {
	return "pms_rooms"
}

// ToDomain converts the persistence model to a domain RoomRecord
func (m *PMSRoomModel) ToDomain() *integration.RoomRecord {
	return &integration.RoomRecord{
		ID:       m.ID,
		HotelID:  m.HotelID,
		Provider: m.Provider,
		NormalizedRoom: integration.NormalizedRoom{
			ExternalID:   m.ExternalID,
			RoomNumber:   m.RoomNumber,
			Floor:        m.Floor,
			Status:       m.Status,
			RoomType:     m.RoomType,
			MaxOccupancy: m.MaxOccupancy,
			Amenities:    m.Amenities,
		},
		LastSyncedAt: m.LastSyncedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PMSRoomModelFromDomain creates a persistence model from a domain RoomRecord
func PMSRoomModelFromDomain(r *integration.RoomRecord) *PMSRoomModel {
	return &PMSRoomModel{
		SyncedModel:  syncedFrom(r.ID, r.HotelID, r.Provider, r.ExternalID, r.LastSyncedAt, r.CreatedAt, r.UpdatedAt),
		RoomNumber:   r.RoomNumber,
		Floor:        r.Floor,
		Status:       r.Status,
		RoomType:     r.RoomType,
		MaxOccupancy: r.MaxOccupancy,
		Amenities:    r.Amenities,
	}
}

// RoomPatchColumns returns the column assignments for the non-nil fields of p.
// Map updates bypass field serializers, so amenities are encoded here.
func RoomPatchColumns(p integration.RoomPatch) map[string]any {
	cols := map[string]any{"last_synced_at": p.SyncedAt}
	setIf(cols, "room_number", p.RoomNumber)
	setIf(cols, "floor", p.Floor)
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	setIf(cols, "room_type", p.RoomType)
	setIf(cols, "max_occupancy", p.MaxOccupancy)
	if p.Amenities != nil {
		encoded, _ := json.Marshal(*p.Amenities) // []string always encodes
		cols["amenities"] = string(encoded)
	}
	return cols
}

// PMSGuestModel is the persistence model for a synchronized guest profile
type PMSGuestModel struct {
	SyncedModel
	FirstName   string          `gorm:"type:varchar(100)"`
	LastName    string          `gorm:"type:varchar(100)"`
	Email       string          `gorm:"type:varchar(255);index"`
	Phone       string          `gorm:"type:varchar(32)"`
	Country     string          `gorm:"type:varchar(64)"`
	LoyaltyTier string          `gorm:"type:varchar(32)"`
	TotalStays  int             `gorm:"not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PMSGuestModel) TableName() string {
	return "pms_guests"
}

// ToDomain converts the persistence model to a domain GuestRecord
func (m *PMSGuestModel) ToDomain() *integration.GuestRecord {
	return &integration.GuestRecord{
		ID:       m.ID,
		HotelID:  m.HotelID,
		Provider: m.Provider,
		NormalizedGuest: integration.NormalizedGuest{
			ExternalID:  m.ExternalID,
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			Email:       m.Email,
			Phone:       m.Phone,
			Country:     m.Country,
			LoyaltyTier: m.LoyaltyTier,
			TotalStays:  m.TotalStays,
			TotalSpent:  m.TotalSpent,
		},
		LastSyncedAt: m.LastSyncedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PMSGuestModelFromDomain creates a persistence model from a domain GuestRecord
func PMSGuestModelFromDomain(r *integration.GuestRecord) *PMSGuestModel {
	return &PMSGuestModel{
		SyncedModel: syncedFrom(r.ID, r.HotelID, r.Provider, r.ExternalID, r.LastSyncedAt, r.CreatedAt, r.UpdatedAt),
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Country:     r.Country,
		LoyaltyTier: r.LoyaltyTier,
		TotalStays:  r.TotalStays,
		TotalSpent:  r.TotalSpent,
	}
}

// GuestPatchColumns returns the column assignments for the non-nil fields of p
func GuestPatchColumns(p integration.GuestPatch) map[string]any {
	cols := map[string]any{"last_synced_at": p.SyncedAt}
	setIf(cols, "first_name", p.FirstName)
	setIf(cols, "last_name", p.LastName)
	setIf(cols, "email", p.Email)
	setIf(cols, "phone", p.Phone)
	setIf(cols, "country", p.Country)
	setIf(cols, "loyalty_tier", p.LoyaltyTier)
	setIf(cols, "total_stays", p.TotalStays)
	setIf(cols, "total_spent", p.TotalSpent)
	return cols
}

func syncedFrom(id, hotelID uuid.UUID, provider integration.ProviderKey, externalID string, syncedAt, createdAt, updatedAt time.Time) SyncedModel {
	return SyncedModel{
		ID:           id,
		HotelID:      hotelID,
		Provider:     provider,
		ExternalID:   externalID,
		LastSyncedAt: syncedAt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

func setIf[T any](cols map[string]any, column string, v *T) {
	if v != nil {
		cols[column] = *v
	}
}
