package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/persistence/models"
)

const externalRefClause = "hotel_id = ? AND provider = ? AND external_id = ?"

// GormBookingStore implements integration.BookingStore using GORM
type GormBookingStore struct {
	db *gorm.DB
}

// NewGormBookingStore creates a new GormBookingStore
func NewGormBookingStore(db *gorm.DB) *GormBookingStore {
	return &GormBookingStore{db: db}
}

// FindByExternalID finds a booking by its vendor reference
func (s *GormBookingStore) FindByExternalID(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) (*integration.BookingRecord, error) {
	var model models.PMSBookingModel
	if err := findByExternalRef(ctx, s.db, &model, hotelID, provider, externalID); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new booking
func (s *GormBookingStore) Create(ctx context.Context, record *integration.BookingRecord) error {
	if err := s.db.WithContext(ctx).Create(models.PMSBookingModelFromDomain(record)).Error; err != nil {
		return fmt.Errorf("create booking %s: %w", record.ExternalID, err)
	}
	return nil
}

// Update writes the changed fields of a booking
func (s *GormBookingStore) Update(ctx context.Context, id uuid.UUID, patch integration.BookingPatch) error {
	return updateColumns(ctx, s.db, &models.PMSBookingModel{}, id, models.BookingPatchColumns(patch))
}

// GormRoomStore implements integration.RoomStore using GORM
type GormRoomStore struct {
	db *gorm.DB
}

// NewGormRoomStore creates a new GormRoomStore
func NewGormRoomStore(db *gorm.DB) *GormRoomStore {
	return &GormRoomStore{db: db}
}

// FindByExternalID finds a room by its vendor reference
func (s *GormRoomStore) FindByExternalID(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) (*integration.RoomRecord, error) {
	var model models.PMSRoomModel
	if err := findByExternalRef(ctx, s.db, &model, hotelID, provider, externalID); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new room
func (s *GormRoomStore) Create(ctx context.Context, record *integration.RoomRecord) error {
	if err := s.db.WithContext(ctx).Create(models.PMSRoomModelFromDomain(record)).Error; err != nil {
		return fmt.Errorf("create room %s: %w", record.ExternalID, err)
	}
	return nil
}

// Update writes the changed fields of a room
func (s *GormRoomStore) Update(ctx context.Context, id uuid.UUID, patch integration.RoomPatch) error {
	return updateColumns(ctx, s.db, &models.PMSRoomModel{}, id, models.RoomPatchColumns(patch))
}

// GormGuestStore implements integration.GuestStore using GORM
type GormGuestStore struct {
	db *gorm.DB
}

// NewGormGuestStore creates a new GormGuestStore
func NewGormGuestStore(db *gorm.DB) *GormGuestStore {
	return &GormGuestStore{db: db}
}

// FindByExternalID finds a guest profile by its vendor reference
func (s *GormGuestStore) FindByExternalID(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) (*integration.GuestRecord, error) {
	var model models.PMSGuestModel
	if err := findByExternalRef(ctx, s.db, &model, hotelID, provider, externalID); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new guest profile
func (s *GormGuestStore) Create(ctx context.Context, record *integration.GuestRecord) error {
	if err := s.db.WithContext(ctx).Create(models.PMSGuestModelFromDomain(record)).Error; err != nil {
		return fmt.Errorf("create guest %s: %w", record.ExternalID, err)
	}
	return nil
}

// Update writes the changed fields of a guest profile
func (s *GormGuestStore) Update(ctx context.Context, id uuid.UUID, patch integration.GuestPatch) error {
	return updateColumns(ctx, s.db, &models.PMSGuestModel{}, id, models.GuestPatchColumns(patch))
}

func findByExternalRef(ctx context.Context, db *gorm.DB, dest any, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) error {
	err := db.WithContext(ctx).Where(externalRefClause, hotelID, provider, externalID).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return integration.ErrRecordNotFound
	}
	return err
}

func updateColumns(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, cols map[string]any) error {
	result := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return fmt.Errorf("update %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return integration.ErrRecordNotFound
	}
	return nil
}

var (
	_ integration.BookingStore = (*GormBookingStore)(nil)
	_ integration.RoomStore    = (*GormRoomStore)(nil)
	_ integration.GuestStore   = (*GormGuestStore)(nil)
)
