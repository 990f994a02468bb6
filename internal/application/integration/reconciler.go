package integration

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// Reconciler upserts normalized records into the local stores keyed by
// (hotel, provider, external ID). Only changed fields are written; an identical
// record produces no write at all.
type Reconciler struct {
	bookings integration.BookingStore
	rooms    integration.RoomStore
	guests   integration.GuestStore
	clock    func() time.Time
	newID    func() uuid.UUID
}

// NewReconciler creates a Reconciler over the three stores
func NewReconciler(bookings integration.BookingStore, rooms integration.RoomStore, guests integration.GuestStore) *Reconciler {
	return &Reconciler{
		bookings: bookings,
		rooms:    rooms,
		guests:   guests,
		clock:    func() time.Time { return time.Now().UTC() },
		newID:    uuid.New,
	}
}

// UpsertBooking reconciles one booking
func (r *Reconciler) UpsertBooking(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, b integration.NormalizedBooking) (integration.SyncedRecord, error) {
	if err := requireExternalID(b.ExternalID); err != nil {
		return integration.SyncedRecord{}, err
	}
	b = b.ForStorage()
	now := r.clock()

	current, err := r.bookings.FindByExternalID(ctx, hotelID, provider, b.ExternalID)
	switch {
	case errors.Is(err, integration.ErrRecordNotFound):
		record := &integration.BookingRecord{
			ID:                r.newID(),
			HotelID:           hotelID,
			Provider:          provider,
			NormalizedBooking: b,
			LastSyncedAt:      now,
		}
		if err := r.bookings.Create(ctx, record); err != nil {
			return integration.SyncedRecord{}, upsertFailed(b.ExternalID, err)
		}
		return integration.SyncedRecord{ExternalID: b.ExternalID, LocalID: record.ID, Action: integration.UpsertCreated, Booking: &b}, nil
	case err != nil:
		return integration.SyncedRecord{}, upsertFailed(b.ExternalID, err)
	}

	merged := current.NormalizedBooking
	patch := integration.DiffBooking(merged, b)
	if patch.IsEmpty() {
		return integration.SyncedRecord{ExternalID: b.ExternalID, LocalID: current.ID, Action: integration.UpsertUnchanged, Booking: &merged}, nil
	}
	patch.SyncedAt = now
	if err := r.bookings.Update(ctx, current.ID, patch); err != nil {
		return integration.SyncedRecord{}, upsertFailed(b.ExternalID, err)
	}
	patch.Apply(&merged)
	return integration.SyncedRecord{ExternalID: b.ExternalID, LocalID: current.ID, Action: integration.UpsertUpdated, Booking: &merged}, nil
}

// UpsertRoom reconciles one room
func (r *Reconciler) UpsertRoom(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, room integration.NormalizedRoom) (integration.SyncedRecord, error) {
	if err := requireExternalID(room.ExternalID); err != nil {
		return integration.SyncedRecord{}, err
	}
	now := r.clock()

	current, err := r.rooms.FindByExternalID(ctx, hotelID, provider, room.ExternalID)
	switch {
	case errors.Is(err, integration.ErrRecordNotFound):
		record := &integration.RoomRecord{
			ID:             r.newID(),
			HotelID:        hotelID,
			Provider:       provider,
			NormalizedRoom: room,
			LastSyncedAt:   now,
		}
		if err := r.rooms.Create(ctx, record); err != nil {
			return integration.SyncedRecord{}, upsertFailed(room.ExternalID, err)
		}
		return integration.SyncedRecord{ExternalID: room.ExternalID, LocalID: record.ID, Action: integration.UpsertCreated, Room: &room}, nil
	case err != nil:
		return integration.SyncedRecord{}, upsertFailed(room.ExternalID, err)
	}

	merged := current.NormalizedRoom
	patch := integration.DiffRoom(merged, room)
	if patch.IsEmpty() {
		return integration.SyncedRecord{ExternalID: room.ExternalID, LocalID: current.ID, Action: integration.UpsertUnchanged, Room: &merged}, nil
	}
	patch.SyncedAt = now
	if err := r.rooms.Update(ctx, current.ID, patch); err != nil {
		return integration.SyncedRecord{}, upsertFailed(room.ExternalID, err)
	}
	patch.Apply(&merged)
	return integration.SyncedRecord{ExternalID: room.ExternalID, LocalID: current.ID, Action: integration.UpsertUpdated, Room: &merged}, nil
}

// UpsertGuest reconciles one guest profile
func (r *Reconciler) UpsertGuest(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, g integration.NormalizedGuest) (integration.SyncedRecord, error) {
	if err := requireExternalID(g.ExternalID); err != nil {
		return integration.SyncedRecord{}, err
	}
	g = g.ForStorage()
	now := r.clock()

	current, err := r.guests.FindByExternalID(ctx, hotelID, provider, g.ExternalID)
	switch {
	case errors.Is(err, integration.ErrRecordNotFound):
		record := &integration.GuestRecord{
			ID:              r.newID(),
			HotelID:         hotelID,
			Provider:        provider,
			NormalizedGuest: g,
			LastSyncedAt:    now,
		}
		if err := r.guests.Create(ctx, record); err != nil {
			return integration.SyncedRecord{}, upsertFailed(g.ExternalID, err)
		}
		return integration.SyncedRecord{ExternalID: g.ExternalID, LocalID: record.ID, Action: integration.UpsertCreated, Guest: &g}, nil
	case err != nil:
		return integration.SyncedRecord{}, upsertFailed(g.ExternalID, err)
	}

	merged := current.NormalizedGuest
	patch := integration.DiffGuest(merged, g)
	if patch.IsEmpty() {
		return integration.SyncedRecord{ExternalID: g.ExternalID, LocalID: current.ID, Action: integration.UpsertUnchanged, Guest: &merged}, nil
	}
	patch.SyncedAt = now
	if err := r.guests.Update(ctx, current.ID, patch); err != nil {
		return integration.SyncedRecord{}, upsertFailed(g.ExternalID, err)
	}
	patch.Apply(&merged)
	return integration.SyncedRecord{ExternalID: g.ExternalID, LocalID: current.ID, Action: integration.UpsertUpdated, Guest: &merged}, nil
}

// MarkBookingCanceled sets the local copy of a booking to CANCELED. A booking
// that was never synced is not an error.
func (r *Reconciler) MarkBookingCanceled(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) (bool, error) {
	current, err := r.bookings.FindByExternalID(ctx, hotelID, provider, externalID)
	if errors.Is(err, integration.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, upsertFailed(externalID, err)
	}
	if current.Status == integration.BookingStatusCanceled {
		return false, nil
	}
	canceled := integration.BookingStatusCanceled
	if err := r.bookings.Update(ctx, current.ID, integration.BookingPatch{Status: &canceled, SyncedAt: r.clock()}); err != nil {
		return false, upsertFailed(externalID, err)
	}
	return true, nil
}

func requireExternalID(id string) error {
	if id == "" {
		return integration.NewIntegrationError(integration.CodeInvalidPayload, "record has no external ID", http.StatusBadRequest)
	}
	return nil
}

func upsertFailed(externalID string, err error) error {
	if ie, ok := integration.AsIntegrationError(err); ok {
		return ie
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return integration.Wrap(err, integration.CodeUpsertFailed, "")
	}
	return integration.WrapIntegrationError(integration.CodeUpsertFailed,
		"failed to store record "+externalID, http.StatusInternalServerError, err)
}
