package pms

import (
	"github.com/shopspring/decimal"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

const cloudbedsVendor = "Cloudbeds"

// cloudbedsReservationStates maps Cloudbeds reservation statuses
var cloudbedsReservationStates = NewStatusTable(cloudbedsVendor, "reservation", map[string]integration.BookingStatus{
	"confirmed":     integration.BookingStatusConfirmed,
	"not_confirmed": integration.BookingStatusConfirmed,
	"checked_in":    integration.BookingStatusCheckedIn,
	"checked_out":   integration.BookingStatusCheckedOut,
	"canceled":      integration.BookingStatusCanceled,
	"no_show":       integration.BookingStatusNoShow,
})

// cloudbedsRoomStates maps Cloudbeds housekeeping conditions
var cloudbedsRoomStates = NewStatusTable(cloudbedsVendor, "room", map[string]integration.RoomStatus{
	"clean":        integration.RoomStatusAvailable,
	"occupied":     integration.RoomStatusOccupied,
	"dirty":        integration.RoomStatusDirty,
	"cleaning":     integration.RoomStatusCleaning,
	"inspecting":   integration.RoomStatusInspecting,
	"maintenance":  integration.RoomStatusMaintenance,
	"out_of_order": integration.RoomStatusOutOfOrder,
	"blocked":      integration.RoomStatusBlocked,
})

const cloudbedsReservationFields = `id confirmationCode status guestID roomID roomName startDate endDate adults children total currency dateModified`

const (
	cloudbedsReservationsQuery = `query reservations($propertyID: ID!, $updatedSince: DateTime, $limit: Int) {
  reservations(propertyID: $propertyID, updatedSince: $updatedSince, limit: $limit) { ` + cloudbedsReservationFields + ` }
}`

	cloudbedsRoomsQuery = `query rooms($propertyID: ID!) {
  rooms(propertyID: $propertyID) { id name floor status roomTypeName maxGuests amenities }
}`

	cloudbedsGuestsQuery = `query guests($propertyID: ID!, $updatedSince: DateTime, $limit: Int) {
  guests(propertyID: $propertyID, updatedSince: $updatedSince, limit: $limit) { id firstName lastName email phone country loyaltyTier stays totalSpent }
}`

	cloudbedsCreateReservationMutation = `mutation createReservation($input: ReservationInput!) {
  createReservation(input: $input) { id }
}`

	cloudbedsCancelReservationMutation = `mutation cancelReservation($propertyID: ID!, $id: ID!) {
  cancelReservation(propertyID: $propertyID, id: $id) { id status }
}`

	cloudbedsPropertyQuery = `query property($propertyID: ID!) {
  property(id: $propertyID) { id name timezone }
}`
)

// CloudbedsReservation is a reservation node
type CloudbedsReservation struct {
	ID               string          `json:"id"`
	ConfirmationCode string          `json:"confirmationCode"`
	Status           string          `json:"status"`
	GuestID          string          `json:"guestID"`
	RoomID           string          `json:"roomID"`
	RoomName         string          `json:"roomName"`
	StartDate        string          `json:"startDate"`
	EndDate          string          `json:"endDate"`
	Adults           int             `json:"adults"`
	Children         int             `json:"children"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	DateModified     string          `json:"dateModified"`
}

// CloudbedsRoom is a room node
type CloudbedsRoom struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Floor        *int     `json:"floor"`
	Status       string   `json:"status"`
	RoomTypeName string   `json:"roomTypeName"`
	MaxGuests    int      `json:"maxGuests"`
	Amenities    []string `json:"amenities"`
}

// CloudbedsGuest is a guest node
type CloudbedsGuest struct {
	ID          string          `json:"id"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Country     string          `json:"country"`
	LoyaltyTier string          `json:"loyaltyTier"`
	Stays       int             `json:"stays"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}

type cloudbedsReservationsData struct {
	Reservations []CloudbedsReservation `json:"reservations"`
}

type cloudbedsRoomsData struct {
	Rooms []CloudbedsRoom `json:"rooms"`
}

type cloudbedsGuestsData struct {
	Guests []CloudbedsGuest `json:"guests"`
}

type cloudbedsCreateData struct {
	CreateReservation struct {
		ID string `json:"id"`
	} `json:"createReservation"`
}

type cloudbedsPropertyData struct {
	Property *struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	} `json:"property"`
}
