package pms

import (
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

const protelVendor = "protel"

// protelReservationStates maps protel reservation states
var protelReservationStates = NewStatusTable(protelVendor, "reservation", map[string]integration.BookingStatus{
	"RESERVED":   integration.BookingStatusConfirmed,
	"GUARANTEED": integration.BookingStatusConfirmed,
	"IN_HOUSE":   integration.BookingStatusCheckedIn,
	"DEPARTED":   integration.BookingStatusCheckedOut,
	"CANCELLED":  integration.BookingStatusCanceled,
	"NO_SHOW":    integration.BookingStatusNoShow,
})

// protelHousekeepingStates maps protel housekeeping codes
var protelHousekeepingStates = NewStatusTable(protelVendor, "housekeeping", map[string]integration.RoomStatus{
	"CLEAN":       integration.RoomStatusAvailable,
	"OCCUPIED":    integration.RoomStatusOccupied,
	"DIRTY":       integration.RoomStatusDirty,
	"IN_CLEANING": integration.RoomStatusCleaning,
	"TO_INSPECT":  integration.RoomStatusInspecting,
	"OOS":         integration.RoomStatusMaintenance,
	"OOO":         integration.RoomStatusOutOfOrder,
	"BLOCKED":     integration.RoomStatusBlocked,
})

// ProtelReservation is a reservation in the protel REST API
type ProtelReservation struct {
	ResNo        string `json:"res_no"`
	ConfirmNo    string `json:"confirmation_no"`
	Status       string `json:"status"`
	GuestNo      string `json:"guest_no"`
	RoomNo       string `json:"room_no"`
	Arrival      string `json:"arrival"`
	Departure    string `json:"departure"`
	Adults       int    `json:"adults"`
	Children     int    `json:"children"`
	TotalRevenue string `json:"total_revenue"`
	Currency     string `json:"currency"`
	LastChange   string `json:"last_change"`
}

// ProtelRoom is a room with its housekeeping state
type ProtelRoom struct {
	RoomNo     string   `json:"room_no"`
	Floor      *int     `json:"floor"`
	HKStatus   string   `json:"hk_status"`
	RoomType   string   `json:"room_type"`
	MaxPersons int      `json:"max_persons"`
	Features   []string `json:"features"`
}

type protelList[T any] struct {
	Data []T `json:"data"`
}

type protelReservationInput struct {
	GuestFirstName string `json:"guest_first_name"`
	GuestLastName  string `json:"guest_last_name"`
	GuestEmail     string `json:"guest_email,omitempty"`
	GuestPhone     string `json:"guest_phone,omitempty"`
	RoomType       string `json:"room_type"`
	RateCode       string `json:"rate_code,omitempty"`
	Arrival        string `json:"arrival"`
	Departure      string `json:"departure"`
	Adults         int    `json:"adults"`
	TotalRevenue   string `json:"total_revenue,omitempty"`
	Currency       string `json:"currency,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
}

type protelReservationCreated struct {
	ResNo string `json:"res_no"`
}
