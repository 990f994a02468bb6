package pms

import (
	"github.com/shopspring/decimal"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

const mewsVendor = "Mews"

// mewsReservationStates maps Mews reservation states
var mewsReservationStates = NewStatusTable(mewsVendor, "reservation", map[string]integration.BookingStatus{
	"Optional":  integration.BookingStatusConfirmed,
	"Confirmed": integration.BookingStatusConfirmed,
	"Started":   integration.BookingStatusCheckedIn,
	"Processed": integration.BookingStatusCheckedOut,
	"Canceled":  integration.BookingStatusCanceled,
	"NoShow":    integration.BookingStatusNoShow,
})

// mewsResourceStates maps Mews space (room) states
var mewsResourceStates = NewStatusTable(mewsVendor, "resource", map[string]integration.RoomStatus{
	"Clean":        integration.RoomStatusAvailable,
	"Inspected":    integration.RoomStatusAvailable,
	"Occupied":     integration.RoomStatusOccupied,
	"Dirty":        integration.RoomStatusDirty,
	"Cleaning":     integration.RoomStatusCleaning,
	"Inspecting":   integration.RoomStatusInspecting,
	"OutOfService": integration.RoomStatusMaintenance,
	"OutOfOrder":   integration.RoomStatusOutOfOrder,
	"Blocked":      integration.RoomStatusBlocked,
})

// MewsReservation is a reservation in the Mews connector API
type MewsReservation struct {
	ID                   string          `json:"Id"`
	Number               string          `json:"Number"`
	State                string          `json:"State"`
	CustomerID           string          `json:"CustomerId"`
	AssignedResourceID   string          `json:"AssignedResourceId"`
	AssignedResourceName string          `json:"AssignedResourceName"`
	StartUtc             string          `json:"StartUtc"`
	EndUtc               string          `json:"EndUtc"`
	AdultCount           int             `json:"AdultCount"`
	ChildCount           int             `json:"ChildCount"`
	TotalAmount          decimal.Decimal `json:"TotalAmount"`
	Currency             string          `json:"Currency"`
	UpdatedUtc           string          `json:"UpdatedUtc"`
}

// MewsResource is a bookable space
type MewsResource struct {
	ID          string   `json:"Id"`
	Name        string   `json:"Name"`
	FloorNumber *int     `json:"FloorNumber"`
	State       string   `json:"State"`
	Category    string   `json:"CategoryName"`
	Capacity    int      `json:"Capacity"`
	Features    []string `json:"Features"`
}

// MewsCustomer is a guest profile
type MewsCustomer struct {
	ID               string          `json:"Id"`
	FirstName        string          `json:"FirstName"`
	LastName         string          `json:"LastName"`
	Email            string          `json:"Email"`
	Phone            string          `json:"Phone"`
	NationalityCode  string          `json:"NationalityCode"`
	LoyaltyCode      string          `json:"LoyaltyCode"`
	ReservationCount int             `json:"ReservationCount"`
	TotalSpent       decimal.Decimal `json:"TotalSpent"`
}

type mewsReservationsResponse struct {
	Reservations []MewsReservation `json:"Reservations"`
}

type mewsResourcesResponse struct {
	Resources []MewsResource `json:"Resources"`
}

type mewsCustomersResponse struct {
	Customers []MewsCustomer `json:"Customers"`
}

type mewsCustomerInput struct {
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email,omitempty"`
	Phone     string `json:"Phone,omitempty"`
}

type mewsReservationInput struct {
	PropertyID       string            `json:"PropertyId"`
	Customer         mewsCustomerInput `json:"Customer"`
	RoomCategoryCode string            `json:"RoomCategoryCode"`
	RateCode         string            `json:"RateCode,omitempty"`
	StartUtc         string            `json:"StartUtc"`
	EndUtc           string            `json:"EndUtc"`
	AdultCount       int               `json:"AdultCount"`
	Notes            string            `json:"Notes,omitempty"`
}

type mewsReservationCreated struct {
	ID string `json:"Id"`
}

type mewsCancelInput struct {
	PropertyID string `json:"PropertyId"`
	Reason     string `json:"Reason"`
}

type mewsConfiguration struct {
	Property struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"Property"`
}
