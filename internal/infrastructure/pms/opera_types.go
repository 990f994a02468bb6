package pms

import (
	"encoding/xml"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

const (
	operaVendor    = "Opera"
	operaNamespace = "http://webservices.micros.com/ows/5.1"
)

// operaRoomStatuses maps Opera housekeeping room statuses
var operaRoomStatuses = NewStatusTable(operaVendor, "room", map[string]integration.RoomStatus{
	"Clean":        integration.RoomStatusAvailable,
	"Inspected":    integration.RoomStatusAvailable,
	"Occupied":     integration.RoomStatusOccupied,
	"Dirty":        integration.RoomStatusDirty,
	"Pickup":       integration.RoomStatusCleaning,
	"Cleaning":     integration.RoomStatusCleaning,
	"Inspecting":   integration.RoomStatusInspecting,
	"OutOfService": integration.RoomStatusMaintenance,
	"OutOfOrder":   integration.RoomStatusOutOfOrder,
	"Blocked":      integration.RoomStatusBlocked,
})

// operaReservationStatuses maps Opera reservation statuses
var operaReservationStatuses = NewStatusTable(operaVendor, "reservation", map[string]integration.BookingStatus{
	"Confirmed":  integration.BookingStatusConfirmed,
	"InHouse":    integration.BookingStatusCheckedIn,
	"CheckedOut": integration.BookingStatusCheckedOut,
	"Canceled":   integration.BookingStatusCanceled,
	"NoShow":     integration.BookingStatusNoShow,
})

// operaName builds a namespaced element name
func operaName(local string) xml.Name {
	return xml.Name{Space: operaNamespace, Local: local}
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type operaFetchRequest struct {
	XMLName       xml.Name
	HotelCode     string `xml:"HotelCode"`
	ModifiedSince string `xml:"ModifiedSince,omitempty"`
	ArrivalFrom   string `xml:"ArrivalFrom,omitempty"`
	ArrivalTo     string `xml:"ArrivalTo,omitempty"`
	MaxResults    int    `xml:"MaxResults,omitempty"`
}

type operaCreateReservationRequest struct {
	XMLName       xml.Name `xml:"http://webservices.micros.com/ows/5.1 CreateReservationRequest"`
	HotelCode     string   `xml:"HotelCode"`
	FirstName     string   `xml:"Guest>FirstName"`
	LastName      string   `xml:"Guest>LastName"`
	Email         string   `xml:"Guest>Email,omitempty"`
	Phone         string   `xml:"Guest>Phone,omitempty"`
	RoomType      string   `xml:"RoomType"`
	RatePlanCode  string   `xml:"RatePlanCode,omitempty"`
	ArrivalDate   string   `xml:"ArrivalDate"`
	DepartureDate string   `xml:"DepartureDate"`
	Adults        int      `xml:"Adults"`
	Comments      string   `xml:"Comments,omitempty"`
}

type operaCancelReservationRequest struct {
	XMLName    xml.Name `xml:"http://webservices.micros.com/ows/5.1 CancelReservationRequest"`
	HotelCode  string   `xml:"HotelCode"`
	ResvNameID string   `xml:"ResvNameId"`
	Reason     string   `xml:"Reason"`
}

type operaPingRequest struct {
	XMLName   xml.Name `xml:"http://webservices.micros.com/ows/5.1 PingRequest"`
	HotelCode string   `xml:"HotelCode"`
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// OperaAmount is a monetary element with a currency attribute
type OperaAmount struct {
	Value    string `xml:",chardata"`
	Currency string `xml:"currencyCode,attr"`
}

// OperaReservation is a reservation element
type OperaReservation struct {
	ResvNameID     string      `xml:"ResvNameId" json:"resvNameId"`
	ConfirmationNo string      `xml:"ConfirmationNo" json:"confirmationNo"`
	Status         string      `xml:"Status" json:"status"`
	ProfileID      string      `xml:"ProfileId" json:"profileId"`
	RoomID         string      `xml:"RoomId" json:"roomId"`
	RoomNumber     string      `xml:"RoomNumber" json:"roomNumber"`
	ArrivalDate    string      `xml:"ArrivalDate" json:"arrivalDate"`
	DepartureDate  string      `xml:"DepartureDate" json:"departureDate"`
	Adults         int         `xml:"Adults" json:"adults"`
	Children       int         `xml:"Children" json:"children"`
	TotalAmount    OperaAmount `xml:"TotalAmount" json:"totalAmount"`
	LastModified   string      `xml:"LastModified" json:"lastModified"`
}

// OperaRoom is a housekeeping room element
type OperaRoom struct {
	RoomNumber   string   `xml:"RoomNumber"`
	Floor        *int     `xml:"Floor"`
	RoomStatus   string   `xml:"RoomStatus"`
	RoomType     string   `xml:"RoomType"`
	MaxOccupancy int      `xml:"MaxOccupancy"`
	Features     []string `xml:"Features>Feature"`
}

// OperaProfile is a guest profile element
type OperaProfile struct {
	ProfileID       string `xml:"ProfileId"`
	FirstName       string `xml:"FirstName"`
	LastName        string `xml:"LastName"`
	Email           string `xml:"Email"`
	Phone           string `xml:"Phone"`
	Nationality     string `xml:"Nationality"`
	MembershipLevel string `xml:"MembershipLevel"`
	StayCount       int    `xml:"StayCount"`
	Revenue         string `xml:"Revenue"`
}

type operaReservationsResult struct {
	XMLName      xml.Name           `xml:"FetchReservationsResponse"`
	Reservations []OperaReservation `xml:"Reservations>Reservation"`
}

type operaRoomStatusResult struct {
	XMLName xml.Name    `xml:"FetchRoomStatusResponse"`
	Rooms   []OperaRoom `xml:"Rooms>Room"`
}

type operaProfilesResult struct {
	XMLName  xml.Name       `xml:"FetchProfilesResponse"`
	Profiles []OperaProfile `xml:"Profiles>Profile"`
}

type operaCreateReservationResult struct {
	XMLName        xml.Name `xml:"CreateReservationResponse"`
	ResvNameID     string   `xml:"ResvNameId"`
	ConfirmationNo string   `xml:"ConfirmationNo"`
}

type operaCancelReservationResult struct {
	XMLName xml.Name `xml:"CancelReservationResponse"`
	Result  string   `xml:"Result"`
}

type operaPingResult struct {
	XMLName xml.Name `xml:"PingResponse"`
	Status  string   `xml:"Status"`
	Version string   `xml:"Version"`
}
