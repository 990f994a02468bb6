package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one invalid field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now().UTC(),
		},
	}
}

// NewValidationErrorResponse creates a 400 response listing invalid fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// PMSPath binds the hotel and provider path parameters
type PMSPath struct {
	HotelID  string `uri:"hotelId" binding:"required,uuid"`
	Provider string `uri:"provider" binding:"required"`
}

// Parse validates the path and returns typed values
func (p PMSPath) Parse() (uuid.UUID, integration.ProviderKey, error) {
	hotelID, err := uuid.Parse(p.HotelID)
	if err != nil || hotelID == uuid.Nil {
		return uuid.Nil, "", integration.ErrInvalidHotelID
	}
	provider, err := integration.ParseProviderKey(p.Provider)
	if err != nil {
		return uuid.Nil, "", err
	}
	return hotelID, provider, nil
}

// SyncQuery holds the optional fetch filters of a sync request
type SyncQuery struct {
	UpdatedSince time.Time `form:"updated_since" time_format:"2006-01-02T15:04:05Z07:00"`
	From         time.Time `form:"from" time_format:"2006-01-02"`
	To           time.Time `form:"to" time_format:"2006-01-02"`
	Limit        int       `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// FetchOptions converts the query to adapter fetch options
func (q SyncQuery) FetchOptions() integration.FetchOptions {
	return integration.FetchOptions{
		UpdatedSince: q.UpdatedSince,
		From:         q.From,
		To:           q.To,
		Limit:        q.Limit,
	}
}

// CreateBookingRequest is the body of an outbound booking request.
// Field rules are enforced by the sync service.
type CreateBookingRequest struct {
	GuestFirstName string          `json:"guestFirstName"`
	GuestLastName  string          `json:"guestLastName"`
	GuestEmail     string          `json:"guestEmail"`
	GuestPhone     string          `json:"guestPhone"`
	RoomTypeCode   string          `json:"roomTypeCode"`
	RatePlanCode   string          `json:"ratePlanCode"`
	CheckInDate    time.Time       `json:"checkInDate"`
	CheckOutDate   time.Time       `json:"checkOutDate"`
	NumberOfGuests int             `json:"numberOfGuests"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency"`
	Notes          string          `json:"notes"`
}

// ToDraft converts the request to a domain draft
func (r CreateBookingRequest) ToDraft() integration.BookingDraft {
	return integration.BookingDraft{
		GuestFirstName: r.GuestFirstName,
		GuestLastName:  r.GuestLastName,
		GuestEmail:     r.GuestEmail,
		GuestPhone:     r.GuestPhone,
		RoomTypeCode:   r.RoomTypeCode,
		RatePlanCode:   r.RatePlanCode,
		CheckInDate:    r.CheckInDate,
		CheckOutDate:   r.CheckOutDate,
		NumberOfGuests: r.NumberOfGuests,
		TotalAmount:    r.TotalAmount,
		Currency:       r.Currency,
		Notes:          r.Notes,
	}
}

// CreateBookingResponse carries the reference assigned by the PMS
type CreateBookingResponse struct {
	ExternalID string `json:"externalId"`
}

// ConnectionResponse is the outcome of a connectivity probe
type ConnectionResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	LatencyMS int64             `json:"latencyMs"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewConnectionResponse converts a domain probe result
func NewConnectionResponse(r *integration.ConnectionResult) ConnectionResponse {
	return ConnectionResponse{
		Success:   r.Success,
		Message:   r.Message,
		LatencyMS: r.Latency.Milliseconds(),
		Details:   r.Details,
	}
}
