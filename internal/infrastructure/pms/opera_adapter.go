package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// operaRateLimit is the OWS gateway budget per interface user
var operaRateLimit = integration.RateLimit{PerMinute: 60, PerHour: 3000}

// OperaAdapter implements ProviderAdapter over Opera Web Services (SOAP 1.1)
type OperaAdapter struct {
	config *ConnectionConfig
	soap   *SOAPClient
	logger *zap.Logger
}

// NewOperaAdapter creates an Opera adapter for one connection
func NewOperaAdapter(config ConnectionConfig, deps Dependencies) (*OperaAdapter, error) {
	config.Provider = integration.ProviderOpera
	if config.Auth.Scheme == "" {
		config.Auth.Scheme = AuthBasic
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	client := NewClient(ClientOptions{
		Provider:    integration.ProviderOpera,
		BaseURL:     config.BaseURL,
		Auth:        config.Auth,
		Timeout:     config.Timeout(),
		Retry:       config.retryOr(LegacyRetryOptions()),
		RateLimiter: NewRateLimiter(config.rateLimitOr(operaRateLimit)),
		Metrics:     deps.Metrics,
		HTTPClient:  deps.HTTPClient,
		Logger:      deps.Logger,
		Sleep:       deps.Sleep,
	})
	return &OperaAdapter{
		config: &config,
		soap:   NewSOAPClient(client, operaNamespace, config.RetryableFaults),
		logger: deps.Logger.With(zap.String("provider", string(integration.ProviderOpera))),
	}, nil
}

// Metadata returns the static description of the adapter
func (a *OperaAdapter) Metadata() integration.AdapterMetadata {
	return integration.AdapterMetadata{
		Vendor:               operaVendor,
		Provider:             integration.ProviderOpera,
		Protocol:             integration.ProtocolSOAP,
		RateLimit:            a.config.rateLimitOr(operaRateLimit),
		SupportsWebhooks:     false,
		SupportsRealTimeSync: false,
	}
}

// FetchBookings calls FetchReservations
func (a *OperaAdapter) FetchBookings(ctx context.Context, _ integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedBooking, error) {
	req := a.fetchRequest("FetchReservationsRequest", opts)
	if !opts.From.IsZero() {
		req.ArrivalFrom = formatDate(opts.From)
	}
	if !opts.To.IsZero() {
		req.ArrivalTo = formatDate(opts.To)
	}

	var result operaReservationsResult
	if err := a.soap.Call(ctx, "FetchReservations", req, &result); err != nil {
		return nil, err
	}

	bookings := make([]integration.NormalizedBooking, 0, len(result.Reservations))
	for i := range result.Reservations {
		b, err := convertOperaReservation(&result.Reservations[i])
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

// FetchRooms calls FetchRoomStatus. Opera identifies rooms by number.
func (a *OperaAdapter) FetchRooms(ctx context.Context, _ integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedRoom, error) {
	var result operaRoomStatusResult
	if err := a.soap.Call(ctx, "FetchRoomStatus", a.fetchRequest("FetchRoomStatusRequest", opts), &result); err != nil {
		return nil, err
	}

	rooms := make([]integration.NormalizedRoom, 0, len(result.Rooms))
	for _, r := range result.Rooms {
		if err := requireExternalID(operaVendor, r.RoomNumber); err != nil {
			return nil, err
		}
		status, err := operaRoomStatuses.Lookup(r.RoomStatus)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, integration.NormalizedRoom{
			ExternalID:   r.RoomNumber,
			RoomNumber:   r.RoomNumber,
			Floor:        r.Floor,
			Status:       status,
			RoomType:     r.RoomType,
			MaxOccupancy: r.MaxOccupancy,
			Amenities:    r.Features,
		})
	}
	return rooms, nil
}

// FetchGuests calls FetchProfiles
func (a *OperaAdapter) FetchGuests(ctx context.Context, _ integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedGuest, error) {
	var result operaProfilesResult
	if err := a.soap.Call(ctx, "FetchProfiles", a.fetchRequest("FetchProfilesRequest", opts), &result); err != nil {
		return nil, err
	}

	guests := make([]integration.NormalizedGuest, 0, len(result.Profiles))
	for _, p := range result.Profiles {
		if err := requireExternalID(operaVendor, p.ProfileID); err != nil {
			return nil, err
		}
		spent, err := parseAmount("Revenue", p.Revenue)
		if err != nil {
			return nil, err
		}
		guests = append(guests, integration.NormalizedGuest{
			ExternalID:  p.ProfileID,
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Email:       p.Email,
			Phone:       p.Phone,
			Country:     p.Nationality,
			LoyaltyTier: p.MembershipLevel,
			TotalStays:  p.StayCount,
			TotalSpent:  spent,
		})
	}
	return guests, nil
}

// CreateBooking calls CreateReservation and returns the ResvNameId
func (a *OperaAdapter) CreateBooking(ctx context.Context, _ integration.Scope, draft integration.BookingDraft) (string, error) {
	req := operaCreateReservationRequest{
		HotelCode:     a.config.PropertyID,
		FirstName:     draft.GuestFirstName,
		LastName:      draft.GuestLastName,
		Email:         draft.GuestEmail,
		Phone:         draft.GuestPhone,
		RoomType:      draft.RoomTypeCode,
		RatePlanCode:  draft.RatePlanCode,
		ArrivalDate:   formatDate(draft.CheckInDate),
		DepartureDate: formatDate(draft.CheckOutDate),
		Adults:        draft.NumberOfGuests,
		Comments:      draft.Notes,
	}
	var result operaCreateReservationResult
	if err := a.soap.CallOnce(ctx, "CreateReservation", req, &result); err != nil {
		return "", err
	}
	if result.ResvNameID == "" {
		return "", integration.NewInvalidResponseError("Opera returned no ResvNameId", nil)
	}
	return result.ResvNameID, nil
}

// CancelBooking calls CancelReservation
func (a *OperaAdapter) CancelBooking(ctx context.Context, _ integration.Scope, externalID string) error {
	req := operaCancelReservationRequest{
		HotelCode:  a.config.PropertyID,
		ResvNameID: externalID,
		Reason:     "Canceled by hotel",
	}
	var result operaCancelReservationResult
	return a.soap.Call(ctx, "CancelReservation", req, &result)
}

// TestConnection calls Ping
func (a *OperaAdapter) TestConnection(ctx context.Context, _ integration.Scope) (*integration.ConnectionResult, error) {
	start := time.Now()
	var result operaPingResult
	if err := a.soap.Call(ctx, "Ping", operaPingRequest{HotelCode: a.config.PropertyID}, &result); err != nil {
		return failedConnection(err, time.Since(start)), nil
	}
	if !strings.EqualFold(result.Status, "OK") && !strings.EqualFold(result.Status, "SUCCESS") {
		return &integration.ConnectionResult{
			Success: false,
			Message: "Opera ping returned status " + result.Status,
			Latency: time.Since(start),
		}, nil
	}
	return &integration.ConnectionResult{
		Success: true,
		Message: "connected to Opera " + a.config.PropertyID,
		Latency: time.Since(start),
		Details: map[string]string{"hotelCode": a.config.PropertyID, "version": result.Version},
	}, nil
}

// NormalizeBooking converts a pushed reservation. The payload is either a JSON object or a
// JSON string holding the <Reservation> XML element.
func (a *OperaAdapter) NormalizeBooking(payload json.RawMessage) (*integration.NormalizedBooking, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, integration.WrapIntegrationError(integration.CodeInvalidPayload,
				"Opera webhook payload is not a valid string", http.StatusBadRequest, err)
		}
		var r OperaReservation
		if err := xml.Unmarshal([]byte(raw), &r); err != nil {
			return nil, integration.WrapIntegrationError(integration.CodeInvalidPayload,
				"Opera webhook payload is not a reservation element", http.StatusBadRequest, err)
		}
		return convertOperaReservation(&r)
	}

	var r OperaReservation
	if err := decodeWebhookJSON(payload, &r); err != nil {
		return nil, err
	}
	return convertOperaReservation(&r)
}

func (a *OperaAdapter) fetchRequest(element string, opts integration.FetchOptions) operaFetchRequest {
	req := operaFetchRequest{
		XMLName:    operaName(element),
		HotelCode:  a.config.PropertyID,
		MaxResults: opts.Limit,
	}
	if !opts.UpdatedSince.IsZero() {
		req.ModifiedSince = opts.UpdatedSince.UTC().Format(time.RFC3339)
	}
	return req
}

// convertOperaReservation converts a reservation element to canonical form
func convertOperaReservation(r *OperaReservation) (*integration.NormalizedBooking, error) {
	if err := requireExternalID(operaVendor, r.ResvNameID); err != nil {
		return nil, err
	}
	status, err := operaReservationStatuses.Lookup(r.Status)
	if err != nil {
		return nil, err
	}
	arrival, err := parseDate("ArrivalDate", r.ArrivalDate)
	if err != nil {
		return nil, err
	}
	departure, err := parseDate("DepartureDate", r.DepartureDate)
	if err != nil {
		return nil, err
	}
	modified, err := parseDate("LastModified", r.LastModified)
	if err != nil {
		return nil, err
	}
	total, err := parseAmount("TotalAmount", r.TotalAmount.Value)
	if err != nil {
		return nil, err
	}
	return &integration.NormalizedBooking{
		ExternalID:         r.ResvNameID,
		GuestID:            r.ProfileID,
		RoomID:             r.RoomID,
		RoomNumber:         r.RoomNumber,
		ConfirmationNumber: r.ConfirmationNo,
		Status:             status,
		CheckInDate:        arrival,
		CheckOutDate:       departure,
		NumberOfGuests:     r.Adults + r.Children,
		TotalAmount:        total,
		Currency:           r.TotalAmount.Currency,
		LastModified:       modified,
	}, nil
}

var _ integration.ProviderAdapter = (*OperaAdapter)(nil)
