package pms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// ProtelAdapter implements ProviderAdapter for on-premise protel installations
// (REST, API-key header, slow legacy backoff). protel exposes no guest profile feed.
type ProtelAdapter struct {
	config *ConnectionConfig
	client *Client
	logger *zap.Logger
}

// protelRateLimit is conservative; on-premise servers are easily overloaded
var protelRateLimit = integration.RateLimit{PerMinute: 60, PerHour: 2000}

// NewProtelAdapter creates a protel adapter for one connection
func NewProtelAdapter(config ConnectionConfig, deps Dependencies) (*ProtelAdapter, error) {
	config.Provider = integration.ProviderProtel
	if config.Auth.Scheme == "" {
		config.Auth.Scheme = AuthAPIKey
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	return &ProtelAdapter{
		config: &config,
		client: NewClient(ClientOptions{
			Provider:    integration.ProviderProtel,
			BaseURL:     config.BaseURL,
			Auth:        config.Auth,
			Timeout:     config.Timeout(),
			Retry:       config.retryOr(LegacyRetryOptions()),
			RateLimiter: NewRateLimiter(config.rateLimitOr(protelRateLimit)),
			Metrics:     deps.Metrics,
			HTTPClient:  deps.HTTPClient,
			Logger:      deps.Logger,
			Sleep:       deps.Sleep,
		}),
		logger: deps.Logger.With(zap.String("provider", string(integration.ProviderProtel))),
	}, nil
}

// Metadata returns the static description of the adapter
func (a *ProtelAdapter) Metadata() integration.AdapterMetadata {
	return integration.AdapterMetadata{
		Vendor:               protelVendor,
		Provider:             integration.ProviderProtel,
		Protocol:             integration.ProtocolREST,
		RateLimit:            a.config.rateLimitOr(protelRateLimit),
		SupportsWebhooks:     false,
		SupportsRealTimeSync: false,
	}
}

// FetchBookings pulls reservations
func (a *ProtelAdapter) FetchBookings(ctx context.Context, scope integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedBooking, error) {
	q := url.Values{}
	if !opts.UpdatedSince.IsZero() {
		q.Set("modified_since", opts.UpdatedSince.UTC().Format(time.RFC3339))
	}
	if !opts.From.IsZero() {
		q.Set("from", formatDate(opts.From))
	}
	if !opts.To.IsZero() {
		q.Set("to", formatDate(opts.To))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	resp, err := a.client.Do(ctx, Request{
		Operation: "fetch_bookings",
		Method:    http.MethodGet,
		Path:      a.hotelPath("/reservations"),
		Query:     q,
		Header:    syncHeader(scope),
	})
	if err != nil {
		return nil, err
	}

	var body protelList[ProtelReservation]
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	bookings := make([]integration.NormalizedBooking, 0, len(body.Data))
	for i := range body.Data {
		b, err := convertProtelReservation(&body.Data[i])
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

// FetchRooms pulls rooms with housekeeping status
func (a *ProtelAdapter) FetchRooms(ctx context.Context, scope integration.Scope, _ integration.FetchOptions) ([]integration.NormalizedRoom, error) {
	resp, err := a.client.Do(ctx, Request{
		Operation: "fetch_rooms",
		Method:    http.MethodGet,
		Path:      a.hotelPath("/rooms"),
		Header:    syncHeader(scope),
	})
	if err != nil {
		return nil, err
	}

	var body protelList[ProtelRoom]
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	rooms := make([]integration.NormalizedRoom, 0, len(body.Data))
	for _, r := range body.Data {
		if err := requireExternalID(protelVendor, r.RoomNo); err != nil {
			return nil, err
		}
		status, err := protelHousekeepingStates.Lookup(r.HKStatus)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, integration.NormalizedRoom{
			ExternalID:   r.RoomNo,
			RoomNumber:   r.RoomNo,
			Floor:        r.Floor,
			Status:       status,
			RoomType:     r.RoomType,
			MaxOccupancy: r.MaxPersons,
			Amenities:    r.Features,
		})
	}
	return rooms, nil
}

// FetchGuests is not offered by protel
func (a *ProtelAdapter) FetchGuests(_ context.Context, _ integration.Scope, _ integration.FetchOptions) ([]integration.NormalizedGuest, error) {
	return nil, integration.NewNotSupportedError(integration.ProviderProtel, integration.EntityGuests)
}

// CreateBooking creates a reservation and returns its reservation number
func (a *ProtelAdapter) CreateBooking(ctx context.Context, scope integration.Scope, draft integration.BookingDraft) (string, error) {
	input := protelReservationInput{
		GuestFirstName: draft.GuestFirstName,
		GuestLastName:  draft.GuestLastName,
		GuestEmail:     draft.GuestEmail,
		GuestPhone:     draft.GuestPhone,
		RoomType:       draft.RoomTypeCode,
		RateCode:       draft.RatePlanCode,
		Arrival:        formatDate(draft.CheckInDate),
		Departure:      formatDate(draft.CheckOutDate),
		Adults:         draft.NumberOfGuests,
		Currency:       draft.Currency,
		Remarks:        draft.Notes,
	}
	if !draft.TotalAmount.IsZero() {
		input.TotalRevenue = draft.TotalAmount.StringFixed(2)
	}

	// a retried POST could create the reservation twice
	resp, err := a.client.DoOnce(ctx, Request{
		Operation: "create_booking",
		Method:    http.MethodPost,
		Path:      a.hotelPath("/reservations"),
		Header:    syncHeader(scope),
		Body:      input,
	})
	if err != nil {
		return "", err
	}

	var created protelReservationCreated
	if err := resp.Decode(&created); err != nil {
		return "", err
	}
	if created.ResNo == "" {
		return "", integration.NewInvalidResponseError("protel returned no reservation number", nil)
	}
	return created.ResNo, nil
}

// CancelBooking cancels a reservation
func (a *ProtelAdapter) CancelBooking(ctx context.Context, scope integration.Scope, externalID string) error {
	_, err := a.client.Do(ctx, Request{
		Operation: "cancel_booking",
		Method:    http.MethodDelete,
		Path:      a.hotelPath("/reservations/" + url.PathEscape(externalID)),
		Header:    syncHeader(scope),
	})
	return err
}

// TestConnection calls the plain-text ping endpoint
func (a *ProtelAdapter) TestConnection(ctx context.Context, _ integration.Scope) (*integration.ConnectionResult, error) {
	start := time.Now()
	resp, err := a.client.DoOnce(ctx, Request{
		Operation: "test_connection",
		Method:    http.MethodGet,
		Path:      a.hotelPath("/ping"),
		Header:    http.Header{"Accept": {"text/plain"}},
	})
	if err != nil {
		return failedConnection(err, time.Since(start)), nil
	}
	text := strings.TrimSpace(resp.Text())
	return &integration.ConnectionResult{
		Success: strings.EqualFold(text, "OK"),
		Message: text,
		Latency: time.Since(start),
		Details: map[string]string{"hotelCode": a.config.PropertyID},
	}, nil
}

// NormalizeBooking converts a single protel reservation document
func (a *ProtelAdapter) NormalizeBooking(payload json.RawMessage) (*integration.NormalizedBooking, error) {
	var r ProtelReservation
	if err := decodeWebhookJSON(payload, &r); err != nil {
		return nil, err
	}
	return convertProtelReservation(&r)
}

func (a *ProtelAdapter) hotelPath(suffix string) string {
	return "/api/v2/hotels/" + url.PathEscape(a.config.PropertyID) + suffix
}

// convertProtelReservation converts a protel reservation to canonical form
func convertProtelReservation(r *ProtelReservation) (*integration.NormalizedBooking, error) {
	if err := requireExternalID(protelVendor, r.ResNo); err != nil {
		return nil, err
	}
	status, err := protelReservationStates.Lookup(r.Status)
	if err != nil {
		return nil, err
	}
	arrival, err := parseDate("arrival", r.Arrival)
	if err != nil {
		return nil, err
	}
	departure, err := parseDate("departure", r.Departure)
	if err != nil {
		return nil, err
	}
	changed, err := parseDate("last_change", r.LastChange)
	if err != nil {
		return nil, err
	}
	total, err := parseAmount("total_revenue", r.TotalRevenue)
	if err != nil {
		return nil, err
	}
	return &integration.NormalizedBooking{
		ExternalID:         r.ResNo,
		GuestID:            r.GuestNo,
		RoomID:             r.RoomNo,
		RoomNumber:         r.RoomNo,
		ConfirmationNumber: r.ConfirmNo,
		Status:             status,
		CheckInDate:        arrival,
		CheckOutDate:       departure,
		NumberOfGuests:     r.Adults + r.Children,
		TotalAmount:        total,
		Currency:           r.Currency,
		LastModified:       changed,
	}, nil
}

var _ integration.ProviderAdapter = (*ProtelAdapter)(nil)
