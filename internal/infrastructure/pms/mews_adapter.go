package pms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// MewsAdapter implements ProviderAdapter for the Mews cloud PMS (REST, bearer token).
// One instance serves one property.
type MewsAdapter struct {
	config *ConnectionConfig
	client *Client
	logger *zap.Logger
}

// mewsRateLimit is the budget Mews publishes per access token
var mewsRateLimit = integration.RateLimit{PerMinute: 300, PerHour: 10000}

// NewMewsAdapter creates a Mews adapter for one connection
func NewMewsAdapter(config ConnectionConfig, deps Dependencies) (*MewsAdapter, error) {
	config.Provider = integration.ProviderMews
	if config.Auth.Scheme == "" {
		config.Auth.Scheme = AuthBearer
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	return &MewsAdapter{
		config: &config,
		client: NewClient(ClientOptions{
			Provider:    integration.ProviderMews,
			BaseURL:     config.BaseURL,
			Auth:        config.Auth,
			Timeout:     config.Timeout(),
			Retry:       config.retryOr(DefaultRetryOptions()),
			RateLimiter: NewRateLimiter(config.rateLimitOr(mewsRateLimit)),
			Metrics:     deps.Metrics,
			HTTPClient:  deps.HTTPClient,
			Logger:      deps.Logger,
			Sleep:       deps.Sleep,
		}),
		logger: deps.Logger.With(zap.String("provider", string(integration.ProviderMews))),
	}, nil
}

// Metadata returns the static description of the adapter
func (a *MewsAdapter) Metadata() integration.AdapterMetadata {
	return integration.AdapterMetadata{
		Vendor:               mewsVendor,
		Provider:             integration.ProviderMews,
		Protocol:             integration.ProtocolREST,
		RateLimit:            a.config.rateLimitOr(mewsRateLimit),
		SupportsWebhooks:     true,
		SupportsRealTimeSync: true,
	}
}

// FetchBookings pulls reservations updated since opts.UpdatedSince
func (a *MewsAdapter) FetchBookings(ctx context.Context, scope integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedBooking, error) {
	resp, err := a.client.Do(ctx, Request{
		Operation: "fetch_bookings",
		Method:    http.MethodGet,
		Path:      "/api/v1/reservations",
		Query:     a.query(opts, true),
		Header:    syncHeader(scope),
	})
	if err != nil {
		return nil, err
	}

	var body mewsReservationsResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	bookings := make([]integration.NormalizedBooking, 0, len(body.Reservations))
	for i := range body.Reservations {
		b, err := convertMewsReservation(&body.Reservations[i])
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

// FetchRooms pulls spaces with their housekeeping state
func (a *MewsAdapter) FetchRooms(ctx context.Context, scope integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedRoom, error) {
	resp, err := a.client.Do(ctx, Request{
		Operation: "fetch_rooms",
		Method:    http.MethodGet,
		Path:      "/api/v1/resources",
		Query:     a.query(opts, false),
		Header:    syncHeader(scope),
	})
	if err != nil {
		return nil, err
	}

	var body mewsResourcesResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	rooms := make([]integration.NormalizedRoom, 0, len(body.Resources))
	for _, r := range body.Resources {
		if err := requireExternalID(mewsVendor, r.ID); err != nil {
			return nil, err
		}
		status, err := mewsResourceStates.Lookup(r.State)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, integration.NormalizedRoom{
			ExternalID:   r.ID,
			RoomNumber:   r.Name,
			Floor:        r.FloorNumber,
			Status:       status,
			RoomType:     r.Category,
			MaxOccupancy: r.Capacity,
			Amenities:    r.Features,
		})
	}
	return rooms, nil
}

// FetchGuests pulls customer profiles
func (a *MewsAdapter) FetchGuests(ctx context.Context, scope integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedGuest, error) {
	resp, err := a.client.Do(ctx, Request{
		Operation: "fetch_guests",
		Method:    http.MethodGet,
		Path:      "/api/v1/customers",
		Query:     a.query(opts, false),
		Header:    syncHeader(scope),
	})
	if err != nil {
		return nil, err
	}

	var body mewsCustomersResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	guests := make([]integration.NormalizedGuest, 0, len(body.Customers))
	for _, c := range body.Customers {
		if err := requireExternalID(mewsVendor, c.ID); err != nil {
			return nil, err
		}
		guests = append(guests, integration.NormalizedGuest{
			ExternalID:  c.ID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Email:       c.Email,
			Phone:       c.Phone,
			Country:     c.NationalityCode,
			LoyaltyTier: c.LoyaltyCode,
			TotalStays:  c.ReservationCount,
			TotalSpent:  c.TotalSpent,
		})
	}
	return guests, nil
}

// CreateBooking creates a reservation and returns its Mews ID
func (a *MewsAdapter) CreateBooking(ctx context.Context, scope integration.Scope, draft integration.BookingDraft) (string, error) {
	// a retried POST could create the reservation twice
	resp, err := a.client.DoOnce(ctx, Request{
		Operation: "create_booking",
		Method:    http.MethodPost,
		Path:      "/api/v1/reservations",
		Header:    syncHeader(scope),
		Body: mewsReservationInput{
			PropertyID: a.config.PropertyID,
			Customer: mewsCustomerInput{
				FirstName: draft.GuestFirstName,
				LastName:  draft.GuestLastName,
				Email:     draft.GuestEmail,
				Phone:     draft.GuestPhone,
			},
			RoomCategoryCode: draft.RoomTypeCode,
			RateCode:         draft.RatePlanCode,
			StartUtc:         draft.CheckInDate.UTC().Format(time.RFC3339),
			EndUtc:           draft.CheckOutDate.UTC().Format(time.RFC3339),
			AdultCount:       draft.NumberOfGuests,
			Notes:            draft.Notes,
		},
	})
	if err != nil {
		return "", err
	}

	var created mewsReservationCreated
	if err := resp.Decode(&created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", integration.NewInvalidResponseError("Mews returned no reservation ID", nil)
	}
	return created.ID, nil
}

// CancelBooking cancels a reservation
func (a *MewsAdapter) CancelBooking(ctx context.Context, scope integration.Scope, externalID string) error {
	_, err := a.client.Do(ctx, Request{
		Operation: "cancel_booking",
		Method:    http.MethodPost,
		Path:      "/api/v1/reservations/" + url.PathEscape(externalID) + "/cancel",
		Header:    syncHeader(scope),
		Body:      mewsCancelInput{PropertyID: a.config.PropertyID, Reason: "Canceled by hotel"},
	})
	return err
}

// TestConnection reads the property configuration
func (a *MewsAdapter) TestConnection(ctx context.Context, scope integration.Scope) (*integration.ConnectionResult, error) {
	start := time.Now()
	resp, err := a.client.DoOnce(ctx, Request{
		Operation: "test_connection",
		Method:    http.MethodGet,
		Path:      "/api/v1/configuration",
		Query:     url.Values{"propertyId": {a.config.PropertyID}},
	})
	if err != nil {
		return failedConnection(err, time.Since(start)), nil
	}

	var cfg mewsConfiguration
	if err := resp.Decode(&cfg); err != nil {
		return failedConnection(err, time.Since(start)), nil
	}
	return &integration.ConnectionResult{
		Success: true,
		Message: "connected to " + cfg.Property.Name,
		Latency: time.Since(start),
		Details: map[string]string{"propertyId": cfg.Property.ID, "propertyName": cfg.Property.Name},
	}, nil
}

// NormalizeBooking converts a Mews webhook reservation
func (a *MewsAdapter) NormalizeBooking(payload json.RawMessage) (*integration.NormalizedBooking, error) {
	var r MewsReservation
	if err := decodeWebhookJSON(payload, &r); err != nil {
		return nil, err
	}
	return convertMewsReservation(&r)
}

func (a *MewsAdapter) query(opts integration.FetchOptions, stayWindow bool) url.Values {
	q := url.Values{"propertyId": {a.config.PropertyID}}
	if !opts.UpdatedSince.IsZero() {
		q.Set("updatedSince", opts.UpdatedSince.UTC().Format(time.RFC3339))
	}
	if stayWindow && !opts.From.IsZero() {
		q.Set("startUtc", opts.From.UTC().Format(time.RFC3339))
	}
	if stayWindow && !opts.To.IsZero() {
		q.Set("endUtc", opts.To.UTC().Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	return q
}

// convertMewsReservation converts a Mews reservation to canonical form
func convertMewsReservation(r *MewsReservation) (*integration.NormalizedBooking, error) {
	if err := requireExternalID(mewsVendor, r.ID); err != nil {
		return nil, err
	}
	status, err := mewsReservationStates.Lookup(r.State)
	if err != nil {
		return nil, err
	}
	checkIn, err := parseDate("StartUtc", r.StartUtc)
	if err != nil {
		return nil, err
	}
	checkOut, err := parseDate("EndUtc", r.EndUtc)
	if err != nil {
		return nil, err
	}
	updated, err := parseDate("UpdatedUtc", r.UpdatedUtc)
	if err != nil {
		return nil, err
	}
	return &integration.NormalizedBooking{
		ExternalID:         r.ID,
		GuestID:            r.CustomerID,
		RoomID:             r.AssignedResourceID,
		RoomNumber:         r.AssignedResourceName,
		ConfirmationNumber: r.Number,
		Status:             status,
		CheckInDate:        checkIn,
		CheckOutDate:       checkOut,
		NumberOfGuests:     r.AdultCount + r.ChildCount,
		TotalAmount:        r.TotalAmount,
		Currency:           r.Currency,
		LastModified:       updated,
	}, nil
}

var _ integration.ProviderAdapter = (*MewsAdapter)(nil)
