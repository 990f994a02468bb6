package pms

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// cloudbedsGraphQLPath is appended to the configured base URL
const cloudbedsGraphQLPath = "/graphql"

// cloudbedsRateLimit is the per-property GraphQL budget
var cloudbedsRateLimit = integration.RateLimit{PerMinute: 120}

// CloudbedsAdapter implements ProviderAdapter over the Cloudbeds GraphQL API
type CloudbedsAdapter struct {
	config *ConnectionConfig
	gql    *GraphQLClient
	logger *zap.Logger
}

// NewCloudbedsAdapter creates a Cloudbeds adapter for one connection
func NewCloudbedsAdapter(config ConnectionConfig, deps Dependencies) (*CloudbedsAdapter, error) {
	config.Provider = integration.ProviderCloudbeds
	if config.Auth.Scheme == "" {
		config.Auth.Scheme = AuthBearer
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	client := NewClient(ClientOptions{
		Provider:    integration.ProviderCloudbeds,
		BaseURL:     config.BaseURL,
		Auth:        config.Auth,
		Timeout:     config.Timeout(),
		RateLimiter: NewRateLimiter(config.rateLimitOr(cloudbedsRateLimit)),
		Metrics:     deps.Metrics,
		HTTPClient:  deps.HTTPClient,
		Logger:      deps.Logger,
	})
	return &CloudbedsAdapter{
		config: &config,
		gql:    NewGraphQLClient(client, cloudbedsGraphQLPath),
		logger: deps.Logger.With(zap.String("provider", string(integration.ProviderCloudbeds))),
	}, nil
}

// Metadata returns the static description of the adapter
func (a *CloudbedsAdapter) Metadata() integration.AdapterMetadata {
	return integration.AdapterMetadata{
		Vendor:               cloudbedsVendor,
		Provider:             integration.ProviderCloudbeds,
		Protocol:             integration.ProtocolGraphQL,
		RateLimit:            a.config.rateLimitOr(cloudbedsRateLimit),
		SupportsWebhooks:     true,
		SupportsRealTimeSync: false,
	}
}

// FetchBookings pulls reservations
func (a *CloudbedsAdapter) FetchBookings(ctx context.Context, _ integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedBooking, error) {
	var data cloudbedsReservationsData
	if err := a.gql.Execute(ctx, "reservations", cloudbedsReservationsQuery, a.listVariables(opts), &data); err != nil {
		return nil, err
	}

	bookings := make([]integration.NormalizedBooking, 0, len(data.Reservations))
	for i := range data.Reservations {
		b, err := convertCloudbedsReservation(&data.Reservations[i])
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

// FetchRooms pulls rooms
func (a *CloudbedsAdapter) FetchRooms(ctx context.Context, _ integration.Scope, _ integration.FetchOptions) ([]integration.NormalizedRoom, error) {
	var data cloudbedsRoomsData
	vars := map[string]any{"propertyID": a.config.PropertyID}
	if err := a.gql.Execute(ctx, "rooms", cloudbedsRoomsQuery, vars, &data); err != nil {
		return nil, err
	}

	rooms := make([]integration.NormalizedRoom, 0, len(data.Rooms))
	for _, r := range data.Rooms {
		if err := requireExternalID(cloudbedsVendor, r.ID); err != nil {
			return nil, err
		}
		status, err := cloudbedsRoomStates.Lookup(r.Status)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, integration.NormalizedRoom{
			ExternalID:   r.ID,
			RoomNumber:   r.Name,
			Floor:        r.Floor,
			Status:       status,
			RoomType:     r.RoomTypeName,
			MaxOccupancy: r.MaxGuests,
			Amenities:    r.Amenities,
		})
	}
	return rooms, nil
}

// FetchGuests pulls guest profiles
func (a *CloudbedsAdapter) FetchGuests(ctx context.Context, _ integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedGuest, error) {
	var data cloudbedsGuestsData
	if err := a.gql.Execute(ctx, "guests", cloudbedsGuestsQuery, a.listVariables(opts), &data); err != nil {
		return nil, err
	}

	guests := make([]integration.NormalizedGuest, 0, len(data.Guests))
	for _, g := range data.Guests {
		if err := requireExternalID(cloudbedsVendor, g.ID); err != nil {
			return nil, err
		}
		guests = append(guests, integration.NormalizedGuest{
			ExternalID:  g.ID,
			FirstName:   g.FirstName,
			LastName:    g.LastName,
			Email:       g.Email,
			Phone:       g.Phone,
			Country:     g.Country,
			LoyaltyTier: g.LoyaltyTier,
			TotalStays:  g.Stays,
			TotalSpent:  g.TotalSpent,
		})
	}
	return guests, nil
}

// CreateBooking runs the createReservation mutation
func (a *CloudbedsAdapter) CreateBooking(ctx context.Context, _ integration.Scope, draft integration.BookingDraft) (string, error) {
	input := map[string]any{
		"propertyID":   a.config.PropertyID,
		"firstName":    draft.GuestFirstName,
		"lastName":     draft.GuestLastName,
		"email":        draft.GuestEmail,
		"phone":        draft.GuestPhone,
		"roomTypeCode": draft.RoomTypeCode,
		"ratePlanCode": draft.RatePlanCode,
		"startDate":    formatDate(draft.CheckInDate),
		"endDate":      formatDate(draft.CheckOutDate),
		"adults":       draft.NumberOfGuests,
		"notes":        draft.Notes,
	}
	var data cloudbedsCreateData
	if err := a.gql.Execute(ctx, "createReservation", cloudbedsCreateReservationMutation, map[string]any{"input": input}, &data); err != nil {
		return "", err
	}
	if data.CreateReservation.ID == "" {
		return "", integration.NewInvalidResponseError("Cloudbeds returned no reservation ID", nil)
	}
	return data.CreateReservation.ID, nil
}

// CancelBooking runs the cancelReservation mutation
func (a *CloudbedsAdapter) CancelBooking(ctx context.Context, _ integration.Scope, externalID string) error {
	vars := map[string]any{"propertyID": a.config.PropertyID, "id": externalID}
	return a.gql.Execute(ctx, "cancelReservation", cloudbedsCancelReservationMutation, vars, nil)
}

// TestConnection queries the property node
func (a *CloudbedsAdapter) TestConnection(ctx context.Context, _ integration.Scope) (*integration.ConnectionResult, error) {
	start := time.Now()
	var data cloudbedsPropertyData
	err := a.gql.Execute(ctx, "property", cloudbedsPropertyQuery, map[string]any{"propertyID": a.config.PropertyID}, &data)
	if err != nil {
		return failedConnection(err, time.Since(start)), nil
	}
	if data.Property == nil {
		return &integration.ConnectionResult{
			Success: false,
			Message: "property " + a.config.PropertyID + " not visible to these credentials",
			Latency: time.Since(start),
		}, nil
	}
	return &integration.ConnectionResult{
		Success: true,
		Message: "connected to " + data.Property.Name,
		Latency: time.Since(start),
		Details: map[string]string{"propertyId": data.Property.ID, "timezone": data.Property.Timezone},
	}, nil
}

// NormalizeBooking converts a Cloudbeds webhook reservation node
func (a *CloudbedsAdapter) NormalizeBooking(payload json.RawMessage) (*integration.NormalizedBooking, error) {
	var r CloudbedsReservation
	if err := decodeWebhookJSON(payload, &r); err != nil {
		return nil, err
	}
	return convertCloudbedsReservation(&r)
}

func (a *CloudbedsAdapter) listVariables(opts integration.FetchOptions) map[string]any {
	vars := map[string]any{"propertyID": a.config.PropertyID}
	if !opts.UpdatedSince.IsZero() {
		vars["updatedSince"] = opts.UpdatedSince.UTC().Format(time.RFC3339)
	}
	if opts.Limit > 0 {
		vars["limit"] = opts.Limit
	}
	return vars
}

// convertCloudbedsReservation converts a reservation node to canonical form
func convertCloudbedsReservation(r *CloudbedsReservation) (*integration.NormalizedBooking, error) {
	if err := requireExternalID(cloudbedsVendor, r.ID); err != nil {
		return nil, err
	}
	status, err := cloudbedsReservationStates.Lookup(r.Status)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("startDate", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", r.EndDate)
	if err != nil {
		return nil, err
	}
	modified, err := parseDate("dateModified", r.DateModified)
	if err != nil {
		return nil, err
	}
	return &integration.NormalizedBooking{
		ExternalID:         r.ID,
		GuestID:            r.GuestID,
		RoomID:             r.RoomID,
		RoomNumber:         r.RoomName,
		ConfirmationNumber: r.ConfirmationCode,
		Status:             status,
		CheckInDate:        start,
		CheckOutDate:       end,
		NumberOfGuests:     r.Adults + r.Children,
		TotalAmount:        r.Total,
		Currency:           r.Currency,
		LastModified:       modified,
	}, nil
}

var _ integration.ProviderAdapter = (*CloudbedsAdapter)(nil)
