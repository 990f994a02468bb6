package pms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

const mewsReservationJSON = `{
	"Id": "res-1",
	"Number": "C-100",
	"State": "Started",
	"CustomerId": "cust-1",
	"AssignedResourceId": "space-1",
	"AssignedResourceName": "101",
	"StartUtc": "2026-03-01T14:00:00Z",
	"EndUtc": "2026-03-04T10:00:00Z",
	"AdultCount": 2,
	"ChildCount": 1,
	"TotalAmount": 450.50,
	"Currency": "EUR",
	"UpdatedUtc": "2026-02-20T08:30:00Z"
}`

func newMewsTestAdapter(t *testing.T, srv *httptest.Server) *MewsAdapter {
	t.Helper()
	a, err := NewMewsAdapter(ConnectionConfig{
		BaseURL:    srv.URL,
		PropertyID: "prop-1",
		Auth:       AuthConfig{Token: "token-1"},
	}, Dependencies{Sleep: (&sleepRecorder{}).Sleep})
	require.NoError(t, err)
	return a
}

func testScope() integration.Scope {
	return integration.Scope{HotelID: uuid.New(), SyncID: "sync-1"}
}

func TestNewMewsAdapter_RequiresToken(t *testing.T) {
	_, err := NewMewsAdapter(ConnectionConfig{BaseURL: "https://api.mews.test", PropertyID: "p"}, Dependencies{})
	assert.ErrorIs(t, err, ErrConfigMissingToken)
}

func TestMewsAdapter_FetchBookings(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth, gotCorrelation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/reservations", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotCorrelation = r.Header.Get("X-Correlation-Id")
		writeJSON(w, http.StatusOK, `{"Reservations":[`+mewsReservationJSON+`]}`)
	}))
	defer srv.Close()

	a := newMewsTestAdapter(t, srv)
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	bookings, err := a.FetchBookings(context.Background(), testScope(), integration.FetchOptions{UpdatedSince: since, Limit: 50})
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	b := bookings[0]
	assert.Equal(t, "res-1", b.ExternalID)
	assert.Equal(t, integration.BookingStatusCheckedIn, b.Status)
	assert.Equal(t, 3, b.NumberOfGuests)
	assert.True(t, decimal.RequireFromString("450.50").Equal(b.TotalAmount))
	assert.Equal(t, "101", b.RoomNumber)
	assert.Equal(t, time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC), b.CheckInDate)

	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "sync-1", gotCorrelation)
	assert.Equal(t, []string{"prop-1"}, gotQuery["propertyId"])
	assert.Equal(t, []string{"2026-02-01T00:00:00Z"}, gotQuery["updatedSince"])
	assert.Equal(t, []string{"50"}, gotQuery["limit"])
}

func TestMewsAdapter_FetchBookings_UnmappedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"Reservations":[{"Id":"res-1","State":"Teleported"}]}`)
	}))
	defer srv.Close()

	a := newMewsTestAdapter(t, srv)
	_, err := a.FetchBookings(context.Background(), testScope(), integration.FetchOptions{})
	require.Error(t, err)
	assert.Equal(t, integration.CodeUnmappedStatus, integration.CodeOf(err))
}

func TestMewsAdapter_FetchRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/resources", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"Resources":[
			{"Id":"s1","Name":"101","FloorNumber":1,"State":"Clean","CategoryName":"Double","Capacity":2,"Features":["balcony"]},
			{"Id":"s2","Name":"102","State":"OutOfService","CategoryName":"Single","Capacity":1}
		]}`)
	}))
	defer srv.Close()

	a := newMewsTestAdapter(t, srv)
	rooms, err := a.FetchRooms(context.Background(), testScope(), integration.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, integration.RoomStatusAvailable, rooms[0].Status)
	require.NotNil(t, rooms[0].Floor)
	assert.Equal(t, 1, *rooms[0].Floor)
	assert.Equal(t, []string{"balcony"}, rooms[0].Amenities)
	assert.Equal(t, integration.RoomStatusMaintenance, rooms[1].Status)
	assert.Nil(t, rooms[1].Floor)
}

func TestMewsAdapter_FetchGuests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"Customers":[{"Id":"c1","FirstName":"Ada","LastName":"Lovelace","Email":"ada@example.com","NationalityCode":"GB","ReservationCount":4,"TotalSpent":1200}]}`)
	}))
	defer srv.Close()

	a := newMewsTestAdapter(t, srv)
	guests, err := a.FetchGuests(context.Background(), testScope(), integration.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "c1", guests[0].ExternalID)
	assert.Equal(t, "GB", guests[0].Country)
	assert.Equal(t, 4, guests[0].TotalStays)
	assert.True(t, decimal.NewFromInt(1200).Equal(guests[0].TotalSpent))
}

func TestMewsAdapter_CreateAndCancelBooking(t *testing.T) {
	var created mewsReservationInput
	var cancelPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/reservations":
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &created))
			writeJSON(w, http.StatusOK, `{"Id":"res-new"}`)
		default:
			cancelPath = r.URL.Path
			writeJSON(w, http.StatusOK, `{}`)
		}
	}))
	defer srv.Close()

	a := newMewsTestAdapter(t, srv)
	id, err := a.CreateBooking(context.Background(), testScope(), integration.BookingDraft{
		GuestFirstName: "Ada",
		GuestLastName:  "Lovelace",
		RoomTypeCode:   "DBL",
		CheckInDate:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
		NumberOfGuests: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "res-new", id)
	assert.Equal(t, "prop-1", created.PropertyID)
	assert.Equal(t, "Ada", created.Customer.FirstName)
	assert.Equal(t, "2026-05-01T00:00:00Z", created.StartUtc)

	require.NoError(t, a.CancelBooking(context.Background(), testScope(), "res-new"))
	assert.Equal(t, "/api/v1/reservations/res-new/cancel", cancelPath)
}

func TestMewsAdapter_CreateBookingIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadGateway, `{}`)
	}))
	defer srv.Close()

	_, err := newMewsTestAdapter(t, srv).CreateBooking(context.Background(), testScope(), integration.BookingDraft{
		GuestFirstName: "Ada",
		GuestLastName:  "Lovelace",
		RoomTypeCode:   "DBL",
		CheckInDate:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
		NumberOfGuests: 2,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMewsAdapter_TestConnection(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"Property":{"Id":"prop-1","Name":"Grand Hotel"}}`)
		}))
		defer srv.Close()

		res, err := newMewsTestAdapter(t, srv).TestConnection(context.Background(), testScope())
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Contains(t, res.Message, "Grand Hotel")
	})

	t.Run("unauthorized is reported, not raised", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"Message":"Invalid token"}`)
		}))
		defer srv.Close()

		res, err := newMewsTestAdapter(t, srv).TestConnection(context.Background(), testScope())
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "HTTP_401", res.Details["code"])
	})
}

func TestMewsAdapter_NormalizeBooking(t *testing.T) {
	a, err := NewMewsAdapter(ConnectionConfig{BaseURL: "https://api.mews.test", PropertyID: "p", Auth: AuthConfig{Token: "t"}}, Dependencies{})
	require.NoError(t, err)

	b, err := a.NormalizeBooking(json.RawMessage(mewsReservationJSON))
	require.NoError(t, err)
	assert.Equal(t, "C-100", b.ConfirmationNumber)

	_, err = a.NormalizeBooking(json.RawMessage(`{"Id":`))
	assert.Equal(t, integration.CodeInvalidPayload, integration.CodeOf(err))

	_, err = a.NormalizeBooking(nil)
	assert.Equal(t, integration.CodeInvalidPayload, integration.CodeOf(err))
}

func TestMewsAdapter_Metadata(t *testing.T) {
	a, err := NewMewsAdapter(ConnectionConfig{BaseURL: "https://api.mews.test", PropertyID: "p", Auth: AuthConfig{Token: "t"}}, Dependencies{})
	require.NoError(t, err)

	md := a.Metadata()
	assert.Equal(t, integration.ProviderMews, md.Provider)
	assert.Equal(t, integration.ProtocolREST, md.Protocol)
	assert.Equal(t, 300, md.RateLimit.PerMinute)
	assert.True(t, md.SupportsWebhooks)
}
