package pms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

func newProtelTestAdapter(t *testing.T, srv *httptest.Server, rec *sleepRecorder) *ProtelAdapter {
	t.Helper()
	a, err := NewProtelAdapter(ConnectionConfig{
		BaseURL:    srv.URL,
		PropertyID: "H001",
		Auth:       AuthConfig{APIKey: "key-1"},
	}, Dependencies{Sleep: rec.Sleep})
	require.NoError(t, err)
	return a
}

func TestProtelAdapter_FetchBookings(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/hotels/H001/reservations", r.URL.Path)
		gotKey = r.Header.Get(DefaultAPIKeyHeader)
		writeJSON(w, http.StatusOK, `{"data":[{
			"res_no":"R1","confirmation_no":"CNF1","status":"GUARANTEED","guest_no":"G1","room_no":"12",
			"arrival":"2026-04-01","departure":"2026-04-05","adults":1,"children":0,
			"total_revenue":"399.00","currency":"CHF","last_change":"2026-03-30T12:00:00Z"
		}]}`)
	}))
	defer srv.Close()

	a := newProtelTestAdapter(t, srv, &sleepRecorder{})
	bookings, err := a.FetchBookings(context.Background(), testScope(), integration.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, integration.BookingStatusConfirmed, bookings[0].Status)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), bookings[0].CheckInDate)
	assert.Equal(t, "399", bookings[0].TotalAmount.String())
	assert.Equal(t, "CHF", bookings[0].Currency)
}

func TestProtelAdapter_UsesLegacyBackoff(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, `{}`)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	a := newProtelTestAdapter(t, srv, rec)
	_, err := a.FetchRooms(context.Background(), testScope(), integration.FetchOptions{})
	require.Error(t, err)
	assert.Equal(t, integration.CodeMaxRetriesExceeded, integration.CodeOf(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	delays := rec.Delays()
	require.Len(t, delays, 2)
	assert.InDelta(t, float64(2*time.Second), float64(delays[0]), float64(time.Millisecond))
	assert.InDelta(t, float64(6*time.Second), float64(delays[1]), float64(time.Millisecond))
}

func TestProtelAdapter_CreateBookingIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, `{}`)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	_, err := newProtelTestAdapter(t, srv, rec).CreateBooking(context.Background(), testScope(), integration.BookingDraft{
		GuestFirstName: "Ada",
		GuestLastName:  "Lovelace",
		RoomTypeCode:   "DBL",
		CheckInDate:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
		NumberOfGuests: 2,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, rec.Delays())
}

func TestProtelAdapter_FetchRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[
			{"room_no":"12","floor":1,"hk_status":"DIRTY","room_type":"DBL","max_persons":2},
			{"room_no":"13","hk_status":"OOO","room_type":"DBL","max_persons":2}
		]}`)
	}))
	defer srv.Close()

	rooms, err := newProtelTestAdapter(t, srv, &sleepRecorder{}).FetchRooms(context.Background(), testScope(), integration.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, integration.RoomStatusDirty, rooms[0].Status)
	assert.Equal(t, integration.RoomStatusOutOfOrder, rooms[1].Status)
	assert.Equal(t, "12", rooms[0].ExternalID)
}

func TestProtelAdapter_FetchGuestsNotSupported(t *testing.T) {
	a, err := NewProtelAdapter(ConnectionConfig{BaseURL: "http://protel.local", PropertyID: "H001", Auth: AuthConfig{APIKey: "k"}}, Dependencies{})
	require.NoError(t, err)

	guests, err := a.FetchGuests(context.Background(), testScope(), integration.FetchOptions{})
	assert.Nil(t, guests)
	require.Error(t, err)
	ie, ok := integration.AsIntegrationError(err)
	require.True(t, ok)
	assert.Equal(t, integration.CodeGuestsNotSupported, ie.Code)
	assert.Equal(t, http.StatusNotImplemented, ie.StatusCode)
}

func TestProtelAdapter_TestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/hotels/H001/ping", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK\n"))
	}))
	defer srv.Close()

	res, err := newProtelTestAdapter(t, srv, &sleepRecorder{}).TestConnection(context.Background(), testScope())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "OK", res.Message)
}

func TestProtelAdapter_CancelBooking(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newProtelTestAdapter(t, srv, &sleepRecorder{}).CancelBooking(context.Background(), testScope(), "R1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/v2/hotels/H001/reservations/R1", path)
}
