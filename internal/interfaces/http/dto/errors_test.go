package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{integration.CodeInvalidSignature, http.StatusUnauthorized},
		{integration.CodeDuplicateDelivery, http.StatusConflict},
		{integration.CodeCanceled, integration.StatusClientClosedRequest},
		{integration.CodeTimeout, http.StatusGatewayTimeout},
		{integration.CodeRoomsNotSupported, http.StatusNotImplemented},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestStatusForIntegrationError(t *testing.T) {
	t.Run("mapped code wins over carried status", func(t *testing.T) {
		err := integration.NewTimeoutError(errors.New("deadline"))
		assert.Equal(t, http.StatusGatewayTimeout, StatusForIntegrationError(err))
	})

	t.Run("vendor HTTP status is passed through", func(t *testing.T) {
		err := integration.NewHTTPError(http.StatusNotFound, "no such reservation")
		assert.Equal(t, http.StatusNotFound, StatusForIntegrationError(err))
	})

	t.Run("sync failure keeps the status of its cause", func(t *testing.T) {
		err := integration.WrapIntegrationError(integration.CodeSyncFailed, "bookings sync failed", http.StatusBadGateway, errors.New("x"))
		assert.Equal(t, http.StatusBadGateway, StatusForIntegrationError(err))
	})

	t.Run("missing status falls back to 500", func(t *testing.T) {
		err := integration.NewIntegrationError("SOMETHING", "odd", 0)
		assert.Equal(t, http.StatusInternalServerError, StatusForIntegrationError(err))
	})
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "guestLastName", Message: "is required"}}
	resp := NewValidationErrorResponse("Booking draft is invalid", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
	assert.WithinDuration(t, time.Now(), resp.Error.Timestamp, time.Minute)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"req-789"`)
	assert.NotContains(t, string(data), `"data"`)
}

func TestPMSPath_Parse(t *testing.T) {
	hotelID := uuid.New()

	id, provider, err := PMSPath{HotelID: hotelID.String(), Provider: "Cloudbeds"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, hotelID, id)
	assert.Equal(t, integration.ProviderCloudbeds, provider)

	_, _, err = PMSPath{HotelID: uuid.Nil.String(), Provider: "mews"}.Parse()
	assert.ErrorIs(t, err, integration.ErrInvalidHotelID)

	_, _, err = PMSPath{HotelID: hotelID.String(), Provider: "fidelio"}.Parse()
	assert.ErrorIs(t, err, integration.ErrInvalidProvider)
}
