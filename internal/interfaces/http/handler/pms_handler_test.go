package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app "github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/application/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/pms"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/middleware"
)

// MockPMSService implements PMSService for testing
type MockPMSService struct {
	mock.Mock
}

func (m *MockPMSService) Sync(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, entity integration.EntityType, opts integration.FetchOptions) (*integration.SyncSummary, error) {
	args := m.Called(ctx, hotelID, provider, entity, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncSummary), args.Error(1)
}

func (m *MockPMSService) TestConnection(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey) (*integration.ConnectionResult, error) {
	args := m.Called(ctx, hotelID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ConnectionResult), args.Error(1)
}

func (m *MockPMSService) CreateBooking(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, draft integration.BookingDraft) (string, error) {
	args := m.Called(ctx, hotelID, provider, draft)
	return args.String(0), args.Error(1)
}

func (m *MockPMSService) CancelBooking(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) error {
	args := m.Called(ctx, hotelID, provider, externalID)
	return args.Error(0)
}

func (m *MockPMSService) HandleWebhook(ctx context.Context, req app.WebhookRequest) (*integration.SyncSummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncSummary), args.Error(1)
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Details   []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func setupPMSTestRouter() (*gin.Engine, *MockPMSService) {
	gin.SetMode(gin.TestMode)

	svc := new(MockPMSService)
	router := gin.New()
	router.Use(middleware.RequestID())
	registerPMSRoutes(router, NewPMSHandler(svc))
	return router, svc
}

func registerPMSRoutes(router *gin.Engine, h *PMSHandler, webhookMiddleware ...gin.HandlerFunc) {
	api := router.Group("/api/v1")
	api.POST("/hotels/:hotelId/pms/:provider/sync/:entity", h.Sync)
	api.GET("/hotels/:hotelId/pms/:provider/connection", h.TestConnection)
	api.POST("/hotels/:hotelId/pms/:provider/bookings", h.CreateBooking)
	api.DELETE("/hotels/:hotelId/pms/:provider/bookings/:externalId", h.CancelBooking)
	api.POST("/pms/webhooks/:provider/:hotelId", append(webhookMiddleware, h.Webhook)...)
}

func testSummary(hotelID uuid.UUID, processed, failed int) *integration.SyncSummary {
	s := integration.NewSyncSummary("sync-1", hotelID, integration.ProviderMews, integration.EntityBookings,
		time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	for i := range processed {
		s.AddRecord(integration.SyncedRecord{ExternalID: "res-" + string(rune('a'+i)), Action: integration.UpsertCreated})
	}
	for range failed {
		s.AddFailure("res-x", errors.New("db down"))
	}
	s.Complete(time.Date(2026, 4, 1, 8, 0, 2, 0, time.UTC))
	return s
}

func TestPMSHandler_Sync(t *testing.T) {
	hotelID := uuid.New()

	t.Run("returns the summary", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("Sync", mock.Anything, hotelID, integration.ProviderMews, integration.EntityBookings,
			mock.MatchedBy(func(o integration.FetchOptions) bool {
				return o.UpdatedSince.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) &&
					o.From.Format("2006-01-02") == "2026-05-01" && o.Limit == 50
			})).Return(testSummary(hotelID, 2, 0), nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hotels/"+hotelID.String()+
			"/pms/MEWS/sync/bookings?updated_since=2026-04-01T00:00:00Z&from=2026-05-01&limit=50", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		var summary integration.SyncSummary
		require.NoError(t, json.Unmarshal(env.Data, &summary))
		assert.Equal(t, 2, summary.Processed)
		assert.Equal(t, integration.SyncStateCompleted, summary.State)
		svc.AssertExpectations(t)
	})

	t.Run("fetch failure keeps the partial summary", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		summary := testSummary(hotelID, 0, 0)
		summary.Fail(summary.StartedAt)
		cause := integration.WrapIntegrationError(integration.CodeSyncFailed, "bookings sync failed",
			http.StatusGatewayTimeout, integration.NewTimeoutError(context.DeadlineExceeded))
		svc.On("Sync", mock.Anything, hotelID, integration.ProviderMews, integration.EntityBookings, mock.Anything).
			Return(summary, cause)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/hotels/"+hotelID.String()+"/pms/mews/sync/bookings", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, integration.CodeSyncFailed, env.Error.Code)
		assert.NotEmpty(t, env.Error.RequestID)
		assert.Contains(t, string(env.Data), `"state":"FAILED"`)
	})

	t.Run("unsupported entity", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("Sync", mock.Anything, hotelID, integration.ProviderOpera, integration.EntityRooms, mock.Anything).
			Return(nil, integration.NewNotSupportedError(integration.ProviderOpera, integration.EntityRooms))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/hotels/"+hotelID.String()+"/pms/opera/sync/rooms", nil))

		assert.Equal(t, http.StatusNotImplemented, w.Code)
		assert.Equal(t, integration.CodeRoomsNotSupported, decodeEnvelope(t, w).Error.Code)
	})

	t.Run("rejects bad path values before calling the service", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		for _, path := range []string{
			"/api/v1/hotels/not-a-uuid/pms/mews/sync/bookings",
			"/api/v1/hotels/" + uuid.Nil.String() + "/pms/mews/sync/bookings",
			"/api/v1/hotels/" + hotelID.String() + "/pms/fidelio/sync/bookings",
			"/api/v1/hotels/" + hotelID.String() + "/pms/mews/sync/invoices",
		} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code, path)
		}
		svc.AssertNotCalled(t, "Sync")
	})

	t.Run("rejects an out of range limit", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
			"/api/v1/hotels/"+hotelID.String()+"/pms/mews/sync/bookings?limit=5000", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
		svc.AssertNotCalled(t, "Sync")
	})
}

func TestPMSHandler_TestConnection(t *testing.T) {
	hotelID := uuid.New()

	t.Run("failed probe is still a 200", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("TestConnection", mock.Anything, hotelID, integration.ProviderProtel).Return(&integration.ConnectionResult{
			Success: false,
			Message: "HTTP_401: unauthorized",
			Latency: 35 * time.Millisecond,
		}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/hotels/"+hotelID.String()+"/pms/protel/connection", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.JSONEq(t, `{"success":false,"message":"HTTP_401: unauthorized","latencyMs":35}`, string(env.Data))
	})

	t.Run("unknown hotel configuration", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("TestConnection", mock.Anything, hotelID, integration.ProviderProtel).
			Return(nil, integration.NewProviderNotSupportedError(integration.ProviderProtel))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/hotels/"+hotelID.String()+"/pms/protel/connection", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, integration.CodeProviderNotSupported, decodeEnvelope(t, w).Error.Code)
	})
}

func TestPMSHandler_CreateBooking(t *testing.T) {
	hotelID := uuid.New()
	body := `{
		"guestFirstName": "Ada",
		"guestLastName": "Lovelace",
		"roomTypeCode": "DBL",
		"checkInDate": "2026-05-01T00:00:00Z",
		"checkOutDate": "2026-05-03T00:00:00Z",
		"numberOfGuests": 2,
		"totalAmount": "310.00",
		"currency": "EUR"
	}`

	t.Run("creates the reservation", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("CreateBooking", mock.Anything, hotelID, integration.ProviderCloudbeds,
			mock.MatchedBy(func(d integration.BookingDraft) bool {
				return d.GuestLastName == "Lovelace" && d.NumberOfGuests == 2 && d.TotalAmount.String() == "310"
			})).Return("CB-1001", nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hotels/"+hotelID.String()+"/pms/cloudbeds/bookings", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"externalId":"CB-1001"}`, string(decodeEnvelope(t, w).Data))
		svc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hotels/"+hotelID.String()+"/pms/cloudbeds/bookings", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_BAD_REQUEST", decodeEnvelope(t, w).Error.Code)
		svc.AssertNotCalled(t, "CreateBooking")
	})

	t.Run("invalid draft lists the fields", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("CreateBooking", mock.Anything, hotelID, integration.ProviderCloudbeds, mock.Anything).
			Return("", integration.NewInvalidInputError(integration.ErrInvalidBookingDraft))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hotels/"+hotelID.String()+"/pms/cloudbeds/bookings", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", decodeEnvelope(t, w).Error.Code)
	})
}

func TestPMSHandler_CancelBooking(t *testing.T) {
	hotelID := uuid.New()

	t.Run("no content on success", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("CancelBooking", mock.Anything, hotelID, integration.ProviderMews, "res-9").Return(nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/hotels/"+hotelID.String()+"/pms/mews/bookings/res-9", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("vendor error keeps its status", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("CancelBooking", mock.Anything, hotelID, integration.ProviderMews, "res-9").
			Return(integration.NewHTTPError(http.StatusConflict, "already checked in"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/hotels/"+hotelID.String()+"/pms/mews/bookings/res-9", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "HTTP_409", decodeEnvelope(t, w).Error.Code)
	})
}

func TestPMSHandler_Webhook(t *testing.T) {
	hotelID := uuid.New()
	path := "/api/v1/pms/webhooks/mews/" + hotelID.String()
	payload := `{"correlationId":"evt-1","booking":{"Id":"res-1"}}`

	post := func(router *gin.Engine, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set(pms.SignatureHeader, "sha256=abc")
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("passes body and signature through", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("HandleWebhook", mock.Anything, app.WebhookRequest{
			HotelID:   hotelID,
			Provider:  integration.ProviderMews,
			Body:      []byte(payload),
			Signature: "sha256=abc",
		}).Return(testSummary(hotelID, 1, 0), nil)

		w := post(router, payload)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeEnvelope(t, w).Success)
		svc.AssertExpectations(t)
	})

	t.Run("failed upsert asks for redelivery", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(testSummary(hotelID, 0, 1), nil)

		w := post(router, payload)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, integration.CodeUpsertFailed, env.Error.Code)
		assert.Equal(t, "db down", env.Error.Message)
		assert.Contains(t, string(env.Data), `"failed":1`)
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil,
			integration.NewIntegrationError(integration.CodeDuplicateDelivery, "delivery already processed", http.StatusConflict))

		w := post(router, payload)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, integration.CodeDuplicateDelivery, decodeEnvelope(t, w).Error.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		router, svc := setupPMSTestRouter()
		svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil,
			integration.NewIntegrationError(integration.CodeInvalidSignature, "signature mismatch", http.StatusUnauthorized))

		w := post(router, payload)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		svc := new(MockPMSService)
		router := gin.New()
		registerPMSRoutes(router, NewPMSHandler(svc), func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 8)
			c.Next()
		})

		w := post(router, payload)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		svc.AssertNotCalled(t, "HandleWebhook")
	})
}
