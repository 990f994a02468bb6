package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/application/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/pms"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/dto"
)

// PMSService is the slice of the sync service the HTTP layer drives
type PMSService interface {
	Sync(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, entity integration.EntityType, opts integration.FetchOptions) (*integration.SyncSummary, error)
	TestConnection(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey) (*integration.ConnectionResult, error)
	CreateBooking(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, draft integration.BookingDraft) (string, error)
	CancelBooking(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) error
	HandleWebhook(ctx context.Context, req app.WebhookRequest) (*integration.SyncSummary, error)
}

// PMSHandler exposes sync, connection, booking and webhook endpoints
type PMSHandler struct {
	BaseHandler
	service PMSService
}

// NewPMSHandler creates a new PMSHandler
func NewPMSHandler(service PMSService) *PMSHandler {
	return &PMSHandler{service: service}
}

// path binds and parses hotelId and provider. It writes the error response
// and returns false when they are invalid.
func (h *PMSHandler) path(c *gin.Context) (uuid.UUID, integration.ProviderKey, bool) {
	var p dto.PMSPath
	if err := c.ShouldBindUri(&p); err != nil {
		h.ValidationError(c, "Invalid path parameters", err)
		return uuid.Nil, "", false
	}
	hotelID, provider, err := p.Parse()
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, "", false
	}
	return hotelID, provider, true
}

// Sync pulls one entity type from the PMS and returns the run summary.
// A failed run still returns its summary next to the error.
// POST /hotels/:hotelId/pms/:provider/sync/:entity
func (h *PMSHandler) Sync(c *gin.Context) {
	hotelID, provider, ok := h.path(c)
	if !ok {
		return
	}
	entity, err := integration.ParseEntityType(c.Param("entity"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var query dto.SyncQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, "Invalid sync filters", err)
		return
	}

	summary, err := h.service.Sync(c.Request.Context(), hotelID, provider, entity, query.FetchOptions())
	if err != nil {
		if summary != nil {
			h.HandleErrorWithData(c, err, summary)
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// TestConnection probes the PMS. An unreachable PMS is a successful request
// with success=false in the body.
// GET /hotels/:hotelId/pms/:provider/connection
func (h *PMSHandler) TestConnection(c *gin.Context) {
	hotelID, provider, ok := h.path(c)
	if !ok {
		return
	}
	result, err := h.service.TestConnection(c.Request.Context(), hotelID, provider)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewConnectionResponse(result))
}

// CreateBooking creates a reservation on the PMS
// POST /hotels/:hotelId/pms/:provider/bookings
func (h *PMSHandler) CreateBooking(c *gin.Context) {
	hotelID, provider, ok := h.path(c)
	if !ok {
		return
	}
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	externalID, err := h.service.CreateBooking(c.Request.Context(), hotelID, provider, req.ToDraft())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.CreateBookingResponse{ExternalID: externalID})
}

// CancelBooking cancels a reservation on the PMS
// DELETE /hotels/:hotelId/pms/:provider/bookings/:externalId
func (h *PMSHandler) CancelBooking(c *gin.Context) {
	hotelID, provider, ok := h.path(c)
	if !ok {
		return
	}
	externalID := c.Param("externalId")
	if externalID == "" {
		h.BadRequest(c, "externalId is required")
		return
	}
	if err := h.service.CancelBooking(c.Request.Context(), hotelID, provider, externalID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Webhook ingests one booking pushed by a PMS. A record that could not be
// stored answers 500 so the PMS delivers it again.
// POST /pms/webhooks/:provider/:hotelId
func (h *PMSHandler) Webhook(c *gin.Context) {
	hotelID, provider, ok := h.path(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Webhook payload exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	summary, err := h.service.HandleWebhook(c.Request.Context(), app.WebhookRequest{
		HotelID:   hotelID,
		Provider:  provider,
		Body:      body,
		Signature: c.GetHeader(pms.SignatureHeader),
	})
	if err != nil {
		if summary != nil {
			h.HandleErrorWithData(c, err, summary)
			return
		}
		h.HandleError(c, err)
		return
	}
	if summary.Failed > 0 {
		message := "Webhook record could not be stored"
		if len(summary.Errors) > 0 {
			message = summary.Errors[0].Message
		}
		h.HandleErrorWithData(c, integration.NewIntegrationError(integration.CodeUpsertFailed, message, http.StatusInternalServerError), summary)
		return
	}
	h.Success(c, summary)
}
