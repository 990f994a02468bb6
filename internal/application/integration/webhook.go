package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/logger"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/telemetry"
)

// WebhookRequest is one inbound booking webhook delivery
type WebhookRequest struct {
	HotelID   uuid.UUID
	Provider  integration.ProviderKey
	Body      []byte
	Signature string
}

// HandleWebhook reconciles the single booking carried by a webhook. Deliveries that
// carry a correlation ID are processed at most once within the dedupe window; a
// repeat returns DUPLICATE_DELIVERY. A failed upsert is reported in the summary
// and releases the delivery so the PMS can retry it.
func (s *SyncService) HandleWebhook(ctx context.Context, req WebhookRequest) (*integration.SyncSummary, error) {
	if req.HotelID == uuid.Nil {
		return nil, integration.NewInvalidInputError(integration.ErrInvalidHotelID)
	}
	adapter, err := s.registry.Get(req.HotelID, req.Provider)
	if err != nil {
		return nil, err
	}
	provider := req.Provider.String()

	if s.authenticator != nil {
		if err := s.authenticator.Authenticate(req.HotelID, req.Provider, req.Body, req.Signature); err != nil {
			s.metrics.RecordWebhook(ctx, provider, "rejected")
			logger.Enrich(ctx, s.logger).Warn("PMS webhook rejected",
				zap.String("provider", provider), zap.Error(err))
			return nil, err
		}
	}

	payload, err := decodeWebhook(req.Body)
	if err != nil {
		s.metrics.RecordWebhook(ctx, provider, "rejected")
		return nil, err
	}

	syncID := s.newSyncID()
	correlationID := payload.CorrelationID()
	ctx = logger.WithHotelID(ctx, req.HotelID.String())
	ctx = logger.WithSyncID(ctx, syncID)
	if correlationID != "" {
		ctx = logger.WithCorrelationID(ctx, correlationID)
	}
	ctx, span := telemetry.StartSpan(ctx, "pms.webhook.booking",
		telemetry.WithSpanKind(trace.SpanKindServer),
		telemetry.WithAttribute(telemetry.SpanAttrHotelID, req.HotelID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProvider, provider),
		telemetry.WithAttribute(telemetry.SpanAttrSyncID, syncID),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger).With(zap.String("provider", provider))

	claimKey, err := s.claim(ctx, log, req.HotelID, req.Provider, correlationID)
	if err != nil {
		s.metrics.RecordWebhook(ctx, provider, "duplicate")
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.archivePayload(ctx, log, integration.ArchivedPayload{
		HotelID:       req.HotelID,
		Provider:      req.Provider,
		Kind:          "webhook",
		CorrelationID: correlationID,
		ReceivedAt:    s.clock(),
		Body:          req.Body,
	})

	booking, err := adapter.NormalizeBooking(payload.Booking)
	if err != nil {
		s.release(ctx, log, claimKey)
		s.metrics.RecordWebhook(ctx, provider, "rejected")
		telemetry.RecordError(span, err)
		log.Warn("PMS webhook payload not normalized", zap.String("code", integration.CodeOf(err)), zap.Error(err))
		return nil, err
	}

	release, err := s.locks.acquire(ctx, req.HotelID)
	if err != nil {
		s.release(ctx, log, claimKey)
		return nil, integration.NewCanceledError(err)
	}
	defer release()

	summary := integration.NewSyncSummary(syncID, req.HotelID, req.Provider, integration.EntityBookings, s.clock())
	record := pendingRecord{externalID: booking.ExternalID, upsert: func(ctx context.Context) (integration.SyncedRecord, error) {
		return s.reconciler.UpsertBooking(ctx, req.HotelID, req.Provider, *booking)
	}}
	if interrupted := s.reconcileAll(ctx, span, log, summary, []pendingRecord{record}, correlationID); interrupted != nil {
		s.release(ctx, log, claimKey)
		s.finishFailed(ctx, span, log, summary, interrupted)
		return summary, interrupted
	}

	result := "processed"
	if summary.Failed > 0 {
		result = "failed"
		s.release(ctx, log, claimKey)
	}
	s.metrics.RecordWebhook(ctx, provider, result)
	s.finishCompleted(ctx, span, log, summary)

	fields := []zap.Field{zap.String("external_id", booking.ExternalID), zap.String("result", result)}
	if len(summary.Records) == 1 {
		fields = append(fields, zap.String("action", string(summary.Records[0].Action)))
	}
	log.Info("PMS webhook processed", fields...)
	return summary, nil
}

func decodeWebhook(body []byte) (integration.WebhookPayload, error) {
	var payload integration.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, integration.WrapIntegrationError(integration.CodeInvalidPayload,
			"webhook body is not valid JSON", http.StatusBadRequest, err)
	}
	trimmed := bytes.TrimSpace(payload.Booking)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return payload, integration.NewIntegrationError(integration.CodeInvalidPayload,
			"webhook body has no booking", http.StatusBadRequest)
	}
	return payload, nil
}

// claim reserves the delivery in the idempotency store. It returns the key to
// release on failure, or "" when no dedupe applies. An unavailable store does not
// block processing.
func (s *SyncService) claim(ctx context.Context, log *zap.Logger, hotelID uuid.UUID, provider integration.ProviderKey, correlationID string) (string, error) {
	if correlationID == "" || s.idempotency == nil {
		return "", nil
	}
	key := integration.IdempotencyKey(hotelID, provider, correlationID)
	claimed, err := s.idempotency.Claim(ctx, key, s.dedupeTTL)
	if err != nil {
		log.Warn("Idempotency store unavailable, processing without dedupe", zap.Error(err))
		return "", nil
	}
	if !claimed {
		log.Info("Duplicate PMS webhook ignored")
		return "", integration.NewIntegrationError(integration.CodeDuplicateDelivery,
			"webhook delivery already processed", http.StatusConflict)
	}
	return key, nil
}

func (s *SyncService) release(ctx context.Context, log *zap.Logger, key string) {
	if key == "" {
		return
	}
	if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		log.Warn("Failed to release webhook delivery", zap.Error(err))
	}
}

func (s *SyncService) archivePayload(ctx context.Context, log *zap.Logger, payload integration.ArchivedPayload) {
	if s.archive == nil {
		return
	}
	location, err := s.archive.Archive(ctx, payload)
	if err != nil {
		log.Warn("Failed to archive PMS payload", zap.Error(err))
		return
	}
	log.Debug("PMS payload archived", zap.String("location", location))
}
