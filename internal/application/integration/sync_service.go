package integration

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/logger"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/telemetry"
)

const defaultDedupeTTL = 24 * time.Hour

// SyncService orchestrates PMS synchronization: bulk pulls per entity, single
// booking webhooks, connection probes and outbound booking changes.
type SyncService struct {
	registry      integration.AdapterRegistry
	reconciler    *Reconciler
	notifier      integration.Notifier
	idempotency   integration.IdempotencyStore
	archive       integration.PayloadArchive
	authenticator integration.WebhookAuthenticator
	metrics       *telemetry.SyncMetrics
	dedupeTTL     time.Duration
	locks         *hotelLocks
	validate      *validator.Validate
	logger        *zap.Logger
	clock         func() time.Time
	newSyncID     func() string
}

// SyncServiceConfig contains the collaborators of SyncService. Registry and
// Reconciler are required; everything else is optional.
type SyncServiceConfig struct {
	Registry      integration.AdapterRegistry
	Reconciler    *Reconciler
	Notifier      integration.Notifier
	Idempotency   integration.IdempotencyStore
	Archive       integration.PayloadArchive
	Authenticator integration.WebhookAuthenticator
	Metrics       *telemetry.SyncMetrics
	DedupeTTL     time.Duration
	Logger        *zap.Logger
	Clock         func() time.Time
	NewSyncID     func() string
}

// NewSyncService creates a SyncService
func NewSyncService(cfg SyncServiceConfig) *SyncService {
	s := &SyncService{
		registry:      cfg.Registry,
		reconciler:    cfg.Reconciler,
		notifier:      cfg.Notifier,
		idempotency:   cfg.Idempotency,
		archive:       cfg.Archive,
		authenticator: cfg.Authenticator,
		metrics:       cfg.Metrics,
		dedupeTTL:     cfg.DedupeTTL,
		locks:         newHotelLocks(),
		validate:      newDraftValidator(),
		logger:        cfg.Logger,
		clock:         cfg.Clock,
		newSyncID:     cfg.NewSyncID,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	if s.newSyncID == nil {
		s.newSyncID = func() string { return uuid.NewString() }
	}
	if s.dedupeTTL <= 0 {
		s.dedupeTTL = defaultDedupeTTL
	}
	return s
}

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SyncBookings pulls and reconciles bookings
func (s *SyncService) SyncBookings(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, opts integration.FetchOptions) (*integration.SyncSummary, error) {
	return s.Sync(ctx, hotelID, provider, integration.EntityBookings, opts)
}

// SyncRooms pulls and reconciles rooms
func (s *SyncService) SyncRooms(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, opts integration.FetchOptions) (*integration.SyncSummary, error) {
	return s.Sync(ctx, hotelID, provider, integration.EntityRooms, opts)
}

// SyncGuests pulls and reconciles guest profiles
func (s *SyncService) SyncGuests(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, opts integration.FetchOptions) (*integration.SyncSummary, error) {
	return s.Sync(ctx, hotelID, provider, integration.EntityGuests, opts)
}

// pendingRecord is a fetched record waiting to be reconciled
type pendingRecord struct {
	externalID string
	upsert     func(context.Context) (integration.SyncedRecord, error)
}

// Sync pulls one entity type from the hotel's PMS and reconciles every record.
// A failed bulk fetch returns the FAILED summary and a SYNC_FAILED error wrapping
// the cause. Per-record failures never abort the run; they are listed in the summary.
// When ctx ends mid-run, the records not yet attempted are reported as CANCELED.
func (s *SyncService) Sync(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, entity integration.EntityType, opts integration.FetchOptions) (*integration.SyncSummary, error) {
	if hotelID == uuid.Nil {
		return nil, integration.NewInvalidInputError(integration.ErrInvalidHotelID)
	}
	if !entity.IsValid() {
		return nil, integration.NewInvalidInputError(integration.ErrInvalidEntityType)
	}
	adapter, err := s.registry.Get(hotelID, provider)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.acquire(ctx, hotelID)
	if err != nil {
		return nil, integration.NewCanceledError(err)
	}
	defer release()

	syncID := s.newSyncID()
	ctx = logger.WithHotelID(ctx, hotelID.String())
	ctx = logger.WithSyncID(ctx, syncID)
	ctx, span := telemetry.StartSpan(ctx, "pms.sync."+entity.String(),
		telemetry.WithAttribute(telemetry.SpanAttrHotelID, hotelID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProvider, provider.String()),
		telemetry.WithAttribute(telemetry.SpanAttrEntity, entity.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSyncID, syncID),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger).With(
		zap.String("provider", provider.String()),
		zap.String("entity", entity.String()),
	)

	summary := integration.NewSyncSummary(syncID, hotelID, provider, entity, s.clock())
	scope := integration.Scope{HotelID: hotelID, SyncID: syncID}
	log.Info("PMS sync started")

	records, err := s.fetch(ctx, adapter, scope, provider, entity, opts)
	if err != nil {
		syncErr := integration.WrapIntegrationError(integration.CodeSyncFailed,
			fmt.Sprintf("%s sync from %s failed", entity, provider), statusOf(err), err)
		s.finishFailed(ctx, span, log, summary, syncErr)
		return summary, syncErr
	}

	if interrupted := s.reconcileAll(ctx, span, log, summary, records, ""); interrupted != nil {
		s.finishFailed(ctx, span, log, summary, interrupted)
		return summary, interrupted
	}

	s.finishCompleted(ctx, span, log, summary)
	return summary, nil
}

func (s *SyncService) fetch(ctx context.Context, adapter integration.ProviderAdapter, scope integration.Scope, provider integration.ProviderKey, entity integration.EntityType, opts integration.FetchOptions) ([]pendingRecord, error) {
	hotelID := scope.HotelID
	switch entity {
	case integration.EntityRooms:
		rooms, err := adapter.FetchRooms(ctx, scope, opts)
		if err != nil {
			return nil, err
		}
		out := make([]pendingRecord, len(rooms))
		for i, room := range rooms {
			out[i] = pendingRecord{externalID: room.ExternalID, upsert: func(ctx context.Context) (integration.SyncedRecord, error) {
				return s.reconciler.UpsertRoom(ctx, hotelID, provider, room)
			}}
		}
		return out, nil
	case integration.EntityGuests:
		guests, err := adapter.FetchGuests(ctx, scope, opts)
		if err != nil {
			return nil, err
		}
		out := make([]pendingRecord, len(guests))
		for i, guest := range guests {
			out[i] = pendingRecord{externalID: guest.ExternalID, upsert: func(ctx context.Context) (integration.SyncedRecord, error) {
				return s.reconciler.UpsertGuest(ctx, hotelID, provider, guest)
			}}
		}
		return out, nil
	default:
		bookings, err := adapter.FetchBookings(ctx, scope, opts)
		if err != nil {
			return nil, err
		}
		out := make([]pendingRecord, len(bookings))
		for i, booking := range bookings {
			out[i] = pendingRecord{externalID: booking.ExternalID, upsert: func(ctx context.Context) (integration.SyncedRecord, error) {
				return s.reconciler.UpsertBooking(ctx, hotelID, provider, booking)
			}}
		}
		return out, nil
	}
}

// reconcileAll upserts records in adapter order. It returns a CANCELED error when
// ctx ended before every record was attempted.
func (s *SyncService) reconcileAll(ctx context.Context, span trace.Span, log *zap.Logger, summary *integration.SyncSummary, records []pendingRecord, correlationID string) error {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			canceled := integration.NewCanceledError(err)
			for _, rest := range records[i:] {
				summary.AddFailure(rest.externalID, canceled)
			}
			log.Warn("PMS sync interrupted", zap.Int("remaining", len(records)-i))
			return canceled
		}

		synced, err := rec.upsert(ctx)
		if err != nil {
			summary.AddFailure(rec.externalID, err)
			telemetry.AddEvent(span, "record_failed",
				telemetry.SpanAttrExternalID, rec.externalID,
				"code", integration.CodeOf(err),
			)
			log.Warn("PMS record sync failed",
				zap.String("external_id", rec.externalID),
				zap.String("code", integration.CodeOf(err)),
				zap.Error(err),
			)
			continue
		}
		summary.AddRecord(synced)
		if synced.Action != integration.UpsertUnchanged {
			s.emit(ctx, log, summary.EntityType.SyncedEventName(),
				integration.NewRecordSyncedPayload(summary, synced, correlationID, s.clock()))
		}
	}
	return nil
}

func (s *SyncService) finishCompleted(ctx context.Context, span trace.Span, log *zap.Logger, summary *integration.SyncSummary) {
	summary.Complete(s.clock())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSucceeded, summary.Processed,
		telemetry.SpanAttrFailed, summary.Failed,
	)
	telemetry.SetOK(span)
	s.metrics.RecordSync(ctx, summary.Provider.String(), summary.EntityType.String(), outcomeOf(summary), summary.Processed, summary.Failed, summary.Duration())
	s.emit(ctx, log, integration.EventSyncCompleted, integration.NewSyncCompletedPayload(summary))

	log.Info("PMS sync completed",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration()),
	)
}

func (s *SyncService) finishFailed(ctx context.Context, span trace.Span, log *zap.Logger, summary *integration.SyncSummary, cause error) {
	summary.Fail(s.clock())
	telemetry.RecordError(span, cause)
	s.metrics.RecordSync(ctx, summary.Provider.String(), summary.EntityType.String(), "failed", summary.Processed, summary.Failed, summary.Duration())
	s.emit(ctx, log, integration.EventSyncFailed, integration.NewSyncFailedPayload(summary, cause))

	log.Error("PMS sync failed",
		zap.String("code", integration.CodeOf(cause)),
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Error(cause),
	)
}

// emit delivers a notification. Notifier errors and panics are logged and dropped;
// delivery still happens when the caller's context has been canceled.
func (s *SyncService) emit(ctx context.Context, log *zap.Logger, name string, payload integration.EventPayload) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("PMS notifier panicked", zap.String("event", name), zap.Any("panic", rec))
		}
	}()
	if err := s.notifier.Emit(context.WithoutCancel(ctx), name, payload); err != nil {
		log.Warn("PMS notification failed", zap.String("event", name), zap.Error(err))
	}
}

// TestConnection probes the hotel's PMS. Connection failures are reported in the
// result, not as an error.
func (s *SyncService) TestConnection(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey) (*integration.ConnectionResult, error) {
	adapter, err := s.registry.Get(hotelID, provider)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithHotelID(ctx, hotelID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "pms", "test_connection",
		telemetry.WithAttribute(telemetry.SpanAttrProvider, provider.String()),
	)
	defer span.End()

	result, err := adapter.TestConnection(ctx, integration.Scope{HotelID: hotelID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := logger.Enrich(ctx, s.logger).With(
		zap.String("provider", provider.String()),
		zap.Bool("success", result.Success),
		zap.Duration("latency", result.Latency),
	)
	if result.Success {
		log.Info("PMS connection test succeeded")
	} else {
		log.Warn("PMS connection test failed", zap.String("message", result.Message))
	}
	return result, nil
}

// CreateBooking validates draft and creates the reservation on the hotel's PMS.
// The new booking reaches the local store with the next sync or webhook.
func (s *SyncService) CreateBooking(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, draft integration.BookingDraft) (string, error) {
	if err := s.validate.StructCtx(ctx, draft); err != nil {
		return "", integration.NewInvalidInputError(fmt.Errorf("%w: %w", integration.ErrInvalidBookingDraft, err))
	}
	adapter, err := s.registry.Get(hotelID, provider)
	if err != nil {
		return "", err
	}
	ctx = logger.WithHotelID(ctx, hotelID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "pms", "create_booking",
		telemetry.WithAttribute(telemetry.SpanAttrProvider, provider.String()),
	)
	defer span.End()

	externalID, err := adapter.CreateBooking(ctx, integration.Scope{HotelID: hotelID}, draft)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.Enrich(ctx, s.logger).Warn("PMS booking creation failed",
			zap.String("provider", provider.String()), zap.Error(err))
		return "", err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrExternalID, externalID)
	logger.Enrich(ctx, s.logger).Info("PMS booking created",
		zap.String("provider", provider.String()),
		zap.String("external_id", externalID),
	)
	return externalID, nil
}

// CancelBooking cancels the reservation on the hotel's PMS and marks the local
// copy CANCELED when one exists.
func (s *SyncService) CancelBooking(ctx context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) error {
	if strings.TrimSpace(externalID) == "" {
		return integration.NewIntegrationError(integration.CodeInvalidPayload, "external ID is required", http.StatusBadRequest)
	}
	adapter, err := s.registry.Get(hotelID, provider)
	if err != nil {
		return err
	}
	ctx = logger.WithHotelID(ctx, hotelID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "pms", "cancel_booking",
		telemetry.WithAttribute(telemetry.SpanAttrProvider, provider.String()),
		telemetry.WithAttribute(telemetry.SpanAttrExternalID, externalID),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger).With(
		zap.String("provider", provider.String()),
		zap.String("external_id", externalID),
	)

	if err := adapter.CancelBooking(ctx, integration.Scope{HotelID: hotelID}, externalID); err != nil {
		telemetry.RecordError(span, err)
		log.Warn("PMS booking cancellation failed", zap.Error(err))
		return err
	}

	updated, err := s.reconciler.MarkBookingCanceled(ctx, hotelID, provider, externalID)
	if err != nil {
		// the PMS already canceled; the next sync repairs the local copy
		log.Warn("Local booking not marked canceled", zap.Error(err))
	}
	log.Info("PMS booking canceled", zap.Bool("local_updated", updated))
	return nil
}

func statusOf(err error) int {
	if ie, ok := integration.AsIntegrationError(err); ok && ie.StatusCode != 0 {
		return ie.StatusCode
	}
	return http.StatusBadGateway
}

func outcomeOf(s *integration.SyncSummary) string {
	switch {
	case s.Failed == 0:
		return "success"
	case s.Processed > 0:
		return "partial"
	default:
		return "failed"
	}
}
