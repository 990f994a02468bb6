package event

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// Fanout emits every notification to each of its notifiers in order
type Fanout []integration.Notifier

// Emit delivers to all notifiers and returns their combined errors
func (f Fanout) Emit(ctx context.Context, name string, payload integration.EventPayload) error {
	var err error
	for _, n := range f {
		err = multierr.Append(err, n.Emit(ctx, name, payload))
	}
	return err
}

// NewLogHandler returns a bus handler that records each notification
func NewLogHandler(logger *zap.Logger) Handler {
	return HandlerFunc(func(_ context.Context, n Notification) error {
		logger.Info("PMS notification",
			zap.String("event", n.Name),
			zap.String("hotel_id", n.Payload.HotelID.String()),
			zap.String("provider", n.Payload.Provider.String()),
			zap.String("sync_id", n.Payload.SyncID),
			zap.String("external_id", n.Payload.ExternalID),
		)
		return nil
	})
}

var _ integration.Notifier = Fanout(nil)
