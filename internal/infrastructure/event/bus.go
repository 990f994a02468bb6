package event

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// InMemoryBus delivers notifications to in-process handlers synchronously.
// It implements integration.Notifier.
type InMemoryBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
}

// NewInMemoryBus creates a new in-memory bus
func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryBus{registry: NewHandlerRegistry(), logger: logger}
}

// Subscribe registers a handler. With no names it receives every notification.
func (b *InMemoryBus) Subscribe(handler Handler, names ...string) (unsubscribe func()) {
	unsubscribe = b.registry.Register(handler, names...)
	b.logger.Debug("notification handler subscribed", zap.Strings("names", names))
	return unsubscribe
}

// Emit publishes one notification. Handler failures are logged and never stop delivery to the rest.
func (b *InMemoryBus) Emit(ctx context.Context, name string, payload integration.EventPayload) error {
	n := NewNotification(name, payload)
	for _, handler := range b.registry.GetHandlers(name) {
		if err := b.dispatch(ctx, handler, n); err != nil {
			b.logger.Error("Notification handler failed",
				zap.String("event", name),
				zap.String("notification_id", n.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (b *InMemoryBus) dispatch(ctx context.Context, handler Handler, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, n)
}

var _ integration.Notifier = (*InMemoryBus)(nil)
