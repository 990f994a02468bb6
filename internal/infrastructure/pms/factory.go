package pms

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// correlationHeader carries the sync ID to vendors that echo it in their logs
const correlationHeader = "X-Correlation-Id"

// Dependencies are the shared collaborators handed to every adapter
type Dependencies struct {
	HTTPClient *http.Client
	Metrics    *ClientMetrics
	Logger     *zap.Logger
	// Sleep replaces backoff waits; nil sleeps on the context
	Sleep SleepFunc
}

func (d Dependencies) withDefaults() Dependencies {
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// syncHeader tags outbound calls with the sync that issued them
func syncHeader(scope integration.Scope) http.Header {
	if scope.SyncID == "" {
		return nil
	}
	return http.Header{correlationHeader: {scope.SyncID}}
}

// failedConnection reports a probe failure without raising it
func failedConnection(err error, latency time.Duration) *integration.ConnectionResult {
	res := &integration.ConnectionResult{
		Success: false,
		Message: err.Error(),
		Latency: latency,
	}
	if ie, ok := integration.AsIntegrationError(err); ok {
		res.Message = ie.Message
		res.Details = map[string]string{"code": ie.Code}
	}
	return res
}

// NewAdapter builds the adapter for cfg.Provider
func NewAdapter(cfg ConnectionConfig, deps Dependencies) (integration.ProviderAdapter, error) {
	switch cfg.Provider {
	case integration.ProviderMews:
		return NewMewsAdapter(cfg, deps)
	case integration.ProviderProtel:
		return NewProtelAdapter(cfg, deps)
	case integration.ProviderCloudbeds:
		return NewCloudbedsAdapter(cfg, deps)
	case integration.ProviderOpera:
		return NewOperaAdapter(cfg, deps)
	default:
		return nil, integration.NewProviderNotSupportedError(cfg.Provider)
	}
}

// BuildRegistry creates one adapter per connection. Every invalid connection is reported,
// not just the first.
func BuildRegistry(configs []ConnectionConfig, deps Dependencies) (*Registry, error) {
	var (
		opts []RegistryOption
		errs error
	)
	for i, cfg := range configs {
		adapter, err := NewAdapter(cfg, deps)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("connection %d (%s, hotel %s): %w", i, cfg.Provider, cfg.HotelID, err))
			continue
		}
		opts = append(opts,
			WithHotelAdapter(cfg.HotelID, adapter),
			WithWebhookSecret(cfg.HotelID, cfg.Provider, cfg.WebhookSecret),
		)
	}
	if errs != nil {
		return nil, errs
	}
	return NewRegistry(opts...)
}
