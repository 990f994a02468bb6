package pms

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

type registryKey struct {
	hotelID  uuid.UUID
	provider integration.ProviderKey
}

// Registry resolves adapters per (hotel, provider). It is built once and never mutated,
// so lookups need no locking.
type Registry struct {
	adapters map[registryKey]integration.ProviderAdapter
	secrets  map[registryKey]string
}

// RegistryOption configures a Registry under construction
type RegistryOption func(*Registry) error

// WithAdapter registers the provider default used by hotels without their own connection
func WithAdapter(adapter integration.ProviderAdapter) RegistryOption {
	return WithHotelAdapter(uuid.Nil, adapter)
}

// WithHotelAdapter registers an adapter for one hotel
func WithHotelAdapter(hotelID uuid.UUID, adapter integration.ProviderAdapter) RegistryOption {
	return func(r *Registry) error {
		provider := adapter.Metadata().Provider
		if !provider.IsValid() {
			return integration.ErrInvalidProvider
		}
		key := registryKey{hotelID: hotelID, provider: provider}
		if _, exists := r.adapters[key]; exists {
			return fmt.Errorf("%w: %s for hotel %s", integration.ErrAdapterRegistered, provider, hotelID)
		}
		r.adapters[key] = adapter
		return nil
	}
}

// WithWebhookSecret sets the signing secret for a (hotel, provider) connection
func WithWebhookSecret(hotelID uuid.UUID, provider integration.ProviderKey, secret string) RegistryOption {
	return func(r *Registry) error {
		if secret != "" {
			r.secrets[registryKey{hotelID: hotelID, provider: provider}] = secret
		}
		return nil
	}
}

// NewRegistry builds a registry from options
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		adapters: make(map[registryKey]integration.ProviderAdapter),
		secrets:  make(map[registryKey]string),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Get returns the hotel's adapter, falling back to the provider default
func (r *Registry) Get(hotelID uuid.UUID, provider integration.ProviderKey) (integration.ProviderAdapter, error) {
	if a, ok := r.adapters[registryKey{hotelID: hotelID, provider: provider}]; ok {
		return a, nil
	}
	if a, ok := r.adapters[registryKey{hotelID: uuid.Nil, provider: provider}]; ok {
		return a, nil
	}
	return nil, integration.NewProviderNotSupportedError(provider)
}

// WebhookSecret returns the signing secret for a connection, falling back to the provider default
func (r *Registry) WebhookSecret(hotelID uuid.UUID, provider integration.ProviderKey) (string, bool) {
	if s, ok := r.secrets[registryKey{hotelID: hotelID, provider: provider}]; ok {
		return s, true
	}
	s, ok := r.secrets[registryKey{hotelID: uuid.Nil, provider: provider}]
	return s, ok
}

// Providers lists the providers with at least one adapter, sorted
func (r *Registry) Providers() []integration.ProviderKey {
	seen := make(map[integration.ProviderKey]struct{})
	for k := range r.adapters {
		seen[k.provider] = struct{}{}
	}
	out := make([]integration.ProviderKey, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ integration.AdapterRegistry = (*Registry)(nil)
