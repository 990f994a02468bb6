package integration

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// MockAdapter is a mock implementation of integration.ProviderAdapter
type MockAdapter struct {
	mock.Mock
	provider integration.ProviderKey
}

func newMockAdapter(provider integration.ProviderKey) *MockAdapter {
	return &MockAdapter{provider: provider}
}

func (m *MockAdapter) Metadata() integration.AdapterMetadata {
	return integration.AdapterMetadata{Vendor: "Mock", Provider: m.provider, Protocol: integration.ProtocolREST}
}

func (m *MockAdapter) FetchBookings(ctx context.Context, scope integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedBooking, error) {
	args := m.Called(ctx, scope, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.NormalizedBooking), args.Error(1)
}

func (m *MockAdapter) FetchRooms(ctx context.Context, scope integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedRoom, error) {
	args := m.Called(ctx, scope, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.NormalizedRoom), args.Error(1)
}

func (m *MockAdapter) FetchGuests(ctx context.Context, scope integration.Scope, opts integration.FetchOptions) ([]integration.NormalizedGuest, error) {
	args := m.Called(ctx, scope, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.NormalizedGuest), args.Error(1)
}

func (m *MockAdapter) CreateBooking(ctx context.Context, scope integration.Scope, draft integration.BookingDraft) (string, error) {
	args := m.Called(ctx, scope, draft)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) CancelBooking(ctx context.Context, scope integration.Scope, externalID string) error {
	args := m.Called(ctx, scope, externalID)
	return args.Error(0)
}

func (m *MockAdapter) TestConnection(ctx context.Context, scope integration.Scope) (*integration.ConnectionResult, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ConnectionResult), args.Error(1)
}

func (m *MockAdapter) NormalizeBooking(payload json.RawMessage) (*integration.NormalizedBooking, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.NormalizedBooking), args.Error(1)
}

// staticRegistry maps providers to adapters for every hotel
type staticRegistry map[integration.ProviderKey]integration.ProviderAdapter

func (r staticRegistry) Get(_ uuid.UUID, provider integration.ProviderKey) (integration.ProviderAdapter, error) {
	if a, ok := r[provider]; ok {
		return a, nil
	}
	return nil, integration.NewProviderNotSupportedError(provider)
}

func (r staticRegistry) Providers() []integration.ProviderKey {
	out := make([]integration.ProviderKey, 0, len(r))
	for p := range r {
		out = append(out, p)
	}
	return out
}

// memoryStore is an in-memory BookingStore, RoomStore or GuestStore
type memoryStore[R any, P any] struct {
	mu      sync.Mutex
	records map[uuid.UUID]*R
	key     func(*R) string
	id      func(*R) uuid.UUID
	apply   func(*R, P)
	fail    func(externalID string) error
	ext     func(*R) string
	creates int
	updates int
}

func storeKey(hotelID uuid.UUID, provider integration.ProviderKey, externalID string) string {
	return hotelID.String() + "|" + string(provider) + "|" + externalID
}

func (m *memoryStore[R, P]) FindByExternalID(_ context.Context, hotelID uuid.UUID, provider integration.ProviderKey, externalID string) (*R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := storeKey(hotelID, provider, externalID)
	for _, r := range m.records {
		if m.key(r) == want {
			cp := *r
			return &cp, nil
		}
	}
	return nil, integration.ErrRecordNotFound
}

func (m *memoryStore[R, P]) Create(_ context.Context, record *R) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		if err := m.fail(m.ext(record)); err != nil {
			return err
		}
	}
	cp := *record
	m.records[m.id(record)] = &cp
	m.creates++
	return nil
}

func (m *memoryStore[R, P]) Update(_ context.Context, id uuid.UUID, patch P) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return integration.ErrRecordNotFound
	}
	if m.fail != nil {
		if err := m.fail(m.ext(r)); err != nil {
			return err
		}
	}
	m.apply(r, patch)
	m.updates++
	return nil
}

func (m *memoryStore[R, P]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memoryStore[R, P]) snapshot() map[uuid.UUID]R {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]R, len(m.records))
	for id, r := range m.records {
		out[id] = *r
	}
	return out
}

func (m *memoryStore[R, P]) writes() (creates, updates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.updates
}

func newMemoryBookings() *memoryStore[integration.BookingRecord, integration.BookingPatch] {
	return &memoryStore[integration.BookingRecord, integration.BookingPatch]{
		records: map[uuid.UUID]*integration.BookingRecord{},
		key:     func(r *integration.BookingRecord) string { return storeKey(r.HotelID, r.Provider, r.ExternalID) },
		id:      func(r *integration.BookingRecord) uuid.UUID { return r.ID },
		ext:     func(r *integration.BookingRecord) string { return r.ExternalID },
		apply:   func(r *integration.BookingRecord, p integration.BookingPatch) { p.Apply(&r.NormalizedBooking) },
	}
}

func newMemoryRooms() *memoryStore[integration.RoomRecord, integration.RoomPatch] {
	return &memoryStore[integration.RoomRecord, integration.RoomPatch]{
		records: map[uuid.UUID]*integration.RoomRecord{},
		key:     func(r *integration.RoomRecord) string { return storeKey(r.HotelID, r.Provider, r.ExternalID) },
		id:      func(r *integration.RoomRecord) uuid.UUID { return r.ID },
		ext:     func(r *integration.RoomRecord) string { return r.ExternalID },
		apply:   func(r *integration.RoomRecord, p integration.RoomPatch) { p.Apply(&r.NormalizedRoom) },
	}
}

func newMemoryGuests() *memoryStore[integration.GuestRecord, integration.GuestPatch] {
	return &memoryStore[integration.GuestRecord, integration.GuestPatch]{
		records: map[uuid.UUID]*integration.GuestRecord{},
		key:     func(r *integration.GuestRecord) string { return storeKey(r.HotelID, r.Provider, r.ExternalID) },
		id:      func(r *integration.GuestRecord) uuid.UUID { return r.ID },
		ext:     func(r *integration.GuestRecord) string { return r.ExternalID },
		apply:   func(r *integration.GuestRecord, p integration.GuestPatch) { p.Apply(&r.NormalizedGuest) },
	}
}

// recordingNotifier captures emitted notifications
type recordingNotifier struct {
	mu     sync.Mutex
	events []emitted
	err    error
	panics bool
}

type emitted struct {
	name    string
	payload integration.EventPayload
}

func (n *recordingNotifier) Emit(_ context.Context, name string, payload integration.EventPayload) error {
	n.mu.Lock()
	n.events = append(n.events, emitted{name: name, payload: payload})
	n.mu.Unlock()
	if n.panics {
		panic("notifier exploded")
	}
	return n.err
}

func (n *recordingNotifier) named(name string) []integration.EventPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []integration.EventPayload
	for _, e := range n.events {
		if e.name == name {
			out = append(out, e.payload)
		}
	}
	return out
}

// memoryIdempotency is an in-memory IdempotencyStore
type memoryIdempotency struct {
	mu       sync.Mutex
	keys     map[string]time.Duration
	released []string
	err      error
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]time.Duration{}}
}

func (m *memoryIdempotency) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

func (m *memoryIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

// recordingArchive captures archived payloads
type recordingArchive struct {
	mu       sync.Mutex
	payloads []integration.ArchivedPayload
	err      error
}

func (a *recordingArchive) Archive(_ context.Context, p integration.ArchivedPayload) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.payloads = append(a.payloads, p)
	return "mem://" + p.CorrelationID, nil
}

// authenticatorFunc adapts a function to integration.WebhookAuthenticator
type authenticatorFunc func(hotelID uuid.UUID, provider integration.ProviderKey, body []byte, signature string) error

func (f authenticatorFunc) Authenticate(hotelID uuid.UUID, provider integration.ProviderKey, body []byte, signature string) error {
	return f(hotelID, provider, body, signature)
}
