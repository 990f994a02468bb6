package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/config"
)

// unreachable is a Redis address nothing listens on
var unreachable = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestIdempotencyStoreFactory_NoRedisConfigured(t *testing.T) {
	store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_Fallback(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := NewIdempotencyStoreFactory(unreachable, WithLogger(zap.New(core)))

	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.Equal(t, 1, logs.Len())
}

func TestIdempotencyStoreFactory_RedisRequired(t *testing.T) {
	f := NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false))

	store, err := f.CreateStore(context.Background())
	assert.Nil(t, store)
	assert.ErrorContains(t, err, "redis required")
}

func TestRedisIdempotencyStore_ErrorsAreWrapped(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: unreachable.Addr(), MaxRetries: -1, DialTimeout: time.Second})
	store := NewRedisIdempotencyStoreWithClient(client, "")
	defer store.Close()

	ok, err := store.Claim(context.Background(), "k", time.Minute)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "failed to claim k")

	assert.ErrorContains(t, store.Release(context.Background(), "k"), "failed to release k")
}
