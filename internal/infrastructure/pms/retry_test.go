package pms

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

func TestRetryOptions_Delay(t *testing.T) {
	tests := []struct {
		name string
		opts RetryOptions
		want []time.Duration
	}{
		{
			name: "default policy doubles and caps at 10s",
			opts: DefaultRetryOptions(),
			want: []time.Duration{
				500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second,
				8 * time.Second, 10 * time.Second, 10 * time.Second,
			},
		},
		{
			name: "legacy policy triples and caps at 30s",
			opts: LegacyRetryOptions(),
			want: []time.Duration{2 * time.Second, 6 * time.Second, 18 * time.Second, 30 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				assert.InDelta(t, float64(want), float64(tt.opts.Delay(i)), float64(time.Millisecond), "attempt %d", i)
			}
		})
	}
}

func TestRetryOptions_IsRetryableStatus(t *testing.T) {
	opts := DefaultRetryOptions()
	for _, s := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, opts.IsRetryableStatus(s), "status %d", s)
	}
	for _, s := range []int{400, 401, 403, 404, 409, 422, 501} {
		assert.False(t, opts.IsRetryableStatus(s), "status %d", s)
	}

	custom := RetryOptions{RetryableStatusCodes: StatusSet(http.StatusConflict)}
	assert.True(t, custom.IsRetryableStatus(http.StatusConflict))
	assert.False(t, custom.IsRetryableStatus(http.StatusServiceUnavailable))
}

func TestRetryOptions_Normalize(t *testing.T) {
	o := RetryOptions{MaxRetries: -1, BackoffMultiplier: 0.5}
	o.normalize()
	assert.Equal(t, 0, o.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, o.InitialDelay)
	assert.Equal(t, o.InitialDelay, o.MaxDelay)
	assert.Equal(t, 1.0, o.BackoffMultiplier)
	assert.True(t, o.IsRetryableStatus(http.StatusBadGateway))
}

func TestRetrier_Run(t *testing.T) {
	always := func(*integration.IntegrationError) bool { return true }
	never := func(*integration.IntegrationError) bool { return false }

	t.Run("succeeds on first attempt", func(t *testing.T) {
		rec := &sleepRecorder{}
		r := NewRetrier(integration.ProviderOpera, DefaultRetryOptions(), rec.Sleep, nil, nil)
		calls := 0
		err := r.Run(context.Background(), "op", func(context.Context) error { calls++; return nil }, always)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, rec.Delays())
	})

	t.Run("plain errors are wrapped", func(t *testing.T) {
		r := NewRetrier(integration.ProviderOpera, DefaultRetryOptions(), (&sleepRecorder{}).Sleep, nil, nil)
		err := r.Run(context.Background(), "op", func(context.Context) error { return errors.New("boom") }, never)
		assert.Equal(t, integration.CodeNetworkError, integration.CodeOf(err))
	})

	t.Run("zero retries means one attempt", func(t *testing.T) {
		opts := DefaultRetryOptions()
		opts.MaxRetries = 0
		r := NewRetrier(integration.ProviderOpera, opts, (&sleepRecorder{}).Sleep, nil, nil)
		calls := 0
		err := r.Run(context.Background(), "op", func(context.Context) error {
			calls++
			return integration.NewNetworkError(errors.New("reset"))
		}, always)
		assert.Equal(t, integration.CodeMaxRetriesExceeded, integration.CodeOf(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation during backoff stops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		sleep := func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}
		r := NewRetrier(integration.ProviderOpera, DefaultRetryOptions(), sleep, nil, nil)
		calls := 0
		err := r.Run(ctx, "op", func(context.Context) error {
			calls++
			return integration.NewNetworkError(errors.New("reset"))
		}, always)
		assert.Equal(t, integration.CodeCanceled, integration.CodeOf(err))
		assert.Equal(t, 1, calls)
	})
}

func TestContextSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, contextSleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, contextSleep(context.Background(), time.Millisecond))
}
