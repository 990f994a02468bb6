package pms

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions is the retry policy of a resilient client.
// Delay before retry n (0-based) is min(InitialDelay * BackoffMultiplier^n, MaxDelay).
type RetryOptions struct {
	MaxRetries           int
	InitialDelay         time.Duration
	MaxDelay             time.Duration
	BackoffMultiplier    float64
	RetryableStatusCodes map[int]struct{}
}

// DefaultRetryableStatusCodes are the statuses retried unless a vendor overrides them
var DefaultRetryableStatusCodes = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// StatusSet builds a status code set
func StatusSet(codes ...int) map[int]struct{} {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

// DefaultRetryOptions is the policy for cloud vendors
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:           3,
		InitialDelay:         500 * time.Millisecond,
		MaxDelay:             10 * time.Second,
		BackoffMultiplier:    2,
		RetryableStatusCodes: StatusSet(DefaultRetryableStatusCodes...),
	}
}

// LegacyRetryOptions is the slower policy for on-premise vendors
func LegacyRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:           2,
		InitialDelay:         2 * time.Second,
		MaxDelay:             30 * time.Second,
		BackoffMultiplier:    3,
		RetryableStatusCodes: StatusSet(DefaultRetryableStatusCodes...),
	}
}

// IsRetryableStatus reports whether status is in the retryable set
func (o RetryOptions) IsRetryableStatus(status int) bool {
	_, ok := o.RetryableStatusCodes[status]
	return ok
}

// NewBackOff returns a fresh deterministic exponential sequence for one call
func (o RetryOptions) NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.InitialDelay
	b.MaxInterval = o.MaxDelay
	b.Multiplier = o.BackoffMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Delay returns the wait before retry number attempt (0-based)
func (o RetryOptions) Delay(attempt int) time.Duration {
	b := o.NewBackOff()
	d := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

func (o *RetryOptions) normalize() {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 500 * time.Millisecond
	}
	if o.MaxDelay < o.InitialDelay {
		o.MaxDelay = o.InitialDelay
	}
	if o.BackoffMultiplier < 1 {
		o.BackoffMultiplier = 1
	}
	if o.RetryableStatusCodes == nil {
		o.RetryableStatusCodes = StatusSet(DefaultRetryableStatusCodes...)
	}
}

func (o RetryOptions) clone() RetryOptions {
	c := o
	c.RetryableStatusCodes = maps.Clone(o.RetryableStatusCodes)
	return c
}

// SleepFunc waits for d or until ctx ends
type SleepFunc func(ctx context.Context, d time.Duration) error

// contextSleep is the production SleepFunc
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
