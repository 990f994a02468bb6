package pms

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// RateLimiter enforces a vendor's declared request budget on the client side.
// A nil *RateLimiter admits everything.
type RateLimiter struct {
	perMinute *rate.Limiter
	perHour   *rate.Limiter
}

// NewRateLimiter builds a limiter for the budget; returns nil when the budget is unlimited
func NewRateLimiter(limit integration.RateLimit) *RateLimiter {
	if limit.PerMinute <= 0 && limit.PerHour <= 0 {
		return nil
	}
	rl := &RateLimiter{}
	if limit.PerMinute > 0 {
		rl.perMinute = rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit.PerMinute)), burst(limit.PerMinute))
	}
	if limit.PerHour > 0 {
		rl.perHour = rate.NewLimiter(rate.Every(time.Hour/time.Duration(limit.PerHour)), burst(limit.PerHour))
	}
	return rl
}

// Wait blocks until a request may be sent. A limiter that cannot admit the request
// before ctx's deadline fails with RATE_LIMITED.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	for _, l := range []*rate.Limiter{r.perHour, r.perMinute} {
		if l == nil {
			continue
		}
		if err := l.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return integration.NewCanceledError(ctx.Err())
			}
			return integration.WrapIntegrationError(integration.CodeRateLimited,
				"local rate limit budget exhausted", 429, err)
		}
	}
	return nil
}

// Allow reports whether a request may be sent right now without waiting
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}
	now := time.Now()
	if r.perHour != nil && r.perHour.TokensAt(now) < 1 {
		return false
	}
	if r.perMinute != nil && r.perMinute.TokensAt(now) < 1 {
		return false
	}
	return true
}

// burst allows a tenth of the budget to go out back to back
func burst(n int) int {
	b := n / 10
	if b < 1 {
		return 1
	}
	return b
}
