package model

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedModel delays Generate calls so that the wrapped model is not
// invoked more often than the configured token bucket allows.
type RateLimitedModel struct {
	Model
	limiter *rate.Limiter
}

// WithRateLimit wraps m with a limiter allowing rpm requests per minute and
// the given burst. If rpm <= 0, m is returned unchanged.
func WithRateLimit(m Model, rpm, burst int) Model {
	if rpm <= 0 {
		return m
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedModel{
		Model:   m,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

// Generate waits for a token (or context cancellation) and then delegates.
func (r *RateLimitedModel) Generate(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.Model.Generate(ctx, req)
}
