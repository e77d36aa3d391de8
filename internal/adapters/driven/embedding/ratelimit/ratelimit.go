// Package ratelimit throttles calls to an embedding provider.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultCooldown is how long calls pause after the provider reports a rate limit.
const DefaultCooldown = 30 * time.Second

// EmbeddingService wraps another EmbeddingService with a token bucket.
// A provider error mentioning status 429 pauses every caller for the cooldown.
type EmbeddingService struct {
	inner    driven.EmbeddingService
	limiter  *rate.Limiter
	cooldown time.Duration

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// New wraps inner so that at most rps Embed calls start per second, with
// bursts of up to burst calls. A burst below one is treated as one.
func New(inner driven.EmbeddingService, rps float64, burst int) *EmbeddingService {
	if burst < 1 {
		burst = 1
	}
	return &EmbeddingService{
		inner:    inner,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// WithCooldown sets the pause applied after a rate limit response.
func (s *EmbeddingService) WithCooldown(d time.Duration) *EmbeddingService {
	s.cooldown = d
	return s
}

// Embed waits for capacity and then delegates.
func (s *EmbeddingService) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	out, err := s.inner.Embed(ctx, texts...)
	if err != nil && isRateLimited(err) {
		s.mu.Lock()
		s.retryAt = s.now().Add(s.cooldown)
		s.mu.Unlock()
	}
	return out, err
}

func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	pause := s.retryAt.Sub(s.now())
	s.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.limiter.Wait(ctx)
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "status 429") || strings.Contains(msg, "Error 429")
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping is not throttled.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.inner.Close() }
