package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/pesona-id/pesona-backend/internal/infrastructure/redis"
)

// Limiter enforces a fixed-window request budget per key (user id or client
// address). State lives in Redis so the budget holds across replicas.
type Limiter struct {
	client  *redis.Client
	maxReqs int64
	window  time.Duration
	logger  *slog.Logger
}

func NewLimiter(client *redis.Client, maxRequests int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		client:  client,
		maxReqs: int64(maxRequests),
		window:  window,
		logger:  logger,
	}
}

// Allow reports whether the key may make another request in the current
// window. Fails open on Redis errors: availability over strictness.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		return true
	}
	count, err := l.client.IncrWithWindow(ctx, "ratelimit:"+key, l.window)
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return true
	}
	return count <= l.maxReqs
}
