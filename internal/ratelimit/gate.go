// Package ratelimit throttles outbound platform calls and inbound user messages.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval keeps outbound calls under three per second.
const DefaultMinInterval = 340 * time.Millisecond

// Gate spaces the start of consecutive calls by at least a minimum interval.
// A single Gate is shared by every caller because the platform budget is
// account-wide. Callers block until their slot; nothing is queued or retried.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
	logger   *slog.Logger
}

// NewGate creates a gate with the given minimum spacing.
func NewGate(minInterval time.Duration, logger *slog.Logger) *Gate {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		interval: minInterval,
		logger:   logger,
	}
}

// Interval returns the configured minimum spacing.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Wait blocks until the next call may start.
func (g *Gate) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate gate: %w", err)
	}
	return nil
}

// Invoke waits for a slot and runs fn. An error from fn is logged and
// returned unchanged.
func Invoke[T any](ctx context.Context, g *Gate, operation string, fn func(context.Context) (T, error)) (T, error) {
	if err := g.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	result, err := fn(ctx)
	if err != nil {
		g.logger.Warn("Gated call failed", "operation", operation, "error", err)
	}
	return result, err
}
