package bot

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// EventSource produces inbound events. The sequence ends after yielding an
// error; callers restart it.
type EventSource interface {
	Events(ctx context.Context) iter.Seq2[domain.Event, error]
}

// DefaultPollRetryDelay is the pause before restarting a failed event source.
const DefaultPollRetryDelay = 5 * time.Second

// Run feeds events from source into the dispatcher until ctx is done.
// Source failures are logged and retried after retryDelay. Run returns once
// every queued event has been handled or dropped.
func Run(ctx context.Context, source EventSource, d *Dispatcher, retryDelay time.Duration, logger *slog.Logger) error {
	if retryDelay <= 0 {
		retryDelay = DefaultPollRetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}

	for ctx.Err() == nil {
		for ev, err := range source.Events(ctx) {
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				logger.Error("Event source failed, retrying", "error", err, "retry_in", retryDelay)
				break
			}
			if err := d.Dispatch(ctx, ev); err != nil {
				break
			}
		}

		select {
		case <-ctx.Done():
		case <-time.After(retryDelay):
		}
	}

	d.Wait()
	return nil
}
