package session

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = time.Minute

// StartBanSweeper runs a background goroutine that periodically purges
// expired bans until ctx is done. Inbound events still purge before every
// ban check; the sweeper only keeps the table small between events.
func StartBanSweeper(ctx context.Context, store Store, interval time.Duration, now func() time.Time) <-chan struct{} {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if now == nil {
		now = time.Now
	}

	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Ban sweeper started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				if purged := store.PurgeExpiredBans(now()); purged > 0 {
					slog.Info("Ban sweeper purged expired bans", "count", purged)
				}
			case <-ctx.Done():
				slog.Info("Ban sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}
