package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is a per-user sliding-window message counter used as a spam guard.
// Messages over the limit are rejected, not deferred.
type Window struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewWindow creates a limiter allowing limit messages per window per user.
func NewWindow(limit int, window time.Duration) *Window {
	return &Window{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records a message from key and reports whether it is within the limit.
func (w *Window) Allow(key int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	var recent []time.Time
	for _, t := range w.requests[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= w.limit {
		w.requests[key] = recent
		return false
	}

	w.requests[key] = append(recent, now)
	return true
}

// StartEviction periodically removes keys with no recent messages so the
// map does not grow without bound. It stops when ctx is done.
func (w *Window) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.evict()
			}
		}
	}()
}

func (w *Window) evict() {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.window)
	for key, times := range w.requests {
		var fresh []time.Time
		for _, t := range times {
			if t.After(cutoff) {
				fresh = append(fresh, t)
			}
		}
		if len(fresh) == 0 {
			delete(w.requests, key)
		} else {
			w.requests[key] = fresh
		}
	}
}

// Tracked returns the number of keys currently held.
func (w *Window) Tracked() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.requests)
}
