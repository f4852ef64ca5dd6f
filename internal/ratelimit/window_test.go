package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestWindowLimitsPerUser(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	w := NewWindow(3, time.Minute)
	w.now = clock.Now

	for i := 0; i < 3; i++ {
		assert.True(t, w.Allow(1))
	}
	assert.False(t, w.Allow(1), "fourth message in window is rejected")
	assert.True(t, w.Allow(2), "other users are unaffected")

	clock.t = clock.t.Add(time.Minute + time.Second)
	assert.True(t, w.Allow(1), "window slides")
}

func TestWindowEvictsIdleKeys(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	w := NewWindow(5, time.Second)
	w.now = clock.Now

	w.Allow(1)
	w.Allow(2)
	assert.Equal(t, 2, w.Tracked())

	clock.t = clock.t.Add(2 * time.Second)
	w.Allow(2)
	w.evict()
	assert.Equal(t, 1, w.Tracked())
}
