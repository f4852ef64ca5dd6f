package bot

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candyxpe/supportbot/internal/domain"
)

type recordingHandler struct {
	mu      sync.Mutex
	seen    map[int64][]string
	failed  []string
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func newRecordingHandler(delay time.Duration) *recordingHandler {
	return &recordingHandler{seen: make(map[int64][]string), delay: delay}
}

func (h *recordingHandler) Handle(_ context.Context, ev domain.Event) {
	n := h.active.Add(1)
	defer h.active.Add(-1)
	for {
		m := h.maxSeen.Load()
		if n <= m || h.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if ev.Text == "panic" {
		panic("handler exploded")
	}
	time.Sleep(h.delay)

	h.mu.Lock()
	h.seen[ev.SenderID] = append(h.seen[ev.SenderID], ev.Text)
	h.mu.Unlock()
}

func (h *recordingHandler) Fail(_ context.Context, ev domain.Event) {
	h.mu.Lock()
	h.failed = append(h.failed, ev.ID)
	h.mu.Unlock()
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, texts := range h.seen {
		n += len(texts)
	}
	return n
}

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler(time.Millisecond)
	d := NewDispatcher(ctx, h, DispatcherOptions{MaxConcurrent: 4})

	var want []string
	for i := 0; i < 20; i++ {
		want = append(want, string(rune('a'+i)))
	}
	for _, text := range want {
		for _, user := range []int64{1, 2, 3} {
			require.NoError(t, d.Dispatch(ctx, domain.Event{SenderID: user, Text: text}))
		}
	}

	require.Eventually(t, func() bool { return h.count() == 60 }, 5*time.Second, 5*time.Millisecond)
	h.mu.Lock()
	for _, user := range []int64{1, 2, 3} {
		assert.Equal(t, want, h.seen[user], "user %d", user)
	}
	h.mu.Unlock()
	assert.LessOrEqual(t, h.maxSeen.Load(), int32(3))

	cancel()
	d.Wait()
	assert.Zero(t, d.Active())
}

func TestDispatcherCapsConcurrency(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler(20 * time.Millisecond)
	d := NewDispatcher(ctx, h, DispatcherOptions{MaxConcurrent: 2})
	for user := int64(1); user <= 6; user++ {
		require.NoError(t, d.Dispatch(ctx, domain.Event{SenderID: user, Text: "x"}))
	}

	require.Eventually(t, func() bool { return h.count() == 6 }, 5*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, h.maxSeen.Load(), int32(2))
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler(0)
	d := NewDispatcher(ctx, h, DispatcherOptions{})

	require.NoError(t, d.Dispatch(ctx, domain.Event{ID: "ev-1", SenderID: 1, Text: "panic"}))
	require.NoError(t, d.Dispatch(ctx, domain.Event{ID: "ev-2", SenderID: 1, Text: "after"}))

	require.Eventually(t, func() bool { return h.count() == 1 }, 5*time.Second, 5*time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []string{"ev-1"}, h.failed)
	assert.Equal(t, []string{"after"}, h.seen[1])
}

func TestDispatcherRetiresIdleWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler(0)
	d := NewDispatcher(ctx, h, DispatcherOptions{IdleTimeout: 10 * time.Millisecond})
	require.NoError(t, d.Dispatch(ctx, domain.Event{SenderID: 1, Text: "x"}))

	require.Eventually(t, func() bool { return h.count() == 1 && d.Active() == 0 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, d.Dispatch(ctx, domain.Event{SenderID: 1, Text: "y"}))
	require.Eventually(t, func() bool { return h.count() == 2 }, 5*time.Second, 5*time.Millisecond)
}

type scriptedSource struct {
	calls atomic.Int32
}

func (s *scriptedSource) Events(ctx context.Context) iter.Seq2[domain.Event, error] {
	n := s.calls.Add(1)
	return func(yield func(domain.Event, error) bool) {
		switch n {
		case 1:
			if !yield(domain.Event{SenderID: 1, Text: "first"}, nil) {
				return
			}
			yield(domain.Event{}, errBoom)
		case 2:
			yield(domain.Event{SenderID: 1, Text: "second"}, nil)
		default:
			<-ctx.Done()
		}
	}
}

func TestRunRestartsFailedSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler(0)
	d := NewDispatcher(ctx, h, DispatcherOptions{})
	src := &scriptedSource{}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, src, d, 5*time.Millisecond, nil) }()

	require.Eventually(t, func() bool { return h.count() == 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, h.seen[1])
	assert.GreaterOrEqual(t, src.calls.Load(), int32(2))
}
