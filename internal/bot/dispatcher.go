package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

// Handler processes events for the dispatcher.
type Handler interface {
	Handle(ctx context.Context, ev domain.Event)
	// Fail is called when Handle panics.
	Fail(ctx context.Context, ev domain.Event)
}

const (
	DefaultMaxConcurrentUsers = 8
	defaultWorkerQueue        = 16
	defaultWorkerIdle         = time.Minute
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// MaxConcurrent caps how many users are handled at the same time.
	MaxConcurrent int
	QueueSize     int
	IdleTimeout   time.Duration
	Logger        *slog.Logger
}

type userWorker struct {
	jobs    chan domain.Event
	pending int
}

// Dispatcher runs one worker per user so a user's events are handled in
// arrival order, while different users proceed in parallel.
type Dispatcher struct {
	ctx     context.Context
	handler Handler
	sem     chan struct{}
	queue   int
	idle    time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	workers map[int64]*userWorker
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher whose workers live until ctx is done.
func NewDispatcher(ctx context.Context, handler Handler, opts DispatcherOptions) *Dispatcher {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrentUsers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultWorkerQueue
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultWorkerIdle
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		ctx:     ctx,
		handler: handler,
		sem:     make(chan struct{}, opts.MaxConcurrent),
		queue:   opts.QueueSize,
		idle:    opts.IdleTimeout,
		logger:  opts.Logger,
		workers: make(map[int64]*userWorker),
	}
}

// Dispatch queues ev on its sender's worker. It blocks while that worker's
// queue is full and returns ctx.Err() if ctx ends first.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) error {
	d.mu.Lock()
	w := d.getOrStartWorkerLocked(ev.SenderID)
	w.pending++
	d.mu.Unlock()

	select {
	case w.jobs <- ev:
		return nil
	case <-ctx.Done():
		d.done(w)
		return ctx.Err()
	case <-d.ctx.Done():
		d.done(w)
		return d.ctx.Err()
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Active returns the number of live workers.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

func (d *Dispatcher) getOrStartWorkerLocked(userID int64) *userWorker {
	if w, ok := d.workers[userID]; ok {
		return w
	}
	w := &userWorker{jobs: make(chan domain.Event, d.queue)}
	d.workers[userID] = w

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(userID, w)
	}()
	return w
}

func (d *Dispatcher) run(userID int64, w *userWorker) {
	timer := time.NewTimer(d.idle)
	defer timer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.mu.Lock()
			delete(d.workers, userID)
			d.mu.Unlock()
			return

		case ev := <-w.jobs:
			d.handle(ev)
			d.done(w)
			timer.Reset(d.idle)

		case <-timer.C:
			d.mu.Lock()
			if w.pending == 0 {
				delete(d.workers, userID)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			timer.Reset(d.idle)
		}
	}
}

func (d *Dispatcher) done(w *userWorker) {
	d.mu.Lock()
	w.pending--
	d.mu.Unlock()
}

func (d *Dispatcher) handle(ev domain.Event) {
	select {
	case d.sem <- struct{}{}:
	case <-d.ctx.Done():
		return
	}
	defer func() { <-d.sem }()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Event handler panicked",
				"user_id", ev.SenderID,
				"event_id", ev.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			d.handler.Fail(d.ctx, ev)
		}
	}()
	d.handler.Handle(d.ctx, ev)
}
