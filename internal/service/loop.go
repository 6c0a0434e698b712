package service

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned when work is posted after the loop exited.
var ErrLoopStopped = errors.New("session loop stopped")

// ─────────────────────────────────────────────────────────────
// Loop — the single goroutine that owns session state
// ─────────────────────────────────────────────────────────────

// Loop runs posted functions one at a time on a single goroutine.
// Session state is only touched from inside the loop, so it needs no locks;
// process completions re-enter through Post. The queue is unbounded so
// posting from within the loop never blocks.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

// NewLoop creates a loop. Call Run (usually in its own goroutine) to start it.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn. It returns false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Dispatch is Post without the result, matching runner.Dispatcher.
func (l *Loop) Dispatch(fn func()) {
	l.Post(fn)
}

// Call runs fn on the loop and waits for it to return.
// It must not be called from inside the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued functions until ctx is cancelled.
// Work still queued at that point is dropped.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			if ctx.Err() != nil {
				break
			}
			fn()
		}

		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.queue = nil
			l.mu.Unlock()
			return
		default:
		}

		if len(batch) > 0 {
			continue
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
