// Package scheduler serializes model mutations onto one logical goroutine.
//
// Network calls run on their own goroutines and hand their continuations
// back through Post, so result models never need locks.
package scheduler

import (
	"context"
	"sync"
)

// Scheduler runs posted callbacks one at a time, in posting order, on the
// goroutine that owns the result models.
type Scheduler interface {
	Post(fn func())
}

// Func adapts an ordinary function to the Scheduler interface. The
// interactive selector uses it to forward callbacks into the bubbletea
// update loop.
type Func func(fn func())

// Post implements Scheduler.
func (f Func) Post(fn func()) { f(fn) }

// Loop is a Scheduler backed by a goroutine draining a queue.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

// NewLoop creates a loop. Callbacks run once Run is started.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn. Posting after Run has returned drops fn.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()
	for {
		for {
			fn, ok := l.pop()
			if !ok {
				break
			}
			fn()
			if ctx.Err() != nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Do posts fn and blocks until it has run, or until ctx ends.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// Manual queues callbacks until the owner drains them. Tests use it to
// step through asynchronous flows deterministically.
type Manual struct {
	mu     sync.Mutex
	queue  []func()
	posted chan struct{}
}

// NewManual returns an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{posted: make(chan struct{}, 1024)}
}

// Post implements Scheduler.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
	select {
	case m.posted <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Drain runs queued callbacks, including ones they post, until the queue is
// empty. It returns how many ran.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		fn()
		n++
	}
}

// WaitAndDrain blocks until at least one callback was posted (or ctx ends)
// and then drains the queue.
func (m *Manual) WaitAndDrain(ctx context.Context) (int, error) {
	for m.Pending() == 0 {
		select {
		case <-m.posted:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return m.Drain(), nil
}
