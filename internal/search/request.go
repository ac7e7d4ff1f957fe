package search

import (
	"context"
	"sync"
)

// Request is the handle of one search. It resolves once the search
// completed, failed or was cancelled.
type Request struct {
	// Query is the trimmed query the request was issued for.
	Query string

	ctx       context.Context
	cancelCtx context.CancelFunc
	cancel    func()

	once sync.Once
	done chan struct{}
	err  error
}

func newRequest(parent context.Context, query string) *Request {
	ctx, cancel := context.WithCancel(parent)
	return &Request{Query: query, ctx: ctx, cancelCtx: cancel, done: make(chan struct{})}
}

// Cancel aborts the search. The coordinator rolls the status back to what
// it was before the search started. Cancelling a resolved request does
// nothing.
func (r *Request) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Done is closed once the request resolved.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Err returns nil for a successful search, context.Canceled for a
// cancelled one and the lookup error otherwise. It is only meaningful once
// Done is closed.
func (r *Request) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the request resolved or ctx ended.
func (r *Request) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Request) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}
