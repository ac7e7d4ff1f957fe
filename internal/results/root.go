// Package results holds the result tree of the current search and the
// selection layers (device, property, field) that narrow it.
//
// All methods must be called from the goroutine owned by the scheduler the
// models were built with. Page fetches run on their own goroutines and post
// their results back through that scheduler.
package results

import (
	"context"
	"errors"

	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/internal/scheduler"
	"github.com/oakwood-commons/paramsel/pkg/logger"
)

// Model is the read side shared by Root and Proxy.
type Model interface {
	RowCount() int
	DataAt(row int) (directory.Node, bool)
}

// Parent is a model a Proxy can narrow.
type Parent interface {
	Model
	childRows() []directory.Node
	onReplace(fn func()) func()
	onAppend(fn func()) func()
}

// Root accumulates the pages of the current search.
type Root struct {
	ctx   context.Context
	sched scheduler.Scheduler

	accumulated []directory.Node
	pages       directory.Pages
	exhausted   bool
	loading     bool
	err         error

	cancel context.CancelFunc
	gen    uint64

	// Reset fires after SetData replaced all rows.
	Reset Signal[struct{}]
	// Appended fires with the index of the first new row.
	Appended Signal[int]
	// LoadingChanged fires whenever the loading flag flips.
	LoadingChanged Signal[bool]
	// FetchFailed fires when a page request failed with anything other than
	// exhaustion or cancellation.
	FetchFailed Signal[error]
}

var _ Parent = (*Root)(nil)

// NewRoot returns an empty root. Page fetches derive their context from
// ctx, so cancelling it aborts any fetch in flight.
func NewRoot(ctx context.Context, sched scheduler.Scheduler) *Root {
	return &Root{ctx: ctx, sched: sched, exhausted: true}
}

// SetData replaces the accumulated rows with first and keeps pages for
// FetchMore. A nil first batch or a nil pages marks the root exhausted.
func (r *Root) SetData(pages directory.Pages, first directory.Batch) {
	r.CancelActive()
	r.accumulated = append([]directory.Node(nil), first...)
	r.pages = pages
	r.exhausted = first == nil || pages == nil
	r.err = nil
	r.Reset.Emit(struct{}{})
}

// CanFetchMore reports whether FetchMore would request a page.
func (r *Root) CanFetchMore() bool {
	return !r.loading && !r.exhausted && r.pages != nil
}

// FetchMore requests the next page. It does nothing while a page is
// loading, once the pages are exhausted or when there is no page source.
func (r *Root) FetchMore() {
	if !r.CanFetchMore() {
		return
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel
	r.gen++
	gen := r.gen
	pages := r.pages
	r.setLoading(true)

	go func() {
		batch, err := pages.Next(ctx)
		r.sched.Post(func() {
			cancel()
			if gen != r.gen || !r.loading {
				return
			}
			r.cancel = nil
			r.finishFetch(batch, err)
		})
	}()
}

func (r *Root) finishFetch(batch directory.Batch, err error) {
	lgr := logger.FromContext(r.ctx)
	switch {
	case err == nil:
		start := len(r.accumulated)
		r.accumulated = append(r.accumulated, batch...)
		r.setLoading(false)
		if len(batch) > 0 {
			lgr.V(1).Info("page appended", "rows", len(batch), "total", len(r.accumulated))
			r.Appended.Emit(start)
		}
	case errors.Is(err, directory.ErrExhausted):
		r.exhausted = true
		r.setLoading(false)
	case errors.Is(err, context.Canceled):
		r.setLoading(false)
	default:
		lgr.Error(err, "failed to fetch page")
		r.exhausted = true
		r.err = err
		r.setLoading(false)
		r.FetchFailed.Emit(err)
	}
}

// CancelActive aborts the page fetch in flight, if any.
func (r *Root) CancelActive() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	if r.loading {
		r.setLoading(false)
	}
}

func (r *Root) setLoading(v bool) {
	if r.loading == v {
		return
	}
	r.loading = v
	r.LoadingChanged.Emit(v)
}

// Loading reports whether a page request is in flight.
func (r *Root) Loading() bool { return r.loading }

// Exhausted reports whether no further pages will arrive.
func (r *Root) Exhausted() bool { return r.exhausted }

// Err returns the error that ended pagination, if any.
func (r *Root) Err() error { return r.err }

// RowCount implements Model.
func (r *Root) RowCount() int { return len(r.accumulated) }

// DataAt implements Model.
func (r *Root) DataAt(row int) (directory.Node, bool) {
	if row < 0 || row >= len(r.accumulated) {
		return directory.Node{}, false
	}
	return r.accumulated[row], true
}

// Rows returns the accumulated rows. The slice must not be modified.
func (r *Root) Rows() []directory.Node {
	return r.accumulated[:len(r.accumulated):len(r.accumulated)]
}

func (r *Root) childRows() []directory.Node { return r.Rows() }

func (r *Root) onReplace(fn func()) func() {
	return r.Reset.Connect(func(struct{}) { fn() })
}

func (r *Root) onAppend(fn func()) func() {
	return r.Appended.Connect(func(int) { fn() })
}
