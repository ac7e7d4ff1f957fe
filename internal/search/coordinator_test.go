package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/internal/scheduler"
)

type reply struct {
	pages directory.Pages
	first directory.Batch
	err   error
}

type sourceCall struct {
	device string
	ctx    context.Context
	reply  chan reply
}

// scriptedSource hands every Search call to the test, which answers it
// through the call's reply channel.
type scriptedSource struct {
	calls chan *sourceCall
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{calls: make(chan *sourceCall, 8)}
}

func (s *scriptedSource) Search(ctx context.Context, device string) (directory.Pages, directory.Batch, error) {
	call := &sourceCall{device: device, ctx: ctx, reply: make(chan reply, 1)}
	s.calls <- call
	select {
	case r := <-call.reply:
		return r.pages, r.first, r.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (s *scriptedSource) next(t *testing.T) *sourceCall {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a directory call")
		return nil
	}
}

type fixture struct {
	sched    *scheduler.Manual
	source   *scriptedSource
	coord    *Coordinator
	statuses []StatusUpdate
}

func newFixture() *fixture {
	f := &fixture{sched: scheduler.NewManual(), source: newScriptedSource()}
	f.coord = NewCoordinator(context.Background(), f.sched, f.source)
	f.coord.StatusChanged.Connect(func(u StatusUpdate) { f.statuses = append(f.statuses, u) })
	return f
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := f.sched.WaitAndDrain(ctx)
	require.NoError(t, err)
}

func (f *fixture) kinds() []Status {
	out := make([]Status, len(f.statuses))
	for i, u := range f.statuses {
		out[i] = u.Status
	}
	return out
}

func sampleBatch() directory.Batch {
	return directory.Batch{
		{Name: "dev", Children: []directory.Node{{Name: "p"}}},
		{Name: "dev1", Children: []directory.Node{
			{Name: "propA", Children: []directory.Node{{Name: "f1"}, {Name: "f2"}}},
			{Name: "propB"},
		}},
		{Name: "dev1", Children: []directory.Node{{Name: "dup"}}},
	}
}

func TestCoordinatorInitialStatus(t *testing.T) {
	f := newFixture()
	assert.Equal(t, Failed, f.coord.Status().Status)
	assert.Equal(t, DefaultHint, f.coord.Status().Message)
	assert.Nil(t, f.coord.Active())
	assert.False(t, f.coord.Cancel())
}

func TestRequestSearchIgnoresBlankQuery(t *testing.T) {
	f := newFixture()
	for _, q := range []string{"", "   ", "\t\n"} {
		assert.Nil(t, f.coord.RequestSearch(q))
	}
	assert.Empty(t, f.statuses)
	assert.Empty(t, f.source.calls)
	assert.Nil(t, f.coord.Active())

	// A blank query also leaves a running search alone.
	req := f.coord.RequestSearch("dev")
	assert.Nil(t, f.coord.RequestSearch(" "))
	assert.Same(t, req, f.coord.Active())
}

func TestRequestSearchSingleDevice(t *testing.T) {
	f := newFixture()
	req := f.coord.RequestSearch("  dev2 ")
	require.NotNil(t, req)
	assert.Equal(t, "dev2", req.Query)
	assert.Equal(t, InProgress, f.coord.Status().Status)
	assert.Equal(t, "Searching dev2...", f.coord.Status().Message)

	call := f.source.next(t)
	assert.Equal(t, "dev2", call.device)
	call.reply <- reply{first: directory.Batch{
		{Name: "dev2", Children: []directory.Node{{Name: "prop2", Children: []directory.Node{{Name: "field2"}}}}},
	}}
	f.drain(t)

	require.NoError(t, req.Err())
	assert.Equal(t, []Status{InProgress, Complete}, f.kinds())
	assert.Equal(t, 1, f.coord.Devices().RowCount())
	assert.Equal(t, 0, f.coord.Devices().Selected())
	assert.Equal(t, 1, f.coord.Properties().RowCount())
	assert.Equal(t, 0, f.coord.Properties().Selected())
	assert.Equal(t, 1, f.coord.Fields().RowCount())
	assert.Nil(t, f.coord.Active())
}

func TestRequestSearchExactNameMatch(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev1")
	f.source.next(t).reply <- reply{first: sampleBatch()}
	f.drain(t)

	assert.Equal(t, 3, f.coord.Devices().RowCount())
	assert.Equal(t, 1, f.coord.Devices().Selected(), "first exact match wins")
	assert.Equal(t, -1, f.coord.Properties().Selected())
}

func TestRequestSearchNoExactMatch(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("de")
	f.source.next(t).reply <- reply{first: sampleBatch()}
	f.drain(t)

	assert.Equal(t, Complete, f.coord.Status().Status)
	assert.Equal(t, -1, f.coord.Devices().Selected())
}

func TestRequestSearchFullName(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev1/propA#f2")
	call := f.source.next(t)
	assert.Equal(t, "dev1", call.device, "only the device part is sent to the directory")
	call.reply <- reply{first: sampleBatch()}
	f.drain(t)

	assert.Equal(t, 1, f.coord.Devices().Selected())
	assert.Equal(t, 0, f.coord.Properties().Selected())
	assert.Equal(t, 1, f.coord.Fields().Selected())
}

func TestRequestSearchUnknownProperty(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev1/nope#f2")
	f.source.next(t).reply <- reply{first: sampleBatch()}
	f.drain(t)

	assert.Equal(t, 1, f.coord.Devices().Selected())
	assert.Equal(t, -1, f.coord.Properties().Selected())
	assert.Equal(t, -1, f.coord.Fields().Selected())
}

func TestRequestSearchFailure(t *testing.T) {
	f := newFixture()
	req := f.coord.RequestSearch("dev")
	f.source.next(t).reply <- reply{err: errors.New("directory unavailable")}
	f.drain(t)

	assert.Equal(t, []Status{InProgress, Failed}, f.kinds())
	assert.Equal(t, "directory unavailable", f.coord.Status().Message)
	assert.EqualError(t, req.Err(), "directory unavailable")
	assert.Nil(t, f.coord.Active())
	assert.Zero(t, f.coord.Root().RowCount())
}

func TestRequestSearchResetsSelections(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev1/propA#f1")
	f.source.next(t).reply <- reply{first: sampleBatch()}
	f.drain(t)
	require.Equal(t, 0, f.coord.Fields().Selected())

	f.coord.RequestSearch("other")
	assert.Equal(t, -1, f.coord.Devices().Selected())
	assert.Equal(t, -1, f.coord.Properties().Selected())
	assert.Equal(t, -1, f.coord.Fields().Selected())
	assert.Equal(t, 3, f.coord.Root().RowCount(), "rows stay until the new search resolves")
}

func TestCancelRollsStatusBack(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev")
	f.source.next(t).reply <- reply{first: sampleBatch()}
	f.drain(t)
	require.Equal(t, Complete, f.coord.Status().Status)

	req := f.coord.RequestSearch("dev1")
	call := f.source.next(t)
	assert.True(t, f.coord.Cancel())

	assert.Equal(t, Complete, f.coord.Status().Status)
	assert.Equal(t, []Status{InProgress, Complete, InProgress, Complete}, f.kinds())
	assert.ErrorIs(t, req.Err(), context.Canceled)
	assert.ErrorIs(t, call.ctx.Err(), context.Canceled)

	// The source notices the cancellation; nothing reaches the root.
	f.drain(t)
	assert.Equal(t, 3, f.coord.Root().RowCount())
	assert.Nil(t, f.coord.Active())
}

func TestCancelBeforeFirstSearchRestoresHint(t *testing.T) {
	f := newFixture()
	req := f.coord.RequestSearch("dev")
	f.source.next(t)

	req.Cancel()
	f.drain(t)

	assert.Equal(t, Failed, f.coord.Status().Status)
	assert.Equal(t, DefaultHint, f.coord.Status().Message)
	assert.ErrorIs(t, req.Err(), context.Canceled)
	assert.Len(t, f.statuses, 2)
}

func TestNewSearchCancelsPrevious(t *testing.T) {
	f := newFixture()
	a := f.coord.RequestSearch("devA")
	callA := f.source.next(t)

	b := f.coord.RequestSearch("devB")
	callB := f.source.next(t)

	assert.ErrorIs(t, callA.ctx.Err(), context.Canceled)
	assert.ErrorIs(t, a.Err(), context.Canceled)
	assert.Same(t, b, f.coord.Active())

	callB.reply <- reply{first: directory.Batch{{Name: "devB"}}}
	// A may still answer late; it must be ignored.
	callA.reply <- reply{first: directory.Batch{{Name: "devA"}}}
	f.drain(t)
	require.Eventually(t, func() bool {
		f.sched.Drain()
		return f.coord.Active() == nil
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, b.Err())
	assert.Equal(t, 1, f.coord.Root().RowCount())
	n, _ := f.coord.Root().DataAt(0)
	assert.Equal(t, "devB", n.Name)
	assert.Equal(t, []Status{InProgress, Failed, InProgress, Complete}, f.kinds())
}

func TestRequestWait(t *testing.T) {
	f := newFixture()
	req := f.coord.RequestSearch("dev")
	f.source.next(t).reply <- reply{err: errors.New("boom")}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, req.Wait(ctx), context.DeadlineExceeded)
	assert.NoError(t, req.Err(), "unresolved requests report no error")

	f.drain(t)
	assert.EqualError(t, req.Wait(context.Background()), "boom")
}

type failingPages struct{ err error }

func (p failingPages) Next(context.Context) (directory.Batch, error) { return nil, p.err }

func TestFetchMoreFailureSurfaces(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev")
	f.source.next(t).reply <- reply{pages: failingPages{err: errors.New("page 2 lost")}, first: sampleBatch()}
	f.drain(t)

	f.coord.FetchMore()
	f.drain(t)

	assert.Equal(t, Failed, f.coord.Status().Status)
	assert.Contains(t, f.coord.Status().Message, "page 2 lost")
	assert.True(t, f.coord.Root().Exhausted())
	assert.Equal(t, 3, f.coord.Root().RowCount())
}

func TestFetchMoreWhenExhausted(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev")
	f.source.next(t).reply <- reply{first: nil}
	f.drain(t)

	f.coord.FetchMore()
	assert.False(t, f.coord.Root().Loading())
	assert.Zero(t, f.sched.Pending())
}

// gatedPages answers Next only when the test releases it. It ignores the
// context so a stale page can still report back after a cancel.
type gatedPages struct{ release chan error }

func (p gatedPages) Next(context.Context) (directory.Batch, error) {
	return nil, <-p.release
}

func TestNewSearchDropsPreviousPage(t *testing.T) {
	f := newFixture()
	pagesA := gatedPages{release: make(chan error, 1)}
	f.coord.RequestSearch("devA")
	f.source.next(t).reply <- reply{pages: pagesA, first: directory.Batch{{Name: "devA"}}}
	f.drain(t)
	f.coord.FetchMore()
	require.True(t, f.coord.Root().Loading())

	f.statuses = nil
	b := f.coord.RequestSearch("devB")
	callB := f.source.next(t)
	assert.False(t, f.coord.Root().Loading())

	var whileB []Status
	f.coord.StatusChanged.Connect(func(u StatusUpdate) {
		if f.coord.Active() == b {
			whileB = append(whileB, u.Status)
		}
	})
	pagesA.release <- errors.New("page lost")
	f.drain(t)
	assert.Equal(t, InProgress, f.coord.Status().Status)

	callB.reply <- reply{first: directory.Batch{{Name: "devB"}}}
	require.Eventually(t, func() bool {
		f.sched.Drain()
		return f.coord.Active() == nil
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, b.Err())
	assert.Empty(t, whileB)
	assert.Equal(t, []Status{InProgress, Complete}, f.kinds())
	assert.NoError(t, f.coord.Root().Err())
}

func TestCancelStopsPageFetch(t *testing.T) {
	f := newFixture()
	pages := gatedPages{release: make(chan error, 1)}
	f.coord.RequestSearch("dev")
	f.source.next(t).reply <- reply{pages: pages, first: sampleBatch()}
	f.drain(t)

	assert.False(t, f.coord.Cancel(), "nothing to cancel")
	f.coord.FetchMore()
	require.True(t, f.coord.Root().Loading())

	assert.True(t, f.coord.Cancel())
	assert.False(t, f.coord.Root().Loading())
	assert.Equal(t, Complete, f.coord.Status().Status)

	pages.release <- errors.New("page lost")
	f.drain(t)
	assert.Equal(t, Complete, f.coord.Status().Status)
	assert.NoError(t, f.coord.Root().Err())
	assert.Equal(t, 3, f.coord.Root().RowCount())
}

func TestFetchMoreWaitsForRunningSearch(t *testing.T) {
	f := newFixture()
	f.coord.RequestSearch("dev")
	f.source.next(t).reply <- reply{pages: gatedPages{release: make(chan error, 1)}, first: sampleBatch()}
	f.drain(t)

	f.coord.RequestSearch("dev1")
	f.source.next(t)
	f.coord.FetchMore()
	assert.False(t, f.coord.Root().Loading())
}

func TestRequestSearchKeepsPartialQuery(t *testing.T) {
	tests := map[string]struct {
		query  string
		device string
	}{
		"trailing slash": {query: " DEV/ ", device: "DEV/"},
		"field only":     {query: "DEV#x", device: "DEV#x"},
		"full name":      {query: "DEV.A/Acq#x", device: "DEV.A"},
		"property":       {query: "DEV.A/Acq", device: "DEV.A"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.coord.RequestSearch(tt.query)
			assert.Equal(t, tt.device, f.source.next(t).device)
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "in progress", InProgress.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "Status(7)", Status(7).String())
	assert.Equal(t, 0, int(Complete))
	assert.Equal(t, 1, int(InProgress))
	assert.Equal(t, 2, int(Failed))
}
