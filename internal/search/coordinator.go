// Package search runs device searches against a directory and feeds the
// results into the device, property and field selection layers.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/internal/results"
	"github.com/oakwood-commons/paramsel/internal/scheduler"
	"github.com/oakwood-commons/paramsel/pkg/logger"
	"github.com/oakwood-commons/paramsel/pkg/paramname"
)

// Coordinator owns the result models and runs at most one search at a
// time. Apart from the returned Request handles, it must only be used from
// the scheduler goroutine.
type Coordinator struct {
	ctx    context.Context
	sched  scheduler.Scheduler
	source directory.Source

	root       *results.Root
	devices    *results.Proxy
	properties *results.Proxy
	fields     *results.Proxy

	active *Request

	status     StatusUpdate
	prevStatus StatusUpdate

	// StatusChanged fires on every status transition.
	StatusChanged results.Signal[StatusUpdate]
}

// NewCoordinator wires a root and three chained selection layers to source.
// Searches stop when ctx is cancelled.
func NewCoordinator(ctx context.Context, sched scheduler.Scheduler, source directory.Source) *Coordinator {
	c := &Coordinator{
		ctx:        ctx,
		sched:      sched,
		source:     source,
		root:       results.NewRoot(ctx, sched),
		devices:    results.NewProxy("device"),
		properties: results.NewProxy("property"),
		fields:     results.NewProxy("field"),
		status:     StatusUpdate{Status: Failed, Message: DefaultHint},
	}
	c.prevStatus = c.status
	c.devices.SetParent(c.root)
	c.properties.SetParent(c.devices)
	c.fields.SetParent(c.properties)
	c.root.FetchFailed.Connect(func(err error) {
		c.setStatus(StatusUpdate{Status: Failed, Message: "failed to load more results: " + err.Error()})
	})
	return c
}

// Root returns the accumulated results.
func (c *Coordinator) Root() *results.Root { return c.root }

// Devices returns the device selection layer.
func (c *Coordinator) Devices() *results.Proxy { return c.devices }

// Properties returns the property selection layer.
func (c *Coordinator) Properties() *results.Proxy { return c.properties }

// Fields returns the field selection layer.
func (c *Coordinator) Fields() *results.Proxy { return c.fields }

// Status returns the current status.
func (c *Coordinator) Status() StatusUpdate { return c.status }

// Active returns the search in flight, or nil.
func (c *Coordinator) Active() *Request { return c.active }

// FetchMore loads the next page of the current search. It does nothing
// while a new search is running.
func (c *Coordinator) FetchMore() {
	if c.active != nil {
		return
	}
	c.root.FetchMore()
}

type target struct {
	device   string
	property string
	field    string
}

func parseTarget(query string) target {
	if n, ok := paramname.Parse(query); ok {
		return target{device: n.Device, property: n.Property, field: n.Field}
	}
	return target{device: query}
}

// RequestSearch starts a search for query, which is either a device name
// fragment or a device/property#field name. The previous search, if still
// running, is cancelled. A blank query is ignored and returns nil.
func (c *Coordinator) RequestSearch(query string) *Request {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	c.cancelActive()
	c.root.CancelActive()

	c.devices.UpdateSelection(-1)
	c.properties.UpdateSelection(-1)
	c.fields.UpdateSelection(-1)

	tgt := parseTarget(query)
	req := newRequest(c.ctx, query)
	req.cancel = func() {
		req.cancelCtx()
		c.sched.Post(func() {
			if c.active == req {
				c.cancelActive()
			}
		})
	}
	c.active = req
	c.prevStatus = c.status
	c.setStatus(StatusUpdate{Status: InProgress, Message: "Searching " + query + "...", Query: query})

	lgr := logger.FromContext(c.ctx)
	lgr.V(1).Info("search started", logger.QueryKey, query, logger.DeviceKey, tgt.device)

	source := c.source
	go func() {
		pages, first, err := source.Search(req.ctx, tgt.device)
		c.sched.Post(func() {
			c.finish(req, tgt, pages, first, err)
		})
	}()
	return req
}

// Cancel aborts the search and the page fetch in flight. It reports
// whether either was running.
func (c *Coordinator) Cancel() bool {
	if c.active == nil && !c.root.Loading() {
		return false
	}
	c.cancelActive()
	c.root.CancelActive()
	return true
}

func (c *Coordinator) cancelActive() {
	req := c.active
	if req == nil {
		return
	}
	c.active = nil
	req.cancelCtx()
	logger.FromContext(c.ctx).V(1).Info("search cancelled", logger.QueryKey, req.Query)
	c.setStatus(c.prevStatus)
	req.resolve(context.Canceled)
}

func (c *Coordinator) finish(req *Request, tgt target, pages directory.Pages, first directory.Batch, err error) {
	if c.active != req {
		return
	}
	if req.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		c.cancelActive()
		return
	}
	c.active = nil
	req.cancelCtx()

	lgr := logger.FromContext(c.ctx)
	if err != nil {
		lgr.Error(err, "search failed", logger.QueryKey, req.Query)
		c.setStatus(StatusUpdate{Status: Failed, Message: err.Error(), Query: req.Query})
		req.resolve(err)
		return
	}

	c.root.SetData(pages, first)
	lgr.V(1).Info("search complete", logger.QueryKey, req.Query, "rows", c.root.RowCount())
	c.setStatus(StatusUpdate{Status: Complete, Query: req.Query})
	c.autoSelect(tgt)
	req.resolve(nil)
}

// autoSelect picks the only device, or else the first one named exactly
// like the target, and then the targeted property and field.
func (c *Coordinator) autoSelect(tgt target) {
	switch {
	case c.devices.RowCount() == 1:
		c.devices.UpdateSelection(0)
	default:
		i := c.devices.Index(tgt.device)
		if i < 0 {
			return
		}
		c.devices.UpdateSelection(i)
	}
	if tgt.property == "" {
		return
	}
	i := c.properties.Index(tgt.property)
	if i < 0 {
		return
	}
	c.properties.UpdateSelection(i)
	if tgt.field == "" {
		return
	}
	if i := c.fields.Index(tgt.field); i >= 0 {
		c.fields.UpdateSelection(i)
	}
}

func (c *Coordinator) setStatus(s StatusUpdate) {
	c.status = s
	c.StatusChanged.Emit(s)
}
