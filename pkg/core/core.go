// Package core is the embedding API for paramsel: it runs one directory
// search to completion and renders the results without the terminal UI.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/internal/formatter"
	"github.com/oakwood-commons/paramsel/internal/limiter"
	"github.com/oakwood-commons/paramsel/internal/results"
	"github.com/oakwood-commons/paramsel/internal/scheduler"
	"github.com/oakwood-commons/paramsel/internal/search"
	"github.com/oakwood-commons/paramsel/pkg/logger"
	"github.com/oakwood-commons/paramsel/pkg/paramname"
)

type (
	// Source answers device searches.
	Source = directory.Source
	// Node is one device, property or field.
	Node = directory.Node
	// Batch is a page of device nodes.
	Batch = directory.Batch
	// Format names an output format.
	Format = formatter.Format
	// RenderOptions tunes Render.
	RenderOptions = formatter.Options
	// Limit windows the rows of a result.
	Limit = limiter.Config
)

// Formatter renders result rows.
type Formatter interface {
	Render(rows Batch, format Format, opts RenderOptions) (string, error)
}

// Result is what one search produced.
type Result struct {
	Query string
	Rows  Batch
	// More is true when further pages exist that were not fetched.
	More bool
	// Selected is the parameter the query named, when the search found it.
	Selected string
}

// Engine runs searches against a source.
type Engine struct {
	Source    Source
	Formatter Formatter
	Limit     Limit
	FetchAll  bool
}

// Option configures the Engine.
type Option func(*Engine)

// WithFormatter sets a custom formatter.
func WithFormatter(f Formatter) Option {
	return func(e *Engine) {
		e.Formatter = f
	}
}

// WithLimit windows the rows Render prints.
func WithLimit(l Limit) Option {
	return func(e *Engine) {
		e.Limit = l
	}
}

// WithFetchAll makes Search pull every page instead of only the first.
func WithFetchAll(all bool) Option {
	return func(e *Engine) {
		e.FetchAll = all
	}
}

// New creates an Engine over source.
func New(source Source, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, errors.New("core: nil source")
	}
	engine := &Engine{Source: source}
	for _, opt := range opts {
		opt(engine)
	}
	if err := engine.Limit.Validate(); err != nil {
		return nil, err
	}
	if engine.Formatter == nil {
		engine.Formatter = defaultFormatter{}
	}
	return engine, nil
}

// LoadCatalog reads a yaml, json or toml catalog file into a Source.
func LoadCatalog(path string, pageSize int, filter string) (Source, error) {
	return directory.LoadCatalog(path, directory.Options{PageSize: pageSize, Filter: filter})
}

// Search runs query on a private scheduler loop and waits for it. The
// query is a device name fragment or a full device/property#field name.
func (e *Engine) Search(ctx context.Context, query string) (Result, error) {
	lgr := logger.FromContext(ctx)

	loop := scheduler.NewLoop()
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go loop.Run(loopCtx)

	var (
		coord *search.Coordinator
		req   *search.Request
	)
	if err := loop.Do(ctx, func() {
		coord = search.NewCoordinator(ctx, loop, e.Source)
		req = coord.RequestSearch(query)
	}); err != nil {
		return Result{}, err
	}
	if req == nil {
		return Result{}, errors.New("empty query")
	}
	if err := req.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("search %q failed: %w", query, err)
	}

	if e.FetchAll {
		if err := fetchRemaining(ctx, loop, coord.Root()); err != nil {
			return Result{}, fmt.Errorf("failed to load more results: %w", err)
		}
	}

	res := Result{Query: req.Query}
	if err := loop.Do(ctx, func() {
		res.Rows = coord.Root().Rows()
		res.More = coord.Root().CanFetchMore()
		res.Selected = selectedName(coord)
	}); err != nil {
		return Result{}, err
	}
	lgr.V(1).Info("search results", logger.QueryKey, query, "rows", len(res.Rows), "more", res.More)
	return res, nil
}

// Render windows res with the engine limit and formats it.
func (e *Engine) Render(res Result, format Format, opts RenderOptions) (string, error) {
	rows := res.Rows
	if e.Limit.IsActive() {
		rows = limiter.Apply(e.Limit, rows)
	}
	return e.Formatter.Render(rows, format, opts)
}

// fetchRemaining pulls pages until the root is exhausted. A page error
// ends the loop and is returned.
func fetchRemaining(ctx context.Context, loop *scheduler.Loop, root *results.Root) error {
	loaded := make(chan struct{}, 1)
	var disconnect func()
	if err := loop.Do(ctx, func() {
		disconnect = root.LoadingChanged.Connect(func(busy bool) {
			if busy {
				return
			}
			select {
			case loaded <- struct{}{}:
			default:
			}
		})
	}); err != nil {
		return err
	}
	defer loop.Post(disconnect)

	for {
		var more bool
		if err := loop.Do(ctx, func() {
			more = root.CanFetchMore()
			if more {
				root.FetchMore()
			}
		}); err != nil {
			return err
		}
		if !more {
			break
		}
		select {
		case <-loaded:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var err error
	if doErr := loop.Do(ctx, func() { err = root.Err() }); doErr != nil {
		return doErr
	}
	return err
}

func selectedName(coord *search.Coordinator) string {
	dev, ok := coord.Devices().SelectedNode()
	if !ok {
		return ""
	}
	prop, ok := coord.Properties().SelectedNode()
	if !ok {
		return ""
	}
	n := paramname.New(dev.Name, prop.Name)
	if f, ok := coord.Fields().SelectedNode(); ok {
		n.Field = f.Name
	}
	return n.String()
}

type defaultFormatter struct{}

func (defaultFormatter) Render(rows Batch, format Format, opts RenderOptions) (string, error) {
	return formatter.Render(rows, format, opts)
}
