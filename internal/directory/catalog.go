package directory

import (
	"context"
	"fmt"
	"sort"

	"github.com/oakwood-commons/paramsel/internal/cel"
	"github.com/oakwood-commons/paramsel/internal/limiter"
	"github.com/oakwood-commons/paramsel/pkg/loader"
	"github.com/oakwood-commons/paramsel/pkg/logger"
)

// Property is one property of a catalog device.
type Property struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty" toml:"fields,omitempty"`
}

// Device is one catalog record. The same shape is served by the HTTP
// directory.
type Device struct {
	Name        string     `json:"name" yaml:"name" toml:"name"`
	Class       string     `json:"class,omitempty" yaml:"class,omitempty" toml:"class,omitempty"`
	Accelerator string     `json:"accelerator,omitempty" yaml:"accelerator,omitempty" toml:"accelerator,omitempty"`
	Properties  []Property `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
}

// Node converts the record into a result tree with properties and fields
// sorted by name.
func (d Device) Node() Node {
	props := make([]Node, 0, len(d.Properties))
	for _, p := range d.Properties {
		fields := make([]Node, 0, len(p.Fields))
		for _, f := range p.Fields {
			fields = append(fields, Node{Name: f})
		}
		sortNodes(fields)
		props = append(props, Node{Name: p.Name, Children: fields})
	}
	sortNodes(props)
	return Node{Name: d.Name, Children: props}
}

// Record returns the CEL-visible form of the device.
func (d Device) Record() map[string]any {
	props := make([]any, 0, len(d.Properties))
	for _, p := range d.Properties {
		fields := make([]any, 0, len(p.Fields))
		for _, f := range p.Fields {
			fields = append(fields, f)
		}
		props = append(props, map[string]any{"name": p.Name, "fields": fields})
	}
	return map[string]any{
		"name":        d.Name,
		"class":       d.Class,
		"accelerator": d.Accelerator,
		"properties":  props,
	}
}

func sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
}

// Document is the on-disk catalog layout.
type Document struct {
	Devices []Device `json:"devices" yaml:"devices" toml:"devices"`
}

// Options configure a directory source.
type Options struct {
	// PageSize is the number of devices per page. Zero returns everything in
	// the first page.
	PageSize int
	// Filter is an optional CEL predicate over name and device.
	Filter string
}

// Catalog answers searches from an in-memory device list.
type Catalog struct {
	devices []Device
	opts    Options
	eval    *cel.Evaluator
}

// NewCatalog builds a catalog over doc. The filter, if any, is compiled
// eagerly so a bad expression fails here rather than on the first search.
func NewCatalog(doc Document, opts Options) (*Catalog, error) {
	eval, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	if _, err := eval.NameQuery("*", opts.Filter); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return &Catalog{devices: doc.Devices, opts: opts, eval: eval}, nil
}

// LoadCatalog reads a yaml, json or toml catalog file.
func LoadCatalog(path string, opts Options) (*Catalog, error) {
	var doc Document
	if _, err := loader.LoadFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return NewCatalog(doc, opts)
}

// Len returns the number of devices in the catalog.
func (c *Catalog) Len() int {
	return len(c.devices)
}

// Search implements Source.
func (c *Catalog) Search(ctx context.Context, device string) (Pages, Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	query := WildcardQuery(device)
	lgr := logger.FromContext(ctx)
	lgr.V(1).Info("catalog search", logger.QueryKey, query)

	pred, err := c.eval.NameQuery(query, c.opts.Filter)
	if err != nil {
		return nil, nil, err
	}
	var matched []Node
	for _, d := range c.devices {
		ok, err := pred.Match(d.Name, d.Record())
		if err != nil {
			return nil, nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
		if ok {
			matched = append(matched, d.Node())
		}
	}
	lgr.V(1).Info("catalog search done", logger.QueryKey, query, "matches", len(matched))

	pages := limiter.Paginate(matched, c.opts.PageSize)
	if len(pages) == 0 {
		return nil, Batch{}, nil
	}
	if len(pages) == 1 {
		return nil, Batch(pages[0]), nil
	}
	rest := make([]Batch, 0, len(pages)-1)
	for _, p := range pages[1:] {
		rest = append(rest, Batch(p))
	}
	return NewSlicePages(rest...), Batch(pages[0]), nil
}
