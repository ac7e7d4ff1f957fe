// Package directory is the boundary to the device directory service: one
// search per query, answered as a lazily paginated device → property →
// field tree.
package directory

import (
	"context"
	"errors"
	"strings"
)

// ErrExhausted is returned by Pages.Next when no further pages exist.
var ErrExhausted = errors.New("directory: no more pages")

// ErrUnknownDevice is returned by lookups of a single device that the
// directory does not know.
var ErrUnknownDevice = errors.New("directory: unknown device")

// Node is one level of the result tree. Device nodes hold properties,
// property nodes hold fields, field nodes are leaves.
type Node struct {
	Name     string `json:"name" yaml:"name"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Leaf reports whether the node has no children.
func (n Node) Leaf() bool {
	return len(n.Children) == 0
}

// Child returns the index of the child named name, or -1.
func (n Node) Child(name string) int {
	return Batch(n.Children).Index(name)
}

// Batch is one page of top-level (device) nodes.
type Batch []Node

// Index returns the position of the first node named name, or -1.
func (b Batch) Index(name string) int {
	for i, n := range b {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the node names in order.
func (b Batch) Names() []string {
	names := make([]string, len(b))
	for i, n := range b {
		names[i] = n.Name
	}
	return names
}

// Pages yields the pages after the first one. It is stateful: each call
// returns the next unseen page and it cannot be rewound.
type Pages interface {
	Next(ctx context.Context) (Batch, error)
}

// Source performs a single directory query for devices whose name contains
// device. The first page is returned eagerly and may be empty; pages may be
// nil when the query fits in the first page.
type Source interface {
	Search(ctx context.Context, device string) (Pages, Batch, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, device string) (Pages, Batch, error)

// Search implements Source.
func (f SourceFunc) Search(ctx context.Context, device string) (Pages, Batch, error) {
	return f(ctx, device)
}

// WildcardQuery wraps a device name fragment the way the directory expects
// substring queries: *fragment*.
func WildcardQuery(device string) string {
	return "*" + strings.Trim(device, "*") + "*"
}

// SlicePages serves pre-computed pages from memory.
type SlicePages struct {
	pages []Batch
}

// NewSlicePages returns a Pages over the given batches.
func NewSlicePages(pages ...Batch) *SlicePages {
	return &SlicePages{pages: pages}
}

// Next implements Pages.
func (p *SlicePages) Next(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.pages) == 0 {
		return nil, ErrExhausted
	}
	next := p.pages[0]
	p.pages = p.pages[1:]
	return next, nil
}

// Remaining returns how many pages are left.
func (p *SlicePages) Remaining() int {
	return len(p.pages)
}
