package search

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/paramsel/internal/results"
	"github.com/oakwood-commons/paramsel/pkg/paramname"
)

// SelectorOptions control which parts of a parameter name a Selector
// produces.
type SelectorOptions struct {
	EnableFields    bool
	EnableProtocols bool
}

// Selector turns the selections of a Coordinator into a parameter name.
type Selector struct {
	coord *Coordinator
	opts  SelectorOptions
	value paramname.Name

	// ValueChanged fires with the new string form whenever the value
	// changes.
	ValueChanged results.Signal[string]
}

// NewSelector attaches a selector to coord.
func NewSelector(coord *Coordinator, opts SelectorOptions) *Selector {
	s := &Selector{coord: coord, opts: opts}
	update := func(int) { s.recompute() }
	coord.Devices().SelectionChanged.Connect(update)
	coord.Properties().SelectionChanged.Connect(update)
	if opts.EnableFields {
		coord.Fields().SelectionChanged.Connect(update)
	}
	coord.StatusChanged.Connect(func(u StatusUpdate) {
		if u.Status == InProgress {
			s.setValue(paramname.Name{}.WithProtocol(s.value.Protocol()))
		}
	})
	return s
}

// Options returns the options the selector was created with.
func (s *Selector) Options() SelectorOptions { return s.opts }

// Coordinator returns the coordinator the selector drives.
func (s *Selector) Coordinator() *Coordinator { return s.coord }

// Value returns the selected parameter name, or "" when no complete
// device/property pair is selected.
func (s *Selector) Value() string { return s.value.String() }

// Name returns the selected parameter name.
func (s *Selector) Name() paramname.Name { return s.value }

// Protocol returns the protocol that prefixes the value.
func (s *Selector) Protocol() string { return s.value.Protocol() }

// SetValue parses v and searches for it so the layers end up selecting the
// named parameter. Unknown protocols are dropped, as are fields and
// protocols when the selector does not offer them.
func (s *Selector) SetValue(v string) (*Request, error) {
	n, ok := paramname.Parse(strings.TrimSpace(v))
	if !ok {
		return nil, fmt.Errorf("%w: %q", paramname.ErrInvalid, v)
	}
	if !s.opts.EnableProtocols || !paramname.IsKnownProtocol(n.Protocol()) {
		n.SetProtocol("")
	}
	if !s.opts.EnableFields {
		n.Field = ""
	}
	protocol := strings.ToLower(n.Protocol())
	n.SetProtocol("")
	req := s.coord.RequestSearch(n.String())
	s.setValue(s.value.WithProtocol(protocol))
	return req, nil
}

// SetProtocol changes the protocol of the value. An empty protocol removes
// it.
func (s *Selector) SetProtocol(p string) error {
	if p != "" && !paramname.IsKnownProtocol(p) {
		return fmt.Errorf("unknown protocol %q", p)
	}
	s.setValue(s.value.WithProtocol(strings.ToLower(p)))
	return nil
}

// CycleProtocol advances to the next entry of the protocol list, where the
// entry after the last known protocol is no protocol at all.
func (s *Selector) CycleProtocol() string {
	choices := append([]string{""}, paramname.KnownProtocols...)
	next := 0
	for i, p := range choices {
		if p == s.value.Protocol() {
			next = (i + 1) % len(choices)
			break
		}
	}
	s.setValue(s.value.WithProtocol(choices[next]))
	return choices[next]
}

func (s *Selector) recompute() {
	n := paramname.Name{}.WithProtocol(s.value.Protocol())
	if dev, ok := s.coord.Devices().SelectedNode(); ok {
		n.Device = dev.Name
	}
	if prop, ok := s.coord.Properties().SelectedNode(); ok {
		n.Property = prop.Name
	}
	if s.opts.EnableFields {
		if f, ok := s.coord.Fields().SelectedNode(); ok {
			n.Field = f.Name
		}
	}
	s.setValue(n)
}

func (s *Selector) setValue(n paramname.Name) {
	old := s.value
	s.value = n
	if old != n {
		s.ValueChanged.Emit(n.String())
	}
}
