package results

import "github.com/oakwood-commons/paramsel/internal/directory"

// Proxy narrows its parent to the children of the parent's selected row
// (or, for a Root parent, to all accumulated rows) and tracks one selected
// row of its own.
type Proxy struct {
	name     string
	parent   Parent
	selected int

	disconnect []func()

	// SelectionChanged fires after every UpdateSelection or ResetSelection,
	// even when the index did not change.
	SelectionChanged Signal[int]
	// RowsChanged fires when the visible rows were replaced or extended.
	RowsChanged Signal[struct{}]
}

var _ Parent = (*Proxy)(nil)

// NewProxy returns a proxy with no parent and no selection.
func NewProxy(name string) *Proxy {
	return &Proxy{name: name, selected: -1}
}

// Name returns the layer name given to NewProxy.
func (p *Proxy) Name() string { return p.name }

// SetParent attaches the proxy to parent, replacing any previous parent,
// and resets the selection.
func (p *Proxy) SetParent(parent Parent) {
	for _, d := range p.disconnect {
		d()
	}
	p.disconnect = nil
	p.parent = parent
	if parent != nil {
		p.disconnect = append(p.disconnect,
			parent.onReplace(p.ResetSelection),
			parent.onAppend(func() { p.RowsChanged.Emit(struct{}{}) }),
		)
	}
	p.ResetSelection()
}

// Rows returns the rows currently visible through the proxy.
func (p *Proxy) Rows() []directory.Node {
	if p.parent == nil {
		return nil
	}
	return p.parent.childRows()
}

// RowCount implements Model.
func (p *Proxy) RowCount() int {
	return len(p.Rows())
}

// DataAt implements Model.
func (p *Proxy) DataAt(row int) (directory.Node, bool) {
	rows := p.Rows()
	if row < 0 || row >= len(rows) {
		return directory.Node{}, false
	}
	return rows[row], true
}

// Index returns the first visible row named name, or -1.
func (p *Proxy) Index(name string) int {
	return directory.Batch(p.Rows()).Index(name)
}

// Selected returns the selected row, or -1.
func (p *Proxy) Selected() int { return p.selected }

// SelectedNode returns the node of the selected row.
func (p *Proxy) SelectedNode() (directory.Node, bool) {
	if p.selected < 0 {
		return directory.Node{}, false
	}
	return p.DataAt(p.selected)
}

// UpdateSelection selects row, or clears the selection for -1. Rows outside
// the visible range are ignored.
func (p *Proxy) UpdateSelection(row int) {
	if row < -1 || row >= p.RowCount() {
		return
	}
	p.selected = row
	p.SelectionChanged.Emit(row)
}

// ResetSelection runs when the parent's visible rows were replaced. A
// single visible row is selected, otherwise the selection is cleared.
func (p *Proxy) ResetSelection() {
	if p.RowCount() == 1 {
		p.selected = 0
	} else {
		p.selected = -1
	}
	p.RowsChanged.Emit(struct{}{})
	p.SelectionChanged.Emit(p.selected)
}

func (p *Proxy) childRows() []directory.Node {
	n, ok := p.SelectedNode()
	if !ok {
		return nil
	}
	return n.Children
}

func (p *Proxy) onReplace(fn func()) func() {
	return p.SelectionChanged.Connect(func(int) { fn() })
}

func (p *Proxy) onAppend(func()) func() {
	// The children of a selected row never grow in place.
	return func() {}
}
