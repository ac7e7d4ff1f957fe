package results

// View is a single-selection list widget.
type View interface {
	SetRows(names []string)
	Highlight(row int)
}

// Binding keeps a View and a Proxy in sync in both directions.
type Binding struct {
	proxy      *Proxy
	view       View
	syncing    bool
	disconnect []func()
}

// Install binds view to the proxy and pushes the current rows and
// selection into it.
func (p *Proxy) Install(view View) *Binding {
	b := &Binding{proxy: p, view: view}
	b.disconnect = []func(){
		p.RowsChanged.Connect(func(struct{}) { b.refresh() }),
		p.SelectionChanged.Connect(func(row int) { b.highlight(row) }),
	}
	b.refresh()
	return b
}

// UserSelected forwards a selection made in the view to the proxy.
// Selections echoed back while the binding is updating the view are
// dropped.
func (b *Binding) UserSelected(row int) {
	if b.syncing {
		return
	}
	b.syncing = true
	defer func() { b.syncing = false }()
	b.proxy.UpdateSelection(row)
}

// Close detaches the view.
func (b *Binding) Close() {
	for _, d := range b.disconnect {
		d()
	}
	b.disconnect = nil
}

func (b *Binding) refresh() {
	if b.syncing {
		return
	}
	b.syncing = true
	defer func() { b.syncing = false }()
	rows := b.proxy.Rows()
	names := make([]string, len(rows))
	for i, n := range rows {
		names[i] = n.Name
	}
	b.view.SetRows(names)
	b.view.Highlight(b.proxy.Selected())
}

func (b *Binding) highlight(row int) {
	if b.syncing {
		return
	}
	b.syncing = true
	defer func() { b.syncing = false }()
	b.view.Highlight(row)
}
