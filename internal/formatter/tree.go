package formatter

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/paramsel/internal/directory"
)

// FormatAsTree renders devices, properties and fields as an ASCII tree.
func FormatAsTree(batch directory.Batch, opts Options) string {
	root := treeprint.NewWithRoot(countLabel(len(batch), "device", "devices"))
	for _, dev := range batch {
		addNode(root, dev, opts, 0)
	}
	return root.String()
}

func addNode(branch treeprint.Tree, n directory.Node, opts Options, depth int) {
	// depth 0 = device, 1 = property, 2 = field
	if n.Leaf() || (opts.NoFields && depth >= 1) {
		branch.AddNode(n.Name)
		return
	}
	child := branch.AddBranch(n.Name)
	for _, c := range n.Children {
		addNode(child, c, opts, depth+1)
	}
}

func countLabel(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
