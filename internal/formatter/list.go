package formatter

import (
	"strings"

	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/pkg/paramname"
)

// FormatAsList prints one parameter name per line: device/property#field,
// or device/property for properties without fields. Devices without
// properties do not name a parameter and are skipped.
func FormatAsList(batch directory.Batch, opts Options) string {
	var b strings.Builder
	for _, dev := range batch {
		for _, prop := range dev.Children {
			name := paramname.New(dev.Name, prop.Name).WithProtocol(opts.Protocol)
			if opts.NoFields || prop.Leaf() {
				b.WriteString(name.String())
				b.WriteByte('\n')
				continue
			}
			for _, f := range prop.Children {
				name.Field = f.Name
				b.WriteString(name.String())
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}
