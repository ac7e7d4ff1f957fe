package cmd

import (
	"github.com/oakwood-commons/paramsel/internal/config"
	"github.com/oakwood-commons/paramsel/internal/formatter"
	"github.com/oakwood-commons/paramsel/pkg/core"
)

// renderResults renders res in the selected output format. The engine
// applies the record-limiting flags.
func renderResults(engine *core.Engine, res core.Result, cfg config.Config, protocol string) (string, error) {
	return engine.Render(res, output, formatter.Options{
		NoColor:  cfg.UI.NoColor,
		NoFields: !cfg.Selector.EnableFields,
		Width:    outputWidth,
		Protocol: protocol,
	})
}
