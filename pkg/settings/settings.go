// Package settings provides build metadata, per-run options, and context
// helpers shared by the paramsel CLI and its library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "paramsel"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// SelectorSettings controls which parts of a parameter name the selector
// lets the user pick.
type SelectorSettings struct {
	EnableFields     bool
	EnableProtocols  bool
	NoProtocolOption string
}

// Run holds configuration settings for a single execution of the application.
type Run struct {
	MinLogLevel int8
	LogFile     string
	Interactive bool
	NoColor     bool
	ExitOnError bool
	Selector    SelectorSettings
}

// NewCliParams returns the defaults used by the command line entry point:
// info logging to stderr, fields enabled, protocols disabled.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Interactive: false,
		NoColor:     false,
		ExitOnError: true,
		Selector: SelectorSettings{
			EnableFields:     true,
			EnableProtocols:  false,
			NoProtocolOption: DefaultNoProtocolOption,
		},
	}
}

// DefaultNoProtocolOption is the label shown for "no protocol" in the
// protocol chooser.
const DefaultNoProtocolOption = "Omit protocol"
