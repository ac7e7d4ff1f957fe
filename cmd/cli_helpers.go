package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/oakwood-commons/paramsel/internal/config"
	"github.com/oakwood-commons/paramsel/internal/directory"
)

// errNoDirectory is returned when neither a catalog nor a url is configured.
var errNoDirectory = errors.New("no directory configured: use --catalog or --url (or directory.catalog / directory.url in the config file)")

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// usageError marks err as a flag or argument problem (exit code 2).
func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// applyFlagOverrides copies explicitly set flags over the merged config.
func applyFlagOverrides(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("catalog") {
		cfg.Directory.Catalog = catalogPath
		if !flags.Changed("url") {
			cfg.Directory.URL = ""
		}
	}
	if flags.Changed("url") {
		cfg.Directory.URL = directoryURL
	}
	if flags.Changed("page-size") {
		cfg.Directory.PageSize = pageSize
	}
	if flags.Changed("filter") {
		cfg.Directory.Filter = filterExpr
	}
	if flags.Changed("latency") {
		cfg.Directory.Latency = latency.String()
	}
	if flags.Changed("no-fields") {
		cfg.Selector.EnableFields = !noFields
	}
	if flags.Changed("protocols") {
		cfg.Selector.EnableProtocols = protocols
	}
	if flags.Changed("no-color") {
		cfg.UI.NoColor = noColor
	}
}

// buildSource creates the directory source described by cfg. A url takes
// precedence over a catalog file.
func buildSource(cfg config.DirectoryConfig) (directory.Source, error) {
	opts := directory.Options{PageSize: cfg.PageSize, Filter: cfg.Filter}

	var src directory.Source
	switch {
	case cfg.URL != "":
		timeout, err := cfg.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		client, err := directory.NewClient(cfg.URL, &http.Client{Timeout: timeout}, opts)
		if err != nil {
			return nil, err
		}
		src = client
	case cfg.Catalog != "":
		cat, err := directory.LoadCatalog(cfg.Catalog, opts)
		if err != nil {
			return nil, err
		}
		src = cat
	default:
		return nil, errNoDirectory
	}

	delay, err := cfg.LatencyDuration()
	if err != nil {
		return nil, err
	}
	if delay > 0 {
		src = directory.Delayed{Source: src, Latency: delay}
	}
	return src, nil
}

var (
	stdinIsPiped     = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	openTerminalIOFn = openTerminalIO
	termGetSize      = term.GetSize
	newResizeTicker  = func(d time.Duration) resizeTicker { return realResizeTicker{Ticker: time.NewTicker(d)} }
	sendWindowSize   = func(p *tea.Program, msg tea.WindowSizeMsg) { p.Send(msg) }
)

type resizeTicker interface {
	C() <-chan time.Time
	Stop()
}

type realResizeTicker struct {
	*time.Ticker
}

func (t realResizeTicker) C() <-chan time.Time { return t.Ticker.C }

// getProgramOptions handles piped stdin by reopening the terminal for interactive input/output.
// This allows Bubble Tea to work properly with piped data while still receiving keyboard input
// and resize events on platforms like Windows.
// Returns tea.ProgramOption values (plus a cleanup) that should be passed to tea.NewProgram.
func getProgramOptions() ([]tea.ProgramOption, func()) {
	cleanup := func() {}
	if !stdinIsPiped() {
		return nil, cleanup
	}

	ttyIn, ttyOut, err := openTerminalIOFn()
	if err != nil {
		// /dev/tty not available (e.g., in some CI environments)
		return nil, cleanup
	}
	cleanup = func() {
		_ = ttyIn.Close()
		if ttyOut != nil && ttyOut != ttyIn {
			_ = ttyOut.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	opts := []tea.ProgramOption{tea.WithInput(ttyIn)}
	if ttyOut != nil {
		opts = append(opts, tea.WithOutput(ttyOut), withTTYResizeWatcher(ctx, ttyOut))
	}

	return opts, func() {
		cancel()
		cleanup()
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)

	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}

	if out == "" || out == in {
		return input, input, nil
	}

	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		_ = input.Close()
		return nil, nil, fmt.Errorf("open %s: %w", out, err)
	}

	return input, output, nil
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}

	return "/dev/tty", "/dev/tty"
}

// withTTYResizeWatcher polls terminal size and sends resize messages when signals are unreliable
// (e.g., piped stdin on Windows). It stops when the context is canceled.
func withTTYResizeWatcher(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		if ctx == nil || out == nil {
			return
		}

		go func() {
			t := newResizeTicker(250 * time.Millisecond)
			defer t.Stop()

			lastW, lastH := 0, 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C():
					w, h, err := termGetSize(int(out.Fd()))
					if err != nil {
						continue
					}
					if w == lastW && h == lastH {
						continue
					}
					lastW, lastH = w, h
					sendWindowSize(p, tea.WindowSizeMsg{Width: w, Height: h})
				}
			}
		}()
	}
}
