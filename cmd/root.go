package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/paramsel/internal/config"
	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/internal/formatter"
	"github.com/oakwood-commons/paramsel/internal/limiter"
	"github.com/oakwood-commons/paramsel/pkg/core"
	"github.com/oakwood-commons/paramsel/pkg/logger"
	"github.com/oakwood-commons/paramsel/pkg/paramname"
	"github.com/oakwood-commons/paramsel/pkg/settings"
	"github.com/oakwood-commons/paramsel/pkg/tui"
)

var (
	interactive    bool
	renderSnapshot bool
	snapshotHeight int
	output         = formatter.FormatTree
	configOutput   string
	fetchAll       bool
	configFile     string
	debug          bool
	noColor        bool
	logFile        string
	outputWidth    int

	limitRecords  int
	offsetRecords int
	tailRecords   int

	// Directory overrides
	catalogPath  string
	directoryURL string
	pageSize     int
	filterExpr   string
	latency      time.Duration

	// Selector overrides
	noFields  bool
	protocols bool
	protocol  string
)

// rootCtx carries the logger and run settings once PersistentPreRunE ran.
var rootCtx = context.Background()

// runConfig is the merged configuration for the current invocation.
var runConfig config.Config

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [query]",
	Short: "Search the device directory and pick a device/property#field parameter",
	Long: `paramsel searches a device directory for devices whose name contains the
query and lists their properties and fields.

The query is a device name fragment, or a full parameter name such as
DEV.A/Acquisition#current. With -i an interactive selector opens and the
chosen parameter is printed on exit.`,
	Example:       "\n  paramsel --catalog devices.yaml BPM\n  paramsel --catalog devices.yaml -o list --all BPM\n  paramsel --url http://directory:8080/api -i\n",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadMergedConfig(resolveConfigPath(configFile))
		if err != nil {
			return usageError(err)
		}
		applyFlagOverrides(&cfg, cmd.Flags())
		if err := cfg.Validate(); err != nil {
			return usageError(err)
		}
		runConfig = cfg

		run := settings.NewCliParams()
		run.MinLogLevel = int8(cfg.Log.Level)
		if debug {
			run.MinLogLevel = -1
		}
		run.LogFile = logFile
		run.Interactive = interactive
		run.NoColor = cfg.UI.NoColor
		run.Selector = settings.SelectorSettings{
			EnableFields:     cfg.Selector.EnableFields,
			EnableProtocols:  cfg.Selector.EnableProtocols,
			NoProtocolOption: cfg.Selector.NoProtocolOption,
		}

		// The selector owns the terminal, so logs go to a file or nowhere.
		var sink io.Writer
		switch {
		case logFile != "":
			f, err := logger.OpenLogFile(logFile)
			if err != nil {
				return usageError(err)
			}
			sink = f
		case interactive:
			sink = io.Discard
		}
		lgr := logger.Setup(logger.Options{Level: run.MinLogLevel, Output: sink})
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		rootCtx = settings.IntoContext(logger.WithLogger(cmd.Context(), lgr), run)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLimitingFlags(); err != nil {
			return usageError(fmt.Errorf("record limiting error: %w", err))
		}
		if protocol != "" && !paramname.IsKnownProtocol(protocol) {
			return usageError(fmt.Errorf("unknown protocol %q (known: %s)", protocol, strings.Join(paramname.KnownProtocols, ", ")))
		}

		query := ""
		if len(args) > 0 {
			query = strings.TrimSpace(args[0])
		}
		if query == "" && !interactive {
			return cmd.Help()
		}

		source, err := buildSource(runConfig.Directory)
		if err != nil {
			if errors.Is(err, errNoDirectory) {
				return usageError(err)
			}
			return err
		}

		if interactive {
			return runInteractive(rootCtx, cmd.OutOrStdout(), source, query)
		}
		return runSearch(rootCtx, cmd.OutOrStdout(), cmd.ErrOrStderr(), source, query)
	},
}

// validateLimitingFlags checks that limiting flags are not in conflict and returns an error if they are.
func validateLimitingFlags() error {
	return limitConfig().Validate()
}

func limitConfig() limiter.Config {
	return limiter.Config{
		Limit:  limitRecords,
		Offset: offsetRecords,
		Tail:   tailRecords,
	}
}

// runSearch performs one search, optionally pulls every remaining page,
// and prints the results.
func runSearch(ctx context.Context, w, errW io.Writer, source directory.Source, query string) error {
	engine, err := core.New(source, core.WithFetchAll(fetchAll), core.WithLimit(limitConfig()))
	if err != nil {
		return err
	}
	res, err := engine.Search(ctx, query)
	if err != nil {
		return err
	}
	if res.Selected != "" {
		logger.FromContext(ctx).V(1).Info("query resolved", logger.QueryKey, query, "parameter", res.Selected)
	}

	p := ""
	if runConfig.Selector.EnableProtocols {
		p = strings.ToLower(protocol)
	}
	out, err := renderResults(engine, res, runConfig, p)
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)

	if res.More {
		fmt.Fprintln(errW, "more results available; use --all to fetch every page")
	}
	return nil
}

// selectorConfig builds the selector settings from the merged config.
func selectorConfig(query string) tui.Config {
	p := ""
	if runConfig.Selector.EnableProtocols {
		p = protocol
	}
	return tui.Config{
		Query:           query,
		Protocol:        p,
		EnableFields:    runConfig.Selector.EnableFields,
		EnableProtocols: runConfig.Selector.EnableProtocols,
		NoColor:         runConfig.UI.NoColor,
		ListHeight:      runConfig.UI.ListHeight,
		Width:           outputWidth,
		Height:          snapshotHeight,
	}
}

// runInteractive opens the selector and prints the accepted parameter.
// With --snapshot it prints the selector screen after the initial search
// instead of reading keys.
func runInteractive(ctx context.Context, w io.Writer, source directory.Source, query string) error {
	cfg := selectorConfig(query)
	if renderSnapshot {
		out, err := tui.RenderSnapshot(ctx, source, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
		return nil
	}

	opts, cleanup := getProgramOptions()
	defer cleanup()

	res, err := tui.Select(ctx, source, cfg, opts...)
	if err != nil {
		return err
	}
	if !res.Accepted {
		return errors.New("selection cancelled")
	}
	if res.Value == "" {
		return errors.New("no complete parameter selected")
	}
	fmt.Fprintln(w, res.Value)
	return nil
}

func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print paramsel version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return nil
	},
}

// configCmd groups configuration-related subcommands similar to gh-style CLIs.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage paramsel configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when invoked without a subcommand (gh-style UX)
		return cmd.Help()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show merged configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := marshalConfig(runConfig, configOutput)
		if err != nil {
			return usageError(err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open the interactive selector")
	rootCmd.Flags().BoolVar(&renderSnapshot, "snapshot", false, "with -i, print the selector screen after the initial search and exit")
	rootCmd.Flags().IntVar(&snapshotHeight, "height", 0, "selector height in lines (0 = terminal height)")
	rootCmd.Flags().VarP(&output, "output", "o", "output format: tree|list|table|yaml|json")
	rootCmd.Flags().BoolVar(&fetchAll, "all", false, "fetch every result page instead of only the first")
	rootCmd.Flags().IntVar(&limitRecords, "limit", 0, "Limit total number of devices displayed")
	rootCmd.Flags().IntVar(&offsetRecords, "offset", 0, "Skip the first N devices")
	rootCmd.Flags().IntVar(&tailRecords, "tail", 0, "Show the last N devices (mutually exclusive with --limit; ignores --offset)")
	rootCmd.Flags().IntVar(&outputWidth, "width", 0, "Output width in columns for table output and the selector (0 = terminal width)")
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (yaml, json or toml) to search")
	rootCmd.Flags().StringVar(&directoryURL, "url", "", "base url of an HTTP directory service")
	rootCmd.Flags().IntVar(&pageSize, "page-size", 0, "devices per result page (0 = one page)")
	rootCmd.Flags().StringVar(&filterExpr, "filter", "", "CEL predicate over name and device, e.g. 'device.class == \"BPM\"'")
	rootCmd.Flags().DurationVar(&latency, "latency", 0, "artificial delay before each directory call")
	rootCmd.Flags().BoolVar(&noFields, "no-fields", false, "select device/property only")
	rootCmd.Flags().BoolVar(&protocols, "protocols", false, "let the selector prefix a protocol")
	rootCmd.Flags().StringVar(&protocol, "protocol", "", "protocol to prefix (requires --protocols): "+strings.Join(paramname.KnownProtocols, "|"))
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "path to a YAML config file")
	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	configCmd.PersistentFlags().StringVarP(&configOutput, "output", "o", "yaml", "output format: yaml|json")
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
