package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/arbor/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// options holds the command line flags. Only flags the user set override the
// config file.
type options struct {
	configPath string
	seedPath   string
	sourceKind string
	dsn        string
	latency    time.Duration
	logFile    string
	logLevel   string
	watch      bool
	offline    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "arbor",
		Short: "Browse and edit a lazily loaded tree in the terminal",
		Long: `arbor shows a hierarchical tree whose branches load their children on
first expansion. Nodes can be added, renamed, deleted and moved.

Running without a subcommand launches the interactive TUI.

Examples:
  arbor                              # demo tree, simulated backend
  arbor --seed tree.json --watch     # reload when tree.json changes
  arbor --source sqlite --dsn t.db   # children from a SQLite table
  arbor outline --seed tree.json     # print the tree as markdown`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: nearest "+config.FileName+")")
	flags.StringVar(&opts.seedPath, "seed", "", "JSON file with the initial tree (default: built-in demo)")
	flags.StringVar(&opts.sourceKind, "source", "", "child source: mock, sqlite or static")
	flags.StringVar(&opts.dsn, "dsn", "", "SQLite database for --source sqlite")
	flags.DurationVar(&opts.latency, "latency", 0, "simulated fetch latency of the mock source")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.watch, "watch", false, "reload the tree when the seed file changes")
	flags.BoolVar(&opts.offline, "offline", false, "never fetch children; branches expand empty")

	root.AddCommand(newOutlineCmd(opts), newVersionCmd())
	return root
}

func newOutlineCmd(opts *options) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Print the initial tree as a markdown outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runOutline(cmd.Context(), cfg, title, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "outline heading (default: seed file name)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the arbor version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arbor %s\n", version)
		},
	}
}

// loadConfig reads the config file and applies the flags that were set
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadOrDiscover(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = absPath(opts.seedPath)
	}
	if flags.Changed("source") {
		cfg.Source.Kind = strings.ToLower(opts.sourceKind)
	}
	if flags.Changed("dsn") {
		cfg.Source.DSN = absPath(opts.dsn)
	}
	if flags.Changed("latency") {
		cfg.Source.Latency = opts.latency
	}
	if flags.Changed("log-file") {
		cfg.Log.Path = absPath(opts.logFile)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("watch") {
		cfg.Watch = opts.watch
	}
	if opts.offline {
		cfg.Source.Kind = config.SourceStatic
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// absPath anchors a flag path to the working directory so config
// resolution leaves it alone.
func absPath(p string) string {
	if p == "" || p == ":memory:" || strings.HasPrefix(p, "~") || strings.HasPrefix(p, "file:") {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
