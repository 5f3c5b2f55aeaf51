package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"skinvault/internal/app"
	"skinvault/internal/config"
	"skinvault/internal/logger"
	"skinvault/internal/repository"
)

// RootOptions holds global flags for all commands. Flags left unset keep the
// value loaded from the environment.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	StoreType   string
	StorePath   string
	SessionType string
	SnapshotDir string
	BridgeURL   string

	// Load overrides config.Load in tests.
	Load func() (*config.Config, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the worker.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Load: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skinvault-worker",
		Short: "Run inventory and price pipelines once",
		Long: `Runs the skinvault pipelines from the command line.

Each command runs once and exits. Inventory commands read the configured
session; price commands read the configured price source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.StoreType, "store", "", "store type (sqlite|postgres|mysql)")
	pf.StringVar(&opts.StorePath, "db", "", "path to SQLite database")
	pf.StringVar(&opts.SessionType, "session", "", "session type (http|file)")
	pf.StringVar(&opts.SnapshotDir, "snapshot-dir", "", "snapshot directory for the file session")
	pf.StringVar(&opts.BridgeURL, "bridge-url", "", "base URL of the inventory bridge")

	cmd.AddCommand(NewFetchInventoryCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPricesCommand(opts))
	cmd.AddCommand(NewBackfillCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// loadConfig loads the environment, applies global flags that were set, then the
// command's own tweaks.
func (o *RootOptions) loadConfig(cmd *cobra.Command, tweaks ...func(*config.Config)) (*config.Config, error) {
	cfg, err := o.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Type = o.StoreType
	}
	if flags.Changed("db") {
		cfg.Store.Path = o.StorePath
	}
	if flags.Changed("session") {
		cfg.Session.Type = o.SessionType
	}
	if flags.Changed("snapshot-dir") {
		cfg.Session.SnapshotDir = o.SnapshotDir
	}
	if flags.Changed("bridge-url") {
		cfg.Session.BridgeURL = o.BridgeURL
	}
	if o.Verbose {
		cfg.App.Debug = true
	}
	for _, tweak := range tweaks {
		tweak(cfg)
	}
	return cfg, cfg.Validate()
}

// newLogger writes logs to stderr so stdout carries only command output.
func (o *RootOptions) newLogger(cfg *config.Config, stderr io.Writer) *logrus.Logger {
	log := logger.New(cfg.App)
	log.SetOutput(stderr)
	return log
}

func (o *RootOptions) openApp(cmd *cobra.Command, tweaks ...func(*config.Config)) (*app.App, error) {
	cfg, err := o.loadConfig(cmd, tweaks...)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, o.newLogger(cfg, cmd.ErrOrStderr()))
}

func (o *RootOptions) openStore(cmd *cobra.Command) (*repository.SQLStore, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return repository.Open(cfg.Store, o.newLogger(cfg, cmd.ErrOrStderr()))
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
