package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SBrookhart/side-quest-generator/internal/config"
	"github.com/SBrookhart/side-quest-generator/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sidequest",
	Short: "Daily side quest ideas for builders",
	Long: `sidequest turns what builders are talking about into a small daily batch of
side quest ideas, never repeating a title from an earlier day.

Run without a subcommand to browse today's quests.`,
	SilenceUsage: true,
	RunE:         runBrowse,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sidequest %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// loadConfig reads the config and installs the logger, returning a context
// that carries it.
func loadConfig(cmd *cobra.Command) (*config.Config, context.Context, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if _, ok := logging.ParseLevel(level); !ok {
		return nil, nil, fmt.Errorf("unknown log level %q", level)
	}
	logger := logging.New(level, cmd.ErrOrStderr())
	logging.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return cfg, logging.With(ctx, logger), nil
}
