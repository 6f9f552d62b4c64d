// Package cmd provides the CLI commands for logjam.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/weswalla/logjam/internal/config"
	"github.com/weswalla/logjam/internal/logging"
	"github.com/weswalla/logjam/pkg/version"
)

// Debug logging flag and the config loaded for the current invocation.
var (
	debugMode      bool
	configRoot     string
	loggingCleanup func()
	cfg            *config.Config
)

// NewRootCmd creates the root command for the logjam CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logjam",
		Short: "Local-first outliner search engine",
		Long: `logjam indexes a directory of markdown pages into a relational
store and a semantic vector index, and serves keyword, semantic, and
link-graph search over them.

Run 'logjam import <root>' to build the initial index, then
'logjam search <query>' or 'logjam sync <root> --watch' to keep it
current.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("logjam version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configRoot, "root", ".", "Directory to load .logjam.yaml from")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.logjam/logs/")

	cmd.PersistentPreRunE = setupConfigAndLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newLinksCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupConfigAndLogging loads configuration and starts debug logging if
// requested, once per invocation (spec's CLI wiring: config.Load called
// once in PersistentPreRunE).
func setupConfigAndLogging(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configRoot)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = loaded

	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	}

	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
