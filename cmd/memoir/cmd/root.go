// Package cmd provides the CLI commands for the memoir engine.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kestrelmd/memoir/internal/logging"
	"github.com/kestrelmd/memoir/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the memoir CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memoir",
		Short: "Local hybrid document search and tree-structured memory",
		Long: `memoir indexes Markdown collections on disk and serves hybrid
(BM25 + semantic) search over them, plus a tree-structured memory facade
for agent-style read/write/decay workflows.

Run 'memoir index' in a project directory, then 'memoir search <query>'.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("memoir version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.memoir/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newCollectionCmd())
	cmd.AddCommand(newMemCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
