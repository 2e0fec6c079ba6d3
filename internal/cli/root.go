// Package cli wires configuration, logging and the command tree for the
// rideinsights binary.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rideinsights-labs/rideinsights/internal/cli/commands"
	"github.com/rideinsights-labs/rideinsights/internal/cli/config"
	"github.com/spf13/cobra"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	BuildDate = ""
	GitCommit = ""
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "rideinsights",
		Short: "Ride bookings analytics pipeline",
		Long: `rideinsights loads a ride bookings workbook, cleans and enriches the
rows, and rebuilds an embedded SQLite database with ready-to-query
aggregate tables and a catalog of named analytics queries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			if used := config.FileUsed(); used != "" {
				logger.Debug("loaded config file", slog.String("path", used))
			}

			cmd.SetContext(commands.WithCommandContext(cmd.Context(), &commands.CommandContext{
				Cfg:    cfg,
				Logger: logger,
			}))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default rideinsights.yaml)")
	pf.String("source", config.DefaultSource, "Path to the bookings xlsx workbook")
	pf.String("sheet", config.DefaultSheet, "Worksheet to load")
	pf.String("database", config.DefaultDatabase, "Path to the SQLite database")
	pf.Int("max-rows", 0, "Maximum accepted input rows (0 for the built-in cap)")
	pf.BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
