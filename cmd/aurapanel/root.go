// Package main provides the CLI entrypoint for aurapanel.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aurapanel/aurapanel/internal/adapter/output"
	"github.com/aurapanel/aurapanel/internal/config"
	"github.com/aurapanel/aurapanel/internal/control"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.DaemonConfig
	globalOpts struct {
		verbose    bool
		configPath string
		format     string
		socket     string
		control    string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aurapanel",
	Short: "Control a running aurapaneld overlay daemon",
	Long: `aurapanel talks to a running aurapaneld instance.

It injects external events over the daemon's socket, queries monitors,
windows and popovers over the control channel, and manages the widget
key-value store.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadDaemonConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalOpts.socket == "" {
			globalOpts.socket = cfg.IPC.Socket
		}
		if globalOpts.control == "" {
			globalOpts.control = cfg.Control.Addr
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func formatter() output.Formatter {
	return output.NewFormatter(output.FormatType(globalOpts.format))
}

// dialControl connects to the daemon's control channel for one command.
func dialControl() (*control.Client, context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := control.Dial(ctx, globalOpts.control, nil, logger)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("is aurapaneld running? %w", err)
	}
	return client, ctx, cancel, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "", "Path to aurapaneld.toml")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.format, "format", "f", "table", "Output format: table, plain, json")
	rootCmd.PersistentFlags().StringVar(&globalOpts.socket, "socket", "", "Override the daemon event socket path")
	rootCmd.PersistentFlags().StringVar(&globalOpts.control, "control", "", "Override the daemon control address")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
