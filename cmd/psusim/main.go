// psusim simulates a Linux-style power-supply pair (an AC adapter and a
// battery) for testing software that consumes power status, without real
// hardware.
//
// The simulator publishes every change over MQTT, journals it to SQLite,
// streams it over WebSocket and writes telemetry to InfluxDB, depending on
// which of those are enabled in the configuration. Test rigs drive it
// through the REST API, MQTT command topics or the interactive console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "psusim",
		Short:         "Simulated AC adapter and battery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PSUSIM_CONFIG"),
		"path to the YAML configuration file (defaults and environment only when empty)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulator until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Run the simulator with an interactive console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd.Context(), configPath)
		},
	}

	tokenCmd := newTokenCmd(&configPath)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "psusim %s (commit %s, built %s)\n", version, commit, date)
		},
	}

	rootCmd.AddCommand(serveCmd, consoleCmd, tokenCmd, versionCmd)
	return rootCmd
}
