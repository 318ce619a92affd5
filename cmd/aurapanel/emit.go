package main

import (
	"github.com/spf13/cobra"

	"github.com/aurapanel/aurapanel/internal/ipc"
	"github.com/aurapanel/aurapanel/internal/model"
)

// emitCmd injects an arbitrary external event into the running daemon.
var emitCmd = &cobra.Command{
	Use:   "emit <event> [args...]",
	Short: "Emit an external event to the running daemon",
	Long: `Emit sends an event over the daemon's socket; the daemon broadcasts it
verbatim to every subscribed child window.

  aurapanel emit workspace-changed
  aurapanel emit media-changed spotify playing`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ipc.Send(globalOpts.socket, model.ExternalEvent{
			Name: args[0],
			Args: args[1:],
		})
	},
}

// focusChangedCmd is the optimized workspace focus notification used by
// window-manager hooks.
var focusChangedCmd = &cobra.Command{
	Use:   "focus-changed <focused> [prev]",
	Short: "Notify the daemon of a workspace focus change",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ipc.Send(globalOpts.socket, model.ExternalEvent{
			Name: "focus-changed",
			Args: args,
		})
	},
}

func init() {
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(focusChangedCmd)
}
