package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aurapanel/aurapanel/internal/control"
	"github.com/aurapanel/aurapanel/internal/model"
)

// monitorsCmd lists the daemon's current display snapshot.
var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List the displays the daemon sees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		var monitors []model.Monitor
		if err := client.Call(ctx, control.CmdGetMonitors, nil, &monitors); err != nil {
			return err
		}
		return formatter().FormatMonitors(os.Stdout, monitors)
	},
}

// windowsCmd lists live window records.
var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List live windows and their rectangles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		var records []model.WindowRecord
		if err := client.Call(ctx, control.CmdGetWindows, nil, &records); err != nil {
			return err
		}
		return formatter().FormatWindows(os.Stdout, records)
	},
}

// popoversCmd lists open popovers; subcommands close them.
var popoversCmd = &cobra.Command{
	Use:   "popovers",
	Short: "List open popovers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		var ids []string
		if err := client.Call(ctx, control.CmdGetOpenPopovers, nil, &ids); err != nil {
			return err
		}
		return formatter().FormatPopovers(os.Stdout, ids)
	},
}

var popoverCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close one popover",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		return client.Call(ctx, control.CmdClosePopover, control.PopoverIDParams{ID: args[0]}, nil)
	},
}

var popoverCloseAllCmd = &cobra.Command{
	Use:   "close-all",
	Short: "Close every open popover",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		return client.Call(ctx, control.CmdCloseAllPopovers, nil, nil)
	},
}

func init() {
	popoversCmd.AddCommand(popoverCloseCmd)
	popoversCmd.AddCommand(popoverCloseAllCmd)
	rootCmd.AddCommand(monitorsCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(popoversCmd)
}
