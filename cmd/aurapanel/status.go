package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// statusCmd reports whether the daemon is reachable.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon reachability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(globalOpts.socket)
		if err != nil {
			fmt.Println("aurapaneld: not running (no event socket)")
			return nil
		}
		fmt.Printf("event socket: %s (created %s)\n",
			globalOpts.socket, humanize.Time(info.ModTime()))

		httpClient := &http.Client{Timeout: 3 * time.Second}
		resp, err := httpClient.Get("http://" + globalOpts.control + "/healthz")
		if err != nil {
			fmt.Printf("control channel: unreachable at %s (%v)\n", globalOpts.control, err)
			return nil
		}
		defer resp.Body.Close()
		fmt.Printf("control channel: %s (%s)\n", globalOpts.control, resp.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
