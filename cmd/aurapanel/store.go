package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurapanel/aurapanel/internal/control"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the widget key-value store",
}

var storeSetCmd = &cobra.Command{
	Use:   "set <key> <json-value>",
	Short: "Store a JSON value under a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := json.RawMessage(args[1])
		if !json.Valid(raw) {
			// Bare words are stored as strings for convenience.
			encoded, err := json.Marshal(args[1])
			if err != nil {
				return err
			}
			raw = encoded
		}

		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		return client.Call(ctx, control.CmdStoreSet, control.StoreParams{Key: args[0], Value: raw}, nil)
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		var value json.RawMessage
		if err := client.Call(ctx, control.CmdStoreGet, control.StoreParams{Key: args[0]}, &value); err != nil {
			return err
		}
		if len(value) == 0 {
			return fmt.Errorf("key %q not found", args[0])
		}
		fmt.Println(string(value))
		return nil
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		return client.Call(ctx, control.CmdStoreDelete, control.StoreParams{Key: args[0]}, nil)
	},
}

var storeKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List stored keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ctx, cancel, err := dialControl()
		if err != nil {
			return err
		}
		defer cancel()
		defer client.Close()

		var keys []string
		if err := client.Call(ctx, control.CmdStoreKeys, nil, &keys); err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(os.Stdout, k)
		}
		return nil
	},
}

func init() {
	storeCmd.AddCommand(storeSetCmd)
	storeCmd.AddCommand(storeGetCmd)
	storeCmd.AddCommand(storeDeleteCmd)
	storeCmd.AddCommand(storeKeysCmd)
	rootCmd.AddCommand(storeCmd)
}
