package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the bill list from the master sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		bills, err := env.Manager.SyncBills(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Synced %d bills\n", len(bills))
		for _, b := range bills {
			fmt.Printf("  %-10s %-45s %-20s %s\n", b.ID, truncate(b.Title, 45), b.Committee, b.Status)
		}
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
