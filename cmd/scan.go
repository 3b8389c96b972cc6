package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <bill-id>",
	Short: "Discover documents for a bill across all sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		ws, err := env.Manager.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer ws.Close()

		inserted, err := ws.Scan()
		if err != nil {
			return err
		}

		bill := ws.Bill()
		fmt.Printf("Found %d new documents (%d total)\n", inserted, len(bill.Documents))
		for _, d := range bill.Documents {
			mark := " "
			if d.Imported {
				mark = "*"
			}
			fmt.Printf("  [%s] %-14s %-40s %s\n", mark, d.Type, truncate(d.Title, 40), d.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
