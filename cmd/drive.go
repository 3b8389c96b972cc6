package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var driveCmd = &cobra.Command{
	Use:   "drive <bill-id>",
	Short: "List the bill's cloud folder contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Drive.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if res.Status != "" {
			fmt.Println(res.Status)
		}
		if res.FolderURL != "" {
			fmt.Printf("Folder: %s\n", res.FolderURL)
		}
		for _, d := range res.Documents {
			fmt.Printf("  %-14s %-40s %s\n", d.Type, truncate(d.Title, 40), d.DownloadURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driveCmd)
}
