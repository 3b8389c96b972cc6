package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Fetch the monitored news feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		items := env.Feeds.FetchAll(cmd.Context())
		fmt.Printf("%d items\n", len(items))
		for _, it := range items {
			fmt.Printf("  [%s] %s — %s\n", it.Source, truncate(it.Title, 60), it.Date)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedsCmd)
}
