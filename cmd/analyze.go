package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run committee-prep analysis over a document's text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		analysis, err := env.Gateway.AnalyzeDocument(cmd.Context(), string(content))
		if err != nil {
			return err
		}

		fmt.Println(analysis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
