package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vantage-os/vantage-cli/internal/model"
)

var (
	importTitle string
	importType  string
	importFile  string
)

var importCmd = &cobra.Command{
	Use:   "import <bill-id> [doc-id]",
	Short: "Import a document's text, or add pasted text with --file",
	Long:  "With a doc-id, fetches and extracts that document's text. With --file, registers the file's content as a manual document.",
	Args:  cobra.RangeArgs(1, 2),
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

		if importFile != "" {
			content, err := os.ReadFile(importFile)
			if err != nil {
				return err
			}
			doc := ws.AddManualDocument(importTitle, string(content), model.DocType(importType))
			fmt.Printf("Added %s (%s)\n", doc.Title, doc.ID)
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("doc-id or --file required")
		}
		if err := ws.ImportDocument(args[1]); err != nil {
			return err
		}
		fmt.Printf("Imported %s\n", args[1])
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importTitle, "title", "", "title for a manual document")
	importCmd.Flags().StringVar(&importType, "type", "", "document type for a manual document")
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a text file to register as a manual document")
	rootCmd.AddCommand(importCmd)
}
