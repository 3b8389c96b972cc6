package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vantage-os/vantage-cli/internal/assistant"
)

var (
	askRole   string
	askSelect []string
)

var askCmd = &cobra.Command{
	Use:   "ask <bill-id> <question...>",
	Short: "Ask the assistant about a bill",
	Args:  cobra.MinimumNArgs(2),
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

		for _, id := range askSelect {
			ws.ToggleSelect(id)
		}

		question := strings.Join(args[1:], " ")
		answer, err := ws.Ask(question, assistant.Role(askRole))
		if err != nil {
			return err
		}

		fmt.Println(answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askRole, "role", "general", "assistant role: general, political, policy, writer")
	askCmd.Flags().StringSliceVar(&askSelect, "select", nil, "document ids to include as context")
	rootCmd.AddCommand(askCmd)
}
