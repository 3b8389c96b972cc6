package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Show upcoming committee meetings for tracked committees",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		meetings, err := env.Agenda.Upcoming(cmd.Context())
		if err != nil {
			return err
		}

		if len(meetings) == 0 {
			fmt.Println("No meetings for tracked committees in the window.")
			return nil
		}
		for _, m := range meetings {
			fmt.Printf("%s  %s (%s)\n", m.Date.Format("Mon Jan 2 15:04"), m.Committee, m.Agency)
			for _, it := range m.Items {
				fmt.Printf("    %-10s %s\n", it.BillID, it.Description)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agendaCmd)
}
