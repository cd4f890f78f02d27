package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect AI generation settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the live AI settings row",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		settings, err := st.GetSettings(cmd.Context())
		if err != nil {
			return err
		}
		if settings == nil {
			fmt.Println("no settings row found; AI generation is disabled")
			return nil
		}

		out, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	rootCmd.AddCommand(settingsCmd)
}
