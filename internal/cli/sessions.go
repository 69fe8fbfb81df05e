package cli

import (
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the bot's trading sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Sessions(cmd.Context())
	},
}
