package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/ui/render"
	"github.com/abhisek/prepbuddy/internal/ui/theme"
)

var celebrationCmd = &cobra.Command{
	Use:   "celebration",
	Short: "Show or acknowledge the pending celebration",
}

var celebrationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the pending celebration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			c, ok := s.ctrl.Celebration()
			if !ok {
				return s.print(nil, theme.Hint.Render("Nothing to celebrate yet."))
			}
			return s.print(c, render.Celebration(c))
		})
	},
}

var celebrationAckCmd = &cobra.Command{
	Use:   "ack",
	Short: "Dismiss the pending celebration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return s.ctrl.AcknowledgeCelebration(cmd.Context())
		})
	},
}

func init() {
	celebrationCmd.AddCommand(celebrationShowCmd, celebrationAckCmd)
}
