package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/ui/render"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show streak, XP, level and achievements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			data, err := s.ctrl.Incentives(cmd.Context())
			if err != nil {
				return err
			}
			return s.print(data, render.Incentives(data))
		})
	},
}
