package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/ui/theme"
)

var reminderCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Evening study reminder",
}

var reminderCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Print the reminder if one is due",
	Long:  "Prints the reminder between 18:00 and 23:00 when nothing was studied today and it was not dismissed today. Suitable for a shell prompt hook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			due, err := s.ctrl.ReminderDue(cmd.Context())
			if err != nil {
				return err
			}
			if !due {
				if s.json {
					return printJSON(cmd.OutOrStdout(), map[string]bool{"show": false})
				}
				return nil
			}
			return s.print(map[string]bool{"show": true},
				theme.Highlight.Render("Time to study!")+" "+
					theme.Body.Render("You haven't completed any tasks today. Keep your streak alive."))
		})
	},
}

var reminderDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Silence the reminder until tomorrow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return s.ctrl.DismissReminder(cmd.Context())
		})
	},
}

func init() {
	reminderCmd.AddCommand(reminderCheckCmd, reminderDismissCmd)
}
