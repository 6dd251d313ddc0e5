package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/ui/render"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the local learner profile",
}

var userSignInCmd = &cobra.Command{
	Use:   "signin <email>",
	Short: "Sign in, creating the profile if it does not exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			u, err := s.ctrl.Users().SignIn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := s.ctrl.SyncStats(cmd.Context()); err != nil {
				return err
			}
			return s.print(u, "Signed in as "+u.Name)
		})
	},
}

var userSignUpCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Register a new profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		return withSession(cmd, func(s *session) error {
			u, err := s.ctrl.Users().SignUp(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			return s.print(u, "Welcome, "+u.Name)
		})
	},
}

var userSignOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return s.ctrl.Users().SignOut(cmd.Context())
		})
	},
}

var userWhoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			u, err := s.ctrl.Users().Current(cmd.Context())
			if err != nil {
				return err
			}
			return s.print(u, render.User(u))
		})
	},
}

func init() {
	userSignUpCmd.Flags().String("name", "", "Display name (defaults to the email's local part)")
	userCmd.AddCommand(userSignInCmd, userSignUpCmd, userSignOutCmd, userWhoAmICmd)
}
