package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/ui/render"
)

var rootCmd = &cobra.Command{
	Use:          "prepbuddy",
	Short:        "Study plans with streaks, XP and quizzes",
	Long:         "PrepBuddy tracks study plans day by day, rewards progress with XP, streaks and achievements, and drafts new plans with an LLM.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			sum, err := s.ctrl.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return s.print(sum, render.Dashboard(sum))
		})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a prepbuddy.yaml config file")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PREPBUDDY_DB env var)")
	rootCmd.PersistentFlags().Bool("json", false, "Print machine-readable JSON instead of styled text")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(celebrationCmd)
	rootCmd.AddCommand(reminderCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// stdout returns a writer that downsamples colors to what the terminal
// supports and strips them when output is piped.
func stdout(cmd *cobra.Command) io.Writer {
	return colorprofile.NewWriter(cmd.OutOrStdout(), os.Environ())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLine(cmd *cobra.Command, s string) {
	fmt.Fprintln(stdout(cmd), s)
}
