package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all plans, progress, rewards and profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprint(cmd.OutOrStdout(), "This deletes every plan and all progress. Type 'reset' to continue: ")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(line) != "reset" {
				return fmt.Errorf("aborted")
			}
		}
		return withSession(cmd, func(s *session) error {
			ctx := cmd.Context()
			keys, err := s.kv.Keys(ctx, "")
			if err != nil {
				return fmt.Errorf("list keys: %w", err)
			}
			for _, k := range keys {
				if err := s.kv.Delete(ctx, k); err != nil {
					return fmt.Errorf("delete %s: %w", k, err)
				}
			}
			s.logger.Info("store reset", zap.Int("keys", len(keys)))
			printLine(cmd, fmt.Sprintf("Deleted %d keys.", len(keys)))
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
