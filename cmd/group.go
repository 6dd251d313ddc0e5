package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/groups"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/ui/render"
	"github.com/abhisek/prepbuddy/internal/ui/theme"
	"github.com/abhisek/prepbuddy/internal/user"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Study groups with a shared plan and leaderboard",
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List study groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			gs, err := s.ctrl.Groups().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(gs) == 0 {
				return s.print(gs, theme.Hint.Render("No study groups yet."))
			}
			var text string
			for _, g := range gs {
				text += fmt.Sprintf("%s  %s  %d members\n", theme.Title.Render(g.Name), theme.Subtitle.Render(g.ID), len(g.Members))
			}
			return s.print(gs, text[:len(text)-1])
		})
	},
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group with yourself as admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		topic, _ := cmd.Flags().GetString("topic")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		public, _ := cmd.Flags().GetBool("public")
		return withSession(cmd, func(s *session) error {
			ctx := cmd.Context()
			me, err := currentUser(ctx, s)
			if err != nil {
				return err
			}
			g, err := s.ctrl.Groups().Create(ctx, *me, groups.NewGroup{
				Name:        args[0],
				Description: description,
				Topic:       topic,
				Difficulty:  difficulty,
				IsPublic:    public,
			})
			if err != nil {
				return err
			}
			return s.print(g, render.Group(g))
		})
	},
}

var groupAddMemberCmd = &cobra.Command{
	Use:   "add-member <group-id> <email>",
	Short: "Invite a member by email",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			m, err := s.ctrl.Groups().AddMember(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return s.print(m, fmt.Sprintf("Added %s (%s)", m.Name, m.ID))
		})
	},
}

var groupAssignCmd = &cobra.Command{
	Use:   "assign <group-id> <plan-id>",
	Short: "Share one of your plans with the group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			ctx := cmd.Context()
			plan, err := s.ctrl.Plan(ctx, args[1])
			if err != nil {
				return err
			}
			g, err := s.ctrl.Groups().AssignPlan(ctx, args[0], plan)
			if err != nil {
				return err
			}
			return s.print(g, render.Group(g))
		})
	},
}

var groupTaskCmd = &cobra.Command{
	Use:   "task <group-id> <member-id> <day> <task>",
	Short: "Record a member's progress on the shared plan",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")
		day, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid day %q: %w", args[2], err)
		}
		task, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid task %q: %w", args[3], err)
		}
		return withSession(cmd, func(s *session) error {
			p, err := s.ctrl.Groups().SetMemberTaskCompletion(cmd.Context(), args[0], args[1], progress.TaskKey(day, task), !undo)
			if err != nil {
				return err
			}
			return s.print(p, fmt.Sprintf("%d/%d tasks  %s", p.CompletedTasks, p.TotalTasks, render.ProgressBar(p.Ratio(), render.BarWidth)))
		})
	},
}

var groupShowCmd = &cobra.Command{
	Use:   "show <group-id>",
	Short: "Show a group and its leaderboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			g, err := s.ctrl.Groups().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.print(g, render.Group(g))
		})
	},
}

var groupAttachCmd = &cobra.Command{
	Use:   "attach <group-id> <file>",
	Short: "Share a study file with the group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		name := filepath.Base(args[1])
		return withSession(cmd, func(s *session) error {
			ctx := cmd.Context()
			me, err := currentUser(ctx, s)
			if err != nil {
				return err
			}
			f, err := s.ctrl.Groups().UploadFile(ctx, args[0], *me, groups.Upload{
				Name:    name,
				Type:    mime.TypeByExtension(filepath.Ext(name)),
				Size:    int64(len(data)),
				Content: string(data),
			})
			if err != nil {
				return err
			}
			return s.print(f, fmt.Sprintf("Shared %s (%d bytes)", f.Name, f.Size))
		})
	},
}

func init() {
	groupCreateCmd.Flags().String("description", "", "Group description")
	groupCreateCmd.Flags().String("topic", "", "What the group studies")
	groupCreateCmd.Flags().String("difficulty", "intermediate", "beginner, intermediate or advanced")
	groupCreateCmd.Flags().Bool("public", false, "List the group publicly")
	groupTaskCmd.Flags().Bool("undo", false, "Mark the task as not done")

	groupCmd.AddCommand(groupListCmd, groupCreateCmd, groupAddMemberCmd, groupAssignCmd, groupTaskCmd, groupShowCmd, groupAttachCmd)
}

func currentUser(ctx context.Context, s *session) (*user.User, error) {
	u, err := s.ctrl.Users().Current(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: run `prepbuddy user signin <email>` first", user.ErrNotSignedIn)
	}
	return u, nil
}
