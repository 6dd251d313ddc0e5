package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/app"
	"github.com/abhisek/prepbuddy/internal/plangen"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/ui/render"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create, generate and browse study plans",
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a plan from flags or a JSON draft",
	Long: `Create a study plan.

Days are given as --day "Title|task one|task two", repeated per day.
Alternatively --from reads a JSON draft with title, schedule and so on.`,
	Example: `  prepbuddy plan create --title "Graphs" --day "BFS|read notes|solve 3 problems" --day "DFS|read notes"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := draftFromFlags(cmd)
		if err != nil {
			return err
		}
		return withSession(cmd, func(s *session) error {
			plan, out, err := s.ctrl.CreatePlan(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return s.print(map[string]any{"plan": plan, "outcome": out},
				render.PlanList([]progress.StudyPlan{plan})+"\n"+render.Outcome(out))
		})
	},
}

var planGenerateCmd = &cobra.Command{
	Use:     "generate",
	Short:   "Draft a plan with the configured LLM",
	Example: `  prepbuddy plan generate --topic "Dynamic programming" --days 7 --material notes.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		days, _ := cmd.Flags().GetInt("days")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		hours, _ := cmd.Flags().GetFloat64("hours")
		goals, _ := cmd.Flags().GetStringArray("goal")
		paths, _ := cmd.Flags().GetStringArray("material")

		req := plangen.Request{
			Topic:       topic,
			Difficulty:  difficulty,
			Days:        days,
			HoursPerDay: hours,
			Goals:       goals,
		}
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read material: %w", err)
			}
			req.Material = append(req.Material, plangen.Material{Name: filepath.Base(p), Content: string(data)})
		}

		return withSession(cmd, func(s *session) error {
			plan, out, err := s.ctrl.GeneratePlan(cmd.Context(), req)
			if errors.Is(err, app.ErrNoGenerator) {
				warnf("Set llm.provider and an API key (or ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY) to enable generation.")
			}
			if err != nil {
				return err
			}
			return s.print(map[string]any{"plan": plan, "outcome": out},
				render.Plan(plan, progress.NewCompletedSet(), nil)+"\n\n"+render.Outcome(out))
		})
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List study plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			plans, err := s.ctrl.Plans(cmd.Context())
			if err != nil {
				return err
			}
			return s.print(plans, render.PlanList(plans))
		})
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan's schedule and progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			ctx := cmd.Context()
			plan, err := s.ctrl.Plan(ctx, args[0])
			if err != nil {
				return err
			}
			done, err := s.ctrl.CompletedSet(ctx, plan.ID)
			if err != nil {
				return err
			}
			results, err := s.ctrl.QuizResults(ctx, plan.ID)
			if err != nil {
				return err
			}
			return s.print(plan, render.Plan(plan, done, results))
		})
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan and its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := s.ctrl.DeletePlan(cmd.Context(), args[0]); err != nil {
				return err
			}
			return s.print(map[string]string{"deleted": args[0]}, "Deleted plan "+args[0])
		})
	},
}

var planAttachCmd = &cobra.Command{
	Use:   "attach <plan-id> <file>",
	Short: "Attach a text file to a plan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		return withSession(cmd, func(s *session) error {
			f, err := s.ctrl.AttachFile(cmd.Context(), args[0], filepath.Base(args[1]), string(data))
			if err != nil {
				return err
			}
			return s.print(f, fmt.Sprintf("Attached %s (%d bytes)", f.Name, len(f.Content)))
		})
	},
}

func init() {
	planCreateCmd.Flags().String("title", "", "Plan title")
	planCreateCmd.Flags().String("description", "", "Plan description")
	planCreateCmd.Flags().String("difficulty", "intermediate", "beginner, intermediate or advanced")
	planCreateCmd.Flags().StringArray("topic", nil, "Topic covered (repeatable)")
	planCreateCmd.Flags().StringArray("day", nil, `Day as "Title|task|task" (repeatable)`)
	planCreateCmd.Flags().String("from", "", "Read the draft from a JSON file")

	planGenerateCmd.Flags().String("topic", "", "Subject to study")
	planGenerateCmd.Flags().Int("days", 7, "Number of days")
	planGenerateCmd.Flags().String("difficulty", "intermediate", "beginner, intermediate or advanced")
	planGenerateCmd.Flags().Float64("hours", 0, "Study hours per day")
	planGenerateCmd.Flags().StringArray("goal", nil, "Learning goal (repeatable)")
	planGenerateCmd.Flags().StringArray("material", nil, "Text file to base the plan on (repeatable)")
	_ = planGenerateCmd.MarkFlagRequired("topic")

	planCmd.AddCommand(planCreateCmd, planGenerateCmd, planListCmd, planShowCmd, planDeleteCmd, planAttachCmd)
}

func draftFromFlags(cmd *cobra.Command) (progress.Draft, error) {
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		data, err := os.ReadFile(from)
		if err != nil {
			return progress.Draft{}, fmt.Errorf("read draft: %w", err)
		}
		var d progress.StudyPlan
		if err := json.Unmarshal(data, &d); err != nil {
			return progress.Draft{}, fmt.Errorf("decode draft: %w", err)
		}
		return progress.Draft{
			Title:       d.Title,
			Description: d.Description,
			Duration:    d.Duration,
			Difficulty:  d.Difficulty,
			Topics:      d.Topics,
			Schedule:    d.Schedule,
			Files:       d.Files,
		}, nil
	}

	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	topics, _ := cmd.Flags().GetStringArray("topic")
	days, _ := cmd.Flags().GetStringArray("day")

	schedule, err := parseDays(days)
	if err != nil {
		return progress.Draft{}, err
	}
	return progress.Draft{
		Title:       title,
		Description: description,
		Duration:    fmt.Sprintf("%d days", len(schedule)),
		Difficulty:  difficulty,
		Topics:      topics,
		Schedule:    schedule,
	}, nil
}

// parseDays turns "Title|task|task" specs into schedule days numbered
// from 1.
func parseDays(specs []string) ([]progress.Day, error) {
	out := make([]progress.Day, 0, len(specs))
	for i, spec := range specs {
		parts := strings.Split(spec, "|")
		day := progress.Day{Day: i + 1, Title: strings.TrimSpace(parts[0])}
		for _, t := range parts[1:] {
			if t = strings.TrimSpace(t); t != "" {
				day.Tasks = append(day.Tasks, t)
			}
		}
		if day.Title == "" && len(day.Tasks) == 0 {
			return nil, fmt.Errorf("day %d: empty day spec %q", i+1, spec)
		}
		out = append(out, day)
	}
	return out, nil
}
