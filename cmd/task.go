package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepbuddy/internal/quiz"
	"github.com/abhisek/prepbuddy/internal/rewards"
	"github.com/abhisek/prepbuddy/internal/ui/render"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Mark plan tasks done or not done",
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <plan-id> <day> <task>",
	Short: "Complete a task (day and task are 0-based, as shown by plan show)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTask(cmd, args, true)
	},
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo <plan-id> <day> <task>",
	Short: "Mark a completed task as not done",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTask(cmd, args, false)
	},
}

func init() {
	taskCmd.AddCommand(taskDoneCmd, taskUndoCmd)
}

func setTask(cmd *cobra.Command, args []string, completed bool) error {
	day, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", args[1], err)
	}
	task, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid task %q: %w", args[2], err)
	}
	return withSession(cmd, func(s *session) error {
		out, err := s.ctrl.SetTaskCompletion(cmd.Context(), args[0], day, task, completed)
		if err != nil {
			return err
		}
		return s.print(out, withCelebration(render.Outcome(out), out.Celebrations))
	})
}

// withCelebration appends the card of the last celebration, which is the
// one left pending.
func withCelebration(text string, cs []rewards.Celebration) string {
	if len(cs) == 0 {
		return text
	}
	return text + "\n" + render.Celebration(cs[len(cs)-1])
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take plan quizzes",
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit <plan-id> <quiz-id> <answer>...",
	Short: "Submit answers for a quiz",
	Long: `Submit one answer per question, in order. Answers are option letters
(a, b, c, ...) or 0-based option numbers; "-" leaves a question unanswered.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := parseAnswers(args[2:])
		if err != nil {
			return err
		}
		return withSession(cmd, func(s *session) error {
			ctx := cmd.Context()
			q, err := s.ctrl.Quiz(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			result, out, err := s.ctrl.SubmitQuiz(ctx, args[0], args[1], answers)
			if err != nil {
				return err
			}
			text := render.QuizResult(q, result) + "\n\n" + render.Outcome(out)
			return s.print(map[string]any{"result": result, "outcome": out}, withCelebration(text, out.Celebrations))
		})
	},
}

func init() {
	quizCmd.AddCommand(quizSubmitCmd)
}

func parseAnswers(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		a = strings.ToLower(strings.TrimSpace(a))
		switch {
		case a == "-":
			out = append(out, quiz.Unanswered)
		case len(a) == 1 && a[0] >= 'a' && a[0] <= 'z':
			out = append(out, int(a[0]-'a'))
		default:
			n, err := strconv.Atoi(a)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid answer %q", a)
			}
			out = append(out, n)
		}
	}
	return out, nil
}
