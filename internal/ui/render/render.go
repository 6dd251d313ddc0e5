// Package render formats prepbuddy state for the terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepbuddy/internal/app"
	"github.com/abhisek/prepbuddy/internal/groups"
	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/quiz"
	"github.com/abhisek/prepbuddy/internal/rewards"
	"github.com/abhisek/prepbuddy/internal/ui/theme"
	"github.com/abhisek/prepbuddy/internal/user"
)

// BarWidth is the default progress bar width in cells.
const BarWidth = 24

// ProgressBar draws ratio as a filled bar followed by the percentage.
func ProgressBar(ratio float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(float64(width) * ratio)
	filled = max(0, min(filled, width))

	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", width-filled)) +
		theme.Subtitle.Render(fmt.Sprintf("  %d%%", int(ratio*100)))
}

func field(label, value string) string {
	return theme.Label.Render(label) + theme.Body.Render(value)
}

// PlanList renders one line per plan.
func PlanList(plans []progress.StudyPlan) string {
	if len(plans) == 0 {
		return theme.Hint.Render("No study plans yet. Create one with `prepbuddy plan create`.")
	}
	lines := make([]string, 0, len(plans))
	for _, p := range plans {
		status := theme.Pending.Render("•")
		if p.Progress.IsComplete() {
			status = theme.Done.Render("✓")
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s  %s",
			status,
			theme.Title.Render(p.Title),
			theme.Subtitle.Render(p.ID),
			ProgressBar(p.Progress.Ratio(), BarWidth/2)))
	}
	return strings.Join(lines, "\n")
}

// Plan renders a plan's schedule with per-task check marks.
func Plan(p progress.StudyPlan, done progress.CompletedSet, results map[string]quiz.Result) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(p.Title) + "\n")
	if p.Description != "" {
		b.WriteString(theme.Subtitle.Render(p.Description) + "\n")
	}
	b.WriteString(field("ID", p.ID) + "\n")
	if p.Difficulty != "" {
		b.WriteString(field("Difficulty", p.Difficulty) + "\n")
	}
	if p.Duration != "" {
		b.WriteString(field("Duration", p.Duration) + "\n")
	}
	if len(p.Topics) > 0 {
		b.WriteString(field("Topics", strings.Join(p.Topics, ", ")) + "\n")
	}
	b.WriteString(field("Progress", fmt.Sprintf("%d/%d tasks, %d/%d days",
		p.Progress.CompletedTasks, p.Progress.TotalTasks,
		p.Progress.CompletedDays, p.Progress.TotalDays)) + "\n")
	b.WriteString(ProgressBar(p.Progress.Ratio(), BarWidth) + "\n")

	for d, day := range p.Schedule {
		head := fmt.Sprintf("Day %d", day.Day)
		if day.Title != "" {
			head += ": " + day.Title
		}
		if day.EstimatedTime != "" {
			head += theme.Subtitle.Render(" (" + day.EstimatedTime + ")")
		}
		if day.Completed {
			head = theme.Done.Render("✓ ") + head
		}
		b.WriteString("\n" + theme.Body.Bold(true).Render(head) + "\n")

		for t, task := range day.Tasks {
			mark := "[ ]"
			style := theme.Pending
			if done.Has(progress.TaskKey(d, t)) {
				mark, style = "[x]", theme.Done
			}
			fmt.Fprintf(&b, "  %s %s %s\n", style.Render(mark), theme.Subtitle.Render(strconv.Itoa(t)), task)
		}
		if day.Quiz != nil {
			line := fmt.Sprintf("  quiz %s, %d questions", day.Quiz.ID, len(day.Quiz.Questions))
			if r, ok := results[day.Quiz.ID]; ok {
				line += ", " + score(r)
			}
			b.WriteString(theme.Hint.Render(line) + "\n")
		}
	}
	if len(p.Files) > 0 {
		b.WriteString("\n" + theme.Subtitle.Render("Files") + "\n")
		for _, f := range p.Files {
			fmt.Fprintf(&b, "  %s (%d bytes)\n", f.Name, len(f.Content))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func score(r quiz.Result) string {
	s := fmt.Sprintf("%d%%", r.Score)
	if r.Passed {
		return theme.Done.Render("passed " + s)
	}
	return theme.Failed.Render("failed " + s)
}

// Incentives renders the streak, level and achievement snapshot.
func Incentives(d incentives.Data) string {
	lines := []string{
		field("Streak", theme.Highlight.Render(fmt.Sprintf("%d days", d.CurrentStreak))),
		field("Longest streak", fmt.Sprintf("%d days", d.LongestStreak)),
		field("Level", theme.Badge.Render("Lv "+strconv.Itoa(d.Level))),
		field("XP", fmt.Sprintf("%d (%d/%d to next level)",
			d.TotalXP, incentives.XPIntoLevel(d.TotalXP), incentives.XPPerLevel)),
		ProgressBar(float64(incentives.XPIntoLevel(d.TotalXP))/incentives.XPPerLevel, BarWidth),
		field("Tasks done", strconv.Itoa(d.CompletedTasks)),
		field("Plans done", strconv.Itoa(d.CompletedPlans)),
	}
	studied := theme.Failed.Render("not yet")
	if d.HasStudiedToday {
		studied = theme.Done.Render("yes")
	}
	lines = append(lines, field("Studied today", studied))
	if d.LastStudyDate != nil {
		lines = append(lines, field("Last study", d.LastStudyDate.Format("Mon Jan 2 2006")))
	}
	if len(d.Achievements) > 0 {
		names := make([]string, 0, len(d.Achievements))
		for _, id := range d.Achievements {
			if a, ok := incentives.Lookup(id); ok {
				names = append(names, a.Title)
			} else {
				names = append(names, id)
			}
		}
		lines = append(lines, field("Achievements", strings.Join(names, ", ")))
	}
	return strings.Join(lines, "\n")
}

// Celebration renders a celebration card.
func Celebration(c rewards.Celebration) string {
	icon := map[rewards.Kind]string{
		rewards.KindTask:        "✓",
		rewards.KindDay:         "★",
		rewards.KindPlan:        "🏆",
		rewards.KindStreak:      "🔥",
		rewards.KindAchievement: "🎉",
	}[c.Kind]
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.Highlight.Render(strings.TrimSpace(icon+" "+c.Title)),
		theme.Body.Render(c.Message),
	)
	return theme.CelebrationCard.Render(body)
}

// Outcome summarizes what a mutation earned.
func Outcome(o app.Outcome) string {
	if !o.Changed {
		return theme.Hint.Render("Nothing changed.")
	}
	var lines []string
	for _, a := range o.Awards {
		line := theme.Done.Render(fmt.Sprintf("+%d XP", a.Amount)) + " " + a.Reason
		if a.LeveledUp {
			line += " " + theme.Badge.Render("Level "+strconv.Itoa(a.Level))
		}
		lines = append(lines, line)
	}
	for _, id := range o.Achievements {
		if a, ok := incentives.Lookup(id); ok {
			lines = append(lines, theme.Highlight.Render("Achievement unlocked: "+a.Title))
		}
	}
	lines = append(lines, theme.Subtitle.Render(fmt.Sprintf("Total %d XP, level %d, streak %d",
		o.Incentives.TotalXP, o.Incentives.Level, o.Incentives.CurrentStreak)))
	return strings.Join(lines, "\n")
}

// QuizResult renders a graded attempt with per-question review.
func QuizResult(q quiz.Quiz, r quiz.Result) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(q.Title) + " " + score(r) + "\n")
	for i, rv := range quiz.ReviewAnswers(q, r) {
		mark := theme.Failed.Render("✗")
		if rv.Correct {
			mark = theme.Done.Render("✓")
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, i+1, rv.Question.Question)
		if ca := rv.Question.CorrectAnswer; !rv.Correct && ca >= 0 && ca < len(rv.Question.Options) {
			fmt.Fprintf(&b, "   %s\n", theme.Subtitle.Render("answer: "+rv.Question.Options[ca]))
		}
		if rv.Question.Explanation != "" {
			fmt.Fprintf(&b, "   %s\n", theme.Hint.Render(rv.Question.Explanation))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Dashboard renders the summary view.
func Dashboard(s app.Summary) string {
	head := lipgloss.JoinVertical(lipgloss.Left,
		field("Active plans", strconv.Itoa(s.ActivePlans)),
		field("Completed plans", strconv.Itoa(s.CompletedPlans)),
		field("Overall", fmt.Sprintf("%d/%d tasks", s.CompletedTasks, s.TotalTasks)),
		ProgressBar(s.Ratio(), BarWidth),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.Card.Render(head),
		theme.Card.Render(Incentives(s.Incentives)),
	)
}

// Group renders a group with its leaderboard.
func Group(g groups.Group) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(g.Name) + "  " + theme.Subtitle.Render(g.ID) + "\n")
	if g.Description != "" {
		b.WriteString(theme.Subtitle.Render(g.Description) + "\n")
	}
	b.WriteString(field("Topic", g.Topic) + "\n")
	b.WriteString(field("Difficulty", g.Difficulty) + "\n")
	b.WriteString(field("Admin", g.AdminName) + "\n")
	plan := theme.Hint.Render("none")
	if g.StudyPlan != nil {
		plan = g.StudyPlan.Title
	}
	b.WriteString(field("Plan", plan) + "\n")
	if len(g.Files) > 0 {
		b.WriteString(field("Files", strconv.Itoa(len(g.Files))) + "\n")
	}
	b.WriteString("\n" + Leaderboard(groups.Leaderboard(g)))
	return b.String()
}

// Leaderboard renders ranked member standings.
func Leaderboard(rows []groups.Standing) string {
	if len(rows) == 0 {
		return theme.Hint.Render("No members.")
	}
	lines := make([]string, 0, len(rows))
	for i, r := range rows {
		name := r.Member.Name
		if r.Member.Role == groups.RoleAdmin {
			name += theme.Subtitle.Render(" (admin)")
		}
		lines = append(lines, fmt.Sprintf("%2d. %s  %d/%d  %s",
			i+1, name, r.Progress.CompletedTasks, r.Progress.TotalTasks,
			ProgressBar(r.Progress.Ratio(), BarWidth/2)))
	}
	return strings.Join(lines, "\n")
}

// User renders the session user.
func User(u *user.User) string {
	if u == nil {
		return theme.Hint.Render("Not signed in.")
	}
	return strings.Join([]string{
		theme.Title.Render(u.Name) + " " + theme.Subtitle.Render(u.Email),
		field("Level", strconv.Itoa(u.Stats.Level)),
		field("XP", strconv.Itoa(u.Stats.TotalXP)),
		field("Streak", fmt.Sprintf("%d days (best %d)", u.Stats.CurrentStreak, u.Stats.LongestStreak)),
		field("Plans done", strconv.Itoa(u.Stats.PlansCompleted)),
		field("Study time", fmt.Sprintf("%d hours", u.Stats.TotalStudyTime)),
	}, "\n")
}
