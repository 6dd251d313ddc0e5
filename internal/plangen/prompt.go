package plangen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a study coach who turns a learner's goal and material into a realistic day-by-day study plan.

Rules:
- Produce exactly the requested number of days, in order.
- Each day has 2 to 5 concrete, checkable tasks. Start tasks with a verb ("Read", "Solve", "Summarize").
- Pace the plan for the requested difficulty. Beginners get more review; advanced learners get more practice.
- When study material is provided, base tasks on it and refer to its sections by name.
- Add a review quiz of 3 to 5 questions on every few days and on the final day. Leave the quiz empty on other days.
- Each quiz question has exactly 4 options and exactly one correct option.
- Use plain text. No markdown.`

// buildPrompt renders the user message for a request.
func buildPrompt(req Request, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Days: %d\n", req.Days)
	if req.HoursPerDay > 0 {
		fmt.Fprintf(&b, "Hours per day: %g\n", req.HoursPerDay)
	}
	if len(req.Goals) > 0 {
		b.WriteString("Goals:\n")
		for _, g := range req.Goals {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	b.WriteString("\nStudy material:\n")
	if len(req.Material) == 0 {
		b.WriteString("None")
		return b.String()
	}
	budget := cfg.MaxMaterialChars
	for _, m := range req.Material {
		if budget <= 0 {
			b.WriteString("[remaining material omitted]\n")
			break
		}
		content := m.Content
		if len(content) > budget {
			content = content[:budget] + " [truncated]"
		}
		budget -= len(m.Content)
		fmt.Fprintf(&b, "=== %s ===\n%s\n", m.Name, content)
	}
	return strings.TrimRight(b.String(), "\n")
}
