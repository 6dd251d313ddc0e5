package plangen

import "github.com/abhisek/prepbuddy/internal/llm"

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func list(items map[string]any, desc string) map[string]any {
	return map[string]any{"type": "array", "items": items, "description": desc}
}

func object(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

var questionDef = object(map[string]any{
	"question":       str("The question text"),
	"options":        list(map[string]any{"type": "string"}, "Exactly 4 answer options"),
	"correct_answer": map[string]any{"type": "integer", "minimum": 0, "maximum": 3, "description": "Zero-based index of the correct option"},
	"explanation":    str("Why the correct option is right, one or two sentences"),
})

var dayDef = object(map[string]any{
	"title":          str("Short title for the day's focus"),
	"tasks":          list(map[string]any{"type": "string"}, "Concrete study tasks for the day, 2 to 5 items"),
	"estimated_time": str("Total time for the day, e.g. \"2 hours\""),
	"quiz":           list(questionDef, "Review questions for the day; empty when the day has no quiz"),
})

// StudyPlanSchema is the response schema for plan generation. Every
// property is required so strict structured output modes accept it.
var StudyPlanSchema = &llm.Schema{
	Name:        "study-plan",
	Description: "A day-by-day study plan with tasks and optional review quizzes",
	Definition: object(map[string]any{
		"title":       str("Plan title"),
		"description": str("One paragraph describing what the plan covers"),
		"topics":      list(map[string]any{"type": "string"}, "Main topics covered"),
		"schedule":    list(dayDef, "One entry per day, in order"),
	}),
}
