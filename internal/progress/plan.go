// Package progress models study plans and the task completion state machine
// that derives day and plan progress from a plan's completed-task set.
package progress

import (
	"time"

	"github.com/abhisek/prepbuddy/internal/quiz"
)

// StudyPlan is a generated study plan with its derived progress.
type StudyPlan struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    string    `json:"duration"`
	Difficulty  string    `json:"difficulty"`
	Topics      []string  `json:"topics"`
	Schedule    []Day     `json:"schedule"`
	CreatedAt   time.Time `json:"createdAt"`
	Files       []File    `json:"files"`
	Progress    Progress  `json:"progress"`
}

// Day is one entry of a plan's schedule. Completed is derived.
type Day struct {
	Day           int        `json:"day"`
	Title         string     `json:"title"`
	Tasks         []string   `json:"tasks"`
	EstimatedTime string     `json:"estimatedTime"`
	Completed     bool       `json:"completed,omitempty"`
	Quiz          *quiz.Quiz `json:"quiz,omitempty"`
}

// File is an attachment carried with a plan. Content is opaque here.
type File struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Content string    `json:"content"`
	AddedAt time.Time `json:"addedAt"`
}

// Progress is the aggregate view recomputed from the completed-task set.
type Progress struct {
	CompletedTasks int `json:"completedTasks"`
	TotalTasks     int `json:"totalTasks"`
	CompletedDays  int `json:"completedDays"`
	TotalDays      int `json:"totalDays"`
}

// IsComplete reports whether every day of the plan is complete.
// A plan with no days is never complete.
func (p Progress) IsComplete() bool {
	return p.TotalDays > 0 && p.CompletedDays == p.TotalDays
}

// Ratio returns completed tasks over total tasks in [0, 1].
func (p Progress) Ratio() float64 {
	if p.TotalTasks == 0 {
		return 0
	}
	return float64(p.CompletedTasks) / float64(p.TotalTasks)
}

// TotalTasks sums the task count over every day.
func TotalTasks(schedule []Day) int {
	n := 0
	for _, d := range schedule {
		n += len(d.Tasks)
	}
	return n
}

// Draft is the input for a new plan, typically produced by the plan
// generator.
type Draft struct {
	Title       string
	Description string
	Duration    string
	Difficulty  string
	Topics      []string
	Schedule    []Day
	Files       []File
}

// NewPlan builds a plan from a draft with fresh derived state. Days are
// renumbered from 1 when the draft leaves them unset.
func NewPlan(id string, d Draft, now time.Time) StudyPlan {
	schedule := make([]Day, len(d.Schedule))
	for i, day := range d.Schedule {
		day.Completed = false
		if day.Day == 0 {
			day.Day = i + 1
		}
		day.Tasks = append([]string(nil), day.Tasks...)
		schedule[i] = day
	}
	p := StudyPlan{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Duration:    d.Duration,
		Difficulty:  d.Difficulty,
		Topics:      append([]string(nil), d.Topics...),
		Schedule:    schedule,
		CreatedAt:   now,
		Files:       append([]File(nil), d.Files...),
	}
	return Recompute(p, NewCompletedSet())
}

// Find returns the plan with id and its index, or -1.
func Find(plans []StudyPlan, id string) (StudyPlan, int) {
	for i, p := range plans {
		if p.ID == id {
			return p, i
		}
	}
	return StudyPlan{}, -1
}

// Replace returns a new list with the plan of the same id swapped for p.
// The input list is not modified.
func Replace(plans []StudyPlan, p StudyPlan) []StudyPlan {
	out := make([]StudyPlan, len(plans))
	for i, existing := range plans {
		if existing.ID == p.ID {
			out[i] = p
		} else {
			out[i] = existing
		}
	}
	return out
}

// Remove returns a new list without the plan with id.
func Remove(plans []StudyPlan, id string) []StudyPlan {
	out := make([]StudyPlan, 0, len(plans))
	for _, p := range plans {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
