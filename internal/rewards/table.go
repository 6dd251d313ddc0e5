// Package rewards maps completion events to experience awards and
// user-facing celebrations.
package rewards

import (
	"fmt"
	"time"
)

// Kind classifies a celebration.
type Kind string

const (
	KindTask        Kind = "task"
	KindDay         Kind = "day"
	KindPlan        Kind = "plan"
	KindStreak      Kind = "streak"
	KindAchievement Kind = "achievement"
)

// ParseKind validates a celebration kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTask, KindDay, KindPlan, KindStreak, KindAchievement:
		return k, nil
	}
	return "", fmt.Errorf("unknown celebration kind: %q", s)
}

// Celebration is a notification waiting to be shown.
type Celebration struct {
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Event is a progress event that earns a reward.
type Event string

const (
	EventTaskCompleted Event = "task-completed"
	EventDayCompleted  Event = "day-completed"
	EventPlanCompleted Event = "plan-completed"
	EventQuizPassed    Event = "quiz-passed"
	EventQuizFailed    Event = "quiz-failed"
	EventPlanCreated   Event = "plan-created"
)

// XP awarded per event.
const (
	XPTaskCompleted = 10
	XPDayCompleted  = 25
	XPPlanCompleted = 100
	XPQuizPassed    = 50
	XPQuizAttempted = 25
	XPPlanCreated   = 25
)

// Reward is what one event is worth. Celebration is nil for events that
// award experience silently.
type Reward struct {
	XP          int
	Reason      string
	Celebration *Celebration
}

// RewardFor looks up the reward for ev. score is only read for quiz events.
func RewardFor(ev Event, score int) (Reward, error) {
	switch ev {
	case EventTaskCompleted:
		return Reward{XP: XPTaskCompleted, Reason: "Task completed", Celebration: &Celebration{
			Kind: KindTask, Title: "Task Complete!", Message: "Great job! You're making progress!",
		}}, nil
	case EventDayCompleted:
		return Reward{XP: XPDayCompleted, Reason: "Day completed", Celebration: &Celebration{
			Kind: KindDay, Title: "Day Complete!", Message: "Excellent! You've finished all tasks for today!",
		}}, nil
	case EventPlanCompleted:
		return Reward{XP: XPPlanCompleted, Reason: "Plan completed", Celebration: &Celebration{
			Kind: KindPlan, Title: "Plan Complete!", Message: "Outstanding! You've completed an entire study plan!",
		}}, nil
	case EventQuizPassed:
		return Reward{XP: XPQuizPassed, Reason: fmt.Sprintf("Quiz passed with %d%%", score), Celebration: &Celebration{
			Kind: KindAchievement, Title: "Quiz Passed!", Message: fmt.Sprintf("Great job! You scored %d%%!", score),
		}}, nil
	case EventQuizFailed:
		return Reward{XP: XPQuizAttempted, Reason: "Quiz attempted"}, nil
	case EventPlanCreated:
		return Reward{XP: XPPlanCreated, Reason: "Study plan created", Celebration: &Celebration{
			Kind: KindPlan, Title: "Plan Created!", Message: "Your AI-powered study plan is ready! Time to start learning!",
		}}, nil
	}
	return Reward{}, fmt.Errorf("unknown reward event: %q", ev)
}

// LevelUp builds the celebration for reaching level.
func LevelUp(level int) Celebration {
	return Celebration{
		Kind:    KindAchievement,
		Title:   "Level Up!",
		Message: fmt.Sprintf("You've reached level %d! Keep up the great work!", level),
	}
}
