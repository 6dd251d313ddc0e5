package progress

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound matches every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a reference to a plan, day or task that does not
// exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Transition is the outcome of one SetTaskCompletion call.
type Transition struct {
	Plan StudyPlan
	Set  CompletedSet

	// Changed is false when the call was redundant. No events fire then.
	Changed bool

	// TaskCompleted is set on an incomplete to complete transition.
	TaskCompleted bool

	// DayCompleted is set when completing the task finished its day.
	DayCompleted bool

	// PlanCompleted is set when completedDays reached totalDays and
	// exceeds the previous completedDays.
	PlanCompleted bool

	DayIndex  int
	TaskIndex int
}

// SetTaskCompletion applies one toggle to plan and set. Neither input is
// modified; the returned Transition carries the new plan and set.
func SetTaskCompletion(plan StudyPlan, set CompletedSet, dayIndex, taskIndex int, completed bool) (Transition, error) {
	if dayIndex < 0 || dayIndex >= len(plan.Schedule) {
		return Transition{}, &NotFoundError{Kind: "day", ID: strconv.Itoa(dayIndex)}
	}
	if taskIndex < 0 || taskIndex >= len(plan.Schedule[dayIndex].Tasks) {
		return Transition{}, &NotFoundError{Kind: "task", ID: TaskKey(dayIndex, taskIndex)}
	}

	key := TaskKey(dayIndex, taskIndex)
	set = set.Prune(plan.Schedule)
	before := Recompute(plan, set)
	dayWasComplete := before.Schedule[dayIndex].Completed

	var changed bool
	if completed {
		set, changed = set.Add(key)
	} else {
		set, changed = set.Remove(key)
	}

	tr := Transition{
		Plan:      before,
		Set:       set,
		Changed:   changed,
		DayIndex:  dayIndex,
		TaskIndex: taskIndex,
	}
	if !changed {
		return tr, nil
	}

	after := Recompute(plan, set)
	tr.Plan = after
	tr.TaskCompleted = completed
	tr.DayCompleted = completed && !dayWasComplete && after.Schedule[dayIndex].Completed
	tr.PlanCompleted = after.Progress.IsComplete() &&
		after.Progress.CompletedDays > before.Progress.CompletedDays
	return tr, nil
}
