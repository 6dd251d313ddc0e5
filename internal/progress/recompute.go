package progress

// DayComplete reports whether every task of the day at dayIndex is in set.
// A day with no tasks counts as complete.
func DayComplete(plan StudyPlan, set CompletedSet, dayIndex int) bool {
	if dayIndex < 0 || dayIndex >= len(plan.Schedule) {
		return false
	}
	for t := range plan.Schedule[dayIndex].Tasks {
		if !set.Has(TaskKey(dayIndex, t)) {
			return false
		}
	}
	return true
}

// Recompute returns a copy of plan whose Day.Completed flags and Progress
// are derived from set. Keys outside the schedule are ignored.
func Recompute(plan StudyPlan, set CompletedSet) StudyPlan {
	set = set.Prune(plan.Schedule)

	schedule := make([]Day, len(plan.Schedule))
	completedDays := 0
	for i, day := range plan.Schedule {
		day.Completed = DayComplete(plan, set, i)
		if day.Completed {
			completedDays++
		}
		schedule[i] = day
	}

	plan.Schedule = schedule
	plan.Progress = Progress{
		CompletedTasks: set.Len(),
		TotalTasks:     TotalTasks(schedule),
		CompletedDays:  completedDays,
		TotalDays:      len(schedule),
	}
	return plan
}
