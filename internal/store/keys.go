package store

// Key layout. Values are JSON.
const (
	KeyPlans                = "plans"
	KeyLongestStreak        = "longest-streak"
	KeyUnlockedAchievements = "unlocked-achievements"
	KeyLastReminderDate     = "last-reminder-date"
	KeyCurrentUser          = "prepbuddy-user"
	KeyUsers                = "prepbuddy-users"
	KeyStudyGroups          = "study-groups"
	KeyPendingCelebration   = "pending-celebration"
	KeyXPLedger             = "xp-ledger"

	PrefixCompletedTasks = "completed-tasks-"
	PrefixCompletedAt    = "completed-at-"
	PrefixQuizResults    = "quiz-results-"
)

// CompletedTasksKey holds the completed-task set for a plan.
func CompletedTasksKey(planID string) string { return PrefixCompletedTasks + planID }

// CompletedAtKey holds recorded completion timestamps for a plan.
func CompletedAtKey(planID string) string { return PrefixCompletedAt + planID }

// QuizResultsKey holds quiz results for a plan.
func QuizResultsKey(planID string) string { return PrefixQuizResults + planID }

// PlanKeys lists every per-plan key, used when a plan is deleted.
func PlanKeys(planID string) []string {
	return []string{
		CompletedTasksKey(planID),
		CompletedAtKey(planID),
		QuizResultsKey(planID),
	}
}
