// Package incentives derives streaks, experience points and levels from
// completion history, and decides which achievements unlock.
package incentives

// XPPerLevel is the experience needed to advance one level.
const XPPerLevel = 100

// Weights of the recomputed XP formula.
const (
	XPPerCompletedTask = 10
	XPPerStreakDay     = 5
	XPPerCompletedPlan = 25
)

// LevelForXP returns floor(xp / 100) + 1. Negative XP is treated as zero.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// XPIntoLevel returns the experience earned within the current level.
func XPIntoLevel(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp % XPPerLevel
}

// FormulaXP is the recomputed total: 10 per completed task, 5 per streak
// day and 25 per completed plan.
func FormulaXP(completedTasks, currentStreak, completedPlans int) int {
	return completedTasks*XPPerCompletedTask +
		currentStreak*XPPerStreakDay +
		completedPlans*XPPerCompletedPlan
}
