// Package user keeps the local session identity and its study statistics.
package user

import (
	"net/url"
	"strings"
	"time"
)

// User is a locally registered learner.
type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Avatar      string      `json:"avatar"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastLoginAt time.Time   `json:"lastLoginAt"`
	Preferences Preferences `json:"preferences"`
	Profile     Profile     `json:"profile"`
	Stats       Stats       `json:"stats"`
}

// Preferences are display and notification settings.
type Preferences struct {
	Theme          string `json:"theme"`
	Notifications  bool   `json:"notifications"`
	StudyReminders bool   `json:"studyReminders"`
	WeeklyReports  bool   `json:"weeklyReports"`
}

// Profile is self-described learner information.
type Profile struct {
	Bio                string   `json:"bio"`
	LearningGoals      []string `json:"learningGoals"`
	PreferredStudyTime string   `json:"preferredStudyTime"`
	Timezone           string   `json:"timezone"`
	StudyLevel         string   `json:"studyLevel"`
}

// Stats mirrors the incentive snapshot onto the user record.
// TotalStudyTime is in hours.
type Stats struct {
	TotalStudyTime int `json:"totalStudyTime"`
	PlansCompleted int `json:"plansCompleted"`
	CurrentStreak  int `json:"currentStreak"`
	LongestStreak  int `json:"longestStreak"`
	TotalXP        int `json:"totalXP"`
	Level          int `json:"level"`
}

// StatsUpdate is a partial update; nil fields are left alone.
type StatsUpdate struct {
	TotalStudyTime *int
	PlansCompleted *int
	CurrentStreak  *int
	LongestStreak  *int
	TotalXP        *int
	Level          *int
}

// Apply returns s with u applied and whether anything changed.
func (u StatsUpdate) Apply(s Stats) (Stats, bool) {
	changed := false
	set := func(dst *int, v *int) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	set(&s.TotalStudyTime, u.TotalStudyTime)
	set(&s.PlansCompleted, u.PlansCompleted)
	set(&s.CurrentStreak, u.CurrentStreak)
	set(&s.LongestStreak, u.LongestStreak)
	set(&s.TotalXP, u.TotalXP)
	set(&s.Level, u.Level)
	return s, changed
}

// Full builds an update that sets every field.
func Full(s Stats) StatsUpdate {
	return StatsUpdate{
		TotalStudyTime: &s.TotalStudyTime,
		PlansCompleted: &s.PlansCompleted,
		CurrentStreak:  &s.CurrentStreak,
		LongestStreak:  &s.LongestStreak,
		TotalXP:        &s.TotalXP,
		Level:          &s.Level,
	}
}

// StudyHours estimates study time at half an hour per completed task.
func StudyHours(completedTasks int) int {
	return completedTasks / 2
}

// NameFromEmail returns the local part of an email address.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func newUser(id, email, name string, now time.Time) User {
	return User{
		ID:          id,
		Email:       email,
		Name:        name,
		Avatar:      "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(name),
		CreatedAt:   now,
		LastLoginAt: now,
		Preferences: Preferences{
			Theme:          "light",
			Notifications:  true,
			StudyReminders: true,
			WeeklyReports:  true,
		},
		Profile: Profile{
			LearningGoals:      []string{"Improve my skills", "Learn new technologies", "Advance my career"},
			PreferredStudyTime: "evening",
			Timezone:           now.Location().String(),
			StudyLevel:         "intermediate",
		},
		Stats: Stats{Level: 1},
	}
}
