package incentives

import (
	"fmt"
	"sort"
	"time"
)

// DateMode selects where completion dates come from.
type DateMode string

const (
	// DateModeSynthesized dates the i-th completion of a plan at
	// plan.CreatedAt + i days.
	DateModeSynthesized DateMode = "synthesized"

	// DateModeRecorded uses the recorded completion time of each task and
	// falls back to the synthesized date when none was recorded.
	DateModeRecorded DateMode = "recorded"
)

// ParseDateMode validates a configured mode. Empty means synthesized.
func ParseDateMode(s string) (DateMode, error) {
	switch DateMode(s) {
	case "", DateModeSynthesized:
		return DateModeSynthesized, nil
	case DateModeRecorded:
		return DateModeRecorded, nil
	}
	return "", fmt.Errorf("unknown streak mode: %q", s)
}

// DefaultEpoch is the earliest day the current streak walks back to.
var DefaultEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

// PlanHistory is what the calculator needs to know about one plan.
type PlanHistory struct {
	CreatedAt time.Time

	// Completed holds the plan's completed task keys in insertion order.
	Completed []string

	// CompletedAt holds recorded completion times by task key. Only read in
	// DateModeRecorded.
	CompletedAt map[string]time.Time

	// Complete reports whether every day of the plan is complete.
	Complete bool
}

// Data is the derived incentive snapshot.
type Data struct {
	CurrentStreak   int        `json:"currentStreak"`
	LongestStreak   int        `json:"longestStreak"`
	HasStudiedToday bool       `json:"hasStudiedToday"`
	TotalXP         int        `json:"totalXP"`
	Level           int        `json:"level"`
	Achievements    []string   `json:"achievements"`
	LastStudyDate   *time.Time `json:"lastStudyDate"`

	CompletedTasks int `json:"completedTasks"`
	CompletedPlans int `json:"completedPlans"`
}

// Zero returns the snapshot of a learner with no history.
func Zero() Data {
	return Data{Level: 1, Achievements: []string{}}
}

// Calculator recomputes Data from plan histories.
type Calculator struct {
	Mode     DateMode
	Epoch    time.Time
	Location *time.Location
}

// NewCalculator returns a Calculator using local time and DefaultEpoch.
func NewCalculator(mode DateMode) Calculator {
	return Calculator{Mode: mode, Epoch: DefaultEpoch, Location: time.Local}
}

// Calculate derives the snapshot at now. It has no side effects; the
// caller persists LongestStreak when it exceeds persistedLongest.
func (c Calculator) Calculate(now time.Time, plans []PlanHistory, persistedLongest int, achievements []string) Data {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	today := midnight(now, loc)

	days := make(map[time.Time]struct{})
	var last *time.Time
	completedTasks, completedPlans := 0, 0

	for _, p := range plans {
		completedTasks += len(p.Completed)
		if p.Complete {
			completedPlans++
		}
		for i, key := range p.Completed {
			d := c.completionDate(p, i, key)
			days[midnight(d, loc)] = struct{}{}
			if last == nil || d.After(*last) {
				dd := d
				last = &dd
			}
		}
	}

	_, studiedToday := days[today]
	streak := currentStreak(days, today, midnight(c.epoch(), loc))

	longest := persistedLongest
	if streak > longest {
		longest = streak
	}

	xp := FormulaXP(completedTasks, streak, completedPlans)
	ach := append([]string{}, achievements...)

	return Data{
		CurrentStreak:   streak,
		LongestStreak:   longest,
		HasStudiedToday: studiedToday,
		TotalXP:         xp,
		Level:           LevelForXP(xp),
		Achievements:    ach,
		LastStudyDate:   last,
		CompletedTasks:  completedTasks,
		CompletedPlans:  completedPlans,
	}
}

func (c Calculator) epoch() time.Time {
	if c.Epoch.IsZero() {
		return DefaultEpoch
	}
	return c.Epoch
}

func (c Calculator) completionDate(p PlanHistory, ordinal int, key string) time.Time {
	if c.Mode == DateModeRecorded {
		if at, ok := p.CompletedAt[key]; ok && !at.IsZero() {
			return at
		}
	}
	return p.CreatedAt.AddDate(0, 0, ordinal)
}

// currentStreak counts consecutive days with a completion, walking back
// from today and never past floor.
func currentStreak(days map[time.Time]struct{}, today, floor time.Time) int {
	streak := 0
	for d := today; !d.Before(floor); d = d.AddDate(0, 0, -1) {
		if _, ok := days[d]; !ok {
			break
		}
		streak++
	}
	return streak
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StudyDays returns the distinct study days in descending order.
func (c Calculator) StudyDays(plans []PlanHistory) []time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, p := range plans {
		for i, key := range p.Completed {
			d := midnight(c.completionDate(p, i, key), loc)
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}
