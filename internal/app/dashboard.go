package app

import (
	"context"

	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/progress"
)

// Summary is the dashboard view across all plans.
type Summary struct {
	Plans          []progress.StudyPlan `json:"plans"`
	ActivePlans    int                  `json:"activePlans"`
	CompletedPlans int                  `json:"completedPlans"`
	TotalTasks     int                  `json:"totalTasks"`
	CompletedTasks int                  `json:"completedTasks"`
	XPIntoLevel    int                  `json:"xpIntoLevel"`
	XPPerLevel     int                  `json:"xpPerLevel"`
	Incentives     incentives.Data      `json:"incentives"`
}

// Ratio is the overall task completion ratio.
func (s Summary) Ratio() float64 {
	if s.TotalTasks == 0 {
		return 0
	}
	return float64(s.CompletedTasks) / float64(s.TotalTasks)
}

// Dashboard summarizes every plan and the incentive snapshot.
func (c *Controller) Dashboard(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return Summary{}, err
	}
	data, err := c.snapshot(ctx, plans)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Plans:       plans,
		XPIntoLevel: incentives.XPIntoLevel(data.TotalXP),
		XPPerLevel:  incentives.XPPerLevel,
		Incentives:  data,
	}
	for _, p := range plans {
		s.TotalTasks += p.Progress.TotalTasks
		s.CompletedTasks += p.Progress.CompletedTasks
		if p.Progress.IsComplete() {
			s.CompletedPlans++
		} else {
			s.ActivePlans++
		}
	}
	return s, nil
}
