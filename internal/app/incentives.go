package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/progress"
	"github.com/abhisek/prepbuddy/internal/user"
)

// histories gathers what the calculator needs from the store.
func (c *Controller) histories(ctx context.Context, plans []progress.StudyPlan) ([]incentives.PlanHistory, error) {
	out := make([]incentives.PlanHistory, 0, len(plans))
	for _, p := range plans {
		set, err := c.plans.CompletedSet(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		h := incentives.PlanHistory{
			CreatedAt: p.CreatedAt,
			Completed: set.Keys(),
			Complete:  p.Progress.IsComplete(),
		}
		if c.calc.Mode == incentives.DateModeRecorded {
			if h.CompletedAt, err = c.plans.CompletedAt(ctx, p.ID); err != nil {
				return nil, err
			}
		}
		out = append(out, h)
	}
	return out, nil
}

// snapshot recomputes incentives, persists a raised longest streak and
// folds the formula total into the experience ledger.
func (c *Controller) snapshot(ctx context.Context, plans []progress.StudyPlan) (incentives.Data, error) {
	hs, err := c.histories(ctx, plans)
	if err != nil {
		return incentives.Data{}, err
	}
	longest, err := c.streaks.LongestStreak(ctx)
	if err != nil {
		return incentives.Data{}, err
	}
	unlocked, err := c.streaks.Unlocked(ctx)
	if err != nil {
		return incentives.Data{}, err
	}

	data := c.calc.Calculate(c.now(), hs, longest, unlocked)
	if data.LongestStreak > longest {
		if _, err := c.streaks.RaiseLongestStreak(ctx, data.LongestStreak); err != nil {
			return data, fmt.Errorf("save longest streak: %w", err)
		}
	}

	xp, err := c.rewards.Reconcile(ctx, data.TotalXP)
	if err != nil {
		return data, err
	}
	data.TotalXP = xp
	data.Level = incentives.LevelForXP(xp)
	return data, nil
}

// settle runs after every plan mutation: recompute incentives, unlock
// achievements and mirror the result onto the signed-in user.
func (c *Controller) settle(ctx context.Context, plans []progress.StudyPlan, out *Outcome) error {
	data, err := c.snapshot(ctx, plans)
	if err != nil {
		return err
	}

	fresh, err := c.achievements.Check(ctx, incentives.State{
		CurrentStreak:  data.CurrentStreak,
		CompletedPlans: data.CompletedPlans,
	})
	if err != nil {
		return err
	}
	if len(fresh) > 0 {
		cs, err := c.rewards.Celebrate(ctx, fresh)
		out.Celebrations = append(out.Celebrations, cs...)
		if err != nil {
			return err
		}
		for _, a := range fresh {
			out.Achievements = append(out.Achievements, a.ID)
			data.Achievements = append(data.Achievements, a.ID)
			c.logger.Info("achievement unlocked", zap.String("achievement", a.ID))
		}
	}
	out.Incentives = data

	c.pushStats(ctx, data)
	return nil
}

// pushStats mirrors data onto the signed-in user. Failures are logged, not
// returned.
func (c *Controller) pushStats(ctx context.Context, data incentives.Data) {
	if _, err := c.users.UpdateStats(ctx, user.Full(user.Stats{
		TotalStudyTime: user.StudyHours(data.CompletedTasks),
		PlansCompleted: data.CompletedPlans,
		CurrentStreak:  data.CurrentStreak,
		LongestStreak:  data.LongestStreak,
		TotalXP:        data.TotalXP,
		Level:          data.Level,
	})); err != nil {
		c.logger.Warn("sync user stats", zap.Error(err))
	}
}

// SyncStats recomputes incentives and mirrors them onto the signed-in
// user.
func (c *Controller) SyncStats(ctx context.Context) (incentives.Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plans, err := c.loadPlans(ctx)
	if err != nil {
		return incentives.Data{}, err
	}
	data, err := c.snapshot(ctx, plans)
	if err != nil {
		return data, err
	}
	c.pushStats(ctx, data)
	return data, nil
}
