package incentives

import (
	"context"
	"fmt"
	"slices"
)

// Achievement is an unlockable badge with its unlock predicate.
type Achievement struct {
	ID      string
	Title   string
	Message string
	Unlock  func(State) bool
}

// State is the progress an achievement predicate is evaluated against.
type State struct {
	CurrentStreak  int
	CompletedPlans int
}

// Catalog lists the built-in achievements in evaluation order.
var Catalog = []Achievement{
	{
		ID:      "streak-3",
		Title:   "Getting Warmed Up!",
		Message: "You've maintained a 3-day study streak!",
		Unlock:  func(s State) bool { return s.CurrentStreak >= 3 },
	},
	{
		ID:      "streak-7",
		Title:   "Week Warrior!",
		Message: "Amazing! You've studied for 7 consecutive days!",
		Unlock:  func(s State) bool { return s.CurrentStreak >= 7 },
	},
	{
		ID:      "first-completion",
		Title:   "Goal Achiever!",
		Message: "You've completed your first study plan!",
		Unlock:  func(s State) bool { return s.CompletedPlans >= 1 },
	},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range Catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Evaluate returns the achievements whose predicate holds and that are not
// yet in unlocked.
func Evaluate(catalog []Achievement, s State, unlocked []string) []Achievement {
	var out []Achievement
	for _, a := range catalog {
		if slices.Contains(unlocked, a.ID) {
			continue
		}
		if a.Unlock(s) {
			out = append(out, a)
		}
	}
	return out
}

// Engine evaluates achievements and records newly unlocked ones.
type Engine struct {
	repo    *Repo
	catalog []Achievement
}

// NewEngine creates an Engine over the built-in catalog.
func NewEngine(repo *Repo) *Engine {
	return &Engine{repo: repo, catalog: Catalog}
}

// WithCatalog replaces the evaluated catalog.
func (e *Engine) WithCatalog(catalog []Achievement) *Engine {
	e.catalog = catalog
	return e
}

// Check unlocks every achievement whose predicate now holds. Each id is
// returned at most once over the lifetime of the store.
func (e *Engine) Check(ctx context.Context, s State) ([]Achievement, error) {
	unlocked, err := e.repo.Unlocked(ctx)
	if err != nil {
		return nil, err
	}
	fresh := Evaluate(e.catalog, s, unlocked)
	if len(fresh) == 0 {
		return nil, nil
	}

	ids := make([]string, len(fresh))
	for i, a := range fresh {
		ids[i] = a.ID
	}
	if err := e.repo.Unlock(ctx, ids...); err != nil {
		return nil, fmt.Errorf("record achievements: %w", err)
	}
	return fresh, nil
}
