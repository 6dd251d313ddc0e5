package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/store"
)

// Repo persists plans and their completed-task sets. Malformed values are
// logged and read as empty.
type Repo struct {
	kv     store.KV
	logger *zap.Logger
}

// NewRepo creates a Repo over kv.
func NewRepo(kv store.KV, logger *zap.Logger) *Repo {
	return &Repo{kv: kv, logger: logging.OrNop(logger)}
}

// Plans loads the plan list.
func (r *Repo) Plans(ctx context.Context) ([]StudyPlan, error) {
	var plans []StudyPlan
	ok, err := r.read(ctx, store.KeyPlans, &plans)
	if err != nil || !ok {
		return nil, err
	}
	return plans, nil
}

// SavePlans replaces the plan list.
func (r *Repo) SavePlans(ctx context.Context, plans []StudyPlan) error {
	if plans == nil {
		plans = []StudyPlan{}
	}
	return store.WriteJSON(ctx, r.kv, store.KeyPlans, plans)
}

// CompletedSet loads the completed-task set of a plan.
func (r *Repo) CompletedSet(ctx context.Context, planID string) (CompletedSet, error) {
	set := NewCompletedSet()
	ok, err := r.read(ctx, store.CompletedTasksKey(planID), &set)
	if err != nil || !ok {
		return NewCompletedSet(), err
	}
	return set, nil
}

// SaveCompletedSet persists the completed-task set of a plan.
func (r *Repo) SaveCompletedSet(ctx context.Context, planID string, set CompletedSet) error {
	return store.WriteJSON(ctx, r.kv, store.CompletedTasksKey(planID), set)
}

// CompletedAt loads recorded completion times keyed by task key.
func (r *Repo) CompletedAt(ctx context.Context, planID string) (map[string]time.Time, error) {
	times := map[string]time.Time{}
	ok, err := r.read(ctx, store.CompletedAtKey(planID), &times)
	if err != nil || !ok {
		return map[string]time.Time{}, err
	}
	return times, nil
}

// RecordCompletion stores or clears the completion time of one task.
func (r *Repo) RecordCompletion(ctx context.Context, planID, key string, at time.Time, completed bool) error {
	times, err := r.CompletedAt(ctx, planID)
	if err != nil {
		return err
	}
	if completed {
		times[key] = at
	} else {
		delete(times, key)
	}
	return store.WriteJSON(ctx, r.kv, store.CompletedAtKey(planID), times)
}

// DeletePlanData removes every per-plan key.
func (r *Repo) DeletePlanData(ctx context.Context, planID string) error {
	for _, key := range store.PlanKeys(planID) {
		if err := r.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// read decodes key into v. ok is false when the key is absent or its value
// was malformed and discarded.
func (r *Repo) read(ctx context.Context, key string, v any) (bool, error) {
	found, err := store.ReadJSON(ctx, r.kv, key, v)
	if errors.Is(err, store.ErrMalformed) {
		r.logger.Warn("discarding malformed persisted data",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return found, nil
}
