package incentives

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/store"
)

// Repo persists the longest streak and the unlocked achievement list.
type Repo struct {
	kv     store.KV
	logger *zap.Logger
}

// NewRepo creates a Repo over kv.
func NewRepo(kv store.KV, logger *zap.Logger) *Repo {
	return &Repo{kv: kv, logger: logging.OrNop(logger)}
}

// LongestStreak returns the persisted longest streak, 0 when unset or
// malformed.
func (r *Repo) LongestStreak(ctx context.Context) (int, error) {
	var n int
	if _, err := store.ReadJSON(ctx, r.kv, store.KeyLongestStreak, &n); err != nil {
		if errors.Is(err, store.ErrMalformed) {
			r.logger.Warn("resetting malformed longest streak", zap.Error(err))
			return 0, nil
		}
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// RaiseLongestStreak persists streak if it exceeds the stored value.
// The stored value never decreases.
func (r *Repo) RaiseLongestStreak(ctx context.Context, streak int) (bool, error) {
	cur, err := r.LongestStreak(ctx)
	if err != nil {
		return false, err
	}
	if streak <= cur {
		return false, nil
	}
	if err := store.WriteJSON(ctx, r.kv, store.KeyLongestStreak, streak); err != nil {
		return false, err
	}
	return true, nil
}

// Unlocked returns unlocked achievement ids in unlock order.
func (r *Repo) Unlocked(ctx context.Context) ([]string, error) {
	ids := []string{}
	if _, err := store.ReadJSON(ctx, r.kv, store.KeyUnlockedAchievements, &ids); err != nil {
		if errors.Is(err, store.ErrMalformed) {
			r.logger.Warn("discarding malformed achievement list", zap.Error(err))
			return []string{}, nil
		}
		return nil, err
	}
	return ids, nil
}

// Unlock appends ids that are not already unlocked.
func (r *Repo) Unlock(ctx context.Context, ids ...string) error {
	cur, err := r.Unlocked(ctx)
	if err != nil {
		return err
	}
	changed := false
	for _, id := range ids {
		if !slices.Contains(cur, id) {
			cur = append(cur, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return store.WriteJSON(ctx, r.kv, store.KeyUnlockedAchievements, cur)
}
