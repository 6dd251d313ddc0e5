package quiz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/store"
)

// Repo persists quiz results per plan under quiz-results-<planId>,
// a map of quiz id to its latest result.
type Repo struct {
	kv     store.KV
	logger *zap.Logger
}

// NewRepo creates a Repo over kv.
func NewRepo(kv store.KV, logger *zap.Logger) *Repo {
	return &Repo{kv: kv, logger: logging.OrNop(logger)}
}

// Results returns all results for a plan. Malformed data reads as empty.
func (r *Repo) Results(ctx context.Context, planID string) (map[string]Result, error) {
	results := map[string]Result{}
	key := store.QuizResultsKey(planID)
	if _, err := store.ReadJSON(ctx, r.kv, key, &results); err != nil {
		if errors.Is(err, store.ErrMalformed) {
			r.logger.Warn("discarding malformed quiz results", zap.String("key", key), zap.Error(err))
			return map[string]Result{}, nil
		}
		return nil, err
	}
	return results, nil
}

// Save records result, replacing any previous attempt at the same quiz.
func (r *Repo) Save(ctx context.Context, planID string, result Result) error {
	results, err := r.Results(ctx, planID)
	if err != nil {
		return err
	}
	results[result.QuizID] = result
	if err := store.WriteJSON(ctx, r.kv, store.QuizResultsKey(planID), results); err != nil {
		return fmt.Errorf("save quiz result: %w", err)
	}
	return nil
}
