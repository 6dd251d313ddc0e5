// Package reminder decides when to nudge the learner to study today.
package reminder

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/store"
)

// DateLayout formats the stored last-reminder date.
const DateLayout = "Mon Jan 02 2006"

// Evening window in local hours, start inclusive, end exclusive.
const (
	WindowStart = 18
	WindowEnd   = 23
)

// Gate shows the daily reminder at most once per day, in the evening, and
// only when nothing was studied today.
type Gate struct {
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time
}

// NewGate creates a Gate over kv.
func NewGate(kv store.KV, logger *zap.Logger) *Gate {
	return &Gate{kv: kv, logger: logging.OrNop(logger), now: time.Now}
}

// WithClock overrides the time source.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// ShouldShow reports whether the reminder is due.
func (g *Gate) ShouldShow(ctx context.Context, studiedToday bool) (bool, error) {
	if studiedToday {
		return false, nil
	}
	now := g.now()
	if h := now.Hour(); h < WindowStart || h >= WindowEnd {
		return false, nil
	}
	last, err := g.lastShown(ctx)
	if err != nil {
		return false, err
	}
	return last != now.Format(DateLayout), nil
}

// Dismiss records today as the last reminder date.
func (g *Gate) Dismiss(ctx context.Context) error {
	return store.WriteJSON(ctx, g.kv, store.KeyLastReminderDate, g.now().Format(DateLayout))
}

func (g *Gate) lastShown(ctx context.Context) (string, error) {
	var last string
	_, err := store.ReadJSON(ctx, g.kv, store.KeyLastReminderDate, &last)
	if errors.Is(err, store.ErrMalformed) {
		g.logger.Warn("discarding malformed reminder date", zap.Error(err))
		return "", nil
	}
	return last, err
}
