package rewards

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/store"
)

// StatsSink receives experience updates for the signed-in user.
type StatsSink interface {
	RecordXP(ctx context.Context, totalXP, level int) error
}

// Award is the result of one AwardXP call.
type Award struct {
	Amount    int    `json:"amount"`
	Reason    string `json:"reason"`
	TotalXP   int    `json:"totalXP"`
	Level     int    `json:"level"`
	LeveledUp bool   `json:"leveledUp"`

	// Celebrations lists every celebration triggered by the call, oldest
	// first. Only the last one remains pending.
	Celebrations []Celebration `json:"celebrations,omitempty"`
}

type ledger struct {
	TotalXP int `json:"totalXP"`
}

// Dispatcher owns the running experience total and the pending
// celebration slot. Both are persisted so they survive restarts.
type Dispatcher struct {
	kv     store.KV
	sink   StatsSink
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	xp      int
	pending *Celebration
}

// NewDispatcher creates a Dispatcher. sink may be nil.
func NewDispatcher(kv store.KV, sink StatsSink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		kv:     kv,
		sink:   sink,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Load restores the persisted total and pending celebration. Malformed
// values are discarded.
func (d *Dispatcher) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var l ledger
	if _, err := store.ReadJSON(ctx, d.kv, store.KeyXPLedger, &l); err != nil {
		if !errors.Is(err, store.ErrMalformed) {
			return err
		}
		d.logger.Warn("discarding malformed xp ledger", zap.Error(err))
		l = ledger{}
	}
	d.xp = max(l.TotalXP, 0)

	var c Celebration
	found, err := store.ReadJSON(ctx, d.kv, store.KeyPendingCelebration, &c)
	switch {
	case errors.Is(err, store.ErrMalformed):
		d.logger.Warn("discarding malformed pending celebration", zap.Error(err))
		d.pending = nil
	case err != nil:
		return err
	case found:
		d.pending = &c
	default:
		d.pending = nil
	}
	return nil
}

// TotalXP returns the running experience total.
func (d *Dispatcher) TotalXP() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.xp
}

// Level returns the level for the running total.
func (d *Dispatcher) Level() int {
	return incentives.LevelForXP(d.TotalXP())
}

// Reconcile folds a freshly recomputed formula total into the running
// total. The running total never decreases, so awards made since the last
// recompute are kept. No level-up is celebrated here.
func (d *Dispatcher) Reconcile(ctx context.Context, formulaXP int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if formulaXP <= d.xp {
		return d.xp, nil
	}
	d.xp = formulaXP
	if err := d.saveLedger(ctx); err != nil {
		return d.xp, err
	}
	return d.xp, nil
}

// AwardXP adds amount to the running total. When the level rises a
// level-up celebration is triggered. The new total is pushed to the stats
// sink; sink failures are logged and do not fail the award.
func (d *Dispatcher) AwardXP(ctx context.Context, amount int, reason string) (Award, error) {
	if amount < 0 {
		return Award{}, fmt.Errorf("award %d xp: amount must not be negative", amount)
	}

	d.mu.Lock()
	prevLevel := incentives.LevelForXP(d.xp)
	d.xp += amount
	level := incentives.LevelForXP(d.xp)
	award := Award{
		Amount:  amount,
		Reason:  reason,
		TotalXP: d.xp,
		Level:   level,
	}
	if err := d.saveLedger(ctx); err != nil {
		d.mu.Unlock()
		return award, err
	}
	if level > prevLevel {
		award.LeveledUp = true
		c := LevelUp(level)
		if err := d.setPending(ctx, &c); err != nil {
			d.mu.Unlock()
			return award, err
		}
		award.Celebrations = append(award.Celebrations, c)
	}
	d.mu.Unlock()

	d.logger.Info("xp awarded",
		zap.Int("amount", amount),
		zap.String("reason", reason),
		zap.Int("total_xp", award.TotalXP),
		zap.Int("level", level),
		zap.Bool("leveled_up", award.LeveledUp),
	)

	if d.sink != nil {
		if err := d.sink.RecordXP(ctx, award.TotalXP, level); err != nil {
			d.logger.Warn("push xp to stats sink", zap.Error(err))
		}
	}
	return award, nil
}

// TriggerCelebration fills the pending slot, replacing any unacknowledged
// celebration.
func (d *Dispatcher) TriggerCelebration(ctx context.Context, kind Kind, title, message string) (Celebration, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Celebration{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	c := Celebration{Kind: kind, Title: title, Message: message}
	if err := d.setPending(ctx, &c); err != nil {
		return c, err
	}
	return c, nil
}

// Pending returns the celebration waiting to be shown.
func (d *Dispatcher) Pending() (Celebration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return Celebration{}, false
	}
	return *d.pending, true
}

// Clear acknowledges the pending celebration.
func (d *Dispatcher) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
	return d.kv.Delete(ctx, store.KeyPendingCelebration)
}

// Dispatch awards the reward for ev and triggers its celebration after
// the experience award.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event, score int) (Award, error) {
	r, err := RewardFor(ev, score)
	if err != nil {
		return Award{}, err
	}
	award, err := d.AwardXP(ctx, r.XP, r.Reason)
	if err != nil {
		return award, err
	}
	if r.Celebration != nil {
		c, err := d.TriggerCelebration(ctx, r.Celebration.Kind, r.Celebration.Title, r.Celebration.Message)
		if err != nil {
			return award, err
		}
		award.Celebrations = append(award.Celebrations, c)
	}
	return award, nil
}

// Celebrate triggers a celebration for each newly unlocked achievement.
func (d *Dispatcher) Celebrate(ctx context.Context, unlocked []incentives.Achievement) ([]Celebration, error) {
	var out []Celebration
	for _, a := range unlocked {
		c, err := d.TriggerCelebration(ctx, KindAchievement, a.Title, a.Message)
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

// setPending stamps and stores c. Callers hold d.mu.
func (d *Dispatcher) setPending(ctx context.Context, c *Celebration) error {
	c.At = d.now()
	d.pending = c
	if err := store.WriteJSON(ctx, d.kv, store.KeyPendingCelebration, c); err != nil {
		return fmt.Errorf("save celebration: %w", err)
	}
	return nil
}

// saveLedger persists the running total. Callers hold d.mu.
func (d *Dispatcher) saveLedger(ctx context.Context) error {
	if err := store.WriteJSON(ctx, d.kv, store.KeyXPLedger, ledger{TotalXP: d.xp}); err != nil {
		return fmt.Errorf("save xp ledger: %w", err)
	}
	return nil
}
