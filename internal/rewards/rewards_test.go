package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/store"
)

type recordingSink struct {
	calls [][2]int
	err   error
}

func (s *recordingSink) RecordXP(_ context.Context, totalXP, level int) error {
	s.calls = append(s.calls, [2]int{totalXP, level})
	return s.err
}

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newDispatcher(t *testing.T, sink StatsSink) (*Dispatcher, store.KV) {
	t.Helper()
	kv := store.NewMemoryKV()
	d := NewDispatcher(kv, sink, nil).WithClock(func() time.Time { return fixedNow })
	require.NoError(t, d.Load(context.Background()))
	return d, kv
}

func TestXPAccumulationScenario(t *testing.T) {
	ctx := context.Background()
	d, _ := newDispatcher(t, nil)

	steps := []struct {
		amount    int
		wantXP    int
		wantLevel int
	}{
		{25, 25, 1},
		{10, 35, 1},
		{25, 60, 1},
		{100, 160, 2},
	}
	levelUps := 0
	for _, s := range steps {
		a, err := d.AwardXP(ctx, s.amount, "test")
		require.NoError(t, err)
		assert.Equal(t, s.wantXP, a.TotalXP)
		assert.Equal(t, s.wantLevel, a.Level)
		if a.LeveledUp {
			levelUps++
		}
	}
	assert.Equal(t, 1, levelUps)

	c, ok := d.Pending()
	require.True(t, ok)
	assert.Equal(t, KindAchievement, c.Kind)
	assert.Equal(t, "Level Up!", c.Title)
	assert.Equal(t, "You've reached level 2! Keep up the great work!", c.Message)
	assert.Equal(t, fixedNow, c.At)
}

func TestAwardXP_Negative(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	_, err := d.AwardXP(context.Background(), -1, "nope")
	assert.Error(t, err)
	assert.Equal(t, 0, d.TotalXP())
}

func TestAwardXP_PushesToSink(t *testing.T) {
	sink := &recordingSink{}
	d, _ := newDispatcher(t, sink)

	_, err := d.AwardXP(context.Background(), 120, "big")
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{120, 2}}, sink.calls)

	sink.err = errors.New("offline")
	a, err := d.AwardXP(context.Background(), 5, "small")
	require.NoError(t, err, "sink failures are not fatal")
	assert.Equal(t, 125, a.TotalXP)
}

func TestTriggerCelebration_SingleSlot(t *testing.T) {
	ctx := context.Background()
	d, _ := newDispatcher(t, nil)

	_, ok := d.Pending()
	assert.False(t, ok)

	_, err := d.TriggerCelebration(ctx, KindTask, "one", "first")
	require.NoError(t, err)
	_, err = d.TriggerCelebration(ctx, KindDay, "two", "second")
	require.NoError(t, err)

	c, ok := d.Pending()
	require.True(t, ok)
	assert.Equal(t, KindDay, c.Kind)
	assert.Equal(t, "two", c.Title)

	require.NoError(t, d.Clear(ctx))
	_, ok = d.Pending()
	assert.False(t, ok)

	_, err = d.TriggerCelebration(ctx, Kind("fireworks"), "x", "y")
	assert.Error(t, err)
}

func TestDispatch_Table(t *testing.T) {
	tests := []struct {
		ev        Event
		score     int
		wantXP    int
		wantKind  Kind
		wantTitle string
		wantMsg   string
	}{
		{EventTaskCompleted, 0, 10, KindTask, "Task Complete!", "Great job! You're making progress!"},
		{EventDayCompleted, 0, 25, KindDay, "Day Complete!", "Excellent! You've finished all tasks for today!"},
		{EventPlanCompleted, 0, 100, KindPlan, "Plan Complete!", "Outstanding! You've completed an entire study plan!"},
		{EventQuizPassed, 85, 50, KindAchievement, "Quiz Passed!", "Great job! You scored 85%!"},
		{EventPlanCreated, 0, 25, KindPlan, "Plan Created!", "Your AI-powered study plan is ready! Time to start learning!"},
	}
	for _, tt := range tests {
		t.Run(string(tt.ev), func(t *testing.T) {
			d, _ := newDispatcher(t, nil)
			a, err := d.Dispatch(context.Background(), tt.ev, tt.score)
			require.NoError(t, err)
			assert.Equal(t, tt.wantXP, a.TotalXP)

			c, ok := d.Pending()
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, c.Kind)
			assert.Equal(t, tt.wantTitle, c.Title)
			assert.Equal(t, tt.wantMsg, c.Message)
		})
	}
}

func TestDispatch_QuizFailedIsSilent(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	a, err := d.Dispatch(context.Background(), EventQuizFailed, 20)
	require.NoError(t, err)
	assert.Equal(t, 25, a.TotalXP)
	assert.Empty(t, a.Celebrations)
	_, ok := d.Pending()
	assert.False(t, ok)
}

func TestDispatch_EventCelebrationReplacesLevelUp(t *testing.T) {
	ctx := context.Background()
	d, _ := newDispatcher(t, nil)
	_, err := d.AwardXP(ctx, 95, "seed")
	require.NoError(t, err)

	a, err := d.Dispatch(ctx, EventTaskCompleted, 0)
	require.NoError(t, err)
	assert.True(t, a.LeveledUp)
	require.Len(t, a.Celebrations, 2)
	assert.Equal(t, "Level Up!", a.Celebrations[0].Title)
	assert.Equal(t, "Task Complete!", a.Celebrations[1].Title)

	c, _ := d.Pending()
	assert.Equal(t, "Task Complete!", c.Title)
}

func TestDispatch_UnknownEvent(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	_, err := d.Dispatch(context.Background(), Event("nap-taken"), 0)
	assert.Error(t, err)
}

func TestReconcile_Monotonic(t *testing.T) {
	ctx := context.Background()
	d, _ := newDispatcher(t, nil)

	xp, err := d.Reconcile(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, xp)

	_, err = d.AwardXP(ctx, 10, "task")
	require.NoError(t, err)

	xp, err = d.Reconcile(ctx, 45)
	require.NoError(t, err)
	assert.Equal(t, 50, xp, "awards since the last recompute are kept")

	xp, err = d.Reconcile(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, xp)

	_, ok := d.Pending()
	assert.False(t, ok, "reconcile never celebrates")
}

func TestLoad_RestoresState(t *testing.T) {
	ctx := context.Background()
	d, kv := newDispatcher(t, nil)
	_, err := d.Dispatch(ctx, EventPlanCompleted, 0)
	require.NoError(t, err)

	again := NewDispatcher(kv, nil, nil)
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, 100, again.TotalXP())
	assert.Equal(t, 2, again.Level())
	c, ok := again.Pending()
	require.True(t, ok)
	assert.Equal(t, "Plan Complete!", c.Title)
}

func TestLoad_Malformed(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, store.KeyXPLedger, []byte("{")))
	require.NoError(t, kv.Set(ctx, store.KeyPendingCelebration, []byte("[1,2]")))

	d := NewDispatcher(kv, nil, nil)
	require.NoError(t, d.Load(ctx))
	assert.Equal(t, 0, d.TotalXP())
	_, ok := d.Pending()
	assert.False(t, ok)
}

func TestCelebrate(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	a, _ := incentives.Lookup("streak-3")
	out, err := d.Celebrate(context.Background(), []incentives.Achievement{a})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, KindAchievement, out[0].Kind)
	assert.Equal(t, "Getting Warmed Up!", out[0].Title)
}
