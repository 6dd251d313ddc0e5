package incentives

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepbuddy/internal/store"
)

var today = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func utcCalc(mode DateMode) Calculator {
	return Calculator{Mode: mode, Epoch: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Location: time.UTC}
}

func day(offset int) time.Time {
	return time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// history returns a plan created at offset days from today with n
// synthesized completions.
func history(offset, n int) PlanHistory {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "0-" + string(rune('0'+i))
	}
	return PlanHistory{CreatedAt: day(offset), Completed: keys}
}

func TestLevelForXP(t *testing.T) {
	tests := []struct{ xp, want int }{
		{0, 1}, {99, 1}, {100, 2}, {250, 3}, {-5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
	assert.Equal(t, 50, XPIntoLevel(250))
}

func TestFormulaXP(t *testing.T) {
	assert.Equal(t, 0, FormulaXP(0, 0, 0))
	assert.Equal(t, 10*4+5*2+25*1, FormulaXP(4, 2, 1))
}

func TestCalculate_Empty(t *testing.T) {
	d := utcCalc(DateModeSynthesized).Calculate(today, nil, 0, nil)
	assert.Equal(t, 0, d.CurrentStreak)
	assert.False(t, d.HasStudiedToday)
	assert.Equal(t, 0, d.TotalXP)
	assert.Equal(t, 1, d.Level)
	assert.Nil(t, d.LastStudyDate)
	assert.Equal(t, []string{}, d.Achievements)
}

func TestCalculate_StreakBreak(t *testing.T) {
	c := utcCalc(DateModeSynthesized)

	// Completions on D-2 and D-1, none today.
	d := c.Calculate(today, []PlanHistory{history(-2, 2)}, 0, nil)
	assert.Equal(t, 0, d.CurrentStreak)
	assert.False(t, d.HasStudiedToday)

	// A gap at D-1, then a completion today.
	d = c.Calculate(today, []PlanHistory{history(-3, 1), history(0, 1)}, 0, nil)
	assert.Equal(t, 1, d.CurrentStreak)
	assert.True(t, d.HasStudiedToday)
}

func TestCalculate_SynthesizedDates(t *testing.T) {
	c := utcCalc(DateModeSynthesized)

	// Created two days ago with three completions: D-2, D-1, D.
	d := c.Calculate(today, []PlanHistory{history(-2, 3)}, 0, nil)
	assert.Equal(t, 3, d.CurrentStreak)
	assert.True(t, d.HasStudiedToday)
	assert.Equal(t, 3, d.CompletedTasks)
	require.NotNil(t, d.LastStudyDate)
	assert.True(t, d.LastStudyDate.Equal(day(0)))
	assert.Equal(t, 3*10+3*5, d.TotalXP)
	assert.Equal(t, 1, d.Level)
}

func TestCalculate_FutureSynthesizedDatesDoNotCount(t *testing.T) {
	c := utcCalc(DateModeSynthesized)

	// Created today with five completions: D..D+4. Only today counts toward
	// the streak, but the last study date is the latest synthesized one.
	d := c.Calculate(today, []PlanHistory{history(0, 5)}, 0, nil)
	assert.Equal(t, 1, d.CurrentStreak)
	require.NotNil(t, d.LastStudyDate)
	assert.True(t, d.LastStudyDate.Equal(day(4)))
}

func TestCalculate_RecordedDates(t *testing.T) {
	c := utcCalc(DateModeRecorded)
	p := PlanHistory{
		CreatedAt: day(-30),
		Completed: []string{"0-0", "0-1", "1-0"},
		CompletedAt: map[string]time.Time{
			"0-0": day(-1),
			"0-1": day(0),
		},
	}
	// 1-0 has no recorded time and falls back to CreatedAt + 2 days.
	d := c.Calculate(today, []PlanHistory{p}, 0, nil)
	assert.Equal(t, 2, d.CurrentStreak)
	assert.True(t, d.HasStudiedToday)

	days := c.StudyDays([]PlanHistory{p})
	require.Len(t, days, 3)
	assert.True(t, days[0].After(days[1]))
}

func TestCalculate_EpochFloor(t *testing.T) {
	c := utcCalc(DateModeSynthesized)
	c.Epoch = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

	d := c.Calculate(today, []PlanHistory{history(-5, 6)}, 0, nil)
	assert.Equal(t, 2, d.CurrentStreak, "walk stops at the epoch")
}

func TestCalculate_LongestStreakNeverDecreases(t *testing.T) {
	c := utcCalc(DateModeSynthesized)

	d := c.Calculate(today, []PlanHistory{history(-2, 3)}, 10, nil)
	assert.Equal(t, 3, d.CurrentStreak)
	assert.Equal(t, 10, d.LongestStreak)

	d = c.Calculate(today, []PlanHistory{history(-2, 3)}, 1, nil)
	assert.Equal(t, 3, d.LongestStreak)
}

func TestCalculate_CompletedPlans(t *testing.T) {
	c := utcCalc(DateModeSynthesized)
	done := history(-40, 2)
	done.Complete = true

	d := c.Calculate(today, []PlanHistory{done, history(-40, 1)}, 0, []string{"first-completion"})
	assert.Equal(t, 1, d.CompletedPlans)
	assert.Equal(t, 3*10+25, d.TotalXP)
	assert.Equal(t, []string{"first-completion"}, d.Achievements)
}

func TestParseDateMode(t *testing.T) {
	m, err := ParseDateMode("")
	require.NoError(t, err)
	assert.Equal(t, DateModeSynthesized, m)

	m, err = ParseDateMode("recorded")
	require.NoError(t, err)
	assert.Equal(t, DateModeRecorded, m)

	_, err = ParseDateMode("wallclock")
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	got := Evaluate(Catalog, State{CurrentStreak: 7, CompletedPlans: 1}, []string{"streak-3"})
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"streak-7", "first-completion"}, ids)

	assert.Empty(t, Evaluate(Catalog, State{CurrentStreak: 2}, nil))
}

func TestEngine_FiresOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(store.NewMemoryKV(), nil)
	engine := NewEngine(repo)

	fresh, err := engine.Check(ctx, State{CurrentStreak: 2})
	require.NoError(t, err)
	assert.Empty(t, fresh)

	fresh, err = engine.Check(ctx, State{CurrentStreak: 3})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "streak-3", fresh[0].ID)
	assert.Equal(t, "Getting Warmed Up!", fresh[0].Title)

	fresh, err = engine.Check(ctx, State{CurrentStreak: 4})
	require.NoError(t, err)
	assert.Empty(t, fresh)

	ids, err := repo.Unlocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"streak-3"}, ids)
}

func TestEngine_AppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(store.NewMemoryKV(), nil)
	engine := NewEngine(repo)

	_, err := engine.Check(ctx, State{CurrentStreak: 7, CompletedPlans: 1})
	require.NoError(t, err)

	// Streak falls back to zero; nothing is revoked.
	_, err = engine.Check(ctx, State{})
	require.NoError(t, err)

	ids, err := repo.Unlocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"streak-3", "streak-7", "first-completion"}, ids)
}

func TestEngine_CustomCatalog(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(NewRepo(store.NewMemoryKV(), nil)).WithCatalog([]Achievement{
		{ID: "five-plans", Unlock: func(s State) bool { return s.CompletedPlans >= 5 }},
	})
	fresh, err := engine.Check(ctx, State{CompletedPlans: 5, CurrentStreak: 30})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "five-plans", fresh[0].ID)
}

func TestRepo_LongestStreak(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := NewRepo(kv, nil)

	n, err := repo.LongestStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	raised, err := repo.RaiseLongestStreak(ctx, 4)
	require.NoError(t, err)
	assert.True(t, raised)

	raised, err = repo.RaiseLongestStreak(ctx, 2)
	require.NoError(t, err)
	assert.False(t, raised)

	n, err = repo.LongestStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, kv.Set(ctx, store.KeyLongestStreak, []byte("not-a-number")))
	n, err = repo.LongestStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("streak-7")
	require.True(t, ok)
	assert.Equal(t, "Week Warrior!", a.Title)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
