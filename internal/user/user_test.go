package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepbuddy/internal/store"
)

func newTestService(t *testing.T) (*Service, store.KV) {
	t.Helper()
	kv := store.NewMemoryKV()
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	return NewService(kv, nil).WithClock(func() time.Time { return now }), kv
}

func TestSignIn_CreatesDefaultUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	u, err := svc.SignIn(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Name)
	assert.Equal(t, "light", u.Preferences.Theme)
	assert.Equal(t, Stats{Level: 1}, u.Stats)
	assert.NotEmpty(t, u.ID)
	assert.Contains(t, u.Avatar, "seed=ada")

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, u.ID, cur.ID)
}

func TestSignIn_LoadsExisting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.SignUp(ctx, "ada@example.com", "Ada Lovelace")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx))

	again, err := svc.SignIn(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Ada Lovelace", again.Name)
}

func TestSignUp_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SignUp(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "ada@example.com", "Other Ada")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestSignIn_InvalidEmail(t *testing.T) {
	svc, _ := newTestService(t)
	for _, e := range []string{"", "nobody", "@example.com", "ada@"} {
		_, err := svc.SignIn(context.Background(), e)
		assert.ErrorIs(t, err, ErrInvalidEmail, e)
	}
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.SignIn(ctx, "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx))
	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	users, err := svc.users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "roster keeps the user")
}

func TestUpdateStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	changed, err := svc.UpdateStats(ctx, Full(Stats{TotalXP: 10}))
	require.NoError(t, err)
	assert.False(t, changed, "no session")

	_, err = svc.SignIn(ctx, "ada@example.com")
	require.NoError(t, err)

	xp, lvl := 150, 2
	changed, err = svc.UpdateStats(ctx, StatsUpdate{TotalXP: &xp, Level: &lvl})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.UpdateStats(ctx, StatsUpdate{TotalXP: &xp})
	require.NoError(t, err)
	assert.False(t, changed, "same values")

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, cur.Stats.TotalXP)
	assert.Equal(t, 2, cur.Stats.Level)

	users, err := svc.users(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, users[0].Stats.TotalXP, "roster mirrors the session")
}

func TestRecordXP(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.SignIn(ctx, "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.RecordXP(ctx, 320, 4))
	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 320, cur.Stats.TotalXP)
	assert.Equal(t, 4, cur.Stats.Level)
}

func TestUpdatePreferences(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.UpdatePreferences(ctx, func(p *Preferences) { p.Theme = "dark" })
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = svc.SignIn(ctx, "ada@example.com")
	require.NoError(t, err)
	u, err := svc.UpdatePreferences(ctx, func(p *Preferences) { p.Theme = "dark" })
	require.NoError(t, err)
	assert.Equal(t, "dark", u.Preferences.Theme)

	u, err = svc.UpdateProfile(ctx, func(p *Profile) { p.Bio = "learning Go" })
	require.NoError(t, err)
	assert.Equal(t, "learning Go", u.Profile.Bio)
	assert.Equal(t, "dark", u.Preferences.Theme)
}

func TestCurrent_Malformed(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestService(t)
	require.NoError(t, kv.Set(ctx, store.KeyCurrentUser, []byte("nope")))
	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestStudyHours(t *testing.T) {
	assert.Equal(t, 0, StudyHours(1))
	assert.Equal(t, 1, StudyHours(3))
	assert.Equal(t, 5, StudyHours(10))
}

func TestStatsUpdateApply(t *testing.T) {
	streak := 3
	s, changed := StatsUpdate{CurrentStreak: &streak}.Apply(Stats{Level: 1})
	assert.True(t, changed)
	assert.Equal(t, Stats{Level: 1, CurrentStreak: 3}, s)

	_, changed = StatsUpdate{}.Apply(s)
	assert.False(t, changed)
}
