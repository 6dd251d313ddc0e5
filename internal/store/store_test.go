package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteKV {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]KV {
	t.Helper()
	kvs := map[string]KV{
		"memory": NewMemoryKV(),
		"sqlite": openTestStore(t),
	}
	if addr := os.Getenv("PREPBUDDY_TEST_REDIS_ADDR"); addr != "" {
		r, err := OpenRedis(context.Background(), addr, "prepbuddy-test:"+uuid.NewString()+":")
		require.NoError(t, err)
		t.Cleanup(func() { r.Close() })
		kvs["redis"] = r
	}
	return kvs
}

func TestKV_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "plans", []byte(`[]`)))
			got, ok, err := kv.Get(ctx, "plans")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, kv.Set(ctx, "plans", []byte(`[{"id":"a"}]`)))
			got, _, err = kv.Get(ctx, "plans")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"a"}]`, string(got))

			require.NoError(t, kv.Delete(ctx, "plans"))
			_, ok, err = kv.Get(ctx, "plans")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Delete(ctx, "plans"), "deleting an absent key")
		})
	}
}

func TestKV_KeysByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, CompletedTasksKey("p2"), []byte(`[]`)))
			require.NoError(t, kv.Set(ctx, CompletedTasksKey("p1"), []byte(`[]`)))
			require.NoError(t, kv.Set(ctx, QuizResultsKey("p1"), []byte(`{}`)))
			require.NoError(t, kv.Set(ctx, KeyPlans, []byte(`[]`)))

			keys, err := kv.Keys(ctx, PrefixCompletedTasks)
			require.NoError(t, err)
			assert.Equal(t, []string{"completed-tasks-p1", "completed-tasks-p2"}, keys)
		})
	}
}

func TestReadWriteJSON(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	var n int
	found, err := ReadJSON(ctx, kv, KeyLongestStreak, &n)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, WriteJSON(ctx, kv, KeyLongestStreak, 5))
	found, err = ReadJSON(ctx, kv, KeyLongestStreak, &n)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 5, n)
}

func TestReadJSON_Malformed(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyUnlockedAchievements, []byte(`{not json`)))

	var ids []string
	found, err := ReadJSON(ctx, kv, KeyUnlockedAchievements, &ids)
	assert.True(t, found)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var sync string
	require.NoError(t, s.DB().QueryRow("PRAGMA synchronous").Scan(&sync))
	assert.Equal(t, "1", sync) // NORMAL
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyLastReminderDate, []byte(`"Mon Jan 01 2024"`)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get(ctx, KeyLastReminderDate)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"Mon Jan 01 2024"`, string(got))
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "sub", "custom.db")
		t.Setenv("PREPBUDDY_DB", p)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.DirExists(t, filepath.Dir(p))
	})

	t.Run("xdg data home", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("PREPBUDDY_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "prepbuddy", "prepbuddy.db"), got)
	})
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	kv, err := OpenBackend(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryKV{}, kv)

	kv, err = OpenBackend(ctx, Options{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "a", "b.db")})
	require.NoError(t, err)
	defer kv.Close()
	assert.IsType(t, &SQLiteKV{}, kv)

	_, err = OpenBackend(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}

func TestPlanKeys(t *testing.T) {
	assert.Equal(t, []string{
		"completed-tasks-abc",
		"completed-at-abc",
		"quiz-results-abc",
	}, PlanKeys("abc"))
}
