package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepbuddy/internal/llm"
	"github.com/abhisek/prepbuddy/internal/store"
)

// isolate keeps the host's config files and environment out of a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, k := range envKeys {
		t.Setenv(envName(k), "")
		os.Unsetenv(envName(k))
	}
	t.Setenv("PREPBUDDY_DB", "")
	os.Unsetenv("PREPBUDDY_DB")
	t.Chdir(dir)
	return dir
}

func envName(key string) string {
	out := []byte(EnvPrefix + "_")
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '.':
			c = '_'
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, store.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "prepbuddy:", cfg.Store.RedisPrefix)
	assert.Equal(t, "synthesized", cfg.Streak.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)

	epoch, err := cfg.StreakEpoch()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), epoch)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: memory
streak:
  mode: recorded
log:
  level: debug
  development: true
llm:
  provider: openai
  max_attempts: 5
  timeout: 90s
  openai:
    api_key: sk-file
    model: gpt-4.1-mini
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "recorded", cfg.Streak.Mode)
	assert.True(t, cfg.Logging().Development)

	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "sk-file", lc.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1-mini", lc.OpenAI.Model)
	assert.Equal(t, 5, lc.Retry.MaxAttempts)
	assert.Equal(t, 90*time.Second, lc.Timeout)
	assert.Equal(t, "claude-haiku", lc.Anthropic.Model, "untouched backends keep defaults")
}

func TestLoad_DiscoversWorkingDirFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prepbuddy.yaml"), []byte("server:\n  addr: 0.0.0.0:9000\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("PREPBUDDY_STORE_BACKEND", "redis")
	t.Setenv("PREPBUDDY_STORE_REDIS_ADDR", "cache:6380")
	t.Setenv("PREPBUDDY_LLM_GEMINI_API_KEY", "g-env")
	t.Setenv("PREPBUDDY_DB", "/tmp/pb.db")

	cfg, err := Load("")
	require.NoError(t, err)
	opts := cfg.StoreOptions()
	assert.Equal(t, store.BackendRedis, opts.Backend)
	assert.Equal(t, "cache:6380", opts.RedisAddr)
	assert.Equal(t, "/tmp/pb.db", opts.Path)
	assert.Equal(t, "g-env", cfg.LLMConfig().Gemini.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"backend", map[string]string{"PREPBUDDY_STORE_BACKEND": "postgres"}},
		{"streak mode", map[string]string{"PREPBUDDY_STREAK_MODE": "guessed"}},
		{"epoch", map[string]string{"PREPBUDDY_STREAK_EPOCH": "01/01/2024"}},
		{"log level", map[string]string{"PREPBUDDY_LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
