// Package config loads prepbuddy settings from defaults, an optional
// prepbuddy.yaml and PREPBUDDY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/prepbuddy/internal/incentives"
	"github.com/abhisek/prepbuddy/internal/llm"
	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/store"
)

const (
	EnvPrefix = "PREPBUDDY"
	FileName  = "prepbuddy"
)

type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Streak StreakConfig `mapstructure:"streak"`
	Log    LogConfig    `mapstructure:"log"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Server ServerConfig `mapstructure:"server"`
}

type StoreConfig struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type StreakConfig struct {
	Mode  string `mapstructure:"mode"`
	Epoch string `mapstructure:"epoch"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type BackendConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`

	Anthropic  BackendConfig `mapstructure:"anthropic"`
	OpenAI     BackendConfig `mapstructure:"openai"`
	Gemini     BackendConfig `mapstructure:"gemini"`
	OpenRouter BackendConfig `mapstructure:"openrouter"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// keys bound to the environment. AutomaticEnv alone does not see nested
// keys during Unmarshal unless they are known to viper.
var envKeys = []string{
	"store.backend", "store.path", "store.redis_addr", "store.redis_prefix",
	"streak.mode", "streak.epoch",
	"log.level", "log.development",
	"llm.provider", "llm.timeout", "llm.max_attempts",
	"llm.anthropic.api_key", "llm.anthropic.model", "llm.anthropic.base_url",
	"llm.openai.api_key", "llm.openai.model", "llm.openai.base_url",
	"llm.gemini.api_key", "llm.gemini.model", "llm.gemini.base_url",
	"llm.openrouter.api_key", "llm.openrouter.model", "llm.openrouter.base_url",
	"server.addr",
}

func setDefaults(v *viper.Viper) {
	ld := llm.Defaults()

	v.SetDefault("store.backend", store.BackendSQLite)
	v.SetDefault("store.path", "")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_prefix", "prepbuddy:")
	v.SetDefault("streak.mode", string(incentives.DateModeSynthesized))
	v.SetDefault("streak.epoch", "2024-01-01")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("llm.provider", ld.Provider)
	v.SetDefault("llm.timeout", ld.Timeout)
	v.SetDefault("llm.max_attempts", ld.Retry.MaxAttempts)
	v.SetDefault("llm.anthropic.model", ld.Anthropic.Model)
	v.SetDefault("llm.openai.model", ld.OpenAI.Model)
	v.SetDefault("llm.gemini.model", ld.Gemini.Model)
	v.SetDefault("llm.openrouter.model", ld.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", ld.OpenRouter.BaseURL)
	v.SetDefault("server.addr", "127.0.0.1:8787")
}

// Load reads configuration. An explicit file must exist; otherwise
// prepbuddy.yaml is looked up in the user config dir and the working
// directory and is optional.
func Load(file string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", k, err)
		}
	}
	// PREPBUDDY_DB is the historical name for the database path.
	if err := v.BindEnv("store.path", EnvPrefix+"_STORE_PATH", EnvPrefix+"_DB"); err != nil {
		return Config{}, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "prepbuddy"))
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values early.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendSQLite, store.BackendRedis, store.BackendMemory:
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if _, err := incentives.ParseDateMode(c.Streak.Mode); err != nil {
		return fmt.Errorf("streak.mode: %w", err)
	}
	if _, err := c.StreakEpoch(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// StreakEpoch parses streak.epoch as a local date.
func (c Config) StreakEpoch() (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, c.Streak.Epoch, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("streak.epoch: %w", err)
	}
	return t, nil
}

// StoreOptions maps the store section.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.Store.Backend,
		Path:        c.Store.Path,
		RedisAddr:   c.Store.RedisAddr,
		RedisPrefix: c.Store.RedisPrefix,
	}
}

// Logging maps the log section.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Development: c.Log.Development}
}

// LLMConfig maps the llm section onto llm.Config, keeping llm defaults
// for retry backoff.
func (c Config) LLMConfig() llm.Config {
	out := llm.Defaults()
	out.Provider = c.LLM.Provider
	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	if c.LLM.MaxAttempts > 0 {
		out.Retry.MaxAttempts = c.LLM.MaxAttempts
	}
	out.Anthropic = llm.BackendConfig(c.LLM.Anthropic)
	out.OpenAI = llm.BackendConfig(c.LLM.OpenAI)
	out.Gemini = llm.BackendConfig(c.LLM.Gemini)
	out.OpenRouter = llm.BackendConfig(c.LLM.OpenRouter)
	return out
}
