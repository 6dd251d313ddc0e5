package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures a backend.
type Config struct {
	Provider string

	Anthropic  BackendConfig
	OpenAI     BackendConfig
	Gemini     BackendConfig
	OpenRouter BackendConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// BackendConfig is the per-backend credential and model. BaseURL is only
// honoured by OpenAI-compatible backends.
type BackendConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig is exponential backoff with jitter.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  BackendConfig{Model: "claude-haiku"},
		OpenAI:     BackendConfig{Model: "gpt-4o-mini"},
		Gemini:     BackendConfig{Model: "gemini-flash"},
		OpenRouter: BackendConfig{Model: "google/gemini-2.0-flash-exp", BaseURL: defaultOpenRouterURL},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 60 * time.Second,
	}
}

// vendorKeys is probed by Discover in order.
var vendorKeys = []struct {
	env      string
	provider string
}{
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"OPENAI_API_KEY", ProviderOpenAI},
	{"GEMINI_API_KEY", ProviderGemini},
	{"OPENROUTER_API_KEY", ProviderOpenRouter},
}

// Discover fills in a backend from the vendors' own API key variables
// when cfg has no usable key. It reports whether cfg is usable afterwards.
func Discover(cfg Config) (Config, bool) {
	if cfg.Validate() == nil {
		return cfg, true
	}
	for _, vk := range vendorKeys {
		key := os.Getenv(vk.env)
		if key == "" {
			continue
		}
		cfg.Provider = vk.provider
		cfg.backend(vk.provider).APIKey = key
		return cfg, true
	}
	return cfg, false
}

func (c *Config) backend(provider string) *BackendConfig {
	switch provider {
	case ProviderAnthropic:
		return &c.Anthropic
	case ProviderOpenAI:
		return &c.OpenAI
	case ProviderGemini:
		return &c.Gemini
	case ProviderOpenRouter:
		return &c.OpenRouter
	}
	return nil
}

// Validate checks that the selected backend has an API key.
func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	b := c.backend(c.Provider)
	if b == nil {
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if b.APIKey == "" {
		return fmt.Errorf("llm.%s.api_key is required for the %s provider", c.Provider, c.Provider)
	}
	return nil
}
