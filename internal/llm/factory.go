package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider builds the configured backend behind retry and logging.
// The mock provider is returned bare with an empty script.
func NewProvider(ctx context.Context, cfg Config, logger *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderMock:
		return NewMockProvider(), nil
	case ProviderAnthropic:
		base, err = NewAnthropic(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAI(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouter(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGemini(ctx, cfg.Gemini)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(base, cfg.Provider, logger), cfg.Retry, logger), nil
}
