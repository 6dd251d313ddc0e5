package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

type retrying struct {
	inner  Provider
	cfg    RetryConfig
	logger *zap.Logger
}

// WithRetry retries transient failures. Truncation and cancellation are
// final; a schema mismatch is retried once.
func WithRetry(p Provider, cfg RetryConfig, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retrying{inner: p, cfg: cfg, logger: logger}
}

func (r *retrying) ModelID() string { return r.inner.ModelID() }

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		err           error
		resp          *Response
		invalidBudget = 1
	)
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err, &invalidBudget) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		wait := r.wait(attempt, err)
		r.logger.Debug("retrying llm request",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, err
}

func retryable(err error, invalidBudget *int) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var truncated *TruncatedError
	if errors.As(err, &truncated) {
		return false
	}
	var invalid *InvalidResponseError
	if errors.As(err, &invalid) {
		if *invalidBudget == 0 {
			return false
		}
		*invalidBudget--
	}
	return true
}

func (r *retrying) wait(attempt int, err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	d = math.Min(d, float64(r.cfg.MaxWait))
	// +/- 20% jitter
	d += d * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(d, 0))
}
