package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type logged struct {
	inner    Provider
	provider string
	logger   *zap.Logger
}

// WithLogging writes one structured log line per request.
func WithLogging(p Provider, provider string, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logged{inner: p, provider: provider, logger: logger.Named("llm")}
}

func (l *logged) ModelID() string { return l.inner.ModelID() }

func (l *logged) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	fields := []zap.Field{
		zap.String("provider", l.provider),
		zap.String("operation", OperationFrom(ctx)),
		zap.Duration("latency", time.Since(start)),
	}
	if req.Schema != nil {
		fields = append(fields, zap.String("schema", req.Schema.Name))
	}
	if err != nil {
		l.logger.Warn("llm request failed", append(fields, zap.String("model", l.inner.ModelID()), zap.Error(err))...)
		return nil, err
	}

	fields = append(fields,
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))
	if price, ok := PriceOf(resp.Model); ok {
		fields = append(fields, zap.Float64("cost_usd", price.Cost(resp.Usage)))
	}
	l.logger.Info("llm request", fields...)
	return resp, nil
}
