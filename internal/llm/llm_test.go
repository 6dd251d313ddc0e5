package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func planSchema() *Schema {
	return &Schema{
		Name: "test-plan",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
				"days":  map[string]any{"type": "integer", "minimum": 1},
				"level": map[string]any{"type": "string", "enum": []any{"beginner", "advanced"}},
				"tasks": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"title", "days"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete", `{"title":"Go","days":3,"level":"beginner","tasks":["a"]}`, false},
		{"optional omitted", `{"title":"Go","days":1}`, false},
		{"missing required", `{"title":"Go"}`, true},
		{"wrong type", `{"title":"Go","days":"three"}`, true},
		{"below minimum", `{"title":"Go","days":0}`, true},
		{"bad enum", `{"title":"Go","days":2,"level":"expert"}`, true},
		{"bad item", `{"title":"Go","days":2,"tasks":[1]}`, true},
		{"not json", `{title}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(planSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var invalid *InvalidResponseError
			assert.ErrorAs(t, err, &invalid)
		})
	}

	assert.NoError(t, Validate(nil, json.RawMessage(`anything`)))
}

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	m := NewMockProvider(MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 3}})
	m.Fail(&RateLimitError{})

	resp, err := m.Generate(ctx, Ask("sys", "first", nil, 10))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(resp.Content))
	assert.Equal(t, 3, resp.Usage.InputTokens)
	assert.Equal(t, StopEnd, resp.StopReason)

	_, err = m.Generate(ctx, Request{})
	var rl *RateLimitError
	assert.ErrorAs(t, err, &rl)

	_, err = m.Generate(ctx, Request{})
	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "sys", calls[0].System)
	assert.Equal(t, "first", calls[0].Messages[0].Content)
}

func TestOperationContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unlabeled", OperationFrom(ctx))
	assert.Equal(t, "plan-generate", OperationFrom(WithOperation(ctx, "plan-generate")))
}

func TestRetry(t *testing.T) {
	down := func() error { return &UnavailableError{Err: errors.New("down")} }
	invalid := func() error { return &InvalidResponseError{Err: errors.New("bad")} }

	tests := []struct {
		name      string
		script    []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first try", []MockResponse{{Content: json.RawMessage(`{}`)}}, false, 1},
		{"transient then ok", []MockResponse{{Err: down()}, {Content: json.RawMessage(`{}`)}}, false, 2},
		{"exhausted", []MockResponse{{Err: down()}, {Err: down()}, {Err: down()}, {Content: json.RawMessage(`{}`)}}, true, 3},
		{"truncated is final", []MockResponse{{Err: &TruncatedError{}}, {Content: json.RawMessage(`{}`)}}, true, 1},
		{"invalid retried once", []MockResponse{{Err: invalid()}, {Err: invalid()}, {Content: json.RawMessage(`{}`)}}, true, 2},
		{"rate limit honours retry-after", []MockResponse{{Err: &RateLimitError{RetryAfter: time.Millisecond}}, {Content: json.RawMessage(`{}`)}}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockProvider(tt.script...)
			p := WithRetry(m, fastRetry(), nil)
			_, err := p.Generate(context.Background(), Request{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, m.Calls(), tt.wantCalls)
		})
	}
}

func TestRetry_CancelledContext(t *testing.T) {
	m := NewMockProvider(MockResponse{Err: &UnavailableError{}}, MockResponse{Content: json.RawMessage(`{}`)})
	cfg := fastRetry()
	cfg.InitialWait, cfg.MaxWait = time.Hour, time.Hour
	p := WithRetry(m, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, m.Calls(), 1)
	assert.Equal(t, "mock", p.ModelID())
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Usage: Usage{InputTokens: 10, OutputTokens: 4}})
	m.Fail(errors.New("boom"))
	p := WithLogging(m, ProviderMock, zap.New(core))

	ctx := WithOperation(context.Background(), "plan-generate")
	_, err := p.Generate(ctx, Request{Schema: planSchema()})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	ok := entries[0].ContextMap()
	assert.Equal(t, "llm request", entries[0].Message)
	assert.Equal(t, "plan-generate", ok["operation"])
	assert.Equal(t, "test-plan", ok["schema"])
	assert.EqualValues(t, 10, ok["input_tokens"])
	assert.Equal(t, "llm request failed", entries[1].Message)
}

func TestPrice(t *testing.T) {
	p, ok := PriceOf("gpt-4o-mini")
	require.True(t, ok)
	assert.InDelta(t, 0.15+0.6, p.Cost(Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}), 1e-9)

	_, ok = PriceOf("unknown-model")
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: BackendConfig{APIKey: "k"}}, false},
		{"openrouter with key", Config{Provider: ProviderOpenRouter, OpenRouter: BackendConfig{APIKey: "k"}}, false},
		{"gemini without key", Config{Provider: ProviderGemini}, true},
		{"mock", Config{Provider: ProviderMock}, false},
		{"unknown", Config{Provider: "llama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestDiscover(t *testing.T) {
	for _, vk := range vendorKeys {
		t.Setenv(vk.env, "")
	}
	_, ok := Discover(Defaults())
	assert.False(t, ok)

	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, ok := Discover(Defaults())
	require.True(t, ok)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)

	explicit := Defaults()
	explicit.Anthropic.APIKey = "a-key"
	cfg, ok = Discover(explicit)
	require.True(t, ok)
	assert.Equal(t, ProviderAnthropic, cfg.Provider, "configured key wins")
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{Provider: ProviderMock}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockProvider{}, p)

	_, err = NewProvider(ctx, Config{Provider: ProviderOpenAI}, nil)
	assert.Error(t, err)

	cfg := Defaults()
	cfg.Provider = ProviderOpenRouter
	cfg.OpenRouter.APIKey = "sk-or"
	p, err = NewProvider(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-exp", p.ModelID())
}

func TestAliases(t *testing.T) {
	assert.Equal(t, "claude-haiku-4-5-20251001", alias("claude-haiku", anthropicAliases))
	assert.Equal(t, "gemini-2.0-flash", alias("gemini-flash", geminiAliases))
	assert.Equal(t, "custom-model", alias("custom-model", geminiAliases))
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(planSchema().Definition)
	assert.Equal(t, "OBJECT", string(s.Type))
	require.Len(t, s.Properties, 4)
	assert.Equal(t, "INTEGER", string(s.Properties["days"].Type))
	assert.Equal(t, []string{"beginner", "advanced"}, s.Properties["level"].Enum)
	assert.Equal(t, "STRING", string(s.Properties["tasks"].Items.Type))
	assert.ElementsMatch(t, []string{"title", "days"}, s.Required)
}

func noRetries() option.RequestOption { return option.WithMaxRetries(0) }

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestAnthropic(t *testing.T) {
	message := func(text, stop string) map[string]any {
		return map[string]any{
			"id": "msg_1", "type": "message", "role": "assistant",
			"model":       "claude-haiku-4-5-20251001",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"stop_reason": stop,
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 20},
		}
	}
	apiError := func(kind string) map[string]any {
		return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, resp *Response, err error)
	}{
		{"ok", jsonHandler(http.StatusOK, message(`{"title":"Go","days":2}`, "end_turn")), func(t *testing.T, resp *Response, err error) {
			require.NoError(t, err)
			assert.Equal(t, 70, resp.Usage.TotalTokens)
			assert.JSONEq(t, `{"title":"Go","days":2}`, string(resp.Content))
		}},
		{"schema mismatch", jsonHandler(http.StatusOK, message(`{"title":"Go"}`, "end_turn")), func(t *testing.T, _ *Response, err error) {
			var invalid *InvalidResponseError
			assert.ErrorAs(t, err, &invalid)
		}},
		{"truncated", jsonHandler(http.StatusOK, message(`{"title":`, "max_tokens")), func(t *testing.T, _ *Response, err error) {
			var truncated *TruncatedError
			assert.ErrorAs(t, err, &truncated)
		}},
		{"rate limited", jsonHandler(http.StatusTooManyRequests, apiError("rate_limit_error")), func(t *testing.T, _ *Response, err error) {
			var rl *RateLimitError
			assert.ErrorAs(t, err, &rl)
		}},
		{"server error", jsonHandler(http.StatusInternalServerError, apiError("api_error")), func(t *testing.T, _ *Response, err error) {
			var unavailable *UnavailableError
			assert.ErrorAs(t, err, &unavailable)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)
			p, err := NewAnthropic(BackendConfig{APIKey: "k", Model: "claude-haiku", BaseURL: srv.URL}, noRetries())
			require.NoError(t, err)

			resp, err := p.Generate(context.Background(), Ask("You write study plans.", "Plan Go.", planSchema(), 512))
			tt.check(t, resp, err)
		})
	}
}

func TestOpenAI(t *testing.T) {
	completion := func(content, finish string) map[string]any {
		return map[string]any{
			"id": "cmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		}
	}
	apiError := map[string]any{"error": map[string]any{"type": "x", "message": "nope"}}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, resp *Response, err error)
	}{
		{"ok", jsonHandler(http.StatusOK, completion(`{"title":"Go","days":2}`, "stop")), func(t *testing.T, resp *Response, err error) {
			require.NoError(t, err)
			assert.Equal(t, 40, resp.Usage.InputTokens)
			assert.Equal(t, 25, resp.Usage.OutputTokens)
			assert.Equal(t, "gpt-4o-mini", resp.Model)
		}},
		{"length", jsonHandler(http.StatusOK, completion(`{"ti`, "length")), func(t *testing.T, _ *Response, err error) {
			var truncated *TruncatedError
			assert.ErrorAs(t, err, &truncated)
		}},
		{"rate limited", jsonHandler(http.StatusTooManyRequests, apiError), func(t *testing.T, _ *Response, err error) {
			var rl *RateLimitError
			assert.ErrorAs(t, err, &rl)
		}},
		{"server error", jsonHandler(http.StatusBadGateway, apiError), func(t *testing.T, _ *Response, err error) {
			var unavailable *UnavailableError
			assert.ErrorAs(t, err, &unavailable)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)
			p, err := NewOpenAI(BackendConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
			require.NoError(t, err)

			resp, err := p.Generate(context.Background(), Ask("sys", "Plan Go.", planSchema(), 512))
			tt.check(t, resp, err)
		})
	}
}

func TestNewOpenRouter(t *testing.T) {
	p, err := NewOpenRouter(BackendConfig{APIKey: "sk-or", Model: "anthropic/claude-3-haiku"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku", p.ModelID())
	assert.Equal(t, ProviderOpenRouter, p.name)

	_, err = NewOpenRouter(BackendConfig{Model: "x"})
	assert.Error(t, err)
}
