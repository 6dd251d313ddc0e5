package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenAI generates with chat completions and a strict JSON schema
// response format. It also serves OpenRouter and other compatible APIs.
type OpenAI struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAI creates an OpenAI backend.
func NewOpenAI(cfg BackendConfig) (*OpenAI, error) {
	return newOpenAICompatible(ProviderOpenAI, cfg)
}

// NewOpenRouter creates an OpenAI-compatible backend pointed at
// OpenRouter. Model names are used verbatim.
func NewOpenRouter(cfg BackendConfig) (*OpenAI, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterURL
	}
	return newOpenAICompatible(ProviderOpenRouter, cfg)
}

func newOpenAICompatible(name string, cfg BackendConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", name)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), model: cfg.Model, name: name}, nil
}

func (o *OpenAI) ModelID() string { return o.model }

func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	creq := openai.ChatCompletionRequest{
		Model:               o.model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.System != "" {
		creq.Messages = append(creq.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		creq.Messages = append(creq.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("%s: encode schema: %w", o.name, err)
		}
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(def),
				Strict: true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.HTTPStatusCode, err)
		}
		return nil, &UnavailableError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &InvalidResponseError{Err: fmt.Errorf("%s: response has no choices", o.name)}
	}

	choice := resp.Choices[0]
	content := json.RawMessage(choice.Message.Content)
	if choice.FinishReason == openai.FinishReasonLength {
		return nil, &TruncatedError{Content: content}
	}
	if err := Validate(req.Schema, content); err != nil {
		return nil, err
	}
	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model:      resp.Model,
		StopReason: StopEnd,
	}, nil
}
