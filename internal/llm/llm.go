// Package llm talks to hosted language models for study plan generation.
// Every backend returns JSON; when a Schema is set the JSON is validated
// before it reaches the caller.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a completion for a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Schema is a named JSON Schema the response must satisfy. Name doubles
// as the structured output name for backends that require one.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Request is a single generation call. A zero Temperature leaves the
// backend default in place.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Ask builds a single-turn request.
func Ask(system, prompt string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}

// Stop reasons reported in Response.StopReason.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is the model output. Content is validated JSON when the
// request carried a schema.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Usage is the token count reported by the backend.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type operationKey struct{}

// WithOperation labels ctx with the operation that issues LLM calls. The
// label shows up in request logs.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFrom returns the label set by WithOperation.
func OperationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "unlabeled"
}
