package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply. Err takes precedence over Content.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and records requests.
// Once the script runs out every call fails with UnavailableError.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	calls  []Request
}

// NewMockProvider returns a MockProvider with the given script.
func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

// Reply appends content to the script.
func (m *MockProvider) Reply(content string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, MockResponse{Content: json.RawMessage(content)})
	return m
}

// Fail appends an error to the script.
func (m *MockProvider) Fail(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, MockResponse{Err: err})
	return m
}

func (m *MockProvider) ModelID() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if len(m.script) == 0 {
		return nil, &UnavailableError{}
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: StopEnd}, nil
}

// Calls returns the recorded requests.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
