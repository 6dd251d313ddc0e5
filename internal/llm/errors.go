package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("llm rate limited, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// InvalidResponseError means the model output was not JSON or did not
// match the requested schema.
type InvalidResponseError struct {
	Content json.RawMessage
	Err     error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("llm returned invalid content: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

// UnavailableError wraps transport failures and 5xx responses.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "llm provider unavailable"
	}
	return "llm provider unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// TruncatedError means generation stopped at the token limit.
type TruncatedError struct {
	Content json.RawMessage
}

func (e *TruncatedError) Error() string {
	return "llm output truncated at max tokens"
}
