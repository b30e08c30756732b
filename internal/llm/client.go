// Package llm wraps the chat-completion provider used to draft itineraries.
//
// Callers talk to the Client interface. Every failure is returned as *Error
// carrying a Kind, so the generation pipeline can decide between retrying,
// falling back to a template, or reporting a misconfiguration without
// inspecting provider-specific error types.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies an LLM failure.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindQuota      Kind = "quota_or_rate_limit"
	KindAuth       Kind = "auth"
	KindUnknown    Kind = "unknown"
)

// Retryable reports whether another attempt may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindQuota, KindAuth:
		return false
	default:
		return true
	}
}

// ErrMissingAPIKey is returned by NewOpenAIClient when no key is configured.
var ErrMissingAPIKey = errors.New("llm: missing API key")

// Request is a single-turn completion request.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
	// Timeout bounds the call; zero means the client default.
	Timeout time.Duration
}

// Response is the completion text plus token accounting.
type Response struct {
	Text         string
	Model        string
	FinishReason string
	TotalTokens  int
}

// Client produces completions.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Error is the structured failure returned by Client implementations.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}
