package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultModel is used when OpenAIConfig.Model is empty.
const DefaultModel = openai.GPT3Dot5Turbo

// OpenAIConfig configures OpenAIClient.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint (proxies, compatible gateways, tests).
	BaseURL string
	Model   string
	// Timeout applies when a Request carries none.
	Timeout time.Duration
}

// OpenAIClient implements Client on the OpenAI chat-completions API.
type OpenAIClient struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient builds a client, failing with ErrMissingAPIKey when no key
// is configured.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(oc), model: model, timeout: timeout}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Complete sends one chat completion. Errors are always *Error.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	tr := otel.Tracer("llm")
	ctx, span := tr.Start(ctx, "ChatCompletion", trace.WithAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	))
	defer span.End()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		le := classify(err)
		span.RecordError(le)
		span.SetStatus(codes.Error, string(le.Kind))
		return Response{}, le
	}

	out := Response{Model: resp.Model, TotalTokens: resp.Usage.TotalTokens}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	span.SetAttributes(attribute.Int("llm.total_tokens", out.TotalTokens))
	return out, nil
}

// classify maps provider and transport errors onto a Kind.
func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: kindForStatus(apiErr.HTTPStatusCode, codeString(apiErr.Code), apiErr.Type), StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: kindForStatus(reqErr.HTTPStatusCode, "", ""), StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindTimeout, Err: err}
		}
		return &Error{Kind: KindConnection, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindConnection, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return &Error{Kind: KindTimeout, Err: err}
	case strings.Contains(msg, "connection"):
		return &Error{Kind: KindConnection, Err: err}
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"):
		return &Error{Kind: KindQuota, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}

func kindForStatus(status int, code, typ string) Kind {
	switch {
	case status == http.StatusTooManyRequests,
		code == "rate_limit_exceeded", code == "insufficient_quota",
		typ == "insufficient_quota":
		return KindQuota
	case status == http.StatusUnauthorized, status == http.StatusForbidden, code == "invalid_api_key":
		return KindAuth
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return KindTimeout
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable:
		return KindConnection
	}
	return KindUnknown
}

func codeString(code any) string {
	if s, ok := code.(string); ok {
		return s
	}
	return ""
}
