package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com/v1"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-2"

	// anthropicMaxTokens is sent when the payload does not bound the
	// response; the messages API requires the field.
	anthropicMaxTokens = 1024
)

// anthropicClient serves text generation through the messages API.
type anthropicClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewAnthropicClient constructs a [Client] backed by the Anthropic API.
func NewAnthropicClient(apiKey string, timeout time.Duration, log *logger.Logger) Client {
	cli := resty.New().
		SetBaseURL(anthropicBaseURL).
		SetTimeout(timeout).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("Content-Type", "application/json")

	return &anthropicClient{client: cli, logger: log}
}

func (a *anthropicClient) Name() string { return "anthropic" }

func (a *anthropicClient) Supports(t models.ServiceType) bool {
	return t == models.ServiceText2Text
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Stream      bool      `json:"stream"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func (a *anthropicClient) Generate(ctx context.Context, req Request) (Result, error) {
	if req.Type != models.ServiceText2Text {
		return Result{}, fmt.Errorf("%w: anthropic cannot serve %q", ErrUnsupportedType, req.Type)
	}

	fields, err := parsePayload(req.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("anthropic payload: %w", err)
	}

	// System prompts travel in a dedicated field; everything else must
	// alternate user/assistant.
	system := fields.System
	messages := make([]message, 0, len(fields.Messages))
	for _, msg := range fields.Messages {
		if msg.Role == "system" {
			system = msg.Content
			continue
		}
		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}
		messages = append(messages, message{Role: role, Content: msg.Content})
	}
	if len(messages) == 0 {
		messages = []message{{Role: "user", Content: fields.prompt()}}
	}

	maxTokens := fields.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	body := anthropicRequest{
		Model:       modelOrDefault(req.Model, anthropicDefaultModel),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: fields.Temperature,
		System:      system,
		Stream:      false,
	}

	started := time.Now()
	var out anthropicResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/messages")
	if err != nil {
		return Result{}, fmt.Errorf("anthropic messages request: %w", err)
	}
	if err = upstreamError("anthropic", resp); err != nil {
		return Result{}, err
	}
	if len(out.Content) == 0 {
		return Result{}, fmt.Errorf("%w: anthropic returned no content", ErrUpstream)
	}

	output, err := json.Marshal(map[string]string{"text": out.Content[0].Text})
	if err != nil {
		return Result{}, fmt.Errorf("encode anthropic output: %w", err)
	}

	return Result{
		Provider: a.Name(),
		Model:    body.Model,
		Output:   output,
		Units:    out.Usage.InputTokens + out.Usage.OutputTokens,
		Latency:  time.Since(started),
	}, nil
}

// Status posts a one-token request; a 2xx means the key and endpoint work.
func (a *anthropicClient) Status(ctx context.Context) error {
	body := anthropicRequest{
		Model:     anthropicDefaultModel,
		Messages:  []message{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	}

	resp, err := a.client.R().SetContext(ctx).SetBody(body).Post("/messages")
	if err != nil {
		return fmt.Errorf("anthropic status: %w", err)
	}
	return upstreamError("anthropic", resp)
}
