package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-3.5-turbo"
	openAIEmbedModel   = "text-embedding-ada-002"
)

// openAIClient serves text generation through the chat completions API and
// embeddings through the embeddings API.
type openAIClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewOpenAIClient constructs a [Client] backed by the OpenAI API.
func NewOpenAIClient(apiKey string, timeout time.Duration, log *logger.Logger) Client {
	cli := resty.New().
		SetBaseURL(openAIBaseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &openAIClient{client: cli, logger: log}
}

func (o *openAIClient) Name() string { return "openai" }

func (o *openAIClient) Supports(t models.ServiceType) bool {
	return t == models.ServiceText2Text || t == models.ServiceEmbedding
}

type openAIChatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage openAIUsage `json:"usage"`
}

type openAIUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage openAIUsage `json:"usage"`
}

func (o *openAIClient) Generate(ctx context.Context, req Request) (Result, error) {
	switch req.Type {
	case models.ServiceText2Text:
		return o.generateText(ctx, req)
	case models.ServiceEmbedding:
		return o.embed(ctx, req)
	default:
		return Result{}, fmt.Errorf("%w: openai cannot serve %q", ErrUnsupportedType, req.Type)
	}
}

func (o *openAIClient) generateText(ctx context.Context, req Request) (Result, error) {
	fields, err := parsePayload(req.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("openai payload: %w", err)
	}

	messages := fields.Messages
	if len(messages) == 0 {
		messages = []message{{Role: "user", Content: fields.prompt()}}
	}

	body := openAIChatRequest{
		Model:       modelOrDefault(req.Model, openAIDefaultModel),
		Messages:    messages,
		MaxTokens:   fields.MaxTokens,
		Temperature: fields.Temperature,
	}

	started := time.Now()
	var chat openAIChatResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&chat).
		Post("/chat/completions")
	if err != nil {
		return Result{}, fmt.Errorf("openai chat request: %w", err)
	}
	if err = upstreamError("openai", resp); err != nil {
		return Result{}, err
	}
	if len(chat.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: openai returned no choices", ErrUpstream)
	}

	output, err := json.Marshal(map[string]string{"text": chat.Choices[0].Message.Content})
	if err != nil {
		return Result{}, fmt.Errorf("encode openai output: %w", err)
	}

	return Result{
		Provider: o.Name(),
		Model:    body.Model,
		Output:   output,
		Units:    chat.Usage.TotalTokens,
		Latency:  time.Since(started),
	}, nil
}

func (o *openAIClient) embed(ctx context.Context, req Request) (Result, error) {
	fields, err := parsePayload(req.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("openai payload: %w", err)
	}

	body := openAIEmbedRequest{
		Model: modelOrDefault(req.Model, openAIEmbedModel),
		Input: fields.prompt(),
	}

	started := time.Now()
	var embed openAIEmbedResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&embed).
		Post("/embeddings")
	if err != nil {
		return Result{}, fmt.Errorf("openai embeddings request: %w", err)
	}
	if err = upstreamError("openai", resp); err != nil {
		return Result{}, err
	}
	if len(embed.Data) == 0 {
		return Result{}, fmt.Errorf("%w: openai returned no embedding", ErrUpstream)
	}

	output, err := json.Marshal(map[string]any{"embedding": embed.Data[0].Embedding})
	if err != nil {
		return Result{}, fmt.Errorf("encode openai output: %w", err)
	}

	return Result{
		Provider: o.Name(),
		Model:    body.Model,
		Output:   output,
		Units:    embed.Usage.TotalTokens,
		Latency:  time.Since(started),
	}, nil
}

// Status sends a minimal models listing to verify the key and reachability.
func (o *openAIClient) Status(ctx context.Context) error {
	resp, err := o.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return fmt.Errorf("openai status: %w", err)
	}
	return upstreamError("openai", resp)
}

func modelOrDefault(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}

func upstreamError(name string, resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	return fmt.Errorf("%w: %s http %d: %s", ErrUpstream, name, resp.StatusCode(), resp.String())
}
